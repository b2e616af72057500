package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"dndbuilder/internal/models"
)

func TestAssetStoreLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewAssetStore(db)
	ctx := context.Background()
	user := testUser(t, db, "test-asset@store-test.local")

	key := "assets/" + uuid.NewString() + ".png"
	created, err := s.Create(ctx, &models.Asset{
		UserID:       user.ID,
		OriginalName: "logo.png",
		ContentType:  "image/png",
		SizeBytes:    2048,
		Width:        640,
		Height:       480,
		S3Key:        key,
		URL:          "http://localhost:9000/dndbuilder-assets/" + key,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Width != 640 || created.Height != 480 {
		t.Errorf("dimensions = %dx%d", created.Width, created.Height)
	}

	count, err := s.CountByUser(ctx, user.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountByUser: %d, %v", count, err)
	}

	list, err := s.ListByUser(ctx, user.ID, 10, 0)
	if err != nil || len(list) != 1 || list[0].S3Key != key {
		t.Fatalf("ListByUser: %+v, %v", list, err)
	}

	other, err := s.Delete(ctx, created.ID, uuid.New())
	if err != nil || other != nil {
		t.Errorf("Delete as another user should be a no-op, got %v, %v", other, err)
	}

	deleted, err := s.Delete(ctx, created.ID, user.ID)
	if err != nil || deleted == nil || deleted.S3Key != key {
		t.Fatalf("Delete: %v, %v", deleted, err)
	}
}
