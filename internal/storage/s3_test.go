package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New(Config{Endpoint: "http://localhost:9000"})
	if err != nil || c != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", c, err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "s"})
	if err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestFileURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "path style",
			cfg:  Config{Endpoint: "http://localhost:9000/", AccessKey: "a", SecretKey: "s", Bucket: "assets"},
			want: "http://localhost:9000/assets/a/b.png",
		},
		{
			name: "public url",
			cfg:  Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "assets", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/a/b.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := c.FileURL("a/b.png"); got != tt.want {
				t.Errorf("FileURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	user := uuid.New()
	a, b := ObjectKey(user, ".png"), ObjectKey(user, ".png")
	if a == b {
		t.Error("keys should be unique")
	}
	prefix := "assets/" + user.String() + "/"
	if !strings.HasPrefix(a, prefix) || !strings.HasSuffix(a, ".png") {
		t.Errorf("unexpected key %q", a)
	}
}
