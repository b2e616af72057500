package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("themes: %w", Conflict("theme %q exists", "Dark"))
	if KindOf(err) != KindConflict {
		t.Errorf("KindOf = %v, want Conflict", KindOf(err))
	}
	if !Is(err, KindConflict) {
		t.Error("Is(err, KindConflict) should be true")
	}
	if Is(nil, KindConflict) {
		t.Error("Is(nil, ...) should be false")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("plain errors should be internal")
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NotFound("Theme not found")); got != "Theme not found" {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := PublicMessage(errors.New("pq: connection refused")); got != "An unexpected error occurred." {
		t.Errorf("internal error leaked: %q", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict("name taken").Wrap(cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable with errors.Is")
	}
}
