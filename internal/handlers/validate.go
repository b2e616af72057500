package handlers

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/models"
)

// Validation limits for request fields.
const (
	maxSettingsBytes = 64 << 10
	maxSettingsDepth = 8
	maxImageURLLen   = 2048
)

// validateSettings checks a theme settings object for size and nesting.
func validateSettings(settings map[string]any) error {
	if settings == nil {
		return nil
	}
	if depth(settings) > maxSettingsDepth {
		return apperr.BadRequest("Settings are nested too deeply (max %d levels)", maxSettingsDepth)
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return apperr.BadRequest("Settings must be a JSON object")
	}
	if len(b) > maxSettingsBytes {
		return apperr.BadRequest("Settings are too large (max 64 KB)")
	}
	return nil
}

// validateProfile checks the optional image URL of a profile edit.
// Email and names are validated by the auth service.
func validateProfile(upd models.ProfileUpdate) error {
	if upd.Image == nil || *upd.Image == "" {
		return nil
	}
	img := strings.TrimSpace(*upd.Image)
	if utf8.RuneCountInString(img) > maxImageURLLen {
		return apperr.BadRequest("Image URL is too long (max %d characters)", maxImageURLLen)
	}
	if !strings.HasPrefix(img, "https://") && !strings.HasPrefix(img, "http://") {
		return apperr.BadRequest("Image must be an http(s) URL")
	}
	return nil
}

func depth(v any) int {
	switch t := v.(type) {
	case map[string]any:
		deepest := 0
		for _, child := range t {
			if d := depth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	case []any:
		deepest := 0
		for _, child := range t {
			if d := depth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	default:
		return 0
	}
}
