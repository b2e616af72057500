// Package license generates the per-user license keys that embed the
// builder in customer sites.
package license

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"regexp"
	"strings"
)

// groupLen and groups define the printed shape XXXXXXXX-XXXXXXXX-XXXXXXXX-XXXXXXXX.
const (
	groupLen = 8
	groups   = 4
)

var keyPattern = regexp.MustCompile(`^[A-Z2-7]{8}(-[A-Z2-7]{8}){3}$`)

// Generate returns a new random license key with 160 bits of entropy.
func Generate() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("license key: %w", err)
	}
	raw := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)

	parts := make([]string, 0, groups)
	for i := 0; i < groups; i++ {
		parts = append(parts, raw[i*groupLen:(i+1)*groupLen])
	}
	return strings.Join(parts, "-"), nil
}

// Valid reports whether key has the shape produced by Generate.
func Valid(key string) bool {
	return keyPattern.MatchString(key)
}
