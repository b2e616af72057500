// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded images without fully decoding them.
// It reads the format and pixel dimensions from the image header so image
// blocks can reserve layout space, and rejects files whose header does not
// match their sniffed type or whose dimensions are implausible.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Limits applied by Probe.
const (
	MaxDimension = 16384
	MaxPixels    = 50_000_000
)

var (
	ErrUnreadable = errors.New("image header could not be read")
	ErrTooLarge   = errors.New("image dimensions exceed the allowed maximum")
	ErrMismatch   = errors.New("image format does not match its content type")
)

// formatTypes maps decoder names to MIME types.
var formatTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Info describes a probed image.
type Info struct {
	Format string
	Width  int
	Height int
}

// ContentType returns the MIME type of the probed format.
func (i Info) ContentType() string {
	return formatTypes[i.Format]
}

// Landscape reports whether the image is wider than it is tall.
func (i Info) Landscape() bool {
	return i.Width > i.Height
}

// Probe reads the header of data. When contentType is not empty the
// decoded format must match it.
func Probe(data []byte, contentType string) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	info := Info{Format: format, Width: cfg.Width, Height: cfg.Height}

	if contentType != "" && info.ContentType() != contentType {
		return Info{}, fmt.Errorf("%w: %s decoded as %s", ErrMismatch, contentType, format)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return Info{}, fmt.Errorf("%w: %dx%d", ErrUnreadable, info.Width, info.Height)
	}
	if info.Width > MaxDimension || info.Height > MaxDimension || info.Width*info.Height > MaxPixels {
		return Info{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, info.Width, info.Height)
	}
	return info, nil
}
