// Package imaging inspects uploaded images and decides whether they may be kept.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"io"

	_ "image/gif"  // Register GIF decoder.
	_ "image/jpeg" // Register JPEG decoder.
	_ "image/png"  // Register PNG decoder.

	_ "golang.org/x/image/webp" // Register WebP decoder.
)

// ErrUnreadable is returned when the payload is not an image any
// registered decoder understands.
var ErrUnreadable = errors.New("imaging: unreadable image")

// Metadata is what the policy needs to know about an image.
type Metadata struct {
	Width  int
	Height int
	Format string // jpeg, png, gif or webp
}

// Probe reads only the image header, not the pixel data.
func Probe(r io.Reader) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
