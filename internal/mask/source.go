// Package mask implements the interactive raster mask editor: the scaled
// display of the source image, the stroke engine that paints the mask, and
// the rasterizer that stretches the mask back to native resolution.
package mask

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"magiceraser/internal/domain"
)

var formatMIME = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
}

// Source is an uploaded image decoded once at native resolution.
type Source struct {
	Data   []byte
	MIME   string
	Image  image.Image
	Width  int
	Height int
}

// Size returns the native dimensions.
func (s *Source) Size() image.Point {
	return image.Pt(s.Width, s.Height)
}

// DecodeSource decodes PNG, JPEG or WEBP bytes.
func DecodeSource(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrImageDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	mime, ok := formatMIME[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, format)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds", domain.ErrImageDecode)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Source{
		Data:   buf,
		MIME:   mime,
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
