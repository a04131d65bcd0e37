package mask

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

var filters = map[string]draw.Interpolator{
	"nearest":    draw.NearestNeighbor,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

// ParseFilter resolves a filter name; empty means bilinear.
func ParseFilter(name string) (draw.Interpolator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "bilinear"
	}
	f, ok := filters[name]
	if !ok {
		return nil, fmt.Errorf("unknown mask filter %q", name)
	}
	return f, nil
}

// Rasterizer stretches a display-resolution mask to the native image size.
type Rasterizer struct {
	Filter draw.Interpolator
}

func NewRasterizer(filter string) (*Rasterizer, error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	return &Rasterizer{Filter: f}, nil
}

// Scale returns the mask stretched to native. Pixel values are copied
// through the interpolator as-is.
func (r *Rasterizer) Scale(m image.Image, native image.Point) (*image.RGBA, error) {
	if native.X <= 0 || native.Y <= 0 {
		return nil, fmt.Errorf("rasterize: invalid native size %v", native)
	}
	dst := image.NewRGBA(image.Rect(0, 0, native.X, native.Y))
	if m == nil || m.Bounds().Empty() {
		return dst, nil
	}
	f := r.Filter
	if f == nil {
		f = draw.BiLinear
	}
	f.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Src, nil)
	return dst, nil
}

// Rasterize scales the mask to native size and encodes it as PNG.
func (r *Rasterizer) Rasterize(m image.Image, native image.Point) ([]byte, error) {
	img, err := r.Scale(m, native)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	return buf.Bytes(), nil
}
