package mask

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"magiceraser/internal/domain"
)

// DisplayScale returns min(containerWidth/nativeWidth, 1).
func DisplayScale(containerWidth, nativeWidth int) (float64, error) {
	if containerWidth <= 0 {
		return 0, fmt.Errorf("%w: container width %d", domain.ErrInvalidViewport, containerWidth)
	}
	if nativeWidth <= 0 {
		return 0, fmt.Errorf("%w: image width %d", domain.ErrInvalidViewport, nativeWidth)
	}
	return math.Min(float64(containerWidth)/float64(nativeWidth), 1), nil
}

// DisplaySize returns round(W·s) x round(H·s), never smaller than 1x1.
func DisplaySize(native image.Point, scale float64) image.Point {
	w := int(math.Round(float64(native.X) * scale))
	h := int(math.Round(float64(native.Y) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Pt(w, h)
}

// Display is the source image rendered at the display scale.
type Display struct {
	src    *Source
	scaler draw.Scaler
	scale  float64
	size   image.Point
	img    *image.RGBA
}

// NewDisplay renders src for a container of the given width. A nil scaler
// defaults to CatmullRom.
func NewDisplay(src *Source, containerWidth int, scaler draw.Scaler) (*Display, error) {
	if src == nil {
		return nil, domain.ErrNoImage
	}
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	d := &Display{src: src, scaler: scaler}
	if _, err := d.Resize(containerWidth); err != nil {
		return nil, err
	}
	return d, nil
}

// Resize recomputes the scale for a new container width and re-renders when
// the display size changes. It reports whether the size changed.
func (d *Display) Resize(containerWidth int) (bool, error) {
	scale, err := DisplayScale(containerWidth, d.src.Width)
	if err != nil {
		return false, err
	}
	size := DisplaySize(d.src.Size(), scale)
	if d.img != nil && size == d.size {
		d.scale = scale
		return false, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	d.scaler.Scale(dst, dst.Bounds(), d.src.Image, d.src.Image.Bounds(), draw.Over, nil)
	d.scale, d.size, d.img = scale, size, dst
	return true, nil
}

func (d *Display) Scale() float64     { return d.scale }
func (d *Display) Size() image.Point  { return d.size }
func (d *Display) Image() *image.RGBA { return d.img }
func (d *Display) Source() *Source    { return d.src }

// EncodePNG writes the display rendering as PNG.
func (d *Display) EncodePNG(w io.Writer) error {
	return png.Encode(w, d.img)
}
