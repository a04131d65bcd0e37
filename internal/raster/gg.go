package raster

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"
)

// GGSurface implements Surface on a gg software drawing context.
type GGSurface struct {
	dc *gg.Context
}

// NewGGSurface allocates a transparent surface of the given size.
func NewGGSurface(width, height int) (*GGSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.Clear()
	return &GGSurface{dc: dc}, nil
}

func (s *GGSurface) ink() {
	s.dc.SetRGB(0, 0, 0)
}

func (s *GGSurface) DrawCircle(c Point, diameter float64) error {
	if diameter <= 0 {
		return nil
	}
	s.ink()
	s.dc.DrawCircle(c.X, c.Y, diameter/2)
	if err := s.dc.Fill(); err != nil {
		return fmt.Errorf("raster: fill circle: %w", err)
	}
	return nil
}

func (s *GGSurface) DrawLineSegment(a, b Point, width float64) error {
	if width <= 0 {
		return nil
	}
	if a == b {
		return s.DrawCircle(a, width)
	}
	s.ink()
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.MoveTo(a.X, a.Y)
	s.dc.LineTo(b.X, b.Y)
	if err := s.dc.Stroke(); err != nil {
		return fmt.Errorf("raster: stroke segment: %w", err)
	}
	return nil
}

func (s *GGSurface) Clear() {
	s.dc.ClearPath()
	s.dc.Clear()
}

func (s *GGSurface) Resize(width, height int) error {
	if err := s.dc.Resize(width, height); err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	s.dc.Clear()
	return nil
}

func (s *GGSurface) Size() image.Point {
	return image.Pt(s.dc.Width(), s.dc.Height())
}

func (s *GGSurface) Image() *image.RGBA {
	img := s.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func (s *GGSurface) ExportPNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

var _ Surface = (*GGSurface)(nil)
