package raster

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"
)

func newSurface(t *testing.T, w, h int) *GGSurface {
	t.Helper()
	s, err := NewGGSurface(w, h)
	if err != nil {
		t.Fatalf("NewGGSurface: %v", err)
	}
	return s
}

func TestNewGGSurfaceRejectsEmptySize(t *testing.T) {
	if _, err := NewGGSurface(0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := NewGGSurface(10, -1); err == nil {
		t.Fatalf("expected error for negative height")
	}
}

func TestNewSurfaceIsTransparent(t *testing.T) {
	s := newSurface(t, 40, 30)
	if got := s.Size(); got != image.Pt(40, 30) {
		t.Fatalf("Size() = %v", got)
	}
	if n := CountPainted(s.Image()); n != 0 {
		t.Fatalf("fresh surface has %d painted pixels", n)
	}
}

func TestDrawCircleCoversDisk(t *testing.T) {
	s := newSurface(t, 100, 100)
	if err := s.DrawCircle(Point{X: 50, Y: 50}, 30); err != nil {
		t.Fatalf("DrawCircle: %v", err)
	}
	img := s.Image()
	if !Painted(img, 50, 50) {
		t.Fatalf("centre not painted")
	}
	if !Painted(img, 50+12, 50) || !Painted(img, 50, 50-12) {
		t.Fatalf("interior of disk not painted")
	}
	if Painted(img, 50+18, 50) || Painted(img, 50, 50+18) {
		t.Fatalf("paint outside the disk radius")
	}
	area := float64(CountPainted(img))
	want := math.Pi * 15 * 15
	if math.Abs(area-want) > want*0.1 {
		t.Fatalf("disk area = %v, want about %v", area, want)
	}
}

func TestDrawLineSegmentRoundCaps(t *testing.T) {
	s := newSurface(t, 200, 100)
	if err := s.DrawLineSegment(Point{X: 50, Y: 50}, Point{X: 150, Y: 50}, 20); err != nil {
		t.Fatalf("DrawLineSegment: %v", err)
	}
	b := PaintedBounds(s.Image())
	if b.Min.X < 38 || b.Min.X > 42 || b.Max.X < 158 || b.Max.X > 162 {
		t.Fatalf("horizontal extent %v, want round caps reaching x=40..160", b)
	}
	if b.Dy() < 18 || b.Dy() > 22 {
		t.Fatalf("band height = %d, want about 20", b.Dy())
	}
}

func TestDrawZeroLengthSegmentPaintsDab(t *testing.T) {
	s := newSurface(t, 60, 60)
	p := Point{X: 30, Y: 30}
	if err := s.DrawLineSegment(p, p, 10); err != nil {
		t.Fatalf("DrawLineSegment: %v", err)
	}
	if !Painted(s.Image(), 30, 30) {
		t.Fatalf("zero-length segment left no paint")
	}
}

func TestClearAndResize(t *testing.T) {
	s := newSurface(t, 50, 50)
	_ = s.DrawCircle(Point{X: 25, Y: 25}, 20)
	s.Clear()
	if n := CountPainted(s.Image()); n != 0 {
		t.Fatalf("after Clear %d pixels painted", n)
	}
	_ = s.DrawCircle(Point{X: 25, Y: 25}, 20)
	if err := s.Resize(80, 40); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if got := s.Size(); got != image.Pt(80, 40) {
		t.Fatalf("Size() after resize = %v", got)
	}
	if n := CountPainted(s.Image()); n != 0 {
		t.Fatalf("after Resize %d pixels painted", n)
	}
}

func TestExportPNG(t *testing.T) {
	s := newSurface(t, 32, 16)
	_ = s.DrawCircle(Point{X: 8, Y: 8}, 8)
	var buf bytes.Buffer
	if err := s.ExportPNG(&buf); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode exported png: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("exported bounds %v", img.Bounds())
	}
}
