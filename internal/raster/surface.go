// Package raster owns the pixel buffers that strokes are painted into.
package raster

import (
	"image"
	"io"
)

// Point is a position in surface pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface is a transparent raster buffer that accepts opaque black paint.
// Implementations are not safe for concurrent use.
type Surface interface {
	// DrawCircle fills a disk of the given diameter centred on c.
	DrawCircle(c Point, diameter float64) error
	// DrawLineSegment strokes from a to b with round caps and joins.
	DrawLineSegment(a, b Point, width float64) error
	// Clear resets every pixel to transparent.
	Clear()
	// Resize reallocates the buffer. Content is discarded.
	Resize(width, height int) error
	Size() image.Point
	// Image returns a copy of the current pixels.
	Image() *image.RGBA
	ExportPNG(w io.Writer) error
}

// PaintedThreshold is the alpha at or above which a pixel counts as painted
// when a binary view of the buffer is needed.
const PaintedThreshold = 128

// Painted reports whether the pixel at (x, y) is painted.
func Painted(img *image.RGBA, x, y int) bool {
	if !(image.Point{X: x, Y: y}.In(img.Rect)) {
		return false
	}
	return img.Pix[img.PixOffset(x, y)+3] >= PaintedThreshold
}

// CountPainted returns the number of painted pixels in img.
func CountPainted(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] >= PaintedThreshold {
			n++
		}
	}
	return n
}

// PaintedBounds returns the smallest rectangle containing every painted pixel.
// The result is empty when nothing is painted.
func PaintedBounds(img *image.RGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !Painted(img, x, y) {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}
