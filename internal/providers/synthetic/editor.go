// Package synthetic provides an offline editor that fills the masked region
// from its surroundings. It keeps local and CI runs working without a Gemini
// key.
package synthetic

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
	"magiceraser/internal/raster"
)

type Editor struct {
	Delay  time.Duration
	Logger zerolog.Logger
}

func New(logger zerolog.Logger) *Editor {
	return &Editor{Logger: logger}
}

func (e *Editor) Name() string { return "synthetic" }

// Edit replaces every masked pixel by interpolating between the nearest
// unmasked pixels on the same row.
func (e *Editor) Edit(ctx context.Context, req editor.Request) (*editor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, err)
	}
	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, domain.NewSubmissionError(domain.FailureNetwork, 0, ctx.Err())
		case <-time.After(e.Delay):
		}
	}

	src, _, err := image.Decode(bytes.NewReader(req.Source))
	if err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, fmt.Errorf("decode source: %w", err))
	}
	maskImg, err := png.Decode(bytes.NewReader(req.Mask))
	if err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, fmt.Errorf("decode mask: %w", err))
	}

	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)

	mask := image.NewRGBA(out.Bounds())
	draw.NearestNeighbor.Scale(mask, mask.Bounds(), maskImg, maskImg.Bounds(), draw.Src, nil)

	filled := 0
	for y := 0; y < b.Dy(); y++ {
		filled += fillRow(out, mask, y)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, fmt.Errorf("encode result: %w", err))
	}

	e.Logger.Debug().
		Str("request_id", req.RequestID).
		Int("filled", filled).
		Msg("synthetic: edit completed")

	return &editor.Result{Data: buf.Bytes(), MIME: "image/png", Text: "synthetic fill"}, nil
}

func fillRow(img, mask *image.RGBA, y int) int {
	w := img.Bounds().Dx()
	filled := 0
	x := 0
	for x < w {
		if !raster.Painted(mask, x, y) {
			x++
			continue
		}
		start := x
		for x < w && raster.Painted(mask, x, y) {
			x++
		}
		end := x // exclusive
		left, right := start-1, end
		var lc, rc color.RGBA
		switch {
		case left >= 0 && right < w:
			lc, rc = img.RGBAAt(left, y), img.RGBAAt(right, y)
		case left >= 0:
			lc = img.RGBAAt(left, y)
			rc = lc
		case right < w:
			rc = img.RGBAAt(right, y)
			lc = rc
		default:
			lc = color.RGBA{A: 255}
			rc = lc
		}
		span := float64(end - start + 1)
		for i := start; i < end; i++ {
			t := float64(i-start+1) / span
			img.SetRGBA(i, y, lerp(lc, rc, t))
			filled++
		}
	}
	return filled
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(p, q uint8) uint8 {
		return uint8(float64(p) + (float64(q)-float64(p))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

var _ editor.Editor = (*Editor)(nil)
