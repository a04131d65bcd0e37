package mask

import (
	"fmt"
	"image"

	"magiceraser/internal/domain"
	"magiceraser/internal/raster"
)

const (
	MinBrush     = 5
	MaxBrush     = 80
	DefaultBrush = 30
)

// ValidBrush reports whether size is an allowed brush width.
func ValidBrush(size int) error {
	if size < MinBrush || size > MaxBrush {
		return fmt.Errorf("%w: %d not in [%d, %d]", domain.ErrInvalidBrush, size, MinBrush, MaxBrush)
	}
	return nil
}

// Stroke is the vector record of one painted run at a single width. The first
// point is the dab; every following point extends the polyline.
type Stroke struct {
	Width  float64        `json:"width"`
	Points []raster.Point `json:"points"`
}

// Engine turns ordered pointer events into paint on a mask surface.
type Engine struct {
	surface raster.Surface
	brush   int
	active  bool
	last    raster.Point
	strokes []Stroke
}

func NewEngine(surface raster.Surface, brush int) (*Engine, error) {
	if surface == nil {
		return nil, fmt.Errorf("mask engine: nil surface")
	}
	if err := ValidBrush(brush); err != nil {
		return nil, err
	}
	return &Engine{surface: surface, brush: brush}, nil
}

func (e *Engine) Brush() int              { return e.brush }
func (e *Engine) Active() bool            { return e.active }
func (e *Engine) Surface() raster.Surface { return e.surface }

// SetBrush changes the width used from the next painted segment onward.
func (e *Engine) SetBrush(size int) error {
	if err := ValidBrush(size); err != nil {
		return err
	}
	if size == e.brush {
		return nil
	}
	e.brush = size
	if e.active {
		// continue the active run under a new record so replay uses the new width
		e.strokes = append(e.strokes, Stroke{Width: float64(size), Points: []raster.Point{e.last}})
	}
	return nil
}

// Handle applies one pointer event and reports whether it drew anything.
// Up and a Move outside a stroke draw nothing.
func (e *Engine) Handle(ev PointerEvent) (bool, error) {
	switch ev.Kind {
	case PointerDown:
		width := float64(e.brush)
		if err := e.surface.DrawCircle(ev.Pos, width); err != nil {
			return false, err
		}
		e.active = true
		e.last = ev.Pos
		e.strokes = append(e.strokes, Stroke{Width: width, Points: []raster.Point{ev.Pos}})
		return true, nil
	case PointerMove:
		if !e.active {
			return false, nil
		}
		if err := e.surface.DrawLineSegment(e.last, ev.Pos, float64(e.brush)); err != nil {
			return false, err
		}
		e.last = ev.Pos
		cur := &e.strokes[len(e.strokes)-1]
		cur.Points = append(cur.Points, ev.Pos)
		return true, nil
	case PointerUp:
		e.Release()
		return false, nil
	}
	return false, fmt.Errorf("mask engine: unknown pointer kind %v", ev.Kind)
}

// HandleAll applies events strictly in order, stopping at the first error.
// painted is true when any applied event drew.
func (e *Engine) HandleAll(evs []PointerEvent) (painted bool, err error) {
	for _, ev := range evs {
		drew, err := e.Handle(ev)
		painted = painted || drew
		if err != nil {
			return painted, err
		}
	}
	return painted, nil
}

// Release ends the active stroke, if any. The mask is unchanged.
func (e *Engine) Release() { e.active = false }

// Clear wipes the surface back to transparent and forgets the stroke record.
func (e *Engine) Clear() {
	e.surface.Clear()
	e.active = false
	e.strokes = nil
}

// Strokes returns a copy of the stroke record.
func (e *Engine) Strokes() []Stroke {
	out := make([]Stroke, len(e.strokes))
	for i, s := range e.strokes {
		out[i] = Stroke{Width: s.Width, Points: append([]raster.Point(nil), s.Points...)}
	}
	return out
}

// Empty reports whether nothing has been painted since the last clear.
func (e *Engine) Empty() bool { return len(e.strokes) == 0 }

// Rescale resizes the surface and replays the stroke record with positions
// and widths multiplied by factor.
func (e *Engine) Rescale(size image.Point, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("%w: scale factor %v", domain.ErrInvalidViewport, factor)
	}
	if err := e.surface.Resize(size.X, size.Y); err != nil {
		return err
	}
	for i := range e.strokes {
		s := &e.strokes[i]
		s.Width *= factor
		for j := range s.Points {
			s.Points[j].X *= factor
			s.Points[j].Y *= factor
		}
		if err := replay(e.surface, *s); err != nil {
			return err
		}
	}
	e.last.X *= factor
	e.last.Y *= factor
	return nil
}

func replay(surface raster.Surface, s Stroke) error {
	if len(s.Points) == 0 {
		return nil
	}
	if err := surface.DrawCircle(s.Points[0], s.Width); err != nil {
		return err
	}
	for i := 1; i < len(s.Points); i++ {
		if err := surface.DrawLineSegment(s.Points[i-1], s.Points[i], s.Width); err != nil {
			return err
		}
	}
	return nil
}
