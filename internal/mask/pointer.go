package mask

import (
	"encoding/json"
	"fmt"

	"magiceraser/internal/raster"
)

// PointerKind is the normalized pointer phase.
type PointerKind int

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

func (k PointerKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PointerKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	kind, err := parsePointerType(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// PointerEvent is a pointer sample in mask-surface pixel coordinates.
type PointerEvent struct {
	Kind PointerKind  `json:"kind"`
	Pos  raster.Point `json:"pos"`
}

func Down(x, y float64) PointerEvent {
	return PointerEvent{Kind: PointerDown, Pos: raster.Point{X: x, Y: y}}
}
func Move(x, y float64) PointerEvent {
	return PointerEvent{Kind: PointerMove, Pos: raster.Point{X: x, Y: y}}
}
func Up() PointerEvent { return PointerEvent{Kind: PointerUp} }

// RawPointer is an input event as reported by a browser. Mouse events carry
// element-relative offsets; touch events carry client coordinates and the
// bounding rectangle of the surface.
type RawPointer struct {
	Source  string  `json:"source"`
	Type    string  `json:"type"`
	OffsetX float64 `json:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty"`
	ClientX float64 `json:"client_x,omitempty"`
	ClientY float64 `json:"client_y,omitempty"`
	RectX   float64 `json:"rect_x,omitempty"`
	RectY   float64 `json:"rect_y,omitempty"`
}

func parsePointerType(t string) (PointerKind, error) {
	switch t {
	case "down", "mousedown", "start", "touchstart":
		return PointerDown, nil
	case "move", "mousemove", "touchmove":
		return PointerMove, nil
	case "up", "mouseup", "leave", "mouseleave", "end", "touchend", "cancel", "touchcancel":
		return PointerUp, nil
	}
	return 0, fmt.Errorf("unknown pointer type %q", t)
}

// Normalize maps a raw event into surface coordinates. No scaling is applied:
// the surface is the size it is displayed at.
func Normalize(raw RawPointer) (PointerEvent, error) {
	kind, err := parsePointerType(raw.Type)
	if err != nil {
		return PointerEvent{}, err
	}
	ev := PointerEvent{Kind: kind}
	if kind == PointerUp {
		return ev, nil
	}
	switch raw.Source {
	case "", "mouse":
		ev.Pos = raster.Point{X: raw.OffsetX, Y: raw.OffsetY}
	case "touch":
		ev.Pos = raster.Point{X: raw.ClientX - raw.RectX, Y: raw.ClientY - raw.RectY}
	default:
		return PointerEvent{}, fmt.Errorf("unknown pointer source %q", raw.Source)
	}
	return ev, nil
}

// NormalizeAll normalizes a batch, failing on the first bad event.
func NormalizeAll(raws []RawPointer) ([]PointerEvent, error) {
	out := make([]PointerEvent, 0, len(raws))
	for i, raw := range raws {
		ev, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
