package main

import (
	"encoding/json"
	"fmt"
	"io"

	"magiceraser/internal/mask"
)

// Script describes a mask in display coordinates. Strokes are polylines
// painted with an optional per-stroke brush; Events are raw browser pointer
// events applied after the strokes, as a recording would replay them.
type Script struct {
	ContainerWidth int               `json:"container_width"`
	Brush          int               `json:"brush"`
	Instruction    string            `json:"instruction"`
	Strokes        []ScriptStroke    `json:"strokes"`
	Events         []mask.RawPointer `json:"events"`
}

type ScriptStroke struct {
	Brush  int          `json:"brush"`
	Points [][2]float64 `json:"points"`
}

func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range s.Strokes {
		if len(st.Points) == 0 {
			return nil, fmt.Errorf("parse script: stroke %d has no points", i)
		}
		if st.Brush != 0 {
			if err := mask.ValidBrush(st.Brush); err != nil {
				return nil, fmt.Errorf("parse script: stroke %d: %w", i, err)
			}
		}
	}
	return &s, nil
}

// Step is one brush change or pointer event, in application order.
type Step struct {
	Brush int
	Event mask.PointerEvent
}

// Steps flattens the script. A step with a non-zero Brush carries no event.
func (s *Script) Steps() ([]Step, error) {
	var out []Step
	for _, st := range s.Strokes {
		if st.Brush != 0 {
			out = append(out, Step{Brush: st.Brush})
		}
		first := st.Points[0]
		out = append(out, Step{Event: mask.Down(first[0], first[1])})
		for _, p := range st.Points[1:] {
			out = append(out, Step{Event: mask.Move(p[0], p[1])})
		}
		out = append(out, Step{Event: mask.Up()})
	}
	events, err := mask.NormalizeAll(s.Events)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		out = append(out, Step{Event: ev})
	}
	return out, nil
}
