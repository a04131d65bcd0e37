// Package editor defines the contract between an edit session and the remote
// image-editing collaborator.
package editor

import (
	"context"
	"fmt"
)

// Request carries one masked edit. Mask is a PNG at the source's native size:
// opaque black marks the region to modify, transparent pixels stay untouched.
type Request struct {
	Source      []byte
	SourceMIME  string
	Mask        []byte
	Instruction string
	Locale      string
	RequestID   string
}

// Result is the collaborator payload. Empty Data is an empty result.
type Result struct {
	Data []byte
	MIME string
	Text string
}

// Empty reports whether the result carries no image.
func (r *Result) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// Editor performs a masked edit.
type Editor interface {
	Name() string
	Edit(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a function to the Editor interface.
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Name() string { return "func" }

func (f Func) Edit(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

// Validate checks that a request has the pieces every provider needs.
func (r Request) Validate() error {
	if len(r.Source) == 0 {
		return fmt.Errorf("editor: empty source image")
	}
	if len(r.Mask) == 0 {
		return fmt.Errorf("editor: empty mask")
	}
	if r.SourceMIME == "" {
		return fmt.Errorf("editor: missing source mime type")
	}
	return nil
}
