package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNoImage            = errors.New("no image loaded")
	ErrImageDecode        = errors.New("image decode failed")
	ErrUnsupportedImage   = errors.New("unsupported image format")
	ErrEmptyResult        = errors.New("edit returned no image")
	ErrSubmission         = errors.New("edit submission failed")
	ErrSubmissionInFlight = errors.New("submission in flight")
	ErrInvalidBrush       = errors.New("invalid brush size")
	ErrInvalidViewport    = errors.New("invalid viewport")
)

// FailureKind classifies a failed attempt for message selection only. It never
// drives retries.
type FailureKind string

const (
	FailureDecode    FailureKind = "decode"
	FailureNoImage   FailureKind = "no_image"
	FailureEmpty     FailureKind = "empty_result"
	FailureNetwork   FailureKind = "network"
	FailureAuth      FailureKind = "auth"
	FailureQuota     FailureKind = "quota"
	FailureSafety    FailureKind = "safety"
	FailureGeneric   FailureKind = "generic"
	FailureInFlight  FailureKind = "in_flight"
	FailureBrush     FailureKind = "invalid_brush"
	FailureViewport  FailureKind = "invalid_viewport"
	FailureNotFound  FailureKind = "not_found"
	FailureFormat    FailureKind = "unsupported_image"
	FailureMalformed FailureKind = "bad_request"
)

// SubmissionError is returned by edit collaborators for transport, auth, quota
// and other upstream problems.
type SubmissionError struct {
	Kind   FailureKind
	Status int
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("edit submission failed (%s, status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("edit submission failed (%s): %v", e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

// NewSubmissionError wraps err with the given kind.
func NewSubmissionError(kind FailureKind, status int, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &SubmissionError{Kind: kind, Status: status, Err: err}
}

// KindOf maps an error to the failure kind used for user-facing messages.
func KindOf(err error) FailureKind {
	var subErr *SubmissionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &subErr):
		if subErr.Kind == "" {
			return FailureGeneric
		}
		return subErr.Kind
	case errors.Is(err, ErrEmptyResult):
		return FailureEmpty
	case errors.Is(err, ErrImageDecode):
		return FailureDecode
	case errors.Is(err, ErrUnsupportedImage):
		return FailureFormat
	case errors.Is(err, ErrNoImage):
		return FailureNoImage
	case errors.Is(err, ErrSubmissionInFlight):
		return FailureInFlight
	case errors.Is(err, ErrInvalidBrush):
		return FailureBrush
	case errors.Is(err, ErrInvalidViewport):
		return FailureViewport
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	default:
		return FailureGeneric
	}
}
