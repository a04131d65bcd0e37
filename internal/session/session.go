// Package session implements the edit session state machine: one loaded
// image, its mask, and at most one submission in flight.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
	"magiceraser/internal/mask"
	"magiceraser/internal/raster"
)

// ErrUnknownSubmission is returned when completing a submission the session
// no longer tracks, for example after the session was deleted and recreated.
var ErrUnknownSubmission = errors.New("unknown submission")

// Config holds the defaults applied to new sessions.
type Config struct {
	ContainerWidth int
	Brush          int
	Rasterizer     *mask.Rasterizer
	DisplayScaler  draw.Scaler
	NewSurface     func(width, height int) (raster.Surface, error)
	Now            func() time.Time
}

func (c Config) withDefaults() Config {
	if c.ContainerWidth <= 0 {
		c.ContainerWidth = 1024
	}
	if c.Brush == 0 {
		c.Brush = mask.DefaultBrush
	}
	if c.Rasterizer == nil {
		c.Rasterizer = &mask.Rasterizer{Filter: draw.BiLinear}
	}
	if c.DisplayScaler == nil {
		c.DisplayScaler = draw.CatmullRom
	}
	if c.NewSurface == nil {
		c.NewSurface = func(w, h int) (raster.Surface, error) { return raster.NewGGSurface(w, h) }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Submission is the payload captured on the transition into submitting.
type Submission struct {
	ID         string
	SessionID  string
	Attempt    int
	Request    editor.Request
	NativeSize image.Point
	StartedAt  time.Time
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID             string              `json:"id"`
	State          domain.SessionState `json:"state"`
	ContainerWidth int                 `json:"container_width"`
	Brush          int                 `json:"brush"`
	Scale          float64             `json:"scale,omitempty"`
	DisplayWidth   int                 `json:"display_width,omitempty"`
	DisplayHeight  int                 `json:"display_height,omitempty"`
	NativeWidth    int                 `json:"native_width,omitempty"`
	NativeHeight   int                 `json:"native_height,omitempty"`
	SourceMIME     string              `json:"source_mime,omitempty"`
	Strokes        int                 `json:"strokes"`
	Painting       bool                `json:"painting"`
	HasResult      bool                `json:"has_result"`
	ResultText     string              `json:"result_text,omitempty"`
	FailureKind    domain.FailureKind  `json:"failure_kind,omitempty"`
	FailureMessage string              `json:"failure_message,omitempty"`
	Attempts       int                 `json:"attempts"`
	SubmissionID   string              `json:"submission_id,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Session is safe for concurrent use. All mutations are serialized, so
// pointer events are applied in the order their calls acquire the lock.
type Session struct {
	mu sync.Mutex

	id             string
	cfg            Config
	state          domain.SessionState
	containerWidth int
	brush          int

	source  *mask.Source
	display *mask.Display
	engine  *mask.Engine

	current  *Submission
	result   *editor.Result
	failure  error
	attempts int

	createdAt time.Time
	updatedAt time.Time
}

// New creates an idle session.
func New(id string, cfg Config) *Session {
	cfg = cfg.withDefaults()
	if id == "" {
		id = uuid.NewString()
	}
	now := cfg.Now()
	return &Session{
		id:             id,
		cfg:            cfg,
		state:          domain.SessionIdle,
		containerWidth: cfg.ContainerWidth,
		brush:          cfg.Brush,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns the time of the last mutation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = s.cfg.Now()
}

func (s *Session) guard() error {
	if s.state == domain.SessionSubmitting {
		return domain.ErrSubmissionInFlight
	}
	return nil
}

func (s *Session) requireImage() error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.source == nil {
		return domain.ErrNoImage
	}
	return nil
}

// Load decodes an image and makes it the session's source, replacing any
// previous image, mask and result. A container width of 0 keeps the current
// viewport. On decode failure nothing changes.
func (s *Session) Load(data []byte, containerWidth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if containerWidth <= 0 {
		containerWidth = s.containerWidth
	}
	src, err := mask.DecodeSource(data)
	if err != nil {
		return err
	}
	display, err := mask.NewDisplay(src, containerWidth, s.cfg.DisplayScaler)
	if err != nil {
		return err
	}
	size := display.Size()
	surface, err := s.cfg.NewSurface(size.X, size.Y)
	if err != nil {
		return fmt.Errorf("create mask surface: %w", err)
	}
	engine, err := mask.NewEngine(surface, s.brush)
	if err != nil {
		return err
	}
	s.source, s.display, s.engine = src, display, engine
	s.containerWidth = containerWidth
	s.result, s.failure = nil, nil
	s.state = domain.SessionEditing
	s.touch()
	return nil
}

// Resize applies a new container width. The mask is resized with the display
// and its strokes replayed at the new scale.
func (s *Session) Resize(containerWidth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if containerWidth <= 0 {
		return fmt.Errorf("%w: container width %d", domain.ErrInvalidViewport, containerWidth)
	}
	s.containerWidth = containerWidth
	s.touch()
	if s.display == nil {
		return nil
	}
	oldScale := s.display.Scale()
	changed, err := s.display.Resize(containerWidth)
	if err != nil || !changed {
		return err
	}
	return s.engine.Rescale(s.display.Size(), s.display.Scale()/oldScale)
}

// SetBrush changes the brush width for later strokes.
func (s *Session) SetBrush(size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mask.ValidBrush(size); err != nil {
		return err
	}
	s.brush = size
	if s.engine != nil {
		if err := s.engine.SetBrush(size); err != nil {
			return err
		}
	}
	s.touch()
	return nil
}

// Pointer applies events in order. Only events that draw return a finished
// session to editing. Up-only batches are accepted while submitting.
func (s *Session) Pointer(events ...mask.PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.SessionSubmitting && onlyUps(events) {
		// BeginSubmit already ended the stroke; an Up changes nothing
		return nil
	}
	if err := s.requireImage(); err != nil {
		return err
	}
	painted, err := s.engine.HandleAll(events)
	if painted && (s.state == domain.SessionSucceeded || s.state == domain.SessionFailed) {
		s.state = domain.SessionEditing
	}
	s.touch()
	return err
}

func onlyUps(events []mask.PointerEvent) bool {
	for _, ev := range events {
		if ev.Kind != mask.PointerUp {
			return false
		}
	}
	return len(events) > 0
}

// ClearMask erases every stroke. Image, brush and state are untouched.
func (s *Session) ClearMask() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireImage(); err != nil {
		return err
	}
	s.engine.Clear()
	s.touch()
	return nil
}

// BeginSubmit captures the source and the native-resolution mask and moves
// the session to submitting. The caller must pass the returned submission to
// Complete exactly once.
func (s *Session) BeginSubmit(instruction, locale string) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireImage(); err != nil {
		return nil, err
	}
	native := s.source.Size()
	maskPNG, err := s.cfg.Rasterizer.Rasterize(s.engine.Surface().Image(), native)
	if err != nil {
		return nil, err
	}
	s.engine.Release()
	s.attempts++
	sub := &Submission{
		ID:         uuid.NewString(),
		SessionID:  s.id,
		Attempt:    s.attempts,
		NativeSize: native,
		StartedAt:  s.cfg.Now(),
		Request: editor.Request{
			Source:      s.source.Data,
			SourceMIME:  s.source.MIME,
			Mask:        maskPNG,
			Instruction: instruction,
			Locale:      locale,
		},
	}
	sub.Request.RequestID = sub.ID
	s.current = sub
	s.result, s.failure = nil, nil
	s.state = domain.SessionSubmitting
	s.touch()
	return sub, nil
}

// Complete records the collaborator outcome. A nil error with an empty
// payload is a failure with domain.ErrEmptyResult. It returns the outcome
// error, or ErrUnknownSubmission when sub is not the submission in flight.
func (s *Session) Complete(sub *Submission, res *editor.Result, callErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub == nil || s.current == nil || s.current.ID != sub.ID {
		return ErrUnknownSubmission
	}
	if callErr == nil && res.Empty() {
		callErr = domain.ErrEmptyResult
	}
	s.current = nil
	if callErr != nil {
		s.failure = callErr
		s.state = domain.SessionFailed
	} else {
		s.result = res
		s.state = domain.SessionSucceeded
	}
	s.touch()
	return callErr
}

// Submit runs a whole submission synchronously.
func (s *Session) Submit(ctx context.Context, ed editor.Editor, instruction, locale string) (*editor.Result, error) {
	sub, err := s.BeginSubmit(instruction, locale)
	if err != nil {
		return nil, err
	}
	res, callErr := ed.Edit(ctx, sub.Request)
	if err := s.Complete(sub, res, callErr); err != nil {
		return nil, err
	}
	return res, nil
}

// Reset drops the image, mask and result and returns to idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.source, s.display, s.engine = nil, nil, nil
	s.result, s.failure = nil, nil
	s.state = domain.SessionIdle
	s.touch()
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:             s.id,
		State:          s.state,
		ContainerWidth: s.containerWidth,
		Brush:          s.brush,
		HasResult:      !s.result.Empty(),
		Attempts:       s.attempts,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
	if s.display != nil {
		size := s.display.Size()
		snap.Scale = s.display.Scale()
		snap.DisplayWidth, snap.DisplayHeight = size.X, size.Y
		snap.NativeWidth, snap.NativeHeight = s.source.Width, s.source.Height
		snap.SourceMIME = s.source.MIME
	}
	if s.engine != nil {
		snap.Strokes = len(s.engine.Strokes())
		snap.Painting = s.engine.Active()
	}
	if s.result != nil {
		snap.ResultText = s.result.Text
	}
	if s.failure != nil {
		snap.FailureKind = domain.KindOf(s.failure)
		snap.FailureMessage = s.failure.Error()
	}
	if s.current != nil {
		snap.SubmissionID = s.current.ID
	}
	return snap
}

// Failure returns the error of the last failed submission.
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// MaskPNG encodes the mask at display resolution, or at native resolution
// through the rasterizer when native is set.
func (s *Session) MaskPNG(native bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil, domain.ErrNoImage
	}
	if native {
		return s.cfg.Rasterizer.Rasterize(s.engine.Surface().Image(), s.source.Size())
	}
	var buf bytes.Buffer
	if err := s.engine.Surface().ExportPNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DisplayPNG encodes the scaled source image.
func (s *Session) DisplayPNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return nil, domain.ErrNoImage
	}
	var buf bytes.Buffer
	if err := s.display.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Result returns the last successful payload.
func (s *Session) Result() (*editor.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result.Empty() {
		return nil, domain.ErrNotFound
	}
	return s.result, nil
}

// Source returns the original upload bytes and MIME type.
func (s *Session) Source() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil, "", domain.ErrNoImage
	}
	return s.source.Data, s.source.MIME, nil
}
