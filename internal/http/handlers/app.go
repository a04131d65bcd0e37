package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
	"magiceraser/internal/history"
	"magiceraser/internal/i18n"
	"magiceraser/internal/middleware"
	"magiceraser/internal/session"
	"magiceraser/internal/storage"
)

const defaultMaxUploadBytes = 20 << 20

type App struct {
	Sessions *session.Manager
	Editor   editor.Editor
	History  history.Recorder
	Store    *storage.FileStore
	I18N     *i18n.Bundle
	Logger   zerolog.Logger

	EditTimeout    time.Duration
	MaxUploadBytes int64
	// AllowedOrigins lists browser origins accepted on the pointer websocket,
	// the same list the CORS middleware uses. "*" accepts any origin.
	AllowedOrigins []string

	// base outlives individual requests so background submissions are not
	// cancelled when the 202 response is written.
	base context.Context
	wg   sync.WaitGroup
}

func NewApp(sessions *session.Manager, ed editor.Editor, logger zerolog.Logger) *App {
	return &App{
		Sessions:       sessions,
		Editor:         ed,
		History:        history.NopRecorder{},
		I18N:           i18n.New(),
		Logger:         logger,
		MaxUploadBytes: defaultMaxUploadBytes,
		base:           context.Background(),
	}
}

// WithContext sets the parent context of background submissions.
func (a *App) WithContext(ctx context.Context) *App {
	a.base = ctx
	return a
}

// Wait blocks until every background submission has completed.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

// fail writes err as a localized JSON error with a status derived from its
// failure kind.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if errors.Is(err, session.ErrUnknownSubmission) {
		kind = domain.FailureInFlight
	}
	status := statusFor(kind)
	body := errorBody{
		Code:    string(kind),
		Message: a.I18N.Kind(middleware.LocaleFromContext(r.Context()), kind),
	}
	if status >= 500 || kind == domain.FailureMalformed {
		body.Detail = err.Error()
	}
	if status >= 500 {
		a.Logger.Warn().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("kind", string(kind)).
			Msg("request failed")
	}
	a.json(w, status, map[string]errorBody{"error": body})
}

func statusFor(kind domain.FailureKind) int {
	switch kind {
	case domain.FailureNoImage, domain.FailureInFlight:
		return http.StatusConflict
	case domain.FailureDecode, domain.FailureFormat, domain.FailureBrush,
		domain.FailureViewport, domain.FailureMalformed:
		return http.StatusBadRequest
	case domain.FailureNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// malformed wraps a request decoding problem.
func malformed(err error) error {
	return domain.NewSubmissionError(domain.FailureMalformed, http.StatusBadRequest, err)
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return s, true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return malformed(err)
	}
	return nil
}
