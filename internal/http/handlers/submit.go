package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"magiceraser/internal/domain"
	"magiceraser/internal/middleware"
	"magiceraser/internal/session"
	"magiceraser/internal/storage"
)

type submitRequest struct {
	Instruction string `json:"instruction"`
}

// Submit sends the source and the native mask to the editor. The call runs in
// the background and the response carries the submitting snapshot; with
// ?wait=true the handler blocks until the outcome is recorded.
func (a *App) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		a.fail(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	sub, err := s.BeginSubmit(req.Instruction, locale)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		sub.Request.RequestID = id
	}

	attempt := &domain.EditAttempt{
		ID:           sub.ID,
		SessionID:    sub.SessionID,
		Attempt:      sub.Attempt,
		Provider:     a.Editor.Name(),
		Instruction:  req.Instruction,
		Locale:       locale,
		SourceWidth:  sub.NativeSize.X,
		SourceHeight: sub.NativeSize.Y,
		MaskBytes:    len(sub.Request.Mask),
	}
	if err := a.History.Begin(r.Context(), attempt); err != nil {
		a.Logger.Warn().Err(err).Str("session_id", s.ID()).Msg("record attempt")
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if wait {
		a.run(r.Context(), s, sub, attempt)
		a.json(w, http.StatusOK, s.Snapshot())
		return
	}
	snap := s.Snapshot()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.run(a.base, s, sub, attempt)
	}()
	a.json(w, http.StatusAccepted, snap)
}

func (a *App) run(ctx context.Context, s *session.Session, sub *session.Submission, attempt *domain.EditAttempt) {
	if a.EditTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.EditTimeout)
		defer cancel()
	}
	log := a.Logger.With().
		Str("session_id", sub.SessionID).
		Str("request_id", sub.Request.RequestID).
		Str("editor", a.Editor.Name()).
		Int("attempt", sub.Attempt).
		Logger()

	start := time.Now()
	res, callErr := a.Editor.Edit(ctx, sub.Request)
	outcome := s.Complete(sub, res, callErr)
	attempt.Duration = time.Since(start)

	switch {
	case errors.Is(outcome, session.ErrUnknownSubmission):
		log.Warn().Msg("submission completed after session changed")
		return
	case outcome != nil:
		attempt.Status = domain.AttemptFailed
		attempt.FailureKind = domain.KindOf(outcome)
		attempt.ErrorMessage = outcome.Error()
		log.Warn().Err(outcome).Str("kind", string(attempt.FailureKind)).Dur("duration", attempt.Duration).Msg("submission failed")
	default:
		attempt.Status = domain.AttemptSucceeded
		if a.Store != nil {
			key := storage.ResultKey(sub.SessionID, sub.ID, res.MIME)
			if _, err := a.Store.Write(ctx, key, res.Data); err != nil {
				log.Warn().Err(err).Msg("store result")
			} else {
				attempt.ResultKey = key
			}
		}
		log.Info().Int("result_bytes", len(res.Data)).Dur("duration", attempt.Duration).Msg("submission succeeded")
	}

	// the edit context may already be done; history writes get their own
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.History.Complete(recordCtx, attempt); err != nil {
		log.Warn().Err(err).Msg("record attempt outcome")
	}
}

type attemptView struct {
	ID           string               `json:"id"`
	Attempt      int                  `json:"attempt"`
	Provider     string               `json:"provider"`
	Instruction  string               `json:"instruction,omitempty"`
	Locale       string               `json:"locale"`
	Status       domain.AttemptStatus `json:"status"`
	FailureKind  domain.FailureKind   `json:"failure_kind,omitempty"`
	Message      string               `json:"message,omitempty"`
	SourceWidth  int                  `json:"source_width"`
	SourceHeight int                  `json:"source_height"`
	MaskBytes    int                  `json:"mask_bytes"`
	ResultKey    string               `json:"result_key,omitempty"`
	DurationMS   int64                `json:"duration_ms"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Attempts lists the recorded submissions of a session, newest first.
func (a *App) Attempts(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	attempts, err := a.History.List(r.Context(), s.ID(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	out := make([]attemptView, 0, len(attempts))
	for _, at := range attempts {
		v := attemptView{
			ID:           at.ID,
			Attempt:      at.Attempt,
			Provider:     at.Provider,
			Instruction:  at.Instruction,
			Locale:       at.Locale,
			Status:       at.Status,
			FailureKind:  at.FailureKind,
			SourceWidth:  at.SourceWidth,
			SourceHeight: at.SourceHeight,
			MaskBytes:    at.MaskBytes,
			ResultKey:    at.ResultKey,
			DurationMS:   at.Duration.Milliseconds(),
			CreatedAt:    at.CreatedAt,
			UpdatedAt:    at.UpdatedAt,
		}
		if at.FailureKind != "" {
			v.Message = a.I18N.Kind(locale, at.FailureKind)
		}
		out = append(out, v)
	}
	a.json(w, http.StatusOK, map[string]any{"attempts": out})
}
