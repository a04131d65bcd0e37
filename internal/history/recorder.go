// Package history records every submission of a session so operators can
// audit what was sent to the edit collaborator and how it ended.
package history

import (
	"context"
	"fmt"
	"time"

	"magiceraser/internal/domain"
	"magiceraser/internal/infra"
	"magiceraser/internal/sqlinline"
)

// Recorder persists edit attempts.
type Recorder interface {
	Begin(ctx context.Context, a *domain.EditAttempt) error
	Complete(ctx context.Context, a *domain.EditAttempt) error
	List(ctx context.Context, sessionID string, limit int) ([]domain.EditAttempt, error)
}

// NopRecorder discards attempts. It is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Begin(context.Context, *domain.EditAttempt) error    { return nil }
func (NopRecorder) Complete(context.Context, *domain.EditAttempt) error { return nil }
func (NopRecorder) List(context.Context, string, int) ([]domain.EditAttempt, error) {
	return []domain.EditAttempt{}, nil
}

// PGRecorder writes attempts to the edit_attempts table.
type PGRecorder struct {
	sql infra.SQLExecutor
}

func NewPGRecorder(sql infra.SQLExecutor) *PGRecorder {
	return &PGRecorder{sql: sql}
}

// EnsureSchema creates the tables used by the recorder and the credential
// store when they are missing.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

func (r *PGRecorder) Begin(ctx context.Context, a *domain.EditAttempt) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertEditAttempt,
		a.ID, a.SessionID, a.Attempt, a.Provider, a.Instruction, a.Locale,
		a.SourceWidth, a.SourceHeight, a.MaskBytes)
	var created time.Time
	if err := row.Scan(&created); err != nil {
		return fmt.Errorf("history: insert attempt: %w", err)
	}
	a.Status = domain.AttemptRunning
	a.CreatedAt, a.UpdatedAt = created, created
	return nil
}

func (r *PGRecorder) Complete(ctx context.Context, a *domain.EditAttempt) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCompleteEditAttempt,
		a.ID, string(a.Status), string(a.FailureKind), a.ErrorMessage, a.ResultKey, a.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("history: complete attempt: %w", err)
	}
	return nil
}

func (r *PGRecorder) List(ctx context.Context, sessionID string, limit int) ([]domain.EditAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListEditAttempts, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list attempts: %w", err)
	}
	defer rows.Close()

	out := []domain.EditAttempt{}
	for rows.Next() {
		var (
			a          domain.EditAttempt
			status     string
			kind       string
			durationMS int64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Attempt, &a.Provider, &a.Instruction, &a.Locale,
			&status, &kind, &a.ErrorMessage, &a.SourceWidth, &a.SourceHeight, &a.MaskBytes,
			&a.ResultKey, &durationMS, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("history: scan attempt: %w", err)
		}
		a.Status = domain.AttemptStatus(status)
		a.FailureKind = domain.FailureKind(kind)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate attempts: %w", err)
	}
	return out, nil
}

var (
	_ Recorder = NopRecorder{}
	_ Recorder = (*PGRecorder)(nil)
)
