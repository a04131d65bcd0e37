package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"magiceraser/internal/domain"
	"magiceraser/internal/sqlinline"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dest for %d columns", len(dest), len(row))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *int64:
			*d = v.(int64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported dest %T", dest[i])
		}
	}
	return nil
}

type stubExecutor struct {
	queries []string
	args    [][]any
	row     simpleRow
	rows    *stubRows
	err     error
}

func (s *stubExecutor) record(q string, args []any) {
	s.queries = append(s.queries, q)
	s.args = append(s.args, args)
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.record(query, args)
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.record(query, args)
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.record(query, args)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func TestPGRecorderBeginAndComplete(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	exec := &stubExecutor{row: simpleRow{scan: func(dest ...any) error {
		*dest[0].(*time.Time) = created
		return nil
	}}}
	rec := NewPGRecorder(exec)

	a := &domain.EditAttempt{
		ID:           "0b0b6c4e-8a55-4f33-9d5c-4a9f4b1f2e01",
		SessionID:    "6f3c2b8a-1d4e-4f5a-9b7c-0e2d1a3b4c5d",
		Attempt:      2,
		Provider:     "gemini",
		Locale:       "tr",
		SourceWidth:  1200,
		SourceHeight: 800,
		MaskBytes:    4096,
	}
	if err := rec.Begin(context.Background(), a); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if a.Status != domain.AttemptRunning || !a.CreatedAt.Equal(created) {
		t.Fatalf("unexpected attempt after begin %+v", a)
	}
	if exec.queries[0] != sqlinline.QInsertEditAttempt || len(exec.args[0]) != 9 {
		t.Fatalf("unexpected insert %q %v", exec.queries[0], exec.args[0])
	}

	a.Status = domain.AttemptFailed
	a.FailureKind = domain.FailureQuota
	a.ErrorMessage = "quota exceeded"
	a.Duration = 1500 * time.Millisecond
	if err := rec.Complete(context.Background(), a); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	args := exec.args[1]
	if exec.queries[1] != sqlinline.QCompleteEditAttempt {
		t.Fatalf("unexpected query %q", exec.queries[1])
	}
	if args[1] != "failed" || args[2] != "quota" || args[5] != int64(1500) {
		t.Fatalf("unexpected complete args %v", args)
	}
}

func TestPGRecorderBeginError(t *testing.T) {
	exec := &stubExecutor{row: simpleRow{scan: func(dest ...any) error { return errors.New("unique violation") }}}
	err := NewPGRecorder(exec).Begin(context.Background(), &domain.EditAttempt{})
	if err == nil || !strings.Contains(err.Error(), "insert attempt") {
		t.Fatalf("got %v", err)
	}
}

func TestPGRecorderList(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	exec := &stubExecutor{rows: &stubRows{data: [][]any{
		{"a2", "s1", 2, "gemini", "", "en", "succeeded", "", "", 1200, 800, 100, "results/s1/a2.png", int64(2300), now, now},
		{"a1", "s1", 1, "gemini", "remove cable", "en", "failed", "safety", "blocked", 1200, 800, 90, "", int64(800), now, now},
	}}}
	got, err := NewPGRecorder(exec).List(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].Status != domain.AttemptSucceeded || got[0].ResultKey != "results/s1/a2.png" || got[0].Duration != 2300*time.Millisecond {
		t.Fatalf("unexpected first attempt %+v", got[0])
	}
	if got[1].FailureKind != domain.FailureSafety || got[1].Instruction != "remove cable" {
		t.Fatalf("unexpected second attempt %+v", got[1])
	}
	if limit := exec.args[0][1]; limit != 20 {
		t.Fatalf("default limit %v", limit)
	}
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = NopRecorder{}
	if err := rec.Begin(context.Background(), &domain.EditAttempt{}); err != nil {
		t.Fatal(err)
	}
	list, err := rec.List(context.Background(), "s", 10)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("got %v %v", list, err)
	}
}

func TestEnsureSchema(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewPGRecorder(exec).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(exec.queries[0], "create table if not exists edit_attempts") {
		t.Fatalf("unexpected schema query %q", exec.queries[0])
	}
}
