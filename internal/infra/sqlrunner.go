package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is the query surface used by the history recorder and the
// credential store. Every query must start with a "--sql <uuid>" marker line
// which is stripped before execution and used to tag log lines.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

var (
	ErrMissingMarker = errors.New("sql marker missing or invalid")

	markerLine = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

// SQLRunner strips markers and logs each statement by marker and duration.
// Statements slower than Slow are logged at warn level.
type SQLRunner struct {
	db     SQLExecutor
	Logger zerolog.Logger
	Slow   time.Duration
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: pool, Logger: logger, Slow: 500 * time.Millisecond}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	st, err := r.begin(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := r.db.Exec(ctx, st.body, args...)
	st.finish(err, "exec").Int64("rows", tag.RowsAffected()).Send()
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	st, err := r.begin(query)
	if err != nil {
		return errorRow{err: err}
	}
	return &timedRow{row: r.db.QueryRow(ctx, st.body, args...), st: st}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	st, err := r.begin(query)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, st.body, args...)
	if err != nil {
		st.finish(err, "query").Send()
		return nil, err
	}
	return &timedRows{Rows: rows, st: st}, nil
}

type statement struct {
	r      *SQLRunner
	marker string
	body   string
	start  time.Time
}

func (r *SQLRunner) begin(query string) (statement, error) {
	marker, body, err := SplitMarker(query)
	if err != nil {
		r.Logger.Error().Err(err).Msg("rejected unmarked query")
		return statement{}, err
	}
	return statement{r: r, marker: marker, body: body, start: time.Now()}, nil
}

// finish returns the log event for a completed statement. Missing rows are
// not failures.
func (st statement) finish(err error, op string) *zerolog.Event {
	elapsed := time.Since(st.start)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		ev = st.r.Logger.Error().Err(err)
	case st.r.Slow > 0 && elapsed > st.r.Slow:
		ev = st.r.Logger.Warn()
	default:
		ev = st.r.Logger.Debug()
	}
	return ev.Str("sql", st.marker).Str("op", op).Dur("elapsed", elapsed)
}

type timedRow struct {
	row pgx.Row
	st  statement
}

func (t *timedRow) Scan(dest ...any) error {
	err := t.row.Scan(dest...)
	t.st.finish(err, "query_row").Send()
	return err
}

type timedRows struct {
	pgx.Rows
	st   statement
	done bool
}

func (t *timedRows) Close() {
	t.Rows.Close()
	if t.done {
		return
	}
	t.done = true
	t.st.finish(t.Rows.Err(), "query").Send()
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

// SplitMarker separates the marker id from the statement body.
func SplitMarker(query string) (marker, body string, err error) {
	first, rest, _ := strings.Cut(strings.TrimSpace(query), "\n")
	m := markerLine.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", "", ErrMissingMarker
	}
	return m[1], rest, nil
}

var _ SQLExecutor = (*SQLRunner)(nil)

// IsNoRows reports whether err is pgx's no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
