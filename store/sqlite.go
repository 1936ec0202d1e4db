package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spetersoncode/novelreview/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	status        TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	text_type     TEXT NOT NULL DEFAULT '',
	main_genre    TEXT NOT NULL DEFAULT '',
	average       REAL,
	passed        INTEGER NOT NULL DEFAULT 0,
	state         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);
`

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
	Path   string
}

var _ Store = (*SQLite)(nil)

// Open opens or creates the archive at path with WAL journaling.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db, Path: path}, nil
}

// Save inserts or replaces rec.
func (s *SQLite) Save(ctx context.Context, rec RunRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}
	state, err := json.Marshal(rec.State.Clone())
	if err != nil {
		return &SerializationError{ID: rec.ID, Err: err}
	}
	sum := rec.Summarize()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, source, created_at, duration_ms, status, input_tokens, output_tokens,
			 text_type, main_genre, average, passed, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.CreatedAt.UnixMilli(), rec.Duration.Milliseconds(), rec.Status,
		rec.Usage.InputTokens, rec.Usage.OutputTokens,
		string(sum.TextType), sum.MainGenre, sum.Average, sum.Passed, string(state),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get loads the run with id.
func (s *SQLite) Get(ctx context.Context, id string) (RunRecord, error) {
	if s.closed.Load() {
		return RunRecord{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, created_at, duration_ms, status, input_tokens, output_tokens, state
		FROM runs WHERE id = ?`, id)

	var (
		rec        RunRecord
		createdAt  int64
		durationMS int64
		state      string
	)
	err := row.Scan(&rec.ID, &rec.Source, &createdAt, &durationMS, &rec.Status,
		&rec.Usage.InputTokens, &rec.Usage.OutputTokens, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("loading run: %w", err)
	}
	if err := json.Unmarshal([]byte(state), &rec.State); err != nil {
		return RunRecord{}, &SerializationError{ID: id, Err: err}
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}

// List returns summaries newest first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Summary, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, created_at, status, text_type, main_genre, average, passed
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			createdAt int64
			textType  string
			average   sql.NullFloat64
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &createdAt, &sum.Status, &textType,
			&sum.MainGenre, &average, &sum.Passed); err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(createdAt).UTC()
		sum.TextType = pipeline.Kind(textType)
		if average.Valid {
			avg := average.Float64
			sum.Average = &avg
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}
	return s.db.Close()
}
