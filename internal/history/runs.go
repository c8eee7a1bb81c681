package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no run matches an ID.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an ID prefix matches several runs.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// timeLayout is fixed width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Source describes where a run's silences came from.
type Source string

const (
	SourceLog    Source = "log"
	SourceMedia  Source = "media"
	SourceResult Source = "result"
)

// Run is one recorded detection.
type Run struct {
	ID            string
	Input         string
	Source        Source
	CreatedAt     time.Time
	Elapsed       time.Duration
	Silences      int
	Blocks        int
	StartOffsetMs int64
	// Document is the JSON result document. List leaves it empty.
	Document []byte
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Record inserts run. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (
            id, input, source, created_at, elapsed_ms,
            silences, blocks, start_offset_ms, document_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Input,
		string(run.Source),
		run.CreatedAt.Format(timeLayout),
		run.Elapsed.Milliseconds(),
		run.Silences,
		run.Blocks,
		run.StartOffsetMs,
		string(run.Document),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, input, source, created_at, elapsed_ms, silences, blocks, start_offset_ms
        FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns the run whose ID equals or starts with id, including its document.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, source, created_at, elapsed_ms, silences, blocks, start_offset_ms, document_json
        FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id LIMIT 2`,
		id, len(id), id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows, true)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, withDocument bool) (Run, error) {
	var (
		run       Run
		source    string
		created   string
		elapsedMs int64
		document  sql.NullString
	)
	dest := []any{&run.ID, &run.Input, &source, &created, &elapsedMs, &run.Silences, &run.Blocks, &run.StartOffsetMs}
	if withDocument {
		dest = append(dest, &document)
	}
	if err := row.Scan(dest...); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Source = Source(source)
	run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	if ts, err := time.Parse(timeLayout, created); err == nil {
		run.CreatedAt = ts
	}
	if document.Valid {
		run.Document = []byte(document.String)
	}
	return run, nil
}
