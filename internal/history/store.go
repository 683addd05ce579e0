// Package history persists finished jobs to a local SQLite database so
// recent activity can be reviewed through the CLI and the debug
// endpoint.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clarion/internal/config"
	"clarion/internal/fileutil"
)

// Store manages job history persistence backed by SQLite.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Record is one finished job.
type Record struct {
	ID              int64     `json:"id"`
	JobID           string    `json:"job_id"`
	RequestID       string    `json:"request_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	OriginalName    string    `json:"original_name,omitempty"`
	Preset          string    `json:"preset"`
	State           string    `json:"state"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ErrorDetail     string    `json:"error_detail,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	ProcessingMS    int64     `json:"processing_ms,omitempty"`
	OutputBytes     int64     `json:"output_bytes,omitempty"`
	FilterChain     string    `json:"filter_chain,omitempty"`
}

// Open initializes or connects to the history database named by the config.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	dbPath := strings.TrimSpace(cfg.History.Path)
	if dbPath == "" {
		return nil, errors.New("history path required")
	}
	if err := fileutil.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, maxEntries: cfg.History.MaxEntries}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a finished job and prunes the oldest rows beyond the
// configured retention.
func (s *Store) Add(ctx context.Context, record Record) error {
	if s == nil || s.db == nil {
		return errors.New("history store not open")
	}
	ctx = ensureContext(ctx)
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
INSERT INTO jobs (job_id, request_id, created_at, original_name, preset, state, error_kind, error_detail, duration_seconds, processing_ms, output_bytes, filter_chain)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.JobID,
			record.RequestID,
			createdAt.UTC().Format(time.RFC3339Nano),
			record.OriginalName,
			record.Preset,
			record.State,
			record.ErrorKind,
			record.ErrorDetail,
			record.DurationSeconds,
			record.ProcessingMS,
			record.OutputBytes,
			record.FilterChain,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert job record: %w", err)
	}
	if s.maxEntries > 0 {
		return s.prune(ctx)
	}
	return nil
}

func (s *Store) prune(ctx context.Context) error {
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"DELETE FROM jobs WHERE id NOT IN (SELECT id FROM jobs ORDER BY id DESC LIMIT ?)",
			s.maxEntries,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("prune job history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store not open")
	}
	if limit < 1 {
		limit = 1
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, job_id, request_id, created_at, original_name, preset, state, error_kind, error_detail, duration_seconds, processing_ms, output_bytes, filter_chain
FROM jobs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query job history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var createdAt string
		if err := rows.Scan(
			&record.ID,
			&record.JobID,
			&record.RequestID,
			&createdAt,
			&record.OriginalName,
			&record.Preset,
			&record.State,
			&record.ErrorKind,
			&record.ErrorDetail,
			&record.DurationSeconds,
			&record.ProcessingMS,
			&record.OutputBytes,
			&record.FilterChain,
		); err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			record.CreatedAt = parsed
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job history: %w", err)
	}
	return records, nil
}

// Count reports the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history store not open")
	}
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("count job records: %w", err)
	}
	return count, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
