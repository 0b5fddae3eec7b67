package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"sysgd-timetrack/internal/domain"
)

// Client implements ports.Sink on a local SQLite file.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

func NewClient(ctx context.Context, path string, log *slog.Logger) (*Client, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; WAL lets the HTTP handlers read while a sync writes.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, err
		}
	}

	c := &Client{db: db, log: log}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("sqlite sink initialized", slog.String("path", path))
	return c, nil
}

func (c *Client) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS time_entry_snapshots (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			project_id TEXT,
			task_id TEXT,
			status TEXT NOT NULL,
			duration_seconds REAL,
			last_started_at TEXT,
			start_time DATETIME,
			end_time DATETIME,
			project_name TEXT NOT NULL DEFAULT '',
			task_title TEXT NOT NULL DEFAULT '',
			task_number INTEGER,
			worker_name TEXT NOT NULL DEFAULT '',
			worker_email TEXT NOT NULL DEFAULT '',
			observed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_entry_snapshots_user ON time_entry_snapshots(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_time_entry_snapshots_observed ON time_entry_snapshots(observed_at)`,
	}
	for _, m := range migrations {
		if _, err := c.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// RecordSnapshot upserts the latest observation of e.
func (c *Client) RecordSnapshot(ctx context.Context, e domain.TimeEntry) error {
	const q = `
INSERT INTO time_entry_snapshots
  (id, user_id, project_id, task_id, status, duration_seconds, last_started_at,
   start_time, end_time, project_name, task_title, task_number, worker_name, worker_email, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  user_id=excluded.user_id,
  project_id=excluded.project_id,
  task_id=excluded.task_id,
  status=excluded.status,
  duration_seconds=excluded.duration_seconds,
  last_started_at=excluded.last_started_at,
  start_time=excluded.start_time,
  end_time=excluded.end_time,
  project_name=excluded.project_name,
  task_title=excluded.task_title,
  task_number=excluded.task_number,
  worker_name=excluded.worker_name,
  worker_email=excluded.worker_email,
  observed_at=excluded.observed_at`

	var duration sql.NullFloat64
	if e.DurationSeconds != nil && !math.IsNaN(*e.DurationSeconds) && !math.IsInf(*e.DurationSeconds, 0) {
		duration = sql.NullFloat64{Float64: *e.DurationSeconds, Valid: true}
	}
	var taskNumber sql.NullInt64
	if e.TaskNumber != nil {
		taskNumber = sql.NullInt64{Int64: *e.TaskNumber, Valid: true}
	}
	if _, err := c.db.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		nullString(e.ProjectID),
		nullString(e.TaskID),
		string(e.Status),
		duration,
		nullString(&e.LastStartedAt),
		nullTime(e.StartTime),
		nullTime(e.EndTime),
		e.ProjectName,
		e.TaskTitle,
		taskNumber,
		e.WorkerName,
		e.WorkerEmail,
		time.Now().UTC(),
	); err != nil {
		return err
	}
	c.log.Debug("sqlite sink recorded snapshot", slog.String("entry_id", e.ID))
	return nil
}

// Snapshot is a stored observation, as read back by Latest.
type Snapshot struct {
	EntryID         string
	Status          domain.Status
	DurationSeconds sql.NullFloat64
	LastStartedAt   sql.NullString
	TaskTitle       string
	ObservedAt      time.Time
}

// Latest returns up to limit snapshots, most recently observed first.
func (c *Client) Latest(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT id, status, duration_seconds, last_started_at, task_title, observed_at
FROM time_entry_snapshots
ORDER BY observed_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var status string
		if err := rows.Scan(&s.EntryID, &status, &s.DurationSeconds, &s.LastStartedAt, &s.TaskTitle, &s.ObservedAt); err != nil {
			return nil, err
		}
		s.Status = domain.Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Client) Close() error { return c.db.Close() }

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
