package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"sysgd-timetrack/internal/domain"
)

// Client implements ports.Sink by upserting into time_entry_snapshots.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db, log: log}, nil
}

// RecordSnapshot upserts the latest observation of e.
func (c *Client) RecordSnapshot(ctx context.Context, e domain.TimeEntry) error {
	const q = `
INSERT INTO time_entry_snapshots
  (id, user_id, project_id, task_id, status, duration_seconds, last_started_at,
   start_time, end_time, project_name, task_title, task_number, worker_name, worker_email, observed_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  user_id=VALUES(user_id),
  project_id=VALUES(project_id),
  task_id=VALUES(task_id),
  status=VALUES(status),
  duration_seconds=VALUES(duration_seconds),
  last_started_at=VALUES(last_started_at),
  start_time=VALUES(start_time),
  end_time=VALUES(end_time),
  project_name=VALUES(project_name),
  task_title=VALUES(task_title),
  task_number=VALUES(task_number),
  worker_name=VALUES(worker_name),
  worker_email=VALUES(worker_email),
  observed_at=VALUES(observed_at);
`
	var project, task, duration, lastStarted, start, end, taskNumber interface{}
	if e.ProjectID != nil {
		project = *e.ProjectID
	}
	if e.TaskID != nil {
		task = *e.TaskID
	}
	if e.DurationSeconds != nil && !math.IsNaN(*e.DurationSeconds) && !math.IsInf(*e.DurationSeconds, 0) {
		duration = *e.DurationSeconds
	}
	if e.LastStartedAt != "" {
		lastStarted = e.LastStartedAt
	}
	if e.StartTime != nil {
		start = e.StartTime.UTC()
	}
	if e.EndTime != nil {
		end = e.EndTime.UTC()
	}
	if e.TaskNumber != nil {
		taskNumber = *e.TaskNumber
	}
	if _, err := c.db.ExecContext(ctx, q,
		e.ID,
		e.UserID,
		project,
		task,
		string(e.Status),
		duration,
		lastStarted,
		start,
		end,
		e.ProjectName,
		e.TaskTitle,
		taskNumber,
		e.WorkerName,
		e.WorkerEmail,
		time.Now().UTC(),
	); err != nil {
		return err
	}
	c.log.Debug("mysql sink recorded snapshot", slog.String("entry_id", e.ID))
	return nil
}

// Close closes the underlying DB.
func (c *Client) Close() error { return c.db.Close() }
