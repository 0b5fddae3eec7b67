package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sysgd-timetrack/internal/domain"
)

const DefaultBaseURL = "http://localhost:3000"

// ErrNoToken is returned when the client has no API token configured.
var ErrNoToken = errors.New("backend: missing api token")

// StatusError is a non-success response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.Code, e.Body)
}

// Client implements ports.Backend against the SYSGD REST API.
type Client struct {
	baseURL  string
	apiToken string
	userID   string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken, userID string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		userID:   userID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// ActiveEntry fetches the active time entry.
// GET /api/time-entries/active[?user_id=...]
// 200 with null, 204 and 404 all mean there is no active entry.
func (c *Client) ActiveEntry(ctx context.Context) (*domain.TimeEntry, error) {
	if c.apiToken == "" {
		return nil, ErrNoToken
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/time-entries/active"
	if c.userID != "" {
		q := u.Query()
		q.Set("user_id", c.userID)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		c.log.Debug("backend reports no active entry", slog.Int("status", resp.StatusCode))
		return nil, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	var raw rawTimeEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("backend: decoding active entry: %w", err)
	}
	e := raw.toDomain()
	return &e, nil
}

// rawTimeEntry mirrors the JSON served by the backend.
type rawTimeEntry struct {
	ID              flexString  `json:"id"`
	UserID          flexString  `json:"user_id"`
	ProjectID       *flexString `json:"project_id"`
	TaskID          *flexString `json:"task_id"`
	Status          string      `json:"status"`
	DurationSeconds *flexNumber `json:"duration_seconds"`
	LastStartedAt   *string     `json:"last_started_at"`
	StartTime       *string     `json:"start_time"`
	EndTime         *string     `json:"end_time"`
	ProjectName     *string     `json:"project_name"`
	TaskTitle       *string     `json:"task_title"`
	TaskNumber      *int64      `json:"task_number"`
	WorkerName      *string     `json:"worker_name"`
	WorkerEmail     *string     `json:"worker_email"`
}

func (r rawTimeEntry) toDomain() domain.TimeEntry {
	var projectPtr, taskPtr *string
	if r.ProjectID != nil {
		p := string(*r.ProjectID)
		projectPtr = &p
	}
	if r.TaskID != nil {
		t := string(*r.TaskID)
		taskPtr = &t
	}
	var durPtr *float64
	if r.DurationSeconds != nil {
		d := float64(*r.DurationSeconds)
		durPtr = &d
	}
	return domain.TimeEntry{
		ID:              string(r.ID),
		UserID:          string(r.UserID),
		ProjectID:       projectPtr,
		TaskID:          taskPtr,
		Status:          domain.ParseStatus(r.Status),
		DurationSeconds: durPtr,
		LastStartedAt:   deref(r.LastStartedAt),
		StartTime:       parseTimePtr(r.StartTime),
		EndTime:         parseTimePtr(r.EndTime),
		ProjectName:     deref(r.ProjectName),
		TaskTitle:       deref(r.TaskTitle),
		TaskNumber:      r.TaskNumber,
		WorkerName:      deref(r.WorkerName),
		WorkerEmail:     deref(r.WorkerEmail),
	}
}

// parseTimePtr is lenient: bounds are display-only, so a value that does not
// parse is dropped instead of failing the whole entry.
func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := domain.ParseCheckpoint(*s)
	if !ok {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// flexString accepts a JSON string or number. Ids come back as either
// depending on the backend column type.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexNumber accepts a JSON number or a numeric string (NUMERIC columns are
// serialized as strings by some drivers). Unparseable strings decode as NaN,
// which the duration computation treats as zero.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = math.NaN()
		}
		*f = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexNumber(v)
	return nil
}
