package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"sysgd-timetrack/internal/domain"
	"sysgd-timetrack/internal/timetrack"
	"sysgd-timetrack/internal/usecase"
)

// HTTPServer returns a configured http.Server exposing the indicator and a
// sync trigger. Call ListenAndServe on the returned server in a goroutine and
// Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(a.log, a.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info("http server configured", slog.String("addr", addr))
	return srv
}

// Handler returns the route mux without middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// /sync?timeout=5s
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx := r.Context()
		if tStr := r.URL.Query().Get("timeout"); tStr != "" {
			if d, err := time.ParseDuration(tStr); err == nil && d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
		}

		entry, err := a.RunOnce(ctx)
		if err != nil && entry == nil {
			status := http.StatusBadGateway
			if errors.Is(err, usecase.ErrSyncRunning) {
				status = http.StatusConflict
			}
			writeJSON(w, status, map[string]any{"status": "error", "error": err.Error()})
			return
		}
		resp := map[string]any{"status": "ok", "active": entry != nil}
		if err != nil {
			resp["warning"] = err.Error()
		}
		if v, ok := a.indicator.View(); ok {
			resp["indicator"] = v
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /indicator", func(w http.ResponseWriter, r *http.Request) {
		v, ok := a.indicator.View()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	mux.HandleFunc("POST /indicator/activate", func(w http.ResponseWriter, r *http.Request) {
		e := a.store.ActiveEntry()
		if e == nil || !a.indicator.Activate() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, entryDetail(*e))
	})

	return mux
}

// entryDetail is the detail view handed out on activation.
func entryDetail(e domain.TimeEntry) map[string]any {
	out := map[string]any{
		"id":           e.ID,
		"user_id":      e.UserID,
		"status":       e.Status,
		"label":        timetrack.EntryLabel(e),
		"project_id":   e.ProjectID,
		"task_id":      e.TaskID,
		"project_name": e.ProjectName,
		"task_title":   e.TaskTitle,
		"task_number":  e.TaskNumber,
		"worker_name":  e.WorkerName,
		"worker_email": e.WorkerEmail,
		"banked":       e.BankedSeconds(),
	}
	if e.StartTime != nil {
		out["start_time"] = e.StartTime.Format(time.RFC3339)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("dur", time.Since(start)),
		)
	})
}
