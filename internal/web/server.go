// Package web serves the browser view of the monitor: a self-refreshing
// page plus the table-fragment, tracked-ID and status endpoints it polls.
//
// The package only consumes the engine's query methods; it holds no CAN
// state of its own and never reaches into the store or ledger.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/simonwood/canmon/internal/engine"
	"github.com/simonwood/canmon/internal/keyset"
)

// Server renders engine query results over HTTP.
type Server struct {
	monitor *engine.Monitor
	session string // per-process token, reported by /status
}

// NewServer creates a Server for the given monitor. Each process run gets
// a fresh session token so dashboards can detect restarts.
func NewServer(monitor *engine.Monitor) *Server {
	return &Server{
		monitor: monitor,
		session: uuid.Must(uuid.NewV7()).String(),
	}
}

// Session returns the per-process session token.
func (s *Server) Session() string {
	return s.session
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/recent_messages", s.handleRecentRows)
	r.Get("/latest_messages", s.handleLatestRows)
	r.Get("/tracked", s.handleTracked)
	r.Get("/status", s.handleStatus)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", addr, "session", s.session)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("web server stopped")
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handlePage renders the full page with both tables pre-populated, so the
// first paint doesn't wait for the poll loop.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	now := s.monitor.Clock().Now()
	data := struct {
		Recent []rowView
		Latest []rowView
	}{
		Recent: newRowViews(s.monitor.FilteredDiff(nil, now)),
		Latest: newRowViews(s.monitor.Snapshot(now)),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		slog.Error("render page", "error", err)
	}
}

// handleRecentRows returns the recent-changes tbody fragment. The optional
// ids query parameter filters by CAN ID; an empty or absent parameter
// means no filter. Malformed ID tokens are dropped by keyset.Parse, never
// rejected.
func (s *Server) handleRecentRows(w http.ResponseWriter, r *http.Request) {
	keys := keyset.Parse(r.URL.Query().Get("ids"))
	rows := s.monitor.FilteredDiff(keys, s.monitor.Clock().Now())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "recent_rows", newRowViews(rows)); err != nil {
		slog.Error("render recent rows", "error", err)
	}
}

// handleLatestRows returns the latest-state tbody fragment: every known
// ID, with per-byte change highlighting and age coloring.
func (s *Server) handleLatestRows(w http.ResponseWriter, r *http.Request) {
	rows := s.monitor.Snapshot(s.monitor.Clock().Now())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "latest_rows", newRowViews(rows)); err != nil {
		slog.Error("render latest rows", "error", err)
	}
}

// handleTracked returns the currently tracked IDs as a plain-text hex
// list, in the same syntax the filter box accepts.
func (s *Server) handleTracked(w http.ResponseWriter, r *http.Request) {
	ids := s.monitor.TrackedIDs(s.monitor.Clock().Now())
	set := make(keyset.Set, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(keyset.Format(set) + "\n"))
}

// statusResponse is the /status JSON payload.
type statusResponse struct {
	Session     string `json:"session"`
	Frames      uint64 `json:"frames"`
	KnownIDs    int    `json:"known_ids"`
	TrackedIDs  int    `json:"tracked_ids"`
	RetentionMS int64  `json:"retention_ms"`
}

// handleStatus reports ingest counters and the session token.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.monitor.Stats(s.monitor.Clock().Now())
	resp := statusResponse{
		Session:     s.session,
		Frames:      stats.Frames,
		KnownIDs:    stats.KnownIDs,
		TrackedIDs:  stats.Tracked,
		RetentionMS: stats.Retention.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode status", "error", err)
	}
}
