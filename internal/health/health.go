// Package health exposes a minimal liveness endpoint for container
// orchestration probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/todobot/internal/buildinfo"
	"github.com/m3rciful/todobot/internal/logger"
	"log/slog"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 5 * time.Second
	dbPingTimeout   = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server answers GET /health with the process status and build version.
type Server struct {
	srv *http.Server
	db  *sqlx.DB
}

// New builds the probe server listening on addr.
func New(addr string, db *sqlx.DB) *Server {
	s := &Server{db: db}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Run serves the probe until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L.With("component", "health").Info("probe listening",
			slog.String("event", "start"),
			slog.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), dbPingTimeout)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			logger.L.With("component", "health").Warn("db ping failed",
				slog.String("event", "db_ping"),
				slog.String("err", err.Error()),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  status,
		"version": buildinfo.Version,
	})
}
