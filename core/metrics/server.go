package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/routeweather/core/logger"
)

// HealthFunc reports readiness; a non-nil error turns /healthz into a 503.
type HealthFunc func(ctx context.Context) error

// Server serves /metrics and /healthz for operators.
type Server struct {
	srv *http.Server
}

// NewHandler builds the ops router.
func NewHandler(m *Metrics, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if reg := m.Registry(); reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// NewServer prepares an ops server bound to addr.
func NewServer(addr string, m *Metrics, health HealthFunc) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(m, health),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start listens in the background until Shutdown is called.
func (s *Server) Start() {
	go func() {
		logger.Info(context.Background(), "ops", "listen", slog.String("listen", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "ops", "listen.fail", slog.String("err", err.Error()))
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
