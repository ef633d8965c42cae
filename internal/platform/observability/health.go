// Package observability hosts the HTTP server for health probes, Prometheus
// metrics and the mounted dashboard API, plus the service-level metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	readyTimeout      = 2 * time.Second
	apiPathBase       = "/api/"
)

// ReadyFunc reports whether the service can answer API requests.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	port       int
	ready      ReadyFunc
	apiHandler http.Handler
	logger     *zerolog.Logger
}

// NewServer creates a server. ready and apiHandler may be nil.
func NewServer(port int, ready ReadyFunc, apiHandler http.Handler, logger *zerolog.Logger) *Server {
	return &Server{
		port:       port,
		ready:      ready,
		apiHandler: apiHandler,
		logger:     logger,
	}
}

// Handler returns the routing mux. It is exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/metrics", promhttp.Handler())

	if s.apiHandler != nil {
		mux.Handle(apiPathBase, s.apiHandler)
	}

	return mux
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "not ready: %v", err)

			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("HTTP server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
