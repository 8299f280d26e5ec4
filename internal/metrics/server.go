package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server serves /metrics for one Metrics instance.
type Server struct {
	server *http.Server
}

// NewServer builds a metrics server listening on addr.
func NewServer(m *Metrics, addr string) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           Handler(m),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the router serving GET /metrics.
func Handler(m *Metrics) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	handler := promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Msg("serving prometheus metrics")
		handler.ServeHTTP(w, r)
	})
	return router
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("starting metrics server")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
