// Package inspect serves packet decoding over HTTP.
//
// Routes:
//
//	POST /v1/decode/{direction}  decode one packet (raw body, or hex for text/plain)
//	GET  /v1/tables              list the name tables
//	GET  /v1/tables/{table}      one name table as a JSON array
//	GET  /metrics                Prometheus metrics
//	GET  /healthz                liveness
package inspect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/diepwire/pkg/metrics"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

const tracerName = "diepwire"

// DefaultMaxBody caps request bodies when no limit is configured.
const DefaultMaxBody = 1 << 20

// Server is the inspect HTTP service.
type Server struct {
	router       chi.Router
	tables       *names.Tables
	decompressor protocol.Decompressor
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	tracer       trace.Tracer
	logger       *slog.Logger
	maxBody      int64
	maxAlloc     int
}

// Option configures a Server.
type Option func(*Server)

// WithTables sets the name tables used for decoding.
func WithTables(t *names.Tables) Option {
	return func(s *Server) {
		s.tables = t
	}
}

// WithMetrics records decodes on m and serves g at /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracer overrides the tracer from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxBody caps request bodies at n bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMaxAllocation caps the declared size of compressed packets. n passes
// through protocol.ClampAllocation.
func WithMaxAllocation(n int) Option {
	return func(s *Server) {
		s.maxAlloc = protocol.ClampAllocation(n)
		s.decompressor = packet.LZ4Block{MaxSize: s.maxAlloc}
	}
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		tables:       names.Default(),
		decompressor: packet.LZ4Block{},
		gatherer:     prometheus.DefaultGatherer,
		logger:       slog.Default(),
		maxBody:      DefaultMaxBody,
		maxAlloc:     protocol.DefaultMaxAllocation,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	s.logger = s.logger.With("component", "inspect")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/decode/{direction}", s.handleDecode)
		r.Get("/tables", s.handleTables)
		r.Get("/tables/{table}", s.handleTable)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
