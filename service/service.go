// Package service exposes the harness' health and Prometheus metrics over
// HTTP for the lifetime of a run.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/op-exitprobe/metrics"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 7300

	shutdownTimeout = 5 * time.Second
)

// Service serves /healthz and /metrics on a single listener
type Service struct {
	addr     string
	log      log.Logger
	gatherer prometheus.Gatherer

	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// New creates a service listening on addr. A nil gatherer serves the default
// Prometheus registry.
func New(addr string, gatherer prometheus.Gatherer, logger log.Logger) *Service {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Service{
		addr:     addr,
		log:      logger.New("component", "service"),
		gatherer: gatherer,
	}
}

// Handler returns the routes of the service
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", &HealthzHandler{log: s.log})
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(mux)
}

// Start binds the listener and serves in the background. Bind errors are
// returned; errors after that are logged.
func (s *Service) Start(ctx context.Context) error {
	if s.server != nil {
		return errors.New("service already started")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		metrics.RecordErrorDetails("error starting metrics server", err)
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})

	s.log.Info("Starting metrics server", "addr", ln.Addr().String())
	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Metrics server failed", "err", err)
			metrics.RecordErrorDetails("metrics server failed", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Service) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops the server. It is a no-op if the service never started.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	<-s.done
	s.log.Info("Metrics server stopped")
	return err
}
