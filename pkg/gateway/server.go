package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"helios-hq/relay/pkg/telemetry/metrics"
)

// ServerConfig holds the listener settings.
type ServerConfig struct {
	// ListenAddress is the proxy listener address.
	ListenAddress string

	// ManagementAddress is the management listener address for /metrics and
	// /healthz. Empty disables the management listener.
	ManagementAddress string

	// ReadTimeout is the proxy server's read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the proxy server's write timeout. Zero disables it so
	// streamed responses can outlive any fixed bound.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server binds the proxy handler and the management endpoints to their
// listeners and manages their lifecycle.
type Server struct {
	cfg        ServerConfig
	proxy      *http.Server
	management *http.Server
	logger     *slog.Logger
}

// NewServer creates a server around the proxy handler. collector may be nil,
// in which case the management listener serves only /healthz.
func NewServer(cfg ServerConfig, handler http.Handler, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		proxy: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      withRecovery(logger, withRequestID(handler)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	if cfg.ManagementAddress != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		if collector != nil {
			mux.Handle("/metrics", collector.Handler())
		}
		s.management = &http.Server{
			Addr:        cfg.ManagementAddress,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
		}
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully. A listener
// failure on either server stops both.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("proxy listener started", "address", s.cfg.ListenAddress)
		if err := s.proxy.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("proxy listener: %w", err)
		}
	}()

	if s.management != nil {
		go func() {
			s.logger.Info("management listener started", "address", s.cfg.ManagementAddress)
			if err := s.management.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("management listener: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

// shutdown stops both listeners within the configured timeout.
func (s *Server) shutdown() error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", "timeout", timeout)

	var errs []error
	if err := s.proxy.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("proxy shutdown: %w", err))
	}
	if s.management != nil {
		if err := s.management.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("management shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
