package feed

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/acme/autocert"

	"astrolabe.space/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Addr           string
	Hosts          []string // enables TLS through ACME when set
	CertDir        string
	MetricsEnabled bool
	MetricsPath    string
}

// Server exposes the hub at /ws, a health check and, when enabled, the
// Prometheus registry.
type Server struct {
	cfg     ServerConfig
	hub     *Hub
	logger  zerolog.Logger
	handler http.Handler
}

func NewServer(cfg ServerConfig, hub *Hub, m *metrics.Collector, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "ok %d\n", hub.Clients())
	})
	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, m.Handler())
	}

	return &Server{cfg: cfg, hub: hub, logger: logger, handler: mux}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then disconnects renderers and shuts
// the listeners down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var challenge *http.Server
	errc := make(chan error, 2)

	if len(s.cfg.Hosts) > 0 {
		manager, err := s.certManager()
		if err != nil {
			return err
		}
		srv.TLSConfig = manager.TLSConfig()
		srv.TLSConfig.MinVersion = tls.VersionTLS12

		// HTTP-01 challenges; everything else is redirected to HTTPS.
		challenge = &http.Server{
			Addr:              ":80",
			Handler:           manager.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			s.logger.Info().Str("addr", challenge.Addr).Msg("starting ACME challenge server")
			errc <- challenge.ListenAndServe()
		}()
		go func() {
			s.logger.Info().Str("addr", srv.Addr).Strs("hosts", s.cfg.Hosts).Msg("starting feed server with TLS")
			errc <- srv.ListenAndServeTLS("", "")
		}()
	} else {
		go func() {
			s.logger.Info().Str("addr", srv.Addr).Msg("starting feed server")
			errc <- srv.ListenAndServe()
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("feed server: %w", err)
		}
	}

	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("feed server shutdown error")
	}
	if challenge != nil {
		if err := challenge.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("challenge server shutdown error")
		}
	}

	s.logger.Info().Msg("feed server stopped")
	return runErr
}

func (s *Server) certManager() (*autocert.Manager, error) {
	dir := s.cfg.CertDir
	if dir == "" {
		dir = "certs"
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create certificate cache: %w", err)
	}

	return &autocert.Manager{
		Cache:      autocert.DirCache(dir),
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(s.cfg.Hosts...),
	}, nil
}
