package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"astrolabe.space/aspect"
	"astrolabe.space/chart"
	"astrolabe.space/ephemeris"
	"astrolabe.space/internal/config"
	"astrolabe.space/internal/feed"
	"astrolabe.space/internal/logging"
	"astrolabe.space/internal/metrics"
)

type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	closer  io.Closer
	metrics *metrics.Collector
	session *chart.Session
}

func newApp(configPath, envFile string) (*app, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	var m *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.NewCollector(reg)
	}

	orbits, err := cfg.FallbackOrbits()
	if err != nil {
		closer.Close()
		return nil, err
	}

	mode := cfg.Mode()
	factory := func(epoch time.Time) *ephemeris.Provider {
		return ephemeris.NewProvider(
			ephemeris.NewFallbackModel(epoch, orbits),
			ephemeris.WithMode(mode),
			ephemeris.WithLogger(logger.With().Str("component", "ephemeris").Logger()),
			ephemeris.WithRecorder(m),
		)
	}

	detector := aspect.NewDetector(cfg.Aspects.Orb, cfg.AspectAngles())
	session, err := chart.NewSession(factory, detector, cfg.ObserverLocation(), cfg.ReferenceEpoch(),
		chart.WithAspectObserver(m))
	if err != nil {
		closer.Close()
		return nil, err
	}

	logger.Debug().Str("path", string(session.Path())).Str("mode", string(mode)).
		Time("epoch", session.Epoch()).Msg("ephemeris ready")

	return &app{cfg: cfg, logger: logger, closer: closer, metrics: m, session: session}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

func (a *app) chartCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	at := fs.String("at", "", "instant, RFC 3339 or 2006-01-02T15:04 in UTC (default now)")
	asJSON := fs.Bool("json", false, "print the chart as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *at == "" {
		return a.print(stdout, a.session.Now(), *asJSON)
	}
	t, err := config.ParseEpoch(*at)
	if err != nil {
		return fmt.Errorf("-at: %w", err)
	}
	return a.print(stdout, a.session.Build(t), *asJSON)
}

func (a *app) natalCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("natal", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the chart as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.print(stdout, a.session.Natal(), *asJSON)
}

func (a *app) print(w io.Writer, c chart.Chart, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(feed.NewFrame(c))
	}
	printChart(w, c)
	return nil
}

func (a *app) serveCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", a.cfg.Feed.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var hub *feed.Hub
	animator := chart.NewAnimator(a.session,
		chart.SinkFunc(func(c chart.Chart) error { return hub.Publish(c) }),
		chart.AnimatorConfig{
			Step:    a.cfg.Animation.Step,
			Speed:   a.cfg.Animation.Speed,
			FPS:     a.cfg.Animation.FPS,
			Playing: a.cfg.Animation.Playing,
		},
		a.logger.With().Str("component", "animator").Logger(),
	)
	hub = feed.NewHub(feed.Config{
		ClientFPS:   a.cfg.Feed.ClientFPS,
		ClientBurst: a.cfg.Feed.ClientBurst,
		SendBuffer:  a.cfg.Feed.SendBuffer,
	}, a.logger.With().Str("component", "feed").Logger(), a.metrics, animator)

	server := feed.NewServer(feed.ServerConfig{
		Addr:           *addr,
		Hosts:          a.cfg.Feed.Hosts,
		CertDir:        a.cfg.Feed.CertDir,
		MetricsEnabled: a.cfg.Metrics.Enabled,
		MetricsPath:    a.cfg.Metrics.Path,
	}, hub, a.metrics, a.logger.With().Str("component", "server").Logger())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return animator.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })

	err := g.Wait()
	a.logger.Info().Msg("shutdown complete")
	return err
}
