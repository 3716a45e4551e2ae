package ephemeris

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrSourcePanic wraps a panic recovered from a precision source call.
	ErrSourcePanic = errors.New("ephemeris: precision source panicked")
	// ErrNonFinite is returned when a source reports NaN or Inf.
	ErrNonFinite = errors.New("ephemeris: non-finite coordinates")
)

// Mode selects how a Provider chooses its strategy.
type Mode string

const (
	ModeAuto      Mode = "auto"      // probe the source, degrade to fallback if it fails
	ModePrecision Mode = "precision" // use the source without probing
	ModeFallback  Mode = "fallback"  // never use the source
)

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModePrecision, ModeFallback:
		return Mode(s), nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("ephemeris: unknown mode %q", s)
	}
}

// Path identifies which model produced a position.
type Path string

const (
	PathPrecision Path = "precision"
	PathFallback  Path = "fallback"
)

// Recorder receives computation telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveCompute(path Path, d time.Duration)
	RecordFallback(b Body)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCompute(Path, time.Duration) {}
func (nopRecorder) RecordFallback(Body)                {}

// Snapshot is the result of one Resolve call.
type Snapshot struct {
	Instant   time.Time
	Observer  Observer
	Positions map[Body]Position
	Paths     map[Body]Path
}

// Provider computes positions for all bodies. It holds no mutable state
// after construction and is safe for concurrent use.
type Provider struct {
	mode     Mode
	source   Source
	fallback *FallbackModel
	path     Path
	logger   zerolog.Logger
	recorder Recorder
}

// Option configures a Provider.
type Option func(*Provider)

// WithSource sets the precision source. Passing nil makes the source unavailable.
func WithSource(s Source) Option {
	return func(p *Provider) { p.source = s }
}

func WithMode(m Mode) Option {
	return func(p *Provider) { p.mode = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(p *Provider) {
		if r != nil {
			p.recorder = r
		}
	}
}

// probeInstant and probeBody exercise the source once at construction.
var probeInstant = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

const probeBody = Sun

// NewProvider builds a provider around fallback. Without WithSource the
// celestial engine is used as the precision source.
func NewProvider(fallback *FallbackModel, opts ...Option) *Provider {
	p := &Provider{
		mode:     ModeAuto,
		source:   PrecisionSource{},
		fallback: fallback,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fallback == nil {
		p.fallback = NewFallbackModel(DefaultEpoch, nil)
	}
	p.path = p.selectPath()
	return p
}

func (p *Provider) selectPath() Path {
	switch {
	case p.mode == ModeFallback:
		p.logger.Info().Msg("ephemeris fallback model selected by configuration")
		return PathFallback
	case p.source == nil:
		p.logger.Error().Msg("precision source not available, using fallback positions")
		return PathFallback
	case p.mode == ModePrecision:
		return PathPrecision
	}

	if _, err := p.precise(probeBody, probeInstant, Observer{}); err != nil {
		p.logger.Error().Err(err).Msg("precision source failed capability probe, using fallback positions")
		return PathFallback
	}
	return PathPrecision
}

// Path reports the strategy chosen at construction.
func (p *Provider) Path() Path {
	return p.path
}

// Fallback returns the fallback model backing this provider.
func (p *Provider) Fallback() *FallbackModel {
	return p.fallback
}

// Compute returns the position of every body at t for obs.
func (p *Provider) Compute(t time.Time, obs Observer) map[Body]Position {
	return p.Resolve(t, obs).Positions
}

// Resolve is Compute plus the path that produced each position.
func (p *Provider) Resolve(t time.Time, obs Observer) Snapshot {
	start := time.Now()
	snap := Snapshot{
		Instant:   t,
		Observer:  obs,
		Positions: make(map[Body]Position, len(bodyNames)),
		Paths:     make(map[Body]Path, len(bodyNames)),
	}

	for _, b := range Bodies() {
		if p.path == PathFallback {
			snap.Positions[b] = p.fallback.Position(b, t)
			snap.Paths[b] = PathFallback
			continue
		}

		pos, err := p.precise(b, t, obs)
		if err != nil {
			p.logger.Warn().Err(err).Str("body", b.String()).Time("instant", t).
				Msg("could not calculate position, using fallback")
			p.recorder.RecordFallback(b)
			snap.Positions[b] = p.fallback.Position(b, t)
			snap.Paths[b] = PathFallback
			continue
		}
		snap.Positions[b] = pos
		snap.Paths[b] = PathPrecision
	}

	p.recorder.ObserveCompute(p.path, time.Since(start))
	return snap
}

// precise asks the source for one body, converting right ascension hours to
// a longitude in degrees. Panics are turned into errors.
func (p *Provider) precise(b Body, t time.Time, obs Observer) (pos Position, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSourcePanic, r)
		}
	}()

	eq, err := p.source.Equator(b, t, obs)
	if err != nil {
		return Position{}, fmt.Errorf("equator %s: %w", b, err)
	}
	if !finite(eq.RA) || !finite(eq.Dec) || !finite(eq.Dist) {
		return Position{}, fmt.Errorf("%w: %s ra=%v dec=%v dist=%v", ErrNonFinite, b, eq.RA, eq.Dec, eq.Dist)
	}

	return Position{
		Longitude: Normalize360(eq.RA * 15),
		Latitude:  eq.Dec,
		Distance:  eq.Dist,
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
