package chart

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"astrolabe.space/aspect"
	"astrolabe.space/ephemeris"
)

// ProviderFactory builds a provider whose fallback model is anchored at epoch.
type ProviderFactory func(epoch time.Time) *ephemeris.Provider

// Session holds the observer and reference epoch. Changing either replaces
// the provider, which re-runs its capability probe.
type Session struct {
	factory  ProviderFactory
	detector *aspect.Detector
	aspects  AspectObserver
	clock    clockwork.Clock

	mu       sync.RWMutex
	observer ephemeris.Observer
	epoch    time.Time
	builder  *Builder
}

type SessionOption func(*Session)

func WithClock(c clockwork.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

func WithAspectObserver(o AspectObserver) SessionOption {
	return func(s *Session) { s.aspects = o }
}

// NewSession validates obs and builds the first provider.
func NewSession(factory ProviderFactory, detector *aspect.Detector, obs ephemeris.Observer, epoch time.Time, opts ...SessionOption) (*Session, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		factory:  factory,
		detector: detector,
		clock:    clockwork.NewRealClock(),
		observer: obs,
		epoch:    epoch.UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = NewBuilder(factory(s.epoch), detector, s.aspects)
	return s, nil
}

func (s *Session) Clock() clockwork.Clock {
	return s.clock
}

func (s *Session) Observer() ephemeris.Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observer
}

func (s *Session) Epoch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Path reports the strategy of the current provider.
func (s *Session) Path() ephemeris.Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builder.Provider().Path()
}

// SetObserver replaces the observer. An invalid observer leaves the
// session unchanged.
func (s *Session) SetObserver(obs ephemeris.Observer) error {
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("set observer: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = obs
	s.builder = NewBuilder(s.factory(s.epoch), s.detector, s.aspects)
	return nil
}

// SetEpoch moves the reference epoch.
func (s *Session) SetEpoch(epoch time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch.UTC()
	s.builder = NewBuilder(s.factory(s.epoch), s.detector, s.aspects)
}

// SetBirth replaces the epoch and observer together, rebuilding the
// provider once. An invalid observer leaves the session unchanged.
func (s *Session) SetBirth(epoch time.Time, obs ephemeris.Observer) error {
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("set birth: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch.UTC()
	s.observer = obs
	s.builder = NewBuilder(s.factory(s.epoch), s.detector, s.aspects)
	return nil
}

// Build computes the chart at t for the current observer.
func (s *Session) Build(t time.Time) Chart {
	s.mu.RLock()
	builder, obs := s.builder, s.observer
	s.mu.RUnlock()
	return builder.Build(t, obs)
}

// Natal builds the chart at the reference epoch.
func (s *Session) Natal() Chart {
	return s.Build(s.Epoch())
}

// Now builds the chart at the current clock time.
func (s *Session) Now() Chart {
	return s.Build(s.clock.Now().UTC())
}
