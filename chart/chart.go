// Package chart composes ephemeris positions, zodiac placements and aspects
// into the frame a renderer draws, and drives it through time.
package chart

import (
	"time"

	"astrolabe.space/aspect"
	"astrolabe.space/ephemeris"
	"astrolabe.space/zodiac"
)

// BodyState is everything the renderer shows for one body.
type BodyState struct {
	Body      ephemeris.Body     `json:"body"`
	Position  ephemeris.Position `json:"position"`
	Placement zodiac.Placement   `json:"placement"`
	House     int                `json:"house"`
	Source    ephemeris.Path     `json:"source"`
}

// Chart is one complete recomputation for an instant and observer. Bodies
// are in canonical order.
type Chart struct {
	Instant  time.Time          `json:"instant"`
	Observer ephemeris.Observer `json:"observer"`
	Path     ephemeris.Path     `json:"path"`
	Bodies   []BodyState        `json:"bodies"`
	Aspects  []aspect.Aspect    `json:"aspects"`
}

// Body returns the state of b, if present.
func (c Chart) Body(b ephemeris.Body) (BodyState, bool) {
	for _, s := range c.Bodies {
		if s.Body == b {
			return s, true
		}
	}
	return BodyState{}, false
}

// Positions returns the body positions keyed by body.
func (c Chart) Positions() map[ephemeris.Body]ephemeris.Position {
	positions := make(map[ephemeris.Body]ephemeris.Position, len(c.Bodies))
	for _, s := range c.Bodies {
		positions[s.Body] = s.Position
	}
	return positions
}

// AspectObserver is notified of the number of aspects in each chart built.
type AspectObserver interface {
	ObserveAspects(n int)
}

// Builder turns a provider and a detector into charts. It carries no state
// between builds.
type Builder struct {
	provider *ephemeris.Provider
	detector *aspect.Detector
	observer AspectObserver
}

// NewBuilder returns a builder. observer may be nil.
func NewBuilder(provider *ephemeris.Provider, detector *aspect.Detector, observer AspectObserver) *Builder {
	if detector == nil {
		detector = aspect.NewDetector(aspect.DefaultOrb, nil)
	}
	return &Builder{provider: provider, detector: detector, observer: observer}
}

func (b *Builder) Provider() *ephemeris.Provider {
	return b.provider
}

// Build computes the chart at t for obs.
func (b *Builder) Build(t time.Time, obs ephemeris.Observer) Chart {
	snap := b.provider.Resolve(t, obs)

	c := Chart{
		Instant:  t,
		Observer: obs,
		Path:     b.provider.Path(),
		Bodies:   make([]BodyState, 0, len(snap.Positions)),
	}
	for _, body := range ephemeris.Bodies() {
		pos, ok := snap.Positions[body]
		if !ok {
			continue
		}
		c.Bodies = append(c.Bodies, BodyState{
			Body:      body,
			Position:  pos,
			Placement: zodiac.Place(pos.Longitude),
			House:     zodiac.House(pos.Longitude),
			Source:    snap.Paths[body],
		})
	}
	c.Aspects = b.detector.Detect(snap.Positions)

	if b.observer != nil {
		b.observer.ObserveAspects(len(c.Aspects))
	}
	return c
}
