// Package aspect detects angular relationships between bodies.
package aspect

import (
	"fmt"
	"math"
	"sort"

	"astrolabe.space/ephemeris"
)

// Angle is a canonical aspect angle in degrees.
type Angle float64

const (
	Conjunction Angle = 0
	Sextile     Angle = 60
	Square      Angle = 90
	Trine       Angle = 120
	Opposition  Angle = 180
)

// DefaultOrb is the tolerance around each canonical angle, in degrees.
const DefaultOrb = 5.0

// DefaultAngles returns the canonical angles in priority order.
func DefaultAngles() []Angle {
	return []Angle{Conjunction, Sextile, Square, Trine, Opposition}
}

// Name returns the traditional name of the aspect.
func (a Angle) Name() string {
	switch a {
	case Conjunction:
		return "Conjunction"
	case Sextile:
		return "Sextile"
	case Square:
		return "Square"
	case Trine:
		return "Trine"
	case Opposition:
		return "Opposition"
	default:
		return fmt.Sprintf("%g°", float64(a))
	}
}

// Color is an RGB triple in [0, 1].
type Color struct {
	R, G, B float64
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Color returns the renderer color for the aspect. Angles outside the
// canonical five are white.
func (a Angle) Color() Color {
	switch a {
	case Conjunction:
		return Color{1, 1, 0}
	case Sextile:
		return Color{0, 1, 0}
	case Square:
		return Color{1, 0, 0}
	case Trine:
		return Color{0, 0, 1}
	case Opposition:
		return Color{1, 0, 1}
	default:
		return Color{1, 1, 1}
	}
}

// Aspect is one detected relationship. A always precedes B in canonical
// body order.
type Aspect struct {
	A          ephemeris.Body `json:"a"`
	B          ephemeris.Body `json:"b"`
	Angle      Angle          `json:"angle"`
	Separation float64        `json:"separation"` // shortest arc, [0, 180]
	Deviation  float64        `json:"deviation"`  // |Separation - Angle|
}

// Separation returns the shortest arc between two longitudes, in [0, 180].
func Separation(a, b float64) float64 {
	sep := math.Abs(a - b)
	if sep > 180 {
		sep = 360 - sep
	}
	return sep
}

// Detector finds aspects within Orb of any of Angles. Angles are listed in
// priority order; the zero value is not usable, use NewDetector.
type Detector struct {
	orb    float64
	angles []Angle
}

// NewDetector builds a detector. A non-positive orb or empty angle list
// selects the defaults.
func NewDetector(orb float64, angles []Angle) *Detector {
	if orb <= 0 || math.IsNaN(orb) {
		orb = DefaultOrb
	}
	if len(angles) == 0 {
		angles = DefaultAngles()
	}
	return &Detector{orb: orb, angles: append([]Angle(nil), angles...)}
}

func (d *Detector) Orb() float64 {
	return d.orb
}

func (d *Detector) Angles() []Angle {
	return append([]Angle(nil), d.angles...)
}

// Match returns the aspect angle for a separation, if any. The angle with
// the smallest deviation wins; ties go to the earliest in priority order.
func (d *Detector) Match(separation float64) (Angle, float64, bool) {
	best, bestDev, found := Angle(0), math.Inf(1), false
	for _, angle := range d.angles {
		dev := math.Abs(separation - float64(angle))
		if dev < d.orb && dev < bestDev {
			best, bestDev, found = angle, dev, true
		}
	}
	return best, bestDev, found
}

// Detect examines every unordered pair of bodies once and returns the
// aspects found, ordered by pair in canonical body order.
func (d *Detector) Detect(positions map[ephemeris.Body]ephemeris.Position) []Aspect {
	bodies := make([]ephemeris.Body, 0, len(positions))
	for b := range positions {
		bodies = append(bodies, b)
	}
	sort.Slice(bodies, func(i, j int) bool { return bodies[i] < bodies[j] })

	aspects := make([]Aspect, 0)
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			sep := Separation(positions[a].Longitude, positions[b].Longitude)

			angle, dev, ok := d.Match(sep)
			if !ok {
				continue
			}
			aspects = append(aspects, Aspect{
				A:          a,
				B:          b,
				Angle:      angle,
				Separation: sep,
				Deviation:  dev,
			})
		}
	}
	return aspects
}
