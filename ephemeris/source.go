package ephemeris

import (
	"fmt"
	"time"

	"astrolabe.space/celestial"
)

// Equatorial is what a precision source reports for one body.
type Equatorial struct {
	RA   float64 // right ascension, hours
	Dec  float64 // declination, degrees
	Dist float64 // distance, AU
}

// Source is a high-precision astronomy computation. Implementations must be
// synchronous and fast; the Provider guards every call.
type Source interface {
	Equator(b Body, t time.Time, obs Observer) (Equatorial, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(b Body, t time.Time, obs Observer) (Equatorial, error)

func (f SourceFunc) Equator(b Body, t time.Time, obs Observer) (Equatorial, error) {
	return f(b, t, obs)
}

var celestialBodies = map[Body]celestial.Body{
	Sun:     celestial.Sun,
	Moon:    celestial.Moon,
	Mercury: celestial.Mercury,
	Venus:   celestial.Venus,
	Mars:    celestial.Mars,
	Jupiter: celestial.Jupiter,
	Saturn:  celestial.Saturn,
	Uranus:  celestial.Uranus,
	Neptune: celestial.Neptune,
	Pluto:   celestial.Pluto,
}

// PrecisionSource computes topocentric positions with the celestial engine.
type PrecisionSource struct{}

func (PrecisionSource) Equator(b Body, t time.Time, obs Observer) (Equatorial, error) {
	cb, ok := celestialBodies[b]
	if !ok {
		return Equatorial{}, fmt.Errorf("%w: %s", ErrUnknownBody, b)
	}
	eq, err := celestial.Equator(cb, t, celestial.Observer{
		Latitude:  obs.Latitude,
		Longitude: obs.Longitude,
	})
	if err != nil {
		return Equatorial{}, err
	}
	return Equatorial{RA: eq.RA, Dec: eq.Dec, Dist: eq.Dist}, nil
}
