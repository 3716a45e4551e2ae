// Package ephemeris computes the apparent positions of the ten astrolabe
// bodies for an instant and an observer.
//
// A Provider picks its strategy once, when it is constructed: the precision
// source when it answers a capability probe, the circular-orbit fallback
// model otherwise. Individual body failures on the precision path are
// replaced by that body's fallback position and never abort a batch.
package ephemeris

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrUnknownBody is returned when parsing a name that is not one of the ten bodies.
var ErrUnknownBody = errors.New("ephemeris: unknown body")

// Body is one of the ten bodies tracked by the astrolabe.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

var bodyNames = [...]string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto"}

// Bodies returns the ten bodies in canonical iteration order.
func Bodies() []Body {
	bodies := make([]Body, len(bodyNames))
	for i := range bodies {
		bodies[i] = Body(i)
	}
	return bodies
}

func (b Body) Valid() bool {
	return b >= 0 && int(b) < len(bodyNames)
}

func (b Body) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// ParseBody resolves a case-insensitive body name.
func ParseBody(name string) (Body, error) {
	for i, n := range bodyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
}

// MarshalText encodes the body by name.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, int(b))
	}
	return []byte(bodyNames[b]), nil
}

// UnmarshalText decodes a body name.
func (b *Body) UnmarshalText(text []byte) error {
	parsed, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Position is the apparent place of a body at one instant.
type Position struct {
	Longitude float64 `json:"longitude"` // degrees, [0, 360)
	Latitude  float64 `json:"latitude"`  // degrees
	Distance  float64 `json:"distance"`  // AU on the precision path, 1 on the fallback path
}

// Observer is a location on Earth. The range tags document the expected
// domain; Compute does not enforce it, callers validate with Validate.
type Observer struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

var validate = validator.New()

// Validate reports whether the observer lies within [-90,90] x [-180,180].
func (o Observer) Validate() error {
	if math.IsNaN(o.Latitude) || math.IsNaN(o.Longitude) {
		return fmt.Errorf("observer: coordinates must be numbers")
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	return nil
}

// Normalize360 maps any real angle into [0, 360) while preserving it modulo 360.
func Normalize360(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	// -1e-20 + 360 rounds to 360
	if x >= 360 {
		x -= 360
	}
	return x
}
