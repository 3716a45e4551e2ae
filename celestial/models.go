// Package celestial computes apparent equatorial positions of the Sun, Moon
// and planets from Keplerian orbital elements.
package celestial

import (
	"errors"
	"math"
	"strings"
)

// Astronomical constants
const (
	AU             = 149597870.7   // Astronomical unit in kilometers
	EarthRadius    = 6378.137      // Earth equatorial radius in kilometers
	SecondsPerDay  = 86400.0       // Seconds in a day
	DaysPerCentury = 36525.0       // Days in a Julian century (365.25 * 100)
	J2000Epoch     = 2451545.0     // J2000 epoch in Julian days (January 1, 2000, 12:00 TT)
	LightDaysPerAU = 0.00577551833 // Light travel time for one AU, in days

	// Mean obliquity of the ecliptic at J2000, degrees
	obliquityJ2000 = 23.4392911
)

var (
	// ErrUnknownBody is returned for bodies the engine has no model for.
	ErrUnknownBody = errors.New("celestial: unknown body")
	// ErrNonFinite is returned when a computation produced NaN or Inf.
	ErrNonFinite = errors.New("celestial: non-finite result")
)

// Body identifies a solar system object known to the engine.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Earth
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

var bodyNames = [...]string{
	Sun:     "Sun",
	Moon:    "Moon",
	Mercury: "Mercury",
	Venus:   "Venus",
	Earth:   "Earth",
	Mars:    "Mars",
	Jupiter: "Jupiter",
	Saturn:  "Saturn",
	Uranus:  "Uranus",
	Neptune: "Neptune",
	Pluto:   "Pluto",
}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return "Unknown"
	}
	return bodyNames[b]
}

// ParseBody finds a body by case-insensitive name.
func ParseBody(name string) (Body, bool) {
	for i, n := range bodyNames {
		if strings.EqualFold(n, name) {
			return Body(i), true
		}
	}
	return 0, false
}

// Observer is a geodetic location on the WGS-84 ellipsoid.
type Observer struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Height    float64 // meters above the ellipsoid
}

// Equatorial holds apparent equatorial coordinates of a body as seen by an observer.
type Equatorial struct {
	RA   float64 // right ascension, hours [0, 24)
	Dec  float64 // declination, degrees
	Dist float64 // distance, AU
}

// Vector3 represents a standard 3D vector with X, Y, Z components.
type Vector3 struct {
	X, Y, Z float64
}

// Add performs vector addition.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Subtract performs vector subtraction (v - other).
func (v Vector3) Subtract(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale multiplies the vector by a scalar factor.
func (v Vector3) Scale(factor float64) Vector3 {
	return Vector3{X: v.X * factor, Y: v.Y * factor, Z: v.Z * factor}
}

// Magnitude calculates the Euclidean length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vector3) finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// NormalizeDegrees ensures an angle is in the range [0, 360) degrees.
func NormalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle < 0 {
		angle += 360.0
	}
	if angle >= 360.0 {
		angle -= 360.0
	}
	return angle
}

func normalizeRadians(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
