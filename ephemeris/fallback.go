package ephemeris

import "time"

// Orbit parameterises one body in the circular-orbit fallback model.
type Orbit struct {
	Period        float64 `yaml:"period"`         // days for one full revolution
	BaseLongitude float64 `yaml:"base_longitude"` // degrees at the reference epoch
}

// DefaultEpoch is the reference instant the default base longitudes are anchored at.
var DefaultEpoch = time.Date(1972, time.January, 25, 7, 32, 0, 0, time.UTC)

// The base longitudes are hand-tuned configuration constants, not derived
// from an ephemeris.
var defaultOrbits = map[Body]Orbit{
	Sun:     {Period: 365.25, BaseLongitude: 305},
	Moon:    {Period: 27.3, BaseLongitude: 180},
	Mercury: {Period: 88, BaseLongitude: 290},
	Venus:   {Period: 225, BaseLongitude: 320},
	Mars:    {Period: 687, BaseLongitude: 45},
	Jupiter: {Period: 4333, BaseLongitude: 240},
	Saturn:  {Period: 10759, BaseLongitude: 120},
	Uranus:  {Period: 30687, BaseLongitude: 210},
	Neptune: {Period: 60190, BaseLongitude: 270},
	Pluto:   {Period: 90560, BaseLongitude: 200},
}

// DefaultOrbits returns a copy of the built-in fallback table.
func DefaultOrbits() map[Body]Orbit {
	orbits := make(map[Body]Orbit, len(defaultOrbits))
	for b, o := range defaultOrbits {
		orbits[b] = o
	}
	return orbits
}

// FallbackModel is the deterministic circular-orbit approximation. It is
// total: every instant, before or after the epoch, yields a position.
type FallbackModel struct {
	epoch  time.Time
	orbits map[Body]Orbit
}

// NewFallbackModel anchors the model at epoch. Bodies missing from orbits,
// or with a non-positive period, use the default table.
func NewFallbackModel(epoch time.Time, orbits map[Body]Orbit) *FallbackModel {
	table := DefaultOrbits()
	for b, o := range orbits {
		if b.Valid() && o.Period > 0 {
			table[b] = o
		}
	}
	return &FallbackModel{epoch: epoch, orbits: table}
}

func (m *FallbackModel) Epoch() time.Time {
	return m.epoch
}

// DaysElapsed returns the signed number of days from epoch to t. It works on
// Unix seconds so spans beyond time.Duration's ±292 years stay exact.
func DaysElapsed(epoch, t time.Time) float64 {
	seconds := float64(t.Unix()-epoch.Unix()) + float64(t.Nanosecond()-epoch.Nanosecond())/1e9
	return seconds / 86400
}

// Position returns the fallback position of b at t. Latitude is always 0
// and distance always 1.
func (m *FallbackModel) Position(b Body, t time.Time) Position {
	orbit, ok := m.orbits[b]
	if !ok {
		return Position{Distance: 1}
	}
	days := DaysElapsed(m.epoch, t)
	return Position{
		Longitude: Normalize360(orbit.BaseLongitude + (days/orbit.Period)*360),
		Latitude:  0,
		Distance:  1,
	}
}

// Positions returns the fallback position of every body at t.
func (m *FallbackModel) Positions(t time.Time) map[Body]Position {
	positions := make(map[Body]Position, len(bodyNames))
	for _, b := range Bodies() {
		positions[b] = m.Position(b, t)
	}
	return positions
}
