package celestial

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// angleDiff returns the shortest distance between two angles in degrees.
func angleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected float64
	}{
		{"J2000 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		{"Leap day", time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC), 2460370.25},
		{"Non-UTC zone", time.Date(2000, 1, 1, 14, 0, 0, 0, time.FixedZone("EET", 2*3600)), 2451545.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, JulianDate(tt.input), 1e-9)
		})
	}
}

func TestGreenwichMeanSiderealTimeAtJ2000(t *testing.T) {
	gmst := GreenwichMeanSiderealTime(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 280.46061837, gmst, 1e-6)
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.0167, 0.2056, 0.2488, 0.6, 0.9} {
		for _, M := range []float64{0, 0.1, 1, math.Pi / 2, 3, 5.5} {
			E := SolveKepler(M, e)
			residual := normalizeRadians(E-e*math.Sin(E)) - normalizeRadians(M)
			assert.InDelta(t, 0, math.Remainder(residual, 2*math.Pi), 1e-10, "e=%v M=%v", e, M)
		}
	}
}

func TestHeliocentricEcliptic(t *testing.T) {
	sun, err := HeliocentricEcliptic(Sun, 0)
	require.NoError(t, err)
	assert.Equal(t, Vector3{}, sun)

	// Earth is near perihelion in early January.
	earth, err := HeliocentricEcliptic(Earth, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.9833, earth.Magnitude(), 0.001)

	_, err = HeliocentricEcliptic(Moon, 0)
	assert.True(t, errors.Is(err, ErrUnknownBody))
}

func TestEquatorSunAtJ2000(t *testing.T) {
	eq, err := Equator(Sun, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), Observer{})
	require.NoError(t, err)

	// Almanac: RA 18h45m, Dec -23.0 degrees, 0.983 AU.
	assert.InDelta(t, 281.29, eq.RA*15, 0.2)
	assert.InDelta(t, -23.03, eq.Dec, 0.2)
	assert.InDelta(t, 0.9833, eq.Dist, 0.001)
}

func TestEquatorSunAtMarchEquinox(t *testing.T) {
	eq, err := Equator(Sun, time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC), Observer{Latitude: 53.5461, Longitude: -113.4938})
	require.NoError(t, err)

	assert.Less(t, angleDiff(eq.RA*15, 0), 0.5)
	assert.InDelta(t, 0, eq.Dec, 0.5)
}

func TestEquatorDistances(t *testing.T) {
	observer := Observer{Latitude: 53.5461, Longitude: -113.4938}
	dates := []time.Time{
		time.Date(1972, 1, 25, 7, 32, 0, 0, time.UTC),
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	bounds := map[Body][2]float64{
		Moon:    {0.0023, 0.0028},
		Mercury: {0.5, 1.5},
		Venus:   {0.25, 1.75},
		Mars:    {0.35, 2.7},
		Jupiter: {3.9, 6.5},
		Saturn:  {8.0, 11.1},
		Uranus:  {17.2, 21.2},
		Neptune: {28.7, 31.4},
		Pluto:   {28.0, 51.0},
	}

	for _, date := range dates {
		for body, bound := range bounds {
			eq, err := Equator(body, date, observer)
			require.NoError(t, err, "%s at %s", body, date)
			assert.GreaterOrEqual(t, eq.Dist, bound[0], "%s at %s", body, date)
			assert.LessOrEqual(t, eq.Dist, bound[1], "%s at %s", body, date)
			assert.GreaterOrEqual(t, eq.RA, 0.0)
			assert.Less(t, eq.RA, 24.0)
			assert.LessOrEqual(t, math.Abs(eq.Dec), 90.0)
		}
	}
}

func TestEquatorMoonParallax(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	north, err := Equator(Moon, date, Observer{Latitude: 60})
	require.NoError(t, err)
	south, err := Equator(Moon, date, Observer{Latitude: -60})
	require.NoError(t, err)

	// The Moon's horizontal parallax is close to a degree; observers far apart
	// must see it displaced.
	assert.Greater(t, math.Abs(north.Dec-south.Dec), 0.5)
}

func TestEquatorUnknownBody(t *testing.T) {
	tests := []struct {
		name string
		body Body
	}{
		{"Earth is the origin", Earth},
		{"Out of range", Body(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Equator(tt.body, time.Now(), Observer{})
			assert.True(t, errors.Is(err, ErrUnknownBody))
		})
	}
}

func TestParseBody(t *testing.T) {
	b, ok := ParseBody("jupiter")
	assert.True(t, ok)
	assert.Equal(t, Jupiter, b)
	assert.Equal(t, "Jupiter", b.String())

	_, ok = ParseBody("Vulcan")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Body(-1).String())
}

func TestNormalizeDegrees(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeDegrees(360))
	assert.Equal(t, 350.0, NormalizeDegrees(-10))
	assert.Equal(t, 10.0, NormalizeDegrees(730))
}
