package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrolabe.space/ephemeris"
	"astrolabe.space/internal/feed"
)

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ASTROLABE_LOG_LEVEL", "disabled")
	t.Setenv("ASTROLABE_METRICS_ENABLED", "false")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-env-file", ""}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestNatalCommand(t *testing.T) {
	quietEnv(t)
	t.Setenv("ASTROLABE_EPHEMERIS_MODE", "fallback")

	out, err := runCLI(t, "natal")
	require.NoError(t, err)

	assert.Contains(t, out, "Chart for 1972-01-25 07:32 UTC at 53.5461, -113.4938 (fallback)")
	assert.Contains(t, out, "Aquarius 5°0′")
	assert.Contains(t, out, "Moon       Sextile      Jupiter")
	assert.Contains(t, out, "Uranus     Sextile      Neptune")
}

func TestChartCommandAt(t *testing.T) {
	quietEnv(t)

	out, err := runCLI(t, "chart", "-at", "2000-01-01T12:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, out, "Chart for 2000-01-01 12:00 UTC")
	assert.Contains(t, out, "(precision)")
	assert.Contains(t, out, "Capricorn")
}

func TestChartCommandJSON(t *testing.T) {
	quietEnv(t)
	t.Setenv("ASTROLABE_EPHEMERIS_MODE", "fallback")

	out, err := runCLI(t, "chart", "-at", "1972-01-25T07:32", "-json")
	require.NoError(t, err)

	var f feed.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.True(t, ephemeris.DefaultEpoch.Equal(f.Instant))
	require.Len(t, f.Bodies, 10)
	assert.Equal(t, "Aquarius 5°0′", f.Bodies[0].Label)
	assert.Len(t, f.Aspects, 8)
}

func TestCLIErrors(t *testing.T) {
	quietEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"Missing command", nil},
		{"Unknown command", []string{"horoscope"}},
		{"Bad instant", []string{"chart", "-at", "next tuesday"}},
		{"Unknown flag", []string{"natal", "-loud"}},
		{"Missing config file", []string{"-config", "/nonexistent/astrolabe.yaml", "natal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestInvalidObserverFromEnv(t *testing.T) {
	quietEnv(t)
	t.Setenv("ASTROLABE_OBSERVER_LATITUDE", "100")

	_, err := runCLI(t, "natal")
	assert.Error(t, err)
}
