package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrolabe.space/aspect"
	"astrolabe.space/ephemeris"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetForTest clears key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ephemeris.Observer{Latitude: 53.5461, Longitude: -113.4938}, cfg.ObserverLocation())
	assert.Equal(t, ephemeris.DefaultEpoch, cfg.ReferenceEpoch())
	assert.Equal(t, ephemeris.ModeAuto, cfg.Mode())
	assert.Equal(t, aspect.DefaultOrb, cfg.Aspects.Orb)
	assert.Equal(t, aspect.DefaultAngles(), cfg.AspectAngles())
	assert.Equal(t, time.Hour, cfg.Animation.Step)
	assert.Equal(t, 1.0, cfg.Animation.Speed)
	assert.True(t, cfg.Animation.Playing)
	assert.Equal(t, ":8080", cfg.Feed.Addr)
	assert.Empty(t, cfg.Feed.Hosts)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "astrolabe.yaml", `
observer:
  latitude: 51.4779
  longitude: -0.0015
epoch: "2000-01-01T12:00:00Z"
ephemeris:
  mode: fallback
  orbits:
    Moon:
      period: 27.321661
      base_longitude: 218.32
aspects:
  orb: 3
  angles: [0, 180]
animation:
  step: 30m
  speed: 4
feed:
  hosts: [astrolabe.example.com]
metrics:
  enabled: false
log:
  level: debug
  format: json
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ephemeris.Observer{Latitude: 51.4779, Longitude: -0.0015}, cfg.ObserverLocation())
	assert.Equal(t, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), cfg.ReferenceEpoch())
	assert.Equal(t, ephemeris.ModeFallback, cfg.Mode())
	assert.Equal(t, []aspect.Angle{aspect.Conjunction, aspect.Opposition}, cfg.AspectAngles())
	assert.Equal(t, 3.0, cfg.Aspects.Orb)
	assert.Equal(t, 30*time.Minute, cfg.Animation.Step)
	assert.Equal(t, 4.0, cfg.Animation.Speed)
	assert.Equal(t, []string{"astrolabe.example.com"}, cfg.Feed.Hosts)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, ":8080", cfg.Feed.Addr)
	assert.Equal(t, 30.0, cfg.Animation.FPS)

	orbits, err := cfg.FallbackOrbits()
	require.NoError(t, err)
	assert.Equal(t, map[ephemeris.Body]ephemeris.Orbit{
		ephemeris.Moon: {Period: 27.321661, BaseLongitude: 218.32},
	}, orbits)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "astrolabe.yaml", "observer:\n  latitude: 10\n")
	t.Setenv("ASTROLABE_OBSERVER_LATITUDE", "-33.8688")
	t.Setenv("ASTROLABE_ASPECTS_ANGLES", "0,90")
	t.Setenv("ASTROLABE_FEED_HOSTS", "a.example.com,b.example.com")
	t.Setenv("ASTROLABE_ANIMATION_STEP", "15m")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, -33.8688, cfg.Observer.Latitude)
	assert.Equal(t, []aspect.Angle{aspect.Conjunction, aspect.Square}, cfg.AspectAngles())
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Feed.Hosts)
	assert.Equal(t, 15*time.Minute, cfg.Animation.Step)
}

func TestLoadDotEnv(t *testing.T) {
	unsetForTest(t, "ASTROLABE_EPHEMERIS_MODE")
	envFile := writeFile(t, ".env", "ASTROLABE_EPHEMERIS_MODE=precision\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, ephemeris.ModePrecision, cfg.Mode())
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Latitude out of range", "observer:\n  latitude: 91\n"},
		{"Longitude out of range", "observer:\n  longitude: -181\n"},
		{"Unknown mode", "ephemeris:\n  mode: psychic\n"},
		{"Zero orb", "aspects:\n  orb: 0\n"},
		{"Angle above 180", "aspects:\n  angles: [0, 200]\n"},
		{"Empty angles", "aspects:\n  angles: []\n"},
		{"Bad epoch", "epoch: yesterday\n"},
		{"Unknown orbit body", "ephemeris:\n  orbits:\n    Vulcan:\n      period: 10\n"},
		{"Non-positive orbit period", "ephemeris:\n  orbits:\n    Moon:\n      period: 0\n"},
		{"Negative speed", "animation:\n  speed: -1\n"},
		{"Speed above the cap", "animation:\n  speed: 1e12\n"},
		{"Unknown log format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "astrolabe.yaml", tt.yaml), "")
			assert.Error(t, err)
		})
	}
}

func TestParseEpoch(t *testing.T) {
	want := time.Date(1972, time.January, 25, 7, 32, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"1972-01-25T07:32", want},
		{"1972-01-25T07:32:00", want},
		{"1972-01-25 07:32", want},
		{"1972-01-25T07:32:00Z", want},
		{"1972-01-25T00:32:00-07:00", want},
		{" 1972-01-25T07:32 ", want},
		{"1972-01-25", time.Date(1972, time.January, 25, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEpoch(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseEpoch("25/01/1972")
	assert.Error(t, err)
}
