// Package config loads astrolabe settings. Sources are applied in order:
// struct defaults, an optional YAML file, a .env file, then ASTROLABE_*
// environment variables. The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"astrolabe.space/aspect"
	"astrolabe.space/ephemeris"
	"astrolabe.space/internal/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ASTROLABE_"

var validate = validator.New()

type Config struct {
	Observer  ObserverConfig  `yaml:"observer" envPrefix:"OBSERVER_"`
	Epoch     string          `yaml:"epoch" env:"EPOCH" default:"1972-01-25T07:32"`
	Ephemeris EphemerisConfig `yaml:"ephemeris" envPrefix:"EPHEMERIS_"`
	Aspects   AspectConfig    `yaml:"aspects" envPrefix:"ASPECTS_"`
	Animation AnimationConfig `yaml:"animation" envPrefix:"ANIMATION_"`
	Feed      FeedConfig      `yaml:"feed" envPrefix:"FEED_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Log       logging.Config  `yaml:"log" envPrefix:"LOG_"`
}

type ObserverConfig struct {
	Latitude  float64 `yaml:"latitude" env:"LATITUDE" default:"53.5461" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" env:"LONGITUDE" default:"-113.4938" validate:"gte=-180,lte=180"`
}

type EphemerisConfig struct {
	Mode string `yaml:"mode" env:"MODE" default:"auto" validate:"oneof=auto precision fallback"`

	// Orbits overrides fallback periods and base longitudes, keyed by body name.
	Orbits map[string]ephemeris.Orbit `yaml:"orbits"`
}

type AspectConfig struct {
	Orb    float64   `yaml:"orb" env:"ORB" default:"5" validate:"gt=0,lt=90"`
	Angles []float64 `yaml:"angles" env:"ANGLES" default:"[0,60,90,120,180]" validate:"min=1,dive,gte=0,lte=180"`
}

type AnimationConfig struct {
	Step    time.Duration `yaml:"step" env:"STEP" default:"1h" validate:"gt=0"`
	Speed   float64       `yaml:"speed" env:"SPEED" default:"1" validate:"gt=0,lte=1000000"`
	FPS     float64       `yaml:"fps" env:"FPS" default:"30" validate:"gt=0,lte=240"`
	Playing bool          `yaml:"playing" env:"PLAYING" default:"true"`
}

type FeedConfig struct {
	Addr        string   `yaml:"addr" env:"ADDR" default:":8080" validate:"required"`
	Hosts       []string `yaml:"hosts" env:"HOSTS"`
	CertDir     string   `yaml:"cert_dir" env:"CERT_DIR" default:"certs"`
	ClientFPS   float64  `yaml:"client_fps" env:"CLIENT_FPS" default:"30" validate:"gt=0"`
	ClientBurst int      `yaml:"client_burst" env:"CLIENT_BURST" default:"5" validate:"gte=1"`
	SendBuffer  int      `yaml:"send_buffer" env:"SEND_BUFFER" default:"16" validate:"gte=1"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" default:"true"`
	Path    string `yaml:"path" env:"PATH" default:"/metrics" validate:"startswith=/"`
}

// Load builds the configuration. path names a YAML file and may be empty.
// envFile names a dotenv file; a missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the values that need parsing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := ParseEpoch(c.Epoch); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.FallbackOrbits(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var epochLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEpoch accepts RFC 3339 or a zone-less date and time, read as UTC.
func ParseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range epochLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised epoch %q", s)
}

// ReferenceEpoch returns the parsed epoch, or the default epoch when the
// configured value does not parse.
func (c *Config) ReferenceEpoch() time.Time {
	t, err := ParseEpoch(c.Epoch)
	if err != nil {
		return ephemeris.DefaultEpoch
	}
	return t
}

func (c *Config) ObserverLocation() ephemeris.Observer {
	return ephemeris.Observer{Latitude: c.Observer.Latitude, Longitude: c.Observer.Longitude}
}

func (c *Config) Mode() ephemeris.Mode {
	mode, err := ephemeris.ParseMode(c.Ephemeris.Mode)
	if err != nil {
		return ephemeris.ModeAuto
	}
	return mode
}

func (c *Config) AspectAngles() []aspect.Angle {
	angles := make([]aspect.Angle, len(c.Aspects.Angles))
	for i, a := range c.Aspects.Angles {
		angles[i] = aspect.Angle(a)
	}
	return angles
}

// FallbackOrbits resolves the orbit overrides to bodies.
func (c *Config) FallbackOrbits() (map[ephemeris.Body]ephemeris.Orbit, error) {
	orbits := make(map[ephemeris.Body]ephemeris.Orbit, len(c.Ephemeris.Orbits))
	for name, orbit := range c.Ephemeris.Orbits {
		b, err := ephemeris.ParseBody(name)
		if err != nil {
			return nil, fmt.Errorf("orbit override: %w", err)
		}
		if orbit.Period <= 0 {
			return nil, fmt.Errorf("orbit override for %s: period must be positive", b)
		}
		orbits[b] = orbit
	}
	return orbits, nil
}
