package chart

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"astrolabe.space/ephemeris"
)

// MaxSpeed is the largest speed multiplier an animator accepts.
const MaxSpeed = 1e6

// ErrInvalidSpeed is returned for a speed outside (0, MaxSpeed].
var ErrInvalidSpeed = errors.New("chart: speed must be positive and at most 1e6")

// Sink receives every frame the animator produces.
type Sink interface {
	Publish(Chart) error
}

type SinkFunc func(Chart) error

func (f SinkFunc) Publish(c Chart) error {
	return f(c)
}

type AnimatorConfig struct {
	Step    time.Duration // simulated time per frame at speed 1
	Speed   float64
	FPS     float64
	Playing bool
}

// DefaultAnimatorConfig advances one hour per frame at thirty frames a second.
func DefaultAnimatorConfig() AnimatorConfig {
	return AnimatorConfig{Step: time.Hour, Speed: 1, FPS: 30, Playing: true}
}

// Animator advances a simulated instant on every clock tick and publishes
// the chart for it. Control calls are safe from any goroutine.
type Animator struct {
	session  *Session
	sink     Sink
	logger   zerolog.Logger
	interval time.Duration
	step     time.Duration

	// limiter throttles out-of-band frames triggered by control calls.
	limiter *rate.Limiter

	mu      sync.Mutex
	instant time.Time
	speed   float64
	playing bool
}

// NewAnimator starts the simulated instant at the session clock's now.
func NewAnimator(session *Session, sink Sink, cfg AnimatorConfig, logger zerolog.Logger) *Animator {
	def := DefaultAnimatorConfig()
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	switch {
	case cfg.Speed > MaxSpeed && !math.IsInf(cfg.Speed, 1):
		cfg.Speed = MaxSpeed
	case !validSpeed(cfg.Speed):
		cfg.Speed = def.Speed
	}
	if !(cfg.FPS > 0 && cfg.FPS <= 1000) {
		cfg.FPS = def.FPS
	}

	interval := time.Duration(float64(time.Second) / cfg.FPS)
	return &Animator{
		session:  session,
		sink:     sink,
		logger:   logger,
		interval: interval,
		step:     cfg.Step,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		instant:  session.Clock().Now().UTC(),
		speed:    cfg.Speed,
		playing:  cfg.Playing,
	}
}

func validSpeed(v float64) bool {
	return v > 0 && v <= MaxSpeed
}

// advance is step scaled by speed, saturating instead of overflowing.
func advance(step time.Duration, speed float64) time.Duration {
	d := float64(step) * speed
	if d >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Interval is the wall-clock time between frames.
func (a *Animator) Interval() time.Duration {
	return a.interval
}

func (a *Animator) Instant() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instant
}

func (a *Animator) Speed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speed
}

func (a *Animator) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func (a *Animator) Play() {
	a.mu.Lock()
	a.playing = true
	a.mu.Unlock()
}

func (a *Animator) Pause() {
	a.mu.Lock()
	a.playing = false
	a.mu.Unlock()
}

// SetSpeed sets the multiplier applied to the step on each tick.
func (a *Animator) SetSpeed(speed float64) error {
	if !validSpeed(speed) {
		return ErrInvalidSpeed
	}
	a.mu.Lock()
	a.speed = speed
	a.mu.Unlock()
	return nil
}

// Seek jumps the simulated instant to t and publishes a frame for it.
func (a *Animator) Seek(t time.Time) {
	a.mu.Lock()
	a.instant = t.UTC()
	a.mu.Unlock()
	a.Refresh()
}

// Reset jumps to the current clock time.
func (a *Animator) Reset() {
	a.Seek(a.session.Clock().Now())
}

// Natal jumps to the session's reference epoch.
func (a *Animator) Natal() {
	a.Seek(a.session.Epoch())
}

// SetObserver changes the session observer and publishes a frame for it.
func (a *Animator) SetObserver(obs ephemeris.Observer) error {
	if err := a.session.SetObserver(obs); err != nil {
		return err
	}
	a.Refresh()
	return nil
}

// SetEpoch moves the session's reference epoch and publishes a frame.
func (a *Animator) SetEpoch(epoch time.Time) {
	a.session.SetEpoch(epoch)
	a.Refresh()
}

// SetBirth sets the epoch and observer, then jumps to the natal chart.
func (a *Animator) SetBirth(epoch time.Time, obs ephemeris.Observer) error {
	if err := a.session.SetBirth(epoch, obs); err != nil {
		return err
	}
	a.Seek(epoch)
	return nil
}

// Tick advances the instant when playing and returns the chart for it.
func (a *Animator) Tick() Chart {
	a.mu.Lock()
	if a.playing {
		a.instant = a.instant.Add(advance(a.step, a.speed))
	}
	t := a.instant
	a.mu.Unlock()

	return a.session.Build(t)
}

// Current returns the chart at the instant without advancing it.
func (a *Animator) Current() Chart {
	return a.session.Build(a.Instant())
}

// Refresh publishes the current chart unless a frame was refreshed less
// than one interval ago. It reports whether a frame was sent.
func (a *Animator) Refresh() bool {
	if !a.limiter.AllowN(a.session.Clock().Now(), 1) {
		return false
	}
	a.publish(a.Current())
	return true
}

// Run publishes the current chart, then one frame per interval until ctx
// is cancelled.
func (a *Animator) Run(ctx context.Context) error {
	ticker := a.session.Clock().NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Dur("interval", a.interval).Dur("step", a.step).Float64("speed", a.Speed()).
		Msg("animation started")
	a.publish(a.Current())

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("animation stopped")
			return nil
		case <-ticker.Chan():
			a.publish(a.Tick())
		}
	}
}

func (a *Animator) publish(c Chart) {
	if err := a.sink.Publish(c); err != nil {
		a.logger.Warn().Err(err).Time("instant", c.Instant).Msg("could not publish frame")
	}
}
