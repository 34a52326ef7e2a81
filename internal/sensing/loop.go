package sensing

import (
	"context"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/events"
	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
	"github.com/iotzy/iotzy-bridge/internal/settings"
	"github.com/iotzy/iotzy-bridge/internal/state"
	"github.com/iotzy/iotzy-bridge/internal/vision"
)

const (
	samplePeriod   = 200 * time.Millisecond
	readRetryDelay = 1 * time.Second
	openBackoffMin = 1 * time.Second
	openBackoffMax = 30 * time.Second
)

// SettingsSource provides the current runtime settings snapshot.
type SettingsSource interface {
	Get() settings.Settings
}

// OutboundBus is the publish surface the loop drives.
type OutboundBus interface {
	Brightness(topic string, v float64)
	Presence(topic string, present bool)
	Lamp(topic string, on bool)
}

// EventRecorder appends transition events. May be nil.
type EventRecorder interface {
	Record(ctx context.Context, eventType string, lampState int, presence bool, brightness float64) (events.Event, error)
}

// TelemetryWriter receives per-sample telemetry points. May be nil.
// Writes must be non-blocking.
type TelemetryWriter interface {
	WriteSample(camera int, brightness float64, presence bool, at time.Time)
	WriteTemperature(value float64, at time.Time)
	WriteLampState(on bool, at time.Time)
}

// Loop is the sensing core: it reads frames from the camera, derives
// brightness and presence, publishes changes to the bus, and drives the
// lamp through the hysteresis policy.
type Loop struct {
	settings SettingsSource
	state    *state.Store
	open     vision.Opener
	detector vision.Detector
	bus      OutboundBus
	events   EventRecorder
	tele     TelemetryWriter
	log      *logging.Logger

	gate       changeGate
	hysteresis Hysteresis

	// Overridable in tests so they run without real delays.
	sleep func(ctx context.Context, d time.Duration) bool
	now   func() time.Time
}

// Deps bundles the loop's collaborators. Events and Telemetry are
// optional.
type Deps struct {
	Settings  SettingsSource
	State     *state.Store
	Open      vision.Opener
	Detector  vision.Detector
	Bus       OutboundBus
	Events    EventRecorder
	Telemetry TelemetryWriter
	Log       *logging.Logger
}

func NewLoop(deps Deps) *Loop {
	return &Loop{
		settings: deps.Settings,
		state:    deps.State,
		open:     deps.Open,
		detector: deps.Detector,
		bus:      deps.Bus,
		events:   deps.Events,
		tele:     deps.Telemetry,
		log:      deps.Log,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Run drives the loop until ctx is cancelled. Device faults are never
// fatal: open failures back off exponentially (capped), read failures
// release the source and reopen after a short delay. Run only returns
// the ctx error.
func (l *Loop) Run(ctx context.Context) error {
	backoff := openBackoffMin

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cfg := l.settings.Get()

		source, err := l.open(cfg.CameraIndex)
		if err != nil {
			l.log.Warn("camera open failed",
				"camera", cfg.CameraIndex, "retry_in", backoff, "error", err)
			if !l.sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, openBackoffMax)
			continue
		}
		backoff = openBackoffMin

		l.log.Info("camera stream open", "camera", cfg.CameraIndex)
		err = l.sample(ctx, source)
		source.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.log.Warn("camera read failed, reopening", "camera", cfg.CameraIndex, "error", err)
		if !l.sleep(ctx, readRetryDelay) {
			return ctx.Err()
		}
	}
}

// sample runs the inner read loop until the source fails or ctx is
// cancelled.
func (l *Loop) sample(ctx context.Context, source vision.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := source.ReadFrame()
		if err != nil {
			return err
		}

		l.process(ctx, frame)

		if !l.sleep(ctx, samplePeriod) {
			return ctx.Err()
		}
	}
}

// process derives readings from one frame and applies all policies.
func (l *Loop) process(ctx context.Context, frame *vision.Frame) {
	cfg := l.settings.Get()
	now := l.now()

	brightness := frame.MeanLuminance()
	presence := len(l.detector.Detect(frame)) > 0

	pubBrightness, pubPresence := l.gate.observe(brightness, presence)
	if pubBrightness {
		l.bus.Brightness(cfg.Topics.Brightness, brightness)
	}
	if pubPresence {
		l.bus.Presence(cfg.Topics.Presence, presence)
		l.recordEvent(ctx, events.TypePresence, presence, brightness)
	}

	l.state.SetSensed(round3(brightness), presence, now)
	if l.tele != nil {
		l.tele.WriteSample(cfg.CameraIndex, brightness, presence, now)
	}

	if !cfg.Automation.LampEnabled {
		return
	}
	fire, on := l.hysteresis.Evaluate(brightness,
		cfg.Automation.LampOnThreshold, cfg.Automation.LampOffThreshold)
	if !fire {
		return
	}

	l.bus.Lamp(cfg.Topics.LampControl, on)
	l.state.SetLamp(on)
	l.log.Info("lamp command", "on", on, "brightness", round3(brightness))
	l.recordEvent(ctx, events.TypeLamp, presence, brightness)
	if l.tele != nil {
		l.tele.WriteLampState(on, now)
	}
}

// recordEvent appends a transition event, best effort.
func (l *Loop) recordEvent(ctx context.Context, eventType string, presence bool, brightness float64) {
	if l.events == nil {
		return
	}
	lamp := 0
	if l.hysteresis.State() {
		lamp = 1
	}
	if _, err := l.events.Record(ctx, eventType, lamp, presence, round3(brightness)); err != nil {
		l.log.Debug("event record failed", "type", eventType, "error", err)
	}
}

// sleepCtx waits for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
