package sensing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/logging"
	"github.com/iotzy/iotzy-bridge/internal/settings"
	"github.com/iotzy/iotzy-bridge/internal/state"
	"github.com/iotzy/iotzy-bridge/internal/vision"
)

// fakeSettings returns a fixed settings snapshot.
type fakeSettings struct {
	mu  sync.Mutex
	cfg settings.Settings
}

func (f *fakeSettings) Get() settings.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

func (f *fakeSettings) set(cfg settings.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
}

// fakeSource plays back scripted frames, then fails.
type fakeSource struct {
	mu     sync.Mutex
	frames []*vision.Frame
	idx    int
	closed bool
}

var errNoMoreFrames = errors.New("no more frames")

func (f *fakeSource) ReadFrame() (*vision.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.frames) {
		return nil, errNoMoreFrames
	}
	frame := f.frames[f.idx]
	f.idx++
	return frame, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeDetector reports presence per frame by consuming a script.
type fakeDetector struct {
	mu     sync.Mutex
	script []bool
	idx    int
}

func (f *fakeDetector) Detect(frame *vision.Frame) []vision.Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	present := false
	if f.idx < len(f.script) {
		present = f.script[f.idx]
	}
	f.idx++
	if present {
		return []vision.Region{{Row: 1, Col: 1, Scale: 10}}
	}
	return nil
}

// fakeBus records outbound publishes.
type fakeBus struct {
	mu         sync.Mutex
	brightness []float64
	presence   []bool
	lamp       []bool
}

func (f *fakeBus) Brightness(topic string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brightness = append(f.brightness, round3(v))
}

func (f *fakeBus) Presence(topic string, present bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence = append(f.presence, present)
}

func (f *fakeBus) Lamp(topic string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lamp = append(f.lamp, on)
}

// grayFrame builds a 1x1 frame with the given pixel value.
func grayFrame(level uint8) *vision.Frame {
	return &vision.Frame{Pixels: []uint8{level}, Width: 1, Height: 1}
}

func testSettings() settings.Settings {
	return settings.Default()
}

// newTestLoop wires a loop with fakes and a sleep that never waits.
func newTestLoop(t *testing.T, cfg settings.Settings, open vision.Opener, det vision.Detector, bus OutboundBus) (*Loop, *state.Store) {
	t.Helper()
	st := state.NewStore()
	l := NewLoop(Deps{
		Settings: &fakeSettings{cfg: cfg},
		State:    st,
		Open:     open,
		Detector: det,
		Bus:      bus,
		Log:      logging.Default(),
	})
	l.sleep = func(ctx context.Context, d time.Duration) bool {
		return ctx.Err() == nil
	}
	return l, st
}

func TestLoop_DarkThenBrightSweep(t *testing.T) {
	// Pixel levels chosen against the default 0.35/0.5 thresholds:
	// 153/255=0.6 (bright), 102/255=0.4 (dead band), 76/255=0.298
	// (below on), 76 again (no change), 140/255=0.549 (above off).
	source := &fakeSource{frames: []*vision.Frame{
		grayFrame(153), grayFrame(102), grayFrame(76), grayFrame(76), grayFrame(140),
	}}
	det := &fakeDetector{script: []bool{false, false, true, true, false}}
	bus := &fakeBus{}

	ctx, cancel := context.WithCancel(context.Background())
	open := func(index int) (vision.Source, error) {
		if source.idx > 0 {
			// Frames exhausted; end the test run.
			cancel()
			return nil, errNoMoreFrames
		}
		return source, nil
	}

	l, st := newTestLoop(t, testSettings(), open, det, bus)
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	// Exactly one ON (first sample below on threshold) and one OFF
	// (first sample above off threshold).
	wantLamp := []bool{true, false}
	if len(bus.lamp) != len(wantLamp) {
		t.Fatalf("lamp commands = %v, want %v", bus.lamp, wantLamp)
	}
	for i := range wantLamp {
		if bus.lamp[i] != wantLamp[i] {
			t.Errorf("lamp command %d = %v, want %v", i, bus.lamp[i], wantLamp[i])
		}
	}

	// Brightness published only on change: the repeated 76 is suppressed.
	wantBrightness := []float64{0.6, 0.4, 0.298, 0.549}
	if len(bus.brightness) != len(wantBrightness) {
		t.Fatalf("brightness publishes = %v, want %v", bus.brightness, wantBrightness)
	}
	for i := range wantBrightness {
		if bus.brightness[i] != wantBrightness[i] {
			t.Errorf("brightness publish %d = %v, want %v", i, bus.brightness[i], wantBrightness[i])
		}
	}

	// Presence published on the first sample and on each flip.
	wantPresence := []bool{false, true, false}
	if len(bus.presence) != len(wantPresence) {
		t.Fatalf("presence publishes = %v, want %v", bus.presence, wantPresence)
	}

	// State reflects the last sample.
	snap := st.Snapshot()
	if snap.Brightness == nil || *snap.Brightness != 0.549 {
		t.Errorf("state brightness = %v, want 0.549", snap.Brightness)
	}
	if snap.Presence {
		t.Error("state presence = true, want false")
	}
	if snap.LampState != 0 {
		t.Errorf("state lamp = %d, want 0", snap.LampState)
	}
	if !source.closed {
		t.Error("source not closed after read failure")
	}
}

func TestLoop_AutomationDisabled(t *testing.T) {
	cfg := testSettings()
	cfg.Automation.LampEnabled = false

	source := &fakeSource{frames: []*vision.Frame{grayFrame(10), grayFrame(250)}}
	bus := &fakeBus{}

	ctx, cancel := context.WithCancel(context.Background())
	open := func(index int) (vision.Source, error) {
		if source.idx > 0 {
			cancel()
			return nil, errNoMoreFrames
		}
		return source, nil
	}

	l, _ := newTestLoop(t, cfg, open, &fakeDetector{}, bus)
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}

	if len(bus.lamp) != 0 {
		t.Errorf("lamp commands fired while automation disabled: %v", bus.lamp)
	}
	// Readings still publish.
	if len(bus.brightness) != 2 {
		t.Errorf("brightness publishes = %v, want 2 values", bus.brightness)
	}
}

func TestLoop_OpenFailureBacksOffThenRecovers(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
		waits    []time.Duration
	)

	source := &fakeSource{frames: []*vision.Frame{grayFrame(128)}}
	ctx, cancel := context.WithCancel(context.Background())

	open := func(index int) (vision.Source, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		switch {
		case attempts <= 2:
			return nil, errors.New("device busy")
		case attempts == 3:
			return source, nil
		default:
			cancel()
			return nil, errNoMoreFrames
		}
	}

	l, st := newTestLoop(t, testSettings(), open, &fakeDetector{}, &fakeBus{})
	l.sleep = func(sctx context.Context, d time.Duration) bool {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return sctx.Err() == nil
	}

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}

	// Two failed opens: 1s then 2s backoff. The successful open resets
	// the backoff and the frame is processed.
	if len(waits) < 2 || waits[0] != openBackoffMin || waits[1] != 2*openBackoffMin {
		t.Errorf("backoff waits = %v, want [1s 2s ...]", waits)
	}
	if st.Snapshot().Brightness == nil {
		t.Error("frame not processed after recovery")
	}
}

func TestLoop_BackoffIsCapped(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
		waits    []time.Duration
	)

	ctx, cancel := context.WithCancel(context.Background())
	open := func(index int) (vision.Source, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts > 10 {
			cancel()
		}
		return nil, errors.New("device busy")
	}

	l, _ := newTestLoop(t, testSettings(), open, &fakeDetector{}, &fakeBus{})
	l.sleep = func(sctx context.Context, d time.Duration) bool {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return sctx.Err() == nil
	}

	_ = l.Run(ctx)

	for _, d := range waits {
		if d > openBackoffMax {
			t.Errorf("backoff %v exceeds cap %v", d, openBackoffMax)
		}
	}
	if len(waits) >= 7 && waits[6] != openBackoffMax {
		t.Errorf("backoff did not reach cap: %v", waits)
	}
}

func TestLoop_SettingsChangeTakesEffect(t *testing.T) {
	// Raise the on threshold between samples; the second identical
	// frame then triggers the lamp.
	cfg := testSettings()
	cfg.Automation.LampOnThreshold = 0.1
	cfg.Automation.LampOffThreshold = 0.9
	fs := &fakeSettings{cfg: cfg}

	source := &fakeSource{frames: []*vision.Frame{grayFrame(76), grayFrame(76)}}
	bus := &fakeBus{}

	ctx, cancel := context.WithCancel(context.Background())
	open := func(index int) (vision.Source, error) {
		if source.idx > 0 {
			cancel()
			return nil, errNoMoreFrames
		}
		return source, nil
	}

	st := state.NewStore()
	l := NewLoop(Deps{
		Settings: fs,
		State:    st,
		Open:     open,
		Detector: &fakeDetector{},
		Bus:      bus,
		Log:      logging.Default(),
	})
	sampleCount := 0
	l.sleep = func(sctx context.Context, d time.Duration) bool {
		sampleCount++
		if sampleCount == 1 {
			// After the first sample (0.298 > 0.1, no command), widen
			// the band so the next sample falls below the on threshold.
			updated := cfg
			updated.Automation.LampOnThreshold = 0.35
			fs.set(updated)
		}
		return sctx.Err() == nil
	}

	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}

	if len(bus.lamp) != 1 || !bus.lamp[0] {
		t.Errorf("lamp commands = %v, want [true]", bus.lamp)
	}
}

func TestLoop_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	open := func(index int) (vision.Source, error) {
		return nil, errors.New("device busy")
	}

	l, _ := newTestLoop(t, testSettings(), open, &fakeDetector{}, &fakeBus{})
	l.sleep = func(sctx context.Context, d time.Duration) bool {
		cancel()
		return false
	}

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
