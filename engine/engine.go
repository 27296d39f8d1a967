package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/profiler"
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/scene"
	"github.com/dlmmedia/nebula/engine/window"
)

// State is the frame scheduler's lifecycle state.
type State int

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota

	// StateRunning means frames are being produced.
	StateRunning

	// StatePausedHidden means the window has no visible drawable; frames are
	// skipped entirely and the animation clock is frozen.
	StatePausedHidden

	// StateStopped is terminal.
	StateStopped
)

const (
	// Frame deltas are clamped into this window before reaching animation
	// code, so a debugger pause or timer hiccup cannot teleport the scene.
	minFrameDelta = 1.0 / 240.0
	maxFrameDelta = 0.1

	// How long to wait after a device loss before rebuilding the scene. The
	// surface tends to report lost for a few frames in a row; rebuilding
	// immediately just loses the new scene too.
	defaultRecoveryDelay = 100 * time.Millisecond

	// Poll interval while hidden or waiting for a drawable.
	hiddenPollInterval = 50 * time.Millisecond
)

// engine implements the Engine interface.
// Coordinates the frame loop, the audio drive path, and window management.
type engine struct {
	mu sync.Mutex

	state State

	window window.Window
	viz    scene.Visualizer

	sampler  *audio.Sampler
	smoother *audio.Smoother

	// Frame inputs, written from other goroutines and snapshotted once per
	// frame under mu.
	playing  bool
	analyser audio.Analyser

	quitChannel chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameLimit    time.Duration // minimum frame duration; 0 = uncapped
	recoveryDelay time.Duration
	recovering    bool

	// Animation clock. Accumulates rendered-frame deltas only, so time does
	// not pass while hidden.
	elapsed   float64
	lastFrame time.Time
}

// Engine is the main entry point: it owns the frame scheduler that drives the
// visualizer from the audio analyser.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Visualizer returns the scene being driven.
	//
	// Returns:
	//   - scene.Visualizer: the visualizer instance
	Visualizer() scene.Visualizer

	// State returns the scheduler's current lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// SetPlaying flags whether audio playback is active. While false the
	// scene falls back to the idle waveform.
	//
	// Parameters:
	//   - playing: true when audio is playing
	SetPlaying(playing bool)

	// SetAnalyser attaches the spectrum source. A nil analyser is valid and
	// drives the scene with the idle waveform.
	//
	// Parameters:
	//   - analyser: the spectrum source or nil
	SetAnalyser(analyser audio.Analyser)

	// SetDisplayTitle forwards a new title to the scene's glyph layer.
	//
	// Parameters:
	//   - title: the title text
	SetDisplayTitle(title string)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Run starts the frame loop and blocks in the window message loop until
	// the window closes, then stops the engine.
	Run()

	// Stop halts the frame loop and tears the scene down. Safe to call more
	// than once; subsequent calls are no-ops.
	Stop()
}

// NewEngine creates a new Engine instance with the provided options.
// Panics if no window or visualizer was supplied, since the engine cannot
// drive anything without them.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		state:         StateIdle,
		quitChannel:   make(chan struct{}),
		sampler:       audio.NewSampler(),
		smoother:      audio.NewSmoother(audio.DefaultSmoothing),
		profiler:      profiler.NewProfiler(),
		recoveryDelay: defaultRecoveryDelay,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		panic("engine: no window configured")
	}
	if e.viz == nil {
		panic("engine: no visualizer configured")
	}

	e.window.SetResizeCallback(func(width, height int) {
		e.viz.Resize(width, height)
	})

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Visualizer() scene.Visualizer {
	return e.viz
}

func (e *engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engine) SetPlaying(playing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = playing
}

func (e *engine) SetAnalyser(analyser audio.Analyser) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyser = analyser
}

func (e *engine) SetDisplayTitle(title string) {
	e.viz.SetDisplayTitle(title)
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Run() {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return
	}
	e.state = StateRunning
	e.lastFrame = time.Now()
	e.mu.Unlock()

	e.wg.Add(1)
	go e.frameLoop()

	e.window.ProcessMessages()
	e.Stop()
}

func (e *engine) Stop() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		e.wg.Wait()

		e.mu.Lock()
		e.state = StateStopped
		e.mu.Unlock()

		e.viz.Teardown()
		log.Printf("[Engine] stopped")
	})
}

// frameLoop produces frames until quit. Runs in its own goroutine.
func (e *engine) frameLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			e.runFrame()
		}
	}
}

// runFrame executes one scheduler iteration: visibility gate, scene
// availability, input snapshot, audio sampling, and the render itself. A panic
// anywhere inside skips the frame instead of killing the loop.
func (e *engine) runFrame() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] frame skipped after panic: %v", r)
			e.profiler.SkipFrame()
			e.mu.Lock()
			e.lastFrame = time.Now()
			e.mu.Unlock()
		}
	}()

	// Hidden windows get a full frame skip: no sampling, no animation, no
	// GPU traffic. The clock freezes with the last rendered frame.
	if !e.window.Visible() {
		e.mu.Lock()
		if e.state == StateRunning {
			e.state = StatePausedHidden
			log.Printf("[Engine] paused: window hidden")
		}
		e.mu.Unlock()
		time.Sleep(hiddenPollInterval)
		return
	}

	e.mu.Lock()
	if e.state == StatePausedHidden {
		e.state = StateRunning
		e.lastFrame = time.Now()
		log.Printf("[Engine] resumed: window visible")
	}
	recovering := e.recovering
	e.mu.Unlock()

	if recovering {
		time.Sleep(hiddenPollInterval)
		return
	}

	if !e.viz.Initialized() {
		// Covers both first-frame startup against a not-yet-mapped surface
		// and the window regaining extent after a zero-size spell.
		if err := e.viz.Initialize(e.window); err != nil {
			log.Printf("[Engine] scene initialize failed: %v", err)
		}
		if !e.viz.Initialized() {
			time.Sleep(hiddenPollInterval)
			return
		}
		e.mu.Lock()
		e.lastFrame = time.Now()
		e.mu.Unlock()
	}

	e.mu.Lock()
	now := time.Now()
	delta := common.Clamp(now.Sub(e.lastFrame).Seconds(), minFrameDelta, maxFrameDelta)
	e.lastFrame = now
	e.elapsed += delta
	elapsed := e.elapsed
	playing := e.playing
	analyser := e.analyser
	profiling := e.profilingEnabled
	e.mu.Unlock()

	raw := e.sampler.Sample(playing, analyser, elapsed)
	drive := e.smoother.Apply(raw)

	if err := e.viz.RenderFrame(elapsed, delta, drive); err != nil {
		if errors.Is(err, renderer.ErrDeviceLost) {
			e.beginRecovery()
			return
		}
		log.Printf("[Engine] render frame failed: %v", err)
		return
	}

	if profiling {
		e.profiler.Tick()
	}

	if e.frameLimit > 0 {
		if remaining := e.frameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// beginRecovery schedules a delayed teardown-and-rebuild of the scene after a
// device loss. Only one recovery runs at a time; further losses while it is
// pending are absorbed.
func (e *engine) beginRecovery() {
	e.mu.Lock()
	if e.recovering {
		e.mu.Unlock()
		return
	}
	e.recovering = true
	e.mu.Unlock()

	log.Printf("[Engine] device lost, rebuilding scene in %v", e.recoveryDelay)
	time.AfterFunc(e.recoveryDelay, func() {
		defer func() {
			e.mu.Lock()
			e.recovering = false
			e.mu.Unlock()
		}()

		if e.State() == StateStopped {
			return
		}

		e.viz.Teardown()
		// The rebuilt scene fades in from rest instead of inheriting the
		// drive the old scene died with.
		e.smoother.Reset()
		if err := e.viz.Initialize(e.window); err != nil {
			// The frame loop keeps retrying through its initialize path.
			log.Printf("[Engine] scene rebuild failed: %v", err)
			return
		}
		log.Printf("[Engine] scene rebuilt after device loss")
	})
}
