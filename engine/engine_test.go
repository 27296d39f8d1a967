package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/scene"
	"github.com/dlmmedia/nebula/engine/window"
)

type stubWindow struct {
	visible bool
	width   int
	height  int
}

func (s *stubWindow) SetUpdateCallback(func())                   {}
func (s *stubWindow) SetResizeCallback(func(int, int))           {}
func (s *stubWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }
func (s *stubWindow) IsRunning() bool                            { return true }
func (s *stubWindow) Visible() bool                              { return s.visible }
func (s *stubWindow) Close() error                               { return nil }
func (s *stubWindow) ProcessMessages()                           {}
func (s *stubWindow) Width() int                                 { return s.width }
func (s *stubWindow) Height() int                                { return s.height }

var _ window.Window = &stubWindow{}

// stubViz records lifecycle traffic and lets tests script failures.
type stubViz struct {
	mu sync.Mutex

	initialized bool
	deferInit   bool // Initialize returns nil without initializing

	initCalls     int
	teardownCalls int
	frames        int

	frameErrs []error // popped one per RenderFrame
	panicNext bool
	lastDelta float64
	lastEl    float64
	title     string
}

func (s *stubViz) Initialize(w window.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	if !s.deferInit {
		s.initialized = true
	}
	return nil
}

func (s *stubViz) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *stubViz) Resize(width, height int) {}

func (s *stubViz) SetDisplayTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *stubViz) RenderFrame(elapsed, delta float64, drive audio.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicNext {
		s.panicNext = false
		panic("scripted layer panic")
	}
	s.frames++
	s.lastEl = elapsed
	s.lastDelta = delta
	if len(s.frameErrs) > 0 {
		err := s.frameErrs[0]
		s.frameErrs = s.frameErrs[1:]
		return err
	}
	return nil
}

func (s *stubViz) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownCalls++
	s.initialized = false
}

func (s *stubViz) Renderer() renderer.Renderer { return nil }

var _ scene.Visualizer = &stubViz{}

func newTestEngine(viz *stubViz, w *stubWindow, options ...EngineBuilderOption) *engine {
	options = append(options, WithWindow(w), WithVisualizer(viz))
	e := NewEngine(options...).(*engine)
	e.state = StateRunning
	e.lastFrame = time.Now()
	return e
}

func TestEngineStartsIdle(t *testing.T) {
	e := NewEngine(
		WithWindow(&stubWindow{visible: true, width: 640, height: 480}),
		WithVisualizer(&stubViz{}),
	)
	if e.State() != StateIdle {
		t.Fatalf("state = %v, want StateIdle", e.State())
	}
}

func TestVisibleFrameRenders(t *testing.T) {
	viz := &stubViz{}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480})

	e.runFrame()

	if viz.frames != 1 {
		t.Fatalf("frames = %d, want 1", viz.frames)
	}
	if viz.initCalls != 1 {
		t.Fatalf("init calls = %d, want 1", viz.initCalls)
	}
}

func TestHiddenWindowSkipsFramesAndFreezesClock(t *testing.T) {
	viz := &stubViz{}
	w := &stubWindow{visible: true, width: 640, height: 480}
	e := newTestEngine(viz, w)

	e.runFrame()
	elapsedBefore := viz.lastEl

	w.visible = false
	e.runFrame()
	e.runFrame()

	if viz.frames != 1 {
		t.Fatalf("hidden window rendered: frames = %d, want 1", viz.frames)
	}
	if e.State() != StatePausedHidden {
		t.Fatalf("state = %v, want StatePausedHidden", e.State())
	}

	w.visible = true
	e.runFrame()

	if e.State() != StateRunning {
		t.Fatalf("state = %v, want StateRunning", e.State())
	}
	// The clock resumed from where it froze; the hidden interval (two 50ms
	// polls) must not appear in elapsed time.
	if grew := viz.lastEl - elapsedBefore; grew > 0.05 {
		t.Fatalf("hidden time leaked into the clock: elapsed grew by %v", grew)
	}
}

func TestFrameDeltaIsClamped(t *testing.T) {
	viz := &stubViz{initialized: true}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480})

	// Simulate a long stall (debugger pause, suspended laptop).
	e.lastFrame = time.Now().Add(-10 * time.Second)
	e.runFrame()
	if viz.lastDelta > maxFrameDelta {
		t.Fatalf("delta = %v, want <= %v", viz.lastDelta, maxFrameDelta)
	}

	// Back-to-back frames still report a nonzero delta.
	e.lastFrame = time.Now()
	e.runFrame()
	if viz.lastDelta < minFrameDelta {
		t.Fatalf("delta = %v, want >= %v", viz.lastDelta, minFrameDelta)
	}
}

func TestPanicSkipsSingleFrame(t *testing.T) {
	viz := &stubViz{panicNext: true}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480})

	e.runFrame() // panics inside, recovered
	e.runFrame()

	if viz.frames != 1 {
		t.Fatalf("frames = %d, want 1 (first skipped)", viz.frames)
	}
	if got := e.profiler.SkippedFrames(); got != 1 {
		t.Fatalf("skipped frames = %d, want 1", got)
	}
}

func TestDeviceLossRebuildsAfterDelay(t *testing.T) {
	viz := &stubViz{frameErrs: []error{renderer.ErrDeviceLost}}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480},
		WithRecoveryDelay(100*time.Millisecond))

	// Prime the smoother so the rebuild has something to reset.
	e.smoother.Apply(audio.BandSample{Bass: 1, Mid: 1, High: 1})

	e.runFrame()

	e.mu.Lock()
	recovering := e.recovering
	e.mu.Unlock()
	if !recovering {
		t.Fatal("device loss did not start recovery")
	}

	// Frames during the recovery window are skipped without touching the scene.
	framesBefore := viz.frames
	e.runFrame()
	if viz.frames != framesBefore {
		t.Fatal("frame rendered while recovery pending")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		viz.mu.Lock()
		done := viz.teardownCalls == 1 && viz.initialized
		viz.mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	viz.mu.Lock()
	defer viz.mu.Unlock()
	if viz.teardownCalls != 1 {
		t.Fatalf("teardown calls = %d, want 1", viz.teardownCalls)
	}
	if !viz.initialized {
		t.Fatal("scene not rebuilt after recovery delay")
	}
	if got := e.smoother.Drive(); got != (audio.Drive{}) {
		t.Fatalf("smoother not reset by rebuild: %+v", got)
	}
}

func TestDeferredInitializeRetries(t *testing.T) {
	viz := &stubViz{deferInit: true}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 0, height: 0})

	e.runFrame()
	e.runFrame()

	if viz.frames != 0 {
		t.Fatal("rendered without an initialized scene")
	}
	if viz.initCalls < 2 {
		t.Fatalf("init calls = %d, want retries", viz.initCalls)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	viz := &stubViz{initialized: true}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480})

	e.Stop()
	e.Stop()

	if e.State() != StateStopped {
		t.Fatalf("state = %v, want StateStopped", e.State())
	}
	if viz.teardownCalls != 1 {
		t.Fatalf("teardown calls = %d, want 1", viz.teardownCalls)
	}
}

func TestTitlePassthrough(t *testing.T) {
	viz := &stubViz{}
	e := newTestEngine(viz, &stubWindow{visible: true, width: 640, height: 480})

	e.SetDisplayTitle("NOW PLAYING")
	if viz.title != "NOW PLAYING" {
		t.Fatalf("title = %q, want %q", viz.title, "NOW PLAYING")
	}
}
