package scene

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/layer"
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/window"
)

// stubWindow satisfies window.Window with a fixed drawable size.
type stubWindow struct {
	width  int
	height int
}

func (s *stubWindow) SetUpdateCallback(func())                   {}
func (s *stubWindow) SetResizeCallback(func(int, int))           {}
func (s *stubWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }
func (s *stubWindow) IsRunning() bool                            { return true }
func (s *stubWindow) Visible() bool                              { return s.width > 0 && s.height > 0 }
func (s *stubWindow) Close() error                               { return nil }
func (s *stubWindow) ProcessMessages()                           {}
func (s *stubWindow) Width() int                                 { return s.width }
func (s *stubWindow) Height() int                                { return s.height }

var _ window.Window = &stubWindow{}

// stubRenderer counts resources the way the real renderer does, without a GPU.
type stubRenderer struct {
	nextID     uint64
	buffers    map[renderer.BufferID]struct{}
	bindGroups map[renderer.BindGroupID]struct{}
	released   bool

	frames     int
	draws      int
	frameErr   error
	failCreate bool
}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{
		buffers:    make(map[renderer.BufferID]struct{}),
		bindGroups: make(map[renderer.BindGroupID]struct{}),
	}
}

func (s *stubRenderer) RegisterPipelines(specs ...renderer.PipelineSpec) error { return nil }
func (s *stubRenderer) HasPipeline(key string) bool                           { return true }
func (s *stubRenderer) Resize(width, height int)                              {}
func (s *stubRenderer) SetPresentMode(mode renderer.PresentMode)              {}

func (s *stubRenderer) CreateBuffer(label string, usage renderer.BufferUsage, size uint64, data []byte) (renderer.BufferID, error) {
	if s.failCreate {
		return 0, errors.New("create refused")
	}
	s.nextID++
	id := renderer.BufferID(s.nextID)
	s.buffers[id] = struct{}{}
	return id, nil
}

func (s *stubRenderer) WriteBuffer(id renderer.BufferID, offset uint64, data []byte) {}

func (s *stubRenderer) ReleaseBuffer(id renderer.BufferID) {
	delete(s.buffers, id)
}

func (s *stubRenderer) CreateBindGroup(label string, pipelineKey string, group int, buffers []renderer.BufferID) (renderer.BindGroupID, error) {
	if s.failCreate {
		return 0, errors.New("create refused")
	}
	s.nextID++
	id := renderer.BindGroupID(s.nextID)
	s.bindGroups[id] = struct{}{}
	return id, nil
}

func (s *stubRenderer) ReleaseBindGroup(id renderer.BindGroupID) {
	delete(s.bindGroups, id)
}

func (s *stubRenderer) BeginFrame() error {
	if s.frameErr != nil {
		return s.frameErr
	}
	s.frames++
	return nil
}

func (s *stubRenderer) Draw(call renderer.DrawCall) error {
	s.draws++
	return nil
}

func (s *stubRenderer) EndFrame() {}
func (s *stubRenderer) Present()  {}

func (s *stubRenderer) LiveResourceCount() int {
	return len(s.buffers) + len(s.bindGroups)
}

func (s *stubRenderer) Release() {
	s.released = true
	s.buffers = make(map[renderer.BufferID]struct{})
	s.bindGroups = make(map[renderer.BindGroupID]struct{})
}

var _ renderer.Renderer = &stubRenderer{}

func newTestVisualizer(r *stubRenderer, options ...VisualizerBuilderOption) Visualizer {
	options = append(options, WithRendererFactory(func(w window.Window) renderer.Renderer {
		return r
	}), WithPointCount(64))
	return NewVisualizer(options...)
}

func TestInitializeIsIdempotent(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)
	w := &stubWindow{width: 640, height: 480}

	if err := v.Initialize(w); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	count := r.LiveResourceCount()

	if err := v.Initialize(w); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if got := r.LiveResourceCount(); got != count {
		t.Fatalf("double initialize changed resource count: %d -> %d", count, got)
	}
}

func TestZeroSizeWindowDefersInitialization(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)
	w := &stubWindow{width: 0, height: 0}

	if err := v.Initialize(w); err != nil {
		t.Fatalf("zero-size initialize should not error: %v", err)
	}
	if v.Initialized() {
		t.Fatal("scene initialized against a zero-size drawable")
	}

	w.width, w.height = 800, 600
	if err := v.Initialize(w); err != nil {
		t.Fatalf("retry initialize: %v", err)
	}
	if !v.Initialized() {
		t.Fatal("scene not initialized after surface gained extent")
	}
}

func TestTeardownReleasesEverythingAndIsIdempotent(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)

	if err := v.Initialize(&stubWindow{width: 640, height: 480}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if r.LiveResourceCount() == 0 {
		t.Fatal("initialize created no resources")
	}

	v.Teardown()
	if got := r.LiveResourceCount(); got != 0 {
		t.Fatalf("live resources after teardown = %d, want 0", got)
	}
	if !r.released {
		t.Fatal("renderer not released on teardown")
	}
	if v.Initialized() {
		t.Fatal("scene still initialized after teardown")
	}

	// Second teardown in a row: nothing to do, nothing to double-free.
	v.Teardown()
}

func TestContextLossRebuildRestoresResourceCount(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)
	w := &stubWindow{width: 640, height: 480}

	if err := v.Initialize(w); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	before := r.LiveResourceCount()

	v.Teardown()
	if err := v.Initialize(w); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}

	if got := r.LiveResourceCount(); got != before {
		t.Fatalf("resource count after rebuild = %d, want %d", got, before)
	}
}

func TestRenderFramePropagatesDeviceLoss(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)

	if err := v.Initialize(&stubWindow{width: 640, height: 480}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	r.frameErr = renderer.ErrDeviceLost
	err := v.RenderFrame(1, 1.0/60.0, audio.Drive{})
	if !errors.Is(err, renderer.ErrDeviceLost) {
		t.Fatalf("err = %v, want ErrDeviceLost", err)
	}
}

func TestRenderFrameDrawsEveryLayer(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r, WithVariant(VariantOrbit), WithDisplayTitle("ORBIT"))

	if err := v.Initialize(&stubWindow{width: 640, height: 480}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := v.RenderFrame(0.5, 1.0/60.0, audio.Drive{Bass: 0.4}); err != nil {
		t.Fatalf("render frame: %v", err)
	}

	// Background, point field, markers, glyph.
	if r.draws != 4 {
		t.Fatalf("draw calls = %d, want 4", r.draws)
	}
	if r.frames != 1 {
		t.Fatalf("frames = %d, want 1", r.frames)
	}
}

func TestRenderFrameWhileTornDownIsNoop(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)

	if err := v.RenderFrame(0, 1.0/60.0, audio.Drive{}); err != nil {
		t.Fatalf("torn-down render frame errored: %v", err)
	}
	if r.frames != 0 {
		t.Fatal("torn-down scene rendered a frame")
	}
}

func TestDisplayTitleSurvivesRebuild(t *testing.T) {
	r := newStubRenderer()
	v := newTestVisualizer(r)
	w := &stubWindow{width: 640, height: 480}

	v.SetDisplayTitle("KEEP ME")
	if err := v.Initialize(w); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	v.Teardown()
	if err := v.Initialize(w); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}

	vi := v.(*visualizer)
	if vi.state.glyph.Title() != "KEEP ME" {
		t.Fatalf("title after rebuild = %q, want %q", vi.state.glyph.Title(), "KEEP ME")
	}
}

func TestInitFailureLeavesNoResources(t *testing.T) {
	r := newStubRenderer()
	r.failCreate = true
	v := newTestVisualizer(r)

	if err := v.Initialize(&stubWindow{width: 640, height: 480}); err == nil {
		t.Fatal("initialize succeeded despite create failures")
	}
	if got := r.LiveResourceCount(); got != 0 {
		t.Fatalf("live resources after failed initialize = %d, want 0", got)
	}
	if v.Initialized() {
		t.Fatal("scene claims initialized after failure")
	}
}

// faultyLayer panics during Advance to exercise the per-layer guard.
type faultyLayer struct{}

func (f *faultyLayer) Kind() layer.Kind { return layer.KindGlowRing }
func (f *faultyLayer) Init(r renderer.Renderer, globals renderer.BufferID) error { return nil }
func (f *faultyLayer) Advance(elapsed, delta float64, drive audio.Drive) {
	panic("malformed layer state")
}
func (f *faultyLayer) Upload(r renderer.Renderer)     {}
func (f *faultyLayer) Draw(r renderer.Renderer) error { return nil }
func (f *faultyLayer) Dispose(r renderer.Renderer)    {}

func TestPanickingLayerDoesNotStopTheFrame(t *testing.T) {
	r := newStubRenderer()
	vi := newTestVisualizer(r).(*visualizer)
	if err := vi.Initialize(&stubWindow{width: 640, height: 480}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Swap one real layer for a panicking one; the rest must still draw.
	vi.state.layers[1] = &faultyLayer{}

	if err := vi.RenderFrame(1, 1.0/60.0, audio.Drive{}); err != nil {
		t.Fatalf("render frame: %v", err)
	}
	if r.frames != 1 {
		t.Fatalf("frames = %d, want 1", r.frames)
	}
	// The faulty layer replaced the point field and the glyph has no mesh
	// yet, so the background and glow ring must still land.
	if r.draws < 2 {
		t.Fatalf("draws = %d, want the surviving layers to draw", r.draws)
	}
}
