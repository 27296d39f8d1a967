package scene

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/dlmmedia/nebula/common"
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/camera"
	"github.com/dlmmedia/nebula/engine/layer"
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/window"
)

// Variant selects the layer composition of the scene.
type Variant int

const (
	// VariantPulse composes the background, point field, glow ring, and title glyph.
	VariantPulse Variant = iota

	// VariantOrbit composes the background, point field, orbiting markers, and title glyph.
	VariantOrbit
)

// globalsBlock mirrors the shared Globals uniform. 96 bytes, written once per frame.
type globalsBlock struct {
	ViewProj [16]float32
	Time     float32
	Bass     float32
	Mid      float32
	High     float32
	Aspect   float32
	Pad0     float32
	Pad1     float32
	Pad2     float32
}

// sceneState holds everything a live scene owns on the GPU. The visualizer
// carries at most one of these; teardown drops the whole struct so a rebuild
// after device loss starts from nothing.
type sceneState struct {
	r       renderer.Renderer
	cam     camera.Camera
	globals renderer.BufferID
	layers  []layer.Layer
	glyph   layer.GlyphMesh

	width  int
	height int
}

type visualizer struct {
	mu *sync.Mutex

	variant     Variant
	title       string
	pointCount  int
	markerCount int
	msaa        renderer.MSAASampleCount
	presentMode renderer.PresentMode

	// rendererFactory builds the renderer for a window. Overridable so the
	// scene lifecycle can be exercised without a GPU.
	rendererFactory func(w window.Window) renderer.Renderer

	state *sceneState

	block globalsBlock
}

// Visualizer owns the visual scene: its renderer, camera, and layer set. It
// can be initialized, resized, torn down, and re-initialized any number of
// times against the same window; a full teardown-and-initialize cycle is the
// recovery path for GPU device loss.
type Visualizer interface {
	// Initialize builds the renderer, pipelines, and every layer for the
	// window. Calling it while initialized is a logged no-op. While the
	// window reports a zero-size drawable the call returns nil without
	// initializing; callers retry once the surface has extent.
	//
	// Parameters:
	//   - w: the window to render into
	//
	// Returns:
	//   - error: an error if any GPU resource fails to build
	Initialize(w window.Window) error

	// Initialized reports whether the scene currently holds GPU state.
	//
	// Returns:
	//   - bool: true if the scene is live
	Initialized() bool

	// Resize propagates a new drawable size to the swapchain and camera.
	// Ignored while uninitialized or when either extent is zero.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// SetDisplayTitle updates the glyph layer's title. Safe in any state;
	// the title is applied on the next initialize when called while torn down.
	//
	// Parameters:
	//   - title: the title text
	SetDisplayTitle(title string)

	// RenderFrame advances every layer and draws one frame.
	//
	// Parameters:
	//   - elapsed: seconds since the scene clock started
	//   - delta: clamped seconds since the previous frame
	//   - drive: the smoothed per-band audio drive
	//
	// Returns:
	//   - error: renderer.ErrDeviceLost when the surface is gone, another
	//     error on draw failure
	RenderFrame(elapsed, delta float64, drive audio.Drive) error

	// Teardown disposes every layer and releases the renderer. Idempotent:
	// a second call in a row does nothing.
	Teardown()

	// Renderer returns the live renderer, or nil while torn down.
	//
	// Returns:
	//   - renderer.Renderer: the renderer or nil
	Renderer() renderer.Renderer
}

var _ Visualizer = &visualizer{}

// NewVisualizer creates a Visualizer in the torn-down state. No GPU work
// happens until Initialize.
//
// Parameters:
//   - options: functional options for scene configuration
//
// Returns:
//   - Visualizer: the newly created visualizer
func NewVisualizer(options ...VisualizerBuilderOption) Visualizer {
	v := &visualizer{
		mu:          &sync.Mutex{},
		variant:     VariantPulse,
		pointCount:  4096,
		markerCount: 12,
		msaa:        renderer.MSAA4x,
		presentMode: renderer.PresentModeVSync,
	}

	for _, opt := range options {
		opt(v)
	}

	if v.rendererFactory == nil {
		v.rendererFactory = func(w window.Window) renderer.Renderer {
			return renderer.NewRenderer(renderer.BackendTypeWGPU, w,
				renderer.WithMSAA(v.msaa),
				renderer.WithPresentMode(v.presentMode),
			)
		}
	}

	return v
}

func (v *visualizer) Initialize(w window.Window) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != nil {
		log.Printf("[Scene] initialize skipped: already initialized")
		return nil
	}

	width, height := w.Width(), w.Height()
	if width <= 0 || height <= 0 {
		// Deferred: a zero-size drawable (minimized window, surface not yet
		// mapped) cannot host a swapchain. Not an error.
		return nil
	}

	r := v.rendererFactory(w)
	if err := r.RegisterPipelines(renderer.LayerPipelineSpecs()...); err != nil {
		r.Release()
		return fmt.Errorf("scene: pipeline registration failed: %w", err)
	}

	cam := camera.NewCamera(
		camera.WithEye(0, 0.4, 6),
		camera.WithAspect(float32(width)/float32(height)),
	)

	v.block = globalsBlock{}
	globals, err := r.CreateBuffer("Scene Globals", renderer.BufferUsageUniform, 0, common.StructToBytes(&v.block))
	if err != nil {
		r.Release()
		return fmt.Errorf("scene: globals buffer failed: %w", err)
	}

	glyph := layer.NewGlyphMesh()
	glyph.SetTitle(v.title)

	var layers []layer.Layer
	switch v.variant {
	case VariantOrbit:
		layers = []layer.Layer{
			layer.NewBackgroundPlane(),
			layer.NewPointField(layer.WithPointCount(v.pointCount)),
			layer.NewOrbitMarkers(layer.WithMarkerCount(v.markerCount)),
			glyph,
		}
	default:
		layers = []layer.Layer{
			layer.NewBackgroundPlane(),
			layer.NewPointField(layer.WithPointCount(v.pointCount)),
			layer.NewGlowRing(),
			glyph,
		}
	}

	for i, l := range layers {
		if err := l.Init(r, globals); err != nil {
			// Unwind the layers that did come up so nothing leaks.
			for j := i; j >= 0; j-- {
				layers[j].Dispose(r)
			}
			r.ReleaseBuffer(globals)
			r.Release()
			return fmt.Errorf("scene: layer %d init failed: %w", i, err)
		}
	}

	v.state = &sceneState{
		r:       r,
		cam:     cam,
		globals: globals,
		layers:  layers,
		glyph:   glyph,
		width:   width,
		height:  height,
	}
	log.Printf("[Scene] initialized: variant %d, %dx%d, %d layers", v.variant, width, height, len(layers))

	return nil
}

func (v *visualizer) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state != nil
}

func (v *visualizer) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == nil || width <= 0 || height <= 0 {
		return
	}
	v.state.width = width
	v.state.height = height
	v.state.r.Resize(width, height)
	v.state.cam.SetAspect(float32(width) / float32(height))
}

func (v *visualizer) SetDisplayTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.title = title
	if v.state != nil {
		v.state.glyph.SetTitle(title)
	}
}

func (v *visualizer) RenderFrame(elapsed, delta float64, drive audio.Drive) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	if s == nil {
		return nil
	}

	// Slow camera sway keeps the field alive during silence.
	s.cam.SetEye(
		float32(math.Sin(elapsed*0.07)*0.8),
		float32(0.4+math.Sin(elapsed*0.05)*0.2),
		6,
	)

	v.block.ViewProj = s.cam.ViewProjectionMatrix()
	v.block.Time = float32(elapsed)
	v.block.Bass = float32(drive.Bass)
	v.block.Mid = float32(drive.Mid)
	v.block.High = float32(drive.High)
	v.block.Aspect = s.cam.Aspect()
	s.r.WriteBuffer(s.globals, 0, common.StructToBytes(&v.block))

	for _, l := range s.layers {
		guardLayer(l, "advance", func() { l.Advance(elapsed, delta, drive) })
	}
	for _, l := range s.layers {
		guardLayer(l, "upload", func() { l.Upload(s.r) })
	}

	if err := s.r.BeginFrame(); err != nil {
		return err
	}
	for _, l := range s.layers {
		guardLayer(l, "draw", func() {
			if err := l.Draw(s.r); err != nil {
				log.Printf("[Scene] draw failed for layer kind %d: %v", l.Kind(), err)
			}
		})
	}
	s.r.EndFrame()
	s.r.Present()

	return nil
}

// guardLayer confines a panic to the one layer that raised it, so the rest of
// the scene still renders this frame.
func guardLayer(l layer.Layer, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scene] layer kind %d skipped: panic during %s: %v", l.Kind(), phase, r)
		}
	}()
	fn()
}

func (v *visualizer) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := v.state
	if s == nil {
		return
	}
	v.state = nil

	// Dispose in reverse draw order, then the shared globals, then the
	// renderer itself. Dispose is idempotent so a partial previous teardown
	// cannot double-free.
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Dispose(s.r)
	}
	s.r.ReleaseBuffer(s.globals)

	if leaked := s.r.LiveResourceCount(); leaked != 0 {
		log.Printf("[Scene] teardown leaked %d resources", leaked)
	}
	s.r.Release()
	log.Printf("[Scene] torn down")
}

func (v *visualizer) Renderer() renderer.Renderer {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == nil {
		return nil
	}
	return v.state.r
}
