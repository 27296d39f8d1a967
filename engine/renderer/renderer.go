package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dlmmedia/nebula/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	pipelines  map[string]*wgpu.RenderPipeline
	buffers    map[BufferID]*wgpu.Buffer
	bindGroups map[BindGroupID]*wgpu.BindGroup

	nextBufferID    BufferID
	nextBindGroupID BindGroupID

	released bool

	// Pre-creation config collected from builder options.
	pendingPresentMode *PresentMode
	sampleCount        MSAASampleCount
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API that owns every GPU resource the scene allocates.
// Resources are referenced through opaque handles so the lifecycle rules of
// the scene — dispose everything exactly once, tolerate double disposal — can
// be enforced and audited here. The Renderer also implements a backend which
// allows for multiple backend API implementations to exist.
type Renderer interface {
	// RegisterPipelines compiles and caches one or more render pipelines.
	// Pipelines whose keys are already registered are skipped to avoid
	// duplicate GPU resource creation.
	//
	// Parameters:
	//   - specs: the pipeline descriptions to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(specs ...PipelineSpec) error

	// HasPipeline reports whether a pipeline is registered under the key.
	//
	// Parameters:
	//   - key: the pipeline key to look up
	//
	// Returns:
	//   - bool: true if the pipeline exists
	HasPipeline(key string) bool

	// Resize configures the underlying backend to handle a new surface size.
	// Never triggers resource recreation beyond the swapchain and MSAA target.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is
	// required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateBuffer creates a GPU buffer and returns its handle. When data is
	// non-nil the buffer is initialized with it; otherwise it is zero-filled
	// at the given size.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - usage: the buffer usage class
	//   - size: buffer size in bytes (ignored when data is non-nil)
	//   - data: optional initial contents
	//
	// Returns:
	//   - BufferID: the handle of the created buffer
	//   - error: an error if buffer creation fails
	CreateBuffer(label string, usage BufferUsage, size uint64, data []byte) (BufferID, error)

	// WriteBuffer writes data into the buffer at the given offset. Unknown
	// handles are ignored.
	//
	// Parameters:
	//   - id: the buffer handle
	//   - offset: byte offset into the buffer
	//   - data: the bytes to write
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// ReleaseBuffer releases the buffer's GPU memory. Releasing an unknown or
	// already-released handle is a no-op; disposal is idempotent by design.
	//
	// Parameters:
	//   - id: the buffer handle
	ReleaseBuffer(id BufferID)

	// CreateBindGroup builds a bind group matching the pipeline's layout at
	// the given group index, binding the buffers in slice order.
	//
	// Parameters:
	//   - label: debug label for the bind group
	//   - pipelineKey: the registered pipeline whose layout to match
	//   - group: the bind group index in the pipeline layout
	//   - buffers: buffer handles to bind, one per binding starting at 0
	//
	// Returns:
	//   - BindGroupID: the handle of the created bind group
	//   - error: an error if the pipeline is unknown or creation fails
	CreateBindGroup(label string, pipelineKey string, group int, buffers []BufferID) (BindGroupID, error)

	// ReleaseBindGroup releases the bind group. Releasing an unknown or
	// already-released handle is a no-op.
	//
	// Parameters:
	//   - id: the bind group handle
	ReleaseBindGroup(id BindGroupID)

	// BeginFrame acquires the swapchain texture and begins the main render
	// pass. Must be paired with EndFrame after all Draw invocations within a
	// single frame.
	//
	// Returns:
	//   - error: ErrDeviceLost if the surface is gone, another error otherwise
	BeginFrame() error

	// Draw encodes a single draw command within the current render pass.
	// Multiple Draw invocations can be made between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - call: the draw call description
	//
	// Returns:
	//   - error: an error if the pipeline or a handle is not found
	Draw(call DrawCall) error

	// EndFrame ends the current render pass and submits the command buffer to
	// the GPU. Does not present the surface — call Present() after EndFrame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain
	// texture. Must be called once per frame after EndFrame.
	Present()

	// LiveResourceCount returns the number of buffers and bind groups
	// currently alive. Teardown is complete exactly when this returns zero.
	//
	// Returns:
	//   - int: the live resource count
	LiveResourceCount() int

	// Release disposes every remaining buffer and bind group, then the
	// surface, device, and adapter. Safe to call more than once.
	Release()
}

// NewRenderer creates a new Renderer with the specified backend type, bound to
// the window's drawable surface. Panics if the backend type is unknown or the
// window has no surface descriptor, since no rendering is possible in either case.
//
// Parameters:
//   - backendType: the RendererBackendType to use
//   - w: the window providing the surface descriptor and initial size
//   - options: functional options for renderer configuration
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		pipelines:   make(map[string]*wgpu.RenderPipeline),
		buffers:     make(map[BufferID]*wgpu.Buffer),
		bindGroups:  make(map[BindGroupID]*wgpu.BindGroup),
		sampleCount: MSAA4x,
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		sd := w.SurfaceDescriptor()
		if sd == nil {
			panic("renderer: window has no surface descriptor")
		}
		r.backend = newWGPURendererBackend(sd, r.sampleCount)
	default:
		panic(fmt.Sprintf("renderer: unknown backend type %d", backendType))
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(w.Width(), w.Height())

	return r
}

func (r *renderer) RegisterPipelines(specs ...PipelineSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, spec := range specs {
		if _, exists := r.pipelines[spec.Key]; exists {
			continue
		}
		p, err := r.backend.CreatePipeline(spec)
		if err != nil {
			return fmt.Errorf("renderer: failed to create pipeline %q: %w", spec.Key, err)
		}
		r.pipelines[spec.Key] = p
	}
	return nil
}

func (r *renderer) HasPipeline(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pipelines[key]
	return ok
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) CreateBuffer(label string, usage BufferUsage, size uint64, data []byte) (BufferID, error) {
	buf, err := r.backend.CreateBuffer(label, usage, size, data)
	if err != nil {
		return 0, fmt.Errorf("renderer: failed to create buffer %q: %w", label, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextBufferID++
	id := r.nextBufferID
	r.buffers[id] = buf
	return id, nil
}

func (r *renderer) WriteBuffer(id BufferID, offset uint64, data []byte) {
	r.mu.Lock()
	buf := r.buffers[id]
	r.mu.Unlock()
	if buf == nil {
		return
	}
	r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) ReleaseBuffer(id BufferID) {
	r.mu.Lock()
	buf := r.buffers[id]
	delete(r.buffers, id)
	r.mu.Unlock()
	if buf != nil {
		buf.Release()
	}
}

func (r *renderer) CreateBindGroup(label string, pipelineKey string, group int, buffers []BufferID) (BindGroupID, error) {
	r.mu.Lock()
	p := r.pipelines[pipelineKey]
	bufs := make([]*wgpu.Buffer, len(buffers))
	for i, id := range buffers {
		bufs[i] = r.buffers[id]
	}
	r.mu.Unlock()

	if p == nil {
		return 0, fmt.Errorf("renderer: unknown pipeline %q", pipelineKey)
	}
	for i, b := range bufs {
		if b == nil {
			return 0, fmt.Errorf("renderer: bind group %q references unknown buffer at binding %d", label, i)
		}
	}

	bg, err := r.backend.CreateBindGroup(label, p, group, bufs)
	if err != nil {
		return 0, fmt.Errorf("renderer: failed to create bind group %q: %w", label, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextBindGroupID++
	id := r.nextBindGroupID
	r.bindGroups[id] = bg
	return id, nil
}

func (r *renderer) ReleaseBindGroup(id BindGroupID) {
	r.mu.Lock()
	bg := r.bindGroups[id]
	delete(r.bindGroups, id)
	r.mu.Unlock()
	if bg != nil {
		bg.Release()
	}
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Draw(call DrawCall) error {
	r.mu.Lock()
	p := r.pipelines[call.PipelineKey]
	vertex := r.buffers[call.Vertex]
	index := r.buffers[call.Index]
	groups := make([]*wgpu.BindGroup, len(call.BindGroups))
	for i, id := range call.BindGroups {
		groups[i] = r.bindGroups[id]
	}
	r.mu.Unlock()

	if p == nil {
		return fmt.Errorf("renderer: unknown pipeline %q", call.PipelineKey)
	}
	for i, g := range groups {
		if g == nil {
			return fmt.Errorf("renderer: draw call for %q references unknown bind group at group %d", call.PipelineKey, i)
		}
	}

	r.backend.Draw(p, vertex, index, call.IndexCount, call.VertexCount, call.InstanceCount, groups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) LiveResourceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers) + len(r.bindGroups)
}

func (r *renderer) Release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true

	bindGroups := r.bindGroups
	buffers := r.buffers
	pipelines := r.pipelines
	r.bindGroups = make(map[BindGroupID]*wgpu.BindGroup)
	r.buffers = make(map[BufferID]*wgpu.Buffer)
	r.pipelines = make(map[string]*wgpu.RenderPipeline)
	r.mu.Unlock()

	for _, bg := range bindGroups {
		bg.Release()
	}
	for _, buf := range buffers {
		buf.Release()
	}
	for _, p := range pipelines {
		p.Release()
	}
	r.backend.ReleaseSurface()
}
