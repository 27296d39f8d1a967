package renderer

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrDeviceLost is returned by BeginFrame when the GPU surface texture cannot
// be acquired for a loss-like reason. Callers treat it as a recoverable
// condition: tear the scene down and rebuild it, rather than aborting.
var ErrDeviceLost = errors.New("renderer: device or surface lost")

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// BufferUsage selects the GPU usage flags for a created buffer. All buffers
// additionally carry CopyDst so they can be updated with WriteBuffer.
type BufferUsage int

const (
	// BufferUsageVertex marks a buffer holding per-vertex data.
	BufferUsageVertex BufferUsage = iota

	// BufferUsageIndex marks a buffer holding triangle indices.
	BufferUsageIndex

	// BufferUsageUniform marks a buffer bound as a uniform.
	BufferUsageUniform

	// BufferUsageStorage marks a buffer bound as read-only storage (per-instance data).
	BufferUsageStorage
)

// BlendMode selects the color blend state of a pipeline.
type BlendMode int

const (
	// BlendOpaque writes color without blending.
	BlendOpaque BlendMode = iota

	// BlendAlpha blends with classic source-over alpha.
	BlendAlpha

	// BlendAdditive adds source color to the destination, used by glow layers.
	BlendAdditive
)

// VertexLayout selects the vertex buffer layout of a pipeline.
type VertexLayout int

const (
	// VertexLayoutNone means the pipeline has no vertex buffer; geometry is
	// generated from vertex/instance indices and storage buffers.
	VertexLayoutNone VertexLayout = iota

	// VertexLayoutPosNormal is a 24-byte layout of position (float32x3) at
	// offset 0 and normal (float32x3) at offset 12.
	VertexLayoutPosNormal
)

// Topology selects the primitive topology of a pipeline.
type Topology int

const (
	// TopologyTriangleList draws independent triangles.
	TopologyTriangleList Topology = iota

	// TopologyTriangleStrip draws a connected triangle strip (quads from 4 vertices).
	TopologyTriangleStrip
)

// BindingKind selects the buffer binding type of one slot in a bind group layout.
type BindingKind int

const (
	// BindingUniform is a uniform buffer binding.
	BindingUniform BindingKind = iota

	// BindingStorage is a read-only storage buffer binding.
	BindingStorage
)

// PipelineSpec describes one render pipeline built from embedded WGSL source.
// The source must contain vs_main and fs_main entry points. Groups declares
// the pipeline's bind group layouts: Groups[g][b] is the binding kind of
// @group(g) @binding(b). Every binding is visible to both shader stages.
type PipelineSpec struct {
	Key      string
	Source   string
	Blend    BlendMode
	Vertex   VertexLayout
	Topology Topology
	Groups   [][]BindingKind
}

// BufferID is an opaque handle to a GPU buffer owned by the Renderer.
// The zero value is never a valid handle.
type BufferID uint64

// BindGroupID is an opaque handle to a GPU bind group owned by the Renderer.
// The zero value is never a valid handle.
type BindGroupID uint64

// DrawCall describes one draw command inside a BeginFrame/EndFrame block.
// BindGroups are set in slice order starting at group 0. For indexed draws set
// Index and IndexCount; otherwise VertexCount vertices are drawn directly.
type DrawCall struct {
	PipelineKey   string
	Vertex        BufferID // 0 = no vertex buffer
	Index         BufferID // 0 = non-indexed draw
	IndexCount    uint32
	VertexCount   uint32
	InstanceCount uint32
	BindGroups    []BindGroupID
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

// wgpuRendererBackend is the low-level WebGPU surface of the backend. The
// Renderer front end owns handle bookkeeping and resource counting; the
// backend owns raw wgpu objects.
type wgpuRendererBackend interface {
	// ConfigureSurface (re)configures the swapchain for a new surface size and
	// recreates the MSAA target when enabled. Required on every resize.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next
	// ConfigureSurface call.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreatePipeline compiles the spec's WGSL source and builds the render
	// pipeline with the spec's blend state, vertex layout, and topology.
	//
	// Parameters:
	//   - spec: the pipeline description
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the created pipeline
	//   - error: an error if shader compilation or pipeline creation fails
	CreatePipeline(spec PipelineSpec) (*wgpu.RenderPipeline, error)

	// CreateBuffer creates a GPU buffer with the given usage. When data is
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
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if buffer creation fails
	CreateBuffer(label string, usage BufferUsage, size uint64, data []byte) (*wgpu.Buffer, error)

	// WriteBuffer writes data into the buffer at the given offset via the queue.
	//
	// Parameters:
	//   - buf: the target buffer
	//   - offset: byte offset into the buffer
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// CreateBindGroup builds a bind group for the pipeline's layout at the
	// given group index, binding the buffers in slice order starting at binding 0.
	//
	// Parameters:
	//   - label: debug label for the bind group
	//   - p: the pipeline whose layout the bind group must match
	//   - group: the bind group index in the pipeline layout
	//   - buffers: the buffers to bind, one per binding
	//
	// Returns:
	//   - *wgpu.BindGroup: the created bind group
	//   - error: an error if bind group creation fails
	CreateBindGroup(label string, p *wgpu.RenderPipeline, group int, buffers []*wgpu.Buffer) (*wgpu.BindGroup, error)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: ErrDeviceLost if the surface texture could not be acquired
	BeginFrame() error

	// Draw encodes one draw command in the current render pass.
	//
	// Parameters:
	//   - p: the pipeline to draw with
	//   - vertex: optional vertex buffer
	//   - index: optional index buffer
	//   - indexCount: index count for indexed draws
	//   - vertexCount: vertex count for non-indexed draws
	//   - instanceCount: the number of instances
	//   - bindGroups: bind groups set in order starting at group 0
	Draw(p *wgpu.RenderPipeline, vertex, index *wgpu.Buffer, indexCount, vertexCount, instanceCount uint32, bindGroups []*wgpu.BindGroup)

	// EndFrame ends the render pass and submits the command buffer.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// ReleaseSurface releases swapchain-adjacent resources, the surface, the
	// device, and the adapter. Called exactly once by Renderer.Release.
	ReleaseSurface()
}
