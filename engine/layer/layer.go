package layer

import (
	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/renderer"
)

// Kind identifies a visual layer type.
type Kind int

const (
	// KindBackground is the opaque backdrop gradient.
	KindBackground Kind = iota

	// KindPointField is the reactive particle field.
	KindPointField

	// KindGlowRing is the bass-dilated glow ring.
	KindGlowRing

	// KindMarkers is the set of orbiting markers.
	KindMarkers

	// KindGlyph is the extruded title glyph mesh.
	KindGlyph
)

// Layer is one visual element of a scene. Layers are driven every frame in a
// fixed order: Advance computes CPU-side animation state, Upload pushes dirty
// state to the GPU, and Draw encodes the layer's draw call. Dispose releases
// every GPU resource the layer created and must be safe to call twice.
//
// Layers never create or present frames themselves; the scene owns frame
// boundaries and calls layers strictly between BeginFrame and EndFrame.
type Layer interface {
	// Kind returns the layer's type.
	//
	// Returns:
	//   - Kind: the layer kind
	Kind() Kind

	// Init creates the layer's GPU resources against the given renderer. The
	// globals buffer holds the shared per-frame uniform block and is bound as
	// group 0 of the layer's pipeline.
	//
	// Parameters:
	//   - r: the renderer to allocate resources on
	//   - globals: the shared globals uniform buffer
	//
	// Returns:
	//   - error: an error if resource creation fails
	Init(r renderer.Renderer, globals renderer.BufferID) error

	// Advance steps the layer's animation state. Pure CPU work; never touches
	// the GPU.
	//
	// Parameters:
	//   - elapsed: seconds since the scene was initialized
	//   - delta: seconds since the previous frame, already clamped
	//   - drive: the smoothed per-band audio drive
	Advance(elapsed, delta float64, drive audio.Drive)

	// Upload pushes state changed by Advance to the GPU.
	//
	// Parameters:
	//   - r: the renderer holding the layer's buffers
	Upload(r renderer.Renderer)

	// Draw encodes the layer's draw call into the current frame.
	//
	// Parameters:
	//   - r: the renderer with an open frame
	//
	// Returns:
	//   - error: an error if a pipeline or resource handle is missing
	Draw(r renderer.Renderer) error

	// Dispose releases the layer's GPU resources. Idempotent.
	//
	// Parameters:
	//   - r: the renderer holding the layer's resources
	Dispose(r renderer.Renderer)
}
