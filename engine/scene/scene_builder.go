package scene

import (
	"github.com/dlmmedia/nebula/engine/renderer"
	"github.com/dlmmedia/nebula/engine/window"
)

type VisualizerBuilderOption func(*visualizer)

// WithVariant selects the scene's layer composition.
//
// Parameters:
//   - variant: the scene variant
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the variant
func WithVariant(variant Variant) VisualizerBuilderOption {
	return func(v *visualizer) {
		v.variant = variant
	}
}

// WithDisplayTitle sets the initial glyph title.
//
// Parameters:
//   - title: the title text
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the title
func WithDisplayTitle(title string) VisualizerBuilderOption {
	return func(v *visualizer) {
		v.title = title
	}
}

// WithPointCount sets the particle count of the point field layer.
//
// Parameters:
//   - count: the point count (values below 1 are ignored)
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the point count
func WithPointCount(count int) VisualizerBuilderOption {
	return func(v *visualizer) {
		if count > 0 {
			v.pointCount = count
		}
	}
}

// WithMarkerCount sets the marker count of the orbit variant.
//
// Parameters:
//   - count: the marker count (values below 1 are ignored)
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the marker count
func WithMarkerCount(count int) VisualizerBuilderOption {
	return func(v *visualizer) {
		if count > 0 {
			v.markerCount = count
		}
	}
}

// WithMSAA sets the scene renderer's MSAA sample count.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the sample count
func WithMSAA(count renderer.MSAASampleCount) VisualizerBuilderOption {
	return func(v *visualizer) {
		v.msaa = count
	}
}

// WithPresentMode sets the scene renderer's present mode.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the present mode
func WithPresentMode(mode renderer.PresentMode) VisualizerBuilderOption {
	return func(v *visualizer) {
		v.presentMode = mode
	}
}

// WithRendererFactory overrides how the scene builds its renderer. Used to
// drive the scene lifecycle against a stub renderer in tests.
//
// Parameters:
//   - factory: a function building a renderer for a window
//
// Returns:
//   - VisualizerBuilderOption: a function that sets the factory
func WithRendererFactory(factory func(w window.Window) renderer.Renderer) VisualizerBuilderOption {
	return func(v *visualizer) {
		v.rendererFactory = factory
	}
}
