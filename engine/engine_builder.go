package engine

import (
	"time"

	"github.com/dlmmedia/nebula/engine/audio"
	"github.com/dlmmedia/nebula/engine/scene"
	"github.com/dlmmedia/nebula/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine renders into. Required.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithVisualizer sets the scene the engine drives. Required.
//
// Parameters:
//   - v: a configured Visualizer instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVisualizer(v scene.Visualizer) EngineBuilderOption {
	return func(e *engine) {
		e.viz = v
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithFrameLimit caps the frame loop in frames per second.
// Pass 0 to uncap (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithSmoothing sets the audio drive smoothing coefficient in (0, 1].
// Out-of-range values fall back to the default.
//
// Parameters:
//   - k: the per-frame smoothing coefficient
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSmoothing(k float64) EngineBuilderOption {
	return func(e *engine) {
		e.smoother = audio.NewSmoother(k)
	}
}

// WithRecoveryDelay sets how long the engine waits after a device loss before
// rebuilding the scene.
//
// Parameters:
//   - delay: the rebuild delay (values at or below 0 are ignored)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRecoveryDelay(delay time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if delay > 0 {
			e.recoveryDelay = delay
		}
	}
}
