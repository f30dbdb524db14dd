package engine

import (
	"github.com/Carmen-Shannon/oxy-core/engine/session"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithSession sets the session the workers render with. Required.
//
// Parameters:
//   - s: the session
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSession(s session.Session) EngineBuilderOption {
	return func(e *engine) {
		e.session = s
	}
}

// WithWindow presents frames to w. Its resize, content scale and input callbacks are taken over by the engine and
// delivered as events.
//
// Parameters:
//   - w: an opened window whose surface the session was created on
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWorkers appends workers in render order.
func WithWorkers(workers ...RenderWorker) EngineBuilderOption {
	return func(e *engine) {
		e.workers = append(e.workers, workers...)
	}
}

// WithEvents sets an external event source. Events are drained at the start of every frame together with the
// window events.
//
// Parameters:
//   - events: the event channel
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEvents(events <-chan Event) EngineBuilderOption {
	return func(e *engine) {
		e.events = events
	}
}

// WithCapture sets the output of a headless run. With more than one frame each file gets its zero padded frame
// index before the extension. A path without extension gets the extension of the format.
//
// Parameters:
//   - path: the output file path
//   - format: the image format
//   - frames: the number of frames to capture
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCapture(path string, format session.ImageFormat, frames int) EngineBuilderOption {
	return func(e *engine) {
		e.capture = capture{path: path, format: format, frames: frames}
	}
}

// WithProfiling enables or disables frame statistics in the log.
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

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
