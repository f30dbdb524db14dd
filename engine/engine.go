// Package engine runs the frame loop: it drives a set of RenderWorkers against one session, either presenting to a
// window or capturing a fixed number of frames to image files.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/session"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
)

const windowEventBuffer = 256

// capture is the headless output of the engine.
type capture struct {
	path   string
	format session.ImageFormat
	frames int
}

// pathFor returns the file path of frame index. Multi-frame captures get a zero padded index before the extension.
func (c capture) pathFor(index int) string {
	if c.frames <= 1 {
		return c.path
	}
	ext := filepath.Ext(c.path)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(c.path, ext), index, ext)
}

type engine struct {
	mu sync.Mutex

	session session.Session
	window  window.Window
	workers []RenderWorker
	pool    worker.DynamicWorkerPool

	events       <-chan Event
	windowEvents chan Event

	capture capture

	profiler         *profiler.Profiler
	profilingEnabled bool
	renderFrameLimit time.Duration

	frames atomic.Uint64

	quitChannel chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
	err         error
}

// Engine drives RenderWorkers once per frame: events, concurrent updates, view, render and present.
type Engine interface {
	// Session returns the session the workers render with.
	//
	// Returns:
	//   - session.Session: the session
	Session() session.Session

	// Window returns the window frames are presented to, or nil when the engine captures headless.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// AddWorker appends a worker. Workers render in the order they were added.
	//
	// Parameters:
	//   - w: the worker
	AddWorker(w RenderWorker)

	// Workers returns the registered workers.
	//
	// Returns:
	//   - []RenderWorker: the workers in render order
	Workers() []RenderWorker

	// EnableProfiler enables frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second, 0 for uncapped
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames presented so far.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// Run initializes every worker and runs the frame loop. With a window it blocks on the window message loop
	// until the window closes, ctx is done or Quit is called. Without one it captures the configured number of
	// frames and returns.
	//
	// Parameters:
	//   - ctx: stops the loop when done
	//
	// Returns:
	//   - error: the first init error, a fatal device error, a recovered worker panic, or a headless frame error
	Run(ctx context.Context) error

	// Quit stops the frame loop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine. Without a window the engine captures one PNG frame to "capture.png" unless
// WithCapture says otherwise.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		windowEvents: make(chan Event, windowEventBuffer),
		capture:      capture{path: "capture", format: session.ImageFormatPNG, frames: 1},
		profiler:     profiler.NewProfiler(),
		quitChannel:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.bindWindow()
	}
	return e
}

// bindWindow forwards the window callbacks to the frame goroutine as events.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(func(width, height int) {
		e.push(Event{Kind: EventResize, Size: common.Size{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}})
	})
	e.window.SetScaleCallback(func(scale float64) {
		e.push(Event{Kind: EventScale, Scale: scale})
	})
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		e.push(Event{Kind: EventKeyDown, Key: keyCode})
	})
	e.window.SetKeyUpCallback(func(keyCode uint32) {
		e.push(Event{Kind: EventKeyUp, Key: keyCode})
	})
	e.window.SetMouseButtonCallback(func(button int, pressed bool, x, y int32) {
		kind := EventMouseUp
		if pressed {
			kind = EventMouseDown
		}
		e.push(Event{Kind: kind, Button: button, X: x, Y: y})
	})
	e.window.SetMouseMoveCallback(func(x, y int32) {
		e.push(Event{Kind: EventMouseMove, X: x, Y: y})
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.push(Event{Kind: EventScroll, Delta: delta})
	})
}

func (e *engine) push(ev Event) {
	select {
	case e.windowEvents <- ev:
	default:
		log.WithField("event", ev.Kind).Debug("drop window event, buffer full")
	}
}

func (e *engine) Session() session.Session {
	return e.session
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) AddWorker(w RenderWorker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workers = append(e.workers, w)
}

func (e *engine) Workers() []RenderWorker {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RenderWorker(nil), e.workers...)
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

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// fail records the first fatal error and stops the loop.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.signalQuit()
}

func (e *engine) result() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *engine) Run(ctx context.Context) error {
	if e.session == nil {
		return errs.Missing(errs.KindEngine, errs.FieldSession)
	}

	workers := e.Workers()
	for i, w := range workers {
		if err := safely("init", func() error { return w.Init(e.session) }); err != nil {
			return fmt.Errorf("failed to init worker %d: %w", i, err)
		}
	}

	e.pool = worker.NewDynamicWorkerPool(max(len(workers), 1), max(len(workers), 1), time.Second)
	defer e.pool.Stop()

	log.WithFields(log.Fields{
		"session":  e.session.ID(),
		"workers":  len(workers),
		"windowed": e.window != nil,
	}).Debug("run engine")

	if e.window == nil {
		return e.runHeadless(ctx)
	}
	return e.runWindowed(ctx)
}

// runHeadless renders the capture frames back to back. Any frame error ends the run.
func (e *engine) runHeadless(ctx context.Context) error {
	last := time.Now()
	for i := 0; i < max(e.capture.frames, 1); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return e.result()
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if err := e.frame(dt, i); err != nil {
			return err
		}
		e.tickProfiler()
	}
	return nil
}

// runWindowed renders on its own goroutine while the calling goroutine, which owns the window, pumps messages.
func (e *engine) runWindowed(ctx context.Context) error {
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			if err := e.window.Close(); err != nil {
				log.WithError(err).Debug("close window")
			}
		default:
		}
	})

	e.wg.Add(2)
	go e.handleRender()
	go e.handleQuit(ctx)

	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()

	if err := e.window.Close(); err != nil {
		log.WithError(err).Debug("close window")
	}
	return e.result()
}

func (e *engine) handleQuit(ctx context.Context) {
	defer e.wg.Done()
	select {
	case <-ctx.Done():
		e.signalQuit()
	case <-e.quitChannel:
	}
}

func (e *engine) handleRender() {
	defer e.wg.Done()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.frame(dt, 0); err != nil {
			if e.handleFrameError(err) {
				return
			}
		}
		e.tickProfiler()

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handleFrameError decides whether the loop survives err. Transient surface errors reconfigure the surface and
// the frame is retried on the next iteration; fatal errors and worker panics stop the loop.
func (e *engine) handleFrameError(err error) bool {
	switch {
	case errs.IsFatal(err), errors.Is(err, ErrWorkerPanic):
		log.WithError(err).Error("stop frame loop")
		e.fail(err)
		return true
	case errs.IsTransient(err):
		log.WithError(err).Warn("reconfigure surface after transient error")
		if rerr := e.session.Resize(); rerr != nil {
			log.WithError(rerr).Error("failed to reconfigure surface")
		}
		return false
	default:
		log.WithError(err).Error("frame failed")
		return false
	}
}

// frame runs one frame: pending events, concurrent updates, then view, render and present in worker order.
func (e *engine) frame(dt float32, index int) error {
	logger := log.WithFields(log.Fields{"session": e.session.ID(), "frame": uuid.New()})

	e.dispatchEvents()
	if err := e.update(dt); err != nil {
		return err
	}

	if e.window == nil {
		if err := e.session.ViewTexture(e.capture.format, e.capture.pathFor(index)); err != nil {
			return err
		}
	} else if err := e.session.ViewSurface(); err != nil {
		return err
	}

	for i, w := range e.Workers() {
		if err := safely("render", func() error { return w.Render(e.session) }); err != nil {
			return fmt.Errorf("worker %d failed to render: %w", i, err)
		}
	}
	if err := e.session.Present(); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}

	e.frames.Add(1)
	logger.WithField("delta", dt).Trace("present frame")
	return nil
}

// update runs the Update of every worker on the pool and waits for all of them.
func (e *engine) update(dt float32) error {
	workers := e.Workers()
	results := make([]error, len(workers))

	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: dt,
			Do: func() (any, error) {
				defer wg.Done()
				results[i] = safely("update", func() error { return w.Update(e.session, dt) })
				return nil, results[i]
			},
		})
	}
	wg.Wait()

	return errors.Join(results...)
}

func (e *engine) dispatchEvents() {
	for {
		select {
		case ev, ok := <-e.events:
			if !ok {
				e.events = nil
				continue
			}
			e.handleEvent(ev)
		case ev := <-e.windowEvents:
			e.handleEvent(ev)
		default:
			return
		}
	}
}

func (e *engine) handleEvent(ev Event) {
	switch ev.Kind {
	case EventResize:
		e.session.ResizeBySize(ev.Size)
		e.resizeWorkers()
	case EventScale:
		e.session.ResizeByScale(ev.Scale)
		e.resizeWorkers()
	}

	for _, w := range e.Workers() {
		if h, ok := w.(EventHandler); ok {
			h.HandleEvent(e.session, ev)
		}
	}
}

func (e *engine) resizeWorkers() {
	size := e.session.Size()
	for i, w := range e.Workers() {
		if err := safely("resize", func() error { return w.Resize(e.session, size) }); err != nil {
			log.WithError(err).WithField("worker", i).Error("failed to resize worker")
		}
	}
}

func (e *engine) tickProfiler() {
	e.mu.Lock()
	enabled := e.profilingEnabled
	e.mu.Unlock()
	if enabled {
		e.profiler.Tick()
	}
}
