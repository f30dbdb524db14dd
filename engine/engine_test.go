package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/session"
	"github.com/Carmen-Shannon/oxy-core/engine/session/sessiontest"
)

type recordingWorker struct {
	mu sync.Mutex

	name  string
	order *[]string

	inits   int
	updates int
	renders int
	sizes   []common.Size
	events  []EventKind

	initErr     error
	renderErr   error
	updatePanic bool
}

func (w *recordingWorker) Init(session.Session) error {
	w.inits++
	return w.initErr
}

func (w *recordingWorker) Update(session.Session, float32) error {
	if w.updatePanic {
		panic("update exploded")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates++
	return nil
}

func (w *recordingWorker) Render(s session.Session) error {
	w.renders++
	if w.order != nil {
		*w.order = append(*w.order, w.name)
	}
	if w.renderErr != nil {
		return w.renderErr
	}
	return s.Render(s.CreateRenderPass())
}

func (w *recordingWorker) Resize(_ session.Session, size common.Size) error {
	w.sizes = append(w.sizes, size)
	return nil
}

func (w *recordingWorker) HandleEvent(_ session.Session, event Event) {
	w.events = append(w.events, event.Kind)
}

func newTestSession(t *testing.T, backend *sessiontest.FakeBackend) session.Session {
	t.Helper()
	s, err := session.NewSession(backend, session.WithSize(common.Size{Width: 4, Height: 4}))
	require.NoError(t, err)
	return s
}

func TestRun_RequiresSession(t *testing.T) {
	err := NewEngine().Run(context.Background())

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindEngine, missing.Resource)
	assert.Equal(t, errs.FieldSession, missing.Field)
}

func TestRun_HeadlessCapture(t *testing.T) {
	backend := sessiontest.NewFakeBackend()
	dir := t.TempDir()
	w := &recordingWorker{}

	e := NewEngine(
		WithSession(newTestSession(t, backend)),
		WithWorkers(w),
		WithCapture(filepath.Join(dir, "frame.png"), session.ImageFormatPNG, 3),
	)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, 1, w.inits)
	assert.Equal(t, 3, w.updates)
	assert.Equal(t, 3, w.renders)
	assert.Len(t, backend.Encoders, 3)
	for _, name := range []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRun_SingleFrameUsesFormatExtension(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(
		WithSession(newTestSession(t, sessiontest.NewFakeBackend())),
		WithWorkers(&recordingWorker{}),
		WithCapture(filepath.Join(dir, "shot"), session.ImageFormatJPEG, 1),
	)
	require.NoError(t, e.Run(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "shot.jpg"))
	assert.NoError(t, err)
}

func TestRun_WorkersRenderInOrder(t *testing.T) {
	var order []string
	a := &recordingWorker{name: "a", order: &order}
	b := &recordingWorker{name: "b", order: &order}

	e := NewEngine(
		WithSession(newTestSession(t, sessiontest.NewFakeBackend())),
		WithWorkers(a),
		WithCapture(filepath.Join(t.TempDir(), "frame.png"), session.ImageFormatPNG, 2),
	)
	e.AddWorker(b)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}

func TestRun_InitErrorStops(t *testing.T) {
	failure := errors.New("no shader")
	w := &recordingWorker{initErr: failure}
	e := NewEngine(WithSession(newTestSession(t, sessiontest.NewFakeBackend())), WithWorkers(w))

	err := e.Run(context.Background())

	assert.ErrorIs(t, err, failure)
	assert.Zero(t, w.renders)
	assert.Zero(t, e.Frames())
}

func TestRun_RecoversUpdatePanic(t *testing.T) {
	w := &recordingWorker{updatePanic: true}
	e := NewEngine(
		WithSession(newTestSession(t, sessiontest.NewFakeBackend())),
		WithWorkers(w),
		WithCapture(filepath.Join(t.TempDir(), "frame.png"), session.ImageFormatPNG, 1),
	)

	err := e.Run(context.Background())

	assert.ErrorIs(t, err, ErrWorkerPanic)
	assert.Zero(t, w.renders)
}

func TestRun_RenderErrorEndsHeadlessRun(t *testing.T) {
	failure := errors.New("pass invalid")
	e := NewEngine(
		WithSession(newTestSession(t, sessiontest.NewFakeBackend())),
		WithWorkers(&recordingWorker{renderErr: failure}),
		WithCapture(filepath.Join(t.TempDir(), "frame.png"), session.ImageFormatPNG, 2),
	)

	assert.ErrorIs(t, e.Run(context.Background()), failure)
	assert.Zero(t, e.Frames())
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(WithSession(newTestSession(t, sessiontest.NewFakeBackend())), WithWorkers(&recordingWorker{}))

	assert.ErrorIs(t, e.Run(ctx), context.Canceled)
	assert.Zero(t, e.Frames())
}

func TestRun_DeliversEvents(t *testing.T) {
	events := make(chan Event, 4)
	events <- Event{Kind: EventResize, Size: common.Size{Width: 64, Height: 32}}
	events <- Event{Kind: EventKeyDown, Key: 65}
	close(events)

	s := newTestSession(t, sessiontest.NewFakeBackend())
	w := &recordingWorker{}
	e := NewEngine(
		WithSession(s),
		WithWorkers(w),
		WithEvents(events),
		WithCapture(filepath.Join(t.TempDir(), "frame.png"), session.ImageFormatPNG, 1),
	)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, common.Size{Width: 64, Height: 32}, s.Size())
	assert.Equal(t, []common.Size{{Width: 64, Height: 32}}, w.sizes)
	assert.Equal(t, []EventKind{EventResize, EventKeyDown}, w.events)
}

func TestHandleFrameError(t *testing.T) {
	backend := sessiontest.NewFakeBackend()
	backend.Surface = true
	e := NewEngine(WithSession(newTestSession(t, backend))).(*engine)
	configured := len(backend.Configured)

	assert.False(t, e.handleFrameError(errors.New("validation failed")))
	assert.Len(t, backend.Configured, configured)

	assert.False(t, e.handleFrameError(errs.ErrSurfaceLost))
	assert.Len(t, backend.Configured, configured+1)
	assert.NoError(t, e.result())

	assert.True(t, e.handleFrameError(errs.ErrOutOfMemory))
	assert.ErrorIs(t, e.result(), errs.ErrOutOfMemory)

	select {
	case <-e.quitChannel:
	case <-time.After(time.Second):
		t.Fatal("quit not signalled")
	}
}

func TestCapturePathFor(t *testing.T) {
	single := capture{path: "out/frame.png", frames: 1}
	assert.Equal(t, "out/frame.png", single.pathFor(0))

	multi := capture{path: "out/frame.png", frames: 12}
	assert.Equal(t, "out/frame_0000.png", multi.pathFor(0))
	assert.Equal(t, "out/frame_0011.png", multi.pathFor(11))

	bare := capture{path: "out/frame", frames: 2}
	assert.Equal(t, "out/frame_0001", bare.pathFor(1))
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "resize", EventResize.String())
	assert.Equal(t, "EventKind(99)", EventKind(99).String())
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, frameDuration(0))
	assert.Equal(t, 20*time.Millisecond, frameDuration(50))
}
