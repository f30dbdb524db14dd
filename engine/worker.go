package engine

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/session"
)

// ErrWorkerPanic wraps a panic recovered from a RenderWorker. It stops the frame loop.
var ErrWorkerPanic = errors.New("render worker panicked")

// RenderWorker is the application code the engine drives once per frame. Resources are created through the
// session and kept in its arena; Render records passes with Session.Render against the view the engine opened.
type RenderWorker interface {
	// Init creates the resources of the worker. It runs once before the first frame.
	//
	// Parameters:
	//   - s: the session
	//
	// Returns:
	//   - error: error if a resource could not be built
	Init(s session.Session) error

	// Update advances the worker state and writes buffers. Updates of different workers run concurrently.
	//
	// Parameters:
	//   - s: the session
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: error if a write failed
	Update(s session.Session, deltaTime float32) error

	// Render builds the passes of the frame and submits them with Session.Render.
	//
	// Parameters:
	//   - s: the session, with a live view
	//
	// Returns:
	//   - error: error if a pass could not be validated or submitted
	Render(s session.Session) error

	// Resize rebuilds size dependent resources such as depth textures.
	//
	// Parameters:
	//   - s: the session
	//   - size: the new render target size in pixels
	//
	// Returns:
	//   - error: error if a resource could not be rebuilt
	Resize(s session.Session, size common.Size) error
}

// EventHandler is implemented by workers that consume input events. Events are delivered on the frame goroutine
// before Update.
type EventHandler interface {
	// HandleEvent receives one event.
	//
	// Parameters:
	//   - s: the session
	//   - event: the event
	HandleEvent(s session.Session, event Event)
}

// safely runs fn and turns a panic into an ErrWorkerPanic error.
func safely(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"stage": stage, "panic": r}).Error("recovered from worker panic")
			err = fmt.Errorf("%w during %s: %v", ErrWorkerPanic, stage, r)
		}
	}()
	return fn()
}
