package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	EventKeyDown EventKind = iota
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventScroll
	// EventResize carries the new framebuffer size in Size.
	EventResize
	// EventScale carries the new content scale in Scale.
	EventScale
)

func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "key down"
	case EventKeyUp:
		return "key up"
	case EventMouseDown:
		return "mouse down"
	case EventMouseUp:
		return "mouse up"
	case EventMouseMove:
		return "mouse move"
	case EventScroll:
		return "scroll"
	case EventResize:
		return "resize"
	case EventScale:
		return "scale"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is an input or window event. Only the fields of its kind are set.
type Event struct {
	Kind EventKind

	Key    uint32
	Button int
	X, Y   int32
	Delta  float32

	Size  common.Size
	Scale float64
}
