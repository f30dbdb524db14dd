package buffer

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// copyAlignment is the size alignment WebGPU requires for buffers written through the queue.
const copyAlignment = 4

// buffer is the implementation of the Buffer interface.
type buffer struct {
	// id is the arena id of this buffer.
	id common.ResourceID
	// label is a debug label, synthesized from the id when not set.
	label string
	// binding is the binding slot this buffer is bound at; vertex slot for vertex buffers, binding index inside a bind group otherwise.
	binding uint32
	// usage holds the usage flags the buffer was created with.
	usage wgpu.BufferUsage
	// capacity is the fixed size in bytes of the buffer.
	capacity uint64

	// handle is the GPU buffer and must be released when no longer needed.
	handle *wgpu.Buffer
}

// Buffer is a fixed-capacity GPU buffer. Its contents change only through byte writes and asynchronous maps;
// it is never resized.
type Buffer interface {
	// ID returns the arena id of this buffer.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the buffer. Used by the arena when replacing a resource.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label returns the debug label of this buffer.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Binding returns the binding slot of this buffer.
	//
	// Returns:
	//   - uint32: the binding slot
	Binding() uint32

	// Usage returns the usage flags the buffer was created with.
	//
	// Returns:
	//   - wgpu.BufferUsage: the usage flags
	Usage() wgpu.BufferUsage

	// Capacity returns the fixed size of the buffer in bytes.
	//
	// Returns:
	//   - uint64: the capacity in bytes
	Capacity() uint64

	// Handle returns the underlying GPU buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the GPU buffer
	Handle() *wgpu.Buffer

	// Release releases the GPU buffer.
	Release()
}

var _ Buffer = &buffer{}

// NewBuffer creates a GPU buffer from the provided options. Either WithData or WithSize must be set.
// When both are set, the data is zero-padded (or truncated) to size. The capacity is rounded up to a multiple of 4.
//
// Parameters:
//   - device: the device used to create the buffer
//   - options: builder options configuring the buffer
//
// Returns:
//   - Buffer: the created buffer
//   - error: a MissingFieldError when neither data nor size is set, or the device error
func NewBuffer(device gpu.Device, options ...BufferBuilderOption) (Buffer, error) {
	b := &bufferBuilder{
		usage: wgpu.BufferUsageVertex,
	}
	for _, opt := range options {
		opt(b)
	}

	if b.data == nil && b.size == 0 {
		return nil, errs.Missing(errs.KindBuffer, errs.FieldData)
	}

	label := common.DefaultLabel(b.label, string(errs.KindBuffer), b.id)
	size := b.size
	if size == 0 {
		size = uint64(len(b.data))
	}
	size = common.AlignUp(size, copyAlignment)

	log.WithFields(log.Fields{
		"label":              label,
		"usage":              b.usage,
		"binding":            b.binding,
		"mapped_at_creation": b.mappedAtCreation,
		"size":               size,
	}).Debug("build buffer")

	var handle *wgpu.Buffer
	var err error
	if b.data != nil {
		contents := make([]byte, size)
		copy(contents, b.data)
		handle, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    label,
			Contents: contents,
			Usage:    b.usage,
		})
	} else {
		handle, err = device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label,
			Size:             size,
			Usage:            b.usage,
			MappedAtCreation: b.mappedAtCreation,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}

	return &buffer{
		id:       b.id,
		label:    label,
		binding:  b.binding,
		usage:    b.usage,
		capacity: size,
		handle:   handle,
	}, nil
}

func (b *buffer) ID() common.ResourceID {
	return b.id
}

func (b *buffer) SetID(id common.ResourceID) {
	b.id = id
}

func (b *buffer) Label() string {
	return b.label
}

func (b *buffer) Binding() uint32 {
	return b.binding
}

func (b *buffer) Usage() wgpu.BufferUsage {
	return b.usage
}

func (b *buffer) Capacity() uint64 {
	return b.capacity
}

func (b *buffer) Handle() *wgpu.Buffer {
	return b.handle
}

func (b *buffer) Release() {
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}
