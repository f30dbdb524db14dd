package buffer

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// bufferBuilder collects the parameters of a buffer before it is created on the device.
type bufferBuilder struct {
	id               common.ResourceID
	label            string
	data             []byte
	size             uint64
	usage            wgpu.BufferUsage
	binding          uint32
	mappedAtCreation bool
}

// BufferBuilderOption is a functional option used to configure a Buffer during construction.
type BufferBuilderOption func(*bufferBuilder)

// WithID sets the arena id of the buffer.
//
// Parameters:
//   - id: the id of the buffer
//
// Returns:
//   - BufferBuilderOption: a function that sets the id
func WithID(id common.ResourceID) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.id = id
	}
}

// WithLabel sets the debug label of the buffer.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - BufferBuilderOption: a function that sets the label
func WithLabel(label string) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.label = label
	}
}

// WithData sets the initial contents of the buffer.
//
// Parameters:
//   - data: the initial bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the initial contents
func WithData(data []byte) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.data = data
	}
}

// WithValues sets the initial contents of the buffer from a slice of plain values.
//
// Parameters:
//   - values: plain data values, reinterpreted as bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the initial contents
func WithValues[T any](values []T) BufferBuilderOption {
	data := append([]byte{}, common.SliceToBytes(values)...)
	return WithData(data)
}

// WithSize sets the capacity of the buffer in bytes. The capacity is rounded up to a multiple of 4, the copy
// alignment of WebGPU, and Capacity reports the rounded value.
//
// Parameters:
//   - size: requested capacity in bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the size
func WithSize(size uint64) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.size = size
	}
}

// WithUsage sets the usage flags of the buffer. Defaults to wgpu.BufferUsageVertex.
//
// Parameters:
//   - usage: the usage flags
//
// Returns:
//   - BufferBuilderOption: a function that sets the usage
func WithUsage(usage wgpu.BufferUsage) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.usage = usage
	}
}

// WithBinding sets the binding slot of the buffer.
//
// Parameters:
//   - binding: the binding slot
//
// Returns:
//   - BufferBuilderOption: a function that sets the binding
func WithBinding(binding uint32) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.binding = binding
	}
}

// WithMappedAtCreation creates the buffer mapped for writing. Only used for buffers created without data.
//
// Parameters:
//   - mapped: whether the buffer starts mapped
//
// Returns:
//   - BufferBuilderOption: a function that sets the flag
func WithMappedAtCreation(mapped bool) BufferBuilderOption {
	return func(b *bufferBuilder) {
		b.mappedAtCreation = mapped
	}
}
