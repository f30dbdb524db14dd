package buffer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
)

func TestNewBuffer_RequiresDataOrSize(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewBuffer(device, WithID(1))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindBuffer, missing.Resource)
	assert.Equal(t, errs.FieldData, missing.Field)
	assert.Empty(t, device.Buffers, "no device call before validation")
}

func TestNewBuffer_DefaultLabelAndUsage(t *testing.T) {
	device := gputest.NewFakeDevice()

	b, err := NewBuffer(device, WithID(7), WithSize(64))
	require.NoError(t, err)

	assert.Equal(t, "Buffer: 7", b.Label())
	assert.Equal(t, wgpu.BufferUsageVertex, b.Usage())
	assert.Equal(t, uint64(64), b.Capacity())
	assert.Equal(t, uint32(0), b.Binding())
	require.Len(t, device.Buffers, 1)
	assert.Equal(t, "Buffer: 7", device.Buffers[0].Label)
}

func TestNewBuffer_DataPaddedToSize(t *testing.T) {
	device := gputest.NewFakeDevice()

	b, err := NewBuffer(device,
		WithLabel("uniforms"),
		WithData([]byte{1, 2, 3}),
		WithSize(16),
		WithUsage(wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst),
		WithBinding(2),
	)
	require.NoError(t, err)

	assert.Equal(t, uint64(16), b.Capacity())
	assert.Equal(t, uint32(2), b.Binding())
	contents := device.Contents(b.Handle())
	require.Len(t, contents, 16)
	assert.Equal(t, []byte{1, 2, 3, 0}, contents[:4])
}

func TestNewBuffer_ValuesAlignedToFourBytes(t *testing.T) {
	device := gputest.NewFakeDevice()

	b, err := NewBuffer(device, WithValues([]uint16{1, 2, 3}))
	require.NoError(t, err)

	assert.Equal(t, uint64(8), b.Capacity())
}

func TestNewBuffer_RoundsSizeUp(t *testing.T) {
	device := gputest.NewFakeDevice()

	b, err := NewBuffer(device, WithSize(10))
	require.NoError(t, err)

	assert.Equal(t, uint64(12), b.Capacity())
	require.Len(t, device.Buffers, 1)
	assert.Equal(t, uint64(12), device.Buffers[0].Size)
}

func TestNewBuffer_DeviceError(t *testing.T) {
	device := gputest.NewFakeDevice()
	device.Fail = true

	_, err := NewBuffer(device, WithSize(4))

	assert.ErrorIs(t, err, gputest.ErrInjected)
}
