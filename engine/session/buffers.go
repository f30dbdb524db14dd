package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/storage"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/uniform"
)

func (s *session) UpdateUniform(groupID common.ResourceID, name string, offset uint64, data []byte) error {
	return s.arena.Uniforms().With(groupID, func(g uniform.Group) error {
		return s.UpdateUniformDirect(g, name, offset, data)
	})
}

func (s *session) UpdateUniformDirect(group uniform.Group, name string, offset uint64, data []byte) error {
	buf, err := group.Buffer(name)
	if err != nil {
		return err
	}
	return s.UpdateBufferDirect(buf, offset, data)
}

func (s *session) UpdateStorage(groupID common.ResourceID, name string, offset uint64, data []byte) error {
	return s.arena.Storages().With(groupID, func(g storage.Group) error {
		return s.UpdateStorageDirect(g, name, offset, data)
	})
}

func (s *session) UpdateStorageDirect(group storage.Group, name string, offset uint64, data []byte) error {
	buf, err := group.Buffer(name)
	if err != nil {
		return err
	}
	return s.UpdateBufferDirect(buf, offset, data)
}

func (s *session) UpdateBuffer(id common.ResourceID, offset uint64, data []byte) error {
	return s.arena.Buffers().With(id, func(b buffer.Buffer) error {
		return s.UpdateBufferDirect(b, offset, data)
	})
}

func (s *session) UpdateBufferDirect(buf buffer.Buffer, offset uint64, data []byte) error {
	if err := errs.CheckCapacity(buf.Label(), offset, uint64(len(data)), buf.Capacity()); err != nil {
		return err
	}
	if err := errs.CheckAlignment(buf.Label(), offset, uint64(len(data)), wgpu.CopyBufferAlignment); err != nil {
		return err
	}
	if err := s.backend.Device().WriteBuffer(buf.Handle(), offset, data); err != nil {
		return fmt.Errorf("failed to write %q: %w", buf.Label(), err)
	}
	return nil
}

func (s *session) ReadUniform(ctx context.Context, groupID common.ResourceID, name string) ([]byte, error) {
	var data []byte
	err := s.arena.Uniforms().With(groupID, func(g uniform.Group) error {
		var err error
		data, err = s.ReadUniformDirect(ctx, g, name)
		return err
	})
	return data, err
}

func (s *session) ReadUniformDirect(ctx context.Context, group uniform.Group, name string) ([]byte, error) {
	buf, err := group.Buffer(name)
	if err != nil {
		return nil, err
	}
	return s.ReadBufferDirect(ctx, buf)
}

func (s *session) ReadStorageBuffer(ctx context.Context, groupID common.ResourceID, name string) ([]byte, error) {
	var data []byte
	err := s.arena.Storages().With(groupID, func(g storage.Group) error {
		var err error
		data, err = s.ReadStorageBufferDirect(ctx, g, name)
		return err
	})
	return data, err
}

func (s *session) ReadStorageBufferDirect(ctx context.Context, group storage.Group, name string) ([]byte, error) {
	buf, err := group.Buffer(name)
	if err != nil {
		return nil, err
	}
	return s.ReadBufferDirect(ctx, buf)
}

func (s *session) ReadBuffer(ctx context.Context, id common.ResourceID) ([]byte, error) {
	var data []byte
	err := s.arena.Buffers().With(id, func(b buffer.Buffer) error {
		var err error
		data, err = s.ReadBufferDirect(ctx, b)
		return err
	})
	return data, err
}

func (s *session) ReadBufferDirect(ctx context.Context, buf buffer.Buffer) ([]byte, error) {
	if buf.Usage()&wgpu.BufferUsageMapRead != 0 {
		return s.mapRead(ctx, buf.Label(), buf.Handle(), buf.Capacity())
	}

	staging, err := s.stagingBuffer(buf.Capacity())
	if err != nil {
		return nil, err
	}
	staging.mu.Lock()
	defer staging.mu.Unlock()

	enc, err := s.backend.NewEncoder("Read " + buf.Label())
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder for %q: %w", buf.Label(), err)
	}
	defer enc.Release()
	enc.CopyBufferToBuffer(buf.Handle(), 0, staging.buf.Handle(), 0, buf.Capacity())
	if err := enc.Submit(); err != nil {
		return nil, fmt.Errorf("failed to copy %q to staging: %w", buf.Label(), err)
	}
	return s.mapRead(ctx, buf.Label(), staging.buf.Handle(), buf.Capacity())
}

func (s *session) ReadPlainBuffer(ctx context.Context, buf *wgpu.Buffer, size uint64) ([]byte, error) {
	return s.mapRead(ctx, "plain buffer", buf, size)
}

// stagingBuffer is a MAP_READ buffer shared by the readbacks of one capacity. mu is held from the copy into the
// buffer until it is unmapped.
type stagingBuffer struct {
	mu  sync.Mutex
	buf buffer.Buffer
}

// stagingBuffer returns the staging buffer used to read back buffers of the given capacity. Staging buffers are
// kept until the session is released.
func (s *session) stagingBuffer(capacity uint64) (*stagingBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sb, ok := s.staging[capacity]; ok {
		return sb, nil
	}
	buf, err := buffer.NewBuffer(s.backend.Device(),
		buffer.WithLabel(fmt.Sprintf("Staging buffer: %d", capacity)),
		buffer.WithSize(capacity),
		buffer.WithUsage(wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer: %w", err)
	}
	sb := &stagingBuffer{buf: buf}
	s.staging[capacity] = sb
	return sb, nil
}

// mapRead maps the first size bytes of buf, waits for the map to complete and copies the mapped range. A buffer that
// was mapped, or whose map is still pending when ctx is done, is unmapped before mapRead returns.
func (s *session) mapRead(ctx context.Context, label string, buf *wgpu.Buffer, size uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := make(chan wgpu.BufferMapAsyncStatus, 1)
	if err := s.backend.MapRead(buf, size, func(st wgpu.BufferMapAsyncStatus) {
		status <- st
	}); err != nil {
		return nil, &errs.MapError{Label: label, Err: err}
	}
	s.backend.Poll()

	var st wgpu.BufferMapAsyncStatus
	select {
	case st = <-status:
	default:
		select {
		case st = <-status:
		case <-ctx.Done():
			// Unmapping aborts the pending map.
			s.backend.Unmap(buf)
			return nil, ctx.Err()
		}
	}
	if st != wgpu.BufferMapAsyncStatusSuccess {
		return nil, &errs.MapError{Label: label, Status: fmt.Sprint(st)}
	}

	data := s.backend.MappedRange(buf, size)
	s.backend.Unmap(buf)
	return data, nil
}

// UpdateBufferValues writes typed values at offset into the buffer id.
//
// Parameters:
//   - s: the session
//   - id: the arena id of the buffer
//   - offset: the byte offset
//   - values: the values, written in their in-memory layout
//
// Returns:
//   - error: a NotFoundError or a CapacityError
func UpdateBufferValues[T any](s Session, id common.ResourceID, offset uint64, values []T) error {
	return s.UpdateBuffer(id, offset, common.SliceToBytes(values))
}

// ReadBufferValues reads back the buffer id as typed values. Trailing bytes that do not fill a whole T are dropped.
//
// Parameters:
//   - ctx: cancels the wait for the map
//   - s: the session
//   - id: the arena id of the buffer
//
// Returns:
//   - []T: the values
//   - error: a NotFoundError, a MapError or the context error
func ReadBufferValues[T any](ctx context.Context, s Session, id common.ResourceID) ([]T, error) {
	data, err := s.ReadBuffer(ctx, id)
	if err != nil {
		return nil, err
	}
	return common.BytesToSlice[T](data), nil
}

// ReadStorageValues reads back the buffer name of the storage group groupID as typed values.
func ReadStorageValues[T any](ctx context.Context, s Session, groupID common.ResourceID, name string) ([]T, error) {
	data, err := s.ReadStorageBuffer(ctx, groupID, name)
	if err != nil {
		return nil, err
	}
	return common.BytesToSlice[T](data), nil
}
