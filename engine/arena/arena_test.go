package arena

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
)

type fakeResource struct {
	id       common.ResourceID
	value    int
	released bool
}

func (r *fakeResource) ID() common.ResourceID      { return r.id }
func (r *fakeResource) SetID(id common.ResourceID) { r.id = id }
func (r *fakeResource) Release()                   { r.released = true }

func TestStore_AddGetTakeBuffer(t *testing.T) {
	device := gputest.NewFakeDevice()
	a := NewArena()

	buf, err := buffer.NewBuffer(device,
		buffer.WithID(7),
		buffer.WithBinding(0),
		buffer.WithSize(64),
		buffer.WithUsage(wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst),
	)
	require.NoError(t, err)

	require.NoError(t, a.Buffers().Add(buf))
	assert.True(t, a.Contains(7))

	got, err := a.Buffers().Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), got.Capacity())
	assert.Equal(t, uint32(0), got.Binding())

	taken, err := a.Buffers().Take(7)
	require.NoError(t, err)
	assert.Same(t, buf, taken)

	_, err = a.Buffers().Get(7)
	var notFound *errs.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, errs.KindBuffer, notFound.Kind)
	assert.Equal(t, common.ResourceID(7), notFound.ID)
	assert.False(t, a.Contains(7))
}

func TestStore_AddRejectsDuplicate(t *testing.T) {
	s := newStore[*fakeResource](errs.KindShader, newIDSet())
	first := &fakeResource{id: 3, value: 1}

	require.NoError(t, s.Add(first))
	err := s.Add(&fakeResource{id: 3, value: 2})

	var dup *errs.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, common.ResourceID(3), dup.ID)

	got, err := s.Get(3)
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.False(t, first.released)
}

func TestStore_Replace(t *testing.T) {
	s := newStore[*fakeResource](errs.KindModel, newIDSet())
	old := &fakeResource{id: 9}
	require.NoError(t, s.Add(old))

	next := &fakeResource{id: 100, value: 5}
	require.NoError(t, s.Replace(9, next))

	assert.True(t, old.released)
	assert.Equal(t, common.ResourceID(9), next.ID())
	got, err := s.Get(9)
	require.NoError(t, err)
	assert.Same(t, next, got)

	missing := &fakeResource{id: 4}
	assert.ErrorIs(t, s.Replace(4, missing), errs.ErrNotFound)
	assert.Equal(t, common.ResourceID(4), missing.ID())
	assert.Equal(t, 1, s.Len())
}

func TestStore_ReplaceWithSameValue(t *testing.T) {
	s := newStore[*fakeResource](errs.KindBuffer, newIDSet())
	r := &fakeResource{id: 5}
	require.NoError(t, s.Add(r))
	ref, err := s.Ref(5)
	require.NoError(t, err)

	require.NoError(t, s.Replace(5, r))

	got, err := s.Get(5)
	require.NoError(t, err)
	assert.Same(t, r, got)
	assert.False(t, r.released)
	_, err = s.Resolve(ref)
	assert.NoError(t, err)
}

func TestArena_ReservationsAreHandedBack(t *testing.T) {
	a := NewArena()

	for range 1000 {
		a.Unreserve(a.GenerateUniqueID())
	}
	assert.Zero(t, a.Reserved())

	id := a.GenerateUniqueID()
	assert.Equal(t, 1, a.Reserved())
	assert.True(t, a.Contains(id))
	buf, err := buffer.NewBuffer(gputest.NewFakeDevice(), buffer.WithID(id), buffer.WithSize(4))
	require.NoError(t, err)
	require.NoError(t, a.Buffers().Add(buf))
	assert.Zero(t, a.Reserved())
	a.Unreserve(id)
	assert.True(t, a.Contains(id))
}

func TestStore_ReplaceDropsReservationOfIncomingID(t *testing.T) {
	ids := newIDSet()
	s := newStore[*fakeResource](errs.KindDepthTexture, ids)
	current := &fakeResource{id: ids.generate()}
	require.NoError(t, s.Add(current))

	for range 100 {
		require.NoError(t, s.Replace(current.ID(), &fakeResource{id: ids.generate()}))
	}

	assert.Zero(t, ids.reservations())
	assert.Equal(t, 1, s.Len())
}

func TestStore_LatestValueWins(t *testing.T) {
	ids := newIDSet()
	stores := []*Store[*fakeResource]{
		newStore[*fakeResource](errs.KindBuffer, ids),
		newStore[*fakeResource](errs.KindPipeline, ids),
	}
	expected := []map[common.ResourceID]int{{}, {}}
	rng := rand.New(rand.NewPCG(1, 2))

	for step := 0; step < 2000; step++ {
		k := rng.IntN(len(stores))
		s, want := stores[k], expected[k]
		id := common.ResourceID(rng.IntN(8) + 1)
		value := rng.Int()

		switch rng.IntN(3) {
		case 0:
			err := s.Add(&fakeResource{id: id, value: value})
			if _, ok := want[id]; ok {
				assert.ErrorIs(t, err, errs.ErrDuplicate)
			} else {
				require.NoError(t, err)
				want[id] = value
			}
		case 1:
			err := s.Replace(id, &fakeResource{value: value})
			if _, ok := want[id]; ok {
				require.NoError(t, err)
				want[id] = value
			} else {
				assert.ErrorIs(t, err, errs.ErrNotFound)
			}
		case 2:
			taken, err := s.Take(id)
			if v, ok := want[id]; ok {
				require.NoError(t, err)
				assert.Equal(t, v, taken.value)
				delete(want, id)
			} else {
				assert.ErrorIs(t, err, errs.ErrNotFound)
			}
		}

		for kind, store := range stores {
			for id := common.ResourceID(1); id <= 8; id++ {
				got, err := store.Get(id)
				if v, ok := expected[kind][id]; ok {
					require.NoError(t, err)
					require.Equal(t, v, got.value)
				} else {
					require.ErrorIs(t, err, errs.ErrNotFound)
				}
			}
			require.Equal(t, len(expected[kind]), store.Len())
		}
	}
}

func TestStore_IDReleasedWhenNoKindHoldsIt(t *testing.T) {
	ids := newIDSet()
	buffers := newStore[*fakeResource](errs.KindBuffer, ids)
	shaders := newStore[*fakeResource](errs.KindShader, ids)

	require.NoError(t, buffers.Add(&fakeResource{id: 5}))
	require.NoError(t, shaders.Add(&fakeResource{id: 5}))

	_, err := buffers.Take(5)
	require.NoError(t, err)
	assert.True(t, ids.contains(5))

	_, err = shaders.Take(5)
	require.NoError(t, err)
	assert.False(t, ids.contains(5))
}

func TestStore_RefGoesStale(t *testing.T) {
	s := newStore[*fakeResource](errs.KindUniform, newIDSet())
	require.NoError(t, s.Add(&fakeResource{id: 2, value: 1}))

	ref, err := s.Ref(2)
	require.NoError(t, err)
	got, err := s.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, 1, got.value)

	require.NoError(t, s.Replace(2, &fakeResource{value: 2}))
	_, err = s.Resolve(ref)
	assert.ErrorIs(t, err, errs.ErrStaleRef)

	ref, err = s.Ref(2)
	require.NoError(t, err)
	_, err = s.Take(2)
	require.NoError(t, err)
	_, err = s.Resolve(ref)
	assert.ErrorIs(t, err, errs.ErrStaleRef)

	_, err = s.Ref(2)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_With(t *testing.T) {
	s := newStore[*fakeResource](errs.KindStorage, newIDSet())
	require.NoError(t, s.Add(&fakeResource{id: 1, value: 42}))

	var seen int
	require.NoError(t, s.With(1, func(r *fakeResource) error {
		seen = r.value
		return nil
	}))
	assert.Equal(t, 42, seen)

	assert.ErrorIs(t, s.With(2, func(*fakeResource) error { return nil }), errs.ErrNotFound)
}

func TestStore_IDsSortedAndRelease(t *testing.T) {
	ids := newIDSet()
	s := newStore[*fakeResource](errs.KindRenderTexture, ids)
	resources := []*fakeResource{{id: 30}, {id: 10}, {id: 20}}
	for _, r := range resources {
		require.NoError(t, s.Add(r))
	}

	assert.Equal(t, []common.ResourceID{10, 20, 30}, s.IDs())

	assert.Equal(t, 3, s.release())
	for _, r := range resources {
		assert.True(t, r.released)
		assert.False(t, ids.contains(r.id))
	}
	assert.Zero(t, s.Len())
}

func TestGenerateUniqueID_NeverCollides(t *testing.T) {
	a := NewArena()

	seen := make(map[common.ResourceID]struct{})
	for i := 0; i < 10000; i++ {
		id := a.GenerateUniqueID()
		require.NotZero(t, id)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestGenerateUniqueID_RetriesOnCollision(t *testing.T) {
	ids := newIDSet()
	draws := []uint64{0, 4, 4, 6, 4, 6, 8}
	ids.draw = func() uint64 {
		next := draws[0]
		draws = draws[1:]
		return next
	}
	s := newStore[*fakeResource](errs.KindBuffer, ids)
	require.NoError(t, s.Add(&fakeResource{id: 6}))

	assert.Equal(t, common.ResourceID(4), ids.generate())
	assert.Equal(t, common.ResourceID(8), ids.generate())
	assert.Empty(t, draws)
}

func TestGenerateUniqueID_Concurrent(t *testing.T) {
	a := NewArena()
	results := make(chan common.ResourceID, 800)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				results <- a.GenerateUniqueID()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[common.ResourceID]struct{})
	for id := range results {
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 800)
}
