package arena

import (
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
)

// Resource is a GPU resource owned by an arena.
type Resource interface {
	ID() common.ResourceID
	SetID(id common.ResourceID)
	Release()
}

// Ref is a handle to one generation of a store slot. It goes stale once the slot is taken or replaced.
type Ref[T Resource] struct {
	ID         common.ResourceID
	Generation uint64
}

type slot[T Resource] struct {
	value      T
	generation uint64
}

// Store maps ids to the resources of one kind. It is safe for concurrent use.
type Store[T Resource] struct {
	mu         sync.RWMutex
	kind       errs.Kind
	ids        *idSet
	slots      map[common.ResourceID]slot[T]
	generation uint64
}

func newStore[T Resource](kind errs.Kind, ids *idSet) *Store[T] {
	return &Store[T]{
		kind:  kind,
		ids:   ids,
		slots: make(map[common.ResourceID]slot[T]),
	}
}

// Kind returns the resource kind held by the store.
func (s *Store[T]) Kind() errs.Kind {
	return s.kind
}

// Add inserts res under its own id. An id that is already present is rejected and res is left to the caller.
//
// Parameters:
//   - res: the resource, keyed by res.ID()
//
// Returns:
//   - error: a DuplicateError when the id is already present
func (s *Store[T]) Add(res T) error {
	id := res.ID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; ok {
		log.WithFields(log.Fields{"kind": s.kind, "id": id}).Warn("reject add of existing id")
		return &errs.DuplicateError{Kind: s.kind, ID: id}
	}
	s.generation++
	s.slots[id] = slot[T]{value: res, generation: s.generation}
	s.ids.register(id)
	return nil
}

// Replace swaps the resource held under id for res, re-keys res to id and releases the previous resource. The id
// res was built with is no longer reserved afterwards. Replacing a resource with itself changes nothing.
//
// Parameters:
//   - id: the id of the slot
//   - res: the new resource
//
// Returns:
//   - error: a NotFoundError when the id is absent, in which case nothing changes
func (s *Store[T]) Replace(id common.ResourceID, res T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.slots[id]
	if !ok {
		log.WithFields(log.Fields{"kind": s.kind, "id": id}).Warn("reject replace of missing id")
		return errs.NotFound(s.kind, id)
	}
	if any(old.value) == any(res) {
		return nil
	}
	if prev := res.ID(); prev != id {
		s.ids.unreserve(prev)
	}
	res.SetID(id)
	s.generation++
	s.slots[id] = slot[T]{value: res, generation: s.generation}
	old.value.Release()
	return nil
}

// Get returns the resource held under id.
//
// Parameters:
//   - id: the id of the resource
//
// Returns:
//   - T: the resource
//   - error: a NotFoundError when the id is absent
func (s *Store[T]) Get(id common.ResourceID) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[id]
	if !ok {
		var zero T
		return zero, errs.NotFound(s.kind, id)
	}
	return sl.value, nil
}

// With calls fn with the resource held under id. The store stays read locked until fn returns, so fn must not
// add, replace or take resources of the same kind.
//
// Parameters:
//   - id: the id of the resource
//   - fn: the function borrowing the resource
//
// Returns:
//   - error: a NotFoundError when the id is absent, otherwise the error of fn
func (s *Store[T]) With(id common.ResourceID, fn func(T) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[id]
	if !ok {
		return errs.NotFound(s.kind, id)
	}
	return fn(sl.value)
}

// Ref returns a handle to the current generation of the slot under id.
func (s *Store[T]) Ref(id common.ResourceID) (Ref[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[id]
	if !ok {
		return Ref[T]{}, errs.NotFound(s.kind, id)
	}
	return Ref[T]{ID: id, Generation: sl.generation}, nil
}

// Resolve returns the resource a handle points to.
//
// Parameters:
//   - ref: a handle returned by Ref
//
// Returns:
//   - T: the resource
//   - error: ErrStaleRef when the slot was taken or replaced after the handle was issued
func (s *Store[T]) Resolve(ref Ref[T]) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	sl, ok := s.slots[ref.ID]
	if !ok || sl.generation != ref.Generation {
		return zero, fmt.Errorf("%s %d: %w", s.kind, ref.ID, errs.ErrStaleRef)
	}
	return sl.value, nil
}

// Take removes the resource held under id and hands it to the caller, who becomes responsible for releasing it.
//
// Parameters:
//   - id: the id of the resource
//
// Returns:
//   - T: the removed resource
//   - error: a NotFoundError when the id is absent
func (s *Store[T]) Take(id common.ResourceID) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		var zero T
		return zero, errs.NotFound(s.kind, id)
	}
	delete(s.slots, id)
	s.ids.unregister(id)
	return sl.value, nil
}

// Len returns the number of resources in the store.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// IDs returns the ids held by the store in ascending order.
func (s *Store[T]) IDs() []common.ResourceID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]common.ResourceID, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Store[T]) release() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.slots)
	for id, sl := range s.slots {
		sl.value.Release()
		s.ids.unregister(id)
	}
	s.slots = make(map[common.ResourceID]slot[T])
	return n
}
