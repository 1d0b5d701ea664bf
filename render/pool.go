package render

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

const minGrowth = 16

// slot holds one record plus its bookkeeping. A slot is occupied iff its
// refcount is positive; the generation is bumped on every occupied -> free
// transition.
type slot[T any] struct {
	record   T
	refcount uint32
	gen      Generation
}

// Pool owns the slot arena for one record type: a slice of slots, a
// free-list of unoccupied indices, and an occupancy bitmap driving
// iteration. Size always equals the number of occupied slots; the free-list
// is disjoint from the occupied set.
//
// A Pool is not safe for concurrent use; see the package documentation.
type Pool[T any] struct {
	name   string
	logger *Logger
	stats  StatsCollector

	slots    []slot[T]
	free     []SlotIndex
	occupied *roaring.Bitmap
	size     int
	maxCap   int

	// Reference-field hooks, registered by BindAuto / BindCached.
	postModify []func(*T) error
	destroy    []func(*T)

	// Set by KeyedPool to unlink the key mapping when a slot frees.
	onFree func(SlotIndex)
}

func newPool[T any](name string, logger *Logger, stats StatsCollector, opts ...PoolOption) *Pool[T] {
	po := applyPoolOptions(opts)
	p := &Pool[T]{
		name:     name,
		logger:   logger,
		stats:    stats,
		occupied: roaring.New(),
		maxCap:   po.maxCapacity,
	}
	if po.initialCapacity > 0 {
		p.grow(po.initialCapacity)
	}
	return p
}

// Name returns the pool's declared name.
func (p *Pool[T]) Name() string { return p.name }

// Size returns the number of occupied slots. Key multiplicity never enters
// into it: one record, one slot.
func (p *Pool[T]) Size() int { return p.size }

// Capacity returns the number of slots currently backed by storage.
func (p *Pool[T]) Capacity() int { return len(p.slots) }

// Alloc takes a free slot (growing storage if the pool is not fixed-size),
// sets its refcount to 1 and returns a scoped handle owning that unit.
// The caller is expected to defer the handle's Release.
//
// Fails with ErrCapacityExceeded if the pool is fixed-size and full.
func (p *Pool[T]) Alloc() (*ScopedHandle[T], error) {
	loc, err := p.allocSlot()
	p.stats.RecordAlloc(p.name, err)
	if err != nil {
		p.logger.LogAllocFailed(p.name, err)
		return nil, err
	}
	return &ScopedHandle[T]{
		Handle: Handle[T]{pool: p, loc: loc},
		armed:  true,
	}, nil
}

func (p *Pool[T]) allocSlot() (Location, error) {
	if len(p.free) == 0 {
		if p.maxCap > 0 && len(p.slots) >= p.maxCap {
			return Location{}, &ErrPoolFull{Pool: p.name, Capacity: p.maxCap}
		}
		p.grow(p.growth())
	}
	i := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	s := &p.slots[i]
	s.refcount = 1
	p.occupied.Add(uint32(i))
	p.size++

	return Location{Slot: i, Gen: s.gen}, nil
}

func (p *Pool[T]) growth() int {
	n := len(p.slots)
	if n < minGrowth {
		n = minGrowth
	}
	if p.maxCap > 0 && len(p.slots)+n > p.maxCap {
		n = p.maxCap - len(p.slots)
	}
	return n
}

func (p *Pool[T]) grow(n int) {
	base := len(p.slots)
	p.slots = append(p.slots, make([]slot[T], n)...)
	// Generations start at 1 so the zero Location stays invalid. Free-list
	// is stacked in reverse so low indices are handed out first.
	for i := base + n - 1; i >= base; i-- {
		p.slots[i].gen = 1
		p.free = append(p.free, SlotIndex(i))
	}
	p.logger.LogGrow(p.name, n, len(p.slots))
}

// Valid reports whether loc identifies an occupied slot whose stored
// generation matches. O(1), no side effects.
func (p *Pool[T]) Valid(loc Location) bool {
	if loc.Nil() || int(loc.Slot) >= len(p.slots) {
		return false
	}
	s := &p.slots[loc.Slot]
	return s.refcount > 0 && s.gen == loc.Gen
}

// Acquire increments the refcount of the record at loc.
// It is a no-op returning false if loc is stale.
func (p *Pool[T]) Acquire(loc Location) bool {
	if !p.Valid(loc) {
		return false
	}
	p.slots[loc.Slot].refcount++
	return true
}

// Release decrements the refcount of the record at loc; at zero the record
// is destroyed: reference-field targets are released, the payload is
// cleared, the slot generation is bumped and the index returns to the
// free-list.
//
// Releasing a stale Location panics with ErrUseAfterFree: it means a
// refcount contract was broken upstream.
func (p *Pool[T]) Release(loc Location) {
	if !p.Valid(loc) {
		panic(fmt.Errorf("%w: %s in pool %q", ErrUseAfterFree, loc, p.name))
	}
	s := &p.slots[loc.Slot]
	s.refcount--
	p.stats.RecordRelease(p.name)
	if s.refcount == 0 {
		p.freeSlot(loc.Slot)
	}
}

func (p *Pool[T]) freeSlot(i SlotIndex) {
	s := &p.slots[i]
	for _, hook := range p.destroy {
		hook(&s.record)
	}
	if p.onFree != nil {
		p.onFree(i)
	}
	var zero T
	s.record = zero
	s.gen++
	p.occupied.Remove(uint32(i))
	p.size--
	p.free = append(p.free, i)
}

// Refcount returns the current reference count of the record at loc.
func (p *Pool[T]) Refcount(loc Location) (uint32, error) {
	if !p.Valid(loc) {
		return 0, &ErrStaleLocation{Pool: p.name, Loc: loc}
	}
	return p.slots[loc.Slot].refcount, nil
}

// Access returns the record at loc for reading.
// Field writes must go through Modify instead.
func (p *Pool[T]) Access(loc Location) (*T, error) {
	if !p.Valid(loc) {
		return nil, &ErrStaleLocation{Pool: p.name, Loc: loc}
	}
	return &p.slots[loc.Slot].record, nil
}

// Modify is the sole write gate: it runs fn against the record at loc and
// then, synchronously, the reference-field hooks: auto references are
// recomputed (a no-op when the derived key is unchanged) and cached
// references are marked dirty.
func (p *Pool[T]) Modify(loc Location, fn func(*T)) error {
	rec, err := p.Access(loc)
	if err != nil {
		return err
	}
	fn(rec)
	for _, hook := range p.postModify {
		if err := hook(rec); err != nil {
			return err
		}
	}
	return nil
}

// Each calls fn for every occupied slot, in slot order, until fn returns
// false.
func (p *Pool[T]) Each(fn func(Location, *T) bool) {
	p.occupied.Iterate(func(i uint32) bool {
		s := &p.slots[i]
		return fn(Location{Slot: SlotIndex(i), Gen: s.gen}, &s.record)
	})
}

// clear destroys every occupied slot regardless of outstanding refcounts.
// Index teardown only; handles issued from this pool are invalid afterwards.
func (p *Pool[T]) clear() {
	freed := 0
	for _, i := range p.occupied.ToArray() {
		s := &p.slots[i]
		if s.refcount == 0 {
			// Freed by a destroy hook earlier in this sweep.
			continue
		}
		s.refcount = 0
		p.freeSlot(SlotIndex(i))
		freed++
	}
	p.logger.LogClear(p.name, freed)
}
