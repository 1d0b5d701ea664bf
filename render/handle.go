package render

// Handle is a Location bound to its pool, holding one refcount unit.
// Put is the only way to give the unit back; copies of a Handle share the
// unit, so exactly one copy may Put.
type Handle[T any] struct {
	pool *Pool[T]
	loc  Location
}

// Loc returns the handle's Location. The zero Location means the handle is
// unset or has been put.
func (h Handle[T]) Loc() Location { return h.loc }

// Valid reports whether the handle still targets a live record.
func (h Handle[T]) Valid() bool {
	return h.pool != nil && h.pool.Valid(h.loc)
}

// Access returns the target record for reading.
func (h Handle[T]) Access() (*T, error) {
	if h.pool == nil {
		return nil, &ErrStaleLocation{Loc: h.loc}
	}
	return h.pool.Access(h.loc)
}

// Modify runs fn against the target record through the pool's write gate.
func (h Handle[T]) Modify(fn func(*T)) error {
	if h.pool == nil {
		return &ErrStaleLocation{Loc: h.loc}
	}
	return h.pool.Modify(h.loc, fn)
}

// Refcount returns the target record's current reference count.
func (h Handle[T]) Refcount() (uint32, error) {
	if h.pool == nil {
		return 0, &ErrStaleLocation{Loc: h.loc}
	}
	return h.pool.Refcount(h.loc)
}

// Put releases the handle's refcount unit and invalidates this copy.
// Putting twice through the same copy panics with ErrUseAfterFree, as does
// putting a handle whose record was torn down underneath it.
func (h *Handle[T]) Put() {
	if h.pool == nil {
		panic(ErrUseAfterFree)
	}
	h.pool.Release(h.loc)
	h.loc = Location{}
}

// ScopedHandle is a Handle whose refcount unit is owned by the enclosing
// scope: the caller defers Release immediately after a successful Alloc or
// ByKey, and the unit is given back on every exit path unless ownership was
// transferred out via ToHandle.
type ScopedHandle[T any] struct {
	Handle[T]
	armed bool
}

// Release gives back the scoped refcount unit. It is a no-op once the
// handle has been put, converted, or already released, which makes it safe
// to defer unconditionally.
func (s *ScopedHandle[T]) Release() {
	if !s.armed {
		return
	}
	s.armed = false
	s.Handle.Put()
}

// Put releases the unit immediately and disarms the scope-exit release.
func (s *ScopedHandle[T]) Put() {
	if !s.armed {
		panic(ErrUseAfterFree)
	}
	s.Release()
}

// ToHandle transfers the scoped refcount unit into a plain Handle and
// disarms the scope-exit release. The conversion is one-way: afterwards
// the ScopedHandle is unset and the returned Handle owns the unit.
func (s *ScopedHandle[T]) ToHandle() Handle[T] {
	if !s.armed {
		return Handle[T]{}
	}
	s.armed = false
	h := s.Handle
	s.Handle.loc = Location{}
	return h
}
