package render

// KeyedPool is a Pool augmented with a key -> Location dedup map: at most
// one occupied slot exists per distinct key, and a key's mapping entry
// exists exactly as long as its slot holds references.
type KeyedPool[K comparable, T any] struct {
	Pool[T]
	byKey map[K]Location
	keys  map[SlotIndex]K
	init  func(*T, K)
}

func newKeyedPool[K comparable, T any](name string, logger *Logger, stats StatsCollector, init func(*T, K), opts ...PoolOption) *KeyedPool[K, T] {
	kp := &KeyedPool[K, T]{
		Pool:  *newPool[T](name, logger, stats, opts...),
		byKey: make(map[K]Location),
		keys:  make(map[SlotIndex]K),
		init:  init,
	}
	// Unlink the key mapping atomically with slot reclamation, so a later
	// ByKey never resurrects stale state.
	kp.Pool.onFree = func(i SlotIndex) {
		if k, ok := kp.keys[i]; ok {
			delete(kp.byKey, k)
			delete(kp.keys, i)
		}
	}
	return kp
}

// ByKey returns a scoped handle for the record deduplicated under k: if k
// maps to a live record, that record is shared (refcount incremented);
// otherwise a fresh record is allocated, initialized with k via the pool's
// init function, and entered into the mapping. Two ByKey calls for one
// outstanding key never allocate twice.
func (kp *KeyedPool[K, T]) ByKey(k K) (*ScopedHandle[T], error) {
	if loc, ok := kp.byKey[k]; ok {
		kp.Pool.Acquire(loc)
		kp.stats.RecordByKey(kp.name, true)
		return &ScopedHandle[T]{
			Handle: Handle[T]{pool: &kp.Pool, loc: loc},
			armed:  true,
		}, nil
	}

	h, err := kp.Pool.Alloc()
	if err != nil {
		return nil, err
	}
	if kp.init != nil {
		rec, _ := kp.Pool.Access(h.loc)
		kp.init(rec, k)
	}
	kp.byKey[k] = h.loc
	kp.keys[h.loc.Slot] = k
	kp.stats.RecordByKey(kp.name, false)
	return h, nil
}

// Key returns the key under which the record at loc was allocated.
func (kp *KeyedPool[K, T]) Key(loc Location) (K, error) {
	var zero K
	if !kp.Pool.Valid(loc) {
		return zero, &ErrStaleLocation{Pool: kp.name, Loc: loc}
	}
	return kp.keys[loc.Slot], nil
}
