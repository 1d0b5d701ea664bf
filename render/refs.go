package render

// Reference fields tie a record in one pool to a deduplicated record in a
// keyed pool. Three policies exist:
//
//   - manual: the record holds a plain Location field; the caller acquires
//     and releases the target symmetrically, exactly as with any Handle.
//   - auto: the record holds an AutoRef; the binding recomputes the target
//     from a derived key synchronously with every modify-gate write.
//   - cached: the record holds a CachedRef; writes only mark it dirty and
//     the recomputation happens on the next Resolve.
//
// Bindings are declared once, at Index construction time, with a pure
// derivation function over the owning record.

// refState is the storage shared by auto and cached references: the held
// Location, the key it was derived from, and whether a target is held at
// all.
type refState[K comparable] struct {
	loc Location
	key K
	set bool
}

// Loc returns the currently referenced Location, or the unset sentinel if
// no target is held.
func (r refState[K]) Loc() Location { return r.loc }

// AutoRef is the storage for an eagerly recomputed reference field.
// Embed one per auto reference in the owning record type.
type AutoRef[K comparable] struct {
	refState[K]
}

// CachedRef is the storage for a lazily recomputed reference field.
// Embed one per cached reference in the owning record type. Loc returns
// the last resolved Location without resolving; use the binding's Resolve
// to refresh a dirty reference.
type CachedRef[K comparable] struct {
	refState[K]
	dirty bool
}

// AutoBinding connects an AutoRef field of R to its target keyed pool.
type AutoBinding[R any, K comparable, T any] struct {
	target *KeyedPool[K, T]
	field  func(*R) *AutoRef[K]
	derive func(*R) (K, bool)
}

// BindAuto declares an auto reference: after every modify-gate write to a
// record of owner, the key is rederived and the reference retargeted
// (releasing the old target and acquiring the new one), unless the derived
// key is unchanged, in which case nothing happens. When the derivation is
// undefined (derive returns false) the reference stays unset and no record
// is allocated.
//
// The held target reference is released when the owning record is
// destroyed.
func BindAuto[R any, K comparable, T any](owner *Pool[R], target *KeyedPool[K, T], field func(*R) *AutoRef[K], derive func(*R) (K, bool)) *AutoBinding[R, K, T] {
	b := &AutoBinding[R, K, T]{target: target, field: field, derive: derive}
	owner.postModify = append(owner.postModify, b.recompute)
	owner.destroy = append(owner.destroy, b.drop)
	return b
}

// Valid reports whether rec's auto reference currently targets a live
// record. Reading never mutates state: recomputation already happened at
// write time.
func (b *AutoBinding[R, K, T]) Valid(rec *R) bool {
	f := b.field(rec)
	return f.set && b.target.Valid(f.loc)
}

// Access returns the referenced target record.
func (b *AutoBinding[R, K, T]) Access(rec *R) (*T, error) {
	return b.target.Access(b.field(rec).loc)
}

func (b *AutoBinding[R, K, T]) recompute(rec *R) error {
	f := b.field(rec)
	k, ok := b.derive(rec)
	if ok == f.set && (!ok || k == f.key) {
		return nil
	}
	return retarget(b.target, &f.refState, k, ok)
}

func (b *AutoBinding[R, K, T]) drop(rec *R) {
	f := b.field(rec)
	if f.set {
		b.target.Release(f.loc)
		*f = AutoRef[K]{}
	}
}

// CachedBinding connects a CachedRef field of R to its target keyed pool.
type CachedBinding[R any, K comparable, T any] struct {
	target *KeyedPool[K, T]
	field  func(*R) *CachedRef[K]
	derive func(*R) (K, bool)
}

// BindCached declares a cached reference: modify-gate writes to the owning
// record only mark the reference dirty; the next Resolve performs the same
// release-old/acquire-new cycle an auto reference would have done at write
// time. Writes between two reads coalesce into a single recomputation.
//
// The held target reference is released when the owning record is
// destroyed.
func BindCached[R any, K comparable, T any](owner *Pool[R], target *KeyedPool[K, T], field func(*R) *CachedRef[K], derive func(*R) (K, bool)) *CachedBinding[R, K, T] {
	b := &CachedBinding[R, K, T]{target: target, field: field, derive: derive}
	owner.postModify = append(owner.postModify, func(rec *R) error {
		b.field(rec).dirty = true
		return nil
	})
	owner.destroy = append(owner.destroy, b.drop)
	return b
}

// Resolve returns the Location of rec's cached reference, first refreshing
// it if a write has happened since the last read. A refresh whose derived
// key is unchanged keeps the current target untouched.
func (b *CachedBinding[R, K, T]) Resolve(rec *R) (Location, error) {
	f := b.field(rec)
	if !f.dirty {
		return f.loc, nil
	}
	k, ok := b.derive(rec)
	if ok != f.set || (ok && k != f.key) {
		if err := retarget(b.target, &f.refState, k, ok); err != nil {
			return Location{}, err
		}
	}
	f.dirty = false
	return f.loc, nil
}

// Valid resolves rec's cached reference and reports whether it targets a
// live record.
func (b *CachedBinding[R, K, T]) Valid(rec *R) (bool, error) {
	loc, err := b.Resolve(rec)
	if err != nil {
		return false, err
	}
	return b.target.Valid(loc), nil
}

// Access resolves rec's cached reference and returns the target record.
func (b *CachedBinding[R, K, T]) Access(rec *R) (*T, error) {
	loc, err := b.Resolve(rec)
	if err != nil {
		return nil, err
	}
	return b.target.Access(loc)
}

func (b *CachedBinding[R, K, T]) drop(rec *R) {
	f := b.field(rec)
	if f.set {
		b.target.Release(f.loc)
		*f = CachedRef[K]{}
	}
}

// retarget swaps the held reference to the record keyed by k (or to unset
// when the derivation is undefined), acquiring the new target before
// releasing the old one.
func retarget[K comparable, T any](target *KeyedPool[K, T], f *refState[K], k K, ok bool) error {
	old := *f
	if ok {
		h, err := target.ByKey(k)
		if err != nil {
			return err
		}
		f.loc = h.ToHandle().Loc()
		f.key = k
		f.set = true
	} else {
		*f = refState[K]{}
	}
	if old.set {
		target.Release(old.loc)
	}
	return nil
}
