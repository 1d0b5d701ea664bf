// Package render implements the runtime storage engine behind the
// schema-driven span data model: fixed-shape record pools accessed through
// reference-counted handles.
//
// The schema compiler emits, per record type, a pool declaration (its
// fields, an optional dedup key, and reference-field bindings); this package
// provides the machinery those declarations instantiate:
//
//   - Pool: a slot arena with free-list reuse and generation stamping.
//     Stale Locations never alias a reused slot.
//   - Handle / ScopedHandle: validity-checked identifiers holding one
//     refcount unit each. A ScopedHandle releases its unit when the caller's
//     deferred Release runs, unless ownership was transferred via ToHandle.
//   - KeyedPool: a pool with a key -> Location dedup map. ByKey shares one
//     record between all outstanding holders of the same key.
//   - Reference fields: manual (caller-managed Location), auto (recomputed
//     eagerly on every modify-gate write) and cached (recomputed lazily on
//     the next read), declared with BindAuto / BindCached.
//   - MetricsStore: time-bucketed aggregation of metric samples keyed by
//     owning span, holding a live reference to each contributing span until
//     its bucket is drained.
//   - Index: the single root container owning every pool and store.
//
// The engine is pure in-memory and performs no I/O. It is not internally
// synchronized: all operations against one Index must come from a single
// logical mutator context. External serialization is a deployment concern.
//
// # Quick start
//
//	idx := render.New()
//	defer idx.Close()
//
//	pool := render.NewPool[Span](idx, "span")
//
//	span, err := pool.Alloc()
//	if err != nil {
//	    return err
//	}
//	defer span.Release()
//
//	if err := span.Modify(func(s *Span) { s.Number = 42 }); err != nil {
//	    return err
//	}
package render
