package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexedSpan struct {
	Number uint32
}

func newIndexedPool(idx *Index) *KeyedPool[uint32, indexedSpan] {
	return NewKeyedPool(idx, "indexed_span", func(s *indexedSpan, k uint32) {
		s.Number = k
	})
}

func TestByKeyDedup(t *testing.T) {
	const key = uint32(42)

	idx := New()
	defer idx.Close()

	pool := newIndexedPool(idx)

	func() {
		span, err := pool.ByKey(key)
		require.NoError(t, err)
		defer span.Release()

		rec, err := span.Access()
		require.NoError(t, err)
		assert.Equal(t, key, rec.Number)
		assert.Equal(t, 1, pool.Size())

		func() {
			same, err := pool.ByKey(key)
			require.NoError(t, err)
			defer same.Release()

			// Same record, not a second allocation.
			assert.Equal(t, span.Loc(), same.Loc())
			assert.Equal(t, 1, pool.Size())

			rc, err := same.Refcount()
			require.NoError(t, err)
			assert.Equal(t, uint32(2), rc)
		}()

		func() {
			other, err := pool.ByKey(key + 1)
			require.NoError(t, err)
			defer other.Release()

			assert.NotEqual(t, span.Loc(), other.Loc())
			assert.Equal(t, 2, pool.Size())

			rec, err := other.Access()
			require.NoError(t, err)
			assert.Equal(t, key+1, rec.Number)
		}()

		assert.Equal(t, 1, pool.Size())
	}()

	assert.Equal(t, 0, pool.Size())
}

func TestByKeyMappingClearedOnFree(t *testing.T) {
	const key = uint32(7)

	idx := New()
	defer idx.Close()

	pool := newIndexedPool(idx)

	span, err := pool.ByKey(key)
	require.NoError(t, err)
	first := span.Loc()
	span.Put()
	assert.Equal(t, 0, pool.Size())

	// The key no longer maps to the freed slot: a fresh record is
	// allocated and reinitialized.
	span, err = pool.ByKey(key)
	require.NoError(t, err)
	defer span.Release()

	assert.NotEqual(t, first, span.Loc())

	rec, err := span.Access()
	require.NoError(t, err)
	assert.Equal(t, key, rec.Number)
	assert.Equal(t, 1, pool.Size())
}

func TestKeyLookup(t *testing.T) {
	const key = uint32(99)

	idx := New()
	defer idx.Close()

	pool := newIndexedPool(idx)

	span, err := pool.ByKey(key)
	require.NoError(t, err)
	loc := span.Loc()

	got, err := pool.Key(loc)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	span.Put()
	_, err = pool.Key(loc)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestKeyedPoolCapacity(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewKeyedPool(idx, "bounded_indexed", func(s *indexedSpan, k uint32) {
		s.Number = k
	}, WithMaxCapacity(1))

	span, err := pool.ByKey(1)
	require.NoError(t, err)
	defer span.Release()

	// A known key still dedups when the pool is full.
	same, err := pool.ByKey(1)
	require.NoError(t, err)
	defer same.Release()

	_, err = pool.ByKey(2)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}
