package render

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned when an operation targets a stale or
	// never-allocated Location. Callers recover by checking Valid first.
	ErrInvalidHandle = errors.New("render: invalid handle")

	// ErrCapacityExceeded is returned by Alloc when a fixed-size pool is
	// full.
	ErrCapacityExceeded = errors.New("render: pool capacity exceeded")

	// ErrUseAfterFree signals a release of a slot that holds no reference,
	// i.e. a broken refcount contract upstream. It is used as a panic
	// value, never returned: double release is a programming error, not a
	// recoverable condition.
	ErrUseAfterFree = errors.New("render: release of unreferenced slot")
)

// ErrStaleLocation indicates an access through a Location whose slot has
// been freed (or was never allocated).
//
// The sentinel ErrInvalidHandle can be matched via errors.Is.
type ErrStaleLocation struct {
	Pool string
	Loc  Location
}

func (e *ErrStaleLocation) Error() string {
	return fmt.Sprintf("stale location %s in pool %q", e.Loc, e.Pool)
}

func (e *ErrStaleLocation) Unwrap() error { return ErrInvalidHandle }

// ErrPoolFull indicates an allocation against a fixed-size pool with no
// free slots left.
//
// The sentinel ErrCapacityExceeded can be matched via errors.Is.
type ErrPoolFull struct {
	Pool     string
	Capacity int
}

func (e *ErrPoolFull) Error() string {
	return fmt.Sprintf("pool %q full: capacity %d", e.Pool, e.Capacity)
}

func (e *ErrPoolFull) Unwrap() error { return ErrCapacityExceeded }
