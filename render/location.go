package render

import "fmt"

// SlotIndex is a dense, pool-local index of a record slot.
type SlotIndex uint32

// Generation counts reuses of a slot. It is bumped every time the slot
// transitions from occupied to free, so a Location captured before the
// transition can never alias the slot's next tenant.
type Generation uint32

// Location identifies a potential record in a pool: a slot index plus the
// generation the slot had when the Location was issued. Equality is
// structural.
//
// The zero Location is the "unset" sentinel. Slot generations start at 1,
// so the zero value never matches a live record.
type Location struct {
	Slot SlotIndex
	Gen  Generation
}

// Nil reports whether l is the unset sentinel.
func (l Location) Nil() bool {
	return l.Gen == 0
}

// String returns a string representation of the Location.
func (l Location) String() string {
	if l.Nil() {
		return "Loc(nil)"
	}
	return fmt.Sprintf("Loc(%d@%d)", l.Slot, l.Gen)
}
