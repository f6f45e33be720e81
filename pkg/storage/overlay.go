package storage

import (
	"sort"

	"github.com/holiman/uint256"
)

// Overlay buffers writes on top of a base store for the duration of one
// call. Reads see buffered writes first, then fall through to the base.
// Commit applies the buffer to the base in slot order; Discard drops it.
// An aborted call must leave the base untouched, so the VM wraps every
// execution in an overlay and only commits on normal return.
type Overlay struct {
	base   Store
	writes map[uint32]*uint256.Int
}

// NewOverlay creates an empty overlay over base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[uint32]*uint256.Int),
	}
}

// Get returns the buffered value for slot if one exists, otherwise the
// base value.
func (o *Overlay) Get(slot uint32) (*uint256.Int, error) {
	if v, ok := o.writes[slot]; ok {
		return new(uint256.Int).Set(v), nil
	}
	return o.base.Get(slot)
}

// Set buffers a write. The base store is not touched.
func (o *Overlay) Set(slot uint32, val *uint256.Int) error {
	o.writes[slot] = new(uint256.Int).Set(val)
	return nil
}

// Commit applies every buffered write to the base store and clears the
// buffer. If the base rejects a write the overlay stops there and returns
// the error with the remaining writes still buffered.
func (o *Overlay) Commit() error {
	slots := make([]uint32, 0, len(o.writes))
	for slot := range o.writes {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	for _, slot := range slots {
		if err := o.base.Set(slot, o.writes[slot]); err != nil {
			return err
		}
		delete(o.writes, slot)
	}
	return nil
}

// Discard drops every buffered write.
func (o *Overlay) Discard() {
	o.writes = make(map[uint32]*uint256.Int)
}

// Dirty reports whether the overlay holds uncommitted writes.
func (o *Overlay) Dirty() bool {
	return len(o.writes) > 0
}
