// Package storage provides the persistent slot→value store the virtual
// machine executes against: an in-memory store, a transactional write
// overlay, and a SQLite-backed store for durable runs.
package storage

import "github.com/holiman/uint256"

// Store is a persistent mapping from storage slots to 256-bit values.
// Reading a slot that was never written yields zero.
type Store interface {
	Get(slot uint32) (*uint256.Int, error)
	Set(slot uint32, val *uint256.Int) error
}

// MemStore is a map-backed Store. Values are copied on the way in and out,
// so callers may freely mutate what they pass or receive.
type MemStore struct {
	slots map[uint32]*uint256.Int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{slots: make(map[uint32]*uint256.Int)}
}

// Get returns the value at slot, or zero for an unwritten slot.
func (s *MemStore) Get(slot uint32) (*uint256.Int, error) {
	if v, ok := s.slots[slot]; ok {
		return new(uint256.Int).Set(v), nil
	}
	return uint256.NewInt(0), nil
}

// Set writes a value to slot.
func (s *MemStore) Set(slot uint32, val *uint256.Int) error {
	s.slots[slot] = new(uint256.Int).Set(val)
	return nil
}

// Len returns the number of written slots.
func (s *MemStore) Len() int {
	return len(s.slots)
}
