package storage

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
)

func TestMemStoreZeroDefault(t *testing.T) {
	s := NewMemStore()
	v, err := s.Get(42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !v.IsZero() {
		t.Errorf("unwritten slot = %s, want 0", v.Dec())
	}
}

func TestMemStoreCopiesValues(t *testing.T) {
	s := NewMemStore()
	v := uint256.NewInt(5)
	if err := s.Set(0, v); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Mutating the original must not leak into the store.
	v.SetUint64(99)
	got, _ := s.Get(0)
	if got.Uint64() != 5 {
		t.Errorf("slot 0 = %s, want 5", got.Dec())
	}

	// Mutating the returned value must not leak either.
	got.SetUint64(77)
	again, _ := s.Get(0)
	if again.Uint64() != 5 {
		t.Errorf("slot 0 after mutation = %s, want 5", again.Dec())
	}
}

func TestOverlayBuffersWrites(t *testing.T) {
	base := NewMemStore()
	base.Set(0, uint256.NewInt(1))

	o := NewOverlay(base)
	if err := o.Set(0, uint256.NewInt(2)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := o.Set(3, uint256.NewInt(9)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Overlay reads see the buffer; base reads do not.
	v, _ := o.Get(0)
	if v.Uint64() != 2 {
		t.Errorf("overlay slot 0 = %s, want 2", v.Dec())
	}
	v, _ = base.Get(0)
	if v.Uint64() != 1 {
		t.Errorf("base slot 0 = %s, want 1 before commit", v.Dec())
	}
	if !o.Dirty() {
		t.Error("Dirty() = false with buffered writes")
	}
}

func TestOverlayFallsThrough(t *testing.T) {
	base := NewMemStore()
	base.Set(7, uint256.NewInt(21))

	o := NewOverlay(base)
	v, err := o.Get(7)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.Uint64() != 21 {
		t.Errorf("overlay slot 7 = %s, want base value 21", v.Dec())
	}
}

func TestOverlayCommit(t *testing.T) {
	base := NewMemStore()
	o := NewOverlay(base)
	o.Set(0, uint256.NewInt(4))
	o.Set(1, uint256.NewInt(8))

	if err := o.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if o.Dirty() {
		t.Error("Dirty() = true after commit")
	}
	v, _ := base.Get(0)
	if v.Uint64() != 4 {
		t.Errorf("base slot 0 = %s, want 4", v.Dec())
	}
	v, _ = base.Get(1)
	if v.Uint64() != 8 {
		t.Errorf("base slot 1 = %s, want 8", v.Dec())
	}
}

func TestOverlayDiscard(t *testing.T) {
	base := NewMemStore()
	base.Set(0, uint256.NewInt(1))

	o := NewOverlay(base)
	o.Set(0, uint256.NewInt(100))
	o.Discard()

	if o.Dirty() {
		t.Error("Dirty() = true after discard")
	}
	v, _ := base.Get(0)
	if v.Uint64() != 1 {
		t.Errorf("base slot 0 = %s, want 1 after discard", v.Dec())
	}
	v, _ = o.Get(0)
	if v.Uint64() != 1 {
		t.Errorf("overlay slot 0 = %s, want base value 1 after discard", v.Dec())
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	big, err := uint256.FromDecimal("340282366920938463463374607431768211456")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(0, uint256.NewInt(7)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(5, big); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Overwrite
	if err := s.Set(0, uint256.NewInt(8)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify the values survived.
	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	v, err := s.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.Uint64() != 8 {
		t.Errorf("slot 0 = %s, want 8", v.Dec())
	}
	v, err = s.Get(5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !v.Eq(big) {
		t.Errorf("slot 5 = %s, want %s", v.Dec(), big.Dec())
	}
	v, err = s.Get(99)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !v.IsZero() {
		t.Errorf("unwritten slot = %s, want 0", v.Dec())
	}
}
