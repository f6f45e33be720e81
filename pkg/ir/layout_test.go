package ir

import (
	"reflect"
	"testing"
)

func TestResolveLayoutDeclarationOrder(t *testing.T) {
	c := &Contract{
		Name: "Bank",
		Fields: []*Field{
			{Name: "total", Type: TypeUint},
			{Name: "frozen", Type: TypeBool},
			{Name: "owner", Type: TypeAddress},
		},
	}

	layout := ResolveLayout(c)
	want := map[string]uint32{"total": 0, "frozen": 1, "owner": 2}
	if !reflect.DeepEqual(layout, want) {
		t.Errorf("layout = %v, want %v", layout, want)
	}
	if !reflect.DeepEqual(c.Layout, want) {
		t.Errorf("contract layout = %v, want %v", c.Layout, want)
	}
}

func TestResolveLayoutStable(t *testing.T) {
	c := &Contract{
		Name: "Counter",
		Fields: []*Field{
			{Name: "count", Type: TypeUint},
			{Name: "owner", Type: TypeAddress},
		},
	}

	first := ResolveLayout(c)
	second := ResolveLayout(c)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("layouts differ across runs: %v vs %v", first, second)
	}
}

func TestResolveModuleLayoutsKeepsExisting(t *testing.T) {
	preset := map[string]uint32{"count": 7}
	m := &Module{
		Name: "app",
		Contracts: []*Contract{
			{Name: "A", Fields: []*Field{{Name: "count", Type: TypeUint}}, Layout: preset},
			{Name: "B", Fields: []*Field{{Name: "x", Type: TypeUint}}},
		},
	}

	ResolveModuleLayouts(m)
	if m.Contracts[0].Layout["count"] != 7 {
		t.Errorf("preset layout overwritten: %v", m.Contracts[0].Layout)
	}
	if m.Contracts[1].Layout["x"] != 0 {
		t.Errorf("missing layout not resolved: %v", m.Contracts[1].Layout)
	}
}

func TestReverseLayout(t *testing.T) {
	rev := ReverseLayout(map[string]uint32{"a": 0, "b": 1, "c": 2})
	want := map[uint32]string{0: "a", 1: "b", 2: "c"}
	if !reflect.DeepEqual(rev, want) {
		t.Errorf("ReverseLayout = %v, want %v", rev, want)
	}
}

func TestSortedFieldNames(t *testing.T) {
	names := SortedFieldNames(map[string]uint32{"z": 0, "a": 2, "m": 1})
	want := []string{"z", "m", "a"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("SortedFieldNames = %v, want %v", names, want)
	}
}

func TestUnresolvedFieldErrorMessage(t *testing.T) {
	err := &UnresolvedFieldError{Contract: "Counter", Field: "missing"}
	want := `contract Counter: unresolved storage field "missing"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
