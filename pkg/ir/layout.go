package ir

import (
	"fmt"
	"sort"
)

// UnresolvedFieldError reports a value naming a storage field absent from
// the contract's layout. The frontend must never produce one; backends fail
// with this error instead of silently defaulting to slot 0.
type UnresolvedFieldError struct {
	Contract string
	Field    string
}

func (e *UnresolvedFieldError) Error() string {
	return fmt.Sprintf("contract %s: unresolved storage field %q", e.Contract, e.Field)
}

// ResolveLayout computes the contract's field→slot map: one slot per field,
// assigned in declaration order. The result is stored on the contract and
// returned. Calling it again recomputes the same map, so layouts are stable
// across runs and across compilations of the same contract.
func ResolveLayout(c *Contract) map[string]uint32 {
	layout := make(map[string]uint32, len(c.Fields))
	for i, f := range c.Fields {
		layout[f.Name] = uint32(i)
	}
	c.Layout = layout
	return layout
}

// ResolveModuleLayouts resolves the layout of every contract in the module
// that does not already carry one.
func ResolveModuleLayouts(m *Module) {
	for _, c := range m.Contracts {
		if c.Layout == nil {
			ResolveLayout(c)
		}
	}
}

// ReverseLayout builds a slot→name index from a layout map. Backends that
// render slots back into field names build this once instead of scanning
// the layout per lookup.
func ReverseLayout(layout map[string]uint32) map[uint32]string {
	rev := make(map[uint32]string, len(layout))
	for name, slot := range layout {
		rev[slot] = name
	}
	return rev
}

// SortedFieldNames returns the layout's field names ordered by slot.
func SortedFieldNames(layout map[string]uint32) []string {
	names := make([]string, 0, len(layout))
	for name := range layout {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return layout[names[i]] < layout[names[j]]
	})
	return names
}
