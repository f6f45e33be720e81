// Package codegen translates validated IR modules into each execution
// target. Every target implements the same Generate capability over the
// same IR; output is either text (Yul, Anchor, NEAR, Move) or bytes (QVM
// bytecode).
package codegen

import (
	"fmt"
	"sort"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// Output is the product of one target: text or binary, plus the
// conventional file extension for the artifact.
type Output struct {
	Text   string
	Bytes  []byte
	Binary bool
	Ext    string
}

// Target is one code generator. Generate must be a pure function of the
// module: the same IR always yields byte-identical output.
type Target interface {
	Name() string
	Generate(m *ir.Module) (Output, error)
}

var registry = make(map[string]Target)

// Register adds a target to the registry. Called from each target's init.
func Register(t Target) {
	registry[t.Name()] = t
}

// Lookup returns the target registered under name.
func Lookup(name string) (Target, bool) {
	t, ok := registry[name]
	return t, ok
}

// Targets returns all registered target names, sorted.
func Targets() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate runs the named target over the module after validating it and
// resolving any missing storage layouts.
func Generate(target string, m *ir.Module) (Output, error) {
	t, ok := Lookup(target)
	if !ok {
		return Output{}, fmt.Errorf("codegen: unknown target %q (have %v)", target, Targets())
	}
	if err := m.Validate(); err != nil {
		return Output{}, err
	}
	ir.ResolveModuleLayouts(m)
	return t.Generate(m)
}

// UnsupportedConstructError reports an IR construct a target cannot lower.
// Incomplete target support must surface as this error, never as silently
// truncated output.
type UnsupportedConstructError struct {
	Target    string
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("codegen: target %s: unsupported construct: %s", e.Target, e.Construct)
}

func unsupported(target, format string, args ...interface{}) error {
	return &UnsupportedConstructError{Target: target, Construct: fmt.Sprintf(format, args...)}
}
