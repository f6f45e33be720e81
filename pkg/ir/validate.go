package ir

import (
	"errors"
	"fmt"
)

// ErrInvalidModule wraps every validation failure so callers can test for
// the class of error without matching message text.
var ErrInvalidModule = errors.New("invalid IR module")

// Validate checks the structural invariants the backends rely on: every
// function has an entry block, every block ends in exactly one terminator of
// a known kind, every jump names a block that exists, and every instruction
// kind is recognized. The frontend guarantees these hold; the backend fails
// loudly here instead of assuming.
func (m *Module) Validate() error {
	for _, c := range m.Contracts {
		for _, f := range c.Functions {
			if err := validateFunction(c, f); err != nil {
				return fmt.Errorf("%w: contract %s: %v", ErrInvalidModule, c.Name, err)
			}
		}
	}
	return nil
}

func validateFunction(c *Contract, f *Function) error {
	if f.Entry() == nil {
		return fmt.Errorf("function %s has no %q block", f.Name, EntryLabel)
	}

	labels := make(map[string]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		if labels[b.Label] {
			return fmt.Errorf("function %s: duplicate block label %q", f.Name, b.Label)
		}
		labels[b.Label] = true
	}

	for _, b := range f.Blocks {
		for _, ins := range b.Instrs {
			if ins.Kind > InstrCall {
				return fmt.Errorf("function %s: block %s: unknown instruction kind %d", f.Name, b.Label, ins.Kind)
			}
		}
		if b.Term == nil {
			return fmt.Errorf("function %s: block %s has no terminator", f.Name, b.Label)
		}
		switch b.Term.Kind {
		case TermReturn:
			// nothing to check
		case TermJump:
			if !labels[b.Term.Target] {
				return fmt.Errorf("function %s: block %s jumps to undefined label %q", f.Name, b.Label, b.Term.Target)
			}
		case TermBranch:
			if !labels[b.Term.True] {
				return fmt.Errorf("function %s: block %s branches to undefined label %q", f.Name, b.Label, b.Term.True)
			}
			if !labels[b.Term.False] {
				return fmt.Errorf("function %s: block %s branches to undefined label %q", f.Name, b.Label, b.Term.False)
			}
		default:
			return fmt.Errorf("function %s: block %s: unknown terminator kind %d", f.Name, b.Label, b.Term.Kind)
		}
	}
	return nil
}
