package codegen

import (
	"strings"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

func init() {
	Register(&nearTarget{})
}

// nearTarget renders each contract as a #[near_bindgen] struct with one
// method per function. The purity classifier decides the receiver shape:
// functions that never write storage, directly or through callees, take
// &self; everything else takes &mut self. Checked arithmetic panics the
// call through env::panic_str, which the runtime turns into a full
// rollback.
type nearTarget struct{}

func (t *nearTarget) Name() string { return "near" }

func (t *nearTarget) Generate(m *ir.Module) (Output, error) {
	e := newEmitter()
	e.line("use near_sdk::borsh::{self, BorshDeserialize, BorshSerialize};")
	e.line("use near_sdk::{env, near_bindgen, AccountId};")

	for _, c := range m.Contracts {
		e.blank()
		if err := t.contract(e, c); err != nil {
			return Output{}, err
		}
	}
	return Output{Text: e.String(), Ext: ".rs"}, nil
}

func (t *nearTarget) contract(e *emitter, c *ir.Contract) error {
	name := exportName(c.Name)

	e.line("#[near_bindgen]")
	e.line("#[derive(Default, BorshDeserialize, BorshSerialize)]")
	e.line("pub struct %s {", name)
	e.indented(func() error {
		for _, f := range c.Fields {
			e.line("%s: %s,", f.Name, nearType(f.Type))
		}
		return nil
	})
	e.line("}")

	mutates := classifyPurity(c)

	e.blank()
	e.line("#[near_bindgen]")
	e.line("impl %s {", name)
	err := e.indented(func() error {
		for i, f := range c.Functions {
			if i > 0 {
				e.blank()
			}
			if err := t.method(e, c, f, mutates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

func (t *nearTarget) method(e *emitter, c *ir.Contract, f *ir.Function, mutates map[string]bool) error {
	recv := "&self"
	if mutates[f.Name] {
		recv = "&mut self"
	}
	var sig strings.Builder
	sig.WriteString("pub fn " + snakeName(f.Name) + "(" + recv)
	for _, p := range f.Params {
		sig.WriteString(", " + p.Name + ": " + nearType(p.Type))
	}
	sig.WriteString(")")
	if f.Result != nil {
		sig.WriteString(" -> " + nearType(*f.Result))
	}
	sig.WriteString(" {")
	e.line("%s", sig.String())
	err := e.indented(func() error {
		body := newRustFn(e, c, f, nearSyntax())
		return body.emitBody()
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

func nearSyntax() rustSyntax {
	return rustSyntax{
		target: "near",
		fieldExpr: func(name string, t ir.Type) string {
			return "self." + name
		},
		fieldStore: func(name string, t ir.Type, val string) string {
			if t == ir.TypeBool {
				return "self." + name + " = " + val + " != 0;"
			}
			return "self." + name + " = " + val + ";"
		},
		checked: func(op, a, b string) string {
			return a + "." + op + "(" + b + ").unwrap_or_else(|| env::panic_str(\"arithmetic overflow\"))"
		},
		call: func(callee, args string) string {
			return "self." + snakeName(callee) + "(" + args + ")"
		},
		ret: func(val string) string {
			if val == "" {
				return "return;"
			}
			return "return " + val + ";"
		},
	}
}

func nearType(t ir.Type) string {
	switch t {
	case ir.TypeBool:
		return "bool"
	case ir.TypeString:
		return "String"
	case ir.TypeAddress:
		return "AccountId"
	default:
		return "u64"
	}
}
