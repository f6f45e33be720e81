package codegen

import (
	"strings"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

func init() {
	Register(&anchorTarget{})
}

// anchorTarget renders each contract as an Anchor program: a #[account]
// state struct, a #[program] module with one thin handler per function
// delegating to an internal do_* function, and one #[derive(Accounts)]
// context struct per handler. Checked arithmetic aborts the instruction
// through the error_code enum.
type anchorTarget struct{}

func (t *anchorTarget) Name() string { return "anchor" }

func (t *anchorTarget) Generate(m *ir.Module) (Output, error) {
	e := newEmitter()
	e.line("use anchor_lang::prelude::*;")
	e.blank()
	e.line("declare_id!(\"11111111111111111111111111111111\");")

	for _, c := range m.Contracts {
		e.blank()
		if err := t.contract(e, c); err != nil {
			return Output{}, err
		}
	}
	return Output{Text: e.String(), Ext: ".rs"}, nil
}

func (t *anchorTarget) contract(e *emitter, c *ir.Contract) error {
	stateName := exportName(c.Name) + "State"

	e.line("#[program]")
	e.line("pub mod %s {", snakeName(c.Name))
	err := e.indented(func() error {
		e.line("use super::*;")
		for _, f := range c.Functions {
			e.blank()
			if err := t.handler(e, c, f, stateName); err != nil {
				return err
			}
		}
		for _, f := range c.Functions {
			e.blank()
			if err := t.logic(e, c, f, stateName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.line("}")

	e.blank()
	e.line("#[account]")
	e.line("pub struct %s {", stateName)
	e.indented(func() error {
		for _, f := range c.Fields {
			e.line("pub %s: %s,", f.Name, anchorType(f.Type))
		}
		return nil
	})
	e.line("}")

	for _, f := range c.Functions {
		e.blank()
		e.line("#[derive(Accounts)]")
		e.line("pub struct %s<'info> {", exportName(f.Name))
		e.indented(func() error {
			e.line("#[account(mut)]")
			e.line("pub state: Account<'info, %s>,", stateName)
			return nil
		})
		e.line("}")
	}

	for _, ev := range c.Events {
		e.blank()
		e.line("#[event]")
		e.line("pub struct %s {", exportName(ev.Name))
		e.indented(func() error {
			for _, p := range ev.Params {
				e.line("pub %s: %s,", p.Name, anchorType(p.Type))
			}
			return nil
		})
		e.line("}")
	}

	e.blank()
	e.line("#[error_code]")
	e.line("pub enum ErrorCode {")
	e.indented(func() error {
		e.line("#[msg(\"arithmetic overflow\")]")
		e.line("Overflow,")
		return nil
	})
	e.line("}")
	return nil
}

// handler emits the public entry point. It only unpacks the context and
// forwards to the do_* function carrying the actual body, so sibling
// calls inside the program stay plain function calls.
func (t *anchorTarget) handler(e *emitter, c *ir.Contract, f *ir.Function, stateName string) error {
	var sig strings.Builder
	sig.WriteString("pub fn " + snakeName(f.Name) + "(ctx: Context<" + exportName(f.Name) + ">")
	for _, p := range f.Params {
		sig.WriteString(", " + p.Name + ": " + anchorType(p.Type))
	}
	sig.WriteString(") -> " + anchorResult(f.Result) + " {")
	e.line("%s", sig.String())
	e.indented(func() error {
		args := "&mut ctx.accounts.state"
		for _, p := range f.Params {
			args += ", " + p.Name
		}
		e.line("do_%s(%s)", snakeName(f.Name), args)
		return nil
	})
	e.line("}")
	return nil
}

func (t *anchorTarget) logic(e *emitter, c *ir.Contract, f *ir.Function, stateName string) error {
	var sig strings.Builder
	sig.WriteString("fn do_" + snakeName(f.Name) + "(state: &mut " + stateName)
	for _, p := range f.Params {
		sig.WriteString(", " + p.Name + ": " + anchorType(p.Type))
	}
	sig.WriteString(") -> " + anchorResult(f.Result) + " {")
	e.line("%s", sig.String())
	err := e.indented(func() error {
		body := newRustFn(e, c, f, anchorSyntax())
		return body.emitBody()
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

func anchorSyntax() rustSyntax {
	return rustSyntax{
		target: "anchor",
		fieldExpr: func(name string, t ir.Type) string {
			return "state." + name
		},
		fieldStore: func(name string, t ir.Type, val string) string {
			if t == ir.TypeBool {
				return "state." + name + " = " + val + " != 0;"
			}
			return "state." + name + " = " + val + ";"
		},
		checked: func(op, a, b string) string {
			return a + "." + op + "(" + b + ").ok_or(error!(ErrorCode::Overflow))?"
		},
		call: func(callee, args string) string {
			if args == "" {
				return "do_" + snakeName(callee) + "(state)?"
			}
			return "do_" + snakeName(callee) + "(state, " + args + ")?"
		},
		ret: func(val string) string {
			if val == "" {
				return "return Ok(());"
			}
			return "return Ok(" + val + ");"
		},
	}
}

func anchorResult(t *ir.Type) string {
	if t == nil {
		return "Result<()>"
	}
	return "Result<" + anchorType(*t) + ">"
}

func anchorType(t ir.Type) string {
	switch t {
	case ir.TypeBool:
		return "bool"
	case ir.TypeString:
		return "String"
	case ir.TypeAddress:
		return "Pubkey"
	default:
		return "u64"
	}
}
