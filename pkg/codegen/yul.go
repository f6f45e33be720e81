package codegen

import (
	"fmt"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// yulTarget lowers a module to Yul: one object per contract with a
// constructor section and a runtime section whose dispatcher matches the
// caller's 4-byte selector against a switch table. Storage reads and writes
// address slots directly; checked arithmetic goes through helper functions
// emitted once per object.
type yulTarget struct{}

func init() { Register(&yulTarget{}) }

func (t *yulTarget) Name() string { return "yul" }

func (t *yulTarget) Generate(m *ir.Module) (Output, error) {
	e := newEmitter()
	for i, c := range m.Contracts {
		if i > 0 {
			e.blank()
		}
		if err := t.contract(e, c); err != nil {
			return Output{}, err
		}
	}
	return Output{Text: e.String(), Ext: ".yul"}, nil
}

func (t *yulTarget) contract(e *emitter, c *ir.Contract) error {
	e.line("object %q {", c.Name)
	err := e.indented(func() error {
		e.line("code {")
		if err := e.indented(func() error {
			return t.constructor(e, c)
		}); err != nil {
			return err
		}
		e.line("}")
		e.line("object \"runtime\" {")
		if err := e.indented(func() error {
			e.line("code {")
			if err := e.indented(func() error {
				return t.runtime(e, c)
			}); err != nil {
				return err
			}
			e.line("}")
			return nil
		}); err != nil {
			return err
		}
		e.line("}")
		return nil
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

// constructor stores each field initializer into its slot and deploys the
// runtime object.
func (t *yulTarget) constructor(e *emitter, c *ir.Contract) error {
	for _, f := range c.Fields {
		if f.Init == nil {
			continue
		}
		slot, ok := c.Layout[f.Name]
		if !ok {
			return &ir.UnresolvedFieldError{Contract: c.Name, Field: f.Name}
		}
		if f.Init.Kind != ir.ValConst {
			return unsupported("yul", "non-constant initializer for field %s", f.Name)
		}
		e.line("sstore(%d, %s)", slot, f.Init.Lit)
	}
	e.line("datacopy(0, dataoffset(\"runtime\"), datasize(\"runtime\"))")
	e.line("return(0, datasize(\"runtime\"))")
	return nil
}

func (t *yulTarget) runtime(e *emitter, c *ir.Contract) error {
	// Selector dispatcher: no match falls through to an abort with no
	// output.
	e.line("switch shr(224, calldataload(0))")
	for _, f := range c.Functions {
		sel := Selector(f)
		e.line("case 0x%02x%02x%02x%02x {", sel[0], sel[1], sel[2], sel[3])
		if err := e.indented(func() error {
			args := ""
			for i := range f.Params {
				e.line("let arg%d := calldataload(%d)", i, 4+32*i)
				if i > 0 {
					args += ", "
				}
				args += fmt.Sprintf("arg%d", i)
			}
			if f.Result != nil {
				e.line("mstore(0, fn_%s(%s))", f.Name, args)
				e.line("return(0, 32)")
			} else {
				e.line("fn_%s(%s)", f.Name, args)
				e.line("return(0, 0)")
			}
			return nil
		}); err != nil {
			return err
		}
		e.line("}")
	}
	e.line("default { revert(0, 0) }")
	e.blank()

	t.checkedHelpers(e)

	for _, f := range c.Functions {
		e.blank()
		if err := t.function(e, c, f); err != nil {
			return err
		}
	}
	return nil
}

// checkedHelpers emits the overflow-safe arithmetic routines once per
// object. checked_add fails when the sum is less than either operand,
// checked_sub when the minuend is less than the subtrahend, checked_mul
// when dividing the product by a nonzero multiplicand does not recover the
// multiplier, checked_div on a zero divisor (bare div would yield 0).
func (t *yulTarget) checkedHelpers(e *emitter) {
	e.line("function checked_add(a, b) -> r {")
	e.line(indentUnit + "r := add(a, b)")
	e.line(indentUnit + "if lt(r, a) { revert(0, 0) }")
	e.line("}")
	e.line("function checked_sub(a, b) -> r {")
	e.line(indentUnit + "if lt(a, b) { revert(0, 0) }")
	e.line(indentUnit + "r := sub(a, b)")
	e.line("}")
	e.line("function checked_mul(a, b) -> r {")
	e.line(indentUnit + "r := mul(a, b)")
	e.line(indentUnit + "if iszero(or(iszero(a), eq(div(r, a), b))) { revert(0, 0) }")
	e.line("}")
	e.line("function checked_div(a, b) -> r {")
	e.line(indentUnit + "if iszero(b) { revert(0, 0) }")
	e.line(indentUnit + "r := div(a, b)")
	e.line("}")
}

func (t *yulTarget) function(e *emitter, c *ir.Contract, f *ir.Function) error {
	fn := &yulFn{contract: c, fn: f, e: e}

	params := ""
	for i, p := range f.Params {
		if i > 0 {
			params += ", "
		}
		params += p.Name
	}
	if f.Result != nil {
		e.line("function fn_%s(%s) -> ret {", f.Name, params)
	} else {
		e.line("function fn_%s(%s) {", f.Name, params)
	}

	err := e.indented(func() error {
		// One local per register, declared up front.
		for r := uint32(0); r < f.NextRegister; r++ {
			e.line("let r%d := 0", r)
		}
		for _, name := range namedLocals(f) {
			e.line("let %s := 0", name)
		}

		tree, err := stackify(f)
		if err != nil {
			return err
		}
		return fn.emitNodes(tree)
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

type yulFn struct {
	contract *ir.Contract
	fn       *ir.Function
	e        *emitter
}

func (y *yulFn) emitNodes(nodes []stNode) error {
	for _, n := range nodes {
		if err := y.emitNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (y *yulFn) emitNode(n stNode) error {
	e := y.e
	switch node := n.(type) {
	case *stInstrs:
		for _, ins := range node.block.Instrs {
			if err := y.emitInstr(ins); err != nil {
				return err
			}
		}
		return nil

	case *stIf:
		cond, err := y.value(node.cond)
		if err != nil {
			return err
		}
		if len(node.els) == 0 {
			e.line("if %s {", cond)
			if err := y.e.indented(func() error { return y.emitNodes(node.then) }); err != nil {
				return err
			}
			e.line("}")
			return nil
		}
		// Yul's if has no else arm; a two-armed conditional becomes a
		// switch on the condition value.
		e.line("switch %s", cond)
		e.line("case 0 {")
		if err := e.indented(func() error { return y.emitNodes(node.els) }); err != nil {
			return err
		}
		e.line("}")
		e.line("default {")
		if err := e.indented(func() error { return y.emitNodes(node.then) }); err != nil {
			return err
		}
		e.line("}")
		return nil

	case *stLoop:
		e.line("for { } 1 { } {")
		if err := e.indented(func() error {
			for _, ins := range node.header.Instrs {
				if err := y.emitInstr(ins); err != nil {
					return err
				}
			}
			cond, err := y.value(node.cond)
			if err != nil {
				return err
			}
			if node.negate {
				e.line("if %s { break }", cond)
			} else {
				e.line("if iszero(%s) { break }", cond)
			}
			return y.emitNodes(node.body)
		}); err != nil {
			return err
		}
		e.line("}")
		return nil

	case *stBreak:
		e.line("break")
		return nil

	case *stContinue:
		e.line("continue")
		return nil

	case *stReturn:
		if node.val != nil {
			v, err := y.value(*node.val)
			if err != nil {
				return err
			}
			e.line("ret := %s", v)
		}
		e.line("leave")
		return nil

	default:
		return unsupported("yul", "control node %T", n)
	}
}

func (y *yulFn) emitInstr(ins ir.Instr) error {
	e := y.e
	switch ins.Kind {
	case ir.InstrAssign:
		v, err := y.value(ins.A)
		if err != nil {
			return err
		}
		e.line("r%d := %s", ins.Dst, v)

	case ir.InstrAdd, ir.InstrSub, ir.InstrMul, ir.InstrDiv:
		a, err := y.value(ins.A)
		if err != nil {
			return err
		}
		b, err := y.value(ins.B)
		if err != nil {
			return err
		}
		e.line("r%d := %s(%s, %s)", ins.Dst, yulArith(ins.Kind, ins.Checked), a, b)

	case ir.InstrEq, ir.InstrLt:
		a, err := y.value(ins.A)
		if err != nil {
			return err
		}
		b, err := y.value(ins.B)
		if err != nil {
			return err
		}
		op := "eq"
		if ins.Kind == ir.InstrLt {
			op = "lt"
		}
		e.line("r%d := %s(%s, %s)", ins.Dst, op, a, b)

	case ir.InstrSLoad:
		e.line("r%d := sload(%d)", ins.Dst, ins.Slot)

	case ir.InstrSStore:
		v, err := y.value(ins.A)
		if err != nil {
			return err
		}
		e.line("sstore(%d, %s)", ins.Slot, v)

	case ir.InstrCall:
		args := ""
		for i, arg := range ins.Args {
			v, err := y.value(arg)
			if err != nil {
				return err
			}
			if i > 0 {
				args += ", "
			}
			args += v
		}
		if ins.HasDst {
			e.line("r%d := fn_%s(%s)", ins.Dst, ins.Callee, args)
		} else {
			e.line("fn_%s(%s)", ins.Callee, args)
		}

	default:
		return unsupported("yul", "instruction %s", ins.Kind)
	}
	return nil
}

// value renders an operand. A named field is a fresh storage read each
// time it appears; the reference behavior is kept rather than caching the
// value in a register.
func (y *yulFn) value(v ir.Value) (string, error) {
	switch v.Kind {
	case ir.ValRegister:
		return fmt.Sprintf("r%d", v.Reg), nil
	case ir.ValConst:
		return v.Lit, nil
	case ir.ValField:
		slot, ok := y.contract.Layout[v.Name]
		if !ok {
			return "", &ir.UnresolvedFieldError{Contract: y.contract.Name, Field: v.Name}
		}
		return fmt.Sprintf("sload(%d)", slot), nil
	case ir.ValLocal:
		return v.Name, nil
	default:
		return "", unsupported("yul", "value kind %d", v.Kind)
	}
}

func yulArith(kind ir.InstrKind, checked bool) string {
	switch kind {
	case ir.InstrAdd:
		if checked {
			return "checked_add"
		}
		return "add"
	case ir.InstrSub:
		if checked {
			return "checked_sub"
		}
		return "sub"
	case ir.InstrMul:
		if checked {
			return "checked_mul"
		}
		return "mul"
	default:
		if checked {
			return "checked_div"
		}
		return "div"
	}
}
