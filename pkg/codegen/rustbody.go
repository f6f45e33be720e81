package codegen

import (
	"fmt"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// rustSyntax captures where the two account-model targets differ: how state
// fields are read and written, how the fallible checked combinator aborts,
// how sibling functions are called, and how a handler returns.
type rustSyntax struct {
	target     string
	fieldExpr  func(name string, t ir.Type) string
	fieldStore func(name string, t ir.Type, val string) string
	checked    func(op, a, b string) string
	call       func(callee, args string) string
	ret        func(val string) string
}

// rustFn walks one function's structured control tree and emits a Rust
// handler body. Comparison results are materialized as 0/1 in the u64
// registers, and conditions test against zero, so boolean and numeric
// registers stay one type.
type rustFn struct {
	e         *emitter
	contract  *ir.Contract
	fn        *ir.Function
	syn       rustSyntax
	slotName  map[uint32]string
	fieldType map[string]ir.Type
}

func newRustFn(e *emitter, c *ir.Contract, f *ir.Function, syn rustSyntax) *rustFn {
	types := make(map[string]ir.Type, len(c.Fields))
	for _, fd := range c.Fields {
		types[fd.Name] = fd.Type
	}
	return &rustFn{
		e:         e,
		contract:  c,
		fn:        f,
		syn:       syn,
		slotName:  ir.ReverseLayout(c.Layout),
		fieldType: types,
	}
}

// emitBody declares the register and named locals, restructures the block
// graph, and emits the resulting tree.
func (r *rustFn) emitBody() error {
	for reg := uint32(0); reg < r.fn.NextRegister; reg++ {
		r.e.line("let mut r%d: u64 = 0;", reg)
	}
	for _, name := range namedLocals(r.fn) {
		r.e.line("let mut %s: u64 = 0;", name)
	}

	tree, err := stackify(r.fn)
	if err != nil {
		return err
	}
	return r.emitNodes(tree)
}

func (r *rustFn) emitNodes(nodes []stNode) error {
	for _, n := range nodes {
		if err := r.emitNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *rustFn) emitNode(n stNode) error {
	e := r.e
	switch node := n.(type) {
	case *stInstrs:
		for _, ins := range node.block.Instrs {
			if err := r.emitInstr(ins); err != nil {
				return err
			}
		}
		return nil

	case *stIf:
		cond, err := r.condition(node.cond)
		if err != nil {
			return err
		}
		e.line("if %s {", cond)
		if err := e.indented(func() error { return r.emitNodes(node.then) }); err != nil {
			return err
		}
		if len(node.els) > 0 {
			e.line("} else {")
			if err := e.indented(func() error { return r.emitNodes(node.els) }); err != nil {
				return err
			}
		}
		e.line("}")
		return nil

	case *stLoop:
		e.line("loop {")
		if err := e.indented(func() error {
			for _, ins := range node.header.Instrs {
				if err := r.emitInstr(ins); err != nil {
					return err
				}
			}
			cond, err := r.condition(node.cond)
			if err != nil {
				return err
			}
			if node.negate {
				e.line("if %s { break; }", cond)
			} else {
				e.line("if !(%s) { break; }", cond)
			}
			return r.emitNodes(node.body)
		}); err != nil {
			return err
		}
		e.line("}")
		return nil

	case *stBreak:
		e.line("break;")
		return nil

	case *stContinue:
		e.line("continue;")
		return nil

	case *stReturn:
		if node.val != nil {
			v, err := r.value(*node.val)
			if err != nil {
				return err
			}
			e.line("%s", r.syn.ret(v))
		} else {
			e.line("%s", r.syn.ret(""))
		}
		return nil

	default:
		return unsupported(r.syn.target, "control node %T", n)
	}
}

func (r *rustFn) emitInstr(ins ir.Instr) error {
	e := r.e
	switch ins.Kind {
	case ir.InstrAssign:
		v, err := r.value(ins.A)
		if err != nil {
			return err
		}
		e.line("r%d = %s;", ins.Dst, v)

	case ir.InstrAdd, ir.InstrSub, ir.InstrMul, ir.InstrDiv:
		a, err := r.value(ins.A)
		if err != nil {
			return err
		}
		b, err := r.value(ins.B)
		if err != nil {
			return err
		}
		if ins.Checked {
			e.line("r%d = %s;", ins.Dst, r.syn.checked(rustCheckedOp(ins.Kind), a, b))
		} else {
			e.line("r%d = %s;", ins.Dst, rustWrapping(ins.Kind, a, b))
		}

	case ir.InstrEq, ir.InstrLt:
		a, err := r.value(ins.A)
		if err != nil {
			return err
		}
		b, err := r.value(ins.B)
		if err != nil {
			return err
		}
		op := "=="
		if ins.Kind == ir.InstrLt {
			op = "<"
		}
		e.line("r%d = (%s %s %s) as u64;", ins.Dst, a, op, b)

	case ir.InstrSLoad:
		name, ok := r.slotName[ins.Slot]
		if !ok {
			return unsupported(r.syn.target, "storage load from slot %d with no declared field", ins.Slot)
		}
		e.line("r%d = %s;", ins.Dst, r.fieldRead(name))

	case ir.InstrSStore:
		name, ok := r.slotName[ins.Slot]
		if !ok {
			return unsupported(r.syn.target, "storage store to slot %d with no declared field", ins.Slot)
		}
		v, err := r.value(ins.A)
		if err != nil {
			return err
		}
		e.line("%s", r.syn.fieldStore(name, r.fieldType[name], v))

	case ir.InstrCall:
		args := ""
		for i, arg := range ins.Args {
			v, err := r.value(arg)
			if err != nil {
				return err
			}
			if i > 0 {
				args += ", "
			}
			args += v
		}
		call := r.syn.call(ins.Callee, args)
		if ins.HasDst {
			e.line("r%d = %s;", ins.Dst, call)
		} else {
			e.line("%s;", call)
		}

	default:
		return unsupported(r.syn.target, "instruction %s", ins.Kind)
	}
	return nil
}

func (r *rustFn) value(v ir.Value) (string, error) {
	switch v.Kind {
	case ir.ValRegister:
		return fmt.Sprintf("r%d", v.Reg), nil
	case ir.ValConst:
		return v.Lit, nil
	case ir.ValField:
		if _, ok := r.contract.Layout[v.Name]; !ok {
			return "", &ir.UnresolvedFieldError{Contract: r.contract.Name, Field: v.Name}
		}
		return r.fieldRead(v.Name), nil
	case ir.ValLocal:
		return v.Name, nil
	default:
		return "", unsupported(r.syn.target, "value kind %d", v.Kind)
	}
}

// fieldRead renders a field access widened to u64 where the declared type
// needs it.
func (r *rustFn) fieldRead(name string) string {
	expr := r.syn.fieldExpr(name, r.fieldType[name])
	if r.fieldType[name] == ir.TypeBool {
		return expr + " as u64"
	}
	return expr
}

// condition renders a branch condition. Bool-typed fields are usable
// directly; everything else is a 0/1 register or literal tested against
// zero.
func (r *rustFn) condition(v ir.Value) (string, error) {
	if v.Kind == ir.ValField && r.fieldType[v.Name] == ir.TypeBool {
		if _, ok := r.contract.Layout[v.Name]; !ok {
			return "", &ir.UnresolvedFieldError{Contract: r.contract.Name, Field: v.Name}
		}
		return r.syn.fieldExpr(v.Name, ir.TypeBool), nil
	}
	expr, err := r.value(v)
	if err != nil {
		return "", err
	}
	return expr + " != 0", nil
}

func rustCheckedOp(kind ir.InstrKind) string {
	switch kind {
	case ir.InstrAdd:
		return "checked_add"
	case ir.InstrSub:
		return "checked_sub"
	case ir.InstrMul:
		return "checked_mul"
	default:
		return "checked_div"
	}
}

func rustWrapping(kind ir.InstrKind, a, b string) string {
	switch kind {
	case ir.InstrAdd:
		return fmt.Sprintf("%s.wrapping_add(%s)", a, b)
	case ir.InstrSub:
		return fmt.Sprintf("%s.wrapping_sub(%s)", a, b)
	case ir.InstrMul:
		return fmt.Sprintf("%s.wrapping_mul(%s)", a, b)
	default:
		return fmt.Sprintf("%s / %s", a, b)
	}
}
