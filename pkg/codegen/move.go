package codegen

import (
	"fmt"
	"strings"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

func init() {
	Register(&moveTarget{})
}

// moveTarget renders each contract as a Move module: a resource struct
// with the key ability, an init entry function that move_to's the
// resource with field initializers (declared defaults otherwise), and
// per-function entry points that borrow_global_mut the resource and
// forward to an internal function carrying the body. Arithmetic relies
// on Move's native abort-on-overflow semantics.
type moveTarget struct{}

func (t *moveTarget) Name() string { return "move" }

func (t *moveTarget) Generate(m *ir.Module) (Output, error) {
	e := newEmitter()
	for i, c := range m.Contracts {
		if i > 0 {
			e.blank()
		}
		if err := t.contract(e, m.Name, c); err != nil {
			return Output{}, err
		}
	}
	return Output{Text: e.String(), Ext: ".move"}, nil
}

func (t *moveTarget) contract(e *emitter, modName string, c *ir.Contract) error {
	res := exportName(c.Name)

	e.line("module %s::%s {", snakeName(modName), snakeName(c.Name))
	err := e.indented(func() error {
		e.line("use std::signer;")
		e.blank()
		e.line("struct %s has key {", res)
		e.indented(func() error {
			for _, f := range c.Fields {
				e.line("%s: %s,", f.Name, moveType(f.Type))
			}
			return nil
		})
		e.line("}")

		for _, ev := range c.Events {
			e.blank()
			e.line("struct %s has drop, store {", exportName(ev.Name))
			e.indented(func() error {
				for _, p := range ev.Params {
					e.line("%s: %s,", p.Name, moveType(p.Type))
				}
				return nil
			})
			e.line("}")
		}

		e.blank()
		t.initFun(e, c, res)

		for _, f := range c.Functions {
			e.blank()
			if err := t.entry(e, c, f, res); err != nil {
				return err
			}
		}
		for _, f := range c.Functions {
			e.blank()
			if err := t.logic(e, c, f, res); err != nil {
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

// initFun publishes the resource under the caller's address.
func (t *moveTarget) initFun(e *emitter, c *ir.Contract, res string) {
	e.line("public entry fun init(account: &signer) {")
	e.indented(func() error {
		e.line("move_to(account, %s {", res)
		e.indented(func() error {
			for _, f := range c.Fields {
				e.line("%s: %s,", f.Name, moveInit(f))
			}
			return nil
		})
		e.line("});")
		return nil
	})
	e.line("}")
}

func (t *moveTarget) entry(e *emitter, c *ir.Contract, f *ir.Function, res string) error {
	var sig strings.Builder
	if f.Result != nil {
		sig.WriteString("public fun ")
	} else {
		sig.WriteString("public entry fun ")
	}
	sig.WriteString(snakeName(f.Name) + "(account: &signer")
	for _, p := range f.Params {
		sig.WriteString(", " + p.Name + ": " + moveType(p.Type))
	}
	sig.WriteString(")")
	if f.Result != nil {
		sig.WriteString(": " + moveType(*f.Result))
	}
	sig.WriteString(" acquires " + res + " {")
	e.line("%s", sig.String())
	e.indented(func() error {
		e.line("let state = borrow_global_mut<%s>(signer::address_of(account));", res)
		args := "state"
		for _, p := range f.Params {
			args += ", " + p.Name
		}
		if f.Result != nil {
			e.line("do_%s(%s)", snakeName(f.Name), args)
		} else {
			e.line("do_%s(%s);", snakeName(f.Name), args)
		}
		return nil
	})
	e.line("}")
	return nil
}

func (t *moveTarget) logic(e *emitter, c *ir.Contract, f *ir.Function, res string) error {
	var sig strings.Builder
	sig.WriteString("fun do_" + snakeName(f.Name) + "(state: &mut " + res)
	for _, p := range f.Params {
		sig.WriteString(", " + p.Name + ": " + moveType(p.Type))
	}
	sig.WriteString(")")
	if f.Result != nil {
		sig.WriteString(": " + moveType(*f.Result))
	}
	sig.WriteString(" {")
	e.line("%s", sig.String())
	err := e.indented(func() error {
		body := newMoveFn(e, c, f)
		return body.emitBody()
	})
	if err != nil {
		return err
	}
	e.line("}")
	return nil
}

// moveInit renders a field initializer, falling back to the per-type
// default when none was declared.
func moveInit(f *ir.Field) string {
	if f.Init != nil && f.Init.Kind == ir.ValConst {
		if f.Type == ir.TypeBool {
			if f.Init.Lit == "0" {
				return "false"
			}
			return "true"
		}
		return f.Init.Lit
	}
	switch f.Type {
	case ir.TypeBool:
		return "false"
	case ir.TypeString:
		return "b\"\""
	case ir.TypeAddress:
		return "@0x0"
	default:
		return "0"
	}
}

func moveType(t ir.Type) string {
	switch t {
	case ir.TypeBool:
		return "bool"
	case ir.TypeString:
		return "vector<u8>"
	case ir.TypeAddress:
		return "address"
	default:
		return "u64"
	}
}

// moveFn walks one function's structured control tree and emits a Move
// body. Like the Rust walkers, comparison results are materialized as
// 0/1 so every register stays u64.
type moveFn struct {
	e         *emitter
	contract  *ir.Contract
	fn        *ir.Function
	slotName  map[uint32]string
	fieldType map[string]ir.Type
	funcs     map[string]*ir.Function
}

func newMoveFn(e *emitter, c *ir.Contract, f *ir.Function) *moveFn {
	types := make(map[string]ir.Type, len(c.Fields))
	for _, fd := range c.Fields {
		types[fd.Name] = fd.Type
	}
	funcs := make(map[string]*ir.Function, len(c.Functions))
	for _, fn := range c.Functions {
		funcs[fn.Name] = fn
	}
	return &moveFn{
		e:         e,
		contract:  c,
		fn:        f,
		slotName:  ir.ReverseLayout(c.Layout),
		fieldType: types,
		funcs:     funcs,
	}
}

func (r *moveFn) emitBody() error {
	for reg := uint32(0); reg < r.fn.NextRegister; reg++ {
		r.e.line("let r%d = 0;", reg)
	}
	for _, name := range namedLocals(r.fn) {
		r.e.line("let %s = 0;", name)
	}

	tree, err := stackify(r.fn)
	if err != nil {
		return err
	}
	return r.emitNodes(tree)
}

func (r *moveFn) emitNodes(nodes []stNode) error {
	for _, n := range nodes {
		if err := r.emitNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *moveFn) emitNode(n stNode) error {
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
		e.line("if (%s) {", cond)
		if err := e.indented(func() error { return r.emitNodes(node.then) }); err != nil {
			return err
		}
		if len(node.els) > 0 {
			e.line("} else {")
			if err := e.indented(func() error { return r.emitNodes(node.els) }); err != nil {
				return err
			}
		}
		e.line("};")
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
				e.line("if (%s) break;", cond)
			} else {
				e.line("if (!(%s)) break;", cond)
			}
			return r.emitNodes(node.body)
		}); err != nil {
			return err
		}
		e.line("};")
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
			e.line("return %s;", v)
		} else {
			e.line("return;")
		}
		return nil

	default:
		return unsupported("move", "control node %T", n)
	}
}

func (r *moveFn) emitInstr(ins ir.Instr) error {
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
		e.line("r%d = %s %s %s;", ins.Dst, a, moveArithOp(ins.Kind), b)

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
		e.line("r%d = if (%s %s %s) 1 else 0;", ins.Dst, a, op, b)

	case ir.InstrSLoad:
		name, ok := r.slotName[ins.Slot]
		if !ok {
			return unsupported("move", "storage load from slot %d with no declared field", ins.Slot)
		}
		e.line("r%d = %s;", ins.Dst, r.fieldRead(name))

	case ir.InstrSStore:
		name, ok := r.slotName[ins.Slot]
		if !ok {
			return unsupported("move", "storage store to slot %d with no declared field", ins.Slot)
		}
		v, err := r.value(ins.A)
		if err != nil {
			return err
		}
		if r.fieldType[name] == ir.TypeBool {
			e.line("state.%s = %s != 0;", name, v)
		} else {
			e.line("state.%s = %s;", name, v)
		}

	case ir.InstrCall:
		args := "state"
		for _, arg := range ins.Args {
			v, err := r.value(arg)
			if err != nil {
				return err
			}
			args += ", " + v
		}
		call := fmt.Sprintf("do_%s(%s)", snakeName(ins.Callee), args)
		callee, known := r.funcs[ins.Callee]
		switch {
		case ins.HasDst:
			e.line("r%d = %s;", ins.Dst, call)
		case known && callee.Result != nil:
			e.line("let _ = %s;", call)
		default:
			e.line("%s;", call)
		}

	default:
		return unsupported("move", "instruction %s", ins.Kind)
	}
	return nil
}

func (r *moveFn) value(v ir.Value) (string, error) {
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
		return "", unsupported("move", "value kind %d", v.Kind)
	}
}

func (r *moveFn) fieldRead(name string) string {
	if r.fieldType[name] == ir.TypeBool {
		return "if (state." + name + ") 1 else 0"
	}
	return "state." + name
}

func (r *moveFn) condition(v ir.Value) (string, error) {
	if v.Kind == ir.ValField && r.fieldType[v.Name] == ir.TypeBool {
		if _, ok := r.contract.Layout[v.Name]; !ok {
			return "", &ir.UnresolvedFieldError{Contract: r.contract.Name, Field: v.Name}
		}
		return "state." + v.Name, nil
	}
	expr, err := r.value(v)
	if err != nil {
		return "", err
	}
	return expr + " != 0", nil
}

func moveArithOp(kind ir.InstrKind) string {
	switch kind {
	case ir.InstrAdd:
		return "+"
	case ir.InstrSub:
		return "-"
	case ir.InstrMul:
		return "*"
	default:
		return "/"
	}
}
