package bytecode

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// Assemble compiles an IR module into a bytecode Module using two-pass
// assembly: the first pass emits placeholder jump offsets and records each
// jump site with its logical target block; the second pass patches the real
// byte offsets once every block's final address is known.
func Assemble(m *ir.Module) (*Module, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ir.ResolveModuleLayouts(m)

	a := &asm{
		mod:       NewModule(),
		funcIndex: make(map[string]uint32),
		funcIR:    make(map[string]*ir.Function),
	}

	// Assign function table indices up front so call sites can reference
	// functions declared later.
	for _, c := range m.Contracts {
		for _, f := range c.Functions {
			if _, dup := a.funcIndex[f.Name]; dup {
				return nil, fmt.Errorf("bytecode: duplicate function name %q", f.Name)
			}
			a.funcIndex[f.Name] = uint32(len(a.funcIndex))
			a.funcIR[f.Name] = f
		}
	}

	for _, c := range m.Contracts {
		for _, f := range c.Functions {
			if err := a.assembleFunction(c, f); err != nil {
				return nil, fmt.Errorf("bytecode: function %s: %w", f.Name, err)
			}
		}
	}

	return a.mod, nil
}

type asm struct {
	mod       *Module
	funcIndex map[string]uint32
	funcIR    map[string]*ir.Function
}

// fixup records a placeholder operand written in the first pass, with the
// label whose final address must be patched in.
type fixup struct {
	site  int // byte offset of the placeholder u32
	label string
}

func (a *asm) assembleFunction(c *ir.Contract, f *ir.Function) error {
	fa := &funcAsm{
		asm:          a,
		contract:     c,
		fn:           f,
		slots:        make(map[string]uint32),
		blockOffsets: make(map[string]uint32),
	}

	// Local slot plan: parameters first, then one slot per register, then
	// named locals in order of first appearance.
	for i, p := range f.Params {
		fa.slots[p.Name] = uint32(i)
	}
	fa.regBase = uint32(len(f.Params))
	fa.nextLocal = fa.regBase + f.NextRegister
	collectNamedLocals(f, func(name string) {
		if _, exists := fa.slots[name]; !exists {
			fa.slots[name] = fa.nextLocal
			fa.nextLocal++
		}
	})

	offset := uint32(a.mod.CurrentOffset())

	// Entry first, remaining blocks in declaration order.
	entry := f.Entry()
	if err := fa.assembleBlock(entry); err != nil {
		return err
	}
	for _, b := range f.Blocks {
		if b.Label == ir.EntryLabel {
			continue
		}
		if err := fa.assembleBlock(b); err != nil {
			return err
		}
	}

	// Second pass: patch every recorded jump site.
	for _, fx := range fa.fixups {
		target, ok := fa.blockOffsets[fx.label]
		if !ok {
			return fmt.Errorf("jump to unknown block %q", fx.label)
		}
		a.mod.PatchU32(fx.site, target)
	}

	a.mod.Functions = append(a.mod.Functions, FuncInfo{
		NameID:    a.mod.AddString(f.Name),
		Offset:    offset,
		NumParams: uint32(len(f.Params)),
		NumLocals: fa.nextLocal - uint32(len(f.Params)),
	})
	return nil
}

// collectNamedLocals invokes fn for every named local referenced anywhere
// in the function body, in a deterministic first-appearance order.
func collectNamedLocals(f *ir.Function, fn func(string)) {
	visit := func(v ir.Value) {
		if v.Kind == ir.ValLocal {
			fn(v.Name)
		}
	}
	for _, b := range f.Blocks {
		for _, ins := range b.Instrs {
			visit(ins.A)
			visit(ins.B)
			for _, arg := range ins.Args {
				visit(arg)
			}
		}
		if b.Term != nil {
			if b.Term.Value != nil {
				visit(*b.Term.Value)
			}
			visit(b.Term.Cond)
		}
	}
}

type funcAsm struct {
	asm          *asm
	contract     *ir.Contract
	fn           *ir.Function
	slots        map[string]uint32 // named local → slot
	regBase      uint32            // first register slot
	nextLocal    uint32            // total slot count so far
	fixups       []fixup
	blockOffsets map[string]uint32
}

func (fa *funcAsm) assembleBlock(b *ir.Block) error {
	fa.blockOffsets[b.Label] = uint32(fa.asm.mod.CurrentOffset())

	for _, ins := range b.Instrs {
		if err := fa.assembleInstr(ins); err != nil {
			return fmt.Errorf("block %s: %w", b.Label, err)
		}
	}
	return fa.assembleTerm(b.Term)
}

func (fa *funcAsm) assembleInstr(ins ir.Instr) error {
	mod := fa.asm.mod

	switch ins.Kind {
	case ir.InstrAssign:
		if err := fa.pushValue(ins.A); err != nil {
			return err
		}
		mod.EmitU32(OpStoreLocal, fa.regSlot(ins.Dst))

	case ir.InstrAdd, ir.InstrSub, ir.InstrMul, ir.InstrDiv:
		if err := fa.pushValue(ins.A); err != nil {
			return err
		}
		if err := fa.pushValue(ins.B); err != nil {
			return err
		}
		mod.Emit(arithOpcode(ins.Kind, ins.Checked))
		mod.EmitU32(OpStoreLocal, fa.regSlot(ins.Dst))

	case ir.InstrEq, ir.InstrLt:
		if err := fa.pushValue(ins.A); err != nil {
			return err
		}
		if err := fa.pushValue(ins.B); err != nil {
			return err
		}
		if ins.Kind == ir.InstrEq {
			mod.Emit(OpEq)
		} else {
			mod.Emit(OpLt)
		}
		mod.EmitU32(OpStoreLocal, fa.regSlot(ins.Dst))

	case ir.InstrSLoad:
		mod.EmitU32(OpSLoad, ins.Slot)
		mod.EmitU32(OpStoreLocal, fa.regSlot(ins.Dst))

	case ir.InstrSStore:
		if err := fa.pushValue(ins.A); err != nil {
			return err
		}
		mod.EmitU32(OpSStore, ins.Slot)

	case ir.InstrCall:
		idx, ok := fa.asm.funcIndex[ins.Callee]
		if !ok {
			return fmt.Errorf("call to unknown function %q", ins.Callee)
		}
		for _, arg := range ins.Args {
			if err := fa.pushValue(arg); err != nil {
				return err
			}
		}
		mod.EmitU32(OpCall, idx, uint32(len(ins.Args)))
		callee := fa.asm.funcIR[ins.Callee]
		switch {
		case ins.HasDst:
			mod.EmitU32(OpStoreLocal, fa.regSlot(ins.Dst))
		case callee.Result != nil:
			// Result unused: drop it to keep the stack balanced.
			mod.Emit(OpPop)
		}

	default:
		return fmt.Errorf("unsupported construct: instruction %s", ins.Kind)
	}
	return nil
}

func (fa *funcAsm) assembleTerm(t *ir.Terminator) error {
	mod := fa.asm.mod

	switch t.Kind {
	case ir.TermReturn:
		if t.Value != nil {
			if err := fa.pushValue(*t.Value); err != nil {
				return err
			}
			mod.Emit(OpReturn)
		} else {
			mod.Emit(OpReturnVoid)
		}

	case ir.TermJump:
		site := mod.EmitU32(OpJump, 0)
		fa.fixups = append(fa.fixups, fixup{site: site + 1, label: t.Target})

	case ir.TermBranch:
		if err := fa.pushValue(t.Cond); err != nil {
			return err
		}
		site := mod.EmitU32(OpJumpIfFalse, 0)
		fa.fixups = append(fa.fixups, fixup{site: site + 1, label: t.False})
		site = mod.EmitU32(OpJump, 0)
		fa.fixups = append(fa.fixups, fixup{site: site + 1, label: t.True})

	default:
		return fmt.Errorf("unsupported construct: terminator %s", t.Kind)
	}
	return nil
}

// pushValue emits the instructions that leave one value on the operand
// stack.
func (fa *funcAsm) pushValue(v ir.Value) error {
	mod := fa.asm.mod

	switch v.Kind {
	case ir.ValRegister:
		mod.EmitU32(OpLoadLocal, fa.regSlot(v.Reg))

	case ir.ValConst:
		c, err := uint256.FromDecimal(v.Lit)
		if err != nil {
			return fmt.Errorf("bad constant %q: %w", v.Lit, err)
		}
		mod.EmitU32(OpConst, mod.AddConstant(c))

	case ir.ValLocal:
		slot, ok := fa.slots[v.Name]
		if !ok {
			return fmt.Errorf("unknown local %q", v.Name)
		}
		mod.EmitU32(OpLoadLocal, slot)

	case ir.ValField:
		slot, ok := fa.contract.Layout[v.Name]
		if !ok {
			return &ir.UnresolvedFieldError{Contract: fa.contract.Name, Field: v.Name}
		}
		mod.EmitU32(OpSLoad, slot)

	default:
		return fmt.Errorf("unsupported construct: value kind %d", v.Kind)
	}
	return nil
}

func (fa *funcAsm) regSlot(reg uint32) uint32 {
	return fa.regBase + reg
}

func arithOpcode(kind ir.InstrKind, checked bool) Opcode {
	switch kind {
	case ir.InstrAdd:
		if checked {
			return OpCheckedAdd
		}
		return OpAdd
	case ir.InstrSub:
		if checked {
			return OpCheckedSub
		}
		return OpSub
	case ir.InstrMul:
		if checked {
			return OpCheckedMul
		}
		return OpMul
	default:
		// Division traps on zero unconditionally, so checked and unchecked
		// lower to the same opcode.
		return OpDiv
	}
}
