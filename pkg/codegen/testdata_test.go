package codegen

import "github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"

func uintResult() *ir.Type {
	t := ir.TypeUint
	return &t
}

func retReg(n uint32) *ir.Value {
	v := ir.Reg(n)
	return &v
}

// counterContract is the usual fixture: one storage field, a checked
// increment, and a getter.
func counterContract() *ir.Contract {
	return &ir.Contract{
		Name:   "Counter",
		Fields: []*ir.Field{{Name: "count", Type: ir.TypeUint}},
		Events: []*ir.Event{
			{Name: "Changed", Params: []ir.Param{{Name: "value", Type: ir.TypeUint}}},
		},
		Functions: []*ir.Function{
			{
				Name:         "increment",
				Params:       []ir.Param{{Name: "by", Type: ir.TypeUint}},
				NextRegister: 2,
				Blocks: []*ir.Block{{
					Label: ir.EntryLabel,
					Instrs: []ir.Instr{
						{Kind: ir.InstrSLoad, Dst: 0, Slot: 0},
						{Kind: ir.InstrAdd, Dst: 1, A: ir.Reg(0), B: ir.LocalRef("by"), Checked: true},
						{Kind: ir.InstrSStore, Slot: 0, A: ir.Reg(1)},
					},
					Term: &ir.Terminator{Kind: ir.TermReturn},
				}},
			},
			{
				Name:         "get",
				Result:       uintResult(),
				NextRegister: 1,
				Blocks: []*ir.Block{{
					Label: ir.EntryLabel,
					Instrs: []ir.Instr{
						{Kind: ir.InstrSLoad, Dst: 0, Slot: 0},
					},
					Term: &ir.Terminator{Kind: ir.TermReturn, Value: retReg(0)},
				}},
			},
		},
	}
}

func counterModule() *ir.Module {
	return &ir.Module{Name: "counter", Contracts: []*ir.Contract{counterContract()}}
}

// maxFunction branches to two return arms that never reconverge.
func maxFunction() *ir.Function {
	return &ir.Function{
		Name:         "max",
		Params:       []ir.Param{{Name: "a", Type: ir.TypeUint}, {Name: "b", Type: ir.TypeUint}},
		Result:       uintResult(),
		NextRegister: 1,
		Blocks: []*ir.Block{
			{
				Label: ir.EntryLabel,
				Instrs: []ir.Instr{
					{Kind: ir.InstrLt, Dst: 0, A: ir.LocalRef("a"), B: ir.LocalRef("b")},
				},
				Term: &ir.Terminator{Kind: ir.TermBranch, Cond: ir.Reg(0), True: "bigger_b", False: "bigger_a"},
			},
			{
				Label: "bigger_b",
				Term: &ir.Terminator{
					Kind: ir.TermReturn,
					Value: func() *ir.Value {
						v := ir.LocalRef("b")
						return &v
					}(),
				},
			},
			{
				Label: "bigger_a",
				Term: &ir.Terminator{
					Kind: ir.TermReturn,
					Value: func() *ir.Value {
						v := ir.LocalRef("a")
						return &v
					}(),
				},
			},
		},
	}
}

// sumFunction is the while-shaped loop: 0+1+...+(n-1).
func sumFunction() *ir.Function {
	return &ir.Function{
		Name:         "sum_to",
		Params:       []ir.Param{{Name: "n", Type: ir.TypeUint}},
		Result:       uintResult(),
		NextRegister: 3,
		Blocks: []*ir.Block{
			{
				Label: ir.EntryLabel,
				Instrs: []ir.Instr{
					{Kind: ir.InstrAssign, Dst: 0, A: ir.Const("0")},
					{Kind: ir.InstrAssign, Dst: 1, A: ir.Const("0")},
				},
				Term: &ir.Terminator{Kind: ir.TermJump, Target: "head"},
			},
			{
				Label: "head",
				Instrs: []ir.Instr{
					{Kind: ir.InstrLt, Dst: 2, A: ir.Reg(1), B: ir.LocalRef("n")},
				},
				Term: &ir.Terminator{Kind: ir.TermBranch, Cond: ir.Reg(2), True: "body", False: "done"},
			},
			{
				Label: "body",
				Instrs: []ir.Instr{
					{Kind: ir.InstrAdd, Dst: 0, A: ir.Reg(0), B: ir.Reg(1)},
					{Kind: ir.InstrAdd, Dst: 1, A: ir.Reg(1), B: ir.Const("1")},
				},
				Term: &ir.Terminator{Kind: ir.TermJump, Target: "head"},
			},
			{
				Label: "done",
				Term:  &ir.Terminator{Kind: ir.TermReturn, Value: retReg(0)},
			},
		},
	}
}

func singleFunctionModule(f *ir.Function) *ir.Module {
	return &ir.Module{
		Name:      "test",
		Contracts: []*ir.Contract{{Name: "Test", Functions: []*ir.Function{f}}},
	}
}
