package codegen

import "github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"

// namedLocals returns the named locals a function references that are not
// parameters, in deterministic first-appearance order. Text targets
// declare these up front alongside the register locals.
func namedLocals(f *ir.Function) []string {
	params := make(map[string]bool, len(f.Params))
	for _, p := range f.Params {
		params[p.Name] = true
	}

	seen := make(map[string]bool)
	var names []string
	visit := func(v ir.Value) {
		if v.Kind == ir.ValLocal && !params[v.Name] && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
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
	return names
}
