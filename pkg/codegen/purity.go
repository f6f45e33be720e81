package codegen

import "github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"

// classifyPurity decides, per function, whether a call is read-only or
// mutating. A function mutates when any block anywhere in its body writes
// persistent storage, or when it calls a mutating function of the same
// contract; the transitive part runs to a fixed point. Inspecting only the
// entry block would miss writes behind a branch, so the whole body is
// scanned.
func classifyPurity(c *ir.Contract) map[string]bool {
	mutates := make(map[string]bool, len(c.Functions))
	calls := make(map[string][]string, len(c.Functions))

	for _, f := range c.Functions {
		for _, b := range f.Blocks {
			for _, ins := range b.Instrs {
				switch ins.Kind {
				case ir.InstrSStore:
					mutates[f.Name] = true
				case ir.InstrCall:
					calls[f.Name] = append(calls[f.Name], ins.Callee)
				}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for name, callees := range calls {
			if mutates[name] {
				continue
			}
			for _, callee := range callees {
				if mutates[callee] {
					mutates[name] = true
					changed = true
					break
				}
			}
		}
	}
	return mutates
}
