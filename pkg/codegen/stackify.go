package codegen

import (
	"fmt"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// The stackifier converts a function's flat block graph into nested
// structured constructs. Structured targets have no goto, so arbitrary
// jump/branch terminators must become if/else and while shapes before text
// emission; only the native bytecode target lowers flat blocks directly.

// stNode is one node of the structured control tree.
type stNode interface{ stNode() }

// stInstrs is the straight-line instruction run of one block.
type stInstrs struct{ block *ir.Block }

// stIf is a two-armed conditional whose arms reconverge afterwards.
// Else may be empty.
type stIf struct {
	cond ir.Value
	then []stNode
	els  []stNode
}

// stLoop is a while shape: run the header block's instructions, test the
// condition, run the body, repeat. Negate is set when the loop continues on
// a false condition.
type stLoop struct {
	header *ir.Block
	cond   ir.Value
	negate bool
	body   []stNode
}

// stBreak exits the innermost loop; stContinue restarts it.
type stBreak struct{}
type stContinue struct{}

// stReturn leaves the function with an optional value.
type stReturn struct{ val *ir.Value }

func (*stInstrs) stNode()   {}
func (*stIf) stNode()       {}
func (*stLoop) stNode()     {}
func (*stBreak) stNode()    {}
func (*stContinue) stNode() {}
func (*stReturn) stNode()   {}

// stackify restructures a function's block graph into a control tree.
// Irreducible graphs and loop shapes without a single conditional exit at
// the header fail with a descriptive error.
func stackify(f *ir.Function) ([]stNode, error) {
	g := buildCFG(f)
	loops, err := g.findLoops()
	if err != nil {
		return nil, err
	}

	s := &stackifier{
		g:     g,
		loops: loops,
		ipdom: g.ipostdoms(),
		limit: 4 * (len(f.Blocks) + 1),
	}
	return s.walk(ir.EntryLabel, exitLabel, nil, nil)
}

type stackifier struct {
	g     *cfg
	loops map[string]*loopInfo
	ipdom map[string]string
	limit int // step budget; exceeding it means the walk is not converging
	steps int
}

// loopCtx identifies the innermost loop being structured, so jumps to its
// header or exit become continue/break.
type loopCtx struct {
	header string
	exit   string
}

func (s *stackifier) walk(start, stop string, lc *loopCtx, active map[string]bool) ([]stNode, error) {
	var nodes []stNode
	cur := start

	for cur != stop && cur != exitLabel {
		s.steps++
		if s.steps > s.limit {
			return nil, fmt.Errorf("irreducible control flow in %s: restructuring did not converge", s.g.fn.Name)
		}

		if lc != nil && cur == lc.exit {
			nodes = append(nodes, &stBreak{})
			return nodes, nil
		}
		if lc != nil && cur == lc.header {
			nodes = append(nodes, &stContinue{})
			return nodes, nil
		}

		if li, isHeader := s.loops[cur]; isHeader && !active[cur] {
			node, exit, err := s.walkLoop(li, active)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
			cur = exit
			continue
		}

		b := s.g.blocks[cur]
		switch b.Term.Kind {
		case ir.TermReturn:
			nodes = append(nodes, &stInstrs{block: b}, &stReturn{val: b.Term.Value})
			return nodes, nil

		case ir.TermJump:
			nodes = append(nodes, &stInstrs{block: b})
			cur = b.Term.Target

		case ir.TermBranch:
			nodes = append(nodes, &stInstrs{block: b})
			join := s.ipdom[cur]

			then, err := s.walkArm(b.Term.True, join, lc, active)
			if err != nil {
				return nil, err
			}
			els, err := s.walkArm(b.Term.False, join, lc, active)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &stIf{cond: b.Term.Cond, then: then, els: els})
			cur = join

		default:
			return nil, fmt.Errorf("function %s: unknown terminator kind %d", s.g.fn.Name, b.Term.Kind)
		}
	}
	return nodes, nil
}

// walkArm structures one branch arm up to the join point.
func (s *stackifier) walkArm(target, join string, lc *loopCtx, active map[string]bool) ([]stNode, error) {
	if target == join {
		return nil, nil
	}
	if lc != nil && target == lc.header {
		return []stNode{&stContinue{}}, nil
	}
	if lc != nil && target == lc.exit {
		return []stNode{&stBreak{}}, nil
	}
	return s.walk(target, join, lc, active)
}

// walkLoop structures one natural loop as a while shape. The header must
// end in a branch with exactly one target inside the loop (the body) and
// one outside (the exit).
func (s *stackifier) walkLoop(li *loopInfo, active map[string]bool) (stNode, string, error) {
	header := s.g.blocks[li.header]
	t := header.Term
	if t.Kind != ir.TermBranch {
		return nil, "", fmt.Errorf("function %s: loop at %s has no conditional exit at its header",
			s.g.fn.Name, li.header)
	}

	inTrue, inFalse := li.body[t.True], li.body[t.False]
	if inTrue == inFalse {
		return nil, "", fmt.Errorf("function %s: loop at %s must branch between one body and one exit target",
			s.g.fn.Name, li.header)
	}

	bodyEntry, exit, negate := t.True, t.False, false
	if inFalse {
		bodyEntry, exit, negate = t.False, t.True, true
	}

	nested := make(map[string]bool, len(active)+1)
	for k := range active {
		nested[k] = true
	}
	nested[li.header] = true

	body, err := s.walk(bodyEntry, li.header, &loopCtx{header: li.header, exit: exit}, nested)
	if err != nil {
		return nil, "", err
	}

	return &stLoop{header: header, cond: t.Cond, negate: negate, body: body}, exit, nil
}
