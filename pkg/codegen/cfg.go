package codegen

import (
	"fmt"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// cfg is the block graph of one function.
type cfg struct {
	fn     *ir.Function
	blocks map[string]*ir.Block
	succs  map[string][]string
	preds  map[string][]string
	order  []string // labels in declaration order, entry first
}

func buildCFG(f *ir.Function) *cfg {
	g := &cfg{
		fn:     f,
		blocks: make(map[string]*ir.Block, len(f.Blocks)),
		succs:  make(map[string][]string, len(f.Blocks)),
		preds:  make(map[string][]string, len(f.Blocks)),
	}

	g.order = append(g.order, ir.EntryLabel)
	for _, b := range f.Blocks {
		g.blocks[b.Label] = b
		if b.Label != ir.EntryLabel {
			g.order = append(g.order, b.Label)
		}
	}

	addEdge := func(from, to string) {
		g.succs[from] = append(g.succs[from], to)
		g.preds[to] = append(g.preds[to], from)
	}
	for _, b := range f.Blocks {
		switch b.Term.Kind {
		case ir.TermJump:
			addEdge(b.Label, b.Term.Target)
		case ir.TermBranch:
			addEdge(b.Label, b.Term.True)
			if b.Term.False != b.Term.True {
				addEdge(b.Label, b.Term.False)
			}
		}
	}
	return g
}

// loopInfo is one natural loop: its header and the set of blocks in its
// body (header included).
type loopInfo struct {
	header string
	body   map[string]bool
}

// findLoops locates natural loops via DFS back edges and checks
// reducibility: a back edge must target a block that dominates its source,
// so the cycle can only be entered through its header. An irreducible
// graph cannot be restructured and fails here with a descriptive error.
func (g *cfg) findLoops() (map[string]*loopInfo, error) {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(g.blocks))

	type backEdge struct {
		from, to string
	}
	var edges []backEdge

	var dfs func(label string)
	dfs = func(label string) {
		state[label] = onStack
		for _, succ := range g.succs[label] {
			switch state[succ] {
			case unvisited:
				dfs(succ)
			case onStack:
				edges = append(edges, backEdge{from: label, to: succ})
			}
		}
		state[label] = done
	}
	dfs(ir.EntryLabel)

	dom := g.doms()
	loops := make(map[string]*loopInfo)
	for _, e := range edges {
		if !dom[e.from][e.to] {
			return nil, fmt.Errorf("irreducible control flow in %s: cycle header %s does not dominate back edge source %s",
				g.fn.Name, e.to, e.from)
		}
		li := loops[e.to]
		if li == nil {
			li = &loopInfo{header: e.to, body: map[string]bool{e.to: true}}
			loops[e.to] = li
		}
		g.collectLoopBody(li, e.from)
	}
	return loops, nil
}

// doms computes the dominator set of every reachable block by forward
// iteration to a fixed point, the mirror image of ipostdoms.
func (g *cfg) doms() map[string]map[string]bool {
	dom := make(map[string]map[string]bool, len(g.order))
	dom[ir.EntryLabel] = map[string]bool{ir.EntryLabel: true}
	for _, label := range g.order {
		if label == ir.EntryLabel {
			continue
		}
		full := make(map[string]bool, len(g.order))
		for _, n := range g.order {
			full[n] = true
		}
		dom[label] = full
	}

	for changed := true; changed; {
		changed = false
		for _, label := range g.order {
			if label == ir.EntryLabel {
				continue
			}
			next := intersectSets(dom, g.preds[label])
			next[label] = true
			if !sameSet(next, dom[label]) {
				dom[label] = next
				changed = true
			}
		}
	}
	return dom
}

// collectLoopBody grows the loop body backwards from the back edge's source
// until the header is reached (the standard natural-loop construction).
func (g *cfg) collectLoopBody(li *loopInfo, tail string) {
	if li.body[tail] {
		return
	}
	li.body[tail] = true
	work := []string{tail}
	for len(work) > 0 {
		label := work[len(work)-1]
		work = work[:len(work)-1]
		for _, pred := range g.preds[label] {
			if !li.body[pred] {
				li.body[pred] = true
				work = append(work, pred)
			}
		}
	}
}

// exitLabel is the virtual exit node every return block flows into.
const exitLabel = ""

// ipostdoms computes the immediate postdominator of every block against a
// virtual exit node, by iterating postdominator sets to a fixed point over
// the reverse graph. Branch restructuring uses the immediate postdominator
// of a branch block as the reconvergence (join) point of its two arms.
func (g *cfg) ipostdoms() map[string]string {
	all := make(map[string]bool, len(g.order)+1)
	for _, label := range g.order {
		all[label] = true
	}
	all[exitLabel] = true

	pdom := make(map[string]map[string]bool, len(all))
	pdom[exitLabel] = map[string]bool{exitLabel: true}
	for _, label := range g.order {
		full := make(map[string]bool, len(all))
		for n := range all {
			full[n] = true
		}
		pdom[label] = full
	}

	succsOf := func(label string) []string {
		if g.blocks[label].Term.Kind == ir.TermReturn {
			return []string{exitLabel}
		}
		return g.succs[label]
	}

	for changed := true; changed; {
		changed = false
		for i := len(g.order) - 1; i >= 0; i-- {
			label := g.order[i]
			next := intersectSets(pdom, succsOf(label))
			next[label] = true
			if !sameSet(next, pdom[label]) {
				pdom[label] = next
				changed = true
			}
		}
	}

	// The postdominators of a block form a chain; the immediate one is the
	// member whose own set contains every other member.
	ipdom := make(map[string]string, len(g.order))
	for _, label := range g.order {
		strict := make(map[string]bool, len(pdom[label]))
		for n := range pdom[label] {
			if n != label {
				strict[n] = true
			}
		}
		ipdom[label] = exitLabel
		for cand := range strict {
			if cand != exitLabel && len(pdom[cand]) == len(strict) {
				ipdom[label] = cand
				break
			}
		}
	}
	return ipdom
}

func intersectSets(sets map[string]map[string]bool, labels []string) map[string]bool {
	if len(labels) == 0 {
		return map[string]bool{exitLabel: true}
	}
	out := make(map[string]bool, len(sets[labels[0]]))
	for n := range sets[labels[0]] {
		out[n] = true
	}
	for _, label := range labels[1:] {
		for n := range out {
			if !sets[label][n] {
				delete(out, n)
			}
		}
	}
	return out
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if !b[n] {
			return false
		}
	}
	return true
}
