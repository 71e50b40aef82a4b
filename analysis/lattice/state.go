package lattice

import (
	loc "github.com/plsem/stalecheck/analysis/location"
	i "github.com/plsem/stalecheck/utils/indenter"
)

// MaxWidenings bounds the number of times Widen will combine a growing
// chain of states before it cuts iteration off by returning its first
// operand unchanged.
const MaxWidenings = 5

// AnalysisStateLattice is the lattice of analysis states: the product of
// the memory graph, variable stack and invalid-address set, with the join
// performing address unification across the components.
type AnalysisStateLattice struct {
	lattice
}

var analysisStateLattice = &AnalysisStateLattice{}

func (latticeFactory) AnalysisState() *AnalysisStateLattice {
	return analysisStateLattice
}

func (l *AnalysisStateLattice) Eq(o Lattice) bool {
	_, ok := o.(*AnalysisStateLattice)
	return ok
}

func (l *AnalysisStateLattice) AnalysisState() *AnalysisStateLattice {
	return l
}

func (l *AnalysisStateLattice) Top() Element {
	panic(errUnsupportedOperation)
}

func (l *AnalysisStateLattice) Bot() Element {
	return AnalysisState{
		element:  element{lattice: analysisStateLattice},
		graph:    elFact.MemGraph(),
		stack:    elFact.Stack(),
		invalids: elFact.Invalids(),
	}
}

func (l *AnalysisStateLattice) String() string {
	return colorize.Lattice("AnalysisState")
}

func (elementFactory) AnalysisState(graph MemGraph, stack Stack, invalids Invalids) AnalysisState {
	return AnalysisState{
		element:  element{lattice: analysisStateLattice},
		graph:    graph,
		stack:    stack,
		invalids: invalids,
	}
}

// EmptyAnalysisState returns the state at procedure-analysis entry: empty
// graph, empty stack, nothing invalidated.
func (elementFactory) EmptyAnalysisState() AnalysisState {
	return analysisStateLattice.Bot().AnalysisState()
}

// AnalysisState is the abstract state threaded through the operation layer:
// the memory graph, the variable stack and the invalid-address set.
type AnalysisState struct {
	element
	graph    MemGraph
	stack    Stack
	invalids Invalids
}

func (s AnalysisState) MemGraph() MemGraph {
	return s.graph
}

func (s AnalysisState) Stack() Stack {
	return s.stack
}

func (s AnalysisState) Invalids() Invalids {
	return s.invalids
}

func (s AnalysisState) UpdateGraph(graph MemGraph) AnalysisState {
	s.graph = graph
	return s
}

func (s AnalysisState) UpdateStack(stack Stack) AnalysisState {
	s.stack = stack
	return s
}

func (s AnalysisState) UpdateInvalids(invalids Invalids) AnalysisState {
	s.invalids = invalids
	return s
}

// identical checks whether two states share all three underlying maps.
// Used as the identity fast path of leq, join and widen.
func (s AnalysisState) identical(o AnalysisState) bool {
	return s.graph.edges == o.graph.edges &&
		s.stack.vars == o.stack.vars &&
		s.invalids.marks == o.invalids.marks
}

// Lattice element methods
func (s AnalysisState) Leq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊑")
	return s.leq(e)
}

// leq checks the piecewise order: invalid-set inclusion, pointwise stack
// agreement on shared variables, and graph-edge inclusion with identical
// destinations. No attempt is made to canonicalize addresses through a
// substitution the join would discover, so two states equal only up to
// renaming are not necessarily related. This incompleteness is intentional:
// the fixpoint solver tolerates extra iterations, not unsoundness.
func (s AnalysisState) leq(e Element) bool {
	switch o := e.(type) {
	case AnalysisState:
		if s.identical(o) {
			return true
		}
		return s.invalids.leq(o.invalids) &&
			s.stack.leq(o.stack) &&
			s.graph.leq(o.graph)
	default:
		panic(errPatternMatch(e))
	}
}

func (s AnalysisState) Geq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊒")
	return s.geq(e)
}

func (s AnalysisState) geq(e Element) bool {
	return e.(AnalysisState).leq(s)
}

func (s AnalysisState) Eq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "=")
	return s.eq(e)
}

func (s AnalysisState) eq(e Element) bool {
	o, ok := e.(AnalysisState)
	if !ok {
		return false
	}
	if s.identical(o) {
		return true
	}
	return s.graph.eq(o.graph) && s.stack.eq(o.stack) && s.invalids.eq(o.invalids)
}

func (s AnalysisState) Join(e Element) Element {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊔")
	return s.join(e)
}

func (s AnalysisState) join(e Element) Element {
	switch o := e.(type) {
	case AnalysisState:
		return s.MonoJoin(o)
	default:
		panic(errPatternMatch(e))
	}
}

// MonoJoin combines the states of two control-flow branches.
//
// A union-find structure over addresses is seeded with one equality per
// variable bound in both stacks, since the same variable denotes the same
// location in both branches. A fresh graph is then rebuilt from everything
// reachable via either stack, canonicalizing both endpoints of every copied
// edge. When a copied edge collides with an existing edge from the same
// canonical source under the same label but with a different destination,
// the two destinations are unified instead, a newly discovered equality,
// and the reconstruction restarts against the extended substitution. The
// unifier only ever merges classes and the address universe of one join is
// finite, so the loop reaches a pass without new unifications.
//
// Addresses unreachable from both stacks are dropped along the way, which
// garbage-collects stale parts of the graph. The result keeps everything
// reachable from either input rather than pruning to the paths that reach
// invalid addresses, a precision/cost trade-off that errs on the large
// side.
func (s1 AnalysisState) MonoJoin(s2 AnalysisState) AnalysisState {
	if s1.identical(s2) {
		return s1
	}

	u := newUnifier()
	s1.stack.ForEach(func(v loc.Variable, a1 loc.Address) {
		if a2, found := s2.stack.Lookup(v); found {
			u.union(a1, a2)
		}
	})

	var graph MemGraph
	for {
		graph = elFact.MemGraph()
		changed := false

		rebuild := func(stack Stack, g MemGraph) {
			visited := map[loc.Address]bool{}
			var walk func(a loc.Address)
			walk = func(a loc.Address) {
				if visited[a] {
					return
				}
				visited[a] = true
				g.ForEachOut(a, func(lbl loc.Label, dst loc.Address) {
					csrc, cdst := u.rep(a), u.rep(dst)
					if prev, found := graph.Lookup(csrc, lbl); found {
						if !prev.Equal(cdst) && u.union(prev, cdst) {
							changed = true
						}
					} else {
						graph = graph.Insert(csrc, lbl, cdst)
					}
					walk(dst)
				})
			}
			stack.ForEach(func(_ loc.Variable, a loc.Address) { walk(a) })
		}

		rebuild(s1.stack, s1.graph)
		rebuild(s2.stack, s2.graph)

		if !changed {
			break
		}
	}

	stack := elFact.Stack()
	s1.stack.MonoJoin(s2.stack).ForEach(func(v loc.Variable, a loc.Address) {
		stack = stack.Bind(v, u.rep(a))
	})

	invalids := s1.invalids.MonoJoin(s2.invalids).Remap(u.rep)

	return elFact.AnalysisState(graph, stack, invalids)
}

func (s AnalysisState) Meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (s AnalysisState) meet(e Element) Element {
	panic(errUnsupportedOperation)
}

// Widen bounds fixpoint iteration. Past MaxWidenings rounds it returns prev
// unchanged, forcing termination at the cost of under-approximating states
// reachable only through deeper loop unrollings. This can suppress
// diagnostics, never fabricate them. Below the bound it behaves as join.
func (prev AnalysisState) Widen(next AnalysisState, iteration int) AnalysisState {
	if iteration > MaxWidenings {
		return prev
	}
	if prev.identical(next) {
		return prev
	}
	return prev.MonoJoin(next)
}

func (s AnalysisState) String() string {
	return i.Indenter().Start(colorize.Element("State") + " {").NestStrings(
		s.graph.String(),
		s.stack.String(),
		s.invalids.String(),
	).End("}")
}

// Type conversion
func (s AnalysisState) AnalysisState() AnalysisState {
	return s
}
