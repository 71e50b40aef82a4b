package lattice

import (
	"fmt"
	"sort"

	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"
	i "github.com/plsem/stalecheck/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// MemGraphLattice is the lattice of memory graphs, ordered by edge
// inclusion.
type MemGraphLattice struct {
	lattice
}

var memGraphLattice = &MemGraphLattice{}

func (latticeFactory) MemGraph() *MemGraphLattice {
	return memGraphLattice
}

func (l *MemGraphLattice) Eq(o Lattice) bool {
	_, ok := o.(*MemGraphLattice)
	return ok
}

func (l *MemGraphLattice) MemGraph() *MemGraphLattice {
	return l
}

func (l *MemGraphLattice) Top() Element {
	panic(errUnsupportedOperation)
}

func (l *MemGraphLattice) Bot() Element {
	return MemGraph{
		element: element{lattice: memGraphLattice},
		edges:   utils.NewImmMap[loc.Address, *immutable.Map[loc.Label, loc.Address]](),
	}
}

func (l *MemGraphLattice) String() string {
	return colorize.Lattice("MemGraph")
}

func (elementFactory) MemGraph() MemGraph {
	return memGraphLattice.Bot().MemGraph()
}

// MemGraph is the heap shape: a deterministic mapping from address and
// access label to at most one destination address. It is not a points-to
// set; soundness under merged aliasing comes from the unification performed
// by the analysis-state join, not from multi-valued edges. Edges are added,
// never removed; only the join's selective reconstruction drops edges that
// became unreachable.
type MemGraph struct {
	element
	edges *immutable.Map[loc.Address, *immutable.Map[loc.Label, loc.Address]]
}

// Insert returns a graph where src steps to dst under lbl, overwriting any
// previous edge from src under lbl.
func (g MemGraph) Insert(src loc.Address, lbl loc.Label, dst loc.Address) MemGraph {
	out, found := g.edges.Get(src)
	if !found {
		out = utils.NewImmMap[loc.Label, loc.Address]()
	}
	g.edges = g.edges.Set(src, out.Set(lbl, dst))
	return g
}

// Lookup finds the destination of the edge from src under lbl, if any.
func (g MemGraph) Lookup(src loc.Address, lbl loc.Label) (dst loc.Address, found bool) {
	out, found := g.edges.Get(src)
	if !found {
		return dst, false
	}
	return out.Get(lbl)
}

// ForEachOut visits every edge leaving src.
func (g MemGraph) ForEachOut(src loc.Address, do func(loc.Label, loc.Address)) {
	out, found := g.edges.Get(src)
	if !found {
		return
	}
	for itr := out.Iterator(); !itr.Done(); {
		lbl, dst, _ := itr.Next()
		do(lbl, dst)
	}
}

// ForEach visits every edge in the graph.
func (g MemGraph) ForEach(do func(src loc.Address, lbl loc.Label, dst loc.Address)) {
	for itr := g.edges.Iterator(); !itr.Done(); {
		src, out, _ := itr.Next()
		for oitr := out.Iterator(); !oitr.Done(); {
			lbl, dst, _ := oitr.Next()
			do(src, lbl, dst)
		}
	}
}

// Size returns the number of edges.
func (g MemGraph) Size() (size int) {
	for itr := g.edges.Iterator(); !itr.Done(); {
		_, out, _ := itr.Next()
		size += out.Len()
	}
	return
}

// Lattice element methods
func (g MemGraph) Leq(e Element) bool {
	checkLatticeMatch(g.lattice, e.Lattice(), "⊑")
	return g.leq(e)
}

func (g MemGraph) leq(e Element) bool {
	switch o := e.(type) {
	case MemGraph:
		if g.edges == o.edges {
			return true
		}
		res := true
		g.ForEach(func(src loc.Address, lbl loc.Label, dst loc.Address) {
			if odst, found := o.Lookup(src, lbl); !found || !dst.Equal(odst) {
				res = false
			}
		})
		return res
	default:
		panic(errPatternMatch(e))
	}
}

func (g MemGraph) Geq(e Element) bool {
	checkLatticeMatch(g.lattice, e.Lattice(), "⊒")
	return g.geq(e)
}

func (g MemGraph) geq(e Element) bool {
	// OBS: a ⊑ b ⇔ b ⊒ a
	return e.(MemGraph).leq(g)
}

func (g MemGraph) Eq(e Element) bool {
	checkLatticeMatch(g.lattice, e.Lattice(), "=")
	return g.eq(e)
}

func (g MemGraph) eq(e Element) bool {
	o, ok := e.(MemGraph)
	if !ok {
		return false
	}
	if g.edges == o.edges {
		return true
	}
	return g.Size() == o.Size() && g.leq(o)
}

// Join is unsupported at the graph level. Graphs from different branches
// can only be combined through the analysis-state join, which discovers the
// address unification that makes the deterministic edge mapping sound.
func (g MemGraph) Join(e Element) Element {
	panic(errUnsupportedOperation)
}

func (g MemGraph) join(e Element) Element {
	panic(errUnsupportedOperation)
}

func (g MemGraph) Meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (g MemGraph) meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (g MemGraph) String() string {
	type edge struct {
		src loc.Address
		lbl loc.Label
		dst loc.Address
	}
	buf := []edge{}
	g.ForEach(func(src loc.Address, lbl loc.Label, dst loc.Address) {
		buf = append(buf, edge{src, lbl, dst})
	})

	sort.Slice(buf, func(i, j int) bool {
		if !buf[i].src.Equal(buf[j].src) {
			return buf[i].src.Less(buf[j].src)
		}
		return buf[i].lbl.Less(buf[j].lbl)
	})

	strs := make([]string, 0, len(buf))
	for _, e := range buf {
		strs = append(strs, fmt.Sprintf("%s ─%s→ %s", e.src, e.lbl, e.dst))
	}

	return colorize.Field("Graph") + ": " +
		i.Indenter().Start("{").NestStrings(strs...).End("}")
}

// Type conversion
func (g MemGraph) MemGraph() MemGraph {
	return g
}
