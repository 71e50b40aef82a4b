package absint

import (
	"testing"

	"github.com/plsem/stalecheck/analysis/defs"
	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
)

// renderState builds a small fixed state covering every renderable
// construct: field and deref edges, multiple stack bindings, and an
// invalid address.
func renderState() L.AnalysisState {
	alloc := loc.NewAllocator()
	a1, a2, a3 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()

	s := L.Elements().EmptyAnalysisState()
	s = s.UpdateStack(s.Stack().Bind("x", a1).Bind("y", a3))
	s = s.UpdateGraph(s.MemGraph().
		Insert(a1, loc.FieldLabel{Field: "f"}, a2).
		Insert(a2, loc.DerefLabel{}, a3))
	witness := defs.Actor{Expr: defs.Var("y"), Pos: at(5)}
	return s.UpdateInvalids(s.Invalids().Mark(a3, witness))
}

func TestStateDump(t *testing.T) {
	defer func(prev bool) { color.NoColor = prev }(color.NoColor)
	color.NoColor = true

	g := goldie.New(t)
	g.Assert(t, "state", []byte(renderState().String()))
}

func TestStateToDot(t *testing.T) {
	defer func(prev bool) { color.NoColor = prev }(color.NoColor)
	color.NoColor = true

	g := goldie.New(t)
	g.Assert(t, "state-dot", StateToDot(renderState()))
}
