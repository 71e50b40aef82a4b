package absint

import (
	"fmt"

	"github.com/plsem/stalecheck/analysis/defs"
	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"
)

// materialize resolves the access expression of the given actor to an
// address, mutating the state along the way: an unseen base variable is
// bound to a fresh address, and missing edges are allocated on demand.
// When overwrite is non-nil, the edge for the final step is set to the
// overwrite address instead of being followed.
//
// Before every step the current address is checked against the invalid
// set; a hit aborts the walk with an issue naming the invalidating witness
// and the given actor, and the input state is returned unchanged. The walk
// never validates the terminal address of an overwrite-free walk; that
// final check is the operation layer's responsibility.
//
// Bare-variable overwrites never reach this function: a variable has no
// incoming edge to update, so the caller rebinds the stack directly. An
// overwrite surviving to a zero-step walk is a caller bug, not a property
// of the analyzed program, and panics.
func materialize(
	alloc *loc.Allocator,
	state L.AnalysisState,
	act defs.Actor,
	overwrite *loc.Address,
) (L.AnalysisState, loc.Address, *Issue) {
	orig := state

	base, found := state.Stack().Lookup(act.Expr.Base)
	if !found {
		base = alloc.Fresh()
		state = state.UpdateStack(state.Stack().Bind(act.Expr.Base, base))
	}

	if len(act.Expr.Steps) == 0 {
		if overwrite != nil {
			panic(fmt.Errorf("overwrite of bare access %s reached the graph walk", act.Expr))
		}
		return state, base, nil
	}

	graph := state.MemGraph()
	cur := base
	for i, lbl := range act.Expr.Steps {
		if witness, invalid := state.Invalids().Lookup(cur); invalid {
			return orig, loc.Address{}, &Issue{
				Invalidated: witness,
				Access:      act,
				Addr:        cur,
			}
		}

		last := i == len(act.Expr.Steps)-1
		switch {
		case last && overwrite != nil:
			graph = graph.Insert(cur, lbl, *overwrite)
			cur = *overwrite
		default:
			if dst, found := graph.Lookup(cur, lbl); found {
				cur = dst
			} else {
				fresh := alloc.Fresh()
				graph = graph.Insert(cur, lbl, fresh)
				cur = fresh
			}
		}
	}

	return state.UpdateGraph(graph), cur, nil
}
