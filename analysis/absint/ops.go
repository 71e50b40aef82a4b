package absint

import (
	"go/token"

	"github.com/plsem/stalecheck/analysis/defs"
	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"
)

// The transfer functions below are atomic: on failure the input state is
// returned unchanged beside the issue, so the driver may abandon the path
// or continue from the pre-failure state as it sees fit.

// Read evaluates the access expression and returns the address it resolves
// to, materializing bindings and edges as needed. It fails when any address
// traversed by the walk, including the terminal one, is invalid.
func Read(
	alloc *loc.Allocator,
	pos token.Position,
	e defs.AccessExpr,
	state L.AnalysisState,
) (L.AnalysisState, loc.Address, *Issue) {
	act := defs.Actor{Expr: e, Pos: pos}
	res, addr, iss := materialize(alloc, state, act, nil)
	if iss != nil {
		return state, loc.Address{}, iss
	}
	// The walk only validates addresses it steps away from; the terminal
	// address of an overwrite-free walk is validated here.
	if witness, invalid := res.Invalids().Lookup(addr); invalid {
		return state, loc.Address{}, &Issue{
			Invalidated: witness,
			Access:      act,
			Addr:        addr,
		}
	}
	return res, addr, nil
}

// ReadAll sequences Read over the expressions left to right, discarding the
// resolved addresses. It stops at the first failure and then returns the
// input state unchanged.
func ReadAll(
	alloc *loc.Allocator,
	pos token.Position,
	exprs []defs.AccessExpr,
	state L.AnalysisState,
) (L.AnalysisState, *Issue) {
	res := state
	for _, e := range exprs {
		var iss *Issue
		if res, _, iss = Read(alloc, pos, e, res); iss != nil {
			return state, iss
		}
	}
	return res, nil
}

// Write makes the access expression resolve to target. For a bare variable
// only the stack binding changes; otherwise the edge for the final step is
// set to target after the prefix of the walk validates like a read.
func Write(
	alloc *loc.Allocator,
	pos token.Position,
	e defs.AccessExpr,
	target loc.Address,
	state L.AnalysisState,
) (L.AnalysisState, *Issue) {
	if len(e.Steps) == 0 {
		return state.UpdateStack(state.Stack().Bind(e.Base, target)), nil
	}
	act := defs.Actor{Expr: e, Pos: pos}
	res, _, iss := materialize(alloc, state, act, &target)
	if iss != nil {
		return state, iss
	}
	return res, nil
}

// Havoc removes the variable's stack binding, modelling an assignment of an
// unknown value. A later access through the variable binds it to a fresh
// address, unrelated to any invalidation recorded against the old one.
// Havoc never fails.
func Havoc(v loc.Variable, state L.AnalysisState) L.AnalysisState {
	return state.UpdateStack(state.Stack().Unbind(v))
}

// Invalidate resolves the access expression and marks the resulting address
// invalid with the current actor as witness. Invalidating an address that
// is already invalid is itself a use of the stale address and is reported,
// not absorbed.
func Invalidate(
	alloc *loc.Allocator,
	pos token.Position,
	e defs.AccessExpr,
	state L.AnalysisState,
) (L.AnalysisState, *Issue) {
	act := defs.Actor{Expr: e, Pos: pos}
	res, addr, iss := materialize(alloc, state, act, nil)
	if iss != nil {
		return state, iss
	}
	if witness, invalid := res.Invalids().Lookup(addr); invalid {
		return state, &Issue{
			Invalidated: witness,
			Access:      act,
			Addr:        addr,
		}
	}
	return res.UpdateInvalids(res.Invalids().Mark(addr, act)), nil
}

// _sops is a wrapper around an analysis state to facilitate chaining
// operations without threading the state manually.
type _sops struct {
	alloc *loc.Allocator
	state *L.AnalysisState
}

// StateOps generates a stateful operation-exposing wrapper around the given
// analysis state. Failed operations leave the wrapped state untouched.
func StateOps(alloc *loc.Allocator, state L.AnalysisState) _sops {
	return _sops{alloc, &state}
}

func (s _sops) Read(pos token.Position, e defs.AccessExpr) (loc.Address, *Issue) {
	res, addr, iss := Read(s.alloc, pos, e, *s.state)
	if iss != nil {
		return addr, iss
	}
	*s.state = res
	return addr, nil
}

func (s _sops) ReadAll(pos token.Position, exprs ...defs.AccessExpr) *Issue {
	res, iss := ReadAll(s.alloc, pos, exprs, *s.state)
	if iss != nil {
		return iss
	}
	*s.state = res
	return nil
}

func (s _sops) Write(pos token.Position, e defs.AccessExpr, target loc.Address) *Issue {
	res, iss := Write(s.alloc, pos, e, target, *s.state)
	if iss != nil {
		return iss
	}
	*s.state = res
	return nil
}

func (s _sops) Havoc(v loc.Variable) {
	*s.state = Havoc(v, *s.state)
}

func (s _sops) Invalidate(pos token.Position, e defs.AccessExpr) *Issue {
	res, iss := Invalidate(s.alloc, pos, e, *s.state)
	if iss != nil {
		return iss
	}
	*s.state = res
	return nil
}

func (s _sops) State() L.AnalysisState {
	return *s.state
}
