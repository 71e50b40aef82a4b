package lattice

import (
	loc "github.com/plsem/stalecheck/analysis/location"

	uf "github.com/spakin/disjoint"
)

// unifier is a transient union-find structure over addresses, discovering
// address equalities during one join. It is mutable scratch state scoped to
// a single MonoJoin invocation and must never be retained across calls or
// shared between concurrent joins.
type unifier struct {
	elems map[loc.Address]*uf.Element
}

func newUnifier() *unifier {
	return &unifier{elems: map[loc.Address]*uf.Element{}}
}

func (u *unifier) elem(a loc.Address) *uf.Element {
	e, found := u.elems[a]
	if !found {
		e = uf.NewElement()
		e.Data = a
		u.elems[a] = e
	}
	return e
}

// union merges the equivalence classes of a and b, keeping the numerically
// smallest address of the merged class as representative. Reports whether a
// new equality was discovered.
func (u *unifier) union(a, b loc.Address) bool {
	ea, eb := u.elem(a).Find(), u.elem(b).Find()
	if ea == eb {
		return false
	}
	rep := loc.MinAddress(ea.Data.(loc.Address), eb.Data.(loc.Address))
	uf.Union(ea, eb)
	ea.Find().Data = rep
	return true
}

// rep returns the canonical representative of a's equivalence class.
// Addresses never unioned are their own representatives.
func (u *unifier) rep(a loc.Address) loc.Address {
	if e, found := u.elems[a]; found {
		return e.Find().Data.(loc.Address)
	}
	return a
}
