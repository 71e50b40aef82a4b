package lattice

import (
	"testing"

	loc "github.com/plsem/stalecheck/analysis/location"
)

func TestUnifier(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2, a3, a4 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh(), alloc.Fresh()

	u := newUnifier()

	// Unseen addresses are their own representatives.
	if !u.rep(a1).Equal(a1) {
		t.Errorf("expected rep(%s) = %s", a1, a1)
	}

	if !u.union(a2, a3) {
		t.Errorf("expected the first union of %s and %s to be new", a2, a3)
	}
	if u.union(a3, a2) {
		t.Errorf("expected the repeated union of %s and %s to be known", a3, a2)
	}

	// Merging classes keeps the smallest member as representative.
	u.union(a3, a4)
	u.union(a4, a1)
	for _, a := range []loc.Address{a1, a2, a3, a4} {
		if !u.rep(a).Equal(a1) {
			t.Errorf("expected rep(%s) = %s, got %s", a, a1, u.rep(a))
		}
	}
}
