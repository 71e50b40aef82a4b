package lattice

import (
	"testing"

	loc "github.com/plsem/stalecheck/analysis/location"
)

func TestMemGraphInsertLookup(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2, a3 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	f := loc.FieldLabel{Field: "f"}

	g := Elements().MemGraph().Insert(a1, f, a2)

	if dst, found := g.Lookup(a1, f); !found || !dst.Equal(a2) {
		t.Errorf("expected %s ─%s→ %s in %s", a1, f, a2, g)
	}
	if _, found := g.Lookup(a2, f); found {
		t.Errorf("expected no edge from %s in %s", a2, g)
	}

	// A second insert under the same source and label overwrites.
	g = g.Insert(a1, f, a3)
	if dst, _ := g.Lookup(a1, f); !dst.Equal(a3) {
		t.Errorf("expected the edge to be redirected to %s in %s", a3, g)
	}
	if g.Size() != 1 {
		t.Errorf("expected 1 edge in %s", g)
	}
}

func TestMemGraphLabelsAreDistinct(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2, a3, a4 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh(), alloc.Fresh()

	g := Elements().MemGraph().
		Insert(a1, loc.FieldLabel{Field: "f"}, a2).
		Insert(a1, loc.IndexLabel{}, a3).
		Insert(a1, loc.DerefLabel{}, a4)

	if g.Size() != 3 {
		t.Errorf("expected 3 edges in %s", g)
	}
	if dst, _ := g.Lookup(a1, loc.IndexLabel{}); !dst.Equal(a3) {
		t.Errorf("expected %s ─[*]→ %s in %s", a1, a3, g)
	}
}

func TestMemGraphOrder(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2, a3 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	f, g := loc.FieldLabel{Field: "f"}, loc.FieldLabel{Field: "g"}

	empty := Elements().MemGraph()
	small := empty.Insert(a1, f, a2)
	big := small.Insert(a2, g, a3)
	redirected := empty.Insert(a1, f, a3)

	tests := []struct {
		name   string
		g1, g2 MemGraph
		leq    bool
	}{
		{"reflexive", small, small, true},
		{"⊥ below everything", empty, big, true},
		{"edge inclusion", small, big, true},
		{"superset not below", big, small, false},
		{"same edge, different destination", small, redirected, false},
	}

	for _, test := range tests {
		if res := test.g1.Leq(test.g2); res != test.leq {
			t.Errorf("%s: expected %s ⊑ %s = %v, got %v",
				test.name, test.g1, test.g2, test.leq, res)
		}
	}

	if !small.Eq(empty.Insert(a1, f, a2)) {
		t.Errorf("expected structurally equal graphs to be =")
	}
	if small.Eq(big) {
		t.Errorf("expected %s ≠ %s", small, big)
	}
}

func TestMemGraphJoinUnsupported(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected graph-level join to panic")
		}
	}()
	g := Elements().MemGraph()
	g.Join(g)
}
