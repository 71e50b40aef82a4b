package lattice

import (
	"go/token"
	"testing"

	"github.com/plsem/stalecheck/analysis/defs"
	loc "github.com/plsem/stalecheck/analysis/location"
)

func actorAt(v loc.Variable, line int) defs.Actor {
	return defs.Actor{
		Expr: defs.Var(v),
		Pos:  token.Position{Filename: "test.go", Line: line, Column: 1},
	}
}

func TestInvalidsOrder(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2 := alloc.Fresh(), alloc.Fresh()

	empty := Elements().Invalids()
	one := empty.Mark(a1, actorAt("x", 1))
	two := one.Mark(a2, actorAt("y", 2))

	tests := []struct {
		name     string
		i1, i2   Invalids
		leq, geq bool
	}{
		{"reflexive", one, one, true, true},
		{"⊥ below everything", empty, two, true, false},
		{"subset", one, two, true, false},
		{"disjoint", empty.Mark(a2, actorAt("y", 2)), one, false, false},
	}

	for _, test := range tests {
		if res := test.i1.Leq(test.i2); res != test.leq {
			t.Errorf("%s: expected %s ⊑ %s = %v, got %v",
				test.name, test.i1, test.i2, test.leq, res)
		}
		if res := test.i1.Geq(test.i2); res != test.geq {
			t.Errorf("%s: expected %s ⊒ %s = %v, got %v",
				test.name, test.i1, test.i2, test.geq, res)
		}
	}
}

func TestInvalidsEqIgnoresWitnesses(t *testing.T) {
	alloc := loc.NewAllocator()
	a1 := alloc.Fresh()

	i1 := Elements().Invalids().Mark(a1, actorAt("x", 1))
	i2 := Elements().Invalids().Mark(a1, actorAt("y", 9))

	if !i1.Eq(i2) {
		t.Errorf("expected %s = %s despite differing witnesses", i1, i2)
	}
}

func TestInvalidsMonoJoin(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2 := alloc.Fresh(), alloc.Fresh()

	left := Elements().Invalids().Mark(a1, actorAt("x", 1))
	right := Elements().Invalids().Mark(a1, actorAt("y", 2)).Mark(a2, actorAt("z", 3))

	joined := left.MonoJoin(right)

	if joined.Size() != 2 {
		t.Errorf("expected 2 marks in %s", joined)
	}
	// The left operand's witness survives a collision.
	if witness, found := joined.Lookup(a1); !found || witness.Expr.Base != "x" {
		t.Errorf("expected the witness of %s to name x in %s", a1, joined)
	}
	if !joined.Contains(a2) {
		t.Errorf("expected %s marked in %s", a2, joined)
	}
}

func TestInvalidsRemap(t *testing.T) {
	alloc := loc.NewAllocator()
	a1, a2, a3 := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()

	inv := Elements().Invalids().
		Mark(a1, actorAt("x", 1)).
		Mark(a2, actorAt("y", 2)).
		Mark(a3, actorAt("z", 3))

	// Collapse a2 onto a1, leave a3 alone.
	remapped := inv.Remap(func(a loc.Address) loc.Address {
		if a.Equal(a2) {
			return a1
		}
		return a
	})

	if remapped.Size() != 2 {
		t.Errorf("expected 2 marks in %s", remapped)
	}
	// On collision the witness of the smallest pre-image wins.
	if witness, found := remapped.Lookup(a1); !found || witness.Expr.Base != "x" {
		t.Errorf("expected the witness of %s to name x in %s", a1, remapped)
	}
	if witness, found := remapped.Lookup(a3); !found || witness.Expr.Base != "z" {
		t.Errorf("expected the witness of %s to name z in %s", a3, remapped)
	}
}
