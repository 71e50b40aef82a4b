package lattice

import (
	"fmt"
	"sort"

	"github.com/plsem/stalecheck/analysis/defs"
	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"
	i "github.com/plsem/stalecheck/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// InvalidsLattice is the lattice of invalid-address sets, ordered by
// inclusion of the marked addresses. The witness actors never participate
// in the ordering.
type InvalidsLattice struct {
	lattice
}

var invalidsLattice = &InvalidsLattice{}

func (latticeFactory) Invalids() *InvalidsLattice {
	return invalidsLattice
}

func (l *InvalidsLattice) Eq(o Lattice) bool {
	_, ok := o.(*InvalidsLattice)
	return ok
}

func (l *InvalidsLattice) Invalids() *InvalidsLattice {
	return l
}

func (l *InvalidsLattice) Top() Element {
	panic(errUnsupportedOperation)
}

func (l *InvalidsLattice) Bot() Element {
	return Invalids{
		element: element{lattice: invalidsLattice},
		marks:   utils.NewImmMap[loc.Address, defs.Actor](),
	}
}

func (l *InvalidsLattice) String() string {
	return colorize.Lattice("Invalids")
}

func (elementFactory) Invalids() Invalids {
	return invalidsLattice.Bot().Invalids()
}

// Invalids is the set of addresses known to be invalid, each carrying the
// actor that witnessed the invalidation. Absence from the set means "known
// valid", not "unknown". At most one witness is kept per address.
type Invalids struct {
	element
	marks *immutable.Map[loc.Address, defs.Actor]
}

// Mark returns an invalid-set where addr is marked invalid with the given
// witness, overwriting any previous witness.
func (inv Invalids) Mark(addr loc.Address, witness defs.Actor) Invalids {
	inv.marks = inv.marks.Set(addr, witness)
	return inv
}

// Lookup finds the witness for addr, if addr is marked invalid.
func (inv Invalids) Lookup(addr loc.Address) (defs.Actor, bool) {
	return inv.marks.Get(addr)
}

// Contains checks whether addr is marked invalid.
func (inv Invalids) Contains(addr loc.Address) bool {
	_, found := inv.marks.Get(addr)
	return found
}

// ForEach visits every marked address with its witness.
func (inv Invalids) ForEach(do func(loc.Address, defs.Actor)) {
	for itr := inv.marks.Iterator(); !itr.Done(); {
		addr, witness, _ := itr.Next()
		do(addr, witness)
	}
}

// Size returns the number of marked addresses.
func (inv Invalids) Size() int {
	return inv.marks.Len()
}

// Remap replaces every marked address addr with f(addr). When two marks
// collapse onto the same address, the witness of the numerically smallest
// pre-image wins. The rule is deterministic and carries no semantic weight
// beyond diagnostic text stability.
func (inv Invalids) Remap(f func(loc.Address) loc.Address) Invalids {
	type mark struct {
		pre     loc.Address
		witness defs.Actor
	}
	buf := []mark{}
	inv.ForEach(func(addr loc.Address, witness defs.Actor) {
		buf = append(buf, mark{addr, witness})
	})
	sort.Slice(buf, func(i, j int) bool {
		return buf[i].pre.Less(buf[j].pre)
	})

	fresh := Elements().Invalids()
	for _, m := range buf {
		post := f(m.pre)
		if !fresh.Contains(post) {
			fresh = fresh.Mark(post, m.witness)
		}
	}
	return fresh
}

// Lattice element methods
func (inv Invalids) Leq(e Element) bool {
	checkLatticeMatch(inv.lattice, e.Lattice(), "⊑")
	return inv.leq(e)
}

func (inv Invalids) leq(e Element) bool {
	switch o := e.(type) {
	case Invalids:
		if inv.marks == o.marks {
			return true
		}
		res := true
		inv.ForEach(func(addr loc.Address, _ defs.Actor) {
			if !o.Contains(addr) {
				res = false
			}
		})
		return res
	default:
		panic(errPatternMatch(e))
	}
}

func (inv Invalids) Geq(e Element) bool {
	checkLatticeMatch(inv.lattice, e.Lattice(), "⊒")
	return inv.geq(e)
}

func (inv Invalids) geq(e Element) bool {
	return e.(Invalids).leq(inv)
}

func (inv Invalids) Eq(e Element) bool {
	checkLatticeMatch(inv.lattice, e.Lattice(), "=")
	return inv.eq(e)
}

// eq is leq in both directions: witness identity is ignored, so two sets
// marking the same addresses with different witnesses are equal.
func (inv Invalids) eq(e Element) bool {
	o, ok := e.(Invalids)
	if !ok {
		return false
	}
	if inv.marks == o.marks {
		return true
	}
	return inv.Size() == o.Size() && inv.leq(o)
}

func (inv Invalids) Join(e Element) Element {
	checkLatticeMatch(inv.lattice, e.Lattice(), "⊔")
	return inv.join(e)
}

func (inv Invalids) join(e Element) Element {
	switch o := e.(type) {
	case Invalids:
		return inv.MonoJoin(o)
	default:
		panic(errPatternMatch(e))
	}
}

// MonoJoin is a monomorphic variant of inv ⊔ o. When both sides mark the
// same address, the left operand's witness is kept.
func (inv Invalids) MonoJoin(o Invalids) Invalids {
	if inv.marks == o.marks {
		return inv
	}
	o.ForEach(func(addr loc.Address, witness defs.Actor) {
		if !inv.Contains(addr) {
			inv = inv.Mark(addr, witness)
		}
	})
	return inv
}

func (inv Invalids) Meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (inv Invalids) meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (inv Invalids) String() string {
	buf := []string{}
	inv.ForEach(func(addr loc.Address, witness defs.Actor) {
		buf = append(buf, fmt.Sprintf("%s %s %s", addr, colorize.Attr("↯"), witness))
	})

	sort.Strings(buf)

	return colorize.Field("Invalids") + ": " +
		i.Indenter().Start("{").NestStrings(buf...).End("}")
}

// Type conversion
func (inv Invalids) Invalids() Invalids {
	return inv
}
