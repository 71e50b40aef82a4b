package lattice

import (
	"fmt"
	"sort"

	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"
	i "github.com/plsem/stalecheck/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// StackLattice is the lattice of variable stacks. The ordering on shared
// variables is equality of the bound addresses, not a subtyping-like
// relation: two stacks are ordered when they agree on every variable bound
// in both, regardless of variables bound on only one side.
type StackLattice struct {
	lattice
}

var stackLattice = &StackLattice{}

func (latticeFactory) Stack() *StackLattice {
	return stackLattice
}

func (l *StackLattice) Eq(o Lattice) bool {
	_, ok := o.(*StackLattice)
	return ok
}

func (l *StackLattice) Stack() *StackLattice {
	return l
}

func (l *StackLattice) Top() Element {
	panic(errUnsupportedOperation)
}

func (l *StackLattice) Bot() Element {
	return Stack{
		element: element{lattice: stackLattice},
		vars:    utils.NewImmMap[loc.Variable, loc.Address](),
	}
}

func (l *StackLattice) String() string {
	return colorize.Lattice("Stack")
}

func (elementFactory) Stack() Stack {
	return stackLattice.Bot().Stack()
}

// Stack binds program variables to addresses, one address per variable.
type Stack struct {
	element
	vars *immutable.Map[loc.Variable, loc.Address]
}

// Bind returns a stack where v is bound to addr, overwriting any previous
// binding.
func (s Stack) Bind(v loc.Variable, addr loc.Address) Stack {
	s.vars = s.vars.Set(v, addr)
	return s
}

// Lookup finds the address bound to v, if any.
func (s Stack) Lookup(v loc.Variable) (loc.Address, bool) {
	return s.vars.Get(v)
}

// Unbind removes the binding for v. Used by havoc.
func (s Stack) Unbind(v loc.Variable) Stack {
	s.vars = s.vars.Delete(v)
	return s
}

// ForEach visits every binding.
func (s Stack) ForEach(do func(loc.Variable, loc.Address)) {
	for itr := s.vars.Iterator(); !itr.Done(); {
		v, addr, _ := itr.Next()
		do(v, addr)
	}
}

// Size returns the number of bound variables.
func (s Stack) Size() int {
	return s.vars.Len()
}

// Lattice element methods
func (s Stack) Leq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊑")
	return s.leq(e)
}

func (s Stack) leq(e Element) bool {
	switch o := e.(type) {
	case Stack:
		if s.vars == o.vars {
			return true
		}
		res := true
		s.ForEach(func(v loc.Variable, addr loc.Address) {
			if oaddr, found := o.Lookup(v); found && !addr.Equal(oaddr) {
				res = false
			}
		})
		return res
	default:
		panic(errPatternMatch(e))
	}
}

func (s Stack) Geq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊒")
	return s.geq(e)
}

func (s Stack) geq(e Element) bool {
	return e.(Stack).leq(s)
}

func (s Stack) Eq(e Element) bool {
	checkLatticeMatch(s.lattice, e.Lattice(), "=")
	return s.eq(e)
}

func (s Stack) eq(e Element) bool {
	o, ok := e.(Stack)
	if !ok {
		return false
	}
	if s.vars == o.vars {
		return true
	}
	if s.Size() != o.Size() {
		return false
	}
	res := true
	s.ForEach(func(v loc.Variable, addr loc.Address) {
		if oaddr, found := o.Lookup(v); !found || !addr.Equal(oaddr) {
			res = false
		}
	})
	return res
}

func (s Stack) Join(e Element) Element {
	checkLatticeMatch(s.lattice, e.Lattice(), "⊔")
	return s.join(e)
}

func (s Stack) join(e Element) Element {
	switch o := e.(type) {
	case Stack:
		return s.MonoJoin(o)
	default:
		panic(errPatternMatch(e))
	}
}

// MonoJoin is a monomorphic variant of s ⊔ o for stacks. A variable bound
// on both sides keeps the numerically smaller address as a deterministic
// placeholder; the canonical substitution computed by the analysis-state
// join supersedes this choice, so the stack-level join alone is not
// semantically final. Variables bound on only one side are kept as-is.
func (s Stack) MonoJoin(o Stack) Stack {
	if s.vars == o.vars {
		return s
	}
	o.ForEach(func(v loc.Variable, oaddr loc.Address) {
		if addr, found := s.Lookup(v); found {
			s = s.Bind(v, loc.MinAddress(addr, oaddr))
		} else {
			s = s.Bind(v, oaddr)
		}
	})
	return s
}

func (s Stack) Meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (s Stack) meet(e Element) Element {
	panic(errUnsupportedOperation)
}

func (s Stack) String() string {
	buf := []string{}
	s.ForEach(func(v loc.Variable, addr loc.Address) {
		buf = append(buf, fmt.Sprintf("%s ↦ %s", v, addr))
	})

	sort.Strings(buf)

	return colorize.Field("Stack") + ": " +
		i.Indenter().Start("{").NestStrings(buf...).End("}")
}

// Type conversion
func (s Stack) Stack() Stack {
	return s
}
