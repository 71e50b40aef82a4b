package location

import (
	"github.com/plsem/stalecheck/utils"
)

// Label names one edge in the memory graph: a field selection, an array
// index, or a pointer dereference. Labels are totally ordered so that graph
// dumps and join traversals are deterministic; the order carries no meaning
// beyond identity.
type Label interface {
	Hash() uint32
	Equal(Label) bool
	Less(Label) bool
	String() string

	rank() int
}

// FieldLabel names the edge selecting a named field.
type FieldLabel struct {
	Field string
}

func (l FieldLabel) rank() int { return 0 }

func (l FieldLabel) Equal(ol Label) bool {
	o, ok := ol.(FieldLabel)
	return ok && l == o
}

func (l FieldLabel) Less(ol Label) bool {
	if o, ok := ol.(FieldLabel); ok {
		return l.Field < o.Field
	}
	return l.rank() < ol.rank()
}

func (l FieldLabel) Hash() uint32 {
	return utils.HashCombine(uint32(l.rank()), utils.HashString(l.Field))
}

func (l FieldLabel) String() string {
	return colorize.Label("." + l.Field)
}

// IndexLabel names the edge selecting an array or slice element. All
// elements are lumped under a single edge, so distinct concrete indices
// share one abstract destination.
type IndexLabel struct{}

func (l IndexLabel) rank() int { return 1 }

func (l IndexLabel) Equal(ol Label) bool {
	_, ok := ol.(IndexLabel)
	return ok
}

func (l IndexLabel) Less(ol Label) bool {
	return l.rank() < ol.rank()
}

func (l IndexLabel) Hash() uint32 {
	return utils.HashCombine(uint32(l.rank()))
}

func (l IndexLabel) String() string {
	return colorize.Label("[*]")
}

// DerefLabel names the edge following a pointer dereference.
type DerefLabel struct{}

func (l DerefLabel) rank() int { return 2 }

func (l DerefLabel) Equal(ol Label) bool {
	_, ok := ol.(DerefLabel)
	return ok
}

func (l DerefLabel) Less(ol Label) bool {
	return l.rank() < ol.rank()
}

func (l DerefLabel) Hash() uint32 {
	return utils.HashCombine(uint32(l.rank()))
}

func (l DerefLabel) String() string {
	return colorize.Label("*")
}
