package lattice

import (
	"log"
)

type Lattice interface {
	Top() Element
	Bot() Element

	String() string
	Eq(Lattice) bool

	// These methods allow for quick type conversions.
	// Suitable, if you know what lattice type to expect.
	MemGraph() *MemGraphLattice
	Stack() *StackLattice
	Invalids() *InvalidsLattice
	AnalysisState() *AnalysisStateLattice
}

type lattice struct{}

func (*lattice) MemGraph() *MemGraphLattice {
	panic(errUnsupportedTypeConversion)
}

func (*lattice) Stack() *StackLattice {
	panic(errUnsupportedTypeConversion)
}

func (*lattice) Invalids() *InvalidsLattice {
	panic(errUnsupportedTypeConversion)
}

func (*lattice) AnalysisState() *AnalysisStateLattice {
	panic(errUnsupportedTypeConversion)
}

func checkLatticeMatch(l1, l2 Lattice, binop string) {
	if !l1.Eq(l2) {
		log.Fatal(
			"Lattice error - Invalid", binop,
			"\nOperand 1 ∈\n",
			l1.String(),
			"\nOperand 2 ∈\n",
			l2.String(),
		)
	}
}
