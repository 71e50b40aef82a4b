// Package defs holds the small definitions shared between the abstract
// domain and the operation layer: access expressions and the actors that
// performed them.
package defs

import (
	"fmt"
	"go/token"

	loc "github.com/plsem/stalecheck/analysis/location"
)

// AccessExpr is a syntactic path into memory: a base variable followed by
// an ordered sequence of access steps.
type AccessExpr struct {
	Base  loc.Variable
	Steps []loc.Label
}

// Var creates the access expression consisting of the bare variable v.
func Var(v loc.Variable) AccessExpr {
	return AccessExpr{Base: v}
}

func (e AccessExpr) extend(l loc.Label) AccessExpr {
	steps := make([]loc.Label, len(e.Steps), len(e.Steps)+1)
	copy(steps, e.Steps)
	return AccessExpr{Base: e.Base, Steps: append(steps, l)}
}

// Field extends the expression with a field selection.
func (e AccessExpr) Field(name string) AccessExpr {
	return e.extend(loc.FieldLabel{Field: name})
}

// Index extends the expression with an array element selection.
func (e AccessExpr) Index() AccessExpr {
	return e.extend(loc.IndexLabel{})
}

// Deref extends the expression with a pointer dereference.
func (e AccessExpr) Deref() AccessExpr {
	return e.extend(loc.DerefLabel{})
}

func (e AccessExpr) String() string {
	str := e.Base.String()
	for _, step := range e.Steps {
		switch step.(type) {
		case loc.DerefLabel:
			str = "(*" + str + ")"
		default:
			str += step.String()
		}
	}
	return str
}

// Actor records who performed an operation: the access expression that was
// evaluated and the source position it was evaluated at. Actors are
// diagnostic metadata only and never take part in lattice comparisons.
type Actor struct {
	Expr AccessExpr
	Pos  token.Position
}

func (a Actor) String() string {
	return fmt.Sprintf("%s at %s", a.Expr, a.Pos)
}
