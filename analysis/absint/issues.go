// Package absint implements the transfer functions of the staleness
// analysis: reading, writing, havocking and invalidating abstract memory
// through access expressions, and the diagnostics produced when an
// invalidated address is touched.
package absint

import (
	"fmt"
	"go/token"

	"github.com/plsem/stalecheck/analysis/defs"
	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"

	"github.com/fatih/color"
)

// InvalidAccessKind is the issue category of every diagnostic this layer
// produces.
const InvalidAccessKind = "use-after-invalidation"

// TraceEntry is one step of an issue trace.
type TraceEntry struct {
	Pos     token.Position
	Message string
}

// Issue reports an access to an invalidated address: the actor that
// invalidated it and the actor that tripped over it. The address itself is
// shown in debug output only.
type Issue struct {
	Invalidated defs.Actor
	Access      defs.Actor
	Addr        loc.Address
}

// Position returns the source position of the offending access.
func (iss *Issue) Position() token.Position {
	return iss.Access.Pos
}

func (iss *Issue) IssueKind() string {
	return InvalidAccessKind
}

func (iss *Issue) Message() string {
	msg := fmt.Sprintf("`%s` accesses memory invalidated by `%s`",
		iss.Access.Expr, iss.Invalidated.Expr)
	if utils.Opts().Debug() {
		msg += fmt.Sprintf(" (address %s)", iss.Addr)
	}
	return msg
}

// Trace returns the two-entry history of the issue: the invalidation site
// first, the access site second.
func (iss *Issue) Trace() []TraceEntry {
	return []TraceEntry{{
		Pos:     iss.Invalidated.Pos,
		Message: fmt.Sprintf("invalidated by `%s`", iss.Invalidated.Expr),
	}, {
		Pos:     iss.Access.Pos,
		Message: fmt.Sprintf("accessed by `%s`", iss.Access.Expr),
	}}
}

func (iss *Issue) Error() string {
	return fmt.Sprintf("%s: %s", iss.Position(), iss.Message())
}

// Report renders the issue with its trace for terminal output.
func (iss *Issue) Report() string {
	str := color.RedString(iss.IssueKind()) + ": " + iss.Error() + "\n"
	for _, entry := range iss.Trace() {
		str += fmt.Sprintf("|-- %s: %s\n", entry.Pos, entry.Message)
	}
	return str
}
