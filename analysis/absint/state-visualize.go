package absint

import (
	"bytes"
	"fmt"
	"sort"

	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"
	"github.com/plsem/stalecheck/utils/dot"
)

// StateToDot renders the state as dot source: one node per address (doubly
// circled when invalid), one edge per graph edge labeled with its access
// label, and one box per stack variable pointing at its binding. Output is
// sorted so renders are reproducible.
func StateToDot(state L.AnalysisState) []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "digraph state {")
	fmt.Fprintln(&buf, "  rankdir=LR;")

	node := func(a loc.Address) string {
		return fmt.Sprintf("a%d", a.Id())
	}

	// Label strings are colorized for terminals; dot labels need them bare.
	plainLabel := func(l loc.Label) string {
		switch l := l.(type) {
		case loc.FieldLabel:
			return "." + l.Field
		case loc.IndexLabel:
			return "[*]"
		default:
			return "*"
		}
	}

	addrs := map[loc.Address]bool{}
	seen := func(a loc.Address) {
		addrs[a] = true
	}

	lines := []string{}
	state.MemGraph().ForEach(func(src loc.Address, lbl loc.Label, dst loc.Address) {
		seen(src)
		seen(dst)
		lines = append(lines, fmt.Sprintf("  %s -> %s [label=%q];",
			node(src), node(dst), plainLabel(lbl)))
	})
	state.Stack().ForEach(func(v loc.Variable, a loc.Address) {
		seen(a)
		lines = append(lines, fmt.Sprintf("  %q [shape=box];", string(v)))
		lines = append(lines, fmt.Sprintf("  %q -> %s;", string(v), node(a)))
	})

	for a := range addrs {
		attrs := ""
		if state.Invalids().Contains(a) {
			attrs = ",peripheries=2,color=red"
		}
		lines = append(lines, fmt.Sprintf("  %s [label=\"α%d\"%s];", node(a), a.Id(), attrs))
	}

	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(&buf, line)
	}
	fmt.Fprintln(&buf, "}")
	return buf.Bytes()
}

// VisualizeState renders the state to an image file named by outfname and
// the configured output format, returning the path of the rendered file.
func VisualizeState(state L.AnalysisState, outfname string) (string, error) {
	return dot.DotToImage(outfname, utils.Opts().OutputFormat(), StateToDot(state))
}
