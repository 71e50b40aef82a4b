package main

import (
	"fmt"
	"go/token"
	"io/ioutil"
	"strings"

	ai "github.com/plsem/stalecheck/analysis/absint"
	"github.com/plsem/stalecheck/analysis/defs"
	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"
	"github.com/plsem/stalecheck/utils"

	"gopkg.in/yaml.v2"
)

// A trace is a hand-written instruction stream for the engine. It stands in
// for the fixpoint solver during debugging: straight-line steps plus
// explicit snapshot/join/widen markers for exercising control-flow merges.
type trace struct {
	Name  string      `yaml:"name"`
	File  string      `yaml:"file"`
	Steps []traceStep `yaml:"steps"`
}

type traceStep struct {
	Op        string   `yaml:"op"`
	Expr      string   `yaml:"expr,omitempty"`
	Exprs     []string `yaml:"exprs,omitempty"`
	From      string   `yaml:"from,omitempty"`
	Name      string   `yaml:"name,omitempty"`
	Line      int      `yaml:"line"`
	Iteration int      `yaml:"iteration,omitempty"`
}

func loadTrace(path string) (tr trace, err error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	err = yaml.UnmarshalStrict(buf, &tr)
	return
}

// parseExpr reads the harness's access-expression syntax: a base variable
// followed by ".field", "[*]" (element access) and ".*" (dereference)
// steps, e.g. "p.*.next[*]".
func parseExpr(str string) (defs.AccessExpr, error) {
	base, rest := str, ""
	if i := strings.IndexAny(str, ".["); i != -1 {
		base, rest = str[:i], str[i:]
	}
	if base == "" {
		return defs.AccessExpr{}, fmt.Errorf("access expression %q has no base variable", str)
	}

	e := defs.Var(loc.Variable(base))
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, ".*"):
			e, rest = e.Deref(), rest[2:]
		case strings.HasPrefix(rest, "[*]"):
			e, rest = e.Index(), rest[3:]
		case strings.HasPrefix(rest, "."):
			name, tail := rest[1:], ""
			if j := strings.IndexAny(name, ".["); j != -1 {
				name, tail = name[:j], name[j:]
			}
			if name == "" {
				return e, fmt.Errorf("malformed access expression %q", str)
			}
			e, rest = e.Field(name), tail
		default:
			return e, fmt.Errorf("malformed access expression %q", str)
		}
	}
	return e, nil
}

// runTrace replays a trace through the operation layer with a fresh
// allocator, reporting issues as they are found. The driver policy on
// failure is to continue from the pre-failure state.
func runTrace(tr trace, report bool) (found int, err error) {
	alloc := loc.NewAllocator()
	ops := ai.StateOps(alloc, L.Elements().EmptyAnalysisState())
	snapshots := map[string]L.AnalysisState{}

	file := tr.File
	if file == "" {
		file = tr.Name + ".go"
	}

	for idx, step := range tr.Steps {
		pos := token.Position{Filename: file, Line: step.Line, Column: 1}
		fail := func(format string, args ...interface{}) error {
			return fmt.Errorf("trace %s, step %d: %s", tr.Name, idx+1, fmt.Sprintf(format, args...))
		}
		handle := func(iss *ai.Issue) {
			if iss == nil {
				return
			}
			found++
			if report {
				fmt.Print(iss.Report())
			}
		}

		switch step.Op {
		case "read":
			e, perr := parseExpr(step.Expr)
			if perr != nil {
				return found, fail("%v", perr)
			}
			_, iss := ops.Read(pos, e)
			handle(iss)

		case "read-all":
			exprs := make([]defs.AccessExpr, 0, len(step.Exprs))
			for _, s := range step.Exprs {
				e, perr := parseExpr(s)
				if perr != nil {
					return found, fail("%v", perr)
				}
				exprs = append(exprs, e)
			}
			handle(ops.ReadAll(pos, exprs...))

		case "write":
			e, perr := parseExpr(step.Expr)
			if perr != nil {
				return found, fail("%v", perr)
			}
			var target loc.Address
			if step.From != "" {
				fe, perr := parseExpr(step.From)
				if perr != nil {
					return found, fail("%v", perr)
				}
				addr, iss := ops.Read(pos, fe)
				if iss != nil {
					handle(iss)
					continue
				}
				target = addr
			} else {
				target = alloc.Fresh()
			}
			handle(ops.Write(pos, e, target))

		case "havoc":
			ops.Havoc(loc.Variable(step.Expr))

		case "invalidate":
			e, perr := parseExpr(step.Expr)
			if perr != nil {
				return found, fail("%v", perr)
			}
			handle(ops.Invalidate(pos, e))

		case "snapshot":
			snapshots[step.Name] = ops.State()

		case "join":
			prev, ok := snapshots[step.Name]
			if !ok {
				return found, fail("join against unknown snapshot %q", step.Name)
			}
			ops = ai.StateOps(alloc, prev.MonoJoin(ops.State()))

		case "widen":
			prev, ok := snapshots[step.Name]
			if !ok {
				return found, fail("widen against unknown snapshot %q", step.Name)
			}
			ops = ai.StateOps(alloc, prev.Widen(ops.State(), step.Iteration))

		default:
			return found, fail("unknown op %q", step.Op)
		}
	}

	utils.Opts().OnVerbose(func() {
		fmt.Println(ops.State())
	})

	if utils.Opts().Visualize() {
		img, err := ai.VisualizeState(ops.State(), tr.Name)
		if err != nil {
			return found, err
		}
		fmt.Println("Rendered final memory graph to", img)
	}

	return found, nil
}
