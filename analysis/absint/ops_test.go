package absint

import (
	"go/token"
	"testing"

	"github.com/plsem/stalecheck/analysis/defs"
	L "github.com/plsem/stalecheck/analysis/lattice"
	loc "github.com/plsem/stalecheck/analysis/location"

	"github.com/stretchr/testify/require"
)

func at(line int) token.Position {
	return token.Position{Filename: "test.go", Line: line, Column: 1}
}

func TestReadMaterializes(t *testing.T) {
	alloc := loc.NewAllocator()
	state := L.Elements().EmptyAnalysisState()

	res, addr, iss := Read(alloc, at(1), defs.Var("x").Field("f"), state)
	require.Nil(t, iss)

	base, found := res.Stack().Lookup("x")
	require.True(t, found, "expected the base variable bound")
	dst, found := res.MemGraph().Lookup(base, loc.FieldLabel{Field: "f"})
	require.True(t, found, "expected the field edge materialized")
	require.True(t, dst.Equal(addr))

	// A second read resolves to the same address without growing the state.
	res2, addr2, iss := Read(alloc, at(2), defs.Var("x").Field("f"), res)
	require.Nil(t, iss)
	require.True(t, addr.Equal(addr2))
	require.Equal(t, res.MemGraph().Size(), res2.MemGraph().Size())
}

func TestUseAfterInvalidate(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	_, iss := ops.Read(at(4), defs.Var("x").Field("f"))
	require.Nil(t, iss)
	require.Nil(t, ops.Invalidate(at(7), defs.Var("x").Field("f")))

	_, iss = ops.Read(at(9), defs.Var("x").Field("f"))
	require.NotNil(t, iss)
	require.Equal(t, InvalidAccessKind, iss.IssueKind())
	require.Equal(t, 7, iss.Invalidated.Pos.Line)
	require.Equal(t, "x.f", iss.Invalidated.Expr.String())
	require.Equal(t, 9, iss.Access.Pos.Line)
	require.Equal(t, "x.f", iss.Access.Expr.String())

	// Stepping through the invalid address fails as well.
	_, iss = ops.Read(at(10), defs.Var("x").Field("f").Deref())
	require.NotNil(t, iss)
}

func TestNoFalsePositives(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	for line, e := range []defs.AccessExpr{
		defs.Var("x"),
		defs.Var("x").Field("f"),
		defs.Var("y").Index().Deref(),
		defs.Var("z").Deref().Field("g").Index(),
	} {
		_, iss := ops.Read(at(line+1), e)
		require.Nil(t, iss, "fresh path %s must read cleanly", e)
		require.Nil(t, ops.Write(at(line+1), e, alloc.Fresh()))
	}
}

func TestHavocBreaksInvalidationLinkage(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	old, iss := ops.Read(at(1), defs.Var("x"))
	require.Nil(t, iss)
	require.Nil(t, ops.Invalidate(at(2), defs.Var("x")))

	ops.Havoc("x")

	fresh, iss := ops.Read(at(4), defs.Var("x"))
	require.Nil(t, iss, "a havocked variable must rebind cleanly")
	require.False(t, fresh.Equal(old))

	// The stale mark is never pruned, it just became unreachable.
	require.True(t, ops.State().Invalids().Contains(old))
}

func TestReadAllAtomic(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	require.Nil(t, ops.Invalidate(at(1), defs.Var("b")))
	before := ops.State()

	iss := ops.ReadAll(at(2), defs.Var("a").Field("f"), defs.Var("b").Deref())
	require.NotNil(t, iss)

	// The failing read-all left no trace of its earlier successful reads.
	require.True(t, ops.State().Eq(before))
	_, found := ops.State().Stack().Lookup("a")
	require.False(t, found)
}

func TestWriteBareVariableRebinds(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	require.Nil(t, ops.Invalidate(at(1), defs.Var("x")))

	// Reading the invalidated variable fails, overwriting it does not.
	_, iss := ops.Read(at(2), defs.Var("x"))
	require.NotNil(t, iss)

	target := alloc.Fresh()
	require.Nil(t, ops.Write(at(3), defs.Var("x"), target))

	addr, iss := ops.Read(at(4), defs.Var("x"))
	require.Nil(t, iss)
	require.True(t, addr.Equal(target))
}

func TestWritePrefixValidatesLikeRead(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	require.Nil(t, ops.Invalidate(at(1), defs.Var("x").Field("f")))
	before := ops.State()

	// The final step writes through the invalid x.f.
	iss := ops.Write(at(2), defs.Var("x").Field("f").Field("g"), alloc.Fresh())
	require.NotNil(t, iss)
	require.True(t, ops.State().Eq(before), "a failed write must not change the state")
}

func TestDoubleInvalidateReported(t *testing.T) {
	alloc := loc.NewAllocator()
	ops := StateOps(alloc, L.Elements().EmptyAnalysisState())

	require.Nil(t, ops.Invalidate(at(1), defs.Var("x").Field("f")))

	iss := ops.Invalidate(at(2), defs.Var("x").Field("f"))
	require.NotNil(t, iss, "re-invalidation is itself a use of the stale address")
	require.Equal(t, 1, iss.Invalidated.Pos.Line)
	require.Equal(t, 2, iss.Access.Pos.Line)

	// The original witness survives.
	witness, _ := ops.State().Invalids().Lookup(iss.Addr)
	require.Equal(t, 1, witness.Pos.Line)
}

func TestMaterializeBareOverwritePanics(t *testing.T) {
	alloc := loc.NewAllocator()
	state := L.Elements().EmptyAnalysisState()
	target := alloc.Fresh()

	require.Panics(t, func() {
		materialize(alloc, state, defs.Actor{Expr: defs.Var("x"), Pos: at(1)}, &target)
	})
}

func TestJoinedBranchesFlagMergedAccess(t *testing.T) {
	alloc := loc.NewAllocator()
	entry := L.Elements().EmptyAnalysisState()

	// then-branch: materialize and invalidate x.f.
	thenOps := StateOps(alloc, entry)
	require.Nil(t, thenOps.Invalidate(at(8), defs.Var("x").Field("f")))

	// else-branch: only read x.f, on its own fresh addresses.
	elseOps := StateOps(alloc, entry)
	_, iss := elseOps.Read(at(12), defs.Var("x").Field("f"))
	require.Nil(t, iss)

	joined := thenOps.State().MonoJoin(elseOps.State())

	_, _, iss = Read(alloc, at(15), defs.Var("x").Field("f"), joined)
	require.NotNil(t, iss, "the invalidation must survive the merge")
	require.Equal(t, 8, iss.Invalidated.Pos.Line)
}
