package bddgen_test

import (
	"testing"

	"github.com/calltrace/bddgen"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *bddgen.Builder {
	toolbox := bddgen.NewSolverToolbox(fakeSolver{}, zerolog.Nop())
	return bddgen.NewBuilder(toolbox, bddgen.DefaultFunctionClass(), zerolog.Nop())
}

// scenario 1: a single path with no branches yields a linear chain of
// CallNodes, one per call, with no BranchNode anywhere.
func TestBuildSinglePathLinearChain(t *testing.T) {
	b := newTestBuilder()

	p := &bddgen.CallPath{
		FileName: "only",
		Calls: []bddgen.Call{
			{FunctionName: "a"},
			{FunctionName: "b"},
			{FunctionName: "c"},
		},
	}

	bdd := b.Build([]*bddgen.CallPath{p})

	var names []string
	n := bdd.Root
	for n != nil {
		call, ok := n.(*bddgen.CallNode)
		require.True(t, ok, "expected a linear chain of CallNodes only")
		names = append(names, call.Call.FunctionName)
		n = call.Next
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

// scenario 2/3: two paths sharing a first call but diverging on the second
// produce a CallNode followed by a BranchNode whose two children are each
// CallNode chains.
func TestBuildSharedPrefixThenBranch(t *testing.T) {
	b := newTestBuilder()

	arr := bddgen.NewArray(1, "cond", 64, 1, 1)
	sym := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 1)
	isOne := bddgen.NewBinaryExpr(bddgen.EQ, sym, bddgen.NewConstantExpr(1, 1))

	pTrue := &bddgen.CallPath{
		FileName:    "true-branch",
		Constraints: []bddgen.Expr{isOne},
		Calls: []bddgen.Call{
			{FunctionName: "shared"},
			{FunctionName: "on_true_only"},
		},
	}
	pFalse := &bddgen.CallPath{
		FileName:    "false-branch",
		Constraints: []bddgen.Expr{bddgen.NewNotExpr(isOne)},
		Calls: []bddgen.Call{
			{FunctionName: "shared"},
			{FunctionName: "on_false_only"},
		},
	}

	bdd := b.Build([]*bddgen.CallPath{pTrue, pFalse})

	root, ok := bdd.Root.(*bddgen.CallNode)
	require.True(t, ok, "expected the shared call to head the tree")
	require.Equal(t, "shared", root.Call.FunctionName)

	branch, ok := root.Next.(*bddgen.BranchNode)
	require.True(t, ok, "expected divergence to produce a BranchNode")
	require.NotNil(t, branch.Condition)

	onTrue, ok := branch.OnTrue.(*bddgen.CallNode)
	require.True(t, ok)
	require.Equal(t, "on_true_only", onTrue.Call.FunctionName)

	onFalse, ok := branch.OnFalse.(*bddgen.CallNode)
	require.True(t, ok)
	require.Equal(t, "on_false_only", onFalse.Call.FunctionName)
}

// node ids are assigned in strictly increasing, unique order as nodes are
// created during the build (§5 monotonic id counter).
func TestBuildNodeIDsAreUniqueAndIncreasing(t *testing.T) {
	b := newTestBuilder()

	p := &bddgen.CallPath{
		FileName: "only",
		Calls: []bddgen.Call{
			{FunctionName: "a"},
			{FunctionName: "b"},
		},
	}
	bdd := b.Build([]*bddgen.CallPath{p})

	seen := map[uint64]bool{}
	var prev uint64
	n := bdd.Root
	for n != nil {
		id := n.ID()
		require.False(t, seen[id], "node id %d reused", id)
		require.Greater(t, id, prev, "node ids must increase in creation order")
		seen[id] = true
		prev = id
		n = n.(*bddgen.CallNode).Next
	}
	require.Len(t, seen, 2)
}

// scenario 5: a path containing a skip-listed call between two others
// yields the same BDD shape as an equivalent path without it.
func TestBuildElidesSkipCalls(t *testing.T) {
	b := newTestBuilder()

	withSkip := &bddgen.CallPath{
		FileName: "with-skip",
		Calls: []bddgen.Call{
			{FunctionName: "a"},
			{FunctionName: "current_time"},
			{FunctionName: "b"},
		},
	}

	bdd := b.Build([]*bddgen.CallPath{withSkip})

	var names []string
	n := bdd.Root
	for n != nil {
		call := n.(*bddgen.CallNode)
		names = append(names, call.Call.FunctionName)
		n = call.Next
	}
	require.Equal(t, []string{"a", "b"}, names, "skip-listed calls must not appear in the built tree")
}

func TestDumpIncludesProvenanceAndCompactForm(t *testing.T) {
	b := newTestBuilder()

	p := &bddgen.CallPath{
		FileName: "trace.path",
		Calls: []bddgen.Call{
			{FunctionName: "only_call"},
		},
	}
	bdd := b.Build([]*bddgen.CallPath{p})

	dump := bdd.Dump()
	require.Contains(t, dump, "trace.path")
	require.Contains(t, dump, "CALL only_call")
}

// DumpCompact must render a call's arguments in a stable, sorted-by-name
// order every time — Call.Args is a Go map, whose natural iteration order
// is randomized per run, unlike the original's sorted std::map.
func TestDumpCompactArgumentOrderIsDeterministic(t *testing.T) {
	p := &bddgen.CallPath{
		FileName: "only",
		Calls: []bddgen.Call{
			{FunctionName: "map_allocate", Args: map[string]bddgen.Argument{
				"zeta":  {Expr: bddgen.NewConstantExpr(1, 8)},
				"alpha": {Expr: bddgen.NewConstantExpr(2, 8)},
				"mid":   {Expr: bddgen.NewConstantExpr(3, 8)},
			}},
		},
	}

	var dumps []string
	for i := 0; i < 10; i++ {
		b := newTestBuilder()
		fresh := &bddgen.CallPath{FileName: p.FileName, Constraints: p.Constraints, Calls: append([]bddgen.Call{}, p.Calls...)}
		bdd := b.Build([]*bddgen.CallPath{fresh})
		dumps = append(dumps, bdd.Dump())
	}
	for i := 1; i < len(dumps); i++ {
		require.Equal(t, dumps[0], dumps[i], "dump output must be identical across runs")
	}
	require.Regexp(t, "alpha=.*mid=.*zeta=", dumps[0], "args must appear in sorted-by-name order")
}
