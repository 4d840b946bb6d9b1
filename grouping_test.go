package bddgen_test

import (
	"testing"

	"github.com/calltrace/bddgen"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *bddgen.GroupingEngine {
	toolbox := bddgen.NewSolverToolbox(fakeSolver{}, zerolog.Nop())
	return bddgen.NewGroupingEngine(toolbox, bddgen.DefaultFunctionClass())
}

// two paths whose next call has the same name and equivalent arguments
// form a single group: both land in OnTrue, OnFalse is empty, and no
// discriminator is needed (§4.3 step c).
func TestGroupSameNextCallMergesIntoOneGroup(t *testing.T) {
	eng := newTestEngine()

	arr := bddgen.NewArray(1, "x", 64, 32, 1)
	read := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 32)

	mkPath := func(name string) *bddgen.CallPath {
		return &bddgen.CallPath{
			FileName: name,
			Calls: []bddgen.Call{
				{FunctionName: "map_get", Args: map[string]bddgen.Argument{
					"key": {Expr: read},
				}},
			},
		}
	}

	p1, p2 := mkPath("p1"), mkPath("p2")
	g := eng.Group([]*bddgen.CallPath{p1, p2})

	require.Nil(t, g.Discriminator)
	require.Len(t, g.OnTrue, 2)
	require.Empty(t, g.OnFalse)
}

// scenario 3: same call name, an argument differs by a constant value that
// is implied true/false by each path's own constraints — the constraint
// itself becomes the discriminator.
func TestGroupDifferentArgValueBranchesOnConstraint(t *testing.T) {
	eng := newTestEngine()

	arr := bddgen.NewArray(1, "cond", 64, 1, 1)
	sym := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 1)
	isOne := bddgen.NewBinaryExpr(bddgen.EQ, sym, bddgen.NewConstantExpr(1, 1))

	pTrue := &bddgen.CallPath{
		FileName:    "true-branch",
		Constraints: []bddgen.Expr{isOne},
		Calls: []bddgen.Call{
			{FunctionName: "vector_borrow", Args: map[string]bddgen.Argument{
				"index": {Expr: bddgen.NewConstantExpr(1, 32)},
			}},
		},
	}
	pFalse := &bddgen.CallPath{
		FileName:    "false-branch",
		Constraints: []bddgen.Expr{bddgen.NewNotExpr(isOne)},
		Calls: []bddgen.Call{
			{FunctionName: "vector_borrow", Args: map[string]bddgen.Argument{
				"index": {Expr: bddgen.NewConstantExpr(0, 32)},
			}},
		},
	}

	g := eng.Group([]*bddgen.CallPath{pTrue, pFalse})

	require.NotEmpty(t, g.OnTrue)
	require.NotEmpty(t, g.OnFalse)
	require.NotNil(t, g.Discriminator, "differing arg values must produce a discriminating constraint")
}

// scenario 4: an output (pass-by-reference) argument whose pre-call value
// differs but whose binding is an output must still be treated as equal,
// merging both paths into a single group with no discriminator.
func TestGroupOutputArgumentIgnoredInEquality(t *testing.T) {
	eng := newTestEngine()

	before1 := bddgen.NewConstantExpr(0, 32)
	before2 := bddgen.NewConstantExpr(1, 32)
	after := bddgen.NewConstantExpr(7, 32)

	mkPath := func(name string, before bddgen.Expr) *bddgen.CallPath {
		return &bddgen.CallPath{
			FileName: name,
			Calls: []bddgen.Call{
				{FunctionName: "packet_borrow_next_chunk", Args: map[string]bddgen.Argument{
					"chunk": {Before: before, After: after},
				}},
			},
		}
	}

	p1 := mkPath("p1", before1)
	p2 := mkPath("p2", before2)

	g := eng.Group([]*bddgen.CallPath{p1, p2})

	require.Nil(t, g.Discriminator)
	require.Len(t, g.OnTrue, 2)
}

// two paths whose next call is the same skip-listed function are equal by
// definition (call-equality rule, §4.3.b), regardless of the skip call's
// own arguments.
func TestGroupSkipFunctionEqualByDefinition(t *testing.T) {
	eng := newTestEngine()

	p1 := &bddgen.CallPath{
		FileName: "with-skip",
		Calls: []bddgen.Call{
			{FunctionName: "current_time", Args: map[string]bddgen.Argument{
				"t": {Expr: bddgen.NewConstantExpr(111, 64)},
			}},
		},
	}
	p2 := &bddgen.CallPath{
		FileName: "with-different-skip-args",
		Calls: []bddgen.Call{
			{FunctionName: "current_time", Args: map[string]bddgen.Argument{
				"t": {Expr: bddgen.NewConstantExpr(222, 64)},
			}},
		},
	}

	g := eng.Group([]*bddgen.CallPath{p1, p2})

	require.Nil(t, g.Discriminator)
	require.Len(t, g.OnTrue, 2)
}

// Universal invariant (§8): whenever Group returns a non-empty OnFalse, the
// Discriminator is non-nil and every path routed to OnTrue/OnFalse
// satisfies it/its negation under the engine's own solver.
func TestGroupResultInvariant(t *testing.T) {
	eng := newTestEngine()

	arr := bddgen.NewArray(1, "cond", 64, 1, 1)
	sym := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 1)
	isOne := bddgen.NewBinaryExpr(bddgen.EQ, sym, bddgen.NewConstantExpr(1, 1))

	pTrue := &bddgen.CallPath{
		FileName:    "t",
		Constraints: []bddgen.Expr{isOne},
		Calls: []bddgen.Call{
			{FunctionName: "f", Args: map[string]bddgen.Argument{
				"a": {Expr: bddgen.NewConstantExpr(1, 32)},
			}},
		},
	}
	pFalse := &bddgen.CallPath{
		FileName:    "f",
		Constraints: []bddgen.Expr{bddgen.NewNotExpr(isOne)},
		Calls: []bddgen.Call{
			{FunctionName: "f", Args: map[string]bddgen.Argument{
				"a": {Expr: bddgen.NewConstantExpr(0, 32)},
			}},
		},
	}

	g := eng.Group([]*bddgen.CallPath{pTrue, pFalse})

	if len(g.OnFalse) == 0 {
		return
	}
	require.NotNil(t, g.Discriminator)

	toolbox := bddgen.NewSolverToolbox(fakeSolver{}, zerolog.Nop())
	for _, p := range g.OnTrue {
		require.True(t, toolbox.AlwaysTrue(p.Constraints, g.Discriminator))
	}
	for _, p := range g.OnFalse {
		require.True(t, toolbox.AlwaysFalse(p.Constraints, g.Discriminator))
	}
}

func TestGroupPanicsOnEmptyInput(t *testing.T) {
	eng := newTestEngine()
	require.Panics(t, func() {
		eng.Group(nil)
	})
}
