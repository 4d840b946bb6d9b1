package bddgen_test

import (
	"testing"

	"github.com/calltrace/bddgen"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestToolbox() *bddgen.SolverToolbox {
	return bddgen.NewSolverToolbox(fakeSolver{}, zerolog.Nop())
}

func TestExprsEquivalentNilHandling(t *testing.T) {
	tb := newTestToolbox()
	x := bddgen.NewConstantExpr(1, 8)

	require.True(t, tb.ExprsEquivalent(nil, nil))
	require.False(t, tb.ExprsEquivalent(x, nil))
	require.False(t, tb.ExprsEquivalent(nil, x))
}

func TestExprsEquivalentSymmetry(t *testing.T) {
	tb := newTestToolbox()

	arr1 := bddgen.NewArray(1, "v", 64, 32, 1)
	arr2 := bddgen.NewArray(2, "v", 64, 32, 1)
	e1 := bddgen.NewReadExpr(arr1, bddgen.NewConstantExpr(0, 64), 32)
	e2 := bddgen.NewReadExpr(arr2, bddgen.NewConstantExpr(0, 64), 32)

	require.Equal(t, tb.ExprsEquivalent(e1, e2), tb.ExprsEquivalent(e2, e1))
}

func TestExprsEquivalentStructuralFastPath(t *testing.T) {
	tb := newTestToolbox()
	x := bddgen.NewConstantExpr(42, 32)
	y := bddgen.NewConstantExpr(42, 32)
	require.True(t, tb.ExprsEquivalent(x, y))
}

func TestAlwaysTrueAlwaysFalseMutualExclusion(t *testing.T) {
	tb := newTestToolbox()
	// always_true(Φ,e) ∧ always_false(Φ,e) ⇒ Φ unsatisfiable; for any
	// satisfiable Φ (here, no constraints) the two must not both hold.
	e := bddgen.NewConstantExpr(1, 1)
	require.False(t, tb.AlwaysTrue(nil, e) && tb.AlwaysFalse(nil, e))
}
