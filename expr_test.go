package bddgen_test

import (
	"testing"

	"github.com/calltrace/bddgen"
	"github.com/stretchr/testify/require"
)

func TestExprWidth(t *testing.T) {
	t.Run("ConstantExpr", func(t *testing.T) {
		require.EqualValues(t, 8, bddgen.ExprWidth(bddgen.NewConstantExpr(0, 8)))
	})
	t.Run("ConcatExpr width sums", func(t *testing.T) {
		c := bddgen.NewConcatExpr(bddgen.NewReadExpr(bddgen.NewArray(1, "a", 64, 8, 4), bddgen.NewConstantExpr(0, 64), 8), bddgen.NewConstantExpr(0, 16))
		require.EqualValues(t, 24, c.Width())
	})
	t.Run("ExtractExpr width", func(t *testing.T) {
		e := bddgen.NewExtractExpr(bddgen.NewConstantExpr(0xAABBCCDD, 32), 8, 16)
		require.EqualValues(t, 16, bddgen.ExprWidth(e))
	})
	t.Run("nil is zero", func(t *testing.T) {
		require.EqualValues(t, 0, bddgen.ExprWidth(nil))
	})
}

func TestExtractConstantFold(t *testing.T) {
	e := bddgen.NewExtractExpr(bddgen.NewConstantExpr(0xAABBCCDD, 32), 8, 16)
	c, ok := e.(*bddgen.ConstantExpr)
	require.True(t, ok, "expected extract of a constant to fold")
	require.EqualValues(t, 0xBBCC, c.Value64)
}

func TestExtractIdentityOnFullWidth(t *testing.T) {
	src := bddgen.NewConstantExpr(5, 8)
	require.Same(t, src, bddgen.NewExtractExpr(src, 0, 8))
}

func TestConcatConstantFold(t *testing.T) {
	c := bddgen.NewConcatExpr(bddgen.NewConstantExpr(0xAB, 8), bddgen.NewConstantExpr(0xCD, 8))
	v, ok := c.(*bddgen.ConstantExpr)
	require.True(t, ok)
	require.EqualValues(t, 0xABCD, v.Value64)
}

func TestZExtIdentity(t *testing.T) {
	src := bddgen.NewConstantExpr(5, 8)
	require.Same(t, src, bddgen.NewZExtExpr(src, 8))
}

func TestEqZeroZeroPeephole(t *testing.T) {
	x := bddgen.NewReadExpr(bddgen.NewArray(1, "x", 64, 32, 1), bddgen.NewConstantExpr(0, 64), 32)
	inner := bddgen.NewBinaryExpr(bddgen.EQ, bddgen.NewConstantExpr(0, 1), x)
	outer := bddgen.NewBinaryExpr(bddgen.EQ, bddgen.NewConstantExpr(0, 1), inner)
	require.True(t, bddgen.ExprEqual(x, outer), "Eq(0, Eq(0, x)) should collapse to x")
}

func TestWideReadWidth(t *testing.T) {
	arr := bddgen.NewArray(1, "packet_chunks", 64, 8, 128)
	read := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 128)
	require.EqualValues(t, 128, read.Width())
}
