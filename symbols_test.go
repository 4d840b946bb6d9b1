package bddgen_test

import (
	"testing"

	"github.com/calltrace/bddgen"
	"github.com/stretchr/testify/require"
)

func TestRetrieveSymbols(t *testing.T) {
	arr := bddgen.NewArray(1, "x", 64, 8, 4)
	r1 := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(0, 64), 8)
	r2 := bddgen.NewReadExpr(arr, bddgen.NewConstantExpr(1, 64), 8)
	concat := bddgen.NewConcatExpr(r1, r2)

	reads := bddgen.RetrieveSymbols(concat)
	require.Len(t, reads, 2)
}

func TestReplaceIsIdempotent(t *testing.T) {
	arrA := bddgen.NewArray(1, "path1_sym", 64, 32, 1)
	arrB := bddgen.NewArray(2, "path1_sym", 64, 32, 1)

	ref := bddgen.NewReadExpr(arrA, bddgen.NewConstantExpr(0, 64), 32)
	target := bddgen.NewReadExpr(arrB, bddgen.NewConstantExpr(0, 64), 32)

	rewriter := bddgen.NewSymbolRewriter([]*bddgen.ReadExpr{ref})

	once := rewriter.Rewrite(target)
	twice := rewriter.Rewrite(once)

	require.True(t, bddgen.ExprEqual(once, twice), "replace(R, replace(R, e)) must equal replace(R, e)")
	require.True(t, bddgen.ExprEqual(once, ref), "same-shape read should rewrite to the reference")
}

func TestReplaceLeavesUnmatchedReadsUntouched(t *testing.T) {
	refArr := bddgen.NewArray(1, "known", 64, 32, 1)
	ref := bddgen.NewReadExpr(refArr, bddgen.NewConstantExpr(0, 64), 32)
	rewriter := bddgen.NewSymbolRewriter([]*bddgen.ReadExpr{ref})

	otherArr := bddgen.NewArray(2, "unrelated", 64, 32, 1)
	target := bddgen.NewReadExpr(otherArr, bddgen.NewConstantExpr(0, 64), 32)

	got := rewriter.Rewrite(target)
	require.True(t, bddgen.ExprEqual(got, target))
}
