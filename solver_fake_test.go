package bddgen_test

import (
	"github.com/calltrace/bddgen"
)

// fakeSolver is a tiny, purely syntactic stand-in for the opaque solver
// oracle, sufficient for exercising the toolbox/grouping/BDD-builder
// logic without a real SMT backend. It only understands the shapes our
// tests construct: empty constraints, and a single top-level comparison
// or its negation.
type fakeSolver struct{}

func (fakeSolver) MustBeTrue(q bddgen.Query) (bool, bool) {
	return evalKnown(q.Constraints, q.Target), true
}

func (fakeSolver) MustBeFalse(q bddgen.Query) (bool, bool) {
	return evalKnown(q.Constraints, bddgen.NewNotExpr(q.Target)), true
}

func (fakeSolver) GetValue(q bddgen.Query) (*bddgen.ConstantExpr, bool) {
	if c, ok := q.Target.(*bddgen.ConstantExpr); ok {
		return c, true
	}
	return nil, false
}

// evalKnown decides "constraints => target" for the restricted shapes
// this package's tests use: target is a constant, or an Eq/Ne/comparison
// between two constants or two structurally-equal (after rewriting)
// expressions, or appears verbatim among constraints, or is the negation
// of an expression that appears verbatim among constraints.
func evalKnown(constraints []bddgen.Expr, target bddgen.Expr) bool {
	if bddgen.IsConstantTrue(target) {
		return true
	}
	if bddgen.IsConstantFalse(target) {
		return false
	}

	for _, c := range constraints {
		if bddgen.ExprEqual(c, target) {
			return true
		}
	}

	if not, ok := target.(*bddgen.NotExpr); ok {
		for _, c := range constraints {
			if bddgen.ExprEqual(c, not.Expr) {
				return false
			}
		}
	}

	if bin, ok := target.(*bddgen.BinaryExpr); ok {
		if folded := foldIfConstant(bin); folded != nil {
			return bddgen.IsConstantTrue(folded)
		}
		if bin.Op == bddgen.EQ && bddgen.ExprEqual(bin.LHS, bin.RHS) {
			return true
		}
		if bin.Op == bddgen.NE && bddgen.ExprEqual(bin.LHS, bin.RHS) {
			return false
		}
	}

	return false
}

func foldIfConstant(bin *bddgen.BinaryExpr) bddgen.Expr {
	folded := bddgen.NewBinaryExpr(bin.Op, bin.LHS, bin.RHS)
	if _, ok := folded.(*bddgen.ConstantExpr); ok {
		return folded
	}
	return nil
}
