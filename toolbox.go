package bddgen

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SolverToolbox wraps the opaque Solver oracle with the total operations
// named in §4.2. Every method asserts on solver failure (ok=false),
// per §7's "invariant violation" taxonomy.
type SolverToolbox struct {
	solver Solver
	log    zerolog.Logger
}

// NewSolverToolbox returns a toolbox over the given solver oracle.
func NewSolverToolbox(solver Solver, log zerolog.Logger) *SolverToolbox {
	return &SolverToolbox{solver: solver, log: log}
}

// AlwaysTrue reports whether constraints imply e.
func (t *SolverToolbox) AlwaysTrue(constraints []Expr, e Expr) bool {
	result, ok := t.solver.MustBeTrue(Query{Constraints: constraints, Target: e})
	if !ok {
		panic(errors.Wrap(ErrSolverFailure, "always_true"))
	}
	return result
}

// AlwaysFalse reports whether constraints imply ¬e.
func (t *SolverToolbox) AlwaysFalse(constraints []Expr, e Expr) bool {
	result, ok := t.solver.MustBeFalse(Query{Constraints: constraints, Target: e})
	if !ok {
		panic(errors.Wrap(ErrSolverFailure, "always_false"))
	}
	return result
}

// AlwaysTrueR first rewrites every constraint through r, then delegates.
func (t *SolverToolbox) AlwaysTrueR(constraints []Expr, e Expr, r *SymbolRewriter) bool {
	return t.AlwaysTrue(r.RewriteAll(constraints), e)
}

// AlwaysFalseR first rewrites every constraint through r, then delegates.
func (t *SolverToolbox) AlwaysFalseR(constraints []Expr, e Expr, r *SymbolRewriter) bool {
	return t.AlwaysFalse(r.RewriteAll(constraints), e)
}

// ExprsEquivalent reports whether e1 and e2 are equivalent after
// α-renaming e2's free reads to alias e1's (§4.2). Both-nil is equivalent;
// exactly-one-nil is not.
func (t *SolverToolbox) ExprsEquivalent(e1, e2 Expr) bool {
	if (e1 == nil) != (e2 == nil) {
		return false
	}
	if e1 == nil {
		return true
	}

	// Fast structural path: identical shape implies equivalence without
	// touching the solver.
	if ExprEqual(e1, e2) {
		return true
	}

	refs := RetrieveSymbols(e1)
	rewriter := NewSymbolRewriter(refs)
	rewritten := rewriter.Rewrite(e2)

	return t.AlwaysTrue(nil, NewBinaryExpr(EQ, e1, rewritten))
}

// ConcreteValue extracts a witnessing constant for e. Callers must only
// invoke this on Exprs already known to be constant-valued (e.g. a
// packet-chunk read's index), per §4.2.
func (t *SolverToolbox) ConcreteValue(e Expr) uint64 {
	value, ok := t.solver.GetValue(Query{Target: e})
	if !ok {
		panic(errors.Wrap(ErrSolverFailure, "concrete_value"))
	}
	if value.IsWide() {
		return value.Wide.Uint64()
	}
	return value.Value64
}
