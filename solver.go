package bddgen

// Query bundles a constraint set and a target expression, the unit of
// work the opaque solver oracle answers (§6).
type Query struct {
	Constraints []Expr
	Target      Expr
}

// Solver is the opaque constraint-solver oracle (§6). Out of scope to
// implement here per §1; the one production implementation shipped lives
// in package z3.
type Solver interface {
	// MustBeTrue reports whether q.Target is valid under q.Constraints.
	// ok=false signals a fatal invariant violation (§7).
	MustBeTrue(q Query) (result, ok bool)

	// MustBeFalse reports whether q.Target is unsatisfiable under
	// q.Constraints.
	MustBeFalse(q Query) (result, ok bool)

	// GetValue returns a witnessing constant for q.Target under
	// q.Constraints.
	GetValue(q Query) (value *ConstantExpr, ok bool)
}
