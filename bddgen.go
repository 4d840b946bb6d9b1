// Package bddgen merges symbolic call paths produced by an external
// symbolic executor into a single Behaviourally-Equivalent Decision
// Diagram and transpiles the bit-vector expressions hanging off it into
// a small C-style target AST.
package bddgen

import (
	"github.com/pkg/errors"
)

// Standard widths, in bits.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

// Sentinel errors for the fatal conditions of §6/§7: a solver oracle
// failure, and a path set the grouping engine cannot split.
var (
	ErrSolverFailure = errors.New("solver oracle returned ok=false")
	ErrNotSynthesizable = errors.New("grouping engine found no discriminating constraint")
)

// assert panics with a wrapped, stack-annotated error if condition is false.
// Used at every point the spec treats as an invariant violation (§7).
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(errors.Errorf(format, args...))
	}
}
