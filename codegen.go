package bddgen

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Codegen walks a BDD and emits the target program's init/process
// functions (SPEC_FULL §9). Only a handful of state-allocation calls are
// recognized for init, matching the original tool's own scope; process is
// deliberately left as a single not-yet-implemented statement rather than
// inventing behavior the original never had.
type Codegen struct {
	Transpiler *Transpiler
	Classes    FunctionClass

	// StateAllocators names the calls recognized as state-allocation
	// calls during init-path generation.
	StateAllocators map[string]struct{}
}

// NewCodegen returns a Codegen with the default set of recognized
// state-allocation calls.
func NewCodegen(t *Transpiler, classes FunctionClass) *Codegen {
	return &Codegen{
		Transpiler: t,
		Classes:    classes,
		StateAllocators: map[string]struct{}{
			"map_allocate":          {},
			"vector_allocate":       {},
			"dchain_allocate":       {},
		},
	}
}

// GenerateInit walks the linear Call chain rooted at root and emits calls to
// every recognized state-allocation call it finds; Branch nodes are
// followed down both arms so allocation calls reachable either way are
// captured.
func (g *Codegen) GenerateInit(root Node) *Function {
	fn := &Function{Name: "init"}
	g.walkInit(root, fn)
	fn.Body = append(fn.Body, &Return{})
	return fn
}

func (g *Codegen) walkInit(n Node, fn *Function) {
	for n != nil {
		switch v := n.(type) {
		case *CallNode:
			if _, ok := g.StateAllocators[v.Call.FunctionName]; ok {
				fn.Body = append(fn.Body, &ExprStmt{Value: g.emitCall(v.Call)})
			}
			n = v.Next
		case *BranchNode:
			g.walkInit(v.OnTrue, fn)
			g.walkInit(v.OnFalse, fn)
			return
		default:
			return
		}
	}
}

// emitCall emits a positional call expression. c.Args is a Go map, whose
// iteration order is randomized per run; the original's call_t::args is a
// std::map (sorted by name), so argument names are sorted here to keep the
// generated call's positional arguments deterministic across runs (§5).
func (g *Codegen) emitCall(c Call) ASTExpr {
	names := sortedArgNames(c.Args)
	args := make([]ASTExpr, 0, len(names))
	for _, name := range names {
		if a := c.Args[name]; a.Expr != nil {
			args = append(args, g.Transpiler.Transpile(a.Expr))
		}
	}
	return &CallExpr{Function: c.FunctionName, Args: args}
}

// sortedArgNames returns args' keys in sorted order, following the same
// maps.Keys + slices.Sort idiom the fuzzing-harness examples use to
// stabilize map-derived iteration order.
func sortedArgNames(args map[string]Argument) []string {
	names := maps.Keys(args)
	slices.Sort(names)
	return names
}

// GenerateProcess returns the process function stub. The original tool's
// process-path generator is unimplemented (aborts); this mirrors that
// scope rather than inventing a full init/process split that was never
// built upstream (SPEC_FULL §9).
func (g *Codegen) GenerateProcess() *Function {
	return &Function{
		Name: "process",
		Body: []Stmt{
			&ExprStmt{Value: &CallExpr{Function: "__not_yet_implemented"}},
			&Return{},
		},
	}
}
