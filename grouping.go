package bddgen

// Grouping is the result of partitioning a set of call paths on their next
// call (§4.3).
type Grouping struct {
	OnTrue       []*CallPath
	OnFalse      []*CallPath
	Discriminator Expr // nil when OnFalse is empty
}

// GroupingEngine implements the "same next call, same arguments"
// partition and discriminating-constraint search (§4.3).
type GroupingEngine struct {
	Toolbox *SolverToolbox
	Classes FunctionClass

	// PacketArgNames are argument names ignored in call-equality
	// comparisons regardless of value (the "p" convention). Parameterized
	// per the packet-argument-sentinel open question (§9 / SPEC_FULL §9)
	// rather than hard-coded.
	PacketArgNames []string
}

// NewGroupingEngine returns a GroupingEngine with the default packet-arg
// sentinel {"p"}.
func NewGroupingEngine(toolbox *SolverToolbox, classes FunctionClass) *GroupingEngine {
	return &GroupingEngine{Toolbox: toolbox, Classes: classes, PacketArgNames: []string{"p"}}
}

func (g *GroupingEngine) isPacketArg(name string) bool {
	for _, n := range g.PacketArgNames {
		if n == name {
			return true
		}
	}
	return false
}

// Group partitions paths per §4.3. Panics (fatal invariant violation, §7)
// if paths is empty.
func (g *GroupingEngine) Group(paths []*CallPath) Grouping {
	assert(len(paths) > 0, "GroupingEngine.Group: empty input")

	for _, pivot := range paths {
		pivotCall, ok := pivot.NextCall()
		if !ok {
			continue
		}

		var onTrue, onFalse []*CallPath
		for _, p := range paths {
			c, ok := p.NextCall()
			if ok && g.callsEqual(c, pivotCall) {
				onTrue = append(onTrue, p)
			} else {
				onFalse = append(onFalse, p)
			}
		}

		if len(onFalse) == 0 {
			return Grouping{OnTrue: paths, OnFalse: nil, Discriminator: nil}
		}

		if c, found := g.findDiscriminatingConstraint(onTrue, onFalse); found {
			return c
		}
	}

	// No pivot split the set, and every path with a next call failed to
	// discriminate: if none has a remaining call, the whole set is one
	// terminal group (§4.3 step 2).
	anyRemaining := false
	for _, p := range paths {
		if _, ok := p.NextCall(); ok {
			anyRemaining = true
			break
		}
	}
	if !anyRemaining {
		return Grouping{OnTrue: paths}
	}

	panic(ErrNotSynthesizable)
}

// callsEqual implements the call-equality rule of §4.3.b.
func (g *GroupingEngine) callsEqual(c1, c2 Call) bool {
	if c1.FunctionName != c2.FunctionName {
		return false
	}
	if g.Classes.IsSkip(c1.FunctionName) {
		return true
	}

	for name, arg1 := range c1.Args {
		if g.isPacketArg(name) {
			continue
		}
		if arg1.IsOutput() {
			continue
		}

		arg2 := c2.Args[name]

		if c1.FunctionName == "packet_return_chunk" && name == "the_chunk" {
			if !g.Toolbox.ExprsEquivalent(arg1.Before, arg2.Before) {
				return false
			}
			continue
		}

		if !g.Toolbox.ExprsEquivalent(arg1.Expr, arg2.Expr) {
			return false
		}
	}

	return true
}

// findDiscriminatingConstraint implements §4.3.1: the first constraint in
// on_true[0]'s constraint-list order that splits on_false as required.
func (g *GroupingEngine) findDiscriminatingConstraint(onTrue, onFalse []*CallPath) (Grouping, bool) {
	assert(len(onTrue) > 0, "findDiscriminatingConstraint: empty on_true")

	for _, candidate := range onTrue[0].Constraints {
		if !g.isCandidate(onTrue, candidate) {
			continue
		}

		movedTrue := append([]*CallPath{}, onTrue...)
		var keptFalse []*CallPath
		for _, p := range onFalse {
			if g.satisfiesConstraint(p, candidate) {
				movedTrue = append(movedTrue, p)
			} else {
				keptFalse = append(keptFalse, p)
			}
		}

		if len(keptFalse) == 0 {
			continue
		}
		if !g.satisfiesNotConstraint(keptFalse, candidate) {
			continue
		}

		return Grouping{OnTrue: movedTrue, OnFalse: keptFalse, Discriminator: candidate}, true
	}

	return Grouping{}, false
}

// isCandidate reports whether candidate is implied by every path in
// onTrue (§4.3.1 first paragraph).
func (g *GroupingEngine) isCandidate(onTrue []*CallPath, candidate Expr) bool {
	refs := RetrieveSymbols(candidate)
	rewriter := NewSymbolRewriter(refs)
	for _, p := range onTrue {
		if !g.Toolbox.AlwaysFalseR(p.Constraints, NewNotExpr(candidate), rewriter) {
			return false
		}
	}
	return true
}

func (g *GroupingEngine) satisfiesConstraint(p *CallPath, constraint Expr) bool {
	refs := RetrieveSymbols(constraint)
	rewriter := NewSymbolRewriter(refs)
	return g.Toolbox.AlwaysFalseR(p.Constraints, NewNotExpr(constraint), rewriter)
}

func (g *GroupingEngine) satisfiesNotConstraint(paths []*CallPath, constraint Expr) bool {
	refs := RetrieveSymbols(constraint)
	rewriter := NewSymbolRewriter(refs)
	for _, p := range paths {
		if !g.Toolbox.AlwaysTrueR(p.Constraints, NewNotExpr(constraint), rewriter) {
			return false
		}
	}
	return true
}
