package bddgen

// RetrieveSymbols walks e and returns every Read subtree it contains, in
// visitation order. Duplicates are not removed: callers tolerate them
// (§4.1). Concat operands are always descended into, even if an identical
// Read subtree was already seen elsewhere in the tree.
func RetrieveSymbols(e Expr) []*ReadExpr {
	var out []*ReadExpr
	var walk func(Expr)
	walk = func(e Expr) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ReadExpr:
			out = append(out, v)
			walk(v.Index)
		case *SelectExpr:
			walk(v.Cond)
			walk(v.True)
			walk(v.False)
		case *ConcatExpr:
			walk(v.MSB)
			walk(v.LSB)
		case *ExtractExpr:
			walk(v.Expr)
		case *NotExpr:
			walk(v.Expr)
		case *CastExpr:
			walk(v.Src)
		case *BinaryExpr:
			walk(v.LHS)
			walk(v.RHS)
		}
	}
	walk(e)
	return out
}

// SymbolRewriter rewrites Read subtrees of a target expression into
// aliases known from a reference set, so two expressions built against
// distinct per-path symbol namespaces can be compared syntactically after
// α-renaming (§4.1, Glossary "Symbol rewriter").
type SymbolRewriter struct {
	refs []*ReadExpr
}

// NewSymbolRewriter builds a rewriter from a reference list of Reads. The
// list is typically produced by RetrieveSymbols over some anchor
// expression.
func NewSymbolRewriter(refs []*ReadExpr) *SymbolRewriter {
	return &SymbolRewriter{refs: refs}
}

// Rewrite rewrites every Read subtree of e into the first reference read
// r' that agrees on result width, has a syntactically equal index
// expression, and whose source array agrees on shape. Unmatched Reads are
// left untouched. Rewriting does not recurse into a matched read's own
// array or index — only into subtrees that did not match (tree-rewriting,
// not capture-avoiding). The result is idempotent: rewriting an
// already-rewritten expression is a no-op.
func (r *SymbolRewriter) Rewrite(e Expr) Expr {
	if e == nil {
		return nil
	}

	switch v := e.(type) {
	case *ReadExpr:
		if match := r.find(v); match != nil {
			return match
		}
		return v
	case *ConstantExpr:
		return v
	case *SelectExpr:
		return NewSelectExpr(r.Rewrite(v.Cond), r.Rewrite(v.True), r.Rewrite(v.False))
	case *ConcatExpr:
		return NewConcatExpr(r.Rewrite(v.MSB), r.Rewrite(v.LSB))
	case *ExtractExpr:
		return NewExtractExpr(r.Rewrite(v.Expr), v.Offset, v.Width_)
	case *NotExpr:
		return NewNotExpr(r.Rewrite(v.Expr))
	case *CastExpr:
		if v.Signed {
			return NewSExtExpr(r.Rewrite(v.Src), v.width)
		}
		return NewZExtExpr(r.Rewrite(v.Src), v.width)
	case *BinaryExpr:
		return NewBinaryExpr(v.Op, r.Rewrite(v.LHS), r.Rewrite(v.RHS))
	}
	return e
}

// RewriteAll rewrites every constraint in a constraint set, in order.
func (r *SymbolRewriter) RewriteAll(constraints []Expr) []Expr {
	out := make([]Expr, len(constraints))
	for i, c := range constraints {
		out[i] = r.Rewrite(c)
	}
	return out
}

func (r *SymbolRewriter) find(target *ReadExpr) *ReadExpr {
	for _, candidate := range r.refs {
		if candidate.Width() != target.Width() {
			continue
		}
		if !ExprEqual(candidate.Index, target.Index) {
			continue
		}
		if !candidate.Array.SameShape(target.Array) {
			continue
		}
		return candidate
	}
	return nil
}
