package bddgen

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ExprEqual reports whether a and b are syntactically identical trees
// (same shape, same constants, same array shapes) — not semantic
// equivalence. The symbol rewriter's "index expressions are syntactically
// equal" match (§4.1) and the grouping engine's quick pre-checks both use
// this rather than a solver call.
func ExprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Width() != b.Width() {
		return false
	}

	switch av := a.(type) {
	case *ConstantExpr:
		bv, ok := b.(*ConstantExpr)
		if !ok {
			return false
		}
		if av.IsWide() != bv.IsWide() {
			return false
		}
		if av.IsWide() {
			return av.Wide.Eq(bv.Wide)
		}
		return av.Value64 == bv.Value64
	case *ReadExpr:
		bv, ok := b.(*ReadExpr)
		return ok && av.Array.SameShape(bv.Array) && ExprEqual(av.Index, bv.Index)
	case *SelectExpr:
		bv, ok := b.(*SelectExpr)
		return ok && ExprEqual(av.Cond, bv.Cond) && ExprEqual(av.True, bv.True) && ExprEqual(av.False, bv.False)
	case *ConcatExpr:
		bv, ok := b.(*ConcatExpr)
		return ok && ExprEqual(av.MSB, bv.MSB) && ExprEqual(av.LSB, bv.LSB)
	case *ExtractExpr:
		bv, ok := b.(*ExtractExpr)
		return ok && av.Offset == bv.Offset && av.Width_ == bv.Width_ && ExprEqual(av.Expr, bv.Expr)
	case *NotExpr:
		bv, ok := b.(*NotExpr)
		return ok && ExprEqual(av.Expr, bv.Expr)
	case *CastExpr:
		bv, ok := b.(*CastExpr)
		return ok && av.Signed == bv.Signed && ExprEqual(av.Src, bv.Src)
	case *BinaryExpr:
		bv, ok := b.(*BinaryExpr)
		return ok && av.Op == bv.Op && ExprEqual(av.LHS, bv.LHS) && ExprEqual(av.RHS, bv.RHS)
	}
	return false
}

// ExprHash returns a structural hash of e, suitable for bucketing
// candidates before an ExprEqual confirmation. Mirrors the interning-cache
// technique of hashing every node by kind and child pointers/values.
func ExprHash(e Expr) uint64 {
	h := xxhash.New()
	hashExprInto(h, e)
	return h.Sum64()
}

func hashExprInto(h *xxhash.Digest, e Expr) {
	if e == nil {
		h.Write([]byte{0})
		return
	}

	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	switch v := e.(type) {
	case *ConstantExpr:
		h.Write([]byte{1})
		if v.IsWide() {
			h.Write(v.Wide.Bytes())
		} else {
			writeU64(v.Value64)
		}
		writeU64(uint64(v.width))
	case *ReadExpr:
		h.Write([]byte{2})
		h.Write([]byte(v.Array.Name))
		writeU64(uint64(v.Array.Domain))
		writeU64(uint64(v.Array.Range))
		writeU64(uint64(v.Array.Size))
		hashExprInto(h, v.Index)
		writeU64(uint64(v.width))
	case *SelectExpr:
		h.Write([]byte{3})
		hashExprInto(h, v.Cond)
		hashExprInto(h, v.True)
		hashExprInto(h, v.False)
	case *ConcatExpr:
		h.Write([]byte{4})
		hashExprInto(h, v.MSB)
		hashExprInto(h, v.LSB)
	case *ExtractExpr:
		h.Write([]byte{5})
		writeU64(uint64(v.Offset))
		writeU64(uint64(v.Width_))
		hashExprInto(h, v.Expr)
	case *NotExpr:
		h.Write([]byte{6})
		hashExprInto(h, v.Expr)
	case *CastExpr:
		h.Write([]byte{7})
		if v.Signed {
			h.Write([]byte{1})
		}
		writeU64(uint64(v.width))
		hashExprInto(h, v.Src)
	case *BinaryExpr:
		h.Write([]byte{8})
		writeU64(uint64(v.Op))
		hashExprInto(h, v.LHS)
		hashExprInto(h, v.RHS)
	}
}
