package bddgen

import (
	"github.com/benbjohnson/immutable"
)

// symbolCanonicalizations maps a handful of source-side array names onto
// the target program's established variable names (§4.5).
var symbolCanonicalizations = map[string]string{
	"VIGOR_DEVICE": "src_devices",
	"next_time":    "now",
	"data_len":     "pkt_len",
}

// ChunkWindow describes the currently active packet-chunk window used to
// offset-adjust reads of the packet_chunks array (§4.5).
type ChunkWindow struct {
	Variable string // target variable holding the current chunk
	Offset   uint64 // byte offset of the window's start within packet_chunks
}

// Transpiler visits a bit-vector Expr and emits a target AST expression,
// resolving symbols against known state/local variables (§4.5, §6
// "transpile(Expr) -> target-AST Expr").
type Transpiler struct {
	Toolbox *SolverToolbox

	state  *immutable.Map
	locals *immutable.Map

	// Chunk is non-nil while transpiling operands of a call whose packet
	// window is known, enabling the packet_chunks offset adjustment.
	Chunk *ChunkWindow
}

type stringHasher struct{}

func (stringHasher) Hash(key interface{}) uint32 {
	s := key.(string)
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (stringHasher) Equal(a, b interface{}) bool { return a.(string) == b.(string) }

// NewTranspiler returns a Transpiler with immutable state/local variable
// scopes. Scopes are built once, here, and never mutated afterward
// (SPEC_FULL §8); WithLocal returns a new Transpiler, so a sibling
// branch's transpile call cannot observe a binding added while
// transpiling the other branch.
func NewTranspiler(toolbox *SolverToolbox, state, locals map[string]*Variable) *Transpiler {
	stateMap := immutable.NewMap(stringHasher{})
	for k, v := range state {
		stateMap = stateMap.Set(k, v)
	}
	localMap := immutable.NewMap(stringHasher{})
	for k, v := range locals {
		localMap = localMap.Set(k, v)
	}
	return &Transpiler{Toolbox: toolbox, state: stateMap, locals: localMap}
}

// WithLocal returns a Transpiler whose local scope additionally binds name.
// Used when descending into a nested generated scope (e.g. inside a
// Branch's on_true block) without mutating the parent's scope.
func (t *Transpiler) WithLocal(name string, v *Variable) *Transpiler {
	return &Transpiler{
		Toolbox: t.Toolbox,
		state:   t.state,
		locals:  t.locals.Set(name, v),
		Chunk:   t.Chunk,
	}
}

func (t *Transpiler) getFromState(name string) (*Variable, bool) {
	name = canonicalize(name)
	v, ok := t.state.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Variable), true
}

func (t *Transpiler) getFromLocal(name string) (*Variable, bool) {
	name = canonicalize(name)
	v, ok := t.locals.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Variable), true
}

func canonicalize(name string) string {
	if alias, ok := symbolCanonicalizations[name]; ok {
		return alias
	}
	return name
}

// Transpile is the entry point of §4.5.
func (t *Transpiler) Transpile(e Expr) ASTExpr {
	switch v := e.(type) {
	case *ConstantExpr:
		return t.transpileConstant(v)
	case *ReadExpr:
		return t.transpileRead(v)
	case *SelectExpr:
		return &SelectOp{Cond: t.Transpile(v.Cond), True: t.Transpile(v.True), False: t.Transpile(v.False)}
	case *ConcatExpr:
		return t.transpileConcat(v)
	case *ExtractExpr:
		return t.transpileExtract(v)
	case *NotExpr:
		return &UnaryOp{Op: "!", Operand: t.Transpile(v.Expr).SetWrap(true)}
	case *CastExpr:
		return t.transpileCast(v)
	case *BinaryExpr:
		return t.transpileBinary(v)
	}
	assert(false, "Transpile: unimplemented expression kind %T", e)
	return nil
}

func (t *Transpiler) transpileConstant(c *ConstantExpr) ASTExpr {
	if c.IsWide() {
		return &Literal{Type: TypeArrayU8, Value: c.Wide.Uint64()}
	}
	return &Literal{Type: TypeForWidth(c.width), Value: c.Value64}
}

// transpileRead implements the Read rule of §4.5: resolve against state,
// then local scope; canonicalize a handful of names; offset-adjust
// packet_chunks reads against the active chunk window.
func (t *Transpiler) transpileRead(r *ReadExpr) ASTExpr {
	name := r.Array.Name

	if name == "packet_chunks" && t.Chunk != nil {
		idx := r.Index
		if c, ok := idx.(*ConstantExpr); ok && !c.IsWide() {
			adjusted := NewConstantExpr(c.Value64-t.Chunk.Offset, c.width)
			return &Read{
				Var:   &Variable{Name: t.Chunk.Variable, Type: TypeArrayU8},
				Width: r.width,
				Index: t.transpileConstant(adjusted),
			}
		}
	}

	if v, ok := t.getFromState(name); ok {
		return &Read{Var: v, Width: r.width, Index: t.Transpile(r.Index)}
	}
	if v, ok := t.getFromLocal(name); ok {
		return &Read{Var: v, Width: r.width, Index: t.Transpile(r.Index)}
	}

	// Benign absence per §7: fall through to a bare variable reference
	// named after the array when neither scope knows it.
	return &Read{
		Var:   &Variable{Name: canonicalize(name), Type: TypeArrayU8},
		Width: r.width,
		Index: t.Transpile(r.Index),
	}
}

// transpileConcat collapses a Concat of contiguous, in-order, full-width
// Reads of the same array into a direct variable reference (§4.5).
func (t *Transpiler) transpileConcat(c *ConcatExpr) ASTExpr {
	if v, ok := t.collapseConcatOfReads(c); ok {
		return v
	}
	return &BinOp{Op: "++", LHS: t.Transpile(c.MSB), RHS: t.Transpile(c.LSB)}
}

func (t *Transpiler) collapseConcatOfReads(e Expr) (ASTExpr, bool) {
	leaves, ok := flattenConcatReads(e)
	if !ok || len(leaves) == 0 {
		return nil, false
	}

	array := leaves[0].Array
	for i, leaf := range leaves {
		if !leaf.Array.SameShape(array) {
			return nil, false
		}
		if i > 0 {
			prevIdx, ok1 := constIndex(leaves[i-1].Index)
			curIdx, ok2 := constIndex(leaf.Index)
			if !ok1 || !ok2 || curIdx != prevIdx-1 {
				return nil, false
			}
		}
	}
	if array.Size*array.Range != e.Width() {
		return nil, false
	}

	if v, ok := t.getFromState(array.Name); ok {
		return v, true
	}
	if v, ok := t.getFromLocal(array.Name); ok {
		return v, true
	}
	return nil, false
}

// flattenConcatReads walks a right-leaning tree of Concat(Read, Concat(Read, ...))
// (MSB-first) and returns the Read leaves in MSB-to-LSB order.
func flattenConcatReads(e Expr) ([]*ReadExpr, bool) {
	switch v := e.(type) {
	case *ReadExpr:
		return []*ReadExpr{v}, true
	case *ConcatExpr:
		msb, ok := flattenConcatReads(v.MSB)
		if !ok {
			return nil, false
		}
		lsb, ok := flattenConcatReads(v.LSB)
		if !ok {
			return nil, false
		}
		return append(msb, lsb...), true
	default:
		return nil, false
	}
}

func constIndex(e Expr) (uint64, bool) {
	c, ok := e.(*ConstantExpr)
	if !ok || c.IsWide() {
		return 0, false
	}
	return c.Value64, true
}

// transpileExtract implements §4.5's Extract rule.
func (t *Transpiler) transpileExtract(x *ExtractExpr) ASTExpr {
	operand := t.Transpile(x.Expr)
	var shifted ASTExpr = operand
	if x.Offset != 0 {
		shifted = &BinOp{Op: ">>", LHS: operand, RHS: &Literal{Type: TypeU32, Value: uint64(x.Offset)}}
	}

	mask := uint64(1)<<x.Width_ - 1
	masked := &BinOp{Op: "&", LHS: shifted.SetWrap(x.Offset != 0), RHS: &Literal{Type: TypeForWidth(x.Width_), Value: mask}}

	return &Cast{Type: TypeForWidth(x.Width_), Operand: masked}
}

func (t *Transpiler) transpileCast(c *CastExpr) ASTExpr {
	if c.Signed {
		return t.transpileSExt(c)
	}
	return &Cast{Type: TypeForWidth(c.width), Operand: t.Transpile(c.Src)}
}

// transpileSExt implements §4.5's SExt rule exactly (also exercised by §8
// scenario 6): select(msb, mask|operand, cast(operand)).
func (t *Transpiler) transpileSExt(c *CastExpr) ASTExpr {
	wIn, wOut := c.Src.Width(), c.width
	operand := t.Transpile(c.Src)

	msb := &BinOp{
		Op:  ">>",
		LHS: operand.Clone(),
		RHS: &Literal{Type: TypeU32, Value: uint64(wIn - 1)},
	}

	leadingOnes := uint64(1)<<(wOut-wIn) - 1
	mask := leadingOnes << wIn

	masked := &BinOp{
		Op:  "|",
		LHS: &Literal{Type: TypeForWidth(wOut), Value: mask},
		RHS: operand.Clone(),
	}

	return &SelectOp{
		Cond:  msb,
		True:  masked,
		False: &Cast{Type: TypeForWidth(wOut), Operand: operand.Clone()},
	}
}

var binaryOpTokens = map[BinaryOp]string{
	ADD: "+", SUB: "-", MUL: "*", UDIV: "/", SDIV: "/", UREM: "%", SREM: "%",
	AND: "&", OR: "|", XOR: "^", SHL: "<<", LSHR: ">>", ASHR: ">>",
	EQ: "==", NE: "!=", ULT: "<", ULE: "<=", UGT: ">", UGE: ">=",
	SLT: "<", SLE: "<=", SGT: ">", SGE: ">=",
}

// transpileBinary implements §4.5's signed-wrap and Eq-peephole rules.
func (t *Transpiler) transpileBinary(b *BinaryExpr) ASTExpr {
	if b.Op == EQ {
		if peep, ok := transpileEqPeephole(b); ok {
			return t.Transpile(peep)
		}
	}

	lhs, rhs := t.Transpile(b.LHS), t.Transpile(b.RHS)

	switch b.Op {
	case SDIV, SREM, ASHR, SLT, SLE, SGT, SGE:
		signedType := SignedTypeForWidth(b.LHS.Width())
		lhs = &Cast{Type: signedType, Operand: lhs}
		if b.Op != ASHR {
			rhs = &Cast{Type: signedType, Operand: rhs}
		}
	}

	op, ok := binaryOpTokens[b.Op]
	assert(ok, "transpileBinary: unimplemented operator %s", b.Op)

	return &BinOp{Op: op, LHS: lhs.SetWrap(true), RHS: rhs.SetWrap(true)}
}

// transpileEqPeephole matches Eq(0, Eq(0, x)) and returns x, per §4.5/§8.
func transpileEqPeephole(b *BinaryExpr) (Expr, bool) {
	lz, ok := b.LHS.(*ConstantExpr)
	if !ok || lz.width != WidthBool || lz.Value64 != 0 {
		return nil, false
	}
	inner, ok := b.RHS.(*BinaryExpr)
	if !ok || inner.Op != EQ {
		return nil, false
	}
	iz, ok := inner.LHS.(*ConstantExpr)
	if !ok || iz.width != WidthBool || iz.Value64 != 0 {
		return nil, false
	}
	return inner.RHS, true
}
