package bddgen

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Expr is an immutable node in a bit-vector/boolean expression tree (§3).
// The variant set is closed; callers type-switch rather than extend it.
type Expr interface {
	// Width returns the bit-width of the value this expression produces.
	Width() uint

	String() string

	expr()
}

// ExprWidth returns 0 for a nil Expr, otherwise e.Width(). Several callers
// treat a nil Expr as "no value" (e.g. a call with no return), so this
// helper centralizes the nil check (§3 Lifecycle, §7 Benign absence).
func ExprWidth(e Expr) uint {
	if e == nil {
		return 0
	}
	return e.Width()
}

// ConstantExpr is a literal bit-vector value. Values that fit in 64 bits use
// the Value64 fast path; wider constants (packet-chunk-sized reads,
// MAC/IPv6-width fields) use Wide.
type ConstantExpr struct {
	Value64 uint64
	Wide    *uint256.Int // non-nil only when width > 64
	width   uint
}

// NewConstantExpr returns a new constant of the given width holding v,
// masked to fit.
func NewConstantExpr(v uint64, width uint) *ConstantExpr {
	assert(width > 0 && width <= Width64, "NewConstantExpr: width %d out of range for 64-bit fast path", width)
	if width < Width64 {
		v &= (uint64(1) << width) - 1
	}
	return &ConstantExpr{Value64: v, width: width}
}

// NewWideConstantExpr returns a new constant wider than 64 bits.
func NewWideConstantExpr(v *uint256.Int, width uint) *ConstantExpr {
	assert(width > Width64, "NewWideConstantExpr: width %d must exceed 64", width)
	masked := new(uint256.Int).Set(v)
	if width < 256 {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), width)
		mask.Sub(mask, uint256.NewInt(1))
		masked.And(masked, mask)
	}
	return &ConstantExpr{Wide: masked, width: width}
}

func (e *ConstantExpr) Width() uint { return e.width }

func (e *ConstantExpr) String() string {
	if e.Wide != nil {
		return fmt.Sprintf("0x%s", e.Wide.Hex())
	}
	return fmt.Sprintf("0x%x", e.Value64)
}

func (e *ConstantExpr) expr() {}

// IsWide reports whether this constant needs the uint256 representation.
func (e *ConstantExpr) IsWide() bool { return e.Wide != nil }

// Uint64 returns the concrete value for constants that fit in 64 bits.
// Panics if the constant is wide; callers must check IsWide first.
func (e *ConstantExpr) Uint64() uint64 {
	assert(!e.IsWide(), "ConstantExpr.Uint64: constant of width %d does not fit", e.width)
	return e.Value64
}

// IsZero reports whether the constant's value is zero.
func (e *ConstantExpr) IsZero() bool {
	if e.Wide != nil {
		return e.Wide.IsZero()
	}
	return e.Value64 == 0
}

// ReadExpr reads width bits from array at a symbolic or concrete index (§3).
// Unlike a byte-decomposed model, a Read names the exact result width
// directly, matching the call-path format's own Read nodes.
type ReadExpr struct {
	Array *Array
	Index Expr
	width uint
}

// NewReadExpr returns a new Read of width bits from array starting at index.
func NewReadExpr(array *Array, index Expr, width uint) *ReadExpr {
	assert(width > 0, "NewReadExpr: invalid width %d", width)
	return &ReadExpr{Array: array, Index: index, width: width}
}

func (e *ReadExpr) Width() uint { return e.width }

func (e *ReadExpr) String() string {
	return fmt.Sprintf("(Read w%d %s %s)", e.width, e.Index, e.Array)
}

func (e *ReadExpr) expr() {}

// SelectExpr is a ternary conditional: Cond ? True : False.
type SelectExpr struct {
	Cond, True, False Expr
}

// NewSelectExpr returns a new Select expression. True and False must share
// a width; Cond must be width-1.
func NewSelectExpr(cond, t, f Expr) Expr {
	assert(cond.Width() == WidthBool, "NewSelectExpr: cond must be bool, got width %d", cond.Width())
	assert(t.Width() == f.Width(), "NewSelectExpr: branch width mismatch %d != %d", t.Width(), f.Width())

	if c, ok := cond.(*ConstantExpr); ok {
		if c.Value64 != 0 {
			return t
		}
		return f
	}
	return &SelectExpr{Cond: cond, True: t, False: f}
}

func (e *SelectExpr) Width() uint { return e.True.Width() }

func (e *SelectExpr) String() string {
	return fmt.Sprintf("(Select %s %s %s)", e.Cond, e.True, e.False)
}

func (e *SelectExpr) expr() {}

// ConcatExpr joins two expressions; MSB forms the high-order bits.
type ConcatExpr struct {
	MSB, LSB Expr
}

// NewConcatExpr returns a new Concat, width = MSB.Width() + LSB.Width().
// Constant-folds when both operands are narrow constants.
func NewConcatExpr(msb, lsb Expr) Expr {
	if a, ok := msb.(*ConstantExpr); ok {
		if b, ok := lsb.(*ConstantExpr); ok && !a.IsWide() && !b.IsWide() {
			w := a.width + b.width
			if w <= Width64 {
				return NewConstantExpr((a.Value64<<b.width)|b.Value64, w)
			}
		}
	}

	// Merge contiguous extracts of the same underlying expr: this mirrors
	// the transpiler-side collapse in §4.5 but is also a useful builder
	// peephole so callers that concat adjacent extracts get a canonical
	// shape back immediately.
	if a, ok := msb.(*ExtractExpr); ok {
		if b, ok := lsb.(*ExtractExpr); ok && a.Expr == b.Expr && a.Offset == b.Offset+b.Width_ {
			return NewExtractExpr(a.Expr, b.Offset, a.Width_+b.Width_)
		}
	}

	return &ConcatExpr{MSB: msb, LSB: lsb}
}

func (e *ConcatExpr) Width() uint { return e.MSB.Width() + e.LSB.Width() }

func (e *ConcatExpr) String() string {
	return fmt.Sprintf("(Concat %s %s)", e.MSB, e.LSB)
}

func (e *ConcatExpr) expr() {}

// ExtractExpr extracts Width_ bits from Expr starting at bit Offset.
type ExtractExpr struct {
	Expr           Expr
	Offset, Width_ uint
}

// NewExtractExpr returns a new Extract. Returns Expr unchanged if the
// extract covers its full width; constant-folds; distributes over Concat.
func NewExtractExpr(e Expr, offset, width uint) Expr {
	assert(offset+width <= e.Width(), "NewExtractExpr: extract [%d,%d) exceeds operand width %d", offset, offset+width, e.Width())

	if offset == 0 && width == e.Width() {
		return e
	}

	if c, ok := e.(*ConstantExpr); ok && !c.IsWide() {
		return NewConstantExpr(c.Value64>>offset, width)
	}

	// E(C(x,y)) = C(E(x),E(y)) when the extract falls entirely within one side.
	if c, ok := e.(*ConcatExpr); ok {
		if offset >= c.LSB.Width() {
			return NewExtractExpr(c.MSB, offset-c.LSB.Width(), width)
		} else if offset+width <= c.LSB.Width() {
			return NewExtractExpr(c.LSB, offset, width)
		}
	}

	if x, ok := e.(*ExtractExpr); ok {
		return NewExtractExpr(x.Expr, x.Offset+offset, width)
	}

	return &ExtractExpr{Expr: e, Offset: offset, Width_: width}
}

func (e *ExtractExpr) Width() uint { return e.Width_ }

func (e *ExtractExpr) String() string {
	return fmt.Sprintf("(Extract %d %d %s)", e.Offset, e.Width_, e.Expr)
}

func (e *ExtractExpr) expr() {}

// NotExpr is a bitwise/boolean complement.
type NotExpr struct {
	Expr Expr
}

// NewNotExpr returns a new Not, folding double-negation and constants.
func NewNotExpr(e Expr) Expr {
	if x, ok := e.(*NotExpr); ok {
		return x.Expr
	}
	if c, ok := e.(*ConstantExpr); ok && !c.IsWide() {
		mask := uint64(1)<<c.width - 1
		if c.width == Width64 {
			mask = ^uint64(0)
		}
		return NewConstantExpr(^c.Value64&mask, c.width)
	}
	return &NotExpr{Expr: e}
}

func (e *NotExpr) Width() uint { return e.Expr.Width() }

func (e *NotExpr) String() string { return fmt.Sprintf("(Not %s)", e.Expr) }

func (e *NotExpr) expr() {}

// CastExpr widens (ZExt/SExt) or marks a signed reinterpretation of Src.
type CastExpr struct {
	Src    Expr
	width  uint
	Signed bool
}

// NewZExtExpr zero-extends src to width. Identity if widths already match.
func NewZExtExpr(src Expr, width uint) Expr {
	assert(width >= src.Width(), "NewZExtExpr: target width %d narrower than source %d", width, src.Width())
	if width == src.Width() {
		return src
	}
	if c, ok := src.(*ConstantExpr); ok && !c.IsWide() && width <= Width64 {
		return NewConstantExpr(c.Value64, width)
	}
	return &CastExpr{Src: src, width: width, Signed: false}
}

// NewSExtExpr sign-extends src to width. Identity if widths already match.
func NewSExtExpr(src Expr, width uint) Expr {
	assert(width >= src.Width(), "NewSExtExpr: target width %d narrower than source %d", width, src.Width())
	if width == src.Width() {
		return src
	}
	return &CastExpr{Src: src, width: width, Signed: true}
}

func (e *CastExpr) Width() uint { return e.width }

func (e *CastExpr) String() string {
	kind := "ZExt"
	if e.Signed {
		kind = "SExt"
	}
	return fmt.Sprintf("(%s w%d %s)", kind, e.width, e.Src)
}

func (e *CastExpr) expr() {}

// BinaryOp enumerates the closed set of binary operator kinds (§3).
type BinaryOp int

const (
	ADD BinaryOp = iota
	SUB
	MUL
	UDIV
	SDIV
	UREM
	SREM
	AND
	OR
	XOR
	SHL
	LSHR
	ASHR
	EQ
	NE
	ULT
	ULE
	UGT
	UGE
	SLT
	SLE
	SGT
	SGE
)

// IsCompare reports whether op produces a width-1 boolean result.
func (op BinaryOp) IsCompare() bool { return op >= EQ }

var binaryOpNames = map[BinaryOp]string{
	ADD: "Add", SUB: "Sub", MUL: "Mul", UDIV: "UDiv", SDIV: "SDiv",
	UREM: "URem", SREM: "SRem", AND: "And", OR: "Or", XOR: "Xor",
	SHL: "Shl", LSHR: "LShr", ASHR: "AShr",
	EQ: "Eq", NE: "Ne", ULT: "Ult", ULE: "Ule", UGT: "Ugt", UGE: "Uge",
	SLT: "Slt", SLE: "Sle", SGT: "Sgt", SGE: "Sge",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// BinaryExpr applies a binary operator to two equal-width operands,
// producing a width-1 result for comparisons and the operand width
// otherwise.
type BinaryExpr struct {
	Op       BinaryOp
	LHS, RHS Expr
}

// NewBinaryExpr returns a new binary expression, constant-folding when
// possible and applying a handful of algebraic peepholes.
func NewBinaryExpr(op BinaryOp, lhs, rhs Expr) Expr {
	assert(lhs.Width() == rhs.Width(), "NewBinaryExpr(%s): operand width mismatch %d != %d", op, lhs.Width(), rhs.Width())

	if op == EQ {
		return newEqExpr(lhs, rhs)
	}

	if lc, ok := lhs.(*ConstantExpr); ok {
		if rc, ok := rhs.(*ConstantExpr); ok {
			if folded, ok := foldConstantBinary(op, lc, rc); ok {
				return folded
			}
		}
	}

	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
}

// newEqExpr applies the Eq(0, Eq(0, x)) = x peephole from §4.5/§8 at
// construction time as well as during transpilation, so the builder never
// produces the redundant double-negation shape in the first place.
func newEqExpr(lhs, rhs Expr) Expr {
	if lz, ok := lhs.(*ConstantExpr); ok && lz.width == WidthBool && lz.Value64 == 0 {
		if inner, ok := rhs.(*BinaryExpr); ok && inner.Op == EQ {
			if iz, ok := inner.LHS.(*ConstantExpr); ok && iz.width == WidthBool && iz.Value64 == 0 {
				return inner.RHS
			}
		}
	}

	if lc, ok := lhs.(*ConstantExpr); ok {
		if rc, ok := rhs.(*ConstantExpr); ok {
			if folded, ok := foldConstantBinary(EQ, lc, rc); ok {
				return folded
			}
		}
	}

	return &BinaryExpr{Op: EQ, LHS: lhs, RHS: rhs}
}

func (e *BinaryExpr) Width() uint {
	if e.Op.IsCompare() {
		return WidthBool
	}
	return e.LHS.Width()
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Op, e.LHS, e.RHS)
}

func (e *BinaryExpr) expr() {}

// foldConstantBinary evaluates op over two narrow constants. Returns
// ok=false for wide operands (no folding attempted there) and for
// division or remainder by zero.
func foldConstantBinary(op BinaryOp, lc, rc *ConstantExpr) (Expr, bool) {
	if lc.IsWide() || rc.IsWide() {
		return nil, false
	}
	w := lc.width
	a, b := lc.Value64, rc.Value64

	asSigned := func(v uint64, w uint) int64 {
		if w == Width64 {
			return int64(v)
		}
		signBit := uint64(1) << (w - 1)
		if v&signBit != 0 {
			return int64(v) - int64(uint64(1)<<w)
		}
		return int64(v)
	}

	switch op {
	case ADD:
		return NewConstantExpr(a+b, w), true
	case SUB:
		return NewConstantExpr(a-b, w), true
	case MUL:
		return NewConstantExpr(a*b, w), true
	case UDIV:
		if b == 0 {
			return nil, false
		}
		return NewConstantExpr(a/b, w), true
	case SDIV:
		if b == 0 {
			return nil, false
		}
		return NewConstantExpr(uint64(asSigned(a, w)/asSigned(b, w)), w), true
	case UREM:
		if b == 0 {
			return nil, false
		}
		return NewConstantExpr(a%b, w), true
	case SREM:
		if b == 0 {
			return nil, false
		}
		return NewConstantExpr(uint64(asSigned(a, w)%asSigned(b, w)), w), true
	case AND:
		return NewConstantExpr(a&b, w), true
	case OR:
		return NewConstantExpr(a|b, w), true
	case XOR:
		return NewConstantExpr(a^b, w), true
	case SHL:
		return NewConstantExpr(a<<b, w), true
	case LSHR:
		return NewConstantExpr(a>>b, w), true
	case ASHR:
		return NewConstantExpr(uint64(asSigned(a, w)>>b), w), true
	case EQ:
		return NewBoolConstantExpr(a == b), true
	case NE:
		return NewBoolConstantExpr(a != b), true
	case ULT:
		return NewBoolConstantExpr(a < b), true
	case ULE:
		return NewBoolConstantExpr(a <= b), true
	case UGT:
		return NewBoolConstantExpr(a > b), true
	case UGE:
		return NewBoolConstantExpr(a >= b), true
	case SLT:
		return NewBoolConstantExpr(asSigned(a, w) < asSigned(b, w)), true
	case SLE:
		return NewBoolConstantExpr(asSigned(a, w) <= asSigned(b, w)), true
	case SGT:
		return NewBoolConstantExpr(asSigned(a, w) > asSigned(b, w)), true
	case SGE:
		return NewBoolConstantExpr(asSigned(a, w) >= asSigned(b, w)), true
	}
	return nil, false
}

// NewBoolConstantExpr returns a width-1 constant expression for b.
func NewBoolConstantExpr(b bool) *ConstantExpr {
	if b {
		return NewConstantExpr(1, WidthBool)
	}
	return NewConstantExpr(0, WidthBool)
}

// IsConstantTrue reports whether e is the width-1 constant 1.
func IsConstantTrue(e Expr) bool {
	c, ok := e.(*ConstantExpr)
	return ok && c.width == WidthBool && c.Value64 == 1
}

// IsConstantFalse reports whether e is the width-1 constant 0.
func IsConstantFalse(e Expr) bool {
	c, ok := e.(*ConstantExpr)
	return ok && c.width == WidthBool && c.Value64 == 0
}
