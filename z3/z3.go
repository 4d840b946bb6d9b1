// Package z3 provides the one production implementation of the opaque
// solver oracle (bddgen.Solver) specified in §6, backed by a real z3
// context rather than a stub.
package z3

import (
	"sync"

	"github.com/aclements/go-z3/z3"
	"github.com/calltrace/bddgen"
)

// Solver wraps a z3 context and a single, reused solver handle (§5: "the
// solver toolbox holds a single solver handle and serializes queries
// through it").
type Solver struct {
	mu     sync.Mutex
	ctx    *z3.Context
	solver *z3.Solver
}

// New returns a new z3-backed Solver.
func New() *Solver {
	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	return &Solver{ctx: ctx, solver: z3.NewSolver(ctx)}
}

// Close releases the underlying z3 context. The bound z3 library manages
// context/solver teardown via runtime finalizers, so this is a no-op.
func (s *Solver) Close() {
}

func (s *Solver) assertQuery(q bddgen.Query) z3.Bool {
	var conj z3.Bool
	for i, c := range q.Constraints {
		b := s.convertBool(c)
		if i == 0 {
			conj = b
		} else {
			conj = conj.And(b)
		}
	}
	return conj
}

// MustBeTrue reports whether q.Constraints imply q.Target: i.e. whether
// Constraints ∧ ¬Target is unsatisfiable.
func (s *Solver) MustBeTrue(q bddgen.Query) (result, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Reset()
	if len(q.Constraints) > 0 {
		s.solver.Assert(s.assertQuery(q))
	}
	s.solver.Assert(s.convertBool(q.Target).Not())

	sat, err := s.solver.Check()
	if err != nil {
		return false, false
	}
	return !sat, true
}

// MustBeFalse reports whether q.Constraints imply ¬q.Target: i.e. whether
// Constraints ∧ Target is unsatisfiable.
func (s *Solver) MustBeFalse(q bddgen.Query) (result, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Reset()
	if len(q.Constraints) > 0 {
		s.solver.Assert(s.assertQuery(q))
	}
	s.solver.Assert(s.convertBool(q.Target))

	sat, err := s.solver.Check()
	if err != nil {
		return false, false
	}
	return !sat, true
}

// GetValue extracts a witnessing constant for q.Target under q.Constraints.
func (s *Solver) GetValue(q bddgen.Query) (value *bddgen.ConstantExpr, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.solver.Reset()
	if len(q.Constraints) > 0 {
		s.solver.Assert(s.assertQuery(q))
	}

	sat, err := s.solver.Check()
	if err != nil || !sat {
		return nil, false
	}

	model := s.solver.Model()
	if model == nil {
		return nil, false
	}

	bv := s.convertBV(q.Target)
	evaluated := model.Eval(bv, true)
	asBV, isBV := evaluated.(z3.BV)
	if !isBV {
		return nil, false
	}

	u, isLiteral, ok := asBV.AsUint64()
	isConst := isLiteral && ok
	if !isConst {
		return nil, false
	}
	return bddgen.NewConstantExpr(u, q.Target.Width()), true
}

// convertBool lowers a width-1 bddgen.Expr into a z3.Bool.
func (s *Solver) convertBool(e bddgen.Expr) z3.Bool {
	if b, ok := e.(*bddgen.BinaryExpr); ok && b.Op.IsCompare() {
		return s.convertCompare(b)
	}
	if n, ok := e.(*bddgen.NotExpr); ok {
		return s.convertBool(n.Expr).Not()
	}
	if c, ok := e.(*bddgen.ConstantExpr); ok {
		return s.ctx.FromBool(!c.IsZero())
	}
	// A width-1 non-comparison expression (e.g. a bare boolean Read) is
	// compared against the constant 1.
	bv := s.convertBV(e)
	one := s.ctx.FromInt(1, s.ctx.BVSort(1)).(z3.BV)
	return bv.Eq(one)
}

func (s *Solver) convertCompare(b *bddgen.BinaryExpr) z3.Bool {
	lhs, rhs := s.convertBV(b.LHS), s.convertBV(b.RHS)
	switch b.Op {
	case bddgen.EQ:
		return lhs.Eq(rhs)
	case bddgen.NE:
		return lhs.Eq(rhs).Not()
	case bddgen.ULT:
		return lhs.ULT(rhs)
	case bddgen.ULE:
		return lhs.ULE(rhs)
	case bddgen.UGT:
		return lhs.UGT(rhs)
	case bddgen.UGE:
		return lhs.UGE(rhs)
	case bddgen.SLT:
		return lhs.SLT(rhs)
	case bddgen.SLE:
		return lhs.SLE(rhs)
	case bddgen.SGT:
		return lhs.SGT(rhs)
	case bddgen.SGE:
		return lhs.SGE(rhs)
	}
	panic("convertCompare: unreachable comparison op")
}

// convertBV lowers a bddgen.Expr into a z3.BV.
func (s *Solver) convertBV(e bddgen.Expr) z3.BV {
	switch v := e.(type) {
	case *bddgen.ConstantExpr:
		if v.IsWide() {
			return s.ctx.FromBigInt(v.Wide.ToBig(), s.ctx.BVSort(int(v.Width()))).(z3.BV)
		}
		return s.ctx.FromInt(int64(v.Uint64()), s.ctx.BVSort(int(v.Width()))).(z3.BV)
	case *bddgen.ReadExpr:
		name := v.Array.String()
		return s.ctx.Const(name, s.ctx.BVSort(int(v.Width()))).(z3.BV)
	case *bddgen.ExtractExpr:
		operand := s.convertBV(v.Expr)
		return operand.Extract(int(v.Offset+v.Width_-1), int(v.Offset))
	case *bddgen.ConcatExpr:
		return s.convertBV(v.MSB).Concat(s.convertBV(v.LSB))
	case *bddgen.CastExpr:
		operand := s.convertBV(v.Src)
		extra := int(v.Width()) - int(v.Src.Width())
		if v.Signed {
			return operand.SignExtend(extra)
		}
		return operand.ZeroExtend(extra)
	case *bddgen.NotExpr:
		return s.convertBV(v.Expr).Not()
	case *bddgen.SelectExpr:
		cond := s.convertBool(v.Cond)
		return cond.IfThenElse(s.convertBV(v.True), s.convertBV(v.False)).(z3.BV)
	case *bddgen.BinaryExpr:
		return s.convertBinaryBV(v)
	}
	panic("convertBV: unimplemented expression kind")
}

func (s *Solver) convertBinaryBV(b *bddgen.BinaryExpr) z3.BV {
	lhs, rhs := s.convertBV(b.LHS), s.convertBV(b.RHS)
	switch b.Op {
	case bddgen.ADD:
		return lhs.Add(rhs)
	case bddgen.SUB:
		return lhs.Sub(rhs)
	case bddgen.MUL:
		return lhs.Mul(rhs)
	case bddgen.UDIV:
		return lhs.UDiv(rhs)
	case bddgen.SDIV:
		return lhs.SDiv(rhs)
	case bddgen.UREM:
		return lhs.URem(rhs)
	case bddgen.SREM:
		return lhs.SRem(rhs)
	case bddgen.AND:
		return lhs.And(rhs)
	case bddgen.OR:
		return lhs.Or(rhs)
	case bddgen.XOR:
		return lhs.Xor(rhs)
	case bddgen.SHL:
		return lhs.Lsh(rhs)
	case bddgen.LSHR:
		return lhs.URsh(rhs)
	case bddgen.ASHR:
		return lhs.SRsh(rhs)
	}
	panic("convertBinaryBV: unreachable for a comparison op")
}
