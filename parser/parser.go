// Package parser provides a minimal line-oriented call-path file reader.
// Its grammar is not part of the specified core (bddgen's contract with a
// parser is only the in-memory CallPath shape, §6) — this is the
// external collaborator that exercises that contract end to end.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/calltrace/bddgen"
)

// Parse reads a call-path file in the form:
//
//	constraint <expr-text>
//	call <fn_name> <arg>=<expr-text> ...
//
// where <expr-text> is a tiny s-expression dialect understood by
// ParseExpr; an argument's expression may contain spaces inside its
// parentheses. Blank lines and lines starting with '#' are ignored; any
// other line is an error.
func Parse(fileName string, r io.Reader) (*bddgen.CallPath, error) {
	path := &bddgen.CallPath{FileName: fileName}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "constraint":
			e, err := ParseExpr(strings.Join(fields[1:], " "))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fileName, err)
			}
			path.Constraints = append(path.Constraints, e)
		case "call":
			call, err := parseCall(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fileName, err)
			}
			path.Calls = append(path.Calls, call)
		default:
			return nil, fmt.Errorf("%s: unrecognized line %q", fileName, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return path, nil
}

func parseCall(fields []string) (bddgen.Call, error) {
	if len(fields) == 0 {
		return bddgen.Call{}, fmt.Errorf("call line missing function name")
	}
	call := bddgen.Call{FunctionName: fields[0], Args: map[string]bddgen.Argument{}}

	// Rejoin fields that belong to one parenthesized argument expression.
	var argFields []string
	depth := 0
	for _, f := range fields[1:] {
		if depth > 0 {
			argFields[len(argFields)-1] += " " + f
		} else {
			argFields = append(argFields, f)
		}
		depth += strings.Count(f, "(") - strings.Count(f, ")")
	}

	for _, f := range argFields {
		name, exprText, ok := strings.Cut(f, "=")
		if !ok {
			return bddgen.Call{}, fmt.Errorf("malformed argument %q", f)
		}
		e, err := ParseExpr(exprText)
		if err != nil {
			return bddgen.Call{}, err
		}
		if name == "ret" {
			call.Ret = e
			continue
		}
		call.Args[name] = bddgen.Argument{Expr: e}
	}
	return call, nil
}

// arrayInterner interns Array descriptors by shape; the package-level
// sharedInterner is used by every Parse call in the process, so repeated
// reads of the same symbolic array, within one file or across files,
// share one *Array, as §3
// requires ("two arrays with the same name, domain, range, and size are
// considered the same array").
type arrayInterner struct {
	byKey map[string]*bddgen.Array
	next  uint64
}

func newArrayInterner() *arrayInterner {
	return &arrayInterner{byKey: map[string]*bddgen.Array{}, next: 1}
}

func (a *arrayInterner) get(name string, domain, rang, size uint) *bddgen.Array {
	key := fmt.Sprintf("%s/%d/%d/%d", name, domain, rang, size)
	if arr, ok := a.byKey[key]; ok {
		return arr
	}
	arr := bddgen.NewArray(a.next, name, domain, rang, size)
	a.next++
	a.byKey[key] = arr
	return arr
}

var sharedInterner = newArrayInterner()

// ParseExpr parses the tiny prefix-notation expression dialect:
//
//	(const <width> <value>)
//	(read <name> <domain> <range> <size> <index-expr>)
//	(<op> <a> <b>)    ; add, sub, eq, ult, and, ...
//	(not <a>)
//	(zext <width> <a>) / (sext <width> <a>)
//	(extract <offset> <width> <a>)
func ParseExpr(s string) (bddgen.Expr, error) {
	toks := tokenize(s)
	e, rest, err := parseExprTokens(toks)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing tokens after expression: %v", rest)
	}
	return e, nil
}

func tokenize(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

func parseExprTokens(toks []string) (bddgen.Expr, []string, error) {
	if len(toks) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of expression")
	}

	if toks[0] != "(" {
		v, err := strconv.ParseUint(toks[0], 0, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("expected literal, got %q", toks[0])
		}
		return bddgen.NewConstantExpr(v, bddgen.Width64), toks[1:], nil
	}

	toks = toks[1:]
	if len(toks) == 0 {
		return nil, nil, fmt.Errorf("unexpected end after '('")
	}
	op := toks[0]
	toks = toks[1:]

	readArgs := func(n int) ([]bddgen.Expr, []string, error) {
		args := make([]bddgen.Expr, n)
		for i := 0; i < n; i++ {
			var err error
			args[i], toks, err = parseExprTokens(toks)
			if err != nil {
				return nil, nil, err
			}
		}
		return args, toks, nil
	}

	expect := func(kind string) (uint, error) {
		if len(toks) == 0 {
			return 0, fmt.Errorf("expected %s", kind)
		}
		v, err := strconv.ParseUint(toks[0], 0, 64)
		toks = toks[1:]
		return uint(v), err
	}

	var result bddgen.Expr
	switch op {
	case "const":
		width, err := expect("width")
		if err != nil {
			return nil, nil, err
		}
		value, err := expect("value")
		if err != nil {
			return nil, nil, err
		}
		result = bddgen.NewConstantExpr(uint64(value), width)
	case "read":
		if len(toks) < 4 {
			return nil, nil, fmt.Errorf("read: missing fields")
		}
		name := toks[0]
		domain, _ := strconv.ParseUint(toks[1], 0, 64)
		rang, _ := strconv.ParseUint(toks[2], 0, 64)
		size, _ := strconv.ParseUint(toks[3], 0, 64)
		toks = toks[4:]
		var index bddgen.Expr
		var err error
		index, toks, err = parseExprTokens(toks)
		if err != nil {
			return nil, nil, err
		}
		arr := sharedInterner.get(name, uint(domain), uint(rang), uint(size))
		result = bddgen.NewReadExpr(arr, index, uint(rang))
	case "not":
		args, rest, err := readArgs(1)
		if err != nil {
			return nil, nil, err
		}
		toks = rest
		result = bddgen.NewNotExpr(args[0])
	case "zext", "sext":
		width, err := expect("width")
		if err != nil {
			return nil, nil, err
		}
		args, rest, err := readArgs(1)
		if err != nil {
			return nil, nil, err
		}
		toks = rest
		if op == "zext" {
			result = bddgen.NewZExtExpr(args[0], width)
		} else {
			result = bddgen.NewSExtExpr(args[0], width)
		}
	case "extract":
		offset, err := expect("offset")
		if err != nil {
			return nil, nil, err
		}
		width, err := expect("width")
		if err != nil {
			return nil, nil, err
		}
		args, rest, err := readArgs(1)
		if err != nil {
			return nil, nil, err
		}
		toks = rest
		result = bddgen.NewExtractExpr(args[0], offset, width)
	default:
		binOp, ok := binaryOps[op]
		if !ok {
			return nil, nil, fmt.Errorf("unknown operator %q", op)
		}
		args, rest, err := readArgs(2)
		if err != nil {
			return nil, nil, err
		}
		toks = rest
		result = bddgen.NewBinaryExpr(binOp, args[0], args[1])
	}

	if len(toks) == 0 || toks[0] != ")" {
		return nil, nil, fmt.Errorf("expected ')' after %s", op)
	}
	return result, toks[1:], nil
}

var binaryOps = map[string]bddgen.BinaryOp{
	"add": bddgen.ADD, "sub": bddgen.SUB, "mul": bddgen.MUL,
	"udiv": bddgen.UDIV, "sdiv": bddgen.SDIV, "urem": bddgen.UREM, "srem": bddgen.SREM,
	"and": bddgen.AND, "or": bddgen.OR, "xor": bddgen.XOR,
	"shl": bddgen.SHL, "lshr": bddgen.LSHR, "ashr": bddgen.ASHR,
	"eq": bddgen.EQ, "ne": bddgen.NE,
	"ult": bddgen.ULT, "ule": bddgen.ULE, "ugt": bddgen.UGT, "uge": bddgen.UGE,
	"slt": bddgen.SLT, "sle": bddgen.SLE, "sgt": bddgen.SGT, "sge": bddgen.SGE,
}
