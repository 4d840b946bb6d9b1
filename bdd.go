package bddgen

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Node is a BDD interior node: either a CallNode or a BranchNode (§3).
type Node interface {
	ID() uint64
	CallPathFilenames() []string
	DumpCompact() string

	node()
}

// CallNode owns one canonical call and a linear successor.
type CallNode struct {
	id        uint64
	Call      Call
	CallPaths []*CallPath // provenance back-references
	Next      Node        // owned successor in the linear chain
}

func (n *CallNode) ID() uint64 { return n.id }

func (n *CallNode) CallPathFilenames() []string {
	names := make([]string, len(n.CallPaths))
	for i, p := range n.CallPaths {
		names[i] = p.FileName
	}
	return names
}

// DumpCompact renders this node's argument bindings in sorted-by-name
// order so the §4.7 dump is reproducible across runs; Go map iteration
// order is randomized, unlike the original's std::map<std::string, ...>.
func (n *CallNode) DumpCompact() string {
	var args []string
	for _, name := range sortedArgNames(n.Call.Args) {
		a := n.Call.Args[name]
		switch {
		case a.Expr != nil:
			args = append(args, fmt.Sprintf("%s=%s", name, a.Expr))
		case a.Before != nil || a.After != nil:
			args = append(args, fmt.Sprintf("%s=[%s -> %s]", name, a.Before, a.After))
		}
	}
	return fmt.Sprintf("[%d] CALL %s(%s)", n.id, n.Call.FunctionName, strings.Join(args, ", "))
}

func (n *CallNode) node() {}

// BranchNode owns a discriminating condition and two children.
type BranchNode struct {
	id              uint64
	Condition       Expr
	CallPaths       []*CallPath
	OnTrue, OnFalse Node
}

func (n *BranchNode) ID() uint64 { return n.id }

func (n *BranchNode) CallPathFilenames() []string {
	names := make([]string, len(n.CallPaths))
	for i, p := range n.CallPaths {
		names[i] = p.FileName
	}
	return names
}

func (n *BranchNode) DumpCompact() string {
	return fmt.Sprintf("[%d] BRANCH %s", n.id, n.Condition)
}

func (n *BranchNode) node() {}

// BDD owns the merged decision graph's root.
type BDD struct {
	Root Node
}

// Builder constructs a BDD from a set of call paths (§4.4). Holds the
// monotonic id counter (§5).
type Builder struct {
	Toolbox *SolverToolbox
	Classes FunctionClass
	Group   *GroupingEngine

	log    zerolog.Logger
	nextID uint64
}

// NewBuilder returns a Builder wired to toolbox and classes.
func NewBuilder(toolbox *SolverToolbox, classes FunctionClass, log zerolog.Logger) *Builder {
	return &Builder{
		Toolbox: toolbox,
		Classes: classes,
		Group:   NewGroupingEngine(toolbox, classes),
		log:     log,
		nextID:  1,
	}
}

func (b *Builder) newID() uint64 {
	id := b.nextID
	b.nextID++
	return id
}

// Build runs the BDD-construction algorithm of §4.4 over paths, after
// eliding skip-function calls from every path's call sequence (the
// elision referred to by the Glossary's "Skip function" entry and
// exercised by scenario 5 in §8). Build works on copies of paths; the
// caller's CallPath values are left unchanged.
func (b *Builder) Build(paths []*CallPath) *BDD {
	prepared := make([]*CallPath, len(paths))
	for i, p := range paths {
		prepared[i] = &CallPath{
			FileName:    p.FileName,
			Constraints: p.Constraints,
			Calls:       b.elideSkipCalls(p.Calls),
		}
	}

	b.log.Info().Int("paths", len(prepared)).Msg("building bdd")
	root := b.populate(prepared)
	return &BDD{Root: root}
}

func (b *Builder) elideSkipCalls(calls []Call) []Call {
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		if b.Classes.IsSkip(c.FunctionName) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// populate is the recursive driver of §4.4.
func (b *Builder) populate(paths []*CallPath) Node {
	var root, leaf Node
	appendNode := func(n Node) {
		if root == nil {
			root, leaf = n, n
			return
		}
		switch l := leaf.(type) {
		case *CallNode:
			l.Next = n
		default:
			assert(false, "populate: cannot chain a node after a non-Call leaf")
		}
		leaf = n
	}

	for len(paths) > 0 {
		grouping := b.Group.Group(paths)

		if len(grouping.OnFalse) == 0 {
			if _, ok := grouping.OnTrue[0].NextCall(); !ok {
				return root
			}

			call := b.canonicalCall(grouping.OnTrue)
			n := &CallNode{id: b.newID(), Call: call, CallPaths: append([]*CallPath{}, grouping.OnTrue...)}
			appendNode(n)

			for _, p := range paths {
				p.PopCall()
			}
			continue
		}

		branch := &BranchNode{
			id:        b.newID(),
			Condition: grouping.Discriminator,
			CallPaths: append([]*CallPath{}, paths...),
		}
		branch.OnTrue = b.populate(grouping.OnTrue)
		branch.OnFalse = b.populate(grouping.OnFalse)

		if root == nil {
			return branch
		}
		appendNode(branch)
		return root
	}

	return root
}

// canonicalCall picks the "successful" call within a completed on_true
// group per §4.3.2.
func (b *Builder) canonicalCall(onTrue []*CallPath) Call {
	assert(len(onTrue) > 0, "canonicalCall: empty group")

	for _, p := range onTrue {
		call, ok := p.NextCall()
		assert(ok, "canonicalCall: %s has no next call", p.FileName)

		if call.Ret == nil {
			return call
		}
		zero := NewConstantExpr(0, call.Ret.Width())
		eqZero := NewBinaryExpr(EQ, call.Ret, zero)
		if b.Toolbox.AlwaysFalse(nil, eqZero) {
			return call
		}
	}

	call, _ := onTrue[0].NextCall()
	return call
}

// Dump renders the BDD as the depth-first, provenance-annotated text
// format of §4.7.
func (bdd *BDD) Dump() string {
	var sb strings.Builder
	dumpNode(&sb, 0, bdd.Root)
	return sb.String()
}

func dumpNode(sb *strings.Builder, lvl int, n Node) {
	sep := strings.Repeat("  ", lvl)

	for n != nil {
		sb.WriteString("\n")
		for _, name := range n.CallPathFilenames() {
			sb.WriteString(sep)
			sb.WriteString("[")
			sb.WriteString(name)
			sb.WriteString("]\n")
		}

		sb.WriteString(sep)
		sb.WriteString(n.DumpCompact())
		sb.WriteString("\n")

		branch, ok := n.(*BranchNode)
		if !ok {
			n = n.(*CallNode).Next
			continue
		}
		dumpNode(sb, lvl+1, branch.OnTrue)
		dumpNode(sb, lvl+1, branch.OnFalse)
		return
	}
}
