package expr

import (
	"fmt"
	"strconv"
	"strings"

	"facet-generator/internal/common"
	"facet-generator/internal/schema"
)

// RenderBool renders a boolean expression as self-contained Go source
// reading fields from recv. Paths through nullable links are guarded with
// nil checks so the generated code never dereferences a nil pointer, and
// comparisons involving null follow null-propagation semantics: a traversal
// that hits nil yields the null-propagated result instead of panicking.
func RenderBool(e Expr, recv string, src *schema.SourceSchema, g *schema.Graph) (string, error) {
	r := &renderer{recv: recv, src: src, graph: g}

	code := r.renderBool(e)
	if r.err != nil {
		return "", r.err
	}

	return code, nil
}

// RenderValue renders a value expression as Go source plus the nil-check
// guards the caller must wrap around the assignment. Guards arise from
// nullable links on intermediate path segments; the emitted value itself is
// not dereferenced, so a nullable leaf stays a pointer.
func RenderValue(e Expr, recv string, src *schema.SourceSchema, g *schema.Graph) (string, []string, error) {
	r := &renderer{recv: recv, src: src, graph: g}

	// Boolean-shaped expressions are rendered self-contained; they carry
	// their guards internally and need none outside.
	if isBooleanShaped(e) {
		code := r.renderBool(e)
		if r.err != nil {
			return "", nil, r.err
		}
		return code, nil, nil
	}

	code, guards := r.renderScalar(e)
	if r.err != nil {
		return "", nil, r.err
	}

	return code, common.Dedupe(guards), nil
}

func isBooleanShaped(e Expr) bool {
	switch n := e.(type) {
	case *Binary:
		return n.Op.IsLogical() || n.Op.IsComparison()
	case *Unary:
		return n.Op == OpNot
	case *Literal:
		return n.Type == LitBool
	case *Paren:
		return isBooleanShaped(n.X)
	default:
		return false
	}
}

type renderer struct {
	recv  string
	src   *schema.SourceSchema
	graph *schema.Graph
	err   error
}

func (r *renderer) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

// pathInfo describes a rendered field path.
type pathInfo struct {
	access       string   // selector chain, e.g. "src.Profile.Bio"
	guards       []string // nil checks for nullable intermediate segments
	leafNullable bool
}

func (r *renderer) path(p *Path) (pathInfo, bool) {
	cur := r.src
	access := r.recv

	var info pathInfo

	for i, seg := range p.Segments {
		f := cur.Field(seg)
		if f == nil {
			r.fail("unknown field %q on %s", seg, cur.ID.Name)
			return info, false
		}

		access += "." + seg

		if i == len(p.Segments)-1 {
			info.access = access
			info.leafNullable = f.Type.IsNullable()
			return info, true
		}

		// Selectors auto-deref pointers to structs; only the nil check is needed.
		if f.Type.IsNullable() {
			info.guards = append(info.guards, access+" != nil")
		}

		next := r.graph.Schema(f.Type.Base().Schema)
		if next == nil {
			r.fail("schema behind %q is not loaded", seg)
			return info, false
		}

		cur = next
	}

	return info, false
}

// operand is one side of a comparison, normalized for guard assembly.
type operand struct {
	code      string   // value expression, dereferenced if the leaf is nullable
	ptr       string   // pointer expression for null checks, "" if not a path leaf
	nilChecks []string // all checks that must hold for code to be evaluable
	preGuards []string // checks for intermediate segments only
	isNullLit bool
}

func (r *renderer) operand(e Expr) operand {
	if lit, ok := unquote(e).(*Literal); ok && lit.IsNull() {
		return operand{isNullLit: true}
	}

	if p, ok := unquote(e).(*Path); ok {
		info, valid := r.path(p)
		if !valid {
			return operand{}
		}

		op := operand{
			ptr:       info.access,
			code:      info.access,
			preGuards: info.guards,
			nilChecks: info.guards,
		}
		if info.leafNullable {
			op.code = "*" + info.access
			op.nilChecks = append(append([]string{}, info.guards...), info.access+" != nil")
		}

		return op
	}

	code, guards := r.renderScalar(e)

	return operand{code: code, nilChecks: guards, preGuards: guards}
}

// unquote strips explicit parentheses so (Email) behaves like Email.
func unquote(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}

func (r *renderer) renderBool(e Expr) string {
	switch n := e.(type) {
	case *Binary:
		switch {
		case n.Op.IsLogical():
			left := r.boolChild(n.Left, n.Op)
			right := r.boolChild(n.Right, n.Op)
			return left + " " + n.Op.String() + " " + right
		case n.Op.IsComparison():
			return r.renderComparison(n)
		default:
			r.fail("expression %q is not boolean", e.String())
			return ""
		}

	case *Unary:
		if n.Op != OpNot {
			r.fail("expression %q is not boolean", e.String())
			return ""
		}
		inner := r.renderBool(n.X)
		if needsParens(n.X) {
			inner = "(" + inner + ")"
		}
		return "!" + inner

	case *Paren:
		return "(" + r.renderBool(n.X) + ")"

	case *Path:
		op := r.operand(n)
		// A bare nullable bool is false when nil.
		return conjoin(append(append([]string{}, op.nilChecks...), op.code))

	case *Literal:
		if n.Type == LitBool {
			return n.Raw
		}
		r.fail("literal %s is not boolean", n.String())
		return ""

	default:
		r.fail("expression %q is not boolean", e.String())
		return ""
	}
}

// boolChild renders a logical operand, adding parentheses when an || child
// sits under &&.
func (r *renderer) boolChild(e Expr, parent BinaryOp) string {
	code := r.renderBool(e)

	if parent == OpAnd {
		if b, ok := e.(*Binary); ok && b.Op == OpOr {
			return "(" + code + ")"
		}
	}

	return code
}

func needsParens(e Expr) bool {
	switch e.(type) {
	case *Binary:
		return true
	default:
		return false
	}
}

func (r *renderer) renderComparison(n *Binary) string {
	left := r.operand(n.Left)
	right := r.operand(n.Right)

	// Null checks compare the pointer itself.
	if left.isNullLit || right.isNullLit {
		return r.renderNullCheck(n.Op, left, right)
	}

	core := left.code + " " + n.Op.String() + " " + right.code
	checks := common.Dedupe(append(append([]string{}, left.nilChecks...), right.nilChecks...))

	if common.IsEmpty(checks) {
		return core
	}

	switch n.Op {
	case OpNEQ:
		// A value missing anywhere makes inequality hold.
		if left.ptr != "" && right.ptr != "" && len(left.nilChecks) > 0 && len(right.nilChecks) > 0 {
			return "!(" + r.bothSidesEqual(left, right) + ")"
		}
		return disjoin(append(negateAll(checks), core))

	case OpEQ:
		if left.ptr != "" && right.ptr != "" && len(left.nilChecks) > 0 && len(right.nilChecks) > 0 {
			return r.bothSidesEqual(left, right)
		}
		return conjoin(append(checks, core))

	default:
		// Ordering against a missing value is false.
		return conjoin(append(checks, core))
	}
}

// bothSidesEqual renders equality of two nullable paths: equal when both are
// missing, or both present with equal values.
func (r *renderer) bothSidesEqual(left, right operand) string {
	bothNil := "(" + disjoin(negateAll(left.nilChecks)) + " && " + disjoin(negateAll(right.nilChecks)) + ")"
	bothSet := conjoin(append(
		common.Dedupe(append(append([]string{}, left.nilChecks...), right.nilChecks...)),
		left.code+" == "+right.code,
	))

	return "(" + bothNil + " || (" + bothSet + "))"
}

func (r *renderer) renderNullCheck(op BinaryOp, left, right operand) string {
	target := left
	if left.isNullLit {
		target = right
	}

	if target.ptr == "" {
		r.fail("null comparison requires a field operand")
		return ""
	}

	switch op {
	case OpEQ:
		// Null if any link on the way is nil, or the leaf itself is.
		return disjoin(append(negateAll(target.preGuards), target.ptr+" == nil"))
	case OpNEQ:
		return conjoin(append(append([]string{}, target.preGuards...), target.ptr+" != nil"))
	default:
		r.fail("operator %s cannot compare against null", op)
		return ""
	}
}

func (r *renderer) renderScalar(e Expr) (string, []string) {
	switch n := e.(type) {
	case *Literal:
		return goLiteral(n), nil

	case *Path:
		info, ok := r.path(n)
		if !ok {
			return "", nil
		}
		return info.access, info.guards

	case *Paren:
		code, guards := r.renderScalar(n.X)
		return "(" + code + ")", guards

	case *Unary:
		if n.Op != OpNeg {
			r.fail("operator %s is not a value operator", n.Op)
			return "", nil
		}
		code, guards := r.renderScalar(n.X)
		if needsParens(n.X) {
			code = "(" + code + ")"
		}
		return "-" + code, guards

	case *Binary:
		if !n.Op.IsArithmetic() {
			r.fail("expression %q is not a value", e.String())
			return "", nil
		}
		left, lg := r.scalarChild(n.Left, n.Op, false)
		right, rg := r.scalarChild(n.Right, n.Op, true)
		return left + " " + n.Op.String() + " " + right, append(lg, rg...)

	default:
		r.fail("cannot render %q as a value", e.String())
		return "", nil
	}
}

// scalarChild renders an arithmetic operand, parenthesizing children whose
// operator binds looser than the parent.
func (r *renderer) scalarChild(e Expr, parent BinaryOp, rightSide bool) (string, []string) {
	code, guards := r.renderScalar(e)

	if b, ok := e.(*Binary); ok {
		if opPrecedence(b.Op) < opPrecedence(parent) ||
			(rightSide && opPrecedence(b.Op) == opPrecedence(parent)) {
			code = "(" + code + ")"
		}
	}

	return code, guards
}

func opPrecedence(op BinaryOp) int {
	switch op {
	case OpMul, OpDiv, OpMod:
		return 5
	case OpAdd, OpSub:
		return 4
	case OpEQ, OpNEQ, OpLT, OpLTE, OpGT, OpGTE:
		return 3
	case OpAnd:
		return 2
	default:
		return 1
	}
}

func goLiteral(l *Literal) string {
	switch l.Type {
	case LitString:
		return strconv.Quote(l.Raw)
	case LitNull:
		return "nil"
	default:
		return l.Raw
	}
}

func conjoin(parts []string) string {
	parts = common.Dedupe(parts)
	return strings.Join(parts, " && ")
}

func disjoin(parts []string) string {
	parts = common.Dedupe(parts)
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func negateAll(checks []string) []string {
	out := make([]string, 0, len(checks))
	for _, c := range checks {
		out = append(out, strings.Replace(c, " != nil", " == nil", 1))
	}
	return out
}
