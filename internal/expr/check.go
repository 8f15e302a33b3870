package expr

import (
	"fmt"

	"facet-generator/internal/schema"
)

// Issue is a single problem found while checking an expression against a
// source schema.
type Issue struct {
	// Path is the dotted field path that triggered the issue, if any.
	Path string
	// Message is the human-readable description.
	Message string
	// Candidates holds the field names in scope where the path failed,
	// so callers can build did-you-mean suggestions.
	Candidates []string
}

func (i Issue) String() string {
	if i.Path != "" {
		return i.Path + ": " + i.Message
	}
	return i.Message
}

// Check validates every field path and operator usage in the expression
// against the source schema, following nested schema fields through the
// graph. It returns all issues found; an empty slice means the expression is
// well-formed for this schema.
func Check(e Expr, src *schema.SourceSchema, g *schema.Graph) []Issue {
	c := &checker{src: src, graph: g}
	c.typeOf(e)
	return c.issues
}

// CheckCondition is Check plus the requirement that the expression yields a
// boolean, as condition predicates must.
func CheckCondition(e Expr, src *schema.SourceSchema, g *schema.Graph) []Issue {
	c := &checker{src: src, graph: g}

	ti := c.typeOf(e)
	if len(c.issues) == 0 && !isBoolish(ti) {
		c.issues = append(c.issues, Issue{
			Message: fmt.Sprintf("condition must be boolean, got %s", describeType(ti)),
		})
	}

	return c.issues
}

// InferType checks the expression and returns its result type. Used to type
// computed override fields when the rule does not pin a type explicitly.
func InferType(e Expr, src *schema.SourceSchema, g *schema.Graph) (schema.TypeRef, []Issue) {
	c := &checker{src: src, graph: g}
	ti := c.typeOf(e)
	return ti.ref, c.issues
}

// typeInfo is the checker's view of a sub-expression result.
type typeInfo struct {
	ref     schema.TypeRef
	untyped bool // literal that adapts to the other operand, Go-constant style
	isNull  bool // the null literal
}

type checker struct {
	src    *schema.SourceSchema
	graph  *schema.Graph
	issues []Issue
}

func (c *checker) addIssue(path, format string, args ...any) {
	c.issues = append(c.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) typeOf(e Expr) typeInfo {
	switch n := e.(type) {
	case *Literal:
		return literalType(n)

	case *Path:
		ref, ok := c.resolvePath(n)
		if !ok {
			return typeInfo{}
		}
		return typeInfo{ref: ref}

	case *Paren:
		return c.typeOf(n.X)

	case *Unary:
		return c.unaryType(n)

	case *Binary:
		return c.binaryType(n)

	default:
		return typeInfo{}
	}
}

func literalType(l *Literal) typeInfo {
	switch l.Type {
	case LitString:
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveString), untyped: true}
	case LitInt:
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveInt), untyped: true}
	case LitFloat:
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveFloat64), untyped: true}
	case LitBool:
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveBool), untyped: true}
	default:
		return typeInfo{isNull: true}
	}
}

// resolvePath walks a dotted path through the schema graph and returns the
// type of the final field. Nullability of intermediate segments is stripped:
// traversal has null-safe semantics.
func (c *checker) resolvePath(p *Path) (schema.TypeRef, bool) {
	cur := c.src

	var t schema.TypeRef

	for i, seg := range p.Segments {
		f := cur.Field(seg)
		if f == nil {
			c.issues = append(c.issues, Issue{
				Path:       p.String(),
				Message:    fmt.Sprintf("unknown field %q on %s", seg, cur.ID.Name),
				Candidates: cur.FieldNames(),
			})
			return schema.TypeRef{}, false
		}

		t = f.Type

		if i == len(p.Segments)-1 {
			break
		}

		base := t.Base()
		if base.Kind != schema.KindSchema {
			c.addIssue(p.String(), "cannot access %q: %s is %s, not a struct",
				p.Segments[i+1], seg, t.String())
			return schema.TypeRef{}, false
		}

		next := c.graph.Schema(base.Schema)
		if next == nil {
			c.addIssue(p.String(), "schema %s referenced by %q is not loaded", base.Schema, seg)
			return schema.TypeRef{}, false
		}

		cur = next
	}

	return t, true
}

func (c *checker) unaryType(n *Unary) typeInfo {
	x := c.typeOf(n.X)

	switch n.Op {
	case OpNot:
		if !x.isNull && x.ref.IsValid() && !isBoolish(x) {
			c.addIssue("", "operator ! requires a boolean operand, got %s", describeType(x))
		}
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveBool)}

	default: // OpNeg
		if x.isNull || x.ref.IsNullable() {
			c.addIssue("", "operator - cannot be applied to a nullable operand")
			return typeInfo{}
		}
		if x.ref.IsValid() && !x.ref.Base().Primitive.IsNumber() {
			c.addIssue("", "operator - requires a numeric operand, got %s", describeType(x))
		}
		return x
	}
}

func (c *checker) binaryType(n *Binary) typeInfo {
	l := c.typeOf(n.Left)
	r := c.typeOf(n.Right)

	boolResult := typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveBool)}

	switch {
	case n.Op.IsLogical():
		for _, side := range []typeInfo{l, r} {
			if side.isNull {
				c.addIssue("", "operator %s cannot take null directly, use a null check", n.Op)
			} else if side.ref.IsValid() && !isBoolish(side) {
				c.addIssue("", "operator %s requires boolean operands, got %s", n.Op, describeType(side))
			}
		}
		return boolResult

	case n.Op.IsComparison():
		c.checkComparison(n.Op, l, r)
		return boolResult

	default: // arithmetic
		return c.arithmeticType(n.Op, l, r)
	}
}

func (c *checker) checkComparison(op BinaryOp, l, r typeInfo) {
	// Null checks: the other side must actually be nullable.
	if l.isNull || r.isNull {
		if op != OpEQ && op != OpNEQ {
			c.addIssue("", "operator %s cannot compare against null", op)
			return
		}
		other := l
		if l.isNull {
			other = r
		}
		if other.isNull {
			c.addIssue("", "comparing null with null")
			return
		}
		if other.ref.IsValid() && !other.ref.IsNullable() {
			c.addIssue("", "null check against non-nullable %s", describeType(other))
		}
		return
	}

	if !l.ref.IsValid() || !r.ref.IsValid() {
		return // path resolution already reported
	}

	lb, rb := l.ref.Base(), r.ref.Base()

	if !comparableTypes(l, r) {
		c.addIssue("", "operator %s cannot compare %s with %s", op, describeType(l), describeType(r))
		return
	}

	if op == OpEQ || op == OpNEQ {
		return
	}

	// Ordering needs an ordered base type on the non-literal side.
	ordered := lb
	if l.untyped {
		ordered = rb
	}
	if ordered.Kind == schema.KindPrimitive {
		k := ordered.Primitive
		if k.IsNumber() || k == schema.PrimitiveString || k == schema.PrimitiveDuration {
			return
		}
	}
	if ordered.Kind == schema.KindEnum && ordered.Enum != nil && ordered.Enum.IsIntBacked() {
		return
	}

	c.addIssue("", "operator %s requires an ordered type, got %s", op, ordered.String())
}

// comparableTypes reports whether two sides can meet in ==, !=, or an
// ordering operator, following Go assignability for untyped constants.
func comparableTypes(l, r typeInfo) bool {
	lb, rb := l.ref.Base(), r.ref.Base()

	// Untyped literals adapt to enums over a matching underlying kind.
	if l.untyped && rb.Kind == schema.KindEnum && rb.Enum != nil {
		return literalFitsEnum(lb, rb.Enum)
	}
	if r.untyped && lb.Kind == schema.KindEnum && lb.Enum != nil {
		return literalFitsEnum(rb, lb.Enum)
	}

	if lb.Kind == schema.KindEnum && rb.Kind == schema.KindEnum {
		return lb.Schema == rb.Schema
	}

	if lb.Kind != schema.KindPrimitive || rb.Kind != schema.KindPrimitive {
		// Schema, collection, opaque: only nullability checks make sense,
		// which are handled before this point.
		return false
	}

	lk, rk := lb.Primitive, rb.Primitive

	if lk == rk {
		return true
	}

	// An untyped numeric constant adapts to any numeric field, except that a
	// fractional literal cannot meet an integer field.
	if l.untyped && lk.IsNumber() && rk.IsNumber() {
		return !(lk.IsFloat() && rk.IsInteger())
	}
	if r.untyped && rk.IsNumber() && lk.IsNumber() {
		return !(rk.IsFloat() && lk.IsInteger())
	}

	// Untyped int adapts to duration.
	if l.untyped && lk == schema.PrimitiveInt && rk == schema.PrimitiveDuration {
		return true
	}
	if r.untyped && rk == schema.PrimitiveInt && lk == schema.PrimitiveDuration {
		return true
	}

	return false
}

func literalFitsEnum(litBase schema.TypeRef, e *schema.EnumInfo) bool {
	if litBase.Kind != schema.KindPrimitive {
		return false
	}
	if e.IsStringBacked() {
		return litBase.Primitive == schema.PrimitiveString
	}
	return litBase.Primitive.IsInteger()
}

func (c *checker) arithmeticType(op BinaryOp, l, r typeInfo) typeInfo {
	for _, side := range []typeInfo{l, r} {
		if side.isNull {
			c.addIssue("", "operator %s cannot take null", op)
			return typeInfo{}
		}
		if side.ref.IsNullable() {
			c.addIssue("", "operator %s cannot take nullable %s, gate it with a condition", op, describeType(side))
			return typeInfo{}
		}
	}

	if !l.ref.IsValid() || !r.ref.IsValid() {
		return typeInfo{}
	}

	lb, rb := l.ref.Base(), r.ref.Base()
	if lb.Kind != schema.KindPrimitive || rb.Kind != schema.KindPrimitive {
		c.addIssue("", "operator %s requires primitive operands, got %s and %s",
			op, describeType(l), describeType(r))
		return typeInfo{}
	}

	lk, rk := lb.Primitive, rb.Primitive

	// String concatenation.
	if op == OpAdd && (lk == schema.PrimitiveString || rk == schema.PrimitiveString) {
		if lk != rk {
			c.addIssue("", "operator + cannot mix %s and %s", lk.GoName(), rk.GoName())
			return typeInfo{}
		}
		return pickTyped(l, r)
	}

	// Duration addition and subtraction.
	if lk == schema.PrimitiveDuration || rk == schema.PrimitiveDuration {
		durOK := op == OpAdd || op == OpSub
		litOK := lk == rk ||
			(l.untyped && lk == schema.PrimitiveInt) ||
			(r.untyped && rk == schema.PrimitiveInt)
		if !durOK || !litOK {
			c.addIssue("", "operator %s is not defined for %s and %s", op, lk.GoName(), rk.GoName())
			return typeInfo{}
		}
		return typeInfo{ref: schema.PrimitiveRef(schema.PrimitiveDuration)}
	}

	if !lk.IsNumber() || !rk.IsNumber() {
		c.addIssue("", "operator %s requires numeric operands, got %s and %s",
			op, describeType(l), describeType(r))
		return typeInfo{}
	}

	if op == OpMod && (lk.IsFloat() || rk.IsFloat()) {
		c.addIssue("", "operator %% requires integer operands")
		return typeInfo{}
	}

	if lk != rk {
		switch {
		case l.untyped && !(lk.IsFloat() && rk.IsInteger()):
			return r
		case r.untyped && !(rk.IsFloat() && lk.IsInteger()):
			return l
		default:
			c.addIssue("", "operator %s cannot mix %s and %s", op, lk.GoName(), rk.GoName())
			return typeInfo{}
		}
	}

	return pickTyped(l, r)
}

// pickTyped prefers the operand with a committed type so named types and
// field types win over literals.
func pickTyped(l, r typeInfo) typeInfo {
	if !l.untyped {
		return l
	}
	if !r.untyped {
		return r
	}
	return l
}

func isBoolish(ti typeInfo) bool {
	base := ti.ref.Base()
	return base.Kind == schema.KindPrimitive && base.Primitive == schema.PrimitiveBool
}

func describeType(ti typeInfo) string {
	if ti.isNull {
		return "null"
	}
	if !ti.ref.IsValid() {
		return "<unknown>"
	}
	return ti.ref.String()
}
