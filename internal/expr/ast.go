package expr

import (
	"strconv"
	"strings"
)

// Expr is the interface implemented by all expression nodes.
type Expr interface {
	Pos() int
	String() string
	exprNode()
}

// Path represents a field access chain: "Email" or "Profile.Address.City".
type Path struct {
	TokenPos int
	Segments []string
}

func (e *Path) Pos() int { return e.TokenPos }

func (e *Path) String() string { return strings.Join(e.Segments, ".") }

func (e *Path) exprNode() {}

// Root returns the first segment of the path.
func (e *Path) Root() string {
	if len(e.Segments) == 0 {
		return ""
	}
	return e.Segments[0]
}

// IsBare returns true for a single-segment path, i.e. a plain field name.
func (e *Path) IsBare() bool {
	return len(e.Segments) == 1
}

// LiteralType classifies a literal value.
type LiteralType int

const (
	LitString LiteralType = iota
	LitInt
	LitFloat
	LitBool
	LitNull
)

// Literal represents a constant value. For strings, Raw holds the cooked
// content with escapes resolved.
type Literal struct {
	TokenPos int
	Type     LiteralType
	Raw      string
}

func (e *Literal) Pos() int { return e.TokenPos }

func (e *Literal) exprNode() {}

func (e *Literal) String() string {
	if e.Type == LitString {
		return strconv.Quote(e.Raw)
	}
	return e.Raw
}

// IsNull returns true for the null literal.
func (e *Literal) IsNull() bool {
	return e.Type == LitNull
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota // !
	OpNeg                // -
)

// String returns the operator symbol.
func (op UnaryOp) String() string {
	if op == OpNeg {
		return "-"
	}
	return "!"
}

// Unary represents "!expr" or "-expr".
type Unary struct {
	TokenPos int
	Op       UnaryOp
	X        Expr
}

func (e *Unary) Pos() int { return e.TokenPos }

func (e *Unary) String() string { return e.Op.String() + e.X.String() }

func (e *Unary) exprNode() {}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpOr  BinaryOp = iota // ||
	OpAnd                 // &&
	OpEQ                  // ==
	OpNEQ                 // !=
	OpLT                  // <
	OpLTE                 // <=
	OpGT                  // >
	OpGTE                 // >=
	OpAdd                 // +
	OpSub                 // -
	OpMul                 // *
	OpDiv                 // /
	OpMod                 // %
)

// String returns the operator symbol.
func (op BinaryOp) String() string {
	switch op {
	case OpOr:
		return "||"
	case OpAnd:
		return "&&"
	case OpEQ:
		return "=="
	case OpNEQ:
		return "!="
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	default:
		return "?"
	}
}

// IsComparison returns true for ==, !=, <, <=, >, >=.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEQ, OpNEQ, OpLT, OpLTE, OpGT, OpGTE:
		return true
	default:
		return false
	}
}

// IsLogical returns true for && and ||.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// IsArithmetic returns true for +, -, *, /, %.
func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	default:
		return false
	}
}

// Binary represents "left op right".
type Binary struct {
	TokenPos int
	Op       BinaryOp
	Left     Expr
	Right    Expr
}

func (e *Binary) Pos() int { return e.TokenPos }

func (e *Binary) exprNode() {}

func (e *Binary) String() string {
	return e.Left.String() + " " + e.Op.String() + " " + e.Right.String()
}

// Paren represents a parenthesized sub-expression. Kept as an explicit node
// so the original grouping survives round-trips through String().
type Paren struct {
	TokenPos int
	X        Expr
}

func (e *Paren) Pos() int { return e.TokenPos }

func (e *Paren) String() string { return "(" + e.X.String() + ")" }

func (e *Paren) exprNode() {}

// IsComputed reports whether the expression is anything richer than a bare
// field name. A bare name is a rename; everything else is a computed
// projection with no automatic reverse mapping.
func IsComputed(e Expr) bool {
	p, ok := e.(*Path)
	return !ok || !p.IsBare()
}

// SoleField returns the field name when the expression is a bare field
// reference, or "" and false otherwise.
func SoleField(e Expr) (string, bool) {
	if p, ok := e.(*Path); ok && p.IsBare() {
		return p.Segments[0], true
	}
	return "", false
}

// Paths returns every field path referenced by the expression, in source
// order, including duplicates.
func Paths(e Expr) []*Path {
	var out []*Path
	walk(e, func(n Expr) {
		if p, ok := n.(*Path); ok {
			out = append(out, p)
		}
	})
	return out
}

// walk visits every node of the expression tree in source order.
func walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *Unary:
		walk(n.X, fn)
	case *Binary:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *Paren:
		walk(n.X, fn)
	}
}
