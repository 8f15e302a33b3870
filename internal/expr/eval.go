package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Eval evaluates an expression against a JSON-shaped document: nested
// objects are map[string]any, numbers are float64, absent or null fields
// are nil. A path that crosses a missing or null value propagates nil
// instead of failing, matching the nil-pointer guards emitted into
// generated code. Eval assumes the expression already passed Check;
// documents that disagree with the schema still surface errors.
func Eval(e Expr, doc map[string]any) (any, error) {
	ev := &evaluator{doc: doc}
	v := ev.eval(e)
	if ev.err != nil {
		return nil, ev.err
	}
	return v, nil
}

// EvalBool evaluates a condition predicate. A nil result coerces to false,
// the same way a guarded nullable bool reads in generated code.
func EvalBool(e Expr, doc map[string]any) (bool, error) {
	v, err := Eval(e, doc)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %s, not boolean", e.String(), typeName(v))
	}
	return b, nil
}

type evaluator struct {
	doc map[string]any
	err error
}

func (ev *evaluator) fail(format string, args ...any) {
	if ev.err == nil {
		ev.err = fmt.Errorf(format, args...)
	}
}

func (ev *evaluator) eval(e Expr) any {
	switch n := e.(type) {
	case *Literal:
		return ev.literal(n)
	case *Path:
		return ev.walk(n)
	case *Paren:
		return ev.eval(n.X)
	case *Unary:
		return ev.unary(n)
	case *Binary:
		return ev.binary(n)
	default:
		ev.fail("cannot evaluate expression %q", e.String())
		return nil
	}
}

func (ev *evaluator) literal(n *Literal) any {
	switch n.Type {
	case LitString:
		return n.Raw
	case LitBool:
		return n.Raw == "true"
	case LitNull:
		return nil
	default:
		f, err := strconv.ParseFloat(n.Raw, 64)
		if err != nil {
			ev.fail("bad numeric literal %s", n.Raw)
			return nil
		}
		return f
	}
}

func (ev *evaluator) walk(p *Path) any {
	var cur any = ev.doc
	for _, seg := range p.Segments {
		if cur == nil {
			return nil
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			ev.fail("cannot access %q on %s value", seg, typeName(cur))
			return nil
		}
		cur = obj[seg]
	}
	return cur
}

func (ev *evaluator) unary(n *Unary) any {
	if n.Op == OpNot {
		return !ev.boolish(n.X)
	}
	v := ev.eval(n.X)
	if v == nil {
		return nil
	}
	f, ok := asNumber(v)
	if !ok {
		ev.fail("cannot negate %s value in %q", typeName(v), n.String())
		return nil
	}
	return -f
}

func (ev *evaluator) binary(n *Binary) any {
	switch {
	case n.Op.IsLogical():
		if n.Op == OpAnd {
			return ev.boolish(n.Left) && ev.boolish(n.Right)
		}
		return ev.boolish(n.Left) || ev.boolish(n.Right)
	case n.Op.IsComparison():
		return ev.compare(n)
	default:
		return ev.arith(n)
	}
}

// boolish evaluates a boolean operand, coercing nil to false.
func (ev *evaluator) boolish(e Expr) bool {
	v := ev.eval(e)
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		ev.fail("expression %q is not boolean", e.String())
		return false
	}
	return b
}

func (ev *evaluator) compare(n *Binary) any {
	left := ev.eval(n.Left)
	right := ev.eval(n.Right)
	if ev.err != nil {
		return nil
	}

	switch n.Op {
	case OpEQ:
		return ev.equal(left, right, n)
	case OpNEQ:
		return !ev.equal(left, right, n)
	}

	if isNullLit(n.Left) || isNullLit(n.Right) {
		ev.fail("operator %s cannot compare against null", n.Op)
		return false
	}

	// Ordering against a missing value is false.
	if left == nil || right == nil {
		return false
	}

	if lf, ok := asNumber(left); ok {
		rf, ok := asNumber(right)
		if !ok {
			ev.fail("cannot compare %s with %s in %q", typeName(left), typeName(right), n.String())
			return false
		}
		switch n.Op {
		case OpLT:
			return lf < rf
		case OpLTE:
			return lf <= rf
		case OpGT:
			return lf > rf
		default:
			return lf >= rf
		}
	}

	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			ev.fail("cannot compare %s with %s in %q", typeName(left), typeName(right), n.String())
			return false
		}
		switch n.Op {
		case OpLT:
			return ls < rs
		case OpLTE:
			return ls <= rs
		case OpGT:
			return ls > rs
		default:
			return ls >= rs
		}
	}

	ev.fail("cannot order %s values in %q", typeName(left), n.String())
	return false
}

// equal compares two document values. Null equals only null; values of
// different kinds never compare equal and report an error instead.
func (ev *evaluator) equal(left, right any, n *Binary) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lf, ok := asNumber(left); ok {
		if rf, ok := asNumber(right); ok {
			return lf == rf
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return ls == rs
		}
	}
	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			return lb == rb
		}
	}
	ev.fail("cannot compare %s with %s in %q", typeName(left), typeName(right), n.String())
	return false
}

func (ev *evaluator) arith(n *Binary) any {
	left := ev.eval(n.Left)
	right := ev.eval(n.Right)
	if ev.err != nil {
		return nil
	}
	if left == nil || right == nil {
		return nil
	}

	if n.Op == OpAdd {
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				ev.fail("cannot add %s and %s in %q", typeName(left), typeName(right), n.String())
				return nil
			}
			return ls + rs
		}
	}

	lf, lok := asNumber(left)
	rf, rok := asNumber(right)
	if !lok || !rok {
		ev.fail("invalid operands for %s: %s and %s", n.Op, typeName(left), typeName(right))
		return nil
	}

	switch n.Op {
	case OpAdd:
		return lf + rf
	case OpSub:
		return lf - rf
	case OpMul:
		return lf * rf
	case OpDiv:
		if rf == 0 {
			ev.fail("division by zero in %q", n.String())
			return nil
		}
		return lf / rf
	default:
		if rf == 0 {
			ev.fail("division by zero in %q", n.String())
			return nil
		}
		return math.Mod(lf, rf)
	}
}

func isNullLit(e Expr) bool {
	l, ok := unquote(e).(*Literal)
	return ok && l.IsNull()
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
