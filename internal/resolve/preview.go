package resolve

import (
	"fmt"
	"strconv"

	"facet-generator/internal/expr"
	"facet-generator/internal/schema"
)

// Preview projects a JSON-shaped source document through a resolved facet
// schema and returns the facet view as a plain map. It walks the resolved
// fields the same way generated code does: conditions gate assignments,
// nested fields recurse through their target facets under the root depth
// bound, nil collections stay nil, and suppressed fields stay absent.
//
// Preview exists for the CLI preview command. It works on decoded JSON
// (map[string]any, []any, float64, string, bool, nil) and never reflects
// over real source values; generated code remains the product.
func Preview(res *Result, facetName string, doc map[string]any) (map[string]any, error) {
	s := res.Facet(facetName)
	if s == nil {
		return nil, fmt.Errorf("facet %q is not resolved", facetName)
	}

	p := &previewer{res: res, maxDepth: s.MaxDepth}

	return p.project(s, doc, 0)
}

type previewer struct {
	res      *Result
	maxDepth int
}

// canDescend applies the root facet's depth bound, matching the trail the
// generated constructor threads through nested calls.
func (p *previewer) canDescend(depth int) bool {
	return p.maxDepth == 0 || depth < p.maxDepth
}

func (p *previewer) project(s *ResolvedFacetSchema, doc map[string]any, depth int) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Suppressed {
			out[f.OutputName] = nil
			continue
		}

		v, err := p.fieldValue(f, doc, depth)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, f.OutputName, err)
		}
		out[f.OutputName] = v
	}

	return out, nil
}

func (p *previewer) fieldValue(f *ResolvedField, doc map[string]any, depth int) (any, error) {
	for _, c := range f.Conditions {
		ok, err := expr.EvalBool(c.When, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return conditionDefault(f), nil
		}
	}

	switch f.Provenance {
	case ProvenanceComputed:
		return expr.Eval(f.Expr, doc)

	case ProvenanceNestedFacet:
		return p.nested(f, doc[f.SourceName], depth)

	default:
		v := doc[f.SourceName]
		if f.EnumSource != nil {
			return enumValue(f, v), nil
		}
		return v, nil
	}
}

func (p *previewer) nested(f *ResolvedField, v any, depth int) (any, error) {
	target := p.res.Facet(f.TargetFacet)
	if target == nil {
		return nil, fmt.Errorf("nested facet %q is not resolved", f.TargetFacet)
	}

	if v == nil || !p.canDescend(depth) {
		return nil, nil
	}

	if !f.IsCollection {
		sub, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for %s, got %s", f.SourceName, jsonKind(v))
		}
		return p.project(target, sub, depth+1)
	}

	switch f.Shape {
	case schema.ShapeMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for %s, got %s", f.SourceName, jsonKind(v))
		}

		out := make(map[string]any, len(m))
		for k, item := range m {
			if item == nil {
				continue
			}
			sub, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected object element in %s, got %s", f.SourceName, jsonKind(item))
			}
			pv, err := p.project(target, sub, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = pv
		}
		return out, nil

	default:
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array for %s, got %s", f.SourceName, jsonKind(v))
		}

		out := make([]any, 0, len(arr))
		for _, item := range arr {
			if item == nil {
				out = append(out, nil)
				continue
			}
			sub, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected object element in %s, got %s", f.SourceName, jsonKind(item))
			}
			pv, err := p.project(target, sub, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, pv)
		}
		return out, nil
	}
}

// conditionDefault picks the value a gated field takes when its predicate
// fails: the first declared condition default, then the propagated source
// initializer, then the output type's zero.
func conditionDefault(f *ResolvedField) any {
	for _, c := range f.Conditions {
		if c.HasDefault {
			return literalJSON(c.Default)
		}
	}

	if f.DefaultLiteral != "" {
		return literalJSON(f.DefaultLiteral)
	}

	return zeroJSON(f.OutputType)
}

// enumValue mirrors the generated enum conversion at the value level. A
// string projection of an int-backed enum shows the member name when the
// enum has a String method, approximating the generated String() call, or
// the decimal digits otherwise.
func enumValue(f *ResolvedField, v any) any {
	if v == nil {
		return nil
	}

	out := f.OutputType.Base()
	if out.Kind != schema.KindPrimitive || out.Primitive != schema.PrimitiveString {
		return v
	}

	e := f.EnumSource
	if e.IsStringBacked() {
		return v
	}

	n, ok := jsonNumber(v)
	if !ok {
		return v
	}

	digits := strconv.Itoa(int(n))
	if e.HasStringMethod {
		for _, m := range e.Members {
			if m.Value == digits {
				return m.Name
			}
		}
	}

	return digits
}

// literalJSON converts a Go literal from a rule default into its JSON value.
// Unrecognized expressions pass through verbatim.
func literalJSON(lit string) any {
	switch lit {
	case "", "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if s, err := strconv.Unquote(lit); err == nil {
		return s
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f
	}

	return lit
}

func zeroJSON(t schema.TypeRef) any {
	if t.IsNullable() {
		return nil
	}

	if t.Kind == schema.KindPrimitive {
		switch {
		case t.Primitive == schema.PrimitiveString:
			return ""
		case t.Primitive == schema.PrimitiveBool:
			return false
		case t.Primitive.IsNumber() || t.Primitive == schema.PrimitiveDuration:
			return float64(0)
		}
	}

	return nil
}

func jsonNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
