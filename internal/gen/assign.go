package gen

import (
	"fmt"
	"strings"

	"facet-generator/internal/expr"
	"facet-generator/internal/resolve"
	"facet-generator/internal/schema"
)

// assignmentData is one rendered assignment block of a generated function.
// Code may span multiple lines; go/format settles the indentation.
type assignmentData struct {
	Comment string
	Code    string
}

func assign(name, value string) string {
	return "out." + name + " = " + value
}

func wrapIf(cond string, body, alt []string) []string {
	out := []string{"if " + cond + " {"}
	out = append(out, body...)

	if len(alt) > 0 {
		out = append(out, "} else {")
		out = append(out, alt...)
	}

	return append(out, "}")
}

// buildAssignments renders the constructor body for one facet, field by field
// in emission order.
func (g *Generator) buildAssignments(s *resolve.ResolvedFacetSchema, src *schema.SourceSchema, imports map[string]importSpec) ([]assignmentData, error) {
	var out []assignmentData

	for i := range s.Fields {
		f := &s.Fields[i]

		if f.Suppressed {
			if g.config.GenerateComments {
				out = append(out, assignmentData{
					Comment: f.OutputName + " stays zero beyond the depth bound",
				})
			}

			continue
		}

		a, err := g.forwardAssignment(f, src, imports)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.OutputName, err)
		}

		out = append(out, a)
	}

	return out, nil
}

func (g *Generator) forwardAssignment(f *resolve.ResolvedField, src *schema.SourceSchema, imports map[string]importSpec) (assignmentData, error) {
	var (
		lines  []string
		guards []string
		err    error
	)

	switch {
	case f.Provenance == resolve.ProvenanceComputed:
		lines, guards, err = g.computedLines(f, src, imports)

	case f.IsNested():
		lines = g.nestedLines(f, imports)

	case f.EnumSource != nil:
		lines = g.enumLines(f, imports)

	default:
		lines = g.copyLines(f, imports)
	}

	if err != nil {
		return assignmentData{}, err
	}

	conds, defText, err := g.conditionParts(f, src)
	if err != nil {
		return assignmentData{}, err
	}

	conds = append(conds, guards...)
	if len(conds) > 0 {
		lines = wrapIf(strings.Join(conds, " && "), lines, g.defaultLines(f, defText))
	}

	var comment string
	if g.config.GenerateComments && f.Provenance == resolve.ProvenanceComputed {
		comment = f.OutputName + " from: " + f.ExprText
	}

	return assignmentData{Comment: comment, Code: strings.Join(lines, "\n")}, nil
}

// conditionParts renders the field's condition predicates and picks the
// fallback literal: the first declared condition default, then the propagated
// source default.
func (g *Generator) conditionParts(f *resolve.ResolvedField, src *schema.SourceSchema) ([]string, string, error) {
	var (
		conds  []string
		def    string
		hasDef bool
	)

	for _, c := range f.Conditions {
		code, err := expr.RenderBool(c.When, "src", src, g.graph)
		if err != nil {
			return nil, "", fmt.Errorf("condition %q: %w", c.WhenText, err)
		}

		conds = append(conds, code)

		if !hasDef && c.HasDefault {
			def = c.Default
			hasDef = true
		}
	}

	if !hasDef && len(conds) > 0 {
		def = f.DefaultLiteral
	}

	return conds, def, nil
}

// defaultLines renders the else branch of a gated assignment. An empty
// default means the field keeps its zero value and no branch is emitted.
func (g *Generator) defaultLines(f *resolve.ResolvedField, defText string) []string {
	if defText == "" {
		return nil
	}

	v := defText
	if f.OutputType.IsNullable() && defText != "nil" {
		v = "facet.Ptr(" + v + ")"
	}

	return []string{assign(f.OutputName, v)}
}

// copyLines renders a direct or renamed copy, inserting the pointer lift,
// nil guard, or base conversion the type pair calls for.
func (g *Generator) copyLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	st := f.Source.Type
	ot := f.OutputType
	sx := "src." + f.SourceName

	needCast := baseCastNeeded(st, ot)

	switch {
	case !st.IsNullable() && !ot.IsNullable():
		v := sx
		if needCast {
			v = g.castPrim(imports, ot, v)
		}

		return []string{assign(f.OutputName, v)}

	case !st.IsNullable() && ot.IsNullable():
		v := sx
		if needCast {
			v = g.castPrim(imports, ot, v)
		}

		return []string{assign(f.OutputName, "facet.Ptr("+v+")")}

	case st.IsNullable() && ot.IsNullable():
		if !needCast {
			return []string{assign(f.OutputName, sx)}
		}

		return wrapIf(sx+" != nil",
			[]string{assign(f.OutputName, "facet.Ptr("+g.castPrim(imports, ot, "*"+sx)+")")}, nil)

	default:
		// nullable source flattened by an explicit type override
		v := "*" + sx
		if needCast {
			v = g.castPrim(imports, ot, v)
		}

		return wrapIf(sx+" != nil", []string{assign(f.OutputName, v)}, nil)
	}
}

// enumLines renders a copy whose output type was converted away from the
// source enum. Conversions apply under the outer nullable layer; collections
// never reach here.
func (g *Generator) enumLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	e := f.EnumSource
	sx := "src." + f.SourceName

	conv := func(v string) string {
		if f.OutputType.Base().Primitive != schema.PrimitiveString {
			return g.castPrim(imports, f.OutputType, v)
		}

		switch {
		case e.IsStringBacked():
			return "string(" + v + ")"

		case e.HasStringMethod:
			if strings.HasPrefix(v, "*") {
				v = "(" + v + ")"
			}

			return v + ".String()"

		default:
			g.addImport(imports, "strconv")

			return "strconv.Itoa(int(" + v + "))"
		}
	}

	switch {
	case !f.Source.Type.IsNullable() && !f.OutputType.IsNullable():
		return []string{assign(f.OutputName, conv(sx))}

	case !f.Source.Type.IsNullable():
		return []string{assign(f.OutputName, "facet.Ptr("+conv(sx)+")")}

	default:
		return wrapIf(sx+" != nil",
			[]string{assign(f.OutputName, "facet.Ptr("+conv("*"+sx)+")")}, nil)
	}
}

// computedLines renders an expression field. Guards returned to the caller
// must hold for the value to be evaluable; they join the field's conditions.
func (g *Generator) computedLines(f *resolve.ResolvedField, src *schema.SourceSchema, imports map[string]importSpec) ([]string, []string, error) {
	code, guards, err := expr.RenderValue(f.Expr, "src", src, g.graph)
	if err != nil {
		return nil, nil, err
	}

	inferred, _ := expr.InferType(f.Expr, src, g.graph)

	v := code
	if baseCastNeeded(inferred, f.OutputType) {
		v = g.castPrim(imports, f.OutputType, v)
	}

	switch {
	case f.OutputType.IsNullable() && !inferred.IsNullable():
		v = "facet.Ptr(" + v + ")"

	case !f.OutputType.IsNullable() && inferred.IsNullable():
		// only a bare nullable path infers nullable, so deref is safe here
		guards = append(guards, code+" != nil")
		v = "*" + code
	}

	return []string{assign(f.OutputName, v)}, guards, nil
}

// nestedLines renders a field projected through another facet, guarded by the
// runtime trail. Absent links and exhausted depth leave the field zero.
func (g *Generator) nestedLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	ctor := "new" + f.TargetFacet
	sx := "src." + f.SourceName

	if !f.IsCollection {
		switch {
		case f.Source.Type.IsNullable():
			return wrapIf(sx+" != nil && tr.CanDescend() && facet.Enter(tr, "+sx+")",
				[]string{assign(f.OutputName, "facet.Ptr("+ctor+"(*"+sx+", tr.Descend()))")}, nil)

		case f.OutputType.IsNullable():
			// widened value source
			return wrapIf("tr.CanDescend()",
				[]string{assign(f.OutputName, "facet.Ptr("+ctor+"("+sx+", tr.Descend()))")}, nil)

		default:
			return wrapIf("tr.CanDescend()",
				[]string{assign(f.OutputName, ctor+"("+sx+", tr.Descend())")}, nil)
		}
	}

	return g.nestedCollectionLines(f, imports)
}

func (g *Generator) nestedCollectionLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	ctor := "new" + f.TargetFacet
	sx := "src." + f.SourceName

	iter := sx

	var checks []string

	switch {
	case f.Source.Type.IsNullable():
		checks = append(checks, sx+" != nil")
		iter = "(*" + sx + ")"

	case f.Shape != schema.ShapeArray:
		// a nil slice or map projects to nil, not to an empty collection
		checks = append(checks, sx+" != nil")
	}

	checks = append(checks, "tr.CanDescend()")

	srcBase := f.Source.Type.Base()
	outBase := f.OutputType.Base()
	elemNullable := srcBase.Elem != nil && srcBase.Elem.IsNullable()

	// an outer nullable collection is built in a local and lifted at the end
	tgt := "out." + f.OutputName
	var pre, post []string

	if f.OutputType.IsNullable() {
		pre = append(pre, "var col "+g.typeString(outBase, imports))
		post = append(post, assign(f.OutputName, "&col"))
		tgt = "col"
	}

	var body []string

	switch f.Shape {
	case schema.ShapeMap:
		keyType := g.typeString(*outBase.Key, imports)
		elemType := g.typeString(*outBase.Elem, imports)
		body = append(body, tgt+" = make(map["+keyType+"]"+elemType+", len("+iter+"))")
		body = append(body, "for k, v := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if v == nil || !facet.Enter(tr, v) {",
				"continue",
				"}",
				tgt+"[k] = facet.Ptr("+ctor+"(*v, tr.Descend()))")
		} else {
			body = append(body, tgt+"[k] = "+ctor+"(v, tr.Descend())")
		}

		body = append(body, "}")

	case schema.ShapeArray:
		body = append(body, "for i := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if "+iter+"[i] == nil || !facet.Enter(tr, "+iter+"[i]) {",
				"continue",
				"}",
				tgt+"[i] = facet.Ptr("+ctor+"(*"+iter+"[i], tr.Descend()))")
		} else {
			body = append(body, tgt+"[i] = "+ctor+"("+iter+"[i], tr.Descend())")
		}

		body = append(body, "}")

	default:
		elemType := g.typeString(*outBase.Elem, imports)
		body = append(body, tgt+" = make([]"+elemType+", 0, len("+iter+"))")
		body = append(body, "for i := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if "+iter+"[i] == nil || !facet.Enter(tr, "+iter+"[i]) {",
				tgt+" = append("+tgt+", nil)",
				"continue",
				"}",
				tgt+" = append("+tgt+", facet.Ptr("+ctor+"(*"+iter+"[i], tr.Descend())))")
		} else {
			body = append(body, tgt+" = append("+tgt+", "+ctor+"("+iter+"[i], tr.Descend()))")
		}

		body = append(body, "}")
	}

	lines := append(pre, body...)
	lines = append(lines, post...)

	return wrapIf(strings.Join(checks, " && "), lines, nil)
}
