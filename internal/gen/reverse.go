package gen

import (
	"strings"

	"facet-generator/internal/resolve"
	"facet-generator/internal/schema"
)

func rassign(name, value string) string {
	return "out." + name + " = " + value
}

// buildReverse renders the ToSource body over the reversible fields. Nested
// fields whose target facet cannot reverse map are left out; resolution
// already raised the advisory.
func (g *Generator) buildReverse(s *resolve.ResolvedFacetSchema, imports map[string]importSpec) []assignmentData {
	temps := newStem("v", nil)

	var out []assignmentData

	for _, f := range s.ReversibleFields() {
		if f.IsNested() {
			t := g.result.Facet(f.TargetFacet)
			if t == nil || !t.ReverseConstructible {
				continue
			}
		}

		var lines []string

		switch {
		case f.IsNested():
			lines = g.reverseNestedLines(f, imports)

		case f.EnumSource != nil:
			lines = g.reverseEnumLines(f, imports, temps)

		default:
			lines = g.reverseCopyLines(f, imports)
		}

		out = append(out, assignmentData{Code: strings.Join(lines, "\n")})
	}

	return out
}

func (g *Generator) reverseCopyLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	st := f.Source.Type
	ot := f.OutputType
	fx := "f." + f.OutputName

	needCast := baseCastNeeded(ot, st)

	switch {
	case !ot.IsNullable() && !st.IsNullable():
		v := fx
		if needCast {
			v = g.castPrim(imports, st, v)
		}

		return []string{rassign(f.SourceName, v)}

	case ot.IsNullable() && !st.IsNullable():
		// widened field; absent collapses to the zero value on the way back
		v := "facet.Deref(" + fx + ")"
		if needCast {
			v = g.castPrim(imports, st, v)
		}

		return []string{rassign(f.SourceName, v)}

	case ot.IsNullable() && st.IsNullable():
		if !needCast {
			return []string{rassign(f.SourceName, fx)}
		}

		return wrapIf(fx+" != nil",
			[]string{rassign(f.SourceName, "facet.Ptr("+g.castPrim(imports, st, "*"+fx)+")")}, nil)

	default:
		v := fx
		if needCast {
			v = g.castPrim(imports, st, v)
		}

		return []string{rassign(f.SourceName, "facet.Ptr("+v+")")}
	}
}

// reverseEnumLines undoes an enum conversion. String-backed enums and numeric
// targets cast back; an Itoa forward pairs with an Atoi here; enums with a
// bespoke String form call a parser stub the project must supply.
func (g *Generator) reverseEnumLines(f *resolve.ResolvedField, imports map[string]importSpec, temps *stemAlloc) []string {
	e := f.EnumSource
	st := f.Source.Type
	enumType := g.typeString(schema.EnumRef(e), imports)
	fx := "f." + f.OutputName

	var pre []string

	back := func(v string) string {
		if f.OutputType.Base().Primitive != schema.PrimitiveString {
			return enumType + "(" + v + ")"
		}

		switch {
		case e.IsStringBacked():
			return enumType + "(" + v + ")"

		case e.HasStringMethod:
			return g.parserName(e) + "(" + v + ")"

		default:
			g.addImport(imports, "strconv")
			tmp := temps.next()
			pre = append(pre, tmp+", _ := strconv.Atoi("+v+")")

			return enumType + "(" + tmp + ")"
		}
	}

	switch {
	case !f.OutputType.IsNullable() && !st.IsNullable():
		v := back(fx)

		return append(pre, rassign(f.SourceName, v))

	case f.OutputType.IsNullable() && !st.IsNullable():
		v := back("facet.Deref(" + fx + ")")

		return append(pre, rassign(f.SourceName, v))

	case f.OutputType.IsNullable() && st.IsNullable():
		v := back("*" + fx)

		return wrapIf(fx+" != nil",
			append(pre, rassign(f.SourceName, "facet.Ptr("+v+")")), nil)

	default:
		v := back(fx)

		return append(pre, rassign(f.SourceName, "facet.Ptr("+v+")"))
	}
}

func (g *Generator) reverseNestedLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	st := f.Source.Type
	fx := "f." + f.OutputName

	if !f.IsCollection {
		inner := fx + ".ToSource()"

		switch {
		case f.OutputType.IsNullable() && st.IsNullable():
			return wrapIf(fx+" != nil",
				[]string{rassign(f.SourceName, "facet.Ptr("+inner+")")}, nil)

		case f.OutputType.IsNullable():
			return wrapIf(fx+" != nil",
				[]string{rassign(f.SourceName, inner)}, nil)

		case st.IsNullable():
			return []string{rassign(f.SourceName, "facet.Ptr("+inner+")")}

		default:
			return []string{rassign(f.SourceName, inner)}
		}
	}

	return g.reverseNestedCollectionLines(f, imports)
}

func (g *Generator) reverseNestedCollectionLines(f *resolve.ResolvedField, imports map[string]importSpec) []string {
	st := f.Source.Type
	fx := "f." + f.OutputName

	iter := fx

	var checks []string

	switch {
	case f.OutputType.IsNullable():
		checks = append(checks, fx+" != nil")
		iter = "(*" + fx + ")"

	case f.Shape != schema.ShapeArray:
		checks = append(checks, fx+" != nil")
	}

	srcBase := st.Base()
	elemNullable := srcBase.Elem != nil && srcBase.Elem.IsNullable()

	tgt := "out." + f.SourceName
	var pre, post []string

	if st.IsNullable() {
		pre = append(pre, "var col "+g.typeString(srcBase, imports))
		post = append(post, rassign(f.SourceName, "&col"))
		tgt = "col"
	}

	var body []string

	switch f.Shape {
	case schema.ShapeMap:
		keyType := g.typeString(*srcBase.Key, imports)
		elemType := g.typeString(*srcBase.Elem, imports)
		body = append(body, tgt+" = make(map["+keyType+"]"+elemType+", len("+iter+"))")
		body = append(body, "for k, v := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if v == nil {",
				"continue",
				"}",
				tgt+"[k] = facet.Ptr(v.ToSource())")
		} else {
			body = append(body, tgt+"[k] = v.ToSource()")
		}

		body = append(body, "}")

	case schema.ShapeArray:
		body = append(body, "for i := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if "+iter+"[i] == nil {",
				"continue",
				"}",
				tgt+"[i] = facet.Ptr("+iter+"[i].ToSource())")
		} else {
			body = append(body, tgt+"[i] = "+iter+"[i].ToSource()")
		}

		body = append(body, "}")

	default:
		elemType := g.typeString(*srcBase.Elem, imports)
		body = append(body, tgt+" = make([]"+elemType+", 0, len("+iter+"))")
		body = append(body, "for i := range "+iter+" {")

		if elemNullable {
			body = append(body,
				"if "+iter+"[i] == nil {",
				tgt+" = append("+tgt+", nil)",
				"continue",
				"}",
				tgt+" = append("+tgt+", facet.Ptr("+iter+"[i].ToSource()))")
		} else {
			body = append(body, tgt+" = append("+tgt+", "+iter+"[i].ToSource())")
		}

		body = append(body, "}")
	}

	lines := append(pre, body...)
	lines = append(lines, post...)

	if len(checks) == 0 {
		return lines
	}

	return wrapIf(strings.Join(checks, " && "), lines, nil)
}
