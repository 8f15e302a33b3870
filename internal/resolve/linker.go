package resolve

import (
	"fmt"

	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

// LinkKind classifies the outcome of consulting the nested facet linker for
// one field type.
type LinkKind int

const (
	// LinkNotNested means the type does not participate in nested linking
	// and is carried through unchanged.
	LinkNotNested LinkKind = iota
	// LinkMaterialize substitutes the target facet and recurses into its
	// resolution.
	LinkMaterialize
	// LinkSuppress substitutes the target facet type but marks the field as
	// always absent because the next depth would exceed the bound. The
	// target is not recursed into from this field.
	LinkSuppress
)

// String returns a human-readable representation of the LinkKind.
func (k LinkKind) String() string {
	switch k {
	case LinkNotNested:
		return "not_nested"
	case LinkMaterialize:
		return "materialize"
	case LinkSuppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// LinkResult is the linker's decision for one field type.
type LinkResult struct {
	Kind LinkKind

	// Target names the substituted facet; TargetSchema is its resolved form,
	// which may still be mid-resolution when facets nest each other.
	Target       string
	TargetSchema *ResolvedFacetSchema

	// TargetReverse mirrors the target rule set's reverse flag, used to
	// decide the nested field's reversibility without waiting for the
	// target's own pass to finish.
	TargetReverse bool

	// IsCollection and Shape describe the traversal when the nested schema
	// is the element of a collection-valued field.
	IsCollection bool
	Shape        schema.CollectionShape

	// OutputType is the field type after substitution, preserving the
	// source's collection shape and nullability.
	OutputType schema.TypeRef
}

// link consults the rule set's nested facet map for the given field type.
// Direct schema references are checked first, then collection element types.
// srcField attributes diagnostics to the field being resolved.
func (r *Resolver) link(ctx *resolution, rs *rules.RuleSet, t schema.TypeRef, depth int, srcField string) (LinkResult, bool) {
	if id, ok := t.NestedSchema(); ok {
		if facetName, ok := rs.NestedFacet(id); ok {
			return r.linkTo(ctx, rs, t, id, facetName, depth, srcField, false, schema.ShapeSlice)
		}

		return LinkResult{Kind: LinkNotNested}, true
	}

	if id, shape, ok := t.ElemSchema(); ok {
		if facetName, ok := rs.NestedFacet(id); ok {
			return r.linkTo(ctx, rs, t, id, facetName, depth, srcField, true, shape)
		}
	}

	return LinkResult{Kind: LinkNotNested}, true
}

// linkTo applies the depth bound and either materializes the target facet,
// recursing into its resolution, or suppresses the field.
func (r *Resolver) linkTo(ctx *resolution, rs *rules.RuleSet, t schema.TypeRef, id schema.SchemaID, facetName string,
	depth int, srcField string, isCollection bool, shape schema.CollectionShape,
) (LinkResult, bool) {
	target := r.rules[facetName]
	if target == nil {
		ctx.diags.AddError("unknown_nested_facet",
			fmt.Sprintf("nested facet %q is not declared in this rule file", facetName),
			rs.Name, srcField)

		return LinkResult{}, false
	}

	if target.Source.ID != id {
		ctx.diags.AddError("nested_source_mismatch",
			fmt.Sprintf("nested facet %q projects %s, not %s", facetName, target.Source.ID, id),
			rs.Name, srcField)

		return LinkResult{}, false
	}

	res := LinkResult{
		Target:        facetName,
		TargetReverse: target.Reverse,
		IsCollection:  isCollection,
		Shape:         shape,
		OutputType:    mirrorType(t, id, facetRef(facetName)),
	}

	if rs.MaxDepth != 0 && depth+1 > rs.MaxDepth {
		res.Kind = LinkSuppress
		res.OutputType = ensureAbsent(res.OutputType)

		ctx.diags.AddInfo("depth_suppressed",
			fmt.Sprintf("nested facet %q at depth %d exceeds max_depth %d; field stays declared but always empty",
				facetName, depth+1, rs.MaxDepth),
			rs.Name, srcField)

		return res, true
	}

	ts, ok := r.resolveFacet(ctx, facetName, depth+1)
	if !ok {
		ctx.diags.AddError("nested_facet_failed",
			fmt.Sprintf("nested facet %q did not resolve", facetName),
			rs.Name, srcField)

		return LinkResult{}, false
	}

	res.Kind = LinkMaterialize
	res.TargetSchema = ts

	return res, true
}

// facetRef is the type reference for a generated facet. Facets share one
// output package, so the reference carries no import path.
func facetRef(facetName string) schema.TypeRef {
	return schema.SchemaRef(schema.SchemaID{Name: facetName})
}

// mirrorType rebuilds a source type with every reference to the nested
// schema replaced by the facet type, preserving collection shape and
// nullability. Map keys are never substituted.
func mirrorType(t schema.TypeRef, from schema.SchemaID, to schema.TypeRef) schema.TypeRef {
	switch t.Kind {
	case schema.KindSchema:
		if t.Schema == from {
			return to
		}

		return t

	case schema.KindNullable:
		if t.Elem == nil {
			return t
		}

		return schema.NullableOf(mirrorType(*t.Elem, from, to))

	case schema.KindCollection:
		if t.Elem == nil {
			return t
		}

		elem := mirrorType(*t.Elem, from, to)
		switch t.Shape {
		case schema.ShapeArray:
			return schema.ArrayOf(t.ArrayLen, elem)
		case schema.ShapeMap:
			return schema.MapOf(*t.Key, elem)
		default:
			return schema.SliceOf(elem)
		}

	default:
		return t
	}
}

// ensureAbsent wraps a type so it has a usable absent state. Slices and maps
// already carry one; everything else gains a nullable layer.
func ensureAbsent(t schema.TypeRef) schema.TypeRef {
	if t.IsNullable() {
		return t
	}

	if t.Kind == schema.KindCollection && (t.Shape == schema.ShapeSlice || t.Shape == schema.ShapeMap) {
		return t
	}

	return schema.NullableOf(t)
}
