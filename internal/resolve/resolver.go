package resolve

import (
	"fmt"
	"sync"

	"facet-generator/internal/diagnostic"
	"facet-generator/internal/expr"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

// Resolver turns compiled rule sets into resolved facet schemas. Each facet
// is computed at most once and cached by name, so parents nesting the same
// facet share one schema. A Resolver is safe for concurrent use; resolved
// schemas must be treated as read-only.
type Resolver struct {
	graph *schema.Graph
	rules map[string]*rules.RuleSet
	order []string

	mu      sync.Mutex
	cache   map[string]*facetEntry
	checked map[string]bool
}

// facetEntry is a published resolution outcome. A nil schema records a facet
// that failed, so dependents see the failure without recomputing it.
type facetEntry struct {
	schema *ResolvedFacetSchema
}

// resolution is the per-call state of one top-level resolution chain.
// visiting holds in-progress schemas so facets that nest each other share
// the partially filled schema instead of recursing forever.
type resolution struct {
	visiting map[string]*ResolvedFacetSchema
	diags    *diagnostic.Diagnostics
}

// New creates a Resolver over the given schema graph and rule sets. Rule set
// order fixes the resolution and output order.
func New(g *schema.Graph, sets []*rules.RuleSet) *Resolver {
	r := &Resolver{
		graph:   g,
		rules:   make(map[string]*rules.RuleSet, len(sets)),
		cache:   make(map[string]*facetEntry, len(sets)),
		checked: make(map[string]bool, len(sets)),
	}

	for _, rs := range sets {
		if rs == nil {
			continue
		}
		if _, dup := r.rules[rs.Name]; dup {
			continue
		}

		r.rules[rs.Name] = rs
		r.order = append(r.order, rs.Name)
	}

	return r
}

// ResolveAll resolves every declared facet in declaration order and runs the
// checker over the results. Facets with structural errors are reported and
// dropped; the remaining facets are unaffected.
func (r *Resolver) ResolveAll() (*Result, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	ctx := &resolution{
		visiting: make(map[string]*ResolvedFacetSchema),
		diags:    &diags,
	}

	for _, name := range r.order {
		r.resolveFacet(ctx, name, 0)
	}

	r.sweepFailedLinks(&diags)

	res := &Result{}
	for _, name := range r.order {
		s := r.cached(name)
		if s == nil {
			continue
		}

		r.check(s, r.rules[name], &diags)
		res.add(s)
	}

	return res, diags
}

// Resolve resolves a single facet by name, including any facets it nests.
func (r *Resolver) Resolve(name string) (*ResolvedFacetSchema, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	ctx := &resolution{
		visiting: make(map[string]*ResolvedFacetSchema),
		diags:    &diags,
	}

	if _, ok := r.resolveFacet(ctx, name, 0); !ok {
		return nil, diags
	}

	r.sweepFailedLinks(&diags)

	s := r.cached(name)
	if s == nil {
		return nil, diags
	}

	r.check(s, r.rules[name], &diags)

	return s, diags
}

// Names returns the declared facet names in declaration order.
func (r *Resolver) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// RuleSet returns the rule set for a declared facet, or nil.
func (r *Resolver) RuleSet(name string) *rules.RuleSet {
	return r.rules[name]
}

// resolveFacet returns the resolved schema for a facet, computing and
// caching it on first reach. depth is the nesting depth of the resolution
// pass, zero for top-level declarations.
func (r *Resolver) resolveFacet(ctx *resolution, name string, depth int) (*ResolvedFacetSchema, bool) {
	if s, ok := ctx.visiting[name]; ok {
		return s, true
	}

	r.mu.Lock()
	if e, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return e.schema, e.schema != nil
	}
	r.mu.Unlock()

	rs := r.rules[name]
	if rs == nil {
		ctx.diags.AddError("unknown_facet",
			fmt.Sprintf("facet %q is not declared", name), name, "")

		return nil, false
	}

	out := &ResolvedFacetSchema{
		Name:              name,
		Source:            rs.Source.ID,
		SourcePkgName:     rs.Source.PkgName,
		ReverseRequested:  rs.Reverse,
		Widen:             rs.Widen,
		MaxDepth:          rs.MaxDepth,
		TrackIdentity:     rs.TrackIdentity,
		DepthAtResolution: depth,
	}

	// Publish the in-progress schema before filling it so mutually nested
	// facets share it instead of recursing forever.
	ctx.visiting[name] = out
	ok := r.resolvePass(ctx, rs, out, depth)
	delete(ctx.visiting, name)

	r.mu.Lock()
	if e, exists := r.cache[name]; exists {
		// another chain finished first; resolution is deterministic, so the
		// published schema is identical and keeps pointer identity
		out = e.schema
		ok = out != nil
	} else {
		e := &facetEntry{}
		if ok {
			e.schema = out
		}
		r.cache[name] = e
	}
	r.mu.Unlock()

	if !ok {
		return nil, false
	}

	return out, true
}

// resolvePass fills one facet schema from its rule set. Auto-admitted fields
// keep source declaration order, renames of admitted fields take the renamed
// field's slot, and remaining user declarations append in rule-file order.
func (r *Resolver) resolvePass(ctx *resolution, rs *rules.RuleSet, out *ResolvedFacetSchema, depth int) bool {
	ok := true
	consumed := make(map[string]bool, len(rs.Overrides))

	for i := range rs.Source.Fields {
		f := &rs.Source.Fields[i]

		if ov := rs.OverrideBySource(f.Name); ov != nil {
			if !rs.Admits(f) {
				// resurrected below with the other user declarations
				continue
			}

			fld, fok := r.resolveOverride(ctx, rs, ov, depth)
			consumed[ov.Field] = true
			if !fok {
				ok = false
				continue
			}
			if !r.addField(ctx, rs, out, fld) {
				ok = false
			}

			continue
		}

		if !rs.Admits(f) {
			if f.IsRequired {
				out.Excluded = append(out.Excluded, ResolvedField{
					OutputName:        f.Name,
					OutputType:        f.Type,
					Provenance:        ProvenanceExcludedRequired,
					Source:            f,
					SourceName:        f.Name,
					DepthAtResolution: depth,
				})
			}

			continue
		}

		fld, fok := r.resolveSource(ctx, rs, f, depth)
		if !fok {
			ok = false
			continue
		}
		if !r.addField(ctx, rs, out, fld) {
			ok = false
		}
	}

	for i := range rs.Overrides {
		ov := &rs.Overrides[i]
		if consumed[ov.Field] {
			continue
		}

		fld, fok := r.resolveOverride(ctx, rs, ov, depth)
		if !fok {
			ok = false
			continue
		}
		if !r.addField(ctx, rs, out, fld) {
			ok = false
		}
	}

	for i := range rs.Conditions {
		c := &rs.Conditions[i]
		if out.Field(c.Field) == nil {
			ctx.diags.AddWarning("condition_without_field",
				fmt.Sprintf("condition on %q matches no output field", c.Field),
				rs.Name, c.Field)
		}
	}

	out.ReverseConstructible = reverseConstructible(rs, out)

	return ok
}

// resolveSource resolves one auto-admitted source field: nested linking,
// then enum conversion, then widening, conditions, and default propagation.
func (r *Resolver) resolveSource(ctx *resolution, rs *rules.RuleSet, f *schema.SourceField, depth int) (ResolvedField, bool) {
	fld := ResolvedField{
		OutputName:        f.Name,
		OutputType:        f.Type,
		Provenance:        ProvenanceDirectCopy,
		Source:            f,
		SourceName:        f.Name,
		Reversible:        sourceWritable(f),
		DepthAtResolution: depth,
		InProjection:      true,
		Tags:              f.FilterTags(rs.TagCopy),
	}

	link, ok := r.link(ctx, rs, f.Type, depth, f.Name)
	if !ok {
		return fld, false
	}

	switch link.Kind {
	case LinkMaterialize, LinkSuppress:
		fld.Provenance = ProvenanceNestedFacet
		fld.TargetFacet = link.Target
		fld.IsCollection = link.IsCollection
		fld.Shape = link.Shape
		fld.OutputType = link.OutputType
		fld.Suppressed = link.Kind == LinkSuppress
		fld.Reversible = sourceWritable(f) && link.TargetReverse && !fld.Suppressed

	default:
		if !r.applyEnum(ctx, rs, f, &fld) {
			return fld, false
		}
	}

	if rs.Widen {
		fld.OutputType = ensureAbsent(fld.OutputType)
	}

	r.attachConditions(rs, &fld)

	if f.HasInitializer && fld.Provenance != ProvenanceNestedFacet && fld.EnumSource == nil && !rs.Widen {
		fld.DefaultLiteral = f.InitializerText
	}

	return fld, true
}

// resolveOverride resolves one user-declared field. A bare source path is a
// rename that keeps the source field's type and nested linking; anything
// richer is a computed field. An explicit type on the override wins over
// both and is carried verbatim.
func (r *Resolver) resolveOverride(ctx *resolution, rs *rules.RuleSet, ov *rules.Override, depth int) (ResolvedField, bool) {
	fld := ResolvedField{
		OutputName:        ov.Field,
		Provenance:        ProvenanceComputed,
		IsUserDeclared:    true,
		DepthAtResolution: depth,
		InProjection:      ov.InProjection,
		Expr:              ov.Expr,
		ExprText:          ov.SourceText,
	}

	srcName, bare := ov.SourceField()
	if !bare {
		if ov.HasType {
			fld.OutputType = ov.Type
		} else {
			ref, _ := expr.InferType(ov.Expr, rs.Source, r.graph)
			if !ref.IsValid() {
				ctx.diags.AddError("untyped_override",
					fmt.Sprintf("cannot infer an output type for computed field %q; declare one on the override", ov.Field),
					rs.Name, ov.Field)

				return fld, false
			}
			fld.OutputType = ref
		}

		if rs.Widen {
			fld.OutputType = ensureAbsent(fld.OutputType)
		}

		r.attachConditions(rs, &fld)

		return fld, true
	}

	f := rs.Source.Field(srcName)
	if f == nil {
		ctx.diags.AddError("unknown_field",
			fmt.Sprintf("override %q renames unknown source field %q", ov.Field, srcName),
			rs.Name, ov.Field)

		return fld, false
	}

	fld.Provenance = ProvenanceRenamed
	fld.Source = f
	fld.SourceName = srcName
	fld.Reversible = ov.Reversible && sourceWritable(f)
	fld.Tags = f.FilterTags(rs.TagCopy)
	fld.Expr = nil
	fld.ExprText = ""

	if ov.HasType {
		fld.OutputType = ov.Type
	} else {
		fld.OutputType = f.Type

		link, ok := r.link(ctx, rs, f.Type, depth, srcName)
		if !ok {
			return fld, false
		}

		if link.Kind != LinkNotNested {
			fld.Provenance = ProvenanceNestedFacet
			fld.TargetFacet = link.Target
			fld.IsCollection = link.IsCollection
			fld.Shape = link.Shape
			fld.OutputType = link.OutputType
			fld.Suppressed = link.Kind == LinkSuppress
			fld.Reversible = ov.Reversible && sourceWritable(f) && link.TargetReverse && !fld.Suppressed
		}
	}

	if rs.Widen {
		fld.OutputType = ensureAbsent(fld.OutputType)
	}

	r.attachConditions(rs, &fld)

	if f.HasInitializer && !ov.HasType && fld.Provenance == ProvenanceRenamed && !rs.Widen {
		fld.DefaultLiteral = f.InitializerText
	}

	return fld, true
}

// applyEnum converts an enum-typed field per the rule set's enum target,
// preserving the outer nullability wrapper. Collections of enums are left
// alone. String-backed enums cannot convert to int.
func (r *Resolver) applyEnum(ctx *resolution, rs *rules.RuleSet, f *schema.SourceField, fld *ResolvedField) bool {
	if rs.EnumAs == rules.EnumAsNone {
		return true
	}

	base := f.Type.Base()
	if base.Kind != schema.KindEnum || base.Enum == nil {
		return true
	}
	e := base.Enum

	var prim schema.PrimitiveKind
	switch rs.EnumAs {
	case rules.EnumAsString:
		prim = schema.PrimitiveString
		// an int-backed enum with a custom String form needs a caller
		// supplied parser on the way back
		fld.ReverseNeedsParse = e.IsIntBacked() && e.HasStringMethod

	case rules.EnumAsInt:
		if e.IsStringBacked() {
			ctx.diags.AddError("invalid_enum_target",
				fmt.Sprintf("enum %s is string backed and cannot convert to int", e.ID),
				rs.Name, f.Name)

			return false
		}
		prim = e.Underlying
	}

	out := schema.PrimitiveRef(prim)
	if f.Type.IsNullable() {
		out = schema.NullableOf(out)
	}

	fld.OutputType = out
	fld.EnumSource = e

	return true
}

// attachConditions binds the conditions keyed to the field's output name. A
// condition excluded from projection pulls the whole field out of it.
func (r *Resolver) attachConditions(rs *rules.RuleSet, fld *ResolvedField) {
	fld.Conditions = rs.ConditionsFor(fld.OutputName)
	for i := range fld.Conditions {
		if !fld.Conditions[i].InProjection {
			fld.InProjection = false
		}
	}
}

// addField appends a resolved field, enforcing output name uniqueness. Two
// distinct source fields fighting over one name is a hard error; otherwise
// a user-declared field silently beats an auto-admitted one.
func (r *Resolver) addField(ctx *resolution, rs *rules.RuleSet, out *ResolvedFacetSchema, fld ResolvedField) bool {
	idx := -1
	for i := range out.Fields {
		if out.Fields[i].OutputName == fld.OutputName {
			idx = i
			break
		}
	}

	if idx < 0 {
		out.Fields = append(out.Fields, fld)
		return true
	}

	existing := &out.Fields[idx]

	if independentSources(existing, &fld) {
		ctx.diags.AddError("duplicate_field",
			fmt.Sprintf("output field %q resolves from both source fields %q and %q",
				fld.OutputName, existing.SourceName, fld.SourceName),
			rs.Name, fld.OutputName)

		return false
	}

	switch {
	case existing.IsUserDeclared && !fld.IsUserDeclared:
		// the auto-admitted field loses silently
		return true

	case !existing.IsUserDeclared && fld.IsUserDeclared:
		out.Fields[idx] = fld
		return true

	default:
		ctx.diags.AddError("duplicate_field",
			fmt.Sprintf("output field %q is declared more than once", fld.OutputName),
			rs.Name, fld.OutputName)

		return false
	}
}

// independentSources reports whether two resolved fields draw from distinct
// source fields, which makes their name collision unrecoverable.
func independentSources(a, b *ResolvedField) bool {
	return a.Source != nil && b.Source != nil && a.SourceName != b.SourceName
}

// sourceWritable reports whether a reverse mapper could assign back into f.
// Read-only and init-only fields can be projected but never written.
func sourceWritable(f *schema.SourceField) bool {
	return !f.IsReadOnly && !f.IsInitOnly
}

// reverseConstructible decides whether reverse mapping can be generated:
// it must be requested, the source must be constructible, no required field
// may have been excluded, and at least one field must be reversible.
func reverseConstructible(rs *rules.RuleSet, out *ResolvedFacetSchema) bool {
	if !rs.Reverse || !rs.Source.Constructible || len(out.Excluded) > 0 {
		return false
	}

	for i := range out.Fields {
		if out.Fields[i].Reversible {
			return true
		}
	}

	return false
}

// cached returns the published schema for a facet, or nil.
func (r *Resolver) cached(name string) *ResolvedFacetSchema {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache[name]; ok {
		return e.schema
	}

	return nil
}

// sweepFailedLinks demotes facets whose nested targets failed. A facet can
// finish before a cycle partner fails, so the sweep iterates to a fixpoint.
func (r *Resolver) sweepFailedLinks(diags *diagnostic.Diagnostics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for changed := true; changed; {
		changed = false

		for _, name := range r.order {
			e := r.cache[name]
			if e == nil || e.schema == nil {
				continue
			}

			for i := range e.schema.Fields {
				f := &e.schema.Fields[i]
				if f.Provenance != ProvenanceNestedFacet {
					continue
				}

				if te := r.cache[f.TargetFacet]; te != nil && te.schema == nil {
					diags.AddError("nested_facet_failed",
						fmt.Sprintf("nested facet %q did not resolve", f.TargetFacet),
						name, f.OutputName)

					e.schema = nil
					changed = true

					break
				}
			}
		}
	}
}
