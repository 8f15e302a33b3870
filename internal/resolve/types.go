package resolve

import (
	"facet-generator/internal/common"
	"facet-generator/internal/diagnostic"
	"facet-generator/internal/expr"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

// Provenance records how a resolved field derives its value from the source.
type Provenance int

const (
	// ProvenanceDirectCopy copies a source field under its own name.
	ProvenanceDirectCopy Provenance = iota
	// ProvenanceRenamed copies a source field under a new name.
	ProvenanceRenamed
	// ProvenanceComputed evaluates an expression over the source.
	ProvenanceComputed
	// ProvenanceNestedFacet projects a source field through another facet.
	ProvenanceNestedFacet
	// ProvenanceExcludedRequired marks a required source field dropped by the
	// admission filter. Such entries never appear among the output fields;
	// they exist so the checker can decide whether a reverse mapping is still
	// constructible.
	ProvenanceExcludedRequired
)

// String returns the snake_case name used in exports and diagnostics.
func (p Provenance) String() string {
	switch p {
	case ProvenanceDirectCopy:
		return "direct_copy"
	case ProvenanceRenamed:
		return "renamed"
	case ProvenanceComputed:
		return "computed"
	case ProvenanceNestedFacet:
		return "nested_facet"
	case ProvenanceExcludedRequired:
		return "excluded_required"
	default:
		return common.UnknownStr
	}
}

// ResolvedField is one fully decided output member of a facet schema.
type ResolvedField struct {
	// OutputName and OutputType describe the emitted struct field after
	// renaming, enum conversion, nested substitution, and widening.
	OutputName string
	OutputType schema.TypeRef

	Provenance Provenance

	// Source is the contributing source field, nil for computed fields.
	// SourceName repeats its name for convenience in messages and exports.
	Source     *schema.SourceField
	SourceName string

	// Expr is the computed expression, set only for ProvenanceComputed.
	// ExprText preserves the rule-file spelling.
	Expr     expr.Expr
	ExprText string

	// TargetFacet names the facet substituted for a nested field, with the
	// collection shape of the traversal when the source field is
	// collection-valued.
	TargetFacet  string
	IsCollection bool
	Shape        schema.CollectionShape

	// EnumSource is set when the output type was converted away from an enum.
	// ReverseNeedsParse marks conversions whose reverse requires a caller
	// supplied parser because the enum's String form is not mechanical.
	EnumSource        *schema.EnumInfo
	ReverseNeedsParse bool

	// Reversible allows the reverse mapper to write this field back onto the
	// source. Suppressed nested fields and fields backed by read-only or
	// init-only sources are never reversible.
	Reversible bool

	// Conditions gate population of the field; all must hold, otherwise the
	// field takes its condition default or the type's zero value.
	Conditions []rules.Condition

	// IsUserDeclared marks fields supplied by the facet declaration itself
	// (renames and computed fields) as opposed to auto-admitted ones.
	IsUserDeclared bool

	// DepthAtResolution is the nesting depth of the resolution pass that
	// produced the field, root passes at zero.
	DepthAtResolution int

	// Suppressed marks a nested field declared beyond the depth bound. The
	// field stays in the schema but its value is always absent.
	Suppressed bool

	// InProjection admits the field into query projection output.
	InProjection bool

	// DefaultLiteral carries the source initializer when it survives
	// propagation, as a verbatim Go expression.
	DefaultLiteral string

	// Tags are the source tag entries admitted by the tag copy filter.
	Tags []schema.Tag
}

// IsNested reports whether the field projects through another facet.
func (f *ResolvedField) IsNested() bool {
	return f.Provenance == ProvenanceNestedFacet
}

// ResolvedFacetSchema is the immutable result of resolving one facet. It is
// produced once per facet, cached by name, and shared between parents that
// nest the same facet.
type ResolvedFacetSchema struct {
	// Name is the facet identity, unique within one resolution batch.
	Name string

	// Source identifies the schema the facet projects from.
	Source        schema.SchemaID
	SourcePkgName string

	// Fields lists the output members: auto-admitted fields in source
	// declaration order with in-place renames, then user-declared fields in
	// rule-file order.
	Fields []ResolvedField

	// Excluded records required source fields dropped by admission, with
	// ProvenanceExcludedRequired.
	Excluded []ResolvedField

	// ReverseRequested mirrors the rule set's reverse flag.
	// ReverseConstructible additionally requires a constructible source, no
	// excluded required fields, and at least one reversible field.
	ReverseRequested     bool
	ReverseConstructible bool

	// Structural knobs carried through for the emitters.
	Widen         bool
	MaxDepth      int
	TrackIdentity bool

	// DepthAtResolution is the depth of the pass that first resolved the
	// facet; zero for facets first reached at their own declaration.
	DepthAtResolution int

	// Advisories are the non-fatal checker findings attached to the schema.
	Advisories []diagnostic.Diagnostic
}

// Field returns the output field with the given name, or nil.
func (s *ResolvedFacetSchema) Field(name string) *ResolvedField {
	for i := range s.Fields {
		if s.Fields[i].OutputName == name {
			return &s.Fields[i]
		}
	}

	return nil
}

// FieldNames returns the output field names in emission order.
func (s *ResolvedFacetSchema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for i := range s.Fields {
		names = append(names, s.Fields[i].OutputName)
	}

	return names
}

// ReversibleFields returns the fields the reverse mapper may write back.
func (s *ResolvedFacetSchema) ReversibleFields() []*ResolvedField {
	var out []*ResolvedField
	for i := range s.Fields {
		if s.Fields[i].Reversible {
			out = append(out, &s.Fields[i])
		}
	}

	return out
}

// ProjectionFields returns the fields admitted into projection output.
func (s *ResolvedFacetSchema) ProjectionFields() []*ResolvedField {
	var out []*ResolvedField
	for i := range s.Fields {
		if s.Fields[i].InProjection {
			out = append(out, &s.Fields[i])
		}
	}

	return out
}

// Result is the outcome of a resolution batch: every facet that resolved,
// in declaration order. Facets with structural errors are absent.
type Result struct {
	Facets []*ResolvedFacetSchema

	byName map[string]*ResolvedFacetSchema
}

// Facet returns a resolved facet by name, or nil.
func (r *Result) Facet(name string) *ResolvedFacetSchema {
	return r.byName[name]
}

// Names returns the resolved facet names in declaration order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Facets))
	for _, s := range r.Facets {
		names = append(names, s.Name)
	}

	return names
}

func (r *Result) add(s *ResolvedFacetSchema) {
	if r.byName == nil {
		r.byName = make(map[string]*ResolvedFacetSchema)
	}

	r.Facets = append(r.Facets, s)
	r.byName[s.Name] = s
}
