package rules

import (
	"facet-generator/internal/common"
	"facet-generator/internal/expr"
	"facet-generator/internal/schema"
)

// Mode selects how source fields are admitted into a facet.
type Mode int

const (
	// ModeExclude admits every admissible field except the listed ones.
	// A facet with no member list is exclude-mode over an empty set.
	ModeExclude Mode = iota
	// ModeInclude admits only the listed fields.
	ModeInclude
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeExclude:
		return "exclude"
	case ModeInclude:
		return "include"
	default:
		return common.UnknownStr
	}
}

// EnumMode selects how enum-typed fields are projected.
type EnumMode int

const (
	// EnumAsNone keeps the enum type as-is.
	EnumAsNone EnumMode = iota
	// EnumAsString projects the enum onto its string form.
	EnumAsString
	// EnumAsInt projects the enum onto its integer form.
	EnumAsInt
)

// String returns a human-readable representation of the enum mode.
func (m EnumMode) String() string {
	switch m {
	case EnumAsNone:
		return "none"
	case EnumAsString:
		return "string"
	case EnumAsInt:
		return "int"
	default:
		return common.UnknownStr
	}
}

// RuleSet is one facet declaration compiled against the schema graph.
// Expressions are parsed and checked; schema references are resolved.
type RuleSet struct {
	// Name of the facet type to generate.
	Name string

	// Source is the resolved source schema.
	Source *schema.SourceSchema

	// Mode and Members form the admission filter. Members holds the
	// exclude or include set, keyed by source field name.
	Mode    Mode
	Members map[string]bool

	// IncludeUnexported admits unexported source fields.
	IncludeUnexported bool

	// Overrides in rule-file order.
	Overrides []Override

	// Conditions in rule-file order.
	Conditions []Condition

	// Nested maps source schema identities to facet names.
	Nested map[schema.SchemaID]string

	EnumAs         EnumMode
	Widen          bool
	MaxDepth       int
	TrackIdentity  bool
	Reverse        bool
	TagCopy        []string
	ShapeSignature string
}

// Override is a compiled override rule.
type Override struct {
	// Field is the output field name.
	Field string

	// Expr is the parsed source: a bare path for renames, anything richer
	// for computed fields.
	Expr expr.Expr

	// SourceText is the expression as written in the rule file.
	SourceText string

	// Type pins the output type when HasType is set.
	Type    schema.TypeRef
	HasType bool

	Reversible   bool
	InProjection bool
}

// IsComputed reports whether the override computes its value rather than
// renaming a source field.
func (o *Override) IsComputed() bool {
	return expr.IsComputed(o.Expr)
}

// SourceField returns the renamed source field's name for rename overrides.
func (o *Override) SourceField() (string, bool) {
	return expr.SoleField(o.Expr)
}

// Condition is a compiled condition rule.
type Condition struct {
	// Field is the output field name the condition gates.
	Field string

	// When is the parsed predicate; WhenText is its rule-file spelling.
	When     expr.Expr
	WhenText string

	// Default is the literal assigned when the predicate is false.
	Default    string
	HasDefault bool

	InProjection bool
}

// Admits reports whether a source field passes the admission filter. It does
// not consult overrides, which bypass admission entirely.
func (rs *RuleSet) Admits(f *schema.SourceField) bool {
	if !f.Exported && !rs.IncludeUnexported {
		return false
	}

	if rs.Mode == ModeInclude {
		return rs.Members[f.Name]
	}

	return !rs.Members[f.Name]
}

// OverrideBySource returns the override renaming the given source field, if
// any. Computed overrides never match.
func (rs *RuleSet) OverrideBySource(name string) *Override {
	for i := range rs.Overrides {
		if src, ok := rs.Overrides[i].SourceField(); ok && src == name {
			return &rs.Overrides[i]
		}
	}

	return nil
}

// ConditionsFor returns the conditions gating the given output field, in
// rule-file order.
func (rs *RuleSet) ConditionsFor(outputName string) []Condition {
	var out []Condition
	for _, c := range rs.Conditions {
		if c.Field == outputName {
			out = append(out, c)
		}
	}

	return out
}

// NestedFacet returns the facet name linked to a source schema, if any.
func (rs *RuleSet) NestedFacet(id schema.SchemaID) (string, bool) {
	name, ok := rs.Nested[id]
	return name, ok
}
