package rules

import (
	"errors"
)

// FacetFile represents the root of a YAML facet definition file.
// This is the authoritative, human-reviewed facet configuration.
type FacetFile struct {
	// Version of the facet schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Facets is a list of facet declarations.
	Facets []FacetDecl `yaml:"facets"`
}

// FacetDecl declares one facet projected from a source schema.
type FacetDecl struct {
	// Name of the generated facet type (e.g., "UserSummary").
	Name string `yaml:"name"`

	// Source schema reference (e.g., "store.Customer" or full import path).
	Source string `yaml:"source"`

	// Exclude lists source fields to drop; every other admissible field is
	// kept. Mutually exclusive with Include.
	Exclude StringArray `yaml:"exclude,omitempty"`

	// Include lists the only source fields to keep. Mutually exclusive with
	// Exclude.
	Include StringArray `yaml:"include,omitempty"`

	// IncludeUnexported admits unexported source fields into projection.
	IncludeUnexported bool `yaml:"include_unexported,omitempty"`

	// Overrides rename, retype, or compute output fields.
	Overrides []OverrideRule `yaml:"overrides,omitempty"`

	// Conditions gate output fields behind boolean predicates over the
	// source value.
	Conditions []ConditionRule `yaml:"conditions,omitempty"`

	// Nested maps source schema references to facet names declared in the
	// same file, e.g. {store.Address: AddressView}.
	Nested map[string]string `yaml:"nested,omitempty"`

	// EnumAs converts enum-typed fields: "" keeps the enum type, "string"
	// and "int" project it onto the primitive.
	EnumAs string `yaml:"enum_as,omitempty"`

	// Nullable widens every output field to a nullable type.
	Nullable bool `yaml:"nullable,omitempty"`

	// MaxDepth bounds nested facet recursion. Zero means unbounded.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// TrackIdentity breaks reference cycles at mapping time by skipping
	// already-visited source objects.
	TrackIdentity bool `yaml:"track_identity,omitempty"`

	// Reverse requests a facet-to-source mapper.
	Reverse bool `yaml:"reverse,omitempty"`

	// TagCopy lists struct tag keys copied from source fields onto the
	// generated facet fields.
	TagCopy StringArray `yaml:"tag_copy,omitempty"`

	// ShapeSignature pins the source shape this facet was written against.
	// A mismatch against the live schema raises an advisory.
	ShapeSignature string `yaml:"shape_signature,omitempty"`
}

// OverrideRule renames, retypes, or computes a single output field.
type OverrideRule struct {
	// Field is the output field name.
	Field string `yaml:"field"`

	// Source is a source field name or an expression over source fields.
	// Defaults to Field.
	Source string `yaml:"source,omitempty"`

	// Type pins the output type (primitive spellings only, e.g. "string").
	// When empty the type is carried over or inferred from the expression.
	Type string `yaml:"type,omitempty"`

	// Reversible marks a renamed field as safe to map back to its source.
	Reversible bool `yaml:"reversible,omitempty"`

	// InProjection controls whether the field appears in the query
	// projection. Defaults to true.
	InProjection *bool `yaml:"in_projection,omitempty"`
}

// ConditionRule gates an output field behind a predicate.
type ConditionRule struct {
	// Field is the output field name the condition applies to.
	Field string `yaml:"field"`

	// When is a boolean expression over source fields.
	When string `yaml:"when"`

	// Default is the literal assigned when the predicate is false. When
	// absent the field keeps its zero value.
	Default *string `yaml:"default,omitempty"`

	// InProjection controls whether the gated field appears in the query
	// projection. Defaults to true.
	InProjection *bool `yaml:"in_projection,omitempty"`
}

// StringArray is a string slice that can be unmarshaled from a single string
// or a list.
type StringArray []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringArray) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var multi []string
	if err := unmarshal(&multi); err == nil {
		*s = multi
		return nil
	}

	return errors.New("expected string or list of strings")
}
