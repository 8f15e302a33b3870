package resolve

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"facet-generator/internal/schema"
)

// Manifest is the serializable summary of a resolution batch, used by the
// check command and the preview output.
type Manifest struct {
	Facets []FacetSummary `yaml:"facets" json:"facets"`
}

// FacetSummary describes one resolved facet.
type FacetSummary struct {
	Name            string         `yaml:"facet" json:"facet"`
	Source          string         `yaml:"source" json:"source"`
	SourceSignature string         `yaml:"source_signature,omitempty" json:"source_signature,omitempty"`
	Reverse         bool           `yaml:"reverse,omitempty" json:"reverse,omitempty"`
	ReverseOK       bool           `yaml:"reverse_constructible,omitempty" json:"reverse_constructible,omitempty"`
	Widen           bool           `yaml:"widen,omitempty" json:"widen,omitempty"`
	MaxDepth        int            `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
	TrackIdentity   bool           `yaml:"track_identity,omitempty" json:"track_identity,omitempty"`
	Fields          []FieldSummary `yaml:"fields" json:"fields"`
	Excluded        []string       `yaml:"excluded_required,omitempty" json:"excluded_required,omitempty"`
	Advisories      []string       `yaml:"advisories,omitempty" json:"advisories,omitempty"`
}

// FieldSummary describes one resolved output field.
type FieldSummary struct {
	Name       string   `yaml:"name" json:"name"`
	Type       string   `yaml:"type" json:"type"`
	Provenance string   `yaml:"provenance" json:"provenance"`
	Source     string   `yaml:"source,omitempty" json:"source,omitempty"`
	Expr       string   `yaml:"expr,omitempty" json:"expr,omitempty"`
	Target     string   `yaml:"target,omitempty" json:"target,omitempty"`
	Shape      string   `yaml:"shape,omitempty" json:"shape,omitempty"`
	Reversible bool     `yaml:"reversible" json:"reversible"`
	NeedsParse bool     `yaml:"reverse_needs_parse,omitempty" json:"reverse_needs_parse,omitempty"`
	Suppressed bool     `yaml:"suppressed,omitempty" json:"suppressed,omitempty"`
	Depth      int      `yaml:"depth" json:"depth"`
	Projection bool     `yaml:"projection" json:"projection"`
	Default    string   `yaml:"default,omitempty" json:"default,omitempty"`
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// BuildManifest summarizes resolved facets. The graph supplies the current
// source shape signatures; a nil graph skips them.
func BuildManifest(res *Result, g *schema.Graph) *Manifest {
	m := &Manifest{Facets: make([]FacetSummary, 0, len(res.Facets))}

	for _, s := range res.Facets {
		m.Facets = append(m.Facets, summarizeFacet(s, g))
	}

	return m
}

// ExportYAML renders the manifest as YAML.
func ExportYAML(res *Result, g *schema.Graph) ([]byte, error) {
	return yaml.Marshal(BuildManifest(res, g))
}

// ExportJSON renders the manifest as indented JSON.
func ExportJSON(res *Result, g *schema.Graph) ([]byte, error) {
	return json.MarshalIndent(BuildManifest(res, g), "", "  ")
}

func summarizeFacet(s *ResolvedFacetSchema, g *schema.Graph) FacetSummary {
	fs := FacetSummary{
		Name:          s.Name,
		Source:        s.Source.String(),
		Reverse:       s.ReverseRequested,
		ReverseOK:     s.ReverseConstructible,
		Widen:         s.Widen,
		MaxDepth:      s.MaxDepth,
		TrackIdentity: s.TrackIdentity,
		Fields:        make([]FieldSummary, 0, len(s.Fields)),
	}

	if g != nil {
		if src := g.Schema(s.Source); src != nil {
			fs.SourceSignature = schema.Signature(src)
		}
	}

	for i := range s.Fields {
		fs.Fields = append(fs.Fields, summarizeField(&s.Fields[i]))
	}

	for i := range s.Excluded {
		fs.Excluded = append(fs.Excluded, s.Excluded[i].SourceName)
	}

	for _, a := range s.Advisories {
		fs.Advisories = append(fs.Advisories, fmt.Sprintf("%s: %s", a.Code, a.Message))
	}

	return fs
}

func summarizeField(f *ResolvedField) FieldSummary {
	sum := FieldSummary{
		Name:       f.OutputName,
		Type:       f.OutputType.String(),
		Provenance: f.Provenance.String(),
		Reversible: f.Reversible,
		NeedsParse: f.ReverseNeedsParse,
		Suppressed: f.Suppressed,
		Depth:      f.DepthAtResolution,
		Projection: f.InProjection,
		Default:    f.DefaultLiteral,
	}

	switch f.Provenance {
	case ProvenanceRenamed, ProvenanceNestedFacet:
		sum.Source = f.SourceName
	case ProvenanceComputed:
		sum.Expr = f.ExprText
	}

	if f.Provenance == ProvenanceNestedFacet {
		sum.Target = f.TargetFacet
		if f.IsCollection {
			sum.Shape = f.Shape.String()
		}
	}

	for _, c := range f.Conditions {
		text := c.WhenText
		if c.HasDefault {
			text += " else " + c.Default
		}
		sum.Conditions = append(sum.Conditions, text)
	}

	return sum
}

// FormatReport renders a human-readable resolution report.
func FormatReport(res *Result) string {
	var sb strings.Builder

	for _, s := range res.Facets {
		fmt.Fprintf(&sb, "\n=== %s (from %s) ===\n", s.Name, s.Source)

		for i := range s.Fields {
			f := &s.Fields[i]
			fmt.Fprintf(&sb, "  ✓ %-20s %-24s %s\n", f.OutputName, f.OutputType.String(), describeField(f))
		}

		for i := range s.Excluded {
			fmt.Fprintf(&sb, "  ✗ %s: required source field excluded\n", s.Excluded[i].SourceName)
		}

		switch {
		case s.ReverseConstructible:
			sb.WriteString("  reverse mapping: enabled\n")
		case s.ReverseRequested:
			sb.WriteString("  reverse mapping: requested but disabled\n")
		}

		for _, a := range s.Advisories {
			fmt.Fprintf(&sb, "  ⚠ %s\n", a.Message)
		}
	}

	return sb.String()
}

// describeField summarizes one field's derivation for the report.
func describeField(f *ResolvedField) string {
	var parts []string

	switch f.Provenance {
	case ProvenanceDirectCopy:
		parts = append(parts, "copied")
	case ProvenanceRenamed:
		parts = append(parts, "renamed from "+f.SourceName)
	case ProvenanceComputed:
		parts = append(parts, "computed: "+f.ExprText)
	case ProvenanceNestedFacet:
		if f.IsCollection {
			parts = append(parts, fmt.Sprintf("nested %s (%s of %s)", f.TargetFacet, f.Shape, f.SourceName))
		} else {
			parts = append(parts, fmt.Sprintf("nested %s (from %s)", f.TargetFacet, f.SourceName))
		}
	}

	if f.EnumSource != nil {
		parts = append(parts, "enum "+f.EnumSource.ID.Name)
	}

	if f.Suppressed {
		parts = append(parts, "suppressed")
	}

	if len(f.Conditions) > 0 {
		parts = append(parts, "conditional")
	}

	if f.Reversible {
		parts = append(parts, "reversible")
	}

	return strings.Join(parts, ", ")
}
