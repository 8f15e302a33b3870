package schema

import (
	"sort"
	"strings"

	"facet-generator/internal/common"
)

// SourceSchema describes a struct type eligible as a facet source.
type SourceSchema struct {
	ID      SchemaID
	PkgName string // declared package name, usually the path base
	Fields  []SourceField

	// Constructible is true when the zero value plus exported field writes
	// can rebuild an instance, which gates reverse-mapping emission.
	Constructible bool
}

// Field returns the field with the given name, or nil if absent.
func (s *SourceSchema) Field(name string) *SourceField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}

	return nil
}

// FieldNames returns all field names in declaration order.
func (s *SourceSchema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for i := range s.Fields {
		names = append(names, s.Fields[i].Name)
	}

	return names
}

// RequiredFields returns the fields marked required, in declaration order.
func (s *SourceSchema) RequiredFields() []*SourceField {
	var out []*SourceField
	for i := range s.Fields {
		if s.Fields[i].IsRequired {
			out = append(out, &s.Fields[i])
		}
	}

	return out
}

// Graph holds all schemas and enums extracted from loaded packages.
type Graph struct {
	// Schemas maps SchemaID to SourceSchema for all eligible structs.
	Schemas map[SchemaID]*SourceSchema
	// Enums maps SchemaID to EnumInfo for all detected enum types.
	Enums map[SchemaID]*EnumInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path    string     // import path
	Name    string     // declared package name
	Schemas []SchemaID // schemas defined in this package
	Enums   []SchemaID // enums defined in this package
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		Schemas:  make(map[SchemaID]*SourceSchema),
		Enums:    make(map[SchemaID]*EnumInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// Schema returns the SourceSchema for a given SchemaID, or nil if not found.
func (g *Graph) Schema(id SchemaID) *SourceSchema {
	return g.Schemas[id]
}

// Enum returns the EnumInfo for a given SchemaID, or nil if not found.
func (g *Graph) Enum(id SchemaID) *EnumInfo {
	return g.Enums[id]
}

// SortedIDs returns all schema IDs ordered by package path, then name.
func (g *Graph) SortedIDs() []SchemaID {
	ids := make([]SchemaID, 0, len(g.Schemas))
	for id := range g.Schemas {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	return ids
}

// ResolveRef resolves a textual schema reference from a rule file. Accepted
// forms, tried in order:
//
//   - "pkg/import/path.Name": full import path plus type name
//   - "alias.Name": package alias (path base) plus type name
//   - "Name": bare type name, if unique across the graph
//
// Returns false for unknown or ambiguous references.
func (g *Graph) ResolveRef(ref string) (*SourceSchema, bool) {
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 {
		matches := g.Candidates(ref)
		if common.IsSingle(matches) {
			return g.Schemas[matches[0]], true
		}

		return nil, false
	}

	prefix, name := ref[:dot], ref[dot+1:]

	if s, ok := g.Schemas[SchemaID{PkgPath: prefix, Name: name}]; ok {
		return s, true
	}

	var matches []SchemaID
	for id := range g.Schemas {
		if id.Name == name && common.PkgAlias(id.PkgPath) == prefix {
			matches = append(matches, id)
		}
	}

	if common.IsSingle(matches) {
		return g.Schemas[matches[0]], true
	}

	return nil, false
}

// Candidates returns the IDs of all schemas with the given bare name, sorted.
// Used for ambiguity reporting and suggestions.
func (g *Graph) Candidates(name string) []SchemaID {
	var matches []SchemaID
	for id := range g.Schemas {
		if id.Name == name {
			matches = append(matches, id)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Less(matches[j]) })

	return matches
}

// AllNames returns every schema's bare name and aliased name, sorted and
// deduplicated. Used to build suggestions for unknown references.
func (g *Graph) AllNames() []string {
	var names []string
	for id := range g.Schemas {
		names = append(names, id.Name)
		if alias := common.PkgAlias(id.PkgPath); alias != "" {
			names = append(names, alias+"."+id.Name)
		}
	}

	sort.Strings(names)

	return common.Dedupe(names)
}
