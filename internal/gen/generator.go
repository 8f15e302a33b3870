package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"facet-generator/internal/resolve"
	"facet-generator/internal/schema"
)

// facetPkgPath is the import path of the runtime support package every
// generated file uses for trails, pointer helpers, and projection metadata.
const facetPkgPath = "facet-generator/facet"

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package.
	PackageName string
	// OutputDir is the directory where generated files are written.
	OutputDir string
	// GenerateComments enables explanatory comments on non-obvious
	// assignments.
	GenerateComments bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PackageName:      "facets",
		OutputDir:        "./facets",
		GenerateComments: true,
	}
}

// Generator emits Go source for resolved facet schemas.
type Generator struct {
	config GeneratorConfig
	graph  *schema.Graph
	result *resolve.Result

	// enumParsers collects the parser stubs reverse mappers reference,
	// keyed by function name.
	enumParsers map[string]enumParserInfo
}

type enumParserInfo struct {
	Name string
	Enum *schema.EnumInfo
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "orderrow_facet.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generate emits one file per resolved facet, in declaration order, plus a
// shared stub file when reverse mappers reference enum parsers that have no
// mechanical implementation.
func (g *Generator) Generate(res *resolve.Result, graph *schema.Graph) ([]GeneratedFile, error) {
	g.graph = graph
	g.result = res
	g.enumParsers = make(map[string]enumParserInfo)

	var files []GeneratedFile

	for _, s := range res.Facets {
		file, err := g.generateFacet(s)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", s.Name, err)
		}

		files = append(files, *file)
	}

	if len(g.enumParsers) > 0 {
		file, err := g.generateEnumParsersFile()
		if err != nil {
			return nil, fmt.Errorf("generating enum parsers: %w", err)
		}

		files = append(files, *file)
	}

	return files, nil
}

// generateFacet generates the file for a single facet: the struct, the
// constructor pair, the reverse mapper when available, and the projection.
func (g *Generator) generateFacet(s *resolve.ResolvedFacetSchema) (*GeneratedFile, error) {
	srcSchema := g.graph.Schema(s.Source)
	if srcSchema == nil {
		return nil, fmt.Errorf("source schema %s is not loaded", s.Source)
	}

	imports := make(map[string]importSpec)
	g.addImport(imports, facetPkgPath)

	data := &facetFileData{
		PackageName:   g.config.PackageName,
		Filename:      g.filename(s),
		FacetName:     s.Name,
		SourceType:    g.typeString(schema.SchemaRef(s.Source), imports),
		MaxDepth:      s.MaxDepth,
		TrackIdentity: s.TrackIdentity,
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		data.StructFields = append(data.StructFields, structFieldData{
			Name: f.OutputName,
			Type: g.typeString(f.OutputType, imports),
			Tag:  structTag(f),
		})
	}

	assigns, err := g.buildAssignments(s, srcSchema, imports)
	if err != nil {
		return nil, err
	}

	data.Assignments = assigns

	if s.ReverseConstructible {
		data.HasReverse = true
		data.Reverse = g.buildReverse(s, imports)
	}

	data.Projection = buildProjection(s)
	data.Imports = sortedImports(imports)

	var buf bytes.Buffer
	if err := facetTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort: write unformatted code to a sidecar file to aid debugging.
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, data.Filename, buf.Bytes())
		}
		// Return unformatted code for debugging
		return &GeneratedFile{
			Filename: data.Filename,
			Content:  buf.Bytes(),
		}, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{
		Filename: data.Filename,
		Content:  formatted,
	}, nil
}

// generateEnumParsersFile generates the shared stub file for enum parsers.
func (g *Generator) generateEnumParsersFile() (*GeneratedFile, error) {
	imports := make(map[string]importSpec)
	g.addImport(imports, facetPkgPath)

	data := &enumParsersFileData{
		PackageName: g.config.PackageName,
		Filename:    "missing_enum_parsers.go",
	}

	// Sorted iteration to ensure deterministic output
	var keys []string
	for k := range g.enumParsers {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, name := range keys {
		info := g.enumParsers[name]
		data.Parsers = append(data.Parsers, enumParserData{
			Name:     info.Name,
			Type:     g.typeString(schema.EnumRef(info.Enum), imports),
			QualType: g.getPkgName(info.Enum.ID.PkgPath) + "." + info.Enum.ID.Name,
		})
	}

	data.Imports = sortedImports(imports)

	var buf bytes.Buffer
	if err := enumParsersTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, data.Filename, buf.Bytes())
		}

		return &GeneratedFile{
			Filename: data.Filename,
			Content:  buf.Bytes(),
		}, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{
		Filename: data.Filename,
		Content:  formatted,
	}, nil
}

// parserName returns the stub name a reverse mapper calls to parse enum e
// back from its String form, registering the stub for emission. A bare name
// already claimed by a different enum gets the package alias folded in.
func (g *Generator) parserName(e *schema.EnumInfo) string {
	name := "parse" + e.ID.Name
	if info, ok := g.enumParsers[name]; ok && info.Enum.ID != e.ID {
		name = "parse" + capitalize(g.getPkgName(e.ID.PkgPath)) + e.ID.Name
	}

	g.enumParsers[name] = enumParserInfo{Name: name, Enum: e}

	return name
}

func (g *Generator) filename(s *resolve.ResolvedFacetSchema) string {
	return strings.ToLower(s.Name) + "_facet.go"
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// structTag renders the copied source tags plus the propagated default as a
// backquoted tag literal, or "" when the field carries neither.
func structTag(f *resolve.ResolvedField) string {
	var parts []string
	for _, t := range f.Tags {
		parts = append(parts, fmt.Sprintf("%s:%q", t.Key, t.Value))
	}

	if f.DefaultLiteral != "" {
		v := f.DefaultLiteral
		if u, err := strconv.Unquote(v); err == nil {
			v = u
		}

		parts = append(parts, fmt.Sprintf("default:%q", v))
	}

	if len(parts) == 0 {
		return ""
	}

	return "`" + strings.Join(parts, " ") + "`"
}

// buildProjection lists the source paths the facet reads, one entry per
// projected field. Suppressed fields read nothing and are left out.
func buildProjection(s *resolve.ResolvedFacetSchema) []projectionFieldData {
	var out []projectionFieldData

	for _, f := range s.ProjectionFields() {
		if f.Suppressed {
			continue
		}

		p := projectionFieldData{Name: f.OutputName}

		if f.Provenance == resolve.ProvenanceComputed {
			p.Expr = f.ExprText
		} else {
			p.SourcePath = f.SourceName
			if f.IsNested() && f.IsCollection {
				p.SourcePath += "[]"
			}
		}

		out = append(out, p)
	}

	return out
}

type facetFileData struct {
	PackageName   string
	Filename      string
	Imports       []importSpec
	FacetName     string
	SourceType    string
	MaxDepth      int
	TrackIdentity bool
	StructFields  []structFieldData
	Assignments   []assignmentData
	HasReverse    bool
	Reverse       []assignmentData
	Projection    []projectionFieldData
}

type structFieldData struct {
	Name string
	Type string
	Tag  string
}

type projectionFieldData struct {
	Name       string
	SourcePath string
	Expr       string
}

type enumParsersFileData struct {
	PackageName string
	Filename    string
	Imports     []importSpec
	Parsers     []enumParserData
}

type enumParserData struct {
	Name     string
	Type     string
	QualType string
}

var facetTemplate = template.Must(template.New("facet").Parse(`// Code generated by facet-generator. DO NOT EDIT.

package {{.PackageName}}

{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
// {{.FacetName}} is a projection of {{.SourceType}}.
type {{.FacetName}} struct {
{{range .StructFields}}	{{.Name}} {{.Type}}{{if .Tag}} {{.Tag}}{{end}}
{{end}}}

// New{{.FacetName}} projects src into a {{.FacetName}}.
func New{{.FacetName}}(src {{.SourceType}}) {{.FacetName}} {
	return new{{.FacetName}}(src, facet.NewTrail({{.MaxDepth}}, {{.TrackIdentity}}))
}

func new{{.FacetName}}(src {{.SourceType}}, tr *facet.Trail) {{.FacetName}} {
	out := {{.FacetName}}{}
{{range .Assignments}}{{if .Comment}}	// {{.Comment}}
{{end}}{{if .Code}}	{{.Code}}
{{end}}{{end}}
	return out
}
{{if .HasReverse}}
// ToSource writes the reversible fields back onto a fresh {{.SourceType}}.
func (f {{.FacetName}}) ToSource() {{.SourceType}} {
	out := {{.SourceType}}{}
{{range .Reverse}}{{if .Comment}}	// {{.Comment}}
{{end}}{{if .Code}}	{{.Code}}
{{end}}{{end}}
	return out
}
{{end}}
// {{.FacetName}}Projection lists the source paths the facet reads.
func {{.FacetName}}Projection() []facet.ProjectionField {
	{{if .Projection}}return []facet.ProjectionField{
{{range .Projection}}		{Name: {{printf "%q" .Name}}, SourcePath: {{printf "%q" .SourcePath}}{{if .Expr}}, Expr: {{printf "%q" .Expr}}{{end}}},
{{end}}	}{{else}}return nil{{end}}
}
`))

var enumParsersTemplate = template.Must(template.New("enum_parsers").Parse(`// Code generated by facet-generator. DO NOT EDIT.

package {{.PackageName}}

{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
// Missing enum parsers. Ideally, these should be implemented in your project
// next to the enum types themselves.
{{range .Parsers}}func {{.Name}}(v string) {{.Type}} {
	panic(&facet.EnumParseError{Type: "{{.QualType}}", Value: v})
}

{{end}}`))
