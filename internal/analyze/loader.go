package analyze

import (
	"errors"
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"

	"facet-generator/internal/diagnostic"
	"facet-generator/internal/schema"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads Go packages and builds the source schema graph.
type Analyzer struct {
	graph      *schema.Graph
	diags      diagnostic.Diagnostics
	refCache   map[types.Type]schema.TypeRef
	namedTypes map[schema.SchemaID]*types.Named
	structIDs  map[schema.SchemaID]bool
	enumKinds  map[schema.SchemaID]schema.PrimitiveKind
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		graph:      schema.NewGraph(),
		refCache:   make(map[types.Type]schema.TypeRef),
		namedTypes: make(map[schema.SchemaID]*types.Named),
		structIDs:  make(map[schema.SchemaID]bool),
		enumKinds:  make(map[schema.SchemaID]schema.PrimitiveKind),
	}
}

// LoadPackages loads the specified packages and builds the schema graph.
// Patterns are standard Go package patterns (e.g., "./store",
// "facet-generator/warehouse").
func (a *Analyzer) LoadPackages(patterns ...string) (*schema.Graph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %v", errs)
	}

	// Register named types across all packages first, so that fields can
	// reference schemas and enums regardless of processing order.
	for _, pkg := range pkgs {
		a.registerPackage(pkg)
	}
	for _, pkg := range pkgs {
		a.collectEnums(pkg)
	}
	for _, pkg := range pkgs {
		a.buildSchemas(pkg)
	}

	return a.graph, nil
}

// Graph returns the current schema graph.
func (a *Analyzer) Graph() *schema.Graph {
	return a.graph
}

// Diagnostics returns the warnings accumulated while loading, such as
// fields skipped over unsupported types.
func (a *Analyzer) Diagnostics() diagnostic.Diagnostics {
	return a.diags
}

// registerPackage records the exported named types a package declares.
func (a *Analyzer) registerPackage(pkg *packages.Package) {
	info := &schema.PackageInfo{
		Path: pkg.PkgPath,
		Name: pkg.Name,
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !typeName.Exported() || typeName.IsAlias() {
			continue
		}

		named, ok := typeName.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}

		id := schema.SchemaID{PkgPath: pkg.PkgPath, Name: name}
		a.namedTypes[id] = named

		if _, ok := named.Underlying().(*types.Struct); ok {
			a.structIDs[id] = true
			info.Schemas = append(info.Schemas, id)
		}
	}

	a.graph.Packages[pkg.PkgPath] = info
}

// buildSchemas converts every registered struct in a package into a source
// schema with flattened, tag-decoded fields.
func (a *Analyzer) buildSchemas(pkg *packages.Package) {
	info := a.graph.Packages[pkg.PkgPath]
	if info == nil {
		return
	}

	for _, id := range info.Schemas {
		named := a.namedTypes[id]
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}

		visiting := map[*types.Named]bool{named: true}
		flat := a.flattenFields(st, id, 0, visiting)

		s := &schema.SourceSchema{
			ID:      id,
			PkgName: pkg.Name,
			Fields:  resolveShadowing(flat),
		}
		for i := range s.Fields {
			s.Fields[i].Index = i
		}
		s.Constructible = isConstructible(s.Fields)

		a.graph.Schemas[id] = s
	}
}

// flatField pairs a converted field with its embedding depth, which the
// shadowing pass needs.
type flatField struct {
	schema.SourceField
	depth int
}

// flattenFields converts a struct's fields, expanding embedded structs in
// place as promoted fields.
func (a *Analyzer) flattenFields(st *types.Struct, owner schema.SchemaID, depth int, visiting map[*types.Named]bool) []flatField {
	var out []flatField

	for i := 0; i < st.NumFields(); i++ {
		fld := st.Field(i)

		if fld.Embedded() {
			if named, inner, ok := embeddedStruct(fld.Type(), visiting); ok {
				visiting[named] = true
				out = append(out, a.flattenFields(inner, owner, depth+1, visiting)...)
				delete(visiting, named)
				continue
			}
			// Non-struct embeds fall through as regular fields named after
			// their type.
		}

		ref, err := a.typeRef(fld.Type())
		if err != nil {
			if fld.Exported() {
				a.warnSkippedField(owner, fld.Name(), err)
			}
			continue
		}

		f := schema.SourceField{
			Name:        fld.Name(),
			Type:        ref,
			Exported:    fld.Exported(),
			Promoted:    depth > 0,
			IsValueType: isValueRef(ref),
			Tags:        parseTags(st.Tag(i)),
		}
		for _, unknown := range decodeFieldTags(&f) {
			a.diags.AddWarning("unknown_facet_tag_value",
				fmt.Sprintf("unknown facet tag value %q", unknown),
				"", owner.String()+"."+f.Name)
		}

		out = append(out, flatField{SourceField: f, depth: depth})
	}

	return out
}

// embeddedStruct resolves an embedded field to its named struct type,
// unwrapping one pointer level. Types already being flattened stop
// self-embedding loops and fall back to plain fields.
func embeddedStruct(t types.Type, visiting map[*types.Named]bool) (*types.Named, *types.Struct, bool) {
	u := types.Unalias(t)
	if ptr, ok := u.(*types.Pointer); ok {
		u = types.Unalias(ptr.Elem())
	}

	named, ok := u.(*types.Named)
	if !ok || visiting[named] {
		return nil, nil, false
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, nil, false
	}

	return named, st, true
}

// resolveShadowing applies Go's promotion rules to the flattened list: a
// shallower field hides deeper fields of the same name, and two fields at
// the same depth erase each other.
func resolveShadowing(fields []flatField) []schema.SourceField {
	minDepth := make(map[string]int, len(fields))
	atMin := make(map[string]int, len(fields))

	for _, f := range fields {
		d, seen := minDepth[f.Name]
		switch {
		case !seen || f.depth < d:
			minDepth[f.Name] = f.depth
			atMin[f.Name] = 1
		case f.depth == d:
			atMin[f.Name]++
		}
	}

	out := make([]schema.SourceField, 0, len(fields))
	for _, f := range fields {
		if f.depth != minDepth[f.Name] || atMin[f.Name] != 1 {
			continue
		}
		out = append(out, f.SourceField)
	}

	return out
}

// isConstructible reports whether the zero value plus exported field writes
// can rebuild an instance. Any unexported data field blocks that.
func isConstructible(fields []schema.SourceField) bool {
	for i := range fields {
		if !fields[i].Exported {
			return false
		}
	}

	return true
}

func isValueRef(t schema.TypeRef) bool {
	switch t.Kind {
	case schema.KindPrimitive, schema.KindEnum, schema.KindOpaque:
		return true
	default:
		return false
	}
}

func (a *Analyzer) warnSkippedField(owner schema.SchemaID, name string, err error) {
	code := "unsupported_field_type"
	if errors.Is(err, errDoublePointer) {
		code = "double_pointer_field"
	}

	a.diags.AddWarning(code, err.Error(), "", owner.String()+"."+name)
}

// GetSchema returns the schema for a named struct.
func (a *Analyzer) GetSchema(pkgPath, name string) (*schema.SourceSchema, error) {
	id := schema.SchemaID{PkgPath: pkgPath, Name: name}
	s := a.graph.Schema(id)
	if s == nil {
		return nil, fmt.Errorf("schema %s not found", id)
	}

	return s, nil
}
