package gen

import (
	"fmt"
	"sort"

	"facet-generator/internal/common"
	"facet-generator/internal/schema"
)

// importSpec represents one import of a generated file.
type importSpec struct {
	Alias string
	Path  string
}

// getPkgName returns the package name used to qualify types from pkgPath.
// It prefers the declared package name from the schema graph, falling back
// to the path base alias.
func (g *Generator) getPkgName(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	if g.graph != nil {
		if info, ok := g.graph.Packages[pkgPath]; ok {
			return info.Name
		}
	}

	return common.PkgAlias(pkgPath)
}

// addImport records an import in the file's import set.
func (g *Generator) addImport(imports map[string]importSpec, pkgPath string) {
	if pkgPath == "" {
		return
	}

	imports[pkgPath] = importSpec{
		Alias: g.getPkgName(pkgPath),
		Path:  pkgPath,
	}
}

// typeString renders a type reference as Go source inside the generated
// package, recording every import the spelling needs. Named types without a
// package path are facet types local to the generated package and stay
// unqualified.
func (g *Generator) typeString(t schema.TypeRef, imports map[string]importSpec) string {
	switch t.Kind {
	case schema.KindPrimitive:
		if path := t.Primitive.ImportPath(); path != "" {
			g.addImport(imports, path)
		}

		return t.Primitive.GoName()

	case schema.KindEnum, schema.KindSchema:
		if t.Schema.PkgPath == "" {
			return t.Schema.Name
		}

		g.addImport(imports, t.Schema.PkgPath)

		return g.getPkgName(t.Schema.PkgPath) + "." + t.Schema.Name

	case schema.KindNullable:
		if t.Elem == nil {
			return "*" + common.InterfaceTypeStr
		}

		return "*" + g.typeString(*t.Elem, imports)

	case schema.KindCollection:
		if t.Elem == nil {
			return "[]" + common.InterfaceTypeStr
		}

		switch t.Shape {
		case schema.ShapeArray:
			return fmt.Sprintf("[%d]%s", t.ArrayLen, g.typeString(*t.Elem, imports))

		case schema.ShapeMap:
			key := common.InterfaceTypeStr
			if t.Key != nil {
				key = g.typeString(*t.Key, imports)
			}

			return "map[" + key + "]" + g.typeString(*t.Elem, imports)

		default:
			return "[]" + g.typeString(*t.Elem, imports)
		}

	case schema.KindOpaque:
		if t.OpaquePkg != "" {
			g.addImport(imports, t.OpaquePkg)
		}

		return t.OpaqueText

	default:
		return common.InterfaceTypeStr
	}
}

// baseCastNeeded reports whether moving a value between the two references
// requires an explicit conversion of the primitive base.
func baseCastNeeded(from, to schema.TypeRef) bool {
	fb, tb := from.Base(), to.Base()

	return fb.Kind == schema.KindPrimitive && tb.Kind == schema.KindPrimitive &&
		fb.Primitive != tb.Primitive
}

// castPrim wraps expr in a conversion to t's base type.
func (g *Generator) castPrim(imports map[string]importSpec, t schema.TypeRef, expr string) string {
	return g.typeString(t.Base(), imports) + "(" + expr + ")"
}

// sortedImports flattens an import set in path order for the template.
func sortedImports(imports map[string]importSpec) []importSpec {
	out := make([]importSpec, 0, len(imports))
	for _, imp := range imports {
		out = append(out, imp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})

	return out
}
