package analyze

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"

	"facet-generator/internal/schema"
)

// collectEnums scans a package's constant declarations and promotes every
// named basic type with at least one declared constant into an enum. The
// syntax walk keeps members in declaration order, which go/types scope
// iteration would lose.
func (a *Analyzer) collectEnums(pkg *packages.Package) {
	members := make(map[schema.SchemaID][]schema.EnumMember)
	var order []schema.SchemaID

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.CONST {
				continue
			}

			for _, spec := range gen.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}

				for _, name := range vs.Names {
					if name.Name == "_" {
						continue
					}

					cst, ok := pkg.TypesInfo.Defs[name].(*types.Const)
					if !ok {
						continue
					}

					id, kind, ok := a.enumCandidate(cst.Type(), pkg.PkgPath)
					if !ok {
						continue
					}

					if _, seen := members[id]; !seen {
						order = append(order, id)
					}
					members[id] = append(members[id], schema.EnumMember{
						Name:  name.Name,
						Value: cst.Val().ExactString(),
					})
					a.enumKinds[id] = kind
				}
			}
		}
	}

	for _, id := range order {
		named := a.namedTypes[id]
		if named == nil {
			continue
		}

		a.graph.Enums[id] = &schema.EnumInfo{
			ID:              id,
			Underlying:      a.enumKinds[id],
			HasStringMethod: hasStringMethod(named),
			Members:         members[id],
		}

		if info := a.graph.Packages[id.PkgPath]; info != nil {
			info.Enums = append(info.Enums, id)
		}
	}
}

// enumCandidate reports whether a constant's type can back an enum: a named
// type declared in the package at hand, over string or an integer kind.
func (a *Analyzer) enumCandidate(t types.Type, pkgPath string) (schema.SchemaID, schema.PrimitiveKind, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return schema.SchemaID{}, 0, false
	}

	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != pkgPath || !obj.Exported() {
		return schema.SchemaID{}, 0, false
	}

	basic, ok := named.Underlying().(*types.Basic)
	if !ok {
		return schema.SchemaID{}, 0, false
	}

	kind, ok := basicKind(basic)
	if !ok || !(kind == schema.PrimitiveString || kind.IsInteger()) {
		return schema.SchemaID{}, 0, false
	}

	return schema.SchemaID{PkgPath: obj.Pkg().Path(), Name: obj.Name()}, kind, true
}

// hasStringMethod reports whether the named type declares String() string on
// either receiver form.
func hasStringMethod(named *types.Named) bool {
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() != "String" {
			continue
		}

		sig, ok := m.Type().(*types.Signature)
		if !ok {
			continue
		}

		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return false
		}

		basic, ok := sig.Results().At(0).Type().(*types.Basic)

		return ok && basic.Kind() == types.String
	}

	return false
}
