package analyze

import (
	"errors"
	"fmt"
	"go/types"

	"facet-generator/internal/common"
	"facet-generator/internal/schema"
)

var errDoublePointer = errors.New("double pointer")

// typeRef converts a go/types.Type into the pipeline's structural reference.
// Named struct and enum types resolve to identities rather than expanding in
// place, so the conversion never recurses through a cycle.
func (a *Analyzer) typeRef(t types.Type) (schema.TypeRef, error) {
	if cached, ok := a.refCache[t]; ok {
		return cached, nil
	}

	ref, err := a.convertType(t)
	if err != nil {
		return schema.TypeRef{}, err
	}

	a.refCache[t] = ref

	return ref, nil
}

func (a *Analyzer) convertType(t types.Type) (schema.TypeRef, error) {
	switch tt := types.Unalias(t).(type) {
	case *types.Basic:
		kind, ok := basicKind(tt)
		if !ok {
			return schema.TypeRef{}, fmt.Errorf("unsupported basic type %s", tt.Name())
		}
		return schema.PrimitiveRef(kind), nil

	case *types.Named:
		return a.convertNamed(tt)

	case *types.Pointer:
		if _, ok := types.Unalias(tt.Elem()).(*types.Pointer); ok {
			return schema.TypeRef{}, errDoublePointer
		}
		elem, err := a.typeRef(tt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.NullableOf(elem), nil

	case *types.Slice:
		elem, err := a.typeRef(tt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.SliceOf(elem), nil

	case *types.Array:
		elem, err := a.typeRef(tt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.ArrayOf(tt.Len(), elem), nil

	case *types.Map:
		key, err := a.typeRef(tt.Key())
		if err != nil {
			return schema.TypeRef{}, err
		}
		elem, err := a.typeRef(tt.Elem())
		if err != nil {
			return schema.TypeRef{}, err
		}
		return schema.MapOf(key, elem), nil

	default:
		// Interfaces, channels, functions, and anonymous structs carry no
		// projectable data.
		return schema.TypeRef{}, fmt.Errorf("unsupported field type %s", t)
	}
}

// convertNamed resolves a named type to a schema, enum, primitive, or opaque
// reference.
func (a *Analyzer) convertNamed(named *types.Named) (schema.TypeRef, error) {
	obj := named.Obj()
	if obj.Pkg() == nil {
		return schema.TypeRef{}, fmt.Errorf("unsupported builtin type %s", obj.Name())
	}

	pkgPath := obj.Pkg().Path()
	id := schema.SchemaID{PkgPath: pkgPath, Name: obj.Name()}

	if pkgPath == "time" {
		switch obj.Name() {
		case "Time":
			return schema.PrimitiveRef(schema.PrimitiveTime), nil
		case "Duration":
			return schema.PrimitiveRef(schema.PrimitiveDuration), nil
		}
	}

	if enum := a.graph.Enums[id]; enum != nil {
		return schema.EnumRef(enum), nil
	}

	if a.structIDs[id] {
		return schema.SchemaRef(id), nil
	}

	// Generated facets live in their own package, so unexported named types
	// cannot be spelled there.
	if !obj.Exported() {
		return schema.TypeRef{}, fmt.Errorf("unexported type %s", id)
	}

	// Anything else passes through verbatim: external named types, and local
	// named types the pipeline does not model (named slices, constant-free
	// string wrappers).
	return schema.OpaqueRef(opaqueSpelling(id), pkgPath), nil
}

// opaqueSpelling returns the aliased Go spelling for an opaque named type.
func opaqueSpelling(id schema.SchemaID) string {
	if alias := common.PkgAlias(id.PkgPath); alias != "" {
		return alias + "." + id.Name
	}

	return id.Name
}

// basicKind maps go/types basic kinds onto the pipeline's primitive kinds.
func basicKind(b *types.Basic) (schema.PrimitiveKind, bool) {
	switch b.Kind() {
	case types.Int:
		return schema.PrimitiveInt, true
	case types.Int8:
		return schema.PrimitiveInt8, true
	case types.Int16:
		return schema.PrimitiveInt16, true
	case types.Int32:
		return schema.PrimitiveInt32, true
	case types.Int64:
		return schema.PrimitiveInt64, true
	case types.Uint:
		return schema.PrimitiveUint, true
	case types.Uint8:
		return schema.PrimitiveUint8, true
	case types.Uint16:
		return schema.PrimitiveUint16, true
	case types.Uint32:
		return schema.PrimitiveUint32, true
	case types.Uint64:
		return schema.PrimitiveUint64, true
	case types.Float32:
		return schema.PrimitiveFloat32, true
	case types.Float64:
		return schema.PrimitiveFloat64, true
	case types.Bool:
		return schema.PrimitiveBool, true
	case types.String:
		return schema.PrimitiveString, true
	default:
		return 0, false
	}
}
