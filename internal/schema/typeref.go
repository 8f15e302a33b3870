package schema

import (
	"fmt"

	"facet-generator/internal/common"
)

// Kind represents the structural kind of a type reference.
type Kind int

const (
	KindInvalid    Kind = iota
	KindPrimitive       // basic Go type, time.Time, or time.Duration
	KindEnum            // named type over a basic type with declared constants
	KindSchema          // named struct described by a SourceSchema
	KindCollection      // slice, array, or map
	KindNullable        // pointer wrapper around another type
	KindOpaque          // external type passed through verbatim
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindSchema:
		return "schema"
	case KindCollection:
		return "collection"
	case KindNullable:
		return "nullable"
	case KindOpaque:
		return "opaque"
	default:
		return common.UnknownStr
	}
}

// CollectionShape distinguishes the concrete Go collection behind KindCollection.
type CollectionShape int

const (
	ShapeSlice CollectionShape = iota
	ShapeArray
	ShapeMap
)

// String returns a human-readable representation of the CollectionShape.
func (s CollectionShape) String() string {
	switch s {
	case ShapeSlice:
		return "slice"
	case ShapeArray:
		return "array"
	case ShapeMap:
		return "map"
	default:
		return common.UnknownStr
	}
}

// TypeRef is a structural reference to a type as seen by the projection
// pipeline. It is a value type; Elem and Key point at shared immutable nodes.
type TypeRef struct {
	Kind       Kind
	Primitive  PrimitiveKind   // set when Kind == KindPrimitive
	Schema     SchemaID        // set for KindEnum, KindSchema, and named opaque types
	Enum       *EnumInfo       // set when Kind == KindEnum
	Elem       *TypeRef        // element type for KindCollection, inner type for KindNullable
	Key        *TypeRef        // map key type when Shape == ShapeMap
	Shape      CollectionShape // set when Kind == KindCollection
	ArrayLen   int64           // set when Shape == ShapeArray
	OpaqueText string          // verbatim Go spelling for KindOpaque, e.g. "json.RawMessage"
	OpaquePkg  string          // import path backing OpaqueText, may be empty
}

// PrimitiveRef returns a reference to a primitive type.
func PrimitiveRef(k PrimitiveKind) TypeRef {
	return TypeRef{Kind: KindPrimitive, Primitive: k}
}

// SchemaRef returns a reference to a named struct schema.
func SchemaRef(id SchemaID) TypeRef {
	return TypeRef{Kind: KindSchema, Schema: id}
}

// EnumRef returns a reference to an enum type.
func EnumRef(info *EnumInfo) TypeRef {
	return TypeRef{Kind: KindEnum, Schema: info.ID, Enum: info}
}

// SliceOf returns a slice collection reference.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindCollection, Shape: ShapeSlice, Elem: &elem}
}

// ArrayOf returns a fixed-length array collection reference.
func ArrayOf(n int64, elem TypeRef) TypeRef {
	return TypeRef{Kind: KindCollection, Shape: ShapeArray, ArrayLen: n, Elem: &elem}
}

// MapOf returns a map collection reference.
func MapOf(key, elem TypeRef) TypeRef {
	return TypeRef{Kind: KindCollection, Shape: ShapeMap, Key: &key, Elem: &elem}
}

// NullableOf wraps a type in a nullable (pointer) layer. Wrapping an already
// nullable type is a no-op.
func NullableOf(t TypeRef) TypeRef {
	if t.Kind == KindNullable {
		return t
	}

	return TypeRef{Kind: KindNullable, Elem: &t}
}

// OpaqueRef returns a pass-through reference for a type the pipeline does not
// introspect.
func OpaqueRef(goText, pkgPath string) TypeRef {
	return TypeRef{Kind: KindOpaque, OpaqueText: goText, OpaquePkg: pkgPath}
}

// IsValid returns true if the reference describes a real type.
func (t TypeRef) IsValid() bool {
	return t.Kind != KindInvalid
}

// IsNullable returns true if the outermost layer is nullable.
func (t TypeRef) IsNullable() bool {
	return t.Kind == KindNullable
}

// Base strips the nullable layer, if any, and returns the underlying
// reference. Nullable layers never stack; the introspector rejects nested
// pointers.
func (t TypeRef) Base() TypeRef {
	for t.Kind == KindNullable && t.Elem != nil {
		t = *t.Elem
	}

	return t
}

// NestedSchema returns the schema identity of the reference itself (after
// stripping nullability), if it names a struct schema.
func (t TypeRef) NestedSchema() (SchemaID, bool) {
	base := t.Base()
	if base.Kind == KindSchema {
		return base.Schema, true
	}

	return SchemaID{}, false
}

// ElemSchema returns the schema identity of the collection element (after
// stripping nullability on both layers), if the reference is a collection of
// struct schemas.
func (t TypeRef) ElemSchema() (SchemaID, CollectionShape, bool) {
	base := t.Base()
	if base.Kind != KindCollection || base.Elem == nil {
		return SchemaID{}, ShapeSlice, false
	}

	elem := base.Elem.Base()
	if elem.Kind != KindSchema {
		return SchemaID{}, base.Shape, false
	}

	return elem.Schema, base.Shape, true
}

// Equal reports structural equality of two type references. Enum references
// compare by identity, not by member list.
func (t TypeRef) Equal(other TypeRef) bool {
	if t.Kind != other.Kind {
		return false
	}

	switch t.Kind {
	case KindPrimitive:
		return t.Primitive == other.Primitive
	case KindEnum, KindSchema:
		return t.Schema == other.Schema
	case KindNullable:
		return refsEqual(t.Elem, other.Elem)
	case KindCollection:
		if t.Shape != other.Shape || t.ArrayLen != other.ArrayLen {
			return false
		}
		if t.Shape == ShapeMap && !refsEqual(t.Key, other.Key) {
			return false
		}
		return refsEqual(t.Elem, other.Elem)
	case KindOpaque:
		return t.OpaqueText == other.OpaqueText && t.OpaquePkg == other.OpaquePkg
	default:
		return true
	}
}

func refsEqual(a, b *TypeRef) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

// String returns the Go-flavored spelling of the reference, with package
// aliases for named types.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.GoName()

	case KindEnum, KindSchema:
		if alias := common.PkgAlias(t.Schema.PkgPath); alias != "" {
			return alias + "." + t.Schema.Name
		}
		return t.Schema.Name

	case KindNullable:
		if t.Elem == nil {
			return "*<unknown>"
		}
		return "*" + t.Elem.String()

	case KindCollection:
		if t.Elem == nil {
			return "[]<unknown>"
		}
		switch t.Shape {
		case ShapeArray:
			return fmt.Sprintf("[%d]%s", t.ArrayLen, t.Elem.String())
		case ShapeMap:
			key := "<unknown>"
			if t.Key != nil {
				key = t.Key.String()
			}
			return "map[" + key + "]" + t.Elem.String()
		default:
			return "[]" + t.Elem.String()
		}

	case KindOpaque:
		return t.OpaqueText

	default:
		return "<invalid>"
	}
}
