package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeRef_NullableWrapBase(t *testing.T) {
	str := PrimitiveRef(PrimitiveString)
	opt := NullableOf(str)

	assert.True(t, opt.IsNullable())
	assert.False(t, str.IsNullable())

	assert.True(t, opt.Base().Equal(str))
	assert.True(t, str.Base().Equal(str))

	// Wrapping an already nullable type is a no-op.
	again := NullableOf(opt)
	assert.True(t, again.Equal(opt))
}

func TestTypeRef_Equal(t *testing.T) {
	orderID := SchemaID{PkgPath: "facet-generator/store", Name: "Order"}
	itemID := SchemaID{PkgPath: "facet-generator/store", Name: "OrderItem"}

	tests := []struct {
		name string
		a, b TypeRef
		want bool
	}{
		{"same primitive", PrimitiveRef(PrimitiveInt), PrimitiveRef(PrimitiveInt), true},
		{"different primitive", PrimitiveRef(PrimitiveInt), PrimitiveRef(PrimitiveInt64), false},
		{"same schema", SchemaRef(orderID), SchemaRef(orderID), true},
		{"different schema", SchemaRef(orderID), SchemaRef(itemID), false},
		{"nullable vs bare", NullableOf(PrimitiveRef(PrimitiveString)), PrimitiveRef(PrimitiveString), false},
		{"slice of same elem", SliceOf(SchemaRef(itemID)), SliceOf(SchemaRef(itemID)), true},
		{"slice vs array", SliceOf(PrimitiveRef(PrimitiveInt)), ArrayOf(4, PrimitiveRef(PrimitiveInt)), false},
		{"map key mismatch", MapOf(PrimitiveRef(PrimitiveString), PrimitiveRef(PrimitiveInt)), MapOf(PrimitiveRef(PrimitiveInt), PrimitiveRef(PrimitiveInt)), false},
		{"opaque same text", OpaqueRef("json.RawMessage", "encoding/json"), OpaqueRef("json.RawMessage", "encoding/json"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestTypeRef_String(t *testing.T) {
	orderID := SchemaID{PkgPath: "facet-generator/store", Name: "Order"}

	assert.Equal(t, "string", PrimitiveRef(PrimitiveString).String())
	assert.Equal(t, "time.Time", PrimitiveRef(PrimitiveTime).String())
	assert.Equal(t, "store.Order", SchemaRef(orderID).String())
	assert.Equal(t, "*store.Order", NullableOf(SchemaRef(orderID)).String())
	assert.Equal(t, "[]store.Order", SliceOf(SchemaRef(orderID)).String())
	assert.Equal(t, "[4]int", ArrayOf(4, PrimitiveRef(PrimitiveInt)).String())
	assert.Equal(t, "map[string]*store.Order", MapOf(PrimitiveRef(PrimitiveString), NullableOf(SchemaRef(orderID))).String())
	assert.Equal(t, "json.RawMessage", OpaqueRef("json.RawMessage", "encoding/json").String())
}

func TestTypeRef_NestedSchema(t *testing.T) {
	addrID := SchemaID{PkgPath: "facet-generator/store", Name: "Address"}

	id, ok := SchemaRef(addrID).NestedSchema()
	require.True(t, ok)
	assert.Equal(t, addrID, id)

	id, ok = NullableOf(SchemaRef(addrID)).NestedSchema()
	require.True(t, ok, "nullability should not hide the schema")
	assert.Equal(t, addrID, id)

	_, ok = PrimitiveRef(PrimitiveString).NestedSchema()
	assert.False(t, ok)

	_, ok = SliceOf(SchemaRef(addrID)).NestedSchema()
	assert.False(t, ok, "collections are reported by ElemSchema, not NestedSchema")
}

func TestTypeRef_ElemSchema(t *testing.T) {
	itemID := SchemaID{PkgPath: "facet-generator/store", Name: "OrderItem"}

	id, shape, ok := SliceOf(SchemaRef(itemID)).ElemSchema()
	require.True(t, ok)
	assert.Equal(t, itemID, id)
	assert.Equal(t, ShapeSlice, shape)

	id, shape, ok = MapOf(PrimitiveRef(PrimitiveString), NullableOf(SchemaRef(itemID))).ElemSchema()
	require.True(t, ok, "nullable elements still link")
	assert.Equal(t, itemID, id)
	assert.Equal(t, ShapeMap, shape)

	_, _, ok = SliceOf(PrimitiveRef(PrimitiveInt)).ElemSchema()
	assert.False(t, ok)

	_, _, ok = SchemaRef(itemID).ElemSchema()
	assert.False(t, ok)
}

func TestPrimitiveKind_GoName(t *testing.T) {
	assert.Equal(t, "int", PrimitiveInt.GoName())
	assert.Equal(t, "time.Duration", PrimitiveDuration.GoName())
	assert.Equal(t, "time", PrimitiveTime.ImportPath())
	assert.Equal(t, "", PrimitiveBool.ImportPath())
	assert.Equal(t, `""`, PrimitiveString.ZeroLiteral())
	assert.Equal(t, "0", PrimitiveFloat64.ZeroLiteral())
}
