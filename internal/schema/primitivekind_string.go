// Code generated by "stringer -type=PrimitiveKind -output=primitivekind_string.go"; DO NOT EDIT.

package schema

import "strconv"

func _() {
	// An "invalid array index" compiler error signifies that the constant values have changed.
	// Re-run the stringer command to generate them again.
	var x [1]struct{}
	_ = x[PrimitiveInt-1]
	_ = x[PrimitiveInt8-2]
	_ = x[PrimitiveInt16-3]
	_ = x[PrimitiveInt32-4]
	_ = x[PrimitiveInt64-5]
	_ = x[PrimitiveUint-6]
	_ = x[PrimitiveUint8-7]
	_ = x[PrimitiveUint16-8]
	_ = x[PrimitiveUint32-9]
	_ = x[PrimitiveUint64-10]
	_ = x[PrimitiveFloat32-11]
	_ = x[PrimitiveFloat64-12]
	_ = x[PrimitiveBool-13]
	_ = x[PrimitiveString-14]
	_ = x[PrimitiveTime-15]
	_ = x[PrimitiveDuration-16]
}

const _PrimitiveKind_name = "PrimitiveIntPrimitiveInt8PrimitiveInt16PrimitiveInt32PrimitiveInt64PrimitiveUintPrimitiveUint8PrimitiveUint16PrimitiveUint32PrimitiveUint64PrimitiveFloat32PrimitiveFloat64PrimitiveBoolPrimitiveStringPrimitiveTimePrimitiveDuration"

var _PrimitiveKind_index = [...]uint8{0, 12, 25, 39, 53, 67, 80, 94, 109, 124, 139, 155, 171, 184, 199, 212, 229}

func (i PrimitiveKind) String() string {
	i -= 1
	if i < 0 || i >= PrimitiveKind(len(_PrimitiveKind_index)-1) {
		return "PrimitiveKind(" + strconv.FormatInt(int64(i+1), 10) + ")"
	}
	return _PrimitiveKind_name[_PrimitiveKind_index[i]:_PrimitiveKind_index[i+1]]
}
