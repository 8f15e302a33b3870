package schema

//go:generate go tool stringer -type=PrimitiveKind -output=primitivekind_string.go

// PrimitiveKind identifies a leaf type that fields can carry directly:
// Go basic types plus time.Time and time.Duration, which the generator
// treats as copyable scalars.
type PrimitiveKind int

const (
	_ PrimitiveKind = iota // skip zero value, use it as a default (invalid) value for PrimitiveKind

	PrimitiveInt
	PrimitiveInt8
	PrimitiveInt16
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveUint
	PrimitiveUint8
	PrimitiveUint16
	PrimitiveUint32
	PrimitiveUint64
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveBool
	PrimitiveString
	PrimitiveTime
	PrimitiveDuration

	// PrimitiveTotal is a constant that represents the total number of primitive kinds defined
	PrimitiveTotal = int(iota)
)

func (k PrimitiveKind) IsNumber() bool {
	switch k {
	default:
		return false
	case PrimitiveInt, PrimitiveInt8, PrimitiveInt16, PrimitiveInt32, PrimitiveInt64,
		PrimitiveUint, PrimitiveUint8, PrimitiveUint16, PrimitiveUint32, PrimitiveUint64,
		PrimitiveFloat32, PrimitiveFloat64:
		return true
	}
}

func (k PrimitiveKind) IsInteger() bool {
	switch k {
	default:
		return false
	case PrimitiveInt, PrimitiveInt8, PrimitiveInt16, PrimitiveInt32, PrimitiveInt64,
		PrimitiveUint, PrimitiveUint8, PrimitiveUint16, PrimitiveUint32, PrimitiveUint64:
		return true
	}
}

func (k PrimitiveKind) IsFloat() bool {
	switch k {
	default:
		return false
	case PrimitiveFloat32, PrimitiveFloat64:
		return true
	}
}

// GoName returns the Go source spelling of the primitive type.
func (k PrimitiveKind) GoName() string {
	switch k {
	case PrimitiveInt:
		return "int"
	case PrimitiveInt8:
		return "int8"
	case PrimitiveInt16:
		return "int16"
	case PrimitiveInt32:
		return "int32"
	case PrimitiveInt64:
		return "int64"
	case PrimitiveUint:
		return "uint"
	case PrimitiveUint8:
		return "uint8"
	case PrimitiveUint16:
		return "uint16"
	case PrimitiveUint32:
		return "uint32"
	case PrimitiveUint64:
		return "uint64"
	case PrimitiveFloat32:
		return "float32"
	case PrimitiveFloat64:
		return "float64"
	case PrimitiveBool:
		return "bool"
	case PrimitiveString:
		return "string"
	case PrimitiveTime:
		return "time.Time"
	case PrimitiveDuration:
		return "time.Duration"
	default:
		return "<invalid>"
	}
}

// ZeroLiteral returns a Go expression for the zero value of the primitive.
func (k PrimitiveKind) ZeroLiteral() string {
	switch {
	case k == PrimitiveBool:
		return "false"
	case k == PrimitiveString:
		return `""`
	case k == PrimitiveTime:
		return "time.Time{}"
	case k.IsNumber() || k == PrimitiveDuration:
		return "0"
	default:
		return "<invalid>"
	}
}

// ImportPath returns the import path required to spell the primitive in Go
// source, or empty string for builtin types.
func (k PrimitiveKind) ImportPath() string {
	switch k {
	case PrimitiveTime, PrimitiveDuration:
		return "time"
	default:
		return ""
	}
}

// ParsePrimitiveName maps a Go type spelling back to its primitive kind.
// Used for explicit type overrides in rule files.
func ParsePrimitiveName(name string) (PrimitiveKind, bool) {
	for k := PrimitiveKind(1); int(k) < PrimitiveTotal; k++ {
		if k.GoName() == name {
			return k, true
		}
	}

	return 0, false
}
