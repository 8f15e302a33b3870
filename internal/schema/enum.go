package schema

// EnumInfo describes a named type over a basic underlying type together with
// the package-level constants declared for it.
type EnumInfo struct {
	ID              SchemaID
	Underlying      PrimitiveKind // PrimitiveString or an integer kind
	HasStringMethod bool          // the type declares String() string
	Members         []EnumMember
}

// EnumMember is a single declared constant of an enum type.
type EnumMember struct {
	Name  string // constant name as declared, e.g. "StatusPending"
	Value string // literal value as written in source, e.g. `"pending"` or "2"
}

// IsStringBacked returns true if the enum's underlying type is string.
func (e *EnumInfo) IsStringBacked() bool {
	return e.Underlying == PrimitiveString
}

// IsIntBacked returns true if the enum's underlying type is an integer.
func (e *EnumInfo) IsIntBacked() bool {
	return e.Underlying.IsInteger()
}

// MemberNames returns the declared constant names in declaration order.
func (e *EnumInfo) MemberNames() []string {
	names := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		names = append(names, m.Name)
	}

	return names
}
