package schema

// SchemaID uniquely identifies a named source type by its package path and name.
type SchemaID struct {
	PkgPath string // e.g., "facet-generator/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the SchemaID.
func (id SchemaID) String() string {
	if id.PkgPath == "" {
		return id.Name
	}

	return id.PkgPath + "." + id.Name
}

// IsZero returns true if the SchemaID is empty.
func (id SchemaID) IsZero() bool {
	return id.PkgPath == "" && id.Name == ""
}

// Less orders SchemaIDs by package path, then by name. Used for
// deterministic iteration over schema maps.
func (id SchemaID) Less(other SchemaID) bool {
	if id.PkgPath != other.PkgPath {
		return id.PkgPath < other.PkgPath
	}

	return id.Name < other.Name
}
