package facet

// ProjectionField describes one output field of a facet for query builders.
// Generated <Facet>Projection functions return these in field order,
// restricted to fields admitted into projection.
type ProjectionField struct {
	// Name is the facet field name.
	Name string

	// SourcePath is the dotted path on the source schema feeding the field.
	// Collection hops carry a [] suffix, e.g. "Orders[].Total". Empty for
	// computed fields.
	SourcePath string

	// Expr is the source expression for computed fields, spelled the way
	// the rule file wrote it. Empty for copied fields.
	Expr string
}

// IsComputed reports whether the field derives from an expression rather
// than a source path.
func (p ProjectionField) IsComputed() bool {
	return p.Expr != ""
}
