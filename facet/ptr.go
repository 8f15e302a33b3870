package facet

// Ptr returns a pointer to the value, for widened field assignments.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the pointed-to value, or the zero value for nil. Reverse
// mappers use it to fold widened fields back onto value-typed sources.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}

	return *p
}
