package facet

import "fmt"

// EnumParseError reports a string that does not name any member of an enum
// type. Generated enum parse stubs panic with it until the caller replaces
// them with a real parser; hand-written parsers may return it.
type EnumParseError struct {
	// Type is the qualified enum type name, e.g. "store.Priority".
	Type string
	// Value is the input that did not parse.
	Value string
}

func (e *EnumParseError) Error() string {
	return fmt.Sprintf("facet: %q is not a value of %s", e.Value, e.Type)
}
