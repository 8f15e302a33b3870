// Package analyze provides package loading and source schema extraction.
//
// It uses golang.org/x/tools/go/packages with AST and go/types
// to build the schema.Graph that facet rules project from.
//
// Key steps:
//   - Register named struct types as source schemas
//   - Collect package-level constants into enum definitions
//   - Flatten embedded structs into promoted fields
//   - Decode facet and default struct tags into field flags
package analyze
