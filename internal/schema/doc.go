// Package schema defines the source-side type model consumed by rule
// compilation, facet resolution and code generation.
//
// It is produced by internal/analyze from loaded Go packages and is the only
// view of source types the rest of the pipeline sees.
//
// Key types:
//   - SchemaID: package import path + type name
//   - TypeRef: structural type reference (primitive/enum/schema/collection/nullable)
//   - SourceField: field with projection-relevant flags and tags
//   - SourceSchema: a struct type eligible as a facet source
//   - Graph: all schemas and enums extracted from loaded packages
package schema
