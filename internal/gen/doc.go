// Package gen emits Go source for resolved facet schemas.
//
// Generation uses text/template + go/format for readable,
// allocation-light Go code.
//
// Each facet gets one file holding:
//   - The facet struct with copied tags and propagated defaults
//   - A constructor pair: the exported entry point and the trail-carrying
//     worker nested facets call into
//   - A ToSource reverse mapper when the facet is reverse constructible
//   - A projection listing the source paths the facet reads
//
// Enum parsers without a mechanical implementation land in a shared stub
// file the project completes by hand.
package gen
