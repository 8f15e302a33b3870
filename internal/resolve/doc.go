// Package resolve turns compiled rule sets into resolved facet schemas.
//
// Resolution walks each source schema's fields through the admission filter,
// override and condition rules, enum conversion, nullability widening, and
// nested facet linking, producing an ordered field list with per-field
// provenance and reversibility. A checker pass then verifies cross-facet
// invariants such as reverse constructibility and source shape drift.
package resolve
