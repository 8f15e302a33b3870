// Package diagnostic provides structured errors, warnings, and advisory
// notes accumulated during facet resolution.
//
// Key capabilities:
//   - Hard errors that fail a facet (conflicting modes, duplicate fields)
//   - Reverse-mapping advisories (lossy or unreversible projections)
//   - Unknown reference reports with did-you-mean suggestions
//   - Attribution by facet name and field name
package diagnostic
