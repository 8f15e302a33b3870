// Package rules loads YAML facet definition files and compiles them against
// the schema graph into rule sets the resolver consumes.
//
// A facet file declares one or more facets over source schemas. Each
// declaration picks an admission mode (exclude or include), optional
// overrides and conditions, nested facet links, and per-facet knobs such as
// enum conversion, nullability widening, depth bounds, and reverse mapping.
package rules
