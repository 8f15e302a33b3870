package resolve

import (
	"fmt"

	"facet-generator/internal/diagnostic"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

// check runs the post-resolution validations over one resolved facet.
// Structural errors were already raised during the pass; this layer covers
// reverse-mapping viability and the advisory findings, which it attaches to
// the schema and merges into the caller's diagnostics.
func (r *Resolver) check(s *ResolvedFacetSchema, rs *rules.RuleSet, diags *diagnostic.Diagnostics) {
	if rs == nil {
		return
	}

	var local diagnostic.Diagnostics

	if rs.Reverse {
		// a required field the facet can never supply rules out a complete
		// reverse mapping; forward generation is unaffected
		for i := range s.Excluded {
			ex := &s.Excluded[i]
			local.AddError("unreversible_required_field",
				fmt.Sprintf("required source field %q is excluded, so the reverse mapping cannot be generated", ex.SourceName),
				s.Name, ex.SourceName)
		}

		switch {
		case !rs.Source.Constructible:
			local.AddWarning("reverse_unavailable",
				fmt.Sprintf("source type %s is not constructible from exported fields; reverse mapping is disabled", s.Source),
				s.Name, "")

		case len(s.Excluded) == 0 && !s.ReverseConstructible:
			local.AddWarning("reverse_unavailable",
				"no field is reversible; reverse mapping is disabled",
				s.Name, "")
		}

		if rs.Widen {
			local.AddWarning("lossy_reverse_mapping",
				"widened fields lose the absent versus zero distinction when written back",
				s.Name, "")
		}

		for i := range s.Fields {
			f := &s.Fields[i]
			if f.Provenance != ProvenanceNestedFacet || !f.Reversible {
				continue
			}

			if t := r.cached(f.TargetFacet); t != nil && !t.ReverseConstructible {
				local.AddWarning("nested_reverse_unavailable",
					fmt.Sprintf("nested facet %q cannot reverse map, so %q is skipped on the way back",
						f.TargetFacet, f.OutputName),
					s.Name, f.OutputName)
			}
		}

		for i := range s.Fields {
			f := &s.Fields[i]
			if f.Source == nil || sourceWritable(f.Source) {
				continue
			}

			local.AddWarning("readonly_reverse_skipped",
				fmt.Sprintf("source field %q is read-only; the reverse mapper leaves it at its zero value", f.SourceName),
				s.Name, f.OutputName)
		}
	}

	if rs.ShapeSignature != "" {
		if sig := schema.Signature(rs.Source); sig != rs.ShapeSignature {
			local.AddWarning("source_shape_changed",
				fmt.Sprintf("source %s no longer matches the recorded shape signature (recorded %s, current %s)",
					s.Source, rs.ShapeSignature, sig),
				s.Name, "")
		}
	}

	r.mu.Lock()
	if !r.checked[s.Name] {
		r.checked[s.Name] = true
		s.Advisories = append([]diagnostic.Diagnostic(nil), local.Warnings...)
	}
	r.mu.Unlock()

	diags.Merge(local)
}
