package rules

import (
	"fmt"

	"facet-generator/internal/common"
	"facet-generator/internal/diagnostic"
	"facet-generator/internal/expr"
	"facet-generator/internal/match"
	"facet-generator/internal/schema"
)

// Compile resolves every facet declaration in a file against the schema
// graph. Declarations that fail compilation are reported in the diagnostics
// and dropped; the remaining rule sets are returned in file order.
func Compile(ff *FacetFile, g *schema.Graph) ([]*RuleSet, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	declared := make(map[string]bool, len(ff.Facets))
	for i := range ff.Facets {
		name := ff.Facets[i].Name
		if name == "" {
			diags.AddError("missing_facet_name",
				fmt.Sprintf("facet declaration %d has no name", i+1), "", "")
			continue
		}
		if declared[name] {
			diags.AddError("duplicate_facet",
				fmt.Sprintf("facet %s declared more than once", name), name, "")
			continue
		}
		declared[name] = true
	}

	facetNames := make([]string, 0, len(declared))
	for i := range ff.Facets {
		if declared[ff.Facets[i].Name] {
			facetNames = append(facetNames, ff.Facets[i].Name)
		}
	}

	var out []*RuleSet
	seen := make(map[string]bool, len(ff.Facets))
	for i := range ff.Facets {
		decl := &ff.Facets[i]
		if !declared[decl.Name] || seen[decl.Name] {
			continue
		}
		seen[decl.Name] = true

		c := &compiler{graph: g, facetNames: facetNames, diags: &diags}
		if rs := c.compile(decl); rs != nil {
			out = append(out, rs)
		}
	}

	return out, diags
}

type compiler struct {
	graph      *schema.Graph
	facetNames []string
	diags      *diagnostic.Diagnostics
	failed     bool
}

func (c *compiler) errorf(code, facet, field, format string, args ...any) {
	c.failed = true
	c.diags.AddError(code, fmt.Sprintf(format, args...), facet, field)
}

func (c *compiler) errorSuggest(code, facet, field, msg, input string, candidates []string) {
	c.failed = true
	c.diags.AddErrorSuggest(code, msg, facet, field,
		match.Suggest(input, candidates, match.DefaultSuggestionLimit))
}

func (c *compiler) compile(decl *FacetDecl) *RuleSet {
	rs := &RuleSet{
		Name:              decl.Name,
		IncludeUnexported: decl.IncludeUnexported,
		Widen:             decl.Nullable,
		MaxDepth:          decl.MaxDepth,
		TrackIdentity:     decl.TrackIdentity,
		Reverse:           decl.Reverse,
		TagCopy:           decl.TagCopy,
		ShapeSignature:    decl.ShapeSignature,
	}

	src, ok := c.graph.ResolveRef(decl.Source)
	if !ok {
		c.sourceError(decl.Name, decl.Source)
		return nil
	}
	rs.Source = src

	// A facet declares exactly one admission mode.
	if len(decl.Exclude) > 0 && len(decl.Include) > 0 {
		c.errorf("conflicting_mode", decl.Name, "",
			"facet %s declares both exclude and include", decl.Name)
		return nil
	}

	rs.Members = make(map[string]bool)
	if len(decl.Include) > 0 {
		rs.Mode = ModeInclude
		for _, name := range decl.Include {
			if src.Field(name) == nil {
				c.errorSuggest("unknown_field", decl.Name, name,
					fmt.Sprintf("include lists unknown field %s on %s", name, src.ID),
					name, src.FieldNames())
				continue
			}
			rs.Members[name] = true
		}
	} else {
		rs.Mode = ModeExclude
		for _, name := range decl.Exclude {
			if src.Field(name) == nil {
				c.errorSuggest("unknown_field", decl.Name, name,
					fmt.Sprintf("exclude lists unknown field %s on %s", name, src.ID),
					name, src.FieldNames())
				continue
			}
			rs.Members[name] = true
		}
	}

	switch decl.EnumAs {
	case "":
		rs.EnumAs = EnumAsNone
	case "string":
		rs.EnumAs = EnumAsString
	case "int":
		rs.EnumAs = EnumAsInt
	default:
		c.errorf("invalid_enum_mode", decl.Name, "",
			"enum_as must be empty, string, or int, got %q", decl.EnumAs)
	}

	if decl.MaxDepth < 0 {
		c.errorf("invalid_max_depth", decl.Name, "",
			"max_depth must not be negative, got %d", decl.MaxDepth)
	}

	c.compileOverrides(decl, rs)
	c.compileConditions(decl, rs)
	c.compileNested(decl, rs)

	if c.failed {
		return nil
	}

	return rs
}

// sourceError distinguishes ambiguous bare names from plain unknowns.
func (c *compiler) sourceError(facet, ref string) {
	if candidates := c.graph.Candidates(ref); common.IsMultiple(candidates) {
		names := make([]string, len(candidates))
		for i, id := range candidates {
			names[i] = id.String()
		}
		c.failed = true
		c.diags.AddErrorSuggest("ambiguous_source",
			fmt.Sprintf("source %s matches multiple schemas", ref), facet, "", names)
		return
	}

	c.errorSuggest("unknown_source", facet, "",
		fmt.Sprintf("unknown source schema %s", ref), ref, c.graph.AllNames())
}

func (c *compiler) compileOverrides(decl *FacetDecl, rs *RuleSet) {
	byField := make(map[string]bool, len(decl.Overrides))

	for i := range decl.Overrides {
		rule := &decl.Overrides[i]
		if rule.Field == "" {
			c.errorf("missing_override_field", decl.Name, "",
				"override %d has no field name", i+1)
			continue
		}
		if byField[rule.Field] {
			c.errorf("duplicate_override", decl.Name, rule.Field,
				"field %s overridden more than once", rule.Field)
			continue
		}
		byField[rule.Field] = true

		src := rule.Source
		if src == "" {
			src = rule.Field
		}

		o := Override{
			Field:        rule.Field,
			SourceText:   src,
			Reversible:   rule.Reversible,
			InProjection: rule.InProjection == nil || *rule.InProjection,
		}

		parsed, err := expr.Parse(src)
		if err != nil {
			c.errorf("invalid_expression", decl.Name, rule.Field,
				"override source: %v", err)
			continue
		}
		o.Expr = parsed

		if name, ok := expr.SoleField(parsed); ok {
			if rs.Source.Field(name) == nil {
				c.errorSuggest("unknown_field", decl.Name, rule.Field,
					fmt.Sprintf("override source names unknown field %s on %s", name, rs.Source.ID),
					name, rs.Source.FieldNames())
				continue
			}
		} else {
			for _, issue := range expr.Check(parsed, rs.Source, c.graph) {
				c.errorf("invalid_expression", decl.Name, rule.Field,
					"override source: %s", issue)
			}
		}

		if rule.Type != "" {
			kind, ok := schema.ParsePrimitiveName(rule.Type)
			if !ok {
				c.errorf("invalid_type_override", decl.Name, rule.Field,
					"type must be a primitive spelling, got %q", rule.Type)
				continue
			}
			o.Type = schema.PrimitiveRef(kind)
			o.HasType = true
		}

		rs.Overrides = append(rs.Overrides, o)
	}
}

func (c *compiler) compileConditions(decl *FacetDecl, rs *RuleSet) {
	known := rs.Source.FieldNames()
	for i := range rs.Overrides {
		known = append(known, rs.Overrides[i].Field)
	}
	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	for i := range decl.Conditions {
		rule := &decl.Conditions[i]
		if rule.Field == "" {
			c.errorf("missing_condition_field", decl.Name, "",
				"condition %d has no field name", i+1)
			continue
		}
		if !knownSet[rule.Field] {
			c.errorSuggest("unknown_field", decl.Name, rule.Field,
				fmt.Sprintf("condition names unknown field %s", rule.Field),
				rule.Field, known)
			continue
		}

		cond := Condition{
			Field:        rule.Field,
			WhenText:     rule.When,
			InProjection: rule.InProjection == nil || *rule.InProjection,
		}
		if rule.Default != nil {
			cond.Default = *rule.Default
			cond.HasDefault = true
		}

		parsed, err := expr.Parse(rule.When)
		if err != nil {
			c.errorf("invalid_expression", decl.Name, rule.Field,
				"condition: %v", err)
			continue
		}
		cond.When = parsed

		for _, issue := range expr.CheckCondition(parsed, rs.Source, c.graph) {
			c.errorf("invalid_expression", decl.Name, rule.Field,
				"condition: %s", issue)
		}

		rs.Conditions = append(rs.Conditions, cond)
	}
}

func (c *compiler) compileNested(decl *FacetDecl, rs *RuleSet) {
	if len(decl.Nested) == 0 {
		return
	}

	rs.Nested = make(map[schema.SchemaID]string, len(decl.Nested))
	for ref, facetName := range decl.Nested {
		target, ok := c.graph.ResolveRef(ref)
		if !ok {
			c.sourceError(decl.Name, ref)
			continue
		}

		found := false
		for _, name := range c.facetNames {
			if name == facetName {
				found = true
				break
			}
		}
		if !found {
			c.errorSuggest("unknown_nested_facet", decl.Name, "",
				fmt.Sprintf("nested facet %s is not declared in this file", facetName),
				facetName, c.facetNames)
			continue
		}

		rs.Nested[target.ID] = facetName
	}
}
