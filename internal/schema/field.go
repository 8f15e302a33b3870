package schema

// Tag is a single parsed struct tag entry, order-preserving.
type Tag struct {
	Key   string
	Value string
}

// SourceField describes one field of a source schema, including the
// projection-relevant flags decoded from its struct tags.
type SourceField struct {
	Name     string
	Type     TypeRef
	Exported bool
	Promoted bool // promoted from an embedded struct
	Index    int  // declaration index after embedding promotion

	IsRequired  bool // facet:"required"
	IsReadOnly  bool // facet:"readonly"
	IsInitOnly  bool // facet:"init"
	IsValueType bool // type has value semantics (not nullable, collection, or schema)

	HasInitializer  bool
	InitializerText string // verbatim Go expression from the default tag

	Tags []Tag // all parsed tag entries in declaration order
}

// TagValue returns the value of the tag with the given key.
func (f *SourceField) TagValue(key string) (string, bool) {
	for _, t := range f.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}

	return "", false
}

// FilterTags returns the field's tags restricted to the given keys,
// preserving declaration order.
func (f *SourceField) FilterTags(keys []string) []Tag {
	if len(keys) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}

	var out []Tag
	for _, t := range f.Tags {
		if _, ok := allowed[t.Key]; ok {
			out = append(out, t)
		}
	}

	return out
}
