package analyze

import (
	"strconv"
	"strings"

	"facet-generator/internal/schema"
)

// parseTags splits a raw struct tag string into key/value entries,
// preserving declaration order. Unlike reflect.StructTag it can be
// iterated, which tag copy-through needs. Malformed entries end the scan,
// matching reflect's behavior.
func parseTags(raw string) []schema.Tag {
	var out []schema.Tag

	for raw != "" {
		i := 0
		for i < len(raw) && raw[i] == ' ' {
			i++
		}
		raw = raw[i:]
		if raw == "" {
			break
		}

		i = 0
		for i < len(raw) && raw[i] > ' ' && raw[i] != ':' && raw[i] != '"' && raw[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(raw) || raw[i] != ':' || raw[i+1] != '"' {
			break
		}
		key := raw[:i]
		raw = raw[i+1:]

		i = 1
		for i < len(raw) && raw[i] != '"' {
			if raw[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(raw) {
			break
		}
		quoted := raw[:i+1]
		raw = raw[i+1:]

		value, err := strconv.Unquote(quoted)
		if err != nil {
			break
		}

		out = append(out, schema.Tag{Key: key, Value: value})
	}

	return out
}

// facetTagKey marks required/readonly/init fields; defaultTagKey carries a
// field initializer.
const (
	facetTagKey   = "facet"
	defaultTagKey = "default"
)

// decodeFieldTags applies the facet and default tags to a field's flags and
// returns any unrecognized facet tag values.
func decodeFieldTags(f *schema.SourceField) []string {
	var unknown []string

	if raw, ok := f.TagValue(facetTagKey); ok {
		for _, part := range strings.Split(raw, ",") {
			switch strings.TrimSpace(part) {
			case "required":
				f.IsRequired = true
			case "readonly":
				f.IsReadOnly = true
			case "init":
				f.IsInitOnly = true
			case "":
			default:
				unknown = append(unknown, strings.TrimSpace(part))
			}
		}
	}

	if raw, ok := f.TagValue(defaultTagKey); ok {
		f.HasInitializer = true
		f.InitializerText = defaultLiteral(f.Type, raw)
	}

	return unknown
}

// defaultLiteral converts a default tag value into a Go expression. String
// fields get quoted so the tag can stay plain; everything else is taken
// verbatim.
func defaultLiteral(t schema.TypeRef, raw string) string {
	base := t.Base()
	if base.Kind == schema.KindPrimitive && base.Primitive == schema.PrimitiveString {
		return strconv.Quote(raw)
	}

	return raw
}
