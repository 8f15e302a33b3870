package schema

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/goccy/go-json"
)

// fieldShape is the canonical projection of one field used for signatures.
// Only properties that change projection behavior participate: names, types,
// optionality flags, and initializers. Field order does not.
type fieldShape struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	ReadOnly bool   `json:"readonly,omitempty"`
	InitOnly bool   `json:"init,omitempty"`
	Default  string `json:"default,omitempty"`
}

type schemaShape struct {
	ID     string       `json:"id"`
	Fields []fieldShape `json:"fields"`
}

// Signature returns a stable fingerprint of the schema's projection-relevant
// shape. Two schemas with the same signature admit the same fields the same
// way; a changed signature means previously resolved facets may be stale.
func Signature(s *SourceSchema) string {
	shape := schemaShape{
		ID:     s.ID.String(),
		Fields: make([]fieldShape, 0, len(s.Fields)),
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		shape.Fields = append(shape.Fields, fieldShape{
			Name:     f.Name,
			Type:     f.Type.String(),
			Required: f.IsRequired,
			ReadOnly: f.IsReadOnly,
			InitOnly: f.IsInitOnly,
			Default:  f.InitializerText,
		})
	}

	sort.Slice(shape.Fields, func(i, j int) bool {
		return shape.Fields[i].Name < shape.Fields[j].Name
	})

	blob, err := json.Marshal(shape)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the signature total anyway.
		blob = []byte(s.ID.String())
	}

	h := fnv.New64a()
	h.Write(blob)

	return fmt.Sprintf("%016x", h.Sum64())
}
