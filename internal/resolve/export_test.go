package resolve

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const exportFixture = `
facets:
  - name: NameCard
    source: store.Customer
    include: [FirstName, LastName, IsActive]
    reverse: true
    overrides:
      - field: GivenName
        source: FirstName
        reversible: true
      - field: DisplayName
        source: FirstName + " " + LastName
    conditions:
      - field: GivenName
        when: IsActive
        default: '""'
`

func TestBuildManifest(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, exportFixture))
	res, _ := r.ResolveAll()
	require.Len(t, res.Facets, 1)

	m := BuildManifest(res, g)
	require.Len(t, m.Facets, 1)

	fs := m.Facets[0]
	assert.Equal(t, "NameCard", fs.Name)
	assert.Equal(t, res.Facets[0].Source.String(), fs.Source)
	assert.NotEmpty(t, fs.SourceSignature)
	assert.True(t, fs.Reverse)
	assert.False(t, fs.ReverseOK)
	assert.Equal(t, []string{"ID", "Email"}, fs.Excluded)

	require.Len(t, fs.Fields, 4)
	byName := make(map[string]FieldSummary, len(fs.Fields))
	for _, f := range fs.Fields {
		byName[f.Name] = f
	}

	given := byName["GivenName"]
	assert.Equal(t, "renamed", given.Provenance)
	assert.Equal(t, "FirstName", given.Source)
	assert.Equal(t, []string{`IsActive else ""`}, given.Conditions)

	disp := byName["DisplayName"]
	assert.Equal(t, "computed", disp.Provenance)
	assert.Equal(t, `FirstName + " " + LastName`, disp.Expr)
	assert.Empty(t, disp.Source)
}

func TestBuildManifest_NilGraphSkipsSignatures(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, exportFixture))
	res, _ := r.ResolveAll()

	m := BuildManifest(res, nil)
	require.Len(t, m.Facets, 1)
	assert.Empty(t, m.Facets[0].SourceSignature)
}

func TestExportYAMLAndJSON(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, exportFixture))
	res, _ := r.ResolveAll()

	out, err := ExportYAML(res, g)
	require.NoError(t, err)

	var roundtrip Manifest
	require.NoError(t, yaml.Unmarshal(out, &roundtrip))
	require.Len(t, roundtrip.Facets, 1)
	assert.Equal(t, "NameCard", roundtrip.Facets[0].Name)

	blob, err := ExportJSON(res, g)
	require.NoError(t, err)

	var decoded Manifest
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, BuildManifest(res, g).Facets, decoded.Facets)
}

func TestFormatReport(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, exportFixture))
	res, _ := r.ResolveAll()

	report := FormatReport(res)

	assert.Contains(t, report, "=== NameCard")
	assert.Contains(t, report, "GivenName")
	assert.Contains(t, report, "renamed from FirstName")
	assert.Contains(t, report, `computed: FirstName + " " + LastName`)
	assert.Contains(t, report, "✗ ID: required source field excluded")
	assert.Contains(t, report, "reverse mapping: requested but disabled")

	// one status line per output field
	assert.Equal(t, 4, strings.Count(report, "✓"))
}
