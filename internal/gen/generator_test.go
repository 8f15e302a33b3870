package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-generator/internal/resolve"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

func strField(name string) schema.SourceField {
	return schema.SourceField{
		Name:        name,
		Type:        schema.PrimitiveRef(schema.PrimitiveString),
		Exported:    true,
		IsValueType: true,
	}
}

func testGraph() *schema.Graph {
	g := schema.NewGraph()

	const pkg = "facet-generator/store"
	addressID := schema.SchemaID{PkgPath: pkg, Name: "Address"}
	customerID := schema.SchemaID{PkgPath: pkg, Name: "Customer"}
	orderID := schema.SchemaID{PkgPath: pkg, Name: "Order"}
	shipmentID := schema.SchemaID{PkgPath: pkg, Name: "Shipment"}

	status := &schema.EnumInfo{
		ID:         schema.SchemaID{PkgPath: pkg, Name: "OrderStatus"},
		Underlying: schema.PrimitiveString,
		Members: []schema.EnumMember{
			{Name: "StatusPending", Value: `"PENDING"`},
			{Name: "StatusShipped", Value: `"SHIPPED"`},
		},
	}
	priority := &schema.EnumInfo{
		ID:              schema.SchemaID{PkgPath: pkg, Name: "Priority"},
		Underlying:      schema.PrimitiveInt,
		HasStringMethod: true,
		Members: []schema.EnumMember{
			{Name: "PriorityLow", Value: "0"},
			{Name: "PriorityHigh", Value: "2"},
		},
	}
	shipVia := &schema.EnumInfo{
		ID:         schema.SchemaID{PkgPath: pkg, Name: "ShipVia"},
		Underlying: schema.PrimitiveInt,
		Members: []schema.EnumMember{
			{Name: "ShipGround", Value: "0"},
			{Name: "ShipAir", Value: "1"},
		},
	}
	g.Enums[status.ID] = status
	g.Enums[priority.ID] = priority
	g.Enums[shipVia.ID] = shipVia

	address := &schema.SourceSchema{
		ID:            addressID,
		PkgName:       "store",
		Constructible: true,
		Fields: []schema.SourceField{
			strField("Street"),
			strField("City"),
			{
				Name: "Country", Type: schema.PrimitiveRef(schema.PrimitiveString),
				Exported: true, IsValueType: true,
				HasInitializer: true, InitializerText: `"US"`,
			},
		},
	}

	customer := &schema.SourceSchema{
		ID:            customerID,
		PkgName:       "store",
		Constructible: true,
		Fields: []schema.SourceField{
			{Name: "ID", Type: schema.PrimitiveRef(schema.PrimitiveInt64), Exported: true, IsValueType: true, IsRequired: true, IsReadOnly: true},
			{
				Name: "Email", Type: schema.PrimitiveRef(schema.PrimitiveString),
				Exported: true, IsValueType: true, IsRequired: true,
				Tags: []schema.Tag{{Key: "json", Value: "email"}, {Key: "gorm", Value: "uniqueIndex"}},
			},
			strField("FirstName"),
			strField("LastName"),
			strField("Nick"),
			{Name: "IsActive", Type: schema.PrimitiveRef(schema.PrimitiveBool), Exported: true, IsValueType: true},
			{Name: "Address", Type: schema.NullableOf(schema.SchemaRef(addressID)), Exported: true},
			{Name: "Orders", Type: schema.SliceOf(schema.SchemaRef(orderID)), Exported: true},
		},
	}

	order := &schema.SourceSchema{
		ID:            orderID,
		PkgName:       "store",
		Constructible: true,
		Fields: []schema.SourceField{
			{Name: "ID", Type: schema.PrimitiveRef(schema.PrimitiveInt64), Exported: true, IsValueType: true},
			{Name: "Total", Type: schema.PrimitiveRef(schema.PrimitiveInt64), Exported: true, IsValueType: true},
			{Name: "Customer", Type: schema.NullableOf(schema.SchemaRef(customerID)), Exported: true},
		},
	}

	shipment := &schema.SourceSchema{
		ID:            shipmentID,
		PkgName:       "store",
		Constructible: true,
		Fields: []schema.SourceField{
			{Name: "Status", Type: schema.EnumRef(status), Exported: true, IsValueType: true},
			{Name: "AltStatus", Type: schema.NullableOf(schema.EnumRef(status)), Exported: true},
			{Name: "Priority", Type: schema.EnumRef(priority), Exported: true, IsValueType: true},
			{Name: "ShipVia", Type: schema.EnumRef(shipVia), Exported: true, IsValueType: true},
			strField("Note"),
		},
	}

	for _, s := range []*schema.SourceSchema{address, customer, order, shipment} {
		for i := range s.Fields {
			s.Fields[i].Index = i
		}
		g.Schemas[s.ID] = s
	}

	return g
}

// generate resolves the rule file over the test graph and runs the generator,
// requiring both stages to come out clean.
func generate(t *testing.T, src string) []GeneratedFile {
	t.Helper()

	g := testGraph()

	ff, err := rules.Parse([]byte(src))
	require.NoError(t, err)

	sets, diags := rules.Compile(ff, g)
	require.True(t, diags.IsValid(), "compile diagnostics: %v", diags.Error())

	res, diags := resolve.New(g, sets).ResolveAll()
	require.True(t, diags.IsValid(), "resolve diagnostics: %v", diags.Error())

	cfg := DefaultGeneratorConfig()
	cfg.OutputDir = ""

	files, err := NewGenerator(cfg).Generate(res, g)
	require.NoError(t, err)

	return files
}

func TestGenerator_Generate_DirectFacet(t *testing.T) {
	files := generate(t, `
facets:
  - name: AddressCard
    source: store.Address
    exclude: [Country]
`)
	require.Len(t, files, 1)
	assert.Equal(t, "addresscard_facet.go", files[0].Filename)

	content := string(files[0].Content)
	assert.Contains(t, content, "package facets")
	assert.Contains(t, content, "// Code generated by facet-generator. DO NOT EDIT.")
	assert.Contains(t, content, "type AddressCard struct")
	assert.Contains(t, content, "func NewAddressCard(src store.Address) AddressCard")
	assert.Contains(t, content, "facet.NewTrail(0, false)")
	assert.Contains(t, content, "out.Street = src.Street")
	assert.Contains(t, content, "out.City = src.City")
	assert.Contains(t, content, "func AddressCardProjection() []facet.ProjectionField")
	assert.Contains(t, content, `{Name: "Street", SourcePath: "Street"}`)

	// the excluded field leaves no trace, and no reverse mapper was requested
	assert.NotContains(t, content, "Country")
	assert.NotContains(t, content, "ToSource")
}

func TestGenerator_Generate_DefaultTag(t *testing.T) {
	files := generate(t, `
facets:
  - name: AddressFull
    source: store.Address
`)
	require.Len(t, files, 1)

	content := string(files[0].Content)
	assert.Contains(t, content, "`default:\"US\"`")
	assert.Contains(t, content, "out.Country = src.Country")
}

func TestGenerator_Generate_RenameTagsAndReadonlyReverse(t *testing.T) {
	files := generate(t, `
facets:
  - name: CustomerRow
    source: store.Customer
    include: [ID, Email]
    tag_copy: [json, gorm]
    reverse: true
    overrides:
      - field: Mail
        source: Email
`)
	require.Len(t, files, 1)
	assert.Equal(t, "customerrow_facet.go", files[0].Filename)

	content := string(files[0].Content)
	assert.Contains(t, content, "Mail string `json:\"email\" gorm:\"uniqueIndex\"`")
	assert.Contains(t, content, "out.Mail = src.Email")

	// reverse maps the rename back but leaves the read-only key alone
	assert.Contains(t, content, "func (f CustomerRow) ToSource() store.Customer")
	assert.Contains(t, content, "out.Email = f.Mail")
	assert.NotContains(t, content, "out.ID = f.ID")
}

func TestGenerator_Generate_EnumConversions(t *testing.T) {
	files := generate(t, `
facets:
  - name: ShipmentRow
    source: store.Shipment
    enum_as: string
    reverse: true
`)
	require.Len(t, files, 2)

	content := string(files[0].Content)
	assert.Contains(t, content, "out.Status = string(src.Status)")
	assert.Contains(t, content, "if src.AltStatus != nil {")
	assert.Contains(t, content, "out.AltStatus = facet.Ptr(string(*src.AltStatus))")
	assert.Contains(t, content, "out.Priority = src.Priority.String()")
	assert.Contains(t, content, "out.ShipVia = strconv.Itoa(int(src.ShipVia))")

	// the way back: casts where mechanical, a parser stub where not
	assert.Contains(t, content, "out.Status = store.OrderStatus(f.Status)")
	assert.Contains(t, content, "out.Priority = parsePriority(f.Priority)")
	assert.Contains(t, content, "v1, _ := strconv.Atoi(f.ShipVia)")
	assert.Contains(t, content, "out.ShipVia = store.ShipVia(v1)")
	assert.Contains(t, content, `"strconv"`)

	stubs := files[1]
	assert.Equal(t, "missing_enum_parsers.go", stubs.Filename)
	stubContent := string(stubs.Content)
	assert.Contains(t, stubContent, "func parsePriority(v string) store.Priority")
	assert.Contains(t, stubContent, `panic(&facet.EnumParseError{Type: "store.Priority", Value: v})`)
}

func TestGenerator_Generate_NestedAndDepth(t *testing.T) {
	files := generate(t, `
facets:
  - name: OrderView
    source: store.Order
    include: [ID, Customer]
    track_identity: true
    nested:
      store.Customer: CustomerRef
  - name: CustomerRef
    source: store.Customer
    include: [FirstName, Orders]
    max_depth: 1
    nested:
      store.Order: OrderView
  - name: CustomerFull
    source: store.Customer
    include: [FirstName, Orders]
    nested:
      store.Order: OrderView
`)
	require.Len(t, files, 3)

	orderView := string(files[0].Content)
	assert.Contains(t, orderView, "facet.NewTrail(0, true)")
	assert.Contains(t, orderView, "if src.Customer != nil && tr.CanDescend() && facet.Enter(tr, src.Customer) {")
	assert.Contains(t, orderView, "out.Customer = facet.Ptr(newCustomerRef(*src.Customer, tr.Descend()))")
	assert.Contains(t, orderView, `{Name: "Customer", SourcePath: "Customer"}`)

	// beyond the depth bound the field exists but is never populated
	customerRef := string(files[1].Content)
	assert.Contains(t, customerRef, "facet.NewTrail(1, false)")
	assert.Contains(t, customerRef, "[]OrderView")
	assert.Contains(t, customerRef, "// Orders stays zero beyond the depth bound")
	assert.NotContains(t, customerRef, "out.Orders")

	customerFull := string(files[2].Content)
	assert.Contains(t, customerFull, "if src.Orders != nil && tr.CanDescend() {")
	assert.Contains(t, customerFull, "out.Orders = make([]OrderView, 0, len(src.Orders))")
	assert.Contains(t, customerFull, "out.Orders = append(out.Orders, newOrderView(src.Orders[i], tr.Descend()))")
	assert.Contains(t, customerFull, `{Name: "Orders", SourcePath: "Orders[]"}`)
}

func TestGenerator_Generate_ComputedAndConditions(t *testing.T) {
	files := generate(t, `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Nick]
    overrides:
      - field: FullName
        source: 'FirstName + " " + LastName'
    conditions:
      - field: Nick
        when: IsActive
        default: '"anon"'
`)
	require.Len(t, files, 1)

	content := string(files[0].Content)
	assert.Contains(t, content, "// FullName from: FirstName + \" \" + LastName")
	assert.Contains(t, content, `out.FullName = src.FirstName + " " + src.LastName`)
	assert.Contains(t, content, "if src.IsActive {")
	assert.Contains(t, content, "out.Nick = src.Nick")
	assert.Contains(t, content, `out.Nick = "anon"`)
	assert.Contains(t, content, `Expr: "FirstName + \" \" + LastName"`)
}

func TestGenerator_Generate_WidenNullability(t *testing.T) {
	files := generate(t, `
facets:
  - name: CustomerFilter
    source: store.Customer
    include: [ID, Email, FirstName, IsActive]
    nullable: true
    reverse: true
`)
	require.Len(t, files, 1)

	content := string(files[0].Content)
	assert.Contains(t, content, "FirstName *string")
	assert.Contains(t, content, "out.ID = facet.Ptr(src.ID)")
	assert.Contains(t, content, "out.FirstName = facet.Ptr(src.FirstName)")
	assert.Contains(t, content, "out.IsActive = facet.Ptr(src.IsActive)")

	// absent collapses to the zero value on the way back
	assert.Contains(t, content, "out.FirstName = facet.Deref(f.FirstName)")
	assert.NotContains(t, content, "out.ID = f.ID")
}

func TestGenerator_Generate_Determinism(t *testing.T) {
	src := `
facets:
  - name: ShipmentRow
    source: store.Shipment
    enum_as: string
    reverse: true
`
	a := generate(t, src)
	b := generate(t, src)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Filename, b[i].Filename)
		assert.Equal(t, string(a[i].Content), string(b[i].Content))
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()

	files := []GeneratedFile{
		{Filename: "one_facet.go", Content: []byte("package facets\n")},
		{Filename: "two_facet.go", Content: []byte("package facets\n")},
	}

	require.NoError(t, WriteFiles(files, filepath.Join(dir, "out")))

	data, err := os.ReadFile(filepath.Join(dir, "out", "one_facet.go"))
	require.NoError(t, err)
	assert.Equal(t, "package facets\n", string(data))
}
