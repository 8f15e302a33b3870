package resolve

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-generator/internal/diagnostic"
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
	vaultID := schema.SchemaID{PkgPath: pkg, Name: "Vault"}
	ledgerID := schema.SchemaID{PkgPath: pkg, Name: "Ledger"}

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
			strField("FullName"),
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
			{
				Name: "Priority", Type: schema.EnumRef(priority),
				Exported: true, IsValueType: true,
				HasInitializer: true, InitializerText: "PriorityLow",
			},
			{Name: "ShipVia", Type: schema.EnumRef(shipVia), Exported: true, IsValueType: true},
			strField("Note"),
		},
	}

	vault := &schema.SourceSchema{
		ID:            vaultID,
		PkgName:       "store",
		Constructible: true,
		Fields: []schema.SourceField{
			{Name: "Token", Type: schema.PrimitiveRef(schema.PrimitiveString), Exported: true, IsValueType: true, IsRequired: true},
			strField("Name"),
			{Name: "Ledger", Type: schema.NullableOf(schema.SchemaRef(ledgerID)), Exported: true},
		},
	}

	ledger := &schema.SourceSchema{
		ID:      ledgerID,
		PkgName: "store",
		Fields: []schema.SourceField{
			{Name: "Entries", Type: schema.PrimitiveRef(schema.PrimitiveInt), Exported: true, IsValueType: true},
		},
	}

	for _, s := range []*schema.SourceSchema{address, customer, order, shipment, vault, ledger} {
		for i := range s.Fields {
			s.Fields[i].Index = i
		}
		g.Schemas[s.ID] = s
	}

	return g
}

func compileRules(t *testing.T, g *schema.Graph, src string) []*rules.RuleSet {
	t.Helper()

	ff, err := rules.Parse([]byte(src))
	require.NoError(t, err)

	sets, diags := rules.Compile(ff, g)
	require.True(t, diags.IsValid(), "compile diagnostics: %v", diags.Error())

	return sets
}

func resolveBatch(t *testing.T, src string) (*Result, diagnostic.Diagnostics) {
	t.Helper()

	g := testGraph()
	r := New(g, compileRules(t, g, src))

	return r.ResolveAll()
}

func TestResolveAll_ExcludeDirectCopy(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: AddressView
    source: store.Address
    exclude: [Country]
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())
	require.Len(t, res.Facets, 1)

	s := res.Facet("AddressView")
	require.NotNil(t, s)
	assert.Equal(t, []string{"Street", "City"}, s.FieldNames())
	assert.Empty(t, s.Excluded)
	assert.Equal(t, 0, s.DepthAtResolution)

	for i := range s.Fields {
		f := &s.Fields[i]
		assert.Equal(t, ProvenanceDirectCopy, f.Provenance)
		assert.True(t, f.Reversible)
		assert.True(t, f.InProjection)
		assert.False(t, f.IsUserDeclared)
		assert.Equal(t, 0, f.DepthAtResolution)
	}
}

func TestResolveAll_IncludeRename(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: NameCard
    source: store.Customer
    include: [FirstName, LastName]
    overrides:
      - field: GivenName
        source: FirstName
        reversible: true
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("NameCard")
	require.NotNil(t, s)

	// the rename of an admitted field keeps the field's slot
	assert.Equal(t, []string{"GivenName", "LastName"}, s.FieldNames())

	given := s.Field("GivenName")
	require.NotNil(t, given)
	assert.Equal(t, ProvenanceRenamed, given.Provenance)
	assert.Equal(t, "FirstName", given.SourceName)
	assert.True(t, given.Reversible)
	assert.True(t, given.IsUserDeclared)
	assert.Equal(t, schema.PrimitiveRef(schema.PrimitiveString), given.OutputType)

	last := s.Field("LastName")
	require.NotNil(t, last)
	assert.Equal(t, ProvenanceDirectCopy, last.Provenance)

	// required fields dropped by admission are retained for the checker
	require.Len(t, s.Excluded, 2)
	assert.Equal(t, "ID", s.Excluded[0].SourceName)
	assert.Equal(t, "Email", s.Excluded[1].SourceName)
	assert.Equal(t, ProvenanceExcludedRequired, s.Excluded[0].Provenance)
}

func TestResolve_ComputedAppends(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Display
    source: store.Customer
    include: [FirstName, LastName]
    overrides:
      - field: DisplayName
        source: FirstName + " " + LastName
        in_projection: false
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("Display")
	require.NotNil(t, s)
	assert.Equal(t, []string{"FirstName", "LastName", "DisplayName"}, s.FieldNames())

	f := s.Field("DisplayName")
	require.NotNil(t, f)
	assert.Equal(t, ProvenanceComputed, f.Provenance)
	assert.Nil(t, f.Source)
	assert.Equal(t, `FirstName + " " + LastName`, f.ExprText)
	assert.False(t, f.Reversible)
	assert.False(t, f.InProjection)
	assert.Equal(t, schema.PrimitiveRef(schema.PrimitiveString), f.OutputType)
}

func TestResolve_OverrideResurrectsExcluded(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Profile
    source: store.Customer
    include: [FirstName]
    overrides:
      - field: Handle
        source: Nick
        type: string
        reversible: true
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("Profile")
	require.NotNil(t, s)

	// an override keeps its field even when the source name is excluded,
	// appended after the admitted fields
	assert.Equal(t, []string{"FirstName", "Handle"}, s.FieldNames())

	h := s.Field("Handle")
	require.NotNil(t, h)
	assert.Equal(t, ProvenanceRenamed, h.Provenance)
	assert.Equal(t, "Nick", h.SourceName)
	assert.Equal(t, schema.PrimitiveRef(schema.PrimitiveString), h.OutputType)
	assert.True(t, h.Reversible)
}

func TestResolve_EnumAsString(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: ShipmentRow
    source: store.Shipment
    enum_as: string
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("ShipmentRow")
	require.NotNil(t, s)

	str := schema.PrimitiveRef(schema.PrimitiveString)

	status := s.Field("Status")
	require.NotNil(t, status)
	assert.Equal(t, str, status.OutputType)
	require.NotNil(t, status.EnumSource)
	assert.Equal(t, "OrderStatus", status.EnumSource.ID.Name)
	assert.False(t, status.ReverseNeedsParse)
	assert.True(t, status.Reversible)

	// nullability survives the conversion
	alt := s.Field("AltStatus")
	require.NotNil(t, alt)
	assert.Equal(t, schema.NullableOf(str), alt.OutputType)

	// an int-backed enum with a String method needs a parser on the way back
	prio := s.Field("Priority")
	require.NotNil(t, prio)
	assert.Equal(t, str, prio.OutputType)
	assert.True(t, prio.ReverseNeedsParse)
	assert.Empty(t, prio.DefaultLiteral, "enum conversion voids the source default")

	// without a String method both directions are mechanical
	via := s.Field("ShipVia")
	require.NotNil(t, via)
	assert.Equal(t, str, via.OutputType)
	assert.False(t, via.ReverseNeedsParse)

	note := s.Field("Note")
	require.NotNil(t, note)
	assert.Nil(t, note.EnumSource)
}

func TestResolve_EnumAsInt(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, `
facets:
  - name: BadRow
    source: store.Shipment
    include: [Status]
    enum_as: int
  - name: GoodRow
    source: store.Shipment
    include: [Priority, ShipVia]
    enum_as: int
`))

	res, diags := r.ResolveAll()

	require.Len(t, diags.ByCode("invalid_enum_target"), 1)
	assert.Nil(t, res.Facet("BadRow"))

	// the failing facet does not take its batch siblings down
	s := res.Facet("GoodRow")
	require.NotNil(t, s)
	assert.Equal(t, schema.PrimitiveRef(schema.PrimitiveInt), s.Field("Priority").OutputType)
	assert.Equal(t, schema.PrimitiveRef(schema.PrimitiveInt), s.Field("ShipVia").OutputType)
	assert.False(t, s.Field("Priority").ReverseNeedsParse)
}

func TestResolve_NestedFacets(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Address, Orders]
    nested:
      store.Address: AddressView
      store.Order: OrderRow
  - name: AddressView
    source: store.Address
    include: [City]
  - name: OrderRow
    source: store.Order
    include: [ID, Total]
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())
	require.Len(t, res.Facets, 3)

	card := res.Facet("CustomerCard")
	require.NotNil(t, card)

	addr := card.Field("Address")
	require.NotNil(t, addr)
	assert.Equal(t, ProvenanceNestedFacet, addr.Provenance)
	assert.Equal(t, "AddressView", addr.TargetFacet)
	assert.False(t, addr.IsCollection)
	assert.False(t, addr.Suppressed)
	assert.Equal(t, schema.NullableOf(facetRef("AddressView")), addr.OutputType)

	orders := card.Field("Orders")
	require.NotNil(t, orders)
	assert.Equal(t, "OrderRow", orders.TargetFacet)
	assert.True(t, orders.IsCollection)
	assert.Equal(t, schema.ShapeSlice, orders.Shape)
	assert.Equal(t, schema.SliceOf(facetRef("OrderRow")), orders.OutputType)

	// nested targets resolve once, at first reach inside the parent's pass
	assert.Equal(t, 1, res.Facet("AddressView").DepthAtResolution)
	assert.Equal(t, 1, res.Facet("OrderRow").DepthAtResolution)
}

func TestResolve_MutualNestingTerminates(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Orders]
    nested:
      store.Order: OrderRow
  - name: OrderRow
    source: store.Order
    include: [ID, Customer]
    nested:
      store.Customer: CustomerCard
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())
	require.Len(t, res.Facets, 2)

	card := res.Facet("CustomerCard")
	row := res.Facet("OrderRow")
	require.NotNil(t, card)
	require.NotNil(t, row)

	assert.Equal(t, "OrderRow", card.Field("Orders").TargetFacet)
	assert.Equal(t, "CustomerCard", row.Field("Customer").TargetFacet)
	assert.Equal(t, 0, card.DepthAtResolution)
	assert.Equal(t, 1, row.DepthAtResolution)
}

func TestResolve_DepthSuppression(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: OrderRef
    source: store.Order
    include: [ID, Customer]
    max_depth: 1
    nested:
      store.Customer: CustomerRef
  - name: CustomerRef
    source: store.Customer
    include: [FirstName, Orders]
    max_depth: 1
    nested:
      store.Order: OrderRef
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	ref := res.Facet("OrderRef")
	require.NotNil(t, ref)
	cust := ref.Field("Customer")
	require.NotNil(t, cust)
	assert.False(t, cust.Suppressed)
	assert.Equal(t, schema.NullableOf(facetRef("CustomerRef")), cust.OutputType)

	// CustomerRef resolves at depth 1, so its own nested hop would reach
	// depth 2 and is suppressed
	cref := res.Facet("CustomerRef")
	require.NotNil(t, cref)
	assert.Equal(t, 1, cref.DepthAtResolution)

	orders := cref.Field("Orders")
	require.NotNil(t, orders)
	assert.Equal(t, ProvenanceNestedFacet, orders.Provenance)
	assert.True(t, orders.Suppressed)
	assert.False(t, orders.Reversible)
	assert.Equal(t, schema.SliceOf(facetRef("OrderRef")), orders.OutputType)
	assert.Equal(t, 1, orders.DepthAtResolution)

	require.NotEmpty(t, diags.ByCode("depth_suppressed"))
}

func TestResolve_WidenNullability(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: CustomerFilter
    source: store.Customer
    include: [FirstName, IsActive, Address, Orders]
    nullable: true
    nested:
      store.Address: AddressView
      store.Order: OrderRow
  - name: AddressView
    source: store.Address
    nullable: true
  - name: OrderRow
    source: store.Order
    include: [ID]
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("CustomerFilter")
	require.NotNil(t, s)

	assert.Equal(t, schema.NullableOf(schema.PrimitiveRef(schema.PrimitiveString)), s.Field("FirstName").OutputType)
	assert.Equal(t, schema.NullableOf(schema.PrimitiveRef(schema.PrimitiveBool)), s.Field("IsActive").OutputType)
	assert.Equal(t, schema.NullableOf(facetRef("AddressView")), s.Field("Address").OutputType)

	// slices already have an absent state and stay unwrapped
	assert.Equal(t, schema.SliceOf(facetRef("OrderRow")), s.Field("Orders").OutputType)

	// widening drops propagated defaults
	av := res.Facet("AddressView")
	require.NotNil(t, av)
	assert.Equal(t, schema.NullableOf(schema.PrimitiveRef(schema.PrimitiveString)), av.Field("Country").OutputType)
	for i := range av.Fields {
		assert.Empty(t, av.Fields[i].DefaultLiteral)
	}
}

func TestResolve_DefaultPropagation(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: AddressFull
    source: store.Address
  - name: AddressRenamed
    source: store.Address
    include: [Country]
    overrides:
      - field: Land
        source: Country
        reversible: true
  - name: AddressRetyped
    source: store.Address
    include: [Country]
    overrides:
      - field: Country
        source: Country
        type: string
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	assert.Equal(t, `"US"`, res.Facet("AddressFull").Field("Country").DefaultLiteral)

	// a plain rename keeps the literal, an explicit type override voids it
	assert.Equal(t, `"US"`, res.Facet("AddressRenamed").Field("Land").DefaultLiteral)
	assert.Empty(t, res.Facet("AddressRetyped").Field("Country").DefaultLiteral)
}

func TestResolve_Conditions(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Contact
    source: store.Customer
    include: [Email, FirstName, IsActive]
    overrides:
      - field: GivenName
        source: FirstName
    conditions:
      - field: Email
        when: IsActive
        default: '""'
        in_projection: false
      - field: GivenName
        when: Email != ""
      - field: LastName
        when: IsActive
`)
	s := res.Facet("Contact")
	require.NotNil(t, s)

	email := s.Field("Email")
	require.NotNil(t, email)
	require.Len(t, email.Conditions, 1)
	assert.Equal(t, "IsActive", email.Conditions[0].WhenText)
	assert.True(t, email.Conditions[0].HasDefault)
	assert.Equal(t, `""`, email.Conditions[0].Default)

	// a condition outside the projection pulls its field out too
	assert.False(t, email.InProjection)

	// conditions bind to the renamed output name
	given := s.Field("GivenName")
	require.NotNil(t, given)
	require.Len(t, given.Conditions, 1)
	assert.Equal(t, `Email != ""`, given.Conditions[0].WhenText)
	assert.True(t, given.InProjection)

	// LastName never materializes, so its condition dangles
	require.Len(t, diags.ByCode("condition_without_field"), 1)
}

func TestResolve_UserDeclaredWinsCollision(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Display
    source: store.Customer
    include: [FirstName, FullName]
    overrides:
      - field: FullName
        source: FirstName + " " + LastName
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	s := res.Facet("Display")
	require.NotNil(t, s)

	// the computed field replaces the auto-admitted one in place, silently
	assert.Equal(t, []string{"FirstName", "FullName"}, s.FieldNames())

	full := s.Field("FullName")
	require.NotNil(t, full)
	assert.Equal(t, ProvenanceComputed, full.Provenance)
	assert.True(t, full.IsUserDeclared)
}

func TestResolve_DuplicateFieldError(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, `
facets:
  - name: Broken
    source: store.Customer
    include: [LastName]
    overrides:
      - field: LastName
        source: Nick
  - name: Fine
    source: store.Address
    include: [City]
`))

	res, diags := r.ResolveAll()

	errs := diags.ByCode("duplicate_field")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, `"LastName"`)
	assert.Contains(t, errs[0].Message, `"Nick"`)
	assert.Equal(t, "Broken", errs[0].Facet)

	assert.Nil(t, res.Facet("Broken"))
	assert.NotNil(t, res.Facet("Fine"))
}

func TestResolve_UnreversibleRequired(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: VaultCard
    source: store.Vault
    exclude: [Token, Ledger]
    reverse: true
`)
	errs := diags.ByCode("unreversible_required_field")
	require.Len(t, errs, 1)
	assert.Equal(t, "Token", errs[0].Field)

	// forward generation is unaffected, only the reverse side is disabled
	s := res.Facet("VaultCard")
	require.NotNil(t, s)
	assert.Equal(t, []string{"Name"}, s.FieldNames())
	assert.True(t, s.ReverseRequested)
	assert.False(t, s.ReverseConstructible)
	require.Len(t, s.Excluded, 1)
	assert.Equal(t, "Token", s.Excluded[0].SourceName)
}

func TestResolve_ReverseAvailability(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: VaultFull
    source: store.Vault
    include: [Token, Name]
    reverse: true
  - name: LedgerView
    source: store.Ledger
    reverse: true
  - name: Computed
    source: store.Address
    exclude: [Street, City, Country]
    overrides:
      - field: Line
        source: Street + " " + City
    reverse: true
`)
	assert.True(t, res.Facet("VaultFull").ReverseConstructible)

	// Ledger is not constructible from exported fields
	lv := res.Facet("LedgerView")
	require.NotNil(t, lv)
	assert.False(t, lv.ReverseConstructible)

	// a facet of only computed fields has nothing to write back
	cp := res.Facet("Computed")
	require.NotNil(t, cp)
	assert.False(t, cp.ReverseConstructible)

	require.Len(t, diags.ByCode("reverse_unavailable"), 2)
}

func TestResolve_ReadonlySkippedOnReverse(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: CustomerRow
    source: store.Customer
    include: [ID, Email, FirstName]
    reverse: true
`)
	s := res.Facet("CustomerRow")
	require.NotNil(t, s)

	id := s.Field("ID")
	require.NotNil(t, id)
	assert.False(t, id.Reversible, "read-only source fields cannot be written back")
	assert.True(t, s.Field("Email").Reversible)
	assert.True(t, s.Field("FirstName").Reversible)

	warns := diags.ByCode("readonly_reverse_skipped")
	require.Len(t, warns, 1)
	assert.Equal(t, "ID", warns[0].Field)
	assert.Contains(t, warns[0].Message, `"ID"`)

	// the remaining writable fields keep the reverse mapping alive
	assert.True(t, s.ReverseConstructible)
}

func TestResolve_NestedReverse(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: VaultCard
    source: store.Vault
    include: [Token, Name, Ledger]
    reverse: true
    nested:
      store.Ledger: LedgerView
  - name: LedgerView
    source: store.Ledger
    reverse: true
`)
	s := res.Facet("VaultCard")
	require.NotNil(t, s)

	led := s.Field("Ledger")
	require.NotNil(t, led)
	assert.True(t, led.Reversible, "nested field inherits the target's reverse request")

	// the target requested reverse but cannot construct its source
	warns := diags.ByCode("nested_reverse_unavailable")
	require.Len(t, warns, 1)
	assert.Equal(t, "Ledger", warns[0].Field)
}

func TestResolve_NestedSourceMismatch(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, `
facets:
  - name: Broken
    source: store.Customer
    include: [Address]
    nested:
      store.Address: OrderRow
  - name: OrderRow
    source: store.Order
    include: [ID]
`))

	res, diags := r.ResolveAll()

	require.NotEmpty(t, diags.ByCode("nested_source_mismatch"))
	assert.Nil(t, res.Facet("Broken"))
	assert.NotNil(t, res.Facet("OrderRow"))
}

func TestResolve_LossyReverseAdvisory(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Filter
    source: store.Address
    nullable: true
    reverse: true
`)
	require.Len(t, diags.ByCode("lossy_reverse_mapping"), 1)

	s := res.Facet("Filter")
	require.NotNil(t, s)
	require.NotEmpty(t, s.Advisories)
	assert.Equal(t, "lossy_reverse_mapping", s.Advisories[0].Code)
}

func TestResolve_ShapeSignature(t *testing.T) {
	g := testGraph()
	current := schema.Signature(g.Schema(schema.SchemaID{PkgPath: "facet-generator/store", Name: "Address"}))

	r := New(g, compileRules(t, g, `
facets:
  - name: Stale
    source: store.Address
    shape_signature: deadbeef
  - name: Fresh
    source: store.Address
    shape_signature: `+current+`
`))

	_, diags := r.ResolveAll()

	warns := diags.ByCode("source_shape_changed")
	require.Len(t, warns, 1)
	assert.Equal(t, "Stale", warns[0].Facet)
	assert.Contains(t, warns[0].Message, current)
}

func TestResolve_TagCopy(t *testing.T) {
	res, diags := resolveBatch(t, `
facets:
  - name: Tagged
    source: store.Customer
    include: [Email]
    tag_copy: [json]
  - name: Bare
    source: store.Customer
    include: [Email]
`)
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	tagged := res.Facet("Tagged").Field("Email")
	require.NotNil(t, tagged)
	assert.Equal(t, []schema.Tag{{Key: "json", Value: "email"}}, tagged.Tags)

	bare := res.Facet("Bare").Field("Email")
	require.NotNil(t, bare)
	assert.Empty(t, bare.Tags)
}

func TestResolve_Determinism(t *testing.T) {
	const src = `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Address, Orders]
    nested:
      store.Address: AddressView
      store.Order: OrderRow
  - name: AddressView
    source: store.Address
    nullable: true
  - name: OrderRow
    source: store.Order
    include: [ID, Customer]
    nested:
      store.Customer: CustomerCard
`

	g1 := testGraph()
	r1 := New(g1, compileRules(t, g1, src))
	res1, diags1 := r1.ResolveAll()
	require.True(t, diags1.IsValid())

	g2 := testGraph()
	r2 := New(g2, compileRules(t, g2, src))
	res2, diags2 := r2.ResolveAll()
	require.True(t, diags2.IsValid())

	assert.Equal(t, BuildManifest(res1, g1), BuildManifest(res2, g2))

	// a second pass over the same resolver reuses the cached schemas
	res3, _ := r1.ResolveAll()
	for i := range res1.Facets {
		assert.Same(t, res1.Facets[i], res3.Facets[i])
	}
}

func TestResolve_DiamondSharesSchema(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Address]
    nested:
      store.Address: AddressView
  - name: CustomerFull
    source: store.Customer
    include: [Email, Address]
    nested:
      store.Address: AddressView
  - name: AddressView
    source: store.Address
    include: [City]
`))

	res, diags := r.ResolveAll()
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	shared := res.Facet("AddressView")
	require.NotNil(t, shared)
	assert.Equal(t, 1, shared.DepthAtResolution)

	again, diags := r.Resolve("AddressView")
	require.True(t, diags.IsValid())
	assert.Same(t, shared, again)
}

func TestResolveAll_Concurrent(t *testing.T) {
	const src = `
facets:
  - name: CustomerCard
    source: store.Customer
    include: [FirstName, Address, Orders]
    nested:
      store.Address: AddressView
      store.Order: OrderRow
  - name: AddressView
    source: store.Address
    nullable: true
  - name: OrderRow
    source: store.Order
    include: [ID, Customer]
    nested:
      store.Customer: CustomerCard
`

	g := testGraph()
	seq := New(g, compileRules(t, g, src))
	want, diags := seq.ResolveAll()
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())

	g2 := testGraph()
	r := New(g2, compileRules(t, g2, src))

	results := make([]*Result, 8)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, d := r.ResolveAll()
			assert.True(t, d.IsValid())
			results[i] = res
		}()
	}
	wg.Wait()

	wantManifest := BuildManifest(want, g)
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, wantManifest, BuildManifest(res, g2))

		// every pass hands out the schemas published by the first finisher
		for _, name := range res.Names() {
			assert.Same(t, results[0].Facet(name), res.Facet(name))
		}
	}
}

func TestResolve_SingleFacet(t *testing.T) {
	g := testGraph()
	r := New(g, compileRules(t, g, `
facets:
  - name: AddressView
    source: store.Address
    include: [City]
`))

	s, diags := r.Resolve("AddressView")
	require.True(t, diags.IsValid(), "diagnostics: %v", diags.Error())
	require.NotNil(t, s)
	assert.Equal(t, []string{"City"}, s.FieldNames())

	missing, diags := r.Resolve("Nope")
	assert.Nil(t, missing)
	require.NotEmpty(t, diags.ByCode("unknown_facet"))
}
