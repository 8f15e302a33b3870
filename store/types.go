package store

import (
	"time"
)

// Timestamps is embedded in records that track their own lifecycle.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" facet:"readonly"`
	UpdatedAt time.Time `json:"updated_at" facet:"readonly"`
}

// Product represents an individual item available for sale.
// We use int64 for PriceCents (lowest currency unit) to avoid floating-point errors.
type Product struct {
	ID          int64  `json:"id"          facet:"required,readonly"`
	SKU         string `json:"sku"         facet:"required"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Inventory   int    `json:"inventory_count" default:"0"`
	Currency    string `json:"currency"        default:"USD"`

	Timestamps

	rowVersion int // bump on every write, never exposed
}

// Touch records a write against the product's row version.
func (p *Product) Touch() {
	p.rowVersion++
	p.UpdatedAt = time.Now()
}

// Address is a customer's physical address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" default:"US"`
}

// Customer represents the user placing orders.
type Customer struct {
	ID        int64     `json:"id"    facet:"required,readonly"`
	Email     string    `json:"email" facet:"required"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Address   *Address  `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	JoinedAt  time.Time `json:"joined_at" facet:"init"`
}

// Order represents a transaction made by a customer.
type Order struct {
	ID         int64             `json:"id" facet:"required,readonly"`
	CustomerID int64             `json:"customer_id"`
	Status     OrderStatus       `json:"status"`
	Priority   Priority          `json:"priority"`
	ShipVia    ShipVia           `json:"ship_via"`
	TotalCents int64             `json:"total_cents"`
	Items      []OrderItem       `json:"items"`
	Meta       map[string]string `json:"meta,omitempty"`
	OrderedAt  time.Time         `json:"ordered_at"`
}

// OrderItem represents a specific product line within an order.
// It snapshots the price at the time of purchase.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"` // Redundant but useful for history if product name changes
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Priority orders fulfilment work. It carries a String method so facets can
// surface it as text.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ShipVia selects the carrier. Deliberately has no String method.
type ShipVia int

const (
	ShipViaGround ShipVia = iota
	ShipViaAir
	ShipViaSea
)
