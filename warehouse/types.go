package warehouse

import (
	"time"
)

// Address represents a physical or billing/shipping address.
type Address struct {
	ID         uint   `gorm:"primaryKey"  json:"id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer represents a warehouse account. Customer and Order reference each
// other, so mapping either one can walk a cycle.
type Customer struct {
	ID        uint   `gorm:"primaryKey"  json:"id" facet:"required,readonly"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `gorm:"uniqueIndex" json:"email" facet:"required"`

	Addresses []Address `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
	Orders    []Order   `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`

	CreatedAt time.Time `json:"created_at" facet:"readonly"`
	UpdatedAt time.Time `json:"updated_at" facet:"readonly"`
}

// Order represents a customer's purchase.
type Order struct {
	ID          uint   `gorm:"primaryKey"    json:"id" facet:"required,readonly"`
	CustomerID  uint   `json:"customer_id"`
	OrderNumber string `gorm:"uniqueIndex"   json:"order_number"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"` // in cents
	Currency    string `gorm:"default:'USD'" json:"currency"`

	// Embedded address snapshot (common denormalization practice)
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	Customer *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID"    json:"items"`

	PlacedAt  *time.Time `json:"placed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" facet:"readonly"`
}

// OrderItem is a line item within an order.
type OrderItem struct {
	ID        uint  `gorm:"primaryKey"  json:"id"`
	OrderID   uint  `json:"order_id"`
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"` // price at time of purchase (in cents)
}

// Category is a self-referential tree, used to exercise bounded-depth mapping.
type Category struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Name     string     `json:"name"`
	Parent   *Category  `json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
