package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order sources.
const (
	OrderSourcePOS        = "pos"
	OrderSourceStorefront = "storefront"
)

// Order is a finalized sale from either the POS terminal or the storefront.
type Order struct {
	BaseModel
	UserID         uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User           *User       `json:"user,omitempty"`
	OrderNumber    string      `gorm:"uniqueIndex" json:"order_number"`
	Status         string      `json:"status"`
	Source         string      `json:"source"`
	PlacedAt       time.Time   `json:"placed_at"`
	Subtotal       float64     `json:"subtotal"`
	DiscountAmount float64     `json:"discount_amount"`
	TotalAmount    float64     `json:"total_amount"`
	Currency       string      `json:"currency"`
	PaymentMethod  string      `json:"payment_method"`
	PromoCodeID    *uuid.UUID  `gorm:"type:uuid" json:"promo_code_id"`
	PromoCode      string      `json:"promo_code"`
	Notes          string      `json:"notes"`
	Items          []OrderItem `json:"items,omitempty"`
}

// OrderItem is a denormalized line item; product name and price are copied
// at sale time so later catalog edits do not rewrite history.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	LineTotal   float64    `json:"line_total"`
}
