package models

import "github.com/google/uuid"

// Category groups products for catalog browsing and POS filtering.
type Category struct {
	BaseModel
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Product is a sellable catalog item shared by the storefront and POS.
type Product struct {
	BaseModel
	Name          string     `json:"name"`
	SKU           string     `gorm:"uniqueIndex" json:"sku"`
	Barcode       string     `gorm:"index" json:"barcode"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Cost          float64    `json:"cost"`
	StockQuantity int        `json:"stock_quantity"`
	ImageURL      string     `json:"image_url"`
	IsActive      bool       `json:"is_active"`
	CategoryID    *uuid.UUID `gorm:"type:uuid" json:"category_id"`
	Category      *Category  `json:"category,omitempty"`
}

// InStock reports whether the product has remaining stock.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
