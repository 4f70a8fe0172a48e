package models

// StoreSettings stores store-wide configuration managed via the admin panel.
// There should be only one row (singleton pattern).
type StoreSettings struct {
	BaseModel
	StoreName         string  `json:"store_name"`
	Address           string  `json:"address"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	Currency          string  `json:"currency"`
	ReceiptHeader     string  `json:"receipt_header"`
	ReceiptFooter     string  `json:"receipt_footer"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	TaxRate           float64 `json:"tax_rate"`
}
