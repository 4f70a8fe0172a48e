package models

import (
	"strings"
	"time"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Promo status values, derived rather than stored.
const (
	PromoStatusInactive  = "inactive"
	PromoStatusScheduled = "scheduled"
	PromoStatusExpired   = "expired"
	PromoStatusUsedUp    = "used_up"
	PromoStatusActive    = "active"
)

// PromoCode is a discount code redeemable at checkout. Codes are stored
// upper-cased and matched case-insensitively. UsedCount never exceeds
// UsageLimit when a limit is set, and never decreases.
type PromoCode struct {
	BaseModel
	Code          string    `gorm:"uniqueIndex" json:"code"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue float64   `json:"discount_value"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	UsageLimit    *int      `json:"usage_limit"`
	UsedCount     int       `json:"used_count"`
}

// NormalizePromoCode upper-cases and trims a user-supplied code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Status derives the display status for a promo at the given instant.
// The priority order is authoritative: an inactive-but-expired code reports
// inactive, not expired.
func (p *PromoCode) Status(now time.Time) string {
	switch {
	case !p.IsActive:
		return PromoStatusInactive
	case now.Before(p.StartDate):
		return PromoStatusScheduled
	case now.After(p.EndDate):
		return PromoStatusExpired
	case p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit:
		return PromoStatusUsedUp
	default:
		return PromoStatusActive
	}
}

// Exhausted reports whether the usage limit has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// DiscountAmount computes the discount for a given subtotal. Fixed discounts
// are capped at the subtotal so a total never goes negative.
func (p *PromoCode) DiscountAmount(subtotal float64) float64 {
	var discount float64
	switch p.DiscountType {
	case DiscountPercentage:
		discount = subtotal * p.DiscountValue / 100
	case DiscountFixed:
		discount = p.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
