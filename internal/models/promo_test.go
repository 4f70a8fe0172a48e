package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestPromoCodeStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name  string
		promo PromoCode
		want  string
	}{
		{
			name:  "active within window",
			promo: PromoCode{IsActive: true, StartDate: past, EndDate: future},
			want:  PromoStatusActive,
		},
		{
			name:  "inactive toggle wins over everything",
			promo: PromoCode{IsActive: false, StartDate: past, EndDate: past, UsageLimit: intPtr(10), UsedCount: 10},
			want:  PromoStatusInactive,
		},
		{
			name:  "scheduled before start",
			promo: PromoCode{IsActive: true, StartDate: future, EndDate: future.AddDate(0, 1, 0)},
			want:  PromoStatusScheduled,
		},
		{
			name:  "scheduled wins over exhausted",
			promo: PromoCode{IsActive: true, StartDate: future, EndDate: future.AddDate(0, 1, 0), UsageLimit: intPtr(5), UsedCount: 5},
			want:  PromoStatusScheduled,
		},
		{
			name:  "expired after end",
			promo: PromoCode{IsActive: true, StartDate: past.AddDate(0, -1, 0), EndDate: past},
			want:  PromoStatusExpired,
		},
		{
			name:  "expired wins over exhausted",
			promo: PromoCode{IsActive: true, StartDate: past.AddDate(0, -1, 0), EndDate: past, UsageLimit: intPtr(5), UsedCount: 5},
			want:  PromoStatusExpired,
		},
		{
			name:  "used up at limit",
			promo: PromoCode{IsActive: true, StartDate: past, EndDate: future, UsageLimit: intPtr(100), UsedCount: 100},
			want:  PromoStatusUsedUp,
		},
		{
			name:  "one redemption left is still active",
			promo: PromoCode{IsActive: true, StartDate: past, EndDate: future, UsageLimit: intPtr(100), UsedCount: 99},
			want:  PromoStatusActive,
		},
		{
			name:  "nil limit never exhausts",
			promo: PromoCode{IsActive: true, StartDate: past, EndDate: future, UsedCount: 1000000},
			want:  PromoStatusActive,
		},
		{
			name:  "active on exact start boundary",
			promo: PromoCode{IsActive: true, StartDate: now, EndDate: future},
			want:  PromoStatusActive,
		},
		{
			name:  "active on exact end boundary",
			promo: PromoCode{IsActive: true, StartDate: past, EndDate: now},
			want:  PromoStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.promo.Status(now))
		})
	}
}

func TestNormalizePromoCode(t *testing.T) {
	require.Equal(t, "SAVE20", NormalizePromoCode("  save20 "))
	require.Equal(t, "SAVE20", NormalizePromoCode("Save20"))
	require.Equal(t, "SAVE20", NormalizePromoCode("SAVE20"))
}

func TestPromoCodeDiscountAmount(t *testing.T) {
	tests := []struct {
		name     string
		promo    PromoCode
		subtotal float64
		want     float64
	}{
		{
			name:     "percentage",
			promo:    PromoCode{DiscountType: DiscountPercentage, DiscountValue: 20},
			subtotal: 250,
			want:     50,
		},
		{
			name:     "fixed",
			promo:    PromoCode{DiscountType: DiscountFixed, DiscountValue: 75},
			subtotal: 250,
			want:     75,
		},
		{
			name:     "fixed capped at subtotal",
			promo:    PromoCode{DiscountType: DiscountFixed, DiscountValue: 500},
			subtotal: 250,
			want:     250,
		},
		{
			name:     "zero subtotal",
			promo:    PromoCode{DiscountType: DiscountPercentage, DiscountValue: 20},
			subtotal: 0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, tt.promo.DiscountAmount(tt.subtotal), 0.001)
		})
	}
}
