package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/example/tindahan/internal/models"
)

// Promo rejection reasons. Each maps to a distinct user-facing message.
var (
	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoInactive  = errors.New("promo code is inactive")
	ErrPromoScheduled = errors.New("promo code is not active yet")
	ErrPromoExpired   = errors.New("promo code has expired")
	ErrPromoExhausted = errors.New("promo code usage limit reached")
)

// PromoService implements promo validation and redemption.
type PromoService struct {
	db *gorm.DB
}

// NewPromoService constructs a PromoService.
func NewPromoService(db *gorm.DB) *PromoService {
	return &PromoService{db: db}
}

// Validate checks a code against existence, active flag, date window and
// usage limit, in that order; the first failing check determines the
// rejection reason. It never mutates state.
func (s *PromoService) Validate(code string, now time.Time) (*models.PromoCode, error) {
	normalized := models.NormalizePromoCode(code)
	if normalized == "" {
		return nil, ErrPromoNotFound
	}

	var promo models.PromoCode
	if err := s.db.Where("code = ?", normalized).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}

	if err := checkPromo(&promo, now); err != nil {
		return nil, err
	}
	return &promo, nil
}

// Redeem atomically increments the usage counter of a currently valid code.
// The validity predicate guards the update itself, so two concurrent
// redemptions can never push UsedCount past UsageLimit. On refusal the code
// is re-read to report the precise rejection reason.
func (s *PromoService) Redeem(tx *gorm.DB, code string, now time.Time) (*models.PromoCode, error) {
	if tx == nil {
		tx = s.db
	}

	normalized := models.NormalizePromoCode(code)
	result := tx.Model(&models.PromoCode{}).
		Where("code = ? AND is_active = ?", normalized, true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}

	var promo models.PromoCode
	if err := tx.Where("code = ?", normalized).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}

	if result.RowsAffected == 0 {
		if err := checkPromo(&promo, now); err != nil {
			return nil, err
		}
		// The guard refused but the snapshot looks valid: a concurrent
		// redemption took the last slot between the two statements.
		return nil, ErrPromoExhausted
	}

	return &promo, nil
}

// ListActive returns codes passing the active-flag and date-window filters.
func (s *PromoService) ListActive(now time.Time) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	err := s.db.
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("code asc").
		Find(&promos).Error
	return promos, err
}

func checkPromo(promo *models.PromoCode, now time.Time) error {
	switch {
	case !promo.IsActive:
		return ErrPromoInactive
	case now.Before(promo.StartDate):
		return ErrPromoScheduled
	case now.After(promo.EndDate):
		return ErrPromoExpired
	case promo.Exhausted():
		return ErrPromoExhausted
	}
	return nil
}
