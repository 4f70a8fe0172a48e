package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/services"
	"github.com/example/tindahan/internal/utils"
)

// PromoHandler manages promo code endpoints.
type PromoHandler struct {
	db     *gorm.DB
	promos *services.PromoService
}

// NewPromoHandler constructs PromoHandler.
func NewPromoHandler(db *gorm.DB, promos *services.PromoService) *PromoHandler {
	return &PromoHandler{db: db, promos: promos}
}

// ListPromos returns paginated promo codes with optional search.
func (h *PromoHandler) ListPromos(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.PromoCode{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("code LIKE ?", "%"+models.NormalizePromoCode(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var promos []models.PromoCode
	if err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").Find(&promos).Error; err != nil {
		return err
	}

	now := time.Now()
	data := make([]fiber.Map, 0, len(promos))
	for _, promo := range promos {
		data = append(data, promoResponse(&promo, now))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
			"total_pages":    pg.TotalPages(total),
		},
	})
}

// ListActivePromos returns codes currently inside their active window, for
// display at checkout.
func (h *PromoHandler) ListActivePromos(c *fiber.Ctx) error {
	now := time.Now()
	promos, err := h.promos.ListActive(now)
	if err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(promos))
	for _, promo := range promos {
		data = append(data, promoResponse(&promo, now))
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// GetPromo returns a single promo code by ID.
func (h *PromoHandler) GetPromo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var promo models.PromoCode
	if err := h.db.First(&promo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "promo code not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promoResponse(&promo, time.Now())})
}

type promoRequest struct {
	Code          string    `json:"code"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue float64   `json:"discount_value"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      *bool     `json:"is_active"`
	UsageLimit    *int      `json:"usage_limit"`
}

func (r *promoRequest) validate() error {
	if models.NormalizePromoCode(r.Code) == "" {
		return errors.New("code is required")
	}
	if r.DiscountType != models.DiscountPercentage && r.DiscountType != models.DiscountFixed {
		return errors.New("discount_type must be percentage or fixed")
	}
	if r.DiscountValue < 0 {
		return errors.New("discount_value must not be negative")
	}
	if r.DiscountType == models.DiscountPercentage && r.DiscountValue > 100 {
		return errors.New("percentage discount cannot exceed 100")
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return errors.New("end_date must not precede start_date")
	}
	if r.UsageLimit != nil && *r.UsageLimit < 0 {
		return errors.New("usage_limit must not be negative")
	}
	return nil
}

// CreatePromo persists a new promo code. Code uniqueness is enforced here so
// duplicates surface as a conflict rather than a bare database error.
func (h *PromoHandler) CreatePromo(c *fiber.Ctx) error {
	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	code := models.NormalizePromoCode(req.Code)
	var existing models.PromoCode
	if err := h.db.Where("code = ?", code).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "promo code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	promo := models.PromoCode{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
		UsageLimit:    req.UsageLimit,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	if err := h.db.Create(&promo).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    promoResponse(&promo, time.Now()),
	})
}

// UpdatePromo updates promo fields. UsedCount is never writable through the
// API; it only moves through redemption.
func (h *PromoHandler) UpdatePromo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var promo models.PromoCode
	if err := h.db.First(&promo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "promo code not found")
		}
		return err
	}

	var req promoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	code := models.NormalizePromoCode(req.Code)
	if code != promo.Code {
		var existing models.PromoCode
		if err := h.db.Where("code = ? AND id <> ?", code, id).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "promo code already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	promo.Code = code
	promo.DiscountType = req.DiscountType
	promo.DiscountValue = req.DiscountValue
	promo.StartDate = req.StartDate
	promo.EndDate = req.EndDate
	promo.UsageLimit = req.UsageLimit
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	if err := h.db.Save(&promo).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": promoResponse(&promo, time.Now())})
}

// DeletePromo removes a promo code.
func (h *PromoHandler) DeletePromo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.PromoCode{}, "id = ?", id).Error; err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type promoCodeRequest struct {
	Code string `json:"code"`
}

// ValidatePromo checks a code without mutating state and returns the
// discount fields on success. Public by design: both the POS terminal and
// the storefront call it before a sale is finalized.
func (h *PromoHandler) ValidatePromo(c *fiber.Ctx) error {
	var req promoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	promo, err := h.promos.Validate(req.Code, time.Now())
	if err != nil {
		return promoError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"code":           promo.Code,
			"discount_type":  promo.DiscountType,
			"discount_value": promo.DiscountValue,
		},
	})
}

// IncrementPromo records one redemption of a previously validated code. The
// increment is guarded by the validity predicate, so a code cannot be pushed
// past its usage limit even by concurrent checkouts.
func (h *PromoHandler) IncrementPromo(c *fiber.Ctx) error {
	var req promoCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	promo, err := h.promos.Redeem(nil, req.Code, time.Now())
	if err != nil {
		return promoError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"code":       promo.Code,
			"used_count": promo.UsedCount,
		},
	})
}

func promoResponse(promo *models.PromoCode, now time.Time) fiber.Map {
	return fiber.Map{
		"id":             promo.ID,
		"code":           promo.Code,
		"discount_type":  promo.DiscountType,
		"discount_value": promo.DiscountValue,
		"start_date":     promo.StartDate,
		"end_date":       promo.EndDate,
		"is_active":      promo.IsActive,
		"usage_limit":    promo.UsageLimit,
		"used_count":     promo.UsedCount,
		"status":         promo.Status(now),
		"created_at":     promo.CreatedAt,
		"updated_at":     promo.UpdatedAt,
	}
}

func promoError(err error) error {
	switch {
	case errors.Is(err, services.ErrPromoNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPromoInactive),
		errors.Is(err, services.ErrPromoScheduled),
		errors.Is(err, services.ErrPromoExpired),
		errors.Is(err, services.ErrPromoExhausted):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return err
	}
}
