package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/models"
)

// SettingsHandler manages the store settings singleton.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

const (
	defaultStoreName     = "Tindahan"
	defaultCurrency      = "PHP"
	defaultReceiptFooter = "Thank you for shopping with us!"
	defaultLowStock      = 5
)

func applySettingsDefaults(settings *models.StoreSettings) {
	if settings == nil {
		return
	}
	if strings.TrimSpace(settings.StoreName) == "" {
		settings.StoreName = defaultStoreName
	}
	if strings.TrimSpace(settings.Currency) == "" {
		settings.Currency = defaultCurrency
	}
	if strings.TrimSpace(settings.ReceiptFooter) == "" {
		settings.ReceiptFooter = defaultReceiptFooter
	}
	if settings.LowStockThreshold <= 0 {
		settings.LowStockThreshold = defaultLowStock
	}
}

// GetSettings returns the store settings with defaults applied. Public:
// the storefront and POS both need the currency and receipt text.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	var settings models.StoreSettings
	err := h.db.First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	applySettingsDefaults(&settings)
	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateSettings upserts the singleton row.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var existing models.StoreSettings
	err := h.db.First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var payload models.StoreSettings
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = existing.ID
	payload.CreatedAt = existing.CreatedAt
	applySettingsDefaults(&payload)

	if err := h.db.Save(&payload).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": payload})
}
