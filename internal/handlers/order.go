package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/middleware"
	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/services"
	"github.com/example/tindahan/internal/utils"
)

// OrderHandler manages order and checkout endpoints.
type OrderHandler struct {
	db            *gorm.DB
	promos        *services.PromoService
	notifications *services.NotificationService
	logger        zerolog.Logger
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, promos *services.PromoService, notifications *services.NotificationService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{db: db, promos: promos, notifications: notifications, logger: logger}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items         []orderItemRequest `json:"items"`
	PaymentMethod string             `json:"payment_method"`
	PromoCode     string             `json:"promo_code"`
	Source        string             `json:"source"`
	Currency      string             `json:"currency"`
	Notes         string             `json:"notes"`
}

// CreateOrder finalizes a checkout. Items are priced from the catalog, stock
// is decremented, and an optional promo code is redeemed inside the same
// transaction, so an abandoned checkout never consumes a promo slot and a
// failed sale never leaves the counter incremented.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	source := req.Source
	if source != models.OrderSourcePOS && source != models.OrderSourceStorefront {
		source = models.OrderSourceStorefront
	}

	now := time.Now()
	order := models.Order{
		UserID:        userID,
		OrderNumber:   generateOrderNumber(),
		Status:        models.OrderStatusPending,
		Source:        source,
		PlacedAt:      now,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	if order.Currency == "" {
		order.Currency = "PHP"
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		for _, item := range req.Items {
			if item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "item quantity must be positive")
			}

			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
			}

			var product models.Product
			if err := tx.First(&product, "id = ? AND is_active = ?", productID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusUnprocessableEntity, "product not available: "+item.ProductID)
				}
				return err
			}

			// Conditional decrement refuses oversells under concurrency.
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient stock for "+product.Name)
			}

			lineTotal := product.Price * float64(item.Quantity)
			subtotal += lineTotal
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   &product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal,
			})
		}

		order.Subtotal = subtotal
		order.TotalAmount = subtotal

		if code := strings.TrimSpace(req.PromoCode); code != "" {
			promo, err := h.promos.Redeem(tx, code, now)
			if err != nil {
				switch {
				case errors.Is(err, services.ErrPromoNotFound):
					return fiber.NewError(fiber.StatusNotFound, err.Error())
				case errors.Is(err, services.ErrPromoInactive),
					errors.Is(err, services.ErrPromoScheduled),
					errors.Is(err, services.ErrPromoExpired),
					errors.Is(err, services.ErrPromoExhausted):
					return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
				}
				return err
			}
			order.PromoCodeID = &promo.ID
			order.PromoCode = promo.Code
			order.DiscountAmount = promo.DiscountAmount(subtotal)
			order.TotalAmount = subtotal - order.DiscountAmount
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return err
	}

	go func() {
		if err := h.notifications.NotifyOrderPlaced(&order); err != nil {
			h.logger.Error().Err(err).Str("order", order.OrderNumber).Msg("order notification failed")
		}
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":              order.ID,
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"placed_at":       order.PlacedAt,
			"subtotal":        order.Subtotal,
			"discount_amount": order.DiscountAmount,
			"total":           order.TotalAmount,
			"currency":        order.Currency,
		},
	})
}

// ListOrders returns the caller's orders; admins see every order and can
// filter by status and source.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	role, _ := middleware.GetCurrentUserRole(c)
	if role != models.RoleAdmin {
		query = query.Where("user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
			"total_pages":    pg.TotalPages(total),
		},
	})
}

// GetOrder returns a single order; non-admins may only read their own.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	query := h.db.Preload("Items")
	role, _ := middleware.GetCurrentUserRole(c)
	if role != models.RoleAdmin {
		query = query.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus lets admins move an order through its lifecycle.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Status {
	case models.OrderStatusPending, models.OrderStatusPaid,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	result := h.db.Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": req.Status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "order updated"})
}

func generateOrderNumber() string {
	return fmt.Sprintf("#%d", time.Now().UnixNano()%1000000000)
}
