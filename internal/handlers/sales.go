package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/models"
)

// SalesHandler serves the admin dashboard aggregates.
type SalesHandler struct {
	db *gorm.DB
}

// NewSalesHandler constructs SalesHandler.
func NewSalesHandler(db *gorm.DB) *SalesHandler {
	return &SalesHandler{db: db}
}

// Stats returns aggregate statistics for the admin dashboard.
func (h *SalesHandler) Stats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ? AND placed_at >= ?", models.OrderStatusCancelled, startOfDay).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	var promoRedemptions int64
	if err := h.db.Model(&models.PromoCode{}).
		Select("COALESCE(SUM(used_count), 0)").
		Scan(&promoRedemptions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":       totalUsers,
			"total_orders":      totalOrders,
			"total_products":    totalProducts,
			"total_revenue":     totalRevenue,
			"today_revenue":     todayRevenue,
			"orders_by_status":  ordersByStatus,
			"promo_redemptions": promoRedemptions,
		},
	})
}

// Summary returns per-day revenue buckets for a date range. Defaults to the
// last 30 days when no range is given.
func (h *SalesHandler) Summary(c *fiber.Ctx) error {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		}
		// Include the whole closing day.
		to = parsed.AddDate(0, 0, 1)
	}

	if to.Before(from) {
		return fiber.NewError(fiber.StatusBadRequest, "to must not precede from")
	}

	var orders []models.Order
	if err := h.db.
		Where("status != ? AND placed_at >= ? AND placed_at < ?", models.OrderStatusCancelled, from, to).
		Order("placed_at asc").
		Find(&orders).Error; err != nil {
		return err
	}

	type bucket struct {
		Date    string  `json:"date"`
		Orders  int64   `json:"orders"`
		Revenue float64 `json:"revenue"`
	}

	buckets := make(map[string]*bucket)
	var days []string
	for _, order := range orders {
		day := order.PlacedAt.Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{Date: day}
			buckets[day] = b
			days = append(days, day)
		}
		b.Orders++
		b.Revenue += order.TotalAmount
	}

	data := make([]bucket, 0, len(days))
	for _, day := range days {
		data = append(data, *buckets[day])
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}
