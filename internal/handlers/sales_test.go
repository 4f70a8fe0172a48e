package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tindahan/internal/models"
)

func TestSalesStats(t *testing.T) {
	e := setupEnv(t)
	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)
	token := e.tokenFor(t, admin)

	e.seedProduct(t, "Coffee", 100, 10)

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#1", Status: models.OrderStatusPaid, Source: models.OrderSourcePOS, PlacedAt: now, TotalAmount: 500, Currency: "PHP"}).Error)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#2", Status: models.OrderStatusCompleted, Source: models.OrderSourceStorefront, PlacedAt: yesterday, TotalAmount: 300, Currency: "PHP"}).Error)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#3", Status: models.OrderStatusCancelled, Source: models.OrderSourcePOS, PlacedAt: now, TotalAmount: 900, Currency: "PHP"}).Error)

	e.seedPromo(t, &models.PromoCode{Code: "SAVE20", DiscountType: models.DiscountFixed, DiscountValue: 10, StartDate: now, EndDate: now.AddDate(0, 1, 0), IsActive: true, UsedCount: 4})
	e.seedPromo(t, &models.PromoCode{Code: "EXTRA", DiscountType: models.DiscountFixed, DiscountValue: 10, StartDate: now, EndDate: now.AddDate(0, 1, 0), IsActive: true, UsedCount: 3})

	resp := e.request(t, http.MethodGet, "/api/sales/stats", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			TotalUsers       int64            `json:"total_users"`
			TotalOrders      int64            `json:"total_orders"`
			TotalProducts    int64            `json:"total_products"`
			TotalRevenue     float64          `json:"total_revenue"`
			TodayRevenue     float64          `json:"today_revenue"`
			OrdersByStatus   map[string]int64 `json:"orders_by_status"`
			PromoRedemptions int64            `json:"promo_redemptions"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)

	require.EqualValues(t, 2, body.Data.TotalUsers)
	require.EqualValues(t, 3, body.Data.TotalOrders)
	require.EqualValues(t, 1, body.Data.TotalProducts)
	// Cancelled orders never count toward revenue.
	require.InDelta(t, 800, body.Data.TotalRevenue, 0.001)
	require.InDelta(t, 500, body.Data.TodayRevenue, 0.001)
	require.EqualValues(t, 1, body.Data.OrdersByStatus["paid"])
	require.EqualValues(t, 1, body.Data.OrdersByStatus["cancelled"])
	require.EqualValues(t, 7, body.Data.PromoRedemptions)
}

func TestSalesSummary(t *testing.T) {
	e := setupEnv(t)
	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)
	token := e.tokenFor(t, admin)

	// Midday keeps the dates stable across local zone conversions.
	day1 := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#1", Status: models.OrderStatusPaid, Source: models.OrderSourcePOS, PlacedAt: day1, TotalAmount: 100, Currency: "PHP"}).Error)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#2", Status: models.OrderStatusPaid, Source: models.OrderSourcePOS, PlacedAt: day1.Add(2 * time.Hour), TotalAmount: 150, Currency: "PHP"}).Error)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#3", Status: models.OrderStatusPaid, Source: models.OrderSourcePOS, PlacedAt: day2, TotalAmount: 200, Currency: "PHP"}).Error)
	require.NoError(t, e.db.Create(&models.Order{UserID: alice.ID, OrderNumber: "#4", Status: models.OrderStatusCancelled, Source: models.OrderSourcePOS, PlacedAt: day2, TotalAmount: 999, Currency: "PHP"}).Error)

	resp := e.request(t, http.MethodGet, "/api/sales/summary?from=2024-06-10&to=2024-06-11", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			Date    string  `json:"date"`
			Orders  int64   `json:"orders"`
			Revenue float64 `json:"revenue"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.Data, 2)
	require.Equal(t, "2024-06-10", body.Data[0].Date)
	require.EqualValues(t, 2, body.Data[0].Orders)
	require.InDelta(t, 250, body.Data[0].Revenue, 0.001)
	require.Equal(t, "2024-06-11", body.Data[1].Date)
	require.EqualValues(t, 1, body.Data[1].Orders)
	require.InDelta(t, 200, body.Data[1].Revenue, 0.001)
}

func TestSalesSummaryRejectsBadRange(t *testing.T) {
	e := setupEnv(t)
	token := e.tokenFor(t, e.createUser(t, "boss@example.com", models.RoleAdmin))

	resp := e.request(t, http.MethodGet, "/api/sales/summary?from=junk", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.request(t, http.MethodGet, "/api/sales/summary?from=2024-06-11&to=2024-06-01", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
