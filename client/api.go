package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// PromoDiscount is the discount returned by a successful validation.
type PromoDiscount struct {
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

// ApplyTo computes the discounted total for a subtotal.
func (d *PromoDiscount) ApplyTo(subtotal float64) float64 {
	var discount float64
	switch d.DiscountType {
	case "percentage":
		discount = subtotal * d.DiscountValue / 100
	case "fixed":
		discount = d.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return total
}

// ActivePromos lists the codes currently inside their active window, for
// display at checkout.
func (c *Client) ActivePromos(ctx context.Context) ([]PromoDiscount, error) {
	var resp struct {
		Success bool            `json:"success"`
		Data    []PromoDiscount `json:"data"`
	}
	if err := c.doPublic(ctx, http.MethodGet, "/api/promos/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ValidatePromo checks a promo code without redeeming it.
func (c *Client) ValidatePromo(ctx context.Context, code string) (*PromoDiscount, error) {
	var resp struct {
		Success bool          `json:"success"`
		Data    PromoDiscount `json:"data"`
	}
	if err := c.doPublic(ctx, http.MethodPost, "/api/promos/validate",
		map[string]string{"code": code}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// IncrementPromo records one redemption after a sale is finalized.
func (c *Client) IncrementPromo(ctx context.Context, code string) error {
	return c.doPublic(ctx, http.MethodPost, "/api/promos/increment",
		map[string]string{"code": code}, nil)
}

// Notification mirrors the server notification payload.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifications lists the user's notifications.
func (c *Client) Notifications(ctx context.Context, page, limit int) ([]Notification, error) {
	var resp struct {
		Success bool           `json:"success"`
		Data    []Notification `json:"data"`
	}
	path := fmt.Sprintf("/api/notifications?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UnreadCount fetches the unread notification count.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Count, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil)
}

// PollUnread invokes fn with the unread count every interval until the
// context is cancelled. The ticker is always stopped on return, so a view
// that opens a poll and cancels its context on teardown cannot leak it.
// Errors from individual polls are skipped; the next tick tries again.
func (c *Client) PollUnread(ctx context.Context, interval time.Duration, fn func(count int64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := c.UnreadCount(ctx)
			if err != nil {
				continue
			}
			fn(count)
		}
	}
}

// OrderItemInput is one checkout line.
type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderInput is the checkout payload.
type OrderInput struct {
	Items         []OrderItemInput `json:"items"`
	PaymentMethod string           `json:"payment_method"`
	PromoCode     string           `json:"promo_code,omitempty"`
	Source        string           `json:"source,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// OrderSummary is the server's response to a finalized checkout.
type OrderSummary struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"order_number"`
	Status         string    `json:"status"`
	PlacedAt       time.Time `json:"placed_at"`
	Subtotal       float64   `json:"subtotal"`
	DiscountAmount float64   `json:"discount_amount"`
	Total          float64   `json:"total"`
	Currency       string    `json:"currency"`
}

// CreateOrder finalizes a checkout.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*OrderSummary, error) {
	var resp struct {
		Success bool         `json:"success"`
		Data    OrderSummary `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", input, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Order is one row of the caller's order history.
type Order struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"order_number"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	PlacedAt       time.Time `json:"placed_at"`
	Subtotal       float64   `json:"subtotal"`
	DiscountAmount float64   `json:"discount_amount"`
	TotalAmount    float64   `json:"total_amount"`
	Currency       string    `json:"currency"`
	PromoCode      string    `json:"promo_code"`
}

// Orders lists the caller's orders, newest first.
func (c *Client) Orders(ctx context.Context, page, limit int) ([]Order, error) {
	var resp struct {
		Success bool    `json:"success"`
		Data    []Order `json:"data"`
	}
	path := fmt.Sprintf("/api/orders?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
