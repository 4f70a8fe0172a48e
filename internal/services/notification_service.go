package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/models"
)

// NotificationService creates in-app notifications for backend events.
type NotificationService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, logger zerolog.Logger) *NotificationService {
	return &NotificationService{db: db, logger: logger}
}

// Notify creates a notification for a single user.
func (s *NotificationService) Notify(userID uuid.UUID, title, message string) error {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create notification")
		return err
	}
	return nil
}

// NotifyAdmins fans a notification out to every admin user. Failures are
// logged per recipient; one bad row does not block the rest.
func (s *NotificationService) NotifyAdmins(title, message string) error {
	var admins []models.User
	if err := s.db.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		return err
	}

	for _, admin := range admins {
		if err := s.Notify(admin.ID, title, message); err != nil {
			s.logger.Error().Err(err).Str("admin_id", admin.ID.String()).Msg("admin notification skipped")
		}
	}
	return nil
}

// NotifyOrderPlaced tells admins about a new order.
func (s *NotificationService) NotifyOrderPlaced(order *models.Order) error {
	title := "New order " + order.OrderNumber
	message := fmt.Sprintf("Order %s placed for %.2f %s via %s.",
		order.OrderNumber, order.TotalAmount, order.Currency, order.Source)
	return s.NotifyAdmins(title, message)
}
