package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/config"
	"github.com/example/tindahan/internal/handlers"
	"github.com/example/tindahan/internal/middleware"
	"github.com/example/tindahan/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) {
	mailer := services.NewMailer(cfg, logger)
	promoService := services.NewPromoService(db)
	notificationService := services.NewNotificationService(db, logger)

	authHandler := handlers.NewAuthHandler(db, cfg, mailer, logger)
	promoHandler := handlers.NewPromoHandler(db, promoService)
	userHandler := handlers.NewUserHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db, notificationService)
	productHandler := handlers.NewProductHandler(db)
	categoryHandler := handlers.NewCategoryHandler(db)
	orderHandler := handlers.NewOrderHandler(db, promoService, notificationService, logger)
	salesHandler := handlers.NewSalesHandler(db)
	settingsHandler := handlers.NewSettingsHandler(db)

	api := app.Group("/api")

	// Auth routes, throttled when Redis is configured.
	auth := api.Group("/auth", middleware.RateLimit(redisClient, cfg.AuthRateLimit, cfg.AuthRateWindow))
	auth.Post("/request-otp", authHandler.RequestOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/refresh-token", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	// Public catalog and settings.
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Get("/categories", categoryHandler.ListCategories)
	api.Get("/categories/:id", categoryHandler.GetCategory)
	api.Get("/settings", settingsHandler.GetSettings)

	// Promo validation and redemption are public by design: the POS terminal
	// and storefront checkout call them before any login happens.
	promos := api.Group("/promos")
	promos.Get("/active", promoHandler.ListActivePromos)
	promos.Post("/validate", promoHandler.ValidatePromo)
	promos.Post("/increment", promoHandler.IncrementPromo)

	// Authenticated routes.
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/users/me", userHandler.Me)
	protected.Put("/users/me", userHandler.UpdateMe)

	protected.Get("/notifications", notificationHandler.ListNotifications)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Put("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.Put("/notifications/:id/read", notificationHandler.MarkRead)
	protected.Delete("/notifications/:id", notificationHandler.DeleteNotification)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	// Admin-only routes.
	admin := protected.Group("", middleware.RequireAdmin())

	admin.Get("/promos", promoHandler.ListPromos)
	admin.Get("/promos/:id", promoHandler.GetPromo)
	admin.Post("/promos", promoHandler.CreatePromo)
	admin.Put("/promos/:id", promoHandler.UpdatePromo)
	admin.Delete("/promos/:id", promoHandler.DeletePromo)

	admin.Get("/users", userHandler.ListUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Delete("/users/:id", userHandler.DeleteUser)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Delete("/products/:id", productHandler.DeleteProduct)

	admin.Post("/categories", categoryHandler.CreateCategory)
	admin.Put("/categories/:id", categoryHandler.UpdateCategory)
	admin.Delete("/categories/:id", categoryHandler.DeleteCategory)

	admin.Put("/orders/:id/status", orderHandler.UpdateOrderStatus)
	admin.Post("/notifications/test", notificationHandler.SendTest)

	admin.Get("/sales/stats", salesHandler.Stats)
	admin.Get("/sales/summary", salesHandler.Summary)

	admin.Put("/settings", settingsHandler.UpdateSettings)
}
