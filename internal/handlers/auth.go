package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tindahan/internal/config"
	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/services"
	"github.com/example/tindahan/internal/utils"
)

// AuthHandler bundles dependencies for the OTP authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer *services.Mailer
	logger zerolog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mailer *services.Mailer, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, mailer: mailer, logger: logger}
}

type otpRequest struct {
	Email string `json:"email"`
}

// RequestOTP starts the login flow by emailing a one-time code. If an
// unconsumed, unexpired challenge already exists for the email the request
// conflicts; clients treat that as success-equivalent and move to code entry.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a valid email is required")
	}

	var outstanding models.OTPChallenge
	err = h.db.Where("email = ? AND consumed_at IS NULL AND expires_at > ?", email, time.Now()).
		Order("created_at desc").
		First(&outstanding).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "a login code was already sent to this email")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := h.issueChallenge(email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "a login code has been sent to your email",
	})
}

// ResendOTP re-issues a fresh code unconditionally, superseding any earlier
// one for the same email.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a valid email is required")
	}

	if err := h.issueChallenge(email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "a new login code has been sent to your email",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP validates the submitted code against the latest challenge and,
// on success, creates the user on first login and issues a token pair.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a valid email is required")
	}
	code := strings.TrimSpace(req.OTP)
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "otp is required")
	}

	var challenge models.OTPChallenge
	err = h.db.Where("email = ?", email).
		Order("created_at desc").
		First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired code")
		}
		return err
	}

	now := time.Now()
	if challenge.Consumed() || challenge.Expired(now) || !utils.CheckOTP(challenge.CodeHash, code) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid or expired code")
	}

	challenge.ConsumedAt = &now
	if err := h.db.Save(&challenge).Error; err != nil {
		return err
	}

	user, err := h.findOrCreateUser(email)
	if err != nil {
		return err
	}

	accessToken, refreshToken, err := h.issueTokens(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges a refresh token for a fresh pair. Tokens rotate:
// the presented token is revoked in the same transaction that records the
// replacement, so a stolen old token is dead after the first legitimate use.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "refreshToken is required")
	}

	var stored models.RefreshToken
	if err := h.db.Where("token_hash = ?", utils.HashToken(req.RefreshToken)).
		First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
		}
		return err
	}

	now := time.Now()
	if !stored.Usable(now) {
		return fiber.NewError(fiber.StatusUnauthorized, "refresh token expired or revoked")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid refresh token")
		}
		return err
	}

	newOpaque, err := utils.GenerateOpaqueToken()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		stored.RevokedAt = &now
		if err := tx.Save(&stored).Error; err != nil {
			return err
		}
		replacement := models.RefreshToken{
			UserID:    user.ID,
			TokenHash: utils.HashToken(newOpaque),
			ExpiresAt: now.Add(h.cfg.RefreshTokenTTL),
		}
		return tx.Create(&replacement).Error
	}); err != nil {
		return err
	}

	accessToken, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.AccessTokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"accessToken":  accessToken,
		"refreshToken": newOpaque,
	})
}

// Logout revokes the presented refresh token. Revoking an unknown or
// already-revoked token still succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.RefreshToken != "" {
		now := time.Now()
		if err := h.db.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", utils.HashToken(req.RefreshToken)).
			Update("revoked_at", &now).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

// issueChallenge expires every outstanding challenge for the email, stores a
// fresh bcrypt-hashed code and emails it. Expiry and creation run in one
// transaction so at most one code is ever valid per email.
func (h *AuthHandler) issueChallenge(email string) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	codeHash, err := utils.HashOTP(code)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store code")
	}

	now := time.Now()
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTPChallenge{}).
			Where("email = ? AND consumed_at IS NULL AND expires_at > ?", email, now).
			Update("expires_at", now).Error; err != nil {
			return err
		}

		challenge := models.OTPChallenge{
			Email:     email,
			CodeHash:  codeHash,
			ExpiresAt: now.Add(h.cfg.OTPTTL),
		}
		return tx.Create(&challenge).Error
	}); err != nil {
		return err
	}

	if err := h.mailer.SendOTP(email, code); err != nil {
		h.logger.Error().Err(err).Str("email", email).Msg("otp delivery failed")
	}
	return nil
}

func (h *AuthHandler) findOrCreateUser(email string) (*models.User, error) {
	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:      email,
			Role:       models.RoleCustomer,
			IsVerified: true,
		}
		if h.cfg.IsAdminEmail(email) {
			user.Role = models.RoleAdmin
		}
		if err := h.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if !user.IsVerified {
		if err := h.db.Model(&user).Update("is_verified", true).Error; err != nil {
			return nil, err
		}
		user.IsVerified = true
	}
	return &user, nil
}

func (h *AuthHandler) issueTokens(user *models.User) (string, string, error) {
	accessToken, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.AccessTokenTTL)
	if err != nil {
		return "", "", fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	opaque, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", "", fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	refresh := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(opaque),
		ExpiresAt: time.Now().Add(h.cfg.RefreshTokenTTL),
	}
	if err := h.db.Create(&refresh).Error; err != nil {
		return "", "", err
	}

	return accessToken, opaque, nil
}

func normalizeEmail(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", errors.New("email is required")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
