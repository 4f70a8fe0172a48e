package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleCashier  = "cashier"
	RoleCustomer = "customer"
)

// User represents an account created through OTP verification.
type User struct {
	BaseModel
	Email      string `gorm:"uniqueIndex" json:"email"`
	Name       string `json:"name"`
	Role       string `gorm:"default:customer" json:"role"`
	IsVerified bool   `json:"is_verified"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// OTPChallenge tracks a one-time login code sent to an email address.
// Only the most recent unconsumed challenge for an email is ever valid:
// issuing a new one expires all previous ones in the same transaction.
type OTPChallenge struct {
	BaseModel
	Email      string     `gorm:"index" json:"email"`
	CodeHash   string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// Consumed reports whether the challenge has already been used.
func (c *OTPChallenge) Consumed() bool {
	return c.ConsumedAt != nil
}

// Expired reports whether the challenge is past its expiry.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// RefreshToken is the server-side record of an issued refresh token.
// The opaque token itself is only ever held by the client; the row stores
// a SHA-256 digest for lookup.
type RefreshToken struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	TokenHash string     `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

// Usable reports whether the token can still be exchanged.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
