package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/utils"
)

type authResponse struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func TestRequestOTP(t *testing.T) {
	e := setupEnv(t)

	resp := e.request(t, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": "Shopper@Example.com "}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var challenge models.OTPChallenge
	require.NoError(t, e.db.Where("email = ?", "shopper@example.com").First(&challenge).Error)
	require.False(t, challenge.Consumed())
	require.True(t, challenge.ExpiresAt.After(time.Now()))
}

func TestRequestOTPConflictWhileOutstanding(t *testing.T) {
	e := setupEnv(t)

	resp := e.request(t, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": "shopper@example.com"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": "shopper@example.com"}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Still exactly one live challenge.
	var count int64
	require.NoError(t, e.db.Model(&models.OTPChallenge{}).
		Where("email = ? AND consumed_at IS NULL AND expires_at > ?", "shopper@example.com", time.Now()).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRequestOTPRejectsBadEmail(t *testing.T) {
	e := setupEnv(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		resp := e.request(t, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": email}, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "email %q", email)
	}
}

func TestResendSupersedesEarlierCode(t *testing.T) {
	e := setupEnv(t)

	old := e.seedChallenge(t, "shopper@example.com", "111111", time.Now().Add(10*time.Minute))

	resp := e.request(t, http.MethodPost, "/api/auth/resend-otp", map[string]string{"email": "shopper@example.com"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The earlier challenge was force-expired.
	var stored models.OTPChallenge
	require.NoError(t, e.db.First(&stored, "id = ?", old.ID).Error)
	require.True(t, stored.Expired(time.Now()))

	// Its code no longer verifies.
	resp = e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "111111"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyOTPSignsUpNewUser(t *testing.T) {
	e := setupEnv(t)

	e.seedChallenge(t, "shopper@example.com", "123456", time.Now().Add(10*time.Minute))

	resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body authResponse
	decodeBody(t, resp, &body)
	require.True(t, body.Success)
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)
	require.NotNil(t, body.User)
	require.Equal(t, "shopper@example.com", body.User.Email)
	require.Equal(t, models.RoleCustomer, body.User.Role)
	require.True(t, body.User.IsVerified)

	// The access token works against a protected endpoint.
	resp = e.request(t, http.MethodGet, "/api/users/me", nil, body.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyOTPBootstrapsAdmin(t *testing.T) {
	e := setupEnv(t)
	e.cfg.AdminEmails = []string{"boss@example.com"}

	e.seedChallenge(t, "boss@example.com", "123456", time.Now().Add(10*time.Minute))

	resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "boss@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body authResponse
	decodeBody(t, resp, &body)
	require.Equal(t, models.RoleAdmin, body.User.Role)
}

func TestVerifyOTPRejections(t *testing.T) {
	e := setupEnv(t)

	e.seedChallenge(t, "shopper@example.com", "123456", time.Now().Add(10*time.Minute))
	e.seedChallenge(t, "late@example.com", "123456", time.Now().Add(-time.Minute))

	tests := []struct {
		name  string
		email string
		otp   string
	}{
		{"wrong code", "shopper@example.com", "000000"},
		{"no challenge", "stranger@example.com", "123456"},
		{"expired challenge", "late@example.com", "123456"},
		{"empty code", "shopper@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": tt.email, "otp": tt.otp}, "")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// No user was created along the way.
	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifyOTPCodeIsSingleUse(t *testing.T) {
	e := setupEnv(t)

	e.seedChallenge(t, "shopper@example.com", "123456", time.Now().Add(10*time.Minute))

	resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefreshTokenRotation(t *testing.T) {
	e := setupEnv(t)

	e.seedChallenge(t, "shopper@example.com", "123456", time.Now().Add(10*time.Minute))
	resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login authResponse
	decodeBody(t, resp, &login)

	// Exchange once.
	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated authResponse
	decodeBody(t, resp, &rotated)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The old token is dead after rotation.
	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The replacement still works.
	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": rotated.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshTokenRejectsUnknownAndRaw(t *testing.T) {
	e := setupEnv(t)

	user := e.createUser(t, "shopper@example.com", models.RoleCustomer)

	// Store the hash the way the login path does, then present the hash
	// itself: only the raw opaque token must be accepted.
	opaque, err := utils.GenerateOpaqueToken()
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(opaque),
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	resp := e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": utils.HashToken(opaque)}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": "bogus"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": opaque}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	e := setupEnv(t)

	e.seedChallenge(t, "shopper@example.com", "123456", time.Now().Add(10*time.Minute))
	resp := e.request(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{"email": "shopper@example.com", "otp": "123456"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login authResponse
	decodeBody(t, resp, &login)

	resp = e.request(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logging out twice, or with a garbage token, still succeeds.
	resp = e.request(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": "unknown"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	e := setupEnv(t)

	resp := e.request(t, http.MethodGet, "/api/users/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.request(t, http.MethodGet, "/api/users/me", nil, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A token signed with the wrong secret is refused.
	user := e.createUser(t, "shopper@example.com", models.RoleCustomer)
	forged, err := utils.GenerateToken("other-secret", user.ID, user.Role, time.Hour)
	require.NoError(t, err)

	resp = e.request(t, http.MethodGet, "/api/users/me", nil, forged)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	e := setupEnv(t)

	customer := e.createUser(t, "shopper@example.com", models.RoleCustomer)
	resp := e.request(t, http.MethodGet, "/api/promos", nil, e.tokenFor(t, customer))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	resp = e.request(t, http.MethodGet, "/api/promos", nil, e.tokenFor(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
