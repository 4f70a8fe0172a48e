package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tindahan/internal/config"
	"github.com/example/tindahan/internal/database"
	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/routes"
	"github.com/example/tindahan/internal/utils"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		OTPTTL:          10 * time.Minute,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: testErrorHandler,
	})
	routes.Register(app, db, cfg, nil, zerolog.Nop())

	return &testEnv{app: app, db: db, cfg: cfg}
}

// testErrorHandler mirrors the production envelope so assertions on error
// bodies hold in tests.
func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: role, IsVerified: true}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(e.cfg.JWTSecret, user.ID, user.Role, e.cfg.AccessTokenTTL)
	require.NoError(t, err)
	return token
}

func (e *testEnv) seedChallenge(t *testing.T, email, code string, expiresAt time.Time) *models.OTPChallenge {
	t.Helper()
	hash, err := utils.HashOTP(code)
	require.NoError(t, err)
	challenge := &models.OTPChallenge{Email: email, CodeHash: hash, ExpiresAt: expiresAt}
	require.NoError(t, e.db.Create(challenge).Error)
	return challenge
}

func intPtr(v int) *int {
	return &v
}
