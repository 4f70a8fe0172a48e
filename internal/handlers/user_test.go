package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tindahan/internal/models"
	"github.com/example/tindahan/internal/utils"
)

type userEnvelope struct {
	Success bool        `json:"success"`
	Data    models.User `json:"data"`
}

func TestMeAndUpdateMe(t *testing.T) {
	e := setupEnv(t)
	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)
	token := e.tokenFor(t, alice)

	resp := e.request(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me userEnvelope
	decodeBody(t, resp, &me)
	require.Equal(t, "alice@example.com", me.Data.Email)

	resp = e.request(t, http.MethodPut, "/api/users/me", map[string]string{"name": "Alice L."}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", alice.ID).Error)
	require.Equal(t, "Alice L.", stored.Name)

	resp = e.request(t, http.MethodPut, "/api/users/me", map[string]string{"name": "   "}, token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListUsersSearch(t *testing.T) {
	e := setupEnv(t)
	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	token := e.tokenFor(t, admin)

	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)
	require.NoError(t, e.db.Model(alice).Update("name", "Alice Lim").Error)
	e.createUser(t, "bob@example.com", models.RoleCustomer)

	type listEnvelope struct {
		Data []models.User `json:"data"`
	}

	resp := e.request(t, http.MethodGet, "/api/users?search=LIM", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list listEnvelope
	decodeBody(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, "alice@example.com", list.Data[0].Email)
}

func TestUpdateUserRole(t *testing.T) {
	e := setupEnv(t)
	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	token := e.tokenFor(t, admin)
	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)

	resp := e.request(t, http.MethodPut, "/api/users/"+alice.ID.String(), map[string]string{"role": models.RoleCashier}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, e.db.First(&stored, "id = ?", alice.ID).Error)
	require.Equal(t, models.RoleCashier, stored.Role)

	resp = e.request(t, http.MethodPut, "/api/users/"+alice.ID.String(), map[string]string{"role": "superuser"}, token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.request(t, http.MethodPut, "/api/users/"+alice.ID.String(), map[string]string{}, token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteUserCascades(t *testing.T) {
	e := setupEnv(t)
	admin := e.createUser(t, "boss@example.com", models.RoleAdmin)
	token := e.tokenFor(t, admin)
	alice := e.createUser(t, "alice@example.com", models.RoleCustomer)

	require.NoError(t, e.db.Create(&models.RefreshToken{UserID: alice.ID, TokenHash: utils.HashToken("x"), ExpiresAt: time.Now().Add(time.Hour)}).Error)
	require.NoError(t, e.db.Create(&models.Notification{UserID: alice.ID, Title: "hi", Message: "there"}).Error)

	resp := e.request(t, http.MethodDelete, "/api/users/"+alice.ID.String(), nil, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", alice.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, e.db.Model(&models.RefreshToken{}).Where("user_id = ?", alice.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, e.db.Model(&models.Notification{}).Where("user_id = ?", alice.ID).Count(&count).Error)
	require.Zero(t, count)
}
