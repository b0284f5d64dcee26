package users_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/plugin/route/users"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
	"github.com/papo-chat/papo/internal/testutil/teststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, registrystore.ChatStore) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTesting
	auth := security.AuthMiddleware(security.NewTokenResolver(&cfg))

	store := teststore.New(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	users.MountRoutes(router, store, auth)
	return router, store
}

func TestRegisterUser(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"username":"alice","name":"Alice","email":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	// Duplicate username conflicts.
	req = httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUserProfile(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", bob.ID), nil)
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", alice.ID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)

	// Profile lookup requires auth.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", bob.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown ids are a 404.
	req = httptest.NewRequest(http.MethodGet, "/v1/users/999", nil)
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", alice.ID))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
