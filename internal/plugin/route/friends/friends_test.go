package friends_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/plugin/route/friends"
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
	friends.MountRoutes(router, store, auth)
	return router, store
}

func do(t *testing.T, router *gin.Engine, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFriendEndpoints(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	w := do(t, router, http.MethodPost, "/v1/friends", alice.ID, `{"username":"bob"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)

	w = do(t, router, http.MethodPost, "/v1/friends", alice.ID, `{"username":"bob"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/v1/friends", alice.ID, `{"username":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/v1/friends", bob.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	w = do(t, router, http.MethodGet, "/v1/friends/search?username=alice", bob.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, fmt.Sprintf("/v1/friends/%d", bob.ID), alice.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/v1/friends/search?username=alice", bob.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
