package conversations_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/plugin/route/conversations"
	"github.com/papo-chat/papo/internal/plugin/route/messages"
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
	resolver := security.NewTokenResolver(&cfg)
	auth := security.AuthMiddleware(resolver)

	store := teststore.New(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	conversations.MountRoutes(router, store, auth)
	messages.MountRoutes(router, store, auth)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateGroupEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	w := doJSON(t, router, http.MethodPost, "/v1/conversations/group", alice.ID,
		fmt.Sprintf(`{"name":"Trip","memberIds":[%d]}`, bob.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ConversationID int64  `json:"conversationId"`
		CreateMessage  string `json:"createMessage"`
		AddMessages    []struct {
			UserID int64 `json:"userId"`
			Added  bool  `json:"added"`
		} `json:"addMessages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "'alice' criou o grupo 'Trip'.", resp.CreateMessage)
	require.Len(t, resp.AddMessages, 1)
	assert.True(t, resp.AddMessages[0].Added)

	// Info view: alice owns the group; participants exclude her.
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/conversations/%d/info", resp.ConversationID), alice.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var info struct {
		Owner        bool `json:"owner"`
		Participants []struct {
			Username string `json:"username"`
		} `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Owner)
	require.Len(t, info.Participants, 1)
	assert.Equal(t, "bob", info.Participants[0].Username)
}

func TestRenameEndpointAuthorization(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	g, err := store.CreateGroupConversation(context.Background(), alice.ID, "Trip", "", []int64{bob.ID})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/v1/conversations/%d/name", g.ConversationID), bob.ID,
		`{"name":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/v1/conversations/%d/name", g.ConversationID), alice.ID,
		`{"name":"Viagem"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "'alice' alterou o nome do grupo para 'Viagem'.")
}

func TestDeleteEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	g, err := store.CreateGroupConversation(context.Background(), alice.ID, "Trip", "", []int64{bob.ID})
	require.NoError(t, err)

	// Non-owner deletion is indistinguishable from a missing group.
	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", g.ConversationID), bob.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", g.ConversationID), alice.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Grupo 'Trip' deletado completamente.")
}

func TestDirectEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	w := doJSON(t, router, http.MethodPost, "/v1/conversations/direct", alice.ID,
		fmt.Sprintf(`{"userId":%d}`, bob.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "'alice' iniciou uma conversa com 'bob'.")

	// A second call reports the reactivated conversation with 200.
	w = doJSON(t, router, http.MethodPost, "/v1/conversations/direct", alice.ID,
		fmt.Sprintf(`{"userId":%d}`, bob.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "'alice' voltou à conversa com 'bob'.")
}

func TestRecentEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	_, err := store.CreateGroupConversation(context.Background(), alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/v1/conversations/recent", alice.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []struct {
			Name      string `json:"name"`
			Favorited bool   `json:"favorited"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Trip", resp.Data[0].Name)
}

func TestMessagesEndpoint(t *testing.T) {
	router, store := setupRouter(t)

	alice := teststore.SeedUser(t, store, "alice")
	g, err := store.CreateGroupConversation(context.Background(), alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/conversations/%d/messages", g.ConversationID), alice.ID,
		`{"content":"oi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/conversations/%d/messages", g.ConversationID), alice.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"oi"`)
}

func TestEndpointRejectsAnonymous(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/conversations/recent", 0, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEndpointRejectsBadID(t *testing.T) {
	router, store := setupRouter(t)
	alice := teststore.SeedUser(t, store, "alice")

	w := doJSON(t, router, http.MethodGet, "/v1/conversations/abc/info", alice.ID, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
