package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/papo-chat/papo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolve(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JWTSecret = "topsecret"
	resolver := NewTokenResolver(&cfg)

	token := signToken(t, "topsecret", jwt.MapClaims{
		"sub":      "42",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	id, err := resolver.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, "alice", id.Username)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JWTSecret = "topsecret"
	resolver := NewTokenResolver(&cfg)

	// Wrong key.
	token := signToken(t, "not-the-secret", jwt.MapClaims{"sub": "42"})
	_, err := resolver.Resolve(token)
	assert.Error(t, err)

	// Missing subject.
	token = signToken(t, "topsecret", jwt.MapClaims{"username": "alice"})
	_, err = resolver.Resolve(token)
	assert.Error(t, err)

	// Non-numeric subject.
	token = signToken(t, "topsecret", jwt.MapClaims{"sub": "alice"})
	_, err = resolver.Resolve(token)
	assert.Error(t, err)

	// Expired.
	token = signToken(t, "topsecret", jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = resolver.Resolve(token)
	assert.Error(t, err)

	_, err = resolver.Resolve("garbage")
	assert.Error(t, err)
}

func authTestRouter(resolver *TokenResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", AuthMiddleware(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c)})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JWTSecret = "topsecret"
	resolver := NewTokenResolver(&cfg)
	router := authTestRouter(resolver)

	token := signToken(t, "topsecret", jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)

	// Missing and malformed headers are rejected.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// X-User-ID is ignored outside testing mode.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "9")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareTestingMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeTesting
	resolver := NewTokenResolver(&cfg)
	router := authTestRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":9`)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseMetricsLabels(t *testing.T) {
	labels, err := ParseMetricsLabels("")
	require.NoError(t, err)
	assert.Nil(t, labels)

	labels, err = ParseMetricsLabels("service=papo,env=dev")
	require.NoError(t, err)
	assert.Equal(t, "papo", labels["service"])
	assert.Equal(t, "dev", labels["env"])

	_, err = ParseMetricsLabels("missing-equals")
	assert.Error(t, err)

	_, err = ParseMetricsLabels("9bad=key")
	assert.Error(t, err)
}
