package security

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/papo-chat/papo/internal/config"
)

const (
	// ContextKeyUserID is the gin context key for the authenticated user ID.
	ContextKeyUserID = "userID"
	// ContextKeyUsername is the gin context key for the authenticated username claim.
	ContextKeyUsername = "username"
)

// Identity holds the resolved caller identity from a bearer token.
type Identity struct {
	UserID   int64
	Username string
}

// TokenResolver resolves bearer tokens to caller identities. It is initialized
// once at startup and shared by the HTTP middleware.
type TokenResolver struct {
	secret      []byte
	testingMode bool
}

// NewTokenResolver creates a TokenResolver from the application config.
func NewTokenResolver(cfg *config.Config) *TokenResolver {
	return &TokenResolver{
		secret:      []byte(cfg.JWTSecret),
		testingMode: cfg.Mode == config.ModeTesting,
	}
}

var (
	errInvalidJWT      = errors.New("invalid JWT")
	errMissingIdentity = errors.New("JWT missing identity claims")
)

// Resolve verifies an HMAC-signed bearer token and extracts the caller identity.
// The numeric user id is carried in the "sub" claim; "username" is optional.
func (r *TokenResolver) Resolve(bearerToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(bearerToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return r.secret, nil
	})
	if err != nil {
		return nil, errors.Join(errInvalidJWT, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errMissingIdentity
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, errors.Join(errMissingIdentity, err)
	}

	username, _ := claims["username"].(string)
	return &Identity{UserID: userID, Username: username}, nil
}

// GetUserID returns the authenticated user ID from the gin context.
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// GetUsername returns the authenticated username claim from the gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// AuthMiddleware returns a gin middleware that extracts user identity from the
// Authorization header using the provided TokenResolver. In testing mode a
// bare X-User-ID header is accepted instead of a token.
func AuthMiddleware(resolver *TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolver.testingMode {
			if hdr := strings.TrimSpace(c.GetHeader("X-User-ID")); hdr != "" {
				userID, err := strconv.ParseInt(hdr, 10, 64)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
					return
				}
				c.Set(ContextKeyUserID, userID)
				c.Next()
				return
			}
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			log.Info("Auth rejected: missing Authorization header", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			log.Info("Auth rejected: invalid Authorization header; expected Bearer token", "method", c.Request.Method, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header; expected Bearer token"})
			return
		}

		id, err := resolver.Resolve(token)
		if err != nil {
			log.Info("Auth rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ContextKeyUserID, id.UserID)
		if id.Username != "" {
			c.Set(ContextKeyUsername, id.Username)
		}
		c.Next()
	}
}
