// Package friends exposes the friendship HTTP API.
package friends

import (
	"errors"
	"net/http"
	"strconv"

	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts friend routes on the given router.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, auth gin.HandlerFunc) {
	g := r.Group("/v1", auth)

	g.POST("/friends", func(c *gin.Context) {
		addFriend(c, store)
	})
	g.GET("/friends", func(c *gin.Context) {
		listFriends(c, store)
	})
	g.GET("/friends/search", func(c *gin.Context) {
		findFriend(c, store)
	})
	g.DELETE("/friends/:friendId", func(c *gin.Context) {
		removeFriend(c, store)
	})
}

func addFriend(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := store.AddFriend(c.Request.Context(), userID, req.Username)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func listFriends(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	profiles, err := store.ListFriends(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

func findFriend(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "username is required"})
		return
	}
	profile, err := store.FindFriend(c.Request.Context(), userID, username)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func removeFriend(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	friendID, err := strconv.ParseInt(c.Param("friendId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friendId"})
		return
	}
	if err := store.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError
	var conflict *registrystore.ConflictError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
