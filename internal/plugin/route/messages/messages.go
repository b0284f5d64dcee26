// Package messages exposes the message HTTP API.
package messages

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts message routes on the given router.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, auth gin.HandlerFunc) {
	g := r.Group("/v1", auth)

	g.POST("/conversations/:conversationId/messages", func(c *gin.Context) {
		sendMessage(c, store)
	})
	g.GET("/conversations/:conversationId/messages", func(c *gin.Context) {
		listMessages(c, store)
	})
}

func sendMessage(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := store.SendMessage(c.Request.Context(), model.UserAuthor(userID), conversationID, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func listMessages(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	messages, err := store.ListMessages(c.Request.Context(), userID, conversationID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func pathID(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError
	var forbidden *registrystore.ForbiddenError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
