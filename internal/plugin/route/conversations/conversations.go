// Package conversations exposes the conversation HTTP API: group and direct
// conversation creation, the ranked recent list, detail and info views,
// renames, deletion, and membership operations.
package conversations

import (
	"errors"
	"net/http"
	"strconv"

	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts conversation routes on the given router.
// Called after store initialization so the store is available.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, auth gin.HandlerFunc) {
	g := r.Group("/v1", auth)

	g.POST("/conversations/group", func(c *gin.Context) {
		createGroup(c, store)
	})
	g.POST("/conversations/direct", func(c *gin.Context) {
		createDirect(c, store)
	})
	g.GET("/conversations/recent", func(c *gin.Context) {
		listRecent(c, store)
	})
	g.GET("/conversations/:conversationId", func(c *gin.Context) {
		getConversation(c, store)
	})
	g.GET("/conversations/:conversationId/info", func(c *gin.Context) {
		getConversationInfo(c, store)
	})
	g.PATCH("/conversations/:conversationId/name", func(c *gin.Context) {
		renameGroup(c, store)
	})
	g.DELETE("/conversations/:conversationId", func(c *gin.Context) {
		deleteGroup(c, store)
	})
	g.POST("/conversations/:conversationId/members", func(c *gin.Context) {
		addMembers(c, store)
	})
	g.POST("/conversations/:conversationId/leave", func(c *gin.Context) {
		leaveConversation(c, store)
	})
	g.POST("/conversations/:conversationId/return", func(c *gin.Context) {
		returnToConversation(c, store)
	})
	g.PUT("/conversations/:conversationId/favorite", func(c *gin.Context) {
		setFavorite(c, store)
	})
}

func createGroup(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	var req struct {
		Name      string  `json:"name"`
		Picture   string  `json:"picture"`
		MemberIDs []int64 `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "name exceeds maximum length"})
		return
	}

	result, err := store.CreateGroupConversation(c.Request.Context(), userID, req.Name, req.Picture, req.MemberIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func createDirect(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	var req struct {
		UserID  int64  `json:"userId"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := store.CreateDirectConversation(c.Request.Context(), userID, req.UserID, req.Name, req.Picture)
	if err != nil {
		handleError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Reactivated {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func listRecent(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversations, err := store.GetRecentConversations(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conversations})
}

func getConversation(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	conv, err := store.GetConversation(c.Request.Context(), userID, conversationID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func getConversationInfo(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	info, err := store.GetConversationInfo(c.Request.Context(), userID, conversationID)
	if err != nil {
		handleError(c, err)
		return
	}
	if info.Group != nil {
		c.JSON(http.StatusOK, info.Group)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": info.Direct})
}

func renameGroup(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "name exceeds maximum length"})
		return
	}

	narrative, err := store.RenameGroup(c.Request.Context(), userID, conversationID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": narrative})
}

func deleteGroup(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	detail, err := store.DeleteGroup(c.Request.Context(), userID, conversationID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": detail})
}

func addMembers(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	var req struct {
		MemberIDs []int64 `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.MemberIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": "memberIds is required"})
		return
	}

	outcomes, err := store.AddMembers(c.Request.Context(), userID, conversationID, req.MemberIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": outcomes})
}

func leaveConversation(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	if err := store.LeaveConversation(c.Request.Context(), userID, conversationID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func returnToConversation(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	if err := store.ReturnToConversation(c.Request.Context(), userID, conversationID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setFavorite(c *gin.Context, store registrystore.ChatStore) {
	userID := security.GetUserID(c)
	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	var req struct {
		Favorited bool `json:"favorited"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := store.SetFavorite(c.Request.Context(), userID, conversationID, req.Favorited); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
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
	var conflict *registrystore.ConflictError
	var forbidden *registrystore.ForbiddenError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
