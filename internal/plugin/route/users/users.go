// Package users exposes user registration and profile lookup.
package users

import (
	"errors"
	"net/http"
	"strconv"

	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts user routes on the given router. Registration is left
// open; profile lookup requires auth.
func MountRoutes(r *gin.Engine, store registrystore.ChatStore, auth gin.HandlerFunc) {
	r.POST("/v1/users", func(c *gin.Context) {
		createUser(c, store)
	})

	g := r.Group("/v1", auth)
	g.GET("/users/:userId", func(c *gin.Context) {
		getUserProfile(c, store)
	})
}

func createUser(c *gin.Context, store registrystore.ChatStore) {
	var req registrystore.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := store.CreateUser(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	profile := user.PublicProfile()
	c.JSON(http.StatusCreated, profile)
}

func getUserProfile(c *gin.Context, store registrystore.ChatStore) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}
	profile, err := store.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
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
