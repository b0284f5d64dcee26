// Package gormstore implements the ChatStore interface over GORM. It is
// shared by the postgres and sqlite store plugins, which differ only in how
// they open the database and run migrations.
package gormstore

import (
	"context"
	"strings"

	"github.com/papo-chat/papo/internal/model"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"gorm.io/gorm"
)

// Store implements registrystore.ChatStore.
type Store struct {
	db    *gorm.DB
	cache registrycache.ConversationCache
}

// New creates a Store over an open GORM connection. cache may be nil.
func New(db *gorm.DB, cache registrycache.ConversationCache) *Store {
	return &Store{db: db, cache: cache}
}

var _ registrystore.ChatStore = (*Store)(nil)

// isUniqueViolation reports whether err is a uniqueness-constraint failure.
// Matched across the postgres and sqlite drivers by message, the same way
// the underlying drivers surface them.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// getUser loads a user row inside the given tx.
func getUser(tx *gorm.DB, userID int64) (*model.User, error) {
	var user model.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, &registrystore.NotFoundError{Resource: "user", ID: formatID(userID)}
	}
	return &user, nil
}

// getMembership loads the (userID, conversationID) membership row, or a
// conversation NotFound when there is none. Callers that must not reveal a
// conversation's existence to non-members rely on that error shape.
func getMembership(tx *gorm.DB, userID, conversationID int64) (*model.Membership, error) {
	var m model.Membership
	err := tx.Where("user_id = ? AND conversation_id = ?", userID, conversationID).First(&m).Error
	if err != nil {
		return nil, &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
	}
	return &m, nil
}

func (s *Store) cacheRemove(ctx context.Context, conversationID int64) {
	if s.cache != nil && s.cache.Available() {
		_ = s.cache.Remove(ctx, conversationID)
	}
}
