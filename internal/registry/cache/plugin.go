package cache

import (
	"context"
	"fmt"

	"github.com/papo-chat/papo/internal/model"
)

type conversationCacheKey struct{}

// WithConversationCacheContext returns a new context carrying the given
// ConversationCache.
func WithConversationCacheContext(ctx context.Context, c ConversationCache) context.Context {
	return context.WithValue(ctx, conversationCacheKey{}, c)
}

// ConversationCacheFromContext retrieves the ConversationCache from the
// context. Returns nil if none was set.
func ConversationCacheFromContext(ctx context.Context) ConversationCache {
	c, _ := ctx.Value(conversationCacheKey{}).(ConversationCache)
	return c
}

// ConversationCache caches conversation records keyed by id. Only immutable-
// between-renames conversation fields are cached; per-user flags (favorited,
// left) are always merged from the store. Rename and delete must Remove.
type ConversationCache interface {
	Available() bool
	Get(ctx context.Context, conversationID int64) (*model.Conversation, error)
	Set(ctx context.Context, conversation model.Conversation) error
	Remove(ctx context.Context, conversationID int64) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (ConversationCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
