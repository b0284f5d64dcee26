// Package memory provides an in-process conversation cache backed by
// ristretto. Suitable for single-replica deployments; multi-replica
// deployments should use the redis cache so invalidations are shared.
package memory

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/model"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
)

const defaultTTL = 10 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "memory",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.ConversationCache, error) {
	cfg := config.FromContext(ctx)
	maxEntries := int64(10_000)
	ttl := defaultTTL
	if cfg != nil {
		if cfg.CacheMaxEntries > 0 {
			maxEntries = cfg.CacheMaxEntries
		}
		if cfg.CacheTTL > 0 {
			ttl = cfg.CacheTTL
		}
	}
	return New(maxEntries, ttl)
}

// New creates a memory cache holding up to maxEntries conversations.
func New(maxEntries int64, ttl time.Duration) (registrycache.ConversationCache, error) {
	inner, err := ristretto.NewCache(&ristretto.Config[int64, model.Conversation]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &memoryConversationCache{inner: inner, ttl: ttl}, nil
}

type memoryConversationCache struct {
	inner *ristretto.Cache[int64, model.Conversation]
	ttl   time.Duration
}

func (c *memoryConversationCache) Available() bool { return true }

func (c *memoryConversationCache) Get(_ context.Context, conversationID int64) (*model.Conversation, error) {
	conv, ok := c.inner.Get(conversationID)
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

func (c *memoryConversationCache) Set(_ context.Context, conv model.Conversation) error {
	c.inner.SetWithTTL(conv.ID, conv, 1, c.ttl)
	return nil
}

func (c *memoryConversationCache) Remove(_ context.Context, conversationID int64) error {
	c.inner.Del(conversationID)
	return nil
}

var _ registrycache.ConversationCache = (*memoryConversationCache)(nil)
