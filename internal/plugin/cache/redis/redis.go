package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/model"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.ConversationCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: PAPO_REDIS_URL is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, ttl)
}

// LoadFromURL creates a ConversationCache from a Redis-compatible URL.
func LoadFromURL(ctx context.Context, redisURL string) (registrycache.ConversationCache, error) {
	return LoadFromURLWithTTL(ctx, redisURL, defaultTTL)
}

// LoadFromURLWithTTL creates a cache with an explicit conversation TTL.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.ConversationCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisConversationCache{client: client, ttl: ttl}, nil
}

type redisConversationCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func conversationKey(id int64) string {
	return fmt.Sprintf("conv:%d", id)
}

func (c *redisConversationCache) Available() bool {
	return true
}

func (c *redisConversationCache) Get(ctx context.Context, conversationID int64) (*model.Conversation, error) {
	data, err := c.client.Get(ctx, conversationKey(conversationID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *redisConversationCache) Set(ctx context.Context, conv model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, conversationKey(conv.ID), data, c.ttl).Err()
}

func (c *redisConversationCache) Remove(ctx context.Context, conversationID int64) error {
	return c.client.Del(ctx, conversationKey(conversationID)).Err()
}

var _ registrycache.ConversationCache = (*redisConversationCache)(nil)
