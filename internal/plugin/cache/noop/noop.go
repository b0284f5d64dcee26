package noop

import (
	"context"

	"github.com/papo-chat/papo/internal/model"
	"github.com/papo-chat/papo/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.ConversationCache, error) {
			return &noopConversationCache{}, nil
		},
	})
}

type noopConversationCache struct{}

func (n *noopConversationCache) Available() bool { return false }
func (n *noopConversationCache) Get(_ context.Context, _ int64) (*model.Conversation, error) {
	return nil, nil
}
func (n *noopConversationCache) Set(_ context.Context, _ model.Conversation) error { return nil }
func (n *noopConversationCache) Remove(_ context.Context, _ int64) error           { return nil }

var _ cache.ConversationCache = (*noopConversationCache)(nil)
