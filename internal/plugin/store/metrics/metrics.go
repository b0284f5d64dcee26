package metrics

import (
	"context"
	"time"

	"github.com/papo-chat/papo/internal/model"
	"github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
)

// Wrap returns a ChatStore that records StoreLatency for every operation.
func Wrap(inner store.ChatStore) store.ChatStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.ChatStore
}

func observe(op string, start time.Time) {
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) CreateGroupConversation(ctx context.Context, creatorID int64, name, picture string, memberIDs []int64) (*store.GroupCreationResult, error) {
	defer observe("create_group_conversation", time.Now())
	return m.inner.CreateGroupConversation(ctx, creatorID, name, picture, memberIDs)
}

func (m *metricsStore) CreateDirectConversation(ctx context.Context, requesterID, targetID int64, name, picture string) (*store.DirectConversationResult, error) {
	defer observe("create_direct_conversation", time.Now())
	return m.inner.CreateDirectConversation(ctx, requesterID, targetID, name, picture)
}

func (m *metricsStore) GetRecentConversations(ctx context.Context, userID int64) ([]store.RecentConversation, error) {
	defer observe("get_recent_conversations", time.Now())
	return m.inner.GetRecentConversations(ctx, userID)
}

func (m *metricsStore) GetConversation(ctx context.Context, userID, conversationID int64) (*store.ConversationWithMessages, error) {
	defer observe("get_conversation", time.Now())
	return m.inner.GetConversation(ctx, userID, conversationID)
}

func (m *metricsStore) GetConversationInfo(ctx context.Context, userID, conversationID int64) (*store.ConversationInfo, error) {
	defer observe("get_conversation_info", time.Now())
	return m.inner.GetConversationInfo(ctx, userID, conversationID)
}

func (m *metricsStore) RenameGroup(ctx context.Context, userID, conversationID int64, name string) (string, error) {
	defer observe("rename_group", time.Now())
	return m.inner.RenameGroup(ctx, userID, conversationID, name)
}

func (m *metricsStore) DeleteGroup(ctx context.Context, userID, conversationID int64) (string, error) {
	defer observe("delete_group", time.Now())
	return m.inner.DeleteGroup(ctx, userID, conversationID)
}

func (m *metricsStore) AddMembers(ctx context.Context, requesterID, conversationID int64, memberIDs []int64) ([]store.MemberAddOutcome, error) {
	defer observe("add_members", time.Now())
	return m.inner.AddMembers(ctx, requesterID, conversationID, memberIDs)
}

func (m *metricsStore) LeaveConversation(ctx context.Context, userID, conversationID int64) error {
	defer observe("leave_conversation", time.Now())
	return m.inner.LeaveConversation(ctx, userID, conversationID)
}

func (m *metricsStore) ReturnToConversation(ctx context.Context, userID, conversationID int64) error {
	defer observe("return_to_conversation", time.Now())
	return m.inner.ReturnToConversation(ctx, userID, conversationID)
}

func (m *metricsStore) SetFavorite(ctx context.Context, userID, conversationID int64, favorited bool) error {
	defer observe("set_favorite", time.Now())
	return m.inner.SetFavorite(ctx, userID, conversationID, favorited)
}

func (m *metricsStore) GetMembership(ctx context.Context, userID, conversationID int64) (*store.MembershipDetail, error) {
	defer observe("get_membership", time.Now())
	return m.inner.GetMembership(ctx, userID, conversationID)
}

func (m *metricsStore) SendMessage(ctx context.Context, author model.Author, conversationID int64, content string) (*model.Message, error) {
	defer observe("send_message", time.Now())
	return m.inner.SendMessage(ctx, author, conversationID, content)
}

func (m *metricsStore) ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	defer observe("list_messages", time.Now())
	return m.inner.ListMessages(ctx, userID, conversationID)
}

func (m *metricsStore) AddFriend(ctx context.Context, requesterID int64, username string) (*model.PublicProfile, error) {
	defer observe("add_friend", time.Now())
	return m.inner.AddFriend(ctx, requesterID, username)
}

func (m *metricsStore) ListFriends(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	defer observe("list_friends", time.Now())
	return m.inner.ListFriends(ctx, userID)
}

func (m *metricsStore) FindFriend(ctx context.Context, userID int64, username string) (*model.PublicProfile, error) {
	defer observe("find_friend", time.Now())
	return m.inner.FindFriend(ctx, userID, username)
}

func (m *metricsStore) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	defer observe("remove_friend", time.Now())
	return m.inner.RemoveFriend(ctx, userID, friendID)
}

func (m *metricsStore) CreateUser(ctx context.Context, user store.NewUser) (*model.User, error) {
	defer observe("create_user", time.Now())
	return m.inner.CreateUser(ctx, user)
}

func (m *metricsStore) GetUserProfile(ctx context.Context, userID int64) (*model.PublicProfile, error) {
	defer observe("get_user_profile", time.Now())
	return m.inner.GetUserProfile(ctx, userID)
}
