package store

import (
	"context"
	"fmt"

	"github.com/papo-chat/papo/internal/model"
)

// MemberAddOutcome is the per-id result of adding users to a group. Additions
// are business outcomes, not transaction failures: an unknown id is reported
// here while the rest of the batch proceeds.
type MemberAddOutcome struct {
	UserID int64  `json:"userId"`
	Added  bool   `json:"added"`
	Detail string `json:"detail"`
}

// GroupCreationResult is the outcome of creating a group conversation.
type GroupCreationResult struct {
	ConversationID int64              `json:"conversationId"`
	Narrative      string             `json:"createMessage"`
	Members        []MemberAddOutcome `json:"addMessages"`
}

// DirectConversationResult is the outcome of a create-or-reactivate DM call.
// Reactivated is true when an existing DM for the pair was returned instead
// of a new one being created.
type DirectConversationResult struct {
	ConversationID int64  `json:"conversationId"`
	Narrative      string `json:"message"`
	Reactivated    bool   `json:"reactivated"`
}

// RecentConversation is a conversation merged with the caller's favorited
// flag, as returned by the ranked recent list.
type RecentConversation struct {
	model.Conversation
	Favorited bool `json:"favorited"`
}

// ConversationWithMessages is the get-by-id representation.
type ConversationWithMessages struct {
	Conversation model.Conversation `json:"conversation"`
	Messages     []model.Message    `json:"messages"`
}

// GroupInfo is the info view of a group conversation. Participants holds the
// short public profiles of every real member except the caller.
type GroupInfo struct {
	IsOwner      bool                  `json:"owner"`
	Conversation model.Conversation    `json:"conversation"`
	Participants []model.PublicProfile `json:"participants"`
}

// ConversationInfo is the result of GetConversationInfo: Group is set for
// group conversations, Direct (the counterpart's profile) for DMs.
type ConversationInfo struct {
	Group  *GroupInfo           `json:"group,omitempty"`
	Direct *model.PublicProfile `json:"user,omitempty"`
}

// MembershipDetail is the caller-visible view of a membership row.
type MembershipDetail struct {
	UserID           int64 `json:"userId"`
	ConversationID   int64 `json:"conversationId"`
	Owner            bool  `json:"owner"`
	LeftConversation bool  `json:"leftConversation"`
	Favorited        bool  `json:"favorited"`
}

// NewUser is the input for creating a user account.
type NewUser struct {
	Username string
	Name     string
	Email    string
	Picture  string
	Bio      string
}

// ChatStore is the data access interface for the conversation service.
// Implementations guarantee the conversation invariants: one membership row
// per (user, conversation) pair, at most one DM per unordered user pair, and
// atomic narrative seeding for every lifecycle mutation.
type ChatStore interface {
	// Conversations
	CreateGroupConversation(ctx context.Context, creatorID int64, name, picture string, memberIDs []int64) (*GroupCreationResult, error)
	CreateDirectConversation(ctx context.Context, requesterID, targetID int64, name, picture string) (*DirectConversationResult, error)
	GetRecentConversations(ctx context.Context, userID int64) ([]RecentConversation, error)
	GetConversation(ctx context.Context, userID, conversationID int64) (*ConversationWithMessages, error)
	GetConversationInfo(ctx context.Context, userID, conversationID int64) (*ConversationInfo, error)
	RenameGroup(ctx context.Context, userID, conversationID int64, name string) (string, error)
	DeleteGroup(ctx context.Context, userID, conversationID int64) (string, error)

	// Memberships
	AddMembers(ctx context.Context, requesterID, conversationID int64, memberIDs []int64) ([]MemberAddOutcome, error)
	LeaveConversation(ctx context.Context, userID, conversationID int64) error
	ReturnToConversation(ctx context.Context, userID, conversationID int64) error
	SetFavorite(ctx context.Context, userID, conversationID int64, favorited bool) error
	GetMembership(ctx context.Context, userID, conversationID int64) (*MembershipDetail, error)

	// Messages
	SendMessage(ctx context.Context, author model.Author, conversationID int64, content string) (*model.Message, error)
	ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error)

	// Friends
	AddFriend(ctx context.Context, requesterID int64, username string) (*model.PublicProfile, error)
	ListFriends(ctx context.Context, userID int64) ([]model.PublicProfile, error)
	FindFriend(ctx context.Context, userID int64, username string) (*model.PublicProfile, error)
	RemoveFriend(ctx context.Context, userID, friendID int64) error

	// Users
	CreateUser(ctx context.Context, user NewUser) (*model.User, error)
	GetUserProfile(ctx context.Context, userID int64) (*model.PublicProfile, error)
}

// Loader creates a ChatStore from config.
type Loader func(ctx context.Context) (ChatStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
