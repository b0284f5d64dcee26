package model

import (
	"time"
)

// User is a registered account. The row with ID 0 is the reserved system
// author (see Author) and never corresponds to a real registration.
type User struct {
	ID        int64     `json:"id"        gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username"  gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Email     string    `json:"email"     gorm:"uniqueIndex"`
	Picture   string    `json:"picture"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (User) TableName() string { return "users" }

// PublicProfile is the subset of User exposed to other members.
type PublicProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture"`
	Bio      string `json:"bio,omitempty"`
}

// PublicProfile returns the user's shareable fields. Email and bio are
// included; list callers that want the short form should use ShortProfile.
func (u User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Picture:  u.Picture,
		Bio:      u.Bio,
	}
}

// ShortProfile returns the fields shown in group participant lists.
func (u User) ShortProfile() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Picture:  u.Picture,
	}
}

// Conversation is a group or direct (DM) conversation. DirectKey is the
// canonical "min:max" user-id pair for DMs and nil for groups; its unique
// index is what makes the one-DM-per-pair invariant hold under concurrent
// creation.
type Conversation struct {
	ID        int64     `json:"id"        gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	IsGroup   bool      `json:"isGroup"   gorm:"not null"`
	DirectKey *string   `json:"-"         gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (Conversation) TableName() string { return "conversations" }

// Membership joins a user to a conversation. There is exactly one row per
// (user, conversation) pair for the conversation's entire lifetime: leaving
// and returning flip LeftConversation, they never delete or recreate the row.
type Membership struct {
	UserID           int64     `json:"userId"           gorm:"primaryKey;autoIncrement:false"`
	ConversationID   int64     `json:"conversationId"   gorm:"primaryKey;autoIncrement:false"`
	Owner            bool      `json:"owner"            gorm:"not null"`
	LeftConversation bool      `json:"leftConversation" gorm:"not null"`
	Favorited        bool      `json:"favorited"        gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"        gorm:"not null"`
}

func (Membership) TableName() string { return "memberships" }

// Message is a chat or narrative message. IDs are assigned in insertion
// order, so id ascending is chronological order.
type Message struct {
	ID             int64     `json:"id"             gorm:"primaryKey;autoIncrement"`
	Content        string    `json:"content"        gorm:"not null"`
	SenderID       int64     `json:"senderId"       gorm:"not null"`
	ConversationID int64     `json:"conversationId" gorm:"not null;index"`
	CreatedAt      time.Time `json:"createdAt"      gorm:"not null"`
}

func (Message) TableName() string { return "messages" }

// Author returns who wrote the message.
func (m Message) Author() Author {
	if m.SenderID == GhostUserID {
		return SystemAuthor()
	}
	return UserAuthor(m.SenderID)
}

// Friend is a directed friendship edge.
type Friend struct {
	RequesterID int64     `json:"requesterId" gorm:"primaryKey;autoIncrement:false"`
	ReceiverID  int64     `json:"receiverId"  gorm:"primaryKey;autoIncrement:false"`
	CreatedAt   time.Time `json:"createdAt"   gorm:"not null"`
}

func (Friend) TableName() string { return "friends" }
