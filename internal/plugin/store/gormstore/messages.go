package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"gorm.io/gorm"
)

func (s *Store) SendMessage(ctx context.Context, author model.Author, conversationID int64, content string) (*model.Message, error) {
	if content == "" {
		return nil, &registrystore.ValidationError{Field: "content", Message: "content is required"}
	}

	var msg *model.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !author.IsSystem() {
			membership, err := getMembership(tx, author.SenderID(), conversationID)
			if err != nil {
				return err
			}
			if membership.LeftConversation {
				return &registrystore.ForbiddenError{}
			}
		} else {
			var count int64
			if err := tx.Model(&model.Conversation{}).Where("id = ?", conversationID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check conversation: %w", err)
			}
			if count == 0 {
				return &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
			}
		}

		var err error
		msg, err = sendMessageTx(tx, author, conversationID, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func sendMessageTx(tx *gorm.DB, author model.Author, conversationID int64, content string) (*model.Message, error) {
	msg := model.Message{
		Content:        content,
		SenderID:       author.SenderID(),
		ConversationID: conversationID,
		CreatedAt:      time.Now(),
	}
	if err := tx.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns the conversation's messages oldest first. Members who
// left keep read access to the history they were part of.
func (s *Store) ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	db := s.db.WithContext(ctx)
	if _, err := getMembership(db, userID, conversationID); err != nil {
		return nil, err
	}

	var messages []model.Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}
