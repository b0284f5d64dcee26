package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"gorm.io/gorm"
)

func (s *Store) AddMembers(ctx context.Context, requesterID, conversationID int64, memberIDs []int64) ([]registrystore.MemberAddOutcome, error) {
	var outcomes []registrystore.MemberAddOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getMembership(tx, requesterID, conversationID); err != nil {
			return err
		}
		var conv model.Conversation
		if err := tx.Where("id = ?", conversationID).First(&conv).Error; err != nil {
			return &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
		}
		if !conv.IsGroup {
			return &registrystore.ValidationError{Field: "conversationId", Message: "cannot add members to a direct conversation"}
		}
		var err error
		outcomes, err = addMembersTx(tx, conversationID, memberIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// addMembersTx adds each candidate to the group, recording a per-id outcome.
// Business failures (unknown user, already a member) become failed outcomes;
// only infrastructure errors abort the transaction.
func addMembersTx(tx *gorm.DB, conversationID int64, memberIDs []int64) ([]registrystore.MemberAddOutcome, error) {
	outcomes := make([]registrystore.MemberAddOutcome, 0, len(memberIDs))
	for _, userID := range memberIDs {
		if userID == model.GhostUserID {
			outcomes = append(outcomes, registrystore.MemberAddOutcome{
				UserID: userID,
				Detail: "invalid user",
			})
			continue
		}

		var user model.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcomes = append(outcomes, registrystore.MemberAddOutcome{
					UserID: userID,
					Detail: "user not found",
				})
				continue
			}
			return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
		}

		var existing model.Membership
		err := tx.Where("user_id = ? AND conversation_id = ?", userID, conversationID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.LeftConversation {
				err := tx.Model(&model.Membership{}).
					Where("user_id = ? AND conversation_id = ?", userID, conversationID).
					Update("left_conversation", false).Error
				if err != nil {
					return nil, fmt.Errorf("failed to reactivate membership: %w", err)
				}
				outcomes = append(outcomes, registrystore.MemberAddOutcome{
					UserID: userID,
					Added:  true,
					Detail: fmt.Sprintf("'%s' voltou ao grupo.", user.Username),
				})
				continue
			}
			outcomes = append(outcomes, registrystore.MemberAddOutcome{
				UserID: userID,
				Detail: "already a member",
			})
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through to insert
		default:
			return nil, fmt.Errorf("failed to look up membership: %w", err)
		}

		m := model.Membership{
			UserID:         userID,
			ConversationID: conversationID,
			CreatedAt:      time.Now(),
		}
		if err := tx.Create(&m).Error; err != nil {
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}

		narrative := fmt.Sprintf("'%s' entrou no grupo.", user.Username)
		if _, err := sendMessageTx(tx, model.SystemAuthor(), conversationID, narrative); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, registrystore.MemberAddOutcome{
			UserID: userID,
			Added:  true,
			Detail: narrative,
		})
	}
	return outcomes, nil
}

func (s *Store) LeaveConversation(ctx context.Context, userID, conversationID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := getMembership(tx, userID, conversationID)
		if err != nil {
			return err
		}
		if membership.LeftConversation {
			return nil
		}
		err = tx.Model(&model.Membership{}).
			Where("user_id = ? AND conversation_id = ?", userID, conversationID).
			Update("left_conversation", true).Error
		if err != nil {
			return fmt.Errorf("failed to leave conversation: %w", err)
		}

		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		_, err = sendMessageTx(tx, model.SystemAuthor(), conversationID,
			fmt.Sprintf("'%s' saiu da conversa.", user.Username))
		return err
	})
}

func (s *Store) ReturnToConversation(ctx context.Context, userID, conversationID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := getMembership(tx, userID, conversationID)
		if err != nil {
			return err
		}
		if !membership.LeftConversation {
			return nil
		}
		err = tx.Model(&model.Membership{}).
			Where("user_id = ? AND conversation_id = ?", userID, conversationID).
			Update("left_conversation", false).Error
		if err != nil {
			return fmt.Errorf("failed to return to conversation: %w", err)
		}

		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		_, err = sendMessageTx(tx, model.SystemAuthor(), conversationID,
			fmt.Sprintf("'%s' voltou à conversa.", user.Username))
		return err
	})
}

func (s *Store) SetFavorite(ctx context.Context, userID, conversationID int64, favorited bool) error {
	db := s.db.WithContext(ctx)
	if _, err := getMembership(db, userID, conversationID); err != nil {
		return err
	}
	err := db.Model(&model.Membership{}).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Update("favorited", favorited).Error
	if err != nil {
		return fmt.Errorf("failed to update favorite flag: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, conversationID int64) (*registrystore.MembershipDetail, error) {
	membership, err := getMembership(s.db.WithContext(ctx), userID, conversationID)
	if err != nil {
		return nil, err
	}
	return &registrystore.MembershipDetail{
		UserID:           membership.UserID,
		ConversationID:   membership.ConversationID,
		Owner:            membership.Owner,
		LeftConversation: membership.LeftConversation,
		Favorited:        membership.Favorited,
	}, nil
}
