package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"gorm.io/gorm"
)

func (s *Store) AddFriend(ctx context.Context, requesterID int64, username string) (*model.PublicProfile, error) {
	if username == "" {
		return nil, &registrystore.ValidationError{Field: "username", Message: "username is required"}
	}

	var profile model.PublicProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getUser(tx, requesterID); err != nil {
			return err
		}

		var receiver model.User
		if err := tx.Where("username = ?", username).First(&receiver).Error; err != nil {
			return &registrystore.NotFoundError{Resource: "user", ID: username}
		}
		if receiver.ID == requesterID {
			return &registrystore.ValidationError{Field: "username", Message: "cannot add yourself as a friend"}
		}
		if receiver.ID == model.GhostUserID {
			return &registrystore.ValidationError{Field: "username", Message: "invalid user"}
		}

		var count int64
		err := tx.Model(&model.Friend{}).
			Where("(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
				requesterID, receiver.ID, receiver.ID, requesterID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if count > 0 {
			return &registrystore.ConflictError{Message: "already friends"}
		}

		friend := model.Friend{
			RequesterID: requesterID,
			ReceiverID:  receiver.ID,
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(&friend).Error; err != nil {
			if isUniqueViolation(err) {
				return &registrystore.ConflictError{Message: "already friends"}
			}
			return fmt.Errorf("failed to create friendship: %w", err)
		}
		profile = receiver.PublicProfile()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListFriends returns both directions of the friendship table: friendships
// the user requested and friendships requested of them.
func (s *Store) ListFriends(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	db := s.db.WithContext(ctx)
	if _, err := getUser(db, userID); err != nil {
		return nil, err
	}

	var users []model.User
	err := db.Table("users u").
		Select("u.*").
		Joins("JOIN friends f ON (f.requester_id = ? AND f.receiver_id = u.id) OR (f.receiver_id = ? AND f.requester_id = u.id)",
			userID, userID).
		Order("u.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}

	profiles := make([]model.PublicProfile, len(users))
	for i, u := range users {
		profiles[i] = u.PublicProfile()
	}
	return profiles, nil
}

func (s *Store) FindFriend(ctx context.Context, userID int64, username string) (*model.PublicProfile, error) {
	db := s.db.WithContext(ctx)

	var friend model.User
	if err := db.Where("username = ?", username).First(&friend).Error; err != nil {
		return nil, &registrystore.NotFoundError{Resource: "user", ID: username}
	}

	var count int64
	err := db.Model(&model.Friend{}).
		Where("(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
			userID, friend.ID, friend.ID, userID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if count == 0 {
		return nil, &registrystore.NotFoundError{Resource: "friend", ID: username}
	}
	profile := friend.PublicProfile()
	return &profile, nil
}

func (s *Store) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
			userID, friendID, friendID, userID).
			Delete(&model.Friend{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove friendship: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &registrystore.NotFoundError{Resource: "friend", ID: formatID(friendID)}
		}
		return nil
	})
}
