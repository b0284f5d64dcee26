package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
)

func (s *Store) CreateUser(ctx context.Context, user registrystore.NewUser) (*model.User, error) {
	if user.Username == "" {
		return nil, &registrystore.ValidationError{Field: "username", Message: "username is required"}
	}
	if user.Email == "" {
		return nil, &registrystore.ValidationError{Field: "email", Message: "email is required"}
	}

	record := model.User{
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Picture:   user.Picture,
		Bio:       user.Bio,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &registrystore.ConflictError{Message: "username or email already taken"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &record, nil
}

func (s *Store) GetUserProfile(ctx context.Context, userID int64) (*model.PublicProfile, error) {
	user, err := getUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	profile := user.PublicProfile()
	return &profile, nil
}
