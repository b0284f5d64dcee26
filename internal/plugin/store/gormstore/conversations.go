package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/security"
	"gorm.io/gorm"
)

func (s *Store) CreateGroupConversation(ctx context.Context, creatorID int64, name, picture string, memberIDs []int64) (*registrystore.GroupCreationResult, error) {
	if name == "" {
		return nil, &registrystore.ValidationError{Field: "name", Message: "name is required"}
	}

	var result registrystore.GroupCreationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := getUser(tx, creatorID)
		if err != nil {
			return err
		}

		now := time.Now()
		conv := model.Conversation{
			Name:      name,
			Picture:   picture,
			IsGroup:   true,
			CreatedAt: now,
		}
		if err := tx.Create(&conv).Error; err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		owner := model.Membership{
			UserID:         creatorID,
			ConversationID: conv.ID,
			Owner:          true,
			CreatedAt:      now,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}

		ghost := model.Membership{
			UserID:         model.GhostUserID,
			ConversationID: conv.ID,
			CreatedAt:      now,
		}
		if err := tx.Create(&ghost).Error; err != nil {
			return fmt.Errorf("failed to create ghost membership: %w", err)
		}

		narrative := narrativeGroupCreated(creator.Username, conv.Name)
		if _, err := sendMessageTx(tx, model.SystemAuthor(), conv.ID, narrative); err != nil {
			return err
		}

		// Member additions run inside the same transaction so a crash cannot
		// leave a half-seeded group. Per-id business failures (unknown user,
		// already a member) are outcomes, not rollbacks.
		outcomes, err := addMembersTx(tx, conv.ID, memberIDs)
		if err != nil {
			return err
		}

		result = registrystore.GroupCreationResult{
			ConversationID: conv.ID,
			Narrative:      narrative,
			Members:        outcomes,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) CreateDirectConversation(ctx context.Context, requesterID, targetID int64, name, picture string) (*registrystore.DirectConversationResult, error) {
	if requesterID == targetID {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "cannot start a conversation with yourself"}
	}
	if targetID == model.GhostUserID {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "invalid user"}
	}

	result, err := s.createOrReactivateDirect(ctx, requesterID, targetID, name, picture)
	if isUniqueViolation(err) {
		// Lost the race on the direct-key unique index: another request
		// created the pair's DM first. Re-running finds it and reactivates.
		result, err = s.createOrReactivateDirect(ctx, requesterID, targetID, name, picture)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) createOrReactivateDirect(ctx context.Context, requesterID, targetID int64, name, picture string) (*registrystore.DirectConversationResult, error) {
	var result registrystore.DirectConversationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockDirectPair(tx, requesterID, targetID)

		requester, err := getUser(tx, requesterID)
		if err != nil {
			return err
		}
		target, err := getUser(tx, targetID)
		if err != nil {
			return err
		}

		convID, err := findDirectConversation(tx, requesterID, targetID)
		if err != nil {
			return err
		}

		if convID != 0 {
			// The pair already has a DM; clear the requester's left flag and
			// report the return with freshly resolved usernames.
			err := tx.Model(&model.Membership{}).
				Where("user_id = ? AND conversation_id = ?", requesterID, convID).
				Update("left_conversation", false).Error
			if err != nil {
				return fmt.Errorf("failed to reactivate membership: %w", err)
			}
			result = registrystore.DirectConversationResult{
				ConversationID: convID,
				Narrative:      narrativeConversationResumed(requester.Username, target.Username),
				Reactivated:    true,
			}
			return nil
		}

		now := time.Now()
		key := directKey(requesterID, targetID)
		conv := model.Conversation{
			Name:      name,
			Picture:   picture,
			DirectKey: &key,
			CreatedAt: now,
		}
		if err := tx.Create(&conv).Error; err != nil {
			if isUniqueViolation(err) {
				return err // retried by the caller
			}
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		for _, userID := range []int64{requesterID, targetID, model.GhostUserID} {
			m := model.Membership{
				UserID:         userID,
				ConversationID: conv.ID,
				CreatedAt:      now,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}
		}

		narrative := narrativeConversationStarted(requester.Username, target.Username)
		if _, err := sendMessageTx(tx, model.SystemAuthor(), conv.ID, narrative); err != nil {
			return err
		}

		result = registrystore.DirectConversationResult{
			ConversationID: conv.ID,
			Narrative:      narrative,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// directKey returns the canonical "min:max" pair key for a DM.
func directKey(a, b int64) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// lockDirectPair serializes concurrent DM creation for the same unordered
// pair. On postgres it takes a transaction-scoped advisory lock keyed on the
// ordered pair; on sqlite writes are serialized by the engine already. The
// direct-key unique index remains the hard backstop either way.
func lockDirectPair(tx *gorm.DB, a, b int64) {
	if tx.Dialector.Name() != "postgres" {
		return
	}
	if b < a {
		a, b = b, a
	}
	tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(a), int32(b))
}

// findDirectConversation returns the id of the pair's DM, or 0. It
// intersects both users' non-group membership sets; left memberships count,
// because a left DM is reactivated rather than recreated. Ties (which the
// one-DM-per-pair invariant rules out) resolve to the lowest id.
func findDirectConversation(tx *gorm.DB, userA, userB int64) (int64, error) {
	var ids []int64
	err := tx.Table("memberships m").
		Select("m.conversation_id").
		Joins("JOIN conversations c ON c.id = m.conversation_id AND c.is_group = ?", false).
		Where("m.user_id = ?", userA).
		Where("m.conversation_id IN (SELECT conversation_id FROM memberships WHERE user_id = ?)", userB).
		Order("m.conversation_id ASC").
		Limit(1).
		Scan(&ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to check for existing conversation: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func (s *Store) GetRecentConversations(ctx context.Context, userID int64) ([]registrystore.RecentConversation, error) {
	db := s.db.WithContext(ctx)

	var memberships []model.Membership
	err := db.Where("user_id = ? AND left_conversation = ?", userID, false).
		Order("created_at ASC, conversation_id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	if len(memberships) == 0 {
		return []registrystore.RecentConversation{}, nil
	}

	allIDs := make([]int64, 0, len(memberships))
	favoriteIDs := make([]int64, 0)
	favorited := make(map[int64]bool, len(memberships))
	for _, m := range memberships {
		allIDs = append(allIDs, m.ConversationID)
		favorited[m.ConversationID] = m.Favorited
		if m.Favorited {
			favoriteIDs = append(favoriteIDs, m.ConversationID)
		}
	}

	// One row per conversation: the id of its newest message decides recency.
	var recentIDs []int64
	err = db.Table("messages").
		Select("conversation_id").
		Where("conversation_id IN ?", allIDs).
		Group("conversation_id").
		Order("MAX(id) DESC").
		Scan(&recentIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank conversations: %w", err)
	}

	// Favorites first, in membership order, then the rest by recency.
	ordered := make([]int64, 0, len(allIDs))
	ordered = append(ordered, favoriteIDs...)
	for _, id := range recentIDs {
		if !favorited[id] {
			ordered = append(ordered, id)
		}
	}

	conversations, err := s.hydrateConversations(ctx, ordered)
	if err != nil {
		return nil, err
	}

	result := make([]registrystore.RecentConversation, 0, len(ordered))
	for _, id := range ordered {
		conv, ok := conversations[id]
		if !ok {
			continue
		}
		result = append(result, registrystore.RecentConversation{
			Conversation: conv,
			Favorited:    favorited[id],
		})
	}
	return result, nil
}

// hydrateConversations resolves the ordered id set into conversation records
// with a single batched query, fronted by the conversation cache.
func (s *Store) hydrateConversations(ctx context.Context, ids []int64) (map[int64]model.Conversation, error) {
	conversations := make(map[int64]model.Conversation, len(ids))
	missing := make([]int64, 0, len(ids))

	useCache := s.cache != nil && s.cache.Available()
	for _, id := range ids {
		if useCache {
			if conv, err := s.cache.Get(ctx, id); err == nil && conv != nil {
				if security.CacheHitsTotal != nil {
					security.CacheHitsTotal.Inc()
				}
				conversations[id] = *conv
				continue
			}
			if security.CacheMissesTotal != nil {
				security.CacheMissesTotal.Inc()
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		var fetched []model.Conversation
		if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&fetched).Error; err != nil {
			return nil, fmt.Errorf("failed to load conversations: %w", err)
		}
		for _, conv := range fetched {
			conversations[conv.ID] = conv
			if useCache {
				_ = s.cache.Set(ctx, conv)
			}
		}
	}
	return conversations, nil
}

func (s *Store) GetConversation(ctx context.Context, userID, conversationID int64) (*registrystore.ConversationWithMessages, error) {
	db := s.db.WithContext(ctx)

	if _, err := getMembership(db, userID, conversationID); err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := db.Where("id = ?", conversationID).First(&conv).Error; err != nil {
		return nil, &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
	}

	messages, err := s.ListMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return &registrystore.ConversationWithMessages{Conversation: conv, Messages: messages}, nil
}

func (s *Store) GetConversationInfo(ctx context.Context, userID, conversationID int64) (*registrystore.ConversationInfo, error) {
	db := s.db.WithContext(ctx)

	membership, err := getMembership(db, userID, conversationID)
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := db.Where("id = ?", conversationID).First(&conv).Error; err != nil {
		return nil, &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
	}

	if conv.IsGroup {
		var users []model.User
		err := db.Table("users u").
			Select("u.*").
			Joins("JOIN memberships m ON m.user_id = u.id AND m.conversation_id = ?", conversationID).
			Where("u.id NOT IN ?", []int64{model.GhostUserID, userID}).
			Order("u.id ASC").
			Find(&users).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load participants: %w", err)
		}
		participants := make([]model.PublicProfile, len(users))
		for i, u := range users {
			participants[i] = u.ShortProfile()
		}
		return &registrystore.ConversationInfo{
			Group: &registrystore.GroupInfo{
				IsOwner:      membership.Owner,
				Conversation: conv,
				Participants: participants,
			},
		}, nil
	}

	// DM: the single real participant who is neither the caller nor the ghost.
	var other model.User
	err = db.Table("users u").
		Select("u.*").
		Joins("JOIN memberships m ON m.user_id = u.id AND m.conversation_id = ?", conversationID).
		Where("u.id NOT IN ?", []int64{model.GhostUserID, userID}).
		First(&other).Error
	if err != nil {
		return nil, &registrystore.NotFoundError{Resource: "user", ID: "peer"}
	}
	profile := other.PublicProfile()
	return &registrystore.ConversationInfo{Direct: &profile}, nil
}

func (s *Store) RenameGroup(ctx context.Context, userID, conversationID int64, name string) (string, error) {
	if name == "" {
		return "", &registrystore.ValidationError{Field: "name", Message: "name is required"}
	}

	var narrative string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := getMembership(tx, userID, conversationID)
		if err != nil {
			return err
		}

		var conv model.Conversation
		if err := tx.Where("id = ?", conversationID).First(&conv).Error; err != nil {
			return &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
		}
		if !conv.IsGroup {
			return &registrystore.ValidationError{Field: "conversationId", Message: "direct conversations cannot be renamed"}
		}
		if !membership.Owner {
			return &registrystore.ForbiddenError{}
		}

		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}

		if err := tx.Model(&conv).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename conversation: %w", err)
		}
		narrative = narrativeGroupRenamed(user.Username, name)
		if _, err := sendMessageTx(tx, model.SystemAuthor(), conversationID, narrative); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.cacheRemove(ctx, conversationID)
	return narrative, nil
}

func (s *Store) DeleteGroup(ctx context.Context, userID, conversationID int64) (string, error) {
	var narrative string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Owner-filtered lookup: a non-owner (or non-member) sees the same
		// NotFound as a nonexistent conversation. DMs have no owner row, so
		// they have no delete path through here either.
		var membership model.Membership
		err := tx.Where("user_id = ? AND conversation_id = ? AND owner = ?", userID, conversationID, true).
			First(&membership).Error
		if err != nil {
			return &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
		}

		var conv model.Conversation
		if err := tx.Where("id = ?", conversationID).First(&conv).Error; err != nil {
			return &registrystore.NotFoundError{Resource: "conversation", ID: formatID(conversationID)}
		}

		if err := tx.Where("conversation_id = ?", conversationID).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := tx.Delete(&conv).Error; err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}

		narrative = narrativeGroupDeleted(conv.Name)
		return nil
	})
	if err != nil {
		return "", err
	}

	s.cacheRemove(ctx, conversationID)
	return narrative, nil
}
