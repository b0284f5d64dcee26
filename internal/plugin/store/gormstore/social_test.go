package gormstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/papo-chat/papo/internal/model"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/papo-chat/papo/internal/testutil/teststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMembers(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")
	carol := teststore.SeedUser(t, store, "carol")

	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", []int64{bob.ID})
	require.NoError(t, err)

	outcomes, err := store.AddMembers(ctx, alice.ID, g.ConversationID, []int64{carol.ID, bob.ID, 999})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Added)
	assert.Equal(t, "'carol' entrou no grupo.", outcomes[0].Detail)
	assert.False(t, outcomes[1].Added)
	assert.Equal(t, "already a member", outcomes[1].Detail)
	assert.False(t, outcomes[2].Added)
	assert.Equal(t, "user not found", outcomes[2].Detail)
}

func TestAddMembersReactivatesLeftMember(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", []int64{bob.ID})
	require.NoError(t, err)
	require.NoError(t, store.LeaveConversation(ctx, bob.ID, g.ConversationID))

	outcomes, err := store.AddMembers(ctx, alice.ID, g.ConversationID, []int64{bob.ID})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Added)
	assert.Equal(t, "'bob' voltou ao grupo.", outcomes[0].Detail)

	membership, err := store.GetMembership(ctx, bob.ID, g.ConversationID)
	require.NoError(t, err)
	assert.False(t, membership.LeftConversation)
}

func TestAddMembersAuthorization(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")
	mallory := teststore.SeedUser(t, store, "mallory")

	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	// Non-members cannot add, and cannot learn that the group exists.
	var notFound *registrystore.NotFoundError
	_, err = store.AddMembers(ctx, mallory.ID, g.ConversationID, []int64{bob.ID})
	require.True(t, errors.As(err, &notFound))

	// Members cannot add to a DM.
	dm, err := store.CreateDirectConversation(ctx, alice.ID, bob.ID, "", "")
	require.NoError(t, err)
	var validation *registrystore.ValidationError
	_, err = store.AddMembers(ctx, alice.ID, dm.ConversationID, []int64{mallory.ID})
	require.True(t, errors.As(err, &validation))
}

func TestLeaveAndReturn(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")

	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", []int64{bob.ID})
	require.NoError(t, err)

	require.NoError(t, store.LeaveConversation(ctx, bob.ID, g.ConversationID))

	// Leaving twice is a no-op, not an error.
	require.NoError(t, store.LeaveConversation(ctx, bob.ID, g.ConversationID))

	// Left members cannot send but keep read access to the history.
	var forbidden *registrystore.ForbiddenError
	_, err = store.SendMessage(ctx, model.UserAuthor(bob.ID), g.ConversationID, "oi")
	require.True(t, errors.As(err, &forbidden))
	_, err = store.ListMessages(ctx, bob.ID, g.ConversationID)
	require.NoError(t, err)

	require.NoError(t, store.ReturnToConversation(ctx, bob.ID, g.ConversationID))
	_, err = store.SendMessage(ctx, model.UserAuthor(bob.ID), g.ConversationID, "voltei")
	require.NoError(t, err)

	msgs, err := store.ListMessages(ctx, alice.ID, g.ConversationID)
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "voltei", last.Content)
	assert.Equal(t, bob.ID, last.SenderID)
	// The leave and return narratives were recorded in between.
	assert.Equal(t, "'bob' voltou à conversa.", msgs[len(msgs)-2].Content)
	assert.Equal(t, "'bob' saiu da conversa.", msgs[len(msgs)-3].Content)
}

func TestSetFavoriteRequiresMembership(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	mallory := teststore.SeedUser(t, store, "mallory")

	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	var notFound *registrystore.NotFoundError
	err = store.SetFavorite(ctx, mallory.ID, g.ConversationID, true)
	require.True(t, errors.As(err, &notFound))

	require.NoError(t, store.SetFavorite(ctx, alice.ID, g.ConversationID, true))
	membership, err := store.GetMembership(ctx, alice.ID, g.ConversationID)
	require.NoError(t, err)
	assert.True(t, membership.Favorited)
}

func TestSendMessageValidation(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	var validation *registrystore.ValidationError
	_, err = store.SendMessage(ctx, model.UserAuthor(alice.ID), g.ConversationID, "")
	require.True(t, errors.As(err, &validation))

	var notFound *registrystore.NotFoundError
	_, err = store.SendMessage(ctx, model.UserAuthor(alice.ID), 999, "oi")
	require.True(t, errors.As(err, &notFound))
	_, err = store.SendMessage(ctx, model.SystemAuthor(), 999, "oi")
	require.True(t, errors.As(err, &notFound))
}

func TestMessageOrderIsChronological(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	g, err := store.CreateGroupConversation(ctx, alice.ID, "Trip", "", nil)
	require.NoError(t, err)

	for _, content := range []string{"um", "dois", "três"} {
		_, err := store.SendMessage(ctx, model.UserAuthor(alice.ID), g.ConversationID, content)
		require.NoError(t, err)
	}

	msgs, err := store.ListMessages(ctx, alice.ID, g.ConversationID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(msgs), 4)
	tail := msgs[len(msgs)-3:]
	assert.Equal(t, "um", tail[0].Content)
	assert.Equal(t, "dois", tail[1].Content)
	assert.Equal(t, "três", tail[2].Content)
	assert.Less(t, tail[0].ID, tail[1].ID)
	assert.Less(t, tail[1].ID, tail[2].ID)
}

func TestFriends(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	bob := teststore.SeedUser(t, store, "bob")
	carol := teststore.SeedUser(t, store, "carol")

	profile, err := store.AddFriend(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, profile.ID)

	// Duplicate in either direction conflicts.
	var conflict *registrystore.ConflictError
	_, err = store.AddFriend(ctx, alice.ID, "bob")
	require.True(t, errors.As(err, &conflict))
	_, err = store.AddFriend(ctx, bob.ID, "alice")
	require.True(t, errors.As(err, &conflict))

	_, err = store.AddFriend(ctx, carol.ID, "alice")
	require.NoError(t, err)

	// Both directions show up in the list.
	friends, err := store.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].Username)
	assert.Equal(t, "carol", friends[1].Username)

	found, err := store.FindFriend(ctx, alice.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, carol.ID, found.ID)

	var notFound *registrystore.NotFoundError
	_, err = store.FindFriend(ctx, bob.ID, "carol")
	require.True(t, errors.As(err, &notFound))

	require.NoError(t, store.RemoveFriend(ctx, alice.ID, bob.ID))
	err = store.RemoveFriend(ctx, alice.ID, bob.ID)
	require.True(t, errors.As(err, &notFound))
}

func TestAddFriendValidation(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")

	var validation *registrystore.ValidationError
	_, err := store.AddFriend(ctx, alice.ID, "alice")
	require.True(t, errors.As(err, &validation))
	_, err = store.AddFriend(ctx, alice.ID, "system")
	require.True(t, errors.As(err, &validation))
	_, err = store.AddFriend(ctx, alice.ID, "")
	require.True(t, errors.As(err, &validation))

	var notFound *registrystore.NotFoundError
	_, err = store.AddFriend(ctx, alice.ID, "ghost")
	require.True(t, errors.As(err, &notFound))
}

func TestCreateUser(t *testing.T) {
	store := teststore.New(t)
	ctx := context.Background()

	alice := teststore.SeedUser(t, store, "alice")
	assert.Positive(t, alice.ID)

	var conflict *registrystore.ConflictError
	_, err := store.CreateUser(ctx, registrystore.NewUser{Username: "alice", Email: "other@example.com"})
	require.True(t, errors.As(err, &conflict))

	var validation *registrystore.ValidationError
	_, err = store.CreateUser(ctx, registrystore.NewUser{Username: "", Email: "x@example.com"})
	require.True(t, errors.As(err, &validation))

	profile, err := store.GetUserProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	var notFound *registrystore.NotFoundError
	_, err = store.GetUserProfile(ctx, 999)
	require.True(t, errors.As(err, &notFound))
}
