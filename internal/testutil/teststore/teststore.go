// Package teststore builds throwaway sqlite-backed chat stores for unit
// tests. Ranking and uniqueness behavior matches the postgres store; tests
// that need postgres-only behavior use the testpg container helper instead.
package teststore

import (
	"context"
	"testing"

	"github.com/papo-chat/papo/internal/model"
	"github.com/papo-chat/papo/internal/plugin/store/gormstore"
	sqliteplugin "github.com/papo-chat/papo/internal/plugin/store/sqlite"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns a ChatStore backed by a fresh in-memory sqlite database with
// the schema applied and the system user seeded.
func New(tb testing.TB) registrystore.ChatStore {
	return NewWithCache(tb, nil)
}

// NewWithCache is New with an explicit conversation cache wired in.
func NewWithCache(tb testing.TB, cache registrycache.ConversationCache) registrystore.ChatStore {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(tb, err)
	sqlDB, err := db.DB()
	require.NoError(tb, err)
	// A single connection keeps the in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, sqliteplugin.Migrate(db))
	return gormstore.New(db, cache)
}

// SeedUser registers a user and returns its record.
func SeedUser(tb testing.TB, store registrystore.ChatStore, username string) *model.User {
	tb.Helper()
	user, err := store.CreateUser(context.Background(), registrystore.NewUser{
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
	})
	require.NoError(tb, err)
	return user
}
