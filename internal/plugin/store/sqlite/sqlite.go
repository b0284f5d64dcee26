// Package sqlite provides a file or in-memory sqlite chat store plugin,
// mainly used for local development and tests.
package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/papo-chat/papo/internal/config"
	"github.com/papo-chat/papo/internal/model"
	"github.com/papo-chat/papo/internal/plugin/store/gormstore"
	registrycache "github.com/papo-chat/papo/internal/registry/cache"
	registrymigrate "github.com/papo-chat/papo/internal/registry/migrate"
	registrystore "github.com/papo-chat/papo/internal/registry/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ForceImport is a no-op variable that can be referenced to ensure this package's init() runs.
var ForceImport = 0

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "sqlite",
		Loader: func(ctx context.Context) (registrystore.ChatStore, error) {
			cfg := config.FromContext(ctx)
			db, err := open(cfg.DBURL)
			if err != nil {
				return nil, err
			}
			return gormstore.New(db, registrycache.ConversationCacheFromContext(ctx)), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &sqliteMigrator{}})
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent transactions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate applies the schema and seeds the reserved system user.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Membership{},
		&model.Message{},
		&model.Friend{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	// GORM omits zero-valued primary keys, so the system user row is
	// seeded with raw SQL.
	err = db.Exec(
		"INSERT OR IGNORE INTO users (id, username, name, email, picture, bio, created_at) VALUES (0, 'system', 'System', 'system@localhost', '', '', CURRENT_TIMESTAMP)",
	).Error
	if err != nil {
		return fmt.Errorf("failed to seed system user: %w", err)
	}
	return nil
}

type sqliteMigrator struct{}

func (m *sqliteMigrator) Name() string { return "sqlite-schema" }
func (m *sqliteMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg != nil && !cfg.DatastoreMigrateAtStart {
		return nil
	}
	if cfg.DatastoreType != "sqlite" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := open(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	log.Info("Sqlite schema migration complete")
	return nil
}
