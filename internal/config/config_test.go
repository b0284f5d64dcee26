package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/papo-chat/papo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DBURL = "postgres://localhost/papo"

	ctx := config.WithContext(context.Background(), &cfg)
	got := config.FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "postgres://localhost/papo", got.DBURL)

	assert.Nil(t, config.FromContext(context.Background()))
}

func TestDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, config.ModeProd, cfg.Mode)
	assert.Equal(t, "postgres", cfg.DatastoreType)
	assert.Equal(t, "none", cfg.CacheType)
	assert.True(t, cfg.DatastoreMigrateAtStart)
	assert.Equal(t, 8080, cfg.Listener.Port)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PAPO_DB_MIGRATE_AT_START", "false")
	t.Setenv("PAPO_CACHE_TTL", "30s")
	t.Setenv("PAPO_CACHE_MAX_ENTRIES", "123")

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.ApplyEnvOverrides())
	assert.False(t, cfg.DatastoreMigrateAtStart)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, int64(123), cfg.CacheMaxEntries)
}

func TestApplyEnvOverridesRejectsGarbage(t *testing.T) {
	t.Setenv("PAPO_CACHE_TTL", "not-a-duration")

	cfg := config.DefaultConfig()
	require.Error(t, cfg.ApplyEnvOverrides())
}
