package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides reads PAPO_* environment variables that are not
// represented by dedicated CLI flags on the serve command.
func (c *Config) ApplyEnvOverrides() error {
	if c == nil {
		return nil
	}

	if err := applyBoolEnv("PAPO_DB_MIGRATE_AT_START", &c.DatastoreMigrateAtStart); err != nil {
		return err
	}
	if err := applyDurationEnv("PAPO_CACHE_TTL", &c.CacheTTL); err != nil {
		return err
	}
	if err := applyInt64Env("PAPO_CACHE_MAX_ENTRIES", &c.CacheMaxEntries); err != nil {
		return err
	}
	if err := applyInt64Env("PAPO_MAX_BODY_SIZE", &c.MaxBodySize); err != nil {
		return err
	}
	if err := applyBoolEnv("PAPO_ACCESS_LOG", &c.AccessLog); err != nil {
		return err
	}
	return nil
}

func applyBoolEnv(name string, dst *bool) error {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

func applyInt64Env(name string, dst *int64) error {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

func applyDurationEnv(name string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}
