package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBalanceShape(t *testing.T) {
	cfg := Default()

	assert.Len(t, cfg.Workshops.Defs, 3)
	assert.Len(t, cfg.Customers.Types, 4)
	assert.Equal(t, 3, cfg.Quests.DailyCount)
	assert.Equal(t, 2, cfg.Quests.WeeklyCount)
	assert.Equal(t, 10, cfg.Ads.MaxDaily)

	def, ok := cfg.Workshops.Def("crystal_forge")
	require.True(t, ok)
	assert.Equal(t, 8, def.UnlockLevel)
	assert.False(t, def.StartUnlocked)

	_, ok = cfg.Workshops.Def("nope")
	assert.False(t, ok)
}

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	body := "customers:\n  spawn_interval_ms: 2500\nads:\n  max_daily: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(2500), cfg.Customers.SpawnIntervalMs)
	assert.Equal(t, 3, cfg.Ads.MaxDaily)
	// Everything else keeps its default.
	assert.Equal(t, 3, cfg.Customers.MaxLive)
	assert.Len(t, cfg.Workshops.Defs, 3)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SPAWN_INTERVAL_MS", "1234")
	t.Setenv("MAX_DAILY_ADS", "2")
	t.Setenv("OFFLINE_MAX_HOURS", "garbage")

	cfg := FromEnv()

	assert.Equal(t, int64(1234), cfg.Customers.SpawnIntervalMs)
	assert.Equal(t, 2, cfg.Ads.MaxDaily)
	assert.Equal(t, 24, cfg.Offline.MaxHours)
}
