package config

import (
	"os"
	"strconv"
)

// FromEnv loads the balance sheet with environment overrides applied.
// Unset or malformed variables leave the default in place.
func FromEnv() Balance {
	cfg := Default()

	if v := getEnvInt("SPAWN_INTERVAL_MS"); v > 0 {
		cfg.Customers.SpawnIntervalMs = int64(v)
	}
	if v := getEnvInt("MAX_LIVE_CUSTOMERS"); v > 0 {
		cfg.Customers.MaxLive = v
	}
	if v := getEnvInt("AUTO_SELL_DELAY_MS"); v > 0 {
		cfg.Customers.AutoSellDelayMs = int64(v)
	}
	if v := getEnvInt("OFFLINE_MAX_HOURS"); v > 0 {
		cfg.Offline.MaxHours = v
	}
	if v := getEnvInt("AUTOSAVE_INTERVAL_MS"); v > 0 {
		cfg.Autosave.IntervalMs = int64(v)
	}
	if v := getEnvInt("MAX_DAILY_ADS"); v > 0 {
		cfg.Ads.MaxDaily = v
	}

	return cfg
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
