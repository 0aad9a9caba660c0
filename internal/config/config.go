package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Balance holds every gameplay tunable. Defaults mirror the shipped
// balance sheet; a yaml file or environment overrides can adjust them
// without touching code.
type Balance struct {
	Version string `yaml:"version" json:"version"`

	Player    Player    `yaml:"player" json:"player"`
	Shop      Shop      `yaml:"shop" json:"shop"`
	Workshops Workshops `yaml:"workshops" json:"workshops"`
	Customers Customers `yaml:"customers" json:"customers"`
	Offline   Offline   `yaml:"offline" json:"offline"`
	Quests    Quests    `yaml:"quests" json:"quests"`
	Ads       Ads       `yaml:"ads" json:"ads"`
	Autosave  Autosave  `yaml:"autosave" json:"autosave"`
}

type Player struct {
	StartGold         int     `yaml:"start_gold" json:"start_gold"`
	StartGems         int     `yaml:"start_gems" json:"start_gems"`
	StartExpToNext    int     `yaml:"start_exp_to_next" json:"start_exp_to_next"`
	ExpCurveFactor    float64 `yaml:"exp_curve_factor" json:"exp_curve_factor"`
	LevelUpGoldPer    int     `yaml:"level_up_gold_per_level" json:"level_up_gold_per_level"`
	LevelUpGemEvery   int     `yaml:"level_up_gem_every_levels" json:"level_up_gem_every_levels"`
	AchievementGems   int     `yaml:"achievement_gems" json:"achievement_gems"`
	ReputationDenom   int     `yaml:"reputation_bonus_denominator" json:"reputation_bonus_denominator"`
	ShopLevelBonusPct int     `yaml:"shop_level_bonus_pct" json:"shop_level_bonus_pct"`
}

type Shop struct {
	SatisfactionServed int `yaml:"satisfaction_served" json:"satisfaction_served"`
	SatisfactionAngry  int `yaml:"satisfaction_angry" json:"satisfaction_angry"`
	ReputationPerServe int `yaml:"reputation_per_serve" json:"reputation_per_serve"`
}

type Workshops struct {
	Defs []WorkshopDef `yaml:"defs" json:"defs"`
}

// WorkshopDef is the immutable balance curve for one workshop type.
// Duration decreases linearly per level to a floor; income increases
// linearly per level. Seed values describe the level-1 (or locked)
// state a fresh save starts with.
type WorkshopDef struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	ItemType        string `yaml:"item_type" json:"item_type"`
	UnlockLevel     int    `yaml:"unlock_level" json:"unlock_level"`
	StartUnlocked   bool   `yaml:"start_unlocked" json:"start_unlocked"`
	BaseDurationMs  int64  `yaml:"base_duration_ms" json:"base_duration_ms"`
	DurationStepMs  int64  `yaml:"duration_step_ms" json:"duration_step_ms"`
	DurationFloorMs int64  `yaml:"duration_floor_ms" json:"duration_floor_ms"`
	IncomeBase      int    `yaml:"income_base" json:"income_base"`
	IncomeStep      int    `yaml:"income_step" json:"income_step"`
	SeedDurationMs  int64  `yaml:"seed_duration_ms" json:"seed_duration_ms"`
	SeedIncome      int    `yaml:"seed_income" json:"seed_income"`
	SeedGoldCost    int    `yaml:"seed_gold_cost" json:"seed_gold_cost"`
	SeedGemCost     int    `yaml:"seed_gem_cost" json:"seed_gem_cost"`
}

type Customers struct {
	SpawnIntervalMs int64          `yaml:"spawn_interval_ms" json:"spawn_interval_ms"`
	MaxLive         int            `yaml:"max_live" json:"max_live"`
	MinSeparation   float64        `yaml:"min_separation" json:"min_separation"`
	MaxPlaceTries   int            `yaml:"max_place_tries" json:"max_place_tries"`
	Size            float64        `yaml:"size" json:"size"`
	AutoSellDelayMs int64          `yaml:"auto_sell_delay_ms" json:"auto_sell_delay_ms"`
	Types           []CustomerType `yaml:"types" json:"types"`
	Prices          Prices         `yaml:"prices" json:"prices"`
}

type CustomerType struct {
	Name              string  `yaml:"name" json:"name"`
	PatienceMs        int64   `yaml:"patience_ms" json:"patience_ms"`
	PaymentMultiplier float64 `yaml:"payment_multiplier" json:"payment_multiplier"`
	Demand            string  `yaml:"demand" json:"demand"`
	VIP               bool    `yaml:"vip" json:"vip"`
}

type Prices struct {
	Potions      int `yaml:"potions" json:"potions"`
	Enchantments int `yaml:"enchantments" json:"enchantments"`
	Crystals     int `yaml:"crystals" json:"crystals"`
	Any          int `yaml:"any" json:"any"`
}

type Offline struct {
	MinOfflineMs int64 `yaml:"min_offline_ms" json:"min_offline_ms"`
	MaxHours     int   `yaml:"max_hours" json:"max_hours"`
}

type Quests struct {
	DailyCount      int   `yaml:"daily_count" json:"daily_count"`
	WeeklyCount     int   `yaml:"weekly_count" json:"weekly_count"`
	DailyRefreshMs  int64 `yaml:"daily_refresh_ms" json:"daily_refresh_ms"`
	WeeklyRefreshMs int64 `yaml:"weekly_refresh_ms" json:"weekly_refresh_ms"`
	PatienceBoostMs int64 `yaml:"patience_boost_ms" json:"patience_boost_ms"`
}

type Ads struct {
	MaxDaily int `yaml:"max_daily" json:"max_daily"`
}

type Autosave struct {
	IntervalMs int64 `yaml:"interval_ms" json:"interval_ms"`
}

// Default returns the shipped balance sheet.
func Default() Balance {
	return Balance{
		Version: "1.0.0",
		Player: Player{
			StartGold:         100,
			StartGems:         5,
			StartExpToNext:    100,
			ExpCurveFactor:    1.2,
			LevelUpGoldPer:    50,
			LevelUpGemEvery:   5,
			AchievementGems:   1,
			ReputationDenom:   1000,
			ShopLevelBonusPct: 10,
		},
		Shop: Shop{
			SatisfactionServed: 5,
			SatisfactionAngry:  10,
			ReputationPerServe: 10,
		},
		Workshops: Workshops{
			Defs: []WorkshopDef{
				{
					ID: "potion_lab", Name: "药水实验室", ItemType: "potions",
					UnlockLevel: 1, StartUnlocked: true,
					BaseDurationMs: 5000, DurationStepMs: 200, DurationFloorMs: 1000,
					IncomeBase: 10, IncomeStep: 5,
					SeedDurationMs: 30000, SeedIncome: 10, SeedGoldCost: 50, SeedGemCost: 0,
				},
				{
					ID: "enchant_table", Name: "附魔台", ItemType: "enchantments",
					UnlockLevel:    3,
					BaseDurationMs: 8000, DurationStepMs: 300, DurationFloorMs: 1500,
					IncomeBase: 20, IncomeStep: 8,
					SeedDurationMs: 60000, SeedIncome: 25, SeedGoldCost: 200, SeedGemCost: 1,
				},
				{
					ID: "crystal_forge", Name: "水晶熔炉", ItemType: "crystals",
					UnlockLevel:    8,
					BaseDurationMs: 12000, DurationStepMs: 400, DurationFloorMs: 2000,
					IncomeBase: 50, IncomeStep: 15,
					SeedDurationMs: 120000, SeedIncome: 50, SeedGoldCost: 500, SeedGemCost: 2,
				},
			},
		},
		Customers: Customers{
			SpawnIntervalMs: 5000,
			MaxLive:         3,
			MinSeparation:   80,
			MaxPlaceTries:   20,
			Size:            60,
			AutoSellDelayMs: 1000,
			Types: []CustomerType{
				{Name: "普通法师", PatienceMs: 15000, PaymentMultiplier: 1.0, Demand: "potions"},
				{Name: "冒险者", PatienceMs: 10000, PaymentMultiplier: 1.2, Demand: "enchantments"},
				{Name: "贵族", PatienceMs: 20000, PaymentMultiplier: 1.5, Demand: "crystals", VIP: true},
				{Name: "急客", PatienceMs: 5000, PaymentMultiplier: 2.0, Demand: "any", VIP: true},
			},
			Prices: Prices{Potions: 20, Enchantments: 50, Crystals: 100, Any: 30},
		},
		Offline: Offline{
			MinOfflineMs: 60_000,
			MaxHours:     24,
		},
		Quests: Quests{
			DailyCount:      3,
			WeeklyCount:     2,
			DailyRefreshMs:  24 * 60 * 60 * 1000,
			WeeklyRefreshMs: 7 * 24 * 60 * 60 * 1000,
			PatienceBoostMs: 5000,
		},
		Ads:      Ads{MaxDaily: 10},
		Autosave: Autosave{IntervalMs: 30_000},
	}
}

// Load reads a balance file and unmarshals it over the defaults, so a
// partial file only overrides what it names.
func Load(path string) (Balance, error) {
	b := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("balance %s: %w", path, err)
	}
	return b, nil
}

// Def returns the balance curve for a workshop id.
func (w Workshops) Def(id string) (WorkshopDef, bool) {
	for _, d := range w.Defs {
		if d.ID == id {
			return d, true
		}
	}
	return WorkshopDef{}, false
}
