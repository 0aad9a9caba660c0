package state

import (
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
)

// CurrentVersion is the semantic version stamped into every save.
// Migrations in migrate.go lift older saves to this version.
const CurrentVersion = "1.1.0"

// GameData is the canonical mutable state tree. The Store owns the only
// instance; everything else reads and mutates through Store methods.
type GameData struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Level      int    `json:"level"`
	Exp        int    `json:"exp"`
	ExpToNext  int    `json:"expToNext"`

	Gold        int `json:"gold"`
	Gems        int `json:"gems"`
	MagicPowder int `json:"magicPowder"`

	ShopLevel  int `json:"shopLevel"`
	ShopExp    int `json:"shopExp"`
	Reputation int `json:"reputation"`

	Workshops []Workshop `json:"workshops"`
	Inventory Inventory  `json:"inventory"`

	CustomerSatisfaction int `json:"customerSatisfaction"`

	Achievements Achievements `json:"achievements"`
	QuestData    QuestData    `json:"questData"`

	UnlockedFeatures []string `json:"unlockedFeatures,omitempty"`

	OfflineTimeMs  int64 `json:"offlineTime"`
	LastActiveTime int64 `json:"lastActiveTime"`

	Stats    Stats    `json:"stats"`
	Settings Settings `json:"settings"`

	Version  string `json:"version"`
	SaveTime int64  `json:"saveTime"`
}

// Workshop is one production facility. Level 0 means not built.
type Workshop struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Level               int    `json:"level"`
	Unlocked            bool   `json:"unlocked"`
	Producing           bool   `json:"producing"`
	ProductionStartTime int64  `json:"productionStartTime"`
	ProductionDuration  int64  `json:"productionDuration"`
	BaseIncome          int    `json:"baseIncome"`
	UpgradeGoldCost     int    `json:"upgradeGoldCost"`
	UpgradeGemCost      int    `json:"upgradeGemCost"`
}

// Inventory counts finished goods. Buckets never go negative.
type Inventory struct {
	Potions      int `json:"potions"`
	Enchantments int `json:"enchantments"`
	Crystals     int `json:"crystals"`
	RareItems    int `json:"rareItems"`
}

// Total sums every bucket.
func (inv Inventory) Total() int {
	return inv.Potions + inv.Enchantments + inv.Crystals + inv.RareItems
}

// Achievements are the built-in milestone flags checked on every gold
// or stat mutation.
type Achievements struct {
	FirstSale        bool `json:"firstSale"`
	GoldMaster       bool `json:"goldMaster"`
	WorkshopMaster   bool `json:"workshopMaster"`
	CustomerFavorite bool `json:"customerFavorite"`
}

// QuestData is the quest engine's persisted slice of the tree. The quest
// package owns its shape; the store just carries it through save/load.
type QuestData struct {
	Daily        []QuestInstance `json:"dailyQuests,omitempty"`
	Weekly       []QuestInstance `json:"weeklyQuests,omitempty"`
	Story        []QuestInstance `json:"storyQuests,omitempty"`
	Achievements []QuestInstance `json:"achievements,omitempty"`

	LastDailyRefresh  int64 `json:"lastDailyRefresh"`
	LastWeeklyRefresh int64 `json:"lastWeeklyRefresh"`

	CompletedStoryIDs []string `json:"completedStoryQuests,omitempty"`
}

// QuestInstance is a live quest derived from an immutable template.
type QuestInstance struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId"`
	Progress   int    `json:"progress"`
	Completed  bool   `json:"completed"`
	Claimed    bool   `json:"claimed"`
	StartTime  int64  `json:"startTime"`
	// TimeStarted is set on the first qualifying progress event of a
	// time-limited quest; zero means the window has not opened.
	TimeStarted int64 `json:"timeStarted,omitempty"`
}

type Stats struct {
	TotalGoldEarned      int   `json:"totalGoldEarned"`
	TotalItemsSold       int   `json:"totalItemsSold"`
	TotalCustomersServed int   `json:"totalCustomersServed"`
	TotalAdsWatched      int   `json:"totalAdsWatched"`
	TotalGameTimeMs      int64 `json:"totalGameTime"`
	GamesPlayed          int   `json:"gamesPlayed"`
}

type Settings struct {
	SoundEnabled         bool `json:"soundEnabled"`
	MusicEnabled         bool `json:"musicEnabled"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
	AutoSellEnabled      bool `json:"autoSellEnabled"`
}

// NewDefault builds the fresh-profile tree from the balance sheet.
func NewDefault(cfg config.Balance) GameData {
	workshops := make([]Workshop, 0, len(cfg.Workshops.Defs))
	for _, def := range cfg.Workshops.Defs {
		level := 0
		if def.StartUnlocked {
			level = 1
		}
		workshops = append(workshops, Workshop{
			ID:                 def.ID,
			Name:               def.Name,
			Level:              level,
			Unlocked:           def.StartUnlocked,
			ProductionDuration: def.SeedDurationMs,
			BaseIncome:         def.SeedIncome,
			UpgradeGoldCost:    def.SeedGoldCost,
			UpgradeGemCost:     def.SeedGemCost,
		})
	}

	return GameData{
		PlayerName:           "魔法商人",
		Level:                1,
		ExpToNext:            cfg.Player.StartExpToNext,
		Gold:                 cfg.Player.StartGold,
		Gems:                 cfg.Player.StartGems,
		ShopLevel:            1,
		Workshops:            workshops,
		CustomerSatisfaction: 100,
		Stats:                Stats{},
		Settings: Settings{
			SoundEnabled:         true,
			MusicEnabled:         true,
			NotificationsEnabled: true,
		},
		Version: CurrentVersion,
	}
}

// WorkshopByID returns a pointer into the tree, or nil.
func (d *GameData) WorkshopByID(id string) *Workshop {
	for i := range d.Workshops {
		if d.Workshops[i].ID == id {
			return &d.Workshops[i]
		}
	}
	return nil
}

// FeatureUnlocked reports whether a quest reward flag has been applied.
func (d *GameData) FeatureUnlocked(id string) bool {
	for _, f := range d.UnlockedFeatures {
		if f == id {
			return true
		}
	}
	return false
}
