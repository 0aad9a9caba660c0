package state

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
)

// SaveRepo persists the opaque save blob for one slot.
type SaveRepo interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, blob []byte) error
	Clear(ctx context.Context) error
}

// Backup pushes the small critical-field record to a remote store.
// Push failures must be tolerated by callers.
type Backup interface {
	Push(ctx context.Context, rec CriticalFields) error
}

// CriticalFields is the anti-cheat subset mirrored remotely on save.
type CriticalFields struct {
	PlayerID        string `json:"player_id"`
	Level           int    `json:"level"`
	Gold            int    `json:"gold"`
	Gems            int    `json:"gems"`
	ShopLevel       int    `json:"shop_level"`
	TotalGoldEarned int    `json:"total_gold_earned"`
	SaveTime        int64  `json:"save_time"`
}

// Store owns the canonical GameData tree. All mutation goes through its
// methods (or through pointers it hands out, followed by MarkDirty).
// Single-mutator discipline: only the game loop goroutine touches it.
type Store struct {
	cfg    config.Balance
	clk    clock.Clock
	repo   SaveRepo
	backup Backup
	bus    *events.Bus
	logger *log.Logger

	data        GameData
	dirty       bool
	sinceSaveMs int64
}

func NewStore(cfg config.Balance, repo SaveRepo, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Store{
		cfg:    cfg,
		clk:    clk,
		repo:   repo,
		logger: log.New(log.Writer(), "state: ", log.LstdFlags),
		data:   NewDefault(cfg),
	}
}

// SetBackup attaches the optional remote backup channel.
func (s *Store) SetBackup(b Backup) { s.backup = b }

// SetBus attaches the domain event bus used for unlock and reputation
// events that originate in store cascades.
func (s *Store) SetBus(b *events.Bus) { s.bus = b }

func (s *Store) publish(e events.Event) {
	if s.bus != nil {
		e.At = s.clk.Now()
		s.bus.Publish(e)
	}
}

// Data exposes the tree for reads and for structural edits (workshop
// timers, quest instances). Callers that mutate through this pointer
// must call MarkDirty afterwards.
func (s *Store) Data() *GameData { return &s.data }

func (s *Store) Config() config.Balance { return s.cfg }

func (s *Store) Now() time.Time { return s.clk.Now() }

// MarkDirty flags in-memory state as diverged from the persisted copy.
// Idempotent.
func (s *Store) MarkDirty() { s.dirty = true }

func (s *Store) Dirty() bool { return s.dirty }

// Load reads the prior save if present, deep-merges it over a fresh
// default tree, migrates old versions, assigns a player id, and computes
// the elapsed offline time. Storage faults degrade to defaults.
func (s *Store) Load(ctx context.Context) {
	s.data = NewDefault(s.cfg)

	if s.repo != nil {
		blob, ok, err := s.repo.Load(ctx)
		switch {
		case err != nil:
			s.logger.Printf("load failed, starting from defaults: %v", err)
		case ok:
			if err := ValidateSaveBlob(blob); err != nil {
				s.logger.Printf("save blob rejected by schema, starting from defaults: %v", err)
				break
			}
			merged, err := MergeOverDefaults(s.data, blob)
			if err != nil {
				s.logger.Printf("save blob unreadable, starting from defaults: %v", err)
				break
			}
			s.data = merged
			if migrated, steps := Migrate(&s.data); migrated {
				s.logger.Printf("migrated save through %d step(s) to %s", steps, s.data.Version)
				s.dirty = true
			}
		}
	}

	if s.data.PlayerID == "" {
		s.data.PlayerID = "player_" + uuid.NewString()
		s.dirty = true
	}
	s.data.Stats.GamesPlayed++
	s.updateOfflineTime()
	s.dirty = true
}

// CaptureOfflineTime recomputes the offline gap on a foreground
// transition.
func (s *Store) CaptureOfflineTime() {
	s.updateOfflineTime()
	s.dirty = true
}

// updateOfflineTime converts the gap since the last recorded activity
// into pending offline milliseconds.
func (s *Store) updateOfflineTime() {
	now := s.clk.Now().UnixMilli()
	last := s.data.LastActiveTime
	if last == 0 {
		last = now
	}
	if gap := now - last; gap > 0 {
		s.data.OfflineTimeMs = gap
	} else {
		s.data.OfflineTimeMs = 0
	}
	s.data.LastActiveTime = now
}

// Save stamps timestamps, writes the full tree as one blob, clears the
// dirty flag, and pushes the critical subset to the remote backup on a
// best-effort basis. A failed local write keeps the dirty flag set so a
// later autosave retries; a failed backup is only logged.
func (s *Store) Save(ctx context.Context) {
	now := s.clk.Now().UnixMilli()
	s.data.SaveTime = now
	s.data.LastActiveTime = now
	s.data.Version = CurrentVersion

	if s.repo != nil {
		blob, err := json.Marshal(s.data)
		if err != nil {
			s.logger.Printf("save marshal failed: %v", err)
			return
		}
		if err := s.repo.Save(ctx, blob); err != nil {
			s.logger.Printf("save failed: %v", err)
			return
		}
	}
	s.dirty = false

	if s.backup != nil {
		rec := CriticalFields{
			PlayerID:        s.data.PlayerID,
			Level:           s.data.Level,
			Gold:            s.data.Gold,
			Gems:            s.data.Gems,
			ShopLevel:       s.data.ShopLevel,
			TotalGoldEarned: s.data.Stats.TotalGoldEarned,
			SaveTime:        s.data.SaveTime,
		}
		backup := s.backup
		logger := s.logger
		go func() {
			pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := backup.Push(pushCtx, rec); err != nil {
				logger.Printf("remote backup skipped: %v", err)
			}
		}()
	}
}

// TickAutosave advances the autosave timer and saves when the interval
// elapsed and state is dirty.
func (s *Store) TickAutosave(ctx context.Context, dt time.Duration) {
	s.sinceSaveMs += dt.Milliseconds()
	if s.sinceSaveMs < s.cfg.Autosave.IntervalMs {
		return
	}
	s.sinceSaveMs = 0
	if s.dirty {
		s.Save(ctx)
	}
}

// ResetGameData clears the persisted slot and reinitializes defaults
// with a fresh player id. The caller is responsible for having obtained
// user confirmation.
func (s *Store) ResetGameData(ctx context.Context) {
	if s.repo != nil {
		if err := s.repo.Clear(ctx); err != nil {
			s.logger.Printf("reset: clear failed: %v", err)
		}
	}
	s.data = NewDefault(s.cfg)
	s.data.PlayerID = "player_" + uuid.NewString()
	s.data.LastActiveTime = s.clk.Now().UnixMilli()
	s.dirty = true
	s.Save(ctx)
}

// --- currency and progression mutators ---

// AddGold credits gold, tracks the cumulative stat, and runs the
// achievement checks. Rejects non-positive amounts.
func (s *Store) AddGold(amount int) bool {
	if amount <= 0 {
		return false
	}
	s.data.Gold += amount
	s.data.Stats.TotalGoldEarned += amount
	s.dirty = true
	s.checkAchievements()
	return true
}

// SpendGold debits gold if the balance suffices.
func (s *Store) SpendGold(amount int) bool {
	if amount <= 0 || s.data.Gold < amount {
		return false
	}
	s.data.Gold -= amount
	s.dirty = true
	return true
}

func (s *Store) AddGems(amount int) bool {
	if amount <= 0 {
		return false
	}
	s.data.Gems += amount
	s.dirty = true
	return true
}

func (s *Store) SpendGems(amount int) bool {
	if amount <= 0 || s.data.Gems < amount {
		return false
	}
	s.data.Gems -= amount
	s.dirty = true
	return true
}

func (s *Store) AddMagicPowder(amount int) bool {
	if amount <= 0 {
		return false
	}
	s.data.MagicPowder += amount
	s.dirty = true
	return true
}

// AddExp credits experience and cascades level-ups with carry-over.
func (s *Store) AddExp(amount int) {
	if amount <= 0 {
		return
	}
	s.data.Exp += amount
	for s.data.Exp >= s.data.ExpToNext {
		s.levelUp()
	}
	s.dirty = true
}

func (s *Store) levelUp() {
	s.data.Exp -= s.data.ExpToNext
	s.data.Level++
	s.data.ExpToNext = int(math.Floor(float64(s.data.ExpToNext) * s.cfg.Player.ExpCurveFactor))

	goldReward := s.data.Level * s.cfg.Player.LevelUpGoldPer
	s.AddGold(goldReward)
	if every := s.cfg.Player.LevelUpGemEvery; every > 0 {
		if gemReward := s.data.Level / every; gemReward > 0 {
			s.AddGems(gemReward)
		}
	}

	s.checkUnlocks()
	s.logger.Printf("player reached level %d", s.data.Level)
}

// checkUnlocks opens level-gated workshops and emits unlock events.
func (s *Store) checkUnlocks() {
	for i := range s.data.Workshops {
		ws := &s.data.Workshops[i]
		if ws.Unlocked {
			continue
		}
		def, ok := s.cfg.Workshops.Def(ws.ID)
		if !ok || s.data.Level < def.UnlockLevel {
			continue
		}
		ws.Unlocked = true
		if ws.Level == 0 {
			ws.Level = 1
		}
		s.publish(events.Event{Type: events.WorkshopUnlocked, WorkshopID: ws.ID, WorkshopName: ws.Name})
		s.logger.Printf("unlocked workshop %s", ws.ID)
	}
	if s.allWorkshopsUnlocked() {
		s.publish(events.Event{Type: events.AllWorkshopsUnlocked, Amount: len(s.data.Workshops)})
	}
}

func (s *Store) allWorkshopsUnlocked() bool {
	for _, ws := range s.data.Workshops {
		if !ws.Unlocked {
			return false
		}
	}
	return len(s.data.Workshops) > 0
}

// AddReputation credits reputation and emits the corresponding event.
func (s *Store) AddReputation(amount int) {
	if amount <= 0 {
		return
	}
	s.data.Reputation += amount
	s.dirty = true
	s.publish(events.Event{Type: events.ReputationGained, Amount: amount})
}

// AdjustSatisfaction moves the satisfaction metric, clamped to [0,100].
func (s *Store) AdjustSatisfaction(delta int) {
	v := s.data.CustomerSatisfaction + delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	s.data.CustomerSatisfaction = v
	s.dirty = true
}

// --- inventory mutators ---

// AddItem credits a production bucket.
func (s *Store) AddItem(itemType string, amount int) bool {
	if amount <= 0 {
		return false
	}
	switch itemType {
	case "potions":
		s.data.Inventory.Potions += amount
	case "enchantments":
		s.data.Inventory.Enchantments += amount
	case "crystals":
		s.data.Inventory.Crystals += amount
	case "rare_items":
		s.data.Inventory.RareItems += amount
	default:
		return false
	}
	s.dirty = true
	s.checkAchievements()
	return true
}

// ConsumeItem debits one bucket if stocked.
func (s *Store) ConsumeItem(itemType string, amount int) bool {
	if amount <= 0 {
		return false
	}
	inv := &s.data.Inventory
	switch itemType {
	case "potions":
		if inv.Potions < amount {
			return false
		}
		inv.Potions -= amount
	case "enchantments":
		if inv.Enchantments < amount {
			return false
		}
		inv.Enchantments -= amount
	case "crystals":
		if inv.Crystals < amount {
			return false
		}
		inv.Crystals -= amount
	default:
		return false
	}
	s.dirty = true
	return true
}

// --- stats ---

// UpdateStat bumps a named cumulative counter. Unknown names are a no-op
// so stale callers cannot corrupt the tree.
func (s *Store) UpdateStat(name string, value int64) bool {
	st := &s.data.Stats
	switch name {
	case "totalItemsSold":
		st.TotalItemsSold += int(value)
	case "totalCustomersServed":
		st.TotalCustomersServed += int(value)
	case "totalAdsWatched":
		st.TotalAdsWatched += int(value)
	case "totalGameTime":
		st.TotalGameTimeMs += value
	default:
		return false
	}
	s.dirty = true
	s.checkAchievements()
	return true
}

// checkAchievements flips milestone flags once and grants the gem bonus.
func (s *Store) checkAchievements() {
	a := &s.data.Achievements

	if !a.FirstSale && s.data.Stats.TotalItemsSold > 0 {
		a.FirstSale = true
		s.grantAchievement("首次销售")
	}
	if !a.GoldMaster && s.data.Stats.TotalGoldEarned >= 10000 {
		a.GoldMaster = true
		s.grantAchievement("黄金大师")
	}
	if !a.WorkshopMaster {
		leveled := 0
		for _, ws := range s.data.Workshops {
			if ws.Level >= 5 {
				leveled++
			}
		}
		if leveled >= 2 {
			a.WorkshopMaster = true
			s.grantAchievement("设施大师")
		}
	}
	if !a.CustomerFavorite && s.data.Stats.TotalCustomersServed >= 100 {
		a.CustomerFavorite = true
		s.grantAchievement("顾客最爱")
	}
}

func (s *Store) grantAchievement(title string) {
	s.data.Gems += s.cfg.Player.AchievementGems
	s.dirty = true
	s.logger.Printf("achievement unlocked: %s", title)
}

// UnlockFeature applies a quest reward flag idempotently.
func (s *Store) UnlockFeature(id string) bool {
	if id == "" || s.data.FeatureUnlocked(id) {
		return false
	}
	s.data.UnlockedFeatures = append(s.data.UnlockedFeatures, id)
	s.dirty = true
	return true
}

// GameProgress is a rough 0-100 completion estimate shown on the stats
// screen.
func (s *Store) GameProgress() int {
	d := &s.data
	progress := 0.0

	progress += math.Min(float64(d.Level)/20, 1) * 30

	if len(d.Workshops) > 0 {
		unlocked := 0
		for _, ws := range d.Workshops {
			if ws.Unlocked {
				unlocked++
			}
		}
		progress += float64(unlocked) / float64(len(d.Workshops)) * 25
	}

	completed := 0
	flags := []bool{d.Achievements.FirstSale, d.Achievements.GoldMaster, d.Achievements.WorkshopMaster, d.Achievements.CustomerFavorite}
	for _, f := range flags {
		if f {
			completed++
		}
	}
	progress += float64(completed) / float64(len(flags)) * 25

	progress += math.Min(float64(d.Stats.TotalGoldEarned)/100000, 1) * 20

	return int(progress)
}
