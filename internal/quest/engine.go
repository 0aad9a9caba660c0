// Package quest drives template-based quest generation, event-driven
// progress accumulation, and the completion/claim lifecycle.
package quest

import (
	"log"
	"math/rand"
	"strconv"

	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
)

// Pool names the four quest sets.
type Pool string

const (
	PoolDaily       Pool = "daily"
	PoolWeekly      Pool = "weekly"
	PoolStory       Pool = "story"
	PoolAchievement Pool = "achievement"
)

// Engine owns quest state inside the save tree. It subscribes to the
// event bus for progress and is updated once per tick for refresh and
// time-limit expiry.
type Engine struct {
	cfg    config.Quests
	store  *state.Store
	clk    clock.Clock
	rng    *rand.Rand
	logger *log.Logger

	// patienceBoost applies the patience_boost special reward to live
	// customers. Wired by the composition root.
	patienceBoost func(ms int64)
}

func NewEngine(cfg config.Quests, store *state.Store, clk clock.Clock, rng *rand.Rand) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		clk:    clk,
		rng:    rng,
		logger: log.New(log.Writer(), "quest: ", log.LstdFlags),
	}
}

func (e *Engine) SetPatienceBoost(fn func(ms int64)) { e.patienceBoost = fn }

func (e *Engine) data() *state.QuestData { return &e.store.Data().QuestData }

// Init seeds achievements on first run, refreshes expired pools, and
// admits eligible story quests.
func (e *Engine) Init() {
	qd := e.data()
	if len(qd.Achievements) == 0 {
		for _, t := range achievementTemplates {
			qd.Achievements = append(qd.Achievements, state.QuestInstance{
				ID:         t.ID,
				TemplateID: t.ID,
				StartTime:  e.clk.Now().UnixMilli(),
			})
		}
		e.store.MarkDirty()
	}
	e.CheckRefresh()
	e.admitStoryQuests()
}

// CheckRefresh regenerates the daily pool after 24h and the weekly pool
// after 7 days. Calling it again inside the window is a no-op.
func (e *Engine) CheckRefresh() {
	now := e.clk.Now().UnixMilli()
	qd := e.data()

	if now-qd.LastDailyRefresh > e.cfg.DailyRefreshMs {
		qd.Daily = e.sample(dailyTemplates, e.cfg.DailyCount, now)
		qd.LastDailyRefresh = now
		e.store.MarkDirty()
		e.logger.Printf("daily quests refreshed")
	}
	if now-qd.LastWeeklyRefresh > e.cfg.WeeklyRefreshMs {
		qd.Weekly = e.sample(weeklyTemplates, e.cfg.WeeklyCount, now)
		qd.LastWeeklyRefresh = now
		e.store.MarkDirty()
		e.logger.Printf("weekly quests refreshed")
	}
}

// sample draws count templates without replacement.
func (e *Engine) sample(pool []Template, count int, nowMs int64) []state.QuestInstance {
	available := append([]Template(nil), pool...)
	if count > len(available) {
		count = len(available)
	}
	out := make([]state.QuestInstance, 0, count)
	for i := 0; i < count; i++ {
		idx := e.rng.Intn(len(available))
		t := available[idx]
		available = append(available[:idx], available[idx+1:]...)
		out = append(out, state.QuestInstance{
			ID:         t.ID + "_" + strconv.FormatInt(nowMs, 10),
			TemplateID: t.ID,
			StartTime:  nowMs,
		})
	}
	return out
}

// admitStoryQuests activates story templates whose level gate is met
// and whose predecessor in the chain has been completed.
func (e *Engine) admitStoryQuests() {
	level := e.store.Data().Level
	qd := e.data()

	for _, t := range storyTemplates {
		if level < t.UnlockLevel {
			continue
		}
		if containsID(qd.CompletedStoryIDs, t.ID) || e.storyActive(t.ID) {
			continue
		}
		if prev, ok := predecessor(t.ID); ok && !containsID(qd.CompletedStoryIDs, prev.ID) {
			continue
		}
		e.addStoryQuest(t)
	}
}

func (e *Engine) storyActive(templateID string) bool {
	for _, q := range e.data().Story {
		if q.TemplateID == templateID {
			return true
		}
	}
	return false
}

func (e *Engine) addStoryQuest(t Template) {
	now := e.clk.Now().UnixMilli()
	e.data().Story = append(e.data().Story, state.QuestInstance{
		ID:         t.ID + "_" + strconv.FormatInt(now, 10),
		TemplateID: t.ID,
		StartTime:  now,
	})
	e.store.MarkDirty()
	e.logger.Printf("story quest available: %s", t.Title)
}

// HandleEvent is the bus subscription: it tests every active incomplete
// quest across all four pools against the event.
func (e *Engine) HandleEvent(ev events.Event) {
	qd := e.data()
	changed := false
	changed = e.updatePool(qd.Daily, PoolDaily, ev) || changed
	changed = e.updatePool(qd.Weekly, PoolWeekly, ev) || changed
	changed = e.updatePool(qd.Story, PoolStory, ev) || changed
	changed = e.updatePool(qd.Achievements, PoolAchievement, ev) || changed
	if changed {
		e.store.MarkDirty()
	}
}

func (e *Engine) updatePool(pool []state.QuestInstance, name Pool, ev events.Event) bool {
	now := e.clk.Now().UnixMilli()
	changed := false
	// Completion side effects can grow the pool slice; run them after
	// the iteration so every write lands in the live backing array.
	var completed []Template
	for i := range pool {
		inst := &pool[i]
		if inst.Completed {
			continue
		}
		t, ok := TemplateByID(inst.TemplateID)
		if !ok {
			continue
		}
		if !e.matches(t.Target, inst, ev, now) {
			continue
		}

		switch t.Target.Type {
		case "workshop_level", "all_workshops_level":
			// Threshold targets: reaching the level completes outright.
			inst.Progress = t.Target.Amount
		default:
			delta := ev.Amount
			if delta <= 0 {
				delta = 1
			}
			inst.Progress += delta
			if inst.Progress > t.Target.Amount {
				inst.Progress = t.Target.Amount
			}
		}
		changed = true

		if inst.Progress >= t.Target.Amount {
			inst.Completed = true
			completed = append(completed, t)
		}
	}
	for _, t := range completed {
		e.onCompleted(t, name)
	}
	return changed
}

// matches is the predicate dispatch. It must cover every target type
// declared in the catalog; unknown types never match.
func (e *Engine) matches(t Target, inst *state.QuestInstance, ev events.Event, nowMs int64) bool {
	switch t.Type {
	case "potions":
		return ev.Type == events.ItemProduced && ev.ItemType == "potions"
	case "enchantments":
		return ev.Type == events.ItemProduced && ev.ItemType == "enchantments"
	case "crystals":
		return ev.Type == events.ItemProduced && ev.ItemType == "crystals"
	case "total_items":
		return ev.Type == events.ItemProduced
	case "customers":
		return ev.Type == events.CustomerServed
	case "vip_customers":
		return ev.Type == events.CustomerServed && (ev.CustomerType == "贵族" || ev.CustomerType == "急客")
	case "gold":
		return ev.Type == events.GoldEarned
	case "total_gold_earned":
		return ev.Type == events.GoldEarned
	case "reputation":
		return ev.Type == events.ReputationGained
	case "workshop_upgrade":
		return ev.Type == events.WorkshopUpgraded
	case "unlock_workshop":
		return ev.Type == events.WorkshopUnlocked
	case "unlock_all_workshops":
		return ev.Type == events.AllWorkshopsUnlocked
	case "workshop_level":
		return ev.Type == events.WorkshopUpgraded && ev.NewLevel >= t.Amount
	case "all_workshops_level":
		return ev.Type == events.AllWorkshopsLevel && ev.NewLevel >= t.Amount
	case "fast_collect":
		return ev.Type == events.ProductionCollected && e.withinTimeLimit(t, inst, nowMs)
	case "no_angry":
		return ev.Type == events.CustomerAngry
	case "serve_customer":
		return ev.Type == events.CustomerServed
	case "speed_serve":
		return ev.Type == events.CustomerServed && e.withinTimeLimit(t, inst, nowMs)
	case "consecutive_happy":
		return ev.Type == events.CustomerServed && ev.Satisfied
	case "last_second_serve":
		return ev.Type == events.CustomerServed && ev.LastSecond
	default:
		return false
	}
}

// withinTimeLimit opens the timing window on the first qualifying event
// and accepts events until the limit elapses.
func (e *Engine) withinTimeLimit(t Target, inst *state.QuestInstance, nowMs int64) bool {
	if t.TimeLimitMs == 0 {
		return true
	}
	if inst.TimeStarted == 0 {
		inst.TimeStarted = nowMs
	}
	return nowMs-inst.TimeStarted <= t.TimeLimitMs
}

func (e *Engine) onCompleted(t Template, pool Pool) {
	e.logger.Printf("quest completed: %s (%s)", t.Title, pool)

	if pool == PoolStory && t.NextQuest != "" {
		next, ok := TemplateByID(t.NextQuest)
		if ok && e.store.Data().Level >= next.UnlockLevel &&
			!e.storyActive(next.ID) && !containsID(e.data().CompletedStoryIDs, next.ID) {
			e.addStoryQuest(next)
		}
	}
}

// Update runs the per-tick maintenance: pool refresh and time-limited
// quest expiry. An expired window resets progress so the quest can be
// retried within its pool lifetime.
func (e *Engine) Update() {
	e.CheckRefresh()

	now := e.clk.Now().UnixMilli()
	qd := e.data()
	for _, pool := range [][]state.QuestInstance{qd.Daily, qd.Weekly, qd.Achievements} {
		for i := range pool {
			inst := &pool[i]
			t, ok := TemplateByID(inst.TemplateID)
			if !ok || t.Target.TimeLimitMs == 0 || inst.TimeStarted == 0 || inst.Completed {
				continue
			}
			if now-inst.TimeStarted > t.Target.TimeLimitMs {
				inst.Progress = 0
				inst.TimeStarted = 0
				e.store.MarkDirty()
			}
		}
	}
}

// Claim applies the reward of a completed, unclaimed quest. Atomic with
// respect to repeated calls: the second call returns false.
func (e *Engine) Claim(questID string, pool Pool) bool {
	inst := e.find(questID, pool)
	if inst == nil || !inst.Completed || inst.Claimed {
		return false
	}
	t, ok := TemplateByID(inst.TemplateID)
	if !ok {
		return false
	}

	inst.Claimed = true
	e.giveReward(t.Reward)

	if pool == PoolStory {
		qd := e.data()
		if !containsID(qd.CompletedStoryIDs, inst.TemplateID) {
			qd.CompletedStoryIDs = append(qd.CompletedStoryIDs, inst.TemplateID)
		}
	}
	e.store.MarkDirty()
	e.logger.Printf("reward claimed: %s", t.Title)
	return true
}

func (e *Engine) find(questID string, pool Pool) *state.QuestInstance {
	var set []state.QuestInstance
	qd := e.data()
	switch pool {
	case PoolDaily:
		set = qd.Daily
	case PoolWeekly:
		set = qd.Weekly
	case PoolStory:
		set = qd.Story
	case PoolAchievement:
		set = qd.Achievements
	}
	for i := range set {
		if set[i].ID == questID {
			return &set[i]
		}
	}
	return nil
}

func (e *Engine) giveReward(r Reward) {
	if r.Gold > 0 {
		e.store.AddGold(r.Gold)
	}
	if r.Gems > 0 {
		e.store.AddGems(r.Gems)
	}
	if r.Exp > 0 {
		e.store.AddExp(r.Exp)
	}
	if r.Reputation > 0 {
		// Direct credit: reward reputation does not feed reputation
		// quests the way serve-earned reputation does.
		e.store.Data().Reputation += r.Reputation
		e.store.MarkDirty()
	}
	if r.Unlock != "" {
		e.store.UnlockFeature(r.Unlock)
	}
	if r.Special == "patience_boost" && e.patienceBoost != nil {
		e.patienceBoost(e.cfg.PatienceBoostMs)
	}
}

// HasClaimable reports whether any pool holds a completed, unclaimed
// quest.
func (e *Engine) HasClaimable() bool {
	qd := e.data()
	for _, pool := range [][]state.QuestInstance{qd.Daily, qd.Weekly, qd.Story, qd.Achievements} {
		for _, q := range pool {
			if q.Completed && !q.Claimed {
				return true
			}
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
