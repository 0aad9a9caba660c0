package quest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
)

func newEngineForTest(t *testing.T) (*Engine, *state.Store, *clock.FakeClock) {
	t.Helper()
	cfg := config.Default()
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := state.NewStore(cfg, nil, fake)
	e := NewEngine(cfg.Quests, store, fake, rand.New(rand.NewSource(11)))
	return e, store, fake
}

// activate installs a known instance so tests do not depend on the
// random refresh sample.
func activate(store *state.Store, pool Pool, templateID string) *state.QuestInstance {
	inst := state.QuestInstance{ID: templateID + "_t", TemplateID: templateID}
	qd := &store.Data().QuestData
	switch pool {
	case PoolDaily:
		qd.Daily = append(qd.Daily, inst)
		return &qd.Daily[len(qd.Daily)-1]
	case PoolWeekly:
		qd.Weekly = append(qd.Weekly, inst)
		return &qd.Weekly[len(qd.Weekly)-1]
	case PoolStory:
		qd.Story = append(qd.Story, inst)
		return &qd.Story[len(qd.Story)-1]
	default:
		qd.Achievements = append(qd.Achievements, inst)
		return &qd.Achievements[len(qd.Achievements)-1]
	}
}

func TestInitSeedsAchievementsAndDailySet(t *testing.T) {
	e, store, _ := newEngineForTest(t)

	e.Init()

	qd := store.Data().QuestData
	assert.Len(t, qd.Achievements, len(achievementTemplates))
	assert.Len(t, qd.Daily, 3)
	assert.Len(t, qd.Weekly, 2)

	// Sampled without replacement.
	seen := map[string]bool{}
	for _, q := range qd.Daily {
		assert.False(t, seen[q.TemplateID])
		seen[q.TemplateID] = true
	}
}

func TestRefreshIsNoOpInsideWindow(t *testing.T) {
	e, store, fake := newEngineForTest(t)
	e.Init()
	before := append([]state.QuestInstance(nil), store.Data().QuestData.Daily...)

	fake.Advance(23 * time.Hour)
	e.CheckRefresh()
	assert.Equal(t, before, store.Data().QuestData.Daily)

	fake.Advance(2 * time.Hour)
	e.CheckRefresh()
	after := store.Data().QuestData.Daily
	require.Len(t, after, 3)
	assert.NotEqual(t, before[0].ID, after[0].ID)
}

func TestProgressClampsAtTarget(t *testing.T) {
	e, _, _ := newEngineForTest(t)
	inst := activate(e.store, PoolDaily, "daily_produce_potions")

	for i := 0; i < 5; i++ {
		e.HandleEvent(events.Event{Type: events.ItemProduced, ItemType: "potions", Amount: 4})
	}

	assert.Equal(t, 10, inst.Progress)
	assert.True(t, inst.Completed)
}

func TestPredicateIgnoresNonMatchingEvents(t *testing.T) {
	e, _, _ := newEngineForTest(t)
	inst := activate(e.store, PoolDaily, "daily_produce_potions")

	e.HandleEvent(events.Event{Type: events.ItemProduced, ItemType: "crystals", Amount: 4})
	e.HandleEvent(events.Event{Type: events.CustomerServed})

	assert.Zero(t, inst.Progress)
}

func TestVIPPredicateMatchesOnlyVIPTypes(t *testing.T) {
	e, _, _ := newEngineForTest(t)
	inst := activate(e.store, PoolWeekly, "weekly_vip_customers")

	e.HandleEvent(events.Event{Type: events.CustomerServed, CustomerType: "普通法师"})
	assert.Zero(t, inst.Progress)

	e.HandleEvent(events.Event{Type: events.CustomerServed, CustomerType: "贵族"})
	e.HandleEvent(events.Event{Type: events.CustomerServed, CustomerType: "急客"})
	assert.Equal(t, 2, inst.Progress)
}

func TestWorkshopLevelThresholdCompletesOutright(t *testing.T) {
	e, _, _ := newEngineForTest(t)
	inst := activate(e.store, PoolStory, "story_master_crafter")

	e.HandleEvent(events.Event{Type: events.WorkshopUpgraded, NewLevel: 9})
	assert.Zero(t, inst.Progress)

	e.HandleEvent(events.Event{Type: events.WorkshopUpgraded, NewLevel: 10})
	assert.True(t, inst.Completed)
	assert.Equal(t, 10, inst.Progress)
}

func TestClaimIsExactlyOnce(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	inst := activate(store, PoolDaily, "daily_serve_customers")
	inst.Progress = 5
	inst.Completed = true

	goldBefore := store.Data().Gold
	require.True(t, e.Claim(inst.ID, PoolDaily))
	assert.Equal(t, goldBefore+300, store.Data().Gold)
	assert.Equal(t, 50, store.Data().Reputation)
	assert.True(t, inst.Claimed)

	assert.False(t, e.Claim(inst.ID, PoolDaily))
	assert.Equal(t, goldBefore+300, store.Data().Gold)
}

func TestClaimRequiresCompletion(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	inst := activate(store, PoolDaily, "daily_serve_customers")

	assert.False(t, e.Claim(inst.ID, PoolDaily))
	assert.False(t, inst.Claimed)
}

func TestStoryChainAdmitsSuccessorOnCompletion(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	e.Init()

	// Only the chain head is admitted at level 1.
	require.Len(t, store.Data().QuestData.Story, 1)
	head := &store.Data().QuestData.Story[0]
	assert.Equal(t, "story_first_workshop", head.TemplateID)

	e.HandleEvent(events.Event{Type: events.WorkshopUnlocked, WorkshopID: "enchant_table"})

	story := store.Data().QuestData.Story
	require.Len(t, story, 2)
	assert.True(t, story[0].Completed)
	assert.Equal(t, "story_first_customer", story[1].TemplateID)
}

func TestSameEventCompletionsSurvivePoolGrowth(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	activate(store, PoolStory, "story_first_workshop")
	second := activate(store, PoolStory, "story_first_workshop")
	second.ID = "story_first_workshop_t2"

	// One event completes both instances; admitting the successor grows
	// the pool mid-dispatch.
	e.HandleEvent(events.Event{Type: events.WorkshopUnlocked})

	story := store.Data().QuestData.Story
	require.Len(t, story, 3)
	assert.True(t, story[0].Completed)
	assert.True(t, story[1].Completed)
	assert.Equal(t, "story_first_customer", story[2].TemplateID)
}

func TestStoryClaimRecordsCompletedIDOnce(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	inst := activate(store, PoolStory, "story_first_workshop")
	inst.Progress = 1
	inst.Completed = true

	require.True(t, e.Claim(inst.ID, PoolStory))
	assert.Equal(t, []string{"story_first_workshop"}, store.Data().QuestData.CompletedStoryIDs)

	assert.False(t, e.Claim(inst.ID, PoolStory))
	assert.Len(t, store.Data().QuestData.CompletedStoryIDs, 1)
}

func TestCompletedStoryNotReadmitted(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	store.Data().QuestData.CompletedStoryIDs = []string{"story_first_workshop"}

	e.Init()

	for _, q := range store.Data().QuestData.Story {
		assert.NotEqual(t, "story_first_workshop", q.TemplateID)
	}
	// Its successor becomes eligible instead.
	found := false
	for _, q := range store.Data().QuestData.Story {
		if q.TemplateID == "story_first_customer" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTimeLimitedQuestResetsWhenWindowExpires(t *testing.T) {
	e, store, fake := newEngineForTest(t)
	inst := activate(store, PoolDaily, "daily_collect_fast")
	// Pin the refresh stamps so Update does not regenerate the pool.
	store.Data().QuestData.LastDailyRefresh = fake.Now().UnixMilli()
	store.Data().QuestData.LastWeeklyRefresh = fake.Now().UnixMilli()

	e.HandleEvent(events.Event{Type: events.ProductionCollected})
	require.Equal(t, 1, inst.Progress)
	require.NotZero(t, inst.TimeStarted)

	fake.Advance(31 * time.Second)
	e.Update()

	assert.Zero(t, inst.Progress)
	assert.Zero(t, inst.TimeStarted)

	// The quest stays available for another attempt.
	e.HandleEvent(events.Event{Type: events.ProductionCollected})
	assert.Equal(t, 1, inst.Progress)
}

func TestTimeLimitedQuestCompletesInsideWindow(t *testing.T) {
	e, _, fake := newEngineForTest(t)
	inst := activate(e.store, PoolDaily, "daily_collect_fast")

	for i := 0; i < 5; i++ {
		e.HandleEvent(events.Event{Type: events.ProductionCollected})
		fake.Advance(5 * time.Second)
	}

	assert.True(t, inst.Completed)
}

func TestPatienceBoostRewardAppliesThroughHook(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	var boosted int64
	e.SetPatienceBoost(func(ms int64) { boosted = ms })

	inst := activate(store, PoolWeekly, "weekly_no_angry_customers")
	inst.Completed = true

	require.True(t, e.Claim(inst.ID, PoolWeekly))
	assert.Equal(t, int64(5000), boosted)
}

func TestUnlockRewardIsIdempotent(t *testing.T) {
	e, store, _ := newEngineForTest(t)
	inst := activate(store, PoolStory, "story_reputation_100")
	inst.Progress = 100
	inst.Completed = true

	require.True(t, e.Claim(inst.ID, PoolStory))
	assert.True(t, store.Data().FeatureUnlocked("auto_sell"))
	assert.Len(t, store.Data().UnlockedFeatures, 1)
}
