package customer

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

func newSimForTest(t *testing.T) (*Sim, *state.Store, *events.Bus) {
	t.Helper()
	cfg := config.Default()
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := state.NewStore(cfg, nil, fake)
	bus := events.NewBus()
	store.SetBus(bus)

	sim := NewSim(cfg.Customers, store, bus, rand.New(rand.NewSource(7)), Bounds{
		Width: 400, MinY: 200, MaxY: 500,
	})
	// Tests drive spawning explicitly.
	sim.cfg.SpawnIntervalMs = 1 << 40
	return sim, store, bus
}

func collect(bus *events.Bus) *[]events.Event {
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })
	return &got
}

func addCustomer(s *Sim, name, demand string, patienceMs int64, multiplier float64) *Customer {
	c := &Customer{
		ID:         name + "-test",
		Name:       name,
		Demand:     demand,
		PatienceMs: patienceMs,
		Multiplier: multiplier,
		X:          200, Y: 300,
	}
	s.live = append(s.live, c)
	return c
}

func TestPlacementRejectsPointsWithinSeparation(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	addCustomer(sim, "普通法师", "potions", 15000, 1.0)

	for i := 0; i < 200; i++ {
		p, ok := sim.findPosition()
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, dist(p.X, p.Y, 200, 300), sim.cfg.MinSeparation)
	}
}

func TestPlacementAvoidsWorkshopRegions(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	sim.SetObstacles(func() []Point { return []Point{{X: 100, Y: 300}} })

	for i := 0; i < 200; i++ {
		p, ok := sim.findPosition()
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, dist(p.X, p.Y, 100, 300), sim.cfg.MinSeparation)
	}
}

func TestSpawnSkipsWhenFloorIsCrowded(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	sim.cfg.MinSeparation = 100000
	addCustomer(sim, "普通法师", "potions", 15000, 1.0)

	got := sim.Spawn()

	assert.Nil(t, got)
	assert.Len(t, sim.live, 1)
}

func TestSpawnCadenceRespectsLiveCap(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	sim.cfg.SpawnIntervalMs = 5000
	sim.cfg.Types = []config.CustomerType{
		{Name: "普通法师", PatienceMs: 1 << 40, PaymentMultiplier: 1.0, Demand: "potions"},
	}

	sim.Update(5000)
	assert.Len(t, sim.live, 1)

	for i := 0; i < 5; i++ {
		sim.Update(5000)
	}
	assert.Equal(t, sim.cfg.MaxLive, len(sim.live))
}

func TestFreedSlotRefillsWithoutFullInterval(t *testing.T) {
	sim, store, _ := newSimForTest(t)
	sim.cfg.SpawnIntervalMs = 5000
	sim.cfg.Types = []config.CustomerType{
		{Name: "普通法师", PatienceMs: 1 << 40, PaymentMultiplier: 1.0, Demand: "potions"},
	}

	for i := 0; i < 6; i++ {
		sim.Update(5000)
	}
	require.Len(t, sim.live, sim.cfg.MaxLive)

	store.AddItem("potions", 1)
	require.NoError(t, sim.Serve(sim.live[0].ID, false))
	require.Len(t, sim.live, sim.cfg.MaxLive-1)

	// The interval already elapsed while the floor was full, so the
	// freed slot refills on the very next tick.
	sim.Update(1)
	assert.Len(t, sim.live, sim.cfg.MaxLive)
}

func TestServePaysMultiplierAndEmitsEvents(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)
	store.AddItem("crystals", 1)

	c := addCustomer(sim, "贵族", "crystals", 20000, 1.5)
	require.NoError(t, sim.Serve(c.ID, false))
	bus.Drain()

	d := store.Data()
	assert.Equal(t, 100+150, d.Gold)
	assert.Equal(t, 10, d.Reputation)
	assert.Equal(t, 0, d.Inventory.Crystals)
	assert.Equal(t, 1, d.Stats.TotalCustomersServed)
	assert.Empty(t, sim.live)

	var served, earned bool
	for _, e := range *got {
		switch e.Type {
		case events.CustomerServed:
			served = true
			assert.Equal(t, "贵族", e.CustomerType)
			assert.Equal(t, "crystals", e.ItemType)
			assert.Equal(t, 150, e.GoldEarned)
			assert.False(t, e.AutoSell)
			assert.True(t, e.Satisfied)
		case events.GoldEarned:
			earned = true
			assert.Equal(t, 150, e.Amount)
			assert.Equal(t, "customer_service", e.Source)
		}
	}
	assert.True(t, served)
	assert.True(t, earned)
}

func TestServeAnyDrainsFixedPriority(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)
	store.AddItem("enchantments", 1)
	store.AddItem("crystals", 1)

	c := addCustomer(sim, "急客", "any", 5000, 2.0)
	require.NoError(t, sim.Serve(c.ID, false))
	bus.Drain()

	d := store.Data()
	// No potions stocked: enchantments go first, crystals stay.
	assert.Equal(t, 0, d.Inventory.Enchantments)
	assert.Equal(t, 1, d.Inventory.Crystals)
	assert.Equal(t, 100+60, d.Gold)

	for _, e := range *got {
		if e.Type == events.CustomerServed {
			assert.Equal(t, "enchantments", e.ItemType)
		}
	}
}

func TestServeWithoutStockLeavesCustomerPending(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)

	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)
	err := sim.Serve(c.ID, false)
	bus.Drain()

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Len(t, sim.live, 1)
	assert.Equal(t, 100, store.Data().Gold)
	assert.Empty(t, *got)
}

func TestServeUnknownCustomer(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	assert.ErrorIs(t, sim.Serve("ghost", false), ErrNotFound)
}

func TestImpatientCustomerTimesOutAngry(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)

	addCustomer(sim, "急客", "any", 5000, 2.0)
	sim.Update(5001)
	bus.Drain()

	assert.Empty(t, sim.live)
	assert.Equal(t, 90, store.Data().CustomerSatisfaction)

	var angry bool
	for _, e := range *got {
		assert.NotEqual(t, events.CustomerServed, e.Type)
		if e.Type == events.CustomerAngry {
			angry = true
			assert.Equal(t, "急客", e.CustomerType)
		}
	}
	assert.True(t, angry)
}

func TestLastSecondServeIsFlagged(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)
	store.AddItem("potions", 1)

	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)
	sim.Update(14500)
	require.NoError(t, sim.Serve(c.ID, false))
	bus.Drain()

	for _, e := range *got {
		if e.Type == events.CustomerServed {
			assert.True(t, e.LastSecond)
		}
	}
}

func TestAutoSellFiresAfterDelayWithProvenance(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)
	store.Data().Settings.AutoSellEnabled = true
	store.AddItem("potions", 1)

	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)
	sim.maybeScheduleAutoSell(c)
	require.Len(t, sim.autoSell, 1)

	sim.Update(500)
	assert.Len(t, sim.live, 1)

	sim.Update(500)
	bus.Drain()

	assert.Empty(t, sim.live)
	var served bool
	for _, e := range *got {
		switch e.Type {
		case events.CustomerServed:
			served = true
			assert.True(t, e.AutoSell)
		case events.GoldEarned:
			assert.Equal(t, "auto_sell_service", e.Source)
		}
	}
	assert.True(t, served)
}

func TestAutoSellSkipsWhenStockConsumedDuringDelay(t *testing.T) {
	sim, store, bus := newSimForTest(t)
	got := collect(bus)
	store.Data().Settings.AutoSellEnabled = true
	store.AddItem("potions", 1)

	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)
	sim.maybeScheduleAutoSell(c)
	require.True(t, store.ConsumeItem("potions", 1))

	sim.Update(1000)
	bus.Drain()

	assert.Len(t, sim.live, 1)
	for _, e := range *got {
		assert.NotEqual(t, events.CustomerServed, e.Type)
	}
	assert.Empty(t, sim.autoSell)
}

func TestAutoSellNotScheduledWithoutStockOrSetting(t *testing.T) {
	sim, store, _ := newSimForTest(t)

	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)
	sim.maybeScheduleAutoSell(c)
	assert.Empty(t, sim.autoSell, "setting disabled")

	store.Data().Settings.AutoSellEnabled = true
	sim.maybeScheduleAutoSell(c)
	assert.Empty(t, sim.autoSell, "no stock")
}

func TestAutoSellCancelledWhenCustomerLeaves(t *testing.T) {
	sim, store, _ := newSimForTest(t)
	store.Data().Settings.AutoSellEnabled = true
	store.AddItem("potions", 1)

	c := addCustomer(sim, "急客", "potions", 300, 2.0)
	sim.maybeScheduleAutoSell(c)

	// Patience expires before the auto-sell delay.
	sim.Update(301)
	assert.Empty(t, sim.live)
	assert.Empty(t, sim.autoSell)
	assert.Equal(t, 1, store.Data().Inventory.Potions)
}

func TestBoostPatienceExtendsLiveCustomers(t *testing.T) {
	sim, _, _ := newSimForTest(t)
	c := addCustomer(sim, "普通法师", "potions", 15000, 1.0)

	sim.BoostPatience(5000)

	assert.Equal(t, int64(20000), c.PatienceMs)
}
