package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dark2017/magic-shop-mini-game/internal/events"
)

func TestEventsFiltersByTimeAndType(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(events.Event{Type: events.GoldEarned, At: base, Amount: 10}))
	require.NoError(t, repo.Record(events.Event{Type: events.CustomerServed, At: base.Add(time.Minute)}))
	require.NoError(t, repo.Record(events.Event{Type: events.GoldEarned, At: base.Add(2 * time.Minute), Amount: 30}))

	all, err := repo.Events(base, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 3, all[2].ID)

	gold, err := repo.Events(base.Add(time.Minute), []events.Type{events.GoldEarned})
	require.NoError(t, err)
	require.Len(t, gold, 1)
	assert.Equal(t, 30, gold[0].Event.Amount)

	require.NoError(t, repo.Clear())
	all, err = repo.Events(base, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculateStatsFoldsLog(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: 1, Event: events.Event{Type: events.GoldEarned, At: base, Amount: 150, Source: "customer_service"}},
		{ID: 2, Event: events.Event{Type: events.GoldEarned, At: base, Amount: 60, Source: "auto_sell_service"}},
		{ID: 3, Event: events.Event{Type: events.GoldSpent, At: base, Amount: 50}},
		{ID: 4, Event: events.Event{Type: events.ItemProduced, At: base, ItemType: "potions", Amount: 2}},
		{ID: 5, Event: events.Event{Type: events.CustomerServed, At: base, AutoSell: true}},
		{ID: 6, Event: events.Event{Type: events.CustomerServed, At: base}},
		{ID: 7, Event: events.Event{Type: events.CustomerAngry, At: base}},
		{ID: 8, Event: events.Event{Type: events.WorkshopUpgraded, At: base}},
		// Predates the window, must not count.
		{ID: 9, Event: events.Event{Type: events.GoldEarned, At: base.Add(-time.Hour), Amount: 999}},
	}

	stats := CalculateStats(records, base)

	assert.Equal(t, 210, stats.GoldEarned)
	assert.Equal(t, 50, stats.GoldSpent)
	assert.Equal(t, 2, stats.ItemsProduced)
	assert.Equal(t, 2, stats.CustomersServed)
	assert.Equal(t, 1, stats.AutoSells)
	assert.Equal(t, 1, stats.AngryExits)
	assert.Equal(t, 1, stats.Upgrades)
	assert.Equal(t, 150, stats.GoldBySource["customer_service"])
	assert.Equal(t, 60, stats.GoldBySource["auto_sell_service"])
	assert.Equal(t, 2, stats.EventCounts[events.GoldEarned])
}
