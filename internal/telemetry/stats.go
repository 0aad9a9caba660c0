package telemetry

import (
	"time"

	"github.com/Dark2017/magic-shop-mini-game/internal/events"
)

// Stats aggregates a session's event log for the stats panel.
type Stats struct {
	Period          string              `json:"period"`
	EventCounts     map[events.Type]int `json:"event_counts"`
	GoldBySource    map[string]int      `json:"gold_by_source"`
	GoldEarned      int                 `json:"gold_earned"`
	GoldSpent       int                 `json:"gold_spent"`
	ItemsProduced   int                 `json:"items_produced"`
	CustomersServed int                 `json:"customers_served"`
	AutoSells       int                 `json:"auto_sells"`
	AngryExits      int                 `json:"angry_exits"`
	Upgrades        int                 `json:"upgrades"`
}

// CalculateStats folds the event log into aggregates.
func CalculateStats(records []Record, since time.Time) Stats {
	stats := Stats{
		Period:       since.Format("2006-01-02"),
		EventCounts:  make(map[events.Type]int),
		GoldBySource: make(map[string]int),
	}

	for _, rec := range records {
		e := rec.Event
		if e.At.Before(since) {
			continue
		}
		stats.EventCounts[e.Type]++

		switch e.Type {
		case events.GoldEarned:
			stats.GoldEarned += e.Amount
			if e.Source != "" {
				stats.GoldBySource[e.Source] += e.Amount
			}
		case events.GoldSpent:
			stats.GoldSpent += e.Amount
		case events.ItemProduced:
			stats.ItemsProduced += e.Amount
		case events.CustomerServed:
			stats.CustomersServed++
			if e.AutoSell {
				stats.AutoSells++
			}
		case events.CustomerAngry:
			stats.AngryExits++
		case events.WorkshopUpgraded:
			stats.Upgrades++
		}
	}
	return stats
}
