package game

import (
	"math"

	"github.com/Dark2017/magic-shop-mini-game/internal/ads"
	"github.com/Dark2017/magic-shop-mini-game/internal/workshop"
)

// OfflineRewards is the pending credit computed once per foreground
// transition and consumed exactly once by the claim flow.
type OfflineRewards struct {
	Gold           int
	EffectiveHours float64
}

// calculateOfflineProgress converts the tracked absence into a bounded
// retroactive yield. An averaged-rate approximation: fractional cycles
// count, the sum is floored once at the end.
func (e *Engine) calculateOfflineProgress() {
	d := e.store.Data()
	offlineMs := d.OfflineTimeMs
	if offlineMs <= 0 {
		return
	}

	// Reset regardless of outcome so re-entering the foreground cannot
	// double-count the same absence.
	d.OfflineTimeMs = 0
	e.store.MarkDirty()

	if offlineMs < e.cfg.Offline.MinOfflineMs {
		return
	}

	effectiveHours := float64(offlineMs) / 3_600_000
	if limit := float64(e.cfg.Offline.MaxHours); effectiveHours > limit {
		effectiveHours = limit
	}

	total := 0.0
	for i := range d.Workshops {
		ws := &d.Workshops[i]
		if !ws.Unlocked || ws.Level <= 0 || ws.ProductionDuration <= 0 {
			continue
		}
		cyclesPerHour := 3_600_000 / float64(ws.ProductionDuration)
		totalCycles := cyclesPerHour * effectiveHours
		total += float64(workshop.Income(ws, d.ShopLevel, d.Reputation, e.cfg.Player)) * totalCycles
	}

	gold := int(math.Floor(total))
	if gold <= 0 {
		return
	}

	e.pendingOffline = &OfflineRewards{Gold: gold, EffectiveHours: effectiveHours}
	e.logger.Printf("offline rewards pending: %d gold for %.2fh", gold, effectiveHours)
}

// PendingOfflineRewards returns the unclaimed record, or nil.
func (e *Engine) PendingOfflineRewards() *OfflineRewards {
	return e.pendingOffline
}

// ClaimOfflineRewards credits the pending record exactly once. With
// double set, the grant is routed through the rewarded-ad port; a
// denied ad still credits the base amount. Returns false when nothing
// was pending.
func (e *Engine) ClaimOfflineRewards(double bool) bool {
	pending := e.pendingOffline
	if pending == nil {
		return false
	}
	// Cleared before any callback can run: double-claim is a no-op.
	e.pendingOffline = nil

	if !double {
		e.store.AddGold(pending.Gold)
		return true
	}

	e.ads.Request(ads.PlacementDoubleReward, func(granted bool) {
		e.enqueue(func() {
			amount := pending.Gold
			if granted {
				amount *= 2
				e.store.UpdateStat("totalAdsWatched", 1)
			}
			e.store.AddGold(amount)
		})
	})
	return true
}
