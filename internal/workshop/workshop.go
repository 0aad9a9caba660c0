// Package workshop holds the balance curves for production facilities:
// cycle duration, income, yield, and upgrade cost progression.
package workshop

import (
	"math"

	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
)

const (
	upgradeGoldPerLevel = 150
	// Upgrades start costing gems past this level.
	gemCostFreeLevels = 5
)

// Duration returns the production cycle length at a level. Decreases
// linearly with each level down to the per-workshop floor.
func Duration(def config.WorkshopDef, level int) int64 {
	d := def.BaseDurationMs - int64(level-1)*def.DurationStepMs
	if d < def.DurationFloorMs {
		return def.DurationFloorMs
	}
	return d
}

// BaseIncome returns the per-cycle base income at a level. Increases
// linearly with each level.
func BaseIncome(def config.WorkshopDef, level int) int {
	return def.IncomeBase + level*def.IncomeStep
}

// ItemsPerCycle is the inventory yield of one completed cycle.
func ItemsPerCycle(level int) int {
	items := level / 2
	if items < 1 {
		return 1
	}
	return items
}

// Income computes the gold credited for one completed cycle: base
// income times level, scaled by the shop-level and reputation bonuses,
// floored to an integer.
func Income(ws *state.Workshop, shopLevel, reputation int, p config.Player) int {
	base := float64(ws.BaseIncome * ws.Level)
	shopBonus := 1 + float64(shopLevel-1)*float64(p.ShopLevelBonusPct)/100
	repBonus := 1 + float64(reputation)/float64(p.ReputationDenom)
	return int(math.Floor(base * shopBonus * repBonus))
}

// ApplyLevel recomputes the derived stats after a level change: cycle
// duration, base income, and the next upgrade's costs.
func ApplyLevel(ws *state.Workshop, def config.WorkshopDef) {
	ws.ProductionDuration = Duration(def, ws.Level)
	ws.BaseIncome = BaseIncome(def, ws.Level)
	ws.UpgradeGoldCost = ws.Level * upgradeGoldPerLevel
	gems := ws.Level - gemCostFreeLevels
	if gems < 0 {
		gems = 0
	}
	ws.UpgradeGemCost = gems
}
