// Package game composes the simulation: the Engine advances production,
// customers, and quests each tick, drains the event bus, and gates
// autosave.
package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Dark2017/magic-shop-mini-game/internal/ads"
	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/customer"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
	"github.com/Dark2017/magic-shop-mini-game/internal/quest"
	"github.com/Dark2017/magic-shop-mini-game/internal/shop"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
	"github.com/Dark2017/magic-shop-mini-game/internal/telemetry"
	"github.com/Dark2017/magic-shop-mini-game/internal/workshop"
)

var (
	ErrWorkshopNotFound  = errors.New("game: workshop not found")
	ErrWorkshopLocked    = errors.New("game: workshop locked")
	ErrWorkshopUnlocked  = errors.New("game: workshop already unlocked")
	ErrShopItemNotFound  = errors.New("game: shop item not found")
	ErrInsufficientFunds = errors.New("game: insufficient funds")
)

// Logical floor layout. The presentation layer maps these to the
// screen; the core only needs them for spawn separation checks.
const (
	floorWidth    = 400.0
	floorSpawnMin = 200.0
	floorSpawnMax = 500.0
	workshopRowY  = 150.0
)

// FloorBounds is the spawnable region handed to the customer sim.
func FloorBounds() customer.Bounds {
	return customer.Bounds{Width: floorWidth, MinY: floorSpawnMin, MaxY: floorSpawnMax}
}

// Engine is the single mutator of game state. All entry points
// (Update, taps, claims) run on the loop goroutine; external callbacks
// re-enter through the task queue.
type Engine struct {
	cfg    config.Balance
	store  *state.Store
	bus    *events.Bus
	sim    *customer.Sim
	quests *quest.Engine
	ads    *ads.Gate
	telem  telemetry.Repository
	clk    clock.Clock
	logger *log.Logger

	taskMu sync.Mutex
	tasks  []func()

	pendingOffline *OfflineRewards
}

func NewEngine(cfg config.Balance, store *state.Store, bus *events.Bus, sim *customer.Sim,
	quests *quest.Engine, gate *ads.Gate, telem telemetry.Repository, clk clock.Clock) *Engine {
	e := &Engine{
		cfg:    cfg,
		store:  store,
		bus:    bus,
		sim:    sim,
		quests: quests,
		ads:    gate,
		telem:  telem,
		clk:    clk,
		logger: log.New(log.Writer(), "game: ", log.LstdFlags),
	}
	sim.SetObstacles(e.workshopCenters)
	quests.SetPatienceBoost(sim.BoostPatience)
	return e
}

// Start loads the save, wires subscribers, kicks production on every
// unlocked workshop, and computes pending offline rewards.
func (e *Engine) Start(ctx context.Context) {
	e.store.Load(ctx)

	e.bus.Subscribe(e.quests.HandleEvent)
	if e.telem != nil {
		e.bus.Subscribe(func(ev events.Event) {
			if err := e.telem.Record(ev); err != nil {
				e.logger.Printf("telemetry record failed: %v", err)
			}
		})
	}

	e.quests.Init()
	e.startProduction()
	e.calculateOfflineProgress()
	e.bus.Drain()
}

// enqueue defers work onto the loop goroutine. Used by asynchronous ad
// callbacks so there is never a second mutator.
func (e *Engine) enqueue(fn func()) {
	e.taskMu.Lock()
	e.tasks = append(e.tasks, fn)
	e.taskMu.Unlock()
}

func (e *Engine) drainTasks() {
	e.taskMu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.taskMu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// Update advances the whole simulation by dt and is the only place
// state changes during normal play.
func (e *Engine) Update(ctx context.Context, dt time.Duration) {
	dtMs := dt.Milliseconds()

	e.drainTasks()
	e.updateProduction()
	e.sim.Update(dtMs)
	e.quests.Update()
	e.bus.Drain()

	e.store.UpdateStat("totalGameTime", dtMs)
	e.store.TickAutosave(ctx, dt)
}

// startProduction puts every unlocked, built workshop into its cycle.
func (e *Engine) startProduction() {
	now := e.clk.Now().UnixMilli()
	for i := range e.store.Data().Workshops {
		ws := &e.store.Data().Workshops[i]
		if ws.Unlocked && ws.Level > 0 && !ws.Producing {
			ws.Producing = true
			ws.ProductionStartTime = now
			e.store.MarkDirty()
		}
	}
}

// updateProduction completes any cycle whose duration has elapsed.
func (e *Engine) updateProduction() {
	now := e.clk.Now().UnixMilli()
	for i := range e.store.Data().Workshops {
		ws := &e.store.Data().Workshops[i]
		if !ws.Unlocked || !ws.Producing {
			continue
		}
		if now-ws.ProductionStartTime >= ws.ProductionDuration {
			e.CompleteProduction(ws)
		}
	}
}

// CompleteProduction collects one finished cycle: credit income, stock
// the inventory bucket, grant exp, and restart the timer immediately.
func (e *Engine) CompleteProduction(ws *state.Workshop) {
	def, ok := e.cfg.Workshops.Def(ws.ID)
	if !ok {
		return
	}
	d := e.store.Data()

	income := workshop.Income(ws, d.ShopLevel, d.Reputation, e.cfg.Player)
	items := workshop.ItemsPerCycle(ws.Level)

	e.store.AddGold(income)
	e.store.AddItem(def.ItemType, items)
	e.store.AddExp(ws.Level * 2)

	ws.ProductionStartTime = e.clk.Now().UnixMilli()
	e.store.MarkDirty()

	e.bus.Publish(events.Event{Type: events.ItemProduced, ItemType: def.ItemType, Amount: items})
	e.bus.Publish(events.Event{Type: events.ProductionCollected, WorkshopID: ws.ID})
}

// HandleWorkshopTap mirrors the play pattern: a producing workshop
// offers an ad-funded speed-up, an idle one starts its cycle.
func (e *Engine) HandleWorkshopTap(id string) error {
	ws := e.store.Data().WorkshopByID(id)
	if ws == nil {
		return ErrWorkshopNotFound
	}
	if !ws.Unlocked {
		return ErrWorkshopLocked
	}
	if ws.Producing {
		e.SpeedUpProduction(id)
		return nil
	}
	ws.Producing = true
	ws.ProductionStartTime = e.clk.Now().UnixMilli()
	e.store.MarkDirty()
	return nil
}

// SpeedUpProduction completes the current cycle through the rewarded-ad
// port. The grant callback re-enters on the loop goroutine.
func (e *Engine) SpeedUpProduction(id string) {
	e.ads.Request(ads.PlacementSpeedUp, func(granted bool) {
		e.enqueue(func() {
			if !granted {
				return
			}
			ws := e.store.Data().WorkshopByID(id)
			if ws == nil || !ws.Producing {
				return
			}
			e.store.UpdateStat("totalAdsWatched", 1)
			e.CompleteProduction(ws)
		})
	})
}

// UpgradeWorkshop spends the current costs, bumps the level, recomputes
// the curves and next costs, and grants exp.
func (e *Engine) UpgradeWorkshop(id string) error {
	d := e.store.Data()
	ws := d.WorkshopByID(id)
	if ws == nil {
		return ErrWorkshopNotFound
	}
	if !ws.Unlocked {
		return ErrWorkshopLocked
	}
	def, ok := e.cfg.Workshops.Def(id)
	if !ok {
		return ErrWorkshopNotFound
	}

	goldCost := ws.UpgradeGoldCost
	gemCost := ws.UpgradeGemCost
	if d.Gold < goldCost || d.Gems < gemCost {
		return ErrInsufficientFunds
	}
	e.store.SpendGold(goldCost)
	if gemCost > 0 {
		e.store.SpendGems(gemCost)
	}

	oldLevel := ws.Level
	ws.Level++
	workshop.ApplyLevel(ws, def)
	e.store.AddExp(ws.Level * 10)
	e.store.MarkDirty()

	e.bus.Publish(events.Event{
		Type:         events.WorkshopUpgraded,
		WorkshopID:   ws.ID,
		WorkshopName: ws.Name,
		OldLevel:     oldLevel,
		NewLevel:     ws.Level,
	})
	e.bus.Publish(events.Event{Type: events.GoldSpent, Amount: goldCost, Purpose: "workshop_upgrade"})
	if gemCost > 0 {
		e.bus.Publish(events.Event{Type: events.GemsSpent, Amount: gemCost, Purpose: "workshop_upgrade"})
	}

	if floor := e.minWorkshopLevel(); floor > 0 {
		e.bus.Publish(events.Event{Type: events.AllWorkshopsLevel, NewLevel: floor})
	}

	e.logger.Printf("%s upgraded to level %d", ws.Name, ws.Level)
	return nil
}

// minWorkshopLevel returns the lowest level across all workshops. An
// unbuilt workshop counts as level 0, which suppresses the
// all-workshops event until the whole floor is built.
func (e *Engine) minWorkshopLevel() int {
	workshops := e.store.Data().Workshops
	if len(workshops) == 0 {
		return 0
	}
	lowest := workshops[0].Level
	for _, ws := range workshops[1:] {
		if ws.Level < lowest {
			lowest = ws.Level
		}
	}
	return lowest
}

// BuildWorkshop is the explicit unlock purchase for a level-locked
// workshop: pays the seed costs, sets level 1, and starts production.
func (e *Engine) BuildWorkshop(id string) error {
	d := e.store.Data()
	ws := d.WorkshopByID(id)
	if ws == nil {
		return ErrWorkshopNotFound
	}
	if ws.Unlocked {
		return ErrWorkshopUnlocked
	}
	def, ok := e.cfg.Workshops.Def(id)
	if !ok {
		return ErrWorkshopNotFound
	}

	if d.Gold < ws.UpgradeGoldCost || d.Gems < ws.UpgradeGemCost {
		return ErrInsufficientFunds
	}
	goldCost := ws.UpgradeGoldCost
	gemCost := ws.UpgradeGemCost
	e.store.SpendGold(goldCost)
	if gemCost > 0 {
		e.store.SpendGems(gemCost)
	}

	ws.Unlocked = true
	ws.Level = 1
	workshop.ApplyLevel(ws, def)
	ws.Producing = true
	ws.ProductionStartTime = e.clk.Now().UnixMilli()
	e.store.MarkDirty()

	e.bus.Publish(events.Event{Type: events.WorkshopUnlocked, WorkshopID: ws.ID, WorkshopName: ws.Name})
	e.bus.Publish(events.Event{Type: events.GoldSpent, Amount: goldCost, Purpose: "workshop_build"})
	if e.allUnlocked() {
		e.bus.Publish(events.Event{Type: events.AllWorkshopsUnlocked, Amount: len(d.Workshops)})
	}
	return nil
}

// PurchaseShopItem exchanges currency for a catalog item's grant. Both
// costs must be covered before either is debited.
func (e *Engine) PurchaseShopItem(id string) error {
	item, ok := shop.ItemByID(id)
	if !ok {
		return ErrShopItemNotFound
	}
	d := e.store.Data()
	if d.Gold < item.GoldCost || d.Gems < item.GemCost {
		return ErrInsufficientFunds
	}

	if item.GoldCost > 0 {
		e.store.SpendGold(item.GoldCost)
		e.bus.Publish(events.Event{Type: events.GoldSpent, Amount: item.GoldCost, Purpose: "shop_purchase"})
	}
	if item.GemCost > 0 {
		e.store.SpendGems(item.GemCost)
		e.bus.Publish(events.Event{Type: events.GemsSpent, Amount: item.GemCost, Purpose: "shop_purchase"})
	}

	if item.GoldGrant > 0 {
		e.store.AddGold(item.GoldGrant)
		e.bus.Publish(events.Event{Type: events.GoldEarned, Amount: item.GoldGrant, Source: "shop_purchase"})
	}
	if item.GemGrant > 0 {
		e.store.AddGems(item.GemGrant)
	}
	if item.ExpGrant > 0 {
		e.store.AddExp(item.ExpGrant)
	}

	e.logger.Printf("shop purchase: %s", item.Name)
	return nil
}

func (e *Engine) allUnlocked() bool {
	for _, ws := range e.store.Data().Workshops {
		if !ws.Unlocked {
			return false
		}
	}
	return true
}

// workshopCenters exposes unlocked workshop hit-region centers to the
// customer placement check.
func (e *Engine) workshopCenters() []customer.Point {
	workshops := e.store.Data().Workshops
	centers := make([]customer.Point, 0, len(workshops))
	step := floorWidth / float64(len(workshops)+1)
	for i, ws := range workshops {
		if !ws.Unlocked {
			continue
		}
		centers = append(centers, customer.Point{X: step * float64(i+1), Y: workshopRowY})
	}
	return centers
}

// ServeCustomer is the manual service entry point.
func (e *Engine) ServeCustomer(id string) error {
	return e.sim.Serve(id, false)
}

// OnBackground persists on app-hide so offline time is measured from
// the last save.
func (e *Engine) OnBackground(ctx context.Context) {
	e.store.Save(ctx)
}

// OnForeground recomputes offline time and surfaces a pending reward.
func (e *Engine) OnForeground(ctx context.Context) {
	e.store.CaptureOfflineTime()
	e.calculateOfflineProgress()
	e.startProduction()
}

func (e *Engine) Customers() []*customer.Customer { return e.sim.Live() }

func (e *Engine) Quests() *quest.Engine { return e.quests }

func (e *Engine) Store() *state.Store { return e.store }
