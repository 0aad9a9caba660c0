// Package customer runs the arrival/service simulation: spawn cadence,
// non-overlapping placement, patience countdown, service and timeout
// resolution, and the auto-sell policy.
package customer

import (
	"errors"
	"log"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
)

var (
	ErrNotFound          = errors.New("customer: not found")
	ErrInsufficientStock = errors.New("customer: insufficient stock")
)

// Customer is an ephemeral live entity; it never touches the save tree.
type Customer struct {
	ID         string
	Name       string
	Demand     string
	PatienceMs int64
	Multiplier float64
	VIP        bool

	WaitTimeMs int64
	X, Y       float64
	Served     bool
}

// Point is an obstacle center used by placement.
type Point struct {
	X, Y float64
}

// Bounds is the spawnable region in logical coordinates.
type Bounds struct {
	Width      float64
	MinY, MaxY float64
}

type autoSellTask struct {
	customerID string
	remainMs   int64
}

// Sim owns the live customer set. Single-goroutine like everything else
// in the loop; the rng is injected so tests are deterministic.
type Sim struct {
	cfg    config.Customers
	store  *state.Store
	bus    *events.Bus
	rng    *rand.Rand
	logger *log.Logger

	bounds    Bounds
	obstacles func() []Point

	live         []*Customer
	spawnAccumMs int64
	autoSell     []autoSellTask
}

func NewSim(cfg config.Customers, store *state.Store, bus *events.Bus, rng *rand.Rand, bounds Bounds) *Sim {
	return &Sim{
		cfg:    cfg,
		store:  store,
		bus:    bus,
		rng:    rng,
		logger: log.New(log.Writer(), "customer: ", log.LstdFlags),
		bounds: bounds,
	}
}

// SetObstacles registers the workshop hit-region centers placement must
// avoid.
func (s *Sim) SetObstacles(fn func() []Point) { s.obstacles = fn }

func (s *Sim) Live() []*Customer { return s.live }

func (s *Sim) byID(id string) (int, *Customer) {
	for i, c := range s.live {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

// Update advances spawn timing, patience countdowns, and pending
// auto-sell tasks by dt milliseconds.
func (s *Sim) Update(dtMs int64) {
	s.spawnAccumMs += dtMs
	if s.spawnAccumMs >= s.cfg.SpawnIntervalMs && len(s.live) < s.cfg.MaxLive {
		// The accumulator survives a full floor, so a freed slot is
		// refilled on the next tick rather than a full interval later.
		s.spawnAccumMs = 0
		s.Spawn()
	}

	// Iterate over a snapshot: timeouts mutate the live slice.
	for _, c := range append([]*Customer(nil), s.live...) {
		c.WaitTimeMs += dtMs
		if c.WaitTimeMs > c.PatienceMs {
			s.leave(c.ID, false)
		}
	}

	s.fireAutoSell(dtMs)
}

// Spawn picks a type uniformly at random and places the customer;
// placement failure skips the spawn without error.
func (s *Sim) Spawn() *Customer {
	if len(s.cfg.Types) == 0 {
		return nil
	}
	t := s.cfg.Types[s.rng.Intn(len(s.cfg.Types))]

	pos, ok := s.findPosition()
	if !ok {
		s.logger.Printf("floor too crowded, skipping spawn")
		return nil
	}

	c := &Customer{
		ID:         uuid.NewString(),
		Name:       t.Name,
		Demand:     t.Demand,
		PatienceMs: t.PatienceMs,
		Multiplier: t.PaymentMultiplier,
		VIP:        t.VIP,
		X:          pos.X,
		Y:          pos.Y,
	}
	s.live = append(s.live, c)

	s.maybeScheduleAutoSell(c)
	return c
}

// findPosition rejection-samples a spot at least MinSeparation away
// from every live customer and workshop region.
func (s *Sim) findPosition() (Point, bool) {
	size := s.cfg.Size
	for attempt := 0; attempt < s.cfg.MaxPlaceTries; attempt++ {
		p := Point{
			X: s.rng.Float64()*(s.bounds.Width-size*2) + size,
			Y: s.rng.Float64()*(s.bounds.MaxY-s.bounds.MinY-size) + s.bounds.MinY,
		}
		if s.positionClear(p) {
			return p, true
		}
	}
	return Point{}, false
}

func (s *Sim) positionClear(p Point) bool {
	for _, c := range s.live {
		if dist(p.X, p.Y, c.X, c.Y) < s.cfg.MinSeparation {
			return false
		}
	}
	if s.obstacles != nil {
		for _, o := range s.obstacles() {
			if dist(p.X, p.Y, o.X, o.Y) < s.cfg.MinSeparation {
				return false
			}
		}
	}
	return true
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt((x1-x2)*(x1-x2) + (y1-y2)*(y1-y2))
}

// maybeScheduleAutoSell queues a delayed service task when the setting
// is on and the demand is satisfiable right now. The task re-validates
// both presence and stock when it fires.
func (s *Sim) maybeScheduleAutoSell(c *Customer) {
	if !s.store.Data().Settings.AutoSellEnabled {
		return
	}
	if !s.satisfiable(c.Demand) {
		return
	}
	s.autoSell = append(s.autoSell, autoSellTask{
		customerID: c.ID,
		remainMs:   s.cfg.AutoSellDelayMs,
	})
}

func (s *Sim) fireAutoSell(dtMs int64) {
	// Serving a customer cancels their task, which filters s.autoSell;
	// swap the queue out before iterating so the two never alias.
	pending := s.autoSell
	s.autoSell = nil
	for _, task := range pending {
		task.remainMs -= dtMs
		if task.remainMs > 0 {
			s.autoSell = append(s.autoSell, task)
			continue
		}
		_, c := s.byID(task.customerID)
		if c == nil || c.Served {
			continue
		}
		// Stock may have been consumed during the delay; skip silently.
		if err := s.Serve(task.customerID, true); err != nil && !errors.Is(err, ErrInsufficientStock) {
			s.logger.Printf("auto-sell failed: %v", err)
		}
	}
}

// cancelAutoSell drops any pending task for a customer id.
func (s *Sim) cancelAutoSell(id string) {
	remaining := s.autoSell[:0]
	for _, task := range s.autoSell {
		if task.customerID != id {
			remaining = append(remaining, task)
		}
	}
	s.autoSell = remaining
}

// Serve resolves a customer's demand against inventory. auto marks the
// provenance on emitted events; the resolution itself is identical to a
// manual tap.
func (s *Sim) Serve(id string, auto bool) error {
	_, c := s.byID(id)
	if c == nil {
		return ErrNotFound
	}

	itemType, ok := s.consume(c.Demand)
	if !ok {
		return ErrInsufficientStock
	}

	price := int(math.Floor(float64(s.price(c.Demand)) * c.Multiplier))
	s.store.AddGold(price)
	s.store.AddReputation(s.repPerServe())
	s.store.UpdateStat("totalItemsSold", 1)
	s.store.UpdateStat("totalCustomersServed", 1)
	s.store.AdjustSatisfaction(s.satisfactionServed())

	c.Served = true
	lastSecond := c.PatienceMs-c.WaitTimeMs <= 1000

	s.bus.Publish(events.Event{
		Type:         events.CustomerServed,
		CustomerType: c.Name,
		ItemType:     itemType,
		GoldEarned:   price,
		AutoSell:     auto,
		Satisfied:    true,
		LastSecond:   lastSecond,
	})
	source := "customer_service"
	if auto {
		source = "auto_sell_service"
	}
	s.bus.Publish(events.Event{Type: events.GoldEarned, Amount: price, Source: source})

	s.remove(c.ID)
	return nil
}

// leave removes a customer; unsatisfied exits cost satisfaction and
// emit customer_angry.
func (s *Sim) leave(id string, satisfied bool) {
	_, c := s.byID(id)
	if c == nil {
		return
	}
	if !satisfied {
		s.store.AdjustSatisfaction(-s.satisfactionAngry())
		s.bus.Publish(events.Event{Type: events.CustomerAngry, CustomerType: c.Name})
	}
	s.remove(id)
}

func (s *Sim) remove(id string) {
	s.cancelAutoSell(id)
	for i, c := range s.live {
		if c.ID == id {
			s.live = append(s.live[:i], s.live[i+1:]...)
			s.store.MarkDirty()
			return
		}
	}
}

// BoostPatience extends every live customer's patience window. Applied
// by the patience_boost quest reward.
func (s *Sim) BoostPatience(ms int64) {
	for _, c := range s.live {
		c.PatienceMs += ms
	}
}

// satisfiable reports whether a demand could be served from current
// stock without consuming anything.
func (s *Sim) satisfiable(demand string) bool {
	inv := s.store.Data().Inventory
	switch demand {
	case "potions":
		return inv.Potions > 0
	case "enchantments":
		return inv.Enchantments > 0
	case "crystals":
		return inv.Crystals > 0
	case "any":
		return inv.Total()-inv.RareItems > 0
	}
	return false
}

// consume debits the demanded bucket. "any" drains in fixed priority:
// potions, then enchantments, then crystals.
func (s *Sim) consume(demand string) (string, bool) {
	switch demand {
	case "potions", "enchantments", "crystals":
		return demand, s.store.ConsumeItem(demand, 1)
	case "any":
		for _, bucket := range []string{"potions", "enchantments", "crystals"} {
			if s.store.ConsumeItem(bucket, 1) {
				return bucket, true
			}
		}
	}
	return "", false
}

func (s *Sim) price(demand string) int {
	switch demand {
	case "potions":
		return s.cfg.Prices.Potions
	case "enchantments":
		return s.cfg.Prices.Enchantments
	case "crystals":
		return s.cfg.Prices.Crystals
	case "any":
		return s.cfg.Prices.Any
	}
	return s.cfg.Prices.Potions
}

func (s *Sim) repPerServe() int        { return s.shop().ReputationPerServe }
func (s *Sim) satisfactionServed() int { return s.shop().SatisfactionServed }
func (s *Sim) satisfactionAngry() int  { return s.shop().SatisfactionAngry }
func (s *Sim) shop() config.Shop       { return s.store.Config().Shop }
