package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dark2017/magic-shop-mini-game/internal/ads"
	"github.com/Dark2017/magic-shop-mini-game/internal/backup"
	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
	"github.com/Dark2017/magic-shop-mini-game/internal/config"
	"github.com/Dark2017/magic-shop-mini-game/internal/customer"
	"github.com/Dark2017/magic-shop-mini-game/internal/events"
	"github.com/Dark2017/magic-shop-mini-game/internal/game"
	"github.com/Dark2017/magic-shop-mini-game/internal/quest"
	"github.com/Dark2017/magic-shop-mini-game/internal/state"
	"github.com/Dark2017/magic-shop-mini-game/internal/telemetry"
)

const tickInterval = 100 * time.Millisecond

func main() {
	ctx := context.Background()

	cfg := config.FromEnv()
	if path := os.Getenv("BALANCE_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Printf("balance file ignored: %v", err)
		} else {
			cfg = loaded
		}
	}

	repo, closeRepo, err := openSaveRepo()
	if err != nil {
		log.Printf("save storage unavailable, running in memory: %v", err)
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	clk := clock.RealClock{}
	store := state.NewStore(cfg, repo, clk)

	if dsn := os.Getenv("BACKUP_DSN"); dsn != "" {
		pg, err := backup.NewPostgres(dsn)
		if err != nil {
			log.Printf("remote backup disabled: %v", err)
		} else {
			defer pg.Close()
			if err := pg.EnsureSchema(ctx); err != nil {
				log.Printf("remote backup disabled: %v", err)
			} else {
				store.SetBackup(pg)
			}
		}
	}

	bus := events.NewBus()
	bus.Stamp = clk.Now
	store.SetBus(bus)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sim := customer.NewSim(cfg.Customers, store, bus, rng, game.FloorBounds())
	quests := quest.NewEngine(cfg.Quests, store, clk, rng)
	gate := ads.NewGate(ads.FallbackProvider{}, clk, cfg.Ads.MaxDaily)
	telem := telemetry.NewMemoryRepository()

	engine := game.NewEngine(cfg, store, bus, sim, quests, gate, telem, clk)
	engine.Start(ctx)

	if pending := engine.PendingOfflineRewards(); pending != nil {
		log.Printf("welcome back: %d gold earned over %.1fh away", pending.Gold, pending.EffectiveHours)
		engine.ClaimOfflineRewards(false)
	}

	run(ctx, engine, store)
}

func openSaveRepo() (state.SaveRepo, func() error, error) {
	if path := os.Getenv("SAVE_FILE"); path != "" {
		repo, err := state.NewFileRepo(path)
		return repo, nil, err
	}
	path := os.Getenv("SAVE_DB")
	if path == "" {
		path = "magicshop.db"
	}
	repo, err := state.NewSQLiteRepo(path)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

// run drives the fixed-cadence loop until a termination signal, saving
// on the way out.
func run(ctx context.Context, engine *game.Engine, store *state.Store) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	log.Printf("magic shop open")

	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			engine.Update(ctx, dt)
		case sig := <-sigs:
			log.Printf("shutting down on %v", sig)
			engine.OnBackground(ctx)
			return
		}
	}
}
