// Package ads is the rewarded-ad port. The simulation core never talks
// to an ad SDK directly; it requests a placement and receives exactly
// one callback, granted or not. Every failure path resolves through a
// deterministic fallback so no reward flow can hang.
package ads

import (
	"log"

	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
)

// Placement identifies why an ad was requested.
type Placement string

const (
	PlacementSpeedUp      Placement = "speed_up"
	PlacementDoubleReward Placement = "double_reward"
)

// Provider shows a rewarded ad and reports whether the reward was
// earned. Implementations may call fn asynchronously; the engine
// re-enters callbacks on the loop goroutine.
type Provider interface {
	RequestRewardedAd(kind Placement, fn func(granted bool)) error
}

// FallbackProvider grants immediately. Used when no SDK is wired and as
// the terminal fallback when a real provider errors.
type FallbackProvider struct{}

func (FallbackProvider) RequestRewardedAd(_ Placement, fn func(granted bool)) error {
	fn(true)
	return nil
}

// Gate enforces the daily watch cap and routes requests through the
// provider, falling back to an immediate grant on provider error or
// when the cap is reached (the share-for-reward substitute).
type Gate struct {
	provider Provider
	clk      clock.Clock
	logger   *log.Logger

	maxDaily int
	day      string
	watched  int
}

func NewGate(provider Provider, clk clock.Clock, maxDaily int) *Gate {
	if provider == nil {
		provider = FallbackProvider{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Gate{
		provider: provider,
		clk:      clk,
		logger:   log.New(log.Writer(), "ads: ", log.LstdFlags),
		maxDaily: maxDaily,
	}
}

func (g *Gate) rollDay() {
	day := g.clk.Now().Format("2006-01-02")
	if day != g.day {
		g.day = day
		g.watched = 0
	}
}

// Remaining reports how many rewarded ads are still available today.
func (g *Gate) Remaining() int {
	g.rollDay()
	left := g.maxDaily - g.watched
	if left < 0 {
		return 0
	}
	return left
}

// Request resolves fn exactly once. Counted against the daily cap only
// when the provider actually granted through an ad.
func (g *Gate) Request(kind Placement, fn func(granted bool)) {
	g.rollDay()

	if g.watched >= g.maxDaily {
		g.logger.Printf("daily cap reached, granting %s via share fallback", kind)
		fn(true)
		return
	}

	resolved := false
	err := g.provider.RequestRewardedAd(kind, func(granted bool) {
		if resolved {
			return
		}
		resolved = true
		if granted {
			g.watched++
		}
		fn(granted)
	})
	if err != nil {
		g.logger.Printf("provider failed for %s, immediate grant: %v", kind, err)
		if !resolved {
			resolved = true
			fn(true)
		}
	}
}
