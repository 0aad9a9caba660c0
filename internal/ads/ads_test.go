package ads

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dark2017/magic-shop-mini-game/internal/clock"
)

type denyingProvider struct{ calls int }

func (p *denyingProvider) RequestRewardedAd(_ Placement, fn func(bool)) error {
	p.calls++
	fn(false)
	return nil
}

type failingProvider struct{}

func (failingProvider) RequestRewardedAd(_ Placement, _ func(bool)) error {
	return errors.New("sdk unavailable")
}

func TestFallbackProviderAlwaysGrants(t *testing.T) {
	granted := false
	gate := NewGate(FallbackProvider{}, clock.NewFakeClock(time.Now()), 10)

	gate.Request(PlacementSpeedUp, func(ok bool) { granted = ok })

	assert.True(t, granted)
	assert.Equal(t, 9, gate.Remaining())
}

func TestProviderErrorResolvesThroughImmediateGrant(t *testing.T) {
	gate := NewGate(failingProvider{}, clock.NewFakeClock(time.Now()), 10)

	resolved := 0
	granted := false
	gate.Request(PlacementDoubleReward, func(ok bool) {
		resolved++
		granted = ok
	})

	assert.Equal(t, 1, resolved)
	assert.True(t, granted)
	// Error grants bypass the counter.
	assert.Equal(t, 10, gate.Remaining())
}

func TestDeniedAdDoesNotConsumeCap(t *testing.T) {
	p := &denyingProvider{}
	gate := NewGate(p, clock.NewFakeClock(time.Now()), 10)

	granted := true
	gate.Request(PlacementSpeedUp, func(ok bool) { granted = ok })

	assert.False(t, granted)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 10, gate.Remaining())
}

func TestDailyCapFallsBackToShareGrantAndResetsNextDay(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	p := &denyingProvider{}
	gate := NewGate(p, fake, 2)

	// Force both granted watches by swapping in the fallback.
	gate.provider = FallbackProvider{}
	for i := 0; i < 2; i++ {
		gate.Request(PlacementSpeedUp, func(bool) {})
	}
	require.Zero(t, gate.Remaining())

	// Capped: the share substitute still grants without the provider.
	gate.provider = p
	granted := false
	gate.Request(PlacementSpeedUp, func(ok bool) { granted = ok })
	assert.True(t, granted)
	assert.Zero(t, p.calls)

	fake.Advance(24 * time.Hour)
	assert.Equal(t, 2, gate.Remaining())
}
