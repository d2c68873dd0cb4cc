package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_IndexesOrdersThreeWays(t *testing.T) {
	b := NewBundle()
	mkt := newOrder("ES", Market, Buy, 2, 0)
	stp := newOrder("ES", Stop, Sell, 2, 4990)
	tgt := newOrder("ES", Limit, Sell, 2, 5020)

	b.AddMarket("entry", mkt)
	b.AddStop("stop", stp)
	b.AddTarget("target", tgt)

	got, ok := b.Lookup(stp.ID)
	require.True(t, ok)
	assert.Same(t, stp, got)

	tag, ok := b.TagOf(tgt.ID)
	require.True(t, ok)
	assert.Equal(t, "target", tag)

	byTag, ok := b.StopByTag("stop")
	require.True(t, ok)
	assert.Same(t, stp, byTag)

	total, active := b.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, active)
}

func TestBundle_ModifyAllStopsSkipsDeadOrders(t *testing.T) {
	b := NewBundle()
	live := newOrder("ES", Stop, Sell, 1, 4990)
	filled := newOrder("ES", Stop, Sell, 1, 4985)
	filled.Status = StatusFilled
	cancelled := newOrder("ES", Stop, Sell, 1, 4980)
	cancelled.Status = StatusCancelled

	b.AddStop("live", live)
	b.AddStop("filled", filled)
	b.AddStop("cancelled", cancelled)

	n := b.ModifyAllStops(5000)
	assert.Equal(t, 1, n, "only the live stop may be touched")
	assert.Equal(t, 5000.0, live.Price)
	assert.Equal(t, 4985.0, filled.Price, "filled stop must be untouched")
	assert.Equal(t, 4980.0, cancelled.Price, "cancelled stop must be untouched")
}

func TestBundle_RemoveDropsAllIndexes(t *testing.T) {
	b := NewBundle()
	stp := newOrder("ES", Stop, Sell, 1, 4990)
	b.AddStop("stop", stp)

	b.Remove(stp.ID)

	_, ok := b.Lookup(stp.ID)
	assert.False(t, ok)
	_, ok = b.TagOf(stp.ID)
	assert.False(t, ok)
	_, ok = b.StopByTag("stop")
	assert.False(t, ok)
	total, _ := b.Counts()
	assert.Zero(t, total)
}
