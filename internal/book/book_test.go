package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySnapshot(t *testing.T) {
	b := New("KXBTC15M-26AUG311215-15")
	b.ApplySnapshot(
		[]Level{{Price: 30, Quantity: 100}},
		[]Level{{Price: 65, Quantity: 50}},
	)

	bid, ok := b.BestBid(SideYes)
	require.True(t, ok)
	assert.Equal(t, 30, bid)

	ask, ok := b.BestAsk(SideYes)
	require.True(t, ok)
	assert.Equal(t, 35, ask)

	spread, ok := b.Spread(SideYes)
	require.True(t, ok)
	assert.Equal(t, 5, spread)
}

func TestApplySnapshotReplacesPriorState(t *testing.T) {
	b := New("TEST")
	b.ApplySnapshot([]Level{{Price: 20, Quantity: 10}, {Price: 25, Quantity: 5}}, nil)
	b.ApplySnapshot([]Level{{Price: 40, Quantity: 7}}, []Level{{Price: 55, Quantity: 3}})

	assert.Equal(t, 0, b.QuantityAt(SideYes, 20))
	assert.Equal(t, 0, b.QuantityAt(SideYes, 25))
	assert.Equal(t, 7, b.QuantityAt(SideYes, 40))
	assert.Equal(t, 3, b.QuantityAt(SideNo, 55))
}

func TestApplyDeltaRemovesEmptiedLevel(t *testing.T) {
	b := New("TEST")
	b.ApplySnapshot(
		[]Level{{Price: 30, Quantity: 100}},
		[]Level{{Price: 65, Quantity: 50}},
	)

	ok := b.ApplyDelta(SideYes, 30, -100)
	require.True(t, ok)

	_, found := b.BestBid(SideYes)
	assert.False(t, found, "yes side should be empty after level removal")
	assert.True(t, b.Empty(SideYes))

	// No side untouched; yes ask still derivable from it.
	ask, found := b.BestAsk(SideYes)
	require.True(t, found)
	assert.Equal(t, 35, ask)
}

func TestApplyDeltaNeverGoesNegative(t *testing.T) {
	b := New("TEST")
	b.ApplyDelta(SideYes, 40, 10)
	b.ApplyDelta(SideYes, 40, -25)

	assert.Equal(t, 0, b.QuantityAt(SideYes, 40))
	_, found := b.BestBid(SideYes)
	assert.False(t, found)

	// Re-adding after removal starts from zero.
	b.ApplyDelta(SideYes, 40, 3)
	assert.Equal(t, 3, b.QuantityAt(SideYes, 40))
}

func TestApplyDeltaUnknownSide(t *testing.T) {
	b := New("TEST")
	b.ApplySnapshot([]Level{{Price: 30, Quantity: 100}}, nil)

	side, ok := ParseSide("maybe")
	assert.False(t, ok)
	assert.False(t, b.ApplyDelta(side, 30, -100), "unknown side must be a no-op")
	assert.Equal(t, 100, b.QuantityAt(SideYes, 30))
}

func TestBestAskComplement(t *testing.T) {
	b := New("TEST")
	b.ApplySnapshot(
		[]Level{{Price: 30, Quantity: 10}, {Price: 28, Quantity: 40}},
		[]Level{{Price: 65, Quantity: 5}, {Price: 62, Quantity: 9}},
	)

	for _, side := range []Side{SideYes, SideNo} {
		oppBid, okOpp := b.BestBid(side.Opposite())
		ask, okAsk := b.BestAsk(side)
		require.True(t, okOpp)
		require.True(t, okAsk)
		assert.Equal(t, 100-oppBid, ask, "side %s", side)
	}
}

func TestBestQuotesEmptyBook(t *testing.T) {
	b := New("TEST")

	_, ok := b.BestBid(SideYes)
	assert.False(t, ok)
	_, ok = b.BestAsk(SideYes)
	assert.False(t, ok)
	_, ok = b.Spread(SideYes)
	assert.False(t, ok)
}

func TestDepthAtBest(t *testing.T) {
	b := New("TEST")
	b.ApplySnapshot(
		[]Level{{Price: 38, Quantity: 120}, {Price: 35, Quantity: 300}},
		[]Level{{Price: 60, Quantity: 80}},
	)

	bidQty, askQty := b.DepthAtBest(SideYes)
	assert.Equal(t, 120, bidQty)
	assert.Equal(t, 80, askQty)

	bidQty, askQty = b.DepthAtBest(SideNo)
	assert.Equal(t, 80, bidQty)
	assert.Equal(t, 120, askQty)
}

func TestSideHelpers(t *testing.T) {
	assert.Equal(t, SideNo, SideYes.Opposite())
	assert.Equal(t, SideYes, SideNo.Opposite())
	assert.Equal(t, "YES", SideYes.Upper())
	assert.Equal(t, "no", SideNo.String())

	s, ok := ParseSide("no")
	require.True(t, ok)
	assert.Equal(t, SideNo, s)
}
