package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-watch/internal/book"
	"github.com/rickgao/kalshi-watch/internal/contract"
)

var testStart = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

func testContract() contract.Contract {
	return contract.Contract{
		Ticker: "KXBTC15M-26AUG311215-15",
		Start:  testStart,
		Expiry: testStart.Add(15 * time.Minute),
	}
}

// yesBook builds a book whose YES side shows the given best bid and
// ask. The ask comes from the complementary NO bid.
func yesBook(bid, ask int) *book.Book {
	b := book.New("KXBTC15M-26AUG311215-15")
	var yes, no []book.Level
	if bid > 0 {
		yes = append(yes, book.Level{Price: bid, Quantity: 100})
	}
	if ask > 0 {
		no = append(no, book.Level{Price: 100 - ask, Quantity: 100})
	}
	b.ApplySnapshot(yes, no)
	return b
}

func newTestEngine(cfg Config) *Engine {
	e := NewEngine(book.SideYes, cfg, nil)
	e.Reset(testContract())
	return e
}

func TestNoTrigger(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	for i := 0; i < 10; i++ {
		got := e.Evaluate(yesBook(55, 60), testStart.Add(time.Duration(i)*time.Second))
		assert.Empty(t, got)
	}

	sum := e.Summary()
	assert.Zero(t, sum.Cycles)
	assert.Zero(t, sum.Stops)
	assert.False(t, sum.OpenTrigger)
}

func TestEntryThenTarget(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	now := testStart.Add(time.Minute)

	got := e.Evaluate(yesBook(33, 38), now)
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeEntry, got[0].Kind)
	assert.Equal(t, 38, got[0].Price)
	assert.Equal(t, StateTriggered, e.State())

	got = e.Evaluate(yesBook(46, 51), now.Add(3*time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeTarget, got[0].Kind)
	assert.Equal(t, 46, got[0].Price)
	assert.Equal(t, 3*time.Second, got[0].Dwell)
	assert.Equal(t, 1, got[0].Cycle)
	require.True(t, got[0].HasPnL)
	assert.InDelta(t, 1.5, got[0].PnL, 1e-9)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 1, e.Summary().Cycles)
}

func TestStopLossEndsContract(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	now := testStart.Add(time.Minute)

	require.Len(t, e.Evaluate(yesBook(33, 38), now), 1)

	got := e.Evaluate(yesBook(3, 8), now.Add(10*time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeStopLoss, got[0].Kind)
	assert.Equal(t, 8, got[0].Price)
	require.True(t, got[0].HasPnL)
	assert.InDelta(t, -8.0, got[0].PnL, 1e-9)
	assert.Equal(t, StateStopped, e.State())

	// No re-entry for the rest of the contract.
	got = e.Evaluate(yesBook(33, 38), now.Add(20*time.Second))
	assert.Empty(t, got)

	sum := e.Summary()
	assert.Equal(t, 1, sum.Stops)
	assert.Zero(t, sum.Cycles)
	assert.False(t, sum.OpenTrigger)
}

func TestMilestoneAtFourCycles(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	now := testStart

	var milestones int
	for cycle := 1; cycle <= 5; cycle++ {
		now = now.Add(30 * time.Second)
		require.Len(t, e.Evaluate(yesBook(33, 38), now), 1, "cycle %d entry", cycle)

		now = now.Add(3 * time.Second)
		got := e.Evaluate(yesBook(46, 51), now)
		require.NotEmpty(t, got, "cycle %d target", cycle)
		assert.Equal(t, OutcomeTarget, got[0].Kind)

		for _, o := range got[1:] {
			assert.Equal(t, OutcomeMilestone, o.Kind)
			milestones++
		}
		if cycle == 4 {
			assert.Len(t, got, 2)
		} else {
			assert.Len(t, got, 1)
		}
	}
	assert.Equal(t, 1, milestones)
	assert.Equal(t, 5, e.Summary().Cycles)
}

func TestPreExpiryLockout(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	// 20 seconds to expiry: no new trigger.
	late := testStart.Add(15*time.Minute - 20*time.Second)
	assert.Empty(t, e.Evaluate(yesBook(33, 38), late))
	assert.Equal(t, StateIdle, e.State())

	// An already open trigger still completes inside the lockout.
	early := testStart.Add(14 * time.Minute)
	require.Len(t, e.Evaluate(yesBook(33, 38), early), 1)
	got := e.Evaluate(yesBook(46, 51), late)
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeTarget, got[0].Kind)
}

func TestNoEntryAfterCutoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoEntryAfter = 5 * time.Minute
	e := newTestEngine(cfg)

	assert.Empty(t, e.Evaluate(yesBook(33, 38), testStart.Add(6*time.Minute)))
	assert.Equal(t, StateIdle, e.State())

	require.Len(t, e.Evaluate(yesBook(33, 38), testStart.Add(4*time.Minute)), 1)
}

func TestMaxCyclesStopsEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCycles = 2
	e := newTestEngine(cfg)
	now := testStart

	for cycle := 1; cycle <= 2; cycle++ {
		now = now.Add(30 * time.Second)
		require.Len(t, e.Evaluate(yesBook(33, 38), now), 1)
		now = now.Add(3 * time.Second)
		require.Len(t, e.Evaluate(yesBook(46, 51), now), 1)
	}

	assert.Equal(t, StateStopped, e.State())
	assert.Empty(t, e.Evaluate(yesBook(33, 38), now.Add(time.Minute)))

	// A cycle cap is not a stop loss.
	sum := e.Summary()
	assert.Equal(t, 2, sum.Cycles)
	assert.Zero(t, sum.Stops)
}

func TestStopArmDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StopArmDelay = 5 * time.Second
	e := newTestEngine(cfg)
	now := testStart.Add(time.Minute)

	require.Len(t, e.Evaluate(yesBook(33, 38), now), 1)

	// Ask below stop before the delay: nothing fires, even with the
	// bid simultaneously at target.
	got := e.Evaluate(yesBook(46, 8), now.Add(2*time.Second))
	assert.Empty(t, got)
	assert.Equal(t, StateTriggered, e.State())

	got = e.Evaluate(yesBook(3, 8), now.Add(6*time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeStopLoss, got[0].Kind)
}

func TestSubDwellFillIgnored(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	now := testStart.Add(time.Minute)

	require.Len(t, e.Evaluate(yesBook(33, 38), now), 1)

	assert.Empty(t, e.Evaluate(yesBook(46, 51), now.Add(time.Second)))
	assert.Equal(t, StateTriggered, e.State())

	got := e.Evaluate(yesBook(46, 51), now.Add(2500*time.Millisecond))
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeTarget, got[0].Kind)
	assert.Equal(t, 2500*time.Millisecond, got[0].Dwell)
}

func TestOpenTriggerSummary(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	now := testStart.Add(time.Minute)

	require.Len(t, e.Evaluate(yesBook(33, 38), now), 1)

	sum := e.Summary()
	assert.True(t, sum.OpenTrigger)
	assert.Equal(t, now, sum.TriggeredAt)

	e.Reset(testContract())
	sum = e.Summary()
	assert.False(t, sum.OpenTrigger)
	assert.Zero(t, sum.Cycles)
}

func TestEmptyBookIsNoOp(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	b := book.New("KXBTC15M-26AUG311215-15")
	assert.Empty(t, e.Evaluate(b, testStart.Add(time.Minute)))
}
