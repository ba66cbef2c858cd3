package marketdata

import (
	"sync"
	"time"
)

// SettlementWindow is the moving-average window the exchange settles
// against; derived strike metrics use the same basis.
const SettlementWindow = 60 * time.Second

// StrikeState tracks strike availability for the active contract.
type StrikeState int

const (
	StrikePending StrikeState = iota
	StrikeKnown
	StrikeUnavailable
)

// Context is the shared market-data state for one reference instrument:
// last spot price, active contract strike, and the rolling sample
// window. Write-one/read-many; all access is synchronized.
type Context struct {
	mu sync.Mutex

	spot    float64
	hasSpot bool

	strike      float64
	strikeState StrikeState

	window *SampleWindow
}

// NewContext creates a Context with the default sample retention.
func NewContext() *Context {
	return &Context{window: NewSampleWindow(DefaultRetention)}
}

// SetSpot records a fresh spot price and appends it to the window.
func (c *Context) SetSpot(at time.Time, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spot = price
	c.hasSpot = true
	c.window.Add(at, price)
}

// Spot returns the last observed spot price.
func (c *Context) Spot() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spot, c.hasSpot
}

// SetStrike records the strike for the active contract.
func (c *Context) SetStrike(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strike = v
	c.strikeState = StrikeKnown
}

// MarkStrikeUnavailable marks the strike as permanently unknown for the
// remainder of the active contract.
func (c *Context) MarkStrikeUnavailable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.strikeState == StrikePending {
		c.strikeState = StrikeUnavailable
	}
}

// Strike returns the active contract strike and its state.
func (c *Context) Strike() (float64, StrikeState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strike, c.strikeState
}

// AveragePrice returns the settlement-basis price: the 60-second moving
// average, falling back to the latest raw sample.
func (c *Context) AveragePrice(now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.MovingAverage(now, SettlementWindow)
}

// DeltaToStrike returns settlement-basis price minus strike.
func (c *Context) DeltaToStrike(now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.strikeState != StrikeKnown || c.strike == 0 {
		return 0, false
	}
	avg, ok := c.window.MovingAverage(now, SettlementWindow)
	if !ok {
		return 0, false
	}
	return avg - c.strike, true
}

// ChangePct returns the settlement-basis price versus strike as a
// percentage of strike.
func (c *Context) ChangePct(now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.strikeState != StrikeKnown || c.strike == 0 {
		return 0, false
	}
	avg, ok := c.window.MovingAverage(now, SettlementWindow)
	if !ok {
		return 0, false
	}
	return (avg - c.strike) / c.strike * 100, true
}

// Momentum returns the spot change over the trailing window.
func (c *Context) Momentum(now time.Time, window time.Duration) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Momentum(now, window)
}

// RealizedVolatility returns the log-return volatility over the
// trailing window as a percentage.
func (c *Context) RealizedVolatility(now time.Time, window time.Duration) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.RealizedVolatility(now, window)
}

// Samples returns the number of retained samples.
func (c *Context) Samples() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Len()
}

// ResetContract clears per-contract linkage on a roll: the strike and
// the accumulated sample history. The last spot price survives.
func (c *Context) ResetContract() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strike = 0
	c.strikeState = StrikePending
	c.window.Clear()
}
