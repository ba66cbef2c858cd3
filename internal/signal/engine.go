package signal

import (
	"log/slog"
	"time"

	"github.com/rickgao/kalshi-watch/internal/book"
	"github.com/rickgao/kalshi-watch/internal/contract"
)

// State is the engine's position in the cycle tracker.
type State int

const (
	// StateIdle means no trigger is open; the engine watches the ask.
	StateIdle State = iota
	// StateTriggered means an entry is open; the engine watches for
	// target or stop.
	StateTriggered
	// StateStopped means no further evaluation happens until the next
	// contract.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the cycle-tracker thresholds. Prices are in cents.
type Config struct {
	EntryThreshold   int           // ask at or below opens a trigger (default: 40)
	TargetThreshold  int           // bid at or above completes a cycle (default: 45)
	StopThreshold    int           // ask at or below stops the engine out (default: 10)
	MinDwell         time.Duration // target fills faster than this are noise (default: 2s)
	StopArmDelay     time.Duration // stop ignored until this long after entry (default: 0)
	NoEntryAfter     time.Duration // no new triggers after this much of the contract; 0 disables
	MaxCycles        int           // stop after this many completed cycles; 0 disables
	PreExpiryLockout time.Duration // no new triggers this close to expiry (default: 30s)
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		EntryThreshold:   40,
		TargetThreshold:  45,
		StopThreshold:    10,
		MinDwell:         2 * time.Second,
		StopArmDelay:     0,
		NoEntryAfter:     0,
		MaxCycles:        0,
		PreExpiryLockout: 30 * time.Second,
	}
}

// costBasis is the fixed assumed entry cost used for realized P&L,
// regardless of the actual fill price.
const costBasis = 40

// OutcomeKind identifies what the engine observed.
type OutcomeKind int

const (
	OutcomeEntry OutcomeKind = iota
	OutcomeTarget
	OutcomeStopLoss
	OutcomeMilestone
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeEntry:
		return "ENTRY"
	case OutcomeTarget:
		return "TARGET"
	case OutcomeStopLoss:
		return "STOP_LOSS"
	case OutcomeMilestone:
		return "MILESTONE"
	default:
		return "unknown"
	}
}

// Outcome is one state transition produced by Evaluate.
type Outcome struct {
	Kind  OutcomeKind
	At    time.Time
	Price int           // entry ask, target exit bid, or stop exit ask
	Dwell time.Duration // entry-to-target, set on TARGET only
	Cycle int           // completed cycle number, set on TARGET only

	PnL    float64 // per 10-contract lot against the fixed cost basis
	HasPnL bool    // set on TARGET and STOP_LOSS
}

// Summary is the per-contract tally read by the scheduler before Reset.
type Summary struct {
	Cycles      int
	Stops       int
	OpenTrigger bool
	TriggeredAt time.Time // valid when OpenTrigger
}

// Engine runs the cycle tracker for one side of one contract at a
// time. It is not safe for concurrent use; a single consumer drives it.
type Engine struct {
	side   book.Side
	cfg    Config
	logger *slog.Logger

	contract      contract.Contract
	state         State
	triggeredAt   time.Time
	entryAsk      int
	cycles        int
	stops         int
	milestoneSent bool
}

// NewEngine creates an idle engine. Reset must be called with a
// contract before Evaluate produces entries.
func NewEngine(side book.Side, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		side:   side,
		cfg:    cfg,
		logger: logger.With("side", side),
	}
}

// Reset rebinds the engine to a new contract and clears all state and
// counters. Callers wanting the previous contract's tally must read
// Summary first.
func (e *Engine) Reset(c contract.Contract) {
	e.contract = c
	e.state = StateIdle
	e.triggeredAt = time.Time{}
	e.entryAsk = 0
	e.cycles = 0
	e.stops = 0
	e.milestoneSent = false
}

// State returns the current tracker state.
func (e *Engine) State() State { return e.state }

// Summary returns the running tally for the current contract.
func (e *Engine) Summary() Summary {
	return Summary{
		Cycles:      e.cycles,
		Stops:       e.stops,
		OpenTrigger: e.state == StateTriggered,
		TriggeredAt: e.triggeredAt,
	}
}

// Evaluate advances the state machine against the current book. It
// returns zero or more outcomes in emission order; a completed fourth
// cycle yields both a TARGET and a MILESTONE.
func (e *Engine) Evaluate(b *book.Book, now time.Time) []Outcome {
	if e.state == StateStopped || e.contract.Zero() {
		return nil
	}
	ask, ok := b.BestAsk(e.side)
	if !ok {
		return nil
	}

	if e.state == StateIdle {
		return e.evaluateEntry(ask, now)
	}
	return e.evaluateOpen(b, ask, now)
}

func (e *Engine) evaluateEntry(ask int, now time.Time) []Outcome {
	// New triggers near expiry are settlement noise.
	if e.contract.Remaining(now) < e.cfg.PreExpiryLockout {
		return nil
	}
	if e.cfg.NoEntryAfter > 0 && now.Sub(e.contract.Start) >= e.cfg.NoEntryAfter {
		return nil
	}
	if ask > e.cfg.EntryThreshold {
		return nil
	}

	e.state = StateTriggered
	e.triggeredAt = now
	e.entryAsk = ask
	e.logger.Debug("trigger opened", "ask", ask)
	return []Outcome{{Kind: OutcomeEntry, At: now, Price: ask}}
}

func (e *Engine) evaluateOpen(b *book.Book, ask int, now time.Time) []Outcome {
	held := now.Sub(e.triggeredAt)

	if ask <= e.cfg.StopThreshold {
		if e.cfg.StopArmDelay > 0 && held < e.cfg.StopArmDelay {
			// Stop not yet armed. The target is deliberately not
			// considered while the ask sits below the stop level.
			return nil
		}
		e.stops++
		e.state = StateStopped
		e.triggeredAt = time.Time{}
		e.logger.Debug("stopped out", "ask", ask)
		return []Outcome{{
			Kind:   OutcomeStopLoss,
			At:     now,
			Price:  ask,
			PnL:    lotPnL(ask),
			HasPnL: true,
		}}
	}

	bid, ok := b.BestBid(e.side)
	if !ok || bid < e.cfg.TargetThreshold {
		return nil
	}
	if held < e.cfg.MinDwell {
		// Sub-dwell fill is a data artifact; keep monitoring.
		return nil
	}

	e.cycles++
	e.state = StateIdle
	e.triggeredAt = time.Time{}
	out := []Outcome{{
		Kind:   OutcomeTarget,
		At:     now,
		Price:  bid,
		Dwell:  held,
		Cycle:  e.cycles,
		PnL:    lotPnL(bid),
		HasPnL: true,
	}}
	if e.cycles == 4 && !e.milestoneSent {
		e.milestoneSent = true
		out = append(out, Outcome{Kind: OutcomeMilestone, At: now})
	}
	if e.cfg.MaxCycles > 0 && e.cycles >= e.cfg.MaxCycles {
		e.state = StateStopped
		e.logger.Debug("max cycles reached", "cycles", e.cycles)
	}
	return out
}

// lotPnL estimates realized P&L for a 10-contract lot exited at the
// given price against the fixed cost basis.
func lotPnL(exit int) float64 {
	return 10 * float64(exit-costBasis) / costBasis
}
