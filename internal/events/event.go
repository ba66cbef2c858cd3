package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/kalshi-watch/internal/book"
)

// Kind identifies a signal event.
type Kind int

const (
	KindEntry Kind = iota
	KindTarget
	KindStopLoss
	KindMilestone
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "ENTRY"
	case KindTarget:
		return "TARGET"
	case KindStopLoss:
		return "STOP_LOSS"
	case KindMilestone:
		return "MILESTONE"
	default:
		return "unknown"
	}
}

// Metrics is the derived-market snapshot attached to every event. Nil
// pointers mean the underlying input was unavailable at emission time.
type Metrics struct {
	Depth      string   // "B:<bid qty> A:<ask qty>" at best levels
	PnL        *float64 // realized estimate, target and stop only
	Momentum1m *float64
	Momentum5m *float64
	RVol5m     *float64
	RVol15m    *float64
}

// Event is one signal occurrence. Immutable once emitted.
type Event struct {
	ID             uuid.UUID
	Kind           Kind
	Side           book.Side
	Contract       string
	At             time.Time
	SessionElapsed time.Duration

	Price    int  // entry ask, target bid, or stop ask
	HasPrice bool // milestones carry no price

	Dwell time.Duration // entry-to-target, targets only
	Cycle int           // completed cycle number, targets only

	ReferenceChangePct *float64 // reference move since contract start
	StrikeDelta        *float64 // reference price minus strike

	Metrics Metrics
}

// Label returns the display label used in record rows.
func (e Event) Label() string {
	switch e.Kind {
	case KindEntry:
		return fmt.Sprintf("T%d", e.Price)
	case KindTarget:
		return fmt.Sprintf("TARGET #%d", e.Cycle)
	case KindStopLoss:
		return "STOP LOSS"
	case KindMilestone:
		return "MILESTONE"
	default:
		return e.Kind.String()
	}
}

// ContractSummary is the tally emitted once per contract at roll time.
type ContractSummary struct {
	Contract       string
	Side           book.Side
	Start          time.Time
	Expiry         time.Time
	At             time.Time
	SessionElapsed time.Duration

	Cycles      int
	Stops       int
	OpenTrigger bool
	TriggeredAt time.Time // valid when OpenTrigger

	// Partial marks a first contract joined mid-flight; persistence
	// sinks skip it.
	Partial bool
}

// Result renders the human-readable outcome line for the summary row.
func (s ContractSummary) Result() string {
	sfx := ""
	switch {
	case s.Stops == 1:
		sfx = " | 1 stop loss"
	case s.Stops > 1:
		sfx = fmt.Sprintf(" | %d stop losses", s.Stops)
	}

	switch {
	case s.Cycles > 0:
		out := fmt.Sprintf("%d cycle(s) completed%s", s.Cycles, sfx)
		if s.OpenTrigger {
			out += fmt.Sprintf(" + open trigger @ %s", s.TriggeredAt.Format("15:04:05"))
		}
		return out
	case s.OpenTrigger:
		return fmt.Sprintf("trigger hit @ %s, target never reached%s",
			s.TriggeredAt.Format("15:04:05"), sfx)
	default:
		return "no trigger" + sfx
	}
}

// Label returns the display label used in the contract-end record row.
func (s ContractSummary) Label() string {
	switch {
	case s.Cycles > 0:
		return fmt.Sprintf("CYCLES:%d", s.Cycles)
	case s.OpenTrigger:
		return "CYCLE MISS"
	default:
		return "NO TRIG"
	}
}
