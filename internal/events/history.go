package events

import (
	"log/slog"

	"github.com/rickgao/kalshi-watch/internal/book"
)

// SideTally accumulates per-side counts across a whole run.
type SideTally struct {
	Entries    int
	Targets    int
	Stops      int
	Milestones int
	Contracts  int
	PnL        float64 // cumulative realized estimate
}

// HistorySink keeps running totals per side for the end-of-run report.
// It runs on the consumer goroutine and needs no locking.
type HistorySink struct {
	tallies map[book.Side]*SideTally
}

// NewHistorySink creates an empty history.
func NewHistorySink() *HistorySink {
	return &HistorySink{tallies: make(map[book.Side]*SideTally)}
}

func (h *HistorySink) tally(side book.Side) *SideTally {
	t, ok := h.tallies[side]
	if !ok {
		t = &SideTally{}
		h.tallies[side] = t
	}
	return t
}

func (h *HistorySink) OnEvent(e Event) {
	t := h.tally(e.Side)
	switch e.Kind {
	case KindEntry:
		t.Entries++
	case KindTarget:
		t.Targets++
	case KindStopLoss:
		t.Stops++
	case KindMilestone:
		t.Milestones++
	}
	if e.Metrics.PnL != nil {
		t.PnL += *e.Metrics.PnL
	}
}

func (h *HistorySink) OnContractEnd(sum ContractSummary) {
	h.tally(sum.Side).Contracts++
}

// Tally returns a copy of the running totals for one side.
func (h *HistorySink) Tally(side book.Side) SideTally {
	if t, ok := h.tallies[side]; ok {
		return *t
	}
	return SideTally{}
}

// Report logs the final totals for every side seen.
func (h *HistorySink) Report(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for side, t := range h.tallies {
		logger.Info("session totals",
			"side", side,
			"contracts", t.Contracts,
			"entries", t.Entries,
			"targets", t.Targets,
			"stops", t.Stops,
			"milestones", t.Milestones,
			"pnl", t.PnL,
		)
	}
}
