package events

import (
	"fmt"
	"time"
)

// Placeholder fills record fields with no value.
const Placeholder = "-"

// Header is the fixed record column order. Every persistence sink
// relies on this order; do not reorder.
func Header() []string {
	return []string{
		"time", "session", "contract", "bid", "ask", "spread", "mid",
		"bid_qty", "ask_qty", "last", "reference", "strike", "delta",
		"chg_pct", "event",
	}
}

// Record is one formatted log row. Fields are display strings; the
// consumer formats values once and every sink shares the result.
type Record struct {
	Time      string
	Session   string
	Contract  string
	Bid       string
	Ask       string
	Spread    string
	Mid       string
	BidQty    string
	AskQty    string
	Last      string
	Reference string
	Strike    string
	Delta     string
	ChangePct string
	Event     string
}

// Strings returns the fields in Header order.
func (r Record) Strings() []string {
	return []string{
		r.Time, r.Session, r.Contract, r.Bid, r.Ask, r.Spread, r.Mid,
		r.BidQty, r.AskQty, r.Last, r.Reference, r.Strike, r.Delta,
		r.ChangePct, r.Event,
	}
}

// RecordSink receives periodic book records on the logging cadence.
type RecordSink interface {
	OnRecord(side string, rec Record)
}

// FormatElapsed renders a session-elapsed duration as M:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatDwell renders an entry-to-target duration for record rows.
func FormatDwell(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return "<1s"
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
