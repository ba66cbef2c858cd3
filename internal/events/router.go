package events

import "log/slog"

// Sink receives signal events and contract-end summaries. Both
// callbacks run on the consumer goroutine; implementations must not
// block it.
type Sink interface {
	OnEvent(Event)
	OnContractEnd(ContractSummary)
}

// Router delivers each event exactly once, in emission order, to every
// registered sink. It does no filtering, buffering, or deduplication.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Register appends a sink. Not safe to call after publishing starts.
func (r *Router) Register(s Sink) {
	r.sinks = append(r.sinks, s)
}

// PublishEvent fans one event out to all sinks in registration order.
func (r *Router) PublishEvent(e Event) {
	for _, s := range r.sinks {
		s.OnEvent(e)
	}
}

// PublishContractEnd fans one summary out to all sinks.
func (r *Router) PublishContractEnd(sum ContractSummary) {
	for _, s := range r.sinks {
		s.OnContractEnd(sum)
	}
}
