package events

import "log/slog"

// LogSink writes every event and summary to structured logs.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging at Info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) OnEvent(e Event) {
	attrs := []any{
		"kind", e.Kind.String(),
		"side", e.Side,
		"contract", e.Contract,
		"session", FormatElapsed(e.SessionElapsed),
	}
	if e.HasPrice {
		attrs = append(attrs, "price", e.Price)
	}
	if e.Kind == KindTarget {
		attrs = append(attrs, "cycle", e.Cycle, "dwell", FormatDwell(e.Dwell))
	}
	if e.Metrics.PnL != nil {
		attrs = append(attrs, "pnl", *e.Metrics.PnL)
	}
	if e.Metrics.Depth != "" {
		attrs = append(attrs, "depth", e.Metrics.Depth)
	}
	s.logger.Info("signal event", attrs...)
}

func (s *LogSink) OnContractEnd(sum ContractSummary) {
	s.logger.Info("contract end",
		"contract", sum.Contract,
		"side", sum.Side,
		"result", sum.Result(),
		"cycles", sum.Cycles,
		"stops", sum.Stops,
		"open_trigger", sum.OpenTrigger,
		"partial", sum.Partial,
	)
}
