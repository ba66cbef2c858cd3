package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/kalshi-watch/internal/book"
	"github.com/rickgao/kalshi-watch/internal/contract"
	"github.com/rickgao/kalshi-watch/internal/events"
	"github.com/rickgao/kalshi-watch/internal/marketdata"
	"github.com/rickgao/kalshi-watch/internal/signal"
	"github.com/rickgao/kalshi-watch/internal/stream"
)

// MarketStream is the session surface the watcher drives. Satisfied by
// stream.Session.
type MarketStream interface {
	Start(ctx context.Context)
	Stop()
	Messages() <-chan stream.Message
}

// StreamFactory opens a stream for one contract and side.
type StreamFactory func(ticker string, side book.Side) MarketStream

// StrikeFunc resolves the strike for a contract, writing into the
// market-data context. It blocks until resolved, exhausted, or ctx is
// cancelled, so the watcher runs it in its own goroutine per contract.
type StrikeFunc func(ctx context.Context, ticker string)

// Config holds the watcher cadences and contract series settings.
type Config struct {
	Prefix   string
	Duration time.Duration
	Sides    []book.Side

	DataInterval time.Duration // stream drain cadence (default: 80ms)
	LogInterval  time.Duration // record emission cadence (default: 500ms)
	TickInterval time.Duration // scheduler cadence (default: 1s)

	// PartialGrace marks the first contract partial when the watcher
	// joins more than this long after the contract started.
	PartialGrace time.Duration
}

// DefaultWatchConfig returns the standard cadences for a series.
func DefaultWatchConfig(prefix string, duration time.Duration, sides []book.Side) Config {
	return Config{
		Prefix:       prefix,
		Duration:     duration,
		Sides:        sides,
		DataInterval: 80 * time.Millisecond,
		LogInterval:  500 * time.Millisecond,
		TickInterval: time.Second,
		PartialGrace: 30 * time.Second,
	}
}

// Deps are the watcher's collaborators, injected at construction.
type Deps struct {
	Streams StreamFactory
	Strike  StrikeFunc
	Market  *marketdata.Context
	Router  *events.Router
	Records []events.RecordSink
	Signal  signal.Config
	Logger  *slog.Logger
	Clock   func() time.Time // defaults to time.Now
}

// sideState is everything the consumer owns for one watched side.
type sideState struct {
	book    *book.Book
	engine  *signal.Engine
	stream  MarketStream
	last    int
	hasLast bool
	status  string
}

// Watcher is the single-writer consumer of all stream and scheduler
// state.
type Watcher struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	clock  func() time.Time

	current contract.Contract
	partial bool
	sides   map[book.Side]*sideState

	strikeCancel context.CancelFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher; Start opens the first contract.
func NewWatcher(cfg Config, deps Deps) *Watcher {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if cfg.DataInterval <= 0 {
		cfg.DataInterval = 80 * time.Millisecond
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = 500 * time.Millisecond
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.PartialGrace <= 0 {
		cfg.PartialGrace = 30 * time.Second
	}

	w := &Watcher{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		clock:  deps.Clock,
		sides:  make(map[book.Side]*sideState),
	}
	for _, side := range cfg.Sides {
		w.sides[side] = &sideState{
			engine: signal.NewEngine(side, deps.Signal, deps.Logger),
		}
	}
	return w
}

// Start opens the first contract and launches the consumer loop.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	now := w.clock()
	w.openContract(ctx, now)
	// A first contract joined mid-flight is excluded from persistence.
	w.partial = now.Sub(w.current.Start) > w.cfg.PartialGrace
	if w.partial {
		w.logger.Info("joined contract mid-flight, first segment marked partial",
			"contract", w.current.Ticker,
			"elapsed", w.current.Elapsed(now),
		)
	}

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("watcher started",
		"contract", w.current.Ticker,
		"sides", len(w.sides),
		"expiry", w.current.Expiry,
	)
	return nil
}

// Stop finalizes the open contract and shuts the consumer down.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("watcher stop timed out")
		return ctx.Err()
	}

	// Emit final summaries so a partial last contract still reports.
	w.publishSummaries(w.clock())
	w.closeSessions()
	w.logger.Info("watcher stopped")
	return nil
}

// Contract returns the contract currently being watched.
func (w *Watcher) Contract() contract.Contract {
	return w.current
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	dataTicker := time.NewTicker(w.cfg.DataInterval)
	defer dataTicker.Stop()
	logTicker := time.NewTicker(w.cfg.LogInterval)
	defer logTicker.Stop()
	schedTicker := time.NewTicker(w.cfg.TickInterval)
	defer schedTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dataTicker.C:
			w.drain()
		case <-logTicker.C:
			w.emitRecords()
		case <-schedTicker.C:
			w.tick(ctx)
		}
	}
}

// drain consumes everything queued on every session without blocking.
func (w *Watcher) drain() {
	for side, st := range w.sides {
		if st.stream == nil {
			continue
		}
		for drained := false; !drained; {
			select {
			case msg := <-st.stream.Messages():
				w.handleMessage(side, st, msg)
			default:
				drained = true
			}
		}
	}
}

func (w *Watcher) handleMessage(side book.Side, st *sideState, msg stream.Message) {
	switch msg.Kind {
	case stream.KindStatus:
		st.status = msg.Status
		w.logger.Info("session status",
			"contract", w.current.Ticker,
			"side", side,
			"status", msg.Status,
		)
		return

	case stream.KindSnapshot:
		st.book.ApplySnapshot(msg.Yes, msg.No)

	case stream.KindDelta:
		ds, ok := book.ParseSide(msg.Side)
		if !ok {
			// Unknown side values are ignored rather than applied.
			w.logger.Debug("delta with unknown side dropped", "side", msg.Side)
			return
		}
		st.book.ApplyDelta(ds, msg.Price, msg.Delta)

	case stream.KindLastPrice:
		st.last = msg.LastPrice
		st.hasLast = true
		return
	}

	// The signal machine runs on every book mutation.
	now := w.clock()
	for _, out := range st.engine.Evaluate(st.book, now) {
		ev := w.buildEvent(side, st, out, now)
		w.deps.Router.PublishEvent(ev)
	}
}

func (w *Watcher) buildEvent(side book.Side, st *sideState, out signal.Outcome, now time.Time) events.Event {
	ev := events.Event{
		ID:             uuid.New(),
		Side:           side,
		Contract:       w.current.Ticker,
		At:             out.At,
		SessionElapsed: w.current.Elapsed(now),
		Dwell:          out.Dwell,
		Cycle:          out.Cycle,
	}
	switch out.Kind {
	case signal.OutcomeEntry:
		ev.Kind = events.KindEntry
	case signal.OutcomeTarget:
		ev.Kind = events.KindTarget
	case signal.OutcomeStopLoss:
		ev.Kind = events.KindStopLoss
	case signal.OutcomeMilestone:
		ev.Kind = events.KindMilestone
	}
	if out.Kind != signal.OutcomeMilestone {
		ev.Price = out.Price
		ev.HasPrice = true
	}

	bq, aq := st.book.DepthAtBest(side)
	ev.Metrics.Depth = fmt.Sprintf("B:%d A:%d", bq, aq)
	if out.HasPnL {
		pnl := out.PnL
		ev.Metrics.PnL = &pnl
	}

	mkt := w.deps.Market
	if mkt != nil {
		if v, ok := mkt.ChangePct(now); ok {
			ev.ReferenceChangePct = &v
		}
		if v, ok := mkt.DeltaToStrike(now); ok {
			ev.StrikeDelta = &v
		}
		if v, ok := mkt.Momentum(now, time.Minute); ok {
			ev.Metrics.Momentum1m = &v
		}
		if v, ok := mkt.Momentum(now, 5*time.Minute); ok {
			ev.Metrics.Momentum5m = &v
		}
		if v, ok := mkt.RealizedVolatility(now, 5*time.Minute); ok {
			ev.Metrics.RVol5m = &v
		}
		if v, ok := mkt.RealizedVolatility(now, 15*time.Minute); ok {
			ev.Metrics.RVol15m = &v
		}
	}
	return ev
}

// emitRecords renders one record per side on the logging cadence.
func (w *Watcher) emitRecords() {
	now := w.clock()
	for side, st := range w.sides {
		rec := w.buildRecord(side, st, now)
		for _, sink := range w.deps.Records {
			sink.OnRecord(string(side), rec)
		}
	}
}

func (w *Watcher) buildRecord(side book.Side, st *sideState, now time.Time) events.Record {
	rec := events.Record{
		Time:      now.Format("15:04:05"),
		Session:   events.FormatElapsed(w.current.Elapsed(now)),
		Contract:  w.current.Ticker,
		Bid:       events.Placeholder,
		Ask:       events.Placeholder,
		Spread:    events.Placeholder,
		Mid:       events.Placeholder,
		BidQty:    events.Placeholder,
		AskQty:    events.Placeholder,
		Last:      events.Placeholder,
		Reference: events.Placeholder,
		Strike:    events.Placeholder,
		Delta:     events.Placeholder,
		ChangePct: events.Placeholder,
	}

	bid, hasBid := st.book.BestBid(side)
	ask, hasAsk := st.book.BestAsk(side)
	if hasBid {
		rec.Bid = strconv.Itoa(bid)
	}
	if hasAsk {
		rec.Ask = strconv.Itoa(ask)
	}
	if hasBid && hasAsk {
		rec.Spread = strconv.Itoa(ask - bid)
		rec.Mid = fmt.Sprintf("%.1f", float64(bid+ask)/2)
	}
	bq, aq := st.book.DepthAtBest(side)
	if hasBid {
		rec.BidQty = strconv.Itoa(bq)
	}
	if hasAsk {
		rec.AskQty = strconv.Itoa(aq)
	}
	if st.hasLast {
		rec.Last = strconv.Itoa(st.last)
	}

	mkt := w.deps.Market
	if mkt != nil {
		if v, ok := mkt.AveragePrice(now); ok {
			rec.Reference = fmt.Sprintf("%.2f", v)
		}
		if v, state := mkt.Strike(); state == marketdata.StrikeKnown {
			rec.Strike = fmt.Sprintf("%.2f", v)
		}
		if v, ok := mkt.DeltaToStrike(now); ok {
			rec.Delta = fmt.Sprintf("%+.2f", v)
		}
		if v, ok := mkt.ChangePct(now); ok {
			rec.ChangePct = fmt.Sprintf("%+.3f%%", v)
		}
	}
	return rec
}

// tick rolls to the next contract once the current one expires.
func (w *Watcher) tick(ctx context.Context) {
	now := w.clock()
	if !w.current.Expired(now) {
		return
	}
	w.roll(ctx, now)
}

func (w *Watcher) roll(ctx context.Context, now time.Time) {
	old := w.current
	w.publishSummaries(now)
	w.closeSessions()
	w.partial = false

	w.deps.Market.ResetContract()
	w.openContract(ctx, now)

	w.logger.Info("rolled contract",
		"from", old.Ticker,
		"to", w.current.Ticker,
		"expiry", w.current.Expiry,
	)
}

// publishSummaries reads each engine's tally before it is reset.
func (w *Watcher) publishSummaries(now time.Time) {
	if w.current.Zero() {
		return
	}
	for side, st := range w.sides {
		sum := st.engine.Summary()
		w.deps.Router.PublishContractEnd(events.ContractSummary{
			Contract:       w.current.Ticker,
			Side:           side,
			Start:          w.current.Start,
			Expiry:         w.current.Expiry,
			At:             now,
			SessionElapsed: w.current.Elapsed(now),
			Cycles:         sum.Cycles,
			Stops:          sum.Stops,
			OpenTrigger:    sum.OpenTrigger,
			TriggeredAt:    sum.TriggeredAt,
			Partial:        w.partial,
		})
	}
}

// openContract computes the live contract at now, resets per-contract
// state, opens streams, and launches the strike lookup.
func (w *Watcher) openContract(ctx context.Context, now time.Time) {
	w.current = contract.Compute(now, w.cfg.Prefix, w.cfg.Duration)

	for side, st := range w.sides {
		st.book = book.New(w.current.Ticker)
		st.engine.Reset(w.current)
		st.last = 0
		st.hasLast = false
		st.status = ""
		if w.deps.Streams != nil {
			st.stream = w.deps.Streams(w.current.Ticker, side)
			st.stream.Start(ctx)
		}
	}

	if w.deps.Strike != nil {
		strikeCtx, cancel := context.WithCancel(ctx)
		w.strikeCancel = cancel
		ticker := w.current.Ticker
		go w.deps.Strike(strikeCtx, ticker)
	}
}

func (w *Watcher) closeSessions() {
	if w.strikeCancel != nil {
		w.strikeCancel()
		w.strikeCancel = nil
	}
	for _, st := range w.sides {
		if st.stream != nil {
			st.stream.Stop()
			st.stream = nil
		}
	}
}
