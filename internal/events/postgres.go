package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds batching settings for the database sink.
type PostgresConfig struct {
	BatchSize     int           // rows per insert batch (default: 64)
	FlushInterval time.Duration // max time a row waits in the batch (default: 2s)
}

// DefaultPostgresConfig returns the standard batching settings.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		BatchSize:     64,
		FlushInterval: 2 * time.Second,
	}
}

type eventRow struct {
	e Event
}

type summaryRow struct {
	s ContractSummary
}

// batchSender is the slice of the pgx pool the sink needs.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink persists signal events and contract summaries. Sink
// callbacks only append to an in-memory batch; a background goroutine
// owns all database I/O.
type PostgresSink struct {
	cfg    PostgresConfig
	logger *slog.Logger
	db     batchSender

	batchMu   sync.Mutex
	events    []eventRow
	summaries []summaryRow

	wake        chan struct{}
	flushTicker *time.Ticker
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewPostgresSink creates a sink writing to db.
func NewPostgresSink(cfg PostgresConfig, db *pgxpool.Pool, logger *slog.Logger) *PostgresSink {
	return newPostgresSink(cfg, db, logger)
}

func newPostgresSink(cfg PostgresConfig, db batchSender, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &PostgresSink{
		cfg:    cfg,
		logger: logger,
		db:     db,
		events: make([]eventRow, 0, cfg.BatchSize),
		wake:   make(chan struct{}, 1),
	}
}

// Start launches the flush goroutine.
func (p *PostgresSink) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.flushTicker = time.NewTicker(p.cfg.FlushInterval)

	p.wg.Add(1)
	go p.flushLoop()

	p.logger.Info("postgres sink started",
		"batch_size", p.cfg.BatchSize,
		"flush_interval", p.cfg.FlushInterval,
	)
	return nil
}

// Stop drains pending rows and shuts the sink down.
func (p *PostgresSink) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.flushTicker != nil {
		p.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("postgres sink stop timed out")
	}

	// Final flush with the caller's context; p.ctx is already gone.
	p.flushWith(ctx)
	p.logger.Info("postgres sink stopped")
	return nil
}

func (p *PostgresSink) OnEvent(e Event) {
	p.batchMu.Lock()
	p.events = append(p.events, eventRow{e: e})
	full := len(p.events) >= p.cfg.BatchSize
	p.batchMu.Unlock()

	if full {
		// Nudge the flush goroutine; never flush on the caller.
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

func (p *PostgresSink) OnContractEnd(sum ContractSummary) {
	if sum.Partial {
		return
	}
	p.batchMu.Lock()
	p.summaries = append(p.summaries, summaryRow{s: sum})
	p.batchMu.Unlock()
}

func (p *PostgresSink) flushLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.flushTicker.C:
			p.flushWith(p.ctx)
		case <-p.wake:
			p.flushWith(p.ctx)
		}
	}
}

func (p *PostgresSink) flushWith(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.batchMu.Lock()
	events := p.events
	summaries := p.summaries
	p.events = make([]eventRow, 0, p.cfg.BatchSize)
	p.summaries = nil
	p.batchMu.Unlock()

	if len(events) == 0 && len(summaries) == 0 {
		return
	}

	start := time.Now()
	batch := &pgx.Batch{}
	for _, r := range events {
		e := r.e
		batch.Queue(`
			INSERT INTO signal_events (id, kind, side, contract, at, session_elapsed_ms, price, dwell_ms, cycle, pnl, depth, momentum_1m, momentum_5m, rvol_5m, rvol_15m)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Kind.String(), string(e.Side), e.Contract, e.At,
			e.SessionElapsed.Milliseconds(), nullablePrice(e), e.Dwell.Milliseconds(),
			e.Cycle, e.Metrics.PnL, e.Metrics.Depth,
			e.Metrics.Momentum1m, e.Metrics.Momentum5m,
			e.Metrics.RVol5m, e.Metrics.RVol15m)
	}
	for _, r := range summaries {
		s := r.s
		batch.Queue(`
			INSERT INTO contract_summaries (contract, side, start_at, expiry_at, ended_at, cycles, stops, open_trigger)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (contract, side) DO NOTHING
		`, s.Contract, string(s.Side), s.Start, s.Expiry, s.At,
			s.Cycles, s.Stops, s.OpenTrigger)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			p.logger.Error("batch insert failed", "error", err,
				"events", len(events), "summaries", len(summaries))
			return
		}
	}

	p.logger.Debug("flushed events",
		"events", len(events),
		"summaries", len(summaries),
		"duration", time.Since(start),
	)
}

func nullablePrice(e Event) *int {
	if !e.HasPrice {
		return nil
	}
	price := e.Price
	return &price
}
