package marketdata

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SpotSource fetches the current reference-asset spot price.
type SpotSource interface {
	Spot(ctx context.Context) (float64, error)
}

// PollerConfig holds spot poller settings.
type PollerConfig struct {
	Interval time.Duration // cadence between fetch starts (default: 500ms)
	Timeout  time.Duration // per-request timeout (default: 4s)
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 500 * time.Millisecond,
		Timeout:  4 * time.Second,
	}
}

// SpotPoller feeds the shared Context from a SpotSource on a fixed
// cadence. The sleep is compensated for request latency so drift does
// not accumulate. Fetch failures are transient: logged at debug and
// retried on the next tick.
type SpotPoller struct {
	cfg    PollerConfig
	source SpotSource
	mkt    *Context
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpotPoller creates a poller writing into mkt.
func NewSpotPoller(cfg PollerConfig, source SpotSource, mkt *Context, logger *slog.Logger) *SpotPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollerConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollerConfig().Timeout
	}
	return &SpotPoller{
		cfg:    cfg,
		source: source,
		mkt:    mkt,
		logger: logger,
	}
}

// Start begins the polling loop.
func (p *SpotPoller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("spot poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop shuts the poller down.
func (p *SpotPoller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("spot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *SpotPoller) run() {
	defer p.wg.Done()

	for {
		start := time.Now()
		p.pollOnce()

		// Re-arm for interval minus elapsed so HTTP latency does not
		// stretch the cadence.
		sleep := p.cfg.Interval - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

func (p *SpotPoller) pollOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	price, err := p.source.Spot(ctx)
	if err != nil {
		p.logger.Debug("spot fetch failed", "err", err)
		return
	}
	p.mkt.SetSpot(time.Now(), price)
}
