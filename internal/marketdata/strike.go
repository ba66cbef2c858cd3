package marketdata

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MarketRules is the metadata needed to extract a contract's strike.
type MarketRules struct {
	RulesPrimary string
	YesSubTitle  string
}

// MetadataSource fetches market metadata for a ticker.
type MetadataSource interface {
	MarketRules(ctx context.Context, ticker string) (MarketRules, error)
}

// StrikeConfig holds strike fetcher settings.
type StrikeConfig struct {
	Attempts int           // lookup attempts before giving up (default: 6)
	Spacing  time.Duration // wait between attempts (default: 7s)
}

// DefaultStrikeConfig returns sensible defaults.
func DefaultStrikeConfig() StrikeConfig {
	return StrikeConfig{Attempts: 6, Spacing: 7 * time.Second}
}

var (
	// rules_primary is the authoritative contract definition.
	rulesPattern = regexp.MustCompile(`(?i)is at least\s*\$?([\d,]+\.?\d*)`)
	// yes_sub_title is a display-field fallback.
	subtitlePattern = regexp.MustCompile(`(?i)Price to beat:\s*\$?([\d,]+\.?\d*)`)
)

// ParseStrike extracts the strike price from market metadata, preferring
// the rules text over the subtitle.
func ParseStrike(rules MarketRules) (float64, bool) {
	m := rulesPattern.FindStringSubmatch(rules.RulesPrimary)
	if m == nil {
		m = subtitlePattern.FindStringSubmatch(rules.YesSubTitle)
	}
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StrikeFetcher resolves the strike for each new contract. Metadata may
// lag contract creation, so lookups retry on a fixed spacing; after the
// attempt budget the strike is marked permanently unavailable for that
// contract and the engines continue without it.
type StrikeFetcher struct {
	cfg    StrikeConfig
	source MetadataSource
	mkt    *Context
	logger *slog.Logger
}

// NewStrikeFetcher creates a fetcher writing into mkt.
func NewStrikeFetcher(cfg StrikeConfig, source MetadataSource, mkt *Context, logger *slog.Logger) *StrikeFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultStrikeConfig().Attempts
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = DefaultStrikeConfig().Spacing
	}
	return &StrikeFetcher{
		cfg:    cfg,
		source: source,
		mkt:    mkt,
		logger: logger,
	}
}

// Fetch resolves the strike for ticker, blocking through the retry
// budget. Run it in its own goroutine; ctx cancellation (a roll or
// shutdown) abandons the remaining attempts silently.
func (f *StrikeFetcher) Fetch(ctx context.Context, ticker string) {
	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		rules, err := f.source.MarketRules(ctx, ticker)
		if err == nil {
			if v, ok := ParseStrike(rules); ok {
				f.mkt.SetStrike(v)
				f.logger.Info("strike resolved",
					"ticker", ticker,
					"strike", v,
					"attempt", attempt,
				)
				return
			}
			// Neither field populated yet; the market may still be
			// initializing. Retry.
		} else {
			if ctx.Err() != nil {
				return
			}
			f.logger.Debug("strike lookup failed",
				"ticker", ticker,
				"attempt", attempt,
				"err", err,
			)
		}

		if attempt == f.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.cfg.Spacing):
		}
	}

	f.mkt.MarkStrikeUnavailable()
	f.logger.Warn("strike unavailable", "ticker", ticker, "attempts", f.cfg.Attempts)
}
