package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrike(t *testing.T) {
	tests := []struct {
		name  string
		rules MarketRules
		want  float64
		ok    bool
	}{
		{
			name:  "rules primary",
			rules: MarketRules{RulesPrimary: "If the price of BTC is at least $50,125.50 at expiry, the market resolves Yes."},
			want:  50125.50,
			ok:    true,
		},
		{
			name:  "rules primary no dollar sign",
			rules: MarketRules{RulesPrimary: "resolves Yes if BTCUSD is at least 112000"},
			want:  112000,
			ok:    true,
		},
		{
			name:  "subtitle fallback",
			rules: MarketRules{YesSubTitle: "Price to beat: $49,999.99"},
			want:  49999.99,
			ok:    true,
		},
		{
			name: "rules preferred over subtitle",
			rules: MarketRules{
				RulesPrimary: "is at least $50,000",
				YesSubTitle:  "Price to beat: $1",
			},
			want: 50000,
			ok:   true,
		},
		{
			name:  "neither field populated",
			rules: MarketRules{RulesPrimary: "pending", YesSubTitle: ""},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStrike(tt.rules)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

type fakeMetadata struct {
	failures int
	rules    MarketRules
	calls    int
}

func (f *fakeMetadata) MarketRules(ctx context.Context, ticker string) (MarketRules, error) {
	f.calls++
	if f.calls <= f.failures {
		return MarketRules{}, errors.New("metadata not ready")
	}
	return f.rules, nil
}

func TestStrikeFetcherRetriesThenResolves(t *testing.T) {
	mkt := NewContext()
	source := &fakeMetadata{
		failures: 2,
		rules:    MarketRules{RulesPrimary: "is at least $48,500"},
	}
	f := NewStrikeFetcher(StrikeConfig{Attempts: 6, Spacing: time.Millisecond}, source, mkt, nil)

	f.Fetch(context.Background(), "KXBTC15M-26AUG311215-15")

	v, state := mkt.Strike()
	require.Equal(t, StrikeKnown, state)
	assert.Equal(t, 48500.0, v)
	assert.Equal(t, 3, source.calls)
}

func TestStrikeFetcherExhaustsBudget(t *testing.T) {
	mkt := NewContext()
	source := &fakeMetadata{failures: 100}
	f := NewStrikeFetcher(StrikeConfig{Attempts: 3, Spacing: time.Millisecond}, source, mkt, nil)

	f.Fetch(context.Background(), "KXBTC15M-26AUG311215-15")

	_, state := mkt.Strike()
	assert.Equal(t, StrikeUnavailable, state)
	assert.Equal(t, 3, source.calls)
}

func TestStrikeFetcherCancelled(t *testing.T) {
	mkt := NewContext()
	source := &fakeMetadata{failures: 100}
	f := NewStrikeFetcher(StrikeConfig{Attempts: 6, Spacing: time.Hour}, source, mkt, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Fetch(ctx, "KXBTC15M-26AUG311215-15")

	// Cancellation abandons silently: no unavailable marker.
	_, state := mkt.Strike()
	assert.Equal(t, StrikePending, state)
}
