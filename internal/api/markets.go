package api

import (
	"context"
	"fmt"

	"github.com/rickgao/kalshi-watch/internal/marketdata"
)

// Market is the subset of Kalshi market metadata the watcher reads.
type Market struct {
	Ticker       string `json:"ticker"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	RulesPrimary string `json:"rules_primary"`
	YesSubTitle  string `json:"yes_sub_title"`
	CloseTime    string `json:"close_time"`
}

type marketResponse struct {
	Market Market `json:"market"`
}

// GetMarket fetches metadata for one market.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var resp marketResponse
	if err := c.get(ctx, "/markets/"+ticker, nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", ticker, err)
	}
	return &resp.Market, nil
}

// MarketRules implements marketdata.MetadataSource.
func (c *Client) MarketRules(ctx context.Context, ticker string) (marketdata.MarketRules, error) {
	m, err := c.GetMarket(ctx, ticker)
	if err != nil {
		return marketdata.MarketRules{}, err
	}
	return marketdata.MarketRules{
		RulesPrimary: m.RulesPrimary,
		YesSubTitle:  m.YesSubTitle,
	}, nil
}
