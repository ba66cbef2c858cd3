package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// DefaultSpotURL is the Coinbase spot price endpoint for BTC-USD.
const DefaultSpotURL = "https://api.coinbase.com/v2/prices/BTC-USD/spot"

// SpotClient fetches the reference-asset spot price. It implements
// marketdata.SpotSource.
type SpotClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSpotClient creates a spot price client for the given endpoint.
func NewSpotClient(url string, logger *slog.Logger) *SpotClient {
	if url == "" {
		url = DefaultSpotURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpotClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 4 * time.Second,
		},
		logger: logger,
	}
}

// WithSpotHTTPClient swaps the underlying HTTP client (tests).
func (s *SpotClient) WithSpotHTTPClient(hc *http.Client) *SpotClient {
	s.httpClient = hc
	return s
}

type spotResponse struct {
	Data struct {
		Amount string `json:"amount"`
	} `json:"data"`
}

// Spot fetches the current spot price.
func (s *SpotClient) Spot(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kalshi-watch")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("spot endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var sr spotResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}

	price, err := strconv.ParseFloat(sr.Data.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", sr.Data.Amount, err)
	}
	return price, nil
}
