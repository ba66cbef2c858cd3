// Package api provides the HTTP clients the watcher depends on: the
// Kalshi REST API (market metadata) and the Coinbase spot price feed
// for the reference asset.
//
// Requests are signed, rate limited, and retried with exponential
// backoff plus jitter on retryable status codes.
package api
