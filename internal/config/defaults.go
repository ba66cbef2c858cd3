package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL          = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultWSURL            = "wss://api.elections.kalshi.com"
	DefaultAPITimeout       = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultSpotURL          = "https://api.coinbase.com/v2/prices/BTC-USD/spot"
	DefaultSpotInterval     = 500 * time.Millisecond
	DefaultSpotTimeout      = 4 * time.Second
	DefaultContractPrefix   = "KXBTC15M"
	DefaultContractDuration = 15 * time.Minute
	DefaultEntryThreshold   = 40
	DefaultTargetThreshold  = 45
	DefaultStopThreshold    = 10
	DefaultMinDwell         = 2 * time.Second
	DefaultLockout          = 30 * time.Second
	DefaultStrikeAttempts   = 6
	DefaultStrikeSpacing    = 7 * time.Second
	DefaultSessionsDir      = "sessions"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *WatcherConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Spot poller defaults
	if c.Spot.URL == "" {
		c.Spot.URL = DefaultSpotURL
	}
	if c.Spot.Interval == 0 {
		c.Spot.Interval = DefaultSpotInterval
	}
	if c.Spot.Timeout == 0 {
		c.Spot.Timeout = DefaultSpotTimeout
	}

	// Contract defaults
	if c.Contract.Prefix == "" {
		c.Contract.Prefix = DefaultContractPrefix
	}
	if c.Contract.Duration == 0 {
		c.Contract.Duration = DefaultContractDuration
	}
	if len(c.Contract.Sides) == 0 {
		c.Contract.Sides = []string{"yes"}
	}

	// Signal defaults
	if c.Signal.EntryThreshold == 0 {
		c.Signal.EntryThreshold = DefaultEntryThreshold
	}
	if c.Signal.TargetThreshold == 0 {
		c.Signal.TargetThreshold = DefaultTargetThreshold
	}
	if c.Signal.StopThreshold == 0 {
		c.Signal.StopThreshold = DefaultStopThreshold
	}
	if c.Signal.MinDwell == 0 {
		c.Signal.MinDwell = DefaultMinDwell
	}
	if c.Signal.PreExpiryLockout == 0 {
		c.Signal.PreExpiryLockout = DefaultLockout
	}

	// Strike lookup defaults
	if c.Strike.Attempts == 0 {
		c.Strike.Attempts = DefaultStrikeAttempts
	}
	if c.Strike.Spacing == 0 {
		c.Strike.Spacing = DefaultStrikeSpacing
	}

	// Sessions defaults
	if c.Sessions.Dir == "" {
		c.Sessions.Dir = DefaultSessionsDir
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
