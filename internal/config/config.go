package config

import "time"

// WatcherConfig is the root configuration for a watcher instance.
type WatcherConfig struct {
	API      APIConfig      `yaml:"api"`
	Spot     SpotConfig     `yaml:"spot"`
	Contract ContractConfig `yaml:"contract"`
	Signal   SignalConfig   `yaml:"signal"`
	Strike   StrikeConfig   `yaml:"strike"`
	Sessions SessionsConfig `yaml:"sessions"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds Kalshi API settings.
type APIConfig struct {
	RestURL        string        `yaml:"rest_url"`
	WSURL          string        `yaml:"ws_url"`
	APIKey         string        `yaml:"api_key"`          // API key ID (for KALSHI-ACCESS-KEY header)
	PrivateKeyPath string        `yaml:"private_key_path"` // Path to RSA private key PEM file
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// SpotConfig holds the reference-price poller settings.
type SpotConfig struct {
	URL      string        `yaml:"url"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ContractConfig selects the contract series to watch.
type ContractConfig struct {
	Prefix   string        `yaml:"prefix"`
	Duration time.Duration `yaml:"duration"`
	Sides    []string      `yaml:"sides"` // yes, no, or both
}

// SignalConfig holds the cycle-tracker thresholds. Prices in cents.
type SignalConfig struct {
	EntryThreshold   int           `yaml:"entry_threshold"`
	TargetThreshold  int           `yaml:"target_threshold"`
	StopThreshold    int           `yaml:"stop_threshold"`
	MinDwell         time.Duration `yaml:"min_dwell"`
	StopArmDelay     time.Duration `yaml:"stop_arm_delay"`
	NoEntryAfter     time.Duration `yaml:"no_entry_after"` // 0 disables
	MaxCycles        int           `yaml:"max_cycles"`     // 0 disables
	PreExpiryLockout time.Duration `yaml:"pre_expiry_lockout"`
}

// StrikeConfig holds the metadata-lookup retry policy.
type StrikeConfig struct {
	Attempts int           `yaml:"attempts"`
	Spacing  time.Duration `yaml:"spacing"`
}

// SessionsConfig controls CSV session files.
type SessionsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// DatabaseConfig holds optional event persistence.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig controls structured-log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
