package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/kalshi-watch/internal/book"
)

// Validate checks that all required fields are set and values are valid.
func (c *WatcherConfig) Validate() error {
	if c.API.APIKey == "" {
		return errors.New("api.api_key is required")
	}
	if c.API.PrivateKeyPath == "" {
		return errors.New("api.private_key_path is required")
	}

	mins := c.Contract.Duration / time.Minute
	if mins < 1 || c.Contract.Duration%time.Minute != 0 {
		return fmt.Errorf("contract.duration must be a whole number of minutes, got %v", c.Contract.Duration)
	}
	if 60%mins != 0 {
		return fmt.Errorf("contract.duration must divide one hour, got %v", c.Contract.Duration)
	}
	for _, s := range c.Contract.Sides {
		if _, ok := book.ParseSide(s); !ok {
			return fmt.Errorf("contract.sides contains unknown side %q", s)
		}
	}

	if c.Signal.EntryThreshold < 1 || c.Signal.EntryThreshold > 99 {
		return fmt.Errorf("signal.entry_threshold must be between 1 and 99, got %d", c.Signal.EntryThreshold)
	}
	if c.Signal.TargetThreshold <= c.Signal.EntryThreshold {
		return fmt.Errorf("signal.target_threshold (%d) must exceed entry_threshold (%d)",
			c.Signal.TargetThreshold, c.Signal.EntryThreshold)
	}
	if c.Signal.StopThreshold >= c.Signal.EntryThreshold {
		return fmt.Errorf("signal.stop_threshold (%d) must be below entry_threshold (%d)",
			c.Signal.StopThreshold, c.Signal.EntryThreshold)
	}
	if c.Signal.MaxCycles < 0 {
		return errors.New("signal.max_cycles must be >= 0")
	}

	if c.Strike.Attempts < 1 {
		return errors.New("strike.attempts must be >= 1")
	}

	if c.Database.Enabled {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
