package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// PresenceConfig tunes the firefly broadcaster.
type PresenceConfig struct {
	Debounce         time.Duration `env:"PRESENCE_DEBOUNCE" envDefault:"150ms"`
	Heartbeat        time.Duration `env:"PRESENCE_HEARTBEAT" envDefault:"30s"`
	SubscriberBuffer int           `env:"PRESENCE_SUBSCRIBER_BUFFER" envDefault:"32"`
	// WatchFile adds a file watcher on the SQLite ledger for writes made
	// by other processes.  Ignored for MySQL.
	WatchFile bool `env:"PRESENCE_WATCH_FILE" envDefault:"false"`
}

// LedgerConfig selects where check-ins are stored.
type LedgerConfig struct {
	Driver     string `env:"LEDGER_DRIVER" envDefault:"mysql"`
	SQLitePath string `env:"LEDGER_SQLITE_PATH" envDefault:"data/booth.db"`
}

// LoadPresenceConfig parses PresenceConfig from the environment.
func LoadPresenceConfig() (PresenceConfig, error) {
	var cfg PresenceConfig
	if err := env.Parse(&cfg); err != nil {
		return PresenceConfig{}, fmt.Errorf("parse presence env: %w", err)
	}
	if cfg.Debounce <= 0 || cfg.Heartbeat <= 0 {
		return PresenceConfig{}, fmt.Errorf("presence debounce and heartbeat must be positive")
	}
	if cfg.SubscriberBuffer < 1 {
		cfg.SubscriberBuffer = 1
	}
	return cfg, nil
}

// LoadLedgerConfig parses LedgerConfig from the environment.
func LoadLedgerConfig() (LedgerConfig, error) {
	var cfg LedgerConfig
	if err := env.Parse(&cfg); err != nil {
		return LedgerConfig{}, fmt.Errorf("parse ledger env: %w", err)
	}
	switch cfg.Driver {
	case "mysql", "sqlite":
	default:
		return LedgerConfig{}, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.Driver)
	}
	return cfg, nil
}
