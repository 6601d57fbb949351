// Package config handles configuration for the ledger node, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"log/slog"
)

// Config holds runtime settings of a ledger node.
//
// Fields:
//   - GRPCAddr: bind address of the ledger gRPC service.
//   - MetricsAddr: bind address of the prometheus /metrics endpoint, empty disables it.
//   - DSN: ledger database, a postgres:// URL or a SQLite path.
//   - StewardSeeds: seeds of the genesis stewards written on start.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	GRPCAddr     string
	MetricsAddr  string
	DSN          string
	StewardSeeds []string
	LogLevel     string
}

// LoadDefaults populates Config with defaults for a local single-node ledger.
func (c *Config) LoadDefaults() {
	c.GRPCAddr = ":50051"
	c.MetricsAddr = ":9464"
	c.DSN = "ledger.db"
	c.StewardSeeds = []string{"000000000000000000000000Steward1"}
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("config: %v", r)
		}
	}()

	cfg = &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
