// Package config handles configuration for the load-test driver, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/cryptox"
)

// NoTimeout makes every phase wait without bound.
const NoTimeout time.Duration = -1

// DefaultStewardSeed is the seed of the well-known genesis steward.
const DefaultStewardSeed = "000000000000000000000000Steward1"

// LedgerMode selects where the driver sends its requests.
type LedgerMode string

const (
	// LedgerEmbedded runs an in-process ledger on DSN.
	LedgerEmbedded LedgerMode = "embedded"
	// LedgerGRPC talks to a ledger node at Address.
	LedgerGRPC LedgerMode = "grpc"
)

// Config holds runtime settings of a load-test run.
//
// Fields:
//   - Users / Iterations: number of simulated users and key rotations per user.
//   - Timeout: bound on each phase wait, NoTimeout for none.
//   - StewardSeed: seed of the steward that registers the users.
//   - Ledger / Address / DSN / CallTimeout: ledger connection.
//   - LogsRoot: directory that receives test-logs-<timestamp>.
//   - BaseSeed: derive users deterministically instead of randomly.
//   - Rate: ledger operations per second per user, 0 for unlimited.
//   - S3*: optional upload of the log directory once the run ends.
type Config struct {
	Users       int
	Iterations  int
	Timeout     time.Duration
	StewardSeed string
	Ledger      LedgerMode
	Address     string
	DSN         string
	CallTimeout time.Duration
	LogsRoot    string
	LogLevel    string
	BaseSeed    string
	Rate        float64

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates Config with defaults for a local embedded run.
// Users and Iterations have no default and must be given.
func (c *Config) LoadDefaults() {
	c.Timeout = NoTimeout
	c.StewardSeed = DefaultStewardSeed
	c.Ledger = LedgerEmbedded
	c.Address = "127.0.0.1:50051"
	c.DSN = ":memory:"
	c.CallTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.S3Prefix = "ledgerload"
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags, and
// validates the result.
func LoadConfig() (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("%w: %v", ErrInvalidConfig, r)
		}
	}()

	cfg = &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Users <= 0 {
		problems = append(problems, fmt.Sprintf("users must be positive, got %d", c.Users))
	}
	if c.Iterations <= 0 {
		problems = append(problems, fmt.Sprintf("iterations must be positive, got %d", c.Iterations))
	}
	if c.Timeout < 0 && c.Timeout != NoTimeout {
		problems = append(problems, fmt.Sprintf("timeout must not be negative, got %s", c.Timeout))
	}
	if len(c.StewardSeed) != cryptox.SeedSize {
		problems = append(problems, fmt.Sprintf("steward seed must be %d characters", cryptox.SeedSize))
	}
	switch c.Ledger {
	case LedgerEmbedded:
		if c.DSN == "" {
			problems = append(problems, "embedded ledger needs a dsn")
		}
	case LedgerGRPC:
		if c.Address == "" {
			problems = append(problems, "grpc ledger needs an address")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown ledger mode %q", c.Ledger))
	}
	if c.Rate < 0 {
		problems = append(problems, "rate must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
