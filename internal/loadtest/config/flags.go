package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/flagx"
)

var (
	usersFlag       = flagx.Alias{Short: "u", Long: "users"}
	iterationsFlag  = flagx.Alias{Short: "i", Long: "iterations"}
	timeoutFlag     = flagx.Alias{Short: "t", Long: "timeout"}
	stewardSeedFlag = flagx.Alias{Short: "s", Long: "steward-seed"}
	ledgerFlag      = flagx.Alias{Short: "l", Long: "ledger"}
	addressFlag     = flagx.Alias{Short: "a", Long: "address"}
	dsnFlag         = flagx.Alias{Short: "d", Long: "dsn"}
	logsRootFlag    = flagx.Alias{Short: "o", Long: "logs-root"}
	logLevelFlag    = flagx.Alias{Long: "log-level"}
	baseSeedFlag    = flagx.Alias{Long: "base-seed"}
	rateFlag        = flagx.Alias{Short: "r", Long: "rate"}
	bucketFlag      = flagx.Alias{Short: "b", Long: "bucket"}
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-u, --users int          number of users (required)
//	-i, --iterations int     key rotations per user (required)
//	-t, --timeout int        phase timeout in seconds, negative for none
//	-s, --steward-seed str   seed of the steward registering the users
//	-l, --ledger str         embedded or grpc
//	-a, --address str        ledger node address (grpc mode)
//	-d, --dsn str            ledger database (embedded mode)
//	-o, --logs-root str      parent directory of test-logs-<timestamp>
//	--log-level str          debug, info, warn or error
//	--base-seed str          derive users deterministically
//	-r, --rate float         ledger operations per second per user
//	-b, --bucket str         S3 bucket receiving the logs
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagx.Forms(
		usersFlag, iterationsFlag, timeoutFlag, stewardSeedFlag, ledgerFlag, addressFlag,
		dsnFlag, logsRootFlag, logLevelFlag, baseSeedFlag, rateFlag, bucketFlag,
	))

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)

	intVar(fs, &config.Users, usersFlag, config.Users, "number of users")
	intVar(fs, &config.Iterations, iterationsFlag, config.Iterations, "number of iterations")

	timeout := -1
	if config.Timeout >= 0 {
		timeout = int(config.Timeout / time.Second)
	}
	intVar(fs, &timeout, timeoutFlag, timeout, "timeout in seconds")

	ledger := string(config.Ledger)
	stringVar(fs, &config.StewardSeed, stewardSeedFlag, config.StewardSeed, "steward seed")
	stringVar(fs, &ledger, ledgerFlag, ledger, "ledger mode: embedded or grpc")
	stringVar(fs, &config.Address, addressFlag, config.Address, "ledger node address")
	stringVar(fs, &config.DSN, dsnFlag, config.DSN, "embedded ledger database")
	stringVar(fs, &config.LogsRoot, logsRootFlag, config.LogsRoot, "logs root directory")
	stringVar(fs, &config.LogLevel, logLevelFlag, config.LogLevel, "log level")
	stringVar(fs, &config.BaseSeed, baseSeedFlag, config.BaseSeed, "base seed for deterministic users")
	stringVar(fs, &config.S3Bucket, bucketFlag, config.S3Bucket, "S3 bucket for logs")

	for _, name := range []string{rateFlag.Short, rateFlag.Long} {
		fs.Float64Var(&config.Rate, name, config.Rate, "operations per second per user")
	}

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.Ledger = LedgerMode(ledger)
	if timeout < 0 {
		config.Timeout = NoTimeout
	} else {
		config.Timeout = time.Duration(timeout) * time.Second
	}
}

func intVar(fs *flag.FlagSet, p *int, a flagx.Alias, value int, usage string) {
	for _, name := range []string{a.Short, a.Long} {
		if name != "" {
			fs.IntVar(p, name, value, usage)
		}
	}
}

func stringVar(fs *flag.FlagSet, p *string, a flagx.Alias, value string, usage string) {
	for _, name := range []string{a.Short, a.Long} {
		if name != "" {
			fs.StringVar(p, name, value, usage)
		}
	}
}
