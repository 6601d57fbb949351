package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/ledgerload/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-m string   metrics bind address, empty to disable
//	-d string   ledger database DSN or SQLite path
//	-s string   comma-separated genesis steward seeds
//	-log-level  debug, info, warn or error
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagx.Forms(
		flagx.Alias{Short: "a"},
		flagx.Alias{Short: "m"},
		flagx.Alias{Short: "d"},
		flagx.Alias{Short: "s"},
		flagx.Alias{Long: "log-level"},
	))

	fs := flag.NewFlagSet("ledgernode", flag.ContinueOnError)

	fs.StringVar(&config.GRPCAddr, "a", config.GRPCAddr, "address and port of the gRPC service")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port of the metrics endpoint")
	fs.StringVar(&config.DSN, "d", config.DSN, "ledger database")
	seeds := fs.String("s", strings.Join(config.StewardSeeds, ","), "genesis steward seeds, comma separated")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StewardSeeds = nil
	for _, s := range strings.Split(*seeds, ",") {
		if s = strings.TrimSpace(s); s != "" {
			config.StewardSeeds = append(config.StewardSeeds, s)
		}
	}
}
