package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ledgerload/internal/flagx"
)

// JsonConfig is the DTO read from the -c/-config file.
type JsonConfig struct {
	GRPCAddr     string   `json:"grpc_addr"`
	MetricsAddr  *string  `json:"metrics_addr"`
	DSN          string   `json:"dsn"`
	StewardSeeds []string `json:"steward_seeds"`
	LogLevel     string   `json:"log_level"`
}

// parseJson overlays the fields present in the -c/-config file onto config.
// An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.GRPCAddr != "" {
		config.GRPCAddr = c.GRPCAddr
	}
	// an explicit "" disables the metrics endpoint
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.DSN != "" {
		config.DSN = c.DSN
	}
	if c.StewardSeeds != nil {
		config.StewardSeeds = c.StewardSeeds
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
