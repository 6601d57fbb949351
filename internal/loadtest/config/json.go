package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/flagx"
	"github.com/dmitrijs2005/ledgerload/internal/timex"
)

// JsonConfig is the DTO read from the -c/-config file. Durations accept
// "30s" strings or integer nanoseconds; a negative timeout means none.
type JsonConfig struct {
	Users          int             `json:"users"`
	Iterations     int             `json:"iterations"`
	Timeout        *timex.Duration `json:"timeout"`
	StewardSeed    string          `json:"steward_seed"`
	Ledger         string          `json:"ledger"`
	Address        string          `json:"address"`
	DSN            string          `json:"dsn"`
	CallTimeout    *timex.Duration `json:"call_timeout"`
	LogsRoot       string          `json:"logs_root"`
	LogLevel       string          `json:"log_level"`
	BaseSeed       string          `json:"base_seed"`
	Rate           float64         `json:"rate"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Prefix       string          `json:"s3_prefix"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3AccessKey    string          `json:"s3_access_key"`
	S3SecretKey    string          `json:"s3_secret_key"`
}

// parseJson overlays the fields present in the -c/-config file onto config.
// Nothing is loaded when the flag is absent. An unreadable or malformed
// file panics.
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

	setInt(&config.Users, c.Users)
	setInt(&config.Iterations, c.Iterations)
	if c.Timeout != nil {
		config.Timeout = time.Duration(c.Timeout.Duration)
		if config.Timeout < 0 {
			config.Timeout = NoTimeout
		}
	}
	setString(&config.StewardSeed, c.StewardSeed)
	if c.Ledger != "" {
		config.Ledger = LedgerMode(c.Ledger)
	}
	setString(&config.Address, c.Address)
	setString(&config.DSN, c.DSN)
	if c.CallTimeout != nil {
		config.CallTimeout = time.Duration(c.CallTimeout.Duration)
	}
	setString(&config.LogsRoot, c.LogsRoot)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.BaseSeed, c.BaseSeed)
	if c.Rate != 0 {
		config.Rate = c.Rate
	}
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
