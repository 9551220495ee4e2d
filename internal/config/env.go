package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/oxhq/rubric/internal/model"
)

// Environment variables read by ApplyEnv and Resolve.
const (
	EnvConfig          = "RUBRIC_CONFIG"
	EnvMaxIterations   = "RUBRIC_MAX_ITERATIONS"
	EnvJobs            = "RUBRIC_JOBS"
	EnvLedgerDSN       = "RUBRIC_LEDGER_DSN"
	EnvLibSQLAuthToken = "RUBRIC_LIBSQL_AUTH_TOKEN"
)

// LoadDotEnv loads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warningf("ignoring .env: %s", err)
	}
}

// ApplyEnv overrides file settings with RUBRIC_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvMaxIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.NewConfigError([]string{EnvMaxIterations}, "must be an integer of at least 1, got %q", v)
		}
		c.AllCops.MaxIterations = n
	}
	if v := os.Getenv(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.NewConfigError([]string{EnvJobs}, "must be a non-negative integer, got %q", v)
		}
		c.AllCops.Jobs = n
	}
	if v := os.Getenv(EnvLedgerDSN); v != "" {
		c.LedgerDSN = v
	}
	if v := os.Getenv(EnvLibSQLAuthToken); v != "" {
		c.LibSQLAuthToken = v
	}
	return nil
}
