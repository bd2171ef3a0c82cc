// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var errBaseURLRequired = errors.New("both BASELINE_URL and CANDIDATE_URL are required")

// AppConfig holds the run configuration loaded from environment variables.
type AppConfig struct {
	BaselineName        string
	BaselineURL         string
	CandidateName       string
	CandidateURL        string
	Environment         string
	SuitePath           string
	Iterations          int
	Parallelism         int
	Headless            bool
	RegressionThreshold float64
	ClickHouseDSN       string
}

// Load reads configuration from environment variables and .env file.
func Load() (*AppConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &AppConfig{
		BaselineName:  getEnv("BASELINE_NAME", "baseline"),
		BaselineURL:   getEnv("BASELINE_URL", ""),
		CandidateName: getEnv("CANDIDATE_NAME", "candidate"),
		CandidateURL:  getEnv("CANDIDATE_URL", ""),
		Environment:   getEnv("ENVIRONMENT", "pre"),
		SuitePath:     getEnv("SUITE_PATH", "scenarios.json"),
		ClickHouseDSN: getEnv("CLICKHOUSE_DSN", ""),
	}

	iterations, err := strconv.Atoi(getEnv("ITERATIONS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid ITERATIONS: %w", err)
	}
	cfg.Iterations = iterations

	parallelism, err := strconv.Atoi(getEnv("PARALLELISM", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid PARALLELISM: %w", err)
	}
	cfg.Parallelism = parallelism

	headless, err := strconv.ParseBool(getEnv("HEADLESS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEADLESS: %w", err)
	}
	cfg.Headless = headless

	threshold, err := strconv.ParseFloat(getEnv("REGRESSION_THRESHOLD", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REGRESSION_THRESHOLD: %w", err)
	}
	cfg.RegressionThreshold = threshold

	return cfg, nil
}

// Validate checks the configuration is complete enough to run comparisons.
func (c *AppConfig) Validate() error {
	if c.BaselineURL == "" || c.CandidateURL == "" {
		return errBaseURLRequired
	}
	return nil
}

func (c *AppConfig) String() string {
	dsnDisplay := "(not set)"
	if c.ClickHouseDSN != "" {
		dsnDisplay = "********"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Baseline:             %s (%s)
Candidate:            %s (%s)
Environment:          %s
Suite Path:           %s
Iterations:           %d
Parallelism:          %d
Headless:             %t
Regression Threshold: %.1f%%
ClickHouse DSN:       %s
`,
		c.BaselineName, c.BaselineURL,
		c.CandidateName, c.CandidateURL,
		c.Environment,
		c.SuitePath,
		c.Iterations,
		c.Parallelism,
		c.Headless,
		c.RegressionThreshold,
		dsnDisplay,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
