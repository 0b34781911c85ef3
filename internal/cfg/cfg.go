package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds helpdesk-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	ScorerEndpoint        string
	ScorerTimeoutSeconds  int
	DatabaseURL           string
	JWTSecret             string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ScorerEndpoint, "scorer-endpoint", "http://localhost:5000/triage", "HTTP endpoint of the external ESI scoring service")
	fs.IntVar(&c.ScorerTimeoutSeconds, "scorer-timeout-seconds", 60, "timeout for the scoring call in seconds (1..300)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.JWTSecret, "jwt-secret", "", "HS256 secret for verifying nurse identity tokens")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for high-acuity notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Scorer endpoint is required, intake cannot classify without it
	if c.ScorerEndpoint == "" {
		errs = append(errs, errors.New("SCORER_ENDPOINT is required"))
	}

	if c.ScorerTimeoutSeconds <= 0 || c.ScorerTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SCORER_TIMEOUT_SECONDS %d (must be 1..300)", c.ScorerTimeoutSeconds))
	}

	// JWT secret is required for nurse identity verification
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
