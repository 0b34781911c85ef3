// Package scorer wraps the single outbound call to the external ESI scoring
// service. Its contract is deliberately fail-open: intake must succeed even
// when scoring infrastructure is down, so every failure mode collapses into a
// usable low-acuity fallback result plus a degraded flag. Failure causes are
// distinguished for logs and metrics only.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

const (
	// DefaultTimeout is the hard upper bound on the scoring call. There is no
	// retry: a second attempt would double patient wait time during intake.
	DefaultTimeout = 60 * time.Second

	// FallbackSeverity is the lowest-acuity score substituted when the scorer
	// is unreachable or returns garbage.
	FallbackSeverity = 1

	// FallbackSummary marks a fallback result in the stored triage map.
	FallbackSummary = "triage unavailable"

	maxResponseBytes = 1 << 20 // 1MB
)

// Call outcomes, for observability only.
const (
	outcomeOK        = "ok"
	outcomeTimeout   = "timeout"
	outcomeRefused   = "refused"
	outcomeStatus    = "status"
	outcomeMalformed = "malformed"
)

// Client calls the external ESI scoring service over HTTP.
type Client struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   log.Logger
	metrics  *Metrics
}

// New creates a scorer client. logger and metrics may be nil.
func New(endpoint string, timeout time.Duration, logger log.Logger, metrics *Metrics) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		metrics:  metrics,
	}
}

type request struct {
	Patient    *encounter.Patient          `json:"patient"`
	Vitals     *encounter.Vitals           `json:"vitals"`
	Transcript []encounter.TranscriptEntry `json:"transcript"`
}

// Classify issues the single outbound scoring call and returns the scorer's
// result verbatim. On timeout, connection failure, bad status, or a malformed
// body it returns Fallback() with degraded=true instead of an error; the
// caller-visible contract is identical in all failure modes.
func (c *Client) Classify(ctx context.Context, patient *encounter.Patient, vitals *encounter.Vitals, transcript []encounter.TranscriptEntry) (map[string]any, bool) {
	start := time.Now()
	triage, outcome, err := c.classify(ctx, patient, vitals, transcript)
	c.metrics.observeCall(outcome, time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn(ctx, "scorer call failed, using fallback",
			"outcome", outcome,
			"endpoint", c.endpoint,
			"error", err,
		)
		return Fallback(), true
	}
	return triage, false
}

func (c *Client) classify(ctx context.Context, patient *encounter.Patient, vitals *encounter.Vitals, transcript []encounter.TranscriptEntry) (map[string]any, string, error) {
	body, err := json.Marshal(request{Patient: patient, Vitals: vitals, Transcript: transcript})
	if err != nil {
		return nil, outcomeMalformed, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, outcomeRefused, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		if isTimeout(err) {
			return nil, outcomeTimeout, fmt.Errorf("scorer timed out after %s: %w", c.timeout, err)
		}
		return nil, outcomeRefused, fmt.Errorf("scorer unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, outcomeTimeout, fmt.Errorf("read response: %w", err)
		}
		return nil, outcomeRefused, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, outcomeStatus, fmt.Errorf("scorer returned %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	var triage map[string]any
	if err := json.Unmarshal(respBody, &triage); err != nil {
		return nil, outcomeMalformed, fmt.Errorf("unmarshal response: %w", err)
	}
	if triage == nil {
		return nil, outcomeMalformed, errors.New("scorer returned null result")
	}

	return triage, outcomeOK, nil
}

// Fallback returns the substitute result used when scoring is unavailable.
func Fallback() map[string]any {
	return map[string]any{
		"ESI":        FallbackSeverity,
		"ai_summary": FallbackSummary,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
