// Package generator is the HTTP client for the weekly summary service
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chris/worklog/internal/logging"
	"github.com/chris/worklog/internal/summarize"
)

const (
	summaryPath     = "/v1/weekly-summary"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// ErrEndpointRequired is returned by New without an endpoint
var ErrEndpointRequired = errors.New("generator endpoint is required")

// Options configures a Client
type Options struct {
	Endpoint      string
	Timeout       time.Duration
	RatePerMinute int // 0 means unlimited
	Logger        *zap.Logger
	HTTPClient    *http.Client
}

// Client implements summarize.Generator over HTTP
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a Client for the service at opts.Endpoint
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	base, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid generator endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid generator endpoint %q: scheme must be http or https", opts.Endpoint)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RatePerMinute))
	}

	return &Client{
		url:        strings.TrimRight(base.String(), "/") + summaryPath,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.OrNop(opts.Logger),
	}, nil
}

// Generate posts req to the service. A structured failure comes back as a
// Response with OK false; transport problems and unparseable bodies are
// errors.
func (c *Client) Generate(ctx context.Context, accessToken string, req summarize.Request) (summarize.Response, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return summarize.Response{}, fmt.Errorf("rate limiter error: %w", err)
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return summarize.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return summarize.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return summarize.Response{}, fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return summarize.Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("summary service responded",
		zap.String("week_start", req.WeekStart),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return failureResponse(resp.StatusCode, body), nil
	}

	var out summarize.Response
	if err := json.Unmarshal(body, &out); err != nil {
		return summarize.Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if !out.OK && out.Reason == "" {
		out.Reason = summarize.ReasonOther
	}
	return out, nil
}

// failureResponse prefers the service's own reason and falls back to the
// status code
func failureResponse(status int, body []byte) summarize.Response {
	var out summarize.Response
	if err := json.Unmarshal(body, &out); err != nil || out.Reason == "" {
		out.Reason = ReasonForStatus(status)
	}
	out.OK = false
	out.Summary = ""
	if out.Message == "" {
		out.Message = fmt.Sprintf("summary service returned %d %s", status, http.StatusText(status))
	}
	return out
}

// ReasonForStatus maps an HTTP status to a failure reason
func ReasonForStatus(status int) summarize.Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return summarize.ReasonAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return summarize.ReasonQuota
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return summarize.ReasonValidation
	case status >= 500:
		return summarize.ReasonProvider
	default:
		return summarize.ReasonOther
	}
}
