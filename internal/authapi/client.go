// Package authapi talks to the URL shortener's authentication endpoint.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/shindakun/urlshort/internal/models"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much of any response body is read
const maxBodyBytes = 1 << 20

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "urlshort-login"

// Observer is told about every completed request. status is 0 on transport errors.
type Observer func(status int, elapsed time.Duration)

// Client posts credentials to a fixed endpoint
type Client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	logger    *zap.Logger
	observe   Observer
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger attaches a logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a request observer (metrics)
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observe = o
	}
}

// New creates a client for an absolute http(s) endpoint
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid auth endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid auth endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid auth endpoint %q: missing host", endpoint)
	}

	c := &Client{
		endpoint:  u.String(),
		http:      cleanhttp.DefaultPooledClient(),
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL credentials are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Login posts creds and returns the decoded success body. Every failure,
// whatever its cause, is returned as a *Failure.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, &Failure{Err: fmt.Errorf("encode credentials: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Failure{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(0, start)
		c.logger.Warn("auth request failed",
			zap.String("endpoint", c.endpoint),
			zap.String("email_domain", creds.EmailDomain()),
			zap.Error(err),
		)
		return nil, &Failure{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.record(resp.StatusCode, start)
	if err != nil {
		return nil, &Failure{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := DecodeFailure(resp.StatusCode, body)
		c.logger.Info("auth request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("email_domain", creds.EmailDomain()),
			zap.String("message", failure.Message),
		)
		return nil, failure
	}

	out := &models.LoginResponse{}
	if len(bytes.TrimSpace(body)) == 0 {
		// A success with no body still counts as success, just without a session
		return out, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("auth response undecodable",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return nil, &Failure{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug("auth request succeeded",
		zap.Int("status", resp.StatusCode),
		zap.Bool("has_session", out.HasSession()),
	)
	return out, nil
}

func (c *Client) record(status int, start time.Time) {
	if c.observe != nil {
		c.observe(status, time.Since(start))
	}
}
