// Package httpapi provides the REST companion to the realtime transport:
// a small JSON client with bearer authentication, retry on transient
// failures, and credential-safe error reporting.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/realtime/errors"
	"github.com/c360/realtime/pkg/redact"
	"github.com/c360/realtime/pkg/retry"
	"github.com/c360/realtime/token"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com". Required.
	BaseURL string

	// TokenSource supplies the bearer token per request. Optional; when nil
	// requests go out unauthenticated.
	TokenSource token.Source

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// Retry controls retry behavior for transient failures. Zero value
	// selects retry.DefaultConfig.
	Retry retry.Config

	// HTTPClient overrides the underlying client. Tests inject
	// httptest-backed clients here.
	HTTPClient *http.Client

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a JSON-over-HTTP API client.
type Client struct {
	baseURL string
	tokens  token.Source
	client  *http.Client
	retry   retry.Config
	log     *slog.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "New", "check base url")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Client", "New", "check base url scheme")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:  cfg.TokenSource,
		client:  httpClient,
		retry:   retryCfg,
		log:     logger.With("component", "httpapi"),
	}, nil
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON-encoded body and decodes the
// response into out. A nil out discards the response body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.WrapInvalid(err, "Client", "do", "encode request body")
		}
	}

	return retry.Do(ctx, c.retry, func() error {
		return c.once(ctx, method, path, payload, out)
	})
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return retry.NonRetryable(errors.WrapInvalid(err, "Client", "do", "build request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return retry.NonRetryable(errors.WrapFatal(err, "Client", "do", "fetch token"))
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.WrapTransient(err, "Client", "do", "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.NonRetryable(errors.WrapInvalid(err, "Client", "do", "decode response"))
	}
	return nil
}

// statusError turns a non-2xx response into a classified error. Response
// bodies can echo credentials back, so the text is redacted before it enters
// an error chain.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := redact.String(strings.TrimSpace(string(raw)))
	msg := fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errors.WrapTransient(errors.New(msg), "Client", "do", "handle response")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.NonRetryable(errors.WrapFatal(errors.New(msg), "Client", "do", "handle response"))
	default:
		return retry.NonRetryable(errors.WrapInvalid(errors.New(msg), "Client", "do", "handle response"))
	}
}
