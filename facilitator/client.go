// Package facilitator implements the HTTP client for the remote facilitator
// a paywall delegates payment verification and settlement to.
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vitwit/x402-paywall/logger"
	"github.com/vitwit/x402-paywall/types"
)

// Relative endpoint paths, resolved against the configured base URL.
const (
	pathVerify    = "verify"
	pathSettle    = "settle"
	pathSupported = "supported"
)

const defaultTimeout = 30 * time.Second

// Error is the single error type for facilitator calls. A non-2xx reply
// preserves the HTTP status and the raw body verbatim; transport and parse
// failures carry the cause in Err.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("facilitator %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("facilitator %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to one facilitator. Construct with NewClient; the zero value
// is not usable.
type Client struct {
	base    *url.URL
	http    *http.Client
	headers map[string]string
	codec   BodyCodec
	timeout time.Duration
	logger  logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout bounds each facilitator call with a context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHeader attaches a static header to every request (e.g. authorization).
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders attaches a set of static headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithBodyCodec replaces the canonical body codec.
func WithBodyCodec(codec BodyCodec) Option {
	return func(c *Client) {
		c.codec = codec
	}
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient builds a facilitator client for the given base URL.
//
// The base URL's trailing slash is significant and preserved verbatim:
// endpoint URLs are produced by RFC 3986 relative resolution, so a base of
// "https://host/api/" yields "https://host/api/verify" while
// "https://host/api" yields "https://host/verify".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, types.NewX402Error(types.ErrConfigError, "facilitator base url %q is not valid: %v", baseURL, err)
	}

	if !base.IsAbs() {
		return nil, types.NewX402Error(types.ErrConfigError, "facilitator base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: defaultTimeout},
		headers: make(map[string]string),
		codec:   DefaultCodec{},
		logger:  logger.NoopLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Verify asks the facilitator whether the payment is valid. No retries; the
// context is honored.
func (c *Client) Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error) {
	body, err := c.codec.VerifyRequestBody(req)
	if err != nil {
		return nil, &Error{Op: pathVerify, Err: err}
	}

	data, err := c.post(ctx, pathVerify, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.codec.ParseVerifyResponse(data)
	if err != nil {
		return nil, &Error{Op: pathVerify, Err: err}
	}

	c.logger.Debug("facilitator verify", map[string]any{
		"network": req.PaymentRequirements.Network,
		"isValid": resp.IsValid,
	})

	return resp, nil
}

// Settle asks the facilitator to execute the payment. No retries; the
// context is honored.
func (c *Client) Settle(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error) {
	body, err := c.codec.SettleRequestBody(req)
	if err != nil {
		return nil, &Error{Op: pathSettle, Err: err}
	}

	data, err := c.post(ctx, pathSettle, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.codec.ParseSettleResponse(data)
	if err != nil {
		return nil, &Error{Op: pathSettle, Err: err}
	}

	c.logger.Debug("facilitator settle", map[string]any{
		"network": req.PaymentRequirements.Network,
		"success": resp.Success,
	})

	return resp, nil
}

// Supported fetches the (version, scheme, network) kinds the facilitator can
// process.
func (c *Client) Supported(ctx context.Context) (*types.SupportedResponse, error) {
	u, err := c.base.Parse(pathSupported)
	if err != nil {
		return nil, &Error{Op: pathSupported, Err: err}
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Op: pathSupported, Err: err}
	}

	c.setHeaders(req)

	data, err := c.do(req, pathSupported)
	if err != nil {
		return nil, err
	}

	var resp types.SupportedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &Error{Op: pathSupported, Err: fmt.Errorf("parse supported response: %w", err)}
	}

	return &resp, nil
}

func (c *Client) post(ctx context.Context, rel string, body []byte) ([]byte, error) {
	u, err := c.base.Parse(rel)
	if err != nil {
		return nil, &Error{Op: rel, Err: err}
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: rel, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	return c.do(req, rel)
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Client) setHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
