// Package backend is the HTTP transport to the InduoHouse REST API shared by
// the listing and session clients.
package backend

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
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	DefaultTimeout = 10 * time.Second
)

// maxBody caps how much of a response is buffered.
const maxBody = 8 << 20

// Observer receives one call per attempt.
type Observer func(op, outcome string, elapsed time.Duration)

const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	observe Observer
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithClient returns a copy of c that sends through hc. The BFF uses it to
// give every visitor a client with its own cookie jar.
func (c *Client) WithClient(hc *http.Client) *Client {
	cp := *c
	cp.client = hc
	return &cp
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Origin returns the scheme and host of the base URL, which is what
// backend-relative upload paths are resolved against.
func (c *Client) Origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

type Request struct {
	// Op names the call for metrics and logs, e.g. "search".
	Op          string
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	// RetryTransport allows one more attempt after a transport failure.
	// Only idempotent reads set it.
	RetryTransport bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Do sends req and buffers the response. Every attempt is bounded by the
// client timeout. An HTTP error status is returned as a Response, not an
// error; only transport failures produce an error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempts := 1
	if req.RetryTransport {
		attempts = 2
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		// The caller gave up; retrying would only fail again.
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &TransportError{Op: req.Op, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.record(req.Op, OutcomeTransportError, start)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		c.record(req.Op, OutcomeTransportError, start)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	outcome := OutcomeOK
	if resp.StatusCode >= 400 {
		outcome = OutcomeHTTPError
	}
	c.record(req.Op, outcome, start)

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) record(op, outcome string, start time.Time) {
	if c.observe != nil {
		c.observe(op, outcome, time.Since(start))
	}
}

// JSONBody marshals v for a Request body.
func JSONBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// MessageFrom extracts the server's human-readable error from a JSON body,
// preferring "message" over "error". It returns "" when neither is present.
func MessageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	return strings.TrimSpace(payload.Error)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
