package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// HeaderAPIKey carries the Consolidate API key on every request.
const HeaderAPIKey = "X-API-KEY"

const pingQuery = `query { me { id } }`

// Request is a GraphQL document plus its variables.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout. A client passed to WithHTTPClient
// is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client posts GraphQL documents to {baseURL}/graphql.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a Client. Trailing slashes on baseURL are ignored.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/graphql",
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Endpoint returns the full GraphQL URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Do sends req and returns the decoded response. A response with a
// non-empty errors array is a *GraphQLError even when data is present.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderAPIKey, c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read graphql response: %w", err)
	}

	c.logger.Debug("graphql request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("graphql response is not valid JSON")
	}

	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		gqlErr := &GraphQLError{Raw: json.RawMessage(errs.Raw)}
		errs.ForEach(func(_, e gjson.Result) bool {
			if msg := e.Get("message").String(); msg != "" {
				gqlErr.Messages = append(gqlErr.Messages, msg)
			}
			return true
		})
		return nil, gqlErr
	}

	return &Response{raw: body}, nil
}

// Ping checks the API key by asking for the current user.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Do(ctx, Request{Query: pingQuery})
	if err != nil {
		return err
	}
	if !resp.Get("data.me.id").Exists() {
		return fmt.Errorf("unexpected ping response: %s", resp.Raw())
	}
	return nil
}
