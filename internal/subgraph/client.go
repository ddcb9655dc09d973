// Package subgraph fetches strategy trades and order details from an
// orderbook subgraph over GraphQL.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"strategy-reset-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultPageSize    = 100
	DefaultPageDelay   = 500 * time.Millisecond
	DefaultCacheTTL    = 10 * time.Minute
)

// ErrOrderNotFound is returned when the subgraph knows no order with the hash.
var ErrOrderNotFound = errors.New("order not found")

// Client implements GraphQL queries against one subgraph endpoint.
type Client struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	pageSize    int
	limiter     *rate.Limiter
	orders      *cache.Cache
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithPageSize sets the number of trades requested per page.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the minimum spacing between page requests.
// Zero disables pacing.
func WithPageDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = newPageLimiter(d)
	}
}

// WithCacheTTL sets how long order details are cached.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.orders = cache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new subgraph client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		pageSize:    DefaultPageSize,
		limiter:     newPageLimiter(DefaultPageDelay),
		orders:      cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the subgraph URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func newPageLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// graphqlRequest is the POST body of a GraphQL query.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the envelope of a GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors []graphqlErrorEntry `json:"errors,omitempty"`
}

type graphqlErrorEntry struct {
	Message string `json:"message"`
}

// GraphQLError carries the errors reported by the subgraph. It is not retried.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// query performs a GraphQL query with retries and exponential backoff.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]any, result any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying subgraph query",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		start := time.Now()
		status, err := c.do(ctx, body, result)
		c.record(operation, status, time.Since(start))
		if err == nil {
			return nil
		}

		var gqlErr *GraphQLError
		if errors.As(err, &gqlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do sends one request and decodes the data field into result.
// The returned status labels the attempt for metrics.
func (c *Client) do(ctx context.Context, body []byte, result any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "error", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "error", ctxErr
		}
		return "error", fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "error", fmt.Errorf("read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return "rate_limited", fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return "http_error", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return "error", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		msgs := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			msgs[i] = e.Message
		}
		return "graphql_error", &GraphQLError{Messages: msgs}
	}

	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return "error", errors.New("response has no data")
	}

	if result != nil {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return "error", fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return "ok", nil
}

func (c *Client) record(operation, status string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordSubgraphRequest(operation, status, d.Seconds())
}
