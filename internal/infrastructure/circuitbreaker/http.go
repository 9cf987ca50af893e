package circuitbreaker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/seu-repo/crm-ia/internal/observability/telemetry"
	"go.uber.org/zap"
)

// maxBodySize bounds how much of a provider response is buffered.
const maxBodySize = 32 << 20

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPClient wraps an HTTP client with circuit breaker protection and a per-call deadline
type HTTPClient struct {
	name    string
	client  *http.Client
	manager *Manager
	timeout time.Duration
	log     *zap.Logger
}

// NewHTTPClient creates a client whose calls go through the breaker called name.
// A zero timeout leaves the deadline to the caller's context.
func NewHTTPClient(name string, client *http.Client, manager *Manager, timeout time.Duration, log *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{
		name:    name,
		client:  client,
		manager: manager,
		timeout: timeout,
		log:     log,
	}
}

// Do executes the request built by newReq and reads the whole body.
// 5xx responses and transport errors count as breaker failures; the response
// is still returned for any status so callers can report it.
func (c *HTTPClient) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var out *Response
	_, err := c.manager.Get(c.name).Execute(func() (interface{}, error) {
		req, err := newReq(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		out = &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}

		// Consider 5xx errors as failures for circuit breaker
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}
		return nil, nil
	})

	switch {
	case out != nil:
		telemetry.ProviderRequestsTotal.WithLabelValues(c.name, strconv.Itoa(out.StatusCode)).Inc()
		return out, nil
	case IsCircuitOpen(err):
		telemetry.ProviderRequestsTotal.WithLabelValues(c.name, "circuit_open").Inc()
		c.log.Warn("Circuit breaker open, request blocked", zap.String("breaker", c.name))
		return nil, err
	default:
		telemetry.ProviderRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, err
	}
}

// Name returns the breaker name, which doubles as the provider label.
func (c *HTTPClient) Name() string {
	return c.name
}
