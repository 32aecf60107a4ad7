// Package remote implements the food and request backends against a
// PlateShare HTTP API, so the catalog, ledger and coordinator can run in a
// client process.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/plateshare/plateshare/internal/metrics"
	"github.com/plateshare/plateshare/internal/model"
)

// DefaultTimeout bounds each HTTP call.
const DefaultTimeout = 5 * time.Second

// Client talks to a PlateShare API on behalf of one identity.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	name    string
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates every call with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetRetryCount(0). // the breaker decides, resty never retries
			SetHeader("Accept", "application/json"),
		name: "plateshare-api",
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(c.name, c.log)
	return c
}

// errorBody is the API's error payload.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// send performs one call through the breaker. Only transport failures
// count against the breaker. API errors come back as the second error.
func (c *Client) send(ctx context.Context, method, path string, body any) (*resty.Response, error) {
	var apiErr error

	res, err := c.breaker.Execute(func() (interface{}, error) {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", model.ErrTransport, method, path, err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError && !isPartialFailure(resp) {
			return nil, fmt.Errorf("%w: %s %s returned status %d", model.ErrTransport, method, path, resp.StatusCode())
		}
		if resp.IsError() {
			apiErr = decodeError(resp)
			return nil, nil
		}
		return resp, nil
	})
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(c.name).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit %s: %v", model.ErrTransport, c.name, err)
		}
		return nil, err
	}
	if apiErr != nil {
		return nil, apiErr
	}
	return res.(*resty.Response), nil
}

// call sends a request and decodes a JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: malformed response from %s %s: %v", model.ErrTransport, method, path, err)
	}
	return nil
}

func isPartialFailure(resp *resty.Response) bool {
	var body errorBody
	return json.Unmarshal(resp.Body(), &body) == nil && body.Code == "partial_failure"
}

// decodeError maps an API error response onto the error taxonomy.
func decodeError(resp *resty.Response) error {
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode())
	}

	switch body.Code {
	case "validation":
		return model.Invalid(body.Field, body.Error)
	case "not_found":
		return fmt.Errorf("%s: %w", body.Error, model.ErrNotFound)
	case "forbidden", "unauthenticated":
		return fmt.Errorf("%s: %w", body.Error, model.ErrForbidden)
	case "conflict":
		return fmt.Errorf("%s: %w", body.Error, model.ErrConflict)
	case "partial_failure":
		return fmt.Errorf("%s: %w", body.Error, model.ErrPartialFailure)
	}

	switch resp.StatusCode() {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.Invalid(body.Field, body.Error)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", body.Error, model.ErrForbidden)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", body.Error, model.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", body.Error, model.ErrConflict)
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", model.ErrTransport, resp.StatusCode(), body.Error)
	}
}
