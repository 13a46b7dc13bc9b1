// Package api is the typed client for the backend REST API. Responses are
// JSON envelopes: {data: T} for single resources, {data: [T], meta:
// {pagination}} for lists. Mutating endpoints return the updated resource;
// bulk/async operations return a job to be polled.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

// Client talks to the backend REST API with bearer auth and a bounded
// per-request timeout.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	log    *slog.Logger
}

// NewClient builds a client for baseURL. The transport is instrumented
// with OpenTelemetry; spans are no-ops unless tracing was initialized.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base:   base,
		apiKey: apiKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}, nil
}

// envelope is the backend response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *struct {
		Pagination *models.Pagination `json:"pagination"`
	} `json:"meta,omitempty"`
}

// do issues one request and decodes the data envelope into out (which may
// be nil for delete-style calls). Returned errors for non-2xx responses
// are always *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*models.Pagination, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestDurationSeconds.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.APIRequestDurationSeconds.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       raw,
		}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Error
			if apiErr.Message == "" {
				apiErr.Message = eb.Message
			}
		}
		return nil, apiErr
	}

	if out == nil {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: decode envelope: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	if env.Meta != nil {
		return env.Meta.Pagination, nil
	}
	return nil, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (*models.Pagination, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, body, out)
	return err
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, body, out)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}
