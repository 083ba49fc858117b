// Package httpclient provides the HTTP client shared by every pageserver request.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	// DefaultTimeout bounds a single request including reading the body
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the largest body the client accepts (100 MB).
	// Layer maps of big timelines run into tens of megabytes.
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent identifies the scraper to the pageserver
	UserAgent = "layermap-scraper/1.0"

	// errorBodyLimit caps how much of a failed response ends up in the error message
	errorBodyLimit = 512

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 64
	defaultIdleConnTimeout     = 90 * time.Second
)

// Client performs GET requests against JSON APIs.
// Implementations are safe for concurrent use.
type Client interface {
	// Get returns the body of a successful response
	Get(ctx context.Context, url string) ([]byte, error)

	// GetResponse returns the status, headers and body of a successful response
	GetResponse(ctx context.Context, url string) (*Response, error)
}

// DefaultClient is the net/http backed Client.
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a client with the given timeout; zero selects DefaultTimeout.
// Every scrape task shares one client, so the transport keeps enough idle
// connections per host for all of them.
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = defaultMaxIdleConns
	transport.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	transport.IdleConnTimeout = defaultIdleConnTimeout

	return &DefaultClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Get returns the body of a successful response
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.GetResponse(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetResponse performs the request and reads the whole body.
func (c *DefaultClient) GetResponse(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, NewHTTPError(resp.StatusCode, url, strings.TrimSpace(string(msg)))
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %.2f MB",
			resp.ContentLength, float64(MaxResponseSize)/(1024*1024))
	}

	// read one byte past the limit to tell "exactly at the limit" from "over it"
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds maximum allowed size of %.2f MB",
			float64(MaxResponseSize)/(1024*1024))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// CloseIdleConnections releases pooled connections.
func (c *DefaultClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
