// Package pageserver is a read-only client for the pageserver management API.
package pageserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stacklok/layermap-scraper/internal/httpclient"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// ErrUnexpectedResponse is wrapped by every error about a response body of the wrong shape.
var ErrUnexpectedResponse = errors.New("unexpected pageserver response")

// Client is the subset of the management API the scraper needs.
// Implementations are safe for concurrent use.
type Client interface {
	// PageserverID returns the node id of the pageserver
	PageserverID(ctx context.Context) (string, error)

	// ListTenants returns the ids of all tenants attached to the pageserver
	ListTenants(ctx context.Context) ([]string, error)

	// ListTimelines returns the ids of all timelines of a tenant
	ListTimelines(ctx context.Context, tenantID string) ([]string, error)

	// GetLayerMap returns the layer map of one timeline, resetting access statistics as requested
	GetLayerMap(ctx context.Context, tenantID, timelineID string, reset ResetMode) (*LayerMap, error)
}

type httpClient struct {
	endpoint string
	http     httpclient.Client
}

// NewClient returns a Client for the management API at endpoint, e.g. http://pageserver:9898.
func NewClient(endpoint string, hc httpclient.Client) (Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid pageserver endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid pageserver endpoint %q: scheme must be http or https", endpoint)
	}
	if hc == nil {
		return nil, fmt.Errorf("http client is required")
	}
	return &httpClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     hc,
	}, nil
}

func (c *httpClient) PageserverID(ctx context.Context) (string, error) {
	data, err := c.http.Get(ctx, c.endpoint+"/v1/status")
	if err != nil {
		return "", fmt.Errorf("failed to get pageserver status: %w", err)
	}

	var status statusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return "", fmt.Errorf("%w: status is not an object: %v", ErrUnexpectedResponse, err)
	}
	if len(status.ID) == 0 {
		return "", fmt.Errorf("%w: status has no id", ErrUnexpectedResponse)
	}

	// node ids are numbers, but keep whatever scalar the server sends
	var id any
	if err := json.Unmarshal(status.ID, &id); err != nil {
		return "", fmt.Errorf("%w: invalid id: %v", ErrUnexpectedResponse, err)
	}
	switch v := id.(type) {
	case string:
		return v, nil
	case float64:
		return string(status.ID), nil
	default:
		return "", fmt.Errorf("%w: id must be a number or string, got %s", ErrUnexpectedResponse, status.ID)
	}
}

func (c *httpClient) ListTenants(ctx context.Context) ([]string, error) {
	data, err := c.http.Get(ctx, c.endpoint+"/v1/tenant")
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	var tenants []tenantInfo
	if err := json.Unmarshal(data, &tenants); err != nil {
		return nil, fmt.Errorf("%w: tenant list is not an array: %v", ErrUnexpectedResponse, err)
	}
	// json.Unmarshal leaves the slice nil for a null body
	if tenants == nil {
		return nil, fmt.Errorf("%w: tenant list is not an array", ErrUnexpectedResponse)
	}

	ids := make([]string, 0, len(tenants))
	for i, t := range tenants {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: tenant entry %d has no id", ErrUnexpectedResponse, i)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (c *httpClient) ListTimelines(ctx context.Context, tenantID string) ([]string, error) {
	data, err := c.http.Get(ctx, c.tenantURL(tenantID)+"/timeline")
	if err != nil {
		return nil, fmt.Errorf("failed to list timelines: %w", err)
	}

	var timelines []timelineInfo
	if err := json.Unmarshal(data, &timelines); err != nil {
		return nil, fmt.Errorf("%w: timeline list is not an array: %v", ErrUnexpectedResponse, err)
	}
	if timelines == nil {
		return nil, fmt.Errorf("%w: timeline list of tenant %s is not an array", ErrUnexpectedResponse, tenantID)
	}

	ids := make([]string, 0, len(timelines))
	for i, tl := range timelines {
		if tl.TimelineID == "" {
			return nil, fmt.Errorf("%w: timeline entry %d of tenant %s has no timeline_id", ErrUnexpectedResponse, i, tenantID)
		}
		ids = append(ids, tl.TimelineID)
	}
	return ids, nil
}

func (c *httpClient) GetLayerMap(ctx context.Context, tenantID, timelineID string, reset ResetMode) (*LayerMap, error) {
	if !reset.IsValid() {
		return nil, fmt.Errorf("invalid reset mode %q", reset)
	}

	u := fmt.Sprintf("%s/timeline/%s/layer?%s",
		c.tenantURL(tenantID), url.PathEscape(timelineID), url.Values{"reset": {string(reset)}}.Encode())

	resp, err := c.http.GetResponse(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to get layer map: %w", err)
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%w: layer map is not valid JSON", ErrUnexpectedResponse)
	}

	lm := &LayerMap{Payload: json.RawMessage(resp.Body)}
	if launch := resp.Header.Get(LaunchTimestampHeader); launch != "" {
		lm.LaunchID = &launch
	}
	return lm, nil
}

func (c *httpClient) tenantURL(tenantID string) string {
	return c.endpoint + "/v1/tenant/" + url.PathEscape(tenantID)
}
