// Package elastic is a minimal read-only client for an Elastic search
// endpoint: mapping retrieval, bounded document sampling, and terms
// aggregations. Authentication is a pre-formed API key header.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds individual requests when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config carries the connection parameters for one deployment. It is
// passed in explicitly so callers can construct clients without ambient
// environment state.
type Config struct {
	// BaseURL is the root endpoint, e.g. https://example.es.cloud:443.
	BaseURL string
	// APIKey is the full Authorization header value, e.g. "ApiKey <base64>".
	APIKey string
	// Timeout applies per request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Validate checks that the config can produce a usable client.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("elastic: base URL must not be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("elastic: invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("elastic: base URL %q must use http or https", c.BaseURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("elastic: API key must not be empty")
	}
	return nil
}

// StatusError reports a non-2xx response from the search service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// Client issues read-only requests against one Elastic deployment.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the given deployment.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Ping runs a zero-size match_all search against the given pattern to
// verify the endpoint and credentials.
func (c *Client) Ping(ctx context.Context, pattern string) error {
	_, err := c.Count(ctx, pattern)
	return err
}

// Count returns the number of documents matching the pattern.
func (c *Client) Count(ctx context.Context, pattern string) (int64, error) {
	resp, err := c.Search(ctx, pattern, SearchRequest{
		Size:  0,
		Query: map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return 0, err
	}
	return resp.Hits.Total.Value, nil
}

// Search executes a _search request against the pattern.
func (c *Client) Search(ctx context.Context, pattern string, req SearchRequest) (*SearchResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling search request: %w", err)
	}

	c.logger.Debug("executing search",
		zap.String("index_pattern", pattern),
		zap.Int("size", req.Size),
	)

	body, err := c.do(ctx, http.MethodPost, pattern+"/_search", reqBody)
	if err != nil {
		return nil, err
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshalling search response: %w", err)
	}

	c.logger.Debug("search complete",
		zap.String("index_pattern", pattern),
		zap.Int64("total_hits", searchResp.Hits.Total.Value),
		zap.Int("returned_hits", len(searchResp.Hits.Hits)),
		zap.Int("took_ms", searchResp.Took),
	)
	return &searchResp, nil
}

// Sample returns up to size documents matching the pattern.
func (c *Client) Sample(ctx context.Context, pattern string, size int) (*SearchResponse, error) {
	return c.Search(ctx, pattern, SearchRequest{
		Size:  size,
		Query: map[string]any{"match_all": map[string]any{}},
	})
}

// Terms runs a terms aggregation on one field and returns its buckets.
func (c *Client) Terms(ctx context.Context, pattern, field string, size int) ([]TermsBucket, error) {
	resp, err := c.Search(ctx, pattern, SearchRequest{
		Size: 0,
		Aggs: map[string]any{
			"breakdown": map[string]any{
				"terms": map[string]any{"field": field, "size": size},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return resp.Aggregations["breakdown"].Buckets, nil
}

// Mapping fetches the field mappings for the pattern. The result is the
// decoded JSON body keyed by concrete index name; callers are expected to
// validate its structure.
func (c *Client) Mapping(ctx context.Context, pattern string) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodGet, pattern+"/_mapping", nil)
	if err != nil {
		return nil, err
	}

	var mapping map[string]any
	if err := json.Unmarshal(body, &mapping); err != nil {
		return nil, fmt.Errorf("unmarshalling mapping response: %w", err)
	}
	return mapping, nil
}

// do issues one request and returns the response body. Non-2xx responses
// become a *StatusError.
func (c *Client) do(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + path

	var r io.Reader
	if reqBody != nil {
		r = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
