package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roleguard/roleguard/pkg/config"
	"github.com/roleguard/roleguard/pkg/infra/httpx"
)

const (
	breakerCooldown    = 30 * time.Second
	breakerMaxFailures = 3
)

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Client talks to the search provider over HTTP. All failures collapse to
// ErrUnavailable; a tripped breaker short-circuits without a network call.
type Client struct {
	httpClient   httpx.Client
	breaker      httpx.CircuitBreaker
	endpoint     string
	apiKey       string
	defaultCount int
	logger       *logrus.Logger
}

func NewClient(cfg config.LookupConfig, httpClient httpx.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = httpx.NewFastHTTPClient(httpx.FastHTTPClientConfig{
			Timeout: cfg.Timeout,
		})
	}
	count := cfg.ResultCount
	if count <= 0 {
		count = 3
	}
	return &Client{
		httpClient:   httpClient,
		breaker:      httpx.NewCircuitBreaker("lookup", breakerCooldown, breakerMaxFailures),
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		defaultCount: count,
		logger:       logger,
	}
}

func (c *Client) Search(ctx context.Context, query string, count int) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	var digest string
	err := c.breaker.Execute(func() error {
		result, err := c.search(ctx, query, count)
		if err != nil {
			return err
		}
		digest = result
		return nil
	})
	if err != nil {
		if httpx.IsOpen(err) {
			c.logger.WithField("query", query).Debug("lookup breaker open")
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return digest, nil
}

func (c *Client) search(ctx context.Context, query string, count int) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid lookup endpoint: %w", err)
	}
	if count <= 0 {
		count = c.defaultCount
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read lookup response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse lookup response: %w", err)
	}

	var b strings.Builder
	for _, item := range parsed.Items {
		if item.Title != "" {
			b.WriteString(item.Title)
			b.WriteByte(' ')
		}
		if item.Snippet != "" {
			b.WriteString(item.Snippet)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
