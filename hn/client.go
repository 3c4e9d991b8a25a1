package hn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// Config controls how the client talks to the item API.
type Config struct {
	BaseURL string
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
	// MaxConcurrent caps in-flight requests across all callers.
	MaxConcurrent int
	// RequestsPerSecond paces requests; 0 disables pacing.
	RequestsPerSecond float64
	UserAgent         string
}

type Client struct {
	http    *http.Client
	baseURL string
	ua      string
	sem     chan struct{}
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ua:      cfg.UserAgent,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) acquire(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() { <-c.sem }

// TopStories returns the ranked top story IDs (up to 500).
func (c *Client) TopStories(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetItem fetches a single HN item by ID. Unknown IDs come back from the
// API as a JSON null and are reported as a ParseError.
func (c *Client) GetItem(ctx context.Context, id int) (*Item, error) {
	url := fmt.Sprintf("%s/item/%d.json", c.baseURL, id)
	var item *Item
	if err := c.getJSON(ctx, url, &item); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &ParseError{URL: url, Err: fmt.Errorf("item %d not found", id)}
	}
	return item, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	if err := c.acquire(ctx); err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &ParseError{URL: url, Err: err}
	}
	return nil
}
