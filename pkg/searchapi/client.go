// Package searchapi is a generic client for a Bing/Serp-style web search
// REST endpoint. No search-API client exists anywhere in the retrieval
// pack; this one is grounded on the teacher's pkg/ai.Client shape
// (BaseURL + *http.Client REST wrapper), generalized to pagination and key
// rotation — the key cursor itself lives in pkg/storage/cache, mirroring
// the teacher's use of Redis for cross-process state.
package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Result is one search hit.
type Result struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Response is the decoded page of results.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// KeyRotator hands out the next API key to use for a request. Implemented
// by pkg/storage/cache against a Redis-backed rotation cursor so the
// cursor survives across the CLI's discrete process invocations.
type KeyRotator interface {
	NextKey(ctx context.Context) (string, error)
}

// Client wraps *http.Client with BaseURL + key rotation, following the
// teacher's pkg/ai.Client shape.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Keys       KeyRotator
}

func NewClient(baseURL string, httpClient *http.Client, keys KeyRotator) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{BaseURL: baseURL, HTTPClient: httpClient, Keys: keys}
}

// Search issues one query, requesting `count` results starting at `offset`.
func (c *Client) Search(ctx context.Context, query string, offset, count int) (Response, error) {
	key, err := c.Keys.NextKey(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("searchapi: acquire key: %w", err)
	}

	u, err := url.Parse(c.BaseURL + "/search")
	if err != nil {
		return Response{}, fmt.Errorf("searchapi: bad base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("searchapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("searchapi: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("searchapi: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("searchapi: decode response: %w", err)
	}
	return out, nil
}
