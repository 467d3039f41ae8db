package shikimori

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"animesync/internal/textutil"
)

// ErrNotFound is returned by AnimeDetail when the service has no entry for the identifier.
var ErrNotFound = errors.New("shikimori: anime not found")

const (
	defaultSearchLimit = 5
	defaultTimeout     = 15 * time.Second

	OperationSearch = "search"
	OperationDetail = "detail"
)

// Searcher is the subset of the client used by the title matcher.
type Searcher interface {
	SearchAnimes(ctx context.Context, title string) ([]SearchResult, error)
}

// DetailGetter is the subset of the client used by the detail fetcher.
type DetailGetter interface {
	AnimeDetail(ctx context.Context, id string) (*Anime, error)
}

// Observer receives the outcome of every remote call. Cached searches are
// not reported.
type Observer func(operation string, latency time.Duration, err error)

// Client talks to the Shikimori GraphQL endpoint.
type Client struct {
	baseURL     string
	userAgent   string
	searchLimit int
	httpClient  *http.Client
	cache       *expirable.LRU[string, []SearchResult]
	observer    Observer
}

var (
	_ Searcher     = (*Client)(nil)
	_ DetailGetter = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSearchLimit caps the number of search results requested.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// WithSearchCache enables an expiring LRU of search responses keyed by
// normalized title. A non-positive size disables caching.
func WithSearchCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []SearchResult](size, nil, ttl)
	}
}

// WithObserver registers a callback invoked after each remote call.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// New creates a Shikimori client.
func New(baseURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("shikimori base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("shikimori user agent required")
	}
	client := &Client{
		baseURL:     baseURL,
		userAgent:   userAgent,
		searchLimit: defaultSearchLimit,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchAnimes returns candidates for title in the order the service ranks them.
// An empty slice with a nil error means the service found nothing.
func (c *Client) SearchAnimes(ctx context.Context, title string) ([]SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("search title must not be empty")
	}

	key := textutil.NormalizeTitle(title) + "|" + strconv.Itoa(c.searchLimit)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return append([]SearchResult(nil), cached...), nil
		}
	}

	var payload searchResponse
	err := c.do(ctx, OperationSearch, graphQLRequest{
		Query:     searchQuery,
		Variables: map[string]any{"search": title, "limit": c.searchLimit},
	}, &payload, func() []graphQLError { return payload.Errors })
	if err != nil {
		return nil, err
	}

	results := payload.Data.Animes
	if results == nil {
		results = []SearchResult{}
	}
	if c.cache != nil {
		c.cache.Add(key, append([]SearchResult(nil), results...))
	}
	return results, nil
}

// AnimeDetail fetches the detail payload for one identifier.
func (c *Client) AnimeDetail(ctx context.Context, id string) (*Anime, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("anime id must not be empty")
	}

	var payload detailResponse
	err := c.do(ctx, OperationDetail, graphQLRequest{
		Query:     detailQuery,
		Variables: map[string]any{"ids": id},
	}, &payload, func() []graphQLError { return payload.Errors })
	if err != nil {
		return nil, err
	}
	if len(payload.Data.Animes) == 0 {
		return nil, fmt.Errorf("anime %s: %w", id, ErrNotFound)
	}
	anime := payload.Data.Animes[0]
	return &anime, nil
}

func (c *Client) do(ctx context.Context, operation string, body graphQLRequest, out any, errs func() []graphQLError) (err error) {
	requestStart := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer(operation, time.Since(requestStart), err)
		}
	}()

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute %s request (latency=%v): %w", operation, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("shikimori %s returned %d (latency=%v): %s", operation, resp.StatusCode, latency, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode shikimori %s response: %w", operation, err)
	}
	if list := errs(); len(list) > 0 {
		messages := make([]string, 0, len(list))
		for _, e := range list {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("shikimori %s graphql error: %s", operation, strings.Join(messages, "; "))
	}
	return nil
}
