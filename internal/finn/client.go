package finn

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/nordvik/finndeals/internal/cache"
	"github.com/nordvik/finndeals/internal/ratelimit"
)

const defaultBaseURL = "https://www.finn.no"

// searchPath is the marketplace search endpoint relative to the base.
const searchPath = "/bap/forsale/search.html"

// userAgents is the rotation pool for outgoing requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// Config controls fetch behavior. The zero value is unusable; start
// from DefaultConfig.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	UseRandomUA    bool

	// Pacing between search result pages and between ad detail
	// requests. Tests set these to zero.
	PageDelayMin   time.Duration
	PageDelayMax   time.Duration
	DetailDelayMin time.Duration
	DetailDelayMax time.Duration

	// Workers fetching ad detail pages concurrently.
	Workers int

	// Lifetime for cached pages. Only used when a cache is attached.
	CacheTTL time.Duration
}

// DefaultConfig returns the pacing FINN tolerates without throttling.
func DefaultConfig() Config {
	return Config{
		BaseURL:        defaultBaseURL,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     2,
		UseRandomUA:    true,
		PageDelayMin:   500 * time.Millisecond,
		PageDelayMax:   1500 * time.Millisecond,
		DetailDelayMin: 200 * time.Millisecond,
		DetailDelayMax: 500 * time.Millisecond,
		Workers:        5,
		CacheTTL:       15 * time.Minute,
	}
}

// Client fetches FINN.no pages. Pacing is enforced by the callers in
// this package (Search and FetchDetails), not per request, so cached
// pages cost nothing.
type Client struct {
	config  Config
	client  *http.Client
	cache   *cache.Cache
	limiter *ratelimit.Limiter
}

// NewClient creates a client. pageCache may be nil to fetch uncached.
func NewClient(config Config, pageCache *cache.Cache) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		cache:   pageCache,
		limiter: ratelimit.NewSearchLimiter(),
	}
}

// fetchPage GETs one page and returns its decoded body, retrying with
// quadratic backoff on failure. Cached bodies are returned without a
// request.
func (c *Client) fetchPage(ctx context.Context, pageURL, cacheKey string) (string, error) {
	if c.cache != nil && cacheKey != "" {
		var body string
		if found, _ := c.cache.Get(cacheKey, &body); found {
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.get(ctx, pageURL)
		if err == nil {
			if c.cache != nil && cacheKey != "" {
				_ = c.cache.Put(cacheKey, body, c.config.CacheTTL)
			}
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("fetch failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	reader, err := c.getReader(resp)
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// setBrowserHeaders makes requests look like a Norwegian desktop
// browser session.
func (c *Client) setBrowserHeaders(req *http.Request) {
	userAgent := userAgents[0]
	if c.config.UseRandomUA {
		userAgent = userAgents[rand.Intn(len(userAgents))]
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nb-NO,nb;q=0.9,no;q=0.8,nn;q=0.7,en-US;q=0.6,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// getReader unwraps the response body according to Content-Encoding.
func (c *Client) getReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
