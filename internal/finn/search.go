package finn

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nordvik/finndeals/internal/cache"
	"github.com/nordvik/finndeals/internal/model"
	"github.com/nordvik/finndeals/internal/progress"
	"github.com/nordvik/finndeals/internal/ratelimit"
)

// SearchParams describe one marketplace search. Subcategory, Location,
// Condition and Sort are FINN query fragments taken verbatim from saved
// searches (for example "sub_category=1.93.3904"), matching how the
// site encodes its filter links.
type SearchParams struct {
	Keyword     string `json:"keyword"`
	Subcategory string `json:"subcategory,omitempty"`
	Location    string `json:"location,omitempty"`
	Condition   string `json:"condition,omitempty"`
	PriceMin    int    `json:"price_min,omitempty"`
	PriceMax    int    `json:"price_max,omitempty"`
	Sort        string `json:"sort,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// queryString assembles the search query in FINN's parameter order.
func (p SearchParams) queryString() string {
	var parts []string

	if keyword := strings.TrimSpace(p.Keyword); keyword != "" {
		parts = append(parts, "q="+url.QueryEscape(keyword))
	}
	if p.Subcategory != "" {
		parts = append(parts, p.Subcategory)
	}
	if p.Location != "" {
		parts = append(parts, p.Location)
	}
	if p.Condition != "" {
		parts = append(parts, p.Condition)
	}
	if p.PriceMin > 0 {
		parts = append(parts, fmt.Sprintf("price_from=%d", p.PriceMin))
	}
	if p.PriceMax > 0 {
		parts = append(parts, fmt.Sprintf("price_to=%d", p.PriceMax))
	}
	if p.Sort != "" {
		parts = append(parts, p.Sort)
	}

	return strings.Join(parts, "&")
}

// searchURL builds the full URL for one result page.
func (c *Client) searchURL(p SearchParams, page int) string {
	u := c.config.BaseURL + searchPath
	query := p.queryString()
	if query != "" {
		u += "?" + query
	}
	if page > 1 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += fmt.Sprintf("%spage=%d", sep, page)
	}
	return u
}

// Search pages through results until MaxResults listings are collected
// or a page comes back empty. Listings are raw; run them through
// normalize before analysis. Cancelling the context returns what was
// collected so far together with the context's error.
func (c *Client) Search(ctx context.Context, params SearchParams, reporter progress.Reporter) ([]model.RawListing, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	var items []model.RawListing
	for page := 1; len(items) < maxResults; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		reporter.Report(len(items), maxResults, fmt.Sprintf("(Page %d)", page))

		c.limiter.Wait()
		pageURL := c.searchURL(params, page)
		body, err := c.fetchPage(ctx, pageURL, cache.SearchKey(params.queryString(), page))
		if err != nil {
			if len(items) > 0 {
				// Keep what earlier pages produced.
				break
			}
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		pageItems, err := parseSearchPage(body, c.config.BaseURL)
		if err != nil {
			return items, fmt.Errorf("parse page %d: %w", page, err)
		}
		if len(pageItems) == 0 {
			break
		}
		items = append(items, pageItems...)

		if len(items) >= maxResults {
			break
		}
		if err := c.pause(ctx, c.config.PageDelayMin, c.config.PageDelayMax); err != nil {
			return trim(items, maxResults), err
		}
	}

	items = trim(items, maxResults)
	reporter.Report(len(items), maxResults, "")
	return items, nil
}

// pause sleeps a jittered interval, cut short by ctx.
func (c *Client) pause(ctx context.Context, lo, hi time.Duration) error {
	d := ratelimit.Jitter(lo, hi)
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func trim(items []model.RawListing, max int) []model.RawListing {
	if len(items) > max {
		return items[:max]
	}
	return items
}
