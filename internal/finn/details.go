package finn

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nordvik/finndeals/internal/cache"
	"github.com/nordvik/finndeals/internal/model"
	"github.com/nordvik/finndeals/internal/progress"
)

// FetchDetails visits each listing's ad page and fills in the fields
// the search card doesn't carry: condition, description and seller
// kind. Pages are fetched by a bounded worker pool sharing one rate
// limiter. A page that fails to fetch or parse leaves its listing as it
// came in; cancelling the context returns the batch with whatever was
// enriched so far.
func (c *Client) FetchDetails(ctx context.Context, raws []model.RawListing, reporter progress.Reporter) ([]model.RawListing, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	if reporter == nil {
		reporter = progress.Discard
	}

	enriched := make([]model.RawListing, len(raws))
	copy(enriched, raws)

	limiter := rate.NewLimiter(rate.Every(c.config.DetailDelayMin), c.config.Workers)

	jobs := make(chan int, len(enriched))
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	workers := c.config.Workers
	if workers > len(enriched) {
		workers = len(enriched)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case i, ok := <-jobs:
					if !ok {
						return
					}
					if err := limiter.Wait(ctx); err != nil {
						return
					}
					c.enrich(ctx, &enriched[i])

					mu.Lock()
					completed++
					reporter.Report(completed, len(enriched), "")
					mu.Unlock()

					if err := c.pause(ctx, c.config.DetailDelayMin, c.config.DetailDelayMax); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for i := range enriched {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	return enriched, ctx.Err()
}

// enrich merges one ad page's details into the listing in place.
func (c *Client) enrich(ctx context.Context, item *model.RawListing) {
	if item.URL == "" {
		return
	}

	body, err := c.fetchPage(ctx, item.URL, cache.AdKey(item.ID))
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("finn: details for %s: %v", item.ID, err)
		}
		return
	}

	details, err := parseAdPage(body)
	if err != nil {
		log.Printf("finn: parse details for %s: %v", item.ID, err)
		return
	}

	if details.Condition != "" {
		item.Condition = details.Condition
	}
	if details.Description != "" {
		item.Description = details.Description
	}
	if details.SellerText != "" {
		item.SellerText = details.SellerText
	}
	item.ScrapedAt = time.Now()
}
