package finn

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nordvik/finndeals/internal/model"
)

var finnkodeRe = regexp.MustCompile(`finnkode=(\d+)`)

// Ad card selectors, most specific first. FINN has shipped several
// markup generations; the fallbacks cover the older ones.
var adContainerSelectors = []string{
	"article[class*='sf-search-ad'], article[class*='ads__unit']",
	"a[class*='sf-search-ad-link'], a[class*='ads__unit__link']",
	"[data-testid*='ad-'], [data-testid*='listing-']",
}

// parseSearchPage extracts the ad cards from one search results page.
// Cards missing a title or any identity (URL or FINN code) are skipped.
func parseSearchPage(html, base string) ([]model.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var containers *goquery.Selection
	for _, selector := range adContainerSelectors {
		containers = doc.Find(selector)
		if containers.Length() > 0 {
			break
		}
	}

	var items []model.RawListing
	containers.Each(func(_ int, s *goquery.Selection) {
		if item, ok := parseSearchItem(s, baseURL); ok {
			items = append(items, item)
		}
	})
	return items, nil
}

func parseSearchItem(s *goquery.Selection, base *url.URL) (model.RawListing, bool) {
	item := model.RawListing{ScrapedAt: time.Now()}

	link := s.Find("a[href]").First()
	if link.Length() == 0 && goquery.NodeName(s) == "a" {
		link = s
	}
	if href, ok := link.Attr("href"); ok && href != "" {
		item.URL = resolveURL(base, href)
		item.ID = extractFinnkode(href)
	}

	item.Title = firstText(s,
		"h2[class*='title'], h2[class*='heading'], h3[class*='title'], h3[class*='heading']",
		"[class*='ad-title'], [class*='item-title'], [class*='heading']",
		"a[class*='link']",
	)
	if item.Title == "" && goquery.NodeName(s) == "a" {
		// Anchor-style cards carry the title as the link text itself.
		item.Title = cleanText(s.Text())
	}
	item.PriceText = firstText(s, "[class*='price'], [class*='amount']")
	item.Location = firstText(s, "[class*='location'], [class*='place'], [class*='geo']")
	item.Posted = firstText(s, "[class*='time'], [class*='date'], [class*='published']")

	if img := s.Find("img").First(); img.Length() > 0 {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if src, ok := img.Attr(attr); ok && src != "" {
				item.ImageURL = src
				break
			}
		}
	}

	if item.Title == "" || (item.URL == "" && item.ID == "") {
		return model.RawListing{}, false
	}
	return item, true
}

// extractFinnkode pulls the numeric ad code out of an ad link, falling
// back to the last path segment for links without one.
func extractFinnkode(href string) string {
	if m := finnkodeRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	trimmed := strings.TrimRight(href, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	// Query strings without a finnkode carry no identity.
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// adDetails is what a detail page adds on top of the search card.
type adDetails struct {
	Condition   string
	Description string
	SellerText  string
}

// parseAdPage extracts the extra fields from an ad's detail page.
func parseAdPage(html string) (adDetails, error) {
	var details adDetails

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return details, fmt.Errorf("parse html: %w", err)
	}

	details.Description = clipRunes(firstText(doc.Selection,
		"[class*='description'], [class*='body'], [class*='content']"), 500)

	// Condition lives in the ad's definition list ("Tilstand"), with
	// labeled attribute rows as the fallback on older markup.
	doc.Find("dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), "tilstand") {
			details.Condition = cleanText(s.Next().Text())
			return false
		}
		return true
	})
	if details.Condition == "" {
		doc.Find("[class*='attribute'], [class*='property'], [class*='detail']").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			label := firstText(row, "[class*='label'], [class*='key'], [class*='name']")
			if !strings.Contains(strings.ToLower(label), "tilstand") {
				return true
			}
			if value := firstText(row, "[class*='value'], [class*='data']"); value != "" {
				details.Condition = value
				return false
			}
			return true
		})
	}

	// Seller kind is only stated in prose on the page. Private wins
	// when both words appear, since FINN's own chrome mentions bedrift.
	pageText := strings.ToLower(doc.Text())
	switch {
	case strings.Contains(pageText, "privat"):
		details.SellerText = "privat"
	case strings.Contains(pageText, "bedrift"), strings.Contains(pageText, "forhandler"):
		details.SellerText = "bedrift"
	}

	return details, nil
}

// firstText returns the trimmed text of the first selector that
// matches, trying them in order.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if match := s.Find(selector).First(); match.Length() > 0 {
			if text := cleanText(match.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// cleanText collapses runs of whitespace left behind by nested markup.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
