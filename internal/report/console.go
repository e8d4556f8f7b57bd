package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/model"
)

// RenderTable writes the top ranked listings as a console table. A limit
// of 0 renders everything.
func RenderTable(w io.Writer, result *analysis.Result, limit int) {
	items := result.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Score", "Title", "Price", "Avg", "Condition", "Location", "FINN ID"})
	for i, item := range items {
		price := ""
		if item.HasPrice() {
			price = formatNOK(item.Price)
		}
		avg := ""
		if item.Reference.Avg > 0 {
			avg = formatNOK(int(math.Round(item.Reference.Avg)))
		}
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%d%%", item.DealScore),
			clip(item.Title, 48),
			price,
			avg,
			clip(item.Condition, 16),
			clip(item.Location, 20),
			item.ID,
		})
	}
	t.Render()
}

// RenderSummary writes the batch statistics as a two-column table.
func RenderSummary(w io.Writer, stats analysis.Summary) {
	if stats.TotalItems == 0 {
		fmt.Fprintln(w, "No listings analyzed.")
		return
	}

	d := stats.Distribution
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRow(table.Row{"Listings", stats.TotalItems})
	t.AppendRow(table.Row{"Average price", formatNOK(int(math.Round(stats.AvgPrice)))})
	t.AppendRow(table.Row{"Median price", formatNOK(int(math.Round(stats.MedianPrice)))})
	t.AppendRow(table.Row{"Price range", fmt.Sprintf("%s / %s", formatNOK(stats.MinPrice), formatNOK(stats.MaxPrice))})
	t.AppendRow(table.Row{"Average deal score", fmt.Sprintf("%.1f", stats.AvgDealScore)})
	t.AppendRow(table.Row{"Best deal score", fmt.Sprintf("%d%%", stats.BestDealScore)})
	t.AppendRow(table.Row{"Deals", stats.DealsCount})
	t.AppendRow(table.Row{"Potential savings", formatNOK(int(math.Round(stats.PotentialSavings)))})
	t.AppendRow(table.Row{"Distribution", fmt.Sprintf("%d excellent / %d great / %d good / %d fair / %d poor",
		d.Excellent, d.Great, d.Good, d.Fair, d.Poor)})
	t.Render()
}

// RenderComparisons writes each comparison group as its own small table,
// groups in name order, members already cheapest first.
func RenderComparisons(w io.Writer, comparisons map[string][]model.AnalyzedListing) {
	names := make([]string, 0, len(comparisons))
	for name := range comparisons {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		members := comparisons[name]
		fmt.Fprintf(w, "\n%s (%d listings)\n", name, len(members))

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Price", "Score", "Title", "FINN ID"})
		for _, m := range members {
			price := ""
			if m.HasPrice() {
				price = formatNOK(m.Price)
			}
			t.AppendRow(table.Row{price, fmt.Sprintf("%d%%", m.DealScore), clip(m.Title, 48), m.ID})
		}
		t.Render()
	}
}

// DealSummary builds the multi-line verdict shown for a single listing.
func DealSummary(item model.AnalyzedListing) string {
	var lines []string

	switch {
	case item.DealScore >= 90:
		lines = append(lines, "🔥 EXCELLENT DEAL!")
	case item.DealScore >= 80:
		lines = append(lines, "⭐ Great Deal")
	case item.DealScore >= 70:
		lines = append(lines, "👍 Good Deal")
	case item.DealScore >= 50:
		lines = append(lines, "📊 Fair Price")
	default:
		lines = append(lines, "⚠️ Above Average")
	}
	lines = append(lines, fmt.Sprintf("Deal Score: %d/100", item.DealScore))

	if item.Reference.Avg > 0 && item.HasPrice() {
		diff := int(math.Round(item.Reference.Avg - float64(item.Price)))
		if diff > 0 {
			lines = append(lines, fmt.Sprintf("💰 %s below average!", formatNOK(diff)))
		} else {
			lines = append(lines, fmt.Sprintf("💸 %s above average", formatNOK(-diff)))
		}
	}

	details := item.Factors.Details
	if v := details["condition"]; v != "" {
		lines = append(lines, "✨ Condition: "+v)
	}
	if v := details["seller_type"]; v != "" {
		lines = append(lines, "👤 Seller: "+v)
	}
	if v := details["posted"]; v != "" {
		lines = append(lines, "📅 Listed: "+v)
	}

	return strings.Join(lines, "\n")
}
