package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/model"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, sampleResult(), 0)
	out := buf.String()

	for _, want := range []string{"iPhone 13 128GB", "91%", "4 200 kr", "6 000 kr", "111", "222"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableLimit(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, sampleResult(), 1)
	out := buf.String()

	if !strings.Contains(out, "iPhone 13 128GB") {
		t.Error("top listing missing from limited table")
	}
	if strings.Contains(out, "gis bort") {
		t.Error("limit did not trim the table")
	}
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, &analysis.Result{Items: []model.AnalyzedListing{}}, 10)

	if !strings.Contains(buf.String(), "No listings found.") {
		t.Errorf("empty table output = %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, sampleResult().Stats)
	out := buf.String()

	for _, want := range []string{
		"Average price", "4 200 kr",
		"Best deal score", "91%",
		"Potential savings", "1 800 kr",
		"1 excellent / 0 great / 0 good / 0 fair / 1 poor",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, analysis.Summary{})

	if !strings.Contains(buf.String(), "No listings analyzed.") {
		t.Errorf("empty summary output = %q", buf.String())
	}
}

func TestRenderComparisons(t *testing.T) {
	var buf bytes.Buffer
	RenderComparisons(&buf, sampleResult().Comparisons)
	out := buf.String()

	if !strings.Contains(out, "Apple Iphone 128gb (2 listings)") {
		t.Errorf("comparison heading missing:\n%s", out)
	}
	if !strings.Contains(out, "4 200 kr") {
		t.Errorf("comparison prices missing:\n%s", out)
	}
}

func TestDealSummary(t *testing.T) {
	items := sampleResult().Items

	strong := DealSummary(items[0])
	for _, want := range []string{
		"🔥 EXCELLENT DEAL!",
		"Deal Score: 91/100",
		"💰 1 800 kr below average!",
		"✨ Condition: pent brukt",
		"👤 Seller: private",
		"📅 Listed: i dag",
	} {
		if !strings.Contains(strong, want) {
			t.Errorf("summary missing %q:\n%s", want, strong)
		}
	}

	// An unpriced listing with empty details gets only the verdict and score.
	weak := DealSummary(items[1])
	if !strings.Contains(weak, "⚠️ Above Average") {
		t.Errorf("low score verdict missing:\n%s", weak)
	}
	if lines := strings.Split(weak, "\n"); len(lines) != 2 {
		t.Errorf("unpriced summary has %d lines, want 2:\n%s", len(lines), weak)
	}
}

func TestDealSummaryAboveAverage(t *testing.T) {
	item := sampleResult().Items[0]
	item.DealScore = 42
	item.Price = 8000
	item.Reference.Avg = 6000

	got := DealSummary(item)
	if !strings.Contains(got, "💸 2 000 kr above average") {
		t.Errorf("above-average line missing:\n%s", got)
	}
}
