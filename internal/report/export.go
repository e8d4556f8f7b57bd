// Package report renders analysis results for people: console tables,
// CSV/JSON exports and a printable HTML report.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/model"
)

const exportSource = "finndeals"

// csvColumns is the spreadsheet header, price columns in whole NOK.
var csvColumns = []string{
	"Title",
	"Price (NOK)",
	"Average Price (NOK)",
	"Deal Score (%)",
	"Recommendation",
	"Location",
	"Condition",
	"Posted",
	"Seller Type",
	"URL",
	"FINN ID",
	"Price vs Average",
	"Price Factor",
	"Condition Factor",
}

// Exporter writes analysis results to files under a single output
// directory. A zero filename picks a timestamped default.
type Exporter struct {
	outputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{outputDir: outputDir}
}

// WriteCSV exports the ranked items as a spreadsheet-friendly CSV: UTF-8
// BOM so Excel detects the encoding, and formula escaping on every cell.
// It returns the path written.
func (e *Exporter) WriteCSV(result *analysis.Result, filename string) (string, error) {
	path, err := e.resolvePath(filename, "finn_deals", ".csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\ufeff"); err != nil {
		return "", fmt.Errorf("writing BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	for _, item := range result.Items {
		if err := w.Write(EscapeRow(csvRow(item))); err != nil {
			return "", fmt.Errorf("writing row for %s: %w", item.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing export: %w", err)
	}

	return path, nil
}

func csvRow(item model.AnalyzedListing) []string {
	price := ""
	if item.HasPrice() {
		price = strconv.Itoa(item.Price)
	}
	avg := ""
	if item.Reference.Avg > 0 {
		avg = strconv.FormatFloat(item.Reference.Avg, 'f', 0, 64)
	}

	return []string{
		item.Title,
		price,
		avg,
		strconv.Itoa(item.DealScore),
		string(item.Recommendation),
		item.Location,
		item.Condition,
		item.Posted,
		string(item.SellerType),
		item.URL,
		item.ID,
		item.Factors.Details["price_vs_avg"],
		strconv.FormatFloat(item.Factors.PriceFactor, 'f', 0, 64),
		strconv.FormatFloat(item.Factors.ConditionFactor, 'f', 0, 64),
	}
}

type exportInfo struct {
	GeneratedAt time.Time `json:"generated_at"`
	TotalItems  int       `json:"total_items"`
	Source      string    `json:"source"`
}

type exportEnvelope struct {
	ExportInfo exportInfo              `json:"export_info"`
	Statistics analysis.Summary        `json:"statistics"`
	Items      []model.AnalyzedListing `json:"items"`
}

// WriteJSON exports the full analysis, stats included, as indented JSON.
func (e *Exporter) WriteJSON(result *analysis.Result, filename string) (string, error) {
	path, err := e.resolvePath(filename, "finn_deals", ".json")
	if err != nil {
		return "", err
	}

	envelope := exportEnvelope{
		ExportInfo: exportInfo{
			GeneratedAt: time.Now(),
			TotalItems:  len(result.Items),
			Source:      exportSource,
		},
		Statistics: result.Stats,
		Items:      result.Items,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}

	return path, nil
}

// WriteHTML exports a self-contained printable report: summary cards on
// top, ranked rows colored by deal tier. The searchInfo line describes
// what was searched and lands under the heading; it may be empty.
func (e *Exporter) WriteHTML(result *analysis.Result, searchInfo, filename string) (string, error) {
	path, err := e.resolvePath(filename, "finn_report", ".html")
	if err != nil {
		return "", err
	}

	data := htmlReport{
		Title:       "FINN Deal Report",
		SearchInfo:  searchInfo,
		GeneratedAt: time.Now().Format("January 02, 2006 at 15:04"),
		Stats:       result.Stats,
		AvgPrice:    formatNOK(int(math.Round(result.Stats.AvgPrice))),
		Rows:        htmlRows(result.Items),
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	return path, nil
}

// resolvePath builds the export path, creating the output directory and
// substituting a timestamped name when none was given.
func (e *Exporter) resolvePath(filename, defaultPrefix, ext string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if filename == "" {
		filename = fmt.Sprintf("%s_%s", defaultPrefix, time.Now().Format("20060102_150405"))
	}
	if !strings.HasSuffix(filename, ext) {
		filename += ext
	}
	return filepath.Join(e.outputDir, filename), nil
}

type htmlReport struct {
	Title       string
	SearchInfo  string
	GeneratedAt string
	Stats       analysis.Summary
	AvgPrice    string
	Rows        []htmlRow
}

type htmlRow struct {
	Rank      int
	Title     string
	Location  string
	Price     string
	Savings   string
	Score     int
	Tier      string
	Badge     string
	Condition string
	URL       string
}

func htmlRows(items []model.AnalyzedListing) []htmlRow {
	rows := make([]htmlRow, 0, len(items))
	for i, item := range items {
		tier, badge := scoreTier(item.DealScore)

		savings := ""
		if item.HasPrice() && item.Reference.Avg > float64(item.Price) {
			saved := int(math.Round(item.Reference.Avg - float64(item.Price)))
			savings = fmt.Sprintf("💰 Save %s", formatNOK(saved))
		}

		rows = append(rows, htmlRow{
			Rank:      i + 1,
			Title:     clip(item.Title, 60),
			Location:  item.Location,
			Price:     formatNOK(item.Price),
			Savings:   savings,
			Score:     item.DealScore,
			Tier:      tier,
			Badge:     badge,
			Condition: item.Condition,
			URL:       item.URL,
		})
	}
	return rows
}

func scoreTier(score int) (tier, badge string) {
	switch {
	case score >= 90:
		return "excellent", "🔥 EXCELLENT"
	case score >= 80:
		return "great", "⭐ GREAT"
	case score >= 70:
		return "good", "👍 GOOD"
	default:
		return "normal", ""
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1e293b; background: #f8fafc; padding: 20px; }
.container { max-width: 1100px; margin: 0 auto; background: white; border-radius: 12px; box-shadow: 0 4px 6px -1px rgba(0,0,0,0.1); overflow: hidden; }
.header { background: linear-gradient(135deg, #4f46e5 0%, #7c3aed 100%); color: white; padding: 30px; text-align: center; }
.header h1 { font-size: 2rem; margin-bottom: 6px; }
.search-info { background: rgba(255,255,255,0.12); border-radius: 6px; display: inline-block; padding: 6px 16px; margin-top: 10px; }
.stats { display: flex; flex-wrap: wrap; gap: 14px; padding: 22px 30px; border-bottom: 1px solid #e2e8f0; }
.stat { flex: 1 1 140px; background: #f1f5f9; border-radius: 8px; padding: 12px 16px; text-align: center; }
.stat .value { font-size: 1.4rem; font-weight: 700; }
.stat .label { font-size: 0.8rem; color: #64748b; text-transform: uppercase; }
table { width: 100%; border-collapse: collapse; }
th { background: #f8fafc; color: #475569; font-size: 0.75rem; text-transform: uppercase; text-align: left; padding: 10px 14px; }
td { padding: 12px 14px; border-top: 1px solid #e2e8f0; vertical-align: top; }
tr.excellent { background: #f0fdf4; }
tr.great { background: #eff6ff; }
tr.good { background: #fefce8; }
.badge { font-size: 0.7rem; font-weight: 700; margin-left: 8px; }
.location { color: #64748b; font-size: 0.85rem; }
.savings { display: block; color: #16a34a; font-size: 0.85rem; }
.score-bar { background: #e2e8f0; border-radius: 4px; height: 8px; width: 90px; overflow: hidden; }
.score-fill { height: 100%; background: #94a3b8; }
.score-fill.excellent { background: #22c55e; }
.score-fill.great { background: #3b82f6; }
.score-fill.good { background: #eab308; }
.footer { padding: 18px 30px; color: #64748b; font-size: 0.85rem; text-align: center; }
@media print { body { background: white; padding: 0; } .container { box-shadow: none; } }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Title}}</h1>
    {{if .SearchInfo}}<div class="search-info">{{.SearchInfo}}</div>{{end}}
  </div>
  <div class="stats">
    <div class="stat"><div class="value">{{.Stats.TotalItems}}</div><div class="label">Listings</div></div>
    <div class="stat"><div class="value">{{.AvgPrice}}</div><div class="label">Average price</div></div>
    <div class="stat"><div class="value">{{.Stats.BestDealScore}}%</div><div class="label">Best score</div></div>
    <div class="stat"><div class="value">{{.Stats.DealsCount}}</div><div class="label">Deals</div></div>
  </div>
  <table>
    <thead>
      <tr><th>#</th><th>Listing</th><th>Price</th><th>Score</th><th>Condition</th><th></th></tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr class="{{.Tier}}">
        <td>{{.Rank}}</td>
        <td><strong>{{.Title}}</strong>{{if .Badge}}<span class="badge">{{.Badge}}</span>{{end}}<br><span class="location">📍 {{.Location}}</span></td>
        <td><strong>{{.Price}}</strong>{{if .Savings}}<span class="savings">{{.Savings}}</span>{{end}}</td>
        <td><div class="score-bar"><div class="score-fill {{.Tier}}" style="width: {{.Score}}%"></div></div>{{.Score}}%</td>
        <td>{{.Condition}}</td>
        <td>{{if .URL}}<a href="{{.URL}}" target="_blank">View</a>{{end}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <div class="footer">Report generated on {{.GeneratedAt}}</div>
</div>
</body>
</html>
`))
