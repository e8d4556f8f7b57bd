// Command finndeals searches FINN.no for marketplace listings, scores
// how good a deal each one is relative to comparable listings, and
// prints, exports or watches the results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nordvik/finndeals/internal/analysis"
	"github.com/nordvik/finndeals/internal/cache"
	"github.com/nordvik/finndeals/internal/config"
	"github.com/nordvik/finndeals/internal/finn"
	"github.com/nordvik/finndeals/internal/model"
	"github.com/nordvik/finndeals/internal/monitor"
	"github.com/nordvik/finndeals/internal/normalize"
	"github.com/nordvik/finndeals/internal/progress"
	"github.com/nordvik/finndeals/internal/report"
	"github.com/nordvik/finndeals/internal/store"
	"github.com/nordvik/finndeals/internal/trend"
)

const usage = `finndeals - find underpriced listings on FINN.no

Usage:
  finndeals search -q <keyword> [options]   search, analyze and rank listings
  finndeals export [options]                re-export a stored search result
  finndeals history <listing-id>            price history and trend for one ad
  finndeals trends [-category x] [-days n]  per-day price aggregates
  finndeals searches <list|add|delete>      manage saved searches
  finndeals saved <list|add|delete>         manage bookmarked listings
  finndeals watch [options]                 run saved searches on a schedule
  finndeals cleanup [-days n]               prune old price history

Run 'finndeals <command> -h' for command options.
`

func main() {
	log.SetFlags(0)

	// .env entries become environment variables before config reads them.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "search":
		err = cmdSearch(ctx, os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "trends":
		err = cmdTrends(os.Args[2:])
	case "searches":
		err = cmdSearches(os.Args[2:])
	case "saved":
		err = cmdSaved(os.Args[2:])
	case "watch":
		err = cmdWatch(ctx, os.Args[2:])
	case "cleanup":
		err = cmdCleanup(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("finndeals: %v", err)
	}
}

func cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory (default ~/.finndeals)")
	keyword := fs.String("q", "", "search keyword (required)")
	maxResults := fs.Int("max", 0, "maximum listings to fetch")
	priceMin := fs.Int("price-min", 0, "minimum price in kroner")
	priceMax := fs.Int("price-max", 0, "maximum price in kroner")
	threshold := fs.Int("threshold", 0, "deal score counted as a deal")
	details := fs.Bool("details", false, "also fetch each ad's detail page")
	demo := fs.Bool("demo", false, "use generated demo listings, no network")
	top := fs.Int("top", 20, "ranked listings to print, 0 for all")
	compare := fs.Bool("compare", false, "print comparison groups")
	exportFormat := fs.String("export", "", "also export: csv, json or html")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	fs.Parse(args)

	if *keyword == "" && !*demo {
		return fmt.Errorf("search requires -q or -demo")
	}

	settings := config.Load(*dataDir)
	if *maxResults <= 0 {
		*maxResults = settings.MaxResults
	}
	if *threshold <= 0 {
		*threshold = settings.DealThreshold
	}

	params := finn.SearchParams{
		Keyword:    *keyword,
		PriceMin:   *priceMin,
		PriceMax:   *priceMax,
		MaxResults: *maxResults,
	}

	raws, err := fetch(ctx, settings, params, *details, *demo, *quiet)
	if err != nil {
		return err
	}

	result := analyze(raws, *keyword, *threshold)
	fmt.Println()
	report.RenderTable(os.Stdout, result, *top)
	fmt.Println()
	report.RenderSummary(os.Stdout, result.Stats)
	if *compare {
		report.RenderComparisons(os.Stdout, result.Comparisons)
	}

	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RecordHistory(result.Items); err != nil {
		log.Printf("recording history: %v", err)
	}
	if settings.AutoSaveResults && !*demo {
		if err := st.SaveSearchResult(*keyword, params, result); err != nil {
			log.Printf("saving search result: %v", err)
		}
	}

	if *exportFormat != "" {
		path, err := export(settings.ExportDir, result, *keyword, *exportFormat)
		if err != nil {
			return err
		}
		fmt.Printf("\nExported to %s\n", path)
	}
	return nil
}

// fetch produces the raw batch, from the network or the demo generator.
func fetch(ctx context.Context, settings config.Settings, params finn.SearchParams, details, demo, quiet bool) ([]model.RawListing, error) {
	if demo {
		return finn.DemoListings(params.MaxResults, time.Now().UnixNano()), nil
	}

	pageCache, err := cache.New(filepath.Join(settings.DataDir, "page_cache.json"))
	if err != nil {
		log.Printf("page cache unavailable, fetching uncached: %v", err)
	}
	client := finn.NewClient(settings.FinnConfig(), pageCache)

	indicator := progress.WithTotal("Searching FINN.no", params.MaxResults, quiet)
	indicator.Start()
	raws, err := client.Search(ctx, params, indicator)
	if err != nil {
		indicator.FinishWithError(err)
		return nil, err
	}
	indicator.Finish()

	if details && len(raws) > 0 {
		di := progress.WithTotal("Fetching ad details", len(raws), quiet)
		di.Start()
		raws, err = client.FetchDetails(ctx, raws, di)
		if err != nil {
			di.FinishWithError(err)
			return raws, err
		}
		di.Finish()
	}
	return raws, nil
}

// analyze normalizes and scores a raw batch. The keyword becomes each
// listing's category label for history and trend queries.
func analyze(raws []model.RawListing, keyword string, threshold int) *analysis.Result {
	listings, dropped := normalize.Batch(raws)
	if dropped > 0 {
		log.Printf("dropped %d malformed listings", dropped)
	}
	for i := range listings {
		listings[i].Category = keyword
	}
	return analysis.NewAnalyzer(nil).Analyze(listings, threshold)
}

func export(dir string, result *analysis.Result, searchInfo, format string) (string, error) {
	e := report.NewExporter(dir)
	switch strings.ToLower(format) {
	case "csv":
		return e.WriteCSV(result, "")
	case "json":
		return e.WriteJSON(result, "")
	case "html":
		return e.WriteHTML(result, searchInfo, "")
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or html)", format)
	}
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	name := fs.String("name", "", "stored search name (default: most recent)")
	format := fs.String("format", "csv", "csv, json or html")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.RecentSearchResults(50)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no stored search results; run a search first")
	}

	record := records[0]
	if *name != "" {
		found := false
		for _, r := range records {
			if r.Name == *name {
				record, found = r, true
				break
			}
		}
		if !found {
			return fmt.Errorf("no stored result named %q", *name)
		}
	}

	var result analysis.Result
	if err := json.Unmarshal(record.Results, &result); err != nil {
		return fmt.Errorf("decoding stored result %q: %w", record.Name, err)
	}

	path, err := export(settings.ExportDir, &result, record.Name, *format)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %q (%s) to %s\n", record.Name, record.CreatedAt.Format("2006-01-02 15:04"), path)
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: finndeals history <listing-id>")
	}
	listingID := fs.Arg(0)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.History(listingID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No history recorded for %s\n", listingID)
		return nil
	}

	fmt.Printf("%s — %s\n", listingID, entries[0].Title)
	for _, e := range entries {
		fmt.Printf("  %s  %d kr\n", e.RecordedAt.Format("2006-01-02 15:04"), e.Price)
	}

	r := trend.FromHistory(entries)
	if r.Direction == trend.Insufficient {
		fmt.Println("\nNot enough observations for a trend yet.")
		return nil
	}
	fmt.Printf("\nTrend: %s (%.1f%%), range %.0f–%.0f kr, last %.0f kr\n",
		r.Direction, r.ChangePct, r.Min, r.Max, r.Current)
	return nil
}

func cmdTrends(args []string) error {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	category := fs.String("category", "", "category (search keyword), empty for all")
	days := fs.Int("days", 30, "window in days")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	points, err := st.PriceTrends(*category, *days)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("No recorded prices in the window.")
		return nil
	}

	fmt.Printf("%-12s %10s %8s %10s %10s\n", "Date", "Avg", "Count", "Min", "Max")
	for _, p := range points {
		fmt.Printf("%-12s %10.0f %8d %10d %10d\n", p.Date, p.AvgPrice, p.Count, p.MinPrice, p.MaxPrice)
	}
	return nil
}

func cmdSearches(args []string) error {
	fs := flag.NewFlagSet("searches", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	name := fs.String("name", "", "name for a new saved search")
	keyword := fs.String("q", "", "keyword for a new saved search")
	priceMin := fs.Int("price-min", 0, "minimum price")
	priceMax := fs.Int("price-max", 0, "maximum price")
	maxResults := fs.Int("max", 0, "maximum listings per run")
	threshold := fs.Int("threshold", 0, "per-search deal threshold")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	searches := store.OpenSearches(settings.DataDir)

	action := "list"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	switch action {
	case "list":
		all, err := searches.All()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No saved searches.")
			return nil
		}
		for _, s := range all {
			fmt.Printf("%s  %-20s q=%q", s.ID, s.Name, s.Params.Keyword)
			if s.Threshold > 0 {
				fmt.Printf(" threshold=%d", s.Threshold)
			}
			fmt.Println()
		}
		return nil

	case "add":
		if *keyword == "" {
			return fmt.Errorf("searches add requires -q")
		}
		saved, err := searches.Add(store.SavedSearch{
			Name: *name,
			Params: finn.SearchParams{
				Keyword:    *keyword,
				PriceMin:   *priceMin,
				PriceMax:   *priceMax,
				MaxResults: *maxResults,
			},
			Threshold: *threshold,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Saved %q as %s\n", saved.Name, saved.ID)
		return nil

	case "delete":
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: finndeals searches delete <id>")
		}
		if err := searches.Delete(fs.Arg(1)); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil

	default:
		return fmt.Errorf("unknown searches action %q (want list, add or delete)", action)
	}
}

func cmdSaved(args []string) error {
	fs := flag.NewFlagSet("saved", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	notes := fs.String("notes", "", "notes to attach when bookmarking")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	action := "list"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}

	switch action {
	case "list":
		items, err := st.SavedItems()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No bookmarked listings.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%s  %3d%%  %7d kr  %s", it.ListingID, it.DealScore, it.Price, it.Title)
			if it.Notes != "" {
				fmt.Printf("  (%s)", it.Notes)
			}
			fmt.Println()
		}
		return nil

	case "add":
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: finndeals saved add <listing-id> [-notes text]")
		}
		item, err := findStoredListing(st, fs.Arg(1))
		if err != nil {
			return err
		}
		if err := st.SaveItem(item, *notes); err != nil {
			return err
		}
		fmt.Printf("Bookmarked %s — %s\n", item.ID, item.Title)
		return nil

	case "delete":
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: finndeals saved delete <listing-id>")
		}
		removed, err := st.DeleteItem(fs.Arg(1))
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("No such bookmark.")
			return nil
		}
		fmt.Println("Deleted.")
		return nil

	default:
		return fmt.Errorf("unknown saved action %q (want list, add or delete)", action)
	}
}

// findStoredListing looks a listing up by ID in the stored search
// results, newest first.
func findStoredListing(st *store.Store, listingID string) (model.AnalyzedListing, error) {
	records, err := st.RecentSearchResults(50)
	if err != nil {
		return model.AnalyzedListing{}, err
	}
	for _, record := range records {
		var result analysis.Result
		if err := json.Unmarshal(record.Results, &result); err != nil {
			continue
		}
		for _, item := range result.Items {
			if item.ID == listingID {
				return item, nil
			}
		}
	}
	return model.AnalyzedListing{}, fmt.Errorf("listing %s not found in stored results; run a search first", listingID)
}

func cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	schedule := fs.String("every", "30m", "interval between runs (or -cron)")
	cronSpec := fs.String("cron", "", "cron schedule, overrides -every")
	now := fs.Bool("now", false, "run every saved search once and exit")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := store.OpenSearches(settings.DataDir).All()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return fmt.Errorf("no saved searches to watch; add one with 'finndeals searches add'")
	}

	searcher := monitor.SearcherFunc(func(ctx context.Context, s store.SavedSearch) (*analysis.Result, error) {
		params := s.Params
		if params.MaxResults <= 0 {
			params.MaxResults = settings.MaxResults
		}
		raws, err := fetch(ctx, settings, params, false, false, *quiet)
		if err != nil {
			return nil, err
		}
		threshold := s.Threshold
		if threshold <= 0 {
			threshold = settings.DealThreshold
		}
		return analyze(raws, params.Keyword, threshold), nil
	})

	w := monitor.NewWatcher(searcher, st, settings.DataDir, settings.DealThreshold, nil)

	if *now {
		for _, s := range all {
			alerts, err := w.RunOnce(ctx, s)
			if err != nil {
				log.Printf("watch %q: %v", s.Name, err)
				continue
			}
			fmt.Printf("%s: %d alerts\n", s.Name, len(alerts))
		}
		return nil
	}

	spec := *cronSpec
	if spec == "" {
		spec = "@every " + *schedule
	}
	for _, s := range all {
		if _, err := w.Add(s, spec); err != nil {
			return err
		}
		log.Printf("watching %q (%s)", s.Name, spec)
	}

	w.Start()
	<-ctx.Done()
	w.Stop()
	return nil
}

func cmdCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	dataDir := fs.String("data-dir", "", "data directory")
	days := fs.Int("days", 90, "delete price history older than this many days")
	fs.Parse(args)

	settings := config.Load(*dataDir)
	st, err := store.Open(settings.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.CleanupHistory(time.Duration(*days) * 24 * time.Hour)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d history rows older than %d days.\n", removed, *days)

	stats, err := st.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Remaining: %d rows over %d listings, %d bookmarks, %d stored results.\n",
		stats.HistoryRows, stats.TrackedItems, stats.SavedItems, stats.SearchRecords)
	return nil
}
