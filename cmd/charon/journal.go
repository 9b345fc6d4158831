package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/cli"
	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/journal/storage"
)

var journalFlags struct {
	backend  string
	since    string
	until    string
	kind     string
	sourceIP string
	limit    int
	offset   int
	format   string
	output   string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the traffic journal",
	Long: `Query and summarize the append-only traffic journal.

The journal records admission denials, IP blocks and unblocks, upstream
health transitions, and configuration reloads. The running server writes
it; these commands read the same database offline.

Subcommands:
  query  - List journal events with filters
  report - Aggregate statistics over a time range

Examples:
  # Last 100 events
  charon journal query

  # Blocks for one source
  charon journal query --kind ip_blocked --source-ip 203.0.113.7

  # Export a day to CSV
  charon journal query --since 2026-08-25T00:00:00Z --until 2026-08-26T00:00:00Z --format csv --output events.csv`,
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List journal events",
	Long: `List journal events with filters, newest first.

Kinds: admission_denied, ip_blocked, ip_unblocked, upstream_unhealthy,
upstream_recovered, config_reloaded.

Examples:
  # Denials since a point in time
  charon journal query --kind admission_denied --since 2026-08-25T00:00:00Z

  # Page through older events
  charon journal query --limit 50 --offset 100

  # JSON to a file
  charon journal query --format json --output events.json`,
	RunE: queryJournal,
}

var journalReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate journal statistics",
	Long: `Aggregate journal events into per-kind, per-reason, and per-source
statistics.

The report walks the matching events in pages, so it stays in bounded
memory on large journals.

Examples:
  # Everything
  charon journal report

  # One day
  charon journal report --since 2026-08-25T00:00:00Z --until 2026-08-26T00:00:00Z`,
	RunE: journalReport,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd, journalReportCmd)

	for _, cmd := range []*cobra.Command{journalQueryCmd, journalReportCmd} {
		cmd.Flags().StringVar(&journalFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
		cmd.Flags().StringVar(&journalFlags.since, "since", "", "start of time range (RFC3339)")
		cmd.Flags().StringVar(&journalFlags.until, "until", "", "end of time range (RFC3339)")
	}

	journalQueryCmd.Flags().StringVar(&journalFlags.kind, "kind", "", "filter by event kind")
	journalQueryCmd.Flags().StringVar(&journalFlags.sourceIP, "source-ip", "", "filter by source IP")
	journalQueryCmd.Flags().IntVar(&journalFlags.limit, "limit", 100, "max results")
	journalQueryCmd.Flags().IntVar(&journalFlags.offset, "offset", 0, "pagination offset")
	journalQueryCmd.Flags().StringVar(&journalFlags.format, "format", "text", "output format: text, json, csv")
	journalQueryCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "", "output file (default: stdout)")
}

// openJournalStorage opens the journal backend named by the --backend
// flag, falling back to the config file.
func openJournalStorage() (journal.Storage, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	backendType := journalFlags.backend
	if backendType == "" {
		backendType = cfg.Journal.Backend
	}

	switch backendType {
	case "sqlite":
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Journal.SQLite.Path,
			MaxOpenConns: cfg.Journal.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Journal.SQLite.MaxIdleConns,
			BusyTimeout:  cfg.Journal.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported journal backend: %s (supported: sqlite, memory)", backendType)
	}
}

// buildJournalQuery assembles the filter from the shared flags.
func buildJournalQuery() (*journal.Query, error) {
	query := &journal.Query{
		Limit:  journalFlags.limit,
		Offset: journalFlags.offset,
	}

	if journalFlags.since != "" {
		t, err := time.Parse(time.RFC3339, journalFlags.since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		query.Since = &t
	}
	if journalFlags.until != "" {
		t, err := time.Parse(time.RFC3339, journalFlags.until)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		query.Until = &t
	}
	if journalFlags.kind != "" {
		query.Kind = journal.Kind(journalFlags.kind)
	}
	if journalFlags.sourceIP != "" {
		query.SourceIP = journalFlags.sourceIP
	}

	return query, nil
}

func queryJournal(cmd *cobra.Command, args []string) error {
	store, err := openJournalStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	query, err := buildJournalQuery()
	if err != nil {
		return err
	}

	ctx := context.Background()
	events, err := store.List(ctx, query)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}

	var output *os.File
	if journalFlags.output != "" {
		output, err = os.Create(journalFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch journalFlags.format {
	case "json":
		return outputEventsJSON(output, events)
	case "csv":
		return outputEventsCSV(output, events)
	default:
		return outputEventsText(output, events, query)
	}
}

func outputEventsText(output io.Writer, events []*journal.Event, query *journal.Query) error {
	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(output, "Time range: %s to %s\n",
			query.Since.Format(time.RFC3339),
			query.Until.Format(time.RFC3339))
	}
	fmt.Fprintf(output, "Total events: %d\n", len(events))
	fmt.Fprintln(output)

	if len(events) == 0 {
		fmt.Fprintln(output, "No events found.")
		return nil
	}

	for i, event := range events {
		if i > 0 {
			fmt.Fprintln(output)
		}

		fmt.Fprintf(output, "Event ID: %s\n", event.ID)
		fmt.Fprintf(output, "Time:     %s\n", event.Time.Format(time.RFC3339))
		fmt.Fprintf(output, "Kind:     %s\n", event.Kind)
		if event.SourceIP != "" {
			fmt.Fprintf(output, "Source:   %s\n", event.SourceIP)
		}
		if event.Reason != "" {
			fmt.Fprintf(output, "Reason:   %s\n", event.Reason)
		}
		if event.RetryAfterSeconds > 0 {
			fmt.Fprintf(output, "Retry after: %ds\n", event.RetryAfterSeconds)
		}
		if event.Upstream != "" {
			fmt.Fprintf(output, "Upstream: %s\n", event.Upstream)
		}
		if event.Route != "" {
			fmt.Fprintf(output, "Route:    %s\n", event.Route)
		}
		if event.Detail != "" {
			fmt.Fprintf(output, "Detail:   %s\n", event.Detail)
		}

		// Show limited output for large result sets
		if i >= 9 && len(events) > 10 {
			remaining := len(events) - 10
			fmt.Fprintln(output)
			fmt.Fprintf(output, "... and %d more events\n", remaining)
			fmt.Fprintf(output, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

func outputEventsJSON(output io.Writer, events []*journal.Event) error {
	formatter := cli.NewFormatter(cli.FormatJSON)
	return formatter.FormatTo(output, map[string]any{
		"total_events": len(events),
		"events":       events,
	})
}

func outputEventsCSV(output io.Writer, events []*journal.Event) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.ID,
			e.Time.Format(time.RFC3339Nano),
			string(e.Kind),
			e.SourceIP,
			e.Reason,
			strconv.Itoa(e.RetryAfterSeconds),
			e.Upstream,
			e.Route,
			e.Detail,
		})
	}

	formatter := &cli.CSVFormatter{
		Headers: []string{"id", "time", "kind", "source_ip", "reason", "retry_after_seconds", "upstream", "route", "detail"},
	}
	return formatter.FormatTo(output, rows)
}

// reportPageSize is how many events one report page loads.
const reportPageSize = 1000

func journalReport(cmd *cobra.Command, args []string) error {
	store, err := openJournalStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	// Range only; the report aggregates across all kinds and sources.
	journalFlags.kind = ""
	journalFlags.sourceIP = ""
	journalFlags.limit = 0
	journalFlags.offset = 0
	query, err := buildJournalQuery()
	if err != nil {
		return err
	}

	// Reports can scan a large journal; Ctrl-C abandons the scan.
	ctx := cli.SetupSignalHandler()
	total, err := store.Count(ctx, query)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("count failed: %w", err))
	}

	kindCounts := make(map[string]int)
	reasonCounts := make(map[string]int)
	sourceCounts := make(map[string]int)
	upstreamCounts := make(map[string]int)

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)

	var scanned int64
	for scanned < total {
		page := &journal.Query{
			Since:  query.Since,
			Until:  query.Until,
			Limit:  reportPageSize,
			Offset: int(scanned),
		}
		events, err := store.List(ctx, page)
		if err != nil {
			progress.Error(err)
			return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
		}
		if len(events) == 0 {
			break
		}

		for _, e := range events {
			kindCounts[string(e.Kind)]++
			if e.Reason != "" {
				reasonCounts[e.Reason]++
			}
			if e.SourceIP != "" {
				sourceCounts[e.SourceIP]++
			}
			if e.Upstream != "" {
				upstreamCounts[e.Upstream]++
			}
		}

		scanned += int64(len(events))
		progress.Update(scanned)
	}
	progress.Finish()

	return printJournalReport(os.Stdout, query, scanned, kindCounts, reasonCounts, sourceCounts, upstreamCounts)
}

func printJournalReport(output io.Writer, query *journal.Query, total int64, kinds, reasons, sources, upstreams map[string]int) error {
	fmt.Fprintln(output, "Traffic Journal Report")
	fmt.Fprintln(output, "======================")

	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(output, "Time Range: %s to %s\n",
			query.Since.Format("2006-01-02"),
			query.Until.Format("2006-01-02"))
	}
	fmt.Fprintf(output, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(output)

	fmt.Fprintln(output, "Summary:")
	fmt.Fprintln(output, "--------")
	fmt.Fprintf(output, "Total Events: %d\n", total)
	fmt.Fprintln(output)

	if total == 0 {
		return nil
	}

	fmt.Fprintln(output, "By Kind:")
	for _, line := range countLines(kinds, int(total)) {
		fmt.Fprintln(output, line)
	}
	fmt.Fprintln(output)

	if len(reasons) > 0 {
		fmt.Fprintln(output, "By Reason:")
		for _, line := range countLines(reasons, int(total)) {
			fmt.Fprintln(output, line)
		}
		fmt.Fprintln(output)
	}

	if len(sources) > 0 {
		fmt.Fprintln(output, "Top Sources:")
		for i, line := range countLines(sources, int(total)) {
			if i >= 10 {
				fmt.Fprintf(output, "  ... and %d more\n", len(sources)-10)
				break
			}
			fmt.Fprintln(output, line)
		}
		fmt.Fprintln(output)
	}

	if len(upstreams) > 0 {
		fmt.Fprintln(output, "By Upstream:")
		for _, line := range countLines(upstreams, int(total)) {
			fmt.Fprintln(output, line)
		}
	}

	return nil
}

// countLines renders a count map as "  name: n events (p%)" lines,
// highest count first.
func countLines(counts map[string]int, total int) []string {
	type kv struct {
		name  string
		count int
	}
	sorted := make([]kv, 0, len(counts))
	for name, count := range counts {
		sorted = append(sorted, kv{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		pct := float64(e.count) / float64(total) * 100
		lines = append(lines, fmt.Sprintf("  %s: %d events (%.0f%%)", e.name, e.count, pct))
	}
	return lines
}
