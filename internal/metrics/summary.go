package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// SummaryOptions controls Summary output.
type SummaryOptions struct {
	// TopFiles is how many files to list by issue count; 0 means 5.
	TopFiles int
	// HideTiming drops the per-activity timing table.
	HideTiming bool
}

var (
	headerColor = color.New(color.FgHiCyan, color.Bold)
	labelColor  = color.New(color.Bold)
	warnColor   = color.New(color.FgHiYellow)
)

// Summary prints a human-readable overview of snap.
func Summary(w io.Writer, snap Snapshot, opts SummaryOptions) error {
	if opts.TopFiles <= 0 {
		opts.TopFiles = 5
	}

	cov := snap.Coverage
	headerColor.Fprintln(w, "\n===== CODE REVIEW METRICS SUMMARY =====")
	fmt.Fprintf(w, "Review duration: %.1f seconds\n", snap.TotalDurationSeconds)
	fmt.Fprintf(w, "Files reviewed: %d of %d (%.1f%%)\n", cov.FilesReviewed, cov.TotalFiles, cov.FileCoveragePercent)
	fmt.Fprintf(w, "Lines reviewed: %d of %d (%.1f%%)\n", cov.LinesReviewed, cov.TotalLines, cov.LineCoveragePercent)

	labelColor.Fprintln(w, "\nIssues found:")
	for _, c := range Categories {
		count := snap.Issues.Get(c)
		line := fmt.Sprintf("  - %s: %d", c.Title(), count)
		if count > 0 {
			warnColor.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintf(w, "Total issues: %d\n", snap.Issues.Total)
	fmt.Fprintf(w, "Issue density: %.2f issues per 1000 lines\n", snap.Issues.IssuesPer1000Lines)

	if stats := snap.TimingStats(); !opts.HideTiming && len(stats) > 0 {
		labelColor.Fprintln(w, "\nTiming (seconds):")
		table := newTable(w, []string{"Activity", "Count", "Total", "Mean", "Median", "Min", "Max"})
		for _, s := range stats {
			if err := table.Append([]string{
				s.Activity,
				strconv.Itoa(s.Count),
				seconds(s.Total),
				seconds(s.Mean),
				seconds(s.Median),
				seconds(s.Min),
				seconds(s.Max),
			}); err != nil {
				return fmt.Errorf("failed to add timing row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render timing table: %w", err)
		}
	}

	if top := snap.TopFiles(opts.TopFiles); len(top) > 0 {
		labelColor.Fprintln(w, "\nTop files by issue count:")
		table := newTable(w, []string{"File", "Issues"})
		for _, f := range top {
			if err := table.Append([]string{f.File, strconv.Itoa(f.Issues)}); err != nil {
				return fmt.Errorf("failed to add file row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render file table: %w", err)
		}
	}

	return nil
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "  ", Right: "  "}),
	)
	table.Header(headers)
	return table
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
