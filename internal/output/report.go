package output

import (
	"fmt"
	"strings"

	"reviewkit/internal/aggregate"
	"reviewkit/internal/review"
)

const (
	reportTitle  = "# Code Review Report"
	emptyReport  = reportTitle + "\n\nNo issues found in the code review."
	noMessage    = "No description"
	unknownLine  = "Unknown"
	headingLevel = "#### "
)

// GenerateReport renders the Markdown review report. Summary totals come
// from stats; the detailed findings list every file in agg that has
// issues, grouped High, Medium, Low.
func GenerateReport(agg aggregate.Snapshot, stats review.Stats) string {
	return strings.Join(reportLines(agg, stats), "\n")
}

func reportLines(agg aggregate.Snapshot, stats review.Stats) []string {
	if agg.Total() == 0 {
		return []string{emptyReport}
	}

	lines := []string{reportTitle + "\n"}

	lines = append(lines, "## Summary\n")
	lines = append(lines, fmt.Sprintf("- Files reviewed: %d", stats.FilesReviewed))
	lines = append(lines, fmt.Sprintf("- Total issues found: %d", stats.IssuesFound))

	lines = append(lines, "\n### Issues by Category\n")
	for _, cc := range stats.IssueTypes {
		lines = append(lines, fmt.Sprintf("- %s: %d", cc.Category, cc.Count))
	}

	lines = append(lines, "\n## Detailed Findings\n")
	for _, bucket := range agg.Files {
		if len(bucket.Issues) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("### File: `%s`\n", bucket.Path))

		for _, severity := range review.Severities {
			var block []string
			for _, issue := range bucket.Issues {
				if issue.Severity == severity {
					block = append(block, findingLine(issue))
				}
			}
			if len(block) == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s%s Severity Issues\n", headingLevel, severity))
			lines = append(lines, block...)
			lines = append(lines, "")
		}
	}

	return lines
}

func findingLine(issue review.Issue) string {
	line := unknownLine
	if issue.Line > 0 {
		line = fmt.Sprint(issue.Line)
	}
	category := issue.Category
	if category == "" {
		category = review.CategoryOther
	}
	message := issue.Message
	if message == "" {
		message = noMessage
	}
	return fmt.Sprintf("- **Line %s** (%s): %s", line, category, message)
}
