package output

import (
	"encoding/json"
	"io"
	"path/filepath"
	"time"

	"reviewkit/internal/review"
	"reviewkit/internal/rules"
)

// JSONFormatter formats review reports as JSON
type JSONFormatter struct {
	config Config
}

func NewJSONFormatter(config Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// JSONOutput is the structured JSON output format
type JSONOutput struct {
	Meta       JSONMeta               `json:"meta"`
	Summary    JSONSummary            `json:"summary"`
	Categories []review.CategoryCount `json:"categories"`
	Results    []JSONFileResult       `json:"results"`
	Truncated  int                    `json:"truncated,omitempty"`
}

// JSONMeta contains metadata about the review
type JSONMeta struct {
	Tool      string    `json:"tool"`
	Version   string    `json:"version"`
	Template  string    `json:"template,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Duration  float64   `json:"duration_ms"`
}

// JSONSummary contains review summary statistics
type JSONSummary struct {
	TotalFiles    int `json:"total_files"`
	ReviewedFiles int `json:"reviewed_files"`
	FailedFiles   int `json:"failed_files"`
	SkippedFiles  int `json:"skipped_files"`
	TotalIssues   int `json:"total_issues"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
}

// JSONFileResult contains results for a single file
type JSONFileResult struct {
	Path     string      `json:"path"`
	Language string      `json:"language"`
	Issues   []JSONIssue `json:"issues"`
}

type JSONIssue struct {
	Line     int    `json:"line,omitempty"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Version is reported in the JSON meta block.
var Version = "dev"

func (f *JSONFormatter) Format(report Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(f.buildJSONOutput(report))
}

func (f *JSONFormatter) buildJSONOutput(report Report) JSONOutput {
	out := JSONOutput{
		Meta: JSONMeta{
			Tool:     "reviewkit",
			Version:  Version,
			Template: report.Template,
		},
		Summary: JSONSummary{
			ReviewedFiles: report.Stats.FilesReviewed,
			TotalIssues:   report.Issues.Total(),
			HighCount:     report.Issues.SeverityCounts[review.SeverityHigh],
			MediumCount:   report.Issues.SeverityCounts[review.SeverityMedium],
			LowCount:      report.Issues.SeverityCounts[review.SeverityLow],
		},
		Categories: append([]review.CategoryCount{}, report.Stats.IssueTypes...),
		Results:    []JSONFileResult{},
	}

	if result := report.Result; result != nil {
		out.Meta.Timestamp = result.StartTime
		out.Meta.Duration = float64(result.Duration) / float64(time.Millisecond)
		out.Summary.TotalFiles = result.TotalFiles
		out.Summary.FailedFiles = result.FailedFiles
		out.Summary.SkippedFiles = result.SkippedFiles
	}

	written := 0
	for _, bucket := range report.Issues.Files {
		if len(bucket.Issues) == 0 && !f.config.ShowSuccess {
			continue
		}

		fr := JSONFileResult{
			Path:     filepath.ToSlash(bucket.Path),
			Language: rules.LanguageFor(bucket.Path).String(),
			Issues:   []JSONIssue{},
		}
		for _, issue := range bucket.Issues {
			if f.config.MaxIssues > 0 && written >= f.config.MaxIssues {
				out.Truncated++
				continue
			}
			fr.Issues = append(fr.Issues, convertIssue(issue))
			written++
		}
		out.Results = append(out.Results, fr)
	}

	return out
}

func convertIssue(issue review.Issue) JSONIssue {
	category := issue.Category
	if category == "" {
		category = review.CategoryOther
	}
	return JSONIssue{
		Line:     issue.Line,
		Category: string(category),
		Severity: string(issue.Severity),
		Message:  issue.Message,
	}
}
