package review

import (
	"context"
	"time"

	"reviewkit/internal/fs"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// Rank orders severities: High > Medium > Low > anything else.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category is an open set; callers may use their own values.
type Category string

const (
	CategorySecurity        Category = "Security"
	CategoryDocumentation   Category = "Documentation"
	CategoryStyle           Category = "Style"
	CategoryMaintainability Category = "Maintainability"
	CategoryDebug           Category = "Debug"
	CategorySyntax          Category = "Syntax"
	CategoryOther           Category = "Other"
)

// Issue is a single finding. Line is 1-based; 0 means unknown.
type Issue struct {
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type FileReview struct {
	File     *fs.FileInfo  `json:"file"`
	Issues   []Issue       `json:"issues"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error,omitempty"`
	Skipped  string        `json:"skipped,omitempty"`
}

// Reviewed reports whether the file was analysed. Files that could not be
// read, and files skipped by the scanner, are not.
func (fr FileReview) Reviewed() bool {
	return fr.Error == "" && fr.Skipped == ""
}

type ReviewResult struct {
	TotalFiles    int           `json:"total_files"`
	ReviewedFiles int           `json:"reviewed_files"`
	FailedFiles   int           `json:"failed_files"`
	SkippedFiles  int           `json:"skipped_files"`
	TotalIssues   int           `json:"total_issues"`
	HighCount     int           `json:"high_count"`
	MediumCount   int           `json:"medium_count"`
	LowCount      int           `json:"low_count"`
	FileReviews   []FileReview  `json:"file_reviews"`
	Duration      time.Duration `json:"total_duration_ms"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
}

// interface for reviewing files
type Reviewer interface {
	ReviewFile(ctx context.Context, file *fs.FileInfo) ([]Issue, error)
	Name() string
}

type Pipeline interface {
	Run(ctx context.Context, files []*fs.FileInfo) (*ReviewResult, error)
	Stop() error
}
