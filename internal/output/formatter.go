package output

import (
	"io"

	"reviewkit/internal/aggregate"
	"reviewkit/internal/review"
)

// Report bundles everything a formatter may render.
type Report struct {
	Result   *review.ReviewResult
	Issues   aggregate.Snapshot
	Stats    review.Stats
	Template string
}

// Formatter is the interface for formatting review reports
type Formatter interface {
	Format(report Report, w io.Writer) error
}

// Config holds output configuration
type Config struct {
	Format      string
	Color       bool
	ShowSuccess bool
	MaxIssues   int
}

// DefaultConfig returns the default output configuration
func DefaultConfig() Config {
	return Config{
		Format: "markdown",
	}
}
