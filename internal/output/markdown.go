package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"reviewkit/internal/review"
)

// MarkdownFormatter writes the review report as Markdown.
type MarkdownFormatter struct {
	config Config
}

func NewMarkdownFormatter(config Config) *MarkdownFormatter {
	return &MarkdownFormatter{config: config}
}

// Format writes GenerateReport's output followed by a newline. With Color
// set, severity headings are tinted for terminal reading.
func (f *MarkdownFormatter) Format(report Report, w io.Writer) error {
	lines := reportLines(report.Issues, report.Stats)
	if f.config.Color {
		for i, line := range lines {
			lines[i] = f.colorize(line)
		}
	}

	if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (f *MarkdownFormatter) colorize(line string) string {
	if !strings.HasPrefix(line, headingLevel) {
		if strings.HasPrefix(line, "#") {
			return color.New(color.Bold).Sprint(line)
		}
		return line
	}

	switch {
	case strings.HasPrefix(line, headingLevel+string(review.SeverityHigh)):
		return color.New(color.FgRed, color.Bold).Sprint(line)
	case strings.HasPrefix(line, headingLevel+string(review.SeverityMedium)):
		return color.New(color.FgYellow, color.Bold).Sprint(line)
	default:
		return color.New(color.FgCyan).Sprint(line)
	}
}
