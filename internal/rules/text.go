package rules

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"reviewkit/internal/review"
)

const MaxLineLength = 100

var debugPattern = regexp.MustCompile(`\bconsole\.(log|debug|trace)\s*\(`)

// CheckDebugStatements flags console.log, console.debug and console.trace
// calls.
func CheckDebugStatements(f *File) []review.Issue {
	var issues []review.Issue
	for _, m := range debugPattern.FindAllStringSubmatchIndex(f.Content, -1) {
		issues = append(issues, review.Issue{
			File:     f.Path,
			Line:     lineAt(f.Content, m[0]),
			Category: review.CategoryDebug,
			Severity: review.SeverityLow,
			Message:  fmt.Sprintf("console.%s statement should be removed in production code", f.Content[m[2]:m[3]]),
		})
	}
	return issues
}

// CheckLineLength flags lines longer than MaxLineLength characters.
func CheckLineLength(f *File) []review.Issue {
	var issues []review.Issue
	for i, line := range f.Lines {
		length := utf8.RuneCountInString(line)
		if length <= MaxLineLength {
			continue
		}
		issues = append(issues, review.Issue{
			File:     f.Path,
			Line:     i + 1,
			Category: review.CategoryStyle,
			Severity: review.SeverityLow,
			Message:  fmt.Sprintf("Line exceeds %d characters (length: %d)", MaxLineLength, length),
		})
	}
	return issues
}

func CheckTrailingWhitespace(f *File) []review.Issue {
	var issues []review.Issue
	for i, line := range f.Lines {
		if line == "" {
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(line)
		if !unicode.IsSpace(last) {
			continue
		}
		issues = append(issues, review.Issue{
			File:     f.Path,
			Line:     i + 1,
			Category: review.CategoryStyle,
			Severity: review.SeverityLow,
			Message:  "Line has trailing whitespace",
		})
	}
	return issues
}
