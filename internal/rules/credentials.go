package rules

import (
	"regexp"

	"reviewkit/internal/review"
)

// Patterns run in this order; every match is reported.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)api_?key\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)secret\s*=\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)token\s*=\s*["']([^"']+)["']`),
}

// CheckCredentials flags assignments of quoted literals to password, API
// key, secret and token names.
func CheckCredentials(f *File) []review.Issue {
	var issues []review.Issue
	for _, pattern := range credentialPatterns {
		for _, loc := range pattern.FindAllStringIndex(f.Content, -1) {
			issues = append(issues, review.Issue{
				File:     f.Path,
				Line:     lineAt(f.Content, loc[0]),
				Category: review.CategorySecurity,
				Severity: review.SeverityHigh,
				Message:  "Potential hardcoded credential detected",
			})
		}
	}
	return issues
}
