package rules

import (
	"fmt"
	"regexp"
	"strings"

	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

var (
	classNamePattern    = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	functionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// CheckNaming wants CamelCase classes and snake_case functions. Names
// starting with a double underscore are not checked.
func CheckNaming(f *File) []review.Issue {
	if f.Tree == nil {
		return nil
	}

	var issues []review.Issue
	syntax.Walk(f.Tree, func(n *syntax.Node) bool {
		var message string
		switch n.Kind {
		case syntax.KindClass:
			if !classNamePattern.MatchString(n.Name) {
				message = fmt.Sprintf("Class '%s' doesn't follow CamelCase naming convention", n.Name)
			}
		case syntax.KindFunction:
			if !strings.HasPrefix(n.Name, "__") && !functionNamePattern.MatchString(n.Name) {
				message = fmt.Sprintf("Function '%s' doesn't follow snake_case naming convention", n.Name)
			}
		}

		if message != "" {
			issues = append(issues, review.Issue{
				File:     f.Path,
				Line:     n.Line,
				Category: review.CategoryStyle,
				Severity: review.SeverityLow,
				Message:  message,
			})
		}
		return true
	})
	return issues
}
