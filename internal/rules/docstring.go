package rules

import (
	"fmt"
	"strings"

	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

// CheckDocstrings reports modules, classes and functions whose first
// statement is not a plain string literal. Functions named with a leading
// underscore are exempt.
func CheckDocstrings(f *File) []review.Issue {
	if f.Tree == nil {
		return nil
	}

	var issues []review.Issue
	syntax.Walk(f.Tree, func(n *syntax.Node) bool {
		if !n.IsScope() || hasDocstring(n) {
			return true
		}
		if n.Kind == syntax.KindFunction && strings.HasPrefix(n.Name, "_") {
			return true
		}

		issue := review.Issue{
			File:     f.Path,
			Line:     n.Line,
			Category: review.CategoryDocumentation,
			Severity: review.SeverityMedium,
		}
		switch n.Kind {
		case syntax.KindModule:
			issue.Line = 1
			issue.Message = "Missing docstring for module"
		default:
			issue.Message = fmt.Sprintf("Missing docstring for %s '%s'", n.Kind, n.Name)
		}
		issues = append(issues, issue)
		return true
	})
	return issues
}

func hasDocstring(n *syntax.Node) bool {
	if len(n.Body) == 0 {
		return false
	}
	first := n.Body[0]
	return first.Kind == syntax.KindExpr &&
		len(first.Children) == 1 &&
		first.Children[0].Kind == syntax.KindString
}
