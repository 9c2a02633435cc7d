package rules

import (
	"fmt"

	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

// ComplexityThreshold is the highest complexity a function may have
// without being reported.
const ComplexityThreshold = 10

// Complexity scores fn as 1, plus one per if/elif, while and for in its
// subtree, plus operands-1 for each "and" chain. "or" chains, conditional
// expressions, comprehensions, exception handlers and match arms add
// nothing, so the score undercounts code that branches that way.
func Complexity(fn *syntax.Node) int {
	complexity := 1
	syntax.Walk(fn, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindIf, syntax.KindWhile, syntax.KindFor:
			complexity++
		case syntax.KindBoolOp:
			if n.Op == syntax.OpAnd && n.Operands > 1 {
				complexity += n.Operands - 1
			}
		}
		return true
	})
	return complexity
}

// CheckComplexity reports functions whose Complexity exceeds
// ComplexityThreshold.
func CheckComplexity(f *File) []review.Issue {
	if f.Tree == nil {
		return nil
	}

	var issues []review.Issue
	for _, fn := range syntax.Collect(f.Tree, syntax.KindFunction) {
		score := Complexity(fn)
		if score <= ComplexityThreshold {
			continue
		}
		issues = append(issues, review.Issue{
			File:     f.Path,
			Line:     fn.Line,
			Category: review.CategoryMaintainability,
			Severity: review.SeverityMedium,
			Message:  fmt.Sprintf("Function '%s' has high cyclomatic complexity (%d)", fn.Name, score),
		})
	}
	return issues
}
