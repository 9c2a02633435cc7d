package review

import "reviewkit/internal/metrics"

// CategoryCount pairs a category with how often it was seen.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// Stats accumulates driver-level totals across reviewed files. Category
// counts keep the order in which each category was first seen.
type Stats struct {
	FilesReviewed int             `json:"files_reviewed"`
	IssuesFound   int             `json:"issues_found"`
	IssueTypes    []CategoryCount `json:"issue_types"`
}

// Record adds one reviewed file and its issues.
func (s *Stats) Record(issues []Issue) {
	s.FilesReviewed++
	s.IssuesFound += len(issues)

	for _, issue := range issues {
		category := issue.Category
		if category == "" {
			category = CategoryOther
		}
		s.bump(category)
	}
}

func (s *Stats) bump(c Category) {
	for i := range s.IssueTypes {
		if s.IssueTypes[i].Category == c {
			s.IssueTypes[i].Count++
			return
		}
	}
	s.IssueTypes = append(s.IssueTypes, CategoryCount{Category: c, Count: 1})
}

// MetricCategory maps a rule category onto the metrics recorder's fixed
// counter set. The recorder folds anything it does not know into "other",
// so unknown categories map there as well.
func (c Category) MetricCategory() metrics.Category {
	switch c {
	case CategorySecurity:
		return metrics.CategorySecurity
	case CategoryStyle, CategoryDocumentation:
		return metrics.CategoryStyle
	case CategoryMaintainability, CategorySyntax:
		return metrics.CategoryLogic
	default:
		return metrics.CategoryOther
	}
}
