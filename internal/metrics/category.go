package metrics

import "strings"

// Category is one of the recorder's five fixed issue counters.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryStyle       Category = "style"
	CategoryLogic       Category = "logic"
	CategoryOther       Category = "other"
)

// Categories lists the counters in export order.
var Categories = []Category{
	CategorySecurity,
	CategoryPerformance,
	CategoryStyle,
	CategoryLogic,
	CategoryOther,
}

// ParseCategory returns the counter for name, folding anything unknown
// into CategoryOther. Matching is exact.
func ParseCategory(name string) Category {
	switch c := Category(name); c {
	case CategorySecurity, CategoryPerformance, CategoryStyle, CategoryLogic, CategoryOther:
		return c
	default:
		return CategoryOther
	}
}

// Title returns the category name with its first letter upper-cased.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// IssueCounts holds one counter per Category.
type IssueCounts struct {
	Security    int `json:"security" yaml:"security"`
	Performance int `json:"performance" yaml:"performance"`
	Style       int `json:"style" yaml:"style"`
	Logic       int `json:"logic" yaml:"logic"`
	Other       int `json:"other" yaml:"other"`
}

func (c *IssueCounts) add(category Category) {
	switch category {
	case CategorySecurity:
		c.Security++
	case CategoryPerformance:
		c.Performance++
	case CategoryStyle:
		c.Style++
	case CategoryLogic:
		c.Logic++
	default:
		c.Other++
	}
}

// Get returns the counter for category.
func (c IssueCounts) Get(category Category) int {
	switch category {
	case CategorySecurity:
		return c.Security
	case CategoryPerformance:
		return c.Performance
	case CategoryStyle:
		return c.Style
	case CategoryLogic:
		return c.Logic
	case CategoryOther:
		return c.Other
	default:
		return 0
	}
}

// Total sums every counter.
func (c IssueCounts) Total() int {
	return c.Security + c.Performance + c.Style + c.Logic + c.Other
}
