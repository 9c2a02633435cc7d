package aggregate

import (
	"sync"

	"reviewkit/internal/review"
)

// Aggregator accumulates issues across files in the order they arrive.
// Files keep the order in which they were first seen; nothing is removed
// or reordered once added. It is safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	issues     []review.Issue
	files      []string
	byFile     map[string][]review.Issue
	categories []review.CategoryCount
	severities map[review.Severity]int
}

func New() *Aggregator {
	return &Aggregator{
		byFile:     make(map[string][]review.Issue),
		severities: make(map[review.Severity]int),
	}
}

// AddFile registers path, even with no issues, and appends its issues.
func (a *Aggregator) AddFile(path string, issues []review.Issue) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.touch(path)
	for _, issue := range issues {
		a.add(path, issue)
	}
}

// Add appends issues, bucketing each by its File.
func (a *Aggregator) Add(issues ...review.Issue) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, issue := range issues {
		a.touch(issue.File)
		a.add(issue.File, issue)
	}
}

func (a *Aggregator) touch(path string) {
	if _, ok := a.byFile[path]; !ok {
		a.files = append(a.files, path)
		a.byFile[path] = nil
	}
}

func (a *Aggregator) add(path string, issue review.Issue) {
	a.issues = append(a.issues, issue)
	a.byFile[path] = append(a.byFile[path], issue)
	a.severities[issue.Severity]++

	category := issue.Category
	if category == "" {
		category = review.CategoryOther
	}
	for i := range a.categories {
		if a.categories[i].Category == category {
			a.categories[i].Count++
			return
		}
	}
	a.categories = append(a.categories, review.CategoryCount{Category: category, Count: 1})
}

// Issues returns every issue in arrival order.
func (a *Aggregator) Issues() []review.Issue {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]review.Issue(nil), a.issues...)
}

// Files returns the files in first-seen order.
func (a *Aggregator) Files() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.files...)
}

// FileIssues returns the issues recorded for path.
func (a *Aggregator) FileIssues(path string) []review.Issue {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]review.Issue(nil), a.byFile[path]...)
}

// CategoryCounts returns per-category totals in first-seen order.
func (a *Aggregator) CategoryCounts() []review.CategoryCount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]review.CategoryCount(nil), a.categories...)
}

func (a *Aggregator) SeverityCounts() map[review.Severity]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[review.Severity]int, len(a.severities))
	for k, v := range a.severities {
		out[k] = v
	}
	return out
}

func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.issues)
}

// FileBucket is one file's issues inside a Snapshot.
type FileBucket struct {
	Path   string         `json:"path"`
	Issues []review.Issue `json:"issues"`
}

// Snapshot is an immutable copy of an Aggregator's state.
type Snapshot struct {
	Issues         []review.Issue          `json:"issues"`
	Files          []FileBucket            `json:"files"`
	CategoryCounts []review.CategoryCount  `json:"category_counts"`
	SeverityCounts map[review.Severity]int `json:"severity_counts"`
}

// Total is the number of issues in the snapshot.
func (s Snapshot) Total() int {
	return len(s.Issues)
}

// Snapshot copies the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Issues:         append([]review.Issue(nil), a.issues...),
		Files:          make([]FileBucket, 0, len(a.files)),
		CategoryCounts: append([]review.CategoryCount(nil), a.categories...),
		SeverityCounts: make(map[review.Severity]int, len(a.severities)),
	}
	for _, path := range a.files {
		snap.Files = append(snap.Files, FileBucket{
			Path:   path,
			Issues: append([]review.Issue(nil), a.byFile[path]...),
		})
	}
	for k, v := range a.severities {
		snap.SeverityCounts[k] = v
	}
	return snap
}

// FromIssues builds a snapshot from a flat issue list, bucketing by file.
func FromIssues(issues []review.Issue) Snapshot {
	a := New()
	a.Add(issues...)
	return a.Snapshot()
}
