package metrics

import (
	"sort"
)

// Snapshot is a point-in-time view of a Recorder, shaped for export.
type Snapshot struct {
	ReviewID             string                `json:"review_id" yaml:"review_id"`
	ReviewStartTime      string                `json:"review_start_time" yaml:"review_start_time"`
	ReviewEndTime        string                `json:"review_end_time" yaml:"review_end_time"`
	TotalDurationSeconds float64               `json:"total_duration_seconds" yaml:"total_duration_seconds"`
	Timing               map[string][]float64  `json:"timing" yaml:"timing"`
	Coverage             Coverage              `json:"coverage" yaml:"coverage"`
	Issues               IssueTotals           `json:"issues" yaml:"issues"`
	FileMetrics          map[string]FileMetric `json:"file_metrics" yaml:"file_metrics"`

	// Files and Activities keep first-seen order; they are not exported.
	Files      []string `json:"-" yaml:"-"`
	Activities []string `json:"-" yaml:"-"`
}

type Coverage struct {
	CoverageStats       `yaml:",inline"`
	FileCoveragePercent float64 `json:"file_coverage_percent" yaml:"file_coverage_percent"`
	LineCoveragePercent float64 `json:"line_coverage_percent" yaml:"line_coverage_percent"`
}

type IssueTotals struct {
	IssueCounts        `yaml:",inline"`
	Total              int     `json:"total" yaml:"total"`
	IssuesPer1000Lines float64 `json:"issues_per_1000_lines" yaml:"issues_per_1000_lines"`
}

// TimingStat holds derived statistics for one activity, in seconds.
type TimingStat struct {
	Activity string  `json:"activity"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

func computeTimingStat(activity string, samples []float64) TimingStat {
	stat := TimingStat{Activity: activity, Count: len(samples)}
	if len(samples) == 0 {
		return stat
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	for _, s := range sorted {
		stat.Total += s
	}
	stat.Mean = stat.Total / float64(len(sorted))
	stat.Min = sorted[0]
	stat.Max = sorted[len(sorted)-1]

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stat.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stat.Median = sorted[mid]
	}
	return stat
}

// TimingStats returns statistics for every activity. Activities come in
// first-seen order when known, otherwise sorted by name.
func (s Snapshot) TimingStats() []TimingStat {
	activities := s.Activities
	if len(activities) != len(s.Timing) {
		activities = make([]string, 0, len(s.Timing))
		for activity := range s.Timing {
			activities = append(activities, activity)
		}
		sort.Strings(activities)
	}

	stats := make([]TimingStat, 0, len(activities))
	for _, activity := range activities {
		stats = append(stats, computeTimingStat(activity, s.Timing[activity]))
	}
	return stats
}

// FileIssueCount pairs a file with its total issue count.
type FileIssueCount struct {
	File   string
	Issues int
}

// TopFiles returns up to n files with at least one issue, most issues
// first. Ties keep first-seen order.
func (s Snapshot) TopFiles(n int) []FileIssueCount {
	files := s.Files
	if len(files) != len(s.FileMetrics) {
		files = make([]string, 0, len(s.FileMetrics))
		for name := range s.FileMetrics {
			files = append(files, name)
		}
		sort.Strings(files)
	}

	var counts []FileIssueCount
	for _, name := range files {
		total := s.FileMetrics[name].Issues.Total()
		if total > 0 {
			counts = append(counts, FileIssueCount{File: name, Issues: total})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Issues > counts[j].Issues
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
