package metrics

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TimestampFormat is the layout used for review start and end times.
const TimestampFormat = "2006-01-02T15:04:05.000000"

// FileMetric describes one reviewed file. ReviewTime stays nil until a
// timing observation is tied to the file.
type FileMetric struct {
	LinesReviewed   int           `json:"lines_reviewed" yaml:"lines_reviewed"`
	TotalLines      int           `json:"total_lines" yaml:"total_lines"`
	CoveragePercent float64       `json:"coverage_percent" yaml:"coverage_percent"`
	ReviewTime      *float64      `json:"review_time" yaml:"review_time"`
	Issues          IssueCounts   `json:"issues" yaml:"issues"`
	IssueDetails    []IssueDetail `json:"issue_details,omitempty" yaml:"issue_details,omitempty"`
}

// IssueDetail is a single recorded issue. Line and Description are nil
// when the caller did not supply them.
type IssueDetail struct {
	Type        Category `json:"type" yaml:"type"`
	Line        *int     `json:"line" yaml:"line"`
	Description *string  `json:"description" yaml:"description"`
}

// CoverageStats are the run-wide counters.
type CoverageStats struct {
	FilesReviewed int `json:"files_reviewed" yaml:"files_reviewed"`
	LinesReviewed int `json:"lines_reviewed" yaml:"lines_reviewed"`
	TotalFiles    int `json:"total_files" yaml:"total_files"`
	TotalLines    int `json:"total_lines" yaml:"total_lines"`
}

// Recorder collects coverage, timing and issue counts for one review run.
// All methods are safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	id    string
	clock func() time.Time
	start time.Time

	coverage CoverageStats
	issues   IssueCounts

	timing      map[string][]time.Duration
	timingOrder []string

	files     map[string]*FileMetric
	fileOrder []string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now as the recorder's source of "now".
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithID sets the review identifier instead of generating a ULID.
func WithID(id string) Option {
	return func(r *Recorder) {
		r.id = id
	}
}

// NewRecorder creates a recorder whose review starts now.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		clock:  time.Now,
		timing: make(map[string][]time.Duration),
		files:  make(map[string]*FileMetric),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = newReviewID(r.clock())
	}
	r.start = r.clock()
	return r
}

func newReviewID(now time.Time) string {
	entropy := rand.New(rand.NewSource(now.UnixNano()))
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(entropy, 0)).String()
}

// ID returns the review identifier.
func (r *Recorder) ID() string {
	return r.id
}

// RecordFileReview counts a reviewed file and (re)creates its FileMetric.
// Counters increase on every call, including repeats for the same file;
// a repeat replaces the metric but the file keeps its original position.
func (r *Recorder) RecordFileReview(filename string, linesReviewed, totalLines int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coverage.FilesReviewed++
	r.coverage.LinesReviewed += linesReviewed

	coverage := 100.0
	if totalLines > 0 {
		coverage = float64(linesReviewed) / float64(totalLines) * 100
	}

	if _, ok := r.files[filename]; !ok {
		r.fileOrder = append(r.fileOrder, filename)
	}
	r.files[filename] = &FileMetric{
		LinesReviewed:   linesReviewed,
		TotalLines:      totalLines,
		CoveragePercent: coverage,
	}
}

// SetTotalCodebaseSize overwrites the codebase totals.
func (r *Recorder) SetTotalCodebaseSize(files, lines int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coverage.TotalFiles = files
	r.coverage.TotalLines = lines
}

// RecordIssue counts an issue under category, folding unknown categories
// into "other". When filename has a FileMetric the issue is also counted
// there, and a detail is kept if line (> 0) or description (non-empty)
// was given.
func (r *Recorder) RecordIssue(category string, filename string, line int, description string) {
	c := ParseCategory(category)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.issues.add(c)

	fm, ok := r.files[filename]
	if !ok {
		return
	}
	fm.Issues.add(c)

	if line <= 0 && description == "" {
		return
	}

	detail := IssueDetail{Type: c}
	if line > 0 {
		l := line
		detail.Line = &l
	}
	if description != "" {
		d := description
		detail.Description = &d
	}
	fm.IssueDetails = append(fm.IssueDetails, detail)
}

// RecordTiming appends elapsed to the activity's samples. If filename has
// a FileMetric its review time becomes elapsed.
func (r *Recorder) RecordTiming(activity, filename string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timing[activity]; !ok {
		r.timingOrder = append(r.timingOrder, activity)
	}
	r.timing[activity] = append(r.timing[activity], elapsed)

	if filename == "" {
		return
	}
	if fm, ok := r.files[filename]; ok {
		seconds := elapsed.Seconds()
		fm.ReviewTime = &seconds
	}
}

// Snapshot computes the current metrics. Nothing is cached: end time and
// duration are taken from the clock on every call.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()

	snap := Snapshot{
		ReviewID:             r.id,
		ReviewStartTime:      r.start.Format(TimestampFormat),
		ReviewEndTime:        now.Format(TimestampFormat),
		TotalDurationSeconds: now.Sub(r.start).Seconds(),
		Timing:               make(map[string][]float64, len(r.timing)),
		Coverage: Coverage{
			CoverageStats: r.coverage,
		},
		FileMetrics: make(map[string]FileMetric, len(r.files)),
		Files:       append([]string(nil), r.fileOrder...),
		Activities:  append([]string(nil), r.timingOrder...),
	}

	for activity, samples := range r.timing {
		seconds := make([]float64, len(samples))
		for i, d := range samples {
			seconds[i] = d.Seconds()
		}
		snap.Timing[activity] = seconds
	}

	if r.coverage.TotalFiles > 0 {
		snap.Coverage.FileCoveragePercent = float64(r.coverage.FilesReviewed) / float64(r.coverage.TotalFiles) * 100
	}
	if r.coverage.TotalLines > 0 {
		snap.Coverage.LineCoveragePercent = float64(r.coverage.LinesReviewed) / float64(r.coverage.TotalLines) * 100
	}

	snap.Issues = IssueTotals{
		IssueCounts: r.issues,
		Total:       r.issues.Total(),
	}
	if r.coverage.LinesReviewed > 0 {
		snap.Issues.IssuesPer1000Lines = float64(snap.Issues.Total) / float64(r.coverage.LinesReviewed) * 1000
	}

	for name, fm := range r.files {
		snap.FileMetrics[name] = fm.clone()
	}

	return snap
}

// TimingStats summarises the samples recorded for activity.
func (r *Recorder) TimingStats(activity string) (TimingStat, bool) {
	r.mu.Lock()
	samples := r.timing[activity]
	seconds := make([]float64, len(samples))
	for i, d := range samples {
		seconds[i] = d.Seconds()
	}
	r.mu.Unlock()

	if len(seconds) == 0 {
		return TimingStat{Activity: activity}, false
	}
	return computeTimingStat(activity, seconds), true
}

func (fm *FileMetric) clone() FileMetric {
	out := *fm
	if fm.ReviewTime != nil {
		t := *fm.ReviewTime
		out.ReviewTime = &t
	}
	if fm.IssueDetails != nil {
		out.IssueDetails = append([]IssueDetail(nil), fm.IssueDetails...)
	}
	return out
}
