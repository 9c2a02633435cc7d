package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"reviewkit/internal/fs"
	"reviewkit/internal/logging"
	"reviewkit/internal/metrics"
	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

// Engine runs the registered rules against files. It is safe for
// concurrent use; every Review call works on its own parse tree.
type Engine struct {
	mu       sync.RWMutex
	rules    []Rule
	recorder *metrics.Recorder
	logger   *slog.Logger
}

type Option func(*Engine)

// WithRecorder times the "parse" and "rules" activities of every review.
func WithRecorder(r *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithoutDefaults starts the engine with no rules registered.
func WithoutDefaults() Option {
	return func(e *Engine) { e.rules = nil }
}

// NewEngine creates an engine with DefaultRules registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:  DefaultRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register appends rules; they run after those already registered.
func (e *Engine) Register(rules ...Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rules...)
}

// Rules returns the registered rules in run order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Rule(nil), e.rules...)
}

func (e *Engine) Name() string {
	return "rules"
}

// ReviewFile reads file and reviews it. Read failures are returned as
// errors; every other problem becomes an issue or a log line.
func (e *Engine) ReviewFile(ctx context.Context, file *fs.FileInfo) ([]review.Issue, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
	}

	name := file.Relative
	if name == "" {
		name = file.Path
	}
	return e.Review(ctx, name, content), nil
}

// Review runs every rule that applies to path's language over content and
// returns their issues in rule order. A Primary file that does not parse
// yields a single Syntax issue and nothing else.
func (e *Engine) Review(ctx context.Context, path string, content []byte) []review.Issue {
	ctx = logging.WithComponent(logging.WithFile(ctx, path), "rules")
	f := NewFile(path, string(content))

	if f.Language == LanguagePrimary {
		tree, issue, ok := e.parse(ctx, f)
		if !ok {
			if issue != nil {
				return []review.Issue{*issue}
			}
			return nil
		}
		f.Tree = tree
	}

	timer := e.recorder.StartTimer("rules", "")
	defer timer.Stop()

	var issues []review.Issue
	for _, rule := range e.Rules() {
		if !rule.AppliesTo(f.Language) {
			continue
		}
		issues = append(issues, e.runRule(ctx, rule, f)...)
	}
	return issues
}

// parse builds the tree for a Primary file. On a syntax error it returns
// the issue to report instead.
func (e *Engine) parse(ctx context.Context, f *File) (*syntax.Node, *review.Issue, bool) {
	timer := e.recorder.StartTimer("parse", "")
	tree, err := syntax.ParsePython(ctx, []byte(f.Content))
	timer.Stop()

	if err == nil {
		return tree, nil, true
	}

	var perr *syntax.ParseError
	if !errors.As(err, &perr) {
		e.logger.WarnContext(ctx, "parse aborted", "error", err)
		return nil, nil, false
	}

	e.logger.DebugContext(ctx, "syntax error", "line", perr.Line, "error", perr.Msg)
	return nil, &review.Issue{
		File:     f.Path,
		Line:     perr.Line,
		Category: review.CategorySyntax,
		Severity: review.SeverityHigh,
		Message:  "Syntax error: " + perr.Error(),
	}, false
}

// runRule calls one rule, turning a panic into a log line and no issues.
func (e *Engine) runRule(ctx context.Context, rule Rule, f *File) (issues []review.Issue) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.ErrorContext(ctx, "rule failed", "rule", rule.Name, "panic", rec)
			issues = nil
		}
	}()
	return rule.Check(f)
}
