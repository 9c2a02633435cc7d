package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewkit/internal/config"
	"reviewkit/internal/metrics"
	"reviewkit/internal/output"
)

const (
	appPy          = "\"\"\"App module.\"\"\"\n\npassword = \"hunter2\"\n\n\ndef run_app():\n    \"\"\"Run.\"\"\"\n    return 1\n"
	siteJS         = "console.log('hi');\n"
	cleanCSS       = "body { color: red; }\n"
	undocumentedPy = "\"\"\"Tools.\"\"\"\n\n\ndef helper():\n    return 2\n"
)

// workspace writes files under a fresh directory, makes it the working
// directory and points HOME elsewhere so no user config is picked up.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), append(args, "--no-color"), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute_ReviewDirectory(t *testing.T) {
	dir := workspace(t, map[string]string{
		"app.py":      appPy,
		"web/site.js": siteJS,
		"clean.css":   cleanCSS,
		"notes.txt":   "password = 'not scanned'\n",
	})
	metricsPath := filepath.Join(t.TempDir(), "out", "metrics.json")

	code, stdout, stderr := run(t, dir, "--metrics-out", metricsPath)
	require.Equal(t, 2, code, stderr)

	want := strings.Join([]string{
		"# Code Review Report",
		"",
		"## Summary",
		"",
		"- Files reviewed: 3",
		"- Total issues found: 2",
		"",
		"### Issues by Category",
		"",
		"- Security: 1",
		"- Debug: 1",
		"",
		"## Detailed Findings",
		"",
		"### File: `app.py`",
		"",
		"#### High Severity Issues",
		"",
		"- **Line 3** (Security): Potential hardcoded credential detected",
		"",
		"### File: `web/site.js`",
		"",
		"#### Low Severity Issues",
		"",
		"- **Line 1** (Debug): console.log statement should be removed in production code",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, stdout)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	assert.NotEmpty(t, snap.ReviewID)
	assert.Equal(t, 3, snap.Coverage.FilesReviewed)
	assert.Equal(t, 3, snap.Coverage.TotalFiles)
	assert.InDelta(t, 100.0, snap.Coverage.FileCoveragePercent, 0.001)
	assert.Equal(t, 1, snap.Issues.Security)
	assert.Equal(t, 1, snap.Issues.Other)
	assert.Equal(t, 2, snap.Issues.Total)
	assert.Contains(t, snap.Timing, "file_review")
	assert.Contains(t, snap.Timing, "pipeline")
	require.Contains(t, snap.FileMetrics, "app.py")
	assert.Equal(t, 1, snap.FileMetrics["app.py"].Issues.Security)
	assert.NotNil(t, snap.FileMetrics["app.py"].ReviewTime)
}

func TestExecute_CleanFile(t *testing.T) {
	dir := workspace(t, map[string]string{"clean.py": "\"\"\"Clean.\"\"\"\n"})

	code, stdout, _ := run(t, filepath.Join(dir, "clean.py"))
	assert.Equal(t, 0, code)
	assert.Equal(t, "# Code Review Report\n\nNo issues found in the code review.\n", stdout)
}

func TestExecute_JSONReportToFile(t *testing.T) {
	dir := workspace(t, map[string]string{"tools.py": undocumentedPy})
	reportPath := filepath.Join(dir, "reports", "review.json")

	code, stdout, stderr := run(t, ".", "--format", "json", "-o", reportPath, "--summary", "--template", "security")
	require.Equal(t, 1, code, stderr)
	assert.Contains(t, stdout, "CODE REVIEW METRICS SUMMARY")
	assert.Contains(t, stdout, "Files reviewed: 1 of 1")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var out output.JSONOutput
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "security", out.Meta.Template)
	assert.Equal(t, 1, out.Summary.MediumCount)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "tools.py", out.Results[0].Path)
	assert.Equal(t, "Missing docstring for function 'helper'", out.Results[0].Issues[0].Message)
}

func TestExecute_Errors(t *testing.T) {
	workspace(t, map[string]string{"a.py": "\"\"\"A.\"\"\"\n"})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing path", []string{"does-not-exist"}, "path not found"},
		{"bad format", []string{".", "--format", "xml"}, "invalid format"},
		{"bad language", []string{".", "--lang", "cobol"}, "unsupported language"},
		{"changed and staged", []string{".", "--changed", "--staged"}, "mutually exclusive"},
		{"too many args", []string{"a", "b"}, "accepts at most 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, tt.args...)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestExecute_ConfigFileAndEnv(t *testing.T) {
	dir := workspace(t, map[string]string{
		"a.py":            "\"\"\"A.\"\"\"\n",
		"b.js":            siteJS,
		".reviewkit.yaml": "languages: [python]\noutput:\n  format: json\n",
	})

	code, stdout, stderr := run(t, dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"tool": "reviewkit"`)
	assert.NotContains(t, stdout, "b.js")

	t.Setenv("REVIEWKIT_OUTPUT_FORMAT", "markdown")
	code, stdout, _ = run(t, dir, "--lang", "javascript")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "### File: `b.js`")
}

func TestRunReview_MaxFiles(t *testing.T) {
	workspace(t, map[string]string{"a.js": siteJS, "b.js": siteJS, "c.js": siteJS})

	cfg := config.Default()
	cfg.MaxFiles = 2
	cfg.Output.NoColor = true
	cfg.Output.Summary = true

	var stdout, stderr bytes.Buffer
	code, err := RunReview(context.Background(), &cfg, ".", Streams{Out: &stdout, Err: &stderr}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "- Files reviewed: 2")
	assert.NotContains(t, stdout.String(), "c.js")
	assert.Contains(t, stderr.String(), "Files reviewed: 2 of 3")
}

func TestRunReview_ChangedOutsideGitReviewsEverything(t *testing.T) {
	workspace(t, map[string]string{"a.js": siteJS, "b.js": siteJS})

	cfg := config.Default()
	cfg.ChangedOnly = true
	cfg.Output.NoColor = true

	var stdout bytes.Buffer
	_, err := RunReview(context.Background(), &cfg, ".", Streams{Out: &stdout, Err: io.Discard}, quietLogger())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "- Files reviewed: 2")
}

func TestRunReview_StagedOnly(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := workspace(t, map[string]string{
		"staged.py":   undocumentedPy,
		"unstaged.py": appPy,
	})
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
		{"add", "staged.py"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), "git %v", args)
	}

	cfg := config.Default()
	cfg.StagedOnly = true
	cfg.Output.NoColor = true

	var stdout bytes.Buffer
	code, err := RunReview(context.Background(), &cfg, dir, Streams{Out: &stdout, Err: io.Discard}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "### File: `staged.py`")
	assert.NotContains(t, stdout.String(), "unstaged.py")

	cfg.StagedOnly = false
	cfg.ChangedOnly = true
	stdout.Reset()
	code, err = RunReview(context.Background(), &cfg, dir, Streams{Out: &stdout, Err: io.Discard}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Contains(t, stdout.String(), "### File: `unstaged.py`")
}

func TestConfigInitCommand(t *testing.T) {
	dir := workspace(t, nil)
	path := filepath.Join(dir, "conf", "reviewkit.yaml")

	code, stdout, stderr := run(t, "config", "init", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Config file created")

	code, _, stderr = run(t, "config", "init", path)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = run(t, "config", "init", path, "--force")
	assert.Equal(t, 0, code)

	code, stdout, _ = run(t, "config", "show", "--config", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "# config file: "+path)
	assert.Contains(t, stdout, "format: markdown")
}

func TestLanguagesAndTemplatesCommands(t *testing.T) {
	workspace(t, nil)

	code, stdout, _ := run(t, "languages")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "TypeScript")
	assert.Contains(t, stdout, ".tsx")

	code, stdout, _ = run(t, "templates")
	assert.Equal(t, 0, code)
	assert.Equal(t, "general\nperformance\nsecurity\n", stdout)

	code, stdout, _ = run(t, "templates", "security")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Secrets")
	assert.Contains(t, stdout, "  [ ] No hardcoded passwords, API keys, secrets or tokens")

	code, _, stderr := run(t, "templates", "missing")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "not found")
}
