package fs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestNewScanner(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantErr   bool
		checkFunc func(*testing.T, *Scanner)
	}{
		{
			name: "valid config with root dir",
			config: Config{
				RootDir:     t.TempDir(),
				Extensions:  []string{".py", "js"},
				MaxFileSize: 1024,
			},
			checkFunc: func(t *testing.T, s *Scanner) {
				if s.rootDir == "" {
					t.Error("rootDir should be set")
				}
				if !s.extensions[".py"] || !s.extensions[".js"] {
					t.Errorf("expected .py and .js extensions, got %v", s.extensions)
				}
				if s.maxFileSize != 1024 {
					t.Errorf("expected maxFileSize 1024, got %d", s.maxFileSize)
				}
			},
		},
		{
			name:   "empty root dir uses current dir",
			config: Config{},
			checkFunc: func(t *testing.T, s *Scanner) {
				if s.rootDir == "" {
					t.Error("rootDir should be set")
				}
			},
		},
		{
			name:    "invalid root dir",
			config:  Config{RootDir: "/nonexistent/path/123456"},
			wantErr: true,
		},
		{
			name:   "default values",
			config: Config{RootDir: t.TempDir()},
			checkFunc: func(t *testing.T, s *Scanner) {
				if s.maxFileSize != DefaultMaxFileSize {
					t.Errorf("expected default maxFileSize %d, got %d", DefaultMaxFileSize, s.maxFileSize)
				}
				for _, ext := range DefaultExtensions {
					if !s.extensions[ext] {
						t.Errorf("missing default extension: %s", ext)
					}
				}
				for _, dir := range DefaultIgnoreDirs {
					if !s.ignoreDirs[dir] {
						t.Errorf("missing default ignore dir: %s", dir)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner, err := NewScanner(tt.config)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if tt.checkFunc != nil {
				tt.checkFunc(t, scanner)
			}
		})
	}
}

func TestNewScanner_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewScanner(Config{RootDir: path}); err == nil {
		t.Error("expected error for file root, got nil")
	}
}

func TestScanner_Scan(t *testing.T) {
	ctx := context.Background()
	testDir := t.TempDir()
	createTestDirStructure(t, testDir)

	scanner, err := NewScanner(Config{
		RootDir:     testDir,
		MaxFileSize: 5000,
	})
	if err != nil {
		t.Fatal(err)
	}

	files, err := scanner.Scan(ctx, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{
		"main.py",
		"src/main/app.js",
		"src/main/app.py",
		"src/main/large.py",
		"src/static/site.css",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %+v", len(want), len(files), files)
	}

	for i, file := range files {
		if file.Relative != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, file.Relative, want[i])
		}
		if file.Relative == "src/main/large.py" {
			if file.Skip == "" {
				t.Error("large.py should be marked as skipped")
			}
			continue
		}
		if file.Skip != "" {
			t.Errorf("%s unexpectedly skipped: %s", file.Relative, file.Skip)
		}
		if file.Lines == 0 {
			t.Errorf("%s has no line count", file.Relative)
		}
	}
}

func TestScanner_ScanWithMaxFiles(t *testing.T) {
	ctx := context.Background()
	testDir := t.TempDir()

	for i := 0; i < 15; i++ {
		path := filepath.Join(testDir, fmt.Sprintf("file%02d.py", i))
		content := fmt.Sprintf("# File %d\n", i)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	scanner, err := NewScanner(Config{RootDir: testDir})
	if err != nil {
		t.Fatal(err)
	}

	files, err := scanner.Scan(ctx, 5)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 5 {
		t.Errorf("expected 5 files with limit, got %d", len(files))
	}
	if files[0].Relative != "file00.py" {
		t.Errorf("expected sorted output, first file is %s", files[0].Relative)
	}

	files, err = scanner.Scan(ctx, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 15 {
		t.Errorf("expected 15 files without limit, got %d", len(files))
	}
}

func TestScanner_ContextCancellation(t *testing.T) {
	testDir := t.TempDir()

	for i := 0; i < 100; i++ {
		path := filepath.Join(testDir, fmt.Sprintf("file%d.py", i))
		if err := os.WriteFile(path, []byte("pass\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	scanner, err := NewScanner(Config{RootDir: testDir})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, err := scanner.Scan(ctx, 100)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
	if len(files) > 0 {
		t.Errorf("expected no files due to cancellation, got %d", len(files))
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"empty", "", 0},
		{"single line", "Hello", 1},
		{"multiple lines", "Line1\nLine2\nLine3", 3},
		{"trailing newline", "Line1\nLine2\n", 2},
		{"empty lines", "\n\n\n", 3},
		{"mixed", "Line1\n\nLine3\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "test.txt")
			if err := os.WriteFile(testFile, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			lines, err := CountLines(testFile)
			if err != nil {
				t.Errorf("CountLines failed: %v", err)
			}
			if lines != tt.expected {
				t.Errorf("CountLines() = %d, want %d", lines, tt.expected)
			}
		})
	}
}

func TestCountLinesFromReader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty", "", 0},
		{"single line", "Hello", 1},
		{"multiple lines", "Line1\nLine2\nLine3", 3},
		{"with carriage return", "Line1\r\nLine2\r\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := countLinesFromReader(bytes.NewReader([]byte(tt.input)))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if lines != tt.expected {
				t.Errorf("countLinesFromReader() = %d, want %d", lines, tt.expected)
			}
		})
	}
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.py")
	if err := os.WriteFile(path, []byte("a = 1\nb = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", info.Lines)
	}

	if _, err := Stat(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := Stat(filepath.Join(dir, "missing.py")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestShouldIgnore(t *testing.T) {
	testDir := t.TempDir()
	scanner := &Scanner{rootDir: testDir}

	patterns := []string{
		"*.log",
		"node_modules/*",
		"*temp/*",
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"file.log", true},
		{"node_modules/index.js", true},
		{"temp/file.txt", true},
		{"src/main/app.py", false},
		{"test.log.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			fullPath := filepath.Join(testDir, tt.path)
			result := scanner.shouldIgnore(fullPath, patterns)
			if result != tt.expected {
				t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestScanner_Describe(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "pkg", "small.py")
	big := filepath.Join(dir, "big.py")
	if err := os.MkdirAll(filepath.Dir(small), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(small, []byte("a = 1\nb = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(big, bytes.Repeat([]byte("x"), 64), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewScanner(Config{RootDir: dir, MaxFileSize: 32})
	if err != nil {
		t.Fatal(err)
	}

	info, err := s.Describe(small)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if info.Relative != "pkg/small.py" || info.Lines != 2 || info.Skip != "" {
		t.Errorf("unexpected info: %+v", info)
	}

	info, err = s.Describe(big)
	if err != nil {
		t.Fatal(err)
	}
	if info.Skip == "" {
		t.Error("expected oversized file to be skipped")
	}

	if _, err := s.Describe(filepath.Join(dir, "pkg")); err == nil {
		t.Error("expected error for directory")
	}
}
