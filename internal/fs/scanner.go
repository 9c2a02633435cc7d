package fs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Scans filesystem for reviewable files
type Scanner struct {
	rootDir     string
	extensions  map[string]bool
	maxFileSize int64
	ignoreDirs  map[string]bool
	mu          sync.RWMutex
	scannedDir  map[string]bool
}

// Represents a file to be reviewed. Skip is non-empty when the file was
// discovered but should not be analysed (too large).
type FileInfo struct {
	Path     string
	Relative string
	Size     int64
	Lines    int
	Skip     string
}

// Config holds scanner configuration
type Config struct {
	RootDir     string
	Extensions  []string
	MaxFileSize int64
	IgnoreDirs  []string
}

const DefaultMaxFileSize = 1024 * 1024

var (
	// DefaultExtensions are the file types reviewed when none are given.
	DefaultExtensions = []string{".py", ".js", ".ts", ".html", ".css"}

	DefaultIgnoreDirs = []string{
		".git",
		"node_modules",
		"vendor",
		"__pycache__",
		".venv",
		"venv",
		".tox",
		".next",
		"dist",
		"build",
		"target",
		"coverage",
		".vscode",
		".idea",
	}
)

// Creates a new filesystem scanner
func NewScanner(cfg Config) (*Scanner, error) {
	if cfg.RootDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		cfg.RootDir = cwd
	}

	rootDir, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}

	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("root directory does not exist: %s", rootDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", rootDir)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	ignoreDirs := make(map[string]bool)
	for _, dir := range DefaultIgnoreDirs {
		ignoreDirs[dir] = true
	}
	for _, dir := range cfg.IgnoreDirs {
		ignoreDirs[dir] = true
	}

	return &Scanner{
		rootDir:     rootDir,
		extensions:  extensions,
		maxFileSize: cfg.MaxFileSize,
		ignoreDirs:  ignoreDirs,
		scannedDir:  make(map[string]bool),
	}, nil
}

// Root returns the absolute directory being scanned.
func (s *Scanner) Root() string {
	return s.rootDir
}

// Matches reports whether path has one of the scanner's extensions.
func (s *Scanner) Matches(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Scan walks the root directory and returns matching files sorted by
// relative path. maxFiles <= 0 means no limit.
func (s *Scanner) Scan(ctx context.Context, maxFiles int) ([]FileInfo, error) {
	gitignorePatterns, err := s.loadGitIgnorePatterns()
	if err != nil {
		return nil, fmt.Errorf("failed to load .gitignore: %w", err)
	}

	s.mu.Lock()
	s.scannedDir = make(map[string]bool)
	s.mu.Unlock()

	var files []FileInfo
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Limits concurrent line counting
	sem := make(chan struct{}, 10)

	err = filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if d.IsDir() {
			return s.handleDirectory(path)
		}

		if s.shouldIgnore(path, gitignorePatterns) || !s.Matches(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Skip files we can't stat
			return nil
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			fileInfo := s.describe(path, info.Size())

			mu.Lock()
			files = append(files, fileInfo)
			mu.Unlock()
		}()

		return nil
	})

	wg.Wait()

	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, fmt.Errorf("walk error: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Relative < files[j].Relative
	})

	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}

	return files, nil
}

// describe builds the FileInfo for a discovered file.
func (s *Scanner) describe(path string, size int64) FileInfo {
	relativePath, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		relativePath = path
	}

	fileInfo := FileInfo{
		Path:     path,
		Relative: filepath.ToSlash(relativePath),
		Size:     size,
	}

	if size > s.maxFileSize {
		fileInfo.Skip = fmt.Sprintf("file exceeds %d bytes", s.maxFileSize)
		return fileInfo
	}

	lines, err := CountLines(path)
	if err == nil {
		fileInfo.Lines = lines
	}
	return fileInfo
}

// Describe builds the FileInfo for one file under the scanner's root,
// applying the same size limit as Scan.
func (s *Scanner) Describe(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return s.describe(path, info.Size()), nil
}

// Stat describes a single file outside of a directory walk.
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}

	lines, err := CountLines(path)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:     path,
		Relative: filepath.ToSlash(path),
		Size:     info.Size(),
		Lines:    lines,
	}, nil
}

// loadGitIgnorePatterns collects patterns from .gitignore files in the
// root directory and its parents.
func (s *Scanner) loadGitIgnorePatterns() ([]string, error) {
	var patterns []string

	dir := s.rootDir
	for {
		var err error
		patterns, err = s.parseGitIgnoreFile(filepath.Join(dir, ".gitignore"), patterns)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return patterns, nil
}

// parseGitIgnoreFile parses a .gitignore file
func (s *Scanner) parseGitIgnoreFile(path string, existingPatterns []string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return existingPatterns, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Negated patterns are not supported
		if strings.HasPrefix(line, "!") {
			continue
		}

		if strings.HasSuffix(line, "/") {
			line = strings.TrimSuffix(line, "/") + "/*"
		}
		pattern := strings.ReplaceAll(line, "**/", "*")

		existingPatterns = append(existingPatterns, pattern)
	}

	if err := scanner.Err(); err != nil {
		return existingPatterns, fmt.Errorf("error reading .gitignore: %w", err)
	}
	return existingPatterns, nil
}

// CountLines counts the lines in a file; a final line without a trailing
// newline still counts.
func CountLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return countLinesFromReader(file)
}

func countLinesFromReader(r io.Reader) (int, error) {
	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxFileSize)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

// handleDirectory decides whether to skip a directory
func (s *Scanner) handleDirectory(path string) error {
	if path != s.rootDir && s.ignoreDirs[filepath.Base(path)] {
		return fs.SkipDir
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scannedDir[path] {
		return fs.SkipDir
	}
	s.scannedDir[path] = true

	return nil
}

// shouldIgnore checks if a file should be ignored based on .gitignore patterns
func (s *Scanner) shouldIgnore(path string, patterns []string) bool {
	relPath, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		return true
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		matched, err := filepath.Match(pattern, relPath)
		if err == nil && matched {
			return true
		}

		matched, err = filepath.Match(pattern, filepath.Base(relPath))
		if err == nil && matched {
			return true
		}
	}

	return false
}
