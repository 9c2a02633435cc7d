package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotARepository = errors.New("not a git repository")
	ErrGitNotFound    = errors.New("git command not found")
)

// Worktree is the working tree of a git repository. Root is the absolute
// top-level directory as git reports it.
type Worktree struct {
	Root string
}

// Open finds the working tree that contains path, which may be a file or a
// directory anywhere below the top level.
func Open(ctx context.Context, path string) (*Worktree, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrGitNotFound
	}

	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrNotARepository, dir, err)
	}

	root := strings.TrimSpace(string(out))
	if root == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}
	return &Worktree{Root: filepath.FromSlash(root)}, nil
}

// ChangedFiles returns the files git reports as changed under dir, as
// sorted absolute paths rooted at dir. With stagedOnly only changes
// recorded in the index count. Deleted files and paths that are not
// regular files on disk are left out. An empty dir means the whole tree.
func (w *Worktree) ChangedFiles(ctx context.Context, dir string, stagedOnly bool) ([]string, error) {
	base, scope, err := w.scope(dir)
	if err != nil {
		return nil, err
	}

	changes, err := w.Status(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(changes))
	var paths []string
	for _, change := range changes {
		if change.Deleted() || (stagedOnly && !change.Staged()) {
			continue
		}

		rel, err := filepath.Rel(scope, filepath.FromSlash(change.Path))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		path := filepath.Join(base, rel)
		if seen[path] {
			continue
		}
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}

	sort.Strings(paths)
	return paths, nil
}

// scope resolves dir to the absolute directory results are rooted at and
// its location relative to the top level. git reports the top level with
// symlinks resolved, so dir is resolved too before comparing.
func (w *Worktree) scope(dir string) (base, rel string, err error) {
	if dir == "" {
		return w.Root, ".", nil
	}

	base, err = filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	root, err := filepath.EvalSymlinks(w.Root)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", w.Root, err)
	}

	rel, err = filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%s is outside the working tree %s", dir, w.Root)
	}
	return base, rel, nil
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("git %s failed: %s", args[0], bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return out, nil
}
