package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func setupTestRepository(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	testDir := t.TempDir()
	gitCmd(t, testDir, "init")
	gitCmd(t, testDir, "config", "user.email", "test@example.com")
	gitCmd(t, testDir, "config", "user.name", "Test User")

	// git reports the top level with symlinks resolved
	resolved, err := filepath.EvalSymlinks(testDir)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpen(t *testing.T) {
	testDir := setupTestRepository(t)
	ctx := context.Background()

	w, err := Open(ctx, testDir)
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	if w.Root != testDir {
		t.Errorf("expected root %s, got %s", testDir, w.Root)
	}

	// From a nested directory and from a file
	writeFiles(t, testDir, map[string]string{"src/main/app.py": "x = 1\n"})
	for _, start := range []string{
		filepath.Join(testDir, "src", "main"),
		filepath.Join(testDir, "src", "main", "app.py"),
	} {
		w, err := Open(ctx, start)
		if err != nil {
			t.Fatalf("failed to open worktree from %s: %v", start, err)
		}
		if w.Root != testDir {
			t.Errorf("expected root %s from %s, got %s", testDir, start, w.Root)
		}
	}

	_, err = Open(ctx, t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Errorf("expected ErrNotARepository outside a repository, got %v", err)
	}
}

func TestWorktree_Status(t *testing.T) {
	testDir := setupTestRepository(t)
	ctx := context.Background()

	writeFiles(t, testDir, map[string]string{
		"staged.py":   "def staged():\n    pass\n",
		"unstaged.py": "def unstaged():\n    pass\n",
		"modified.py": "def original():\n    pass\n",
		"deleted.py":  "def deleted():\n    pass\n",
	})
	gitCmd(t, testDir, "add", "staged.py", "modified.py", "deleted.py")
	writeFiles(t, testDir, map[string]string{"modified.py": "def modified():\n    pass\n"})
	if err := os.Remove(filepath.Join(testDir, "deleted.py")); err != nil {
		t.Fatal(err)
	}

	w, err := Open(ctx, testDir)
	if err != nil {
		t.Fatal(err)
	}
	changes, err := w.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	got := make(map[string]string)
	for _, c := range changes {
		got[c.Path] = string([]byte{c.Index, c.Worktree})
	}
	want := map[string]string{
		"staged.py":   "A ",
		"unstaged.py": "??",
		"modified.py": "AM",
		"deleted.py":  "AD",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWorktree_ChangedFiles(t *testing.T) {
	testDir := setupTestRepository(t)
	ctx := context.Background()

	writeFiles(t, testDir, map[string]string{
		"top.py":          "x = 1\n",
		"pkg/sub/deep.py": "x = 1\n",
		"pkg/staged.js":   "x = 1\n",
		"pkg/gone.js":     "x = 1\n",
	})
	gitCmd(t, testDir, "add", "pkg/staged.js", "pkg/gone.js")
	if err := os.Remove(filepath.Join(testDir, "pkg", "gone.js")); err != nil {
		t.Fatal(err)
	}

	w, err := Open(ctx, testDir)
	if err != nil {
		t.Fatal(err)
	}

	all, err := w.ChangedFiles(ctx, "", false)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(testDir, "pkg", "staged.js"),
		filepath.Join(testDir, "pkg", "sub", "deep.py"),
		filepath.Join(testDir, "top.py"),
	}
	if fmt.Sprint(all) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, all)
	}

	staged, err := w.ChangedFiles(ctx, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != want[0] {
		t.Errorf("expected only %s staged, got %v", want[0], staged)
	}

	scoped, err := w.ChangedFiles(ctx, filepath.Join(testDir, "pkg"), false)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(scoped) != fmt.Sprint(want[:2]) {
		t.Errorf("expected %v under pkg, got %v", want[:2], scoped)
	}

	if _, err := w.ChangedFiles(ctx, t.TempDir(), false); err == nil {
		t.Error("expected an error for a directory outside the working tree")
	}
}

func TestWorktree_ChangedFilesKeepsCallerRoot(t *testing.T) {
	testDir := setupTestRepository(t)
	ctx := context.Background()
	writeFiles(t, testDir, map[string]string{"pkg/a.py": "x = 1\n"})

	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(testDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	w, err := Open(ctx, link)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := w.ChangedFiles(ctx, filepath.Join(link, "pkg"), false)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(link, "pkg", "a.py")
	if len(paths) != 1 || paths[0] != want {
		t.Errorf("expected [%s], got %v", want, paths)
	}
}
