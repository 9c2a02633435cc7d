package git

import (
	"bytes"
	"context"
)

// Change is one entry of `git status`. Index and Worktree are the X and Y
// status columns.
type Change struct {
	Path     string
	OldPath  string
	Index    byte
	Worktree byte
}

func (c Change) renamed() bool {
	return c.Index == 'R' || c.Index == 'C' || c.Worktree == 'R' || c.Worktree == 'C'
}

// Staged reports whether the index holds a change for the path.
func (c Change) Staged() bool {
	return c.Index != ' ' && c.Index != '?' && c.Index != '!'
}

func (c Change) Unmerged() bool {
	x, y := c.Index, c.Worktree
	return x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D')
}

// Deleted reports a path removed from the index or the working tree.
func (c Change) Deleted() bool {
	return !c.Unmerged() && (c.Index == 'D' || c.Worktree == 'D')
}

// Status lists staged, unstaged and untracked changes with renames
// detected.
func (w *Worktree) Status(ctx context.Context) ([]Change, error) {
	out, err := run(ctx, w.Root, "status", "--porcelain=v1", "-z", "--untracked-files=all", "--find-renames")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// parseStatus reads `git status --porcelain=v1 -z`. Each entry is
// "XY path"; renames and copies are followed by an extra entry holding
// the original path.
func parseStatus(output []byte) []Change {
	var changes []Change

	entries := bytes.Split(output, []byte{0})
	for i := 0; i < len(entries); i++ {
		entry := string(entries[i])
		if len(entry) < 4 {
			continue
		}

		change := Change{Path: entry[3:], Index: entry[0], Worktree: entry[1]}
		if change.renamed() && i+1 < len(entries) {
			i++
			change.OldPath = string(entries[i])
		}
		changes = append(changes, change)
	}
	return changes
}
