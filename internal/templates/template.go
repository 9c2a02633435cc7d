// Package templates loads review checklists. A checklist is a Markdown
// file whose "## " headers name sections and whose "- [ ] " lines are the
// items of the section above them.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultName is the checklist used when none is requested.
const DefaultName = "general"

//go:embed builtin/*.md
var builtinFS embed.FS

type Section struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Template is a parsed checklist. Sections keep file order.
type Template struct {
	Name     string    `json:"name"`
	Source   string    `json:"source,omitempty"`
	Sections []Section `json:"sections"`
}

// Empty reports whether the template has no sections.
func (t Template) Empty() bool {
	return len(t.Sections) == 0
}

// Items returns the number of checklist items across all sections.
func (t Template) Items() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Items)
	}
	return n
}

// Section returns the named section.
func (t Template) Section(name string) (Section, bool) {
	for _, s := range t.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Parse reads checklist content. Items before the first header are
// dropped; a repeated header starts over with an empty item list.
func Parse(name, content string) Template {
	t := Template{Name: name}
	current := -1

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "## "):
			title := strings.TrimSpace(line[3:])
			current = t.index(title)
			if current < 0 {
				t.Sections = append(t.Sections, Section{Name: title})
				current = len(t.Sections) - 1
			}
			t.Sections[current].Items = nil
		case strings.HasPrefix(line, "- [ ] ") && current >= 0:
			item := strings.TrimSpace(line[6:])
			t.Sections[current].Items = append(t.Sections[current].Items, item)
		}
	}
	return t
}

func (t Template) index(name string) int {
	for i, s := range t.Sections {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Loader finds checklists by name, first in Dir and then among the
// built-in ones.
type Loader struct {
	Dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{Dir: dir, logger: logger}
}

// Load returns the named checklist. A checklist that cannot be found or
// read is logged and comes back empty.
func (l *Loader) Load(name string) Template {
	if name == "" {
		name = DefaultName
	}

	t, err := l.load(name)
	if err != nil {
		l.logger.Error("template not loaded", "template", name, "dir", l.Dir, "error", err)
		return Template{Name: name}
	}

	l.logger.Debug("template loaded", "template", name, "source", t.Source,
		"sections", len(t.Sections), "items", t.Items())
	return t
}

func (l *Loader) load(name string) (Template, error) {
	file := name + ".md"

	if l.Dir != "" {
		path := filepath.Join(l.Dir, file)
		content, err := os.ReadFile(path)
		if err == nil {
			t := Parse(name, string(content))
			t.Source = path
			return t, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Template{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	content, err := builtinFS.ReadFile("builtin/" + file)
	if err != nil {
		return Template{}, fmt.Errorf("template %q not found: %w", name, fs.ErrNotExist)
	}
	t := Parse(name, string(content))
	t.Source = "builtin"
	return t, nil
}

// Names lists the checklists available from Dir and the built-in set,
// sorted and without duplicates.
func (l *Loader) Names() ([]string, error) {
	seen := make(map[string]bool)

	builtin, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	for _, e := range builtin {
		seen[strings.TrimSuffix(e.Name(), ".md")] = true
	}

	if l.Dir != "" {
		entries, err := os.ReadDir(l.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to list %s: %w", l.Dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
				seen[strings.TrimSuffix(e.Name(), ".md")] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
