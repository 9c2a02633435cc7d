package rules

import (
	"path/filepath"
	"slices"
	"strings"

	"reviewkit/internal/review"
	"reviewkit/internal/syntax"
)

// Language selects which rule bundle runs for a file.
type Language int

const (
	LanguageGeneric Language = iota
	LanguagePrimary
	LanguageScript
)

func (l Language) String() string {
	switch l {
	case LanguagePrimary:
		return "primary"
	case LanguageScript:
		return "script"
	default:
		return "generic"
	}
}

var extensionLanguages = map[string]Language{
	".py":  LanguagePrimary,
	".js":  LanguageScript,
	".jsx": LanguageScript,
	".mjs": LanguageScript,
	".cjs": LanguageScript,
	".ts":  LanguageScript,
	".tsx": LanguageScript,
}

// LanguageFor maps a path to its Language by extension. Unknown
// extensions are Generic.
func LanguageFor(path string) Language {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LanguageGeneric
}

// File is the input handed to every rule. Tree is only set for Primary
// files that parsed.
type File struct {
	Path     string
	Language Language
	Content  string
	Lines    []string
	Tree     *syntax.Node
}

// NewFile splits content into lines. A trailing "\r" is dropped from each
// line so CRLF files measure the same as LF files.
func NewFile(path string, content string) *File {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &File{
		Path:     path,
		Language: LanguageFor(path),
		Content:  content,
		Lines:    lines,
	}
}

// Rule is a named check. Check must not retain f.
type Rule struct {
	Name      string
	Languages []Language
	Check     func(f *File) []review.Issue
}

// AppliesTo reports whether the rule runs for lang.
func (r Rule) AppliesTo(lang Language) bool {
	return slices.Contains(r.Languages, lang)
}

// DefaultRules returns the built-in rules in the order they run.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "credentials", Languages: []Language{LanguagePrimary, LanguageScript}, Check: CheckCredentials},
		{Name: "docstring", Languages: []Language{LanguagePrimary}, Check: CheckDocstrings},
		{Name: "naming", Languages: []Language{LanguagePrimary}, Check: CheckNaming},
		{Name: "complexity", Languages: []Language{LanguagePrimary}, Check: CheckComplexity},
		{Name: "debug", Languages: []Language{LanguageScript}, Check: CheckDebugStatements},
		{Name: "line-length", Languages: []Language{LanguageGeneric}, Check: CheckLineLength},
		{Name: "trailing-whitespace", Languages: []Language{LanguageGeneric}, Check: CheckTrailingWhitespace},
	}
}

// lineAt returns the 1-based line containing byte offset off.
func lineAt(content string, off int) int {
	return strings.Count(content[:off], "\n") + 1
}
