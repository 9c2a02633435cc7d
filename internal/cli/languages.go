package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"reviewkit/internal/rules"
)

var SupportedLanguages = map[string][]string{
	"python":     {".py"},
	"javascript": {".js", ".jsx", ".mjs", ".cjs"},
	"typescript": {".ts", ".tsx"},
	"html":       {".html", ".htm"},
	"css":        {".css"},
}

type LanguageDisplay struct {
	ID   int
	Name string
	key  string
}

var LanguageList = []LanguageDisplay{
	{1, "Python", "python"},
	{2, "JavaScript", "javascript"},
	{3, "TypeScript", "typescript"},
	{4, "HTML", "html"},
	{5, "CSS", "css"},
}

// ParseLanguages resolves --lang values (names or list numbers, each
// possibly comma-separated) to language keys. No input means every
// default file type and returns nil.
func ParseLanguages(inputs []string) ([]string, error) {
	joined := strings.TrimSpace(strings.Join(inputs, ","))
	if strings.Trim(joined, ", ") == "" {
		return nil, nil
	}
	return parseLanguageFlag(joined)
}

// parseLanguageFlag parses comma-separated language names or numbers
func parseLanguageFlag(input string) ([]string, error) {
	parts := strings.Split(strings.ToLower(input), ",")
	var languages []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if num, err := strconv.Atoi(part); err == nil {
			lang, err := getLanguageByNumber(num)
			if err != nil {
				return nil, fmt.Errorf("invalid language number %d: %w", num, err)
			}
			languages = append(languages, lang)
			continue
		}

		if _, exists := SupportedLanguages[part]; exists {
			languages = append(languages, part)
			continue
		}

		found := false
		for _, lang := range LanguageList {
			if strings.EqualFold(lang.Name, part) {
				languages = append(languages, lang.key)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unsupported language: %s", part)
		}
	}

	languages = deduplicate(languages)

	if len(languages) == 0 {
		return nil, fmt.Errorf("no valid languages selected")
	}
	return languages, nil
}

// ExtensionsFor returns the file extensions of the given language keys,
// or of every supported language when none are given.
func ExtensionsFor(languages []string) []string {
	if len(languages) == 0 {
		languages = make([]string, len(LanguageList))
		for i, l := range LanguageList {
			languages[i] = l.key
		}
	}

	var exts []string
	for _, lang := range languages {
		exts = append(exts, SupportedLanguages[lang]...)
	}
	return deduplicate(exts)
}

// deduplicate removes duplicate strings, keeping first occurrences
func deduplicate(slice []string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

func getLanguageByNumber(num int) (string, error) {
	for _, lang := range LanguageList {
		if lang.ID == num {
			return lang.key, nil
		}
	}
	return "", fmt.Errorf("language number %d not found", num)
}

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages that can be reviewed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLanguages(cmd.OutOrStdout())
		},
	}
}

// printLanguages writes the language table: list number, name,
// extensions and which rule set reviews them.
func printLanguages(w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
	)
	table.Header([]string{"#", "Language", "Extensions", "Rules"})

	for _, lang := range LanguageList {
		exts := SupportedLanguages[lang.key]
		row := []string{
			strconv.Itoa(lang.ID),
			lang.Name,
			strings.Join(exts, " "),
			rules.LanguageFor("x" + exts[0]).String(),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
