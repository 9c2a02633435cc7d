package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FormatterFactory creates formatters based on configuration
type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// CreateFormatter creates a formatter based on the configuration
func (f *FormatterFactory) CreateFormatter(config Config) (Formatter, error) {
	switch strings.ToLower(config.Format) {
	case "markdown", "md", "":
		return NewMarkdownFormatter(config), nil
	case "json":
		return NewJSONFormatter(config), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", config.Format)
	}
}

// CreateFormatterFromFlags creates a formatter from CLI flags. Color is
// only kept when writing markdown to a terminal.
func (f *FormatterFactory) CreateFormatterFromFlags(format string, color bool) (Formatter, error) {
	config := DefaultConfig()
	config.Format = format
	config.Color = color && format != "json" && isTerminal()

	return f.CreateFormatter(config)
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// FormatError formats an error for output
func FormatError(err error, format string) string {
	switch format {
	case "json":
		errorJSON := map[string]string{
			"error": err.Error(),
		}
		jsonBytes, _ := json.Marshal(errorJSON)
		return string(jsonBytes)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
