package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name without its extension.
	FileName = ".reviewkit"

	// EnvPrefix prefixes every environment override, e.g. REVIEWKIT_OUTPUT_FORMAT.
	EnvPrefix = "REVIEWKIT"
)

// searchPaths lists the directories searched for the config file, the
// working directory first.
func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return paths
}

// DefaultPath is where `config init` writes when no path is given.
func DefaultPath() string {
	return FileName + ".yaml"
}

// Save writes cfg as YAML to path.
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const defaultHeader = `# reviewkit configuration
# Save as .reviewkit.yaml in your project root or home directory.
# Every key can be overridden with a REVIEWKIT_ environment variable,
# e.g. REVIEWKIT_OUTPUT_FORMAT=json or REVIEWKIT_PIPELINE_WORKERS=8.

`

// WriteDefault writes the default configuration to path, refusing to
// replace an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
