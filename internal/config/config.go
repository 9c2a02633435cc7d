package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"reviewkit/internal/fs"
)

// Config holds every setting of a review run. Values come from defaults,
// the config file, REVIEWKIT_* environment variables and flags, later
// sources winning.
type Config struct {
	Template    string   `mapstructure:"template" yaml:"template"`
	TemplateDir string   `mapstructure:"template_dir" yaml:"template_dir,omitempty"`
	Languages   []string `mapstructure:"languages" yaml:"languages,omitempty"`
	ChangedOnly bool     `mapstructure:"changed" yaml:"changed"`
	StagedOnly  bool     `mapstructure:"staged" yaml:"staged"`
	MaxFiles    int      `mapstructure:"max_files" yaml:"max_files"`
	MaxFileSize int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	IgnoreDirs  []string `mapstructure:"ignore_dirs" yaml:"ignore_dirs,omitempty"`

	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MetricsOut string `mapstructure:"metrics_out" yaml:"metrics_out,omitempty"`
	Summary    bool   `mapstructure:"summary" yaml:"summary"`
	NoColor    bool   `mapstructure:"no_color" yaml:"no_color"`
}

type PipelineConfig struct {
	Workers    int `mapstructure:"workers" yaml:"workers"`
	QueueSize  int `mapstructure:"queue_size" yaml:"queue_size"`
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var (
	validFormats    = []string{"markdown", "json"}
	validLogFormats = []string{"text", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("template", d.Template)
	v.SetDefault("template_dir", d.TemplateDir)
	v.SetDefault("languages", d.Languages)
	v.SetDefault("changed", d.ChangedOnly)
	v.SetDefault("staged", d.StagedOnly)
	v.SetDefault("max_files", d.MaxFiles)
	v.SetDefault("max_file_size", d.MaxFileSize)
	v.SetDefault("ignore_dirs", d.IgnoreDirs)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.file", d.Output.File)
	v.SetDefault("output.metrics_out", d.Output.MetricsOut)
	v.SetDefault("output.summary", d.Output.Summary)
	v.SetDefault("output.no_color", d.Output.NoColor)
	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.queue_size", d.Pipeline.QueueSize)
	v.SetDefault("pipeline.max_retries", d.Pipeline.MaxRetries)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Template:    "general",
		MaxFiles:    0,
		MaxFileSize: fs.DefaultMaxFileSize,
		Output: OutputConfig{
			Format: "markdown",
		},
		Pipeline: PipelineConfig{
			Workers:    4,
			QueueSize:  100,
			MaxRetries: 2,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration into a Config. cfgFile, when set, must exist;
// otherwise .reviewkit.yaml is looked up in the working directory and
// then the home directory, and its absence is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "md" {
		c.Output.Format = "markdown"
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	var langs []string
	for _, l := range c.Languages {
		for _, part := range strings.Split(l, ",") {
			if part = strings.TrimSpace(part); part != "" {
				langs = append(langs, part)
			}
		}
	}
	c.Languages = langs
}

// Validate checks the configuration for values the review cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if !contains(validFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("invalid format %q (want one of %s)", c.Output.Format, strings.Join(validFormats, ", ")))
	}
	if c.Log.Level != "" && !contains(validLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "" && !contains(validLogFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if c.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("max_files must not be negative, got %d", c.MaxFiles))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("max_file_size must not be negative, got %d", c.MaxFileSize))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.Pipeline.MaxRetries))
	}
	if c.ChangedOnly && c.StagedOnly {
		errs = append(errs, errors.New("--changed and --staged are mutually exclusive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
