package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"reviewkit/internal/config"
	"reviewkit/internal/logging"
	"reviewkit/internal/output"
)

// Exit codes. Review outcomes use output.DetermineExitCode.
const (
	ExitOK    = 0
	ExitError = 2
)

// app carries per-invocation state shared by the commands.
type app struct {
	v        *viper.Viper
	cfgFile  string
	exitCode int
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New()}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		format, _ := root.Flags().GetString("format")
		fmt.Fprintln(stderr, output.FormatError(err, format))
		return ExitError
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewkit [path]",
		Short: "Rule-based code review for Python, JavaScript/TypeScript and web files",
		Long: `reviewkit reviews a file or a directory tree with a fixed set of rules:
hardcoded credentials, missing docstrings, naming conventions, cyclomatic
complexity, leftover console statements, long lines and trailing whitespace.

It prints a Markdown report (or JSON), can export review metrics as JSON or
YAML, and exits with 2 when high severity issues are found, 1 for medium
severity issues and 0 otherwise.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return a.runReview(cmd, target)
		},
	}

	pflags := root.PersistentFlags()
	pflags.StringVar(&a.cfgFile, "config", "", "Config file (default .reviewkit.yaml in the working or home directory)")
	pflags.String("log-level", "warn", "Log level: debug, info, warn, error")
	pflags.String("log-format", "text", "Log format: text or json")
	pflags.Bool("no-color", false, "Disable colored output")

	d := config.Default()
	flags := root.Flags()
	flags.StringP("template", "t", d.Template, "Review checklist to use (general, security, performance)")
	flags.String("template-dir", "", "Directory searched for checklists before the built-in ones")
	flags.StringP("output", "o", "", "Write the report to this file instead of stdout")
	flags.StringP("format", "f", d.Output.Format, "Report format: markdown or json")
	flags.String("metrics-out", "", "Export review metrics to this file (.json, .yaml or .yml)")
	flags.Bool("summary", false, "Print the metrics summary after the report")
	flags.StringSlice("lang", nil, "Languages to review by name or number (see 'reviewkit languages')")
	flags.Bool("changed", false, "Review only files git reports as changed")
	flags.Bool("staged", false, "Review only files staged in git")
	flags.Int("workers", d.Pipeline.Workers, "Number of files reviewed in parallel")
	flags.Int("max-files", 0, "Maximum number of files to review (0 = no limit)")

	a.bind(pflags.Lookup("log-level"), "log.level")
	a.bind(pflags.Lookup("log-format"), "log.format")
	a.bind(pflags.Lookup("no-color"), "output.no_color")
	a.bind(flags.Lookup("template"), "template")
	a.bind(flags.Lookup("template-dir"), "template_dir")
	a.bind(flags.Lookup("output"), "output.file")
	a.bind(flags.Lookup("format"), "output.format")
	a.bind(flags.Lookup("metrics-out"), "output.metrics_out")
	a.bind(flags.Lookup("summary"), "output.summary")
	a.bind(flags.Lookup("lang"), "languages")
	a.bind(flags.Lookup("changed"), "changed")
	a.bind(flags.Lookup("staged"), "staged")
	a.bind(flags.Lookup("workers"), "pipeline.workers")
	a.bind(flags.Lookup("max-files"), "max_files")

	root.AddCommand(newLanguagesCommand())
	root.AddCommand(a.templatesCommand())
	root.AddCommand(a.configCommand())

	return root
}

func (a *app) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// load reads the configuration and sets up logging and color for a command.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, err
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return nil, err
	}

	if cfg.Output.NoColor {
		color.NoColor = true
	}
	return cfg, nil
}
