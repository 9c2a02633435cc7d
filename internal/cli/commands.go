package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reviewkit/internal/config"
	"reviewkit/internal/templates"
)

func (a *app) templatesCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "templates [name]",
		Short: "List review checklists, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.TemplateDir
			}
			loader := templates.NewLoader(dir, nil)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				names, err := loader.Names()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			tmpl := loader.Load(args[0])
			if tmpl.Empty() {
				return fmt.Errorf("template %q not found or empty", args[0])
			}

			bold := color.New(color.Bold)
			for i, section := range tmpl.Sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				bold.Fprintf(out, "%s\n", section.Name)
				for _, item := range section.Items {
					fmt.Fprintf(out, "  [ ] %s\n", item)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "template-dir", "", "Directory searched for checklists before the built-in ones")
	return cmd
}

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.configShow(cmd)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			} else if a.cfgFile != "" {
				path = a.cfgFile
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Config file created: %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.configShow(cmd)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (a *app) configShow(cmd *cobra.Command) error {
	cfg, err := a.load(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if used := a.v.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# config file: (none)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
