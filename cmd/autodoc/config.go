// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/config"
	"github.com/autodoc/autodoc/internal/issue"
)

// newConfigCommand creates the `autodoc config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage autodoc configuration",
		Long:  `Manage autodoc configuration.

Configuration is read from the first file found:
  - the file named by --config
  - Linux: ~/.config/autodoc/config.cue
  - macOS: ~/Library/Application Support/autodoc/config.cue
  - Windows: %APPDATA%\autodoc\config.cue
  - ./.autodoc.cue

AUTODOC_* environment variables override file values
(AUTODOC_MAX_FILES, AUTODOC_ENHANCE_PROVIDER, ...).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfig(cmd, app); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	})

	var force, local bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(app, force, local); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&local, "local", false, "write ./"+config.LocalConfigFile+" instead of the user config")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration search path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfigPath(app); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	path, err := config.Resolve(app.loadOptions())
	if err != nil {
		return err
	}

	source := SubtitleStyle.Render("(using defaults)")
	if path != "" {
		source = CmdStyle.Render(path)
	}
	fmt.Fprintf(app.stderr, "%s %s\n", TitleStyle.Render("Config file:"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func initConfig(app *App, force, local bool) error {
	path := config.LocalConfigFile
	if !local {
		var err error
		if path, err = config.UserConfigPath(app.loadOptions()); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		ctx := issue.NewErrorContext().WithOperation("write configuration").WithResource(path).Wrap(err)
		if errors.Is(err, config.ErrConfigExists) {
			ctx.WithSuggestion("Pass --force to overwrite it").WithIssue(issue.OutputExistsId)
		}
		return ctx.BuildError()
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
	return nil
}

func showConfigPath(app *App) error {
	opts := app.loadOptions()
	paths, err := config.SearchPaths(opts)
	if err != nil {
		return err
	}
	resolved, err := config.Resolve(opts)
	if err != nil {
		return err
	}

	for _, p := range paths {
		var marker string
		switch {
		case p == resolved:
			marker = SuccessStyle.Render("  (in use)")
		case fileExists(p):
			marker = SubtitleStyle.Render("  (shadowed)")
		default:
			marker = SubtitleStyle.Render("  (not found)")
		}
		fmt.Fprintln(app.stdout, p+marker)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
