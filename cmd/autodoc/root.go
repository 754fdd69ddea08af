// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for autodoc.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autodoc",
		Short: "Draft a README from what a repository already says about itself",
		Long:  TitleStyle.Render("autodoc") + SubtitleStyle.Render(" - draft a README from repository metadata") + `

autodoc scans a repository, runs one extractor per ecosystem (Python,
JavaScript, Go, Rust, Java, C/C++, citation files, shell scripts, security
signals, source code, generic files), arbitrates their candidates by
confidence and normalizes the winners into a single metadata record.
Unknown fields stay visible as TODO markers; weak guesses get REVIEW markers.

` + SubtitleStyle.Render("Examples:") + `
  autodoc generate                  Print a draft README for the current directory
  autodoc generate ../lib -o README.md
  autodoc generate --preview        Render the draft in the terminal
  autodoc extract --json            Print the metadata record as JSON
  autodoc explain license           Show every license candidate and the winner
  autodoc files                     List the files discovery classified
  autodoc config show               Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/autodoc/config.cue or ./.autodoc.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newGenerateCommand(app))
	rootCmd.AddCommand(newExtractCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))
	rootCmd.AddCommand(newFilesCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and runs the command tree.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version is passed as an option.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
