// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/discovery"
)

type (
	filesFlags struct {
		scan     scanFlags
		json     bool
		category string
	}

	fileEntry struct {
		Path     string             `json:"path"`
		Category discovery.Category `json:"category"`
		Size     int64              `json:"size"`
	}

	filesReport struct {
		Root        string                 `json:"root"`
		Files       []fileEntry            `json:"files"`
		Stats       discovery.Stats        `json:"stats"`
		Truncated   bool                   `json:"truncated"`
		Diagnostics []discovery.Diagnostic `json:"diagnostics"`
	}
)

func newFilesCommand(app *App) *cobra.Command {
	var f filesFlags
	cmd := &cobra.Command{
		Use:   "files [path]",
		Short: "List the files discovery classified",
		Long:  `List the repository files that discovery kept, with their category
(config, source, docs, build or test). Ignored and unclassified files are not
listed; the summary line counts them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runFiles(cmd, app, rootArg(args), &f); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	f.scan.bind(cmd.Flags())
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&f.category, "category", "", "only list files of this category")

	return cmd
}

func runFiles(cmd *cobra.Command, app *App, root string, f *filesFlags) error {
	var keep func(discovery.FileRecord) bool
	if f.category != "" {
		category := discovery.Category(f.category)
		if valid, errs := category.IsValid(); !valid {
			return errs[0]
		}
		keep = func(r discovery.FileRecord) bool { return r.Category() == category }
	}

	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	f.scan.apply(cmd, cfg)
	snap, err := discovery.Discover(cmd.Context(), root, discovery.Options{
		IgnorePatterns: cfg.Ignore,
		MaxFiles:       cfg.MaxFiles,
		MaxBytes:       cfg.MaxBytes,
		Logger:         app.logger(cfg),
	})
	if err != nil {
		return scanError(root, err)
	}

	records := snap.Files()
	if keep != nil {
		records = snap.Select(keep)
	}
	report := filesReport{
		Root:        snap.Root(),
		Files:       make([]fileEntry, 0, len(records)),
		Stats:       snap.Stats(),
		Truncated:   snap.Truncated(),
		Diagnostics: snap.Diagnostics(),
	}
	for _, r := range records {
		report.Files = append(report.Files, fileEntry{Path: r.Path(), Category: r.Category(), Size: r.Size()})
	}

	if f.json {
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	app.printDiagnostics(report.Diagnostics)
	writeFilesTable(app.stdout, report)
	return nil
}

func writeFilesTable(w io.Writer, report filesReport) {
	t := newTable("PATH", "CATEGORY", "SIZE")
	for _, e := range report.Files {
		t.Row(e.Path, string(e.Category), strconv.FormatInt(e.Size, 10))
	}
	fmt.Fprintln(w, TitleStyle.Render("Files")+" "+SubtitleStyle.Render(report.Root))
	fmt.Fprintln(w, t.String())

	s := report.Stats
	summary := fmt.Sprintf("%d listed, %d visited, %d ignored, %d skipped, %d bytes",
		len(report.Files), s.Visited, s.Ignored, s.Skipped, s.Bytes)
	if report.Truncated {
		summary += WarningStyle.Render(" (budget reached)")
	}
	fmt.Fprintln(w, SubtitleStyle.Render(summary))
}
