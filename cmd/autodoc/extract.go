// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/internal/pipeline"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const maxCellRunes = 60

type (
	extractFlags struct {
		scan    scanFlags
		enhance enhanceFlags
		json    bool
		all     bool
	}

	// extractReport is the --json --all document.
	extractReport struct {
		Metadata    metadata.ProjectMetadata                    `json:"metadata"`
		Candidates  map[metadata.FieldName][]metadata.Candidate `json:"candidates"`
		Diagnostics []discovery.Diagnostic                      `json:"diagnostics"`
		Extractors  []string                                    `json:"extractors"`
	}
)

func newExtractCommand(app *App) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Print the metadata record for a repository",
		Long:  `Print the unified metadata record for the repository at path.

Every field is always present: either a value with its confidence and source,
or a placeholder. --json prints the record as JSON; --all adds every candidate,
the diagnostics and the extractors that ran.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := app.scan(cmd, rootArg(args), &f.scan, &f.enhance)
			if err != nil {
				return app.fail(cmd, err)
			}
			if f.json {
				return writeJSON(app.stdout, res, f.all)
			}
			app.printDiagnostics(res.Diagnostics)
			fmt.Fprint(app.stdout, metadataTable(res.Metadata))
			return nil
		},
	}

	f.scan.bind(cmd.Flags())
	f.enhance.bind(cmd.Flags())
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&f.all, "all", false, "with --json, include candidates, diagnostics and extractors")

	return cmd
}

func writeJSON(w io.Writer, res *pipeline.Result, all bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if !all {
		return enc.Encode(res.Metadata)
	}
	return enc.Encode(extractReport{
		Metadata:    res.Metadata,
		Candidates:  res.Candidates,
		Diagnostics: res.Diagnostics,
		Extractors:  res.Ran,
	})
}

// newTable returns a table in the CLI palette.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// metadataTable renders m as a field table followed by authors and
// dependencies.
func metadataTable(m metadata.ProjectMetadata) string {
	var b strings.Builder

	fields := newTable("FIELD", "VALUE", "CONFIDENCE", "SOURCE")
	for _, name := range metadata.SingleFields() {
		slot := m.Slot(name)
		value := VerboseStyle.Render("(placeholder)")
		if !slot.IsPlaceholder() {
			value = truncate(slot.Value)
		}
		fields.Row(string(name), value, confidenceStyle(slot.Confidence).Render(slot.Confidence.String()), slot.Source)
	}
	sec := m.SecurityRelevant
	fields.Row(string(metadata.FieldSecurityRelevant), fmt.Sprintf("%v", sec.Value),
		confidenceStyle(sec.Confidence).Render(sec.Confidence.String()), sec.Source)
	b.WriteString(TitleStyle.Render("Metadata") + "\n")
	b.WriteString(fields.String() + "\n")

	if len(m.Authors) > 0 {
		authors := newTable("AUTHOR", "EMAIL", "ROLE", "CONFIDENCE")
		for _, a := range m.Authors {
			authors.Row(a.Name, a.Email, a.Role, confidenceStyle(a.Confidence).Render(a.Confidence.String()))
		}
		b.WriteString("\n" + TitleStyle.Render("Authors") + "\n")
		b.WriteString(authors.String() + "\n")
	}

	if len(m.Dependencies) > 0 {
		deps := newTable("DEPENDENCY", "VERSION", "ECOSYSTEM", "DEV", "CONFIDENCE")
		for _, d := range m.Dependencies {
			dev := ""
			if d.Dev {
				dev = "yes"
			}
			deps.Row(d.Name, d.Version, d.Ecosystem, dev, confidenceStyle(d.Confidence).Render(d.Confidence.String()))
		}
		b.WriteString("\n" + TitleStyle.Render("Dependencies") + "\n")
		b.WriteString(deps.String() + "\n")
	}

	h := m.Hints
	fmt.Fprintf(&b, "\n%s tests=%v docs=%v examples=%v ci=%v files=%d truncated=%v\n",
		SubtitleStyle.Render("Hints:"), h.HasTests, h.HasDocs, h.HasExamples, h.HasCI, h.FileCount, h.Truncated)
	return b.String()
}

// truncate shortens s to one line of at most maxCellRunes runes.
func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCellRunes {
		return string(r[:maxCellRunes-1]) + "…"
	}
	return s
}
