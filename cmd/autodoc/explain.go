// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/issue"
	"github.com/autodoc/autodoc/internal/merge"
	"github.com/autodoc/autodoc/internal/pipeline"
	"github.com/autodoc/autodoc/pkg/metadata"
)

type explainFlags struct {
	scan    scanFlags
	enhance enhanceFlags
}

func newExplainCommand(app *App) *cobra.Command {
	var f explainFlags
	cmd := &cobra.Command{
		Use:   "explain [path] <field>",
		Short: "Show every candidate for a field and which one won",
		Long:  `Show every candidate the extractors proposed for one field, ranked the way
arbitration ranks them: confidence tier first, then extractor order, then
file depth, then source path.

Fields: ` + strings.Join(fieldNames(), ", "),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, field := ".", args[0]
			if len(args) == 2 {
				root, field = args[0], args[1]
			}
			if err := runExplain(cmd, app, root, metadata.FieldName(field), &f); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	f.scan.bind(cmd.Flags())
	f.enhance.bind(cmd.Flags())

	return cmd
}

func fieldNames() []string {
	all := metadata.AllFields()
	out := make([]string, 0, len(all))
	for _, f := range all {
		out = append(out, string(f))
	}
	return out
}

func runExplain(cmd *cobra.Command, app *App, root string, field metadata.FieldName, f *explainFlags) error {
	if valid, errs := field.IsValid(); !valid {
		return issue.NewErrorContext().
			WithOperation("explain field").
			WithResource(string(field)).
			WithSuggestion("Valid fields: " + strings.Join(fieldNames(), ", ")).
			WithIssue(issue.UnknownFieldId).
			Wrap(errs[0]).
			BuildError()
	}

	res, _, err := app.scan(cmd, root, &f.scan, &f.enhance)
	if err != nil {
		return err
	}
	writeExplanation(app.stdout, res, field)
	return nil
}

// writeExplanation prints the resolved value of field and the ranked
// candidates behind it.
func writeExplanation(w io.Writer, res *pipeline.Result, field metadata.FieldName) {
	m := res.Metadata
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Field:"), CmdStyle.Render(string(field)))

	switch field.Kind() {
	case metadata.KindSingle:
		slot := m.Slot(field)
		if slot.IsPlaceholder() {
			fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Resolved:"), ErrorStyle.Render("placeholder"))
		} else {
			fmt.Fprintf(w, "%s %s %s\n", SubtitleStyle.Render("Resolved:"), slot.Value,
				confidenceStyle(slot.Confidence).Render("("+slot.Confidence.String()+")"))
			if slot.Raw != "" {
				fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Raw value:"), slot.Raw)
			}
			if slot.Normalization != metadata.NormalizationNone {
				fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Normalization:"), slot.Normalization)
			}
		}
	case metadata.KindFlag:
		flag := m.SecurityRelevant
		fmt.Fprintf(w, "%s %v %s\n", SubtitleStyle.Render("Resolved:"), flag.Value,
			confidenceStyle(flag.Confidence).Render("("+flag.Confidence.String()+")"))
		if flag.Note != "" {
			fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Note:"), flag.Note)
		}
	default:
		count := len(m.Authors)
		if field == metadata.FieldDependencies {
			count = len(m.Dependencies)
		}
		fmt.Fprintf(w, "%s %d merged value(s)\n", SubtitleStyle.Render("Resolved:"), count)
	}

	ranked := merge.Rank(res.Candidates[field])
	if len(ranked) == 0 {
		fmt.Fprintln(w, VerboseStyle.Render("No extractor proposed a value."))
		return
	}
	t := newTable("#", "VALUE", "CONFIDENCE", "SOURCE", "EXTRACTOR", "NOTE")
	for i, c := range ranked {
		t.Row(strconv.Itoa(i+1), truncate(c.Display()),
			confidenceStyle(c.Confidence).Render(c.Confidence.String()),
			c.Source, c.Extractor, truncate(c.Note))
	}
	fmt.Fprintln(w, t.String())
}
