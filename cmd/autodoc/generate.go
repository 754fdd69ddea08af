// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autodoc/autodoc/internal/issue"
	"github.com/autodoc/autodoc/internal/render"
)

type generateFlags struct {
	scan    scanFlags
	enhance enhanceFlags

	out        string
	force      bool
	preview    bool
	width      int
	style      string
	provenance bool
	noNotice   bool
}

func newGenerateCommand(app *App) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Draft a README for a repository",
		Long:  `Draft a README for the repository at path (default: the current directory).

The draft is written to stdout unless --out names a file. Fields autodoc could
not find become <!-- TODO --> markers; values below reasonable confidence and
generated values carry <!-- REVIEW --> markers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runGenerate(cmd, app, rootArg(args), &f); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	f.scan.bind(cmd.Flags())
	f.enhance.bind(cmd.Flags())
	cmd.Flags().StringVarP(&f.out, "out", "o", "", `write the README to this file ("-" or empty = stdout)`)
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite the --out file if it exists")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "render the draft for the terminal")
	cmd.Flags().IntVar(&f.width, "width", 100, "word wrap width for --preview (0 = no wrapping)")
	cmd.Flags().StringVar(&f.style, "style", "", "glamour style for --preview (dark, light, notty; default: auto)")
	cmd.Flags().BoolVar(&f.provenance, "provenance", false, "add a source comment after every value")
	cmd.Flags().BoolVar(&f.noNotice, "no-notice", false, "omit the closing draft notice")

	return cmd
}

func runGenerate(cmd *cobra.Command, app *App, root string, f *generateFlags) error {
	toFile := f.out != "" && f.out != "-"
	if toFile && !f.force {
		if _, err := os.Stat(f.out); err == nil {
			return issue.NewErrorContext().
				WithOperation("write README").
				WithResource(f.out).
				WithSuggestion("Pass --force to overwrite it").
				WithIssue(issue.OutputExistsId).
				Wrap(os.ErrExist).
				BuildError()
		}
	}

	res, _, err := app.scan(cmd, root, &f.scan, &f.enhance)
	if err != nil {
		return err
	}
	app.printDiagnostics(res.Diagnostics)

	markdown, err := render.String(res.Metadata, render.Options{
		Provenance: f.provenance,
		OmitNotice: f.noNotice,
	})
	if err != nil {
		return err
	}

	if toFile {
		if err := os.WriteFile(f.out, []byte(markdown), 0o644); err != nil {
			return issue.Wrap(err, "write README", f.out)
		}
		fmt.Fprintf(app.stderr, "%s wrote %s (%d placeholder(s), %d field(s) to review)\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(f.out),
			len(res.Metadata.PlaceholderFields()), len(res.Metadata.ReviewFields()))
	}

	if f.preview {
		rendered, err := render.Preview(markdown, f.width, f.style)
		if err != nil {
			return err
		}
		fmt.Fprint(app.stdout, rendered)
		return nil
	}
	if !toFile {
		fmt.Fprint(app.stdout, markdown)
	}
	return nil
}
