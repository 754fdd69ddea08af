// SPDX-License-Identifier: MPL-2.0

// Package render turns ProjectMetadata into a draft README.
//
// Placeholders become <!-- TODO: ... --> comments and values below the
// Reasonable tier carry a <!-- REVIEW: ... --> comment, so every guess in
// the draft is visible to the person finishing it.
package render

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"

	"github.com/autodoc/autodoc/pkg/metadata"
)

// sections are rendered in order; empty ones are dropped.
var sections = []string{
	"title",
	"badges",
	"description",
	"installation",
	"usage",
	"testing",
	"dependencies",
	"documentation",
	"security",
	"contributing",
	"license",
	"authors",
	"notice",
}

var (
	//go:embed readme.md.tmpl
	readmeSource string

	readmeTemplate = template.Must(template.New("readme").Parse(readmeSource))

	testCommands = map[string]string{
		"Python":     "pytest",
		"JavaScript": "npm test",
		"TypeScript": "npm test",
		"Go":         "go test ./...",
		"Rust":       "cargo test",
		"Java":       "mvn test",
		"Kotlin":     "gradle test",
		"C++":        "ctest",
		"C":          "ctest",
	}

	usageSentences = map[string]string{
		"cli":       "Run it from the command line.",
		"library":   "Import it as a library from your own code.",
		"framework": "It is an application built on a web framework.",
	}
)

type (
	// Options configures README.
	Options struct {
		// Provenance adds a source comment after every resolved value.
		Provenance bool
		// OmitNotice drops the closing draft notice.
		OmitNotice bool
	}

	// view is the template data.
	view struct {
		M    metadata.ProjectMetadata
		opts Options
	}
)

// README writes the draft README for m to w.
func README(w io.Writer, m metadata.ProjectMetadata, opts Options) error {
	v := view{M: m, opts: opts}
	parts := make([]string, 0, len(sections))
	for _, name := range sections {
		if name == "notice" && opts.OmitNotice {
			continue
		}
		var b strings.Builder
		if err := readmeTemplate.ExecuteTemplate(&b, name, v); err != nil {
			return fmt.Errorf("render section %s: %w", name, err)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			parts = append(parts, s)
		}
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n\n")+"\n")
	return err
}

// String returns the draft README for m.
func String(m metadata.ProjectMetadata, opts Options) (string, error) {
	var b strings.Builder
	if err := README(&b, m, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Preview renders Markdown for a terminal. An empty style picks one from
// the terminal background; width <= 0 disables wrapping.
func Preview(markdown string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if style != "" {
		opts = []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

// TODO renders a placeholder marker.
func (v view) TODO(label, hint string) string {
	return fmt.Sprintf("<!-- TODO: add %s: %s -->", label, hint)
}

// Marks renders the comments that follow a resolved value: a review marker
// when the value is weak or generated, and provenance when requested.
func (v view) Marks(label string, r metadata.Resolved) string {
	var b strings.Builder
	switch {
	case r.Origin == metadata.OriginGenerated:
		fmt.Fprintf(&b, "\n<!-- REVIEW: %s was generated by %s; check it against the project -->", label, r.Source)
	case r.NeedsReview():
		fmt.Fprintf(&b, "\n<!-- REVIEW: %s is a %s-confidence inference from %s", label, r.Confidence, r.Source)
		if r.Note != "" {
			fmt.Fprintf(&b, " (%s)", r.Note)
		}
		b.WriteString(" -->")
	}
	if v.opts.Provenance {
		fmt.Fprintf(&b, "\n<!-- source: %s, %s confidence, %s extractor -->", r.Source, r.Confidence, r.Extractor)
	}
	return b.String()
}

// Uncanonical reports whether r passed through normalization unmapped.
func (v view) Uncanonical(r metadata.Resolved) bool {
	return r.Normalization == metadata.NormalizationUncanonicalized
}

// CustomLicense reports whether the license file was not recognized.
func (v view) CustomLicense() bool {
	return strings.EqualFold(v.M.License.Value, "Custom")
}

// LicenseBadge returns the shields.io label for a known license.
func (v view) LicenseBadge() string {
	if v.M.License.IsPlaceholder() || v.CustomLicense() {
		return ""
	}
	r := strings.NewReplacer("-", "--", "_", "__", " ", "_")
	return r.Replace(v.M.License.Value)
}

// UsageSentence describes the resolved usage type.
func (v view) UsageSentence() string {
	if v.M.UsageType.IsPlaceholder() {
		return ""
	}
	return usageSentences[v.M.UsageType.Value]
}

// TestCommand returns the conventional test command for the language.
func (v view) TestCommand() string {
	for _, d := range v.M.Dependencies {
		if d.Dev && strings.EqualFold(d.Name, "pytest") {
			return "pytest"
		}
	}
	if v.M.Language.IsPlaceholder() {
		return ""
	}
	return testCommands[v.M.Language.Value]
}

// Runtime returns the non-development dependencies.
func (v view) Runtime() []metadata.ResolvedDependency {
	return v.filter(false)
}

// Dev returns the development dependencies.
func (v view) Dev() []metadata.ResolvedDependency {
	return v.filter(true)
}

func (v view) filter(dev bool) []metadata.ResolvedDependency {
	var out []metadata.ResolvedDependency
	for _, d := range v.M.Dependencies {
		if d.Dev == dev {
			out = append(out, d)
		}
	}
	return out
}
