// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// Built-in extractor names, in default priority order.
const (
	NamePython     = "python"
	NameJavaScript = "javascript"
	NameGo         = "go"
	NameRust       = "rust"
	NameJava       = "java"
	NameCPP        = "cpp"
	NameCitation   = "citation"
	NameShell      = "shell"
	NameSecurity   = "security"
	NameCode       = "code"
	NameGeneric    = "generic"
)

// ErrParse is the sentinel wrapped by every ParseError.
var ErrParse = errors.New("parse failed")

type (
	// Extractor proposes field candidates from a discovery snapshot.
	//
	// Implementations must be total: malformed input yields diagnostics,
	// never a panic or an error escaping Extract. An extractor must not
	// observe another extractor's output.
	Extractor interface {
		// Name is the stable identifier used for ordering and provenance.
		Name() string
		// Interested reports whether the extractor reads f.
		Interested(f discovery.FileRecord) bool
		// Extract produces candidates from the files it is interested in.
		Extract(ctx context.Context, res *discovery.Result) Output
	}

	// Fallback is implemented by extractors that run even when no file
	// in the snapshot interests them.
	Fallback interface {
		Fallback() bool
	}

	// Output is what one extractor run yields.
	Output struct {
		Candidates  []metadata.Candidate
		Diagnostics []discovery.Diagnostic
	}

	// ParseError reports a file that could not be decoded.
	ParseError struct {
		Path   string
		Format string
		Err    error
	}

	// collector accumulates one extractor's output.
	collector struct {
		name string
		out  Output
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s as %s: %v", e.Path, e.Format, e.Err)
}

// Unwrap returns both ErrParse and the decoder error.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

func newCollector(name string) *collector {
	return &collector{name: name}
}

// add keeps only candidates that carry a value and a known tier.
func (c *collector) add(cands ...metadata.Candidate) {
	for _, cand := range cands {
		if cand.Empty() || cand.Confidence == metadata.Unknown {
			continue
		}
		c.out.Candidates = append(c.out.Candidates, cand)
	}
}

func (c *collector) text(field metadata.FieldName, value string, conf metadata.Confidence, source, note string) {
	c.add(metadata.TextCandidate(field, value, conf, source, note))
}

func (c *collector) author(a metadata.Author, conf metadata.Confidence, source string) {
	c.add(metadata.AuthorCandidate(a, conf, source))
}

func (c *collector) dependency(d metadata.Dependency, conf metadata.Confidence, source string) {
	c.add(metadata.DependencyCandidate(d, conf, source))
}

func (c *collector) parseFailed(path, format string, err error) {
	c.out.Diagnostics = append(c.out.Diagnostics, discovery.Diagnostic{
		Severity:  discovery.SeverityWarning,
		Code:      discovery.CodeParseFailed,
		Message:   fmt.Sprintf("%s could not be parsed as %s; its fields were skipped", path, format),
		Path:      path,
		Component: c.name,
		Cause:     &ParseError{Path: path, Format: format, Err: err},
	})
}

// read returns the text of f, recording a diagnostic when it cannot be read.
func (c *collector) read(f discovery.FileRecord) (string, bool) {
	text, err := f.Text()
	if err != nil {
		c.out.Diagnostics = append(c.out.Diagnostics, discovery.Diagnostic{
			Severity:  discovery.SeverityWarning,
			Code:      discovery.CodeReadFailed,
			Message:   "file could not be read",
			Path:      f.Path(),
			Component: c.name,
			Cause:     err,
		})
		return "", false
	}
	return text, true
}

func (c *collector) output() Output { return c.out }

// shallowest returns the record closest to the root, ties by path.
func shallowest(files []discovery.FileRecord) (discovery.FileRecord, bool) {
	if len(files) == 0 {
		return discovery.FileRecord{}, false
	}
	best := files[0]
	for _, f := range files[1:] {
		if f.Depth() < best.Depth() {
			best = f
		}
	}
	return best, true
}
