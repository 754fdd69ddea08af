// SPDX-License-Identifier: MPL-2.0

// Package enhance fills low-confidence text fields by asking a text
// generation service. Generated values are always proposed as candidates
// with Origin=generated; they never bypass arbitration.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const (
	// ProviderAnthropic selects the Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderGemini selects the Gemini API.
	ProviderGemini Provider = "gemini"

	// DefaultMaxExcerpts bounds how many files are sampled for a prompt.
	DefaultMaxExcerpts = 6
	// DefaultExcerptBytes bounds each sampled excerpt.
	DefaultExcerptBytes = 2000
	// DefaultTotalBytes bounds the summed size of all excerpts.
	DefaultTotalBytes = 8000

	maxAnswerRunes = 400
)

var (
	// ErrNoAPIKey is returned when the provider's API key is not set.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrUnknownProvider is returned for a provider name that is not supported.
	ErrUnknownProvider = errors.New("unknown enhancement provider")
	// ErrEmptyResponse is returned when the service answers with no text.
	ErrEmptyResponse = errors.New("empty response")
)

type (
	// Provider names a text generation backend.
	Provider string

	// Enhancer generates a value for one field from a sample of the repository.
	Enhancer interface {
		// Name identifies the enhancer in candidate sources.
		Name() string
		// Generate returns the proposed value. An empty string is never
		// returned without an error.
		Generate(ctx context.Context, req Request) (string, error)
	}

	// Request is everything an enhancer sees.
	Request struct {
		Field    metadata.FieldName
		Metadata metadata.ProjectMetadata
		Excerpts []Excerpt
	}

	// Excerpt is a bounded slice of one repository file.
	Excerpt struct {
		Path string
		Text string
	}

	// SampleOptions bounds Sample.
	SampleOptions struct {
		MaxExcerpts  int
		ExcerptBytes int
		TotalBytes   int
	}

	// MissingKeyError names the environment variables that were checked.
	MissingKeyError struct {
		Provider Provider
		EnvVars  []string
	}

	// InvalidProviderError is returned when a Provider value is not recognized.
	InvalidProviderError struct {
		Value Provider
	}
)

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: set %s", e.Provider, strings.Join(e.EnvVars, " or "))
}

// Unwrap returns ErrNoAPIKey.
func (e *MissingKeyError) Unwrap() error { return ErrNoAPIKey }

// Error implements the error interface.
func (e *InvalidProviderError) Error() string {
	return fmt.Sprintf("invalid provider %q (valid: anthropic, gemini)", e.Value)
}

// Unwrap returns ErrUnknownProvider.
func (e *InvalidProviderError) Unwrap() error { return ErrUnknownProvider }

// IsValid returns whether the Provider is a supported backend,
// and a list of validation errors if it is not.
func (p Provider) IsValid() (bool, []error) {
	switch p {
	case ProviderAnthropic, ProviderGemini:
		return true, nil
	default:
		return false, []error{&InvalidProviderError{Value: p}}
	}
}

// EnvVars returns the environment variables consulted for the provider's key,
// in lookup order.
func (p Provider) EnvVars() []string {
	switch p {
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// New builds the enhancer for provider. lookup resolves environment
// variables; a missing key yields a *MissingKeyError.
func New(ctx context.Context, provider Provider, model string, lookup func(string) (string, bool)) (Enhancer, error) {
	if ok, errs := provider.IsValid(); !ok {
		return nil, errs[0]
	}
	var key string
	for _, name := range provider.EnvVars() {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			key = strings.TrimSpace(v)
			break
		}
	}
	if key == "" {
		return nil, &MissingKeyError{Provider: provider, EnvVars: provider.EnvVars()}
	}
	if model == "" {
		model = provider.DefaultModel()
	}

	switch provider {
	case ProviderGemini:
		return newGemini(ctx, key, model)
	default:
		return newAnthropic(key, model), nil
	}
}

// Sample picks excerpts for a prompt: the shallowest README, then root
// manifests, then the shallowest source files.
func Sample(res *discovery.Result, opts SampleOptions) []Excerpt {
	if opts.MaxExcerpts <= 0 {
		opts.MaxExcerpts = DefaultMaxExcerpts
	}
	if opts.ExcerptBytes <= 0 {
		opts.ExcerptBytes = DefaultExcerptBytes
	}
	if opts.TotalBytes <= 0 {
		opts.TotalBytes = DefaultTotalBytes
	}

	var readmes, manifests, sources []discovery.FileRecord
	for _, f := range res.Files() {
		switch {
		case strings.HasPrefix(strings.ToUpper(f.Name()), "README"):
			readmes = append(readmes, f)
		case f.Category() == discovery.CategoryConfig && f.Depth() == 0:
			manifests = append(manifests, f)
		case f.Category() == discovery.CategorySource:
			sources = append(sources, f)
		}
	}
	byDepth := func(a, b discovery.FileRecord) int {
		if a.Depth() != b.Depth() {
			return a.Depth() - b.Depth()
		}
		return strings.Compare(a.Path(), b.Path())
	}
	slices.SortStableFunc(readmes, byDepth)
	slices.SortStableFunc(sources, byDepth)
	if len(readmes) > 1 {
		readmes = readmes[:1]
	}

	var out []Excerpt
	budget := opts.TotalBytes
	for _, f := range slices.Concat(readmes, manifests, sources) {
		if len(out) >= opts.MaxExcerpts || budget <= 0 {
			break
		}
		text, err := f.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		text = truncate(text, min(opts.ExcerptBytes, budget))
		budget -= len(text)
		out = append(out, Excerpt{Path: f.Path(), Text: text})
	}
	return out
}

// Prompt renders the instruction sent to a provider.
func Prompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing the %s for a software project's README.\n", fieldLabel(req.Field))
	b.WriteString("Answer with the value only: no preamble, no quotes, no Markdown.\n")
	if req.Field == metadata.FieldDescription {
		b.WriteString("Use one or two plain sentences.\n")
	} else {
		b.WriteString("Use a single short line.\n")
	}

	b.WriteString("\nKnown metadata:\n")
	for _, f := range metadata.SingleFields() {
		slot := req.Metadata.Slot(f)
		if f == req.Field || slot.IsPlaceholder() {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", f, slot.Value)
	}
	if len(req.Metadata.Dependencies) > 0 {
		names := make([]string, 0, min(len(req.Metadata.Dependencies), 15))
		for _, d := range req.Metadata.Dependencies[:min(len(req.Metadata.Dependencies), 15)] {
			names = append(names, d.Name)
		}
		fmt.Fprintf(&b, "- dependencies: %s\n", strings.Join(names, ", "))
	}

	for _, e := range req.Excerpts {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", e.Path, e.Text)
	}
	return b.String()
}

// Clean reduces a raw service answer to a field value.
func Clean(answer string) string {
	s := strings.TrimSpace(answer)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if para, _, ok := strings.Cut(strings.TrimSpace(s), "\n\n"); ok {
		s = para
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "\"'`")
	if r := []rune(s); len(r) > maxAnswerRunes {
		s = strings.TrimSpace(string(r[:maxAnswerRunes]))
	}
	return s
}

func fieldLabel(f metadata.FieldName) string {
	return strings.ReplaceAll(string(f), "_", " ")
}

// truncate cuts s to at most n bytes on a line boundary when one exists.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '\n'); i > n/2 {
		cut = cut[:i]
	}
	return strings.ToValidUTF8(cut, "")
}
