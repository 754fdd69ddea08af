// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

var (
	// ErrUnknownExtractor is returned when an ordering names no built-in extractor.
	ErrUnknownExtractor = errors.New("unknown extractor")
	// ErrDuplicateExtractor is returned when an ordering names an extractor twice.
	ErrDuplicateExtractor = errors.New("duplicate extractor")
)

type (
	// Registry holds extractors in priority order. Index 0 ranks highest in
	// merge tie-breaks.
	Registry struct {
		extractors []Extractor
		logger     *log.Logger
		workers    int
	}

	// Option configures a Registry.
	Option func(*Registry)

	// UnknownExtractorError names an extractor that is not built in.
	UnknownExtractorError struct {
		Name  string
		Known []string
	}

	// Collected is the joined output of every extractor.
	Collected struct {
		// Candidates are grouped by field, each group in registry order.
		Candidates map[metadata.FieldName][]metadata.Candidate
		// Diagnostics are in registry order.
		Diagnostics []discovery.Diagnostic
		// Ran lists the extractors that ran, in registry order.
		Ran []string
	}
)

// Error implements the error interface.
func (e *UnknownExtractorError) Error() string {
	return fmt.Sprintf("unknown extractor %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownExtractor for errors.Is() compatibility.
func (e *UnknownExtractorError) Unwrap() error { return ErrUnknownExtractor }

// WithLogger sets the logger used for per-extractor debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers bounds how many extractors run at once (<=0 = GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(r *Registry) { r.workers = n }
}

// Builtin returns fresh instances of every built-in extractor in default
// priority order. The generic extractor is last.
func Builtin() []Extractor {
	return []Extractor{
		Python{},
		JavaScript{},
		Go{},
		Rust{},
		Java{},
		CPP{},
		Citation{},
		Shell{},
		Security{},
		Code{},
		Generic{},
	}
}

// BuiltinNames returns the built-in extractor names in default order.
func BuiltinNames() []string {
	exts := Builtin()
	names := make([]string, len(exts))
	for i, e := range exts {
		names[i] = e.Name()
	}
	return names
}

// New returns a registry that runs exts in exactly the given order.
func New(exts []Extractor, opts ...Option) *Registry {
	r := &Registry{
		extractors: slices.Clone(exts),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns the built-in registry. Names listed in order take the
// highest priorities in the given order; unlisted built-ins follow in default
// order. The generic extractor is always registered last.
func Default(order []string, opts ...Option) (*Registry, error) {
	builtin := Builtin()
	byName := make(map[string]Extractor, len(builtin))
	for _, e := range builtin {
		byName[e.Name()] = e
	}

	seen := make(map[string]bool, len(builtin))
	ordered := make([]Extractor, 0, len(builtin))
	for _, name := range order {
		name = strings.TrimSpace(strings.ToLower(name))
		e, ok := byName[name]
		if !ok {
			return nil, &UnknownExtractorError{Name: name, Known: BuiltinNames()}
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateExtractor, name)
		}
		seen[name] = true
		if name == NameGeneric {
			continue
		}
		ordered = append(ordered, e)
	}
	for _, e := range builtin {
		if !seen[e.Name()] && e.Name() != NameGeneric {
			ordered = append(ordered, e)
		}
	}
	ordered = append(ordered, byName[NameGeneric])
	return New(ordered, opts...), nil
}

// Names returns the registered extractor names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// Run executes every applicable extractor concurrently and joins them.
// Nothing is returned until all extractors have finished.
func (r *Registry) Run(ctx context.Context, res *discovery.Result) Collected {
	outputs := make([]Output, len(r.extractors))
	ran := make([]bool, len(r.extractors))

	workers := r.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ext := range r.extractors {
		if !applicable(ext, res) {
			r.logger.Debug("extractor not applicable", "extractor", ext.Name())
			continue
		}
		ran[i] = true
		g.Go(func() error {
			outputs[i] = r.runOne(gctx, ext, res)
			return nil
		})
	}
	_ = g.Wait()

	col := Collected{Candidates: make(map[metadata.FieldName][]metadata.Candidate)}
	for i, ext := range r.extractors {
		if !ran[i] {
			continue
		}
		col.Ran = append(col.Ran, ext.Name())
		for _, c := range outputs[i].Candidates {
			if ok, _ := c.Field.IsValid(); !ok {
				r.logger.Debug("dropping candidate for unknown field", "extractor", ext.Name(), "field", c.Field)
				continue
			}
			c.Extractor = ext.Name()
			c.Priority = i
			if c.Origin == "" {
				c.Origin = metadata.OriginHeuristic
			}
			col.Candidates[c.Field] = append(col.Candidates[c.Field], c)
		}
		for _, d := range outputs[i].Diagnostics {
			if d.Component == "" {
				d.Component = ext.Name()
			}
			col.Diagnostics = append(col.Diagnostics, d)
		}
	}
	return col
}

func (r *Registry) runOne(ctx context.Context, ext Extractor, res *discovery.Result) (out Output) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("extractor panicked", "extractor", ext.Name(), "panic", p)
			out = Output{Diagnostics: []discovery.Diagnostic{{
				Severity:  discovery.SeverityError,
				Code:      discovery.CodeExtractorPanicked,
				Message:   fmt.Sprintf("extractor panicked: %v", p),
				Component: ext.Name(),
				Cause:     fmt.Errorf("%w: extractor %s panicked: %v", ErrParse, ext.Name(), p),
			}}}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Output{}
	}
	out = ext.Extract(ctx, res)
	r.logger.Debug("extractor finished", "extractor", ext.Name(),
		"candidates", len(out.Candidates), "diagnostics", len(out.Diagnostics))
	return out
}

func applicable(ext Extractor, res *discovery.Result) bool {
	if fb, ok := ext.(Fallback); ok && fb.Fallback() {
		return true
	}
	for _, f := range res.Files() {
		if ext.Interested(f) {
			return true
		}
	}
	return false
}

// All returns every candidate in field order, then registry order.
func (c Collected) All() []metadata.Candidate {
	var out []metadata.Candidate
	for _, f := range metadata.AllFields() {
		out = append(out, c.Candidates[f]...)
	}
	return out
}

// Field returns the candidates proposed for one field.
func (c Collected) Field(name metadata.FieldName) []metadata.Candidate {
	return slices.Clone(c.Candidates[name])
}
