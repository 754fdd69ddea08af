// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs one end-to-end extraction: discovery, extractors,
// arbitration, normalization and the optional enhancement pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/internal/enhance"
	"github.com/autodoc/autodoc/internal/extractor"
	"github.com/autodoc/autodoc/internal/merge"
	"github.com/autodoc/autodoc/internal/normalize"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// GeneratedConfidence is the fixed tier of every generated candidate.
const GeneratedConfidence = metadata.Reasonable

type (
	// Options configures Run. The zero value runs every built-in extractor
	// with the default alias tables and no enhancement.
	Options struct {
		Discovery discovery.Options
		// Extractors is the preferred extractor order; unlisted built-ins follow.
		Extractors []string
		// Workers bounds concurrent extractors (0 = GOMAXPROCS).
		Workers int
		// Tables overrides the default alias tables.
		Tables *normalize.Tables
		Logger *log.Logger

		Enhance EnhanceOptions
	}

	// EnhanceOptions configures the enhancement pass.
	EnhanceOptions struct {
		// Enhancer is nil when enhancement is off.
		Enhancer enhance.Enhancer
		// Unavailable explains why enhancement was requested but could not be
		// set up. It is reported as a diagnostic.
		Unavailable error
		// Fields lists the fields eligible for generation (default: description).
		Fields []metadata.FieldName
		// Floor is the confidence below which a field is regenerated
		// (default: Reasonable).
		Floor  metadata.Confidence
		Sample enhance.SampleOptions
	}

	// Result is everything one run produced.
	Result struct {
		Metadata metadata.ProjectMetadata
		// Candidates are all candidates that took part in arbitration,
		// generated ones included.
		Candidates  map[metadata.FieldName][]metadata.Candidate
		Diagnostics []discovery.Diagnostic
		// Ran lists the extractors that ran, in registry order.
		Ran      []string
		Snapshot *discovery.Result
	}
)

// Run extracts metadata for the repository at root. Only an unreadable root
// or an invalid extractor order is an error.
func Run(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tables := opts.Tables
	if tables == nil {
		var err error
		if tables, err = normalize.Default(); err != nil {
			return nil, err
		}
	}

	reg, err := extractor.Default(opts.Extractors, extractor.WithLogger(logger), extractor.WithWorkers(opts.Workers))
	if err != nil {
		return nil, err
	}

	dopts := opts.Discovery
	if dopts.Logger == nil {
		dopts.Logger = logger
	}
	snap, err := discovery.Discover(ctx, root, dopts)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovery finished", "files", snap.Len(), "truncated", snap.Truncated())

	col := reg.Run(ctx, snap)
	res := &Result{
		Candidates:  col.Candidates,
		Diagnostics: slices.Concat(snap.Diagnostics(), col.Diagnostics),
		Ran:         col.Ran,
		Snapshot:    snap,
	}
	if snap.Truncated() {
		logger.Warn("file budget exceeded; dependency and author confidence lowered",
			"files", snap.Len())
		for _, field := range []metadata.FieldName{metadata.FieldDependencies, metadata.FieldAuthors} {
			res.Candidates[field] = Downgrade(res.Candidates[field])
		}
	}

	hints, diags := computeHints(snap)
	res.Diagnostics = append(res.Diagnostics, diags...)

	res.Metadata = resolve(res.Candidates, tables, hints)
	if opts.Enhance.Unavailable != nil {
		logger.Warn("enhancement disabled", "err", opts.Enhance.Unavailable)
		res.Diagnostics = append(res.Diagnostics, discovery.Diagnostic{
			Severity:  discovery.SeverityWarning,
			Code:      discovery.CodeEnhancerFailed,
			Message:   fmt.Sprintf("enhancement disabled: %v", opts.Enhance.Unavailable),
			Component: "enhance",
			Cause:     opts.Enhance.Unavailable,
		})
	}
	if opts.Enhance.Enhancer != nil && ctx.Err() == nil {
		enhanceFields(ctx, res, opts.Enhance, len(reg.Names()), logger)
		res.Metadata = resolve(res.Candidates, tables, hints)
	}
	return res, nil
}

// Downgrade lowers each candidate one tier and to at most Weak, never below
// Guess. It is applied to enumerations that may be incomplete because the
// file budget was hit.
func Downgrade(cands []metadata.Candidate) []metadata.Candidate {
	out := slices.Clone(cands)
	for i := range out {
		out[i].Confidence = downgrade(out[i].Confidence)
	}
	return out
}

func downgrade(c metadata.Confidence) metadata.Confidence {
	if c == metadata.Unknown {
		return c
	}
	return max(metadata.Guess, min(c-1, metadata.Weak))
}

func resolve(cands map[metadata.FieldName][]metadata.Candidate, tables *normalize.Tables, hints metadata.Hints) metadata.ProjectMetadata {
	m := merge.Merge(cands, tables)
	tables.Apply(&m)
	m.Hints = hints
	return m
}

// enhanceFields asks the enhancer for every eligible field below the floor
// and adds the answers as generated candidates.
func enhanceFields(ctx context.Context, res *Result, opts EnhanceOptions, priority int, logger *log.Logger) {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = []metadata.FieldName{metadata.FieldDescription}
	}
	floor := opts.Floor
	if floor == metadata.Unknown {
		floor = metadata.Reasonable
	}

	var excerpts []enhance.Excerpt
	name := opts.Enhancer.Name()
	for _, field := range fields {
		slot := res.Metadata.Slot(field)
		if slot == nil || slot.Confidence.AtLeast(floor) {
			continue
		}
		if excerpts == nil {
			excerpts = enhance.Sample(res.Snapshot, opts.Sample)
		}
		logger.Debug("generating field", "field", field, "enhancer", name, "confidence", slot.Confidence)
		text, err := opts.Enhancer.Generate(ctx, enhance.Request{
			Field:    field,
			Metadata: res.Metadata,
			Excerpts: excerpts,
		})
		if err != nil {
			logger.Warn("enhancer failed", "field", field, "err", err)
			res.Diagnostics = append(res.Diagnostics, discovery.Diagnostic{
				Severity:  discovery.SeverityWarning,
				Code:      discovery.CodeEnhancerFailed,
				Message:   fmt.Sprintf("generating %s: %v", field, err),
				Component: "enhance/" + name,
				Cause:     err,
			})
			continue
		}
		c := metadata.TextCandidate(field, text, GeneratedConfidence, "enhancer:"+name,
			"generated from repository excerpts")
		if c.Empty() {
			continue
		}
		c.Origin = metadata.OriginGenerated
		c.Extractor = "enhance/" + name
		c.Priority = priority
		res.Candidates[field] = append(res.Candidates[field], c)
	}
}
