// SPDX-License-Identifier: MPL-2.0

// Package merge arbitrates extractor candidates into one ProjectMetadata.
//
// Single-valued fields take the candidate with the highest confidence tier.
// Ties go to the extractor registered first, then to the source closest to
// the repository root, then to the lexically smaller source path and value.
// The resolved confidence and source are always the winner's own.
package merge

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/autodoc/autodoc/internal/normalize"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// Placeholder notes.
const (
	NoteNoCandidate = "no extractor proposed a value"
	NoteNoSecurity  = "no extractor assessed security relevance"
)

// Merge resolves every field from cands, which are grouped by field. tables
// may be nil; it is only consulted to detect candidates that agree.
// Values are not normalized here.
func Merge(cands map[metadata.FieldName][]metadata.Candidate, tables *normalize.Tables) metadata.ProjectMetadata {
	var m metadata.ProjectMetadata
	for _, field := range metadata.SingleFields() {
		*m.Slot(field) = resolveSingle(field, cands[field], tables)
	}
	m.Authors = mergeAuthors(cands[metadata.FieldAuthors])
	m.Dependencies = mergeDependencies(cands[metadata.FieldDependencies])
	m.SecurityRelevant = resolveFlag(cands[metadata.FieldSecurityRelevant])
	return m
}

// Compare orders candidates best first: higher tier, then lower registry
// priority, then shallower source, then lexical source, then lexical value.
func Compare(a, b metadata.Candidate) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Depth(), b.Depth()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return strings.Compare(a.Display(), b.Display())
}

// Rank returns a copy of cands sorted best first.
func Rank(cands []metadata.Candidate) []metadata.Candidate {
	ranked := slices.Clone(cands)
	slices.SortStableFunc(ranked, Compare)
	return ranked
}

// ValueKey returns the key under which two single-valued candidates are
// considered to agree. Fields with an alias table compare canonical values.
func ValueKey(field metadata.FieldName, value string, tables *normalize.Tables) string {
	if kind, ok := normalize.KindFor(field); ok {
		return normalize.Key(tables.Normalize(kind, value).Canonical)
	}
	return normalize.Key(value)
}

func resolveSingle(field metadata.FieldName, cands []metadata.Candidate, tables *normalize.Tables) metadata.Resolved {
	ranked := Rank(usable(cands))
	if len(ranked) == 0 {
		return metadata.Placeholder(NoteNoCandidate)
	}
	win := ranked[0]
	res := metadata.Resolved{
		Value:      win.Text,
		Confidence: win.Confidence,
		Source:     win.Source,
		Extractor:  win.Extractor,
		Note:       win.Note,
		Origin:     win.Origin,
	}

	// Candidates that agree with an already listed value are not
	// alternatives; only the best spelling of each distinct value is kept.
	seen := map[string]bool{ValueKey(field, win.Text, tables): true}
	for _, c := range ranked[1:] {
		key := ValueKey(field, c.Text, tables)
		if seen[key] {
			continue
		}
		seen[key] = true
		res.Alternatives = append(res.Alternatives, c)
	}
	return res
}

// usable drops candidates that carry no value or no confidence.
func usable(cands []metadata.Candidate) []metadata.Candidate {
	out := make([]metadata.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Empty() || c.Confidence <= metadata.Unknown {
			continue
		}
		out = append(out, c)
	}
	return out
}

func mergeAuthors(cands []metadata.Candidate) []metadata.ResolvedAuthor {
	best := make(map[string]metadata.Candidate)
	for _, c := range usable(cands) {
		if c.Author == nil {
			continue
		}
		key := normalize.AuthorKey(*c.Author)
		if prev, ok := best[key]; !ok || Compare(c, prev) < 0 {
			best[key] = c
		}
	}
	winners := maps.Values(best)
	slices.SortFunc(winners, func(a, b metadata.Candidate) int {
		if c := Compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(normalize.AuthorKey(*a.Author), normalize.AuthorKey(*b.Author))
	})
	out := make([]metadata.ResolvedAuthor, 0, len(winners))
	for _, c := range winners {
		out = append(out, metadata.ResolvedAuthor{
			Author:     *c.Author,
			Confidence: c.Confidence,
			Source:     c.Source,
			Extractor:  c.Extractor,
		})
	}
	return out
}

func mergeDependencies(cands []metadata.Candidate) []metadata.ResolvedDependency {
	best := make(map[string]metadata.Candidate)
	for _, c := range usable(cands) {
		if c.Dependency == nil {
			continue
		}
		key := normalize.DependencyKey(c.Dependency.Ecosystem, c.Dependency.Name)
		if prev, ok := best[key]; !ok || Compare(c, prev) < 0 {
			best[key] = c
		}
	}
	keys := maps.Keys(best)
	slices.SortFunc(keys, func(a, b string) int {
		da, db := best[a].Dependency, best[b].Dependency
		if da.Dev != db.Dev {
			if da.Dev {
				return 1
			}
			return -1
		}
		return strings.Compare(a, b)
	})
	out := make([]metadata.ResolvedDependency, 0, len(keys))
	for _, k := range keys {
		c := best[k]
		out = append(out, metadata.ResolvedDependency{
			Dependency: *c.Dependency,
			Confidence: c.Confidence,
			Source:     c.Source,
			Extractor:  c.Extractor,
		})
	}
	return out
}

// resolveFlag ORs the candidates asserting true at Reasonable or above.
// Without such evidence, the best explicit false is kept at its own tier;
// failing that the flag is an Unknown placeholder. Weaker true evidence is
// mentioned in the note but never flips the flag.
func resolveFlag(cands []metadata.Candidate) metadata.Flag {
	var yes, no, weak []metadata.Candidate
	for _, c := range usable(cands) {
		switch {
		case c.Flag && c.Confidence.AtLeast(metadata.Reasonable):
			yes = append(yes, c)
		case c.Flag:
			weak = append(weak, c)
		default:
			no = append(no, c)
		}
	}
	if len(yes) > 0 {
		win := Rank(yes)[0]
		return metadata.Flag{Value: true, Confidence: win.Confidence, Source: win.Source,
			Extractor: win.Extractor, Note: win.Note}
	}

	var flag metadata.Flag
	if len(no) > 0 {
		win := Rank(no)[0]
		flag = metadata.Flag{Confidence: win.Confidence, Source: win.Source, Extractor: win.Extractor, Note: win.Note}
	} else {
		flag = metadata.Flag{Confidence: metadata.Unknown, Note: NoteNoSecurity}
	}
	if len(weak) > 0 {
		w := Rank(weak)[0]
		flag.Note = fmt.Sprintf("%s; weak evidence: %s (%s)", flag.Note, w.Note, w.Source)
	}
	return flag
}
