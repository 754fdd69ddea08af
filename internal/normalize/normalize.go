// SPDX-License-Identifier: MPL-2.0

package normalize

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/autodoc/autodoc/pkg/cueutil"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const (
	// KindLanguage canonicalizes programming language names.
	KindLanguage Kind = "language"
	// KindLicense canonicalizes license identifiers to SPDX-style IDs.
	KindLicense Kind = "license"
	// KindInstallMethod canonicalizes install tool names.
	KindInstallMethod Kind = "install_method"

	embeddedName = "aliases.cue"
)

var (
	//go:embed aliases.cue
	embeddedAliases []byte

	// ErrDuplicateAlias is returned when one spelling maps to two canonical values.
	ErrDuplicateAlias = errors.New("duplicate alias")

	defaultTables = sync.OnceValues(func() (*Tables, error) {
		return Parse(embeddedAliases, embeddedName)
	})

	depSeparators = regexp.MustCompile(`[-_.]+`)
)

type (
	// Kind names one alias table.
	Kind string

	// Value is the outcome of normalizing one raw string.
	Value struct {
		Canonical string
		// Mapped is false when no alias matched and Canonical is the raw input.
		Mapped bool
	}

	// AliasTable maps lookup keys to canonical identifiers. It is immutable.
	AliasTable struct {
		kind  Kind
		index map[string]string
	}

	// Tables holds one AliasTable per Kind. It is immutable after Parse and
	// safe to share between concurrent runs.
	Tables struct {
		tables map[Kind]*AliasTable
	}

	// DuplicateAliasError reports a spelling claimed by two canonical values.
	DuplicateAliasError struct {
		Kind  Kind
		Alias string
		First string
		Other string
	}
)

// Kinds returns the alias table kinds in a stable order.
func Kinds() []Kind { return []Kind{KindLanguage, KindLicense, KindInstallMethod} }

// Error implements the error interface.
func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("%s table: alias %q maps to both %q and %q", e.Kind, e.Alias, e.First, e.Other)
}

// Unwrap returns ErrDuplicateAlias for errors.Is() compatibility.
func (e *DuplicateAliasError) Unwrap() error { return ErrDuplicateAlias }

// Default returns the embedded alias tables, compiled once per process.
func Default() (*Tables, error) {
	return defaultTables()
}

// Parse compiles CUE alias tables. The source must define a struct per Kind
// mapping canonical identifiers to lists of aliases.
func Parse(src []byte, filename string) (*Tables, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if v.Err() != nil {
		return nil, cueutil.FormatError(v.Err(), filename)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueutil.FormatError(err, filename)
	}

	t := &Tables{tables: make(map[Kind]*AliasTable, len(Kinds()))}
	for _, kind := range Kinds() {
		raw := map[string][]string{}
		field := v.LookupPath(cue.ParsePath(string(kind)))
		if field.Exists() {
			if err := field.Decode(&raw); err != nil {
				return nil, cueutil.FormatError(err, filename)
			}
		}
		table, err := NewAliasTable(kind, raw)
		if err != nil {
			return nil, err
		}
		t.tables[kind] = table
	}
	return t, nil
}

// NewAliasTable builds a table from canonical → aliases.
func NewAliasTable(kind Kind, entries map[string][]string) (*AliasTable, error) {
	canonicals := make([]string, 0, len(entries))
	for c := range entries {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	index := make(map[string]string)
	add := func(alias, canonical string) error {
		k := Key(alias)
		if k == "" {
			return nil
		}
		if prev, ok := index[k]; ok && prev != canonical {
			return &DuplicateAliasError{Kind: kind, Alias: alias, First: prev, Other: canonical}
		}
		index[k] = canonical
		return nil
	}
	for _, c := range canonicals {
		if err := add(c, c); err != nil {
			return nil, err
		}
		for _, a := range entries[c] {
			if err := add(a, c); err != nil {
				return nil, err
			}
		}
	}
	return &AliasTable{kind: kind, index: index}, nil
}

// Lookup maps raw through the table.
func (a *AliasTable) Lookup(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if a == nil {
		return Value{Canonical: trimmed}
	}
	if c, ok := a.index[Key(trimmed)]; ok {
		return Value{Canonical: c, Mapped: true}
	}
	return Value{Canonical: trimmed}
}

// Len returns the number of indexed spellings.
func (a *AliasTable) Len() int { return len(a.index) }

// Table returns the table for kind, or nil.
func (t *Tables) Table(kind Kind) *AliasTable {
	if t == nil {
		return nil
	}
	return t.tables[kind]
}

// Normalize maps raw through the table for kind. Unmapped values pass
// through unchanged with Mapped=false.
func (t *Tables) Normalize(kind Kind, raw string) Value {
	return t.Table(kind).Lookup(raw)
}

// KindFor returns the alias table that applies to a metadata field.
func KindFor(field metadata.FieldName) (Kind, bool) {
	switch field {
	case metadata.FieldLanguage:
		return KindLanguage, true
	case metadata.FieldLicense:
		return KindLicense, true
	case metadata.FieldInstallMethod:
		return KindInstallMethod, true
	default:
		return "", false
	}
}

// Key returns the comparison key for a surface string: Unicode NFKC,
// case-folded, internal whitespace collapsed, surrounding quotes and
// trailing periods removed. A Caser is stateful, so one is built per call.
func Key(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "\"'`")
	return strings.TrimRight(s, ".")
}

// DependencyKey returns the dedup key of a dependency name. Runs of "-", "_"
// and "." are equivalent (PEP 503), and the ecosystem qualifies the name so
// that same-named packages from different registries stay distinct.
func DependencyKey(ecosystem, name string) string {
	k := depSeparators.ReplaceAllString(Key(name), "-")
	if ecosystem == "" {
		return k
	}
	return Key(ecosystem) + ":" + k
}

// AuthorKey returns the dedup key of an author: the folded name, or the
// folded email when the name is empty.
func AuthorKey(a metadata.Author) string {
	if k := Key(a.Name); k != "" {
		return k
	}
	return Key(a.Email)
}

// Apply normalizes the resolved single-valued fields of m in place. It runs
// once, after arbitration.
func (t *Tables) Apply(m *metadata.ProjectMetadata) {
	for _, field := range metadata.SingleFields() {
		kind, ok := KindFor(field)
		if !ok {
			continue
		}
		slot := m.Slot(field)
		if slot.IsPlaceholder() {
			continue
		}
		v := t.Normalize(kind, slot.Value)
		if !v.Mapped {
			slot.Normalization = metadata.NormalizationUncanonicalized
			continue
		}
		if v.Canonical != slot.Value {
			slot.Raw = slot.Value
			slot.Value = v.Canonical
		}
		slot.Normalization = metadata.NormalizationCanonical
	}
}
