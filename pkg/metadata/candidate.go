// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"path"
	"strings"
)

const (
	// OriginHeuristic marks candidates produced by an extractor.
	OriginHeuristic Origin = "heuristic"
	// OriginGenerated marks candidates produced by an external text generator.
	OriginGenerated Origin = "generated"
)

type (
	// Origin records whether a value came from static extraction or was generated.
	Origin string

	// Author is an author or maintainer record.
	Author struct {
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
		URL   string `json:"url,omitempty"`
		Role  string `json:"role,omitempty"`
	}

	// Dependency is a declared project dependency.
	Dependency struct {
		Name      string `json:"name"`
		Version   string `json:"version,omitempty"`
		Dev       bool   `json:"dev,omitempty"`
		Ecosystem string `json:"ecosystem,omitempty"`
	}

	// Candidate is one proposed value for one field, prior to arbitration.
	// Exactly one of Text, Author, Dependency or Flag carries the value,
	// according to Field.Kind().
	Candidate struct {
		Field      FieldName   `json:"field"`
		Text       string      `json:"text,omitempty"`
		Author     *Author     `json:"author,omitempty"`
		Dependency *Dependency `json:"dependency,omitempty"`
		Flag       bool        `json:"flag,omitempty"`
		Confidence Confidence  `json:"confidence"`
		// Source is the repository-relative file (or pseudo-source such as
		// "directory-name") the value was read from.
		Source string `json:"source"`
		Note   string `json:"note,omitempty"`
		Origin Origin `json:"origin"`

		// Extractor and Priority are stamped by the registry after extraction.
		// Lower Priority ranks higher in tie-breaks.
		Extractor string `json:"extractor,omitempty"`
		Priority  int    `json:"-"`
	}
)

// TextCandidate builds a candidate for a single-valued field.
func TextCandidate(field FieldName, value string, conf Confidence, source, note string) Candidate {
	return Candidate{
		Field:      field,
		Text:       strings.TrimSpace(value),
		Confidence: conf,
		Source:     source,
		Note:       note,
		Origin:     OriginHeuristic,
	}
}

// AuthorCandidate builds an authors candidate.
func AuthorCandidate(a Author, conf Confidence, source string) Candidate {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	return Candidate{
		Field:      FieldAuthors,
		Author:     &a,
		Confidence: conf,
		Source:     source,
		Origin:     OriginHeuristic,
	}
}

// DependencyCandidate builds a dependencies candidate.
func DependencyCandidate(d Dependency, conf Confidence, source string) Candidate {
	d.Name = strings.TrimSpace(d.Name)
	d.Version = strings.TrimSpace(d.Version)
	return Candidate{
		Field:      FieldDependencies,
		Dependency: &d,
		Confidence: conf,
		Source:     source,
		Origin:     OriginHeuristic,
	}
}

// FlagCandidate builds a security-relevance candidate.
func FlagCandidate(value bool, conf Confidence, source, note string) Candidate {
	return Candidate{
		Field:      FieldSecurityRelevant,
		Flag:       value,
		Confidence: conf,
		Source:     source,
		Note:       note,
		Origin:     OriginHeuristic,
	}
}

// Empty reports whether the candidate carries no usable value.
func (c Candidate) Empty() bool {
	switch c.Field.Kind() {
	case KindMulti:
		if c.Author != nil {
			return c.Author.Name == "" && c.Author.Email == ""
		}
		if c.Dependency != nil {
			return c.Dependency.Name == ""
		}
		return true
	case KindFlag:
		return false
	default:
		return c.Text == ""
	}
}

// Depth returns the number of directories between the repository root and
// the candidate's source. Pseudo-sources count as depth zero.
func (c Candidate) Depth() int {
	if c.Source == "" || !strings.Contains(c.Source, "/") {
		return 0
	}
	return strings.Count(path.Clean(c.Source), "/")
}

// Display returns a short human-readable rendering of the candidate value.
func (c Candidate) Display() string {
	switch {
	case c.Author != nil:
		return c.Author.String()
	case c.Dependency != nil:
		return c.Dependency.String()
	case c.Field.Kind() == KindFlag:
		if c.Flag {
			return "true"
		}
		return "false"
	default:
		return c.Text
	}
}

// String formats the author as "Name <email>".
func (a Author) String() string {
	switch {
	case a.Name != "" && a.Email != "":
		return a.Name + " <" + a.Email + ">"
	case a.Name != "":
		return a.Name
	default:
		return a.Email
	}
}

// String formats the dependency as "name version".
func (d Dependency) String() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + " " + d.Version
}
