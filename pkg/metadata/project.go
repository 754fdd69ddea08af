// SPDX-License-Identifier: MPL-2.0

package metadata

const (
	// NormalizationNone means the field has no alias table.
	NormalizationNone Normalization = ""
	// NormalizationCanonical means the value was mapped through an alias table.
	NormalizationCanonical Normalization = "canonical"
	// NormalizationUncanonicalized means no alias matched and the raw value passed through.
	NormalizationUncanonicalized Normalization = "uncanonicalized"
)

type (
	// Normalization records what the normalization layer did to a value.
	Normalization string

	// Resolved is the arbitrated value of a single-valued field.
	Resolved struct {
		Value         string        `json:"value"`
		Confidence    Confidence    `json:"confidence"`
		Source        string        `json:"source,omitempty"`
		Extractor     string        `json:"extractor,omitempty"`
		Note          string        `json:"note,omitempty"`
		Origin        Origin        `json:"origin,omitempty"`
		Normalization Normalization `json:"normalization,omitempty"`
		// Raw is the pre-normalization value when normalization changed it.
		Raw string `json:"raw,omitempty"`
		// Alternatives are the candidates that lost arbitration, best first.
		Alternatives []Candidate `json:"alternatives,omitempty"`
	}

	// ResolvedAuthor is one deduplicated author.
	ResolvedAuthor struct {
		Author
		Confidence Confidence `json:"confidence"`
		Source     string     `json:"source,omitempty"`
		Extractor  string     `json:"extractor,omitempty"`
	}

	// ResolvedDependency is one deduplicated dependency.
	ResolvedDependency struct {
		Dependency
		Confidence Confidence `json:"confidence"`
		Source     string     `json:"source,omitempty"`
		Extractor  string     `json:"extractor,omitempty"`
	}

	// Flag is a boolean field with confidence.
	Flag struct {
		Value      bool       `json:"value"`
		Confidence Confidence `json:"confidence"`
		Source     string     `json:"source,omitempty"`
		Extractor  string     `json:"extractor,omitempty"`
		Note       string     `json:"note,omitempty"`
	}

	// Hints are structural observations used by renderers to pick sections.
	Hints struct {
		HasTests    bool `json:"has_tests"`
		HasDocs     bool `json:"has_docs"`
		HasExamples bool `json:"has_examples"`
		HasCI       bool `json:"has_ci"`
		FileCount   int  `json:"file_count"`
		Truncated   bool `json:"truncated"`
	}

	// ProjectMetadata is the unified record produced by one run. Every slot
	// is always present: either a resolved value above Unknown or a placeholder.
	ProjectMetadata struct {
		Title          Resolved `json:"title"`
		Language       Resolved `json:"language"`
		Description    Resolved `json:"description"`
		License        Resolved `json:"license"`
		InstallMethod  Resolved `json:"install_method"`
		InstallCommand Resolved `json:"install_command"`
		UsageType      Resolved `json:"usage_type"`
		EntryPoint     Resolved `json:"entry_point"`
		Version        Resolved `json:"version"`
		RepositoryURL  Resolved `json:"repository_url"`

		Authors          []ResolvedAuthor     `json:"authors"`
		Dependencies     []ResolvedDependency `json:"dependencies"`
		SecurityRelevant Flag                 `json:"security_relevant"`

		Hints Hints `json:"hints"`
	}
)

// Placeholder returns an explicit empty slot.
func Placeholder(note string) Resolved {
	return Resolved{Confidence: Unknown, Note: note}
}

// IsPlaceholder reports whether the field needs human input.
func (r Resolved) IsPlaceholder() bool {
	return r.Value == "" || r.Confidence == Unknown
}

// NeedsReview reports whether the confidence is below Reasonable.
func (r Resolved) NeedsReview() bool {
	return r.Confidence < Reasonable
}

// Slot returns a pointer to the single-valued slot for name, or nil when the
// field is not single-valued.
func (m *ProjectMetadata) Slot(name FieldName) *Resolved {
	switch name {
	case FieldTitle:
		return &m.Title
	case FieldLanguage:
		return &m.Language
	case FieldDescription:
		return &m.Description
	case FieldLicense:
		return &m.License
	case FieldInstallMethod:
		return &m.InstallMethod
	case FieldInstallCommand:
		return &m.InstallCommand
	case FieldUsageType:
		return &m.UsageType
	case FieldEntryPoint:
		return &m.EntryPoint
	case FieldVersion:
		return &m.Version
	case FieldRepositoryURL:
		return &m.RepositoryURL
	default:
		return nil
	}
}

// PlaceholderFields returns the single-valued fields that hold placeholders.
func (m *ProjectMetadata) PlaceholderFields() []FieldName {
	var out []FieldName
	for _, name := range singleFields {
		if m.Slot(name).IsPlaceholder() {
			out = append(out, name)
		}
	}
	return out
}

// ReviewFields returns the single-valued fields that hold a value whose
// confidence is below Reasonable.
func (m *ProjectMetadata) ReviewFields() []FieldName {
	var out []FieldName
	for _, name := range singleFields {
		slot := m.Slot(name)
		if !slot.IsPlaceholder() && slot.NeedsReview() {
			out = append(out, name)
		}
	}
	return out
}
