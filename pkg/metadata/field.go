// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"errors"
	"fmt"
)

const (
	// FieldTitle is the project name.
	FieldTitle FieldName = "title"
	// FieldLanguage is the primary programming language.
	FieldLanguage FieldName = "language"
	// FieldDescription is a one-paragraph project summary.
	FieldDescription FieldName = "description"
	// FieldLicense is the license identifier.
	FieldLicense FieldName = "license"
	// FieldInstallMethod is the install tool (pip, npm, go, ...).
	FieldInstallMethod FieldName = "install_method"
	// FieldInstallCommand is a ready-to-run install command line.
	FieldInstallCommand FieldName = "install_command"
	// FieldUsageType classifies the project as library, cli or framework.
	FieldUsageType FieldName = "usage_type"
	// FieldEntryPoint is the main executable file or command.
	FieldEntryPoint FieldName = "entry_point"
	// FieldVersion is the declared project version.
	FieldVersion FieldName = "version"
	// FieldRepositoryURL is the canonical source repository URL.
	FieldRepositoryURL FieldName = "repository_url"
	// FieldAuthors lists authors and maintainers.
	FieldAuthors FieldName = "authors"
	// FieldDependencies lists declared dependencies.
	FieldDependencies FieldName = "dependencies"
	// FieldSecurityRelevant flags projects that handle security-sensitive concerns.
	FieldSecurityRelevant FieldName = "security_relevant"

	// KindSingle fields resolve to exactly one value.
	KindSingle FieldKind = "single"
	// KindMulti fields resolve to a deduplicated set.
	KindMulti FieldKind = "multi"
	// KindFlag fields resolve to a boolean by OR-combination.
	KindFlag FieldKind = "flag"
)

// ErrInvalidFieldName is returned when a FieldName value is not recognized.
var ErrInvalidFieldName = errors.New("invalid field name")

type (
	// FieldName identifies a ProjectMetadata slot.
	FieldName string

	// FieldKind describes how candidates for a field are combined.
	FieldKind string

	// InvalidFieldNameError is returned when a FieldName value is not recognized.
	// It wraps ErrInvalidFieldName for errors.Is() compatibility.
	InvalidFieldNameError struct {
		Value FieldName
	}
)

// singleFields is the render and arbitration order of single-valued fields.
var singleFields = []FieldName{
	FieldTitle,
	FieldDescription,
	FieldLanguage,
	FieldLicense,
	FieldVersion,
	FieldInstallMethod,
	FieldInstallCommand,
	FieldUsageType,
	FieldEntryPoint,
	FieldRepositoryURL,
}

// Error implements the error interface.
func (e *InvalidFieldNameError) Error() string {
	return fmt.Sprintf("invalid field name %q", e.Value)
}

// Unwrap returns ErrInvalidFieldName for errors.Is() compatibility.
func (e *InvalidFieldNameError) Unwrap() error { return ErrInvalidFieldName }

// SingleFields returns the single-valued fields in a stable order.
func SingleFields() []FieldName {
	out := make([]FieldName, len(singleFields))
	copy(out, singleFields)
	return out
}

// AllFields returns every recognized field in a stable order.
func AllFields() []FieldName {
	return append(SingleFields(), FieldAuthors, FieldDependencies, FieldSecurityRelevant)
}

// Kind returns how candidates for the field are combined.
func (f FieldName) Kind() FieldKind {
	switch f {
	case FieldAuthors, FieldDependencies:
		return KindMulti
	case FieldSecurityRelevant:
		return KindFlag
	default:
		return KindSingle
	}
}

// IsValid returns whether the FieldName is a recognized field,
// and a list of validation errors if it is not.
func (f FieldName) IsValid() (bool, []error) {
	for _, known := range AllFields() {
		if f == known {
			return true, nil
		}
	}
	return false, []error{&InvalidFieldNameError{Value: f}}
}

// String returns the field name.
func (f FieldName) String() string { return string(f) }
