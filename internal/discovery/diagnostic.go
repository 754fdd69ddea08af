// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityInfo is an informational diagnostic (e.g. an unsupported ignore pattern).
	SeverityInfo Severity = "info"
	// SeverityWarning indicates a recoverable warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal error diagnostic.
	SeverityError Severity = "error"

	// CodeSubtreeUnreadable is emitted when a directory below the root cannot be read.
	CodeSubtreeUnreadable DiagnosticCode = "subtree_unreadable"
	// CodeSymlinkSkipped is emitted when a symbolic link is not followed.
	CodeSymlinkSkipped DiagnosticCode = "symlink_skipped"
	// CodeIgnorePatternUnsupported is emitted for ignore patterns that are not honored.
	CodeIgnorePatternUnsupported DiagnosticCode = "ignore_pattern_unsupported"
	// CodeGitignoreUnreadable is emitted when the root .gitignore exists but cannot be read.
	CodeGitignoreUnreadable DiagnosticCode = "gitignore_unreadable"
	// CodeLargeRepository is emitted once when the walk passes LargeRepositoryFiles.
	CodeLargeRepository DiagnosticCode = "large_repository"
	// CodeBudgetExceeded is emitted when discovery stops at the file or byte budget.
	CodeBudgetExceeded DiagnosticCode = "budget_exceeded"
	// CodeParseFailed is emitted by extractors when a file cannot be parsed.
	CodeParseFailed DiagnosticCode = "parse_failed"
	// CodeReadFailed is emitted by extractors when file content cannot be read.
	CodeReadFailed DiagnosticCode = "read_failed"
	// CodeExtractorPanicked is emitted when an extractor panics and is recovered.
	CodeExtractorPanicked DiagnosticCode = "extractor_panicked"
	// CodeEnhancerFailed is emitted when the text-generation collaborator fails.
	CodeEnhancerFailed DiagnosticCode = "enhancer_failed"
)

var (
	// ErrInvalidSeverity is returned when a Severity value is not recognized.
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrInvalidDiagnosticCode is returned when a DiagnosticCode value is not recognized.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// InvalidDiagnosticCodeError is returned when a DiagnosticCode value is not recognized.
	InvalidDiagnosticCodeError struct {
		Value DiagnosticCode
	}

	// Diagnostic is a structured, non-fatal problem that is returned to
	// callers rather than written to stderr, so the CLI decides how to render it.
	Diagnostic struct {
		Severity Severity       `json:"severity"`
		Code     DiagnosticCode `json:"code"`
		Message  string         `json:"message"`
		// Path is the repository-relative file associated with the diagnostic (optional).
		Path string `json:"path,omitempty"`
		// Component names the extractor or stage that produced it (optional).
		Component string `json:"component,omitempty"`
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error `json:"-"`
	}
)

// Error implements the error interface.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid severity %q", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// Error implements the error interface.
func (e *InvalidDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid diagnostic code %q", e.Value)
}

// Unwrap returns ErrInvalidDiagnosticCode for errors.Is() compatibility.
func (e *InvalidDiagnosticCodeError) Unwrap() error { return ErrInvalidDiagnosticCode }

// IsValid returns whether the Severity is a known level.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// IsValid returns whether the DiagnosticCode is a known code.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeSubtreeUnreadable, CodeSymlinkSkipped, CodeIgnorePatternUnsupported,
		CodeGitignoreUnreadable, CodeLargeRepository, CodeBudgetExceeded, CodeParseFailed, CodeReadFailed,
		CodeExtractorPanicked, CodeEnhancerFailed:
		return true, nil
	default:
		return false, []error{&InvalidDiagnosticCodeError{Value: c}}
	}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	prefix := string(d.Severity)
	if d.Component != "" {
		prefix += " [" + d.Component + "]"
	}
	if d.Path != "" {
		return fmt.Sprintf("%s %s: %s", prefix, d.Path, d.Message)
	}
	return prefix + " " + d.Message
}
