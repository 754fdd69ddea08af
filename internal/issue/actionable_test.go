// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "scan repository"},
			expected: "failed to scan repository",
		},
		{
			name:     "with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./.autodoc.cue"},
			expected: "failed to load configuration: ./.autodoc.cue",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./.autodoc.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: ./.autodoc.cue: file not found",
		},
		{
			name:     "cause without resource",
			err:      &ActionableError{Operation: "write README", Cause: errors.New("disk full")},
			expected: "failed to write README: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	err := &ActionableError{
		Operation:   "scan repository",
		Resource:    "/srv/project",
		Suggestions: []string{"Check the directory permissions", "Run as a user that can read it"},
		Cause:       fmt.Errorf("open root: %w", root),
	}

	short := err.Format(false)
	for _, want := range []string{
		"failed to scan repository: /srv/project: open root: permission denied",
		"\n\n  • Check the directory permissions",
		"\n  • Run as a user that can read it",
	} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) includes the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "\n  1. open root: permission denied", "\n  2. permission denied"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("load configuration").
		WithResource("config.cue").
		WithSuggestion("first").
		WithSuggestion("second").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause)
	err := ctx.BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() = %T, want *ActionableError", err)
	}
	if ae.Operation != "load configuration" || ae.Resource != "config.cue" {
		t.Errorf("BuildError() = %+v, want operation and resource set", ae)
	}
	if len(ae.Suggestions) != 2 || ae.Suggestions[1] != "second" {
		t.Errorf("Suggestions = %v, want two in order", ae.Suggestions)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(BuildError(), cause) = false, want true")
	}
	if ae.Guide() != Get(ConfigLoadFailedId) {
		t.Errorf("Guide() = %v, want the config issue", ae.Guide())
	}

	// Later suggestions do not leak into an error already built.
	ctx.WithSuggestion("third")
	if len(ae.Suggestions) != 2 {
		t.Errorf("Suggestions = %v after reusing the builder, want 2", ae.Suggestions)
	}

	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil interface", err)
	}
}

func TestGuideFor(t *testing.T) {
	t.Parallel()

	linked := NewErrorContext().WithOperation("scan repository").WithIssue(RepositoryNotFoundId).BuildError()
	tests := []struct {
		name string
		err  error
		want *Issue
	}{
		{"nil", nil, nil},
		{"plain error", errors.New("x"), nil},
		{"unlinked", &ActionableError{Operation: "scan repository"}, nil},
		{"linked", linked, Get(RepositoryNotFoundId)},
		{"wrapped", fmt.Errorf("run: %w", linked), Get(RepositoryNotFoundId)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GuideFor(tt.err); got != tt.want {
				t.Errorf("GuideFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	if Wrap(nil, "x", "y") != nil {
		t.Error("Wrap(nil) != nil")
	}

	cause := errors.New("eof")
	err := Wrap(cause, "read manifest", "go.mod")
	if got := err.Error(); got != "failed to read manifest: go.mod: eof" {
		t.Errorf("Wrap().Error() = %q, want %q", got, "failed to read manifest: go.mod: eof")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(Wrap(), cause) = false, want true")
	}
	if GuideFor(err) != nil {
		t.Error("GuideFor(Wrap()) != nil, want no linked issue")
	}
}
