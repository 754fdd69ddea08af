// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	if RepositoryNotFoundId != 1 {
		t.Errorf("RepositoryNotFoundId = %d, want 1", RepositoryNotFoundId)
	}
	if len(issues) != int(UnknownFieldId) {
		t.Errorf("catalog has %d issues, want one per ID (%d)", len(issues), UnknownFieldId)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{RepositoryNotFoundId, false, "Repository not found"},
		{RepositoryNotReadableId, false, "Repository not readable"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{InvalidExtractorOrderId, false, "Invalid extractor order"},
		{BudgetExceededId, false, "Discovery budget reached"},
		{EnhancerUnavailableId, false, "ANTHROPIC_API_KEY"},
		{EnhancerFailedId, false, "Enhancement failed"},
		{OutputExistsId, false, "--force"},
		{UnknownFieldId, false, "security_relevant"},
		{Id(9999), true, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) = %v, want nil", tt.id, issue)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestIssue_LinksAreExternal(t *testing.T) {
	t.Parallel()

	for _, issue := range Values() {
		for _, link := range issue.ExtLinks() {
			if !strings.HasPrefix(string(link), "https://") {
				t.Errorf("issue %d link %q is not an https URL", issue.Id(), link)
			}
			if strings.Contains(string(link), "github.com/autodoc/autodoc") {
				t.Errorf("issue %d links to %q, which this repository does not publish", issue.Id(), link)
			}
		}
	}
}

func TestIssue_ExtLinks(t *testing.T) {
	t.Parallel()

	links := Get(ConfigLoadFailedId).ExtLinks()
	if len(links) != 1 || links[0] != "https://cuelang.org/docs/" {
		t.Fatalf("ExtLinks() = %v, want the CUE docs", links)
	}
	if links := Get(BudgetExceededId).ExtLinks(); len(links) != 0 {
		t.Errorf("ExtLinks() = %v, want none", links)
	}
	if links := Get(EnhancerUnavailableId).ExtLinks(); len(links) != 2 {
		t.Errorf("ExtLinks() = %v, want the two provider key pages", links)
	}

	links[0] = "modified"
	if Get(ConfigLoadFailedId).ExtLinks()[0] != "https://cuelang.org/docs/" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Markdown(t *testing.T) {
	t.Parallel()

	md := Get(ConfigLoadFailedId).Markdown()
	for _, want := range []string{
		"# Failed to load configuration!",
		"## See also:\n",
		"- <https://cuelang.org/docs/>\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}

	if md := Get(BudgetExceededId).Markdown(); strings.Contains(md, "See also") {
		t.Errorf("Markdown() without links = %q, want no See also section", md)
	}
}

//nolint:paralleltest // replaces the package-level render function.
func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var gotStyle string
	render = func(in string, stylePath string) (string, error) {
		gotStyle = stylePath
		return in, nil
	}

	rendered, err := Get(BudgetExceededId).Render("dark")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if gotStyle != "dark" {
		t.Errorf("Render() style = %q, want dark", gotStyle)
	}
	if !strings.Contains(rendered, "--max-files -1") {
		t.Errorf("Render() = %q, want the message", rendered)
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(issues))
	}
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
	}
}
