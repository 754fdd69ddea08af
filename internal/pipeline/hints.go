// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

var (
	docsDirs    = []string{"docs", "doc", "documentation"}
	exampleDirs = []string{"examples", "example", "samples"}

	// ciFiles are CI definitions recognized by presence alone.
	ciFiles = []string{
		".gitlab-ci.yml",
		".travis.yml",
		"azure-pipelines.yml",
		"Jenkinsfile",
		".circleci/config.yml",
	}
)

// workflow is the part of a GitHub Actions workflow needed to tell a real
// workflow from an unrelated YAML file.
type workflow struct {
	Jobs map[string]yaml.Node `yaml:"jobs"`
}

func computeHints(snap *discovery.Result) (metadata.Hints, []discovery.Diagnostic) {
	h := metadata.Hints{
		HasTests:  len(snap.ByCategory(discovery.CategoryTest)) > 0,
		FileCount: snap.Len(),
		Truncated: snap.Truncated(),
	}
	for _, d := range docsDirs {
		h.HasDocs = h.HasDocs || snap.HasDir(d)
	}
	for _, d := range exampleDirs {
		h.HasExamples = h.HasExamples || snap.HasDir(d)
	}

	var diags []discovery.Diagnostic
	for _, f := range snap.Files() {
		if h.HasCI {
			break
		}
		switch {
		case isWorkflow(f.Path()):
			ok, err := validWorkflow(f)
			if err != nil {
				diags = append(diags, discovery.Diagnostic{
					Severity:  discovery.SeverityWarning,
					Code:      discovery.CodeParseFailed,
					Message:   fmt.Sprintf("workflow %s: %v", f.Path(), err),
					Path:      f.Path(),
					Component: "hints",
					Cause:     err,
				})
			}
			h.HasCI = ok
		case slices.Contains(ciFiles, f.Path()):
			h.HasCI = true
		}
	}
	return h, diags
}

func isWorkflow(rel string) bool {
	if path.Dir(rel) != ".github/workflows" {
		return false
	}
	ext := path.Ext(rel)
	return ext == ".yml" || ext == ".yaml"
}

func validWorkflow(f discovery.FileRecord) (bool, error) {
	text, err := f.Text()
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	var wf workflow
	if err := yaml.Unmarshal([]byte(text), &wf); err != nil {
		return false, err
	}
	return len(wf.Jobs) > 0, nil
}
