// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

type (
	// Citation reads CITATION.cff files.
	Citation struct{}

	citationFile struct {
		Title          string      `yaml:"title"`
		Version        yamlScalar  `yaml:"version"`
		Abstract       string      `yaml:"abstract"`
		License        yamlList    `yaml:"license"`
		RepositoryCode string      `yaml:"repository-code"`
		Repository     string      `yaml:"repository"`
		URL            string      `yaml:"url"`
		Authors        []cffPerson `yaml:"authors"`
	}

	cffPerson struct {
		GivenNames   string `yaml:"given-names"`
		FamilyNames  string `yaml:"family-names"`
		NameParticle string `yaml:"name-particle"`
		Name         string `yaml:"name"`
		Email        string `yaml:"email"`
		ORCID        string `yaml:"orcid"`
		Website      string `yaml:"website"`
	}

	// yamlScalar keeps the literal text of any scalar, so "1.10" stays
	// "1.10" instead of becoming the float 1.1.
	yamlScalar string

	// yamlList accepts a single scalar or a sequence of scalars.
	yamlList []string
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *yamlScalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = yamlScalar(node.Value)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *yamlList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = yamlList{node.Value}
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	}
	return nil
}

// Name implements Extractor.
func (Citation) Name() string { return NameCitation }

// Interested implements Extractor.
func (Citation) Interested(f discovery.FileRecord) bool {
	return f.Name() == "CITATION.cff"
}

// Extract implements Extractor.
func (ct Citation) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameCitation)
	for _, f := range res.Select(ct.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		var doc citationFile
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			c.parseFailed(f.Path(), "YAML", err)
			continue
		}
		src := f.Path()
		c.text(metadata.FieldTitle, doc.Title, metadata.Explicit, src, "title")
		c.text(metadata.FieldVersion, string(doc.Version), metadata.Explicit, src, "version")
		c.text(metadata.FieldDescription, collapse(doc.Abstract), metadata.Strong, src, "abstract")
		if len(doc.License) > 0 {
			c.text(metadata.FieldLicense, doc.License[0], metadata.Explicit, src, "license")
		}
		for _, raw := range []string{doc.RepositoryCode, doc.Repository} {
			if u := cleanRepositoryURL(raw); u != "" {
				c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, src, "repository-code")
				break
			}
		}
		for _, p := range doc.Authors {
			name := p.Name
			if name == "" {
				name = strings.Join(strings.Fields(p.GivenNames+" "+p.NameParticle+" "+p.FamilyNames), " ")
			}
			url := p.ORCID
			if url == "" {
				url = p.Website
			}
			c.author(metadata.Author{Name: name, Email: p.Email, URL: url}, metadata.Explicit, src)
		}
	}
	return c.output()
}
