// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"path"

	"github.com/pelletier/go-toml/v2"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemCargo = "cargo"

type (
	// Rust reads Cargo.toml manifests.
	Rust struct{}

	cargoManifest struct {
		Package *struct {
			Name        string   `toml:"name"`
			Version     any      `toml:"version"`
			Description any      `toml:"description"`
			License     any      `toml:"license"`
			Authors     []string `toml:"authors"`
			Repository  any      `toml:"repository"`
			Homepage    any      `toml:"homepage"`
		} `toml:"package"`
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
		Bin               []struct {
			Name string `toml:"name"`
			Path string `toml:"path"`
		} `toml:"bin"`
	}
)

// Name implements Extractor.
func (Rust) Name() string { return NameRust }

// Interested implements Extractor.
func (Rust) Interested(f discovery.FileRecord) bool {
	return f.Category() == discovery.CategoryConfig && f.Name() == "Cargo.toml"
}

// Extract implements Extractor.
func (r Rust) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameRust)
	var parsed []discovery.FileRecord
	var depNames []string
	cli := false

	for _, f := range res.Select(r.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		var doc cargoManifest
		if err := toml.Unmarshal([]byte(text), &doc); err != nil {
			c.parseFailed(f.Path(), "TOML", err)
			continue
		}
		parsed = append(parsed, f)
		src := f.Path()

		for _, set := range []struct {
			deps map[string]any
			dev  bool
		}{{doc.Dependencies, false}, {doc.DevDependencies, true}, {doc.BuildDependencies, true}} {
			for _, name := range sortedKeys(set.deps) {
				if !set.dev {
					depNames = append(depNames, name)
				}
				c.dependency(metadata.Dependency{
					Name:      name,
					Version:   versionOf(set.deps[name]),
					Dev:       set.dev,
					Ecosystem: ecosystemCargo,
				}, metadata.Explicit, src)
			}
		}

		pkg := doc.Package
		if pkg == nil {
			continue
		}
		// Workspace-inherited values ({ workspace = true }) are tables and
		// are skipped by the string assertions.
		str := func(v any) string {
			s, _ := v.(string)
			return s
		}
		c.text(metadata.FieldTitle, pkg.Name, metadata.Explicit, src, "[package].name")
		c.text(metadata.FieldVersion, str(pkg.Version), metadata.Explicit, src, "[package].version")
		c.text(metadata.FieldDescription, str(pkg.Description), metadata.Explicit, src, "[package].description")
		c.text(metadata.FieldLicense, str(pkg.License), metadata.Explicit, src, "[package].license")
		for _, a := range pkg.Authors {
			c.author(parsePerson(a), metadata.Explicit, src)
		}
		if u := cleanRepositoryURL(str(pkg.Repository)); u != "" {
			c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, src, "[package].repository")
		} else if u := cleanRepositoryURL(str(pkg.Homepage)); isCodeHost(u) {
			c.text(metadata.FieldRepositoryURL, u, metadata.Strong, src, "[package].homepage")
		}

		dir := dirOf(src)
		mainRS := path.Join(dir, "src/main.rs")
		binary := ""
		switch {
		case len(doc.Bin) > 0 && doc.Bin[0].Name != "":
			binary = doc.Bin[0].Name
			c.text(metadata.FieldEntryPoint, binary, metadata.Explicit, src, "[[bin]].name")
		case len(res.Select(func(f discovery.FileRecord) bool { return f.Path() == mainRS })) > 0:
			binary = pkg.Name
			c.text(metadata.FieldEntryPoint, mainRS, metadata.Strong, mainRS, "binary crate")
		}
		if binary != "" {
			cli = true
			c.text(metadata.FieldInstallCommand, "cargo install "+pkg.Name, metadata.Reasonable, src,
				"crate builds a binary")
		} else if pkg.Name != "" {
			c.text(metadata.FieldInstallCommand, "cargo add "+pkg.Name, metadata.Reasonable, src,
				"library crate")
		}
	}

	if primary, ok := shallowest(parsed); ok {
		src := primary.Path()
		c.text(metadata.FieldLanguage, "Rust", manifestLanguage(languageHistogram(res), "Rust"), src, "Cargo.toml")
		c.text(metadata.FieldInstallMethod, "cargo", metadata.Strong, src, "Cargo crate")
		c.add(usageCandidate(depNames, cli, src))
	}
	return c.output()
}
