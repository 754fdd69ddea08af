// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemNPM = "npm"

type (
	// JavaScript reads package.json manifests.
	JavaScript struct{}

	packageJSON struct {
		Name                 string            `json:"name"`
		Version              string            `json:"version"`
		Description          string            `json:"description"`
		License              json.RawMessage   `json:"license"`
		Licenses             []json.RawMessage `json:"licenses"`
		Author               json.RawMessage   `json:"author"`
		Contributors         []json.RawMessage `json:"contributors"`
		Maintainers          []json.RawMessage `json:"maintainers"`
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
		Bin                  json.RawMessage   `json:"bin"`
		Main                 string            `json:"main"`
		Module               string            `json:"module"`
		Types                string            `json:"types"`
		Scripts              map[string]string `json:"scripts"`
		Repository           json.RawMessage   `json:"repository"`
		Homepage             string            `json:"homepage"`
		Private              bool              `json:"private"`
	}

	npmPerson struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		URL   string `json:"url"`
	}
)

// Name implements Extractor.
func (JavaScript) Name() string { return NameJavaScript }

// Interested implements Extractor.
func (JavaScript) Interested(f discovery.FileRecord) bool {
	return f.Category() == discovery.CategoryConfig && f.Name() == "package.json"
}

// Extract implements Extractor.
func (j JavaScript) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameJavaScript)
	files := res.Select(j.Interested)
	hist := languageHistogram(res)
	typescript := len(res.Named("tsconfig.json")) > 0 || hist.count("TypeScript") > hist.count("JavaScript")

	var depNames []string
	cli := false
	var parsed []discovery.FileRecord
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		var pkg packageJSON
		if err := json.Unmarshal([]byte(text), &pkg); err != nil {
			c.parseFailed(f.Path(), "JSON", err)
			continue
		}
		parsed = append(parsed, f)
		path := f.Path()

		c.text(metadata.FieldTitle, pkg.Name, metadata.Explicit, path, "package.json name")
		c.text(metadata.FieldVersion, pkg.Version, metadata.Explicit, path, "package.json version")
		c.text(metadata.FieldDescription, pkg.Description, metadata.Explicit, path, "package.json description")
		j.license(c, path, pkg)

		if a, ok := decodePerson(pkg.Author); ok {
			c.author(a, metadata.Explicit, path)
		}
		for _, raw := range pkg.Contributors {
			if a, ok := decodePerson(raw); ok {
				a.Role = "contributor"
				c.author(a, metadata.Strong, path)
			}
		}
		for _, raw := range pkg.Maintainers {
			if a, ok := decodePerson(raw); ok {
				a.Role = "maintainer"
				c.author(a, metadata.Strong, path)
			}
		}

		for _, set := range []struct {
			deps map[string]string
			dev  bool
		}{
			{pkg.Dependencies, false},
			{pkg.PeerDependencies, false},
			{pkg.OptionalDependencies, false},
			{pkg.DevDependencies, true},
		} {
			for _, name := range sortedKeys(set.deps) {
				if !set.dev {
					depNames = append(depNames, name)
				}
				if name == "typescript" {
					typescript = true
				}
				c.dependency(metadata.Dependency{
					Name:      name,
					Version:   set.deps[name],
					Dev:       set.dev,
					Ecosystem: ecosystemNPM,
				}, metadata.Explicit, path)
			}
		}
		if pkg.Types != "" {
			typescript = true
		}

		bin := decodeBin(pkg.Bin, pkg.Name)
		switch {
		case bin != "":
			cli = true
			c.text(metadata.FieldEntryPoint, bin, metadata.Explicit, path, "package.json bin")
		case pkg.Main != "":
			c.text(metadata.FieldEntryPoint, pkg.Main, metadata.Strong, path, "package.json main")
		case pkg.Module != "":
			c.text(metadata.FieldEntryPoint, pkg.Module, metadata.Strong, path, "package.json module")
		case pkg.Scripts["start"] != "":
			c.text(metadata.FieldEntryPoint, "npm start", metadata.Reasonable, path,
				"scripts.start: "+pkg.Scripts["start"])
		}

		switch {
		case pkg.Private:
			c.text(metadata.FieldInstallCommand, "npm install", metadata.Reasonable, path,
				"private package; install from a checkout")
		case bin != "" && pkg.Name != "":
			c.text(metadata.FieldInstallCommand, "npm install -g "+pkg.Name, metadata.Reasonable, path,
				"package exposes a command")
		case pkg.Name != "":
			c.text(metadata.FieldInstallCommand, "npm install "+pkg.Name, metadata.Reasonable, path,
				"derived from the package name")
		}

		if u := decodeRepository(pkg.Repository); u != "" {
			c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, path, "package.json repository")
		} else if u := cleanRepositoryURL(pkg.Homepage); isCodeHost(u) {
			c.text(metadata.FieldRepositoryURL, u, metadata.Strong, path, "package.json homepage")
		}
	}

	if primary, ok := shallowest(parsed); ok {
		src := primary.Path()
		lang, note := "JavaScript", "package.json"
		if typescript {
			lang, note = "TypeScript", "package.json with TypeScript tooling"
		}
		c.text(metadata.FieldLanguage, lang, manifestLanguage(hist, "JavaScript", "TypeScript"), src, note)
		c.text(metadata.FieldInstallMethod, "npm", metadata.Strong, src, "npm package")
		c.add(usageCandidate(depNames, cli, src))
	}
	return c.output()
}

func (JavaScript) license(c *collector, path string, pkg packageJSON) {
	if len(pkg.License) > 0 {
		var s string
		if err := json.Unmarshal(pkg.License, &s); err == nil {
			if !strings.HasPrefix(strings.ToUpper(s), "SEE LICENSE") && s != "UNLICENSED" {
				c.text(metadata.FieldLicense, s, metadata.Explicit, path, "package.json license")
			}
			return
		}
		var obj struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(pkg.License, &obj); err == nil {
			c.text(metadata.FieldLicense, obj.Type, metadata.Strong, path, "package.json license.type")
		}
		return
	}
	for _, raw := range pkg.Licenses {
		var obj struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Type != "" {
			c.text(metadata.FieldLicense, obj.Type, metadata.Strong, path, "package.json licenses[]")
			return
		}
	}
}

// decodePerson accepts both the string and the object person forms.
func decodePerson(raw json.RawMessage) (metadata.Author, bool) {
	if len(raw) == 0 {
		return metadata.Author{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		a := parsePerson(s)
		return a, a.Name != "" || a.Email != ""
	}
	var p npmPerson
	if err := json.Unmarshal(raw, &p); err != nil {
		return metadata.Author{}, false
	}
	return metadata.Author{Name: p.Name, Email: p.Email, URL: p.URL}, p.Name != "" || p.Email != ""
}

// decodeBin returns the command a package installs: the package's own
// unscoped name for the string form, the first command otherwise.
func decodeBin(raw json.RawMessage, pkgName string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return ""
		}
		if i := strings.LastIndex(pkgName, "/"); i >= 0 {
			return pkgName[i+1:]
		}
		return pkgName
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return ""
	}
	keys := sortedKeys(m)
	unscoped := pkgName
	if i := strings.LastIndex(pkgName, "/"); i >= 0 {
		unscoped = pkgName[i+1:]
	}
	if _, ok := m[unscoped]; ok {
		return unscoped
	}
	return keys[0]
}

func decodeRepository(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanRepositoryURL(s)
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return cleanRepositoryURL(obj.URL)
	}
	return ""
}
