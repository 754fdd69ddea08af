// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemPyPI = "pypi"

var (
	setupPyString   = `\s*=\s*(?:"([^"]*)"|'([^']*)')`
	setupPyName     = regexp.MustCompile(`\bname` + setupPyString)
	setupPyVersion  = regexp.MustCompile(`\bversion` + setupPyString)
	setupPyDesc     = regexp.MustCompile(`\bdescription` + setupPyString)
	setupPyLicense  = regexp.MustCompile(`\blicense` + setupPyString)
	setupPyAuthor   = regexp.MustCompile(`\bauthor` + setupPyString)
	setupPyEmail    = regexp.MustCompile(`\bauthor_email` + setupPyString)
	setupPyURL      = regexp.MustCompile(`\burl` + setupPyString)
	setupPyRequires = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	setupPyScripts  = regexp.MustCompile(`(?s)console_scripts["']?\s*[:=]\s*\[(.*?)\]`)
	quotedString    = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)

	devGroups = []string{"dev", "develop", "development", "test", "tests", "testing", "lint", "docs", "doc", "typing", "type"}
)

type (
	// Python reads pyproject.toml (PEP 621 and Poetry), setup.cfg, setup.py,
	// requirements files and Pipfile.
	Python struct{}

	pyproject struct {
		Project *pep621 `toml:"project"`
		Tool    struct {
			Poetry *poetry `toml:"poetry"`
		} `toml:"tool"`
	}

	pep621 struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Description          string              `toml:"description"`
		License              any                 `toml:"license"`
		Authors              []pyPerson          `toml:"authors"`
		Maintainers          []pyPerson          `toml:"maintainers"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		Scripts              map[string]string   `toml:"scripts"`
		GUIScripts           map[string]string   `toml:"gui-scripts"`
		Classifiers          []string            `toml:"classifiers"`
		URLs                 map[string]string   `toml:"urls"`
	}

	pyPerson struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	}

	poetry struct {
		Name            string         `toml:"name"`
		Version         string         `toml:"version"`
		Description     string         `toml:"description"`
		License         string         `toml:"license"`
		Authors         []string       `toml:"authors"`
		Maintainers     []string       `toml:"maintainers"`
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
		Group           map[string]struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"group"`
		Scripts     map[string]any `toml:"scripts"`
		Classifiers []string       `toml:"classifiers"`
		Repository  string         `toml:"repository"`
		Homepage    string         `toml:"homepage"`
	}

	pipfile struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}

	// pythonRun carries state across the files of one Python extraction.
	pythonRun struct {
		c        *collector
		depNames []string
		cli      bool
	}
)

// Name implements Extractor.
func (Python) Name() string { return NamePython }

// Interested implements Extractor.
func (Python) Interested(f discovery.FileRecord) bool {
	if f.Category() != discovery.CategoryConfig {
		return false
	}
	switch name := f.Name(); name {
	case "pyproject.toml", "setup.cfg", "setup.py", "Pipfile":
		return true
	default:
		return isRequirementsFile(name)
	}
}

func isRequirementsFile(name string) bool {
	return strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt")
}

// Extract implements Extractor.
func (p Python) Extract(ctx context.Context, res *discovery.Result) Output {
	run := &pythonRun{c: newCollector(NamePython)}
	files := res.Select(p.Interested)
	var manifests []discovery.FileRecord
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		text, ok := run.c.read(f)
		if !ok {
			continue
		}
		switch name := f.Name(); {
		case name == "pyproject.toml":
			if run.pyproject(f.Path(), text) {
				manifests = append(manifests, f)
			}
		case name == "setup.cfg":
			if run.setupCfg(f.Path(), text) {
				manifests = append(manifests, f)
			}
		case name == "setup.py":
			run.setupPy(f.Path(), text)
			manifests = append(manifests, f)
		case name == "Pipfile":
			run.pipfile(f.Path(), text)
		default:
			run.requirements(f.Path(), name, text)
		}
	}

	primary, ok := shallowest(manifests)
	if !ok {
		primary, ok = shallowest(files)
	}
	if ok {
		src := primary.Path()
		run.c.text(metadata.FieldLanguage, "Python", manifestLanguage(languageHistogram(res), "Python"), src,
			"Python packaging manifest")
		run.c.text(metadata.FieldInstallMethod, "pip", metadata.Strong, src, "Python package")
		run.c.add(usageCandidate(run.depNames, run.cli, src))
	}
	return run.c.output()
}

func (r *pythonRun) pyproject(path, text string) bool {
	var doc pyproject
	if err := toml.Unmarshal([]byte(text), &doc); err != nil {
		r.c.parseFailed(path, "TOML", err)
		return false
	}
	found := false
	if pr := doc.Project; pr != nil {
		found = true
		r.project(path, pr)
	}
	if po := doc.Tool.Poetry; po != nil {
		found = true
		r.poetry(path, po)
	}
	return found
}

func (r *pythonRun) project(path string, pr *pep621) {
	c := r.c
	c.text(metadata.FieldTitle, pr.Name, metadata.Explicit, path, "[project].name")
	c.text(metadata.FieldVersion, pr.Version, metadata.Explicit, path, "[project].version")
	c.text(metadata.FieldDescription, pr.Description, metadata.Explicit, path, "[project].description")
	if pr.Name != "" {
		c.text(metadata.FieldInstallCommand, "pip install "+pr.Name, metadata.Reasonable, path,
			"derived from the distribution name")
	}

	switch lic := pr.License.(type) {
	case string:
		c.text(metadata.FieldLicense, lic, metadata.Explicit, path, "[project].license")
	case map[string]any:
		if text, ok := lic["text"].(string); ok && !strings.Contains(strings.TrimSpace(text), "\n") {
			c.text(metadata.FieldLicense, text, metadata.Explicit, path, "[project].license.text")
		}
	}
	r.classifiers(path, pr.Classifiers)

	for _, a := range pr.Authors {
		c.author(metadata.Author{Name: a.Name, Email: a.Email}, metadata.Explicit, path)
	}
	for _, a := range pr.Maintainers {
		c.author(metadata.Author{Name: a.Name, Email: a.Email, Role: "maintainer"}, metadata.Explicit, path)
	}

	for _, spec := range pr.Dependencies {
		r.requirement(spec, false, metadata.Explicit, path)
	}
	for _, group := range sortedKeys(pr.OptionalDependencies) {
		dev := slices.Contains(devGroups, strings.ToLower(group))
		for _, spec := range pr.OptionalDependencies[group] {
			r.requirement(spec, dev, metadata.Explicit, path)
		}
	}

	r.scripts(path, pr.Name, pr.Scripts, "[project.scripts]")
	if len(pr.Scripts) == 0 {
		r.scripts(path, pr.Name, pr.GUIScripts, "[project.gui-scripts]")
	}

	for _, key := range sortedKeys(pr.URLs) {
		switch strings.ToLower(key) {
		case "repository", "source", "source code", "code", "github":
			if u := cleanRepositoryURL(pr.URLs[key]); u != "" {
				c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, path, "[project.urls]."+key)
			}
		case "homepage":
			if u := cleanRepositoryURL(pr.URLs[key]); isCodeHost(u) {
				c.text(metadata.FieldRepositoryURL, u, metadata.Strong, path, "[project.urls]."+key)
			}
		}
	}
}

func (r *pythonRun) poetry(path string, po *poetry) {
	c := r.c
	c.text(metadata.FieldTitle, po.Name, metadata.Explicit, path, "[tool.poetry].name")
	c.text(metadata.FieldVersion, po.Version, metadata.Explicit, path, "[tool.poetry].version")
	c.text(metadata.FieldDescription, po.Description, metadata.Explicit, path, "[tool.poetry].description")
	c.text(metadata.FieldLicense, po.License, metadata.Explicit, path, "[tool.poetry].license")
	if po.Name != "" {
		c.text(metadata.FieldInstallCommand, "pip install "+po.Name, metadata.Reasonable, path,
			"derived from the distribution name")
	}
	r.classifiers(path, po.Classifiers)

	for _, a := range po.Authors {
		c.author(parsePerson(a), metadata.Explicit, path)
	}
	for _, a := range po.Maintainers {
		m := parsePerson(a)
		m.Role = "maintainer"
		c.author(m, metadata.Explicit, path)
	}

	r.poetryDeps(path, po.Dependencies, false)
	r.poetryDeps(path, po.DevDependencies, true)
	for _, group := range sortedKeys(po.Group) {
		r.poetryDeps(path, po.Group[group].Dependencies, group != "main")
	}

	scripts := make(map[string]string, len(po.Scripts))
	for name, v := range po.Scripts {
		switch s := v.(type) {
		case string:
			scripts[name] = s
		case map[string]any:
			if ref, ok := s["reference"].(string); ok {
				scripts[name] = ref
			}
		}
	}
	r.scripts(path, po.Name, scripts, "[tool.poetry.scripts]")

	if u := cleanRepositoryURL(po.Repository); u != "" {
		c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, path, "[tool.poetry].repository")
	} else if u := cleanRepositoryURL(po.Homepage); isCodeHost(u) {
		c.text(metadata.FieldRepositoryURL, u, metadata.Strong, path, "[tool.poetry].homepage")
	}
}

func (r *pythonRun) poetryDeps(path string, deps map[string]any, dev bool) {
	for _, name := range sortedKeys(deps) {
		if strings.EqualFold(name, "python") {
			continue
		}
		r.depNames = append(r.depNames, name)
		r.c.dependency(metadata.Dependency{
			Name:      name,
			Version:   versionOf(deps[name]),
			Dev:       dev,
			Ecosystem: ecosystemPyPI,
		}, metadata.Explicit, path)
	}
}

// versionOf reads a version from a TOML dependency value: either a bare
// string or a table with a "version" key. "*" means unconstrained.
func versionOf(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case map[string]any:
		s, _ = t["version"].(string)
	}
	if s == "*" {
		return ""
	}
	return s
}

// scripts records the console scripts as entry points. The script named
// after the distribution wins; otherwise the first in lexical order.
func (r *pythonRun) scripts(path, project string, scripts map[string]string, table string) {
	if len(scripts) == 0 {
		return
	}
	r.cli = true
	names := sortedKeys(scripts)
	pick := names[0]
	if _, ok := scripts[project]; ok {
		pick = project
	}
	r.c.text(metadata.FieldEntryPoint, pick, metadata.Explicit, path,
		fmt.Sprintf("%s: %s = %s", table, pick, scripts[pick]))
}

func (r *pythonRun) classifiers(path string, classifiers []string) {
	for _, cl := range classifiers {
		parts := strings.Split(cl, "::")
		if len(parts) < 2 || strings.TrimSpace(parts[0]) != "License" {
			continue
		}
		name := strings.TrimSpace(parts[len(parts)-1])
		if name == "" || strings.EqualFold(name, "OSI Approved") {
			continue
		}
		r.c.text(metadata.FieldLicense, name, metadata.Strong, path, "trove classifier: "+cl)
	}
}

func (r *pythonRun) requirement(spec string, dev bool, conf metadata.Confidence, path string) {
	name, version := parseRequirement(spec)
	if name == "" {
		return
	}
	r.depNames = append(r.depNames, name)
	r.c.dependency(metadata.Dependency{Name: name, Version: version, Dev: dev, Ecosystem: ecosystemPyPI}, conf, path)
}

func (r *pythonRun) setupCfg(path, text string) bool {
	doc := parseINI(text, true)
	if len(doc["metadata"]) == 0 && len(doc["options"]) == 0 {
		return false
	}
	c := r.c
	name := doc.get("metadata", "name")
	c.text(metadata.FieldTitle, name, metadata.Explicit, path, "[metadata] name")
	if v := doc.get("metadata", "version"); !strings.HasPrefix(v, "attr:") && !strings.HasPrefix(v, "file:") {
		c.text(metadata.FieldVersion, v, metadata.Explicit, path, "[metadata] version")
	}
	if d := doc.get("metadata", "description"); !strings.HasPrefix(d, "file:") {
		c.text(metadata.FieldDescription, d, metadata.Explicit, path, "[metadata] description")
	}
	c.text(metadata.FieldLicense, doc.get("metadata", "license"), metadata.Explicit, path, "[metadata] license")
	if name != "" {
		c.text(metadata.FieldInstallCommand, "pip install "+name, metadata.Reasonable, path,
			"derived from the distribution name")
	}
	r.classifiers(path, doc.list("metadata", "classifiers"))

	if a := doc.get("metadata", "author"); a != "" {
		c.author(metadata.Author{Name: a, Email: doc.get("metadata", "author_email")}, metadata.Explicit, path)
	}
	if m := doc.get("metadata", "maintainer"); m != "" {
		c.author(metadata.Author{Name: m, Email: doc.get("metadata", "maintainer_email"), Role: "maintainer"},
			metadata.Explicit, path)
	}
	if u := cleanRepositoryURL(doc.get("metadata", "url")); isCodeHost(u) {
		c.text(metadata.FieldRepositoryURL, u, metadata.Strong, path, "[metadata] url")
	}
	for _, item := range doc.list("metadata", "project_urls") {
		if k, v, ok := strings.Cut(item, "="); ok && strings.Contains(strings.ToLower(k), "source") {
			c.text(metadata.FieldRepositoryURL, cleanRepositoryURL(v), metadata.Explicit, path, "[metadata] project_urls")
		}
	}

	for _, spec := range doc.list("options", "install_requires") {
		r.requirement(spec, false, metadata.Explicit, path)
	}
	extras := doc["options.extras_require"]
	for _, group := range sortedKeys(extras) {
		dev := slices.Contains(devGroups, group)
		for _, spec := range doc.list("options.extras_require", group) {
			r.requirement(spec, dev, metadata.Explicit, path)
		}
	}

	scripts := map[string]string{}
	for _, item := range doc.list("options.entry_points", "console_scripts") {
		if k, v, ok := strings.Cut(item, "="); ok {
			scripts[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	r.scripts(path, name, scripts, "[options.entry_points] console_scripts")
	return true
}

// setupPy reads the literal keyword arguments of a setup() call. Values
// built from expressions are not evaluated, hence the lower tier.
func (r *pythonRun) setupPy(path, text string) {
	c := r.c
	first := func(re *regexp.Regexp) string {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return m[1] + m[2]
	}
	name := first(setupPyName)
	c.text(metadata.FieldTitle, name, metadata.Strong, path, "setup(name=...)")
	c.text(metadata.FieldVersion, first(setupPyVersion), metadata.Strong, path, "setup(version=...)")
	c.text(metadata.FieldDescription, first(setupPyDesc), metadata.Strong, path, "setup(description=...)")
	c.text(metadata.FieldLicense, first(setupPyLicense), metadata.Strong, path, "setup(license=...)")
	if a := first(setupPyAuthor); a != "" {
		c.author(metadata.Author{Name: a, Email: first(setupPyEmail)}, metadata.Strong, path)
	}
	if u := cleanRepositoryURL(first(setupPyURL)); isCodeHost(u) {
		c.text(metadata.FieldRepositoryURL, u, metadata.Reasonable, path, "setup(url=...)")
	}
	if name != "" {
		c.text(metadata.FieldInstallCommand, "pip install "+name, metadata.Reasonable, path,
			"derived from the distribution name")
	}
	if m := setupPyRequires.FindStringSubmatch(text); m != nil {
		for _, q := range quotedString.FindAllStringSubmatch(m[1], -1) {
			r.requirement(q[1]+q[2], false, metadata.Strong, path)
		}
	}
	if m := setupPyScripts.FindStringSubmatch(text); m != nil {
		scripts := map[string]string{}
		for _, q := range quotedString.FindAllStringSubmatch(m[1], -1) {
			if k, v, ok := strings.Cut(q[1]+q[2], "="); ok {
				scripts[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
		r.scripts(path, name, scripts, "setup(entry_points=console_scripts)")
	}
}

func (r *pythonRun) requirements(path, name, text string) {
	lower := strings.ToLower(name)
	dev := strings.Contains(lower, "dev") || strings.Contains(lower, "test") ||
		strings.Contains(lower, "lint") || strings.Contains(lower, "doc")
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if strings.Contains(line, "://") && !strings.Contains(line, "@") {
			continue
		}
		r.requirement(line, dev, metadata.Explicit, path)
	}
}

func (r *pythonRun) pipfile(path, text string) {
	var doc pipfile
	if err := toml.Unmarshal([]byte(text), &doc); err != nil {
		r.c.parseFailed(path, "TOML", err)
		return
	}
	for _, set := range []struct {
		deps map[string]any
		dev  bool
	}{{doc.Packages, false}, {doc.DevPackages, true}} {
		for _, name := range sortedKeys(set.deps) {
			r.depNames = append(r.depNames, name)
			r.c.dependency(metadata.Dependency{
				Name:      name,
				Version:   versionOf(set.deps[name]),
				Dev:       set.dev,
				Ecosystem: ecosystemPyPI,
			}, metadata.Explicit, path)
		}
	}
}

// isCodeHost reports whether u points at a known source hosting service.
func isCodeHost(u string) bool {
	for _, host := range []string{"https://github.com/", "https://gitlab.com/", "https://bitbucket.org/", "https://codeberg.org/"} {
		if strings.HasPrefix(u, host) {
			return true
		}
	}
	return false
}
