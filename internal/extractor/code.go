// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const (
	maxEntryCandidates  = 5
	maxImportCandidates = 20
)

var (
	pyMainGuard   = regexp.MustCompile(`(?m)^if\s+__name__\s*==\s*["']__main__["']\s*:`)
	pyImport      = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	pyDocstring   = regexp.MustCompile(`^\s*(?:#[^\n]*\n\s*)*(?:"""|''')\s*([^\n]+)`)
	jsImport      = regexp.MustCompile(`(?:require\s*\(\s*|import\s+(?:[^'"]*?\s+from\s+)?|import\s*\(\s*)['"]([^'"]+)['"]`)
	goImportBlock = regexp.MustCompile(`(?s)\bimport\s*\((.*?)\)`)
	goImportLine  = regexp.MustCompile(`(?m)^\s*import\s+(?:[A-Za-z_.]+\s+)?"([^"]+)"`)
	goQuoted      = regexp.MustCompile(`"([^"]+)"`)
	goModuleLine  = regexp.MustCompile(`(?m)^module\s+(\S+)`)

	mainPatterns = map[string]*regexp.Regexp{
		"Go":   goFuncMain,
		"Rust": regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:async\s+)?fn\s+main\s*\(`),
		"Java": regexp.MustCompile(`public\s+static\s+void\s+main\s*\(`),
		"C":    regexp.MustCompile(`(?m)^\s*int\s+main\s*\(`),
		"C++":  regexp.MustCompile(`(?m)^\s*int\s+main\s*\(`),
	}

	// pythonStdlib is the subset of the standard library commonly imported.
	pythonStdlib = map[string]bool{
		"abc":        true, "argparse": true, "array": true, "ast": true, "asyncio": true, "base64": true,
		"bisect":     true, "builtins": true, "calendar": true, "collections": true, "concurrent": true,
		"contextlib": true, "copy": true, "csv": true, "ctypes": true, "dataclasses": true,
		"datetime":   true, "decimal": true, "difflib": true, "email": true, "enum": true, "errno": true,
		"fnmatch":    true, "fractions": true, "functools": true, "gc": true, "getpass": true, "glob": true,
		"gzip":       true, "hashlib": true, "heapq": true, "hmac": true, "html": true, "http": true,
		"importlib":  true, "inspect": true, "io": true, "ipaddress": true, "itertools": true,
		"json":       true, "logging": true, "math": true, "mimetypes": true, "multiprocessing": true,
		"operator":   true, "os": true, "pathlib": true, "pickle": true, "platform": true, "pprint": true,
		"queue":      true, "random": true, "re": true, "secrets": true, "select": true, "shlex": true,
		"shutil":     true, "signal": true, "socket": true, "sqlite3": true, "ssl": true, "stat": true,
		"statistics": true, "string": true, "struct": true, "subprocess": true, "sys": true,
		"tempfile":   true, "textwrap": true, "threading": true, "time": true, "timeit": true,
		"tokenize":   true, "traceback": true, "types": true, "typing": true, "unicodedata": true,
		"unittest":   true, "urllib": true, "uuid": true, "warnings": true, "weakref": true,
		"xml":        true, "zipfile": true, "zlib": true, "__future__": true,
	}

	nodeBuiltins = map[string]bool{
		"assert":         true, "buffer": true, "child_process": true, "cluster": true, "crypto": true,
		"dns":            true, "events": true, "fs": true, "http": true, "https": true, "net": true, "os": true,
		"path":           true, "process": true, "querystring": true, "readline": true, "stream": true,
		"string_decoder": true, "timers": true, "tls": true, "url": true, "util": true, "vm": true,
		"worker_threads": true, "zlib": true,
	}

	// importManifests are the manifests that make import scanning redundant
	// for a language.
	importManifests = map[string][]string{
		"Python":     {"pyproject.toml", "setup.py", "setup.cfg", "Pipfile"},
		"JavaScript": {"package.json"},
		"TypeScript": {"package.json"},
		"Go":         {"go.mod"},
	}
)

type (
	// Code analyzes source files directly: entry points, imports and
	// framework usage. It fills gaps left by manifest extractors.
	Code struct{}

	importCount struct {
		name      string
		ecosystem string
		count     int
		source    string
	}
)

// Name implements Extractor.
func (Code) Name() string { return NameCode }

// Interested implements Extractor.
func (Code) Interested(f discovery.FileRecord) bool {
	return f.Category() == discovery.CategorySource
}

// Extract implements Extractor.
func (cd Code) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameCode)
	files := res.Select(cd.Interested)
	local := localNames(res)
	goModule := ""
	if mods := res.Named("go.mod"); len(mods) > 0 {
		if text, err := mods[0].Text(); err == nil {
			if m := goModuleLine.FindStringSubmatch(text); m != nil {
				goModule = m[1]
			}
		}
	}
	skipImports := map[string]bool{}
	for lang, names := range importManifests {
		if len(res.Named(names...)) > 0 {
			skipImports[lang] = true
		}
	}

	var entries []string
	imports := map[string]*importCount{}
	framework := ""
	frameworkSource := ""
	docstring, docSource := "", ""

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		lang := discovery.SourceLanguage(f.Path())
		if lang == "" && path.Ext(f.Path()) == "" {
			if discovery.ShebangLanguage(f.FirstLine()) != "" {
				entries = append(entries, f.Path())
			}
			continue
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}

		switch {
		case lang == "Python" && (f.Name() == "__main__.py" || pyMainGuard.MatchString(text)):
			entries = append(entries, f.Path())
		case mainPatterns[lang] != nil && mainPatterns[lang].MatchString(text):
			if lang != "Go" || goPackageMain.MatchString(text) {
				entries = append(entries, f.Path())
			}
		}

		roots := importRoots(lang, text, goModule)
		for _, root := range roots {
			if fw, ok := frameworkFor(root); ok && framework == "" {
				framework, frameworkSource = fw, f.Path()
			}
			if skipImports[lang] || local[root] {
				continue
			}
			eco := importEcosystem(lang)
			key := eco + ":" + root
			if imports[key] == nil {
				imports[key] = &importCount{name: root, ecosystem: eco, source: f.Path()}
			}
			imports[key].count++
		}

		if lang == "Python" && f.Name() == "__init__.py" && docSource == "" {
			if m := pyDocstring.FindStringSubmatch(text); m != nil {
				docstring, docSource = strings.Trim(strings.TrimSpace(m[1]), `"'`), f.Path()
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := strings.Count(entries[i], "/"), strings.Count(entries[j], "/")
		if di != dj {
			return di < dj
		}
		return entries[i] < entries[j]
	})
	for _, e := range entries[:min(len(entries), maxEntryCandidates)] {
		conf := metadata.Reasonable
		if path.Ext(e) == "" {
			conf = metadata.Weak
		}
		c.text(metadata.FieldEntryPoint, e, conf, e, "main entry point in source")
	}

	counted := make([]*importCount, 0, len(imports))
	for _, ic := range imports {
		counted = append(counted, ic)
	}
	sort.Slice(counted, func(i, j int) bool {
		if counted[i].count != counted[j].count {
			return counted[i].count > counted[j].count
		}
		return counted[i].ecosystem+counted[i].name < counted[j].ecosystem+counted[j].name
	})
	for _, ic := range counted[:min(len(counted), maxImportCandidates)] {
		c.dependency(metadata.Dependency{Name: ic.name, Ecosystem: ic.ecosystem}, metadata.Weak, ic.source)
	}

	switch {
	case framework != "":
		c.text(metadata.FieldUsageType, UsageFramework, metadata.Reasonable, frameworkSource, "imports "+framework)
	case len(entries) > 0:
		c.text(metadata.FieldUsageType, UsageCLI, metadata.Weak, entries[0], "source has a main entry point")
	case len(files) > 0:
		c.text(metadata.FieldUsageType, UsageLibrary, metadata.Weak, files[0].Path(), "no entry point in source")
	}

	if docstring != "" {
		c.text(metadata.FieldDescription, docstring, metadata.Guess, docSource, "package docstring")
	}
	return c.output()
}

// importRoots returns the external import roots declared by one file.
func importRoots(lang, text, goModule string) []string {
	var roots []string
	switch lang {
	case "Python":
		for _, m := range pyImport.FindAllStringSubmatch(text, -1) {
			if !pythonStdlib[m[1]] {
				roots = append(roots, m[1])
			}
		}
	case "JavaScript", "TypeScript":
		for _, m := range jsImport.FindAllStringSubmatch(text, -1) {
			spec := m[1]
			if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "node:") {
				continue
			}
			parts := strings.Split(spec, "/")
			root := parts[0]
			if strings.HasPrefix(root, "@") && len(parts) > 1 {
				root = parts[0] + "/" + parts[1]
			}
			if !nodeBuiltins[root] {
				roots = append(roots, root)
			}
		}
	case "Go":
		var specs []string
		for _, m := range goImportBlock.FindAllStringSubmatch(text, -1) {
			for _, q := range goQuoted.FindAllStringSubmatch(m[1], -1) {
				specs = append(specs, q[1])
			}
		}
		for _, m := range goImportLine.FindAllStringSubmatch(text, -1) {
			specs = append(specs, m[1])
		}
		for _, spec := range specs {
			first, _, _ := strings.Cut(spec, "/")
			if !strings.Contains(first, ".") {
				continue
			}
			if goModule != "" && (spec == goModule || strings.HasPrefix(spec, goModule+"/")) {
				continue
			}
			roots = append(roots, goImportRoot(spec))
		}
	}
	return roots
}

// goImportRoot trims a package path to its likely module path.
func goImportRoot(spec string) string {
	parts := strings.Split(spec, "/")
	switch parts[0] {
	case "github.com", "gitlab.com", "bitbucket.org", "codeberg.org":
		if len(parts) >= 3 {
			return strings.Join(parts[:3], "/")
		}
	case "golang.org", "google.golang.org", "gopkg.in", "go.uber.org", "k8s.io":
		if len(parts) >= 3 && parts[1] == "x" {
			return strings.Join(parts[:3], "/")
		}
		if len(parts) >= 2 {
			return strings.Join(parts[:2], "/")
		}
	}
	return spec
}

func importEcosystem(lang string) string {
	switch lang {
	case "Python":
		return ecosystemPyPI
	case "JavaScript", "TypeScript":
		return ecosystemNPM
	case "Go":
		return ecosystemGo
	}
	return ""
}

// localNames returns the top-level module and package names defined in the
// repository, which imports may reference without being dependencies.
func localNames(res *discovery.Result) map[string]bool {
	local := map[string]bool{}
	for _, f := range res.ByCategory(discovery.CategorySource) {
		p := f.Path()
		for _, seg := range strings.Split(path.Dir(p), "/") {
			local[seg] = true
		}
		base := path.Base(p)
		local[strings.TrimSuffix(base, path.Ext(base))] = true
	}
	for _, f := range res.ByCategory(discovery.CategoryTest) {
		base := path.Base(f.Path())
		local[strings.TrimSuffix(base, path.Ext(base))] = true
	}
	return local
}
