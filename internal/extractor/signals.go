// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// Usage types proposed for metadata.FieldUsageType.
const (
	UsageFramework = "framework"
	UsageCLI       = "cli"
	UsageLibrary   = "library"
)

var (
	// authorPattern matches npm-style "Name <email> (url)" person strings.
	authorPattern = regexp.MustCompile(`^\s*([^<(]*?)\s*(?:<([^>]*)>)?\s*(?:\(([^)]*)\))?\s*$`)

	// requirementPattern splits a PEP 508 requirement into name and the rest.
	requirementPattern = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*(.*)$`)

	scpRemote = regexp.MustCompile(`^[\w.-]+@([\w.-]+):(.+)$`)

	// frameworks maps dependency keys (lowercase) to the framework they imply.
	frameworks = map[string]string{
		"flask":                       "Flask",
		"django":                      "Django",
		"fastapi":                     "FastAPI",
		"starlette":                   "Starlette",
		"tornado":                     "Tornado",
		"pyramid":                     "Pyramid",
		"sanic":                       "Sanic",
		"express":                     "Express",
		"koa":                         "Koa",
		"fastify":                     "Fastify",
		"@nestjs/core":                "NestJS",
		"react":                       "React",
		"vue":                         "Vue",
		"@angular/core":               "Angular",
		"next":                        "Next.js",
		"nuxt":                        "Nuxt",
		"svelte":                      "Svelte",
		"org.springframework.boot":    "Spring",
		"org.springframework":         "Spring",
		"github.com/gin-gonic/gin":    "Gin",
		"github.com/labstack/echo":    "Echo",
		"github.com/labstack/echo/v4": "Echo",
		"github.com/gofiber/fiber":    "Fiber",
		"github.com/gofiber/fiber/v2": "Fiber",
		"github.com/go-chi/chi/v5":    "chi",
		"github.com/beego/beego/v2":   "Beego",
		"actix-web":                   "Actix",
		"rocket":                      "Rocket",
		"axum":                        "Axum",
		"warp":                        "warp",
		"io.ktor":                     "Ktor",
		"io.quarkus":                  "Quarkus",
		"io.micronaut":                "Micronaut",
	}
)

// histogram counts source files per language.
type histogram struct {
	counts map[string]int
	total  int
}

// languageHistogram counts source and test files by extension, falling back
// to the shebang line for extensionless scripts.
func languageHistogram(res *discovery.Result) histogram {
	h := histogram{counts: make(map[string]int)}
	for _, f := range res.Files() {
		if f.Category() != discovery.CategorySource && f.Category() != discovery.CategoryTest {
			continue
		}
		lang := discovery.SourceLanguage(f.Path())
		if lang == "" && path.Ext(f.Path()) == "" {
			lang = discovery.ShebangLanguage(f.FirstLine())
		}
		if lang == "" {
			continue
		}
		h.counts[lang]++
		h.total++
	}
	return h
}

// dominant returns the most frequent language; ties go to the lexically
// smallest name.
func (h histogram) dominant() (string, int) {
	langs := make([]string, 0, len(h.counts))
	for l := range h.counts {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	best, n := "", 0
	for _, l := range langs {
		if h.counts[l] > n {
			best, n = l, h.counts[l]
		}
	}
	return best, n
}

// count returns the number of files in any of langs.
func (h histogram) count(langs ...string) int {
	n := 0
	for _, l := range langs {
		n += h.counts[l]
	}
	return n
}

// manifestLanguage returns the tier for a language implied by an ecosystem
// manifest: STRONG unless source files exist and another language family
// dominates them.
func manifestLanguage(h histogram, family ...string) metadata.Confidence {
	if h.total == 0 {
		return metadata.Strong
	}
	dom, _ := h.dominant()
	for _, l := range family {
		if l == dom {
			return metadata.Strong
		}
	}
	if h.count(family...)*2 > h.total {
		return metadata.Strong
	}
	return metadata.Reasonable
}

// usageCandidate infers the usage type from dependency names and whether a
// command-line entry point exists.
func usageCandidate(depNames []string, hasCLI bool, source string) metadata.Candidate {
	for _, name := range depNames {
		if fw, ok := frameworkFor(name); ok {
			return metadata.TextCandidate(metadata.FieldUsageType, UsageFramework, metadata.Reasonable, source,
				"depends on "+fw)
		}
	}
	if hasCLI {
		return metadata.TextCandidate(metadata.FieldUsageType, UsageCLI, metadata.Reasonable, source,
			"declares a command-line entry point")
	}
	return metadata.TextCandidate(metadata.FieldUsageType, UsageLibrary, metadata.Weak, source,
		"no framework dependency or entry point")
}

func frameworkFor(dep string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(dep))
	if fw, ok := frameworks[key]; ok {
		return fw, true
	}
	// Maven coordinates: match on group.
	if group, _, ok := strings.Cut(key, ":"); ok {
		if fw, ok := frameworks[group]; ok {
			return fw, true
		}
	}
	return "", false
}

// parsePerson parses "Name <email> (url)".
func parsePerson(s string) metadata.Author {
	m := authorPattern.FindStringSubmatch(s)
	if m == nil {
		return metadata.Author{Name: strings.TrimSpace(s)}
	}
	return metadata.Author{
		Name:  strings.TrimSpace(m[1]),
		Email: strings.TrimSpace(m[2]),
		URL:   strings.TrimSpace(m[3]),
	}
}

// parseRequirement splits a PEP 508 requirement string. Environment markers
// are dropped. The name is empty for lines that are not requirements.
func parseRequirement(spec string) (name, version string) {
	spec, _, _ = strings.Cut(spec, ";")
	m := requirementPattern.FindStringSubmatch(spec)
	if m == nil {
		return "", ""
	}
	version = strings.TrimSpace(m[2])
	version = strings.TrimPrefix(version, "(")
	version = strings.TrimSuffix(version, ")")
	if strings.HasPrefix(version, "@") {
		version = ""
	}
	return m[1], strings.TrimSpace(version)
}

// cleanRepositoryURL turns git remotes and package-manager shorthands into a
// browsable https URL. It returns "" for values that are not URLs.
func cleanRepositoryURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	u = strings.TrimPrefix(u, "git+")
	switch {
	case strings.HasPrefix(u, "github:"):
		u = "https://github.com/" + strings.TrimPrefix(u, "github:")
	case strings.HasPrefix(u, "gitlab:"):
		u = "https://gitlab.com/" + strings.TrimPrefix(u, "gitlab:")
	case strings.HasPrefix(u, "bitbucket:"):
		u = "https://bitbucket.org/" + strings.TrimPrefix(u, "bitbucket:")
	case strings.HasPrefix(u, "ssh://"):
		u = strings.TrimPrefix(u, "ssh://")
		if _, host, ok := strings.Cut(u, "@"); ok {
			u = host
		}
		u = "https://" + u
	case strings.HasPrefix(u, "git://"):
		u = "https://" + strings.TrimPrefix(u, "git://")
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
	default:
		if m := scpRemote.FindStringSubmatch(u); m != nil {
			u = "https://" + m[1] + "/" + m[2]
		} else if strings.Count(u, "/") == 1 && !strings.ContainsAny(u, " :") {
			u = "https://github.com/" + u
		} else {
			return ""
		}
	}
	u = strings.TrimSuffix(u, "/")
	return strings.TrimSuffix(u, ".git")
}

// dirOf returns the slash directory of a repository-relative path, "" for root.
func dirOf(rel string) string {
	d := path.Dir(rel)
	if d == "." {
		return ""
	}
	return d
}

// within reports whether rel lies inside dir ("" is the root).
func within(rel, dir string) bool {
	return dir == "" || strings.HasPrefix(rel, dir+"/")
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
