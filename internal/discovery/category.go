// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

const (
	// CategoryConfig covers package manifests and project configuration.
	CategoryConfig Category = "config"
	// CategorySource covers source code.
	CategorySource Category = "source"
	// CategoryDocs covers README, LICENSE and other prose.
	CategoryDocs Category = "docs"
	// CategoryBuild covers build scripts, container files and CI definitions.
	CategoryBuild Category = "build"
	// CategoryTest covers test sources.
	CategoryTest Category = "test"
)

// ErrInvalidCategory is returned when a Category value is not recognized.
var ErrInvalidCategory = errors.New("invalid category")

type (
	// Category is the semantic class assigned to each discovered file.
	Category string

	// InvalidCategoryError is returned when a Category value is not recognized.
	InvalidCategoryError struct {
		Value Category
	}

	nameRule struct {
		pattern  string
		category Category
	}
)

// nameRules is the first classification tier. Patterns without a slash match
// the base name; patterns with a slash match the relative path. First match wins.
var nameRules = []nameRule{
	{"package.json", CategoryConfig},
	{"pyproject.toml", CategoryConfig},
	{"setup.py", CategoryConfig},
	{"setup.cfg", CategoryConfig},
	{"Pipfile", CategoryConfig},
	{"requirements*.txt", CategoryConfig},
	{"constraints*.txt", CategoryConfig},
	{"go.mod", CategoryConfig},
	{"Cargo.toml", CategoryConfig},
	{"pom.xml", CategoryConfig},
	{"composer.json", CategoryConfig},
	{"Gemfile", CategoryConfig},
	{"*.gemspec", CategoryConfig},
	{"*.cabal", CategoryConfig},
	{"*.csproj", CategoryConfig},
	{"CITATION.cff", CategoryConfig},
	{"tsconfig.json", CategoryConfig},
	{".env.example", CategoryConfig},

	{"build.gradle", CategoryBuild},
	{"build.gradle.kts", CategoryBuild},
	{"settings.gradle", CategoryBuild},
	{"settings.gradle.kts", CategoryBuild},
	{"CMakeLists.txt", CategoryBuild},
	{"meson.build", CategoryBuild},
	{"Makefile", CategoryBuild},
	{"GNUmakefile", CategoryBuild},
	{"*.mk", CategoryBuild},
	{"justfile", CategoryBuild},
	{"Taskfile.yml", CategoryBuild},
	{"Dockerfile", CategoryBuild},
	{"Dockerfile.*", CategoryBuild},
	{"*.dockerfile", CategoryBuild},
	{"docker-compose*.yml", CategoryBuild},
	{"docker-compose*.yaml", CategoryBuild},
	{"install.sh", CategoryBuild},
	{"Jenkinsfile", CategoryBuild},
	{".gitlab-ci.yml", CategoryBuild},
	{".travis.yml", CategoryBuild},
	{"azure-pipelines.yml", CategoryBuild},
	{".github/workflows/*.yml", CategoryBuild},
	{".github/workflows/*.yaml", CategoryBuild},
	{".circleci/config.yml", CategoryBuild},

	{"README*", CategoryDocs},
	{"readme*", CategoryDocs},
	{"LICENSE*", CategoryDocs},
	{"LICENCE*", CategoryDocs},
	{"COPYING*", CategoryDocs},
	{"CHANGELOG*", CategoryDocs},
	{"CONTRIBUTING*", CategoryDocs},
	{"SECURITY*", CategoryDocs},
	{"AUTHORS*", CategoryDocs},
	{"CODE_OF_CONDUCT*", CategoryDocs},
}

// sourceLanguages maps source extensions to display language names.
var sourceLanguages = map[string]string{
	".py":    "Python",
	".pyi":   "Python",
	".js":    "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".go":    "Go",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".kts":   "Kotlin",
	".scala": "Scala",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".cxx":   "C++",
	".hpp":   "C++",
	".hh":    "C++",
	".cs":    "C#",
	".rb":    "Ruby",
	".php":   "PHP",
	".swift": "Swift",
	".m":     "Objective-C",
	".lua":   "Lua",
	".r":     "R",
	".jl":    "Julia",
	".hs":    "Haskell",
	".ex":    "Elixir",
	".exs":   "Elixir",
	".erl":   "Erlang",
	".dart":  "Dart",
	".zig":   "Zig",
	".nim":   "Nim",
	".pl":    "Perl",
	".sh":    "Shell",
	".bash":  "Shell",
	".zsh":   "Shell",
}

// shebangLanguages maps interpreter names found in "#!" lines to languages.
var shebangLanguages = map[string]string{
	"python":  "Python",
	"python3": "Python",
	"node":    "JavaScript",
	"bash":    "Shell",
	"sh":      "Shell",
	"zsh":     "Shell",
	"ruby":    "Ruby",
	"perl":    "Perl",
	"php":     "PHP",
}

var testPatterns = []string{
	"test_*.py",
	"*_test.py",
	"*_test.go",
	"*_test.rs",
	"*.test.js",
	"*.test.ts",
	"*.test.jsx",
	"*.test.tsx",
	"*.spec.js",
	"*.spec.ts",
	"*Test.java",
	"*Tests.java",
	"*_spec.rb",
}

var testDirs = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"__tests__": {},
	"spec":      {},
	"testdata":  {},
}

var proseExtensions = map[string]struct{}{
	".md":   {},
	".rst":  {},
	".txt":  {},
	".adoc": {},
	".org":  {},
}

var dataExtensions = map[string]struct{}{
	".json":       {},
	".yaml":       {},
	".yml":        {},
	".toml":       {},
	".ini":        {},
	".cfg":        {},
	".conf":       {},
	".xml":        {},
	".properties": {},
	".cff":        {},
}

// Error implements the error interface.
func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q", e.Value)
}

// Unwrap returns ErrInvalidCategory for errors.Is() compatibility.
func (e *InvalidCategoryError) Unwrap() error { return ErrInvalidCategory }

// IsValid returns whether the Category is one of the five known categories.
func (c Category) IsValid() (bool, []error) {
	switch c {
	case CategoryConfig, CategorySource, CategoryDocs, CategoryBuild, CategoryTest:
		return true, nil
	default:
		return false, []error{&InvalidCategoryError{Value: c}}
	}
}

// Classify assigns a category to a repository-relative slash path.
// Priority: manifest/config name, then source extension (refined to test by
// test conventions), then the prose/data fallback. The second return is false
// for files that match nothing.
func Classify(rel string) (Category, bool) {
	base := path.Base(rel)
	for _, r := range nameRules {
		target := base
		if strings.Contains(r.pattern, "/") {
			target = rel
		}
		if ok, _ := doublestar.Match(r.pattern, target); ok {
			return r.category, true
		}
	}

	ext := strings.ToLower(path.Ext(base))
	if _, ok := sourceLanguages[ext]; ok {
		if isTestPath(rel, base) {
			return CategoryTest, true
		}
		return CategorySource, true
	}

	if _, ok := proseExtensions[ext]; ok {
		return CategoryDocs, true
	}
	if _, ok := dataExtensions[ext]; ok {
		return CategoryConfig, true
	}
	if underDir(rel, "docs") || underDir(rel, "doc") {
		return CategoryDocs, true
	}
	return "", false
}

// SourceLanguage returns the language implied by a file extension, or "".
func SourceLanguage(rel string) string {
	return sourceLanguages[strings.ToLower(path.Ext(rel))]
}

// ShebangLanguage returns the language named by a "#!" interpreter line, or "".
func ShebangLanguage(firstLine string) string {
	if !strings.HasPrefix(firstLine, "#!") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(firstLine, "#!"))
	if len(fields) == 0 {
		return ""
	}
	interp := path.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	for name, lang := range shebangLanguages {
		if interp == name || strings.HasPrefix(interp, name+".") {
			return lang
		}
	}
	return ""
}

func isTestPath(rel, base string) bool {
	for _, p := range testPatterns {
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if _, ok := testDirs[seg]; ok {
			return true
		}
	}
	return false
}

func underDir(rel, dir string) bool {
	return strings.HasPrefix(rel, dir+"/")
}
