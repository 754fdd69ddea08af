// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"bufio"
	"bytes"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
)

const (
	// RuleSourceDefault marks built-in directory exclusions.
	RuleSourceDefault RuleSource = "default"
	// RuleSourceDenylist marks built-in non-informative file exclusions.
	RuleSourceDenylist RuleSource = "denylist"
	// RuleSourceGitignore marks patterns read from the root .gitignore.
	RuleSourceGitignore RuleSource = "gitignore"
	// RuleSourceUser marks patterns supplied through configuration.
	RuleSourceUser RuleSource = "user"
)

type (
	// RuleSource records where an ignore rule came from.
	RuleSource string

	// Rule is one ignore pattern. Patterns use doublestar glob syntax.
	Rule struct {
		Pattern string     `json:"pattern"`
		Source  RuleSource `json:"source"`
		// DirOnly rules (trailing "/") match directories only.
		DirOnly bool `json:"dir_only,omitempty"`
		// Anchored rules match the full relative path instead of the base name.
		Anchored bool `json:"anchored,omitempty"`
	}

	// Rules is an ordered ignore rule set.
	Rules []Rule
)

// DefaultIgnoreDirs are directories never descended into.
var DefaultIgnoreDirs = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", "third_party", "bower_components",
	".venv", "venv", "env", "__pycache__", ".pytest_cache", ".mypy_cache", ".ruff_cache",
	".tox", ".nox", ".eggs", "*.egg-info",
	"target", ".cargo", "build", "dist", "out", ".next", ".nuxt", ".output",
	".gradle", ".idea", ".vscode", ".vs",
	"coverage", "htmlcov", ".coverage",
}

// DefaultDenylist are file patterns that carry no metadata signal.
var DefaultDenylist = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.ico", "*.svg", "*.webp",
	"*.pdf", "*.zip", "*.tar", "*.gz", "*.tgz", "*.bz2", "*.xz", "*.7z", "*.rar",
	"*.jar", "*.war", "*.class", "*.so", "*.dylib", "*.dll", "*.exe", "*.bin", "*.o", "*.a",
	"*.pyc", "*.pyo", "*.whl", "*.woff", "*.woff2", "*.ttf", "*.eot", "*.otf",
	"*.mp3", "*.mp4", "*.mov", "*.wav", "*.webm", "*.db", "*.sqlite", "*.min.js", "*.map",
	".DS_Store", "Thumbs.db",
}

// LockFiles are dependency lock files. They are denylisted only when larger
// than the read cap.
var LockFiles = []string{
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Cargo.lock", "poetry.lock",
	"Gemfile.lock", "composer.lock", "go.sum", "Pipfile.lock",
}

func isLockFile(base string) bool {
	return slices.Contains(LockFiles, base)
}

// DefaultRules returns the built-in directory and denylist rules.
func DefaultRules() Rules {
	rules := make(Rules, 0, len(DefaultIgnoreDirs)+len(DefaultDenylist))
	for _, d := range DefaultIgnoreDirs {
		rules = append(rules, Rule{Pattern: d, Source: RuleSourceDefault, DirOnly: true})
	}
	for _, f := range DefaultDenylist {
		rules = append(rules, Rule{Pattern: f, Source: RuleSourceDenylist})
	}
	return rules
}

// ParsePatterns turns gitignore-style lines into rules. Negated patterns are
// not supported and are returned separately so the caller can report them.
func ParsePatterns(data []byte, source RuleSource) (rules Rules, unsupported []string) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			unsupported = append(unsupported, line)
			continue
		}
		if r, ok := parsePattern(line, source); ok {
			rules = append(rules, r)
		}
	}
	return rules, unsupported
}

func parsePattern(line string, source RuleSource) (Rule, bool) {
	r := Rule{Source: source}
	if strings.HasSuffix(line, "/") {
		r.DirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.Anchored = true
		line = strings.TrimPrefix(line, "/")
	} else if strings.Contains(line, "/") {
		r.Anchored = true
	}
	if line == "" {
		return Rule{}, false
	}
	r.Pattern = line
	return r, true
}

// Match reports whether rel should be ignored, returning the first matching rule.
func (rs Rules) Match(rel string, isDir bool) (Rule, bool) {
	base := path.Base(rel)
	for _, r := range rs {
		if r.DirOnly && !isDir {
			continue
		}
		target := base
		if r.Anchored {
			target = rel
		}
		if ok, err := doublestar.Match(r.Pattern, target); err == nil && ok {
			return r, true
		}
	}
	return Rule{}, false
}
