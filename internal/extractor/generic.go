// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// LicenseCustom is proposed when a license file exists but matches no
// known text.
const LicenseCustom = "Custom"

type licensePattern struct {
	re *regexp.Regexp
	id string
}

var (
	// licensePatterns is ordered; the first match wins.
	licensePatterns = []licensePattern{
		{regexp.MustCompile(`(?i)\bMIT License\b`), "MIT"},
		{regexp.MustCompile(`(?i)Permission is hereby granted, free of charge`), "MIT"},
		{regexp.MustCompile(`(?i)Apache License\s*\n?\s*Version 2\.0`), "Apache-2.0"},
		{regexp.MustCompile(`(?i)Licensed under the Apache License, Version 2\.0`), "Apache-2.0"},
		{regexp.MustCompile(`(?i)GNU AFFERO GENERAL PUBLIC LICENSE\s*\n?\s*Version 3`), "AGPL-3.0"},
		{regexp.MustCompile(`(?i)GNU LESSER GENERAL PUBLIC LICENSE\s*\n?\s*Version 3`), "LGPL-3.0"},
		{regexp.MustCompile(`(?i)GNU LESSER GENERAL PUBLIC LICENSE\s*\n?\s*Version 2\.1`), "LGPL-2.1"},
		{regexp.MustCompile(`(?i)GNU GENERAL PUBLIC LICENSE\s*\n?\s*Version 3`), "GPL-3.0"},
		{regexp.MustCompile(`(?i)GNU GENERAL PUBLIC LICENSE\s*\n?\s*Version 2`), "GPL-2.0"},
		{regexp.MustCompile(`(?i)Mozilla Public License,? [Vv]ersion 2\.0`), "MPL-2.0"},
		{regexp.MustCompile(`(?i)BSD 3-Clause License`), "BSD-3-Clause"},
		{regexp.MustCompile(`(?i)BSD 2-Clause License`), "BSD-2-Clause"},
		{regexp.MustCompile(`(?i)ISC License`), "ISC"},
		{regexp.MustCompile(`(?i)Permission to use, copy, modify, and(/or)? distribute`), "ISC"},
		{regexp.MustCompile(`(?i)This is free and unencumbered software`), "Unlicense"},
		{regexp.MustCompile(`(?i)Creative Commons Legal Code\s*\n?\s*CC0`), "CC0-1.0"},
		{regexp.MustCompile(`(?i)DO WHAT THE FUCK YOU WANT TO PUBLIC LICENSE`), "WTFPL"},
	}

	bsdRedistribution = regexp.MustCompile(`(?i)Redistribution and use in source and binary forms`)
	bsdNeitherName    = regexp.MustCompile(`(?i)Neither the name`)

	mdBadge = regexp.MustCompile(`^\[?!\[`)
	mdLink  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// Generic proposes low-confidence candidates from signals every repository
// has: its directory name, README, license text, file extensions and git
// remote. It always runs, after every other extractor.
type Generic struct{}

// Name implements Extractor.
func (Generic) Name() string { return NameGeneric }

// Fallback implements Fallback.
func (Generic) Fallback() bool { return true }

// Interested implements Extractor.
func (Generic) Interested(f discovery.FileRecord) bool {
	return isReadme(f.Name()) || isLicenseFile(f.Name())
}

// Extract implements Extractor.
func (g Generic) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameGeneric)
	root := res.Root()
	if base := filepath.Base(root); base != "" && base != "." && base != string(filepath.Separator) {
		c.text(metadata.FieldTitle, base, metadata.Guess, "directory-name", "repository directory name")
	}

	var readmes, licenses []discovery.FileRecord
	for _, f := range res.Select(g.Interested) {
		if isReadme(f.Name()) {
			readmes = append(readmes, f)
		} else {
			licenses = append(licenses, f)
		}
	}
	if f, ok := shallowest(readmes); ok && ctx.Err() == nil {
		if text, ok := c.read(f); ok {
			title, desc := readmeSummary(text)
			c.text(metadata.FieldTitle, title, metadata.Weak, f.Path(), "README heading")
			c.text(metadata.FieldDescription, desc, metadata.Weak, f.Path(), "README first paragraph")
		}
	}
	if f, ok := shallowest(licenses); ok && ctx.Err() == nil {
		if text, ok := c.read(f); ok {
			if id := detectLicense(text); id != "" {
				c.text(metadata.FieldLicense, id, metadata.Strong, f.Path(), "license text")
			} else {
				c.text(metadata.FieldLicense, LicenseCustom, metadata.Weak, f.Path(),
					"license file present but text not recognized")
			}
		}
	}

	hist := languageHistogram(res)
	if lang, n := hist.dominant(); lang != "" {
		conf := metadata.Weak
		if n*2 > hist.total {
			conf = metadata.Reasonable
		}
		c.text(metadata.FieldLanguage, lang, conf, "extension-histogram", "most common source language")
	}

	if u := gitRemote(root); u != "" {
		c.text(metadata.FieldRepositoryURL, u, metadata.Reasonable, ".git/config", `remote "origin"`)
	}
	return c.output()
}

func isReadme(name string) bool {
	return strings.HasPrefix(strings.ToUpper(name), "README")
}

func isLicenseFile(name string) bool {
	upper := strings.ToUpper(name)
	for _, p := range []string{"LICENSE", "LICENCE", "COPYING"} {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// detectLicense returns the SPDX identifier for recognized license text.
func detectLicense(text string) string {
	for _, p := range licensePatterns {
		if p.re.MatchString(text) {
			return p.id
		}
	}
	if bsdRedistribution.MatchString(text) {
		if bsdNeitherName.MatchString(text) {
			return "BSD-3-Clause"
		}
		return "BSD-2-Clause"
	}
	return ""
}

// readmeSummary returns the first H1 heading and the first prose paragraph
// of a Markdown document. Badges, HTML and headings are not prose.
func readmeSummary(text string) (title, desc string) {
	var para []string
	inFence := false
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			if len(para) > 0 {
				break
			}
			continue
		}
		if inFence {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# "):
			if title == "" {
				title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			}
			if len(para) > 0 {
				return title, strings.Join(para, " ")
			}
			continue
		case line == "":
			if len(para) > 0 {
				return title, strings.Join(para, " ")
			}
			continue
		case strings.HasPrefix(line, "#"), strings.HasPrefix(line, "<"), mdBadge.MatchString(line),
			strings.HasPrefix(line, "---"), strings.HasPrefix(line, "==="):
			if len(para) > 0 {
				return title, strings.Join(para, " ")
			}
			continue
		}
		para = append(para, mdLink.ReplaceAllString(line, "$1"))
	}
	return title, strings.Join(para, " ")
}

// gitRemote reads the origin URL from the repository's git config. The .git
// directory is never part of the snapshot, so it is read from disk.
func gitRemote(root string) string {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil {
		return ""
	}
	if !info.IsDir() {
		// Worktrees and submodules use a "gitdir: <path>" pointer file.
		data, err := os.ReadFile(gitDir)
		if err != nil {
			return ""
		}
		target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
		if !ok {
			return ""
		}
		gitDir = strings.TrimSpace(target)
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(root, gitDir)
		}
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "config"))
	if err != nil {
		return ""
	}
	return cleanRepositoryURL(parseINI(string(data), false).get(`remote "origin"`, "url"))
}
