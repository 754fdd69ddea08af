// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemGo = "go"

var (
	goPackageMain = regexp.MustCompile(`(?m)^package\s+main\b`)
	goFuncMain    = regexp.MustCompile(`(?m)^func\s+main\s*\(\s*\)`)
)

// Go reads go.mod files and locates main packages below them.
type Go struct{}

// Name implements Extractor.
func (Go) Name() string { return NameGo }

// Interested implements Extractor.
func (Go) Interested(f discovery.FileRecord) bool {
	return f.Category() == discovery.CategoryConfig && f.Name() == "go.mod"
}

// Extract implements Extractor.
func (g Go) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameGo)
	mains := goMainFiles(res)

	var parsed []discovery.FileRecord
	var depNames []string
	cli := false
	for _, f := range res.Select(g.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		mf, err := modfile.ParseLax(f.Path(), []byte(text), nil)
		if err != nil {
			c.parseFailed(f.Path(), "go.mod", err)
			continue
		}
		if mf.Module == nil || mf.Module.Mod.Path == "" {
			continue
		}
		parsed = append(parsed, f)
		src := f.Path()
		modPath := mf.Module.Mod.Path

		c.text(metadata.FieldTitle, moduleTitle(modPath), metadata.Strong, src, "module "+modPath)
		for _, req := range mf.Require {
			if req.Indirect {
				continue
			}
			depNames = append(depNames, req.Mod.Path)
			c.dependency(metadata.Dependency{
				Name:      req.Mod.Path,
				Version:   req.Mod.Version,
				Ecosystem: ecosystemGo,
			}, metadata.Explicit, src)
		}
		if u := moduleRepository(modPath); u != "" {
			c.text(metadata.FieldRepositoryURL, u, metadata.Reasonable, src, "derived from the module path")
		}

		modDir := dirOf(src)
		main, ok := nearestMain(mains, modDir)
		if !ok {
			c.text(metadata.FieldInstallCommand, "go get "+modPath, metadata.Reasonable, src,
				"library module")
			continue
		}
		cli = true
		target := modPath
		if rel := strings.TrimPrefix(strings.TrimPrefix(dirOf(main), modDir), "/"); rel != "" {
			target = modPath + "/" + rel
		}
		c.text(metadata.FieldInstallCommand, "go install "+target+"@latest", metadata.Strong, src,
			"main package in "+path.Dir(main))
		c.text(metadata.FieldEntryPoint, main, metadata.Reasonable, main, "func main")
	}

	if primary, ok := shallowest(parsed); ok {
		src := primary.Path()
		c.text(metadata.FieldLanguage, "Go", manifestLanguage(languageHistogram(res), "Go"), src, "go.mod")
		c.text(metadata.FieldInstallMethod, "go", metadata.Strong, src, "Go module")
		c.add(usageCandidate(depNames, cli, src))
	}
	return c.output()
}

// goMainFiles returns the non-test Go files that declare package main and a
// main function, sorted by depth then path.
func goMainFiles(res *discovery.Result) []string {
	var mains []string
	for _, f := range res.ByCategory(discovery.CategorySource) {
		if path.Ext(f.Path()) != ".go" {
			continue
		}
		text, err := f.Text()
		if err != nil {
			continue
		}
		if goPackageMain.MatchString(text) && goFuncMain.MatchString(text) {
			mains = append(mains, f.Path())
		}
	}
	sort.Slice(mains, func(i, j int) bool {
		di, dj := strings.Count(mains[i], "/"), strings.Count(mains[j], "/")
		if di != dj {
			return di < dj
		}
		return mains[i] < mains[j]
	})
	return mains
}

func nearestMain(mains []string, modDir string) (string, bool) {
	for _, m := range mains {
		if within(m, modDir) {
			return m, true
		}
	}
	return "", false
}

// moduleTitle returns the last module path element, skipping a major
// version suffix ("example.com/tool/v2" → "tool").
func moduleTitle(modPath string) string {
	prefix, _, ok := module.SplitPathVersion(modPath)
	if !ok {
		prefix = modPath
	}
	return path.Base(prefix)
}

func moduleRepository(modPath string) string {
	parts := strings.Split(modPath, "/")
	if len(parts) < 3 {
		return ""
	}
	switch parts[0] {
	case "github.com", "gitlab.com", "bitbucket.org", "codeberg.org":
		return "https://" + strings.Join(parts[:3], "/")
	}
	return ""
}
