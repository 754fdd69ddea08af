// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemCMake = "cmake"

var (
	cmakeProject    = regexp.MustCompile(`(?is)\bproject\s*\(\s*([A-Za-z0-9_.+-]+)([^)]*)\)`)
	cmakeVersion    = regexp.MustCompile(`(?i)\bVERSION\s+([0-9][0-9A-Za-z.]*)`)
	cmakeDesc       = regexp.MustCompile(`(?i)\bDESCRIPTION\s+"([^"]*)"`)
	cmakeLanguages  = regexp.MustCompile(`(?i)\bLANGUAGES\s+([A-Za-z+ \t\n]+)`)
	cmakeExecutable = regexp.MustCompile(`(?i)\badd_executable\s*\(\s*([A-Za-z0-9_.+-]+)`)
	cmakeFind       = regexp.MustCompile(`(?i)\bfind_package\s*\(\s*([A-Za-z0-9_.+-]+)(?:\s+([0-9][0-9.]*))?`)
	cmakeFetch      = regexp.MustCompile(`(?i)\bFetchContent_Declare\s*\(\s*([A-Za-z0-9_.+-]+)`)

	mesonProject    = regexp.MustCompile(`(?s)\bproject\s*\((.*?)\)\s*(?:\n|$)`)
	mesonQuoted     = regexp.MustCompile(`'([^']*)'`)
	mesonVersion    = regexp.MustCompile(`\bversion\s*:\s*'([^']+)'`)
	mesonLicense    = regexp.MustCompile(`\blicense\s*:\s*\[?\s*'([^']+)'`)
	mesonDependency = regexp.MustCompile(`\bdependency\s*\(\s*'([^']+)'`)
	mesonExecutable = regexp.MustCompile(`\bexecutable\s*\(\s*'([^']+)'`)

	makeInstallTarget = regexp.MustCompile(`(?m)^install\s*:`)
)

type (
	// CPP reads CMake, Meson and Make build files.
	CPP struct{}

	cppRun struct {
		c        *collector
		depNames []string
		cli      bool
		// declared is the language named by the build file, if any.
		declared string
	}
)

// Name implements Extractor.
func (CPP) Name() string { return NameCPP }

// Interested implements Extractor.
func (CPP) Interested(f discovery.FileRecord) bool {
	switch f.Name() {
	case "CMakeLists.txt", "meson.build", "Makefile", "GNUmakefile", "makefile":
		return true
	}
	return false
}

// Extract implements Extractor.
func (p CPP) Extract(ctx context.Context, res *discovery.Result) Output {
	run := &cppRun{c: newCollector(NameCPP)}
	var cmake, meson, makefiles []discovery.FileRecord
	for _, f := range res.Select(p.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := run.c.read(f)
		if !ok {
			continue
		}
		switch f.Name() {
		case "CMakeLists.txt":
			run.cmake(f.Path(), text)
			cmake = append(cmake, f)
		case "meson.build":
			run.meson(f.Path(), text)
			meson = append(meson, f)
		default:
			makefiles = append(makefiles, f)
			if makeInstallTarget.MatchString(text) {
				run.c.text(metadata.FieldInstallCommand, "make && make install", metadata.Reasonable, f.Path(),
					"Makefile has an install target")
			}
		}
	}

	if f, ok := shallowest(cmake); ok {
		run.c.text(metadata.FieldInstallMethod, "cmake", metadata.Strong, f.Path(), "CMake project")
		run.c.text(metadata.FieldInstallCommand, "cmake -B build && cmake --build build", metadata.Reasonable,
			f.Path(), "CMake build")
	}
	if f, ok := shallowest(meson); ok {
		run.c.text(metadata.FieldInstallMethod, "meson", metadata.Strong, f.Path(), "Meson project")
		run.c.text(metadata.FieldInstallCommand, "meson setup build && meson compile -C build", metadata.Reasonable,
			f.Path(), "Meson build")
	}
	if f, ok := shallowest(makefiles); ok {
		run.c.text(metadata.FieldInstallMethod, "make", metadata.Reasonable, f.Path(), "Makefile present")
	}

	// Language is only proposed for C-family build systems; a bare Makefile
	// is used by every ecosystem.
	primary, ok := shallowest(slices.Concat(cmake, meson))
	if !ok {
		return run.c.output()
	}
	hist := languageHistogram(res)
	lang := run.declared
	if lang == "" {
		lang = "C++"
		if hist.count("C") > hist.count("C++") {
			lang = "C"
		}
	}
	run.c.text(metadata.FieldLanguage, lang, manifestLanguage(hist, "C", "C++"), primary.Path(), "C/C++ build file")
	run.c.add(usageCandidate(run.depNames, run.cli, primary.Path()))
	return run.c.output()
}

func (r *cppRun) cmake(path, text string) {
	c := r.c
	if m := cmakeProject.FindStringSubmatch(text); m != nil && !strings.HasPrefix(m[1], "$") {
		c.text(metadata.FieldTitle, m[1], metadata.Explicit, path, "project()")
		args := m[2]
		if v := cmakeVersion.FindStringSubmatch(args); v != nil {
			c.text(metadata.FieldVersion, v[1], metadata.Explicit, path, "project(VERSION)")
		}
		if d := cmakeDesc.FindStringSubmatch(args); d != nil {
			c.text(metadata.FieldDescription, d[1], metadata.Explicit, path, "project(DESCRIPTION)")
		}
		if l := cmakeLanguages.FindStringSubmatch(args); l != nil && r.declared == "" {
			langs := strings.Fields(strings.ToUpper(l[1]))
			switch {
			case slices.Contains(langs, "CXX"):
				r.declared = "C++"
			case slices.Contains(langs, "C"):
				r.declared = "C"
			}
		}
	}
	for _, m := range cmakeExecutable.FindAllStringSubmatch(text, -1) {
		if strings.HasPrefix(m[1], "$") {
			continue
		}
		r.cli = true
		c.text(metadata.FieldEntryPoint, m[1], metadata.Reasonable, path, "add_executable()")
		break
	}
	for _, m := range cmakeFind.FindAllStringSubmatch(text, -1) {
		r.depNames = append(r.depNames, m[1])
		c.dependency(metadata.Dependency{Name: m[1], Version: m[2], Ecosystem: ecosystemCMake},
			metadata.Reasonable, path)
	}
	for _, m := range cmakeFetch.FindAllStringSubmatch(text, -1) {
		r.depNames = append(r.depNames, m[1])
		c.dependency(metadata.Dependency{Name: m[1], Ecosystem: ecosystemCMake}, metadata.Reasonable, path)
	}
}

func (r *cppRun) meson(path, text string) {
	c := r.c
	if m := mesonProject.FindStringSubmatch(text); m != nil {
		args := m[1]
		// Positional arguments come before the first keyword argument.
		positional := args
		if i := strings.Index(args, ":"); i >= 0 {
			if j := strings.LastIndex(args[:i], ","); j >= 0 {
				positional = args[:j]
			}
		}
		quoted := mesonQuoted.FindAllStringSubmatch(positional, -1)
		if len(quoted) > 0 {
			c.text(metadata.FieldTitle, quoted[0][1], metadata.Explicit, path, "project()")
		}
		for _, q := range quoted[min(1, len(quoted)):] {
			switch strings.ToLower(q[1]) {
			case "cpp":
				r.declared = "C++"
			case "c":
				if r.declared == "" {
					r.declared = "C"
				}
			}
		}
		if v := mesonVersion.FindStringSubmatch(args); v != nil {
			c.text(metadata.FieldVersion, v[1], metadata.Explicit, path, "project(version:)")
		}
		if l := mesonLicense.FindStringSubmatch(args); l != nil {
			c.text(metadata.FieldLicense, l[1], metadata.Explicit, path, "project(license:)")
		}
	}
	for _, m := range mesonDependency.FindAllStringSubmatch(text, -1) {
		r.depNames = append(r.depNames, m[1])
		c.dependency(metadata.Dependency{Name: m[1], Ecosystem: "meson"}, metadata.Reasonable, path)
	}
	if m := mesonExecutable.FindStringSubmatch(text); m != nil {
		r.cli = true
		c.text(metadata.FieldEntryPoint, m[1], metadata.Reasonable, path, "executable()")
	}
}
