// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/internal/testutil"
	"github.com/autodoc/autodoc/pkg/metadata"
)

func snapshot(t *testing.T, files map[string]string) *discovery.Result {
	t.Helper()
	root := testutil.WriteTree(t, files)
	res, err := discovery.Discover(context.Background(), root, discovery.Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return res
}

func extract(t *testing.T, ext Extractor, files map[string]string) Output {
	t.Helper()
	return ext.Extract(context.Background(), snapshot(t, files))
}

func fieldCandidates(out Output, field metadata.FieldName) []metadata.Candidate {
	var cands []metadata.Candidate
	for _, c := range out.Candidates {
		if c.Field == field {
			cands = append(cands, c)
		}
	}
	return cands
}

// requireText fails unless out holds field=value at exactly conf.
func requireText(t *testing.T, out Output, field metadata.FieldName, value string, conf metadata.Confidence) {
	t.Helper()
	var seen []string
	for _, c := range fieldCandidates(out, field) {
		if c.Text == value && c.Confidence == conf {
			return
		}
		seen = append(seen, c.Text+"@"+c.Confidence.String())
	}
	t.Errorf("%s = %v, want %q@%v", field, seen, value, conf)
}

func requireNoField(t *testing.T, out Output, field metadata.FieldName) {
	t.Helper()
	if cands := fieldCandidates(out, field); len(cands) > 0 {
		t.Errorf("%s candidates = %d, want 0 (first %q)", field, len(cands), cands[0].Display())
	}
}

func dependencyNames(out Output) map[string]metadata.Dependency {
	deps := make(map[string]metadata.Dependency)
	for _, c := range fieldCandidates(out, metadata.FieldDependencies) {
		deps[c.Dependency.Name] = *c.Dependency
	}
	return deps
}

func requireParseDiagnostic(t *testing.T, out Output, path string) {
	t.Helper()
	for _, d := range out.Diagnostics {
		if d.Code == discovery.CodeParseFailed && d.Path == path {
			if !errors.Is(d.Cause, ErrParse) {
				t.Errorf("diagnostic cause = %v, want ErrParse", d.Cause)
			}
			return
		}
	}
	t.Errorf("no parse diagnostic for %s in %v", path, out.Diagnostics)
}

func TestCollector_DropsEmptyAndUnknown(t *testing.T) {
	t.Parallel()

	c := newCollector("test")
	c.text(metadata.FieldTitle, "  ", metadata.Explicit, "a", "")
	c.text(metadata.FieldTitle, "x", metadata.Unknown, "a", "")
	c.dependency(metadata.Dependency{Name: ""}, metadata.Strong, "a")
	c.text(metadata.FieldTitle, "kept", metadata.Weak, "a", "")

	out := c.output()
	if len(out.Candidates) != 1 || out.Candidates[0].Text != "kept" {
		t.Errorf("candidates = %+v, want only %q", out.Candidates, "kept")
	}
}

func TestParseError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("bad token")
	err := error(&ParseError{Path: "a.toml", Format: "TOML", Err: inner})
	if !errors.Is(err, ErrParse) {
		t.Error("errors.Is(err, ErrParse) = false, want true")
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false, want true")
	}
}

func TestPython_Pyproject(t *testing.T) {
	t.Parallel()

	out := extract(t, Python{}, map[string]string{
		"pyproject.toml": `[project]
name = "foo"
license = "MIT"
version = "1.2.0"
description = "Does foo things"
authors = [{ name = "Ada", email = "ada@example.com" }]
dependencies = ["Flask>=2.0", "requests ; python_version > '3.8'"]

[project.optional-dependencies]
test = ["pytest"]

[project.scripts]
foo = "foo.cli:main"

[project.urls]
Repository = "https://github.com/acme/foo.git"
`,
	})

	requireText(t, out, metadata.FieldTitle, "foo", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "MIT", metadata.Explicit)
	requireText(t, out, metadata.FieldVersion, "1.2.0", metadata.Explicit)
	requireText(t, out, metadata.FieldLanguage, "Python", metadata.Strong)
	requireText(t, out, metadata.FieldInstallMethod, "pip", metadata.Strong)
	requireText(t, out, metadata.FieldInstallCommand, "pip install foo", metadata.Reasonable)
	requireText(t, out, metadata.FieldEntryPoint, "foo", metadata.Explicit)
	requireText(t, out, metadata.FieldRepositoryURL, "https://github.com/acme/foo", metadata.Explicit)
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)

	deps := dependencyNames(out)
	if d, ok := deps["Flask"]; !ok || d.Version != ">=2.0" || d.Ecosystem != ecosystemPyPI {
		t.Errorf("deps[Flask] = %+v, want version >=2.0 in pypi", d)
	}
	if d, ok := deps["requests"]; !ok || d.Version != "" {
		t.Errorf("deps[requests] = %+v, want no version", d)
	}
	if d := deps["pytest"]; !d.Dev {
		t.Errorf("deps[pytest].Dev = false, want true")
	}

	authors := fieldCandidates(out, metadata.FieldAuthors)
	if len(authors) != 1 || authors[0].Author.Email != "ada@example.com" {
		t.Errorf("authors = %+v, want Ada", authors)
	}
}

func TestPython_MinimalPyprojectIsLibrary(t *testing.T) {
	t.Parallel()

	out := extract(t, Python{}, map[string]string{
		"pyproject.toml": "[project]\nname = \"foo\"\nlicense = \"MIT\"\n",
	})
	requireText(t, out, metadata.FieldTitle, "foo", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "MIT", metadata.Explicit)
	requireText(t, out, metadata.FieldLanguage, "Python", metadata.Strong)
	requireText(t, out, metadata.FieldUsageType, UsageLibrary, metadata.Weak)
	requireNoField(t, out, metadata.FieldEntryPoint)
}

func TestPython_MalformedPyproject(t *testing.T) {
	t.Parallel()

	out := extract(t, Python{}, map[string]string{
		"pyproject.toml": "[project\nname = ",
	})
	requireParseDiagnostic(t, out, "pyproject.toml")
	requireNoField(t, out, metadata.FieldTitle)
}

func TestPython_Requirements(t *testing.T) {
	t.Parallel()

	out := extract(t, Python{}, map[string]string{
		"requirements.txt":     "# pinned\nrequests==2.31.0  # http\n-r base.txt\ndjango>=4\n",
		"requirements-dev.txt": "pytest\n",
	})
	deps := dependencyNames(out)
	if d := deps["requests"]; d.Version != "==2.31.0" {
		t.Errorf("deps[requests].Version = %q, want %q", d.Version, "==2.31.0")
	}
	if _, ok := deps["django"]; !ok {
		t.Error("deps[django] missing")
	}
	if d := deps["pytest"]; !d.Dev {
		t.Error("deps[pytest].Dev = false, want true")
	}
	if len(deps) != 3 {
		t.Errorf("len(deps) = %d, want 3", len(deps))
	}
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)
}

func TestPython_SetupPy(t *testing.T) {
	t.Parallel()

	out := extract(t, Python{}, map[string]string{
		"setup.py": "from setuptools import setup\nsetup(name='bar', version='0.1')\n",
	})
	requireText(t, out, metadata.FieldTitle, "bar", metadata.Strong)
	requireText(t, out, metadata.FieldVersion, "0.1", metadata.Strong)
}

func TestJavaScript_PackageJSON(t *testing.T) {
	t.Parallel()

	out := extract(t, JavaScript{}, map[string]string{
		"package.json": `{
  "name": "@acme/widget",
  "version": "3.0.0",
  "description": "Widgets",
  "license": "Apache-2.0",
  "author": "Grace Hopper <grace@example.com> (https://example.com)",
  "bin": {"widget": "bin/widget.js"},
  "dependencies": {"express": "^4.18.0"},
  "devDependencies": {"typescript": "^5.0.0"},
  "repository": {"type": "git", "url": "git+https://github.com/acme/widget.git"}
}`,
	})

	requireText(t, out, metadata.FieldTitle, "@acme/widget", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "Apache-2.0", metadata.Explicit)
	requireText(t, out, metadata.FieldEntryPoint, "widget", metadata.Explicit)
	requireText(t, out, metadata.FieldInstallCommand, "npm install -g @acme/widget", metadata.Reasonable)
	requireText(t, out, metadata.FieldRepositoryURL, "https://github.com/acme/widget", metadata.Explicit)
	requireText(t, out, metadata.FieldLanguage, "TypeScript", metadata.Strong)
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)

	authors := fieldCandidates(out, metadata.FieldAuthors)
	if len(authors) != 1 {
		t.Fatalf("len(authors) = %d, want 1", len(authors))
	}
	if a := authors[0].Author; a.Name != "Grace Hopper" || a.Email != "grace@example.com" || a.URL != "https://example.com" {
		t.Errorf("author = %+v", a)
	}
	if d := dependencyNames(out)["typescript"]; !d.Dev {
		t.Error("deps[typescript].Dev = false, want true")
	}
}

func TestJavaScript_InvalidJSON(t *testing.T) {
	t.Parallel()

	out := extract(t, JavaScript{}, map[string]string{"package.json": "{"})
	requireParseDiagnostic(t, out, "package.json")
	requireNoField(t, out, metadata.FieldLanguage)
}

func TestGo_ModuleWithMain(t *testing.T) {
	t.Parallel()

	out := extract(t, Go{}, map[string]string{
		"go.mod":           "module github.com/acme/tool/v2\n\ngo 1.22\n\nrequire (\n\tgithub.com/spf13/cobra v1.8.0\n\tgolang.org/x/sys v0.20.0 // indirect\n)\n",
		"cmd/tool/main.go": "package main\n\nfunc main() {}\n",
		"lib.go":           "package tool\n",
	})

	requireText(t, out, metadata.FieldTitle, "tool", metadata.Strong)
	requireText(t, out, metadata.FieldInstallCommand, "go install github.com/acme/tool/v2/cmd/tool@latest", metadata.Strong)
	requireText(t, out, metadata.FieldEntryPoint, "cmd/tool/main.go", metadata.Reasonable)
	requireText(t, out, metadata.FieldRepositoryURL, "https://github.com/acme/tool", metadata.Reasonable)
	requireText(t, out, metadata.FieldLanguage, "Go", metadata.Strong)
	requireText(t, out, metadata.FieldUsageType, UsageCLI, metadata.Reasonable)

	deps := dependencyNames(out)
	if _, ok := deps["golang.org/x/sys"]; ok {
		t.Error("indirect requirement reported as a dependency")
	}
	if d := deps["github.com/spf13/cobra"]; d.Version != "v1.8.0" {
		t.Errorf("deps[cobra].Version = %q, want v1.8.0", d.Version)
	}
}

func TestGo_Library(t *testing.T) {
	t.Parallel()

	out := extract(t, Go{}, map[string]string{
		"go.mod": "module example.com/lib\n",
		"lib.go": "package lib\n",
	})
	requireText(t, out, metadata.FieldInstallCommand, "go get example.com/lib", metadata.Reasonable)
	requireNoField(t, out, metadata.FieldRepositoryURL)
	requireText(t, out, metadata.FieldUsageType, UsageLibrary, metadata.Weak)
}

func TestRust_Cargo(t *testing.T) {
	t.Parallel()

	out := extract(t, Rust{}, map[string]string{
		"Cargo.toml": `[package]
name = "ripper"
version = "0.4.0"
license = "MIT OR Apache-2.0"
authors = ["Ferris <ferris@example.com>"]
repository = "https://github.com/acme/ripper"

[dependencies]
clap = { version = "4", features = ["derive"] }
serde = "1"

[dev-dependencies]
insta = "1"
`,
		"src/main.rs": "fn main() {}\n",
	})

	requireText(t, out, metadata.FieldTitle, "ripper", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "MIT OR Apache-2.0", metadata.Explicit)
	requireText(t, out, metadata.FieldEntryPoint, "src/main.rs", metadata.Strong)
	requireText(t, out, metadata.FieldInstallCommand, "cargo install ripper", metadata.Reasonable)
	requireText(t, out, metadata.FieldLanguage, "Rust", metadata.Strong)

	deps := dependencyNames(out)
	if d := deps["clap"]; d.Version != "4" {
		t.Errorf("deps[clap].Version = %q, want 4", d.Version)
	}
	if d := deps["insta"]; !d.Dev {
		t.Error("deps[insta].Dev = false, want true")
	}
}

func TestJava_Pom(t *testing.T) {
	t.Parallel()

	out := extract(t, Java{}, map[string]string{
		"pom.xml": `<?xml version="1.0"?>
<project>
  <groupId>com.acme</groupId>
  <artifactId>billing</artifactId>
  <version>${revision}</version>
  <description>
    Billing service
  </description>
  <licenses><license><name>Apache License, Version 2.0</name></license></licenses>
  <dependencies>
    <dependency><groupId>org.springframework.boot</groupId><artifactId>spring-boot-starter-web</artifactId></dependency>
    <dependency><groupId>junit</groupId><artifactId>junit</artifactId><scope>test</scope></dependency>
  </dependencies>
  <scm><url>https://github.com/acme/billing</url></scm>
</project>`,
	})

	requireText(t, out, metadata.FieldTitle, "billing", metadata.Strong)
	requireNoField(t, out, metadata.FieldVersion)
	requireText(t, out, metadata.FieldDescription, "Billing service", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "Apache License, Version 2.0", metadata.Explicit)
	requireText(t, out, metadata.FieldInstallMethod, "maven", metadata.Strong)
	requireText(t, out, metadata.FieldLanguage, "Java", metadata.Strong)
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)

	if d := dependencyNames(out)["junit:junit"]; !d.Dev || d.Ecosystem != ecosystemMaven {
		t.Errorf("deps[junit:junit] = %+v, want dev maven dependency", d)
	}
}

func TestJava_GradleKotlin(t *testing.T) {
	t.Parallel()

	out := extract(t, Java{}, map[string]string{
		"settings.gradle.kts": `rootProject.name = "orbit"` + "\n",
		"build.gradle.kts":    "plugins { kotlin(\"jvm\") version \"1.9.0\" }\nversion = \"2.1.0\"\ndependencies {\n    implementation(\"io.ktor:ktor-server-core:2.3.0\")\n}\n",
	})
	requireText(t, out, metadata.FieldTitle, "orbit", metadata.Explicit)
	requireText(t, out, metadata.FieldVersion, "2.1.0", metadata.Strong)
	requireText(t, out, metadata.FieldLanguage, "Kotlin", metadata.Strong)
	requireText(t, out, metadata.FieldInstallCommand, "gradle build", metadata.Reasonable)
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)
}

func TestCPP_CMake(t *testing.T) {
	t.Parallel()

	out := extract(t, CPP{}, map[string]string{
		"CMakeLists.txt": "cmake_minimum_required(VERSION 3.20)\nproject(fastmath VERSION 1.4.2 DESCRIPTION \"Fast math\" LANGUAGES CXX)\nfind_package(Boost 1.80)\nadd_executable(fm src/main.cpp)\n",
		"src/main.cpp":   "int main() { return 0; }\n",
	})
	requireText(t, out, metadata.FieldTitle, "fastmath", metadata.Explicit)
	requireText(t, out, metadata.FieldVersion, "1.4.2", metadata.Explicit)
	requireText(t, out, metadata.FieldDescription, "Fast math", metadata.Explicit)
	requireText(t, out, metadata.FieldLanguage, "C++", metadata.Strong)
	requireText(t, out, metadata.FieldEntryPoint, "fm", metadata.Reasonable)
	requireText(t, out, metadata.FieldInstallMethod, "cmake", metadata.Strong)
	requireText(t, out, metadata.FieldUsageType, UsageCLI, metadata.Reasonable)
	if d := dependencyNames(out)["Boost"]; d.Version != "1.80" {
		t.Errorf("deps[Boost].Version = %q, want 1.80", d.Version)
	}
}

func TestCPP_BareMakefileProposesNoLanguage(t *testing.T) {
	t.Parallel()

	out := extract(t, CPP{}, map[string]string{
		"Makefile": "all:\n\tgo build\n\ninstall:\n\tcp bin/x /usr/local/bin\n",
	})
	requireText(t, out, metadata.FieldInstallMethod, "make", metadata.Reasonable)
	requireText(t, out, metadata.FieldInstallCommand, "make && make install", metadata.Reasonable)
	requireNoField(t, out, metadata.FieldLanguage)
}

func TestCitation(t *testing.T) {
	t.Parallel()

	out := extract(t, Citation{}, map[string]string{
		"CITATION.cff": `cff-version: 1.2.0
title: Stellar
version: 1.10
license: BSD-3-Clause
repository-code: https://github.com/lab/stellar
authors:
  - given-names: Vera
    family-names: Rubin
    orcid: https://orcid.org/0000-0000-0000-0001
`,
	})
	requireText(t, out, metadata.FieldTitle, "Stellar", metadata.Explicit)
	requireText(t, out, metadata.FieldVersion, "1.10", metadata.Explicit)
	requireText(t, out, metadata.FieldLicense, "BSD-3-Clause", metadata.Explicit)
	requireText(t, out, metadata.FieldRepositoryURL, "https://github.com/lab/stellar", metadata.Explicit)
	authors := fieldCandidates(out, metadata.FieldAuthors)
	if len(authors) != 1 || authors[0].Author.Name != "Vera Rubin" {
		t.Errorf("authors = %+v, want Vera Rubin", authors)
	}
}

func TestCitation_InvalidYAML(t *testing.T) {
	t.Parallel()

	out := extract(t, Citation{}, map[string]string{"CITATION.cff": "title: [unclosed\n"})
	requireParseDiagnostic(t, out, "CITATION.cff")
}

func TestShell_ReadmeInstallSection(t *testing.T) {
	t.Parallel()

	out := extract(t, Shell{}, map[string]string{
		"README.md": "# Tool\n\n## Usage\n\n```sh\nnpm install left-pad\n```\n\n## Installation\n\n```console\n$ pip install tool\nCollecting tool\n```\n",
	})
	requireText(t, out, metadata.FieldInstallMethod, "pip", metadata.Strong)
	requireText(t, out, metadata.FieldInstallCommand, "pip install tool", metadata.Strong)
	if n := len(fieldCandidates(out, metadata.FieldInstallCommand)); n != 1 {
		t.Errorf("install command candidates = %d, want 1", n)
	}
}

func TestShell_CurlPipeToShell(t *testing.T) {
	t.Parallel()

	out := extract(t, Shell{}, map[string]string{
		"README.md": "# Tool\n\n```bash\ncurl -fsSL https://example.com/install.sh | sh\n```\n",
	})
	requireText(t, out, metadata.FieldInstallMethod, "script", metadata.Reasonable)
}

func TestShell_InstallScriptAndDockerfile(t *testing.T) {
	t.Parallel()

	res := snapshot(t, map[string]string{
		"install.sh": "#!/bin/sh\nset -e\ncurl -LO https://example.com/x.tgz\ntar xzf x.tgz\n",
		"Dockerfile": "FROM python:3.12\nRUN pip install \\\n    --no-cache-dir tool\n",
	})
	out := Shell{}.Extract(context.Background(), res)

	requireText(t, out, metadata.FieldInstallCommand, "./install.sh", metadata.Reasonable)
	requireText(t, out, metadata.FieldInstallMethod, "script", metadata.Reasonable)
	requireText(t, out, metadata.FieldInstallMethod, "pip", metadata.Guess)
	requireText(t, out, metadata.FieldInstallMethod, "docker", metadata.Weak)
}

func TestShell_BrokenInstallScript(t *testing.T) {
	t.Parallel()

	out := extract(t, Shell{}, map[string]string{"install.sh": "if then fi (\n"})
	requireParseDiagnostic(t, out, "install.sh")
	requireNoField(t, out, metadata.FieldInstallCommand)
}

func TestSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  bool
		conf  metadata.Confidence
		count int
	}{
		{
			name:  "crypto dependency",
			files: map[string]string{"requirements.txt": "cryptography>=41\n"},
			want:  true,
			conf:  metadata.Reasonable,
			count: 1,
		},
		{
			name:  "no security dependency",
			files: map[string]string{"package.json": `{"dependencies": {"left-pad": "1.0.0"}}`},
			want:  false,
			conf:  metadata.Weak,
			count: 1,
		},
		{
			name:  "substring does not match",
			files: map[string]string{"Cargo.toml": "[dependencies]\nstring = \"0.3\"\n"},
			want:  false,
			conf:  metadata.Weak,
			count: 1,
		},
		{
			name:  "security policy only",
			files: map[string]string{"SECURITY.md": "Report issues privately.\n"},
			want:  true,
			conf:  metadata.Weak,
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := extract(t, Security{}, tt.files)
			cands := fieldCandidates(out, metadata.FieldSecurityRelevant)
			if len(cands) != tt.count {
				t.Fatalf("len(candidates) = %d, want %d", len(cands), tt.count)
			}
			if cands[0].Flag != tt.want || cands[0].Confidence != tt.conf {
				t.Errorf("flag = %v@%v, want %v@%v", cands[0].Flag, cands[0].Confidence, tt.want, tt.conf)
			}
		})
	}
}

func TestCode_EntryPointsAndImports(t *testing.T) {
	t.Parallel()

	out := extract(t, Code{}, map[string]string{
		"app/__init__.py": "\"\"\"Tiny web app.\"\"\"\n",
		"app/server.py":   "import os\nimport flask\nfrom app import views\nfrom . import models\n\nif __name__ == \"__main__\":\n    run()\n",
		"app/views.py":    "import flask\nimport numpy as np\n",
	})

	requireText(t, out, metadata.FieldEntryPoint, "app/server.py", metadata.Reasonable)
	requireText(t, out, metadata.FieldUsageType, UsageFramework, metadata.Reasonable)
	requireText(t, out, metadata.FieldDescription, "Tiny web app.", metadata.Guess)

	deps := dependencyNames(out)
	for _, name := range []string{"flask", "numpy"} {
		if _, ok := deps[name]; !ok {
			t.Errorf("deps[%s] missing", name)
		}
	}
	for _, name := range []string{"os", "app", "models", "views"} {
		if _, ok := deps[name]; ok {
			t.Errorf("deps[%s] reported, want skipped", name)
		}
	}
	for _, c := range fieldCandidates(out, metadata.FieldDependencies) {
		if c.Confidence != metadata.Weak {
			t.Errorf("import %s confidence = %v, want Weak", c.Dependency.Name, c.Confidence)
		}
	}
}

func TestCode_SkipsImportsCoveredByManifest(t *testing.T) {
	t.Parallel()

	out := extract(t, Code{}, map[string]string{
		"go.mod":  "module example.com/svc\n",
		"main.go": "package main\n\nimport (\n\t\"fmt\"\n\t\"github.com/acme/kit/log\"\n\t\"example.com/svc/internal/db\"\n)\n\nfunc main() { fmt.Println(log.X, db.Y) }\n",
	})
	requireNoField(t, out, metadata.FieldDependencies)
	requireText(t, out, metadata.FieldEntryPoint, "main.go", metadata.Reasonable)
	requireText(t, out, metadata.FieldUsageType, UsageCLI, metadata.Weak)
}

func TestImportRoots_Go(t *testing.T) {
	t.Parallel()

	text := "package x\n\nimport (\n\t\"fmt\"\n\tlg \"github.com/acme/kit/log\"\n\t\"golang.org/x/sync/errgroup\"\n\t\"example.com/self/pkg\"\n)\n"
	got := importRoots("Go", text, "example.com/self")
	want := []string{"github.com/acme/kit", "golang.org/x/sync"}
	if len(got) != len(want) {
		t.Fatalf("importRoots() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("importRoots()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestImportRoots_JavaScript(t *testing.T) {
	t.Parallel()

	text := "import React from 'react'\nimport { x } from \"@scope/pkg/sub\"\nconst fs = require('fs')\nimport './local'\nconst y = require('lodash/get')\n"
	got := importRoots("JavaScript", text, "")
	want := []string{"react", "@scope/pkg", "lodash"}
	if len(got) != len(want) {
		t.Fatalf("importRoots() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("importRoots()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGeneric_UnknownEcosystem(t *testing.T) {
	t.Parallel()

	res := snapshot(t, map[string]string{
		"main.go":   "package main\n\nfunc main() {}\n",
		"util.go":   "package main\n",
		"LICENSE":   "                                 Apache License\n                           Version 2.0, January 2004\n",
		"README.md": "# Widget Factory\n\n[![CI](https://ci.example/badge.svg)](https://ci.example)\n\nBuilds [widgets](https://example.com) quickly.\nAnd reliably.\n\n## Install\n",
	})
	out := Generic{}.Extract(context.Background(), res)

	requireText(t, out, metadata.FieldLicense, "Apache-2.0", metadata.Strong)
	requireText(t, out, metadata.FieldLanguage, "Go", metadata.Reasonable)
	requireText(t, out, metadata.FieldTitle, "Widget Factory", metadata.Weak)
	requireText(t, out, metadata.FieldDescription, "Builds widgets quickly. And reliably.", metadata.Weak)

	var dirTitle bool
	for _, c := range fieldCandidates(out, metadata.FieldTitle) {
		if c.Confidence == metadata.Guess && c.Source == "directory-name" {
			dirTitle = true
		}
	}
	if !dirTitle {
		t.Error("no directory-name title candidate at Guess")
	}
}

func TestGeneric_GitRemote(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		".git/config": "[core]\n\tbare = false\n[remote \"origin\"]\n\turl = git@github.com:acme/widget.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n",
		"a.py":        "print(1)\n",
	})
	res, err := discovery.Discover(context.Background(), root, discovery.Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	out := Generic{}.Extract(context.Background(), res)
	requireText(t, out, metadata.FieldRepositoryURL, "https://github.com/acme/widget", metadata.Reasonable)
}

func TestDetectLicense(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"mit", "MIT License\n\nCopyright (c) 2024", "MIT"},
		{"mit body", "Permission is hereby granted, free of charge, to any person", "MIT"},
		{"gpl3", "GNU GENERAL PUBLIC LICENSE\n   Version 3, 29 June 2007", "GPL-3.0"},
		{"lgpl3", "GNU LESSER GENERAL PUBLIC LICENSE\n   Version 3, 29 June 2007", "LGPL-3.0"},
		{"bsd3", "Redistribution and use in source and binary forms...\n3. Neither the name of the copyright holder", "BSD-3-Clause"},
		{"bsd2", "Redistribution and use in source and binary forms, with or without", "BSD-2-Clause"},
		{"mpl", "Mozilla Public License Version 2.0\n==================", "MPL-2.0"},
		{"unlicense", "This is free and unencumbered software released into the public domain.", "Unlicense"},
		{"unknown", "All rights reserved. Do not copy.", ""},
	}
	for _, tt := range tests {
		if got := detectLicense(tt.text); got != tt.want {
			t.Errorf("detectLicense(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGeneric_CustomLicense(t *testing.T) {
	t.Parallel()

	out := extract(t, Generic{}, map[string]string{"LICENSE.txt": "Proprietary. All rights reserved.\n"})
	requireText(t, out, metadata.FieldLicense, LicenseCustom, metadata.Weak)
}

func TestCleanRepositoryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"git+https://github.com/a/b.git", "https://github.com/a/b"},
		{"git@github.com:a/b.git", "https://github.com/a/b"},
		{"ssh://git@gitlab.com/a/b.git", "https://gitlab.com/a/b"},
		{"github:a/b", "https://github.com/a/b"},
		{"a/b", "https://github.com/a/b"},
		{"https://example.com/a/", "https://example.com/a"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanRepositoryURL(tt.raw); got != tt.want {
			t.Errorf("cleanRepositoryURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseRequirement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec, name, version string
	}{
		{"requests>=2.0", "requests", ">=2.0"},
		{"uvicorn[standard] (>=0.20)", "uvicorn", ">=0.20"},
		{"pkg @ https://example.com/pkg.whl", "pkg", ""},
		{"numpy; python_version < '3.12'", "numpy", ""},
		{"-e .", "", ""},
	}
	for _, tt := range tests {
		name, version := parseRequirement(tt.spec)
		if name != tt.name || version != tt.version {
			t.Errorf("parseRequirement(%q) = (%q, %q), want (%q, %q)", tt.spec, name, version, tt.name, tt.version)
		}
	}
}

func TestManifestLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		counts map[string]int
		want   metadata.Confidence
	}{
		{"no sources", map[string]int{}, metadata.Strong},
		{"family dominates", map[string]int{"Python": 3, "Shell": 1}, metadata.Strong},
		{"other dominates", map[string]int{"Python": 1, "Go": 5}, metadata.Reasonable},
	}
	for _, tt := range tests {
		h := histogram{counts: tt.counts}
		for _, n := range tt.counts {
			h.total += n
		}
		if got := manifestLanguage(h, "Python"); got != tt.want {
			t.Errorf("manifestLanguage(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
