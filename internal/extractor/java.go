// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"regexp"
	"slices"
	"strings"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const ecosystemMaven = "maven"

var (
	gradleDependency = regexp.MustCompile(`(?m)^\s*(implementation|api|compile|runtimeOnly|compileOnly|testImplementation|testRuntimeOnly|testCompile|kapt|annotationProcessor)\s*\(?\s*["']([^"':\s]+):([^"':\s]+)(?::([^"'\s]+))?["']`)
	gradleVersion    = regexp.MustCompile(`(?m)^\s*version\s*=\s*["']([^"']+)["']`)
	gradleDesc       = regexp.MustCompile(`(?m)^\s*description\s*=\s*["']([^"']+)["']`)
	gradleMainClass  = regexp.MustCompile(`mainClass(?:Name)?\s*(?:=|\.set\()\s*["']([^"']+)["']`)
	gradleKotlin     = regexp.MustCompile(`kotlin\(\s*"jvm"\s*\)|org\.jetbrains\.kotlin`)
	gradleRootName   = regexp.MustCompile(`rootProject\.name\s*=\s*["']([^"']+)["']`)
)

type (
	// Java reads Maven pom.xml and Gradle build scripts.
	Java struct{}

	pomProject struct {
		XMLName     xml.Name `xml:"project"`
		GroupID     string   `xml:"groupId"`
		ArtifactID  string   `xml:"artifactId"`
		Version     string   `xml:"version"`
		Name        string   `xml:"name"`
		Description string   `xml:"description"`
		URL         string   `xml:"url"`
		Packaging   string   `xml:"packaging"`
		Licenses    []struct {
			Name string `xml:"name"`
		} `xml:"licenses>license"`
		Developers   []pomPerson     `xml:"developers>developer"`
		Contributors []pomPerson     `xml:"contributors>contributor"`
		Dependencies []pomDependency `xml:"dependencies>dependency"`
		SCM          struct {
			URL string `xml:"url"`
		} `xml:"scm"`
		Plugins []struct {
			ArtifactID    string `xml:"artifactId"`
			Configuration struct {
				MainClass         string `xml:"mainClass"`
				ManifestMainClass string `xml:"archive>manifest>mainClass"`
			} `xml:"configuration"`
		} `xml:"build>plugins>plugin"`
	}

	pomPerson struct {
		Name  string `xml:"name"`
		Email string `xml:"email"`
		URL   string `xml:"url"`
	}

	pomDependency struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
		Scope      string `xml:"scope"`
	}

	javaRun struct {
		c        *collector
		depNames []string
		cli      bool
		kotlin   bool
	}
)

// Name implements Extractor.
func (Java) Name() string { return NameJava }

// Interested implements Extractor.
func (Java) Interested(f discovery.FileRecord) bool {
	switch f.Name() {
	case "pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts":
		return true
	}
	return false
}

// Extract implements Extractor.
func (j Java) Extract(ctx context.Context, res *discovery.Result) Output {
	run := &javaRun{c: newCollector(NameJava)}
	var maven, gradle []discovery.FileRecord
	for _, f := range res.Select(j.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := run.c.read(f)
		if !ok {
			continue
		}
		switch f.Name() {
		case "pom.xml":
			if run.pom(f.Path(), text) {
				maven = append(maven, f)
			}
		case "settings.gradle", "settings.gradle.kts":
			if m := gradleRootName.FindStringSubmatch(text); m != nil {
				run.c.text(metadata.FieldTitle, m[1], metadata.Explicit, f.Path(), "rootProject.name")
			}
			gradle = append(gradle, f)
		default:
			run.gradle(f.Path(), text)
			if strings.HasSuffix(f.Name(), ".kts") {
				run.kotlin = true
			}
			gradle = append(gradle, f)
		}
	}

	hist := languageHistogram(res)
	if hist.count("Kotlin") > hist.count("Java") {
		run.kotlin = true
	}
	lang := "Java"
	if run.kotlin {
		lang = "Kotlin"
	}

	if primary, ok := shallowest(maven); ok {
		src := primary.Path()
		run.c.text(metadata.FieldInstallMethod, "maven", metadata.Strong, src, "Maven project")
		run.c.text(metadata.FieldInstallCommand, "mvn install", metadata.Reasonable, src, "Maven build")
	}
	if primary, ok := shallowest(gradle); ok {
		src := primary.Path()
		run.c.text(metadata.FieldInstallMethod, "gradle", metadata.Strong, src, "Gradle project")
		cmd := "gradle build"
		if len(res.Named("gradlew")) > 0 {
			cmd = "./gradlew build"
		}
		run.c.text(metadata.FieldInstallCommand, cmd, metadata.Reasonable, src, "Gradle build")
	}
	if primary, ok := shallowest(slices.Concat(maven, gradle)); ok {
		src := primary.Path()
		run.c.text(metadata.FieldLanguage, lang, manifestLanguage(hist, "Java", "Kotlin", "Scala"), src,
			"JVM build file")
		run.c.add(usageCandidate(run.depNames, run.cli, src))
	}
	return run.c.output()
}

func (r *javaRun) pom(path, text string) bool {
	var pom pomProject
	dec := xml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.Strict = false
	if err := dec.Decode(&pom); err != nil {
		r.c.parseFailed(path, "XML", err)
		return false
	}
	c := r.c
	literal := func(s string) string {
		if strings.Contains(s, "${") {
			return ""
		}
		return strings.TrimSpace(s)
	}

	if name := literal(pom.Name); name != "" {
		c.text(metadata.FieldTitle, name, metadata.Explicit, path, "<name>")
	} else {
		c.text(metadata.FieldTitle, literal(pom.ArtifactID), metadata.Strong, path, "<artifactId>")
	}
	c.text(metadata.FieldVersion, literal(pom.Version), metadata.Explicit, path, "<version>")
	c.text(metadata.FieldDescription, collapse(pom.Description), metadata.Explicit, path, "<description>")
	if len(pom.Licenses) > 0 {
		c.text(metadata.FieldLicense, pom.Licenses[0].Name, metadata.Explicit, path, "<licenses>")
	}
	for _, d := range pom.Developers {
		c.author(metadata.Author{Name: d.Name, Email: d.Email, URL: d.URL}, metadata.Explicit, path)
	}
	for _, d := range pom.Contributors {
		c.author(metadata.Author{Name: d.Name, Email: d.Email, URL: d.URL, Role: "contributor"}, metadata.Strong, path)
	}
	for _, d := range pom.Dependencies {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		coord := d.GroupID + ":" + d.ArtifactID
		dev := d.Scope == "test"
		if !dev {
			r.depNames = append(r.depNames, coord)
		}
		if strings.Contains(d.GroupID, "kotlin") {
			r.kotlin = true
		}
		c.dependency(metadata.Dependency{
			Name:      coord,
			Version:   literal(d.Version),
			Dev:       dev,
			Ecosystem: ecosystemMaven,
		}, metadata.Explicit, path)
	}
	if u := cleanRepositoryURL(pom.SCM.URL); u != "" {
		c.text(metadata.FieldRepositoryURL, u, metadata.Explicit, path, "<scm><url>")
	} else if u := cleanRepositoryURL(pom.URL); isCodeHost(u) {
		c.text(metadata.FieldRepositoryURL, u, metadata.Strong, path, "<url>")
	}
	for _, p := range pom.Plugins {
		if p.ArtifactID == "kotlin-maven-plugin" {
			r.kotlin = true
		}
		main := p.Configuration.MainClass
		if main == "" {
			main = p.Configuration.ManifestMainClass
		}
		if main = literal(main); main != "" {
			r.cli = true
			c.text(metadata.FieldEntryPoint, main, metadata.Strong, path, p.ArtifactID+" mainClass")
		}
	}
	return true
}

func (r *javaRun) gradle(path, text string) {
	c := r.c
	if m := gradleVersion.FindStringSubmatch(text); m != nil {
		c.text(metadata.FieldVersion, m[1], metadata.Strong, path, "version =")
	}
	if m := gradleDesc.FindStringSubmatch(text); m != nil {
		c.text(metadata.FieldDescription, m[1], metadata.Strong, path, "description =")
	}
	if m := gradleMainClass.FindStringSubmatch(text); m != nil {
		r.cli = true
		c.text(metadata.FieldEntryPoint, m[1], metadata.Strong, path, "application mainClass")
	}
	if gradleKotlin.MatchString(text) {
		r.kotlin = true
	}
	for _, m := range gradleDependency.FindAllStringSubmatch(text, -1) {
		conf, coord := m[1], m[2]+":"+m[3]
		dev := strings.HasPrefix(conf, "test")
		if !dev {
			r.depNames = append(r.depNames, coord)
		}
		c.dependency(metadata.Dependency{
			Name:      coord,
			Version:   m[4],
			Dev:       dev,
			Ecosystem: ecosystemMaven,
		}, metadata.Strong, path)
	}
}

// collapse folds runs of whitespace, as XML text often spans lines.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
