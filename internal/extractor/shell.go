// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bufio"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

var (
	installHeading = regexp.MustCompile(`(?i)\b(install|installation|installing|getting started|setup|set up|quick ?start)\b`)

	shellFenceLangs = []string{"", "sh", "bash", "shell", "zsh", "console", "terminal", "shell-session", "shellsession"}
)

type (
	// Shell reads install commands from README shell blocks, install.sh
	// scripts and Dockerfile RUN instructions with a POSIX shell parser.
	Shell struct{}

	codeBlock struct {
		lang    string
		heading string
		body    string
	}

	shellInstall struct {
		tool    string
		command string
	}
)

// Name implements Extractor.
func (Shell) Name() string { return NameShell }

// Interested implements Extractor.
func (Shell) Interested(f discovery.FileRecord) bool {
	name := f.Name()
	switch {
	case name == "install.sh":
		return true
	case isDockerfile(name):
		return true
	case f.Category() == discovery.CategoryDocs && strings.HasPrefix(strings.ToLower(name), "readme"):
		return true
	}
	return false
}

func isDockerfile(name string) bool {
	return name == "Dockerfile" || strings.HasPrefix(name, "Dockerfile.") || strings.HasSuffix(name, ".dockerfile")
}

// Extract implements Extractor.
func (s Shell) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameShell)
	var dockerfiles []discovery.FileRecord
	for _, f := range res.Select(s.Interested) {
		if ctx.Err() != nil {
			break
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		switch name := f.Name(); {
		case name == "install.sh":
			s.installScript(c, f.Path(), text)
		case isDockerfile(name):
			s.dockerfile(c, f.Path(), text)
			dockerfiles = append(dockerfiles, f)
		default:
			s.readme(c, f.Path(), text)
		}
	}
	if f, ok := shallowest(dockerfiles); ok {
		tag := strings.ToLower(filepath.Base(res.Root()))
		c.text(metadata.FieldInstallMethod, "docker", metadata.Weak, f.Path(), "Dockerfile present")
		c.text(metadata.FieldInstallCommand, fmt.Sprintf("docker build -t %s -f %s .", tag, f.Path()),
			metadata.Weak, f.Path(), "build the container image")
	}
	return c.output()
}

// readme proposes the first recognizable install command. Commands under an
// installation heading rank above commands found elsewhere.
func (Shell) readme(c *collector, src, text string) {
	var best shellInstall
	bestConf := metadata.Unknown
	bestHeading := ""
	for _, b := range fencedBlocks(text) {
		if !slices.Contains(shellFenceLangs, b.lang) {
			continue
		}
		conf := metadata.Reasonable
		if installHeading.MatchString(b.heading) {
			conf = metadata.Strong
		}
		if conf <= bestConf {
			continue
		}
		file, err := parseShell(promptLines(b.body), src)
		if err != nil {
			// Prose and non-shell snippets in untagged fences are common.
			continue
		}
		if found, ok := firstInstall(file); ok {
			best, bestConf, bestHeading = found, conf, b.heading
		}
	}
	if bestConf == metadata.Unknown {
		return
	}
	note := "shell block in README"
	if bestHeading != "" {
		note = fmt.Sprintf("shell block under %q", bestHeading)
	}
	c.text(metadata.FieldInstallMethod, best.tool, bestConf, src, note)
	c.text(metadata.FieldInstallCommand, best.command, bestConf, src, note)
}

func (Shell) installScript(c *collector, src, text string) {
	file, err := parseShell(text, src)
	if err != nil {
		c.parseFailed(src, "shell", err)
		return
	}
	var tools []string
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			if name := path.Base(wordText(call.Args[0])); name != "" && name != "." && !slices.Contains(tools, name) {
				tools = append(tools, name)
			}
		}
		return true
	})
	note := "install script"
	if len(tools) > 0 {
		note = "install script invoking " + strings.Join(tools[:min(len(tools), 5)], ", ")
	}
	cmd := "sh " + src
	if dirOf(src) == "" {
		cmd = "./install.sh"
	}
	c.text(metadata.FieldInstallMethod, "script", metadata.Reasonable, src, note)
	c.text(metadata.FieldInstallCommand, cmd, metadata.Reasonable, src, note)
}

// dockerfile validates RUN instructions; packaging commands inside the image
// build hint at the ecosystem at the lowest tier.
func (Shell) dockerfile(c *collector, src, text string) {
	for i, run := range dockerRuns(text) {
		file, err := parseShell(run, src)
		if err != nil {
			c.parseFailed(src, fmt.Sprintf("shell (RUN #%d)", i+1), err)
			continue
		}
		if found, ok := firstInstall(file); ok && found.tool != "docker" {
			c.text(metadata.FieldInstallMethod, found.tool, metadata.Guess, src, "image build runs "+found.command)
			return
		}
	}
}

func parseShell(script, name string) (*syntax.File, error) {
	return syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(script), name)
}

// firstInstall returns the first top-level statement that runs a known
// package or build tool, printed back as the install command.
func firstInstall(file *syntax.File) (shellInstall, bool) {
	for _, stmt := range file.Stmts {
		tool := stmtTool(stmt)
		if tool == "" {
			continue
		}
		var sb strings.Builder
		if err := syntax.NewPrinter(syntax.SingleLine(true)).Print(&sb, stmt); err != nil {
			continue
		}
		return shellInstall{tool: tool, command: strings.TrimSpace(sb.String())}, true
	}
	return shellInstall{}, false
}

func stmtTool(stmt *syntax.Stmt) string {
	if stmt == nil {
		return ""
	}
	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		args := make([]string, 0, len(cmd.Args))
		for _, w := range cmd.Args {
			args = append(args, wordText(w))
		}
		return installTool(args)
	case *syntax.BinaryCmd:
		if cmd.Op == syntax.Pipe && fetches(cmd.X) && runsShell(cmd.Y) {
			return "script"
		}
		if t := stmtTool(cmd.X); t != "" {
			return t
		}
		return stmtTool(cmd.Y)
	}
	return ""
}

func fetches(stmt *syntax.Stmt) bool {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		return false
	}
	name := path.Base(wordText(call.Args[0]))
	return name == "curl" || name == "wget"
}

func runsShell(stmt *syntax.Stmt) bool {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		return false
	}
	args := call.Args
	if wordText(args[0]) == "sudo" && len(args) > 1 {
		args = args[1:]
	}
	switch path.Base(wordText(args[0])) {
	case "sh", "bash", "zsh":
		return true
	}
	return false
}

// installTool maps a command line to the install tool it invokes, or "".
func installTool(args []string) string {
	if len(args) > 0 && args[0] == "sudo" {
		args = args[1:]
	}
	if len(args) < 2 {
		return ""
	}
	tool, sub := path.Base(args[0]), args[1]
	is := func(subs ...string) bool { return slices.Contains(subs, sub) }
	switch tool {
	case "pip", "pip3":
		if is("install") {
			return "pip"
		}
	case "python", "python3":
		if len(args) >= 4 && sub == "-m" && args[2] == "pip" && args[3] == "install" {
			return "pip"
		}
	case "pipx":
		if is("install") {
			return "pipx"
		}
	case "uv":
		if is("pip", "tool", "add") {
			return "uv"
		}
	case "poetry":
		if is("install", "add") {
			return "poetry"
		}
	case "conda", "mamba":
		if is("install", "create") {
			return "conda"
		}
	case "npm":
		if is("install", "i", "ci") {
			return "npm"
		}
	case "yarn":
		if is("add", "install", "global") {
			return "yarn"
		}
	case "pnpm":
		if is("add", "install", "i") {
			return "pnpm"
		}
	case "go":
		if is("install", "get") {
			return "go"
		}
	case "cargo":
		if is("install", "add", "build") {
			return "cargo"
		}
	case "brew":
		if is("install") {
			return "brew"
		}
	case "gem":
		if is("install") {
			return "gem"
		}
	case "bundle":
		if is("install", "add") {
			return "bundler"
		}
	case "docker":
		if is("run", "pull", "build") {
			return "docker"
		}
	case "docker-compose":
		if is("up") {
			return "docker"
		}
	case "make":
		if is("install") {
			return "make"
		}
	case "cmake":
		return "cmake"
	case "meson":
		if is("setup", "install") {
			return "meson"
		}
	case "mvn":
		if is("install", "package") {
			return "maven"
		}
	case "gradle", "gradlew":
		if is("build", "install", "installDist") {
			return "gradle"
		}
	case "composer":
		if is("require", "install") {
			return "composer"
		}
	case "apt", "apt-get":
		if is("install") {
			return "apt"
		}
	}
	return ""
}

// wordText returns the literal text of a word, resolving quotes. Parts that
// need expansion are dropped.
func wordText(w *syntax.Word) string {
	if w == nil {
		return ""
	}
	if lit := w.Lit(); lit != "" {
		return lit
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		}
	}
	return sb.String()
}

// fencedBlocks returns the fenced code blocks of a Markdown document with
// the nearest preceding heading.
func fencedBlocks(text string) []codeBlock {
	var blocks []codeBlock
	heading := ""
	var cur *codeBlock
	var body []string
	fence := ""
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if cur != nil {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
				cur.body = strings.Join(body, "\n")
				blocks = append(blocks, *cur)
				cur, body = nil, nil
				continue
			}
			body = append(body, line)
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "```"), strings.HasPrefix(trimmed, "~~~"):
			marker := trimmed[:1]
			n := len(trimmed) - len(strings.TrimLeft(trimmed, marker))
			fence = strings.Repeat(marker, n)
			info := strings.Fields(strings.TrimSpace(trimmed[n:]))
			lang := ""
			if len(info) > 0 {
				lang = strings.ToLower(strings.Trim(info[0], "{}."))
			}
			cur = &codeBlock{lang: lang, heading: heading}
		case strings.HasPrefix(trimmed, "#"):
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return blocks
}

// promptLines keeps only "$ " prompted lines when a block mixes commands
// with their output.
func promptLines(body string) string {
	lines := strings.Split(body, "\n")
	var prompted []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		switch {
		case strings.HasPrefix(t, "$ "):
			prompted = append(prompted, strings.TrimPrefix(t, "$ "))
		case strings.HasPrefix(t, "% "):
			prompted = append(prompted, strings.TrimPrefix(t, "% "))
		}
	}
	if len(prompted) == 0 {
		return body
	}
	return strings.Join(prompted, "\n")
}

// dockerRuns returns the shell-form RUN instructions of a Dockerfile with
// line continuations joined.
func dockerRuns(text string) []string {
	var runs []string
	var cur strings.Builder
	inRun := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inRun {
			if len(trimmed) < 4 || !strings.EqualFold(trimmed[:4], "RUN ") {
				continue
			}
			trimmed = strings.TrimSpace(trimmed[4:])
			if strings.HasPrefix(trimmed, "[") {
				continue
			}
			inRun = true
		} else if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasSuffix(trimmed, "\\") {
			cur.WriteString(strings.TrimSuffix(trimmed, "\\"))
			cur.WriteString(" ")
			continue
		}
		cur.WriteString(trimmed)
		runs = append(runs, cur.String())
		cur.Reset()
		inRun = false
	}
	if inRun && cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	return runs
}
