// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/autodoc/autodoc/internal/config"
	"github.com/autodoc/autodoc/internal/enhance"
	"github.com/autodoc/autodoc/internal/testutil"
	"github.com/autodoc/autodoc/pkg/metadata"
)

const pyproject = "[project]\nname = \"foo\"\nlicense = \"MIT\"\n"

type (
	staticConfig struct {
		cfg *config.Config
		err error
	}

	fakeEnhancer struct {
		answer string
	}

	harness struct {
		app    *App
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

func (f *fakeEnhancer) Name() string { return "fake" }

func (f *fakeEnhancer) Generate(context.Context, enhance.Request) (string, error) {
	return f.answer, nil
}

// newHarness builds an App with default configuration, no API keys and
// captured output.
func newHarness(t *testing.T, deps Dependencies) *harness {
	t.Helper()
	h := &harness{}
	if deps.Config == nil {
		deps.Config = staticConfig{cfg: config.DefaultConfig()}
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = func(string) (string, bool) { return "", false }
	}
	deps.GuideStyle = "notty"
	deps.Stdout = &h.stdout
	deps.Stderr = &h.stderr
	app, err := NewApp(deps)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	h.app = app
	return h
}

func (h *harness) run(args ...string) error {
	root := NewRootCommand(h.app)
	root.SetArgs(args)
	root.SetOut(&h.stdout)
	root.SetErr(&h.stderr)
	return root.ExecuteContext(context.Background())
}

func (h *harness) mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := h.run(args...); err != nil {
		t.Fatalf("autodoc %v error = %v\nstderr:\n%s", args, err, h.stderr.String())
	}
}

func wantExit(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != code {
		t.Errorf("ExitError.Code = %d, want %d", exitErr.Code, code)
	}
}

func TestGenerate_Stdout(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "generate", root)

	out := h.stdout.String()
	for _, want := range []string{"# foo\n", "**MIT**", "<!-- TODO: add description:", "draft generated by autodoc"} {
		if !strings.Contains(out, want) {
			t.Errorf("generate output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerate_OutFile(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	out := filepath.Join(t.TempDir(), "README.md")

	h := newHarness(t, Dependencies{})
	h.mustRun(t, "generate", root, "--out", out, "--no-notice")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# foo\n") || strings.Contains(string(data), "draft generated") {
		t.Errorf("README = %q, want title and no notice", data)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing when writing a file", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "wrote") {
		t.Errorf("stderr = %q, want a confirmation", h.stderr.String())
	}

	// A second run refuses to overwrite.
	h = newHarness(t, Dependencies{})
	err = h.run("generate", root, "--out", out)
	wantExit(t, err, 1)
	if !strings.Contains(h.stderr.String(), "failed to write README") || !strings.Contains(h.stderr.String(), "--force") {
		t.Errorf("stderr = %q, want the overwrite error and suggestion", h.stderr.String())
	}

	h = newHarness(t, Dependencies{})
	h.mustRun(t, "generate", root, "--out", out, "--force")
}

func TestGenerate_EnhancementUnavailable(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{Enhancers: enhance.New})
	h.mustRun(t, "generate", root, "--enhance")

	if !strings.Contains(h.stderr.String(), "enhancer_failed") || !strings.Contains(h.stderr.String(), "ANTHROPIC_API_KEY") {
		t.Errorf("stderr = %q, want an enhancer diagnostic naming the key", h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), "<!-- TODO: add description:") {
		t.Errorf("stdout = %q, want the description placeholder kept", h.stdout.String())
	}
}

func TestGenerate_Enhancement(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	var gotProvider enhance.Provider
	var gotModel string
	factory := func(_ context.Context, p enhance.Provider, model string, _ func(string) (string, bool)) (enhance.Enhancer, error) {
		gotProvider, gotModel = p, model
		return &fakeEnhancer{answer: "Foo does useful things."}, nil
	}

	h := newHarness(t, Dependencies{Enhancers: factory})
	h.mustRun(t, "generate", root, "--enhance", "--provider", "Gemini", "--model", "gemini-2.5-pro")

	if gotProvider != enhance.ProviderGemini || gotModel != "gemini-2.5-pro" {
		t.Errorf("factory got %q/%q, want gemini/gemini-2.5-pro", gotProvider, gotModel)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Foo does useful things.\n<!-- REVIEW: description was generated by enhancer:fake") {
		t.Errorf("generate output missing the generated description:\n%s", out)
	}
}

func TestGenerate_EnhancementBadProvider(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{})
	err := h.run("generate", root, "--enhance", "--provider", "openai")
	wantExit(t, err, 1)
	if !strings.Contains(h.stderr.String(), "configure enhancement") {
		t.Errorf("stderr = %q, want the enhancement error", h.stderr.String())
	}
}

func TestExtract_JSON(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "extract", root, "--json")

	var m metadata.ProjectMetadata
	if err := json.Unmarshal(h.stdout.Bytes(), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, h.stdout.String())
	}
	if m.Title.Value != "foo" || m.Title.Confidence != metadata.Explicit {
		t.Errorf("Title = %q/%s, want foo/explicit", m.Title.Value, m.Title.Confidence)
	}
	if m.Description.Value != "" || m.Description.Confidence != metadata.Unknown {
		t.Errorf("Description = %+v, want a placeholder", m.Description)
	}
}

func TestExtract_JSONAll(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "extract", root, "--json", "--all")

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(h.stdout.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"metadata", "candidates", "diagnostics", "extractors"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("extract --all output has no %q key", key)
		}
	}
	var ran []string
	if err := json.Unmarshal(doc["extractors"], &ran); err != nil {
		t.Fatalf("Unmarshal(extractors) error = %v", err)
	}
	if len(ran) == 0 || ran[0] != "python" {
		t.Errorf("extractors = %v, want python first", ran)
	}
}

func TestExtract_Table(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "extract", root)

	out := h.stdout.String()
	for _, want := range []string{"Metadata", "license", "MIT", "pyproject.toml", "(placeholder)", "Hints:"} {
		if !strings.Contains(out, want) {
			t.Errorf("extract table missing %q:\n%s", want, out)
		}
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		"package.json": `{"name": "widget", "license": "MIT"}`,
		"LICENSE":      "Copyright Widget Corp. All rights reserved.\n",
	})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "explain", root, "license")

	out := h.stdout.String()
	for _, want := range []string{"Field:", "license", "Resolved:", "MIT", "package.json", "LICENSE", "javascript"} {
		if !strings.Contains(out, want) {
			t.Errorf("explain output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "package.json") > strings.Index(out, "Custom") {
		t.Errorf("explain ranks the LICENSE guess above package.json:\n%s", out)
	}
}

func TestExplain_UnknownField(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Dependencies{})
	err := h.run("explain", t.TempDir(), "tagline")
	wantExit(t, err, 1)
	if !strings.Contains(h.stderr.String(), "failed to explain field: tagline") {
		t.Errorf("stderr = %q, want the unknown field error", h.stderr.String())
	}
}

func TestFiles_JSON(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		"pyproject.toml":  pyproject,
		"src/app.py":      "print('hi')\n",
		"tests/test_x.py": "def test_x(): pass\n",
		"README.md":       "# foo\n",
	})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "files", root, "--json", "--category", "source")

	var report filesReport
	if err := json.Unmarshal(h.stdout.Bytes(), &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(report.Files) != 1 || report.Files[0].Path != "src/app.py" {
		t.Errorf("files = %+v, want only src/app.py", report.Files)
	}
	if report.Stats.Visited < 4 {
		t.Errorf("Stats.Visited = %d, want at least 4", report.Stats.Visited)
	}
}

func TestFiles_Table(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"pyproject.toml": pyproject, "README.md": "# foo\n"})
	h := newHarness(t, Dependencies{})
	h.mustRun(t, "files", root)

	out := h.stdout.String()
	for _, want := range []string{"pyproject.toml", "config", "README.md", "docs", "2 listed"} {
		if !strings.Contains(out, want) {
			t.Errorf("files output missing %q:\n%s", want, out)
		}
	}
}

func TestScanErrors(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file.txt")
	testutil.MustWriteFile(t, file, "x")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing root", []string{"extract", filepath.Join(t.TempDir(), "nope")}, "failed to scan repository"},
		{"root is a file", []string{"generate", file}, "not a directory"},
		{"unknown extractor", []string{"extract", t.TempDir(), "--extractors", "cobol"}, "Valid extractors:"},
		{"bad log level", []string{"extract", t.TempDir(), "--log-level", "loud"}, "invalid log level"},
		{"bad category", []string{"files", t.TempDir(), "--category", "binary"}, "binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, Dependencies{})
			err := h.run(tt.args...)
			wantExit(t, err, 1)
			if !strings.Contains(h.stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", h.stderr.String(), tt.want)
			}
		})
	}
}

func TestVerboseRendersGuide(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Dependencies{})
	err := h.run("extract", filepath.Join(t.TempDir(), "nope"), "--verbose")
	wantExit(t, err, 1)
	for _, want := range []string{"Error chain:", "Repository not found"} {
		if !strings.Contains(h.stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, h.stderr.String())
		}
	}
}

func TestConfigLoadError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Dependencies{Config: staticConfig{err: errors.New("bad config")}})
	err := h.run("extract", t.TempDir())
	wantExit(t, err, 1)
	if !strings.Contains(h.stderr.String(), "bad config") {
		t.Errorf("stderr = %q, want the config error", h.stderr.String())
	}
}

func TestScanFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	files := map[string]string{"requirements.txt": "requests\n"}
	for i := range 10 {
		files[filepath.Join("pkg", string(rune('a'+i))+".py")] = "x = 1\n"
	}
	root := testutil.WriteTree(t, files)

	cfg := config.DefaultConfig()
	cfg.MaxFiles = 2
	h := newHarness(t, Dependencies{Config: staticConfig{cfg: cfg}})
	h.mustRun(t, "extract", root, "--json")
	var m metadata.ProjectMetadata
	if err := json.Unmarshal(h.stdout.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if !m.Hints.Truncated {
		t.Error("Hints.Truncated = false with max_files 2, want true")
	}

	h = newHarness(t, Dependencies{Config: staticConfig{cfg: cfg}})
	h.mustRun(t, "extract", root, "--json", "--max-files=-1")
	m = metadata.ProjectMetadata{}
	if err := json.Unmarshal(h.stdout.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.Hints.Truncated {
		t.Error("Hints.Truncated = true with --max-files -1, want false")
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: dir})
	h.mustRun(t, "config", "init")
	path := filepath.Join(dir, "config.cue")
	if !strings.Contains(h.stdout.String(), path) {
		t.Errorf("config init output = %q, want %q", h.stdout.String(), path)
	}

	h = newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: dir})
	wantExit(t, h.run("config", "init"), 1)
	if !strings.Contains(h.stderr.String(), "--force") {
		t.Errorf("stderr = %q, want the --force suggestion", h.stderr.String())
	}

	h = newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: dir})
	h.mustRun(t, "config", "show")
	if !strings.Contains(h.stdout.String(), `provider: "anthropic"`) || !strings.Contains(h.stderr.String(), path) {
		t.Errorf("config show = %q / %q, want CUE and the file path", h.stdout.String(), h.stderr.String())
	}

	h = newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: dir})
	h.mustRun(t, "config", "path")
	if !strings.Contains(h.stdout.String(), path+"  (in use)") {
		t.Errorf("config path = %q, want %q in use", h.stdout.String(), path)
	}
}

func TestConfigInit_Local(t *testing.T) {
	// Not parallel: writes into the working directory.
	dir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, dir))

	h := newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: t.TempDir()})
	h.mustRun(t, "config", "init", "--local")
	if _, err := os.Stat(filepath.Join(dir, config.LocalConfigFile)); err != nil {
		t.Fatalf("Stat(%s) error = %v", config.LocalConfigFile, err)
	}

	h = newHarness(t, Dependencies{Config: config.NewProvider(), ConfigDir: t.TempDir()})
	h.mustRun(t, "config", "path")
	if !strings.Contains(h.stdout.String(), config.LocalConfigFile+"  (in use)") {
		t.Errorf("config path = %q, want the local file in use", h.stdout.String())
	}
}
