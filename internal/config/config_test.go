// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/autodoc/autodoc/internal/issue"
	"github.com/autodoc/autodoc/internal/testutil"
)

func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

// isolated returns options pointing at empty temp directories with env ignored.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: t.TempDir(),
		WorkDir:       t.TempDir(),
		IgnoreEnv:     true,
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.MaxFiles != 0 || cfg.MaxBytes != 0 {
		t.Errorf("DefaultConfig() budgets = %d/%d, want 0/0", cfg.MaxFiles, cfg.MaxBytes)
	}
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("DefaultConfig().LogLevel = %q, want %q", cfg.LogLevel, LogLevelInfo)
	}
	if cfg.Enhance.Enabled {
		t.Error("DefaultConfig().Enhance.Enabled = true, want false")
	}
	if cfg.Enhance.Provider != EnhanceProviderAnthropic {
		t.Errorf("DefaultConfig().Enhance.Provider = %q, want %q", cfg.Enhance.Provider, EnhanceProviderAnthropic)
	}
	if !slices.Equal(cfg.Enhance.Fields, []string{"description"}) {
		t.Errorf("DefaultConfig().Enhance.Fields = %v, want [description]", cfg.Enhance.Fields)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = false: %v", errs)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != LogLevelInfo || cfg.Enhance.Provider != EnhanceProviderAnthropic {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}

	path, err := Resolve(opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != "" {
		t.Errorf("Resolve() = %q, want empty", path)
	}
}

func TestLoad_UserConfig(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `
max_files: 50
ignore: ["fixtures/**"]
log_level: "debug"
enhance: {
	enabled:  true
	provider: "gemini"
	floor:    "strong"
}
`)

	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxFiles != 50 {
		t.Errorf("MaxFiles = %d, want 50", cfg.MaxFiles)
	}
	if !slices.Equal(cfg.Ignore, []string{"fixtures/**"}) {
		t.Errorf("Ignore = %v, want [fixtures/**]", cfg.Ignore)
	}
	if cfg.LogLevel != LogLevelDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.Enhance.Enabled || cfg.Enhance.Provider != EnhanceProviderGemini || cfg.Enhance.Floor != "strong" {
		t.Errorf("Enhance = %+v, want enabled gemini at strong", cfg.Enhance)
	}
	// Keys absent from the file keep their defaults.
	if !slices.Equal(cfg.Enhance.Fields, []string{"description"}) {
		t.Errorf("Enhance.Fields = %v, want [description]", cfg.Enhance.Fields)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	local := filepath.Join(opts.WorkDir, LocalConfigFile)
	testutil.MustWriteFile(t, local, `extractors: ["go", "shell"]`+"\n")

	path, err := Resolve(opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != local {
		t.Errorf("Resolve() = %q, want %q", path, local)
	}

	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(cfg.Extractors, []string{"go", "shell"}) {
		t.Errorf("Extractors = %v, want [go shell]", cfg.Extractors)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	paths, err := SearchPaths(opts)
	if err != nil {
		t.Fatalf("SearchPaths() error = %v", err)
	}
	want := []string{
		filepath.Join(opts.ConfigDirPath, "config.cue"),
		filepath.Join(opts.WorkDir, LocalConfigFile),
	}
	if !slices.Equal(paths, want) {
		t.Errorf("SearchPaths() = %v, want %v", paths, want)
	}

	opts.ConfigFilePath = "/explicit.cue"
	paths, err = SearchPaths(opts)
	if err != nil {
		t.Fatalf("SearchPaths() error = %v", err)
	}
	if !slices.Equal(paths, []string{"/explicit.cue"}) {
		t.Errorf("SearchPaths() = %v, want only the explicit path", paths)
	}
}

func TestLoad_UserConfigWinsOverLocal(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), "max_files: 10\n")
	testutil.MustWriteFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), "max_files: 20\n")

	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxFiles != 10 {
		t.Errorf("MaxFiles = %d, want 10 from the first search path", cfg.MaxFiles)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	explicit := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, explicit, "max_bytes: 4096\n")
	// The user file is ignored when an explicit path is given.
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), "max_bytes: 1\n")
	opts.ConfigFilePath = explicit

	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxBytes != 4096 {
		t.Errorf("MaxBytes = %d, want 4096", cfg.MaxBytes)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

	_, err := load(t, opts)
	if err == nil {
		t.Fatal("Load() error = nil, want error for a missing explicit file")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error is %T, want *issue.ActionableError", err)
	}
	if ae.Operation != "load configuration" || ae.Resource != opts.ConfigFilePath {
		t.Errorf("ActionableError = %q on %q, want load configuration on %q", ae.Operation, ae.Resource, opts.ConfigFilePath)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("ActionableError has no suggestions")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", `log_level: "loud"`},
		{"unknown key", `colour: "blue"`},
		{"negative budget", `max_files: -5`},
		{"bad provider", `enhance: provider: "openai"`},
		{"list field", `enhance: fields: ["authors"]`},
		{"syntax error", `max_files: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := isolated(t)
			testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), tt.content+"\n")

			_, err := load(t, opts)
			if err == nil {
				t.Fatalf("Load() error = nil, want schema error for %s", tt.content)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error is %T, want *issue.ActionableError", err)
			}
			if !strings.HasSuffix(ae.Resource, "config.cue") {
				t.Errorf("ActionableError.Resource = %q, want the config file", ae.Resource)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

//nolint:tparallel // t.Setenv forbids t.Parallel.
func TestLoad_EnvironmentOverrides(t *testing.T) {
	opts := isolated(t)
	opts.IgnoreEnv = false
	testutil.MustWriteFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), "max_files: 10\n")

	t.Setenv("AUTODOC_MAX_FILES", "75")
	t.Setenv("AUTODOC_ENHANCE_PROVIDER", "gemini")

	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxFiles != 75 {
		t.Errorf("MaxFiles = %d, want 75 from the environment", cfg.MaxFiles)
	}
	if cfg.Enhance.Provider != EnhanceProviderGemini {
		t.Errorf("Enhance.Provider = %q, want gemini from the environment", cfg.Enhance.Provider)
	}

	opts.IgnoreEnv = true
	cfg, err = load(t, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxFiles != 10 {
		t.Errorf("MaxFiles = %d with IgnoreEnv, want 10", cfg.MaxFiles)
	}
}

//nolint:tparallel // t.Setenv forbids t.Parallel.
func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	opts := isolated(t)
	opts.IgnoreEnv = false
	t.Setenv("AUTODOC_LOG_LEVEL", "verbose")

	_, err := load(t, opts)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "validate configuration" {
		t.Errorf("Load() error = %v, want a validate configuration ActionableError", err)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	path, err := UserConfigPath(opts)
	if err != nil {
		t.Fatalf("UserConfigPath() error = %v", err)
	}
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	// The generated file passes the schema and reproduces the defaults.
	cfg, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	def := DefaultConfig()
	if cfg.LogLevel != def.LogLevel || cfg.Enhance.Provider != def.Enhance.Provider ||
		cfg.Enhance.Floor != def.Enhance.Floor || !slices.Equal(cfg.Enhance.Fields, def.Enhance.Fields) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, def)
	}

	if err := WriteDefault(path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("WriteDefault() second call error = %v, want ErrConfigExists", err)
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) error = %v", err)
	}
}

func TestGenerateCUE(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Ignore = []string{"vendor/**"}
	cfg.Enhance.Model = "claude-opus-4-1"

	out := GenerateCUE(cfg)
	for _, want := range []string{
		`ignore: ["vendor/**"]`,
		"max_files: 0",
		`log_level: "info"`,
		`provider: "anthropic"`,
		`model: "claude-opus-4-1"`,
		`fields: ["description"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() missing %q:\n%s", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "round.cue")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := isolated(t)
	opts.ConfigFilePath = path
	got, err := load(t, opts)
	if err != nil {
		t.Fatalf("Load() of generated config error = %v", err)
	}
	if got.Enhance.Model != "claude-opus-4-1" || !slices.Equal(got.Ignore, []string{"vendor/**"}) {
		t.Errorf("Load() = %+v, want the generated values", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()
	if err != nil {
		t.Skipf("ConfigDir() unavailable: %v", err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want a path ending in %q", dir, AppName)
	}
}
