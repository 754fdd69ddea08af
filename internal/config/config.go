// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/autodoc/autodoc/internal/issue"
	"github.com/autodoc/autodoc/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "autodoc"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the per-repository config file looked up in the working directory.
	LocalConfigFile = ".autodoc.cue"
	// EnvPrefix prefixes environment overrides (AUTODOC_MAX_FILES, AUTODOC_ENHANCE_PROVIDER, ...).
	EnvPrefix = "AUTODOC"
)

// ErrConfigExists is returned by WriteDefault when the target file exists.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the per-user autodoc directory under the platform config
// root (os.UserConfigDir: $XDG_CONFIG_HOME or ~/.config, ~/Library/Application
// Support, %AppData%).
//
//nolint:revive // config.ConfigDir reads better than config.Dir at call sites
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// UserConfigPath returns the path of the user config file.
func UserConfigPath(opts LoadOptions) (string, error) {
	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// SearchPaths returns the config files Load considers, in priority order.
// An explicit ConfigFilePath is the only candidate when set.
func SearchPaths(opts LoadOptions) ([]string, error) {
	if opts.ConfigFilePath != "" {
		return []string{opts.ConfigFilePath}, nil
	}
	user, err := UserConfigPath(opts)
	if err != nil {
		return nil, err
	}
	return []string{user, filepath.Join(opts.WorkDir, LocalConfigFile)}, nil
}

// Resolve returns the config file Load would read, or "" when only defaults
// apply. A missing explicit ConfigFilePath is an error.
func Resolve(opts LoadOptions) (string, error) {
	paths, err := SearchPaths(opts)
	if err != nil {
		return "", err
	}
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'autodoc config init' to write a default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading: viper defaults,
// then the first config file found, then AUTODOC_* environment overrides.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("max_files", defaults.MaxFiles)
	v.SetDefault("max_bytes", defaults.MaxBytes)
	v.SetDefault("extractors", defaults.Extractors)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("enhance.enabled", defaults.Enhance.Enabled)
	v.SetDefault("enhance.provider", defaults.Enhance.Provider)
	v.SetDefault("enhance.model", defaults.Enhance.Model)
	v.SetDefault("enhance.floor", defaults.Enhance.Floor)
	v.SetDefault("enhance.fields", defaults.Enhance.Fields)

	if !opts.IgnoreEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	resolvedPath, err := Resolve(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'autodoc config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check AUTODOC_* environment variables for typos").
			WithSuggestion("Valid providers are anthropic and gemini; valid log levels are debug, info, warn and error").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because
// the config decodes to map[string]any for Viper and every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists reports whether path is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// autodoc configuration file\n\n")

	sb.WriteString(fmt.Sprintf("ignore: %s\n", cueList(cfg.Ignore)))
	sb.WriteString(fmt.Sprintf("max_files: %d\n", cfg.MaxFiles))
	sb.WriteString(fmt.Sprintf("max_bytes: %d\n", cfg.MaxBytes))
	sb.WriteString(fmt.Sprintf("extractors: %s\n", cueList(cfg.Extractors)))
	sb.WriteString(fmt.Sprintf("log_level: %q\n", cfg.LogLevel))

	sb.WriteString("\nenhance: {\n")
	sb.WriteString(fmt.Sprintf("\tenabled: %v\n", cfg.Enhance.Enabled))
	sb.WriteString(fmt.Sprintf("\tprovider: %q\n", cfg.Enhance.Provider))
	if cfg.Enhance.Model != "" {
		sb.WriteString(fmt.Sprintf("\tmodel: %q\n", cfg.Enhance.Model))
	}
	sb.WriteString(fmt.Sprintf("\tfloor: %q\n", cfg.Enhance.Floor))
	sb.WriteString(fmt.Sprintf("\tfields: %s\n", cueList(cfg.Enhance.Fields)))
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, fmt.Sprintf("%q", it))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
