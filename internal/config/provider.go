// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration comes from. The zero value
	// searches the platform config directory, then ./.autodoc.cue, and
	// applies AUTODOC_* overrides.
	LoadOptions struct {
		// ConfigFilePath is the only file considered when set; it must exist.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory.
		ConfigDirPath string
		// WorkDir is where LocalConfigFile is looked up ("" = current directory).
		WorkDir   string
		IgnoreEnv bool
	}

	// Provider is the seam commands load configuration through.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// FileProvider reads the first config file on the search path.
	FileProvider struct{}
)

// NewProvider returns the file-backed Provider.
func NewProvider() *FileProvider {
	return &FileProvider{}
}

// Load returns the validated configuration for opts.
func (*FileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}
