// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/autodoc/autodoc/pkg/metadata"
)

const (
	// LogLevelDebug logs skipped paths, parse failures and extractor timings.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only budget truncation and enhancement problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"

	// EnhanceProviderAnthropic uses the Anthropic Messages API.
	// Defined locally to avoid coupling config to internal/enhance.
	EnhanceProviderAnthropic EnhanceProvider = "anthropic"
	// EnhanceProviderGemini uses the Gemini API.
	EnhanceProviderGemini EnhanceProvider = "gemini"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidEnhanceProvider is returned when an EnhanceProvider value is not recognized.
	ErrInvalidEnhanceProvider = errors.New("invalid enhance provider")
	// ErrInvalidBudget is returned when max_files or max_bytes is out of range.
	ErrInvalidBudget = errors.New("invalid budget")
	// ErrInvalidEnhanceConfig is the sentinel error wrapped by InvalidEnhanceConfigError.
	ErrInvalidEnhanceConfig = errors.New("invalid enhance config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// EnhanceProvider names the text generation backend.
	EnhanceProvider string

	// InvalidEnhanceProviderError is returned when an EnhanceProvider value is not recognized.
	// It wraps ErrInvalidEnhanceProvider for errors.Is() compatibility.
	InvalidEnhanceProviderError struct {
		Value EnhanceProvider
	}

	// InvalidBudgetError is returned when a budget is out of range.
	InvalidBudgetError struct {
		Field string
		Value int64
	}

	// InvalidEnhanceConfigError is returned when an EnhanceConfig has invalid fields.
	// It wraps ErrInvalidEnhanceConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidEnhanceConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Ignore holds extra gitignore-style patterns applied during discovery.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
		// MaxFiles is the discovery file budget (0 or -1 = unlimited).
		MaxFiles int `json:"max_files" mapstructure:"max_files"`
		// MaxBytes is the discovery byte budget (0 = unlimited).
		MaxBytes int64 `json:"max_bytes" mapstructure:"max_bytes"`
		// Extractors is the preferred extractor order; unlisted built-ins follow.
		Extractors []string `json:"extractors" mapstructure:"extractors"`
		// Enhance configures text generation for weak fields.
		Enhance EnhanceConfig `json:"enhance" mapstructure:"enhance"`
		// LogLevel sets the stderr log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}

	// EnhanceConfig configures the enhancement pass.
	EnhanceConfig struct {
		// Enabled turns the pass on for every run (the --enhance flag does it for one).
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Provider selects the backend.
		Provider EnhanceProvider `json:"provider" mapstructure:"provider"`
		// Model overrides the provider's default model.
		Model string `json:"model" mapstructure:"model"`
		// Floor is the confidence tier below which fields are generated.
		Floor string `json:"floor" mapstructure:"floor"`
		// Fields lists the fields that may be generated.
		Fields []string `json:"fields" mapstructure:"fields"`
	}
)

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidEnhanceProviderError.
func (e *InvalidEnhanceProviderError) Error() string {
	return fmt.Sprintf("invalid enhance provider %q (valid: anthropic, gemini)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidEnhanceProviderError) Unwrap() error { return ErrInvalidEnhanceProvider }

// String returns the string representation of the EnhanceProvider.
func (p EnhanceProvider) String() string { return string(p) }

// IsValid returns whether the EnhanceProvider is one of the supported backends,
// and a list of validation errors if it is not.
func (p EnhanceProvider) IsValid() (bool, []error) {
	switch p {
	case EnhanceProviderAnthropic, EnhanceProviderGemini:
		return true, nil
	default:
		return false, []error{&InvalidEnhanceProviderError{Value: p}}
	}
}

// Error implements the error interface for InvalidBudgetError.
func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("invalid %s %d: must not be negative", e.Field, e.Value)
}

// Unwrap returns ErrInvalidBudget for errors.Is() compatibility.
func (e *InvalidBudgetError) Unwrap() error { return ErrInvalidBudget }

// FloorConfidence parses Floor. An empty floor means Reasonable.
func (c EnhanceConfig) FloorConfidence() (metadata.Confidence, error) {
	if c.Floor == "" {
		return metadata.Reasonable, nil
	}
	return metadata.ParseConfidence(c.Floor)
}

// FieldNames converts Fields to field names.
func (c EnhanceConfig) FieldNames() []metadata.FieldName {
	out := make([]metadata.FieldName, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, metadata.FieldName(f))
	}
	return out
}

// IsValid returns whether the EnhanceConfig has valid fields. Only
// single-valued text fields can be generated.
func (c EnhanceConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Provider.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if floor, err := c.FloorConfidence(); err != nil {
		errs = append(errs, err)
	} else if floor == metadata.Unknown {
		errs = append(errs, &metadata.InvalidConfidenceError{Value: c.Floor})
	}
	for _, f := range c.FieldNames() {
		if valid, fieldErrs := f.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
			continue
		}
		if f.Kind() != metadata.KindSingle {
			errs = append(errs, &metadata.InvalidFieldNameError{Value: f})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEnhanceConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnhanceConfigError.
func (e *InvalidEnhanceConfigError) Error() string {
	return fmt.Sprintf("invalid enhance config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidEnhanceConfig for errors.Is() compatibility.
func (e *InvalidEnhanceConfigError) Unwrap() error { return ErrInvalidEnhanceConfig }

// IsValid returns whether the Config has valid fields. Extractor names are
// checked by the extractor registry, which knows the built-in set.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.MaxFiles < -1 {
		errs = append(errs, &InvalidBudgetError{Field: "max_files", Value: int64(c.MaxFiles)})
	}
	if c.MaxBytes < 0 {
		errs = append(errs, &InvalidBudgetError{Field: "max_bytes", Value: c.MaxBytes})
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Enhance.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ignore:     []string{},
		MaxFiles:   0,
		MaxBytes:   0,
		Extractors: []string{},
		Enhance: EnhanceConfig{
			Enabled:  false,
			Provider: EnhanceProviderAnthropic,
			Model:    "",
			Floor:    metadata.Reasonable.String(),
			Fields:   []string{string(metadata.FieldDescription)},
		},
		LogLevel: LogLevelInfo,
	}
}
