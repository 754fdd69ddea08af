// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Settings are layered: built-in defaults, then the first config file found
// (an explicit --config path, the user file config.cue under the platform
// config directory, or .autodoc.cue in the working directory), then
// AUTODOC_* environment variables. Config files are validated against the
// embedded #Config schema (config_schema.cue) before they are merged.
package config
