// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE documents against embedded schemas and
// formats CUE errors with JSON-path prefixes.
//
//	res, err := cueutil.ParseAndDecode[map[string]any](schema, data, "#Config",
//		cueutil.WithFilename(path), cueutil.WithConcrete(false))
package cueutil
