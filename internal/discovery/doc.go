// SPDX-License-Identifier: MPL-2.0

// Package discovery walks a repository root and produces an ordered,
// immutable snapshot of the files that carry metadata signal.
//
// Each file is assigned exactly one Category. Directories and files are
// excluded by built-in rules, the root .gitignore and user patterns. A
// file-count and byte budget bound the walk; hitting it marks the result as
// truncated rather than failing. Only an unreadable root is an error.
package discovery
