// SPDX-License-Identifier: MPL-2.0

// Package normalize canonicalizes language names, license identifiers and
// install tool names through immutable alias tables.
//
// The default tables are embedded as CUE (aliases.cue) and compiled once.
// Callers receive *Tables and pass it by reference, so tests can substitute
// their own tables without touching process state.
package normalize
