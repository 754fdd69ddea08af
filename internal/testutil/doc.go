// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail fast on setup errors.
//
// WriteTree builds fixture repositories on disk. MustChdir returns a restore
// function for the working directory.
package testutil
