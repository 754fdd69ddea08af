// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the autodoc CLI.
//
// Every command reaches configuration, enhancement backends and output
// streams through an App, so tests swap them without touching globals.
package cmd
