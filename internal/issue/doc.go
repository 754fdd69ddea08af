// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown guides
// for the failures a user can fix: unreadable repositories, bad configuration,
// budget truncation and unavailable enhancement providers.
package issue
