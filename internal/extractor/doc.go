// SPDX-License-Identifier: MPL-2.0

// Package extractor turns a discovery snapshot into metadata candidates.
//
// Each Extractor declares the files it reads through Interested and proposes
// candidates with a confidence and a source path. Extractors never fail a
// run: malformed manifests and panics become diagnostics. The Registry runs
// every extractor concurrently and stamps each candidate with the extractor's
// position, which arbitration uses as the tie-break priority.
package extractor
