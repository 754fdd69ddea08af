// SPDX-License-Identifier: MPL-2.0

// Package metadata defines the project metadata record shared by extractors,
// the merge engine and renderers.
//
// Every value carries a Confidence tier and a source. Extractors emit
// Candidates; the merge engine turns them into a ProjectMetadata in which
// every slot is either resolved above Unknown or an explicit placeholder.
package metadata
