// Package repost re-creates a pull request on top of the current base branch.
//
// A repost moves through Start, MetadataResolved, WorkingCopyReady, BaseMerged
// and Published, or stops in Aborted. The PR head is merged into a fresh
// integration branch cut from the base branch; a clean result is force-pushed
// as pr<N>_fix and opened as a new pull request crediting the original author.
//
// Branch names are deterministic per pull request, so a rerun overwrites the
// previous attempt. Only branches whose tip carries the same Repost-Of trailer
// are overwritten; concurrent runs for the same pull request are last-writer-wins.
package repost
