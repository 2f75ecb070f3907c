// Package patch implements a context-aware patch engine for unified diffs
// whose line numbers and context may have drifted, the kind produced by
// large language models and informal developer workflows.
//
// Diffs are accepted as bare unified-diff text, embedded in markdown code
// fences, or as conflict-marker blocks; ParseAuto classifies and dispatches.
// Hunks are located by content rather than by line number, falling back from
// exact matching through whitespace-insensitive matching to fuzzy similarity
// scoring, with the hunk header used only as a hint to break ties. Located
// hunks are merged granularly: the target keeps its own context lines and
// only the patch's additions and deletions take effect.
package patch
