// Package availability turns filesystem scan results into per-book,
// per-format availability flags.
//
// An Index is rebuilt from the full matched-file list on every scan; it is never
// patched incrementally. Classify is a pure O(1) lookup against a prebuilt Index.
package availability
