// Package preflight provides readiness checks for the directories and
// services bookwatch depends on.
//
// The CLI "bookwatch status" command prints every result, and the watch and
// acquire commands call RunAll before starting so a missing state directory
// or unreachable API fails fast instead of mid-batch.
package preflight
