// Package activity holds the user-facing progress records produced by single
// acquisitions and batches. Records are mutated in place as work advances and
// read by whatever renders them (the CLI prints them, tests inspect them).
package activity
