// Package status correlates polled download-status snapshots with known books.
//
// A snapshot groups download records into buckets. Correlate maps every
// bucket entry onto identity keys so callers can look up a book's download
// state, and reports which completed downloads belong to the books currently
// tracked. Gate turns those completions into at most one library rescan per
// distinct completion signature, which keeps a repeatedly polled completion
// from triggering repeated rescans.
package status
