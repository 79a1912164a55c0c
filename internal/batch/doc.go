// Package batch drives acquisition decisions over a user-selected list of books.
//
// Books are processed strictly one after another in the order given. A single
// activity record reports aggregate progress, per-book notifications are
// suppressed in favour of one start and one summary notification, and a
// failure on one book never stops the rest of the batch. Jobs live only in the
// orchestrator that runs them and disappear when the last item finishes.
package batch
