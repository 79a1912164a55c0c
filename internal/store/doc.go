// Package store persists bookwatch's local cache in SQLite.
//
// The cache holds the last synced monitored-book rows per entity, the latest
// matched-file scan (replaced atomically on every rescan), and a ledger of
// acquisition attempts so history stays available without the collaborator
// API. The schema is embedded and versioned; a version mismatch asks the
// operator to delete the cache rather than migrating in place.
package store
