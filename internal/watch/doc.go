// Package watch runs the status poll loop for one monitored entity.
//
// Each tick fetches the download status snapshot, correlates it with the
// entity's cached books, and hands the completion signature to a status.Gate.
// A new signature triggers one file rescan whose result atomically replaces
// the cached matched files. A file lock keeps a second watcher for the same
// entity from running.
package watch
