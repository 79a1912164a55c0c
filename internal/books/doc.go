// Package books defines the loosely-typed book records exchanged between the
// catalog search, the monitored-book cache, the download status feed, and the
// filesystem scanner.
//
// No field on a Record is guaranteed to be present. Consumers that need to
// correlate records across sources go through the identity package rather than
// comparing fields directly.
package books
