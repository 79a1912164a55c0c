// Package catalog merges book lists from catalog search and the monitored-book
// cache into one list keyed by correlated identity.
package catalog
