// Package identity derives ranked correlation keys from loosely-typed book
// records.
//
// Records arriving from catalog search, the monitored-book cache, and the
// download status feed rarely agree on which fields they carry. BuildKeys emits
// every key a record can support, ordered from most to least specific
// (provider pair, raw id, normalized record id, title+author, title only), and
// two records are considered the same book when their key sets intersect.
// Title-only keys can collide for distinct books that share a title; callers
// accept that in exchange for correlating records stripped of ids.
package identity
