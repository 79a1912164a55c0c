package catalog

import (
	"bookwatch/internal/books"
	"bookwatch/internal/identity"
)

// Entry is one merged book with the sources that contributed to it.
type Entry struct {
	Book      books.Record
	Keys      identity.KeySet
	Searched  bool
	Monitored bool
}

// Merge correlates search results with monitored rows. Search order is kept;
// monitored records that match a search result fill its blank fields, the rest
// are appended in their own order. Unidentifiable records are kept but never
// correlated. Two records linked to different provider books never merge,
// even when a weaker key such as the bare title matches.
func Merge(search, monitored []books.Record) []Entry {
	entries := make([]Entry, 0, len(search)+len(monitored))
	idx := identity.NewIndex(nil)

	for _, book := range search {
		book.SynthesizeID()
		keys := identity.BuildKeys(book)
		if !keys.Empty() {
			if pos, ok := idx.Match(keys); ok && !conflicting(entries[pos].Book, book) {
				entries[pos].Book.FillBlanks(book)
				continue
			}
			idx.Add(len(entries), keys)
		}
		entries = append(entries, Entry{Book: book, Keys: keys, Searched: true})
	}

	for _, book := range monitored {
		keys := identity.BuildKeys(book)
		if !keys.Empty() {
			if pos, ok := idx.Match(keys); ok && !conflicting(entries[pos].Book, book) {
				entries[pos].Book.FillBlanks(book)
				entries[pos].Monitored = true
				entries[pos].Keys = identity.BuildKeys(entries[pos].Book)
				idx.Add(pos, entries[pos].Keys)
				continue
			}
			idx.Add(len(entries), keys)
		}
		entries = append(entries, Entry{Book: book, Keys: keys, Monitored: true})
	}
	return entries
}

// Books returns the merged records in order.
func Books(entries []Entry) []books.Record {
	out := make([]books.Record, len(entries))
	for i, entry := range entries {
		out[i] = entry.Book
	}
	return out
}

// conflicting reports whether both records carry provider links that differ.
func conflicting(a, b books.Record) bool {
	ak, bk := a.ProviderKey(), b.ProviderKey()
	return ak != "" && bk != "" && ak != bk
}
