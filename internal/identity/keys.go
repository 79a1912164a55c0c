package identity

import (
	"sort"
	"strings"

	"bookwatch/internal/books"
)

// Kind tags how a key was derived. Kinds are ranked by specificity.
type Kind string

const (
	KindProviderID  Kind = "p"
	KindRawID       Kind = "id"
	KindRecord      Kind = "rk"
	KindTitleAuthor Kind = "ta"
	KindTitle       Kind = "t"
)

// Rank orders kinds from most (0) to least specific.
func (k Kind) Rank() int {
	switch k {
	case KindProviderID:
		return 0
	case KindRawID:
		return 1
	case KindRecord:
		return 2
	case KindTitleAuthor:
		return 3
	case KindTitle:
		return 4
	default:
		return 5
	}
}

// Key is one correlation key.
type Key struct {
	Kind  Kind
	Value string
}

func (k Key) String() string {
	return string(k.Kind) + ":" + k.Value
}

// KeySet is an ordered, de-duplicated list of keys.
type KeySet []Key

// Empty reports whether the record behind the set is unidentifiable.
func (s KeySet) Empty() bool { return len(s) == 0 }

// Strings returns the keys in rank order as their string form.
func (s KeySet) Strings() []string {
	out := make([]string, len(s))
	for i, key := range s {
		out[i] = key.String()
	}
	return out
}

// Sorted returns the string form sorted lexically.
func (s KeySet) Sorted() []string {
	out := s.Strings()
	sort.Strings(out)
	return out
}

// Contains reports whether the set holds the given key string.
func (s KeySet) Contains(key string) bool {
	for _, k := range s {
		if k.String() == key {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one key.
func (s KeySet) Intersects(other KeySet) bool {
	if len(s) == 0 || len(other) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(s))
	for _, k := range s {
		seen[k.String()] = struct{}{}
	}
	for _, k := range other {
		if _, ok := seen[k.String()]; ok {
			return true
		}
	}
	return false
}

// With appends a key if it is not already present.
func (s KeySet) With(key Key) KeySet {
	if key.Value == "" {
		return s
	}
	for _, existing := range s {
		if existing == key {
			return s
		}
	}
	return append(s, key)
}

// BuildKeys derives the ranked key set for a record. The result is empty only
// when the record carries neither a title nor any id.
func BuildKeys(book books.Record) KeySet {
	var set KeySet

	provider := strings.TrimSpace(book.Provider)
	bookID := strings.TrimSpace(book.ProviderBookID)
	altID := strings.TrimSpace(book.ProviderBookIDAlt)
	rawID := strings.TrimSpace(book.ID)

	if provider != "" && bookID != "" {
		set = set.With(Key{Kind: KindProviderID, Value: provider + ":" + bookID})
	}
	if provider != "" && altID != "" {
		set = set.With(Key{Kind: KindProviderID, Value: provider + ":" + altID})
	}
	if rawID != "" {
		set = set.With(Key{Kind: KindRawID, Value: rawID})
		set = set.With(Key{Kind: KindRecord, Value: Normalize(rawID)})
	}
	set = set.With(Key{Kind: KindRecord, Value: Normalize(bookID)})
	set = set.With(Key{Kind: KindRecord, Value: Normalize(altID)})

	firstListed := ""
	for _, author := range book.Authors {
		if author = strings.TrimSpace(author); author != "" {
			firstListed = author
			break
		}
	}
	pairs := [][2]string{
		{book.Title, book.Author},
		{book.SearchTitle, book.SearchAuthor},
		{book.Title, firstListed},
	}
	for _, pair := range pairs {
		title, author := titleValue(pair[0]), Normalize(pair[1])
		if title == "" || author == "" {
			continue
		}
		set = set.With(Key{Kind: KindTitleAuthor, Value: title + "|" + author})
	}

	set = set.With(Key{Kind: KindTitle, Value: titleValue(book.Title)})
	set = set.With(Key{Kind: KindTitle, Value: titleValue(book.SearchTitle)})
	return set
}

// titleValue normalizes a title but never drops a present one: punctuation-only
// titles fall back to their lower-cased raw form.
func titleValue(title string) string {
	if normalized := Normalize(title); normalized != "" {
		return normalized
	}
	return strings.ToLower(strings.TrimSpace(title))
}

// RecordKey registers an opaque source key (for example a status record key) as
// a normalized record key.
func RecordKey(value string) Key {
	return Key{Kind: KindRecord, Value: Normalize(value)}
}
