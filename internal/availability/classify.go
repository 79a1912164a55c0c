package availability

import (
	"strings"

	"bookwatch/internal/books"
)

// DefaultEbookFormats and DefaultAudiobookFormats are the static format lists
// used when configuration does not override them.
var (
	DefaultEbookFormats     = []string{"epub", "pdf", "mobi", "azw", "azw3"}
	DefaultAudiobookFormats = []string{"m4b", "m4a", "mp3", "flac"}
)

// Availability describes which formats of a book are already on disk.
type Availability struct {
	HasAny       bool `json:"has_any" yaml:"has_any"`
	HasEbook     bool `json:"has_ebook" yaml:"has_ebook"`
	HasAudiobook bool `json:"has_audiobook" yaml:"has_audiobook"`
}

// Has reports availability for a content type.
func (a Availability) Has(contentType books.ContentType) bool {
	if contentType == books.ContentAudiobook {
		return a.HasAudiobook
	}
	return a.HasEbook
}

// Classify looks a book up by its provider key. A book missing either half of
// the key never matches.
func Classify(book books.Record, idx Index, ebookFormats, audiobookFormats []string) Availability {
	types := idx[book.ProviderKey()]
	if len(types) == 0 {
		return Availability{}
	}
	return Availability{
		HasAny:       true,
		HasEbook:     intersects(types, ebookFormats),
		HasAudiobook: intersects(types, audiobookFormats),
	}
}

// Missing filters books lacking the given content type.
func Missing(list []books.Record, idx Index, contentType books.ContentType, ebookFormats, audiobookFormats []string) []books.Record {
	out := make([]books.Record, 0, len(list))
	for _, book := range list {
		if !Classify(book, idx, ebookFormats, audiobookFormats).Has(contentType) {
			out = append(out, book)
		}
	}
	return out
}

func intersects(types map[string]struct{}, formats []string) bool {
	for _, format := range formats {
		if _, ok := types[strings.ToLower(strings.TrimSpace(format))]; ok {
			return true
		}
	}
	return false
}
