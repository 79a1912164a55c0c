package availability

import (
	"sort"
	"strings"

	"bookwatch/internal/books"
)

// Index maps "provider:providerBookId" to the set of lower-cased file types
// matched for that book.
type Index map[string]map[string]struct{}

// BuildIndex builds a fresh index. Files without provider linkage are skipped.
func BuildIndex(files []books.MatchedFile) Index {
	idx := make(Index)
	for _, file := range files {
		provider := strings.TrimSpace(file.Provider)
		bookID := strings.TrimSpace(file.ProviderBookID)
		if provider == "" || bookID == "" {
			continue
		}
		fileType := strings.ToLower(strings.TrimSpace(file.FileType))
		fileType = strings.TrimPrefix(fileType, ".")
		if fileType == "" {
			continue
		}
		key := provider + ":" + bookID
		types, ok := idx[key]
		if !ok {
			types = make(map[string]struct{})
			idx[key] = types
		}
		types[fileType] = struct{}{}
	}
	return idx
}

// Types returns the sorted file types matched for key.
func (idx Index) Types(key string) []string {
	types := idx[key]
	out := make([]string, 0, len(types))
	for fileType := range types {
		out = append(out, fileType)
	}
	sort.Strings(out)
	return out
}
