package books

// MatchedFile is one file found by a filesystem scan and matched to a book.
type MatchedFile struct {
	Provider       string  `json:"provider"`
	ProviderBookID string  `json:"provider_book_id"`
	FileType       string  `json:"file_type"`
	Path           string  `json:"path,omitempty"`
	Size           int64   `json:"size,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}
