package books

import (
	"strings"
)

// ContentType selects which kind of release an acquisition targets.
type ContentType string

const (
	ContentEbook     ContentType = "ebook"
	ContentAudiobook ContentType = "audiobook"
)

// ParseContentType maps user input onto a known content type.
func ParseContentType(value string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ebook", "book", "":
		return ContentEbook, true
	case "audiobook", "audio":
		return ContentAudiobook, true
	default:
		return "", false
	}
}

// DisplayField is one entry of the fallback metadata channel some providers
// expose instead of typed fields.
type DisplayField struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Record is a book as seen from any source.
type Record struct {
	ID                string         `json:"id,omitempty" yaml:"id,omitempty"`
	Title             string         `json:"title,omitempty" yaml:"title,omitempty"`
	Author            string         `json:"author,omitempty" yaml:"author,omitempty"`
	Authors           []string       `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year              string         `json:"year,omitempty" yaml:"year,omitempty"`
	ReleaseDate       string         `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	Provider          string         `json:"provider,omitempty" yaml:"provider,omitempty"`
	ProviderBookID    string         `json:"provider_book_id,omitempty" yaml:"provider_book_id,omitempty"`
	ProviderBookIDAlt string         `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	SeriesName        string         `json:"series_name,omitempty" yaml:"series_name,omitempty"`
	SeriesPosition    float64        `json:"series_position,omitempty" yaml:"series_position,omitempty"`
	SeriesCount       int            `json:"series_count,omitempty" yaml:"series_count,omitempty"`
	DisplayFields     []DisplayField `json:"display_fields,omitempty" yaml:"display_fields,omitempty"`
	SearchTitle       string         `json:"search_title,omitempty" yaml:"search_title,omitempty"`
	SearchAuthor      string         `json:"search_author,omitempty" yaml:"search_author,omitempty"`
}

// ProviderKey returns "provider:providerBookId", or "" when either half is missing.
func (r Record) ProviderKey() string {
	provider := strings.TrimSpace(r.Provider)
	bookID := strings.TrimSpace(r.ProviderBookID)
	if provider == "" || bookID == "" {
		return ""
	}
	return provider + ":" + bookID
}

// HasProviderLink reports whether the record can be addressed at its provider.
func (r Record) HasProviderLink() bool {
	return r.ProviderKey() != ""
}

// FirstAuthor returns the typed author, falling back to the first entry of Authors.
func (r Record) FirstAuthor() string {
	if author := strings.TrimSpace(r.Author); author != "" {
		return author
	}
	for _, author := range r.Authors {
		if author = strings.TrimSpace(author); author != "" {
			return author
		}
	}
	return ""
}

// DisplayTitle returns a human label for logs and tables.
func (r Record) DisplayTitle() string {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = strings.TrimSpace(r.SearchTitle)
	}
	if title == "" {
		title = "Untitled"
	}
	if author := r.FirstAuthor(); author != "" {
		return title + " by " + author
	}
	return title
}

// DisplayValue returns the first display field whose label passes match.
func (r Record) DisplayValue(match func(label string) bool) (string, bool) {
	for _, field := range r.DisplayFields {
		if match(strings.ToLower(strings.TrimSpace(field.Label))) {
			if value := strings.TrimSpace(field.Value); value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// SynthesizeID fills ID with "provider:providerBookId" when the source left it empty.
func (r *Record) SynthesizeID() {
	if r == nil || strings.TrimSpace(r.ID) != "" {
		return
	}
	r.ID = r.ProviderKey()
}

// FillBlanks copies fields from other into r wherever r has no value.
func (r *Record) FillBlanks(other Record) {
	if r == nil {
		return
	}
	fillString(&r.ID, other.ID)
	fillString(&r.Title, other.Title)
	fillString(&r.Author, other.Author)
	if len(r.Authors) == 0 && len(other.Authors) > 0 {
		r.Authors = append([]string(nil), other.Authors...)
	}
	fillString(&r.Year, other.Year)
	fillString(&r.ReleaseDate, other.ReleaseDate)
	fillString(&r.Provider, other.Provider)
	fillString(&r.ProviderBookID, other.ProviderBookID)
	fillString(&r.ProviderBookIDAlt, other.ProviderBookIDAlt)
	fillString(&r.SeriesName, other.SeriesName)
	if r.SeriesPosition == 0 {
		r.SeriesPosition = other.SeriesPosition
	}
	if r.SeriesCount == 0 {
		r.SeriesCount = other.SeriesCount
	}
	if len(r.DisplayFields) == 0 && len(other.DisplayFields) > 0 {
		r.DisplayFields = append([]DisplayField(nil), other.DisplayFields...)
	}
	fillString(&r.SearchTitle, other.SearchTitle)
	fillString(&r.SearchAuthor, other.SearchAuthor)
}

func fillString(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = value
	}
}
