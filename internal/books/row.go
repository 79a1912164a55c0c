package books

import (
	"strconv"
	"strings"
)

// Row is a monitored-book row as returned by the monitored entity API.
type Row struct {
	ID             int64   `json:"id"`
	Provider       string  `json:"provider"`
	ProviderBookID string  `json:"provider_book_id"`
	BookID         string  `json:"book_id"`
	Title          string  `json:"title"`
	Authors        string  `json:"authors"`
	PublishYear    int     `json:"publish_year"`
	ReleaseDate    string  `json:"release_date"`
	SeriesName     string  `json:"series_name"`
	SeriesPosition float64 `json:"series_position"`
	SeriesCount    int     `json:"series_count"`
	State          string  `json:"state"`
}

// Record converts a monitored row into the common record shape. Rows carry no
// synthesized id; only the provider linkage they actually hold is copied.
func (r Row) Record() Record {
	rec := Record{
		Title:             strings.TrimSpace(r.Title),
		Authors:           splitAuthors(r.Authors),
		ReleaseDate:       strings.TrimSpace(r.ReleaseDate),
		Provider:          strings.TrimSpace(r.Provider),
		ProviderBookID:    strings.TrimSpace(r.ProviderBookID),
		ProviderBookIDAlt: strings.TrimSpace(r.BookID),
		SeriesName:        strings.TrimSpace(r.SeriesName),
		SeriesPosition:    r.SeriesPosition,
		SeriesCount:       r.SeriesCount,
	}
	if r.PublishYear > 0 {
		rec.Year = strconv.Itoa(r.PublishYear)
	}
	return rec
}

func splitAuthors(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
