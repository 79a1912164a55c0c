package books

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errNotObject = errors.New("book record must be a JSON object")

// UnmarshalJSON decodes a record leniently. Collaborator payloads are not
// consistent about scalar types: years and ids arrive as numbers or strings,
// authors as a list or a single comma separated string. Values of an
// unexpected shape leave the field blank instead of failing the record.
func (r *Record) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return errNotObject
	}
	*r = Record{
		ID:                looseString(fields["id"]),
		Title:             looseString(fields["title"]),
		Author:            looseString(fields["author"]),
		Authors:           looseStrings(fields["authors"]),
		Year:              looseString(fields["year"]),
		ReleaseDate:       looseString(fields["release_date"]),
		Provider:          looseString(fields["provider"]),
		ProviderBookID:    looseString(fields["provider_book_id"]),
		ProviderBookIDAlt: looseString(fields["provider_id"]),
		SeriesName:        looseString(fields["series_name"]),
		SeriesPosition:    LooseFloat(fields["series_position"]),
		SeriesCount:       int(LooseFloat(fields["series_count"])),
		SearchTitle:       looseString(fields["search_title"]),
		SearchAuthor:      looseString(fields["search_author"]),
	}
	if raw, ok := fields["display_fields"]; ok {
		var display []DisplayField
		if err := json.Unmarshal(raw, &display); err == nil {
			r.DisplayFields = display
		}
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b)
		}
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return ""
}

func looseStrings(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '[' {
		return splitAuthors(looseString(raw))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if value := strings.TrimSpace(looseString(item)); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LooseFloat reads a JSON number or numeric string, returning 0 for anything
// else.
func LooseFloat(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(looseString(raw)), 64)
	if err != nil {
		return 0
	}
	return value
}
