package acquisition

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookwatch/internal/books"
)

var (
	reYear         = regexp.MustCompile(`^\d{4}$`)
	reDay          = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reMonth        = regexp.MustCompile(`^\d{4}-\d{2}$`)
	reMonthYear    = regexp.MustCompile(`^([A-Za-z]{3,9})\.?,?\s+(\d{4})$`)
	reYearMonth    = regexp.MustCompile(`^(\d{4})\s+([A-Za-z]{3,9})\.?$`)
	reEmbeddedYear = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
	reReleaseLabel = regexp.MustCompile(`\b(release|publish|publication)\b.*\bdate\b|^published$`)
	genericLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "January 2, 2006", "Jan 2, 2006", "2 January 2006", "2 Jan 2006", "2006/01/02", "01/02/2006", time.RFC1123}
	monthFullNames = []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}
)

// ReleaseDate is a parsed release date. YearOnly dates compare by year.
type ReleaseDate struct {
	Time     time.Time
	YearOnly bool
	Raw      string
}

// After reports whether the release lies strictly after now.
func (d ReleaseDate) After(now time.Time) bool {
	if d.YearOnly {
		return d.Time.Year() > now.Year()
	}
	return d.Time.After(now)
}

// ReleaseDateText returns the book's release date string, falling back to a
// display field labelled as a release or publication date.
func ReleaseDateText(book books.Record) string {
	if text := strings.TrimSpace(book.ReleaseDate); text != "" {
		return text
	}
	text, _ := book.DisplayValue(func(label string) bool {
		return reReleaseLabel.MatchString(label)
	})
	return text
}

// ParseReleaseDate understands bare years, YYYY-MM-DD, YYYY-MM, "Month YYYY",
// "YYYY Month", common long forms, and finally any embedded 1900-2099 year.
func ParseReleaseDate(text string) (ReleaseDate, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ReleaseDate{}, false
	}
	switch {
	case reYear.MatchString(text):
		return yearDate(text, text)
	case reDay.MatchString(text):
		if t, err := time.Parse("2006-01-02", text); err == nil {
			return ReleaseDate{Time: t, Raw: text}, true
		}
	case reMonth.MatchString(text):
		if t, err := time.Parse("2006-01", text); err == nil {
			return ReleaseDate{Time: t, Raw: text}, true
		}
	}
	if m := reMonthYear.FindStringSubmatch(text); m != nil {
		if d, ok := monthDate(m[1], m[2], text); ok {
			return d, true
		}
	}
	if m := reYearMonth.FindStringSubmatch(text); m != nil {
		if d, ok := monthDate(m[2], m[1], text); ok {
			return d, true
		}
	}
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return ReleaseDate{Time: t, Raw: text}, true
		}
	}
	if m := reEmbeddedYear.FindStringSubmatch(text); m != nil {
		return yearDate(m[1], text)
	}
	return ReleaseDate{}, false
}

// Unreleased reports whether the book's release date lies after now.
func Unreleased(book books.Record, now time.Time) (ReleaseDate, bool) {
	date, ok := ParseReleaseDate(ReleaseDateText(book))
	if !ok {
		return ReleaseDate{}, false
	}
	return date, date.After(now)
}

func yearDate(year, raw string) (ReleaseDate, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return ReleaseDate{}, false
	}
	return ReleaseDate{Time: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), YearOnly: true, Raw: raw}, true
}

func monthDate(monthWord, year, raw string) (ReleaseDate, bool) {
	month, ok := lookupMonth(monthWord)
	if !ok {
		return ReleaseDate{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return ReleaseDate{}, false
	}
	return ReleaseDate{Time: time.Date(y, month, 1, 0, 0, 0, 0, time.UTC), Raw: raw}, true
}

func lookupMonth(word string) (time.Month, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if len(word) < 3 {
		return 0, false
	}
	for i, name := range monthFullNames {
		if strings.HasPrefix(name, word) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}
