package acquisition_test

import (
	"testing"
	"time"

	"bookwatch/internal/acquisition"
	"bookwatch/internal/books"
)

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		in       string
		want     time.Time
		yearOnly bool
	}{
		{"2031", time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2031-05-17", time.Date(2031, 5, 17, 0, 0, 0, 0, time.UTC), false},
		{"2031-05", time.Date(2031, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"Sept 2031", time.Date(2031, 9, 1, 0, 0, 0, 0, time.UTC), false},
		{"2031 february", time.Date(2031, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"May 3, 2031", time.Date(2031, 5, 3, 0, 0, 0, 0, time.UTC), false},
		{"First published in 1965 by Chilton", time.Date(1965, 1, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		got, ok := acquisition.ParseReleaseDate(tt.in)
		if !ok {
			t.Fatalf("%q: expected parse", tt.in)
		}
		if !got.Time.Equal(tt.want) || got.YearOnly != tt.yearOnly {
			t.Fatalf("%q: got %v yearOnly=%v", tt.in, got.Time, got.YearOnly)
		}
	}
	for _, bad := range []string{"", "soon", "spring 3000"} {
		if _, ok := acquisition.ParseReleaseDate(bad); ok {
			t.Fatalf("%q: expected no parse", bad)
		}
	}
}

func TestUnreleasedBoundaries(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		date string
		want bool
	}{
		{"2026", false},
		{"2027", true},
		{"2026-10-18", false},
		{"2026-10-19", true},
		{"2026-11", true},
		{"1999-01-01", false},
		{"", false},
	}
	for _, tt := range tests {
		_, got := acquisition.Unreleased(books.Record{ReleaseDate: tt.date}, now)
		if got != tt.want {
			t.Fatalf("%q: expected unreleased=%v", tt.date, tt.want)
		}
	}
}
