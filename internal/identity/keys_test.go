package identity_test

import (
	"reflect"
	"testing"

	"bookwatch/internal/books"
	"bookwatch/internal/identity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Dune  ", "dune"},
		{"The Hobbit: or, There and Back Again", "the hobbit or there and back again"},
		{"Émile Zola", "emile zola"},
		{"---", ""},
		{"Harry Potter & the Philosopher's Stone", "harry potter the philosopher s stone"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := identity.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildKeysPriorityOrder(t *testing.T) {
	book := books.Record{
		ID:                "hardcover:123",
		Title:             "Dune",
		Author:            "Frank Herbert",
		Provider:          "hardcover",
		ProviderBookID:    "123",
		ProviderBookIDAlt: "dune-1965",
		SearchTitle:       "Dune (Deluxe)",
		SearchAuthor:      "Herbert, Frank",
	}
	got := identity.BuildKeys(book).Strings()
	want := []string{
		"p:hardcover:123",
		"p:hardcover:dune-1965",
		"id:hardcover:123",
		"rk:hardcover 123",
		"rk:123",
		"rk:dune 1965",
		"ta:dune|frank herbert",
		"ta:dune deluxe|herbert frank",
		"t:dune",
		"t:dune deluxe",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected keys:\n got %#v\nwant %#v", got, want)
	}
}

func TestBuildKeysTitleOnlyIsNeverEmpty(t *testing.T) {
	for _, title := range []string{"Dune", "???", " x "} {
		set := identity.BuildKeys(books.Record{Title: title})
		if set.Empty() {
			t.Fatalf("expected keys for title %q", title)
		}
	}
	if !identity.BuildKeys(books.Record{}).Empty() {
		t.Fatal("expected empty key set for a record without title or ids")
	}
}

func TestProviderPairsAlwaysIntersect(t *testing.T) {
	a := books.Record{Provider: "hardcover", ProviderBookID: "9", Title: "Dune"}
	b := books.Record{Provider: "hardcover", ProviderBookID: "9", Title: "Dune Messiah", Author: "Someone"}
	if !identity.BuildKeys(a).Intersects(identity.BuildKeys(b)) {
		t.Fatal("records sharing provider and provider book id must intersect")
	}
}

func TestSearchResultCorrelatesWithMonitoredRow(t *testing.T) {
	search := books.Record{Title: "Dune", Author: "Frank Herbert", Provider: "hardcover", ProviderBookID: "1"}
	monitored := books.Row{Title: "dune", Authors: "Frank Herbert"}.Record()

	a, b := identity.BuildKeys(search), identity.BuildKeys(monitored)
	if !a.Intersects(b) {
		t.Fatalf("expected correlation, got %v vs %v", a.Strings(), b.Strings())
	}
	if !b.Contains("ta:dune|frank herbert") {
		t.Fatalf("expected title+author key on monitored row, got %v", b.Strings())
	}
}

func TestIndexPrefersMostSpecificKey(t *testing.T) {
	sets := []identity.KeySet{
		identity.BuildKeys(books.Record{Title: "Dune"}),
		identity.BuildKeys(books.Record{Title: "Dune", Provider: "hardcover", ProviderBookID: "1"}),
	}
	idx := identity.NewIndex(sets)
	pos, ok := idx.Match(identity.BuildKeys(books.Record{Title: "Dune", Provider: "hardcover", ProviderBookID: "1"}))
	if !ok || pos != 1 {
		t.Fatalf("expected provider key to pick position 1, got %d (%v)", pos, ok)
	}
	if _, ok := idx.Match(identity.BuildKeys(books.Record{Title: "Emma"})); ok {
		t.Fatal("expected no match for unrelated title")
	}
}
