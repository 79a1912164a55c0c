package availability_test

import (
	"reflect"
	"testing"

	"bookwatch/internal/availability"
	"bookwatch/internal/books"
)

func sampleFiles() []books.MatchedFile {
	return []books.MatchedFile{
		{Provider: "hardcover", ProviderBookID: "1", FileType: " EPUB "},
		{Provider: "hardcover", ProviderBookID: "1", FileType: "epub"},
		{Provider: "hardcover", ProviderBookID: "2", FileType: "M4B"},
		{Provider: "hardcover", ProviderBookID: "3", FileType: "cbz"},
		{Provider: "", ProviderBookID: "4", FileType: "epub"},
		{Provider: "hardcover", ProviderBookID: "", FileType: "epub"},
	}
}

func TestBuildIndexSkipsUnlinkedFiles(t *testing.T) {
	idx := availability.BuildIndex(sampleFiles())
	if len(idx) != 3 {
		t.Fatalf("expected 3 indexed books, got %d", len(idx))
	}
	if got := idx.Types("hardcover:1"); !reflect.DeepEqual(got, []string{"epub"}) {
		t.Fatalf("unexpected types: %v", got)
	}
	if !reflect.DeepEqual(idx, availability.BuildIndex(sampleFiles())) {
		t.Fatal("rebuilding from the same input should yield the same index")
	}
}

func TestClassify(t *testing.T) {
	idx := availability.BuildIndex(sampleFiles())
	ebook, audio := availability.DefaultEbookFormats, availability.DefaultAudiobookFormats

	tests := []struct {
		name string
		book books.Record
		want availability.Availability
	}{
		{"ebook", books.Record{Provider: "hardcover", ProviderBookID: "1"}, availability.Availability{HasAny: true, HasEbook: true}},
		{"audiobook", books.Record{Provider: "hardcover", ProviderBookID: "2"}, availability.Availability{HasAny: true, HasAudiobook: true}},
		{"other format", books.Record{Provider: "hardcover", ProviderBookID: "3"}, availability.Availability{HasAny: true}},
		{"missing provider", books.Record{ProviderBookID: "4"}, availability.Availability{}},
		{"not scanned", books.Record{Provider: "hardcover", ProviderBookID: "9"}, availability.Availability{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := availability.Classify(tt.book, idx, ebook, audio)
			second := availability.Classify(tt.book, idx, ebook, audio)
			if first != tt.want {
				t.Fatalf("Classify() = %+v, want %+v", first, tt.want)
			}
			if first != second {
				t.Fatal("Classify should be idempotent")
			}
		})
	}
}

func TestMissingFiltersByContentType(t *testing.T) {
	idx := availability.BuildIndex(sampleFiles())
	list := []books.Record{
		{Provider: "hardcover", ProviderBookID: "1"},
		{Provider: "hardcover", ProviderBookID: "2"},
	}
	missing := availability.Missing(list, idx, books.ContentEbook, availability.DefaultEbookFormats, availability.DefaultAudiobookFormats)
	if len(missing) != 1 || missing[0].ProviderBookID != "2" {
		t.Fatalf("unexpected missing ebooks: %#v", missing)
	}
}
