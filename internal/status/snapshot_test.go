package status_test

import (
	"testing"

	"bookwatch/internal/status"
)

func TestDecodeSnapshotSkipsMalformedEntries(t *testing.T) {
	payload := []byte(`{
		"complete": {"a": {"title": "Dune", "year": 1965, "progress": "100"}, "b": 7},
		"queued": "nope",
		"downloading": {"c": {"title": "Emma", "progress": 12.5}}
	}`)

	snapshot, skipped, err := status.DecodeSnapshot(payload)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if len(skipped) != 2 || skipped[0] != "complete/b" || skipped[1] != "queued" {
		t.Fatalf("unexpected skipped %v", skipped)
	}
	done := snapshot[status.BucketComplete]["a"]
	if done.Title != "Dune" || done.Year != "1965" || done.Progress != 100 {
		t.Fatalf("unexpected complete entry %+v", done)
	}
	if snapshot[status.BucketDownloading]["c"].Progress != 12.5 {
		t.Fatalf("unexpected downloading entry %+v", snapshot[status.BucketDownloading])
	}
	if snapshot.Count() != 2 {
		t.Fatalf("expected 2 decoded entries, got %d", snapshot.Count())
	}
}

func TestDecodeSnapshotRejectsNonObject(t *testing.T) {
	if _, _, err := status.DecodeSnapshot([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for array payload")
	}
	snapshot, skipped, err := status.DecodeSnapshot([]byte(`null`))
	if err != nil || len(skipped) != 0 || snapshot == nil || snapshot.Count() != 0 {
		t.Fatalf("expected empty snapshot for null, got %v %v %v", snapshot, skipped, err)
	}
}
