package status_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"bookwatch/internal/books"
	"bookwatch/internal/logging"
	"bookwatch/internal/status"
)

func sampleSnapshot() status.Snapshot {
	return status.Snapshot{
		status.BucketDownloading: {
			"dl-1": {Record: books.Record{Title: "Hyperion", Author: "Dan Simmons"}, Progress: 42},
		},
		status.BucketComplete: {
			"hc:123": {Record: books.Record{Title: "Dune", Author: "Frank Herbert"}, AddedTime: 1700000000.5},
			"zz-9":   {Record: books.Record{Title: "Unrelated"}, AddedTime: 1700000001},
		},
		status.BucketError: {
			"err-1": {Record: books.Record{Title: "Hyperion", Author: "Dan Simmons"}},
		},
	}
}

func TestCorrelateFindsRelevantCompletions(t *testing.T) {
	known := []books.Record{
		{Title: "dune", Authors: []string{"Frank Herbert"}},
		{Title: "Hyperion", Author: "Dan Simmons"},
	}
	corr := status.Correlate(sampleSnapshot(), known)
	if len(corr.Completions) != 1 {
		t.Fatalf("expected one relevant completion, got %+v", corr.Completions)
	}
	got := corr.Completions[0]
	if got.RecordKey != "hc:123" || got.AddedTime != 1700000000.5 {
		t.Fatalf("unexpected completion %+v", got)
	}
	if !got.Keys.Contains("rk:hc 123") {
		t.Fatalf("expected bucket record key registered, got %v", got.Keys.Strings())
	}
}

func TestLookupPrefersEarlierBucket(t *testing.T) {
	corr := status.Correlate(sampleSnapshot(), nil)
	hit, ok := corr.Lookup(books.Record{Title: "Hyperion", Author: "Dan Simmons"})
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Bucket != status.BucketDownloading || hit.Progress != 42 {
		t.Fatalf("expected downloading bucket to win, got %+v", hit)
	}
	if _, ok := corr.Lookup(books.Record{Title: "Foundation"}); ok {
		t.Fatal("expected no hit for unknown book")
	}
}

func TestLookupWithinBucketPrefersSmallerRecordKey(t *testing.T) {
	snapshot := status.Snapshot{
		status.BucketDownloading: {
			"zz": {Record: books.Record{Title: "Hyperion", Author: "Dan Simmons"}, Progress: 90},
			"aa": {Record: books.Record{Title: "Hyperion", Author: "Dan Simmons"}, Progress: 10},
		},
	}
	for i := 0; i < 5; i++ {
		hit, ok := status.Correlate(snapshot, nil).Lookup(books.Record{Title: "Hyperion", Author: "Dan Simmons"})
		if !ok || hit.RecordKey != "aa" || hit.Progress != 10 {
			t.Fatalf("expected record key aa to claim the shared key, got %+v ok=%v", hit, ok)
		}
	}
}

func TestLookupByBucketRecordKey(t *testing.T) {
	snapshot := status.Snapshot{
		status.BucketQueued: {"OL123W": {}},
	}
	corr := status.Correlate(snapshot, nil)
	hit, ok := corr.Lookup(books.Record{ID: "ol123w"})
	if !ok || hit.Bucket != status.BucketQueued {
		t.Fatalf("expected correlation through record key, got %+v ok=%v", hit, ok)
	}
}

func TestSignatureIsDeterministic(t *testing.T) {
	known := []books.Record{{Title: "Dune", Author: "Frank Herbert"}, {Title: "Unrelated"}}
	first := status.Correlate(sampleSnapshot(), known).Signature()
	second := status.Correlate(sampleSnapshot(), known).Signature()
	if first == "" || first != second {
		t.Fatalf("expected stable signature, got %q and %q", first, second)
	}
	parts := strings.Split(first, "|")
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "hc:123:1700000000.5:") {
		t.Fatalf("unexpected signature layout %q", first)
	}
	if status.Signature(nil) != "" {
		t.Fatal("expected empty signature without completions")
	}
}

func TestGateFiresOncePerSignature(t *testing.T) {
	gate := status.NewGate(logging.NewNop())
	known := []books.Record{{Title: "Dune", Author: "Frank Herbert"}}
	calls := 0
	rescan := func(context.Context) error {
		calls++
		return nil
	}

	for i := 0; i < 2; i++ {
		sig := status.Correlate(sampleSnapshot(), known).Signature()
		if _, err := gate.Observe(context.Background(), "author-1", sig, rescan); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected exactly one rescan for repeated snapshot, got %d", calls)
	}

	// a different entity tracks its own signature
	if fired, _ := gate.Observe(context.Background(), "author-2", "x:1:rk:x", rescan); !fired {
		t.Fatal("expected rescan for new entity")
	}
	if fired, _ := gate.Observe(context.Background(), "author-1", "", rescan); fired {
		t.Fatal("expected empty signature to be ignored")
	}
}

func TestGateDoesNotRetryFailedRescanForSameSignature(t *testing.T) {
	gate := status.NewGate(nil)
	calls := 0
	rescan := func(context.Context) error {
		calls++
		return errors.New("scan failed")
	}
	if _, err := gate.Observe(context.Background(), "e", "sig", rescan); err == nil {
		t.Fatal("expected rescan error to surface")
	}
	if fired, _ := gate.Observe(context.Background(), "e", "sig", rescan); fired {
		t.Fatal("expected same signature to be suppressed after failure")
	}
	if calls != 1 || gate.Last("e") != "sig" {
		t.Fatalf("unexpected state calls=%d last=%q", calls, gate.Last("e"))
	}
}

func TestGateCollapsesOverlappingTriggers(t *testing.T) {
	gate := status.NewGate(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	slow := func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = gate.Observe(context.Background(), "e", "sig-1", slow)
	}()
	<-started

	fired, err := gate.Observe(context.Background(), "e", "sig-2", func(context.Context) error {
		t.Error("overlapping rescan should not run")
		return nil
	})
	if fired || err != nil {
		t.Fatalf("expected overlapping trigger to collapse, fired=%v err=%v", fired, err)
	}
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one in-flight rescan, got %d", calls)
	}
	if gate.Last("e") != "sig-1" {
		t.Fatalf("expected collapsed signature to stay pending, got %q", gate.Last("e"))
	}
}
