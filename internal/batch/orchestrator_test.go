package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookwatch/internal/acquisition"
	"bookwatch/internal/activity"
	"bookwatch/internal/batch"
	"bookwatch/internal/books"
	"bookwatch/internal/notifications"
	"bookwatch/internal/testsupport"
)

func threeBooks() []books.Record {
	return []books.Record{
		{Title: "Dune", Provider: "hardcover", ProviderBookID: "1"},
		{Title: "Dune Messiah", Provider: "hardcover", ProviderBookID: "2"},
		{Title: "Children of Dune", Provider: "hardcover", ProviderBookID: "3"},
	}
}

func TestRunBatchContainsSingleFailure(t *testing.T) {
	backend := testsupport.NewBackend()
	backend.Releases["hardcover:1"] = []books.Release{testsupport.Scored("r1", 90)}
	backend.SearchErrs["hardcover:2"] = errors.New("search exploded")
	backend.Releases["hardcover:3"] = []books.Release{testsupport.Scored("r3", 80)}

	notifier := &testsupport.Notifier{}
	board := activity.NewBoard()
	orch := batch.NewOrchestrator(acquisition.NewDecider(backend), board, batch.WithNotifier(notifier))

	report := orch.RunBatch(context.Background(), batch.Request{
		BatchID:     "auto:1",
		Books:       threeBooks(),
		ContentType: books.ContentEbook,
	})

	want := batch.Stats{Queued: 2, Skipped: 0, Failed: 1, Total: 3}
	if report.Stats != want {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	rec, ok := board.Get("auto:1")
	if !ok {
		t.Fatal("expected aggregated activity record")
	}
	if rec.VisualStatus != activity.StatusError || rec.Progress != 100 {
		t.Fatalf("unexpected final record %+v", rec)
	}
	if rec.StatusDetail != "2/3 queued · 0 skipped · 1 failed" {
		t.Fatalf("unexpected summary %q", rec.StatusDetail)
	}
	if _, ok := orch.Job("auto:1"); ok {
		t.Fatal("expected job to be removed after the last item")
	}
	if notifier.Count(notifications.EventBatchStarted) != 1 || notifier.Count(notifications.EventBatchCompleted) != 1 || notifier.Len() != 2 {
		t.Fatalf("expected exactly one start and one summary toast, got %+v", notifier.Events)
	}
	if got := backend.SearchCalls; len(got) != 3 || got[0] != "hardcover:1" || got[2] != "hardcover:3" {
		t.Fatalf("expected sequential in-order searches, got %v", got)
	}
}

func TestRunBatchProgressIsMonotonic(t *testing.T) {
	backend := testsupport.NewBackend()
	board := activity.NewBoard()
	var progress []int
	var statuses []activity.VisualStatus
	board.Subscribe(func(rec activity.Record, removed bool) {
		if !removed {
			progress = append(progress, rec.Progress)
			statuses = append(statuses, rec.VisualStatus)
		}
	})
	orch := batch.NewOrchestrator(acquisition.NewDecider(backend), board)

	items := make([]books.Record, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, books.Record{Title: "Book", Provider: "p", ProviderBookID: string(rune('a' + i))})
	}
	report := orch.RunBatch(context.Background(), batch.Request{BatchID: "b", Books: items, ContentType: books.ContentEbook})

	if report.Stats.Skipped != 10 {
		t.Fatalf("expected every no_match to count as skipped, got %+v", report.Stats)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress went backwards: %v", progress)
		}
	}
	if progress[0] != 5 || progress[len(progress)-2] != 90 || progress[len(progress)-1] != 100 {
		t.Fatalf("unexpected progress sequence %v", progress)
	}
	if statuses[len(statuses)-1] != activity.StatusComplete {
		t.Fatalf("expected complete status, got %v", statuses)
	}
}

func TestProgressClamp(t *testing.T) {
	tests := []struct{ index, total, want int }{
		{1, 3, 5},
		{2, 3, 33},
		{3, 3, 67},
		{100, 100, 95},
		{1, 0, 5},
	}
	for _, tt := range tests {
		if got := batch.Progress(tt.index, tt.total); got != tt.want {
			t.Fatalf("Progress(%d,%d) = %d, want %d", tt.index, tt.total, got, tt.want)
		}
	}
}

type cancellingDecider struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingDecider) Decide(context.Context, books.Record, books.ContentType, string, acquisition.Action, acquisition.Options) acquisition.Result {
	c.calls++
	c.cancel()
	return acquisition.Result{Outcome: acquisition.OutcomeQueued, Status: books.AttemptQueued}
}

func TestRunBatchCancellationStopsFurtherDecisions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	decider := &cancellingDecider{cancel: cancel}
	board := activity.NewBoard()
	orch := batch.NewOrchestrator(decider, board)

	report := orch.RunBatch(ctx, batch.Request{BatchID: "c", Books: threeBooks(), ContentType: books.ContentEbook})
	if decider.calls != 1 {
		t.Fatalf("expected one decision before cancellation, got %d", decider.calls)
	}
	if !report.Cancelled || report.Stats != (batch.Stats{Queued: 1, Skipped: 2, Total: 3}) {
		t.Fatalf("unexpected report %+v", report)
	}
	rec, _ := board.Get("c")
	if rec.Progress != 100 || rec.VisualStatus != activity.StatusComplete {
		t.Fatalf("expected finalized record, got %+v", rec)
	}
}

func TestRunBatchEmptyIsNoop(t *testing.T) {
	board := activity.NewBoard()
	orch := batch.NewOrchestrator(acquisition.NewDecider(testsupport.NewBackend()), board)
	report := orch.RunBatch(context.Background(), batch.Request{BatchID: "e"})
	if report.Stats.Total != 0 || len(board.List()) != 0 {
		t.Fatalf("expected no activity for empty batch, got %+v", report)
	}
}

func TestNewBatchID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := batch.NewBatchID("auto", now); got != "auto:1700000000123" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := batch.NewBatchID(" ", now); got != "batch:1700000000123" {
		t.Fatalf("unexpected default id %q", got)
	}
}
