package activity_test

import (
	"testing"

	"bookwatch/internal/activity"
)

func TestBoardUpsertUpdateRemove(t *testing.T) {
	board := activity.NewBoard()
	var events []string
	board.Subscribe(func(rec activity.Record, removed bool) {
		if removed {
			events = append(events, "remove:"+rec.ID)
			return
		}
		events = append(events, "upsert:"+rec.ID)
	})

	board.Upsert(activity.Record{ID: "b1", VisualStatus: activity.StatusResolving, Progress: 150})
	board.Upsert(activity.Record{ID: "b2", VisualStatus: activity.StatusLocating})

	rec, ok := board.Get("b1")
	if !ok || rec.Progress != 100 {
		t.Fatalf("expected clamped progress 100, got %+v", rec)
	}

	if !board.Update("b1", func(r *activity.Record) {
		r.VisualStatus = activity.StatusComplete
		r.StatusDetail = "done"
	}) {
		t.Fatal("expected update to succeed")
	}
	if board.Update("missing", func(*activity.Record) {}) {
		t.Fatal("expected update of unknown id to fail")
	}

	active := board.Active()
	if len(active) != 1 || active[0].ID != "b2" {
		t.Fatalf("unexpected active records %+v", active)
	}

	board.Remove("b2")
	list := board.List()
	if len(list) != 1 || list[0].ID != "b1" || list[0].StatusDetail != "done" {
		t.Fatalf("unexpected list %+v", list)
	}

	want := []string{"upsert:b1", "upsert:b2", "upsert:b1", "remove:b2"}
	if len(events) != len(want) {
		t.Fatalf("unexpected events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %q want %q", i, events[i], want[i])
		}
	}
}
