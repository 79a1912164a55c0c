package activity

import (
	"sort"
	"sync"
	"time"
)

// VisualStatus is the coarse state a record renders as.
type VisualStatus string

const (
	StatusResolving VisualStatus = "resolving"
	StatusLocating  VisualStatus = "locating"
	StatusComplete  VisualStatus = "complete"
	StatusError     VisualStatus = "error"
)

// Record is one progress entry.
type Record struct {
	ID               string       `json:"id" yaml:"id"`
	VisualStatus     VisualStatus `json:"visual_status" yaml:"visual_status"`
	StatusLabel      string       `json:"status_label" yaml:"status_label"`
	StatusDetail     string       `json:"status_detail" yaml:"status_detail"`
	Progress         int          `json:"progress" yaml:"progress"`
	ProgressAnimated bool         `json:"progress_animated" yaml:"progress_animated"`
	UpdatedAt        time.Time    `json:"updated_at" yaml:"updated_at"`
}

// Terminal reports whether the record reached a final state.
func (r Record) Terminal() bool {
	return r.VisualStatus == StatusComplete || r.VisualStatus == StatusError
}

// Listener observes every change on a board.
type Listener func(Record, bool)

// Board is a concurrency-safe list of progress records.
type Board struct {
	mu        sync.Mutex
	records   map[string]*Record
	order     []string
	listeners []Listener
	now       func() time.Time
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{records: make(map[string]*Record), now: time.Now}
}

// Subscribe registers a listener invoked after each upsert (removed=false) or
// removal (removed=true). Listeners run synchronously and must not call back
// into the board.
func (b *Board) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Upsert inserts or replaces a record.
func (b *Board) Upsert(rec Record) {
	b.mu.Lock()
	if _, ok := b.records[rec.ID]; !ok {
		b.order = append(b.order, rec.ID)
	}
	rec.Progress = clampProgress(rec.Progress)
	rec.UpdatedAt = b.now()
	stored := rec
	b.records[rec.ID] = &stored
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(rec, false)
	}
}

// Update mutates an existing record in place. It returns false when id is unknown.
func (b *Board) Update(id string, mutate func(*Record)) bool {
	b.mu.Lock()
	rec, ok := b.records[id]
	if !ok {
		b.mu.Unlock()
		return false
	}
	mutate(rec)
	rec.ID = id
	rec.Progress = clampProgress(rec.Progress)
	rec.UpdatedAt = b.now()
	snapshot := *rec
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot, false)
	}
	return true
}

// Remove deletes a record.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	rec, ok := b.records[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.records, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	snapshot := *rec
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot, true)
	}
}

// Get returns a copy of a record.
func (b *Board) Get(id string) (Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// List returns copies of all records in insertion order.
func (b *Board) List() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.records[id])
	}
	return out
}

// Active returns records that have not reached a terminal state, sorted by id.
func (b *Board) Active() []Record {
	var out []Record
	for _, rec := range b.List() {
		if !rec.Terminal() {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
