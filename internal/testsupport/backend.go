package testsupport

import (
	"context"
	"sync"

	"bookwatch/internal/books"
	"bookwatch/internal/notifications"
)

// QueuedDownload captures one QueueDownload call.
type QueuedDownload struct {
	Book        books.Record
	Release     books.Release
	ContentType books.ContentType
	EntityID    string
}

// Backend is an in-memory release collaborator. Releases and errors are keyed
// by "provider:bookID".
type Backend struct {
	mu          sync.Mutex
	Releases    map[string][]books.Release
	SearchErrs  map[string]error
	QueueErr    error
	AttemptErr  error
	SearchCalls []string
	Queued      []QueuedDownload
	Attempts    []books.Attempt
}

// NewBackend returns an empty fake backend.
func NewBackend() *Backend {
	return &Backend{
		Releases:   make(map[string][]books.Release),
		SearchErrs: make(map[string]error),
	}
}

// Scored builds a release carrying the given match score.
func Scored(id string, score float64) books.Release {
	return books.Release{ID: id, Title: id, Extra: map[string]any{"match_score": score}}
}

func (b *Backend) SearchReleases(_ context.Context, provider, bookID string, _ books.ContentType, _ []string) ([]books.Release, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := provider + ":" + bookID
	b.SearchCalls = append(b.SearchCalls, key)
	if err := b.SearchErrs[key]; err != nil {
		return nil, err
	}
	return append([]books.Release(nil), b.Releases[key]...), nil
}

func (b *Backend) QueueDownload(_ context.Context, book books.Record, release books.Release, contentType books.ContentType, entityID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.QueueErr != nil {
		return b.QueueErr
	}
	b.Queued = append(b.Queued, QueuedDownload{Book: book, Release: release, ContentType: contentType, EntityID: entityID})
	return nil
}

func (b *Backend) RecordAttempt(_ context.Context, attempt books.Attempt) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.AttemptErr != nil {
		return b.AttemptErr
	}
	b.Attempts = append(b.Attempts, attempt)
	return nil
}

// AttemptStatuses returns the statuses recorded so far.
func (b *Backend) AttemptStatuses() []books.AttemptStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]books.AttemptStatus, len(b.Attempts))
	for i, a := range b.Attempts {
		out[i] = a.Status
	}
	return out
}

// SearchCount returns how many release searches ran.
func (b *Backend) SearchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.SearchCalls)
}

// Published is one captured notification.
type Published struct {
	Event   notifications.Event
	Payload notifications.Payload
}

// Notifier records published notifications.
type Notifier struct {
	mu     sync.Mutex
	Events []Published
}

func (n *Notifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, Published{Event: event, Payload: payload})
	return nil
}

// Count returns how many notifications of the event were published.
func (n *Notifier) Count(event notifications.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, p := range n.Events {
		if p.Event == event {
			total++
		}
	}
	return total
}

// Len returns the number of notifications published.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Events)
}
