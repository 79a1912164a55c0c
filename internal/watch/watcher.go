package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bookwatch/internal/books"
	"bookwatch/internal/logging"
	"bookwatch/internal/notifications"
	"bookwatch/internal/services"
	"bookwatch/internal/status"
	"bookwatch/internal/store"
)

// StatusSource polls the download status feed.
type StatusSource interface {
	PollStatus(ctx context.Context) (status.Snapshot, error)
}

// Scanner rescans an entity's files.
type Scanner interface {
	ScanFiles(ctx context.Context, entityID string) ([]books.MatchedFile, error)
}

// Cache holds the entity's known books and its latest scan.
type Cache interface {
	MonitoredBooks(ctx context.Context, entityID string) (store.MonitoredSnapshot, error)
	ReplaceMatchedFiles(ctx context.Context, entityID string, files []books.MatchedFile) error
}

// Summary reports the loop's recent state.
type Summary struct {
	EntityID      string
	Polls         int
	Rescans       int
	LastPoll      time.Time
	LastSignature string
	LastError     string
}

// Watcher polls status for one entity.
type Watcher struct {
	entityID string
	source   StatusSource
	scanner  Scanner
	cache    Cache
	gate     *status.Gate
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration
	retry    time.Duration

	mu      sync.Mutex
	summary Summary
}

// Options configures a Watcher.
type Options struct {
	EntityID      string
	Source        StatusSource
	Scanner       Scanner
	Cache         Cache
	Gate          *status.Gate
	Notifier      notifications.Service
	Logger        *slog.Logger
	PollInterval  time.Duration
	RetryInterval time.Duration
}

// New constructs a watcher.
func New(opts Options) (*Watcher, error) {
	if opts.EntityID == "" {
		return nil, services.Wrap(services.ErrValidation, "watch", "new", "entity id required", nil)
	}
	if opts.Source == nil || opts.Scanner == nil || opts.Cache == nil {
		return nil, errors.New("watcher requires status source, scanner, and cache")
	}
	w := &Watcher{
		entityID: opts.EntityID,
		source:   opts.Source,
		scanner:  opts.Scanner,
		cache:    opts.Cache,
		gate:     opts.Gate,
		notifier: opts.Notifier,
		interval: opts.PollInterval,
		retry:    opts.RetryInterval,
		summary:  Summary{EntityID: opts.EntityID},
	}
	ctxLogger := logging.NewComponentLogger(opts.Logger, "watch")
	w.logger = ctxLogger.With(logging.String(logging.FieldEntityID, opts.EntityID))
	if w.gate == nil {
		w.gate = status.NewGate(opts.Logger)
	}
	if w.notifier == nil {
		w.notifier = notifications.NewNoop()
	}
	if w.interval <= 0 {
		w.interval = 5 * time.Second
	}
	if w.retry <= 0 {
		w.retry = 10 * time.Second
	}
	return w, nil
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch loop started", logging.Duration("interval", w.interval))
	for {
		wait := w.interval
		if _, err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("status poll failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "status_poll_failed"),
				logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
			)
			wait = w.retry
		}
		select {
		case <-ctx.Done():
			w.logger.Info("watch loop stopped")
			return nil
		case <-time.After(wait):
		}
	}
}

// Tick runs one poll and reports whether a rescan ran.
func (w *Watcher) Tick(ctx context.Context) (bool, error) {
	ctx = services.WithEntityID(ctx, w.entityID)
	snapshot, err := w.source.PollStatus(ctx)
	if err != nil {
		w.noteError(err)
		return false, err
	}
	known, err := w.cache.MonitoredBooks(ctx, w.entityID)
	if err != nil {
		w.noteError(err)
		return false, err
	}

	corr := status.Correlate(snapshot, known.Records())
	signature := corr.Signature()
	fired, err := w.gate.Observe(ctx, w.entityID, signature, func(ctx context.Context) error {
		return w.rescan(ctx, len(corr.Completions))
	})

	w.mu.Lock()
	w.summary.Polls++
	w.summary.LastPoll = time.Now()
	if signature != "" {
		w.summary.LastSignature = signature
	}
	if fired {
		w.summary.Rescans++
	}
	w.mu.Unlock()

	if err != nil {
		w.noteError(err)
		return fired, err
	}
	w.logger.Debug("status polled",
		logging.Int("entries", snapshot.Count()),
		logging.Int("completions", len(corr.Completions)),
		logging.Bool("rescanned", fired),
	)
	return fired, nil
}

func (w *Watcher) rescan(ctx context.Context, completed int) error {
	files, err := w.scanner.ScanFiles(ctx, w.entityID)
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}
	if err := w.cache.ReplaceMatchedFiles(ctx, w.entityID, files); err != nil {
		return fmt.Errorf("store scan: %w", err)
	}
	w.logger.Info("library rescanned",
		logging.Int("completed", completed),
		logging.Int("files", len(files)),
		logging.String(logging.FieldEventType, "rescan_completed"),
	)
	if err := w.notifier.Publish(ctx, notifications.EventRescanTriggered, notifications.Payload{
		"completed": completed,
		"entity":    w.entityID,
	}); err != nil {
		w.logger.Debug("notification failed", logging.Error(err))
	}
	return nil
}

func (w *Watcher) noteError(err error) {
	w.mu.Lock()
	w.summary.LastError = err.Error()
	w.mu.Unlock()
}

// Summary returns a copy of the loop state.
func (w *Watcher) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}

// ErrAlreadyRunning reports that another watcher holds the entity lock.
var ErrAlreadyRunning = errors.New("another bookwatch watcher is already running for this entity")

// AcquireLock takes the single-instance lock at path. Release it with Unlock.
func AcquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}
