package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"bookwatch/internal/acquisition"
	"bookwatch/internal/activity"
	"bookwatch/internal/books"
	"bookwatch/internal/logging"
	"bookwatch/internal/notifications"
	"bookwatch/internal/services"
)

// Decider is the single-book decision a batch repeats.
type Decider interface {
	Decide(ctx context.Context, book books.Record, contentType books.ContentType, entityID string, action acquisition.Action, opts acquisition.Options) acquisition.Result
}

// Stats are the running totals of a batch.
type Stats struct {
	Queued  int `json:"queued" yaml:"queued"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Failed  int `json:"failed" yaml:"failed"`
	Total   int `json:"total" yaml:"total"`
}

// Summary renders "<queued>/<total> queued · <skipped> skipped · <failed> failed".
func (s Stats) Summary() string {
	return fmt.Sprintf("%d/%d queued · %d skipped · %d failed", s.Queued, s.Total, s.Skipped, s.Failed)
}

// Job is one in-flight batch.
type Job struct {
	ID          string
	Items       []books.Record
	ContentType books.ContentType
	Stats       Stats
	Started     bool
}

// Request describes a batch to run.
type Request struct {
	BatchID     string
	EntityID    string
	Books       []books.Record
	ContentType books.ContentType
	// Action defaults to acquisition.ActionForced.
	Action acquisition.Action
	Label  string
}

// Report is the outcome of a finished batch.
type Report struct {
	BatchID   string                      `json:"batch_id" yaml:"batch_id"`
	Stats     Stats                       `json:"stats" yaml:"stats"`
	Cancelled bool                        `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Items     []ItemResult                `json:"items" yaml:"items"`
	Duration  time.Duration               `json:"duration" yaml:"duration"`
	Statuses  map[books.AttemptStatus]int `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Outcomes  map[acquisition.Outcome]int `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// ItemResult is one processed book.
type ItemResult struct {
	Book    string              `json:"book" yaml:"book"`
	Outcome acquisition.Outcome `json:"outcome" yaml:"outcome"`
	Status  books.AttemptStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Error   string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Orchestrator owns the batch jobs it runs.
type Orchestrator struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	decider  Decider
	board    *activity.Board
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets where start and summary notifications go.
func WithNotifier(svc notifications.Service) Option {
	return func(o *Orchestrator) {
		if svc != nil {
			o.notifier = svc
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.NewComponentLogger(logger, "batch") }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator constructs an orchestrator writing progress to board.
func NewOrchestrator(decider Decider, board *activity.Board, opts ...Option) *Orchestrator {
	if board == nil {
		board = activity.NewBoard()
	}
	o := &Orchestrator{
		jobs:     make(map[string]*Job),
		decider:  decider,
		board:    board,
		notifier: notifications.NewNoop(),
		logger:   logging.NewComponentLogger(nil, "batch"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewBatchID returns "<kind>:<unix millis>".
func NewBatchID(kind string, now time.Time) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "batch"
	}
	return kind + ":" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Board returns the activity board progress is written to.
func (o *Orchestrator) Board() *activity.Board { return o.board }

// Job returns a copy of an in-flight job.
func (o *Orchestrator) Job(id string) (Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Progress returns the aggregate progress shown while item index (1-based)
// of total is processed.
func Progress(index, total int) int {
	if total <= 0 {
		return 5
	}
	p := int(math.Round(float64(index-1) / float64(total) * 100))
	return min(max(p, 5), 95)
}

// RunBatch processes req.Books sequentially. Cancelling ctx stops further
// decisions; unprocessed books count as skipped and the batch is finalized.
func (o *Orchestrator) RunBatch(ctx context.Context, req Request) Report {
	started := o.now()
	total := len(req.Books)
	report := Report{
		BatchID:  req.BatchID,
		Statuses: make(map[books.AttemptStatus]int),
		Outcomes: make(map[acquisition.Outcome]int),
	}
	if total == 0 {
		return report
	}
	if req.BatchID == "" {
		req.BatchID = NewBatchID("batch", started)
		report.BatchID = req.BatchID
	}
	action := req.Action
	if action == "" {
		action = acquisition.ActionForced
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = fmt.Sprintf("Auto-download (%d books)", total)
	}

	job := &Job{
		ID:          req.BatchID,
		Items:       append([]books.Record(nil), req.Books...),
		ContentType: req.ContentType,
		Stats:       Stats{Total: total},
	}
	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	ctx = services.WithBatchID(ctx, job.ID)
	if req.EntityID != "" {
		ctx = services.WithEntityID(ctx, req.EntityID)
	}
	logger := logging.WithContext(ctx, o.logger)

	o.board.Upsert(activity.Record{
		ID:               job.ID,
		VisualStatus:     activity.StatusResolving,
		StatusLabel:      label,
		StatusDetail:     fmt.Sprintf("Processing book 1/%d…", total),
		Progress:         Progress(1, total),
		ProgressAnimated: true,
	})

	for i, book := range job.Items {
		index := i + 1
		if err := ctx.Err(); err != nil {
			remaining := total - i
			o.updateStats(job, func(s *Stats) { s.Skipped += remaining })
			report.Cancelled = true
			logging.WarnWithContext(logger, "batch cancelled", "batch_cancelled",
				logging.Int("processed", i),
				logging.Int("remaining", remaining),
				logging.String(logging.FieldErrorHint, "rerun the batch to process the remaining books"),
				logging.String(logging.FieldImpact, "remaining books were not searched"),
			)
			break
		}

		if index == 1 {
			o.mu.Lock()
			job.Started = true
			o.mu.Unlock()
			logger.Info("batch started", logging.Int("total", total), logging.String("content_type", string(req.ContentType)))
			o.publish(ctx, notifications.EventBatchStarted, notifications.Payload{"total": total, "label": label})
		}

		o.board.Update(job.ID, func(rec *activity.Record) {
			rec.VisualStatus = activity.StatusResolving
			rec.StatusDetail = fmt.Sprintf("Processing book %d/%d…", index, total)
			rec.Progress = Progress(index, total)
		})

		result := o.decider.Decide(ctx, book, req.ContentType, req.EntityID, action, acquisition.Options{Batch: true, SuppressToasts: true})
		item := ItemResult{Book: book.DisplayTitle(), Outcome: result.Outcome, Status: result.Status}
		switch {
		case result.Failed():
			item.Error = result.Err.Error()
			o.updateStats(job, func(s *Stats) { s.Failed++ })
		case result.Outcome == acquisition.OutcomeQueued:
			o.updateStats(job, func(s *Stats) { s.Queued++ })
		default:
			o.updateStats(job, func(s *Stats) { s.Skipped++ })
		}
		report.Items = append(report.Items, item)
		report.Outcomes[result.Outcome]++
		if result.Status != "" {
			report.Statuses[result.Status]++
		}
	}

	stats := o.finish(ctx, job)
	report.Stats = stats
	report.Duration = o.now().Sub(started)
	logger.Info("batch completed",
		logging.Int("queued", stats.Queued),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed),
		logging.Int("total", stats.Total),
		logging.Duration("duration", report.Duration),
	)
	return report
}

func (o *Orchestrator) updateStats(job *Job, fn func(*Stats)) {
	o.mu.Lock()
	fn(&job.Stats)
	o.mu.Unlock()
}

// finish writes the terminal activity state, announces the summary, and drops the job.
func (o *Orchestrator) finish(ctx context.Context, job *Job) Stats {
	o.mu.Lock()
	stats := job.Stats
	if current, ok := o.jobs[job.ID]; ok && current == job {
		delete(o.jobs, job.ID)
	}
	o.mu.Unlock()

	o.board.Update(job.ID, func(rec *activity.Record) {
		rec.VisualStatus = activity.StatusComplete
		if stats.Failed > 0 {
			rec.VisualStatus = activity.StatusError
		}
		rec.Progress = 100
		rec.ProgressAnimated = false
		rec.StatusDetail = stats.Summary()
	})
	o.publish(context.WithoutCancel(ctx), notifications.EventBatchCompleted, notifications.Payload{
		"summary": stats.Summary(),
		"failed":  stats.Failed,
		"total":   stats.Total,
	})
	return stats
}

func (o *Orchestrator) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		o.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
