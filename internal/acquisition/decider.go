package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookwatch/internal/activity"
	"bookwatch/internal/books"
	"bookwatch/internal/logging"
	"bookwatch/internal/notifications"
	"bookwatch/internal/services"
)

// DefaultMinMatchScore is the auto-download threshold used when none is configured.
const DefaultMinMatchScore = 75.0

// Outcome is the terminal result of one decision.
type Outcome string

const (
	// OutcomeQueued means a release met the threshold and a download started.
	OutcomeQueued Outcome = "queued"
	// OutcomeSkip means nothing further happens for this book.
	OutcomeSkip Outcome = "skip"
	// OutcomeFallback asks the caller to continue with an interactive search.
	OutcomeFallback Outcome = "fallback"
)

// Action is the caller's intent.
type Action string

const (
	// ActionDefault is an auto-search that may fall back to interactive search.
	ActionDefault Action = "default"
	// ActionForced is an explicit auto-download; it never falls back.
	ActionForced Action = "forced"
)

// ReleaseSearcher finds candidate releases for a book.
type ReleaseSearcher interface {
	SearchReleases(ctx context.Context, provider, bookID string, contentType books.ContentType, languages []string) ([]books.Release, error)
}

// DownloadQueuer starts a download. Queueing also records the attempt remotely.
type DownloadQueuer interface {
	QueueDownload(ctx context.Context, book books.Record, release books.Release, contentType books.ContentType, entityID string) error
}

// AttemptRecorder writes attempt history.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt books.Attempt) error
}

// Backend bundles the collaborator operations a decision needs.
type Backend interface {
	ReleaseSearcher
	DownloadQueuer
	AttemptRecorder
}

// Options tunes a single decision.
type Options struct {
	// SuppressToasts silences per-book notifications.
	SuppressToasts bool
	// Batch marks decisions driven by a batch; it implies SuppressToasts and
	// skips the per-book progress record.
	Batch bool
}

// Result describes what a decision did.
type Result struct {
	Outcome   Outcome
	Status    books.AttemptStatus
	Reason    string
	Release   *books.Release
	Score     float64
	RequestID string
	Err       error
}

// Failed reports whether the decision ended on a collaborator failure.
func (r Result) Failed() bool { return r.Err != nil }

// Decider runs the acquisition decision for one book at a time.
type Decider struct {
	backend   Backend
	ledger    AttemptRecorder
	notifier  notifications.Service
	board     *activity.Board
	logger    *slog.Logger
	minScore  float64
	languages []string
	now       func() time.Time
}

// Option configures a Decider.
type Option func(*Decider)

// WithLedger mirrors every terminal attempt, queued ones included, into a local ledger.
func WithLedger(ledger AttemptRecorder) Option {
	return func(d *Decider) { d.ledger = ledger }
}

// WithNotifier sets the toast channel.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Decider) {
		if svc != nil {
			d.notifier = svc
		}
	}
}

// WithBoard sets where transient progress records are shown.
func WithBoard(board *activity.Board) Option {
	return func(d *Decider) { d.board = board }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decider) { d.logger = logging.NewComponentLogger(logger, "acquisition") }
}

// WithMinMatchScore overrides the auto-download threshold.
func WithMinMatchScore(score float64) Option {
	return func(d *Decider) { d.minScore = score }
}

// WithLanguages sets the release languages searched.
func WithLanguages(languages []string) Option {
	return func(d *Decider) { d.languages = append([]string(nil), languages...) }
}

// WithClock overrides the time source used by the release date gate.
func WithClock(now func() time.Time) Option {
	return func(d *Decider) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDecider constructs a decider over the given collaborators.
func NewDecider(backend Backend, opts ...Option) *Decider {
	d := &Decider{
		backend:  backend,
		notifier: notifications.NewNoop(),
		logger:   logging.NewComponentLogger(nil, "acquisition"),
		minScore: DefaultMinMatchScore,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MinMatchScore returns the configured threshold.
func (d *Decider) MinMatchScore() float64 { return d.minScore }

// Decide runs the gates for one book in order and returns the terminal result.
func (d *Decider) Decide(ctx context.Context, book books.Record, contentType books.ContentType, entityID string, action Action, opts Options) Result {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	if entityID != "" {
		ctx = services.WithEntityID(ctx, entityID)
	}
	if opts.Batch {
		opts.SuppressToasts = true
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldBookKey, book.ProviderKey()))

	// Missing linkage skips for every action, ActionDefault included. There is
	// no fallback to interactive search here because it needs the same
	// provider ids this book lacks.
	if !book.HasProviderLink() {
		logger.Info("auto download decision", logging.Args(logging.DecisionAttrs("auto_download", string(OutcomeSkip), "missing provider linkage")...)...)
		d.toast(ctx, opts, notifications.EventAcquisitionInfo, notifications.Payload{
			"book":   book.DisplayTitle(),
			"reason": "Missing provider information",
		})
		return Result{Outcome: OutcomeSkip, Reason: "missing provider linkage", RequestID: requestID}
	}

	if !opts.Batch && d.board != nil {
		d.board.Upsert(activity.Record{
			ID:               requestID,
			VisualStatus:     activity.StatusResolving,
			StatusLabel:      "Auto-download",
			StatusDetail:     "Searching releases for " + book.DisplayTitle(),
			Progress:         5,
			ProgressAnimated: true,
		})
		defer d.board.Remove(requestID)
	}

	attempt := books.Attempt{
		EntityID:    entityID,
		Provider:    strings.TrimSpace(book.Provider),
		BookID:      strings.TrimSpace(book.ProviderBookID),
		ContentType: contentType,
	}

	if date, unreleased := Unreleased(book, d.now()); unreleased {
		attempt.Status = books.AttemptNotReleased
		attempt.Extra = map[string]any{"release_date": date.Raw}
		d.record(ctx, logger, attempt, true)
		logger.Info("auto download decision", logging.Args(logging.DecisionAttrs("auto_download", string(OutcomeSkip), "not released until "+date.Raw)...)...)
		d.toast(ctx, opts, notifications.EventAcquisitionInfo, notifications.Payload{
			"book":   book.DisplayTitle(),
			"reason": "Not released until " + date.Raw,
			"status": string(books.AttemptNotReleased),
		})
		return Result{Outcome: OutcomeSkip, Status: books.AttemptNotReleased, Reason: "not released", RequestID: requestID}
	}

	releases, err := d.backend.SearchReleases(ctx, attempt.Provider, attempt.BookID, contentType, d.languages)
	if err != nil {
		return d.fail(ctx, logger, attempt, book, action, opts, requestID, "release search", err)
	}

	best, score, found := pickBest(releases)
	if found && score >= d.minScore {
		if err := d.backend.QueueDownload(ctx, book, best, contentType, entityID); err != nil {
			return d.fail(ctx, logger, attempt, book, action, opts, requestID, "queue download", err)
		}
		attempt.Status = books.AttemptQueued
		attempt.Extra = map[string]any{"release_id": best.ID, "match_score": score}
		// the queue call records the attempt remotely; only the local ledger is written here
		d.record(ctx, logger, attempt, false)
		logger.Info("auto download decision",
			logging.Args(append(logging.DecisionAttrs("auto_download", string(OutcomeQueued), "score meets threshold"),
				logging.Float64("match_score", score),
				logging.String("release_id", best.ID))...)...)
		d.toast(ctx, opts, notifications.EventAcquisitionQueued, notifications.Payload{
			"book":    book.DisplayTitle(),
			"release": best.Label(),
		})
		return Result{Outcome: OutcomeQueued, Status: books.AttemptQueued, Release: &best, Score: score, RequestID: requestID}
	}

	outcome := missOutcome(action)
	result := Result{Outcome: outcome, RequestID: requestID, Score: score}
	reason := "No releases found"
	if found {
		attempt.Status = books.AttemptBelowCutoff
		attempt.Extra = map[string]any{"best_score": score, "min_score": d.minScore, "release_id": best.ID}
		reason = fmt.Sprintf("Best match scored %s (needs %s)", formatScore(score), formatScore(d.minScore))
		result.Release = &best
	} else {
		attempt.Status = books.AttemptNoMatch
	}
	result.Status = attempt.Status
	result.Reason = string(attempt.Status)
	d.record(ctx, logger, attempt, true)
	logger.Info("auto download decision", logging.Args(logging.DecisionAttrs("auto_download", string(outcome), reason)...)...)
	d.toast(ctx, opts, notifications.EventAcquisitionInfo, notifications.Payload{
		"book":   book.DisplayTitle(),
		"reason": reason,
		"status": string(attempt.Status),
	})
	return result
}

func (d *Decider) fail(ctx context.Context, logger *slog.Logger, attempt books.Attempt, book books.Record, action Action, opts Options, requestID, operation string, err error) Result {
	attempt.Status = books.AttemptError
	attempt.Extra = map[string]any{"error": err.Error(), "operation": operation}
	d.record(ctx, logger, attempt, true)
	logging.WarnWithContext(logger, "auto download failed", "auto_download_failed",
		logging.String("operation", operation),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
		logging.String(logging.FieldImpact, "book was not queued"),
	)
	d.toast(ctx, opts, notifications.EventError, notifications.Payload{
		"context": operation + " for " + book.DisplayTitle(),
		"error":   err,
	})
	return Result{Outcome: missOutcome(action), Status: books.AttemptError, Reason: operation, RequestID: requestID, Err: err}
}

// record writes the attempt to the local ledger and, when remote is set, to
// the collaborator history. Write failures are logged and never change the outcome.
func (d *Decider) record(ctx context.Context, logger *slog.Logger, attempt books.Attempt, remote bool) {
	attempt.RecordedAt = d.now().UTC()
	if remote {
		if err := d.backend.RecordAttempt(ctx, attempt); err != nil {
			logging.WarnWithContext(logger, "record attempt failed", "attempt_record_failed",
				logging.String("status", string(attempt.Status)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "attempt history is incomplete"),
			)
		}
	}
	if d.ledger != nil {
		if err := d.ledger.RecordAttempt(ctx, attempt); err != nil {
			logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
				logging.String("status", string(attempt.Status)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "local history is incomplete"),
			)
		}
	}
}

func (d *Decider) toast(ctx context.Context, opts Options, event notifications.Event, payload notifications.Payload) {
	if opts.SuppressToasts || d.notifier == nil {
		return
	}
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		d.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

// pickBest returns the highest scoring release. Unscored releases rank below
// every scored one; found is false only when there are no releases at all.
func pickBest(releases []books.Release) (books.Release, float64, bool) {
	if len(releases) == 0 {
		return books.Release{}, books.NoScore, false
	}
	best := releases[0]
	bestScore := best.MatchScore()
	for _, release := range releases[1:] {
		if score := release.MatchScore(); score > bestScore {
			best, bestScore = release, score
		}
	}
	return best, bestScore, true
}

func missOutcome(action Action) Outcome {
	if action == ActionForced {
		return OutcomeSkip
	}
	return OutcomeFallback
}

func formatScore(score float64) string {
	if score == books.NoScore {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", score)
}
