package books

import (
	"encoding/json"
	"strings"
	"time"
)

// Release is a candidate downloadable item for a book.
type Release struct {
	ID       string         `json:"id" yaml:"id"`
	Title    string         `json:"title" yaml:"title"`
	Format   string         `json:"format,omitempty" yaml:"format,omitempty"`
	Language string         `json:"language,omitempty" yaml:"language,omitempty"`
	Size     int64          `json:"size,omitempty" yaml:"size,omitempty"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	Extra    map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NoScore marks a release whose match score is absent or not numeric. It
// sorts below every real score, including zero.
const NoScore = -1.0

// MatchScore returns extra.match_score, or NoScore when it is missing or not
// a number.
func (r Release) MatchScore() float64 {
	if r.Extra == nil {
		return NoScore
	}
	switch v := r.Extra["match_score"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return NoScore
}

// Label returns a human label for the release.
func (r Release) Label() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	return r.ID
}

// AttemptStatus is the recorded outcome of one acquisition attempt.
type AttemptStatus string

const (
	AttemptQueued         AttemptStatus = "queued"
	AttemptNoMatch        AttemptStatus = "no_match"
	AttemptBelowCutoff    AttemptStatus = "below_cutoff"
	AttemptNotReleased    AttemptStatus = "not_released"
	AttemptDownloadFailed AttemptStatus = "download_failed"
	AttemptError          AttemptStatus = "error"
)

// Attempt is one entry of a book's acquisition history.
type Attempt struct {
	EntityID    string         `json:"monitored_entity_id,omitempty" yaml:"entity_id,omitempty"`
	Provider    string         `json:"provider" yaml:"provider"`
	BookID      string         `json:"book_id" yaml:"book_id"`
	ContentType ContentType    `json:"content_type" yaml:"content_type"`
	Status      AttemptStatus  `json:"status" yaml:"status"`
	Extra       map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
	RecordedAt  time.Time      `json:"recorded_at,omitzero" yaml:"recorded_at"`
}
