package status

import (
	"encoding/json"
	"fmt"
	"sort"

	"bookwatch/internal/books"
)

// Bucket names a download-status group.
type Bucket string

const (
	BucketQueued      Bucket = "queued"
	BucketResolving   Bucket = "resolving"
	BucketLocating    Bucket = "locating"
	BucketDownloading Bucket = "downloading"
	BucketComplete    Bucket = "complete"
	BucketError       Bucket = "error"
	BucketCancelled   Bucket = "cancelled"
)

// Buckets lists buckets in claim priority order.
var Buckets = []Bucket{
	BucketQueued,
	BucketResolving,
	BucketLocating,
	BucketDownloading,
	BucketComplete,
	BucketError,
	BucketCancelled,
}

// Entry is one download record inside a bucket.
type Entry struct {
	books.Record
	Progress  float64 `json:"progress,omitempty"`
	AddedTime float64 `json:"added_time,omitempty"`
}

// UnmarshalJSON decodes the book fields leniently and then the download
// counters, which arrive as numbers or numeric strings.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var record books.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	var counters struct {
		Progress  json.RawMessage `json:"progress"`
		AddedTime json.RawMessage `json:"added_time"`
	}
	if err := json.Unmarshal(data, &counters); err != nil {
		return err
	}
	*e = Entry{
		Record:    record,
		Progress:  books.LooseFloat(counters.Progress),
		AddedTime: books.LooseFloat(counters.AddedTime),
	}
	return nil
}

// Snapshot groups entries by bucket, each keyed by an opaque record key.
type Snapshot map[Bucket]map[string]Entry

// DecodeSnapshot decodes a status payload entry by entry. Entries that cannot
// be decoded are left out and reported as "bucket/recordKey", malformed buckets
// as the bare bucket name. Only a payload that is not an object is an error.
func DecodeSnapshot(data []byte) (Snapshot, []string, error) {
	var raw map[Bucket]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode status snapshot: %w", err)
	}
	snapshot := make(Snapshot, len(raw))
	var skipped []string
	for bucket, body := range raw {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(body, &entries); err != nil {
			skipped = append(skipped, string(bucket))
			continue
		}
		decoded := make(map[string]Entry, len(entries))
		for recordKey, payload := range entries {
			var entry Entry
			if err := json.Unmarshal(payload, &entry); err != nil {
				skipped = append(skipped, string(bucket)+"/"+recordKey)
				continue
			}
			decoded[recordKey] = entry
		}
		snapshot[bucket] = decoded
	}
	sort.Strings(skipped)
	return snapshot, skipped, nil
}

// RecordKeys returns the bucket's record keys sorted lexically.
func (s Snapshot) RecordKeys(bucket Bucket) []string {
	entries := s[bucket]
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of entries across all buckets.
func (s Snapshot) Count() int {
	total := 0
	for _, entries := range s {
		total += len(entries)
	}
	return total
}
