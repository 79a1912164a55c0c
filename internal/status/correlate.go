package status

import (
	"sort"
	"strconv"
	"strings"

	"bookwatch/internal/books"
	"bookwatch/internal/identity"
)

// Hit is the download state a key resolves to.
type Hit struct {
	Bucket    Bucket
	RecordKey string
	Progress  float64
}

// Completion is a completed download that belongs to a known book.
type Completion struct {
	RecordKey string
	AddedTime float64
	Keys      identity.KeySet
	Book      books.Record
}

// Correlation is the result of mapping one snapshot onto identity keys.
type Correlation struct {
	byKey       map[string]Hit
	Completions []Completion
}

// Correlate maps every snapshot entry onto its identity keys and collects the
// completed entries that share a key with any of the known books. Buckets
// claim keys in Buckets order. Within a bucket entries claim in sorted record
// key order, since a decoded snapshot keeps no feed order; when two entries
// share a key the lexically smaller record key wins.
func Correlate(snapshot Snapshot, known []books.Record) Correlation {
	corr := Correlation{byKey: make(map[string]Hit)}

	entryKeys := make(map[Bucket]map[string]identity.KeySet, len(Buckets))
	for _, bucket := range Buckets {
		for _, recordKey := range snapshot.RecordKeys(bucket) {
			entry := snapshot[bucket][recordKey]
			keys := identity.BuildKeys(entry.Record).With(identity.RecordKey(recordKey))
			if entryKeys[bucket] == nil {
				entryKeys[bucket] = make(map[string]identity.KeySet)
			}
			entryKeys[bucket][recordKey] = keys
			for _, key := range keys {
				s := key.String()
				if _, claimed := corr.byKey[s]; claimed {
					continue
				}
				corr.byKey[s] = Hit{Bucket: bucket, RecordKey: recordKey, Progress: entry.Progress}
			}
		}
	}

	knownSets := make([]identity.KeySet, 0, len(known))
	for _, book := range known {
		if set := identity.BuildKeys(book); !set.Empty() {
			knownSets = append(knownSets, set)
		}
	}
	if len(knownSets) == 0 {
		return corr
	}

	for _, recordKey := range snapshot.RecordKeys(BucketComplete) {
		keys := entryKeys[BucketComplete][recordKey]
		for _, set := range knownSets {
			if set.Intersects(keys) {
				entry := snapshot[BucketComplete][recordKey]
				corr.Completions = append(corr.Completions, Completion{
					RecordKey: recordKey,
					AddedTime: entry.AddedTime,
					Keys:      keys,
					Book:      entry.Record,
				})
				break
			}
		}
	}
	return corr
}

// Lookup returns the download state for a book, trying its keys from most to
// least specific.
func (c Correlation) Lookup(book books.Record) (Hit, bool) {
	for _, key := range identity.BuildKeys(book) {
		if hit, ok := c.byKey[key.String()]; ok {
			return hit, true
		}
	}
	return Hit{}, false
}

// Signature returns the completion signature for the correlation.
func (c Correlation) Signature() string {
	return Signature(c.Completions)
}

// Signature renders completions as a deterministic string. Each completion
// contributes "<recordKey>:<addedTime>:<sorted keys>"; parts are sorted and
// joined with "|". No completions yields "".
func Signature(completions []Completion) string {
	if len(completions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(completions))
	for _, c := range completions {
		added := strconv.FormatFloat(c.AddedTime, 'f', -1, 64)
		parts = append(parts, c.RecordKey+":"+added+":"+strings.Join(c.Keys.Sorted(), ","))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
