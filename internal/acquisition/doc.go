// Package acquisition decides whether a single book should be downloaded.
//
// Decider walks a fixed sequence of gates for one book and one content type:
// provider linkage, release date, release search, and the match score
// threshold. Every terminal branch produces exactly one outcome (queued, skip,
// or fallback) and at most one attempt history entry. Failures from the
// release collaborators are contained here and reported through Result; they
// never escape to callers as panics or aborted batches.
package acquisition
