// Package notifications delivers acquisition events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated events cover batch milestones, per-book decisions, and
// library rescans so callers emit consistent, user-friendly messages without
// duplicating HTTP glue.
package notifications
