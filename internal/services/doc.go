// Package services defines shared utilities consumed by the acquisition,
// batch, and watch components and by the collaborator API client.
//
// Key responsibilities:
//   - Context helpers that stamp batch ids, monitored entity ids, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures so
//     callers can classify them (transport vs validation vs not found).
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform.
package services
