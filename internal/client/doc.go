// Package client talks to the bookwatch collaborator HTTP API: release search,
// download queueing, attempt history, monitored-entity books, file scans, and
// the download status feed. Failures are tagged with services error markers so
// callers can classify them without parsing messages.
package client
