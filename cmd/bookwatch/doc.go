// Package main hosts the bookwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree syncs monitored books from the collaborator
// API into the local cache, renders merged book lists with availability and
// download state, runs auto-acquisition batches, and keeps a per-entity watch
// loop that rescans files when downloads complete. Configuration resolution,
// .env loading, and logger setup live in the shared command context so
// subcommands stay declarative.
package main
