// Package projection derives queryable read models from the campaign event
// journal. Each projection declares the event types it handles and applies
// them idempotently; the manager feeds projections from the global event feed
// and tracks a durable per-projection cursor so rebuilds and restarts never
// reprocess applied events destructively.
package projection
