// Package event defines the canonical event envelope and event-type registry
// used by the campaign write path.
//
// Events are immutable business facts emitted by accepted commands. The
// registry enforces type validity and payload canonicalization before
// persistence assigns versions.
//
// A stable event contract is the foundation for replay, projection
// correctness, and cross-service consumers that depend on the same semantic
// names.
package event
