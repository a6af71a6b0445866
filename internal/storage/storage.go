// Package storage defines the persistence contracts for the campaign event
// journal, read models, projection checkpoints, and the publish outbox.
// Implementations live in subpackages (sqlite).
package storage

import (
	"context"
	"time"

	"github.com/mailforge/campaignd/internal/campaign"
	"github.com/mailforge/campaignd/internal/campaign/event"
	apperrors "github.com/mailforge/campaignd/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrVersionConflict indicates an append lost the expected-version check
// because another writer committed first. The store never retries; the caller
// reloads the stream and re-decides the command.
var ErrVersionConflict = apperrors.New(apperrors.CodeVersionConflict, "campaign stream version conflict")

// EventStore is the append-only campaign event journal. Versions are assigned
// contiguously per campaign starting at 1; ordering within a stream is the
// sole source of truth for aggregate state.
type EventStore interface {
	// AppendEvents atomically appends events to a campaign stream,
	// assigning versions expectedVersion+1..expectedVersion+len(events).
	// Returns ErrVersionConflict when the stream head is not
	// expectedVersion. The returned events carry their assigned versions.
	AppendEvents(ctx context.Context, campaignID string, expectedVersion uint64, events []event.Event) ([]event.Event, error)
	// ListEvents returns the full ordered stream for a campaign, or an
	// empty slice when none exist.
	ListEvents(ctx context.Context, campaignID string) ([]event.Event, error)
	// ListEventsFrom returns events strictly after afterVersion, for
	// incremental replay.
	ListEventsFrom(ctx context.Context, campaignID string, afterVersion uint64) ([]event.Event, error)
	// LatestVersion returns the stream head version, or 0 when the stream
	// is empty.
	LatestVersion(ctx context.Context, campaignID string) (uint64, error)
	// ListFeed returns appended events across all campaigns in commit
	// order, strictly after feed id afterID. Projections consume this.
	ListFeed(ctx context.Context, afterID int64, limit int) ([]FeedEntry, error)
}

// FeedEntry pairs an event with its global commit-order feed id. Feed ids are
// monotonic across campaigns but carry no cross-campaign ordering guarantee
// beyond commit order on this node.
type FeedEntry struct {
	ID    int64
	Event event.Event
}

// DeliveryStats aggregates delivery counters folded from delivery.recorded
// events.
type DeliveryStats struct {
	Recipients   int64
	Sent         int64
	Delivered    int64
	Opened       int64
	Clicked      int64
	Bounced      int64
	Complaints   int64
	Unsubscribed int64
}

// CampaignRecord is the denormalized campaign read model served to queries.
// Version mirrors the last applied event's version for staleness detection
// and idempotent re-application.
type CampaignRecord struct {
	ID            string
	Name          string
	Subject       string
	Body          string
	SenderName    string
	SenderEmail   string
	ReplyTo       string
	SegmentID     string
	TemplateID    string
	Metadata      map[string]string
	Status        campaign.Status
	ScheduledAt   *time.Time
	SentAt        *time.Time
	CompletedAt   *time.Time
	FailureReason string
	Stats         DeliveryStats
	Version       uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CampaignQuery filters and pages campaign read-model lookups.
type CampaignQuery struct {
	// Status filters by lifecycle status when non-empty.
	Status campaign.Status
	// SegmentID filters by assigned segment when non-empty.
	SegmentID string
	Limit     int
	Offset    int
}

// CampaignStore persists the campaign read model.
type CampaignStore interface {
	// GetCampaign returns the read model for a campaign id.
	// Returns ErrNotFound if no record exists.
	GetCampaign(ctx context.Context, id string) (CampaignRecord, error)
	// SaveCampaign upserts a campaign record.
	SaveCampaign(ctx context.Context, record CampaignRecord) error
	// FindCampaigns returns records matching the query, newest first.
	FindCampaigns(ctx context.Context, query CampaignQuery) ([]CampaignRecord, error)
	// CountCampaigns returns the number of records matching the query.
	CountCampaigns(ctx context.Context, query CampaignQuery) (int, error)
	// DeleteAllCampaigns clears the read model for a projection rebuild.
	DeleteAllCampaigns(ctx context.Context) error
}

// ActivityRecord is one row of the per-campaign activity timeline projection.
// (CampaignID, Version) is the natural key, making re-application idempotent.
type ActivityRecord struct {
	CampaignID string
	Version    uint64
	EventType  event.Type
	ActorID    string
	Summary    string
	OccurredAt time.Time
}

// ActivityStore persists the activity timeline read model.
type ActivityStore interface {
	// SaveActivity upserts a timeline row keyed by (campaign id, version).
	SaveActivity(ctx context.Context, record ActivityRecord) error
	// ListActivity returns the newest timeline rows for a campaign.
	ListActivity(ctx context.Context, campaignID string, limit int) ([]ActivityRecord, error)
	// DeleteAllActivity clears the timeline for a projection rebuild.
	DeleteAllActivity(ctx context.Context) error
}

// Checkpoint is a projection's durable cursor over the event feed.
type Checkpoint struct {
	Projection string
	// LastEventID is the feed id of the last successfully applied event.
	LastEventID int64
	// LastEventTimestamp records when that event occurred.
	LastEventTimestamp time.Time
	// Halted marks the projection as stopped on a consistency error;
	// the cursor does not advance until an operator resets it.
	Halted     bool
	HaltReason string
	UpdatedAt  time.Time
}

// CheckpointStore persists projection cursors.
type CheckpointStore interface {
	// GetCheckpoint returns the cursor for a projection name.
	// Returns ErrNotFound if the projection has never run.
	GetCheckpoint(ctx context.Context, projection string) (Checkpoint, error)
	// SaveCheckpoint upserts a projection cursor.
	SaveCheckpoint(ctx context.Context, checkpoint Checkpoint) error
	// ResetCheckpoint rewinds a projection cursor to zero and clears any
	// halt so a full rebuild can replay history.
	ResetCheckpoint(ctx context.Context, projection string) error
}

// OutboxEntry is an appended event awaiting external publication. Entries are
// enqueued in the append transaction so publication can never observe an
// uncommitted event.
type OutboxEntry struct {
	ID            int64
	Event         event.Event
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	Dead          bool
	EnqueuedAt    time.Time
}

// OutboxSummary counts outbox entries by state.
type OutboxSummary struct {
	Pending int64
	Dead    int64
}

// OutboxStore persists the publish outbox.
type OutboxStore interface {
	// ListPendingOutbox returns unpublished entries in enqueue order,
	// excluding dead entries and entries whose retry time has not arrived.
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error)
	// MarkOutboxPublished removes an entry after successful publication.
	MarkOutboxPublished(ctx context.Context, id int64) error
	// MarkOutboxFailed records a failed publication attempt; the entry
	// stays pending and becomes eligible again at retryAt.
	MarkOutboxFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error
	// MarkOutboxDead removes an entry from the pending set permanently.
	MarkOutboxDead(ctx context.Context, id int64, reason string) error
	// SummarizeOutbox counts pending and dead entries.
	SummarizeOutbox(ctx context.Context) (OutboxSummary, error)
}
