package projection

import (
	"context"
	"fmt"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// ActivityProjectionName is the checkpoint key for the activity timeline.
const ActivityProjectionName = "activity"

// activitySummaries maps event types to human-readable timeline summaries.
var activitySummaries = map[event.Type]string{
	event.TypeCampaignCreated:        "campaign created",
	event.TypeCampaignUpdated:        "campaign updated",
	event.TypeCampaignScheduled:      "campaign scheduled",
	event.TypeCampaignSendingStarted: "sending started",
	event.TypeCampaignPaused:         "sending paused",
	event.TypeCampaignCanceled:       "campaign canceled",
	event.TypeCampaignCompleted:      "campaign completed",
	event.TypeCampaignFailed:         "campaign failed",
	event.TypeDeliveryRecorded:       "delivery recorded",
}

// ActivityProjection maintains a per-campaign activity timeline. Rows are
// keyed by (campaign id, version), so re-applying an event overwrites the
// same row with identical content.
type ActivityProjection struct {
	store storage.ActivityStore
}

// NewActivityProjection creates the activity timeline projection.
func NewActivityProjection(store storage.ActivityStore) *ActivityProjection {
	return &ActivityProjection{store: store}
}

// Name implements Projection.
func (p *ActivityProjection) Name() string { return ActivityProjectionName }

// Handles implements Projection.
func (p *ActivityProjection) Handles(eventType event.Type) bool {
	_, ok := activitySummaries[eventType]
	return ok
}

// Apply records one timeline row for the event.
func (p *ActivityProjection) Apply(ctx context.Context, evt event.Event) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("activity store is not configured")
	}
	summary, ok := activitySummaries[evt.Type]
	if !ok {
		return fmt.Errorf("unhandled projection event type: %s", evt.Type)
	}
	return p.store.SaveActivity(ctx, storage.ActivityRecord{
		CampaignID: evt.CampaignID,
		Version:    evt.Version,
		EventType:  evt.Type,
		ActorID:    evt.ActorID,
		Summary:    summary,
		OccurredAt: ensureTimestamp(evt.Timestamp),
	})
}

// Reset clears the activity timeline.
func (p *ActivityProjection) Reset(ctx context.Context) error {
	if err := p.store.DeleteAllActivity(ctx); err != nil {
		return fmt.Errorf("reset activity projection: %w", err)
	}
	return nil
}

// List returns the newest timeline rows for a campaign.
func (p *ActivityProjection) List(ctx context.Context, campaignID string, limit int) ([]storage.ActivityRecord, error) {
	return p.store.ListActivity(ctx, campaignID, limit)
}
