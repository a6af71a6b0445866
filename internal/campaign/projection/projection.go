package projection

import (
	"context"
	"fmt"

	"github.com/mailforge/campaignd/internal/campaign/event"
)

// Projection folds events into one denormalized read model.
//
// Apply must be idempotent: the manager delivers at-least-once, so applying
// the same event twice must leave the read model unchanged.
type Projection interface {
	// Name identifies the projection for checkpoints and operator tooling.
	Name() string
	// Handles reports whether the projection consumes this event type.
	Handles(eventType event.Type) bool
	// Apply folds one event into the read model.
	Apply(ctx context.Context, evt event.Event) error
	// Reset clears the read model so a rebuild can replay history.
	Reset(ctx context.Context) error
}

// ConsistencyError reports that an event referenced a read-model row that
// does not exist, for example an update arriving before its create was
// applied. This is fatal for the projection: skipping the event would
// permanently desynchronize the read model, so the manager halts the cursor
// and surfaces the error to operators.
type ConsistencyError struct {
	Projection string
	EventType  event.Type
	CampaignID string
	Version    uint64
	Reason     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("projection %s inconsistent at campaign_id=%s version=%d type=%s: %s",
		e.Projection, e.CampaignID, e.Version, e.EventType, e.Reason)
}
