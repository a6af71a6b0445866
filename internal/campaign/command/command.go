package command

import (
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
)

// Type identifies the command type string.
type Type string

// Campaign command types.
const (
	// TypeCreate creates a new campaign draft.
	TypeCreate Type = "campaign.create"
	// TypeUpdate updates a draft campaign's content or metadata.
	TypeUpdate Type = "campaign.update"
	// TypeSchedule schedules a campaign for a future send.
	TypeSchedule Type = "campaign.schedule"
	// TypeSend starts (or resumes) sending a campaign.
	TypeSend Type = "campaign.send"
	// TypePause pauses an in-flight send.
	TypePause Type = "campaign.pause"
	// TypeCancel cancels a campaign.
	TypeCancel Type = "campaign.cancel"
	// TypeComplete marks a sending campaign as completed.
	TypeComplete Type = "campaign.complete"
	// TypeFail marks a campaign as failed with a reason.
	TypeFail Type = "campaign.fail"
	// TypeRecordDelivery folds delivery counter deltas into the stream.
	TypeRecordDelivery Type = "campaign.record_delivery"
)

// Command captures the canonical command envelope delivered by the external
// API layer.
type Command struct {
	CampaignID  string
	Type        Type
	ActorID     string
	RequestID   string
	PayloadJSON []byte
}

// NewEvent builds an event.Event by copying the shared envelope fields from a
// command. Callers supply the event-specific type, payload, and timestamp.
// This eliminates per-operation boilerplate and ensures that new envelope
// fields are automatically forwarded.
func NewEvent(cmd Command, eventType event.Type, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		CampaignID:  cmd.CampaignID,
		Type:        eventType,
		Timestamp:   now,
		ActorID:     cmd.ActorID,
		RequestID:   cmd.RequestID,
		PayloadJSON: payloadJSON,
	}
}
