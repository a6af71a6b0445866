package campaign

import (
	"encoding/json"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
)

// Fold applies an event to campaign state and returns the new state. Fold is
// total: unknown event types advance the version and change nothing else, so
// replays stay deterministic as the event vocabulary grows.
func Fold(state State, evt event.Event) State {
	state.Version++

	switch evt.Type {
	case event.TypeCampaignCreated:
		var payload event.CampaignCreatedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Created = true
		state.Name = payload.Name
		state.Subject = payload.Subject
		state.Body = payload.Body
		state.SenderName = payload.SenderName
		state.SenderEmail = payload.SenderEmail
		state.ReplyTo = payload.ReplyTo
		state.SegmentID = payload.SegmentID
		state.TemplateID = payload.TemplateID
		state.Metadata = copyMetadata(payload.Metadata)
		state.Status = StatusDraft

	case event.TypeCampaignUpdated:
		var payload event.CampaignUpdatedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		for key, value := range payload.Fields {
			switch key {
			case "name":
				state.Name = value
			case "subject":
				state.Subject = value
			case "body":
				state.Body = value
			case "sender_name":
				state.SenderName = value
			case "sender_email":
				state.SenderEmail = value
			case "reply_to":
				state.ReplyTo = value
			case "segment_id":
				state.SegmentID = value
			case "template_id":
				state.TemplateID = value
			}
		}

	case event.TypeCampaignScheduled:
		var payload event.CampaignScheduledPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		if at, err := time.Parse(time.RFC3339, payload.ScheduledAt); err == nil {
			at = at.UTC()
			state.ScheduledAt = &at
		}
		state.Status = StatusScheduled

	case event.TypeCampaignSendingStarted:
		state.Status = StatusSending
		if state.SentAt == nil {
			at := evt.Timestamp.UTC()
			state.SentAt = &at
		}

	case event.TypeCampaignPaused:
		state.Status = StatusPaused

	case event.TypeCampaignCanceled:
		state.Status = StatusCanceled

	case event.TypeCampaignCompleted:
		state.Status = StatusCompleted
		at := evt.Timestamp.UTC()
		state.CompletedAt = &at

	case event.TypeCampaignFailed:
		var payload event.CampaignFailedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Status = StatusFailed
		state.FailureReason = payload.Reason

	case event.TypeDeliveryRecorded:
		// Delivery counters live in the read model; the aggregate only
		// advances its version.
	}

	return state
}

// Replay folds an ordered event stream from the zero state.
func Replay(events []event.Event) State {
	var state State
	for _, evt := range events {
		state = Fold(state, evt)
	}
	return state
}

func copyMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
