package event

import "time"

// Type identifies the type of a campaign event.
type Type string

// Campaign lifecycle events.
const (
	// TypeCampaignCreated records the creation of a campaign draft.
	TypeCampaignCreated Type = "campaign.created"
	// TypeCampaignUpdated records updates to campaign content or metadata.
	TypeCampaignUpdated Type = "campaign.updated"
	// TypeCampaignScheduled records the scheduling of a campaign send.
	TypeCampaignScheduled Type = "campaign.scheduled"
	// TypeCampaignSendingStarted records the start (or resumption) of sending.
	TypeCampaignSendingStarted Type = "campaign.sending_started"
	// TypeCampaignPaused records a pause of an in-flight send.
	TypeCampaignPaused Type = "campaign.paused"
	// TypeCampaignCanceled records the cancellation of a campaign.
	TypeCampaignCanceled Type = "campaign.canceled"
	// TypeCampaignCompleted records a completed send.
	TypeCampaignCompleted Type = "campaign.completed"
	// TypeCampaignFailed records a terminal delivery failure.
	TypeCampaignFailed Type = "campaign.failed"
)

// Delivery events.
//
// Delivery counters arrive from the (external) delivery pipeline through the
// same append path as lifecycle events so read-model statistics replay
// deterministically.
const (
	// TypeDeliveryRecorded records a batch of delivery counter deltas.
	TypeDeliveryRecorded Type = "delivery.recorded"
)

// Event represents an immutable event in the campaign event journal.
type Event struct {
	// CampaignID is the campaign this event belongs to.
	CampaignID string
	// Version is the event's position within the campaign stream (starts
	// at 1). Assigned by storage on append.
	Version uint64
	// Type identifies the kind of event.
	Type Type
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// ActorID identifies the user or system that triggered the event.
	ActorID string
	// RequestID correlates the event with the inbound command.
	RequestID string
	// PayloadJSON holds event-specific data as canonical JSON.
	PayloadJSON []byte
}
