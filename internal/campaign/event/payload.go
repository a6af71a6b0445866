package event

// CampaignCreatedPayload captures the payload for campaign.created events.
type CampaignCreatedPayload struct {
	Name        string            `json:"name"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body,omitempty"`
	SenderName  string            `json:"sender_name,omitempty"`
	SenderEmail string            `json:"sender_email"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	SegmentID   string            `json:"segment_id,omitempty"`
	TemplateID  string            `json:"template_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CampaignUpdatedPayload captures the payload for campaign.updated events.
// Fields holds only the keys that changed.
type CampaignUpdatedPayload struct {
	Fields map[string]string `json:"fields"`
}

// CampaignScheduledPayload captures the payload for campaign.scheduled events.
type CampaignScheduledPayload struct {
	// ScheduledAt is the RFC 3339 timestamp the campaign is scheduled for.
	ScheduledAt string `json:"scheduled_at"`
}

// CampaignSendingStartedPayload captures the payload for
// campaign.sending_started events.
type CampaignSendingStartedPayload struct {
	SegmentID string `json:"segment_id"`
	// Resumed is true when sending restarts after a pause.
	Resumed bool `json:"resumed,omitempty"`
}

// CampaignPausedPayload captures the payload for campaign.paused events.
type CampaignPausedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CampaignCanceledPayload captures the payload for campaign.canceled events.
type CampaignCanceledPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CampaignCompletedPayload captures the payload for campaign.completed events.
type CampaignCompletedPayload struct{}

// CampaignFailedPayload captures the payload for campaign.failed events.
type CampaignFailedPayload struct {
	Reason string `json:"reason"`
}

// DeliveryRecordedPayload captures the payload for delivery.recorded events.
// All counters are deltas over the previous totals.
type DeliveryRecordedPayload struct {
	Recipients   int64 `json:"recipients,omitempty"`
	Sent         int64 `json:"sent,omitempty"`
	Delivered    int64 `json:"delivered,omitempty"`
	Opened       int64 `json:"opened,omitempty"`
	Clicked      int64 `json:"clicked,omitempty"`
	Bounced      int64 `json:"bounced,omitempty"`
	Complaints   int64 `json:"complaints,omitempty"`
	Unsubscribed int64 `json:"unsubscribed,omitempty"`
}
