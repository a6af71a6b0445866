// Package errors provides structured, coded error handling for campaignd.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Campaign validation errors
	CodeCampaignNameEmpty               Code = "CAMPAIGN_NAME_EMPTY"
	CodeCampaignSubjectEmpty            Code = "CAMPAIGN_SUBJECT_EMPTY"
	CodeCampaignInvalidSenderEmail      Code = "CAMPAIGN_INVALID_SENDER_EMAIL"
	CodeCampaignInvalidReplyTo          Code = "CAMPAIGN_INVALID_REPLY_TO"
	CodeCampaignInvalidID               Code = "CAMPAIGN_INVALID_ID"
	CodeCampaignNotCreated              Code = "CAMPAIGN_NOT_CREATED"
	CodeCampaignAlreadyExists           Code = "CAMPAIGN_ALREADY_EXISTS"
	CodeCampaignNotDraft                Code = "CAMPAIGN_NOT_DRAFT"
	CodeCampaignPayloadInvalid          Code = "CAMPAIGN_PAYLOAD_INVALID"
	CodeCampaignUpdateEmpty             Code = "CAMPAIGN_UPDATE_EMPTY"
	CodeCampaignUpdateFieldInvalid      Code = "CAMPAIGN_UPDATE_FIELD_INVALID"
	CodeCampaignScheduleInvalid         Code = "CAMPAIGN_SCHEDULE_INVALID"
	CodeCampaignScheduleInPast          Code = "CAMPAIGN_SCHEDULE_IN_PAST"
	CodeCampaignDeliveryInvalid         Code = "CAMPAIGN_DELIVERY_INVALID"
	CodeCampaignDeliveryNotStarted      Code = "CAMPAIGN_DELIVERY_NOT_STARTED"
	CodeCampaignSegmentMissing          Code = "CAMPAIGN_SEGMENT_MISSING"
	CodeCampaignInvalidStatusTransition Code = "CAMPAIGN_INVALID_STATUS_TRANSITION"
	CodeCampaignTerminal                Code = "CAMPAIGN_TERMINAL"
	CodeCampaignFailureReasonEmpty      Code = "CAMPAIGN_FAILURE_REASON_EMPTY"

	// Event errors
	CodeEventTypeUnknown    Code = "EVENT_TYPE_UNKNOWN"
	CodeEventInvalidPayload Code = "EVENT_INVALID_PAYLOAD"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeVersionConflict Code = "VERSION_CONFLICT"

	// Projection errors
	CodeProjectionInconsistent Code = "PROJECTION_INCONSISTENT"
	CodeProjectionHalted       Code = "PROJECTION_HALTED"
)
