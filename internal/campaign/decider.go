package campaign

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/command"
	"github.com/mailforge/campaignd/internal/campaign/event"
)

// Rejection codes mirror the platform error codes so the service layer can
// translate decisions into coded errors without a lookup table.
const (
	rejectionCodeAlreadyExists      = "CAMPAIGN_ALREADY_EXISTS"
	rejectionCodeNotCreated         = "CAMPAIGN_NOT_CREATED"
	rejectionCodeNameEmpty          = "CAMPAIGN_NAME_EMPTY"
	rejectionCodeSubjectEmpty       = "CAMPAIGN_SUBJECT_EMPTY"
	rejectionCodeSenderEmailInvalid = "CAMPAIGN_INVALID_SENDER_EMAIL"
	rejectionCodeReplyToInvalid     = "CAMPAIGN_INVALID_REPLY_TO"
	rejectionCodeNotDraft           = "CAMPAIGN_NOT_DRAFT"
	rejectionCodePayloadInvalid     = "CAMPAIGN_PAYLOAD_INVALID"
	rejectionCodeUpdateEmpty        = "CAMPAIGN_UPDATE_EMPTY"
	rejectionCodeUpdateFieldInvalid = "CAMPAIGN_UPDATE_FIELD_INVALID"
	rejectionCodeScheduleInvalid    = "CAMPAIGN_SCHEDULE_INVALID"
	rejectionCodeScheduleInPast     = "CAMPAIGN_SCHEDULE_IN_PAST"
	rejectionCodeSegmentMissing     = "CAMPAIGN_SEGMENT_MISSING"
	rejectionCodeStatusTransition   = "CAMPAIGN_INVALID_STATUS_TRANSITION"
	rejectionCodeTerminal           = "CAMPAIGN_TERMINAL"
	rejectionCodeReasonEmpty        = "CAMPAIGN_FAILURE_REASON_EMPTY"
	rejectionCodeDeliveryInvalid    = "CAMPAIGN_DELIVERY_INVALID"
	rejectionCodeDeliveryNotStarted = "CAMPAIGN_DELIVERY_NOT_STARTED"
	rejectionCodeCommandUnknown     = "COMMAND_UNKNOWN"
)

// updatableFields lists the campaign fields a campaign.update command may
// change while the campaign is a draft.
var updatableFields = map[string]struct{}{
	"name":         {},
	"subject":      {},
	"body":         {},
	"sender_name":  {},
	"sender_email": {},
	"reply_to":     {},
	"segment_id":   {},
	"template_id":  {},
}

// decodePayload unmarshals a command payload. An absent payload decodes to
// the zero value; malformed JSON does not.
func decodePayload(cmd command.Command, dst any) bool {
	if len(cmd.PayloadJSON) == 0 {
		return true
	}
	return json.Unmarshal(cmd.PayloadJSON, dst) == nil
}

func rejectPayloadInvalid() command.Decision {
	return command.Reject(command.Rejection{
		Code:    rejectionCodePayloadInvalid,
		Message: "command payload is not valid JSON",
	})
}

// Decide returns the decision for a campaign command against current state.
// Decide is pure: it never mutates state, never touches storage, and a
// rejected command produces no events.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	if cmd.Type == command.TypeCreate {
		return decideCreate(state, cmd, now)
	}

	// Every other command requires an existing campaign.
	if !state.Created {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeNotCreated,
			Message: "campaign does not exist",
		})
	}

	switch cmd.Type {
	case command.TypeUpdate:
		return decideUpdate(state, cmd, now)
	case command.TypeSchedule:
		return decideSchedule(state, cmd, now)
	case command.TypeSend:
		return decideSend(state, cmd, now)
	case command.TypePause:
		return decidePause(state, cmd, now)
	case command.TypeCancel:
		return decideCancel(state, cmd, now)
	case command.TypeComplete:
		return decideComplete(state, cmd, now)
	case command.TypeFail:
		return decideFail(state, cmd, now)
	case command.TypeRecordDelivery:
		return decideRecordDelivery(state, cmd, now)
	default:
		return command.Reject(command.Rejection{
			Code:    rejectionCodeCommandUnknown,
			Message: "unknown campaign command " + string(cmd.Type),
		})
	}
}

func decideCreate(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Created {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeAlreadyExists,
			Message: "campaign already exists",
		})
	}
	var payload event.CampaignCreatedPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeNameEmpty,
			Message: "campaign name is required",
		})
	}
	subject := strings.TrimSpace(payload.Subject)
	if subject == "" {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeSubjectEmpty,
			Message: "campaign subject is required",
		})
	}
	sender, ok := ParseEmailAddress(payload.SenderEmail)
	if !ok {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeSenderEmailInvalid,
			Message: "sender email is invalid",
		})
	}
	replyTo := EmailAddress("")
	if strings.TrimSpace(payload.ReplyTo) != "" {
		replyTo, ok = ParseEmailAddress(payload.ReplyTo)
		if !ok {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeReplyToInvalid,
				Message: "reply-to email is invalid",
			})
		}
	}

	normalized := event.CampaignCreatedPayload{
		Name:        name,
		Subject:     subject,
		Body:        payload.Body,
		SenderName:  strings.TrimSpace(payload.SenderName),
		SenderEmail: sender.String(),
		ReplyTo:     replyTo.String(),
		SegmentID:   strings.TrimSpace(payload.SegmentID),
		TemplateID:  strings.TrimSpace(payload.TemplateID),
		Metadata:    payload.Metadata,
	}
	payloadJSON, _ := json.Marshal(normalized)

	return command.Accept(command.NewEvent(cmd, event.TypeCampaignCreated, payloadJSON, now().UTC()))
}

func decideUpdate(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Status != StatusDraft {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeNotDraft,
			Message: "only draft campaigns can be updated",
		})
	}
	var payload event.CampaignUpdatedPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	if len(payload.Fields) == 0 {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeUpdateEmpty,
			Message: "campaign update requires fields",
		})
	}

	normalized := make(map[string]string, len(payload.Fields))
	for key, value := range payload.Fields {
		if _, ok := updatableFields[key]; !ok {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeUpdateFieldInvalid,
				Message: "campaign field " + key + " cannot be updated",
			})
		}
		trimmed := strings.TrimSpace(value)
		switch key {
		case "name":
			if trimmed == "" {
				return command.Reject(command.Rejection{
					Code:    rejectionCodeNameEmpty,
					Message: "campaign name is required",
				})
			}
		case "subject":
			if trimmed == "" {
				return command.Reject(command.Rejection{
					Code:    rejectionCodeSubjectEmpty,
					Message: "campaign subject is required",
				})
			}
		case "sender_email":
			if _, ok := ParseEmailAddress(trimmed); !ok {
				return command.Reject(command.Rejection{
					Code:    rejectionCodeSenderEmailInvalid,
					Message: "sender email is invalid",
				})
			}
		case "reply_to":
			if trimmed != "" {
				if _, ok := ParseEmailAddress(trimmed); !ok {
					return command.Reject(command.Rejection{
						Code:    rejectionCodeReplyToInvalid,
						Message: "reply-to email is invalid",
					})
				}
			}
		case "body":
			// Body keeps surrounding whitespace; templates are
			// whitespace sensitive.
			trimmed = value
		}
		normalized[key] = trimmed
	}

	payloadJSON, _ := json.Marshal(event.CampaignUpdatedPayload{Fields: normalized})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignUpdated, payloadJSON, now().UTC()))
}

func decideSchedule(state State, cmd command.Command, now func() time.Time) command.Decision {
	if !IsStatusTransitionAllowed(state.Status, StatusScheduled) {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeStatusTransition,
			Message: "only draft or scheduled campaigns can be scheduled",
		})
	}
	var payload event.CampaignScheduledPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	at, err := time.Parse(time.RFC3339, payload.ScheduledAt)
	if err != nil {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeScheduleInvalid,
			Message: "scheduled_at must be an RFC 3339 timestamp",
		})
	}
	if !at.After(now()) {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeScheduleInPast,
			Message: "campaign cannot be scheduled in the past",
		})
	}

	payloadJSON, _ := json.Marshal(event.CampaignScheduledPayload{
		ScheduledAt: at.UTC().Format(time.RFC3339),
	})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignScheduled, payloadJSON, now().UTC()))
}

func decideSend(state State, cmd command.Command, now func() time.Time) command.Decision {
	if !IsStatusTransitionAllowed(state.Status, StatusSending) {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeStatusTransition,
			Message: "campaign cannot be sent from status " + string(state.Status),
		})
	}
	if state.SegmentID == "" {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeSegmentMissing,
			Message: "Campaign must have a segment to be sent",
		})
	}

	payloadJSON, _ := json.Marshal(event.CampaignSendingStartedPayload{
		SegmentID: state.SegmentID,
		Resumed:   state.Status == StatusPaused,
	})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignSendingStarted, payloadJSON, now().UTC()))
}

func decidePause(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Status != StatusSending {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeStatusTransition,
			Message: "only sending campaigns can be paused",
		})
	}
	var payload event.CampaignPausedPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	payloadJSON, _ := json.Marshal(event.CampaignPausedPayload{
		Reason: strings.TrimSpace(payload.Reason),
	})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignPaused, payloadJSON, now().UTC()))
}

func decideCancel(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Status.IsTerminal() {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeTerminal,
			Message: "campaign is already terminal",
		})
	}
	var payload event.CampaignCanceledPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	payloadJSON, _ := json.Marshal(event.CampaignCanceledPayload{
		Reason: strings.TrimSpace(payload.Reason),
	})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignCanceled, payloadJSON, now().UTC()))
}

func decideComplete(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Status != StatusSending {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeStatusTransition,
			Message: "only sending campaigns can be completed",
		})
	}
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignCompleted, nil, now().UTC()))
}

func decideFail(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Status.IsTerminal() {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeTerminal,
			Message: "campaign is already terminal",
		})
	}
	var payload event.CampaignFailedPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeReasonEmpty,
			Message: "campaign failure requires a reason",
		})
	}
	payloadJSON, _ := json.Marshal(event.CampaignFailedPayload{Reason: reason})
	return command.Accept(command.NewEvent(cmd, event.TypeCampaignFailed, payloadJSON, now().UTC()))
}

func decideRecordDelivery(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.SentAt == nil {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeDeliveryNotStarted,
			Message: "delivery cannot be recorded before sending starts",
		})
	}
	var payload event.DeliveryRecordedPayload
	if !decodePayload(cmd, &payload) {
		return rejectPayloadInvalid()
	}
	deltas := []int64{
		payload.Recipients, payload.Sent, payload.Delivered, payload.Opened,
		payload.Clicked, payload.Bounced, payload.Complaints, payload.Unsubscribed,
	}
	total := int64(0)
	for _, d := range deltas {
		if d < 0 {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDeliveryInvalid,
				Message: "delivery counters must not be negative",
			})
		}
		total += d
	}
	if total == 0 {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeDeliveryInvalid,
			Message: "delivery record requires at least one counter",
		})
	}
	payloadJSON, _ := json.Marshal(payload)
	return command.Accept(command.NewEvent(cmd, event.TypeDeliveryRecorded, payloadJSON, now().UTC()))
}
