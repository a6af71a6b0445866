package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mailforge/campaignd/internal/campaign"
	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// CampaignProjectionName is the checkpoint key for the campaign read model.
const CampaignProjectionName = "campaigns"

// campaignHandler is the apply function for one event type. Handlers receive
// the existing record (zero-valued for campaign.created) and return the
// updated one.
type campaignHandler func(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error)

// campaignHandlers maps each event type to its fold into the read model.
var campaignHandlers = map[event.Type]campaignHandler{
	event.TypeCampaignCreated:        applyCampaignCreated,
	event.TypeCampaignUpdated:        applyCampaignUpdated,
	event.TypeCampaignScheduled:      applyCampaignScheduled,
	event.TypeCampaignSendingStarted: applyCampaignSendingStarted,
	event.TypeCampaignPaused:         applyCampaignPaused,
	event.TypeCampaignCanceled:       applyCampaignCanceled,
	event.TypeCampaignCompleted:      applyCampaignCompleted,
	event.TypeCampaignFailed:         applyCampaignFailed,
	event.TypeDeliveryRecorded:       applyDeliveryRecorded,
}

// CampaignProjection maintains the denormalized campaign read model with
// derived delivery statistics. The record's version watermark makes
// re-application idempotent: events at or below the watermark are skipped.
type CampaignProjection struct {
	store storage.CampaignStore
}

// NewCampaignProjection creates the campaign read-model projection.
func NewCampaignProjection(store storage.CampaignStore) *CampaignProjection {
	return &CampaignProjection{store: store}
}

// Name implements Projection.
func (p *CampaignProjection) Name() string { return CampaignProjectionName }

// Handles implements Projection.
func (p *CampaignProjection) Handles(eventType event.Type) bool {
	_, ok := campaignHandlers[eventType]
	return ok
}

// Apply folds one event into the campaign record.
func (p *CampaignProjection) Apply(ctx context.Context, evt event.Event) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("campaign store is not configured")
	}
	handler, ok := campaignHandlers[evt.Type]
	if !ok {
		return fmt.Errorf("unhandled projection event type: %s", evt.Type)
	}

	record, err := p.store.GetCampaign(ctx, evt.CampaignID)
	if errors.Is(err, storage.ErrNotFound) {
		if evt.Type != event.TypeCampaignCreated {
			return &ConsistencyError{
				Projection: p.Name(),
				EventType:  evt.Type,
				CampaignID: evt.CampaignID,
				Version:    evt.Version,
				Reason:     "read-model row does not exist",
			}
		}
		record = storage.CampaignRecord{}
	} else if err != nil {
		return fmt.Errorf("load campaign record: %w", err)
	}

	// Watermark check: at-least-once delivery means the same event can
	// arrive twice. Applying below the watermark is a no-op.
	if evt.Version <= record.Version {
		return nil
	}

	updated, err := handler(record, evt)
	if err != nil {
		return err
	}
	updated.ID = evt.CampaignID
	updated.Version = evt.Version
	updated.UpdatedAt = ensureTimestamp(evt.Timestamp)
	if updated.CreatedAt.IsZero() {
		updated.CreatedAt = updated.UpdatedAt
	}

	if err := p.store.SaveCampaign(ctx, updated); err != nil {
		return fmt.Errorf("save campaign record: %w", err)
	}
	return nil
}

// Reset clears the campaign read model.
func (p *CampaignProjection) Reset(ctx context.Context) error {
	if err := p.store.DeleteAllCampaigns(ctx); err != nil {
		return fmt.Errorf("reset campaign projection: %w", err)
	}
	return nil
}

// Get returns the read model for a campaign id.
func (p *CampaignProjection) Get(ctx context.Context, id string) (storage.CampaignRecord, error) {
	return p.store.GetCampaign(ctx, id)
}

// Find returns read models matching the query.
func (p *CampaignProjection) Find(ctx context.Context, query storage.CampaignQuery) ([]storage.CampaignRecord, error) {
	return p.store.FindCampaigns(ctx, query)
}

func applyCampaignCreated(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	var payload event.CampaignCreatedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, evt.Type); err != nil {
		return storage.CampaignRecord{}, err
	}
	createdAt := ensureTimestamp(evt.Timestamp)
	record.Name = payload.Name
	record.Subject = payload.Subject
	record.Body = payload.Body
	record.SenderName = payload.SenderName
	record.SenderEmail = payload.SenderEmail
	record.ReplyTo = payload.ReplyTo
	record.SegmentID = payload.SegmentID
	record.TemplateID = payload.TemplateID
	record.Metadata = payload.Metadata
	record.Status = campaign.StatusDraft
	record.CreatedAt = createdAt
	return record, nil
}

func applyCampaignUpdated(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	var payload event.CampaignUpdatedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, evt.Type); err != nil {
		return storage.CampaignRecord{}, err
	}
	for key, value := range payload.Fields {
		switch key {
		case "name":
			record.Name = value
		case "subject":
			record.Subject = value
		case "body":
			record.Body = value
		case "sender_name":
			record.SenderName = value
		case "sender_email":
			record.SenderEmail = value
		case "reply_to":
			record.ReplyTo = value
		case "segment_id":
			record.SegmentID = value
		case "template_id":
			record.TemplateID = value
		}
	}
	return record, nil
}

func applyCampaignScheduled(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	var payload event.CampaignScheduledPayload
	if err := decodePayload(evt.PayloadJSON, &payload, evt.Type); err != nil {
		return storage.CampaignRecord{}, err
	}
	at, err := time.Parse(time.RFC3339, payload.ScheduledAt)
	if err != nil {
		return storage.CampaignRecord{}, fmt.Errorf("decode %s scheduled_at: %w", evt.Type, err)
	}
	at = at.UTC()
	record.Status = campaign.StatusScheduled
	record.ScheduledAt = &at
	return record, nil
}

func applyCampaignSendingStarted(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	record.Status = campaign.StatusSending
	if record.SentAt == nil {
		at := ensureTimestamp(evt.Timestamp)
		record.SentAt = &at
	}
	return record, nil
}

func applyCampaignPaused(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	record.Status = campaign.StatusPaused
	return record, nil
}

func applyCampaignCanceled(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	record.Status = campaign.StatusCanceled
	return record, nil
}

func applyCampaignCompleted(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	record.Status = campaign.StatusCompleted
	at := ensureTimestamp(evt.Timestamp)
	record.CompletedAt = &at
	return record, nil
}

func applyCampaignFailed(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	var payload event.CampaignFailedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, evt.Type); err != nil {
		return storage.CampaignRecord{}, err
	}
	record.Status = campaign.StatusFailed
	record.FailureReason = payload.Reason
	return record, nil
}

func applyDeliveryRecorded(record storage.CampaignRecord, evt event.Event) (storage.CampaignRecord, error) {
	var payload event.DeliveryRecordedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, evt.Type); err != nil {
		return storage.CampaignRecord{}, err
	}
	record.Stats.Recipients += payload.Recipients
	record.Stats.Sent += payload.Sent
	record.Stats.Delivered += payload.Delivered
	record.Stats.Opened += payload.Opened
	record.Stats.Clicked += payload.Clicked
	record.Stats.Bounced += payload.Bounced
	record.Stats.Complaints += payload.Complaints
	record.Stats.Unsubscribed += payload.Unsubscribed
	return record, nil
}

// ensureTimestamp normalizes timestamps so projections always persist UTC,
// defaulting to now for events that do not set time.
func ensureTimestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func decodePayload(data []byte, target any, eventType event.Type) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	return nil
}
