package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mailforge/campaignd/internal/campaign"
	"github.com/mailforge/campaignd/internal/campaign/command"
	"github.com/mailforge/campaignd/internal/campaign/event"
	apperrors "github.com/mailforge/campaignd/internal/platform/errors"
	"github.com/mailforge/campaignd/internal/platform/id"
	"github.com/mailforge/campaignd/internal/storage"
)

// conflictRetries bounds reload-and-retry attempts after a version conflict.
// Conflicts on the same campaign are rare; a losing writer usually wins on
// the first reload.
const conflictRetries = 3

// Executor loads a campaign stream, decides a command, and appends the
// resulting events. One Executor serves all campaigns; per-campaign
// concurrency control happens in the event store.
type Executor struct {
	events storage.EventStore
	clock  func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// NewExecutor creates an Executor with default clock and id generation.
func NewExecutor(events storage.EventStore) *Executor {
	return &Executor{
		events: events,
		clock:  time.Now,
		newID:  id.New,
		tracer: otel.Tracer("campaignd/service"),
	}
}

// Result reports the outcome of an accepted command.
type Result struct {
	State  campaign.State
	Events []event.Event
}

// Execute replays the campaign stream, decides the command, and appends
// accepted events under the replayed version. Rejections come back as coded
// errors; version conflicts are retried against a freshly replayed stream.
func (e *Executor) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	if e == nil || e.events == nil {
		return Result{}, fmt.Errorf("event store is not configured")
	}
	campaignID, err := id.Normalize(cmd.CampaignID)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeCampaignInvalidID, "campaign id is invalid", err)
	}
	cmd.CampaignID = campaignID

	ctx, span := e.tracer.Start(ctx, "campaign.execute",
		trace.WithAttributes(
			attribute.String("campaign.id", cmd.CampaignID),
			attribute.String("command.type", string(cmd.Type)),
		))
	defer span.End()

	var conflict error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		stream, err := e.events.ListEvents(ctx, cmd.CampaignID)
		if err != nil {
			return Result{}, fmt.Errorf("load campaign stream: %w", err)
		}
		state := campaign.Replay(stream)

		decision := campaign.Decide(state, cmd, e.clock)
		if !decision.Accepted() {
			rejection := decision.Rejections[0]
			return Result{}, apperrors.New(apperrors.Code(rejection.Code), rejection.Message)
		}

		appended, err := e.events.AppendEvents(ctx, cmd.CampaignID, state.Version, decision.Events)
		if errors.Is(err, storage.ErrVersionConflict) {
			conflict = err
			span.AddEvent("version conflict", trace.WithAttributes(
				attribute.Int("attempt", attempt+1),
			))
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("append campaign events: %w", err)
		}

		for _, evt := range appended {
			state = campaign.Fold(state, evt)
		}
		span.SetAttributes(attribute.Int64("campaign.version", int64(state.Version)))
		return Result{State: state, Events: appended}, nil
	}
	return Result{}, conflict
}

// CreateInput carries the fields for a new campaign draft.
type CreateInput struct {
	CampaignID  string
	ActorID     string
	RequestID   string
	Name        string
	Subject     string
	Body        string
	SenderName  string
	SenderEmail string
	ReplyTo     string
	SegmentID   string
	TemplateID  string
	Metadata    map[string]string
}

// Create opens a new campaign draft. A campaign id is generated when the
// caller does not supply one.
func (e *Executor) Create(ctx context.Context, in CreateInput) (Result, error) {
	campaignID := in.CampaignID
	if campaignID == "" {
		generated, err := e.newID()
		if err != nil {
			return Result{}, fmt.Errorf("generate campaign id: %w", err)
		}
		campaignID = generated
	}
	payload, err := json.Marshal(event.CampaignCreatedPayload{
		Name:        in.Name,
		Subject:     in.Subject,
		Body:        in.Body,
		SenderName:  in.SenderName,
		SenderEmail: in.SenderEmail,
		ReplyTo:     in.ReplyTo,
		SegmentID:   in.SegmentID,
		TemplateID:  in.TemplateID,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode create payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeCreate,
		ActorID:     in.ActorID,
		RequestID:   in.RequestID,
		PayloadJSON: payload,
	})
}

// Update changes draft campaign fields. Fields holds only the keys to change.
func (e *Executor) Update(ctx context.Context, campaignID, actorID string, fields map[string]string) (Result, error) {
	payload, err := json.Marshal(event.CampaignUpdatedPayload{Fields: fields})
	if err != nil {
		return Result{}, fmt.Errorf("encode update payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeUpdate,
		ActorID:     actorID,
		PayloadJSON: payload,
	})
}

// Schedule sets a future send time for a campaign.
func (e *Executor) Schedule(ctx context.Context, campaignID, actorID string, at time.Time) (Result, error) {
	payload, err := json.Marshal(event.CampaignScheduledPayload{
		ScheduledAt: at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode schedule payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeSchedule,
		ActorID:     actorID,
		PayloadJSON: payload,
	})
}

// Send starts (or resumes) sending a campaign.
func (e *Executor) Send(ctx context.Context, campaignID, actorID string) (Result, error) {
	return e.Execute(ctx, command.Command{
		CampaignID: campaignID,
		Type:       command.TypeSend,
		ActorID:    actorID,
	})
}

// Pause pauses an in-flight send.
func (e *Executor) Pause(ctx context.Context, campaignID, actorID, reason string) (Result, error) {
	payload, err := json.Marshal(event.CampaignPausedPayload{Reason: reason})
	if err != nil {
		return Result{}, fmt.Errorf("encode pause payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypePause,
		ActorID:     actorID,
		PayloadJSON: payload,
	})
}

// Cancel cancels a non-terminal campaign.
func (e *Executor) Cancel(ctx context.Context, campaignID, actorID, reason string) (Result, error) {
	payload, err := json.Marshal(event.CampaignCanceledPayload{Reason: reason})
	if err != nil {
		return Result{}, fmt.Errorf("encode cancel payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeCancel,
		ActorID:     actorID,
		PayloadJSON: payload,
	})
}

// Complete marks a sending campaign as completed.
func (e *Executor) Complete(ctx context.Context, campaignID, actorID string) (Result, error) {
	return e.Execute(ctx, command.Command{
		CampaignID: campaignID,
		Type:       command.TypeComplete,
		ActorID:    actorID,
	})
}

// Fail marks a non-terminal campaign as failed with a reason.
func (e *Executor) Fail(ctx context.Context, campaignID, actorID, reason string) (Result, error) {
	payload, err := json.Marshal(event.CampaignFailedPayload{Reason: reason})
	if err != nil {
		return Result{}, fmt.Errorf("encode fail payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeFail,
		ActorID:     actorID,
		PayloadJSON: payload,
	})
}

// RecordDelivery folds delivery counter deltas into the stream.
func (e *Executor) RecordDelivery(ctx context.Context, campaignID string, deltas event.DeliveryRecordedPayload) (Result, error) {
	payload, err := json.Marshal(deltas)
	if err != nil {
		return Result{}, fmt.Errorf("encode delivery payload: %w", err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeRecordDelivery,
		ActorID:     "system",
		PayloadJSON: payload,
	})
}
