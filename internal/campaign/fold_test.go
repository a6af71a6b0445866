package campaign

import (
	"reflect"
	"testing"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
)

func TestFoldCampaignCreatedSetsFields(t *testing.T) {
	updated := Fold(State{}, event.Event{
		Type:        event.TypeCampaignCreated,
		PayloadJSON: []byte(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","segment_id":"seg-1"}`),
	})
	if !updated.Created {
		t.Fatal("expected state to be marked created")
	}
	if updated.Name != "Launch" {
		t.Fatalf("name = %s, want %s", updated.Name, "Launch")
	}
	if updated.Subject != "Hi" {
		t.Fatalf("subject = %s, want %s", updated.Subject, "Hi")
	}
	if updated.Status != StatusDraft {
		t.Fatalf("status = %s, want %s", updated.Status, StatusDraft)
	}
	if updated.Version != 1 {
		t.Fatalf("version = %d, want 1", updated.Version)
	}
}

func TestFoldCampaignUpdatedSetsFields(t *testing.T) {
	state := State{Created: true, Status: StatusDraft, Name: "Old", Subject: "Old subject"}
	updated := Fold(state, event.Event{
		Type:        event.TypeCampaignUpdated,
		PayloadJSON: []byte(`{"fields":{"name":"Launch","subject":"Hello","segment_id":"seg-2"}}`),
	})
	if updated.Name != "Launch" {
		t.Fatalf("name = %s, want %s", updated.Name, "Launch")
	}
	if updated.Subject != "Hello" {
		t.Fatalf("subject = %s, want %s", updated.Subject, "Hello")
	}
	if updated.SegmentID != "seg-2" {
		t.Fatalf("segment = %s, want %s", updated.SegmentID, "seg-2")
	}
}

func TestFoldScheduledParsesTimestamp(t *testing.T) {
	state := State{Created: true, Status: StatusDraft}
	updated := Fold(state, event.Event{
		Type:        event.TypeCampaignScheduled,
		PayloadJSON: []byte(`{"scheduled_at":"2026-03-02T12:00:00Z"}`),
	})
	if updated.Status != StatusScheduled {
		t.Fatalf("status = %s, want %s", updated.Status, StatusScheduled)
	}
	want := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	if updated.ScheduledAt == nil || !updated.ScheduledAt.Equal(want) {
		t.Fatalf("scheduledAt = %v, want %v", updated.ScheduledAt, want)
	}
}

func TestFoldSendingStartedSetsSentAtOnce(t *testing.T) {
	first := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	state := State{Created: true, Status: StatusDraft, SegmentID: "seg-1"}
	state = Fold(state, event.Event{Type: event.TypeCampaignSendingStarted, Timestamp: first})
	state = Fold(state, event.Event{Type: event.TypeCampaignPaused, Timestamp: first.Add(30 * time.Minute)})
	state = Fold(state, event.Event{Type: event.TypeCampaignSendingStarted, Timestamp: second})

	if state.SentAt == nil || !state.SentAt.Equal(first) {
		t.Fatalf("sentAt = %v, want %v", state.SentAt, first)
	}
	if state.Status != StatusSending {
		t.Fatalf("status = %s, want %s", state.Status, StatusSending)
	}
}

func TestFoldFailedRecordsReason(t *testing.T) {
	state := State{Created: true, Status: StatusSending}
	updated := Fold(state, event.Event{
		Type:        event.TypeCampaignFailed,
		PayloadJSON: []byte(`{"reason":"provider unavailable"}`),
	})
	if updated.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", updated.Status, StatusFailed)
	}
	if updated.FailureReason != "provider unavailable" {
		t.Fatalf("reason = %q, want %q", updated.FailureReason, "provider unavailable")
	}
}

func TestFoldUnknownTypeOnlyAdvancesVersion(t *testing.T) {
	state := State{Created: true, Status: StatusDraft, Version: 3}
	updated := Fold(state, event.Event{Type: event.Type("campaign.unknown")})
	if updated.Version != 4 {
		t.Fatalf("version = %d, want 4", updated.Version)
	}
	updated.Version = state.Version
	if !reflect.DeepEqual(state, updated) {
		t.Fatalf("state changed: %+v != %+v", state, updated)
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	ts := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	stream := []event.Event{
		{Type: event.TypeCampaignCreated, Timestamp: ts, PayloadJSON: []byte(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","segment_id":"seg-1"}`)},
		{Type: event.TypeCampaignScheduled, Timestamp: ts, PayloadJSON: []byte(`{"scheduled_at":"2026-03-02T12:00:00Z"}`)},
		{Type: event.TypeCampaignSendingStarted, Timestamp: ts.Add(time.Hour)},
		{Type: event.TypeDeliveryRecorded, Timestamp: ts.Add(2 * time.Hour), PayloadJSON: []byte(`{"sent":100,"delivered":98}`)},
		{Type: event.TypeCampaignCompleted, Timestamp: ts.Add(3 * time.Hour)},
	}

	incremental := State{}
	for _, evt := range stream {
		incremental = Fold(incremental, evt)
	}
	replayed := Replay(stream)

	if !reflect.DeepEqual(incremental, replayed) {
		t.Fatalf("replayed state diverged: %+v != %+v", replayed, incremental)
	}
	if replayed.Version != uint64(len(stream)) {
		t.Fatalf("version = %d, want %d", replayed.Version, len(stream))
	}
	if replayed.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", replayed.Status, StatusCompleted)
	}
}

func TestFoldDoesNotAliasMetadata(t *testing.T) {
	state := Fold(State{}, event.Event{
		Type:        event.TypeCampaignCreated,
		PayloadJSON: []byte(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","metadata":{"tier":"gold"}}`),
	})
	clone := state.MetadataCopy()
	clone["tier"] = "bronze"
	if state.Metadata["tier"] != "gold" {
		t.Fatalf("metadata mutated through copy: %q", state.Metadata["tier"])
	}
}
