package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
)

type scriptedPublisher struct {
	failures  int
	published []event.Event
}

func (p *scriptedPublisher) Publish(_ context.Context, evt event.Event) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, evt)
	return nil
}

func TestRelayDrainsOutbox(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	if _, err := executor.Create(ctx, CreateInput{
		ActorID:     "user-1",
		Name:        "Launch",
		Subject:     "Hi",
		SenderEmail: "news@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	publisher := &scriptedPublisher{}
	relay := NewRelay(store, publisher)
	published, err := relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if published != 1 {
		t.Fatalf("published = %d, want 1", published)
	}
	if publisher.published[0].Type != event.TypeCampaignCreated {
		t.Fatalf("type = %s, want %s", publisher.published[0].Type, event.TypeCampaignCreated)
	}

	// Nothing left to publish.
	published, err = relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain again: %v", err)
	}
	if published != 0 {
		t.Fatalf("published = %d, want 0", published)
	}
}

func TestRelayKeepsFailedEntriesPending(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	if _, err := executor.Create(ctx, CreateInput{
		ActorID:     "user-1",
		Name:        "Launch",
		Subject:     "Hi",
		SenderEmail: "news@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	publisher := &scriptedPublisher{failures: 1}
	relay := NewRelay(store, publisher, WithRetryBackoff(0))

	published, err := relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if published != 0 {
		t.Fatalf("published = %d, want 0", published)
	}

	entries, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(entries) != 1 || entries[0].Attempts != 1 {
		t.Fatalf("entries = %+v, want one failed attempt", entries)
	}

	published, err = relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain retry: %v", err)
	}
	if published != 1 {
		t.Fatalf("published = %d, want 1", published)
	}
}

func TestRelayBacksOffFailedEntries(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	if _, err := executor.Create(ctx, CreateInput{
		ActorID:     "user-1",
		Name:        "Launch",
		Subject:     "Hi",
		SenderEmail: "news@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	publisher := &scriptedPublisher{failures: 2}
	relay := NewRelay(store, publisher, WithRetryBackoff(time.Hour))

	if _, err := relay.DrainOnce(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// The failed entry is scheduled an hour out, so a second drain finds
	// nothing to publish.
	published, err := relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("drain again: %v", err)
	}
	if published != 0 {
		t.Fatalf("published = %d, want 0 while backing off", published)
	}
	if publisher.failures != 1 {
		t.Fatalf("publisher saw a retry during the backoff window")
	}
}

func TestRelayDeadLettersAfterMaxAttempts(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	if _, err := executor.Create(ctx, CreateInput{
		ActorID:     "user-1",
		Name:        "Launch",
		Subject:     "Hi",
		SenderEmail: "news@example.com",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	publisher := &scriptedPublisher{failures: 10}
	relay := NewRelay(store, publisher, WithRetryBackoff(0), WithMaxAttempts(2))

	for i := 0; i < 2; i++ {
		if _, err := relay.DrainOnce(ctx); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}

	entries, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0 after dead-letter", len(entries))
	}

	summary, err := store.SummarizeOutbox(ctx)
	if err != nil {
		t.Fatalf("summarize outbox: %v", err)
	}
	if summary.Dead != 1 {
		t.Fatalf("dead = %d, want 1", summary.Dead)
	}
}
