package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// Publisher delivers appended events to an external message bus. Publication
// is fire-and-forget from the aggregate's perspective: a failure never rolls
// back the append, it only keeps the outbox entry pending.
type Publisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

// LogPublisher writes published events to the process log. It stands in for a
// real bus in single-node deployments and tests.
type LogPublisher struct {
	Logger *log.Logger
}

// Publish logs the event envelope.
func (p LogPublisher) Publish(_ context.Context, evt event.Event) error {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("publish event campaign_id=%s version=%d type=%s", evt.CampaignID, evt.Version, evt.Type)
	return nil
}

const (
	defaultRelayBackoff     = 30 * time.Second
	defaultRelayMaxAttempts = 8
	relayMaxBackoff         = 15 * time.Minute
)

// Relay drains the publish outbox into a Publisher. Failed entries are
// retried with exponential backoff and dead-lettered once the attempt limit
// is reached.
type Relay struct {
	outbox      storage.OutboxStore
	publisher   Publisher
	batchSize   int
	backoff     time.Duration
	maxAttempts int
	now         func() time.Time
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRetryBackoff sets the base delay before a failed entry is retried.
// The delay doubles on every subsequent failure. Zero retries immediately.
func WithRetryBackoff(d time.Duration) RelayOption {
	return func(r *Relay) { r.backoff = d }
}

// WithMaxAttempts sets the attempt count after which a failed entry is
// dead-lettered. Zero or negative disables dead-lettering.
func WithMaxAttempts(n int) RelayOption {
	return func(r *Relay) { r.maxAttempts = n }
}

// NewRelay creates an outbox relay.
func NewRelay(outbox storage.OutboxStore, publisher Publisher, opts ...RelayOption) *Relay {
	relay := &Relay{
		outbox:      outbox,
		publisher:   publisher,
		batchSize:   100,
		backoff:     defaultRelayBackoff,
		maxAttempts: defaultRelayMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(relay)
	}
	return relay
}

func (r *Relay) retryAt(attempts int) time.Time {
	delay := r.backoff
	for i := 1; i < attempts && delay < relayMaxBackoff; i++ {
		delay *= 2
	}
	if delay > relayMaxBackoff {
		delay = relayMaxBackoff
	}
	return r.now().UTC().Add(delay)
}

// DrainOnce publishes one batch of pending outbox entries and returns how
// many were published. A failed entry is rescheduled or dead-lettered; the
// relay moves on so one poisoned event cannot starve the queue.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	if r == nil || r.outbox == nil || r.publisher == nil {
		return 0, fmt.Errorf("outbox relay is not configured")
	}
	entries, err := r.outbox.ListPendingOutbox(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox: %w", err)
	}

	published := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		if err := r.publisher.Publish(ctx, entry.Event); err != nil {
			attempts := entry.Attempts + 1
			if r.maxAttempts > 0 && attempts >= r.maxAttempts {
				if markErr := r.outbox.MarkOutboxDead(ctx, entry.ID, err.Error()); markErr != nil {
					return published, fmt.Errorf("mark outbox dead: %w", markErr)
				}
				log.Printf("outbox entry %d dead after %d attempts: %v", entry.ID, attempts, err)
				continue
			}
			if markErr := r.outbox.MarkOutboxFailed(ctx, entry.ID, err.Error(), r.retryAt(attempts)); markErr != nil {
				return published, fmt.Errorf("mark outbox failed: %w", markErr)
			}
			continue
		}
		if err := r.outbox.MarkOutboxPublished(ctx, entry.ID); err != nil {
			return published, fmt.Errorf("mark outbox published: %w", err)
		}
		published++
	}
	return published, nil
}

// Run drains the outbox on an interval until the context is canceled.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.DrainOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("outbox drain: %v", err)
			}
		}
	}
}
