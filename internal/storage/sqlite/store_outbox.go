package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// OutboxStore methods (external publish queue)

// ListPendingOutbox returns unpublished entries in enqueue order, excluding
// dead entries and entries whose retry time has not arrived.
func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]storage.OutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, campaign_id, version, event_type, timestamp, actor_id, request_id, payload_json, attempts, last_error, next_attempt_at, enqueued_at
		 FROM outbox
		 WHERE dead = 0 AND next_attempt_at <= ?
		 ORDER BY id ASC
		 LIMIT ?`,
		toMillis(time.Now()),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}

	var entries []storage.OutboxEntry
	if err := scanRows(rows, func() error {
		var entry storage.OutboxEntry
		var version, timestampMillis, nextAttemptMillis, enqueuedAtMillis int64
		var eventType string
		if err := rows.Scan(
			&entry.ID,
			&entry.Event.CampaignID,
			&version,
			&eventType,
			&timestampMillis,
			&entry.Event.ActorID,
			&entry.Event.RequestID,
			&entry.Event.PayloadJSON,
			&entry.Attempts,
			&entry.LastError,
			&nextAttemptMillis,
			&enqueuedAtMillis,
		); err != nil {
			return err
		}
		entry.Event.Version = uint64(version)
		entry.Event.Type = event.Type(eventType)
		entry.Event.Timestamp = fromMillis(timestampMillis)
		if nextAttemptMillis > 0 {
			entry.NextAttemptAt = fromMillis(nextAttemptMillis)
		}
		entry.EnqueuedAt = fromMillis(enqueuedAtMillis)
		entries = append(entries, entry)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan outbox: %w", err)
	}
	return entries, nil
}

// MarkOutboxPublished removes an entry after successful publication.
func (s *Store) MarkOutboxPublished(ctx context.Context, id int64) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// MarkOutboxFailed records a failed publication attempt; the entry stays
// pending and becomes eligible again at retryAt.
func (s *Store) MarkOutboxFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = ?, next_attempt_at = ? WHERE id = ?`,
		reason,
		toMillis(retryAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

// MarkOutboxDead removes an entry from the pending set permanently. The row
// is kept for inspection.
func (s *Store) MarkOutboxDead(ctx context.Context, id int64, reason string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = ?, dead = 1 WHERE id = ?`,
		reason,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox dead: %w", err)
	}
	return nil
}

// SummarizeOutbox counts pending and dead entries.
func (s *Store) SummarizeOutbox(ctx context.Context) (storage.OutboxSummary, error) {
	var summary storage.OutboxSummary
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN dead = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dead = 1 THEN 1 ELSE 0 END), 0)
		 FROM outbox`,
	).Scan(&summary.Pending, &summary.Dead)
	if err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("summarize outbox: %w", err)
	}
	return summary, nil
}
