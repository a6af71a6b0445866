package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// EventStore methods (campaign event journal)

// AppendEvents atomically appends events to a campaign stream under an
// expected-version check. Versions are assigned here, not by callers; the
// UNIQUE (campaign_id, version) constraint backstops the in-transaction head
// check against concurrent writers.
func (s *Store) AppendEvents(ctx context.Context, campaignID string, expectedVersion uint64, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("campaign id is required")
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("at least one event is required")
	}

	validated := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if evt.CampaignID != campaignID {
			return nil, fmt.Errorf("event campaign id %q does not match stream %q", evt.CampaignID, campaignID)
		}
		v, err := s.eventRegistry.ValidateForAppend(evt)
		if err != nil {
			return nil, err
		}
		if v.Timestamp.IsZero() {
			v.Timestamp = time.Now().UTC()
		}
		v.Timestamp = v.Timestamp.UTC().Truncate(time.Millisecond)
		validated = append(validated, v)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var head uint64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM events WHERE campaign_id = ?`,
		campaignID,
	)
	if err := row.Scan(&head); err != nil {
		return nil, fmt.Errorf("read stream head: %w", err)
	}
	if head != expectedVersion {
		return nil, storage.ErrVersionConflict
	}

	for i := range validated {
		validated[i].Version = expectedVersion + uint64(i) + 1
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (campaign_id, version, event_type, timestamp, actor_id, request_id, payload_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			campaignID,
			int64(validated[i].Version),
			string(validated[i].Type),
			toMillis(validated[i].Timestamp),
			validated[i].ActorID,
			validated[i].RequestID,
			validated[i].PayloadJSON,
		)
		if err != nil {
			if isConstraintError(err) {
				return nil, storage.ErrVersionConflict
			}
			return nil, fmt.Errorf("append event: %w", err)
		}

		if s.outboxEnabled {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO outbox (campaign_id, version, event_type, timestamp, actor_id, request_id, payload_json, enqueued_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				campaignID,
				int64(validated[i].Version),
				string(validated[i].Type),
				toMillis(validated[i].Timestamp),
				validated[i].ActorID,
				validated[i].RequestID,
				validated[i].PayloadJSON,
				toMillis(time.Now()),
			)
			if err != nil {
				return nil, fmt.Errorf("enqueue outbox: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		if isConstraintError(err) {
			return nil, storage.ErrVersionConflict
		}
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return validated, nil
}

// ListEvents returns the full ordered stream for a campaign.
func (s *Store) ListEvents(ctx context.Context, campaignID string) ([]event.Event, error) {
	return s.ListEventsFrom(ctx, campaignID, 0)
}

// ListEventsFrom returns events strictly after afterVersion, ordered by
// version ascending.
func (s *Store) ListEventsFrom(ctx context.Context, campaignID string, afterVersion uint64) ([]event.Event, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("campaign id is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT campaign_id, version, event_type, timestamp, actor_id, request_id, payload_json
		 FROM events
		 WHERE campaign_id = ? AND version > ?
		 ORDER BY version ASC`,
		campaignID,
		int64(afterVersion),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var events []event.Event
	if err := scanRows(rows, func() error {
		evt, err := scanEvent(rows)
		if err != nil {
			return err
		}
		events = append(events, evt)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// LatestVersion returns the stream head version for a campaign, or 0 when
// the stream is empty.
func (s *Store) LatestVersion(ctx context.Context, campaignID string) (uint64, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return 0, fmt.Errorf("campaign id is required")
	}
	var head uint64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM events WHERE campaign_id = ?`,
		campaignID,
	)
	if err := row.Scan(&head); err != nil {
		return 0, fmt.Errorf("read stream head: %w", err)
	}
	return head, nil
}

// ListFeed returns appended events across all campaigns in commit order,
// strictly after feed id afterID.
func (s *Store) ListFeed(ctx context.Context, afterID int64, limit int) ([]storage.FeedEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT feed_id, campaign_id, version, event_type, timestamp, actor_id, request_id, payload_json
		 FROM events
		 WHERE feed_id > ?
		 ORDER BY feed_id ASC
		 LIMIT ?`,
		afterID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	var entries []storage.FeedEntry
	if err := scanRows(rows, func() error {
		var entry storage.FeedEntry
		var version, timestampMillis int64
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
		); err != nil {
			return err
		}
		entry.Event.Version = uint64(version)
		entry.Event.Type = event.Type(eventType)
		entry.Event.Timestamp = fromMillis(timestampMillis)
		entries = append(entries, entry)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var evt event.Event
	var version, timestampMillis int64
	var eventType string
	if err := row.Scan(
		&evt.CampaignID,
		&version,
		&eventType,
		&timestampMillis,
		&evt.ActorID,
		&evt.RequestID,
		&evt.PayloadJSON,
	); err != nil {
		return event.Event{}, err
	}
	evt.Version = uint64(version)
	evt.Type = event.Type(eventType)
	evt.Timestamp = fromMillis(timestampMillis)
	return evt, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
