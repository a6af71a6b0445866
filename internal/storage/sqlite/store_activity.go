package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/storage"
)

// ActivityStore methods (campaign activity timeline)

// SaveActivity upserts a timeline row keyed by (campaign id, version), which
// makes re-application of the same event a no-op.
func (s *Store) SaveActivity(ctx context.Context, record storage.ActivityRecord) error {
	record.CampaignID = strings.TrimSpace(record.CampaignID)
	if record.CampaignID == "" {
		return fmt.Errorf("campaign id is required")
	}
	if record.Version == 0 {
		return fmt.Errorf("event version is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO activity (campaign_id, version, event_type, actor_id, summary, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (campaign_id, version) DO UPDATE SET
		     event_type = excluded.event_type,
		     actor_id = excluded.actor_id,
		     summary = excluded.summary,
		     occurred_at = excluded.occurred_at`,
		record.CampaignID,
		int64(record.Version),
		string(record.EventType),
		record.ActorID,
		record.Summary,
		toMillis(record.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("save activity: %w", err)
	}
	return nil
}

// ListActivity returns the newest timeline rows for a campaign.
func (s *Store) ListActivity(ctx context.Context, campaignID string, limit int) ([]storage.ActivityRecord, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, fmt.Errorf("campaign id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT campaign_id, version, event_type, actor_id, summary, occurred_at
		 FROM activity
		 WHERE campaign_id = ?
		 ORDER BY version DESC
		 LIMIT ?`,
		campaignID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	var records []storage.ActivityRecord
	if err := scanRows(rows, func() error {
		var record storage.ActivityRecord
		var version, occurredAtMillis int64
		var eventType string
		if err := rows.Scan(
			&record.CampaignID,
			&version,
			&eventType,
			&record.ActorID,
			&record.Summary,
			&occurredAtMillis,
		); err != nil {
			return err
		}
		record.Version = uint64(version)
		record.EventType = event.Type(eventType)
		record.OccurredAt = fromMillis(occurredAtMillis)
		records = append(records, record)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return records, nil
}

// DeleteAllActivity clears the timeline for a projection rebuild.
func (s *Store) DeleteAllActivity(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM activity`); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
