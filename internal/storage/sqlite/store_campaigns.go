package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mailforge/campaignd/internal/campaign"
	"github.com/mailforge/campaignd/internal/storage"
)

// CampaignStore methods (campaign read model)

const campaignColumns = `id, name, subject, body, sender_name, sender_email, reply_to,
	segment_id, template_id, metadata_json, status, scheduled_at, sent_at, completed_at,
	failure_reason, stat_recipients, stat_sent, stat_delivered, stat_opened, stat_clicked,
	stat_bounced, stat_complaints, stat_unsubscribed, version, created_at, updated_at`

// GetCampaign returns the read model for a campaign id.
// Returns storage.ErrNotFound if no record exists.
func (s *Store) GetCampaign(ctx context.Context, id string) (storage.CampaignRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.CampaignRecord{}, fmt.Errorf("campaign id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	record, err := scanCampaign(row)
	if isNoRows(err) {
		return storage.CampaignRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.CampaignRecord{}, fmt.Errorf("get campaign: %w", err)
	}
	return record, nil
}

// SaveCampaign upserts a campaign record.
func (s *Store) SaveCampaign(ctx context.Context, record storage.CampaignRecord) error {
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return fmt.Errorf("campaign id is required")
	}
	metadataJSON := []byte("{}")
	if len(record.Metadata) > 0 {
		encoded, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("encode campaign metadata: %w", err)
		}
		metadataJSON = encoded
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     subject = excluded.subject,
		     body = excluded.body,
		     sender_name = excluded.sender_name,
		     sender_email = excluded.sender_email,
		     reply_to = excluded.reply_to,
		     segment_id = excluded.segment_id,
		     template_id = excluded.template_id,
		     metadata_json = excluded.metadata_json,
		     status = excluded.status,
		     scheduled_at = excluded.scheduled_at,
		     sent_at = excluded.sent_at,
		     completed_at = excluded.completed_at,
		     failure_reason = excluded.failure_reason,
		     stat_recipients = excluded.stat_recipients,
		     stat_sent = excluded.stat_sent,
		     stat_delivered = excluded.stat_delivered,
		     stat_opened = excluded.stat_opened,
		     stat_clicked = excluded.stat_clicked,
		     stat_bounced = excluded.stat_bounced,
		     stat_complaints = excluded.stat_complaints,
		     stat_unsubscribed = excluded.stat_unsubscribed,
		     version = excluded.version,
		     updated_at = excluded.updated_at`,
		record.ID,
		record.Name,
		record.Subject,
		record.Body,
		record.SenderName,
		record.SenderEmail,
		record.ReplyTo,
		record.SegmentID,
		record.TemplateID,
		metadataJSON,
		string(record.Status),
		toNullMillis(record.ScheduledAt),
		toNullMillis(record.SentAt),
		toNullMillis(record.CompletedAt),
		record.FailureReason,
		record.Stats.Recipients,
		record.Stats.Sent,
		record.Stats.Delivered,
		record.Stats.Opened,
		record.Stats.Clicked,
		record.Stats.Bounced,
		record.Stats.Complaints,
		record.Stats.Unsubscribed,
		int64(record.Version),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	return nil
}

// FindCampaigns returns records matching the query, newest first.
func (s *Store) FindCampaigns(ctx context.Context, query storage.CampaignQuery) ([]storage.CampaignRecord, error) {
	where, args := campaignQueryClause(query)
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, query.Offset)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns`+where+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("find campaigns: %w", err)
	}

	var records []storage.CampaignRecord
	if err := scanRows(rows, func() error {
		record, err := scanCampaign(rows)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan campaigns: %w", err)
	}
	return records, nil
}

// CountCampaigns returns the number of records matching the query.
func (s *Store) CountCampaigns(ctx context.Context, query storage.CampaignQuery) (int, error) {
	where, args := campaignQueryClause(query)
	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return count, nil
}

// DeleteAllCampaigns clears the read model for a projection rebuild.
func (s *Store) DeleteAllCampaigns(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM campaigns`); err != nil {
		return fmt.Errorf("delete campaigns: %w", err)
	}
	return nil
}

func campaignQueryClause(query storage.CampaignQuery) (string, []any) {
	var clauses []string
	var args []any
	if query.Status != campaign.StatusUnspecified {
		clauses = append(clauses, "status = ?")
		args = append(args, string(query.Status))
	}
	if query.SegmentID != "" {
		clauses = append(clauses, "segment_id = ?")
		args = append(args, query.SegmentID)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanCampaign(row rowScanner) (storage.CampaignRecord, error) {
	var record storage.CampaignRecord
	var metadataJSON []byte
	var status string
	var scheduledAt, sentAt, completedAt sql.NullInt64
	var version, createdAtMillis, updatedAtMillis int64

	if err := row.Scan(
		&record.ID,
		&record.Name,
		&record.Subject,
		&record.Body,
		&record.SenderName,
		&record.SenderEmail,
		&record.ReplyTo,
		&record.SegmentID,
		&record.TemplateID,
		&metadataJSON,
		&status,
		&scheduledAt,
		&sentAt,
		&completedAt,
		&record.FailureReason,
		&record.Stats.Recipients,
		&record.Stats.Sent,
		&record.Stats.Delivered,
		&record.Stats.Opened,
		&record.Stats.Clicked,
		&record.Stats.Bounced,
		&record.Stats.Complaints,
		&record.Stats.Unsubscribed,
		&version,
		&createdAtMillis,
		&updatedAtMillis,
	); err != nil {
		return storage.CampaignRecord{}, err
	}

	record.Status = campaign.Status(status)
	record.ScheduledAt = fromNullMillis(scheduledAt)
	record.SentAt = fromNullMillis(sentAt)
	record.CompletedAt = fromNullMillis(completedAt)
	record.Version = uint64(version)
	record.CreatedAt = fromMillis(createdAtMillis)
	record.UpdatedAt = fromMillis(updatedAtMillis)
	if len(metadataJSON) > 0 && string(metadataJSON) != "{}" {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return storage.CampaignRecord{}, fmt.Errorf("decode campaign metadata: %w", err)
		}
	}
	return record, nil
}
