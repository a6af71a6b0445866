package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailforge/campaignd/internal/storage"
)

// CheckpointStore methods (projection cursors)

// GetCheckpoint returns the cursor for a projection name.
// Returns storage.ErrNotFound if the projection has never run.
func (s *Store) GetCheckpoint(ctx context.Context, projection string) (storage.Checkpoint, error) {
	projection = strings.TrimSpace(projection)
	if projection == "" {
		return storage.Checkpoint{}, fmt.Errorf("projection name is required")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT projection, last_event_id, last_event_timestamp, halted, halt_reason, updated_at
		 FROM projection_checkpoints WHERE projection = ?`,
		projection,
	)
	var checkpoint storage.Checkpoint
	var lastEventMillis, updatedAtMillis int64
	var halted int
	err := row.Scan(
		&checkpoint.Projection,
		&checkpoint.LastEventID,
		&lastEventMillis,
		&halted,
		&checkpoint.HaltReason,
		&updatedAtMillis,
	)
	if isNoRows(err) {
		return storage.Checkpoint{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	if lastEventMillis > 0 {
		checkpoint.LastEventTimestamp = fromMillis(lastEventMillis)
	}
	checkpoint.Halted = halted != 0
	checkpoint.UpdatedAt = fromMillis(updatedAtMillis)
	return checkpoint, nil
}

// SaveCheckpoint upserts a projection cursor.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint storage.Checkpoint) error {
	checkpoint.Projection = strings.TrimSpace(checkpoint.Projection)
	if checkpoint.Projection == "" {
		return fmt.Errorf("projection name is required")
	}
	halted := 0
	if checkpoint.Halted {
		halted = 1
	}
	var lastEventMillis int64
	if !checkpoint.LastEventTimestamp.IsZero() {
		lastEventMillis = toMillis(checkpoint.LastEventTimestamp)
	}
	if checkpoint.UpdatedAt.IsZero() {
		checkpoint.UpdatedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO projection_checkpoints (projection, last_event_id, last_event_timestamp, halted, halt_reason, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (projection) DO UPDATE SET
		     last_event_id = excluded.last_event_id,
		     last_event_timestamp = excluded.last_event_timestamp,
		     halted = excluded.halted,
		     halt_reason = excluded.halt_reason,
		     updated_at = excluded.updated_at`,
		checkpoint.Projection,
		checkpoint.LastEventID,
		lastEventMillis,
		halted,
		checkpoint.HaltReason,
		toMillis(checkpoint.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// ResetCheckpoint rewinds a projection cursor to zero and clears any halt.
func (s *Store) ResetCheckpoint(ctx context.Context, projection string) error {
	projection = strings.TrimSpace(projection)
	if projection == "" {
		return fmt.Errorf("projection name is required")
	}
	return s.SaveCheckpoint(ctx, storage.Checkpoint{
		Projection: projection,
		UpdatedAt:  time.Now(),
	})
}
