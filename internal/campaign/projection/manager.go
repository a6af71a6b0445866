package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mailforge/campaignd/internal/storage"
)

const defaultBatchSize = 100

// Manager feeds registered projections from the global event feed and tracks
// a durable cursor per projection. Projections advance independently; a
// halted projection never blocks the others.
type Manager struct {
	feed        storage.EventStore
	checkpoints storage.CheckpointStore
	projections []Projection
	batchSize   int
	logger      *log.Logger
}

// NewManager creates a projection manager over the event feed.
func NewManager(feed storage.EventStore, checkpoints storage.CheckpointStore, projections ...Projection) *Manager {
	return &Manager{
		feed:        feed,
		checkpoints: checkpoints,
		projections: projections,
		batchSize:   defaultBatchSize,
		logger:      log.Default(),
	}
}

// SetBatchSize overrides how many feed entries a sync pass reads at a time.
func (m *Manager) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

// SyncOnce advances every projection to the current feed head and returns the
// number of events applied. A consistency error halts the offending
// projection's cursor and is reported; the remaining projections still sync.
func (m *Manager) SyncOnce(ctx context.Context) (int, error) {
	if m == nil || m.feed == nil || m.checkpoints == nil {
		return 0, fmt.Errorf("projection manager is not configured")
	}
	applied := 0
	var errs []error
	for _, p := range m.projections {
		n, err := m.syncProjection(ctx, p)
		applied += n
		if err != nil {
			var consistency *ConsistencyError
			if errors.As(err, &consistency) {
				m.logger.Printf("projection halted: %v", consistency)
				errs = append(errs, err)
				continue
			}
			return applied, err
		}
	}
	return applied, errors.Join(errs...)
}

// syncProjection advances one projection from its checkpoint to the feed
// head. The checkpoint is saved after every applied event so a canceled sync
// resumes exactly where it stopped.
func (m *Manager) syncProjection(ctx context.Context, p Projection) (int, error) {
	checkpoint, err := m.checkpoints.GetCheckpoint(ctx, p.Name())
	if errors.Is(err, storage.ErrNotFound) {
		checkpoint = storage.Checkpoint{Projection: p.Name()}
	} else if err != nil {
		return 0, fmt.Errorf("load checkpoint %s: %w", p.Name(), err)
	}
	if checkpoint.Halted {
		return 0, nil
	}

	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		entries, err := m.feed.ListFeed(ctx, checkpoint.LastEventID, m.batchSize)
		if err != nil {
			return applied, fmt.Errorf("list event feed: %w", err)
		}
		if len(entries) == 0 {
			return applied, nil
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return applied, err
			}
			if p.Handles(entry.Event.Type) {
				if err := p.Apply(ctx, entry.Event); err != nil {
					var consistency *ConsistencyError
					if errors.As(err, &consistency) {
						checkpoint.Halted = true
						checkpoint.HaltReason = consistency.Error()
						checkpoint.UpdatedAt = time.Now()
						if saveErr := m.checkpoints.SaveCheckpoint(ctx, checkpoint); saveErr != nil {
							return applied, fmt.Errorf("save halted checkpoint %s: %w", p.Name(), saveErr)
						}
						return applied, err
					}
					return applied, fmt.Errorf("apply %s to %s: %w", entry.Event.Type, p.Name(), err)
				}
				applied++
			}

			checkpoint.LastEventID = entry.ID
			checkpoint.LastEventTimestamp = entry.Event.Timestamp
			checkpoint.UpdatedAt = time.Now()
			if err := m.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
				return applied, fmt.Errorf("save checkpoint %s: %w", p.Name(), err)
			}
		}
	}
}

// Reset clears a projection's read model and rewinds its cursor to zero.
func (m *Manager) Reset(ctx context.Context, name string) error {
	p, err := m.projection(name)
	if err != nil {
		return err
	}
	if err := p.Reset(ctx); err != nil {
		return err
	}
	if err := m.checkpoints.ResetCheckpoint(ctx, p.Name()); err != nil {
		return fmt.Errorf("reset checkpoint %s: %w", p.Name(), err)
	}
	return nil
}

// Rebuild resets a projection and replays the full event history. The replay
// is interruptible: cancel the context and call Rebuild's sync path again (or
// let the running manager catch up) to resume from the last applied event.
func (m *Manager) Rebuild(ctx context.Context, name string) error {
	if err := m.Reset(ctx, name); err != nil {
		return err
	}
	p, err := m.projection(name)
	if err != nil {
		return err
	}
	_, err = m.syncProjection(ctx, p)
	return err
}

// Run syncs all projections on an interval until the context is canceled.
// Each projection gets its own worker so a slow or halted projection cannot
// starve the others.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, p := range m.projections {
		group.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if _, err := m.syncProjection(ctx, p); err != nil {
						if ctx.Err() != nil {
							return ctx.Err()
						}
						var consistency *ConsistencyError
						if errors.As(err, &consistency) {
							// Halted; the worker idles until an
							// operator resets the projection.
							m.logger.Printf("projection halted: %v", consistency)
							continue
						}
						m.logger.Printf("projection sync %s: %v", p.Name(), err)
					}
				}
			}
		})
	}
	return group.Wait()
}

// Status returns the current checkpoint for every registered projection.
func (m *Manager) Status(ctx context.Context) ([]storage.Checkpoint, error) {
	checkpoints := make([]storage.Checkpoint, 0, len(m.projections))
	for _, p := range m.projections {
		checkpoint, err := m.checkpoints.GetCheckpoint(ctx, p.Name())
		if errors.Is(err, storage.ErrNotFound) {
			checkpoint = storage.Checkpoint{Projection: p.Name()}
		} else if err != nil {
			return nil, fmt.Errorf("load checkpoint %s: %w", p.Name(), err)
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, nil
}

func (m *Manager) projection(name string) (Projection, error) {
	for _, p := range m.projections {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown projection: %s", name)
}
