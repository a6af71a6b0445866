// Package projector parses projector command flags and launches the
// projection and outbox workers.
package projector

import (
	"context"
	"flag"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/campaign/projection"
	"github.com/mailforge/campaignd/internal/campaign/service"
	entrypoint "github.com/mailforge/campaignd/internal/platform/cmd"
	storesqlite "github.com/mailforge/campaignd/internal/storage/sqlite"
)

// Config holds projector command configuration.
type Config struct {
	DBPath             string        `env:"CAMPAIGND_PROJECTOR_DB_PATH" envDefault:"data/campaignd.db"`
	SyncInterval       time.Duration `env:"CAMPAIGND_PROJECTOR_SYNC_INTERVAL" envDefault:"1s"`
	BatchSize          int           `env:"CAMPAIGND_PROJECTOR_BATCH_SIZE" envDefault:"100"`
	PublishInterval    time.Duration `env:"CAMPAIGND_PROJECTOR_PUBLISH_INTERVAL" envDefault:"2s"`
	PublishBackoff     time.Duration `env:"CAMPAIGND_PROJECTOR_PUBLISH_BACKOFF" envDefault:"30s"`
	PublishMaxAttempts int           `env:"CAMPAIGND_PROJECTOR_PUBLISH_MAX_ATTEMPTS" envDefault:"8"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The campaign SQLite database path")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "Projection sync interval")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Feed entries read per sync pass")
	fs.DurationVar(&cfg.PublishInterval, "publish-interval", cfg.PublishInterval, "Outbox publish interval")
	fs.DurationVar(&cfg.PublishBackoff, "publish-backoff", cfg.PublishBackoff, "Base retry delay for failed publications")
	fs.IntVar(&cfg.PublishMaxAttempts, "publish-max-attempts", cfg.PublishMaxAttempts, "Publication attempts before an entry is dead-lettered")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the projection and outbox workers.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceProjector, func(ctx context.Context) error {
		store, err := storesqlite.Open(cfg.DBPath, event.CoreRegistry())
		if err != nil {
			return fmt.Errorf("open campaign store: %w", err)
		}
		defer store.Close()

		manager := projection.NewManager(store, store,
			projection.NewCampaignProjection(store),
			projection.NewActivityProjection(store),
		)
		manager.SetBatchSize(cfg.BatchSize)
		relay := service.NewRelay(store, service.LogPublisher{},
			service.WithRetryBackoff(cfg.PublishBackoff),
			service.WithMaxAttempts(cfg.PublishMaxAttempts),
		)

		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return manager.Run(ctx, cfg.SyncInterval)
		})
		group.Go(func() error {
			return relay.Run(ctx, cfg.PublishInterval)
		})
		return group.Wait()
	})
}
