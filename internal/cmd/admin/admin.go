// Package admin provides the operator CLI for projection maintenance and
// read-model inspection.
package admin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/mailforge/campaignd/internal/campaign"
	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/campaign/projection"
	entrypoint "github.com/mailforge/campaignd/internal/platform/cmd"
	"github.com/mailforge/campaignd/internal/storage"
	storesqlite "github.com/mailforge/campaignd/internal/storage/sqlite"
)

// Config holds admin command configuration.
type Config struct {
	DBPath string `env:"CAMPAIGND_ADMIN_DB_PATH" envDefault:"data/campaignd.db"`

	// Command and Args carry the subcommand parsed from the CLI.
	Command string
	Args    []string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The campaign SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, fmt.Errorf("usage: admin [flags] <status|verify|reset|rebuild|campaigns> [args]")
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}

// Run executes one admin subcommand and returns.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAdmin, func(ctx context.Context) error {
		store, err := storesqlite.Open(cfg.DBPath, event.CoreRegistry())
		if err != nil {
			return fmt.Errorf("open campaign store: %w", err)
		}
		defer store.Close()

		manager := projection.NewManager(store, store,
			projection.NewCampaignProjection(store),
			projection.NewActivityProjection(store),
		)

		switch cfg.Command {
		case "status":
			return printStatus(ctx, manager, store, out)
		case "verify":
			return verifyStreams(ctx, store, out)
		case "reset":
			if len(cfg.Args) != 1 {
				return fmt.Errorf("usage: admin reset <projection>")
			}
			return manager.Reset(ctx, cfg.Args[0])
		case "rebuild":
			if len(cfg.Args) != 1 {
				return fmt.Errorf("usage: admin rebuild <projection>")
			}
			if err := manager.Rebuild(ctx, cfg.Args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "rebuilt projection %s\n", cfg.Args[0])
			return nil
		case "campaigns":
			return printCampaigns(ctx, store, out, cfg.Args)
		default:
			return fmt.Errorf("unknown admin command: %s", cfg.Command)
		}
	})
}

func printStatus(ctx context.Context, manager *projection.Manager, outbox storage.OutboxStore, out io.Writer) error {
	checkpoints, err := manager.Status(ctx)
	if err != nil {
		return err
	}
	for _, checkpoint := range checkpoints {
		state := "running"
		if checkpoint.Halted {
			state = "HALTED: " + checkpoint.HaltReason
		}
		fmt.Fprintf(out, "%-12s cursor=%-8d updated=%s %s\n",
			checkpoint.Projection,
			checkpoint.LastEventID,
			formatTime(checkpoint.UpdatedAt),
			state,
		)
	}
	summary, err := outbox.SummarizeOutbox(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "outbox pending=%d dead=%d\n", summary.Pending, summary.Dead)
	return nil
}

// verifyStreams walks the global feed and checks that every campaign's
// stream is a contiguous version sequence starting at 1.
func verifyStreams(ctx context.Context, feed storage.EventStore, out io.Writer) error {
	const pageSize = 500
	heads := map[string]uint64{}
	var afterID int64
	events := 0
	for {
		entries, err := feed.ListFeed(ctx, afterID, pageSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			want := heads[entry.Event.CampaignID] + 1
			if entry.Event.Version != want {
				return fmt.Errorf("campaign %s: version %d at feed id %d, want %d",
					entry.Event.CampaignID, entry.Event.Version, entry.ID, want)
			}
			heads[entry.Event.CampaignID] = entry.Event.Version
			afterID = entry.ID
			events++
		}
	}
	fmt.Fprintf(out, "ok: %d events across %d campaigns\n", events, len(heads))
	return nil
}

func printCampaigns(ctx context.Context, store storage.CampaignStore, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("campaigns", flag.ContinueOnError)
	statusFilter := fs.String("status", "", "Filter by campaign status")
	limit := fs.Int("limit", 20, "Maximum records to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := storage.CampaignQuery{Limit: *limit}
	if *statusFilter != "" {
		status, ok := campaign.NormalizeStatusLabel(*statusFilter)
		if !ok {
			return fmt.Errorf("unknown campaign status: %s", *statusFilter)
		}
		query.Status = status
	}

	total, err := store.CountCampaigns(ctx, query)
	if err != nil {
		return err
	}
	records, err := store.FindCampaigns(ctx, query)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Fprintf(out, "%s v%-4d %-10s %q sent=%d delivered=%d\n",
			record.ID,
			record.Version,
			record.Status,
			record.Name,
			record.Stats.Sent,
			record.Stats.Delivered,
		)
	}
	fmt.Fprintf(out, "%d of %d campaigns\n", len(records), total)
	return nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return ts.UTC().Format(time.RFC3339)
}
