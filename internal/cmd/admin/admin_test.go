package admin

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mailforge/campaignd/internal/campaign/event"
	"github.com/mailforge/campaignd/internal/campaign/projection"
	"github.com/mailforge/campaignd/internal/campaign/service"
	storesqlite "github.com/mailforge/campaignd/internal/storage/sqlite"
)

func TestParseConfigRequiresSubcommand(t *testing.T) {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-db-path", "/tmp/test.db"}); err == nil {
		t.Fatal("expected missing subcommand error")
	}
}

func TestParseConfigSplitsSubcommand(t *testing.T) {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/test.db", "rebuild", "campaigns"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Command != "rebuild" {
		t.Fatalf("command = %s, want rebuild", cfg.Command)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "campaigns" {
		t.Fatalf("args = %v, want [campaigns]", cfg.Args)
	}
}

func TestRunRebuildAndStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "campaigns.db")
	ctx := context.Background()

	// Seed a stream through the normal write path.
	store, err := storesqlite.Open(dbPath, event.CoreRegistry())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	executor := service.NewExecutor(store)
	created, err := executor.Create(ctx, service.CreateInput{
		ActorID:     "user-1",
		Name:        "Launch",
		Subject:     "Hi",
		SenderEmail: "news@example.com",
		SegmentID:   "seg-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := executor.Send(ctx, created.Events[0].CampaignID, "user-1"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	var out bytes.Buffer
	if err := Run(ctx, Config{DBPath: dbPath, Command: "rebuild", Args: []string{projection.CampaignProjectionName}}, &out); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !strings.Contains(out.String(), "rebuilt projection campaigns") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	if err := Run(ctx, Config{DBPath: dbPath, Command: "status"}, &out); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "campaigns") || !strings.Contains(out.String(), "running") {
		t.Fatalf("status output = %q", out.String())
	}
	if !strings.Contains(out.String(), "outbox pending=2 dead=0") {
		t.Fatalf("status output = %q, want outbox summary", out.String())
	}

	out.Reset()
	if err := Run(ctx, Config{DBPath: dbPath, Command: "verify"}, &out); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out.String(), "ok: 2 events across 1 campaigns") {
		t.Fatalf("verify output = %q", out.String())
	}

	out.Reset()
	if err := Run(ctx, Config{DBPath: dbPath, Command: "campaigns"}, &out); err != nil {
		t.Fatalf("campaigns: %v", err)
	}
	if !strings.Contains(out.String(), "1 of 1 campaigns") {
		t.Fatalf("campaigns output = %q", out.String())
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "campaigns.db")
	var out bytes.Buffer
	if err := Run(context.Background(), Config{DBPath: dbPath, Command: "nope"}, &out); err == nil {
		t.Fatal("expected unknown command error")
	}
}
