// Package main starts the projector service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	projectorcmd "github.com/mailforge/campaignd/internal/cmd/projector"
)

func main() {
	cfg, err := projectorcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PROJECTOR] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := projectorcmd.Run(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
