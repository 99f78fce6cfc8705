// Package main provides a CLI tool for creating player records and
// inspecting their saved progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/observability"
	"github.com/udderworld/udderworld/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	username := flag.String("username", "", "player username (required)")
	password := flag.String("password", "", "player password (required)")
	room := flag.String("room", "", "starting room; defaults to client.start_room")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *room == "" {
		*room = cfg.Client.StartRoom
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Open(ctx, cfg.Database, observability.Component(logger, "postgres"))
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	repo := pool.Players()

	p, err := repo.Create(ctx, *username, *password, *room)
	switch {
	case errors.Is(err, postgres.ErrPlayerExists):
		p, err = repo.Authenticate(ctx, *username, *password)
		if err != nil {
			log.Fatalf("player %q exists: %v", *username, err)
		}
		fmt.Fprintf(os.Stdout, "player %s (#%d) already exists: room=%s level=%d [%s]\n",
			p.Username, p.ID, p.RoomID, p.Level, time.Since(start))
	case err != nil:
		log.Fatalf("creating player: %v", err)
	default:
		fmt.Fprintf(os.Stdout, "created player %s (#%d) in %s [%s]\n",
			p.Username, p.ID, p.RoomID, time.Since(start))
	}
}
