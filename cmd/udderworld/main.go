// Package main is the game client: it opens a window, loads rooms and wave
// scripts, and plays encounters with keyboard input.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/app"
	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	room := flag.String("room", "", "room to fight in; defaults to the player's checkpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Build(ctx, cfg, logger, dice.NewCryptoSource())
	if err != nil {
		logger.Fatal("building runtime", zap.Error(err))
	}
	defer rt.Close()

	if svc := rt.WatchService(); svc != nil {
		go func() {
			if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("content watcher stopped", zap.Error(err))
			}
		}()
	}

	if *room == "" {
		*room = rt.Profile.RoomID
	}
	game, err := newGame(ctx, rt, *room, observability.Component(logger, "client"))
	if err != nil {
		logger.Fatal("starting encounter", zap.Error(err))
	}

	ebiten.SetWindowSize(cfg.Client.WindowWidth, cfg.Client.WindowHeight)
	ebiten.SetWindowTitle("udderworld")
	ebiten.SetTPS(cfg.Client.TPS)

	logger.Info("client initialized",
		zap.String("room", *room),
		zap.String("player", rt.Profile.Username),
		zap.Duration("startup", time.Since(start)),
	)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("game loop failed", zap.Error(err))
	}
	logger.Info("client closed", zap.Duration("uptime", time.Since(start)))
}
