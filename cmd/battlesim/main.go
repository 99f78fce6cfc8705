// Package main runs battles headlessly: a dodge bot plays encounters on the
// fixed-rate tick loop, and the outcomes are logged as a summary.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/app"
	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/game/loop"
	"github.com/udderworld/udderworld/internal/observability"
	"github.com/udderworld/udderworld/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounters := flag.Int("encounters", 3, "number of encounters to play")
	room := flag.String("room", "", "room to fight in; defaults to the player's checkpoint")
	seed := flag.Uint64("seed", 0, "random seed; 0 draws from crypto/rand")
	mercy := flag.Bool("mercy", false, "ask for mercy instead of fighting")
	speed := flag.Int("speed", 1, "simulation speed multiplier over the configured tick rate")
	flag.Parse()

	if *encounters < 1 || *speed < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var src dice.Source = dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
	}

	ctx := context.Background()
	rt, err := app.Build(ctx, cfg, logger, src)
	if err != nil {
		logger.Fatal("building runtime", zap.Error(err))
	}
	defer rt.Close()

	if *room == "" {
		*room = rt.Profile.RoomID
	}

	sim := newSimulator(rt, *room, *encounters, *mercy, loop.Hz(cfg.Client.TPS), observability.Component(logger, "battlesim"))
	ticker := loop.New(loop.Hz(cfg.Client.TPS * *speed), sim.tick)

	lifecycle := server.NewLifecycle(logger)
	if svc := rt.WatchService(); svc != nil {
		lifecycle.Add("content-watcher", svc)
	}
	lifecycle.AddFinite("battle-loop", &server.FuncService{
		StartFn: ticker.Run,
	})

	logger.Info("battle simulator initialized",
		zap.String("room", *room),
		zap.Int("encounters", *encounters),
		zap.Bool("mercy", *mercy),
		zap.Duration("tick", ticker.Interval()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("battle simulator failed", zap.Error(err))
	}
	sim.report()
}
