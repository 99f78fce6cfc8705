// Package app wires configuration, content, scripting, and persistence into
// the runtime shared by the game client and the headless simulator.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/game/grid"
	"github.com/udderworld/udderworld/internal/game/world"
	"github.com/udderworld/udderworld/internal/observability"
	"github.com/udderworld/udderworld/internal/scripting"
	"github.com/udderworld/udderworld/internal/server"
	"github.com/udderworld/udderworld/internal/storage/postgres"
)

// Profile is the player a runtime plays as.
type Profile struct {
	ID       int64
	Username string
	RoomID   string
	Level    int
}

// Runtime holds every long-lived dependency of a play session.
type Runtime struct {
	Config    config.Config
	Logger    *zap.Logger
	Rooms     *world.Manager
	Grids     *grid.Cache
	Scripts   *scripting.Manager
	Roller    *dice.Roller
	Chooser   battle.Chooser
	Spawner   *battle.WaveSpawner
	Persister battle.Persister
	Profile   Profile

	pool    *postgres.Pool
	watcher *world.Watcher
}

// Build loads rooms and scripts, connects persistence when enabled, and
// prepares the wave spawner. src seeds every random draw.
//
// Precondition: cfg has passed Validate; logger and src must be non-nil.
// Postcondition: Returns a Runtime that must be closed, or a non-nil error.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, src dice.Source) (*Runtime, error) {
	start := time.Now()
	rt := &Runtime{Config: cfg, Logger: logger}

	rooms, err := world.LoadManager(cfg.Content.RoomsDir)
	if err != nil {
		return nil, fmt.Errorf("loading rooms: %w", err)
	}
	rt.Rooms = rooms
	rt.Grids = grid.NewCache(rooms, cfg.Battle.TileSize)
	logger.Info("world loaded",
		zap.Int("rooms", rooms.RoomCount()),
		zap.Strings("ids", rooms.IDs()),
	)
	for _, id := range rooms.IDs() {
		g, err := rt.Grids.Get(id)
		if err != nil {
			return nil, fmt.Errorf("building grid: %w", err)
		}
		logger.Debug("room grid built",
			zap.String("room", id),
			zap.Int("width", g.Width),
			zap.Int("height", g.Height),
			zap.Int("blocked", g.BlockedCount()),
		)
	}

	rt.Roller = dice.NewLoggedRoller(src, observability.Component(logger, "dice"))
	rt.Scripts = scripting.NewManager(rt.Roller, observability.Component(logger, "scripting"))
	if info, err := os.Stat(cfg.Content.ScriptsDir); err == nil && info.IsDir() {
		n, err := world.LoadScripts(rt.Scripts, cfg.Content.ScriptsDir, cfg.Battle.ScriptInstructionLimit)
		if err != nil {
			rt.Scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		logger.Info("scripts loaded", zap.String("dir", cfg.Content.ScriptsDir), zap.Int("scopes", n))
	} else {
		logger.Warn("scripts directory not found; waves use the random policy",
			zap.String("dir", cfg.Content.ScriptsDir))
	}

	battleLog := observability.Component(logger, "battle")
	rt.Chooser = battle.NewScriptChooser(rt.Scripts, battle.NewRandomChooser(rt.Roller), battleLog)
	rt.Spawner = battle.NewWaveSpawner(rt.Roller, rt.Chooser, battleLog)

	if cfg.Client.Persist {
		if err := rt.connect(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		rt.Persister = battle.NopPersister{}
		rt.Profile = Profile{Username: cfg.Client.Username, RoomID: cfg.Client.StartRoom, Level: 1}
	}

	if _, err := rooms.Room(rt.Profile.RoomID); err != nil {
		logger.Warn("saved checkpoint room is unknown; using start room",
			zap.String("room", rt.Profile.RoomID),
			zap.String("start_room", cfg.Client.StartRoom),
		)
		rt.Profile.RoomID = cfg.Client.StartRoom
	}

	if cfg.Content.Watch {
		w, err := world.NewWatcher(rooms, rt.Grids, rt.Scripts,
			cfg.Content.RoomsDir, cfg.Content.ScriptsDir, cfg.Battle.ScriptInstructionLimit,
			observability.Component(logger, "watcher"))
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("starting content watcher: %w", err)
		}
		rt.watcher = w
	}

	logger.Info("runtime ready",
		zap.Bool("persist", cfg.Client.Persist),
		zap.Bool("watch", cfg.Content.Watch),
		zap.String("player", rt.Profile.Username),
		zap.Int("level", rt.Profile.Level),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rt, nil
}

// connect opens the pool, which health-checks the database, and signs the
// configured player in, creating the record on first use.
func (rt *Runtime) connect(ctx context.Context) error {
	cfg := rt.Config
	pool, err := postgres.Open(ctx, cfg.Database, observability.Component(rt.Logger, "postgres"))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	rt.pool = pool

	repo := pool.Players()
	p, err := repo.Authenticate(ctx, cfg.Client.Username, cfg.Client.Password)
	if errors.Is(err, postgres.ErrPlayerNotFound) {
		p, err = repo.Create(ctx, cfg.Client.Username, cfg.Client.Password, cfg.Client.StartRoom)
		if err == nil {
			rt.Logger.Info("player created", zap.String("username", p.Username), zap.Int64("id", p.ID))
		}
	}
	if err != nil {
		return fmt.Errorf("signing in %q: %w", cfg.Client.Username, err)
	}
	rt.Persister = repo
	rt.Profile = Profile{ID: p.ID, Username: p.Username, RoomID: p.RoomID, Level: p.Level}
	return nil
}

// NewSession starts an encounter in roomID using the room's battle box.
//
// Postcondition: Returns a Selecting session, or an error wrapping
// world.ErrRoomNotFound.
func (rt *Runtime) NewSession(roomID string) (*battle.Session, error) {
	settings := battle.SettingsFromConfig(rt.Config.Battle)
	box, err := rt.Rooms.BattleBox(roomID, settings.BattleBox)
	if err != nil {
		return nil, err
	}
	settings.BattleBox = box
	return battle.NewSession(battle.Params{
		PlayerID: rt.Profile.ID,
		RoomID:   roomID,
		Level:    rt.Profile.Level,
		Settings: settings,
	}, rt.Spawner, rt.Grids, rt.Persister, observability.Component(rt.Logger, "battle")), nil
}

// Finish folds a finished session's progress back into the profile.
func (rt *Runtime) Finish(s *battle.Session) {
	if s.Outcome() != battle.OutcomeVictory {
		return
	}
	rt.Profile.Level = s.Level()
	rt.Profile.RoomID = s.RoomID()
}

// WatchService returns the content watcher as a lifecycle service, or nil
// when hot reload is disabled.
func (rt *Runtime) WatchService() server.Service {
	if rt.watcher == nil {
		return nil
	}
	w := rt.watcher
	return &server.FuncService{
		StartFn: w.Run,
		StopFn:  func() { _ = w.Close() },
	}
}

// Close releases scripts, the watcher, and the database pool.
func (rt *Runtime) Close() {
	if rt.watcher != nil {
		_ = rt.watcher.Close()
	}
	if rt.Scripts != nil {
		rt.Scripts.Close()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}
