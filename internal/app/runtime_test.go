package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/udderworld/udderworld/internal/app"
	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/world"
	"github.com/udderworld/udderworld/internal/storage/postgres"
	"github.com/udderworld/udderworld/internal/testutil"
)

const (
	shippedRooms   = "../../content/rooms"
	shippedScripts = "../../content/scripts"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	cfg.Content.RoomsDir = shippedRooms
	cfg.Content.ScriptsDir = shippedScripts
	cfg.Client.Username = "bessie"
	return cfg
}

func build(t *testing.T, cfg config.Config) (*app.Runtime, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	rt, err := app.Build(context.Background(), cfg, zap.New(core), dice.NewSeededSource(1))
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt, logs
}

func TestBuild_LoadsShippedContent(t *testing.T) {
	rt, logs := build(t, testConfig(t))

	assert.Equal(t, []string{"room1", "room2"}, rt.Rooms.IDs())
	assert.True(t, rt.Scripts.HasScope("__global__"))
	assert.Equal(t, app.Profile{Username: "bessie", RoomID: "room1", Level: 1}, rt.Profile)
	assert.IsType(t, battle.NopPersister{}, rt.Persister)
	assert.Nil(t, rt.WatchService())
	assert.Equal(t, 1, logs.FilterMessage("runtime ready").Len())

	built := logs.FilterMessage("room grid built").All()
	require.Len(t, built, 2)
	assert.Equal(t, int64(32), built[0].ContextMap()["width"])
	assert.Positive(t, built[0].ContextMap()["blocked"])
}

func TestBuild_DefaultChooserIsEvenOnEveryWave(t *testing.T) {
	rt, _ := build(t, testConfig(t))

	const draws = 2000
	for _, info := range []battle.WaveInfo{
		{RoomID: "room1", Wave: 1, EnemyHP: 30, EnemyMaxHP: 30},
		{RoomID: "room2", Wave: 4, Active: 9, EnemyHP: 30, EnemyMaxHP: 30},
		{RoomID: "room1", Wave: 6, EnemyHP: 10, EnemyMaxHP: 30},
	} {
		targeted := 0
		for range draws {
			if rt.Chooser.Choose(info) == battle.AttackTargeted {
				targeted++
			}
		}
		assert.InDelta(t, draws/2, targeted, 120, "wave %d in %s", info.Wave, info.RoomID)
	}
}

func TestBuild_MissingScriptsFallsBackToRandom(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.ScriptsDir = filepath.Join(t.TempDir(), "absent")
	rt, logs := build(t, cfg)

	assert.False(t, rt.Scripts.HasScope("__global__"))
	assert.Equal(t, 1, logs.FilterMessage("scripts directory not found; waves use the random policy").Len())
}

func TestBuild_PersistHealthChecksAndSignsIn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)

	cfg := testConfig(t)
	cfg.Database = pc.Config
	cfg.Client.Persist = true
	cfg.Client.Password = "moo"
	rt, logs := build(t, cfg)

	assert.Equal(t, 1, logs.FilterMessage("database healthy").Len())
	assert.Equal(t, 1, logs.FilterMessage("player created").Len())
	assert.IsType(t, &postgres.PlayerRepository{}, rt.Persister)
	assert.Positive(t, rt.Profile.ID)
	assert.Equal(t, "room1", rt.Profile.RoomID)
}

func TestBuild_PersistUnreachableDatabaseFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Client.Persist = true
	cfg.Client.Password = "moo"
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1
	cfg.Database.HealthTimeout = 2 * time.Second

	core, logs := observer.New(zap.DebugLevel)
	_, err := app.Build(context.Background(), cfg, zap.New(core), dice.NewSeededSource(1))
	require.Error(t, err)
	assert.ErrorContains(t, err, "connecting to database")
	assert.Equal(t, 1, logs.FilterMessage("database health check failed").Len())
}

func TestBuild_BadRoomsDirFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.RoomsDir = filepath.Join(t.TempDir(), "absent")
	_, err := app.Build(context.Background(), cfg, zap.NewNop(), dice.NewSeededSource(1))
	assert.Error(t, err)
}

func TestBuild_UnknownStartRoomIsReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Client.StartRoom = "hayloft"
	rt, logs := build(t, cfg)
	assert.Equal(t, "hayloft", rt.Profile.RoomID)
	assert.Equal(t, 1, logs.FilterMessage("saved checkpoint room is unknown; using start room").Len())

	_, err := rt.NewSession(rt.Profile.RoomID)
	assert.ErrorIs(t, err, world.ErrRoomNotFound)
}

func TestNewSession_UsesRoomBattleBox(t *testing.T) {
	rt, _ := build(t, testConfig(t))

	s, err := rt.NewSession("room1")
	require.NoError(t, err)
	assert.Equal(t, geom.R(450, 60, 400, 200), s.Settings().BattleBox)
	assert.Equal(t, 1, s.Level())
	assert.Equal(t, "room1", s.RoomID())

	s2, err := rt.NewSession("room2")
	require.NoError(t, err)
	assert.Equal(t, geom.R(450, 300, 400, 240), s2.Settings().BattleBox)
}

func TestFinish_VictoryAdvancesProfile(t *testing.T) {
	rt, _ := build(t, testConfig(t))
	s, err := rt.NewSession("room2")
	require.NoError(t, err)

	rt.Finish(s)
	assert.Equal(t, 1, rt.Profile.Level, "unfinished session changes nothing")

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	bot := battle.DodgeBot{}
	for i := 0; i < 20000 && !s.Done(); i++ {
		s.Tick(context.Background(), now, bot.Input(s))
		now = now.Add(time.Second / 60)
	}
	require.True(t, s.Done())
	rt.Finish(s)
	if s.Outcome() == battle.OutcomeVictory {
		assert.Equal(t, 2, rt.Profile.Level)
		assert.Equal(t, "room2", rt.Profile.RoomID)
	} else {
		assert.Equal(t, 1, rt.Profile.Level)
	}
}

func TestBuild_WatchReloadsRooms(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "rooms")
	scripts := filepath.Join(dir, "scripts", "global")
	require.NoError(t, os.MkdirAll(rooms, 0o755))
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	for _, name := range []string{"room1.yaml", "room2.yaml"} {
		data, err := os.ReadFile(filepath.Join(shippedRooms, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(rooms, name), data, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "waves.lua"),
		[]byte(`function choose_attack(info) return "spread" end`), 0o644))

	cfg := testConfig(t)
	cfg.Content.RoomsDir = rooms
	cfg.Content.ScriptsDir = filepath.Dir(scripts)
	cfg.Content.Watch = true
	rt, _ := build(t, cfg)

	svc := rt.WatchService()
	require.NotNil(t, svc)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	require.Equal(t, 2, rt.Grids.Len(), "grids are built at startup")

	changed := `room:
  id: room1
  title: Empty Barn
  bounds: {w: 1300, h: 720}
  exits:
    - direction: east
      target: room2
      trigger: {x: 1200, y: 0, w: 100, h: 720}
      arrival: {x: 80, y: 260}
`
	require.NoError(t, os.WriteFile(filepath.Join(rooms, "room1.yaml"), []byte(changed), 0o644))

	assert.Eventually(t, func() bool {
		r, err := rt.Rooms.Room("room1")
		return err == nil && r.Title == "Empty Barn" && rt.Grids.Len() == 1
	}, 3*time.Second, 20*time.Millisecond, "only the edited room's grid is dropped")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	svc.Stop()
}
