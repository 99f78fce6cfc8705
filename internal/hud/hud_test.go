package hud_test

import (
	"context"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/grid"
	"github.com/udderworld/udderworld/internal/game/world"
	"github.com/udderworld/udderworld/internal/hud"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newSession(t *testing.T) *battle.Session {
	t.Helper()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(4), zap.NewNop())
	spawner := battle.NewWaveSpawner(roller, battle.NewRandomChooser(roller), zap.NewNop())
	return battle.NewSession(battle.Params{
		RoomID:   "room1",
		Level:    3,
		Settings: battle.DefaultSettings(),
	}, spawner, nil, nil, zap.NewNop())
}

func labels(f hud.Frame) []string {
	out := make([]string, 0, len(f.Labels))
	for _, l := range f.Labels {
		out = append(out, l.Text)
	}
	return out
}

func shapesColored(f hud.Frame, c color.RGBA) int {
	n := 0
	for _, s := range f.Shapes {
		if s.Color == c {
			n++
		}
	}
	return n
}

func TestCompose_SelectingShowsMenuAndBars(t *testing.T) {
	s := newSession(t)
	room := &world.Room{ID: "room1", Obstacles: []geom.Rect{geom.R(0, 0, 10, 10), geom.R(20, 20, 10, 10)}}
	f := hud.Compose(s, room, t0)

	assert.Equal(t, 2, shapesColored(f, hud.ColorObstacle))
	assert.Equal(t, 1, shapesColored(f, hud.ColorBattleBox))
	assert.Equal(t, 2, shapesColored(f, hud.ColorHPFull))
	assert.Zero(t, shapesColored(f, hud.ColorDodgeBox))

	text := labels(f)
	assert.Contains(t, text, "> FIGHT")
	assert.Contains(t, text, "  ITEM")
	assert.Contains(t, text, "  MERCY")
	assert.Contains(t, text, "YOU 20/20")
	assert.Contains(t, text, "ENEMY 30/30")
	assert.Contains(t, text, "LV 3  room1")
}

func TestCompose_DodgingShowsBoxProjectilesAndTimer(t *testing.T) {
	s := newSession(t)
	s.Tick(context.Background(), t0, battle.Input{Confirm: true})
	require.Equal(t, battle.PhaseDodging, s.Phase().Kind())

	f := hud.Compose(s, nil, t0.Add(2500*time.Millisecond))
	assert.Equal(t, 1, shapesColored(f, hud.ColorDodgeBox))
	assert.Equal(t, s.ProjectileCount(), shapesColored(f, hud.ColorProjectile))
	assert.Contains(t, labels(f), "DODGE! 7.5s")
	assert.Zero(t, shapesColored(f, hud.ColorObstacle))
}

type targetedOnly struct{}

func (targetedOnly) Choose(battle.WaveInfo) battle.Attack { return battle.AttackTargeted }

type openField struct{}

func (openField) Get(string) (*grid.Grid, error) {
	return grid.Build(geom.Size{W: 1300, H: 720}, nil, 40), nil
}

func TestCompose_HomingProjectilesUseTheirOwnColor(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(4), zap.NewNop())
	spawner := battle.NewWaveSpawner(roller, targetedOnly{}, zap.NewNop())
	s := battle.NewSession(battle.Params{
		RoomID:   "room1",
		Level:    1,
		Settings: battle.DefaultSettings(),
	}, spawner, openField{}, nil, zap.NewNop())
	res := s.Tick(context.Background(), t0, battle.Input{Confirm: true})
	require.Equal(t, 1, res.Spawned)

	f := hud.Compose(s, nil, t0)
	assert.Equal(t, 1, shapesColored(f, hud.ColorHoming))
	assert.Zero(t, shapesColored(f, hud.ColorProjectile))
}

func TestCompose_ShowsMessage(t *testing.T) {
	s := newSession(t)
	s.Tick(context.Background(), t0, battle.Input{Right: true})
	s.Tick(context.Background(), t0, battle.Input{Confirm: true})

	found := false
	for _, l := range labels(hud.Compose(s, nil, t0)) {
		if strings.Contains(l, "FIGHT first!") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEndBanner(t *testing.T) {
	assert.Contains(t, hud.EndBanner(battle.OutcomeVictory, 4), "level 4")
	assert.Contains(t, hud.EndBanner(battle.OutcomeMercy, 1), "spared")
	assert.Contains(t, hud.EndBanner(battle.OutcomeDefeat, 1), "defeated")
	assert.Empty(t, hud.EndBanner(battle.OutcomeNone, 1))
}

func TestKeys_Input(t *testing.T) {
	in := hud.Keys{Up: true, Right: true, ConfirmPressed: true}.Input()
	assert.Equal(t, geom.Vec{X: 1, Y: -1}, in.Move)
	assert.True(t, in.Confirm)
	assert.False(t, in.Left)
	assert.False(t, in.Right)

	in = hud.Keys{Left: true, Right: true, LeftPressed: true}.Input()
	assert.Equal(t, geom.Vec{}, in.Move)
	assert.True(t, in.Left)
}

func TestKeys_MoveIsUnitPerAxis_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := hud.Keys{
			Up:    rapid.Bool().Draw(rt, "up"),
			Down:  rapid.Bool().Draw(rt, "down"),
			Left:  rapid.Bool().Draw(rt, "left"),
			Right: rapid.Bool().Draw(rt, "right"),
		}
		m := k.Input().Move
		assert.Contains(rt, []float64{-1, 0, 1}, m.X)
		assert.Contains(rt, []float64{-1, 0, 1}, m.Y)
		if k.Left == k.Right {
			assert.Zero(rt, m.X)
		}
		if k.Up == k.Down {
			assert.Zero(rt, m.Y)
		}
	})
}
