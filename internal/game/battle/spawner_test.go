package battle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/grid"
	"github.com/udderworld/udderworld/internal/game/projectile"
)

func TestSpawn_SpreadDropsAcrossBoxTop(t *testing.T) {
	h := newHarness(harnessOpts{seed: 5})
	h.tick(t0, confirm())

	box := battle.DefaultSettings().BattleBox
	ps := h.s.Projectiles()
	require.NotEmpty(t, ps)
	for _, p := range ps {
		assert.Equal(t, projectile.Straight, p.Mode())
		pos := p.Position()
		assert.Equal(t, box.Y-6, pos.Y)
		assert.GreaterOrEqual(t, pos.X, box.X)
		assert.LessOrEqual(t, pos.X, box.Right())
	}
}

func TestSpawn_SpreadSpeedsWithinRange(t *testing.T) {
	h := newHarness(harnessOpts{seed: 9})
	h.tick(t0, confirm())
	start := map[*projectile.Projectile]geom.Vec{}
	for _, p := range h.s.Projectiles() {
		start[p] = p.Position()
	}
	h.tick(t0.Add(frame), battle.Input{})
	for _, p := range h.s.Projectiles() {
		dy := p.Position().Y - start[p].Y
		assert.GreaterOrEqual(t, dy, 2.0)
		assert.LessOrEqual(t, dy, 5.0)
		assert.Equal(t, start[p].X, p.Position().X)
	}
}

func TestSpawn_TargetedAimsAtPlayerCell(t *testing.T) {
	h := newHarness(harnessOpts{chooser: fixedChooser{battle.AttackTargeted}})
	res := h.tick(t0, confirm())
	require.Equal(t, 1, res.Spawned)

	ps := h.s.Projectiles()
	require.Len(t, ps, 1)
	p := ps[0]
	assert.Equal(t, projectile.PathFollowing, p.Mode())
	// player at (650,425) is cell (16,10); the box top row is 7
	assert.Equal(t, geom.Vec{X: 660, Y: 300}, p.Position())
}

func TestSpawn_TargetedFallsBackToNeighbourColumn(t *testing.T) {
	g := openGrid()
	g.Set(grid.Cell{X: 16, Y: 7}, true)
	h := newHarness(harnessOpts{chooser: fixedChooser{battle.AttackTargeted}, grids: staticGrids{g: g}})
	h.tick(t0, confirm())

	ps := h.s.Projectiles()
	require.Len(t, ps, 1)
	assert.Equal(t, geom.Vec{X: 620, Y: 300}, ps[0].Position(), "offset -1 is tried second")
}

func TestSpawn_TargetedSkippedWhenNoCandidateHasPath(t *testing.T) {
	g := openGrid()
	for x := 0; x < g.Width; x++ {
		g.Set(grid.Cell{X: x, Y: 8}, true)
	}
	h := newHarness(harnessOpts{chooser: fixedChooser{battle.AttackTargeted}, grids: staticGrids{g: g}})
	res := h.tick(t0, confirm())

	assert.Equal(t, battle.PhaseDodging, res.Phase)
	assert.Zero(t, res.Spawned)
	assert.Zero(t, h.s.ProjectileCount())
	assert.Equal(t, 1, h.logs.FilterMessage("targeted attack skipped: no path").Len())
}

func TestSpawn_TargetedWithoutGrid(t *testing.T) {
	h := newHarness(harnessOpts{
		chooser: fixedChooser{battle.AttackTargeted},
		grids:   staticGrids{err: errors.New("room gone")},
	})
	res := h.tick(t0, confirm())
	assert.Zero(t, res.Spawned)
	assert.Equal(t, 1, h.logs.FilterMessage("grid unavailable; targeted attacks disabled for this wave").Len())
}

func TestSpawn_OutsideDodgingIsNoop(t *testing.T) {
	h := newHarness(harnessOpts{})
	assert.Zero(t, h.spawner.Spawn(h.s, openGrid(), t0))
	assert.Zero(t, h.s.Waves())
}

func TestSpawn_TargetedAddsAtMostOne_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var obstacles []geom.Rect
		for i, n := 0, rapid.IntRange(0, 8).Draw(rt, "obstacles"); i < n; i++ {
			obstacles = append(obstacles, geom.R(
				rapid.Float64Range(0, 1300).Draw(rt, "ox"),
				rapid.Float64Range(0, 720).Draw(rt, "oy"),
				rapid.Float64Range(1, 300).Draw(rt, "ow"),
				rapid.Float64Range(1, 200).Draw(rt, "oh"),
			))
		}
		g := grid.Build(geom.Size{W: 1300, H: 720}, obstacles, 40)
		settings := battle.DefaultSettings()
		settings.HitDamage = 0
		h := newHarness(harnessOpts{
			settings: settings,
			chooser:  fixedChooser{battle.AttackTargeted},
			grids:    staticGrids{g: g},
			seed:     rapid.Uint64().Draw(rt, "seed"),
		})
		res := h.tick(t0, confirm())
		assert.LessOrEqual(rt, res.Spawned, 1)

		for i, n := 1, rapid.IntRange(1, 20).Draw(rt, "calls"); i <= n; i++ {
			h.tick(t0.Add(frame*timeUnits(i)), battle.Input{Move: geom.Vec{
				X: float64(rapid.IntRange(-1, 1).Draw(rt, "dx")),
				Y: float64(rapid.IntRange(-1, 1).Draw(rt, "dy")),
			}})
			before := h.s.ProjectileCount()
			added := h.spawner.Spawn(h.s, g, t0.Add(frame*timeUnits(i)))
			assert.LessOrEqual(rt, added, 1)
			assert.Equal(rt, before+added, h.s.ProjectileCount())
		}
	})
}

func timeUnits(i int) time.Duration { return time.Duration(i) }
