package battle

import (
	"time"

	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/grid"
	"github.com/udderworld/udderworld/internal/game/pathfind"
	"github.com/udderworld/udderworld/internal/game/projectile"
)

// WaveSpawner populates a dodging session with one wave of projectiles.
type WaveSpawner struct {
	roller  *dice.Roller
	chooser Chooser
	logger  *zap.Logger
}

// NewWaveSpawner creates a WaveSpawner. A nil chooser flips a coin between
// the two attacks.
//
// Precondition: roller and logger must be non-nil.
func NewWaveSpawner(roller *dice.Roller, chooser Chooser, logger *zap.Logger) *WaveSpawner {
	if roller == nil {
		panic("battle.NewWaveSpawner: roller must not be nil")
	}
	if logger == nil {
		panic("battle.NewWaveSpawner: logger must not be nil")
	}
	if chooser == nil {
		chooser = NewRandomChooser(roller)
	}
	return &WaveSpawner{roller: roller, chooser: chooser, logger: logger}
}

// Spawn adds one wave to s and returns how many projectiles it added. g may
// be nil, in which case a targeted attack spawns nothing.
//
// Precondition: s must be in the Dodging phase.
// Postcondition: a targeted wave adds at most one projectile.
func (w *WaveSpawner) Spawn(s *Session, g *grid.Grid, now time.Time) int {
	d, ok := s.phase.(Dodging)
	if !ok {
		return 0
	}
	s.waves++
	attack := w.chooser.Choose(WaveInfo{
		RoomID:      s.roomID,
		Wave:        s.waves,
		PlayerHP:    s.player.HP,
		PlayerMaxHP: s.player.MaxHP,
		EnemyHP:     s.enemy.HP,
		EnemyMaxHP:  s.enemy.MaxHP,
		Active:      len(s.projectiles),
	})

	var n int
	switch attack {
	case AttackTargeted:
		n = w.targeted(s, g, d.DodgeBox, now)
	default:
		n = w.spread(s, now)
	}
	w.logger.Debug("wave spawned",
		zap.String("session", s.id.String()),
		zap.Int("wave", s.waves),
		zap.Stringer("attack", attack),
		zap.Int("spawned", n),
	)
	return n
}

// spread drops SpreadMin..SpreadMax straight projectiles from just above the
// battle box, each at its own x and downward speed.
func (w *WaveSpawner) spread(s *Session, now time.Time) int {
	cfg := s.settings
	box := cfg.BattleBox
	count := w.roller.Between("spread_count", cfg.SpreadMin, cfg.SpreadMax)
	for i := 0; i < count; i++ {
		x := box.X + w.roller.FloatBetween("spread_x", 0, box.W)
		speed := w.roller.FloatBetween("spread_speed", cfg.SpreadSpeedMin, cfg.SpreadSpeedMax)
		pos := geom.Vec{X: x, Y: box.Y - cfg.ProjectileSize.H/2}
		s.projectiles = append(s.projectiles,
			projectile.NewStraight(pos, geom.Vec{Y: speed}, cfg.ProjectileSize, now, cfg.ProjectileLifetime))
	}
	return count
}

// targeted tries each candidate column on the battle box's top row, offset
// from the player's column, and spawns from the first one with a path to the
// player's cell.
func (w *WaveSpawner) targeted(s *Session, g *grid.Grid, dodgeBox geom.Rect, now time.Time) int {
	if g == nil {
		w.logger.Debug("targeted attack skipped: no grid", zap.String("room", s.roomID))
		return 0
	}
	cfg := s.settings
	goal := g.CellAt(dodgeBox.Center())
	row := g.CellAt(cfg.BattleBox.Min()).Y
	for _, off := range cfg.TargetedOffsets {
		start := grid.Cell{X: goal.X + off, Y: row}
		if !g.InBounds(start) || g.Blocked(start) {
			continue
		}
		path := pathfind.FindPath(g, start, goal)
		if len(path) == 0 {
			continue
		}
		s.projectiles = append(s.projectiles, projectile.NewPathFollowing(
			g, g.CellCenter(start), path, cfg.TargetedSpeed, cfg.ProjectileSize, now, cfg.ProjectileLifetime))
		return 1
	}
	w.logger.Debug("targeted attack skipped: no path",
		zap.String("room", s.roomID),
		zap.Int("goal_x", goal.X),
		zap.Int("goal_y", goal.Y),
	)
	return 0
}
