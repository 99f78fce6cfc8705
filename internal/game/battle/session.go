package battle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/grid"
	"github.com/udderworld/udderworld/internal/game/projectile"
)

// Persister saves encounter rewards. Both calls are made exactly once per
// victorious session.
type Persister interface {
	SaveLevel(ctx context.Context, playerID int64, level int) error
	SaveCheckpoint(ctx context.Context, playerID int64, roomID string) error
}

// NopPersister discards rewards.
type NopPersister struct{}

func (NopPersister) SaveLevel(context.Context, int64, int) error        { return nil }
func (NopPersister) SaveCheckpoint(context.Context, int64, string) error { return nil }

// GridSource returns the occupancy grid of a room.
type GridSource interface {
	Get(roomID string) (*grid.Grid, error)
}

// Messages shown in the encounter's text box.
const (
	msgItemLocked    = "You have nothing to use. FIGHT first!"
	msgItemUsed      = "You hurl a bucket of milk! The enemy reels."
	msgMercyTaunt    = "The enemy snorts. \"Mercy? Earn it.\""
	msgMercyAccepted = "The enemy lowers its horns and lets you go."
	msgVictory       = "The enemy collapses. You grow stronger!"
	msgDefeat        = "You are out of milk..."
)

// Input is one tick of player intent.
type Input struct {
	// Move is the dodge direction; each component is clamped to [-1, 1].
	Move geom.Vec
	// Left and Right step the action cursor; they should be edge-triggered.
	Left  bool
	Right bool
	// Confirm selects the action under the cursor.
	Confirm bool
}

// TickResult describes what one Tick did.
type TickResult struct {
	From    PhaseKind
	Phase   PhaseKind
	Spawned int
	Hits    int
	Removed int
	Outcome Outcome
	// LevelAwarded is true only on the tick that won the encounter.
	LevelAwarded bool
	// PersistErr joins any persistence failures from the victory tick.
	PersistErr error
}

// Changed reports whether the tick moved the session to a new phase.
func (r TickResult) Changed() bool { return r.From != r.Phase }

// Params identifies the encounter.
type Params struct {
	PlayerID int64
	RoomID   string
	// Level is the player's level before the encounter.
	Level    int
	Settings Settings
}

// Session is one encounter between the player and one enemy. It is driven
// by Tick from a single goroutine and is not safe for concurrent use.
type Session struct {
	id       uuid.UUID
	playerID int64
	roomID   string
	settings Settings

	player Combatant
	enemy  Combatant
	level  int

	phase       Phase
	turn        Turn
	itemEnabled bool
	mercyCount  int
	waves       int
	awarded     bool

	projectiles []*projectile.Projectile

	message      string
	messageUntil time.Time

	spawner   *WaveSpawner
	grids     GridSource
	persister Persister
	logger    *zap.Logger
}

// NewSession creates a session in Selecting with the cursor on FIGHT.
// grids and persister may be nil.
//
// Precondition: spawner and logger must be non-nil; p.Settings must be valid.
// Postcondition: both combatants are at full HP and no projectiles exist.
func NewSession(p Params, spawner *WaveSpawner, grids GridSource, persister Persister, logger *zap.Logger) *Session {
	if spawner == nil {
		panic("battle.NewSession: spawner must not be nil")
	}
	if logger == nil {
		panic("battle.NewSession: logger must not be nil")
	}
	if persister == nil {
		persister = NopPersister{}
	}
	id := uuid.New()
	return &Session{
		id:        id,
		playerID:  p.PlayerID,
		roomID:    p.RoomID,
		settings:  p.Settings,
		player:    newCombatant("player", p.Settings.PlayerMaxHP),
		enemy:     newCombatant("enemy", p.Settings.EnemyMaxHP),
		level:     p.Level,
		phase:     Selecting{Cursor: ActionFight},
		turn:      TurnPlayer,
		spawner:   spawner,
		grids:     grids,
		persister: persister,
		logger:    logger.With(zap.String("session", id.String()), zap.String("room", p.RoomID)),
	}
}

// Tick advances the session by one frame at time now.
//
// Postcondition: an Ended session is never changed again.
func (s *Session) Tick(ctx context.Context, now time.Time, in Input) TickResult {
	res := TickResult{From: s.phase.Kind()}
	switch ph := s.phase.(type) {
	case Selecting:
		s.tickSelecting(now, ph, in, &res)
	case Dodging:
		s.tickDodging(ctx, now, ph, in, &res)
	case ItemDisplay:
		if !now.Before(ph.Until) {
			s.turn = TurnEnemy
			if s.enemy.Defeated() {
				s.win(ctx, now, &res)
			} else {
				s.setPhase(Selecting{Cursor: ActionItem})
			}
		}
	case MercyDisplay:
		if !now.Before(ph.Until) {
			if ph.Accepted {
				s.end(now, OutcomeMercy)
			} else {
				s.setPhase(Selecting{Cursor: ActionMercy})
			}
		}
	case Ended:
	}
	res.Phase = s.phase.Kind()
	res.Outcome = s.Outcome()
	return res
}

func (s *Session) tickSelecting(now time.Time, ph Selecting, in Input, res *TickResult) {
	if in.Left {
		ph.Cursor = ph.Cursor.Prev()
	}
	if in.Right {
		ph.Cursor = ph.Cursor.Next()
	}
	s.phase = ph
	if !in.Confirm {
		return
	}

	switch ph.Cursor {
	case ActionFight:
		s.itemEnabled = true
		res.Spawned = s.startDodging(now)
	case ActionItem:
		if !s.itemEnabled {
			s.say(msgItemLocked, now, s.settings.MessageDuration)
			return
		}
		s.enemy.ApplyDamage(s.settings.ItemDamage)
		s.itemEnabled = false
		s.say(msgItemUsed, now, s.settings.MessageDuration)
		s.setPhase(ItemDisplay{Until: now.Add(s.settings.MessageDuration)})
	case ActionMercy:
		s.mercyCount++
		accepted := s.mercyCount >= 2
		msg := msgMercyTaunt
		if accepted {
			msg = msgMercyAccepted
		}
		s.say(msg, now, s.settings.MercyDuration)
		s.setPhase(MercyDisplay{Until: now.Add(s.settings.MercyDuration), Accepted: accepted})
	}
}

// startDodging enters Dodging with the dodge box centered in the battle box
// and fires the opening wave.
func (s *Session) startDodging(now time.Time) int {
	cfg := s.settings
	s.turn = TurnEnemy
	s.setPhase(Dodging{
		StartedAt:  now,
		NextWaveAt: now.Add(cfg.WaveInterval),
		DodgeBox:   geom.CenteredAt(cfg.BattleBox.Center(), cfg.CursorSize),
		Region:     cfg.DodgeRegion(),
	})
	return s.spawnWave(now)
}

func (s *Session) spawnWave(now time.Time) int {
	var g *grid.Grid
	if s.grids != nil {
		var err error
		g, err = s.grids.Get(s.roomID)
		if err != nil {
			s.logger.Warn("grid unavailable; targeted attacks disabled for this wave", zap.Error(err))
			g = nil
		}
	}
	return s.spawner.Spawn(s, g, now)
}

func (s *Session) tickDodging(ctx context.Context, now time.Time, ph Dodging, in Input, res *TickResult) {
	cfg := s.settings
	step := geom.Vec{X: clampUnit(in.Move.X), Y: clampUnit(in.Move.Y)}.Scale(cfg.CursorSpeed)
	ph.DodgeBox = ph.DodgeBox.Translate(step).ClampInside(ph.Region)

	endsAt := ph.EndsAt(cfg.DodgeDuration)
	if !now.Before(ph.NextWaveAt) && now.Before(endsAt) {
		ph.NextWaveAt = ph.NextWaveAt.Add(cfg.WaveInterval)
		if !ph.NextWaveAt.After(now) {
			ph.NextWaveAt = now.Add(cfg.WaveInterval)
		}
		s.phase = ph
		res.Spawned = s.spawnWave(now)
	}
	s.phase = ph

	res.Hits, res.Removed = s.resolveProjectiles(now, ph.DodgeBox)
	if res.Hits > 0 {
		s.player.ApplyDamage(res.Hits * cfg.HitDamage)
	}

	switch {
	case s.player.Defeated():
		s.say(msgDefeat, now, cfg.MessageDuration)
		s.end(now, OutcomeDefeat)
	case s.enemy.Defeated():
		s.win(ctx, now, res)
	case !now.Before(endsAt):
		s.clearProjectiles()
		s.turn = TurnPlayer
		s.setPhase(Selecting{Cursor: ActionFight})
	}
}

// resolveProjectiles updates every projectile, then keeps only those still
// alive and not touching target. The active slice is compacted in place.
func (s *Session) resolveProjectiles(now time.Time, target geom.Rect) (hits, removed int) {
	kept := s.projectiles[:0]
	for _, p := range s.projectiles {
		if p.Update(now) == projectile.Expired {
			removed++
			continue
		}
		if p.CheckCollision(target) {
			hits++
			removed++
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.projectiles); i++ {
		s.projectiles[i] = nil
	}
	s.projectiles = kept
	return hits, removed
}

// win ends the encounter in victory and saves the reward. It runs at most
// once per session.
func (s *Session) win(ctx context.Context, now time.Time, res *TickResult) {
	if s.awarded {
		return
	}
	s.awarded = true
	s.level++
	s.say(msgVictory, now, s.settings.MessageDuration)
	s.end(now, OutcomeVictory)
	res.LevelAwarded = true

	var errs []error
	if err := s.persister.SaveLevel(ctx, s.playerID, s.level); err != nil {
		errs = append(errs, fmt.Errorf("saving level: %w", err))
	}
	if err := s.persister.SaveCheckpoint(ctx, s.playerID, s.roomID); err != nil {
		errs = append(errs, fmt.Errorf("saving checkpoint: %w", err))
	}
	if len(errs) > 0 {
		res.PersistErr = errors.Join(errs...)
		s.logger.Error("persisting victory failed",
			zap.Int64("player_id", s.playerID),
			zap.Int("level", s.level),
			zap.Error(res.PersistErr),
		)
	}
}

func (s *Session) end(now time.Time, o Outcome) {
	s.clearProjectiles()
	s.setPhase(Ended{Outcome: o, At: now})
}

func (s *Session) setPhase(p Phase) {
	from := s.phase.Kind()
	s.phase = p
	if from != p.Kind() {
		s.logger.Info("battle phase changed",
			zap.Stringer("from", from),
			zap.Stringer("to", p.Kind()),
			zap.Int("player_hp", s.player.HP),
			zap.Int("enemy_hp", s.enemy.HP),
		)
	}
}

func (s *Session) clearProjectiles() {
	for i := range s.projectiles {
		s.projectiles[i] = nil
	}
	s.projectiles = s.projectiles[:0]
}

func (s *Session) say(msg string, now time.Time, d time.Duration) {
	s.message = msg
	s.messageUntil = now.Add(d)
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// ID returns the session's unique ID.
func (s *Session) ID() uuid.UUID { return s.id }

// PlayerID returns the player the session belongs to.
func (s *Session) PlayerID() int64 { return s.playerID }

// RoomID returns the room the encounter is fought in.
func (s *Session) RoomID() string { return s.roomID }

// Settings returns the session's tuning.
func (s *Session) Settings() Settings { return s.settings }

// Phase returns the current phase variant.
func (s *Session) Phase() Phase { return s.phase }

// Turn returns whose turn it nominally is.
func (s *Session) Turn() Turn { return s.turn }

// Player returns a copy of the player's combatant.
func (s *Session) Player() Combatant { return s.player }

// Enemy returns a copy of the enemy's combatant.
func (s *Session) Enemy() Combatant { return s.enemy }

// Level returns the player's level, including any award from this session.
func (s *Session) Level() int { return s.level }

// ItemEnabled reports whether ITEM is currently usable.
func (s *Session) ItemEnabled() bool { return s.itemEnabled }

// MercyCount returns how many times MERCY has been chosen.
func (s *Session) MercyCount() int { return s.mercyCount }

// Waves returns the number of waves spawned so far.
func (s *Session) Waves() int { return s.waves }

// Projectiles returns the active projectiles. The slice is a copy; the
// projectiles are shared and must not be mutated.
func (s *Session) Projectiles() []*projectile.Projectile {
	out := make([]*projectile.Projectile, len(s.projectiles))
	copy(out, s.projectiles)
	return out
}

// ProjectileCount returns the number of active projectiles.
func (s *Session) ProjectileCount() int { return len(s.projectiles) }

// DodgeBox returns the player's hitbox while dodging.
//
// Postcondition: ok is false outside the Dodging phase.
func (s *Session) DodgeBox() (box geom.Rect, ok bool) {
	d, ok := s.phase.(Dodging)
	if !ok {
		return geom.Rect{}, false
	}
	return d.DodgeBox, true
}

// Message returns the feedback text visible at now, or "".
func (s *Session) Message(now time.Time) string {
	if now.Before(s.messageUntil) {
		return s.message
	}
	return ""
}

// Outcome returns how the session ended, or OutcomeNone while it runs.
func (s *Session) Outcome() Outcome {
	if e, ok := s.phase.(Ended); ok {
		return e.Outcome
	}
	return OutcomeNone
}

// Done reports whether the session has ended.
func (s *Session) Done() bool { return s.phase.Kind() == PhaseEnded }
