package battle

import (
	"math"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// dangerRadius is how close a projectile must be before the bot reacts.
const dangerRadius = 90.0

// DodgeBot plays a session without a human. In Selecting it uses ITEM
// whenever it is enabled and FIGHTs otherwise; with Mercy set it asks for
// mercy instead. While dodging it steps away from the nearest projectile and
// drifts back toward the middle of the arena when nothing is close.
type DodgeBot struct {
	Mercy bool
}

// Input returns the bot's intent for the session's current phase.
func (b DodgeBot) Input(s *Session) Input {
	switch ph := s.Phase().(type) {
	case Selecting:
		want := ActionFight
		switch {
		case b.Mercy:
			want = ActionMercy
		case s.ItemEnabled():
			want = ActionItem
		}
		if ph.Cursor != want {
			return Input{Right: true}
		}
		return Input{Confirm: true}
	case Dodging:
		return Input{Move: b.evade(s, ph)}
	default:
		return Input{}
	}
}

func (b DodgeBot) evade(s *Session, ph Dodging) geom.Vec {
	me := ph.DodgeBox.Center()
	nearest := math.Inf(1)
	var threat geom.Vec
	for _, p := range s.projectiles {
		if d := me.Dist(p.Position()); d < nearest {
			nearest = d
			threat = p.Position()
		}
	}
	if nearest > dangerRadius {
		return direction(me, ph.Region.Center())
	}
	away := direction(threat, me)
	if away == (geom.Vec{}) {
		away = geom.Vec{X: 1}
	}
	return away
}

// direction returns the per-axis sign of to - from.
func direction(from, to geom.Vec) geom.Vec {
	return geom.Vec{X: sign(to.X - from.X), Y: sign(to.Y - from.Y)}
}

func sign(v float64) float64 {
	switch {
	case v > 0.5:
		return 1
	case v < -0.5:
		return -1
	default:
		return 0
	}
}
