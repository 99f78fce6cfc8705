package hud

import (
	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/geom"
)

// Keys is one tick's keyboard state. Held keys steer the dodge box; the
// Pressed fields are true only on the tick a key went down.
type Keys struct {
	Up, Down, Left, Right bool

	LeftPressed, RightPressed, ConfirmPressed bool
}

// Input converts key state to session input. Opposing held keys cancel.
func (k Keys) Input() battle.Input {
	var move geom.Vec
	if k.Left {
		move.X--
	}
	if k.Right {
		move.X++
	}
	if k.Up {
		move.Y--
	}
	if k.Down {
		move.Y++
	}
	return battle.Input{
		Move:    move,
		Left:    k.LeftPressed,
		Right:   k.RightPressed,
		Confirm: k.ConfirmPressed,
	}
}
