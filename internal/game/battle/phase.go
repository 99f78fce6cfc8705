// Package battle implements the encounter state machine, its wave spawner,
// and the attack-choice policies that drive it.
package battle

import (
	"time"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// PhaseKind tags the variant held in a Phase.
type PhaseKind int

const (
	PhaseSelecting PhaseKind = iota
	PhaseDodging
	PhaseItemDisplay
	PhaseMercyDisplay
	PhaseEnded
)

// String returns a human-readable phase label.
func (k PhaseKind) String() string {
	switch k {
	case PhaseSelecting:
		return "selecting"
	case PhaseDodging:
		return "dodging"
	case PhaseItemDisplay:
		return "item-display"
	case PhaseMercyDisplay:
		return "mercy-display"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Phase is the closed set of session states. Each variant carries only the
// data that phase needs.
type Phase interface {
	Kind() PhaseKind
	phase()
}

// Selecting waits for the player to pick an action.
type Selecting struct {
	Cursor Action
}

// Dodging runs the projectile countdown.
type Dodging struct {
	StartedAt  time.Time
	NextWaveAt time.Time
	// DodgeBox is the player's hitbox.
	DodgeBox geom.Rect
	// Region bounds DodgeBox.
	Region geom.Rect
}

// EndsAt returns when the countdown elapses for a duration.
func (d Dodging) EndsAt(duration time.Duration) time.Time {
	return d.StartedAt.Add(duration)
}

// ItemDisplay shows the item result until Until.
type ItemDisplay struct {
	Until time.Time
}

// MercyDisplay shows the mercy response until Until. Accepted ends the
// encounter when the display elapses.
type MercyDisplay struct {
	Until    time.Time
	Accepted bool
}

// Ended is terminal.
type Ended struct {
	Outcome Outcome
	At      time.Time
}

func (Selecting) Kind() PhaseKind    { return PhaseSelecting }
func (Dodging) Kind() PhaseKind      { return PhaseDodging }
func (ItemDisplay) Kind() PhaseKind  { return PhaseItemDisplay }
func (MercyDisplay) Kind() PhaseKind { return PhaseMercyDisplay }
func (Ended) Kind() PhaseKind        { return PhaseEnded }

func (Selecting) phase()    {}
func (Dodging) phase()      {}
func (ItemDisplay) phase()  {}
func (MercyDisplay) phase() {}
func (Ended) phase()        {}

// Action is a menu choice in Selecting.
type Action int

const (
	ActionFight Action = iota
	ActionItem
	ActionMercy

	actionCount = 3
)

// Actions lists the menu in display order.
var Actions = []Action{ActionFight, ActionItem, ActionMercy}

// String returns the menu label.
func (a Action) String() string {
	switch a {
	case ActionFight:
		return "FIGHT"
	case ActionItem:
		return "ITEM"
	case ActionMercy:
		return "MERCY"
	default:
		return "UNKNOWN"
	}
}

// Next returns the action to the right, wrapping.
func (a Action) Next() Action { return (a + 1) % actionCount }

// Prev returns the action to the left, wrapping.
func (a Action) Prev() Action { return (a + actionCount - 1) % actionCount }

// Turn records whose turn it is. It is bookkeeping only and never gates input.
type Turn int

const (
	TurnPlayer Turn = iota
	TurnEnemy
)

// String returns a human-readable turn label.
func (t Turn) String() string {
	if t == TurnEnemy {
		return "enemy"
	}
	return "player"
}

// Outcome is how an encounter ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeMercy
	OutcomeDefeat
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeMercy:
		return "mercy"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "none"
	}
}
