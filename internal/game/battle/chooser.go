package battle

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/game/dice"
	"github.com/udderworld/udderworld/internal/scripting"
)

// Attack is a wave archetype.
type Attack int

const (
	// AttackSpread drops several straight projectiles across the battle box.
	AttackSpread Attack = iota
	// AttackTargeted sends one path-following projectile at the player.
	AttackTargeted
)

// String returns the label scripts use for the attack.
func (a Attack) String() string {
	if a == AttackTargeted {
		return "targeted"
	}
	return "spread"
}

// ParseAttack maps a script label to an Attack.
//
// Postcondition: ok is false for any label other than "spread" or "targeted".
func ParseAttack(s string) (Attack, bool) {
	switch s {
	case "spread":
		return AttackSpread, true
	case "targeted":
		return AttackTargeted, true
	default:
		return 0, false
	}
}

// WaveInfo is what an attack policy may look at.
type WaveInfo struct {
	RoomID      string
	Wave        int
	PlayerHP    int
	PlayerMaxHP int
	EnemyHP     int
	EnemyMaxHP  int
	// Active is the number of live projectiles before this wave.
	Active int
}

// Chooser picks the archetype for the next wave.
type Chooser interface {
	Choose(info WaveInfo) Attack
}

// RandomChooser picks spread or targeted with equal probability.
type RandomChooser struct {
	roller *dice.Roller
}

// NewRandomChooser creates a RandomChooser.
//
// Precondition: roller must be non-nil.
func NewRandomChooser(roller *dice.Roller) *RandomChooser {
	return &RandomChooser{roller: roller}
}

// Choose flips a coin.
func (c *RandomChooser) Choose(WaveInfo) Attack {
	if c.roller.Intn("attack", 2) == 0 {
		return AttackSpread
	}
	return AttackTargeted
}

// chooseAttackHook is the Lua global consulted for each wave.
const chooseAttackHook = "choose_attack"

// ScriptChooser asks the room's Lua scope, falling back to the global
// scope, via choose_attack(info). Any answer other than "spread" or
// "targeted" defers to fallback.
type ScriptChooser struct {
	scripts  *scripting.Manager
	fallback Chooser
	logger   *zap.Logger
}

// NewScriptChooser creates a ScriptChooser.
//
// Precondition: scripts, fallback, and logger must be non-nil.
func NewScriptChooser(scripts *scripting.Manager, fallback Chooser, logger *zap.Logger) *ScriptChooser {
	return &ScriptChooser{scripts: scripts, fallback: fallback, logger: logger}
}

// Choose calls the hook with an info table:
//
//	{wave, player_hp, player_max_hp, enemy_hp, enemy_max_hp, active}
func (c *ScriptChooser) Choose(info WaveInfo) Attack {
	ret, err := c.scripts.CallHook(info.RoomID, chooseAttackHook, waveInfoTable(info))
	if err != nil {
		c.logger.Warn("choose_attack hook failed", zap.Error(err))
		return c.fallback.Choose(info)
	}
	if s, ok := ret.(lua.LString); ok {
		if a, ok := ParseAttack(string(s)); ok {
			return a
		}
		c.logger.Debug("choose_attack returned unknown attack", zap.String("attack", string(s)))
	}
	return c.fallback.Choose(info)
}

func waveInfoTable(info WaveInfo) *lua.LTable {
	t := &lua.LTable{Metatable: lua.LNil}
	t.RawSetString("room", lua.LString(info.RoomID))
	t.RawSetString("wave", lua.LNumber(info.Wave))
	t.RawSetString("player_hp", lua.LNumber(info.PlayerHP))
	t.RawSetString("player_max_hp", lua.LNumber(info.PlayerMaxHP))
	t.RawSetString("enemy_hp", lua.LNumber(info.EnemyHP))
	t.RawSetString("enemy_max_hp", lua.LNumber(info.EnemyMaxHP))
	t.RawSetString("active", lua.LNumber(info.Active))
	return t
}
