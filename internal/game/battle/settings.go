package battle

import (
	"time"

	"github.com/udderworld/udderworld/internal/config"
	"github.com/udderworld/udderworld/internal/game/geom"
)

// Settings holds the numeric tunables of one encounter.
type Settings struct {
	TileSize int
	// BattleBox is the arena; spread shots enter across its top edge.
	BattleBox geom.Rect
	// DodgeMargin inflates BattleBox into the region the dodge box may roam.
	DodgeMargin float64
	CursorSize  geom.Size
	// CursorSpeed is how far the dodge box moves per tick along each axis.
	CursorSpeed float64

	ProjectileSize     geom.Size
	ProjectileLifetime time.Duration
	SpreadMin          int
	SpreadMax          int
	SpreadSpeedMin     float64
	SpreadSpeedMax     float64
	TargetedSpeed      float64
	TargetedOffsets    []int

	WaveInterval  time.Duration
	DodgeDuration time.Duration

	PlayerMaxHP int
	EnemyMaxHP  int
	HitDamage   int
	ItemDamage  int

	MessageDuration time.Duration
	MercyDuration   time.Duration
}

// DefaultSettings returns the stock encounter tuning.
func DefaultSettings() Settings {
	return Settings{
		TileSize:           40,
		BattleBox:          geom.R(450, 300, 400, 250),
		DodgeMargin:        20,
		CursorSize:         geom.Size{W: 24, H: 24},
		CursorSpeed:        3,
		ProjectileSize:     geom.Size{W: 12, H: 12},
		ProjectileLifetime: 3 * time.Second,
		SpreadMin:          3,
		SpreadMax:          5,
		SpreadSpeedMin:     2,
		SpreadSpeedMax:     5,
		TargetedSpeed:      3,
		TargetedOffsets:    []int{0, -1, 1, -2, 2},
		WaveInterval:       800 * time.Millisecond,
		DodgeDuration:      10 * time.Second,
		PlayerMaxHP:        20,
		EnemyMaxHP:         30,
		HitDamage:          3,
		ItemDamage:         10,
		MessageDuration:    1500 * time.Millisecond,
		MercyDuration:      1500 * time.Millisecond,
	}
}

// SettingsFromConfig converts validated configuration into Settings.
//
// Precondition: cfg has passed config.Config.Validate.
func SettingsFromConfig(cfg config.BattleConfig) Settings {
	box := cfg.BattleBox
	offsets := make([]int, len(cfg.TargetedOffsets))
	copy(offsets, cfg.TargetedOffsets)
	return Settings{
		TileSize:           cfg.TileSize,
		BattleBox:          geom.R(box.X, box.Y, box.W, box.H),
		DodgeMargin:        cfg.DodgeMargin,
		CursorSize:         geom.Size{W: cfg.CursorSize, H: cfg.CursorSize},
		CursorSpeed:        cfg.CursorSpeed,
		ProjectileSize:     geom.Size{W: cfg.ProjectileSize, H: cfg.ProjectileSize},
		ProjectileLifetime: cfg.ProjectileLifetime,
		SpreadMin:          cfg.SpreadMin,
		SpreadMax:          cfg.SpreadMax,
		SpreadSpeedMin:     cfg.SpreadSpeedMin,
		SpreadSpeedMax:     cfg.SpreadSpeedMax,
		TargetedSpeed:      cfg.TargetedSpeed,
		TargetedOffsets:    offsets,
		WaveInterval:       cfg.WaveInterval,
		DodgeDuration:      cfg.DodgeDuration,
		PlayerMaxHP:        cfg.PlayerMaxHP,
		EnemyMaxHP:         cfg.EnemyMaxHP,
		HitDamage:          cfg.HitDamage,
		ItemDamage:         cfg.ItemDamage,
		MessageDuration:    cfg.MessageDuration,
		MercyDuration:      cfg.MercyDuration,
	}
}

// DodgeRegion is the area the dodge box is clamped to.
func (s Settings) DodgeRegion() geom.Rect {
	return s.BattleBox.Inflate(s.DodgeMargin)
}
