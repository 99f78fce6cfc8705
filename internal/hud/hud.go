// Package hud turns a battle session into a flat list of shapes and labels
// for a renderer to paint, and maps held keys to session input.
package hud

import (
	"fmt"
	"image/color"
	"time"

	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/projectile"
	"github.com/udderworld/udderworld/internal/game/world"
)

// Fill modes.
const (
	Filled = iota
	Outline
)

// Palette.
var (
	ColorObstacle   = color.RGBA{R: 0x55, G: 0x44, B: 0x33, A: 0xff}
	ColorBattleBox  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ColorDodgeBox   = color.RGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	ColorProjectile = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	ColorHoming     = color.RGBA{R: 0xff, G: 0x45, B: 0x45, A: 0xff}
	ColorHPFull     = color.RGBA{R: 0x3c, G: 0xb3, B: 0x71, A: 0xff}
	ColorHPEmpty    = color.RGBA{R: 0x8b, G: 0x00, B: 0x00, A: 0xff}
)

// Shape is one rectangle to paint.
type Shape struct {
	Rect  geom.Rect
	Mode  int
	Color color.RGBA
}

// Label is one line of text anchored at its top-left corner.
type Label struct {
	Text string
	At   geom.Vec
}

// Frame is everything drawn for one tick, back to front.
type Frame struct {
	Shapes []Shape
	Labels []Label
}

const (
	hpBarW   = 200
	hpBarH   = 12
	menuGap  = 140
	lineStep = 18
)

// Compose builds the frame for s at now. room may be nil, in which case no
// obstacles are drawn.
func Compose(s *battle.Session, room *world.Room, now time.Time) Frame {
	var f Frame
	box := s.Settings().BattleBox

	if room != nil {
		for _, ob := range room.Obstacles {
			f.Shapes = append(f.Shapes, Shape{Rect: ob, Mode: Filled, Color: ColorObstacle})
		}
	}
	f.Shapes = append(f.Shapes, Shape{Rect: box, Mode: Outline, Color: ColorBattleBox})

	if dodge, ok := s.DodgeBox(); ok {
		f.Shapes = append(f.Shapes, Shape{Rect: dodge, Mode: Filled, Color: ColorDodgeBox})
	}
	for _, p := range s.Projectiles() {
		c := ColorProjectile
		if p.Mode() == projectile.PathFollowing {
			c = ColorHoming
		}
		f.Shapes = append(f.Shapes, Shape{Rect: p.Footprint(), Mode: Filled, Color: c})
	}

	below := geom.Vec{X: box.X, Y: box.Bottom() + 16}
	f.hpBar("YOU", s.Player(), below)
	f.hpBar("ENEMY", s.Enemy(), geom.Vec{X: box.X, Y: box.Y - 16 - hpBarH})

	menuY := below.Y + hpBarH + 12
	switch ph := s.Phase().(type) {
	case battle.Selecting:
		for i, a := range battle.Actions {
			text := "  " + a.String()
			if a == ph.Cursor {
				text = "> " + a.String()
			}
			f.Labels = append(f.Labels, Label{Text: text, At: geom.Vec{X: box.X + float64(i*menuGap), Y: menuY}})
		}
	case battle.Dodging:
		left := ph.EndsAt(s.Settings().DodgeDuration).Sub(now)
		if left < 0 {
			left = 0
		}
		f.Labels = append(f.Labels, Label{
			Text: fmt.Sprintf("DODGE! %.1fs", left.Seconds()),
			At:   geom.Vec{X: box.X, Y: menuY},
		})
	case battle.Ended:
		f.Labels = append(f.Labels, Label{
			Text: EndBanner(ph.Outcome, s.Level()),
			At:   geom.Vec{X: box.X, Y: menuY},
		})
	}

	if msg := s.Message(now); msg != "" {
		f.Labels = append(f.Labels, Label{Text: msg, At: geom.Vec{X: box.X, Y: menuY + lineStep}})
	}
	f.Labels = append(f.Labels, Label{
		Text: fmt.Sprintf("LV %d  %s", s.Level(), s.RoomID()),
		At:   geom.Vec{X: 8, Y: 8},
	})
	return f
}

// EndBanner is the text shown once an encounter is over.
func EndBanner(o battle.Outcome, level int) string {
	switch o {
	case battle.OutcomeVictory:
		return fmt.Sprintf("VICTORY! Reached level %d. ENTER to fight again", level)
	case battle.OutcomeMercy:
		return "The enemy spared you. ENTER to fight again"
	case battle.OutcomeDefeat:
		return "You were defeated. ENTER to try again"
	default:
		return ""
	}
}

// hpBar adds a label and a two-part bar for c with its top-left at at.
func (f *Frame) hpBar(name string, c battle.Combatant, at geom.Vec) {
	f.Labels = append(f.Labels, Label{
		Text: fmt.Sprintf("%s %d/%d", name, c.HP, c.MaxHP),
		At:   geom.Vec{X: at.X + hpBarW + 10, Y: at.Y - 2},
	})
	full := 0.0
	if c.MaxHP > 0 {
		full = hpBarW * float64(c.HP) / float64(c.MaxHP)
	}
	f.Shapes = append(f.Shapes, Shape{Rect: geom.R(at.X, at.Y, hpBarW, hpBarH), Mode: Filled, Color: ColorHPEmpty})
	if full > 0 {
		f.Shapes = append(f.Shapes, Shape{Rect: geom.R(at.X, at.Y, full, hpBarH), Mode: Filled, Color: ColorHPFull})
	}
}
