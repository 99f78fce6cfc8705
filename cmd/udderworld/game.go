package main

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/app"
	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/world"
	"github.com/udderworld/udderworld/internal/hud"
)

var background = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff}

// game adapts a battle session to ebiten's Update/Draw cycle. Update runs on
// ebiten's fixed tick, so each call advances the session by one frame.
type game struct {
	ctx     context.Context
	rt      *app.Runtime
	room    string
	session *battle.Session
	logger  *zap.Logger
}

func newGame(ctx context.Context, rt *app.Runtime, room string, logger *zap.Logger) (*game, error) {
	g := &game{ctx: ctx, rt: rt, room: room, logger: logger}
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) restart() error {
	s, err := g.rt.NewSession(g.room)
	if err != nil {
		return fmt.Errorf("starting encounter in %s: %w", g.room, err)
	}
	g.session = s
	g.logger.Info("encounter started", zap.String("session", s.ID().String()), zap.Int("level", s.Level()))
	return nil
}

func readKeys() hud.Keys {
	return hud.Keys{
		Up:    ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:  ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),

		LeftPressed:    inpututil.IsKeyJustPressed(ebiten.KeyA) || inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft),
		RightPressed:   inpututil.IsKeyJustPressed(ebiten.KeyD) || inpututil.IsKeyJustPressed(ebiten.KeyArrowRight),
		ConfirmPressed: inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace),
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	keys := readKeys()

	if g.session.Done() {
		if keys.ConfirmPressed {
			g.rt.Finish(g.session)
			return g.restart()
		}
		return nil
	}

	res := g.session.Tick(g.ctx, time.Now(), keys.Input())
	if res.PersistErr != nil {
		g.logger.Warn("progress not saved", zap.Error(res.PersistErr))
	}
	if res.LevelAwarded {
		g.logger.Info("level up", zap.Int("level", g.session.Level()))
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	frame := hud.Compose(g.session, g.currentRoom(), time.Now())
	for _, s := range frame.Shapes {
		r := s.Rect
		switch s.Mode {
		case hud.Outline:
			vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 2, s.Color, false)
		default:
			vector.FillRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), s.Color, false)
		}
	}
	for _, l := range frame.Labels {
		ebitenutil.DebugPrintAt(screen, l.Text, int(l.At.X), int(l.At.Y))
	}
}

// currentRoom returns the live room so hot-reloaded obstacles show up
// immediately.
func (g *game) currentRoom() *world.Room {
	r, err := g.rt.Rooms.Room(g.room)
	if err != nil {
		return nil
	}
	return r
}

func (g *game) Layout(int, int) (int, int) {
	return g.rt.Config.Client.WindowWidth, g.rt.Config.Client.WindowHeight
}
