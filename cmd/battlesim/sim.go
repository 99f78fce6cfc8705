package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/udderworld/udderworld/internal/app"
	"github.com/udderworld/udderworld/internal/game/battle"
	"github.com/udderworld/udderworld/internal/game/loop"
)

// simulator plays encounters back to back on a virtual clock that advances
// one frame per loop tick.
type simulator struct {
	rt     *app.Runtime
	room   string
	want   int
	bot    battle.DodgeBot
	frame  time.Duration
	logger *zap.Logger

	clock   time.Time
	session *battle.Session
	ticks   int
	played  int
	waves   int
	results map[battle.Outcome]int
}

func newSimulator(rt *app.Runtime, room string, encounters int, mercy bool, frame time.Duration, logger *zap.Logger) *simulator {
	return &simulator{
		rt:      rt,
		room:    room,
		want:    encounters,
		bot:     battle.DodgeBot{Mercy: mercy},
		frame:   frame,
		logger:  logger,
		clock:   time.Now(),
		results: make(map[battle.Outcome]int),
	}
}

// tick advances the current encounter by one frame, starting the next one
// when it ends.
//
// Postcondition: Returns loop.ErrStop once every encounter has ended.
func (s *simulator) tick(ctx context.Context, _ time.Time) error {
	if s.session == nil {
		sess, err := s.rt.NewSession(s.room)
		if err != nil {
			return fmt.Errorf("starting encounter: %w", err)
		}
		s.session = sess
		s.logger.Info("encounter started",
			zap.Int("encounter", s.played+1),
			zap.String("session", sess.ID().String()),
			zap.Int("level", sess.Level()),
		)
	}

	s.clock = s.clock.Add(s.frame)
	s.ticks++
	res := s.session.Tick(ctx, s.clock, s.bot.Input(s.session))
	if res.PersistErr != nil {
		s.logger.Warn("progress not saved", zap.Error(res.PersistErr))
	}
	if !s.session.Done() {
		return nil
	}

	s.played++
	s.waves += s.session.Waves()
	s.results[s.session.Outcome()]++
	s.rt.Finish(s.session)
	s.logger.Info("encounter ended",
		zap.Int("encounter", s.played),
		zap.Stringer("outcome", s.session.Outcome()),
		zap.Int("player_hp", s.session.Player().HP),
		zap.Int("enemy_hp", s.session.Enemy().HP),
		zap.Int("waves", s.session.Waves()),
		zap.Int("level", s.rt.Profile.Level),
	)
	s.session = nil
	if s.played >= s.want {
		return loop.ErrStop
	}
	return nil
}

func (s *simulator) report() {
	s.logger.Info("simulation complete",
		zap.Int("encounters", s.played),
		zap.Int("victories", s.results[battle.OutcomeVictory]),
		zap.Int("defeats", s.results[battle.OutcomeDefeat]),
		zap.Int("mercies", s.results[battle.OutcomeMercy]),
		zap.Int("waves", s.waves),
		zap.Int("ticks", s.ticks),
		zap.Duration("simulated", time.Duration(s.ticks)*s.frame),
		zap.Int("final_level", s.rt.Profile.Level),
	)
}
