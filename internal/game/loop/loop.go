// Package loop drives a callback at a fixed tick rate.
package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrStop may be returned by a TickFunc to end Run without error.
var ErrStop = errors.New("loop: stop")

// TickFunc is invoked once per tick with the tick's wall-clock time.
type TickFunc func(ctx context.Context, now time.Time) error

// Loop invokes its TickFunc on a fixed interval. Ticks never overlap: a
// callback that overruns the interval delays the next tick rather than
// queuing extra ones.
type Loop struct {
	interval time.Duration
	fn       TickFunc
	ticks    atomic.Int64
}

// Hz converts a tick rate into an interval.
//
// Precondition: tps must be > 0.
func Hz(tps int) time.Duration {
	if tps <= 0 {
		panic("loop.Hz: tps must be > 0")
	}
	return time.Second / time.Duration(tps)
}

// New returns a loop that calls fn every interval.
//
// Precondition: interval must be > 0 and fn must be non-nil.
func New(interval time.Duration, fn TickFunc) *Loop {
	if interval <= 0 {
		panic("loop.New: interval must be > 0")
	}
	if fn == nil {
		panic("loop.New: fn must not be nil")
	}
	return &Loop{interval: interval, fn: fn}
}

// Run ticks until ctx is cancelled or fn returns an error.
//
// Postcondition: Returns nil when fn returned ErrStop, ctx.Err() on
// cancellation, or fn's error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.ticks.Add(1)
			if err := l.fn(ctx, now); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
}

// Ticks returns how many times fn has been invoked.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}

// Interval returns the tick interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}
