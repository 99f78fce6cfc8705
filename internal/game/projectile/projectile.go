// Package projectile models the bullets fired at the player while dodging.
package projectile

import (
	"time"

	"github.com/udderworld/udderworld/internal/game/geom"
	"github.com/udderworld/udderworld/internal/game/grid"
)

// Mode selects how a projectile moves.
type Mode int

const (
	// Straight projectiles move by a fixed velocity each tick.
	Straight Mode = iota
	// PathFollowing projectiles walk the pixel centers of a grid path.
	PathFollowing
)

// String returns a human-readable mode label.
func (m Mode) String() string {
	switch m {
	case Straight:
		return "straight"
	case PathFollowing:
		return "path-following"
	default:
		return "unknown"
	}
}

// Status is the result of a projectile update.
type Status int

const (
	Alive Status = iota
	Expired
)

// String returns a human-readable status label.
func (s Status) String() string {
	if s == Expired {
		return "expired"
	}
	return "alive"
}

// Projectile is a moving hazard with a fixed-size footprint centered on its
// position.
//
// Invariant: once Update returns Expired it returns Expired forever.
type Projectile struct {
	mode      Mode
	pos       geom.Vec
	size      geom.Size
	createdAt time.Time
	lifetime  time.Duration
	expired   bool

	// Straight mode.
	velocity geom.Vec

	// PathFollowing mode.
	path      []grid.Cell
	waypoints []geom.Vec
	cursor    int
	speed     float64
}

// NewStraight creates a projectile that moves by velocity every tick and
// expires only when its lifetime elapses.
//
// Precondition: lifetime > 0; size dimensions > 0.
func NewStraight(pos, velocity geom.Vec, size geom.Size, now time.Time, lifetime time.Duration) *Projectile {
	return &Projectile{
		mode:      Straight,
		pos:       pos,
		velocity:  velocity,
		size:      size,
		createdAt: now,
		lifetime:  lifetime,
	}
}

// NewPathFollowing creates a projectile starting at pos that travels through
// the pixel centers of path on g at speed pixels per tick. The projectile
// takes its own copy of path.
//
// Precondition: g must be non-nil; speed > 0; lifetime > 0.
// Postcondition: an empty path produces a projectile that expires on its first update.
func NewPathFollowing(g *grid.Grid, pos geom.Vec, path []grid.Cell, speed float64, size geom.Size, now time.Time, lifetime time.Duration) *Projectile {
	owned := make([]grid.Cell, len(path))
	copy(owned, path)
	waypoints := make([]geom.Vec, len(owned))
	for i, c := range owned {
		waypoints[i] = g.CellCenter(c)
	}
	return &Projectile{
		mode:      PathFollowing,
		pos:       pos,
		size:      size,
		createdAt: now,
		lifetime:  lifetime,
		path:      owned,
		waypoints: waypoints,
		speed:     speed,
	}
}

// Update advances the projectile by one tick.
//
// Postcondition: Returns Expired when now is at or past createdAt+lifetime, or
// when a path-following projectile has already consumed its whole path.
// Otherwise the position (and cursor) advance and Alive is returned.
func (p *Projectile) Update(now time.Time) Status {
	if p.expired {
		return Expired
	}
	if now.Sub(p.createdAt) >= p.lifetime {
		p.expired = true
		return Expired
	}

	switch p.mode {
	case Straight:
		p.pos = p.pos.Add(p.velocity)
	case PathFollowing:
		if p.cursor >= len(p.waypoints) {
			p.expired = true
			return Expired
		}
		target := p.waypoints[p.cursor]
		delta := target.Sub(p.pos)
		dist := delta.Len()
		if dist < p.speed {
			p.pos = target
			p.cursor++
		} else {
			p.pos = p.pos.Add(delta.Scale(p.speed / dist))
		}
	}
	return Alive
}

// CheckCollision reports whether the footprint overlaps target with non-zero area.
func (p *Projectile) CheckCollision(target geom.Rect) bool {
	return p.Footprint().Intersects(target)
}

// Footprint returns the collision rectangle at the current position.
func (p *Projectile) Footprint() geom.Rect {
	return geom.CenteredAt(p.pos, p.size)
}

// Position returns the current center position.
func (p *Projectile) Position() geom.Vec { return p.pos }

// Mode returns the motion mode.
func (p *Projectile) Mode() Mode { return p.mode }
