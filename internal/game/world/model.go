// Package world provides room geometry: field bounds, obstacle rectangles,
// battle boxes, and the exits that link rooms.
package world

import (
	"errors"
	"fmt"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// ErrRoomNotFound is returned when a room ID is not loaded.
var ErrRoomNotFound = errors.New("room not found")

// Direction names the field edge an exit leaves through.
type Direction string

// Field edges.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// IsValid reports whether d is one of the four field edges.
func (d Direction) IsValid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Exit is a trigger region that moves the player into another room.
type Exit struct {
	Direction Direction
	// TargetRoom is the ID of the destination room.
	TargetRoom string
	// Trigger is the field region that activates the exit.
	Trigger geom.Rect
	// Arrival is where the player is placed in the target room.
	Arrival geom.Vec
}

// Room is one playfield and the static geometry the battle engine reads.
type Room struct {
	ID    string
	Title string
	// Bounds is the field size in pixels.
	Bounds geom.Size
	// Obstacles are unwalkable rectangles; they also block projectile paths.
	Obstacles []geom.Rect
	// BattleBox is where encounters in this room are fought. Empty means use
	// the configured default.
	BattleBox geom.Rect
	Exits     []Exit
}

// HasBattleBox reports whether the room declares its own battle box.
func (r *Room) HasBattleBox() bool {
	return !r.BattleBox.Empty()
}

// Blocked reports whether hitbox overlaps any obstacle. Edge contact does
// not count.
func (r *Room) Blocked(hitbox geom.Rect) bool {
	for _, o := range r.Obstacles {
		if o.Intersects(hitbox) {
			return true
		}
	}
	return false
}

// Validate checks room invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (r *Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room ID must not be empty")
	}
	if r.Title == "" {
		return fmt.Errorf("room %q: title must not be empty", r.ID)
	}
	if r.Bounds.W <= 0 || r.Bounds.H <= 0 {
		return fmt.Errorf("room %q: bounds must be positive, got %gx%g", r.ID, r.Bounds.W, r.Bounds.H)
	}
	field := geom.R(0, 0, r.Bounds.W, r.Bounds.H)
	for i, o := range r.Obstacles {
		if o.W < 0 || o.H < 0 {
			return fmt.Errorf("room %q: obstacle %d has negative size", r.ID, i)
		}
	}
	if r.HasBattleBox() {
		if !field.Contains(r.BattleBox) {
			return fmt.Errorf("room %q: battle box %v lies outside the field", r.ID, r.BattleBox)
		}
		if r.Blocked(r.BattleBox) {
			return fmt.Errorf("room %q: battle box %v overlaps an obstacle", r.ID, r.BattleBox)
		}
	}
	for _, e := range r.Exits {
		if !e.Direction.IsValid() {
			return fmt.Errorf("room %q: exit has invalid direction %q", r.ID, e.Direction)
		}
		if e.TargetRoom == "" {
			return fmt.Errorf("room %q: exit %q has empty target", r.ID, e.Direction)
		}
	}
	return nil
}
