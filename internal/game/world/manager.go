package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// Manager provides thread-safe access to loaded rooms. It serves room
// geometry to the grid builder and accepts replacement rooms on hot reload.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager creates a Manager from the given rooms.
//
// Precondition: each room must already be validated.
// Postcondition: Returns a Manager with all rooms indexed by ID, or an error on duplicate room IDs.
func NewManager(rooms []*Room) (*Manager, error) {
	m := &Manager{rooms: make(map[string]*Room, len(rooms))}
	for _, r := range rooms {
		if _, exists := m.rooms[r.ID]; exists {
			return nil, fmt.Errorf("duplicate room ID: %q", r.ID)
		}
		m.rooms[r.ID] = r
	}
	return m, nil
}

// LoadManager loads every room in dir and checks that all exits resolve.
//
// Precondition: dir must contain at least one room file.
// Postcondition: Returns a ready Manager or a non-nil error.
func LoadManager(dir string) (*Manager, error) {
	rooms, err := LoadRoomsFromDir(dir)
	if err != nil {
		return nil, err
	}
	m, err := NewManager(rooms)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateExits(); err != nil {
		return nil, err
	}
	return m, nil
}

// ValidateExits checks that every exit target resolves to a loaded room.
//
// Postcondition: Returns nil if all exits resolve, or an error naming the first dangling target.
func (m *Manager) ValidateExits() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.sortedIDs() {
		room := m.rooms[id]
		for _, exit := range room.Exits {
			if _, ok := m.rooms[exit.TargetRoom]; !ok {
				return fmt.Errorf("room %q: exit %q targets unknown room %q",
					room.ID, exit.Direction, exit.TargetRoom)
			}
		}
	}
	return nil
}

// Room returns the room with the given ID.
//
// Postcondition: Returns the room, or an error wrapping ErrRoomNotFound.
func (m *Manager) Room(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRoomNotFound, id)
	}
	return r, nil
}

// Bounds returns the field size of a room.
//
// Postcondition: Returns the size, or an error wrapping ErrRoomNotFound.
func (m *Manager) Bounds(roomID string) (geom.Size, error) {
	r, err := m.Room(roomID)
	if err != nil {
		return geom.Size{}, err
	}
	return r.Bounds, nil
}

// Obstacles returns a copy of a room's obstacle rectangles.
//
// Postcondition: Returns the obstacles, or an error wrapping ErrRoomNotFound.
func (m *Manager) Obstacles(roomID string) ([]geom.Rect, error) {
	r, err := m.Room(roomID)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Rect, len(r.Obstacles))
	copy(out, r.Obstacles)
	return out, nil
}

// BattleBox returns the room's battle box, or fallback when the room does
// not declare one.
//
// Postcondition: Returns a non-empty rect when fallback is non-empty, or an error wrapping ErrRoomNotFound.
func (m *Manager) BattleBox(roomID string, fallback geom.Rect) (geom.Rect, error) {
	r, err := m.Room(roomID)
	if err != nil {
		return geom.Rect{}, err
	}
	if r.HasBattleBox() {
		return r.BattleBox, nil
	}
	return fallback, nil
}

// Replace installs room, adding it or overwriting the room with the same ID.
//
// Precondition: room must be validated.
func (m *Manager) Replace(room *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

// RoomCount returns the number of loaded rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// IDs returns the loaded room IDs in lexicographic order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedIDs()
}

func (m *Manager) sortedIDs() []string {
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
