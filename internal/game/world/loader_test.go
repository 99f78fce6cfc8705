package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udderworld/udderworld/internal/game/geom"
)

const validRoomYAML = `
room:
  id: barn
  title: "Barn"
  bounds: {w: 400, h: 200}
  battle_box: {x: 100, y: 0, w: 200, h: 80}
  obstacles:
    - {x: 0, y: 100, w: 400, h: 20}
    - {x: 350, y: 150, w: 100, h: 100}
  exits:
    - direction: east
      target: field
      trigger: {x: 380, y: 0, w: 20, h: 200}
      arrival: {x: 10, y: 40}
`

func TestLoadRoomFromBytes_Valid(t *testing.T) {
	room, err := LoadRoomFromBytes([]byte(validRoomYAML))
	require.NoError(t, err)

	assert.Equal(t, "barn", room.ID)
	assert.Equal(t, geom.Size{W: 400, H: 200}, room.Bounds)
	assert.Equal(t, []geom.Rect{geom.R(0, 100, 400, 20), geom.R(350, 150, 100, 100)}, room.Obstacles)
	assert.Equal(t, geom.R(100, 0, 200, 80), room.BattleBox)
	require.Len(t, room.Exits, 1)
	assert.Equal(t, East, room.Exits[0].Direction)
	assert.Equal(t, geom.Vec{X: 10, Y: 40}, room.Exits[0].Arrival)
}

func TestLoadRoomFromBytes_InvalidYAML(t *testing.T) {
	_, err := LoadRoomFromBytes([]byte("room: [unclosed"))
	assert.Error(t, err)
}

func TestLoadRoomFromBytes_FailsValidation(t *testing.T) {
	_, err := LoadRoomFromBytes([]byte("room:\n  id: x\n  title: X\n"))
	assert.ErrorContains(t, err, "bounds must be positive")
}

func TestLoadRoomsFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "barn.yaml"), []byte(validRoomYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a room"), 0644))

	rooms, err := LoadRoomsFromDir(dir)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "barn", rooms[0].ID)
}

func TestLoadRoomsFromDir_Empty(t *testing.T) {
	_, err := LoadRoomsFromDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadRoomsFromDir_ShippedContent(t *testing.T) {
	m, err := LoadManager(filepath.Join("..", "..", "..", "content", "rooms"))
	require.NoError(t, err)
	assert.Equal(t, []string{"room1", "room2"}, m.IDs())

	for _, id := range m.IDs() {
		room, err := m.Room(id)
		require.NoError(t, err)
		assert.Equal(t, geom.Size{W: 1300, H: 720}, room.Bounds)
		assert.True(t, room.HasBattleBox())
		for _, e := range room.Exits {
			target, err := m.Room(e.TargetRoom)
			require.NoError(t, err)
			assert.False(t, target.Blocked(geom.R(e.Arrival.X, e.Arrival.Y, 60, 90)),
				"room %s: arrival %v lands in an obstacle", target.ID, e.Arrival)
		}
	}
}
