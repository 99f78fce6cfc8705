package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// yamlRoomFile is the top-level YAML structure for room files.
type yamlRoomFile struct {
	Room yamlRoom `yaml:"room"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	ID        string     `yaml:"id"`
	Title     string     `yaml:"title"`
	Bounds    yamlSize   `yaml:"bounds"`
	Obstacles []yamlRect `yaml:"obstacles"`
	BattleBox *yamlRect  `yaml:"battle_box"`
	Exits     []yamlExit `yaml:"exits"`
}

type yamlSize struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type yamlRect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

func (r yamlRect) rect() geom.Rect { return geom.R(r.X, r.Y, r.W, r.H) }

type yamlPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// yamlExit is the YAML representation of an exit.
type yamlExit struct {
	Direction string    `yaml:"direction"`
	Target    string    `yaml:"target"`
	Trigger   yamlRect  `yaml:"trigger"`
	Arrival   yamlPoint `yaml:"arrival"`
}

// LoadRoomFromFile reads and validates a single room YAML file.
//
// Precondition: path must point to a valid YAML room file.
// Postcondition: Returns a validated Room or a non-nil error.
func LoadRoomFromFile(path string) (*Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading room file %s: %w", path, err)
	}
	return LoadRoomFromBytes(data)
}

// LoadRoomFromBytes parses and validates a room from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the room schema.
// Postcondition: Returns a validated Room or a non-nil error.
func LoadRoomFromBytes(data []byte) (*Room, error) {
	var file yamlRoomFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing room YAML: %w", err)
	}

	room := convertYAMLRoom(file.Room)
	if err := room.Validate(); err != nil {
		return nil, fmt.Errorf("validating room: %w", err)
	}
	return room, nil
}

// LoadRoomsFromDir loads all YAML files in a directory as rooms.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated rooms or the first error encountered.
func LoadRoomsFromDir(dir string) ([]*Room, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading room directory %s: %w", dir, err)
	}

	var rooms []*Room
	for _, entry := range entries {
		if entry.IsDir() || !IsRoomFile(entry.Name()) {
			continue
		}
		room, err := LoadRoomFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading room from %s: %w", entry.Name(), err)
		}
		rooms = append(rooms, room)
	}

	if len(rooms) == 0 {
		return nil, fmt.Errorf("no room files found in %s", dir)
	}
	return rooms, nil
}

// IsRoomFile reports whether name has a YAML extension.
func IsRoomFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// convertYAMLRoom converts the parsed YAML structures into domain types.
func convertYAMLRoom(yr yamlRoom) *Room {
	room := &Room{
		ID:     yr.ID,
		Title:  yr.Title,
		Bounds: geom.Size{W: yr.Bounds.W, H: yr.Bounds.H},
	}
	for _, o := range yr.Obstacles {
		room.Obstacles = append(room.Obstacles, o.rect())
	}
	if yr.BattleBox != nil {
		room.BattleBox = yr.BattleBox.rect()
	}
	for _, ye := range yr.Exits {
		room.Exits = append(room.Exits, Exit{
			Direction:  Direction(ye.Direction),
			TargetRoom: ye.Target,
			Trigger:    ye.Trigger.rect(),
			Arrival:    geom.Vec{X: ye.Arrival.X, Y: ye.Arrival.Y},
		})
	}
	return room
}
