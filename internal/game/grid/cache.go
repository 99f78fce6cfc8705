package grid

import (
	"fmt"
	"sync"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// Geometry supplies room dimensions and obstacle lists.
type Geometry interface {
	Bounds(roomID string) (geom.Size, error)
	Obstacles(roomID string) ([]geom.Rect, error)
}

// Cache memoises built grids per room ID. Rooms are immutable between
// reloads, so a cached grid stays valid until Invalidate is called for it.
// All methods are safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	geo      Geometry
	tileSize int
	grids    map[string]*Grid
}

// NewCache creates an empty Cache reading geometry from geo.
//
// Precondition: geo must be non-nil; tileSize > 0.
func NewCache(geo Geometry, tileSize int) *Cache {
	return &Cache{
		geo:      geo,
		tileSize: tileSize,
		grids:    make(map[string]*Grid),
	}
}

// Get returns the grid for roomID, building it on first use.
//
// Postcondition: Returns the grid or an error from the geometry source.
func (c *Cache) Get(roomID string) (*Grid, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.grids[roomID]; ok {
		return g, nil
	}
	bounds, err := c.geo.Bounds(roomID)
	if err != nil {
		return nil, fmt.Errorf("grid bounds for room %q: %w", roomID, err)
	}
	obstacles, err := c.geo.Obstacles(roomID)
	if err != nil {
		return nil, fmt.Errorf("grid obstacles for room %q: %w", roomID, err)
	}
	g := Build(bounds, obstacles, c.tileSize)
	c.grids[roomID] = g
	return g, nil
}

// Invalidate drops the cached grid for roomID so the next Get rebuilds it.
func (c *Cache) Invalidate(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grids, roomID)
}

// Len returns the number of cached grids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.grids)
}
