// Package grid derives tile occupancy grids from room obstacle geometry.
package grid

import (
	"math"

	"github.com/udderworld/udderworld/internal/game/geom"
)

// Cell addresses one tile by column (X) and row (Y).
type Cell struct {
	X int
	Y int
}

// Grid is a row-major occupancy matrix over square tiles.
//
// Invariant: len(cells) == Width*Height.
type Grid struct {
	Width    int
	Height   int
	TileSize int
	cells    []bool // true = blocked
}

// Build converts a room's obstacle rectangles into an occupancy grid.
// The grid covers floor(bounds.W/tileSize) x floor(bounds.H/tileSize) tiles;
// remainder pixels on the right and bottom are ignored. A tile is blocked when
// its rectangle overlaps any obstacle with non-zero area.
//
// Precondition: tileSize > 0; bounds dimensions are positive.
// Postcondition: Returns a deterministic grid for a given input; the inputs are not retained.
func Build(bounds geom.Size, obstacles []geom.Rect, tileSize int) *Grid {
	w := int(math.Floor(bounds.W / float64(tileSize)))
	h := int(math.Floor(bounds.H / float64(tileSize)))
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &Grid{
		Width:    w,
		Height:   h,
		TileSize: tileSize,
		cells:    make([]bool, w*h),
	}
	for _, ob := range obstacles {
		g.markRect(ob)
	}
	return g
}

// markRect blocks every tile overlapped by r. Only the tiles under r's
// bounding box are visited.
func (g *Grid) markRect(r geom.Rect) {
	if r.Empty() {
		return
	}
	ts := float64(g.TileSize)
	minX := max(0, int(math.Floor(r.X/ts)))
	minY := max(0, int(math.Floor(r.Y/ts)))
	maxX := min(g.Width-1, int(math.Ceil(r.Right()/ts))-1)
	maxY := min(g.Height-1, int(math.Ceil(r.Bottom()/ts))-1)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if g.TileRect(Cell{X: x, Y: y}).Intersects(r) {
				g.Set(Cell{X: x, Y: y}, true)
			}
		}
	}
}

// InBounds reports whether c addresses a tile inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Blocked reports whether c is occupied. Out-of-bounds cells report blocked.
func (g *Grid) Blocked(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.cells[c.Y*g.Width+c.X]
}

// Set marks c as blocked or walkable. Out-of-bounds cells are ignored.
func (g *Grid) Set(c Cell, blocked bool) {
	if g.InBounds(c) {
		g.cells[c.Y*g.Width+c.X] = blocked
	}
}

// TileRect returns the pixel rectangle covered by c.
func (g *Grid) TileRect(c Cell) geom.Rect {
	ts := float64(g.TileSize)
	return geom.R(float64(c.X)*ts, float64(c.Y)*ts, ts, ts)
}

// CellAt returns the cell containing the pixel position p. The result may be
// out of bounds.
func (g *Grid) CellAt(p geom.Vec) Cell {
	ts := float64(g.TileSize)
	return Cell{X: int(math.Floor(p.X / ts)), Y: int(math.Floor(p.Y / ts))}
}

// CellCenter returns the pixel center of c.
func (g *Grid) CellCenter(c Cell) geom.Vec {
	ts := float64(g.TileSize)
	return geom.Vec{X: (float64(c.X) + 0.5) * ts, Y: (float64(c.Y) + 0.5) * ts}
}

// BlockedCount returns the number of occupied tiles.
func (g *Grid) BlockedCount() int {
	n := 0
	for _, b := range g.cells {
		if b {
			n++
		}
	}
	return n
}
