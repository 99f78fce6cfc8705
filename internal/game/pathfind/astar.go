// Package pathfind implements 4-directional A* search over an occupancy grid.
package pathfind

import (
	"container/heap"

	"github.com/udderworld/udderworld/internal/game/grid"
)

var neighbours = [4]grid.Cell{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

// FindPath returns a shortest 4-directional path from start to goal on g.
// Every step costs 1 and the heuristic is Manhattan distance. Blocked cells
// are never entered.
//
// The returned sequence excludes start and includes goal. An empty result
// means either that start == goal or that no path exists; out-of-bounds or
// blocked endpoints also yield an empty result.
//
// Precondition: g must be non-nil.
// Postcondition: consecutive cells in the result are 4-adjacent and
// len(result) equals the shortest path length when a path exists.
func FindPath(g *grid.Grid, start, goal grid.Cell) []grid.Cell {
	if !g.InBounds(start) || !g.InBounds(goal) || g.Blocked(goal) {
		return nil
	}
	if start == goal {
		return nil
	}

	idx := func(c grid.Cell) int { return c.Y*g.Width + c.X }

	gScore := make(map[int]int, 64)
	cameFrom := make(map[int]int, 64)
	closed := make(map[int]bool, 64)

	open := &openSet{}
	heap.Init(open)
	gScore[idx(start)] = 0
	heap.Push(open, &node{cell: start, f: manhattan(start, goal)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		ci := idx(cur.cell)
		if closed[ci] {
			continue
		}
		closed[ci] = true

		if cur.cell == goal {
			return reconstruct(cameFrom, ci, idx(start), g.Width)
		}

		for _, d := range neighbours {
			next := grid.Cell{X: cur.cell.X + d.X, Y: cur.cell.Y + d.Y}
			if g.Blocked(next) {
				continue
			}
			ni := idx(next)
			if closed[ni] {
				continue
			}
			tentative := gScore[ci] + 1
			if prev, seen := gScore[ni]; seen && tentative >= prev {
				continue
			}
			gScore[ni] = tentative
			cameFrom[ni] = ci
			heap.Push(open, &node{cell: next, g: tentative, f: tentative + manhattan(next, goal)})
		}
	}
	return nil
}

func reconstruct(cameFrom map[int]int, cur, start, width int) []grid.Cell {
	var path []grid.Cell
	for cur != start {
		path = append(path, grid.Cell{X: cur % width, Y: cur / width})
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func manhattan(a, b grid.Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
