package pathfind

import "github.com/udderworld/udderworld/internal/game/grid"

// node is one entry in the A* open set.
type node struct {
	cell  grid.Cell
	g     int
	f     int
	seq   int // insertion order, breaks f ties
	index int
}

// openSet is a min-heap ordered by f, then by lower h (higher g), then by
// insertion order. It implements heap.Interface.
type openSet struct {
	items []*node
	seq   int
}

func (o *openSet) Len() int { return len(o.items) }

func (o *openSet) Less(i, j int) bool {
	a, b := o.items[i], o.items[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g > b.g
	}
	return a.seq < b.seq
}

func (o *openSet) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.items[i].index = i
	o.items[j].index = j
}

func (o *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(o.items)
	n.seq = o.seq
	o.seq++
	o.items = append(o.items, n)
}

func (o *openSet) Pop() any {
	old := o.items
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	o.items = old[:last]
	return n
}
