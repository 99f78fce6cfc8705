// Package geom provides the axis-aligned rectangle and vector math shared by
// the grid builder, projectiles, and the battle dodge box.
package geom

import "math"

// Vec is a point or displacement in field pixels.
type Vec struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v multiplied by k.
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o.
func (v Vec) Dist(o Vec) float64 { return o.Sub(v).Len() }

// Size is a width/height pair in field pixels.
type Size struct {
	W float64
	H float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// R is shorthand for constructing a Rect.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// CenteredAt returns a rectangle of size sz whose center is c.
func CenteredAt(c Vec, sz Size) Rect {
	return Rect{X: c.X - sz.W/2, Y: c.Y - sz.H/2, W: sz.W, H: sz.H}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the midpoint of r.
func (r Rect) Center() Vec { return Vec{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Min returns the top-left corner.
func (r Rect) Min() Vec { return Vec{X: r.X, Y: r.Y} }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects reports whether r and o overlap with non-zero area.
// Rectangles that only share an edge or a corner do not intersect.
//
// Postcondition: Intersects is symmetric.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Contains reports whether o lies entirely within r, edges included.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Inflate grows r by d on every side. A negative d shrinks it.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Translate returns r moved by v.
func (r Rect) Translate(v Vec) Rect {
	return Rect{X: r.X + v.X, Y: r.Y + v.Y, W: r.W, H: r.H}
}

// ClampInside returns r moved the minimum distance needed to lie entirely
// within bounds. If r is larger than bounds on an axis it is aligned to the
// bounds' top-left edge on that axis.
//
// Postcondition: the returned rect has the same size as r.
func (r Rect) ClampInside(bounds Rect) Rect {
	out := r
	out.X = clamp(r.X, bounds.X, bounds.Right()-r.W)
	out.Y = clamp(r.Y, bounds.Y, bounds.Bottom()-r.H)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
