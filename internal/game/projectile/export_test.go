package projectile

// Cursor returns the index of the next waypoint.
func (p *Projectile) Cursor() int { return p.cursor }

// PathLen returns the number of cells in the path.
func (p *Projectile) PathLen() int { return len(p.path) }
