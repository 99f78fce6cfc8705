package battle

import "github.com/udderworld/udderworld/internal/game/projectile"

// SetEnemyHP lets tests put the enemy at an arbitrary HP.
func (s *Session) SetEnemyHP(hp int) { s.enemy.HP = hp }

// InjectProjectile adds p to the active set.
func (s *Session) InjectProjectile(p *projectile.Projectile) {
	s.projectiles = append(s.projectiles, p)
}
