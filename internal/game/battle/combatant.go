package battle

// Combatant is one side of an encounter.
type Combatant struct {
	Name  string
	MaxHP int
	HP    int
}

func newCombatant(name string, maxHP int) Combatant {
	return Combatant{Name: name, MaxHP: maxHP, HP: maxHP}
}

// ApplyDamage reduces HP by amount, flooring at zero.
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
}

// Defeated reports whether HP has reached zero.
func (c Combatant) Defeated() bool { return c.HP <= 0 }
