package battle

import "pokeduel/internal/damage"

// BoostUses caps how many times each stat boost can be spent in a battle.
const BoostUses = 3

// Pokemon is the in-battle view of a single combatant: the subset of the
// catalog entry (internal/catalog) that actually changes during a fight.
// Mirrors the clamp discipline of a Player's health in the teacher's own
// player model, generalized to distinguish the zero-floor display value
// from the raw value GameOver determination needs.
type Pokemon struct {
	Name  string
	Type1 damage.Type
	Type2 damage.Type // "" if monotype

	BaseAttack         float64
	BaseDefense        float64
	BaseSpecialAttack  float64
	BaseSpecialDefense float64

	MaxHP float64
	hp    float64

	attackBoostsLeft  int
	defenseBoostsLeft int
}

// NewPokemon creates a full-health combatant with BoostUses of each boost
// available.
func NewPokemon(name string, type1, type2 damage.Type, atk, def, spAtk, spDef, maxHP float64) *Pokemon {
	return &Pokemon{
		Name:               name,
		Type1:              type1,
		Type2:              type2,
		BaseAttack:         atk,
		BaseDefense:        def,
		BaseSpecialAttack:  spAtk,
		BaseSpecialDefense: spDef,
		MaxHP:              maxHP,
		hp:                 maxHP,
		attackBoostsLeft:   BoostUses,
		defenseBoostsLeft:  BoostUses,
	}
}

// HP returns the display HP, clamped to a floor of 0 (invariant I5).
func (p *Pokemon) HP() float64 {
	if p.hp < 0 {
		return 0
	}
	return p.hp
}

// RawHP is the unclamped value; GameOver determination uses this rather
// than the display floor so a lethal hit is never masked by the clamp.
func (p *Pokemon) RawHP() float64 {
	return p.hp
}

// ApplyDamage subtracts amount from HP. amount is never negative; healing is
// not part of this battle model.
func (p *Pokemon) ApplyDamage(amount int64) {
	p.hp -= float64(amount)
}

// IsFainted reports whether this Pokemon has reached 0 HP or below.
func (p *Pokemon) IsFainted() bool {
	return p.hp <= 0
}

// ConsumeAttackBoost spends one special-attack boost use, returning false
// (NoBoostAvailable) if none remain.
func (p *Pokemon) ConsumeAttackBoost() bool {
	if p.attackBoostsLeft <= 0 {
		return false
	}
	p.attackBoostsLeft--
	return true
}

// ConsumeDefenseBoost spends one special-defense boost use.
func (p *Pokemon) ConsumeDefenseBoost() bool {
	if p.defenseBoostsLeft <= 0 {
		return false
	}
	p.defenseBoostsLeft--
	return true
}

func (p *Pokemon) AttackBoostsLeft() int  { return p.attackBoostsLeft }
func (p *Pokemon) DefenseBoostsLeft() int { return p.defenseBoostsLeft }
