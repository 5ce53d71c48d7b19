package damage

import "math"

// Level is fixed for every battle; spec.md never lets it vary.
const Level = 50

// Category is a move's damage category, which decides whether the Attack/
// SpecialAttack (and Defense/SpecialDefense) stat pair drives the formula.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategorySpecial  Category = "special"
)

// Input bundles everything the formula needs. Attack/Defense are supplied as
// both variants (physical and special) rather than pre-selected, since the
// category gate belongs to the formula, not the caller.
type Input struct {
	Power    float64
	Category Category
	MoveType Type

	AttackerAttack        float64
	AttackerSpecialAttack float64

	DefenderDefense        float64
	DefenderSpecialDefense float64

	AttackerType1 Type
	AttackerType2 Type // "" if monotype

	DefenderType1 Type
	DefenderType2 Type // "" if monotype

	// AttackerBoost/DefenderBoost fold in a consumed special-attack/
	// special-defense boost for this turn; each applies only to the stat
	// its category actually uses.
	AttackerBoost bool
	DefenderBoost bool
}

// Result records every factor that went into the final damage value. Of
// these, only Damage and StatusMessage go into a CalculationReport; the
// individual multipliers are not sent to the peer.
type Result struct {
	Damage        int64
	STAB          float64
	Type1Mult     float64
	Type2Mult     float64
	Random        float64
	StatusMessage string
}

// Calculate applies the damage formula, drawing exactly one value from rng.
func Calculate(in Input, rng *RNG) Result {
	return CalculateWithRandom(in, rng.RandomMultiplier())
}

// CalculateWithRandom applies the damage formula against an already-drawn
// random modifier instead of pulling a fresh one from an RNG. Lets a turn be
// recomputed — late-arriving boost info, discrepancy resolution — without
// redrawing and breaking the one-draw-per-turn lockstep between peers.
//
// damage = max(1, floor(base * STAB * Type1 * Type2 * Random))
func CalculateWithRandom(in Input, random float64) Result {
	a, d := in.AttackerAttack, in.DefenderDefense
	if in.Category == CategorySpecial {
		a, d = in.AttackerSpecialAttack, in.DefenderSpecialDefense
		if in.AttackerBoost {
			a *= 1.5
		}
		if in.DefenderBoost {
			d *= 1.5
		}
	}

	base := ((2*float64(Level)/5+2)*in.Power*a/d)/50 + 2

	stab := 1.0
	if in.MoveType == in.AttackerType1 || (in.AttackerType2 != "" && in.MoveType == in.AttackerType2) {
		stab = 1.5
	}

	type1Mult, type2Mult := DualEffectiveness(in.MoveType, in.DefenderType1, in.DefenderType2)

	mod := stab * type1Mult * type2Mult * random
	dmg := math.Floor(base * mod)
	if dmg < 1 {
		dmg = 1
	}

	return Result{
		Damage:        int64(dmg),
		STAB:          stab,
		Type1Mult:     type1Mult,
		Type2Mult:     type2Mult,
		Random:        random,
		StatusMessage: statusMessage(type1Mult * type2Mult),
	}
}

// statusMessage derives the super-effective/not-very-effective/no-effect
// tier from the combined type multiplier, so both peers render identical
// text without exchanging it as a separate computed field.
func statusMessage(effectiveness float64) string {
	switch {
	case effectiveness == 0:
		return "It had no effect..."
	case effectiveness > 1:
		return "It's super effective!"
	case effectiveness < 1:
		return "It's not very effective..."
	default:
		return ""
	}
}
