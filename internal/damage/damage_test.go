package damage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSameSeedProducesIdenticalSequence(t *testing.T) {
	a := NewRNG(12345)
	b := NewRNG(12345)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)
	require.NotEqual(t, a.Next(), b.Next())
}

func TestCalculateMinimumDamageIsOne(t *testing.T) {
	rng := NewRNG(7)
	result := Calculate(Input{
		Power:           1,
		Category:        CategoryPhysical,
		AttackerAttack:  1,
		DefenderDefense: 1000,
		MoveType:        Normal,
		DefenderType1:   Rock,
		DefenderType2:   Steel,
	}, rng)
	require.Equal(t, int64(1), result.Damage)
}

func TestCalculateSameInputsSameSeedAreDeterministic(t *testing.T) {
	in := Input{
		Power:           80,
		Category:        CategorySpecial,
		AttackerSpecialAttack: 120,
		DefenderSpecialDefense: 90,
		MoveType:        Electric,
		AttackerType1:   Electric,
		DefenderType1:   Water,
		DefenderType2:   Flying,
	}
	r1 := Calculate(in, NewRNG(42))
	r2 := Calculate(in, NewRNG(42))
	require.Equal(t, r1, r2)
}

func TestCalculatePhysicalUsesAttackDefenseNotSpecial(t *testing.T) {
	in := Input{
		Power:                  80,
		Category:               CategoryPhysical,
		AttackerAttack:         120,
		AttackerSpecialAttack:  999,
		DefenderDefense:        90,
		DefenderSpecialDefense: 1,
		MoveType:               Normal,
	}
	result := CalculateWithRandom(in, 0.85)
	require.Less(t, result.Damage, int64(999))
}

func TestCalculateBoostOnlyAppliesToItsOwnCategory(t *testing.T) {
	physical := Input{
		Power:           80,
		Category:        CategoryPhysical,
		AttackerAttack:  100,
		DefenderDefense: 100,
		AttackerBoost:   true,
	}
	boosted := CalculateWithRandom(physical, 0.85)
	physical.AttackerBoost = false
	unboosted := CalculateWithRandom(physical, 0.85)
	require.Equal(t, boosted.Damage, unboosted.Damage)
}

func TestStatusMessageReflectsEffectiveness(t *testing.T) {
	superEffective := CalculateWithRandom(Input{
		Power: 50, Category: CategorySpecial, AttackerSpecialAttack: 80, DefenderSpecialDefense: 80,
		MoveType: Electric, DefenderType1: Water,
	}, 0.9)
	require.Equal(t, "It's super effective!", superEffective.StatusMessage)

	noEffect := CalculateWithRandom(Input{
		Power: 50, Category: CategorySpecial, AttackerSpecialAttack: 80, DefenderSpecialDefense: 80,
		MoveType: Normal, DefenderType1: Ghost,
	}, 0.9)
	require.Equal(t, "It had no effect...", noEffect.StatusMessage)
}

func TestMonotypeDefenderType2IsNeutral(t *testing.T) {
	_, type2 := DualEffectiveness(Fire, Grass, "")
	require.Equal(t, 1.0, type2)
}

func TestDualEffectivenessStacks(t *testing.T) {
	type1, type2 := DualEffectiveness(Electric, Water, Flying)
	require.Equal(t, 2.0, type1)
	require.Equal(t, 2.0, type2)
}
