package battle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pokeduel/internal/catalog"
	"pokeduel/internal/damage"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
)

const movesCSV = `name,type,category,power
thunderbolt,electric,special,90
tackle,normal,physical,40
ember,fire,special,40
`

func testMoves(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadPokemonCSV(strings.NewReader("name,type1,type2,attack,defense,sp_attack,sp_defense,max_hp\n"))
	require.NoError(t, err)
	require.NoError(t, cat.LoadMoves(strings.NewReader(movesCSV)))
	return cat
}

func freshPair() (*Pokemon, *Pokemon) {
	host := NewPokemon("pikachu", damage.Electric, "", 90, 70, 110, 80, 200)
	joiner := NewPokemon("squirtle", damage.Water, "", 80, 90, 75, 85, 200)
	return host, joiner
}

// pump delivers msg to dest, then recursively delivers every reply to the
// other side, until both queues drain. Mirrors how the cooperative loop
// would shuttle datagrams between two peers in a test without a socket.
func pump(t *testing.T, msg *wire.Message, dest *Battle, other *Battle) {
	t.Helper()
	if msg == nil {
		return
	}
	replies, err := dest.HandleMessage(msg)
	require.NoError(t, err)
	for _, r := range replies {
		pump(t, r, other, dest)
	}
}

func TestFullTurnExchangeAppliesDamageAndFlipsTurn(t *testing.T) {
	moves := testMoves(t)
	hostMine, hostOpp := freshPair()
	// joiner holds its own independent copies of the same two combatants,
	// as it would as a separate process; sharing pointers would double-apply
	// damage when both sides resolve the same turn.
	joinerOpp, joinerMine := freshPair()

	hostBattle := NewBattle(hostMine, hostOpp, 12345, true, role.Host, moves, NopSink{})
	joinerBattle := NewBattle(joinerMine, joinerOpp, 12345, false, role.Joiner, moves, NopSink{})

	attackMsg, err := hostBattle.BeginTurn("thunderbolt", false)
	require.NoError(t, err)
	require.Equal(t, wire.KindAttackAnnounce, attackMsg.Kind)

	pump(t, attackMsg, joinerBattle, hostBattle)

	require.False(t, hostBattle.MyTurn)
	require.True(t, joinerBattle.MyTurn)
	require.Equal(t, StateWaitingForMove, hostBattle.State)
	require.Equal(t, StateWaitingForMove, joinerBattle.State)
	require.Less(t, hostBattle.Opponent.HP(), hostBattle.Opponent.MaxHP)
}

func TestBeginTurnIllegalWhenNotMyTurn(t *testing.T) {
	moves := testMoves(t)
	mine, opp := freshPair()
	b := NewBattle(mine, opp, 1, false, role.Joiner, moves, NopSink{})
	_, err := b.BeginTurn("tackle", false)
	require.Error(t, err)
}

func TestBeginTurnNoBoostAvailableAfterExhausted(t *testing.T) {
	moves := testMoves(t)
	mine, opp := freshPair()
	b := NewBattle(mine, opp, 1, true, role.Host, moves, NopSink{})
	for i := 0; i < BoostUses; i++ {
		require.True(t, mine.ConsumeAttackBoost())
	}
	_, err := b.BeginTurn("tackle", true)
	require.Error(t, err)
}

func TestGameOverOnFaint(t *testing.T) {
	moves := testMoves(t)
	hostMine := NewPokemon("mine", damage.Fire, "", 200, 10, 200, 10, 1)
	hostOpp := NewPokemon("opp", damage.Grass, "", 10, 10, 10, 10, 1)
	joinerMine := NewPokemon("opp", damage.Grass, "", 10, 10, 10, 10, 1)
	joinerOpp := NewPokemon("mine", damage.Fire, "", 200, 10, 200, 10, 1)

	b := NewBattle(hostMine, hostOpp, 99, true, role.Host, moves, NopSink{})
	jb := NewBattle(joinerMine, joinerOpp, 99, false, role.Joiner, moves, NopSink{})

	attackMsg, err := b.BeginTurn("ember", false)
	require.NoError(t, err)

	pump(t, attackMsg, jb, b)

	require.Equal(t, StateGameOver, b.State)
	require.Equal(t, StateGameOver, jb.State)
}

// TestDefenseBoostLowersDamageAndIsConsumed exercises the defender-boost
// path end to end: armed ahead of time, consumed on the incoming
// AttackAnnounce, and folded into the defender's special defense.
func TestDefenseBoostLowersDamageAndIsConsumed(t *testing.T) {
	moves := testMoves(t)
	hostMine, hostOpp := freshPair()
	joinerOpp, joinerMine := freshPair()

	hostBattle := NewBattle(hostMine, hostOpp, 555, true, role.Host, moves, NopSink{})
	joinerBattle := NewBattle(joinerMine, joinerOpp, 555, false, role.Joiner, moves, NopSink{})

	require.Equal(t, BoostUses, joinerMine.DefenseBoostsLeft())
	joinerBattle.SetDefenseBoostArmed(true)

	attackMsg, err := hostBattle.BeginTurn("thunderbolt", false)
	require.NoError(t, err)

	pump(t, attackMsg, joinerBattle, hostBattle)

	require.Equal(t, BoostUses-1, joinerMine.DefenseBoostsLeft())
	require.False(t, joinerBattle.defenseBoostArmed)

	// The same turn with the same seed and no boost leaves the defender lower.
	plainHostMine, plainHostOpp := freshPair()
	plainJoinerOpp, plainJoinerMine := freshPair()
	plainHost := NewBattle(plainHostMine, plainHostOpp, 555, true, role.Host, moves, NopSink{})
	plainJoiner := NewBattle(plainJoinerMine, plainJoinerOpp, 555, false, role.Joiner, moves, NopSink{})
	plainAttack, err := plainHost.BeginTurn("thunderbolt", false)
	require.NoError(t, err)
	pump(t, plainAttack, plainJoiner, plainHost)
	require.Greater(t, joinerMine.HP(), plainJoinerMine.HP())
}

// TestResolutionRequestConvergesOnSecondExchange covers spec scenario S5: a
// one-turn asymmetry (a corrupted local report, standing in for a transient
// computation glitch) makes the host's first comparison disagree; the
// ResolutionRequest round-trip converges the turn instead of aborting on
// the first mismatch.
func TestResolutionRequestConvergesOnSecondExchange(t *testing.T) {
	moves := testMoves(t)
	hostMine, hostOpp := freshPair()
	joinerOpp, joinerMine := freshPair()

	hostBattle := NewBattle(hostMine, hostOpp, 777, true, role.Host, moves, NopSink{})
	joinerBattle := NewBattle(joinerMine, joinerOpp, 777, false, role.Joiner, moves, NopSink{})

	attackMsg, err := hostBattle.BeginTurn("thunderbolt", false)
	require.NoError(t, err)

	replies, err := joinerBattle.HandleMessage(attackMsg)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	defenseMsg, reportMsgJ := replies[0], replies[1]

	pump(t, defenseMsg, hostBattle, joinerBattle)
	require.Equal(t, StateResolving, hostBattle.State)

	hostBattle.pending.localReport.Damage++

	pump(t, reportMsgJ, hostBattle, joinerBattle)

	require.Equal(t, StateWaitingForMove, hostBattle.State)
	require.Equal(t, StateWaitingForMove, joinerBattle.State)
	require.Less(t, hostBattle.Opponent.HP(), hostBattle.Opponent.MaxHP)
}
