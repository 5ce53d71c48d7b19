package catalog

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pokeduel/internal/damage"
)

func TestLoadPokemonCSVAndLookup(t *testing.T) {
	f, err := os.Open("testdata/pokemon.csv")
	require.NoError(t, err)
	defer f.Close()

	cat, err := LoadPokemonCSV(f)
	require.NoError(t, err)

	entry, ok := cat.Lookup("Pikachu")
	require.True(t, ok)
	require.EqualValues(t, 100, entry.MaxHP)
	require.NotZero(t, cat.Checksum())
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	f, err := os.Open("testdata/pokemon.csv")
	require.NoError(t, err)
	defer f.Close()
	cat, err := LoadPokemonCSV(f)
	require.NoError(t, err)

	_, ok := cat.Lookup("missingno")
	require.False(t, ok)
}

func TestMalformedRowErrors(t *testing.T) {
	bad := "name,type1,type2,attack,defense,sp_attack,sp_defense,max_hp\npikachu,electric,,55,40,50\n"
	_, err := LoadPokemonCSV(strings.NewReader(bad))
	require.Error(t, err)
}

func TestLoadMovesAndLookup(t *testing.T) {
	f, err := os.Open("testdata/pokemon.csv")
	require.NoError(t, err)
	defer f.Close()
	cat, err := LoadPokemonCSV(f)
	require.NoError(t, err)

	mf, err := os.Open("testdata/moves.csv")
	require.NoError(t, err)
	defer mf.Close()
	require.NoError(t, cat.LoadMoves(mf))

	move, ok := cat.LookupMove("Thunderbolt")
	require.True(t, ok)
	require.EqualValues(t, 90, move.Power)
	require.Equal(t, damage.CategorySpecial, move.Category)

	_, ok = cat.LookupMove("splash")
	require.False(t, ok)
}

func TestLoadMovesMalformedRowErrors(t *testing.T) {
	cat, err := LoadPokemonCSV(strings.NewReader("name,type1,type2,attack,defense,sp_attack,sp_defense,max_hp\n"))
	require.NoError(t, err)

	bad := "name,type,category,power\ntackle,normal,physical\n"
	require.Error(t, cat.LoadMoves(strings.NewReader(bad)))
}
