// Package catalog is the read-only Pokemon/move lookup the battle engine
// consults but never mutates or owns — an external collaborator in the
// scope sense of the system overview. It loads a small CSV dataset and
// caches a checksum of what it loaded so callers can detect a stale embed.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pokeduel/internal/damage"
	wirebytes "pokeduel/pkg/wire"
)

// Entry is one catalog row: a Pokemon's base stats and typing.
type Entry struct {
	Name               string
	Type1              damage.Type
	Type2              damage.Type
	BaseAttack         float64
	BaseDefense        float64
	BaseSpecialAttack  float64
	BaseSpecialDefense float64
	MaxHP              float64
}

// Move is one catalog row: a move's type, damage category, and base power.
type Move struct {
	Name     string
	Type     damage.Type
	Category damage.Category
	Power    float64
}

// Catalog is an immutable, loaded-once lookup table.
type Catalog struct {
	pokemon  map[string]Entry
	moves    map[string]Move
	checksum uint32
}

// csv columns: name,type1,type2,attack,defense,sp_attack,sp_defense,max_hp
func LoadPokemonCSV(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	c := &Catalog{pokemon: make(map[string]Entry), moves: make(map[string]Move), checksum: wirebytes.Checksum(raw)}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "name" {
			continue // header
		}
		if len(row) != 8 {
			return nil, fmt.Errorf("catalog row %d: expected 8 fields, got %d", i, len(row))
		}
		entry := Entry{
			Name:  row[0],
			Type1: damage.Type(row[1]),
			Type2: damage.Type(row[2]),
		}
		vals, err := parseFloats(row[3:])
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i, err)
		}
		entry.BaseAttack, entry.BaseDefense, entry.BaseSpecialAttack, entry.BaseSpecialDefense, entry.MaxHP =
			vals[0], vals[1], vals[2], vals[3], vals[4]
		c.pokemon[strings.ToLower(entry.Name)] = entry
	}
	return c, nil
}

// csv columns: name,type,category,power
func (c *Catalog) LoadMoves(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "name" {
			continue // header
		}
		if len(row) != 4 {
			return fmt.Errorf("move row %d: expected 4 fields, got %d", i, len(row))
		}
		power, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return fmt.Errorf("move row %d: %w", i, err)
		}
		move := Move{
			Name:     row[0],
			Type:     damage.Type(strings.ToLower(strings.TrimSpace(row[1]))),
			Category: damage.Category(strings.ToLower(strings.TrimSpace(row[2]))),
			Power:    power,
		}
		c.moves[strings.ToLower(move.Name)] = move
	}
	return nil
}

// LookupMove returns the catalog entry for a move, case-insensitive.
func (c *Catalog) LookupMove(name string) (Move, bool) {
	m, ok := c.moves[strings.ToLower(name)]
	return m, ok
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Lookup returns the catalog entry for name, case-insensitive.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c.pokemon[strings.ToLower(name)]
	return e, ok
}

// Checksum fingerprints the exact Pokemon CSV bytes LoadPokemonCSV read, so
// a Host and Joiner running mismatched Pokemon data can be diagnosed. Move
// rows added by LoadMoves are not part of the checksum.
func (c *Catalog) Checksum() uint32 {
	return c.checksum
}
