package session

import (
	"time"

	"pokeduel/internal/battleerr"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
)

// SendBattleSetup transmits this peer's chosen Pokemon, rendered here as a
// structured literal from pokemonData, to the other principal. Only Host and
// Joiner exchange BattleSetup; a Spectator only ever observes it via fan-out.
func (s *Session) SendBattleSetup(pokemonData map[string]string, now time.Time) error {
	msg := wire.New(wire.KindBattleSetup, 0).SetStr("pokemon_data", wire.EncodeLiteral(pokemonData))

	var dest = s.hostEndpoint
	if s.LocalRole == role.Host {
		ep, ok := s.JoinerEndpoint()
		if !ok {
			return battleerr.New(battleerr.KindIllegalTurn, "no Joiner registered yet")
		}
		dest = ep
	}

	_, err := s.reliability.Send(msg, dest, now)
	if err != nil {
		return err
	}
	return s.FanOut(msg, s.LocalRole.String(), now)
}

// ParseBattleSetup decodes the opposing peer's pokemon_data literal.
func ParseBattleSetup(m *wire.Message) (map[string]string, error) {
	return wire.DecodeLiteral(m.Str("pokemon_data"))
}
