// Package session implements the Session & Role Manager: handshake, the
// Host/Joiner/Spectator role model, Spectator fan-out, and chat routing.
package session

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"pokeduel/internal/battle"
	"pokeduel/internal/battleerr"
	"pokeduel/internal/reliability"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
)

// Session is one peer's view of the connection: its own role, the
// endpoints it talks to, and the battle in progress (if any).
type Session struct {
	LocalRole     role.Role
	CorrelationID uuid.UUID

	hostEndpoint   reliability.Endpoint // set for Joiner and Spectator
	joinerEndpoint reliability.Endpoint // set for Host, once known
	spectators     map[string]reliability.Endpoint

	Seed   uint32
	Battle *battle.Battle

	reliability *reliability.Layer
	sink        battle.EventSink
}

// NewHostSession starts a session that will wait for a Joiner to connect.
func NewHostSession(rel *reliability.Layer, sink battle.EventSink) *Session {
	return &Session{
		LocalRole:     role.Host,
		CorrelationID: uuid.New(),
		spectators:    make(map[string]reliability.Endpoint),
		reliability:   rel,
		sink:          sink,
	}
}

// NewJoinerSession starts a session that will connect to a Host at hostEndpoint.
func NewJoinerSession(rel *reliability.Layer, hostEndpoint reliability.Endpoint, sink battle.EventSink) *Session {
	return &Session{
		LocalRole:     role.Joiner,
		CorrelationID: uuid.New(),
		hostEndpoint:  hostEndpoint,
		reliability:   rel,
		sink:          sink,
	}
}

// NewSpectatorSession starts a session that will register as a Spectator
// with the Host at hostEndpoint.
func NewSpectatorSession(rel *reliability.Layer, hostEndpoint reliability.Endpoint, sink battle.EventSink) *Session {
	return &Session{
		LocalRole:     role.Spectator,
		CorrelationID: uuid.New(),
		hostEndpoint:  hostEndpoint,
		reliability:   rel,
		sink:          sink,
	}
}

// BeginHandshake is called by a Joiner or Spectator once it knows the
// Host's endpoint, sending the opening HandshakeRequest.
func (s *Session) BeginHandshake(now time.Time) error {
	switch s.LocalRole {
	case role.Joiner:
		_, err := s.reliability.Send(wire.New(wire.KindHandshakeRequest, 0), s.hostEndpoint, now)
		return err
	case role.Spectator:
		_, err := s.reliability.Send(wire.New(wire.KindSpectatorRequest, 0), s.hostEndpoint, now)
		return err
	default:
		return battleerr.New(battleerr.KindIllegalTurn, "only a Joiner or Spectator begins a handshake")
	}
}

// HandleHandshakeRequest is the Host's reaction to a Joiner's opening
// message: assign a shared seed in [1, 99999] and remember the Joiner's
// endpoint.
func (s *Session) HandleHandshakeRequest(from reliability.Endpoint, send func(*wire.Message, reliability.Endpoint) error) error {
	if s.LocalRole != role.Host {
		return battleerr.New(battleerr.KindIllegalTurn, "only a Host handles HandshakeRequest")
	}
	s.joinerEndpoint = from
	if s.Seed == 0 {
		s.Seed = uint32(rand.Intn(99999) + 1)
	}
	resp := wire.New(wire.KindHandshakeResponse, 0).SetInt("seed", int64(s.Seed))
	return send(resp, from)
}

// HandleHandshakeResponse is the Joiner's or Spectator's reaction: record
// the shared seed.
func (s *Session) HandleHandshakeResponse(m *wire.Message) error {
	seed, err := m.Int("seed")
	if err != nil {
		return battleerr.New(battleerr.KindMalformedMessage, "seed field: %v", err)
	}
	s.Seed = uint32(seed)
	return nil
}

// HandleSpectatorRequest registers from as a Spectator, idempotently: a
// repeat request from an endpoint already registered is a no-op beyond
// re-sending the seed.
func (s *Session) HandleSpectatorRequest(from reliability.Endpoint, send func(*wire.Message, reliability.Endpoint) error) error {
	if s.LocalRole != role.Host {
		return battleerr.New(battleerr.KindIllegalTurn, "only a Host handles SpectatorRequest")
	}
	s.spectators[from.String()] = from
	resp := wire.New(wire.KindHandshakeResponse, 0).SetInt("seed", int64(s.Seed))
	return send(resp, from)
}

// Spectators returns the current Spectator endpoint set (Host only).
func (s *Session) Spectators() []reliability.Endpoint {
	out := make([]reliability.Endpoint, 0, len(s.spectators))
	for _, e := range s.spectators {
		out = append(out, e)
	}
	return out
}

// JoinerEndpoint reports the registered Joiner, if any (Host only).
func (s *Session) JoinerEndpoint() (reliability.Endpoint, bool) {
	zero := reliability.Endpoint{}
	return s.joinerEndpoint, s.joinerEndpoint != zero
}

// HostEndpoint reports the Host endpoint this peer talks to (Joiner/Spectator only).
func (s *Session) HostEndpoint() reliability.Endpoint {
	return s.hostEndpoint
}
