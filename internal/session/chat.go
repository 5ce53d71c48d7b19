package session

import (
	"time"

	"pokeduel/internal/reliability"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
)

// SendChat originates a chat message from the local user. A Host delivers
// directly to the Joiner and fans out to every Spectator; a Joiner or
// Spectator sends only to the Host, which is responsible for relaying
// further (see HandleChatMessage).
func (s *Session) SendChat(text string, now time.Time) error {
	msg := wire.New(wire.KindChatMessage, 0).SetStr("content_type", "TEXT").SetStr("content", text)

	if s.LocalRole == role.Host {
		if ep, ok := s.JoinerEndpoint(); ok {
			if _, err := s.reliability.Send(msg, ep, now); err != nil {
				return err
			}
		}
		return s.FanOut(msg, "host", now)
	}

	_, err := s.reliability.Send(msg, s.hostEndpoint, now)
	return err
}

// HandleChatMessage is the Host's relay step for a chat message received
// from a Joiner or Spectator: forward to the Joiner unless the Joiner was
// the sender, and fan out to every Spectator except the sender itself
// (self-echo suppression).
func (s *Session) HandleChatMessage(m *wire.Message, from reliability.Endpoint, now time.Time) error {
	origin := "spectator"
	if ep, ok := s.JoinerEndpoint(); ok && ep == from {
		origin = "joiner"
	}

	if origin != "joiner" {
		if ep, ok := s.JoinerEndpoint(); ok {
			clone := wire.New(m.Kind, 0)
			for k, v := range m.Fields {
				clone.SetStr(k, v)
			}
			clone.SetStr(originField, origin)
			if _, err := s.reliability.Send(clone, ep, now); err != nil {
				return err
			}
		}
	}

	return s.fanOutExcluding(m, origin, from, now)
}
