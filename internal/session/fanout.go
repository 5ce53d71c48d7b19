package session

import (
	"time"

	"pokeduel/internal/reliability"
	"pokeduel/internal/wire"
)

// originField carries the original sender's role through a fanned-out copy,
// so a Spectator can still tell who attacked or who's chatting even though
// the datagram it received is a fresh send from the Host, not a relay.
const originField = "origin_role"

// FanOut re-emits m to every registered Spectator. Each copy gets a brand
// new sequence number from the reliability layer (never the original's —
// reusing it would let a Spectator's dedup set collide with the Joiner's),
// while the sender's role is preserved via originField so the copy is still
// attributable.
func (s *Session) FanOut(m *wire.Message, originRole string, now time.Time) error {
	return s.fanOutExcluding(m, originRole, reliability.Endpoint{}, now)
}

// fanOutExcluding is FanOut but skips the named endpoint — used for chat so
// a Spectator who just sent a message never receives its own echo back.
func (s *Session) fanOutExcluding(m *wire.Message, originRole string, exclude reliability.Endpoint, now time.Time) error {
	for _, spec := range s.Spectators() {
		if spec == exclude {
			continue
		}
		clone := wire.New(m.Kind, 0)
		for k, v := range m.Fields {
			clone.SetStr(k, v)
		}
		clone.SetStr(originField, originRole)
		if _, err := s.reliability.Send(clone, spec, now); err != nil {
			return err
		}
	}
	return nil
}
