package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pokeduel/internal/battle"
	"pokeduel/internal/reliability"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
)

type fakeWire struct {
	sent map[reliability.Endpoint][][]byte
}

func newFakeWire() *fakeWire {
	return &fakeWire{sent: make(map[reliability.Endpoint][][]byte)}
}

func (f *fakeWire) send(data []byte, dest reliability.Endpoint) error {
	f.sent[dest] = append(f.sent[dest], data)
	return nil
}

func TestHandshakeAssignsSeedInRange(t *testing.T) {
	now := time.Unix(0, 0)
	hostWire := newFakeWire()
	hostRel := reliability.New(hostWire.send)
	host := NewHostSession(hostRel, battle.NopSink{})

	joinerEP := reliability.Endpoint{IP: "10.0.0.2", Port: 4000}
	err := host.HandleHandshakeRequest(joinerEP, func(m *wire.Message, dest reliability.Endpoint) error {
		_, err := hostRel.Send(m, dest, now)
		return err
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, host.Seed, uint32(1))
	require.LessOrEqual(t, host.Seed, uint32(99999))

	ep, ok := host.JoinerEndpoint()
	require.True(t, ok)
	require.Equal(t, joinerEP, ep)
}

func TestSpectatorRequestIsIdempotent(t *testing.T) {
	now := time.Unix(0, 0)
	hostWire := newFakeWire()
	hostRel := reliability.New(hostWire.send)
	host := NewHostSession(hostRel, battle.NopSink{})
	host.Seed = 555

	spec := reliability.Endpoint{IP: "10.0.0.3", Port: 5000}
	send := func(m *wire.Message, dest reliability.Endpoint) error {
		_, err := hostRel.Send(m, dest, now)
		return err
	}

	require.NoError(t, host.HandleSpectatorRequest(spec, send))
	require.NoError(t, host.HandleSpectatorRequest(spec, send))
	require.Len(t, host.Spectators(), 1)
}

func TestFanOutUsesFreshSequenceNumbers(t *testing.T) {
	now := time.Unix(0, 0)
	hostWire := newFakeWire()
	hostRel := reliability.New(hostWire.send)
	host := NewHostSession(hostRel, battle.NopSink{})

	spec1 := reliability.Endpoint{IP: "10.0.0.3", Port: 5000}
	spec2 := reliability.Endpoint{IP: "10.0.0.4", Port: 5001}
	host.spectators[spec1.String()] = spec1
	host.spectators[spec2.String()] = spec2

	original := wire.New(wire.KindChatMessage, 77).SetStr("content_type", "TEXT").SetStr("content", "hi")
	require.NoError(t, host.FanOut(original, "host", now))

	seen := make(map[uint64]bool)
	for _, dest := range []reliability.Endpoint{spec1, spec2} {
		datagrams := hostWire.sent[dest]
		require.Len(t, datagrams, 1)
		m, err := wire.Decode(datagrams[0])
		require.NoError(t, err)
		require.NotEqual(t, original.Sequence, m.Sequence)
		require.False(t, seen[m.Sequence], "sequence numbers across spectators must not collide")
		seen[m.Sequence] = true
		require.Equal(t, "host", m.Str(originField))
	}
}

func TestChatSelfEchoSuppression(t *testing.T) {
	now := time.Unix(0, 0)
	hostWire := newFakeWire()
	hostRel := reliability.New(hostWire.send)
	host := NewHostSession(hostRel, battle.NopSink{})

	spec := reliability.Endpoint{IP: "10.0.0.5", Port: 6000}
	host.spectators[spec.String()] = spec

	chat := wire.New(wire.KindChatMessage, 1).SetStr("content_type", "TEXT").SetStr("content", "hello")
	require.NoError(t, host.HandleChatMessage(chat, spec, now))

	require.Empty(t, hostWire.sent[spec], "the sender spectator must never receive its own chat back")
}

func TestSessionRoleStringsMatchWire(t *testing.T) {
	require.Equal(t, "host", role.Host.String())
	require.Equal(t, "joiner", role.Joiner.String())
	require.Equal(t, "spectator", role.Spectator.String())
}
