package reliability

import (
	"testing"
	"time"

	"pokeduel/internal/wire"
)

func BenchmarkSend(b *testing.B) {
	l := New(func([]byte, Endpoint) error { return nil })
	dest := Endpoint{IP: "127.0.0.1", Port: 7777}
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = l.Send(wire.New(wire.KindChatMessage, 0).SetStr("content_type", "text").SetStr("content", "gl hf"), dest, now)
	}
}

func BenchmarkOnDatagram(b *testing.B) {
	l := New(func([]byte, Endpoint) error { return nil })
	src := Endpoint{IP: "127.0.0.1", Port: 7777}
	now := time.Now()
	msg := wire.New(wire.KindAttackAnnounce, 1).SetStr("move_name", "thunderbolt")
	data := wire.Encode(msg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		msg.Sequence = uint64(i + 1)
		_, _ = l.OnDatagram(wire.Encode(msg), src, now)
		_ = data
	}
}

func BenchmarkTick(b *testing.B) {
	l := New(func([]byte, Endpoint) error { return nil })
	dest := Endpoint{IP: "127.0.0.1", Port: 7777}
	now := time.Now()
	for i := 0; i < 100; i++ {
		_, _ = l.Send(wire.New(wire.KindChatMessage, 0).SetStr("content", "x"), dest, now)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now = now.Add(DefaultRetryInterval + time.Millisecond)
		l.Tick(now)
	}
}
