// Package reliability implements the at-least-once delivery layer: an
// outbound record table with fixed-interval retransmission, and a bounded
// per-endpoint dedup set for effectively-once processing of inbound
// datagrams. It never blocks and owns no goroutines — tick(now) is driven
// by the single cooperative loop in internal/loop.
package reliability

import (
	"time"

	"pokeduel/internal/wire"
)

// DefaultRetryInterval matches the constant 500ms interval spec.md requires;
// no backoff, no jitter.
const DefaultRetryInterval = 500 * time.Millisecond

// DefaultMaxRetries caps retransmission at 3 retries (4 attempts total)
// before the destination is reported unreachable.
const DefaultMaxRetries = 3

// SendFunc performs the actual datagram write; supplied by the loop so this
// package never touches a socket directly.
type SendFunc func(data []byte, dest Endpoint) error

// Counters receives reliability-layer events for external observability.
// internal/metrics implements this; tests can pass a no-op stub.
type Counters interface {
	Sent()
	Retransmitted()
	Acked()
	Duplicate()
}

type noopCounters struct{}

func (noopCounters) Sent()          {}
func (noopCounters) Retransmitted() {}
func (noopCounters) Acked()         {}
func (noopCounters) Duplicate()     {}

type outboundRecord struct {
	data      []byte
	dest      Endpoint
	firstSent time.Time
	lastSent  time.Time
	retries   int
	nextRetry time.Time
}

// Layer is the reliability state owned by one local peer. It is not safe for
// concurrent use; the cooperative loop is its only caller.
type Layer struct {
	send          SendFunc
	retryInterval time.Duration
	maxRetries    int
	counters      Counters

	nextSeq  uint64
	outbound map[uint64]*outboundRecord
	dedup    map[Endpoint]*dedupSet

	// OnUnreachable fires once for each record that exhausts its retries,
	// after the record is dropped. The layer takes no other action on it;
	// cmd/pokeduel only logs it, and the battle is not ended.
	OnUnreachable func(dest Endpoint, seq uint64)
}

// Option configures a Layer at construction.
type Option func(*Layer)

func WithRetryInterval(d time.Duration) Option { return func(l *Layer) { l.retryInterval = d } }
func WithMaxRetries(n int) Option              { return func(l *Layer) { l.maxRetries = n } }
func WithCounters(c Counters) Option            { return func(l *Layer) { l.counters = c } }

// New builds a Layer that writes outbound datagrams via send.
func New(send SendFunc, opts ...Option) *Layer {
	l := &Layer{
		send:          send,
		retryInterval: DefaultRetryInterval,
		maxRetries:    DefaultMaxRetries,
		counters:      noopCounters{},
		outbound:      make(map[uint64]*outboundRecord),
		dedup:         make(map[Endpoint]*dedupSet),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Send assigns the message the next sender-scoped sequence number, encodes
// it, writes it, and tracks it for retransmission until ACKed. ACK messages
// themselves are never tracked (§4.2: no ACK-for-ACK).
func (l *Layer) Send(m *wire.Message, dest Endpoint, now time.Time) (uint64, error) {
	if m.Kind == wire.KindACK {
		data := wire.Encode(m)
		l.counters.Sent()
		return 0, l.send(data, dest)
	}

	l.nextSeq++
	m.Sequence = l.nextSeq
	data := wire.Encode(m)

	if err := l.send(data, dest); err != nil {
		return m.Sequence, err
	}
	l.counters.Sent()

	l.outbound[m.Sequence] = &outboundRecord{
		data:      data,
		dest:      dest,
		firstSent: now,
		lastSent:  now,
		nextRetry: now.Add(l.retryInterval),
	}
	return m.Sequence, nil
}

// OnDatagram decodes an inbound datagram from src. For an ACK it clears the
// matching outbound record and returns (nil, nil). For anything else, it
// always re-sends an ACK (duplicates included, per §4.2), and returns the
// decoded message only the first time that sequence number is seen from
// src; a repeat delivery yields (nil, nil) after re-ACKing.
func (l *Layer) OnDatagram(data []byte, src Endpoint, now time.Time) (*wire.Message, error) {
	m, err := wire.Decode(data)
	if err != nil {
		return nil, err
	}

	if m.Kind == wire.KindACK {
		if rec, ok := l.outbound[m.AckNumber]; ok {
			_ = rec
			delete(l.outbound, m.AckNumber)
			l.counters.Acked()
		}
		return nil, nil
	}

	set, ok := l.dedup[src]
	if !ok {
		set = newDedupSet()
		l.dedup[src] = set
	}
	duplicate := set.Seen(m.Sequence)
	set.Mark(m.Sequence)

	if _, sendErr := l.Send(wire.NewACK(m.Sequence), src, now); sendErr != nil {
		return nil, sendErr
	}

	if duplicate {
		l.counters.Duplicate()
		return nil, nil
	}
	return m, nil
}

// Tick drives retransmission. Any outbound record whose retry deadline has
// passed is resent; a record that has exhausted maxRetries is dropped and
// OnUnreachable fires for its destination.
func (l *Layer) Tick(now time.Time) {
	for seq, rec := range l.outbound {
		if now.Before(rec.nextRetry) {
			continue
		}
		if rec.retries >= l.maxRetries {
			delete(l.outbound, seq)
			if l.OnUnreachable != nil {
				l.OnUnreachable(rec.dest, seq)
			}
			continue
		}
		_ = l.send(rec.data, rec.dest)
		l.counters.Retransmitted()
		rec.retries++
		rec.lastSent = now
		rec.nextRetry = now.Add(l.retryInterval)
	}
}

// Pending reports how many outbound records are still awaiting ACK.
func (l *Layer) Pending() int {
	return len(l.outbound)
}
