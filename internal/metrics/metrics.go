// Package metrics exposes reliability and battle counters through
// VictoriaMetrics' lightweight client, the way R2Northstar-Atlas wires its
// masterserver counters.
package metrics

import "github.com/VictoriaMetrics/metrics"

// Reliability implements reliability.Counters.
type Reliability struct {
	sent          *metrics.Counter
	retransmitted *metrics.Counter
	acked         *metrics.Counter
	duplicate     *metrics.Counter
}

// NewReliability registers the four reliability-layer counters under a
// per-endpoint label so a Host's metrics don't collide with a Joiner's in
// the same process during tests.
func NewReliability(label string) *Reliability {
	return &Reliability{
		sent:          metrics.GetOrCreateCounter(`pokeduel_reliability_sent_total{endpoint="` + label + `"}`),
		retransmitted: metrics.GetOrCreateCounter(`pokeduel_reliability_retransmitted_total{endpoint="` + label + `"}`),
		acked:         metrics.GetOrCreateCounter(`pokeduel_reliability_acked_total{endpoint="` + label + `"}`),
		duplicate:     metrics.GetOrCreateCounter(`pokeduel_reliability_duplicate_total{endpoint="` + label + `"}`),
	}
}

func (r *Reliability) Sent()          { r.sent.Inc() }
func (r *Reliability) Retransmitted() { r.retransmitted.Inc() }
func (r *Reliability) Acked()         { r.acked.Inc() }
func (r *Reliability) Duplicate()     { r.duplicate.Inc() }

// Battle tracks turns completed and desyncs observed, per session.
type Battle struct {
	turnsCompleted *metrics.Counter
	desyncs        *metrics.Counter
}

func NewBattle(label string) *Battle {
	return &Battle{
		turnsCompleted: metrics.GetOrCreateCounter(`pokeduel_battle_turns_completed_total{session="` + label + `"}`),
		desyncs:        metrics.GetOrCreateCounter(`pokeduel_battle_desyncs_total{session="` + label + `"}`),
	}
}

func (b *Battle) TurnCompleted() { b.turnsCompleted.Inc() }
func (b *Battle) Desync()        { b.desyncs.Inc() }
