package battle

import "pokeduel/internal/role"

// EventSink receives battle outcomes as they happen. Nothing in this
// package persists anything itself (§6.3); an EventSink implementation
// (a CLI renderer, a log writer) is the only place a battle's history
// could be captured. Generalizes the teacher's EventType/EventHandler
// registration into a small fixed interface, since a battle only ever
// raises a handful of distinct outcomes rather than an open-ended set.
type EventSink interface {
	OnTurnResolved(attacker *Pokemon, defender *Pokemon, result TurnResult)
	OnGameOver(winner role.Role)
	OnDesync(reason string)
}

// NopSink discards every event; useful as a default and in tests that don't
// care about notifications.
type NopSink struct{}

func (NopSink) OnTurnResolved(*Pokemon, *Pokemon, TurnResult) {}
func (NopSink) OnGameOver(role.Role)                          {}
func (NopSink) OnDesync(string)                               {}

// TurnResult is the outcome of one fully-resolved turn, handed to the sink
// and usable by both peers to render an identical turn summary.
type TurnResult struct {
	MoveName        string
	Damage          int64
	DefenderHPAfter float64
	BoostUsed       bool
	StatusMessage   string
}
