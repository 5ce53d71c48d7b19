// Package battle implements the four-step turn state machine: Attack,
// Defense, CalculationReport, CalculationConfirm, with discrepancy
// resolution and GameOver detection. Both peers run the identical state
// machine in lockstep from the same shared seed.
package battle

import (
	"fmt"

	"pokeduel/internal/battleerr"
	"pokeduel/internal/catalog"
	"pokeduel/internal/damage"
	"pokeduel/internal/role"
	"pokeduel/internal/wire"
	wirebytes "pokeduel/pkg/wire"
)

type turnReport struct {
	Damage          int64
	DefenderHPAfter float64
	Checksum        uint32
	StatusMessage   string
}

func reportChecksum(damage int64, hpAfter float64) uint32 {
	return wirebytes.Checksum([]byte(fmt.Sprintf("%d|%f", damage, hpAfter)))
}

type pendingTurn struct {
	attackerIsLocal  bool
	moveName         string
	attackBoostUsed  bool
	defenseBoostUsed bool

	// random is drawn exactly once per turn (invariant I3); every
	// recomputation of localReport (late-arriving boost info, discrepancy
	// resolution) reuses it instead of pulling a fresh value.
	random      float64
	randomDrawn bool

	localReport  *turnReport
	remoteReport *turnReport

	localConfirmed  bool
	remoteConfirmed bool

	discrepancyAttempted bool
}

// Battle is one in-progress fight between two local/remote Pokemon views.
type Battle struct {
	State    State
	MyTurn   bool
	Mine     *Pokemon
	Opponent *Pokemon

	// LocalRole is this peer's own role (Host or Joiner), used only to
	// render the correct winner_role on a local GameOver.
	LocalRole role.Role

	rng   *damage.RNG
	sink  EventSink
	moves *catalog.Catalog

	pending *pendingTurn

	// defenseBoostArmed is set ahead of time by the local player (there is
	// no user-facing decision point between receiving an AttackAnnounce and
	// replying with DefenseAnnounce) and consumed the next time this peer
	// is the defender.
	defenseBoostArmed bool
}

// NewBattle constructs a battle from BattleSetup data already exchanged.
// hostStarts decides initial turn ownership (the Host always starts, per
// the data model's Turn Cursor description). moves resolves move_name to
// its base power, category, and type.
func NewBattle(mine, opponent *Pokemon, seed uint32, hostStarts bool, localRole role.Role, moves *catalog.Catalog, sink EventSink) *Battle {
	if sink == nil {
		sink = NopSink{}
	}
	return &Battle{
		State:     StateWaitingForMove,
		MyTurn:    hostStarts,
		Mine:      mine,
		Opponent:  opponent,
		LocalRole: localRole,
		rng:       damage.NewRNG(seed),
		moves:     moves,
		sink:      sink,
	}
}

func (b *Battle) opponentRole() role.Role {
	if b.LocalRole == role.Host {
		return role.Joiner
	}
	return role.Host
}

// SetDefenseBoostArmed arms or disarms this side's special-defense boost for
// the next turn in which it finds itself the defender. Consumed the moment
// an AttackAnnounce triggers a DefenseAnnounce.
func (b *Battle) SetDefenseBoostArmed(armed bool) {
	b.defenseBoostArmed = armed
}

// BeginTurn is called when the local player submits a move. Only legal when
// it is this peer's turn and the battle is waiting for one.
func (b *Battle) BeginTurn(moveName string, useBoost bool) (*wire.Message, error) {
	if b.State != StateWaitingForMove || !b.MyTurn {
		return nil, battleerr.New(battleerr.KindIllegalTurn, "cannot submit a move in state %s (my_turn=%v)", b.State, b.MyTurn)
	}
	if useBoost && !b.Mine.ConsumeAttackBoost() {
		return nil, battleerr.New(battleerr.KindNoBoostAvailable, "no special-attack boosts remaining for %s", b.Mine.Name)
	}

	b.pending = &pendingTurn{attackerIsLocal: true, moveName: moveName, attackBoostUsed: useBoost}
	b.State = StateProcessingTurn

	msg := wire.New(wire.KindAttackAnnounce, 0).SetStr("move_name", moveName).SetBool("boost_used", useBoost)
	return msg, nil
}

// HandleMessage advances the state machine on a decoded inbound message and
// returns zero or more outbound messages to send in response.
func (b *Battle) HandleMessage(m *wire.Message) ([]*wire.Message, error) {
	switch m.Kind {
	case wire.KindAttackAnnounce:
		return b.onAttackAnnounce(m)
	case wire.KindDefenseAnnounce:
		return b.onDefenseAnnounce(m)
	case wire.KindCalculationReport:
		return b.onCalculationReport(m)
	case wire.KindCalculationConfirm:
		return b.onCalculationConfirm(m)
	case wire.KindResolutionRequest:
		return b.onResolutionRequest(m)
	case wire.KindGameOver:
		return b.onGameOver(m)
	default:
		return nil, nil
	}
}

func (b *Battle) onAttackAnnounce(m *wire.Message) ([]*wire.Message, error) {
	if b.State != StateWaitingForMove || b.MyTurn {
		return nil, battleerr.New(battleerr.KindIllegalTurn, "received AttackAnnounce while in state %s (my_turn=%v)", b.State, b.MyTurn)
	}
	b.pending = &pendingTurn{
		attackerIsLocal: false,
		moveName:        m.Str("move_name"),
		attackBoostUsed: m.Bool("boost_used"),
	}
	b.State = StateProcessingTurn

	defenseBoostUsed := false
	if b.defenseBoostArmed {
		defenseBoostUsed = b.Mine.ConsumeDefenseBoost()
	}
	b.defenseBoostArmed = false
	b.pending.defenseBoostUsed = defenseBoostUsed

	defenseMsg := wire.New(wire.KindDefenseAnnounce, 0).SetBool("defense_boost_used", defenseBoostUsed)

	report, err := b.computeLocalReport()
	if err != nil {
		return nil, err
	}
	reportMsg := b.reportMessage(report)
	b.State = StateResolving

	return []*wire.Message{defenseMsg, reportMsg}, nil
}

func (b *Battle) onDefenseAnnounce(m *wire.Message) ([]*wire.Message, error) {
	if b.pending == nil || !b.pending.attackerIsLocal {
		return nil, battleerr.New(battleerr.KindIllegalTurn, "unexpected DefenseAnnounce in state %s", b.State)
	}
	b.pending.defenseBoostUsed = m.Bool("defense_boost_used")

	// onCalculationReport's out-of-order fallback may already have computed
	// this turn's report if the peer's CalcReport arrived first.
	if b.pending.localReport != nil {
		return nil, nil
	}

	report, err := b.computeLocalReport()
	if err != nil {
		return nil, err
	}
	reportMsg := b.reportMessage(report)
	b.State = StateResolving
	return []*wire.Message{reportMsg}, nil
}

// computeLocalReport looks up the turn's move and runs the damage engine.
// Safe to call more than once for the same turn: the RNG draw happens at
// most once (pending.randomDrawn), so recomputation after new information
// arrives (a boost declaration, a resolution request) never disturbs the
// shared RNG stream.
func (b *Battle) computeLocalReport() (*turnReport, error) {
	attacker, defender := b.attackerDefender()

	move, ok := b.moves.LookupMove(b.pending.moveName)
	if !ok {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "unknown move %q", b.pending.moveName)
	}

	if !b.pending.randomDrawn {
		b.pending.random = b.rng.RandomMultiplier()
		b.pending.randomDrawn = true
	}

	result := damage.CalculateWithRandom(damage.Input{
		Power:    move.Power,
		Category: move.Category,
		MoveType: move.Type,

		AttackerAttack:        attacker.BaseAttack,
		AttackerSpecialAttack: attacker.BaseSpecialAttack,

		DefenderDefense:        defender.BaseDefense,
		DefenderSpecialDefense: defender.BaseSpecialDefense,

		AttackerType1: attacker.Type1,
		AttackerType2: attacker.Type2,
		DefenderType1: defender.Type1,
		DefenderType2: defender.Type2,

		AttackerBoost: b.pending.attackBoostUsed,
		DefenderBoost: b.pending.defenseBoostUsed,
	}, b.pending.random)

	hpAfter := defender.RawHP() - float64(result.Damage)
	report := &turnReport{
		Damage:          result.Damage,
		DefenderHPAfter: hpAfter,
		Checksum:        reportChecksum(result.Damage, hpAfter),
		StatusMessage:   result.StatusMessage,
	}
	b.pending.localReport = report
	return report, nil
}

func (b *Battle) reportMessage(r *turnReport) *wire.Message {
	return wire.New(wire.KindCalculationReport, 0).
		SetInt("damage", r.Damage).
		SetStr("defender_hp_after", fmt.Sprintf("%f", r.DefenderHPAfter)).
		SetInt("checksum", int64(r.Checksum)).
		SetStr("status_message", r.StatusMessage)
}

// resolutionRequestMessage carries this peer's own computed values, per
// §6.2, so the counterparty can recompute and compare against them rather
// than against a report snapshot taken before Resolving was entered.
func (b *Battle) resolutionRequestMessage(reason string) *wire.Message {
	return wire.New(wire.KindResolutionRequest, 0).
		SetStr("reason", reason).
		SetInt("damage_dealt", b.pending.localReport.Damage).
		SetStr("defender_hp_remaining", fmt.Sprintf("%f", b.pending.localReport.DefenderHPAfter))
}

func (b *Battle) attackerDefender() (attacker, defender *Pokemon) {
	if b.pending.attackerIsLocal {
		return b.Mine, b.Opponent
	}
	return b.Opponent, b.Mine
}

func (b *Battle) onCalculationReport(m *wire.Message) ([]*wire.Message, error) {
	if b.pending == nil {
		return nil, battleerr.New(battleerr.KindProtocolDesync, "received CalculationReport with no pending turn")
	}
	damageVal, err := m.Int("damage")
	if err != nil {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "damage field: %v", err)
	}
	var hpAfter float64
	if _, err := fmt.Sscanf(m.Str("defender_hp_after"), "%f", &hpAfter); err != nil {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "defender_hp_after field: %v", err)
	}
	checksumVal, err := m.Int("checksum")
	if err != nil {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "checksum field: %v", err)
	}

	b.pending.remoteReport = &turnReport{Damage: damageVal, DefenderHPAfter: hpAfter, Checksum: uint32(checksumVal), StatusMessage: m.Str("status_message")}

	if b.pending.localReport == nil {
		if _, err := b.computeLocalReport(); err != nil {
			return nil, err
		}
	}

	if reportsMatch(b.pending.localReport, b.pending.remoteReport) {
		b.pending.localConfirmed = true
		confirm := wire.New(wire.KindCalculationConfirm, 0).SetBool("agree", true)
		out := []*wire.Message{confirm}
		if b.pending.remoteConfirmed {
			out = append(out, b.applyResolvedTurn()...)
		}
		return out, nil
	}

	return b.enterResolving("calculation_mismatch")
}

func (b *Battle) onCalculationConfirm(m *wire.Message) ([]*wire.Message, error) {
	if b.pending == nil {
		return nil, battleerr.New(battleerr.KindProtocolDesync, "received CalculationConfirm with no pending turn")
	}
	if !m.Bool("agree") {
		if b.pending.localReport == nil {
			if _, err := b.computeLocalReport(); err != nil {
				return nil, err
			}
		}
		return b.enterResolving("peer_disagreed")
	}

	b.pending.remoteConfirmed = true
	if b.pending.localConfirmed {
		return b.applyResolvedTurn(), nil
	}
	return nil, nil
}

// onResolutionRequest handles the receiving side of a discrepancy: it force
// -recomputes its own report (no new RNG draw, per computeLocalReport) and
// compares against the values the peer carried in the request, rather than
// whatever stale remoteReport existed before Resolving was entered. A match
// here converges the turn; a second mismatch is fatal.
func (b *Battle) onResolutionRequest(m *wire.Message) ([]*wire.Message, error) {
	if b.pending == nil {
		return nil, battleerr.New(battleerr.KindProtocolDesync, "ResolutionRequest with no pending turn")
	}
	peerDamage, err := m.Int("damage_dealt")
	if err != nil {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "damage_dealt field: %v", err)
	}
	var peerHP float64
	if _, err := fmt.Sscanf(m.Str("defender_hp_remaining"), "%f", &peerHP); err != nil {
		return nil, battleerr.New(battleerr.KindMalformedMessage, "defender_hp_remaining field: %v", err)
	}

	report, err := b.computeLocalReport()
	if err != nil {
		return nil, err
	}
	b.pending.remoteReport = &turnReport{Damage: peerDamage, DefenderHPAfter: peerHP}

	if report.Damage != peerDamage || report.DefenderHPAfter != peerHP {
		return b.enterResolving("calculation_mismatch")
	}

	b.pending.localConfirmed = true
	confirm := wire.New(wire.KindCalculationConfirm, 0).SetBool("agree", true)
	out := []*wire.Message{confirm}
	if b.pending.remoteConfirmed {
		out = append(out, b.applyResolvedTurn()...)
	}
	return out, nil
}

// enterResolving sends this peer's own values as a ResolutionRequest on the
// first disagreement; a second one aborts the battle (GameOver state,
// OnDesync raised) per the two-strike table in §4.4.
func (b *Battle) enterResolving(reason string) ([]*wire.Message, error) {
	if b.pending.discrepancyAttempted {
		cause := "calculation mismatch persisted after resolution request"
		b.State = StateGameOver
		b.sink.OnDesync(cause)
		return nil, battleerr.New(battleerr.KindProtocolDesync, "%s", cause)
	}
	b.pending.discrepancyAttempted = true
	b.State = StateResolving
	return []*wire.Message{b.resolutionRequestMessage(reason)}, nil
}

func (b *Battle) onGameOver(m *wire.Message) ([]*wire.Message, error) {
	b.State = StateGameOver
	winner := role.Role(0)
	switch m.Str("winner_role") {
	case "host":
		winner = role.Host
	case "joiner":
		winner = role.Joiner
	}
	b.sink.OnGameOver(winner)
	return nil, nil
}

func reportsMatch(a, b *turnReport) bool {
	return a.Damage == b.Damage && a.DefenderHPAfter == b.DefenderHPAfter && a.Checksum == b.Checksum
}

// applyResolvedTurn is called once both peers have confirmed agreement: it
// mutates HP, flips turn ownership, raises the turn-resolved event, and
// checks for GameOver.
func (b *Battle) applyResolvedTurn() []*wire.Message {
	attacker, defender := b.attackerDefender()
	defender.ApplyDamage(b.pending.localReport.Damage)

	b.sink.OnTurnResolved(attacker, defender, TurnResult{
		MoveName:        b.pending.moveName,
		Damage:          b.pending.localReport.Damage,
		DefenderHPAfter: defender.HP(),
		BoostUsed:       b.pending.attackBoostUsed,
		StatusMessage:   b.pending.localReport.StatusMessage,
	})

	b.MyTurn = !b.MyTurn
	b.pending = nil
	b.State = StateWaitingForMove

	if defender.IsFainted() {
		b.State = StateGameOver
		winnerRole := b.opponentRole()
		if attacker == b.Mine {
			winnerRole = b.LocalRole
		}
		b.sink.OnGameOver(winnerRole)
		return []*wire.Message{wire.New(wire.KindGameOver, 0).SetStr("winner_role", winnerRole.String())}
	}
	return nil
}
