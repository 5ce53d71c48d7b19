package wire

import (
	"strconv"
	"strings"
)

// requiredFields lists, per kind, the keys that must be present beyond
// message_type/sequence_number for the message to be usable. A key missing
// from this list is optional and simply absent from Fields if not sent.
var requiredFields = map[Kind][]string{
	KindHandshakeResponse:  {"seed"},
	KindBattleSetup:        {"pokemon_data"},
	KindAttackAnnounce:     {"move_name"},
	KindCalculationReport:  {"damage", "defender_hp_after", "checksum"},
	KindCalculationConfirm: {"agree"},
	KindResolutionRequest:  {"damage_dealt", "defender_hp_remaining"},
	KindGameOver:           {"winner_role"},
	KindChatMessage:        {"content_type", "content"},
}

// Decode parses a single datagram's worth of text into a Message. Any
// failure — no message_type line, an unrecognized kind, a missing required
// field, or a non-numeric sequence/ack number — returns a *MalformedError.
func Decode(data []byte) (*Message, error) {
	lines := strings.Split(string(data), "\n")

	raw := make(map[string]string, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, malformed("line without ':' separator: %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return nil, malformed("empty key in line %q", line)
		}
		if _, seen := raw[key]; !seen {
			order = append(order, key)
		}
		raw[key] = value
	}

	kindStr, ok := raw["message_type"]
	if !ok {
		return nil, malformed("missing message_type")
	}
	kind := Kind(kindStr)
	if !knownKind(kind) {
		return nil, malformed("unknown message_type %q", kindStr)
	}

	m := newMessage(kind)

	if kind == KindACK {
		ackStr, ok := raw["ack_number"]
		if !ok {
			return nil, malformed("ACK missing ack_number")
		}
		ack, err := strconv.ParseUint(ackStr, 10, 64)
		if err != nil {
			return nil, malformed("ack_number %q is not a u64: %v", ackStr, err)
		}
		m.AckNumber = ack
	} else {
		seqStr, ok := raw["sequence_number"]
		if !ok {
			return nil, malformed("%s missing sequence_number", kind)
		}
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			return nil, malformed("sequence_number %q is not a u64: %v", seqStr, err)
		}
		m.Sequence = seq
	}

	for _, req := range requiredFields[kind] {
		if _, ok := raw[req]; !ok {
			return nil, malformed("%s missing required field %q", kind, req)
		}
	}

	for _, k := range order {
		switch k {
		case "message_type", "sequence_number", "ack_number":
			continue
		}
		m.Fields[k] = raw[k]
	}

	return m, nil
}

func knownKind(k Kind) bool {
	switch k {
	case KindACK, KindHandshakeRequest, KindHandshakeResponse, KindSpectatorRequest,
		KindBattleSetup, KindAttackAnnounce, KindDefenseAnnounce, KindCalculationReport,
		KindCalculationConfirm, KindResolutionRequest, KindGameOver, KindChatMessage:
		return true
	default:
		return false
	}
}
