package wire

import (
	"sort"
	"strconv"
	"strings"
)

// Encode renders m as the newline-separated "key: value" text format. Key
// order is fixed (message_type, then sequence_number/ack_number, then every
// other field sorted lexically) so that two peers building the same logical
// message from the same map produce byte-identical datagrams.
func Encode(m *Message) []byte {
	var b strings.Builder
	b.WriteString("message_type: ")
	b.WriteString(string(m.Kind))
	b.WriteByte('\n')

	if m.Kind == KindACK {
		b.WriteString("ack_number: ")
		b.WriteString(strconv.FormatUint(m.AckNumber, 10))
		b.WriteByte('\n')
	} else {
		b.WriteString("sequence_number: ")
		b.WriteString(strconv.FormatUint(m.Sequence, 10))
		b.WriteByte('\n')
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(m.Fields[k])
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
