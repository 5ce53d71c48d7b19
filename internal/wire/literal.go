package wire

import (
	"sort"
	"strings"
)

// EncodeLiteral renders a string-keyed map as a deterministic structured
// literal: "{k: v, k: v}" with keys sorted, used for the opaque
// pokemon_data and stat_boosts fields. Backslashes, commas, colons and
// braces inside a key or value are backslash-escaped, so
// DecodeLiteral(EncodeLiteral(m)) == m. Leading and trailing whitespace of
// a key or value is not preserved.
func EncodeLiteral(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(escapeLiteral(k))
		b.WriteString(": ")
		b.WriteString(escapeLiteral(fields[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// DecodeLiteral parses the format EncodeLiteral produces.
func DecodeLiteral(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, malformed("structured literal missing braces: %q", s)
	}
	body := s[1 : len(s)-1]
	out := make(map[string]string)
	if strings.TrimSpace(body) == "" {
		return out, nil
	}

	pairs, err := splitUnescaped(body, ',')
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		kv, err := splitUnescaped(pair, ':')
		if err != nil {
			return nil, err
		}
		if len(kv) != 2 {
			return nil, malformed("structured literal pair missing ':': %q", pair)
		}
		key := unescapeLiteral(strings.TrimSpace(kv[0]))
		val := unescapeLiteral(strings.TrimSpace(kv[1]))
		out[key] = val
	}
	return out, nil
}

// splitUnescaped splits s on sep, treating a backslash-prefixed sep as
// literal rather than a delimiter.
func splitUnescaped(s string, sep byte) ([]string, error) {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if c == sep {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	parts = append(parts, cur.String())
	return parts, nil
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `,`, `\,`, `:`, `\:`, `{`, `\{`, `}`, `\}`)
	return r.Replace(s)
}

func unescapeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
