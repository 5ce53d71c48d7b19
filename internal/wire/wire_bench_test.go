package wire

import "testing"

func BenchmarkEncode(b *testing.B) {
	m := New(KindCalculationReport, 42).
		SetInt("damage", 37).
		SetStr("defender_hp_after", "63.000000").
		SetInt("checksum", 123456789)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Encode(m)
	}
}

func BenchmarkDecode(b *testing.B) {
	m := New(KindCalculationReport, 42).
		SetInt("damage", 37).
		SetStr("defender_hp_after", "63.000000").
		SetInt("checksum", 123456789)
	data := Encode(m)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(data)
	}
}

func BenchmarkLiteralRoundTrip(b *testing.B) {
	fields := map[string]string{
		"name":  "pikachu",
		"type1": "electric",
		"type2": "",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := EncodeLiteral(fields)
		_, _ = DecodeLiteral(s)
	}
}
