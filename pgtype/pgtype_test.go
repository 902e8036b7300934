package pgtype

import (
	"testing"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

func TestDefaultDecoders(t *testing.T) {
	r := Default().Clone()

	cases := []struct {
		name string
		oid  uint32
		in   string
		want any
	}{
		{"int4", 23, "42", int32(42)},
		{"int8", 20, "9223372036854775807", int64(9223372036854775807)},
		{"bool-true", 16, "t", true},
		{"bool-false", 16, "f", false},
	}
	for _, c := range cases {
		r.RegisterOID(c.oid, map[uint32]string{23: "int4", 20: "int8", 16: "bool"}[c.oid])
		got, err := r.Decode(c.oid)([]byte(c.in))
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestUnknownOIDFallsBackToText(t *testing.T) {
	r := Default().Clone()
	got, err := r.Decode(999999)([]byte("hi"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Fatalf("got %v", got)
	}
}

func TestNumericDecodesToDecimal(t *testing.T) {
	r := Default().Clone()
	r.RegisterOID(1700, "numeric")
	got, err := r.Decode(1700)([]byte("3.14159"))
	if err != nil {
		t.Fatal(err)
	}
	want := decimal.RequireFromString("3.14159")
	if !got.(decimal.Decimal).Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDateDecodesToCivilDate(t *testing.T) {
	r := Default().Clone()
	r.RegisterOID(1082, "date")
	got, err := r.Decode(1082)([]byte("2026-07-30"))
	if err != nil {
		t.Fatal(err)
	}
	want := civil.Date{Year: 2026, Month: 7, Day: 30}
	if got.(civil.Date) != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestEncodeLiteral(t *testing.T) {
	r := Default().Clone()

	if got := r.EncodeLiteral(nil); got != "NULL" {
		t.Fatalf("nil: got %q", got)
	}
	if got := r.EncodeLiteral(`O'Reilly`); got != `'O\'Reilly'` {
		t.Fatalf("string: got %q", got)
	}
	if got := r.EncodeLiteral(`back\slash`); got != `'back\\slash'` {
		t.Fatalf("backslash: got %q", got)
	}
	if got := r.EncodeLiteral(civil.Date{Year: 2026, Month: 1, Day: 2}); got != "'2026-01-02'::date" {
		t.Fatalf("date: got %q", got)
	}
}

func TestRegisterOIDRewritesOnReRegisterByName(t *testing.T) {
	r := newRegistry()
	r.RegisterOID(700, "float4")
	r.RegisterByName([]string{"float4"}, decodeFloat64, Number)
	got, err := r.Decode(700)([]byte("1.5"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.5 {
		t.Fatalf("got %v", got)
	}
}

func TestCloneIsolatesOIDRegistrations(t *testing.T) {
	base := Default()
	clone := base.Clone()
	clone.RegisterOID(12345, "custom_type")

	if _, ok := base.byOID[12345]; ok {
		t.Fatal("clone mutated shared default registry")
	}
}
