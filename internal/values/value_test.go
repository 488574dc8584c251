package values

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestNewUintFromBigBoundary(t *testing.T) {
	max128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	over := new(big.Int).Add(max128, big.NewInt(1))

	if v := NewUintFromBig(max128); v.Kind != VUint {
		t.Fatalf("expected VUint at 2^128-1, got %s", v.Kind)
	}
	if v := NewUintFromBig(over); v.Kind != VBigUint {
		t.Fatalf("expected VBigUint at 2^128, got %s", v.Kind)
	}
}

func TestBigUintNoLeadingZeros(t *testing.T) {
	v := NewUintFromBig(big.NewInt(0))
	s, ok := v.DecimalString()
	if !ok || s != "0" {
		t.Fatalf("expected \"0\", got %q ok=%v", s, ok)
	}
}

func TestValueJSONRoundtripUint(t *testing.T) {
	v := NewUint64(1_000_000)
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var out Value
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	s1, _ := v.DecimalString()
	s2, _ := out.DecimalString()
	if s1 != s2 {
		t.Fatalf("roundtrip mismatch: %s != %s", s1, s2)
	}
}

func TestValueJSONWideIntIsString(t *testing.T) {
	huge := new(big.Int)
	huge.SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	v := NewUintFromBig(huge)
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatal(err)
	}
	var s string
	if err := json.Unmarshal(w.Value, &s); err != nil {
		t.Fatalf("expected wide uint encoded as JSON string, got %s: %v", w.Value, err)
	}
}

func TestCanonicalTypeStringRoundtrip(t *testing.T) {
	cases := []struct {
		ty   CanonicalType
		want string
	}{
		{Uint(256), "uint256"},
		{Int(24), "int24"},
		{Array(Address(FamilyEVM)), "address[]"},
		{BytesN(32), "bytes32"},
		{FixedArray(Uint(8), 4), "uint8[4]"},
		{Tuple(NamedType{Name: "a", Type: Uint(64)}, NamedType{Name: "b", Type: Bool()}), "(uint64,bool)"},
		{Decimal(6), "decimal{decimals=6}"},
	}
	for _, c := range cases {
		if got := c.ty.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
