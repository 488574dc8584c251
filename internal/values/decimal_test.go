package values

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalFromScaledIntRoundtrip(t *testing.T) {
	raw := big.NewInt(1_500_000) // 1.5 at scale 6
	d := DecimalFromScaledInt(raw, 6)

	want := decimal.NewFromFloat(1.5)
	if !d.Equal(want) {
		t.Fatalf("expected %s, got %s", want, d)
	}

	back := ScaledIntFromDecimal(d, 6)
	if back.Cmp(raw) != 0 {
		t.Fatalf("expected roundtrip to %s, got %s", raw, back)
	}
}

func TestNewDecimalScaledProducesUnscaledValue(t *testing.T) {
	raw := big.NewInt(1_500_000)
	v, err := NewDecimalScaled(raw, 6)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != VUint {
		t.Fatalf("expected VUint, got %s", v.Kind)
	}
	s, ok := v.DecimalString()
	if !ok || s != "1500000" {
		t.Fatalf("expected unscaled \"1500000\", got %q ok=%v", s, ok)
	}
}

func TestNewDecimalScaledZero(t *testing.T) {
	v, err := NewDecimalScaled(big.NewInt(0), 18)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.DecimalString()
	if !ok || s != "0" {
		t.Fatalf("expected \"0\", got %q ok=%v", s, ok)
	}
}
