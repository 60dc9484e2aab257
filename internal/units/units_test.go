package units

import (
	"math/big"
	"testing"
)

func TestToFloat(t *testing.T) {
	oneEther, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := ToFloat(oneEther, 18); got != 1.5 {
		t.Fatalf("18 decimals: got %v want 1.5", got)
	}
	if got := ToFloat(big.NewInt(2500000), 6); got != 2.5 {
		t.Fatalf("6 decimals: got %v want 2.5", got)
	}
	if got := ToFloat(big.NewInt(42), 0); got != 42 {
		t.Fatalf("0 decimals: got %v want 42", got)
	}
	if got := ToFloat(nil, 18); got != 0 {
		t.Fatalf("nil: got %v want 0", got)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[float64]string{
		250:      "$250.00",
		0:        "$0.00",
		1234.567: "$1234.57",
	}
	for in, want := range cases {
		if got := FormatUSD(in); got != want {
			t.Fatalf("FormatUSD(%v): got %s want %s", in, got, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.25); got != "25.00%" {
		t.Fatalf("percent: got %s", got)
	}
}
