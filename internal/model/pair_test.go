package model

import "testing"

func TestPairMatches(t *testing.T) {
	pair := Pair{
		Token0: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Token1: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}

	cases := []struct {
		name  string
		other Pair
		want  bool
	}{
		{"same order", Pair{Token0: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Token1: "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"}, true},
		{"reversed", Pair{Token0: pair.Token1, Token1: pair.Token0}, true},
		{"one token differs", Pair{Token0: pair.Token0, Token1: "0xcccccccccccccccccccccccccccccccccccccccc"}, false},
		{"same token twice", Pair{Token0: pair.Token0, Token1: pair.Token0}, false},
		{"empty", Pair{}, false},
	}

	for _, tc := range cases {
		if got := pair.Matches(tc.other); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}

	if (Pair{}).Matches(Pair{}) {
		t.Fatalf("empty pairs must not match")
	}
}

func TestCollateralAttributableBalance(t *testing.T) {
	token := CollateralToken{UserBalance: 100, PoolBalance: 10, NitroBalance: 2, PositionBalance: 3}
	if got := token.AttributableBalance(); got != 15 {
		t.Fatalf("attributable balance: got %v want 15", got)
	}
}
