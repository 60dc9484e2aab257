package position

import (
	"errors"
	"testing"

	"nitroScope/internal/model"
)

var (
	expectedPair = model.Pair{
		Token0: "0x000000000000000000000000000000000000000A",
		Token1: "0x000000000000000000000000000000000000000B",
	}
	otherPair = model.Pair{
		Token0: "0x000000000000000000000000000000000000000A",
		Token1: "0x000000000000000000000000000000000000000C",
	}
)

func TestAggregateEmpty(t *testing.T) {
	res, err := Aggregate(nil, expectedPair, MismatchReject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Matched) != 0 {
		t.Fatalf("expected zero total, got %+v", res)
	}
}

func TestAggregateSkipsMismatch(t *testing.T) {
	positions := []model.Position{
		{Source: model.SourceSpNFT, TokenID: "1", Pair: expectedPair, Amount: 10},
		{Source: model.SourceAlgebra, TokenID: "2", Pair: model.Pair{Token0: expectedPair.Token1, Token1: expectedPair.Token0}, Amount: 15},
		{Source: model.SourceAlgebra, TokenID: "3", Pair: otherPair, Amount: 5},
	}

	res, err := Aggregate(positions, expectedPair, MismatchSkip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 25 {
		t.Fatalf("total: got %v want 25", res.Total)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].TokenID != "3" {
		t.Fatalf("skipped mismatch: %+v", res.Skipped)
	}
	if got := res.TotalBySource(model.SourceSpNFT); got != 10 {
		t.Fatalf("spnft total: got %v want 10", got)
	}
	if got := res.TotalBySource(model.SourceAlgebra); got != 15 {
		t.Fatalf("algebra total: got %v want 15", got)
	}
}

func TestAggregateRejectsMismatch(t *testing.T) {
	positions := []model.Position{
		{Source: model.SourceAlgebra, Contract: "0xmanager", TokenID: "1", Pair: expectedPair, Amount: 10},
		{Source: model.SourceAlgebra, Contract: "0xmanager", TokenID: "2", Pair: otherPair, Amount: 5},
	}

	_, err := Aggregate(positions, expectedPair, MismatchReject)
	var mismatch *PairMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected PairMismatchError, got %v", err)
	}
	if mismatch.TokenID != "2" || mismatch.Actual != otherPair {
		t.Fatalf("mismatch details: %+v", mismatch)
	}
}

func TestParseMismatchPolicy(t *testing.T) {
	for in, want := range map[string]MismatchPolicy{"": MismatchSkip, "skip": MismatchSkip, "reject": MismatchReject} {
		got, err := ParseMismatchPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseMismatchPolicy(%q): got %v, %v", in, got, err)
		}
	}
	if _, err := ParseMismatchPolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
