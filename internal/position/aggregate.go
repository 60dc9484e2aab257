// Package position enumerates a user's liquidity positions and sums the ones
// that belong to a given collateral pair.
package position

import (
	"fmt"

	"nitroScope/internal/model"
)

// MismatchPolicy decides what happens to positions on a different pair.
type MismatchPolicy int

const (
	// MismatchSkip excludes positions on other pairs from the total.
	MismatchSkip MismatchPolicy = iota
	// MismatchReject fails the aggregation on the first foreign position.
	MismatchReject
)

// ParseMismatchPolicy accepts "skip" or "reject".
func ParseMismatchPolicy(value string) (MismatchPolicy, error) {
	switch value {
	case "", "skip":
		return MismatchSkip, nil
	case "reject":
		return MismatchReject, nil
	default:
		return MismatchSkip, fmt.Errorf("unknown mismatch policy: %s", value)
	}
}

func (p MismatchPolicy) String() string {
	if p == MismatchReject {
		return "reject"
	}
	return "skip"
}

// PairMismatchError reports a position or position contract whose collateral
// pair differs from the expected pair.
type PairMismatchError struct {
	Source   model.PositionSource
	Contract string
	TokenID  string
	Expected model.Pair
	Actual   model.Pair
}

func (e *PairMismatchError) Error() string {
	if e.TokenID == "" {
		return fmt.Sprintf("%s contract %s holds pair %s, expected %s", e.Source, e.Contract, e.Actual, e.Expected)
	}
	return fmt.Sprintf("%s position %s on %s holds pair %s, expected %s", e.Source, e.TokenID, e.Contract, e.Actual, e.Expected)
}

// Result is the outcome of Aggregate.
type Result struct {
	Total   float64
	Matched []model.Position
	Skipped []model.Position
}

// Aggregate sums the amounts of positions whose pair matches pair, in either
// token order. An empty input yields a zero total.
func Aggregate(positions []model.Position, pair model.Pair, policy MismatchPolicy) (Result, error) {
	res := Result{Matched: make([]model.Position, 0, len(positions))}
	for _, pos := range positions {
		if !pair.Matches(pos.Pair) {
			if policy == MismatchReject {
				return Result{}, &PairMismatchError{
					Source:   pos.Source,
					Contract: pos.Contract,
					TokenID:  pos.TokenID,
					Expected: pair,
					Actual:   pos.Pair,
				}
			}
			res.Skipped = append(res.Skipped, pos)
			continue
		}
		res.Total += pos.Amount
		res.Matched = append(res.Matched, pos)
	}
	return res, nil
}

// TotalBySource sums matched amounts for one position source.
func (r Result) TotalBySource(source model.PositionSource) float64 {
	var total float64
	for _, pos := range r.Matched {
		if pos.Source == source {
			total += pos.Amount
		}
	}
	return total
}
