package valuation

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestShareRatioProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ratio stays within [0, 1] when user <= total", prop.ForAll(
		func(total, fraction float64) bool {
			user := total * fraction
			ratio, err := ShareRatio(user, total)
			if err != nil {
				return false
			}
			return ratio >= 0 && ratio <= 1
		},
		gen.Float64Range(1e-9, 1e12),
		gen.Float64Range(0, 1),
	))

	properties.Property("dollar value scales linearly with tvl", prop.ForAll(
		func(ratio, tvl, factor float64) bool {
			base, err := DollarValue(ratio, tvl)
			if err != nil {
				return false
			}
			scaled, err := DollarValue(ratio, tvl*factor)
			if err != nil {
				return false
			}
			want := base * factor
			return math.Abs(scaled-want) <= 1e-9*math.Max(1, math.Abs(want))
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1e9),
		gen.Float64Range(0, 100),
	))

	properties.Property("zero total always fails", prop.ForAll(
		func(user float64) bool {
			_, err := ShareRatio(user, 0)
			return err != nil
		},
		gen.Float64Range(0, 1e12),
	))

	properties.TestingRun(t)
}
