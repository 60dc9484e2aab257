// Package valuation converts staking deposits into proportional dollar values.
package valuation

import (
	"errors"
	"fmt"
	"math"

	"nitroScope/internal/model"
)

var (
	// ErrInsufficientData reports inputs that cannot produce a meaningful
	// share, such as an empty program or a non-finite amount.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrShareExceedsTotal reports a user deposit larger than the program total.
	ErrShareExceedsTotal = errors.New("user deposit exceeds total deposit")
)

// ShareRatio returns userDeposit / totalDeposit, always within [0, 1].
func ShareRatio(userDeposit, totalDeposit float64) (float64, error) {
	if !finite(userDeposit) || !finite(totalDeposit) {
		return 0, fmt.Errorf("%w: non-finite deposit amount", ErrInsufficientData)
	}
	if totalDeposit <= 0 {
		return 0, fmt.Errorf("%w: total deposit amount is %v", ErrInsufficientData, totalDeposit)
	}
	if userDeposit < 0 {
		return 0, fmt.Errorf("%w: negative user deposit %v", ErrInsufficientData, userDeposit)
	}
	if userDeposit > totalDeposit {
		return 0, fmt.Errorf("%w: %v > %v", ErrShareExceedsTotal, userDeposit, totalDeposit)
	}
	return userDeposit / totalDeposit, nil
}

// DollarValue prices a share ratio against a program's total value locked.
func DollarValue(ratio, programTVL float64) (float64, error) {
	if !finite(ratio) || ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("%w: ratio %v outside [0, 1]", ErrInsufficientData, ratio)
	}
	if err := CheckTVL(programTVL); err != nil {
		return 0, err
	}
	return ratio * programTVL, nil
}

// CheckTVL rejects a negative or non-finite total value locked.
func CheckTVL(programTVL float64) error {
	if !finite(programTVL) || programTVL < 0 {
		return fmt.Errorf("%w: program tvl is %v", ErrInsufficientData, programTVL)
	}
	return nil
}

// Valuate combines ShareRatio and DollarValue.
func Valuate(userDeposit, totalDeposit, programTVL float64) (model.PoolShare, float64, error) {
	ratio, err := ShareRatio(userDeposit, totalDeposit)
	if err != nil {
		return model.PoolShare{}, 0, err
	}
	value, err := DollarValue(ratio, programTVL)
	if err != nil {
		return model.PoolShare{}, 0, err
	}
	share := model.PoolShare{
		UserDepositAmount:  userDeposit,
		TotalDepositAmount: totalDeposit,
		Ratio:              ratio,
	}
	return share, value, nil
}

// ApportionCollateral sets each token's UserShare to ratio times its
// attributable balance.
func ApportionCollateral(tokens []model.CollateralToken, ratio float64) ([]model.CollateralToken, error) {
	if !finite(ratio) || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: ratio %v outside [0, 1]", ErrInsufficientData, ratio)
	}
	out := make([]model.CollateralToken, len(tokens))
	for i, token := range tokens {
		token.UserShare = ratio * token.AttributableBalance()
		out[i] = token
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
