package model

// PoolShare is the user's proportional ownership of a staking program.
type PoolShare struct {
	UserDepositAmount  float64 `json:"user_deposit_amount"`
	TotalDepositAmount float64 `json:"total_deposit_amount"`
	Ratio              float64 `json:"ratio"`
}

// ProgramValuation is a pool share priced against the program's reported TVL.
type ProgramValuation struct {
	Address         string    `json:"address"`
	Share           PoolShare `json:"share"`
	TVLUSD          float64   `json:"tvl_usd"`
	UserDollarValue float64   `json:"user_dollar_value"`
	Note            string    `json:"note,omitempty"`
}
