package model

// PositionSource identifies the contract family a position comes from.
type PositionSource string

const (
	SourceSpNFT   PositionSource = "spnft"
	SourceAlgebra PositionSource = "algebra"
)

// Position is a user-owned claim on pooled liquidity.
type Position struct {
	Source    PositionSource `json:"source"`
	Contract  string         `json:"contract"`
	Owner     string         `json:"owner"`
	TokenID   string         `json:"token_id"`
	Pair      Pair           `json:"pair"`
	RawAmount string         `json:"raw_amount"`
	Decimals  uint8          `json:"decimals"`
	Amount    float64        `json:"amount"`
}

// PositionSummary is the aggregated view of a user's positions for one pair.
type PositionSummary struct {
	Owner        string     `json:"owner"`
	Pair         Pair       `json:"pair"`
	Positions    []Position `json:"positions"`
	SpNFTTotal   float64    `json:"spnft_total"`
	AlgebraTotal float64    `json:"algebra_total"`
	Total        float64    `json:"total"`
	Skipped      int        `json:"skipped"`
}
